package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Lec-res/web-register-system-backend/internal/core/domain"
	"github.com/Lec-res/web-register-system-backend/internal/core/ports"
)

// UserHandler handles HTTP requests for user account operations. Known domain
// errors are returned to the central error handler, which maps them onto the
// response envelope.
type UserHandler struct {
	service ports.UserService
}

func NewUserHandler(service ports.UserService) *UserHandler {
	return &UserHandler{service: service}
}

// --- Request types ---

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type registerRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Password string `json:"password" validate:"required,min=6,max=100"`
	Role     string `json:"role" validate:"omitempty,oneof=USER ADMIN"`
}

type updateUserRequest struct {
	Username string `json:"username" validate:"omitempty,min=3,max=50"`
	Password string `json:"password" validate:"omitempty,min=6,max=100"`
	Role     string `json:"role" validate:"omitempty,oneof=USER ADMIN"`
}

// Login verifies credentials and returns the sanitized record.
//
// @Summary      Login
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Credentials"
// @Success      200   {object}  Response
// @Failure      400   {object}  Response
// @Failure      401   {object}  Response
// @Router       /api/users/login [post]
func (h *UserHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user, err := h.service.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return err
	}

	return OK(c, http.StatusOK, "login successful", user)
}

// Register creates a new account.
//
// @Summary      Register a new user
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Registration details"
// @Success      201   {object}  Response
// @Failure      400   {object}  Response
// @Failure      409   {object}  Response
// @Router       /api/users/register [post]
func (h *UserHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	role, err := domain.ParseRole(req.Role)
	if err != nil {
		return err
	}

	user, err := h.service.Register(c.Request().Context(), req.Username, req.Password, role)
	if err != nil {
		return err
	}

	return OK(c, http.StatusCreated, "registration successful", user)
}

// List returns all users, most recently created first.
//
// @Summary      List all users
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  Response
// @Failure      401  {object}  Response
// @Failure      403  {object}  Response
// @Router       /api/users [get]
func (h *UserHandler) List(c echo.Context) error {
	users, err := h.service.GetAll(c.Request().Context())
	if err != nil {
		return err
	}
	return OK(c, http.StatusOK, "users retrieved", users)
}

// Get returns a single user by id.
//
// @Summary      Get a user by id
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "User id"
// @Success      200  {object}  Response
// @Failure      404  {object}  Response
// @Router       /api/users/{id} [get]
func (h *UserHandler) Get(c echo.Context) error {
	user, err := h.service.GetByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return OK(c, http.StatusOK, "user retrieved", user)
}

// Update applies a partial update to a user record.
//
// @Summary      Update a user
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string             true  "User id"
// @Param        body  body      updateUserRequest  true  "Fields to change; omitted fields are untouched"
// @Success      200   {object}  Response
// @Failure      400   {object}  Response
// @Failure      404   {object}  Response
// @Failure      409   {object}  Response
// @Router       /api/users/{id} [put]
func (h *UserHandler) Update(c echo.Context) error {
	var req updateUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user, err := h.service.UpdateUser(c.Request().Context(), c.Param("id"), ports.UpdateUserInput{
		Username: req.Username,
		Password: req.Password,
		Role:     domain.Role(req.Role),
	})
	if err != nil {
		return err
	}

	return OK(c, http.StatusOK, "user updated", user)
}

// Delete removes a user record. Deleting an absent id reports not-found, so
// the operation is safe to repeat.
//
// @Summary      Delete a user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "User id"
// @Success      200  {object}  Response
// @Failure      404  {object}  Response
// @Router       /api/users/{id} [delete]
func (h *UserHandler) Delete(c echo.Context) error {
	deleted, err := h.service.DeleteUser(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	if !deleted {
		return Fail(c, http.StatusNotFound, "user not found")
	}
	return OK(c, http.StatusOK, "user deleted", nil)
}

// ListByRole returns all users holding the given role.
//
// @Summary      List users by role
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        role  path      string  true  "Role (USER or ADMIN)"
// @Success      200   {object}  Response
// @Failure      400   {object}  Response
// @Router       /api/users/role/{role} [get]
func (h *UserHandler) ListByRole(c echo.Context) error {
	role := domain.Role(c.Param("role"))
	users, err := h.service.GetByRole(c.Request().Context(), role)
	if err != nil {
		return err
	}
	return OK(c, http.StatusOK, "users retrieved", users)
}

// Search returns users whose username contains the keyword. An empty keyword
// returns every user.
//
// @Summary      Search users by username substring
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        keyword  query     string  false  "Substring to match (case-sensitive)"
// @Success      200      {object}  Response
// @Router       /api/users/search [get]
func (h *UserHandler) Search(c echo.Context) error {
	users, err := h.service.Search(c.Request().Context(), c.QueryParam("keyword"))
	if err != nil {
		return err
	}
	return OK(c, http.StatusOK, "search completed", users)
}

// CheckUsername reports whether a username is already taken.
//
// @Summary      Check whether a username exists
// @Tags         users
// @Produce      json
// @Param        username  query     string  true  "Username to check"
// @Success      200       {object}  Response
// @Failure      400       {object}  Response
// @Router       /api/users/check-username [get]
func (h *UserHandler) CheckUsername(c echo.Context) error {
	username := c.QueryParam("username")
	if username == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "username is required")
	}

	exists, err := h.service.ExistsByUsername(c.Request().Context(), username)
	if err != nil {
		return err
	}
	return OK(c, http.StatusOK, "username checked", exists)
}

// Statistics returns the total user count and per-role counts.
//
// @Summary      User statistics
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  Response
// @Failure      403  {object}  Response
// @Router       /api/users/statistics [get]
func (h *UserHandler) Statistics(c echo.Context) error {
	stats, err := h.service.Statistics(c.Request().Context())
	if err != nil {
		return err
	}
	return OK(c, http.StatusOK, "statistics retrieved", stats)
}
