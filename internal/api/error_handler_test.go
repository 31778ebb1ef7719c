package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/Lec-res/web-register-system-backend/internal/core/domain"
)

func renderError(t *testing.T, err error) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	NewHTTPErrorHandler(zerolog.Nop())(err, c)

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	return rec, resp
}

func TestErrorHandler_DomainErrors(t *testing.T) {
	cases := []struct {
		err     error
		status  int
		message string
	}{
		{domain.ErrInvalidCredentials, http.StatusUnauthorized, "invalid username or password"},
		{domain.ErrUserNotFound, http.StatusNotFound, "user not found"},
		{domain.ErrUsernameTaken, http.StatusConflict, "username already taken"},
		{domain.ErrInvalidRole, http.StatusBadRequest, "invalid role"},
	}

	for _, tc := range cases {
		rec, resp := renderError(t, tc.err)
		if rec.Code != tc.status {
			t.Errorf("%v: expected %d, got %d", tc.err, tc.status, rec.Code)
		}
		if resp["success"] != false || resp["message"] != tc.message || resp["code"] != float64(tc.status) {
			t.Errorf("%v: unexpected envelope: %+v", tc.err, resp)
		}
	}
}

func TestErrorHandler_HTTPError(t *testing.T) {
	rec, resp := renderError(t, echo.NewHTTPError(http.StatusForbidden, "admin role required"))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	if resp["message"] != "admin role required" {
		t.Fatalf("unexpected message: %v", resp["message"])
	}
}

// Unexpected errors must stay generic and not leak internals.
func TestErrorHandler_InternalError(t *testing.T) {
	rec, resp := renderError(t, errors.New("mongo: connection reset by peer"))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if resp["message"] != "internal server error" {
		t.Fatalf("internal detail leaked: %v", resp["message"])
	}
}
