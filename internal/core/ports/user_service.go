package ports

import (
	"context"

	"github.com/Lec-res/web-register-system-backend/internal/core/domain"
)

// UpdateUserInput is a partial update: each field is applied only when
// non-empty, independently of the others.
type UpdateUserInput struct {
	Username string
	Password string
	Role     domain.Role
}

// UserStats is the payload of the statistics endpoint.
type UserStats struct {
	Total  int64 `json:"total"`
	Admins int64 `json:"admins"`
	Users  int64 `json:"users"`
}

// UserService defines the account use cases.
type UserService interface {
	// Login verifies credentials. A missing user and a wrong password are
	// indistinguishable to the caller: both return domain.ErrInvalidCredentials.
	Login(ctx context.Context, username, password string) (*domain.User, error)
	// Register creates an account. Role defaults to domain.RoleUser when empty.
	Register(ctx context.Context, username, password string, role domain.Role) (*domain.User, error)
	UpdateUser(ctx context.Context, id string, input UpdateUserInput) (*domain.User, error)
	// DeleteUser reports false when no record with id exists; this is not an error.
	DeleteUser(ctx context.Context, id string) (bool, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetAll(ctx context.Context) ([]*domain.User, error)
	GetByRole(ctx context.Context, role domain.Role) ([]*domain.User, error)
	// Search with an empty keyword is equivalent to GetAll.
	Search(ctx context.Context, keyword string) ([]*domain.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	CountByRole(ctx context.Context, role domain.Role) (int64, error)
	Statistics(ctx context.Context) (*UserStats, error)
}
