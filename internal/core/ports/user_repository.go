package ports

import (
	"context"

	"github.com/Lec-res/web-register-system-backend/internal/core/domain"
)

// UserRepository defines persistence operations for user accounts.
//
// Uniqueness of usernames is guaranteed by the storage engine (a unique index),
// not by the service's pre-checks: Create and Update must return
// domain.ErrUsernameTaken when a concurrent writer wins the name first.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	// ExistsOtherWithUsername reports whether a user other than excludeID
	// already holds username. Used for rename conflict checks.
	ExistsOtherWithUsername(ctx context.Context, username, excludeID string) (bool, error)
	Update(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id string) (bool, error)
	// List returns all users ordered by creation time, most recent first.
	List(ctx context.Context) ([]*domain.User, error)
	// ListByRole returns users holding role, most recently created first.
	ListByRole(ctx context.Context, role domain.Role) ([]*domain.User, error)
	// Search returns users whose username contains keyword (case-sensitive),
	// most recently created first.
	Search(ctx context.Context, keyword string) ([]*domain.User, error)
	CountByRole(ctx context.Context, role domain.Role) (int64, error)
	Count(ctx context.Context) (int64, error)
}

// UsernameCache is a short-lived lookaside cache in front of
// ExistsByUsername, serving the public check-username endpoint. Entries are
// invalidated whenever the username's record is created, renamed or deleted.
type UsernameCache interface {
	// Lookup returns the cached existence flag; found is false on a miss.
	Lookup(ctx context.Context, username string) (exists, found bool, err error)
	Store(ctx context.Context, username string, exists bool) error
	Invalidate(ctx context.Context, username string) error
}
