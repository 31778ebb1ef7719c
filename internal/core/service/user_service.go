package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/Lec-res/web-register-system-backend/internal/core/domain"
	"github.com/Lec-res/web-register-system-backend/internal/core/ports"
	"github.com/Lec-res/web-register-system-backend/internal/metrics"
)

// UserService implements the account use cases: registration, credential
// verification and administrative CRUD over user records.
type UserService struct {
	repo   ports.UserRepository
	hasher ports.PasswordHasher
	cache  ports.UsernameCache
	logger zerolog.Logger
}

func NewUserService(repo ports.UserRepository, hasher ports.PasswordHasher, cache ports.UsernameCache, logger zerolog.Logger) *UserService {
	return &UserService{repo: repo, hasher: hasher, cache: cache, logger: logger}
}

// Login verifies a username/password pair. A nonexistent username and a wrong
// password are deliberately indistinguishable: both fail with
// domain.ErrInvalidCredentials so the endpoint cannot be used to enumerate
// usernames.
func (s *UserService) Login(ctx context.Context, username, password string) (*domain.User, error) {
	if username == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if err == domain.ErrUserNotFound {
			metrics.LoginsTotal.WithLabelValues("failure").Inc()
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		s.logger.Warn().Str("username", username).Msg("login rejected")
		metrics.LoginsTotal.WithLabelValues("failure").Inc()
		return nil, domain.ErrInvalidCredentials
	}

	s.logger.Info().Str("username", username).Str("user_id", user.ID).Msg("login succeeded")
	metrics.LoginsTotal.WithLabelValues("success").Inc()
	return user, nil
}

// Register creates a new account. The existence pre-check is an optimisation
// only; the unique index on username is what actually guarantees uniqueness
// under concurrent writers, surfacing as ErrUsernameTaken from Create.
func (s *UserService) Register(ctx context.Context, username, password string, role domain.Role) (*domain.User, error) {
	if role == "" {
		role = domain.RoleUser
	}
	if !role.IsValid() {
		return nil, domain.ErrInvalidRole
	}

	exists, err := s.repo.ExistsByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.ErrUsernameTaken
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &domain.User{
		Username:     username,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	created, err := s.repo.Create(ctx, user)
	if err != nil {
		return nil, err
	}

	s.invalidateCache(ctx, created.Username)
	s.logger.Info().Str("username", created.Username).Str("user_id", created.ID).Str("role", string(created.Role)).Msg("user registered")
	metrics.RegistrationsTotal.WithLabelValues(string(created.Role)).Inc()
	return created, nil
}

// UpdateUser applies a partial update: username, password and role are each
// changed only when supplied. Renaming re-checks uniqueness against all other
// records; renaming to the record's own current username is a no-op success.
func (s *UserService) UpdateUser(ctx context.Context, id string, input ports.UpdateUserInput) (*domain.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	oldUsername := user.Username

	if input.Username != "" && input.Username != user.Username {
		taken, err := s.repo.ExistsOtherWithUsername(ctx, input.Username, id)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, domain.ErrUsernameTaken
		}
		user.Username = input.Username
	}

	if input.Password != "" {
		hash, err := s.hasher.Hash(input.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}

	if input.Role != "" {
		if !input.Role.IsValid() {
			return nil, domain.ErrInvalidRole
		}
		user.Role = input.Role
	}

	user.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}

	if user.Username != oldUsername {
		s.invalidateCache(ctx, oldUsername)
		s.invalidateCache(ctx, user.Username)
	}
	s.logger.Info().Str("user_id", user.ID).Str("username", user.Username).Msg("user updated")
	return user, nil
}

// DeleteUser removes a record. A missing id reports false, not an error, so
// deleting twice is safe from the caller's view.
func (s *UserService) DeleteUser(ctx context.Context, id string) (bool, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == domain.ErrUserNotFound {
			return false, nil
		}
		return false, err
	}

	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return false, err
	}
	if deleted {
		s.invalidateCache(ctx, user.Username)
		s.logger.Info().Str("user_id", id).Str("username", user.Username).Msg("user deleted")
		metrics.DeletionsTotal.Inc()
	}
	return deleted, nil
}

func (s *UserService) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *UserService) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return s.repo.FindByUsername(ctx, username)
}

func (s *UserService) GetAll(ctx context.Context) ([]*domain.User, error) {
	return s.repo.List(ctx)
}

func (s *UserService) GetByRole(ctx context.Context, role domain.Role) ([]*domain.User, error) {
	if !role.IsValid() {
		return nil, domain.ErrInvalidRole
	}
	return s.repo.ListByRole(ctx, role)
}

// Search performs a case-sensitive substring match on username. An empty
// keyword returns the full list, same order as GetAll.
func (s *UserService) Search(ctx context.Context, keyword string) ([]*domain.User, error) {
	if keyword == "" {
		return s.repo.List(ctx)
	}
	return s.repo.Search(ctx, keyword)
}

// ExistsByUsername answers the public check-username endpoint, going through
// the lookaside cache when one is configured.
func (s *UserService) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	if s.cache != nil {
		exists, found, err := s.cache.Lookup(ctx, username)
		if err != nil {
			s.logger.Warn().Err(err).Str("username", username).Msg("username cache lookup failed")
		} else if found {
			metrics.UsernameCacheTotal.WithLabelValues("hit").Inc()
			return exists, nil
		} else {
			metrics.UsernameCacheTotal.WithLabelValues("miss").Inc()
		}
	}

	exists, err := s.repo.ExistsByUsername(ctx, username)
	if err != nil {
		return false, err
	}

	if s.cache != nil {
		if err := s.cache.Store(ctx, username, exists); err != nil {
			s.logger.Warn().Err(err).Str("username", username).Msg("username cache store failed")
		}
	}
	return exists, nil
}

func (s *UserService) CountByRole(ctx context.Context, role domain.Role) (int64, error) {
	if !role.IsValid() {
		return 0, domain.ErrInvalidRole
	}
	return s.repo.CountByRole(ctx, role)
}

func (s *UserService) Statistics(ctx context.Context) (*ports.UserStats, error) {
	total, err := s.repo.Count(ctx)
	if err != nil {
		return nil, err
	}
	admins, err := s.repo.CountByRole(ctx, domain.RoleAdmin)
	if err != nil {
		return nil, err
	}
	users, err := s.repo.CountByRole(ctx, domain.RoleUser)
	if err != nil {
		return nil, err
	}
	return &ports.UserStats{Total: total, Admins: admins, Users: users}, nil
}

// invalidateCache drops a cached existence entry; cache failures are logged
// and otherwise ignored since the repository remains the source of truth.
func (s *UserService) invalidateCache(ctx context.Context, username string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, username); err != nil {
		s.logger.Warn().Err(err).Str("username", username).Msg("username cache invalidation failed")
	}
}
