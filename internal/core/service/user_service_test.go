package service

import (
	"context"
	"encoding/json"
	"sort"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/Lec-res/web-register-system-backend/internal/core/domain"
	"github.com/Lec-res/web-register-system-backend/internal/core/ports"
)

// stubUserRepo is an in-memory UserRepository honouring the same contracts as
// the mongo implementation: unique usernames, newest-first ordering.
type stubUserRepo struct {
	users map[string]*domain.User
	seq   map[string]int
	next  int
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User), seq: make(map[string]int)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	for _, u := range r.users {
		if u.Username == user.Username {
			return nil, domain.ErrUsernameTaken
		}
	}
	r.next++
	created := cloneUser(user)
	created.ID = strconv.Itoa(r.next)
	r.users[created.ID] = cloneUser(created)
	r.seq[created.ID] = r.next
	return created, nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *stubUserRepo) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Username == username {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) ExistsByUsername(_ context.Context, username string) (bool, error) {
	for _, u := range r.users {
		if u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubUserRepo) ExistsOtherWithUsername(_ context.Context, username, excludeID string) (bool, error) {
	for id, u := range r.users {
		if id != excludeID && u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubUserRepo) Update(_ context.Context, user *domain.User) error {
	if _, ok := r.users[user.ID]; !ok {
		return domain.ErrUserNotFound
	}
	for id, u := range r.users {
		if id != user.ID && u.Username == user.Username {
			return domain.ErrUsernameTaken
		}
	}
	r.users[user.ID] = cloneUser(user)
	return nil
}

func (r *stubUserRepo) Delete(_ context.Context, id string) (bool, error) {
	if _, ok := r.users[id]; !ok {
		return false, nil
	}
	delete(r.users, id)
	delete(r.seq, id)
	return true, nil
}

func (r *stubUserRepo) List(_ context.Context) ([]*domain.User, error) {
	return r.sorted(func(*domain.User) bool { return true }), nil
}

func (r *stubUserRepo) ListByRole(_ context.Context, role domain.Role) ([]*domain.User, error) {
	return r.sorted(func(u *domain.User) bool { return u.Role == role }), nil
}

func (r *stubUserRepo) Search(_ context.Context, keyword string) ([]*domain.User, error) {
	return r.sorted(func(u *domain.User) bool { return strings.Contains(u.Username, keyword) }), nil
}

func (r *stubUserRepo) CountByRole(_ context.Context, role domain.Role) (int64, error) {
	var n int64
	for _, u := range r.users {
		if u.Role == role {
			n++
		}
	}
	return n, nil
}

func (r *stubUserRepo) Count(_ context.Context) (int64, error) {
	return int64(len(r.users)), nil
}

// sorted returns matching users newest first.
func (r *stubUserRepo) sorted(match func(*domain.User) bool) []*domain.User {
	out := make([]*domain.User, 0)
	for _, u := range r.users {
		if match(u) {
			out = append(out, cloneUser(u))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return r.seq[out[i].ID] > r.seq[out[j].ID]
	})
	return out
}

// stubCache records cache traffic for assertions.
type stubCache struct {
	entries     map[string]bool
	lookups     int
	stores      int
	invalidated []string
}

func newStubCache() *stubCache {
	return &stubCache{entries: make(map[string]bool)}
}

func (c *stubCache) Lookup(_ context.Context, username string) (bool, bool, error) {
	c.lookups++
	exists, found := c.entries[username]
	return exists, found, nil
}

func (c *stubCache) Store(_ context.Context, username string, exists bool) error {
	c.stores++
	c.entries[username] = exists
	return nil
}

func (c *stubCache) Invalidate(_ context.Context, username string) error {
	c.invalidated = append(c.invalidated, username)
	delete(c.entries, username)
	return nil
}

func newTestService() (*UserService, *stubUserRepo, *stubCache) {
	repo := newStubUserRepo()
	cache := newStubCache()
	svc := NewUserService(repo, NewBcryptHasher(4), cache, zerolog.Nop())
	return svc, repo, cache
}

func TestUserService_RegisterThenLogin(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	created, err := svc.Register(ctx, "alice", "secret1", domain.RoleUser)
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if created.ID == "" {
		t.Fatalf("expected generated id")
	}
	if created.PasswordHash == "" || created.PasswordHash == "secret1" {
		t.Fatalf("password was not hashed: %q", created.PasswordHash)
	}
	if created.CreatedAt.IsZero() || created.UpdatedAt.IsZero() {
		t.Fatalf("timestamps not set: %+v", created)
	}

	user, err := svc.Login(ctx, "alice", "secret1")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if user.Username != "alice" {
		t.Fatalf("unexpected username: %s", user.Username)
	}

	// The serialized record must never carry the password hash.
	raw, err := json.Marshal(user)
	if err != nil {
		t.Fatalf("marshal user: %v", err)
	}
	if strings.Contains(string(raw), "password") || strings.Contains(string(raw), user.PasswordHash) {
		t.Fatalf("password leaked in serialized user: %s", raw)
	}
}

func TestUserService_Register_DefaultRole(t *testing.T) {
	svc, _, _ := newTestService()

	user, err := svc.Register(context.Background(), "bob", "secret1", "")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if user.Role != domain.RoleUser {
		t.Fatalf("expected default role USER, got %s", user.Role)
	}
}

func TestUserService_Register_Duplicate(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.Register(ctx, "alice", "secret1", domain.RoleUser); err != nil {
		t.Fatalf("first register failed: %v", err)
	}
	if _, err := svc.Register(ctx, "alice", "other", domain.RoleAdmin); err != domain.ErrUsernameTaken {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}
}

// racingRepo simulates a concurrent writer that claims a username between the
// service's existence pre-check and the write: the pre-checks report the name
// as free, so conflicts can only surface from the unique index on the write
// itself.
type racingRepo struct {
	*stubUserRepo
}

func (r *racingRepo) ExistsByUsername(context.Context, string) (bool, error) {
	return false, nil
}

func (r *racingRepo) ExistsOtherWithUsername(context.Context, string, string) (bool, error) {
	return false, nil
}

func TestUserService_Register_UniqueIndexWins(t *testing.T) {
	repo := &racingRepo{newStubUserRepo()}
	svc := NewUserService(repo, NewBcryptHasher(4), newStubCache(), zerolog.Nop())
	ctx := context.Background()

	// The concurrent writer already owns the name at the storage layer.
	if _, err := repo.stubUserRepo.Create(ctx, &domain.User{Username: "alice", PasswordHash: "h"}); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	if _, err := svc.Register(ctx, "alice", "secret1", domain.RoleUser); err != domain.ErrUsernameTaken {
		t.Fatalf("expected ErrUsernameTaken from the insert, got %v", err)
	}
}

func TestUserService_Update_RenameUniqueIndexWins(t *testing.T) {
	repo := &racingRepo{newStubUserRepo()}
	svc := NewUserService(repo, NewBcryptHasher(4), newStubCache(), zerolog.Nop())
	ctx := context.Background()

	alice, err := repo.stubUserRepo.Create(ctx, &domain.User{Username: "alice", PasswordHash: "h"})
	if err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	if _, err := repo.stubUserRepo.Create(ctx, &domain.User{Username: "bob", PasswordHash: "h"}); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	if _, err := svc.UpdateUser(ctx, alice.ID, ports.UpdateUserInput{Username: "bob"}); err != domain.ErrUsernameTaken {
		t.Fatalf("expected ErrUsernameTaken from the update, got %v", err)
	}
}

func TestUserService_Login_FailClosed(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.Register(ctx, "dave", "goodpass", domain.RoleUser); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	_, wrongPass := svc.Login(ctx, "dave", "badpass")
	_, noUser := svc.Login(ctx, "ghost", "whatever")

	// Wrong password and unknown username must be indistinguishable.
	if wrongPass != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials for wrong password, got %v", wrongPass)
	}
	if noUser != wrongPass {
		t.Fatalf("outcomes differ: %v vs %v", wrongPass, noUser)
	}
}

func TestUserService_Update_RoleOnly(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	created, err := svc.Register(ctx, "alice", "secret1", domain.RoleUser)
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	time.Sleep(5 * time.Millisecond)
	updated, err := svc.UpdateUser(ctx, created.ID, ports.UpdateUserInput{Role: domain.RoleAdmin})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}

	if updated.Username != created.Username {
		t.Fatalf("username changed: %s", updated.Username)
	}
	if updated.PasswordHash != created.PasswordHash {
		t.Fatalf("password hash changed on role-only update")
	}
	if updated.Role != domain.RoleAdmin {
		t.Fatalf("role not updated: %s", updated.Role)
	}
	if !updated.UpdatedAt.After(created.UpdatedAt) {
		t.Fatalf("updated_at not refreshed: %v vs %v", updated.UpdatedAt, created.UpdatedAt)
	}
	if !updated.CreatedAt.Equal(created.CreatedAt) {
		t.Fatalf("created_at must be immutable")
	}
}

func TestUserService_Update_Rename(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	alice, _ := svc.Register(ctx, "alice", "secret1", domain.RoleUser)
	_, _ = svc.Register(ctx, "bob", "secret2", domain.RoleUser)

	// Renaming to a name held by another record conflicts.
	if _, err := svc.UpdateUser(ctx, alice.ID, ports.UpdateUserInput{Username: "bob"}); err != domain.ErrUsernameTaken {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}

	// Renaming to one's own current username is a no-op success.
	if _, err := svc.UpdateUser(ctx, alice.ID, ports.UpdateUserInput{Username: "alice"}); err != nil {
		t.Fatalf("self-rename failed: %v", err)
	}
}

func TestUserService_Update_NotFound(t *testing.T) {
	svc, _, _ := newTestService()

	if _, err := svc.UpdateUser(context.Background(), "missing", ports.UpdateUserInput{Role: domain.RoleAdmin}); err != domain.ErrUserNotFound {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUserService_Update_RehashesPassword(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	created, _ := svc.Register(ctx, "alice", "secret1", domain.RoleUser)
	updated, err := svc.UpdateUser(ctx, created.ID, ports.UpdateUserInput{Password: "newsecret"})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.PasswordHash == created.PasswordHash {
		t.Fatalf("password hash unchanged after password update")
	}

	if _, err := svc.Login(ctx, "alice", "newsecret"); err != nil {
		t.Fatalf("login with new password failed: %v", err)
	}
	if _, err := svc.Login(ctx, "alice", "secret1"); err != domain.ErrInvalidCredentials {
		t.Fatalf("old password still accepted: %v", err)
	}
}

func TestUserService_Delete_Idempotent(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	deleted, err := svc.DeleteUser(ctx, "missing")
	if err != nil {
		t.Fatalf("delete of missing id errored: %v", err)
	}
	if deleted {
		t.Fatalf("expected false for missing id")
	}

	created, _ := svc.Register(ctx, "alice", "secret1", domain.RoleUser)

	deleted, err = svc.DeleteUser(ctx, created.ID)
	if err != nil || !deleted {
		t.Fatalf("expected successful delete, got %v %v", deleted, err)
	}

	deleted, err = svc.DeleteUser(ctx, created.ID)
	if err != nil {
		t.Fatalf("second delete errored: %v", err)
	}
	if deleted {
		t.Fatalf("second delete reported true")
	}
}

func TestUserService_Search(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	_, _ = svc.Register(ctx, "alice", "secret1", domain.RoleUser)
	_, _ = svc.Register(ctx, "alicia", "secret2", domain.RoleUser)
	_, _ = svc.Register(ctx, "Bob", "secret3", domain.RoleAdmin)

	// Empty keyword is equivalent to GetAll, same order.
	all, _ := svc.GetAll(ctx)
	searched, _ := svc.Search(ctx, "")
	if len(all) != len(searched) {
		t.Fatalf("search(\"\") size %d != getAll size %d", len(searched), len(all))
	}
	for i := range all {
		if all[i].ID != searched[i].ID {
			t.Fatalf("order differs at %d: %s vs %s", i, all[i].Username, searched[i].Username)
		}
	}

	// Newest first.
	if all[0].Username != "Bob" || all[2].Username != "alice" {
		t.Fatalf("unexpected order: %s, %s, %s", all[0].Username, all[1].Username, all[2].Username)
	}

	// Substring match is case-sensitive.
	matches, _ := svc.Search(ctx, "ali")
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches for \"ali\", got %d", len(matches))
	}
	if matches, _ := svc.Search(ctx, "bob"); len(matches) != 0 {
		t.Fatalf("case-insensitive match leaked: %d results for \"bob\"", len(matches))
	}
}

func TestUserService_ExistsByUsername_Cache(t *testing.T) {
	svc, repo, cache := newTestService()
	ctx := context.Background()

	_, _ = svc.Register(ctx, "alice", "secret1", domain.RoleUser)
	if len(cache.invalidated) == 0 {
		t.Fatalf("register did not invalidate the cache")
	}

	exists, err := svc.ExistsByUsername(ctx, "alice")
	if err != nil || !exists {
		t.Fatalf("expected alice to exist, got %v %v", exists, err)
	}
	if cache.stores != 1 {
		t.Fatalf("expected result to be cached, stores=%d", cache.stores)
	}

	// Second lookup is served from the cache without touching the repository.
	delete(repo.users, "1")
	exists, err = svc.ExistsByUsername(ctx, "alice")
	if err != nil || !exists {
		t.Fatalf("expected cached hit, got %v %v", exists, err)
	}
}

func TestUserService_Statistics(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	_, _ = svc.Register(ctx, "alice", "secret1", domain.RoleUser)
	_, _ = svc.Register(ctx, "bob", "secret2", domain.RoleUser)
	_, _ = svc.Register(ctx, "carol", "secret3", domain.RoleAdmin)

	stats, err := svc.Statistics(ctx)
	if err != nil {
		t.Fatalf("statistics failed: %v", err)
	}
	if stats.Total != 3 || stats.Admins != 1 || stats.Users != 2 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

// Mirrors the end-to-end scenario: register, conflict, login, wrong password,
// promote, count.
func TestUserService_Scenario(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	alice, err := svc.Register(ctx, "alice", "secret1", domain.RoleUser)
	if err != nil {
		t.Fatalf("register alice failed: %v", err)
	}

	if _, err := svc.Register(ctx, "alice", "other", domain.RoleAdmin); err != domain.ErrUsernameTaken {
		t.Fatalf("expected conflict, got %v", err)
	}

	user, err := svc.Login(ctx, "alice", "secret1")
	if err != nil || user.Role != domain.RoleUser {
		t.Fatalf("login failed: %v %+v", err, user)
	}

	if _, err := svc.Login(ctx, "alice", "wrong"); err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	if _, err := svc.UpdateUser(ctx, alice.ID, ports.UpdateUserInput{Role: domain.RoleAdmin}); err != nil {
		t.Fatalf("promote failed: %v", err)
	}

	admins, err := svc.CountByRole(ctx, domain.RoleAdmin)
	if err != nil || admins != 1 {
		t.Fatalf("expected 1 admin, got %d (%v)", admins, err)
	}
}
