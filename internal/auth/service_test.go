package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/trackhub/trackhub/internal/shared"
)

type fakeRepo struct {
	byEmail map[string]*User
	byID    map[string]*User
}

func (r *fakeRepo) FindByEmail(_ context.Context, email string) (*User, error) {
	if user, ok := r.byEmail[email]; ok {
		return user, nil
	}
	return nil, ErrPrincipalNotFound
}

func (r *fakeRepo) FindByID(_ context.Context, id string) (*User, error) {
	if user, ok := r.byID[id]; ok {
		return user, nil
	}
	return nil, ErrPrincipalNotFound
}

func newFakeRepo(users ...*User) *fakeRepo {
	repo := &fakeRepo{byEmail: map[string]*User{}, byID: map[string]*User{}}
	for _, user := range users {
		repo.byEmail[user.Email] = user
		repo.byID[user.ID] = user
	}
	return repo
}

func hashedUser(t *testing.T, password, status string) *User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	user := testUser()
	user.Status = status
	user.PasswordHash = string(hash)
	user.Permissions = []string{"bug:read", "bug:create"}
	return user
}

func newTestService(t *testing.T, repo Repository, redisClient *redis.Client) *Service {
	t.Helper()
	return NewService(repo, newTestTokens(t, time.Hour), redisClient)
}

func TestAuthenticate(t *testing.T) {
	user := hashedUser(t, "s3cret-pw", shared.StatusActive)
	svc := newTestService(t, newFakeRepo(user), nil)

	got, err := svc.Authenticate(context.Background(), "alice@example.com", "s3cret-pw")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
}

func TestAuthenticateWrongPassword(t *testing.T) {
	svc := newTestService(t, newFakeRepo(hashedUser(t, "s3cret-pw", shared.StatusActive)), nil)

	_, err := svc.Authenticate(context.Background(), "alice@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthenticateUnknownEmail(t *testing.T) {
	svc := newTestService(t, newFakeRepo(), nil)

	_, err := svc.Authenticate(context.Background(), "nobody@example.com", "pw")
	assert.ErrorIs(t, err, ErrInvalidCredentials, "unknown accounts are indistinguishable from bad passwords")
}

func TestAuthenticateSuspendedAccount(t *testing.T) {
	svc := newTestService(t, newFakeRepo(hashedUser(t, "s3cret-pw", shared.StatusSuspended)), nil)

	_, err := svc.Authenticate(context.Background(), "alice@example.com", "s3cret-pw")
	assert.ErrorIs(t, err, ErrAccountDisabled)
}

func TestResolvePrincipal(t *testing.T) {
	user := hashedUser(t, "s3cret-pw", shared.StatusActive)
	svc := newTestService(t, newFakeRepo(user), nil)

	token, err := svc.IssueToken(user)
	require.NoError(t, err)

	principal, err := svc.ResolvePrincipal(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, principal.ID)
	assert.Equal(t, user.Name, principal.Name)
	assert.Equal(t, user.Permissions, principal.Permissions)
}

func TestResolvePrincipalSuspendedAfterIssue(t *testing.T) {
	user := hashedUser(t, "s3cret-pw", shared.StatusActive)
	svc := newTestService(t, newFakeRepo(user), nil)

	token, err := svc.IssueToken(user)
	require.NoError(t, err)

	// Account suspended between issue and use.
	user.Status = shared.StatusSuspended
	_, err = svc.ResolvePrincipal(context.Background(), token)
	assert.ErrorIs(t, err, ErrAccountDisabled)
}

func TestRevokeTokenDenylistsUntilExpiry(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	user := hashedUser(t, "s3cret-pw", shared.StatusActive)
	svc := newTestService(t, newFakeRepo(user), client)

	token, err := svc.IssueToken(user)
	require.NoError(t, err)

	_, err = svc.ResolvePrincipal(context.Background(), token)
	require.NoError(t, err)

	require.NoError(t, svc.RevokeToken(context.Background(), token))

	_, err = svc.ResolvePrincipal(context.Background(), token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRevokeTokenWithoutRedisIsNoop(t *testing.T) {
	user := hashedUser(t, "s3cret-pw", shared.StatusActive)
	svc := newTestService(t, newFakeRepo(user), nil)

	token, err := svc.IssueToken(user)
	require.NoError(t, err)

	require.NoError(t, svc.RevokeToken(context.Background(), token))

	// Without the denylist the token stays valid until it expires.
	_, err = svc.ResolvePrincipal(context.Background(), token)
	assert.NoError(t, err)
}
