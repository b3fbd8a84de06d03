package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	user "observatory-backend/internal/domains/user"
	"observatory-backend/pkg/jwt"
	"observatory-backend/pkg/password"
)

// memoryRepo is an in-memory user.Repository.
type memoryRepo struct {
	mu    sync.Mutex
	users map[string]user.User
	err   error
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{users: make(map[string]user.User)}
}

func (r *memoryRepo) Create(_ context.Context, u *user.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	if _, ok := r.users[u.Username]; ok {
		return user.ErrUsernameTaken
	}
	r.users[u.Username] = *u
	return nil
}

func (r *memoryRepo) FindByUsername(_ context.Context, username string) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	u, ok := r.users[username]
	if !ok {
		return nil, user.ErrUserNotFound
	}
	return &u, nil
}

func (r *memoryRepo) FindNickname(ctx context.Context, username string) (string, error) {
	u, err := r.FindByUsername(ctx, username)
	if err != nil {
		return "", err
	}
	return u.Nickname, nil
}

func newTestService(repo user.Repository) user.Service {
	return NewUserService(repo, password.NewBcrypt(4), jwt.NewManager("test", time.Minute))
}

func aliceRequest() user.RegisterRequest {
	return user.RegisterRequest{Username: "alice", Password: "secret", Email: "alice@x.com", Nickname: "AL"}
}

func TestRegister_StoresHashNotPlaintext(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)

	dto, err := svc.Register(context.Background(), aliceRequest())
	require.NoError(t, err)
	assert.Equal(t, "AL", dto.Nickname)

	stored := repo.users["alice"]
	assert.NotEmpty(t, stored.PasswordHash)
	assert.NotEqual(t, "secret", stored.PasswordHash)
}

func TestRegister_DuplicateUsername(t *testing.T) {
	svc := newTestService(newMemoryRepo())

	_, err := svc.Register(context.Background(), aliceRequest())
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), aliceRequest())
	assert.ErrorIs(t, err, user.ErrUsernameTaken)
}

func TestRegister_Validation(t *testing.T) {
	svc := newTestService(newMemoryRepo())

	req := aliceRequest()
	req.Nickname = "   "
	_, err := svc.Register(context.Background(), req)
	assert.ErrorIs(t, err, user.ErrEmptyFields)

	req = aliceRequest()
	req.Email = "not-an-email"
	_, err = svc.Register(context.Background(), req)
	assert.ErrorIs(t, err, user.ErrInvalidEmail)
}

func TestVerify(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	_, err := svc.Register(ctx, aliceRequest())
	require.NoError(t, err)

	ok, err := svc.Verify(ctx, "alice", "secret")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.Verify(ctx, "alice", "wrong")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = svc.Verify(ctx, "nobody", "secret")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerify_LegacyHashIsFalse(t *testing.T) {
	repo := newMemoryRepo()
	repo.users["old"] = user.User{Username: "old", PasswordHash: "plaintext-from-before", Nickname: "OLD"}

	ok, err := newTestService(repo).Verify(context.Background(), "old", "plaintext-from-before")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerify_StoreError(t *testing.T) {
	repo := newMemoryRepo()
	repo.err = errors.New("disk gone")

	ok, err := newTestService(repo).Verify(context.Background(), "alice", "secret")
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestNickname(t *testing.T) {
	repo := newMemoryRepo()
	repo.users["blank"] = user.User{Username: "blank", Nickname: ""}
	svc := newTestService(repo)
	ctx := context.Background()

	_, err := svc.Register(ctx, aliceRequest())
	require.NoError(t, err)

	nick, err := svc.Nickname(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "AL", nick)

	_, err = svc.Nickname(ctx, "blank")
	assert.ErrorIs(t, err, user.ErrNicknameMissing)

	_, err = svc.Nickname(ctx, "ghost")
	assert.ErrorIs(t, err, user.ErrUserNotFound)
}

func TestIssueToken(t *testing.T) {
	mgr := jwt.NewManager("test", time.Minute)
	svc := NewUserService(newMemoryRepo(), password.NewBcrypt(4), mgr)

	tok, err := svc.IssueToken(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "Bearer", tok.TokenType)

	claims, err := mgr.ValidateAccessToken(tok.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Username)
}
