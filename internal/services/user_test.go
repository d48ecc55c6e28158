package services

import (
	"context"
	"errors"
	"testing"

	"github.com/community-eats/apiserver/internal/store"
	"github.com/community-eats/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fakeUserRepo struct {
	users     map[string]types.User
	nextID    int
	createErr error
	getErr    error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]types.User)}
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (types.User, error) {
	if f.getErr != nil {
		return types.User{}, f.getErr
	}
	user, ok := f.users[email]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (f *fakeUserRepo) Create(ctx context.Context, user types.User) (types.User, error) {
	if f.createErr != nil {
		return types.User{}, f.createErr
	}
	if _, ok := f.users[user.Email]; ok {
		return types.User{}, store.ErrDuplicate
	}
	f.nextID++
	user.ID = f.nextID
	f.users[user.Email] = user
	return user, nil
}

func TestRegister(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewUserService(repo)

	user, err := svc.Register(context.Background(), "Alice", "alice@example.com", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, "Alice", user.Name)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.NotZero(t, user.ID)

	// The plaintext is never stored; the hash must verify against it.
	assert.NotEqual(t, "hunter2", user.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("hunter2")))
}

func TestRegisterDuplicateEmail(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewUserService(repo)

	_, err := svc.Register(context.Background(), "Alice", "alice@example.com", "hunter2")
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), "Other Alice", "alice@example.com", "different")
	assert.ErrorIs(t, err, ErrDuplicateEmail)
	assert.Len(t, repo.users, 1)
}

// Two concurrent registrations can both pass the existence probe; the unique
// index then rejects the loser at insert time. The service must map that
// store-level duplicate to the same error as the probe.
func TestRegisterDuplicateRace(t *testing.T) {
	repo := newFakeUserRepo()
	repo.getErr = store.ErrNotFound
	repo.users["alice@example.com"] = types.User{ID: 1, Email: "alice@example.com"}
	svc := NewUserService(repo)

	_, err := svc.Register(context.Background(), "Alice", "alice@example.com", "hunter2")
	assert.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestRegisterStoreError(t *testing.T) {
	repo := newFakeUserRepo()
	repo.createErr = errors.New("connection refused")
	svc := NewUserService(repo)

	_, err := svc.Register(context.Background(), "Alice", "alice@example.com", "hunter2")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrDuplicateEmail)
}

func TestAuthenticate(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewUserService(repo)

	_, err := svc.Register(context.Background(), "Alice", "alice@example.com", "hunter2")
	require.NoError(t, err)

	user, err := svc.Authenticate(context.Background(), "alice@example.com", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)
}

func TestAuthenticateFailuresAreIndistinguishable(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewUserService(repo)

	_, err := svc.Register(context.Background(), "Alice", "alice@example.com", "hunter2")
	require.NoError(t, err)

	_, wrongPassword := svc.Authenticate(context.Background(), "alice@example.com", "wrong")
	_, unknownEmail := svc.Authenticate(context.Background(), "bob@example.com", "hunter2")

	assert.ErrorIs(t, wrongPassword, ErrInvalidCredentials)
	assert.ErrorIs(t, unknownEmail, ErrInvalidCredentials)
	assert.Equal(t, wrongPassword, unknownEmail)
}
