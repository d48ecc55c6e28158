package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/community-eats/apiserver/internal/services"
	"github.com/community-eats/apiserver/internal/store"
	"github.com/community-eats/apiserver/types"
	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type fakeUserRepo struct {
	users  map[string]types.User
	nextID int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]types.User)}
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (types.User, error) {
	user, ok := f.users[email]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (f *fakeUserRepo) Create(ctx context.Context, user types.User) (types.User, error) {
	if _, ok := f.users[user.Email]; ok {
		return types.User{}, store.ErrDuplicate
	}
	f.nextID++
	user.ID = f.nextID
	f.users[user.Email] = user
	return user, nil
}

func newAuthServer(t *testing.T) (*httptest.Server, *fakeUserRepo) {
	t.Helper()

	repo := newFakeUserRepo()
	router := chi.NewRouter()
	AuthRouter(router, services.NewUserService(repo), testSecret, time.Hour)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv, repo
}

func postJSON(t *testing.T, url string, payload any) *http.Response {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()

	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestRegisterEndpoint(t *testing.T) {
	srv, repo := newAuthServer(t)

	resp := postJSON(t, srv.URL+"/register", map[string]string{
		"name":     "Alice",
		"email":    "alice@example.com",
		"password": "hunter2",
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	body := decodeBody[StatusResponse](t, resp)
	assert.True(t, body.Success)
	assert.Equal(t, "User registered successfully", body.Message)
	assert.Len(t, repo.users, 1)
}

func TestRegisterDuplicateEndpoint(t *testing.T) {
	srv, repo := newAuthServer(t)

	payload := map[string]string{
		"name":     "Alice",
		"email":    "alice@example.com",
		"password": "hunter2",
	}

	resp := postJSON(t, srv.URL+"/register", payload)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = postJSON(t, srv.URL+"/register", payload)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body := decodeBody[StatusResponse](t, resp)
	assert.False(t, body.Success)
	assert.Equal(t, "User already exists", body.Message)
	assert.Len(t, repo.users, 1)
}

func TestLoginEndpoint(t *testing.T) {
	srv, _ := newAuthServer(t)

	resp := postJSON(t, srv.URL+"/register", map[string]string{
		"name":     "Alice",
		"email":    "alice@example.com",
		"password": "hunter2",
	})
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = postJSON(t, srv.URL+"/login", map[string]string{
		"email":    "alice@example.com",
		"password": "hunter2",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody[LoginResponse](t, resp)
	assert.True(t, body.Success)
	assert.Equal(t, "Login successful", body.Message)
	require.NotEmpty(t, body.Token)

	// The token must decode to the account email with an expiry in the future.
	claims := tokenClaims{}
	token, err := jwt.ParseWithClaims(body.Token, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return []byte(testSecret), nil
	})
	require.NoError(t, err)
	assert.True(t, token.Valid)
	assert.Equal(t, "alice@example.com", claims.Email)
	require.NotNil(t, claims.ExpiresAt)
	assert.True(t, claims.ExpiresAt.After(time.Now()))
}

// An unknown email and a wrong password must be indistinguishable to the
// caller: same status, same body.
func TestLoginFailuresAreIdentical(t *testing.T) {
	srv, _ := newAuthServer(t)

	resp := postJSON(t, srv.URL+"/register", map[string]string{
		"name":     "Alice",
		"email":    "alice@example.com",
		"password": "hunter2",
	})
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	wrongPassword := postJSON(t, srv.URL+"/login", map[string]string{
		"email":    "alice@example.com",
		"password": "wrong",
	})
	unknownEmail := postJSON(t, srv.URL+"/login", map[string]string{
		"email":    "bob@example.com",
		"password": "hunter2",
	})

	assert.Equal(t, http.StatusUnauthorized, wrongPassword.StatusCode)
	assert.Equal(t, http.StatusUnauthorized, unknownEmail.StatusCode)

	bodyA := decodeBody[MessageResponse](t, wrongPassword)
	bodyB := decodeBody[MessageResponse](t, unknownEmail)
	assert.Equal(t, "Invalid email or password", bodyA.Message)
	assert.Equal(t, bodyA, bodyB)
}

func TestMeEndpoint(t *testing.T) {
	srv, _ := newAuthServer(t)

	resp := postJSON(t, srv.URL+"/register", map[string]string{
		"name":     "Alice",
		"email":    "alice@example.com",
		"password": "hunter2",
	})
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = postJSON(t, srv.URL+"/login", map[string]string{
		"email":    "alice@example.com",
		"password": "hunter2",
	})
	login := decodeBody[LoginResponse](t, resp)
	require.NotEmpty(t, login.Token)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/me", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+login.Token)

	meResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, meResp.StatusCode)

	me := decodeBody[types.User](t, meResp)
	assert.Equal(t, "alice@example.com", me.Email)
	assert.Equal(t, "Alice", me.Name)
}

func TestMeWithoutToken(t *testing.T) {
	srv, _ := newAuthServer(t)

	resp, err := http.Get(srv.URL + "/me")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
