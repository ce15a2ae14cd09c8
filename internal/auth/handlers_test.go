package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fdg312/fridge-journal/internal/config"
	"github.com/fdg312/fridge-journal/internal/storage/memory"
	"github.com/fdg312/fridge-journal/internal/userctx"
)

type fakeSeeder struct {
	mu     sync.Mutex
	owners []string
}

func (f *fakeSeeder) EnsureDefaults(ctx context.Context, ownerUserID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.owners = append(f.owners, ownerUserID)
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		AuthMode:             config.AuthModePassword,
		AuthRequired:         true,
		JWTSecret:            "test-secret-key-for-testing-only",
		JWTIssuer:            "fridge-journal-test",
		JWTTTLMinutes:        15,
		JWTRefreshTTLMinutes: 60,
		BcryptCost:           4,
	}
}

func setupTestService(t *testing.T) (*Service, *fakeSeeder) {
	t.Helper()
	seeder := &fakeSeeder{}
	return NewService(testConfig(), memory.New(), seeder), seeder
}

func doJSON(t *testing.T, handler http.HandlerFunc, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(method, path, bytes.NewReader(b))
	w := httptest.NewRecorder()
	handler(w, req)
	return w
}

func registerAlice(t *testing.T, h *Handlers) UserResponse {
	t.Helper()
	w := doJSON(t, h.HandleRegister, http.MethodPost, "/v1/auth/register", RegisterRequest{
		Username: "alice", Email: "alice@example.com", Password: "correct horse",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var user UserResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&user))
	return user
}

func TestHandleRegister(t *testing.T) {
	service, seeder := setupTestService(t)
	h := NewHandlers(service)

	user := registerAlice(t, h)
	assert.Equal(t, "alice", user.Username)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, []string{user.ID}, seeder.owners, "default meals created for the new user")

	t.Run("duplicate username", func(t *testing.T) {
		w := doJSON(t, h.HandleRegister, http.MethodPost, "/v1/auth/register", RegisterRequest{Username: "Alice", Password: "another password"})
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, w.Body.String(), "username_taken")
	})

	t.Run("short password", func(t *testing.T) {
		w := doJSON(t, h.HandleRegister, http.MethodPost, "/v1/auth/register", RegisterRequest{Username: "bob", Password: "short"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "invalid_request")
	})

	t.Run("invalid json", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/v1/auth/register", bytes.NewBufferString("{"))
		w := httptest.NewRecorder()
		h.HandleRegister(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHandleLoginAndRefresh(t *testing.T) {
	service, _ := setupTestService(t)
	h := NewHandlers(service)
	user := registerAlice(t, h)

	w := doJSON(t, h.HandleLogin, http.MethodPost, "/v1/auth/login", LoginRequest{Username: "alice", Password: "correct horse"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var tokens TokenPair
	require.NoError(t, json.NewDecoder(w.Body).Decode(&tokens))
	assert.NotEmpty(t, tokens.Access)
	assert.NotEmpty(t, tokens.Refresh)
	assert.Equal(t, "Bearer", tokens.TokenType)
	assert.Equal(t, int64(15*60), tokens.ExpiresIn)

	sub, err := service.VerifyAccess(tokens.Access)
	require.NoError(t, err)
	assert.Equal(t, user.ID, sub)

	_, err = service.VerifyAccess(tokens.Refresh)
	assert.ErrorIs(t, err, ErrInvalidToken, "refresh token is not an access token")

	t.Run("wrong password", func(t *testing.T) {
		w := doJSON(t, h.HandleLogin, http.MethodPost, "/v1/auth/login", LoginRequest{Username: "alice", Password: "wrong password"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "invalid_credentials")
	})

	t.Run("unknown user", func(t *testing.T) {
		w := doJSON(t, h.HandleLogin, http.MethodPost, "/v1/auth/login", LoginRequest{Username: "nobody", Password: "whatever123"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("refresh", func(t *testing.T) {
		w := doJSON(t, h.HandleRefresh, http.MethodPost, "/v1/auth/refresh", RefreshRequest{Refresh: tokens.Refresh})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var renewed TokenPair
		require.NoError(t, json.NewDecoder(w.Body).Decode(&renewed))
		sub, err := service.VerifyAccess(renewed.Access)
		require.NoError(t, err)
		assert.Equal(t, user.ID, sub)
	})

	t.Run("refresh with access token", func(t *testing.T) {
		w := doJSON(t, h.HandleRefresh, http.MethodPost, "/v1/auth/refresh", RefreshRequest{Refresh: tokens.Access})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "invalid_token")
	})
}

func TestExpiredToken(t *testing.T) {
	service, _ := setupTestService(t)
	service.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	tokens, err := service.issueTokens("u1")
	require.NoError(t, err)

	service.now = time.Now
	_, err = service.VerifyAccess(tokens.Access)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenFromOtherSecretRejected(t *testing.T) {
	service, _ := setupTestService(t)
	other := NewService(&config.Config{JWTSecret: "other", JWTIssuer: "fridge-journal-test", JWTTTLMinutes: 5, JWTRefreshTTLMinutes: 5}, memory.New(), nil)

	tokens, err := other.issueTokens("u1")
	require.NoError(t, err)
	_, err = service.VerifyAccess(tokens.Access)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestHandleDevAuthAndMe(t *testing.T) {
	service, seeder := setupTestService(t)
	h := NewHandlers(service)

	w := doJSON(t, h.HandleDevAuth, http.MethodPost, "/v1/auth/dev", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp DevAuthResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	sub, err := service.VerifyAccess(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, devUserID, sub)
	assert.Contains(t, seeder.owners, devUserID)

	req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
	req = req.WithContext(userctx.WithUserID(req.Context(), devUserID))
	rec := httptest.NewRecorder()
	h.HandleMe(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"username":"dev-user"`)
}

func TestMiddleware(t *testing.T) {
	service, _ := setupTestService(t)
	tokens, err := service.issueTokens("u1")
	require.NoError(t, err)

	var seen string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = userctx.OwnerID(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	serve := func(mw func(http.Handler) http.Handler, path, header string) int {
		seen = ""
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		mw(next).ServeHTTP(w, req)
		return w.Code
	}

	m := NewMiddleware(testConfig(), service)

	assert.Equal(t, http.StatusUnauthorized, serve(m.RequireAuth, "/v1/fridge", ""))
	assert.Equal(t, http.StatusUnauthorized, serve(m.RequireAuth, "/v1/fridge", "Bearer "+tokens.Refresh))
	assert.Equal(t, http.StatusUnauthorized, serve(m.RequireAuth, "/v1/fridge", "Basic abc"))
	assert.Equal(t, http.StatusNoContent, serve(m.RequireAuth, "/healthz", ""))
	assert.Equal(t, http.StatusNoContent, serve(m.RequireAuth, "/v1/auth/login", ""))

	assert.Equal(t, http.StatusNoContent, serve(m.RequireAuth, "/v1/fridge", "Bearer "+tokens.Access))
	assert.Equal(t, "u1", seen)

	assert.Equal(t, http.StatusNoContent, serve(m.OptionalAuth, "/v1/fridge", ""))
	assert.Equal(t, userctx.DefaultOwnerID, seen)
	assert.Equal(t, http.StatusUnauthorized, serve(m.OptionalAuth, "/v1/fridge", "Bearer garbage"))
}
