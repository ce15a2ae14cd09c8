package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fdg312/fridge-journal/internal/config"
)

func testConfig(authMode string, authRequired bool) *config.Config {
	return &config.Config{
		Env:                  "local",
		Port:                 8080,
		Blob:                 config.BlobConfig{Mode: config.BlobModeLocal},
		UploadMaxMB:          1,
		UploadAllowedMime:    "image/png",
		PageSize:             20,
		ReportsMaxRangeDays:  31,
		AuthMode:             authMode,
		AuthRequired:         authRequired,
		JWTSecret:            "test-secret",
		JWTIssuer:            "fridge-journal-test",
		JWTTTLMinutes:        15,
		JWTRefreshTTLMinutes: 60,
		BcryptCost:           4,
	}
}

func newTestServer(t *testing.T, cfg *config.Config) http.Handler {
	t.Helper()
	srv, err := New(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Close() })
	return srv.Handler()
}

func call(t *testing.T, h http.Handler, method, target, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&v), rr.Body.String())
	return v
}

func TestHealthz(t *testing.T) {
	h := newTestServer(t, testConfig(config.AuthModeNone, false))

	rr := call(t, h, http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	resp := decode[map[string]string](t, rr)
	assert.Equal(t, "ok", resp["status"])
	assert.Equal(t, "memory", resp["storage"])
	assert.Equal(t, "local", resp["blob"])

	rr = call(t, h, http.MethodPost, "/healthz", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestNewFailsOnIncompleteS3(t *testing.T) {
	cfg := testConfig(config.AuthModeNone, false)
	cfg.Blob.Mode = config.BlobModeS3

	_, err := New(context.Background(), cfg, zerolog.Nop())
	assert.Error(t, err)
}

func TestAuthRoutesFollowMode(t *testing.T) {
	h := newTestServer(t, testConfig(config.AuthModeNone, false))
	assert.Equal(t, http.StatusNotFound, call(t, h, http.MethodPost, "/v1/auth/login", "", map[string]string{}).Code)
	assert.Equal(t, http.StatusNotFound, call(t, h, http.MethodPost, "/v1/auth/dev", "", nil).Code)

	h = newTestServer(t, testConfig(config.AuthModePassword, false))
	assert.Equal(t, http.StatusNotFound, call(t, h, http.MethodPost, "/v1/auth/dev", "", nil).Code)

	h = newTestServer(t, testConfig(config.AuthModeDev, false))
	assert.Equal(t, http.StatusOK, call(t, h, http.MethodPost, "/v1/auth/dev", "", nil).Code)
}

// A day in the app without auth: catalogue, fridge, journal and the day view.
func TestAnonymousFlow(t *testing.T) {
	h := newTestServer(t, testConfig(config.AuthModeNone, false))

	rr := call(t, h, http.MethodPost, "/v1/products", "", map[string]any{
		"barcode": "4601", "name": "Kefir", "amount": 1, "unit": "l", "protein": 30, "fat": 10, "carbons": 40,
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = call(t, h, http.MethodPost, "/v1/fridge", "", map[string]any{
		"product_barcode": "4601", "current_amount": 900, "unit": "ml", "threshold": 1000,
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	item := decode[map[string]any](t, rr)
	assert.Equal(t, true, item["below_threshold"])

	rr = call(t, h, http.MethodGet, "/v1/fridge?show-below-threshold=true", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.EqualValues(t, 1, decode[map[string]any](t, rr)["count"])

	rr = call(t, h, http.MethodGet, "/v1/user-meals", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	meals := decode[struct {
		Results []struct {
			ID string `json:"id"`
		} `json:"results"`
	}](t, rr)
	require.Len(t, meals.Results, 4)

	rr = call(t, h, http.MethodPost, "/v1/journal", "", map[string]any{
		"date": "2026-03-01", "meal_id": meals.Results[0].ID, "product_barcode": "4601", "amount": 250, "unit": "ml",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = call(t, h, http.MethodGet, "/v1/journal/day?date=2026-03-01", "", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	day := decode[struct {
		Totals struct {
			Proteins float64 `json:"proteins"`
		} `json:"totals"`
		Kcal float64 `json:"kcal"`
	}](t, rr)
	assert.InDelta(t, 7.5, day.Totals.Proteins, 1e-9)
	assert.InDelta(t, (7.5+10)*4+2.5*9, day.Kcal, 1e-9)

	rr = call(t, h, http.MethodGet, "/v1/journal/report?from=2026-03-01&to=2026-03-01&format=csv", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Kefir")

	rr = call(t, h, http.MethodDelete, "/v1/user-meals/"+meals.Results[0].ID, "", nil)
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = call(t, h, http.MethodGet, "/v1/products/4601/nutrients?amount=2&unit=kg", "", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestPasswordAuthIsolatesOwners(t *testing.T) {
	h := newTestServer(t, testConfig(config.AuthModePassword, true))

	assert.Equal(t, http.StatusUnauthorized, call(t, h, http.MethodGet, "/v1/fridge", "", nil).Code)
	assert.Equal(t, http.StatusOK, call(t, h, http.MethodGet, "/healthz", "", nil).Code)

	login := func(username string) string {
		rr := call(t, h, http.MethodPost, "/v1/auth/register", "", map[string]string{
			"username": username, "password": "correct-horse",
		})
		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

		rr = call(t, h, http.MethodPost, "/v1/auth/login", "", map[string]string{
			"username": username, "password": "correct-horse",
		})
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		return decode[map[string]any](t, rr)["access"].(string)
	}

	alice, bob := login("alice"), login("bob")

	rr := call(t, h, http.MethodGet, "/v1/me", alice, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "alice", decode[map[string]any](t, rr)["username"])

	rr = call(t, h, http.MethodPost, "/v1/products", alice, map[string]any{
		"barcode": "rice", "name": "Rice", "amount": 100, "unit": "g", "protein": 7, "fat": 1, "carbons": 78,
	})
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = call(t, h, http.MethodPost, "/v1/fridge", alice, map[string]any{"product_barcode": "rice", "current_amount": 500})
	require.Equal(t, http.StatusCreated, rr.Code)
	itemID := decode[map[string]any](t, rr)["id"].(string)

	assert.Equal(t, http.StatusOK, call(t, h, http.MethodGet, "/v1/fridge/"+itemID, alice, nil).Code)
	assert.Equal(t, http.StatusNotFound, call(t, h, http.MethodGet, "/v1/fridge/"+itemID, bob, nil).Code)

	rr = call(t, h, http.MethodGet, "/v1/fridge", bob, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.EqualValues(t, 0, decode[map[string]any](t, rr)["count"])
}
