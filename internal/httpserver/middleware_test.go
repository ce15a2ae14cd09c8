package httpserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fdg312/fridge-journal/internal/config"
	"github.com/fdg312/fridge-journal/internal/httpx"
)

func okHandler(called *int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called++
		w.WriteHeader(http.StatusOK)
	})
}

func TestCORSPreflightAllowedOrigin(t *testing.T) {
	cfg := &config.Config{CORSAllowedOrigins: []string{"https://app.example.com"}}

	calls := 0
	handler := CORSMiddleware(cfg, okHandler(&calls))

	req := httptest.NewRequest(http.MethodOptions, "/v1/fridge", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Zero(t, calls)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "https://app.example.com", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rr.Header().Get("Access-Control-Allow-Methods"), "PUT")
	assert.Equal(t, "600", rr.Header().Get("Access-Control-Max-Age"))
}

func TestCORSDisallowedOrigin(t *testing.T) {
	cfg := &config.Config{CORSAllowedOrigins: []string{"https://app.example.com"}}

	calls := 0
	handler := CORSMiddleware(cfg, okHandler(&calls))

	req := httptest.NewRequest(http.MethodGet, "/v1/fridge", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, 1, calls)
	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/v1/fridge", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Methods"))
}

func TestCORSCredentialsAndWildcard(t *testing.T) {
	cfg := &config.Config{CORSAllowedOrigins: []string{"*"}, CORSAllowCredentials: true}

	calls := 0
	handler := CORSMiddleware(cfg, okHandler(&calls))

	req := httptest.NewRequest(http.MethodGet, "/v1/fridge", nil)
	req.Header.Set("Origin", "https://any.example.com")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "https://any.example.com", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rr.Header().Get("Access-Control-Allow-Credentials"))
}

func TestRateLimitSecondRequestRejected(t *testing.T) {
	cfg := &config.Config{RateLimitRPS: 1, RateLimitBurst: 1}

	calls := 0
	handler := RateLimitMiddleware(cfg, okHandler(&calls))

	send := func(remote, xff string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/v1/products", nil)
		req.RemoteAddr = remote
		if xff != "" {
			req.Header.Set("X-Forwarded-For", xff)
		}
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr
	}

	assert.Equal(t, http.StatusOK, send("1.2.3.4:1000", "").Code)

	rr := send("1.2.3.4:2000", "")
	require.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "1", rr.Header().Get("Retry-After"))

	var body httpx.ErrorResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	assert.Equal(t, "rate_limited", body.Error.Code)

	// Independent buckets per client.
	assert.Equal(t, http.StatusOK, send("5.6.7.8:1000", "").Code)
	assert.Equal(t, http.StatusOK, send("1.2.3.4:1000", "9.9.9.9, 10.0.0.1").Code)
	assert.Equal(t, 3, calls)

	// Probes bypass the limiter.
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		req.RemoteAddr = "1.2.3.4:1000"
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusOK, rr.Code)
	}
}

func TestRateLimitDisabled(t *testing.T) {
	calls := 0
	handler := RateLimitMiddleware(&config.Config{}, okHandler(&calls))

	for i := 0; i < 10; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "1.2.3.4:1"
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		require.Equal(t, http.StatusOK, rr.Code)
	}
	assert.Equal(t, 10, calls)
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	assert.Equal(t, "10.0.0.1", clientIP(req))

	req.Header.Set("X-Forwarded-For", " 203.0.113.7 , 10.0.0.1")
	assert.Equal(t, "203.0.113.7", clientIP(req))

	req.Header.Del("X-Forwarded-For")
	req.RemoteAddr = "not-an-addr"
	assert.Equal(t, "not-an-addr", clientIP(req))
}

func TestRequestLogMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	handler := RequestLogMiddleware(logger, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		zerolog.Ctx(r.Context()).Info().Msg("inside")
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodGet, "/v1/fridge", nil)
	req.Header.Set("X-Request-ID", "req-1")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, "req-1", rr.Header().Get("X-Request-ID"))

	dec := json.NewDecoder(&buf)
	var inside, access map[string]any
	require.NoError(t, dec.Decode(&inside))
	require.NoError(t, dec.Decode(&access))

	assert.Equal(t, "inside", inside["message"])
	assert.Equal(t, "req-1", inside["request_id"])

	assert.Equal(t, "request", access["message"])
	assert.Equal(t, "warn", access["level"])
	assert.Equal(t, float64(http.StatusTeapot), access["status"])
	assert.Equal(t, "/v1/fridge", access["path"])
}

func TestRequestLogGeneratesID(t *testing.T) {
	handler := RequestLogMiddleware(zerolog.Nop(), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Len(t, rr.Header().Get("X-Request-ID"), 36)
}
