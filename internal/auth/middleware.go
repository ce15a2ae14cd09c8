package auth

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/fdg312/fridge-journal/internal/config"
	"github.com/fdg312/fridge-journal/internal/httpx"
	"github.com/fdg312/fridge-journal/internal/userctx"
)

// Middleware authenticates Bearer access tokens.
type Middleware struct {
	config  *config.Config
	service *Service
}

func NewMiddleware(cfg *config.Config, service *Service) *Middleware {
	return &Middleware{
		config:  cfg,
		service: service,
	}
}

// Handler picks RequireAuth or OptionalAuth from AUTH_REQUIRED.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	if m.config.AuthRequired {
		return m.RequireAuth(next)
	}
	return m.OptionalAuth(next)
}

// RequireAuth rejects non-public requests without a valid access token.
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isPublicPath(r.URL.Path) || r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		userID, err := m.authenticateHeader(r.Header.Get("Authorization"))
		if err != nil {
			httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
			return
		}

		next.ServeHTTP(w, withUser(r, userID))
	})
}

// OptionalAuth validates the Bearer token only when it is provided.
// Without a token the request acts as the default owner.
func (m *Middleware) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if strings.TrimSpace(authHeader) == "" {
			next.ServeHTTP(w, r)
			return
		}

		userID, err := m.authenticateHeader(authHeader)
		if err != nil {
			httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
			return
		}

		next.ServeHTTP(w, withUser(r, userID))
	})
}

// withUser scopes the request to userID and tags its logger with it.
func withUser(r *http.Request, userID string) *http.Request {
	ctx := userctx.WithUserID(r.Context(), userID)
	logger := zerolog.Ctx(ctx).With().Str("user_id", userID).Logger()
	return r.WithContext(logger.WithContext(ctx))
}

func (m *Middleware) authenticateHeader(authHeader string) (string, error) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(authHeader), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", ErrInvalidToken
	}

	return m.service.VerifyAccess(strings.TrimSpace(token))
}

func isPublicPath(path string) bool {
	return path == "/healthz" || strings.HasPrefix(path, "/v1/auth/")
}
