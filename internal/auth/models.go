package auth

import (
	"strings"
	"time"

	"github.com/fdg312/fridge-journal/internal/storage"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"

	minPasswordLength = 8
)

// RegisterRequest is the body of POST /v1/auth/register.
type RegisterRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

func (r *RegisterRequest) Validate() error {
	r.Username = strings.TrimSpace(r.Username)
	r.Email = strings.TrimSpace(r.Email)
	if r.Username == "" {
		return validationError("username is required")
	}
	if len(r.Username) > 150 {
		return validationError("username must be at most 150 characters")
	}
	if r.Email != "" && !strings.Contains(r.Email, "@") {
		return validationError("email is invalid")
	}
	if len(r.Password) < minPasswordLength {
		return validationError("password must be at least 8 characters")
	}
	return nil
}

// LoginRequest is the body of POST /v1/auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RefreshRequest is the body of POST /v1/auth/refresh.
type RefreshRequest struct {
	Refresh string `json:"refresh"`
}

// TokenPair is returned by login and refresh.
type TokenPair struct {
	Access    string `json:"access"`
	Refresh   string `json:"refresh"`
	TokenType string `json:"token_type"`
	ExpiresIn int64  `json:"expires_in"`
}

// DevAuthResponse is returned by POST /v1/auth/dev.
type DevAuthResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// UserResponse is the public view of a user.
type UserResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Picture   string    `json:"picture"`
	CreatedAt time.Time `json:"created_at"`
}

func toUserResponse(u *storage.User) UserResponse {
	return UserResponse{
		ID:        u.ID.String(),
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Picture:   u.Picture,
		CreatedAt: u.CreatedAt,
	}
}
