package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/fdg312/fridge-journal/internal/config"
	"github.com/fdg312/fridge-journal/internal/storage"
)

var (
	ErrInvalidToken       = errors.New("invalid token")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUsernameTaken      = errors.New("username taken")
	ErrUserNotFound       = errors.New("user not found")
	ErrValidation         = errors.New("validation failed")
)

const devUserID = "dev-user"

func validationError(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}

// MealSeeder creates the default meals of a new account.
type MealSeeder interface {
	EnsureDefaults(ctx context.Context, ownerUserID string) error
}

// Service issues and verifies tokens and manages accounts.
type Service struct {
	config *config.Config
	users  storage.UsersStorage
	meals  MealSeeder
	now    func() time.Time
}

func NewService(cfg *config.Config, users storage.UsersStorage, meals MealSeeder) *Service {
	return &Service{
		config: cfg,
		users:  users,
		meals:  meals,
		now:    time.Now,
	}
}

// Register creates an account with a bcrypt password hash and its default meals.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*UserResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.config.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &storage.User{
		Username:     req.Username,
		Email:        req.Email,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		PasswordHash: string(hash),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	if s.meals != nil {
		if err := s.meals.EnsureDefaults(ctx, user.ID.String()); err != nil {
			return nil, fmt.Errorf("create default meals: %w", err)
		}
	}

	resp := toUserResponse(user)
	return &resp, nil
}

// Login checks the password and returns a fresh token pair.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*TokenPair, error) {
	user, err := s.users.GetUserByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.issueTokens(user.ID.String())
}

// Refresh exchanges a refresh token for a new pair. Access tokens are rejected.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	sub, err := s.parseJWT(refreshToken, tokenTypeRefresh)
	if err != nil {
		return nil, err
	}

	// The account may have been removed since the token was issued.
	if id, err := uuid.Parse(sub); err == nil {
		if _, err := s.users.GetUser(ctx, id); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return nil, ErrInvalidToken
			}
			return nil, fmt.Errorf("get user: %w", err)
		}
	}

	return s.issueTokens(sub)
}

// SignInDev issues a 30 day access token for the shared dev user.
func (s *Service) SignInDev(ctx context.Context) (*DevAuthResponse, error) {
	_ = ctx

	const devTTL = 30 * 24 * time.Hour

	accessToken, err := s.generateJWT(devUserID, tokenTypeAccess, devTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to generate dev JWT: %w", err)
	}

	if s.meals != nil {
		if err := s.meals.EnsureDefaults(ctx, devUserID); err != nil {
			return nil, fmt.Errorf("create default meals: %w", err)
		}
	}

	return &DevAuthResponse{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		ExpiresIn:   int64(devTTL.Seconds()),
	}, nil
}

// Me returns the account behind userID. Non-account owners (dev-user, default)
// get a synthetic profile.
func (s *Service) Me(ctx context.Context, userID string) (*UserResponse, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return &UserResponse{ID: userID, Username: userID}, nil
	}

	user, err := s.users.GetUser(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	resp := toUserResponse(user)
	return &resp, nil
}

// VerifyAccess returns the subject of a valid access token.
func (s *Service) VerifyAccess(tokenString string) (string, error) {
	return s.parseJWT(tokenString, tokenTypeAccess)
}

func (s *Service) issueTokens(sub string) (*TokenPair, error) {
	accessTTL := time.Duration(s.config.JWTTTLMinutes) * time.Minute
	access, err := s.generateJWT(sub, tokenTypeAccess, accessTTL)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}

	refresh, err := s.generateJWT(sub, tokenTypeRefresh, time.Duration(s.config.JWTRefreshTTLMinutes)*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}

	return &TokenPair{
		Access:    access,
		Refresh:   refresh,
		TokenType: "Bearer",
		ExpiresIn: int64(accessTTL.Seconds()),
	}, nil
}

func (s *Service) generateJWT(sub, typ string, ttl time.Duration) (string, error) {
	now := s.now()

	claims := jwt.MapClaims{
		"sub": sub,
		"typ": typ,
		"jti": uuid.NewString(),
		"iss": s.config.JWTIssuer,
		"exp": now.Add(ttl).Unix(),
		"iat": now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.JWTSecret))
}

func (s *Service) parseJWT(tokenString, wantType string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.JWTSecret), nil
	}, jwt.WithIssuer(s.config.JWTIssuer), jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}
	if typ, _ := claims["typ"].(string); typ != wantType {
		return "", ErrInvalidToken
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return "", ErrInvalidToken
	}

	return sub, nil
}
