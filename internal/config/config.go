package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

const (
	AuthModeNone     = "none"
	AuthModeDev      = "dev"
	AuthModePassword = "password"

	defaultJWTSecret = "change_me"
)

// Config holds the application configuration.
type Config struct {
	Env      string // local | staging | production
	Port     int
	LogLevel string

	// Database
	DatabaseURL       string // runtime connection (resolved: pooled > url > direct)
	DatabaseURLRaw    string
	DatabaseURLPooled string
	DatabaseURLDirect string // migrations / DDL

	RunMigrationsOnStartup bool

	// CORS
	CORSAllowedOrigins   []string
	CORSAllowCredentials bool

	// Rate limiting
	RateLimitRPS   int
	RateLimitBurst int

	Blob BlobConfig

	// Uploads
	UploadMaxMB       int
	UploadAllowedMime string

	// Pagination / reports
	PageSize            int
	ReportsMaxRangeDays int

	// Authentication
	AuthMode             string // none | dev | password
	AuthRequired         bool
	JWTSecret            string
	JWTIssuer            string
	JWTTTLMinutes        int
	JWTRefreshTTLMinutes int
	BcryptCost           int

	// Warnings collected while loading; logged once the logger is up.
	Warnings []string
}

// Load reads the configuration from environment variables.
func Load() *Config {
	cfg := &Config{}

	cfg.Env = os.Getenv("APP_ENV")
	if cfg.Env == "" {
		cfg.Env = os.Getenv("ENV")
	}
	if cfg.Env == "" {
		cfg.Env = "local"
	}

	cfg.Port = envInt("PORT", 8080)
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(os.Getenv("LOG_LEVEL")))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "debug"
	}

	// ---------- Database ----------
	// Priority: DATABASE_URL_POOLED > DATABASE_URL > DATABASE_URL_DIRECT
	cfg.DatabaseURLPooled = strings.TrimSpace(os.Getenv("DATABASE_URL_POOLED"))
	cfg.DatabaseURLRaw = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	cfg.DatabaseURLDirect = strings.TrimSpace(os.Getenv("DATABASE_URL_DIRECT"))
	cfg.DatabaseURL = firstNonEmpty(cfg.DatabaseURLPooled, cfg.DatabaseURLRaw, cfg.DatabaseURLDirect)
	cfg.RunMigrationsOnStartup = parseBoolEnv("RUN_MIGRATIONS_ON_STARTUP")

	// ---------- HTTP ----------
	cfg.CORSAllowedOrigins = parseCORSOrigins(os.Getenv("CORS_ALLOWED_ORIGINS"), cfg.Env)
	cfg.CORSAllowCredentials = parseBoolEnv("CORS_ALLOW_CREDENTIALS")
	cfg.RateLimitRPS = envInt("RATE_LIMIT_RPS", 0)
	cfg.RateLimitBurst = envInt("RATE_LIMIT_BURST", 0)

	// ---------- Blob / S3 ----------
	cfg.Blob = BlobConfig{
		Mode: cfg.parseMode("BLOB_MODE", BlobModeLocal, BlobModeLocal, BlobModeS3, BlobModeAuto),
		S3: S3Config{
			Endpoint:          strings.TrimSpace(os.Getenv("S3_ENDPOINT")),
			Region:            strings.TrimSpace(os.Getenv("S3_REGION")),
			Bucket:            strings.TrimSpace(os.Getenv("S3_BUCKET")),
			AccessKeyID:       strings.TrimSpace(os.Getenv("S3_ACCESS_KEY_ID")),
			SecretAccessKey:   strings.TrimSpace(os.Getenv("S3_SECRET_ACCESS_KEY")),
			PublicBaseURL:     strings.TrimSpace(os.Getenv("S3_PUBLIC_BASE_URL")),
			PresignTTLSeconds: positiveOr(envInt("S3_PRESIGN_TTL_SECONDS", 900), 900),
		},
	}

	cfg.UploadMaxMB = positiveOr(envInt("UPLOAD_MAX_MB", 5), 5)
	cfg.UploadAllowedMime = os.Getenv("UPLOAD_ALLOWED_MIME")
	if cfg.UploadAllowedMime == "" {
		cfg.UploadAllowedMime = "image/jpeg,image/png,image/heic"
	}

	cfg.PageSize = positiveOr(envInt("PAGE_SIZE", 20), 20)
	cfg.ReportsMaxRangeDays = positiveOr(envInt("REPORTS_MAX_RANGE_DAYS", 93), 93)

	// ---------- Auth ----------
	cfg.AuthMode = cfg.parseMode("AUTH_MODE", AuthModeNone, AuthModeNone, AuthModeDev, AuthModePassword)
	cfg.AuthRequired = cfg.AuthMode != AuthModeNone && parseBoolEnv("AUTH_REQUIRED")

	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = defaultJWTSecret
	}
	if cfg.JWTSecret == defaultJWTSecret && cfg.Env != "local" {
		cfg.warnf("JWT_SECRET is set to %q in non-local environment", defaultJWTSecret)
	}
	cfg.JWTIssuer = os.Getenv("JWT_ISSUER")
	if cfg.JWTIssuer == "" {
		cfg.JWTIssuer = "fridge-journal"
	}
	cfg.JWTTTLMinutes = positiveOr(envInt("JWT_TTL_MINUTES", 15), 15)
	cfg.JWTRefreshTTLMinutes = positiveOr(envInt("JWT_REFRESH_TTL_MINUTES", 43200), 43200) // 30 days

	// bcrypt accepts 4..31; anything else falls back to the library default.
	cfg.BcryptCost = envInt("BCRYPT_COST", 10)
	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		cfg.warnf("BCRYPT_COST=%d out of range, fallback to 10", cfg.BcryptCost)
		cfg.BcryptCost = 10
	}

	return cfg
}

// IsProduction reports whether strict startup checks apply.
func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "staging"
}

// AuthEnabled reports whether tokens are issued and verified.
func (c *Config) AuthEnabled() bool {
	return c.AuthMode != AuthModeNone
}

// Validate returns the fatal configuration problems for the current environment.
func (c *Config) Validate() []string {
	var problems []string

	needsS3 := c.Blob.Mode == BlobModeS3
	if missing := c.Blob.S3.MissingRequired(); needsS3 && len(missing) > 0 {
		problems = append(problems, fmt.Sprintf("BLOB_MODE=s3 but S3 config is incomplete, missing: %s", strings.Join(missing, ", ")))
	}
	if c.IsProduction() && c.AuthRequired && c.JWTSecret == defaultJWTSecret {
		problems = append(problems, fmt.Sprintf("JWT_SECRET must not be %q in %s with AUTH_REQUIRED=1", defaultJWTSecret, c.Env))
	}
	if c.IsProduction() && c.DatabaseURL == "" {
		problems = append(problems, fmt.Sprintf("no DATABASE_URL configured in %s", c.Env))
	}
	return problems
}

func (c *Config) warnf(format string, args ...any) {
	c.Warnings = append(c.Warnings, fmt.Sprintf(format, args...))
}

// parseMode reads an enum env var, falling back to def on unknown values.
func (c *Config) parseMode(key, def string, allowed ...string) string {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if v == "" {
		return def
	}
	for _, a := range allowed {
		if v == a {
			return v
		}
	}
	c.warnf("unknown %s=%q, fallback to %s", key, v, def)
	return def
}

// parseCORSOrigins parses CORS_ALLOWED_ORIGINS.
// In local mode, defaults to localhost origins if empty.
func parseCORSOrigins(raw, env string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		if env == "local" {
			return []string{"http://localhost:3000", "http://localhost:8081", "http://localhost:19006"}
		}
		return nil
	}

	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			origins = append(origins, p)
		}
	}
	return origins
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func positiveOr(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// envInt reads an int env var with a default value.
func envInt(key string, defaultVal int) int {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}

func parseBoolEnv(key string) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	return v == "1" || v == "true" || v == "yes" || v == "on"
}
