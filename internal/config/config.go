package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultHTTPAddr    = ":8080"
	defaultDatabaseURL = "data/photo_journal.db"
	defaultJWTSecret   = "change-me-jwt-secret"
	defaultJWTTTL      = "24h"
	defaultUploadDir   = "static/uploads"
	defaultMaxUploadMB = "10"
	defaultVisibility  = "private"
	defaultCookieName  = "session"
)

// Visibility selects the listing policy for a deployment. The private
// variant lists only the caller's own entries; the public variant lists
// every entry with its author attached.
type Visibility string

const (
	VisibilityPrivate Visibility = "private"
	VisibilityPublic  Visibility = "public"
)

type Config struct {
	AppEnv       string
	HTTPAddr     string
	DatabaseURL  string
	JWTSecret    string
	JWTTTL       time.Duration
	UploadDir    string
	MaxUploadMB  int64
	Visibility   Visibility
	CookieName   string
	CookieSecure bool
	StaticDir    string
}

func Load() (*Config, error) {
	cfg := &Config{}

	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = "dev"
	}
	cfg.AppEnv = strings.ToLower(appEnv)

	cfg.HTTPAddr = getEnv("HTTP_ADDR", defaultHTTPAddr)
	cfg.DatabaseURL = getEnv("DATABASE_URL", defaultDatabaseURL)
	cfg.JWTSecret = strings.TrimSpace(getEnv("JWT_SECRET", defaultJWTSecret))
	cfg.UploadDir = getEnv("UPLOAD_DIR", defaultUploadDir)
	cfg.StaticDir = getEnv("STATIC_DIR", "web/static")
	cfg.CookieName = getEnv("SESSION_COOKIE_NAME", defaultCookieName)
	cfg.CookieSecure = getEnv("SESSION_COOKIE_SECURE", "false") == "true"

	var err error
	cfg.JWTTTL, err = parseDurationEnv("JWT_TTL", defaultJWTTTL)
	if err != nil {
		return nil, err
	}

	maxMB, err := strconv.ParseInt(getEnv("MAX_UPLOAD_MB", defaultMaxUploadMB), 10, 64)
	if err != nil || maxMB <= 0 {
		return nil, fmt.Errorf("MAX_UPLOAD_MB must be a positive integer")
	}
	cfg.MaxUploadMB = maxMB

	switch Visibility(strings.ToLower(getEnv("LISTING_VISIBILITY", defaultVisibility))) {
	case VisibilityPrivate:
		cfg.Visibility = VisibilityPrivate
	case VisibilityPublic:
		cfg.Visibility = VisibilityPublic
	default:
		return nil, fmt.Errorf("LISTING_VISIBILITY must be %q or %q", VisibilityPrivate, VisibilityPublic)
	}

	if cfg.AppEnv == "prod" && cfg.JWTSecret == defaultJWTSecret {
		return nil, fmt.Errorf("JWT_SECRET must be set in prod")
	}

	return cfg, nil
}

func (c *Config) MaxUploadBytes() int64 {
	return c.MaxUploadMB << 20
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseDurationEnv(key, fallback string) (time.Duration, error) {
	raw := getEnv(key, fallback)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", key, raw, err)
	}
	return d, nil
}
