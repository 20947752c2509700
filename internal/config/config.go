// Package config loads the server settings from .env files and the process
// environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

// Config holds runtime settings for the account API.
type Config struct {
	Port        string
	APIBasePath string
	LogLevel    string

	DatabaseURL string
	RedisURL    string

	AccessTokenSecret  string
	AccessTokenExpiry  time.Duration
	RefreshTokenSecret string
	RefreshTokenExpiry time.Duration
	BcryptCost         int

	CookieSecure bool
	CookieDomain string
	CORSOrigin   string

	UploadDir      string
	MaxUploadBytes int64

	S3Bucket           string
	S3Region           string
	S3Endpoint         string
	S3AccessKey        string
	S3SecretKey        string
	MediaPublicBaseURL string
}

var (
	ErrMissingValue = errors.New("required setting is not set")
	ErrSameSecrets  = errors.New("access and refresh token secrets must differ")
)

// LoadDefaults fills in development defaults. Secrets and connection strings
// have no defaults.
func (c *Config) LoadDefaults() {
	c.Port = "8000"
	c.APIBasePath = "/api/v1/users"
	c.LogLevel = "info"
	c.AccessTokenExpiry = 15 * time.Minute
	c.RefreshTokenExpiry = 10 * 24 * time.Hour
	c.BcryptCost = bcrypt.DefaultCost
	c.CookieSecure = true
	c.CORSOrigin = "*"
	c.UploadDir = "./public/temp"
	c.MaxUploadBytes = 10 << 20
	c.S3Region = "us-east-1"
}

// Load reads .env.local and .env when present, then overlays the process
// environment on top of the defaults.
func Load() (*Config, error) {
	if err := godotenv.Load(".env.local"); err != nil {
		_ = godotenv.Load()
	}

	cfg := &Config{}
	cfg.LoadDefaults()
	if err := cfg.fromEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

type lookupFunc func(string) (string, bool)

func (c *Config) fromEnv(lookup lookupFunc) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	str("PORT", &c.Port)
	str("API_BASE_PATH", &c.APIBasePath)
	str("LOG_LEVEL", &c.LogLevel)
	str("DATABASE_URL", &c.DatabaseURL)
	str("REDIS_URL", &c.RedisURL)
	str("ACCESS_TOKEN_SECRET", &c.AccessTokenSecret)
	str("REFRESH_TOKEN_SECRET", &c.RefreshTokenSecret)
	str("COOKIE_DOMAIN", &c.CookieDomain)
	str("CORS_ORIGIN", &c.CORSOrigin)
	str("UPLOAD_DIR", &c.UploadDir)
	str("S3_BUCKET", &c.S3Bucket)
	str("S3_REGION", &c.S3Region)
	str("S3_ENDPOINT", &c.S3Endpoint)
	str("S3_ACCESS_KEY", &c.S3AccessKey)
	str("S3_SECRET_KEY", &c.S3SecretKey)
	str("MEDIA_PUBLIC_BASE_URL", &c.MediaPublicBaseURL)

	for key, dst := range map[string]*time.Duration{
		"ACCESS_TOKEN_EXPIRY":  &c.AccessTokenExpiry,
		"REFRESH_TOKEN_EXPIRY": &c.RefreshTokenExpiry,
	} {
		if v, ok := lookup(key); ok && v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = d
		}
	}

	if v, ok := lookup("BCRYPT_COST"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("BCRYPT_COST: %w", err)
		}
		c.BcryptCost = n
	}
	if v, ok := lookup("MAX_UPLOAD_BYTES"); ok && v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("MAX_UPLOAD_BYTES: %w", err)
		}
		c.MaxUploadBytes = n
	}
	if v, ok := lookup("COOKIE_SECURE"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("COOKIE_SECURE: %w", err)
		}
		c.CookieSecure = b
	}
	return nil
}

// Validate reports the first missing or inconsistent setting.
func (c *Config) Validate() error {
	required := []struct{ key, value string }{
		{"DATABASE_URL", c.DatabaseURL},
		{"REDIS_URL", c.RedisURL},
		{"ACCESS_TOKEN_SECRET", c.AccessTokenSecret},
		{"REFRESH_TOKEN_SECRET", c.RefreshTokenSecret},
		{"S3_BUCKET", c.S3Bucket},
		{"MEDIA_PUBLIC_BASE_URL", c.MediaPublicBaseURL},
	}
	for _, r := range required {
		if r.value == "" {
			return fmt.Errorf("%s: %w", r.key, ErrMissingValue)
		}
	}
	if c.AccessTokenSecret == c.RefreshTokenSecret {
		return ErrSameSecrets
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	return nil
}
