// Package config loads process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// CallbackPath is the one path rendered outside the application shell.
const CallbackPath = "/auth/callback"

// Environment variables.
const (
	EnvBackendURL         = "BACKEND_URL"
	EnvBackendAnonKey     = "BACKEND_ANON_KEY"
	EnvBackendJWTSecret   = "BACKEND_JWT_SECRET"
	EnvPaymentPublicKey   = "PAYMENT_PUBLIC_KEY"
	EnvPaymentCheckoutURL = "PAYMENT_CHECKOUT_URL"
	EnvSiteURL            = "SITE_URL"
	EnvPort               = "PORT"
	EnvRedisAddr          = "REDIS_ADDR"
	EnvRedisPassword      = "REDIS_PASSWORD"
	EnvRedisDB            = "REDIS_DB"
	EnvLogLevel           = "LOG_LEVEL"
	EnvLogFormat          = "LOG_FORMAT"
	EnvAuthRateLimit      = "AUTH_RATE_LIMIT"
	EnvAuthRateBurst      = "AUTH_RATE_BURST"
	EnvDatabaseURL        = "DATABASE_URL"
	EnvTrustedProxies     = "TRUSTED_PROXIES"
)

var required = []string{EnvBackendURL, EnvBackendAnonKey, EnvPaymentPublicKey}

type Config struct {
	BackendURL         string
	BackendAnonKey     string
	BackendJWTSecret   string
	PaymentPublicKey   string
	PaymentCheckoutURL string
	SiteURL            string
	Port               string
	RedisAddr          string
	RedisPassword      string
	RedisDB            int
	LogLevel           string
	LogFormat          string
	AuthRateLimit      float64
	AuthRateBurst      int
	DatabaseURL        string
	// TrustedProxies may set X-Forwarded-For. Empty means the client
	// address is always the connection's remote address.
	TrustedProxies []string
}

// MissingError lists every required key that was not set.
type MissingError struct {
	Keys []string
}

func (e *MissingError) Error() string {
	return "missing required environment variables: " + strings.Join(e.Keys, ", ")
}

func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault(EnvSiteURL, "http://localhost:8080")
	v.SetDefault(EnvPort, "8080")
	v.SetDefault(EnvRedisDB, 0)
	v.SetDefault(EnvLogLevel, "info")
	v.SetDefault(EnvLogFormat, "text")
	v.SetDefault(EnvAuthRateLimit, 5.0)
	v.SetDefault(EnvAuthRateBurst, 10)
	return v
}

// Load reads the environment, after merging any of envFiles that exist.
// A missing required key is reported as *MissingError.
func Load(envFiles ...string) (*Config, error) {
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	v := newViper()

	var missing []string
	for _, key := range required {
		if strings.TrimSpace(v.GetString(key)) == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingError{Keys: missing}
	}

	return &Config{
		BackendURL:         strings.TrimSuffix(v.GetString(EnvBackendURL), "/"),
		BackendAnonKey:     v.GetString(EnvBackendAnonKey),
		BackendJWTSecret:   v.GetString(EnvBackendJWTSecret),
		PaymentPublicKey:   v.GetString(EnvPaymentPublicKey),
		PaymentCheckoutURL: v.GetString(EnvPaymentCheckoutURL),
		SiteURL:            strings.TrimSuffix(v.GetString(EnvSiteURL), "/"),
		Port:               v.GetString(EnvPort),
		RedisAddr:          v.GetString(EnvRedisAddr),
		RedisPassword:      v.GetString(EnvRedisPassword),
		RedisDB:            v.GetInt(EnvRedisDB),
		LogLevel:           v.GetString(EnvLogLevel),
		LogFormat:          v.GetString(EnvLogFormat),
		AuthRateLimit:      v.GetFloat64(EnvAuthRateLimit),
		AuthRateBurst:      v.GetInt(EnvAuthRateBurst),
		DatabaseURL:        v.GetString(EnvDatabaseURL),
		TrustedProxies:     splitList(v.GetString(EnvTrustedProxies)),
	}, nil
}

// splitList parses a comma separated value, dropping blanks.
func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// DatabaseURL reads only the migration connection string, so schema
// commands do not need the web configuration.
func DatabaseURL() string {
	return newViper().GetString(EnvDatabaseURL)
}

// CallbackURL is the redirect target embedded in confirmation and recovery emails.
func (c *Config) CallbackURL() string {
	return c.SiteURL + CallbackPath
}

// SecureCookies reports whether the site is served over TLS.
func (c *Config) SecureCookies() bool {
	return strings.HasPrefix(c.SiteURL, "https://")
}

// RedisSettings is the subset of configuration the event consumers need.
type RedisSettings struct {
	Addr     string
	Password string
	DB       int
}

// LoadRedis reads only the Redis keys, after merging any of envFiles that exist.
func LoadRedis(envFiles ...string) (RedisSettings, error) {
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return RedisSettings{}, fmt.Errorf("load %s: %w", f, err)
		}
	}
	v := newViper()
	settings := RedisSettings{
		Addr:     v.GetString(EnvRedisAddr),
		Password: v.GetString(EnvRedisPassword),
		DB:       v.GetInt(EnvRedisDB),
	}
	if settings.Addr == "" {
		return settings, &MissingError{Keys: []string{EnvRedisAddr}}
	}
	return settings, nil
}
