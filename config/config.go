package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	_ "github.com/joho/godotenv/autoload"
)

// Session store kinds
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreSQLite = "sqlite"
)

// Config holds all application configuration
type Config struct {
	APIURL       string
	ListenAddr   string
	Session      *SessionConfig
	HTTP         *HTTPConfig
	PageSize     int
	LogFormat    string
	DebugEnabled bool
}

// SessionConfig holds session persistence configuration
type SessionConfig struct {
	Store      string
	Path       string
	CookieName string

	// CookieSecure marks the admin API session cookie Secure (HTTPS only)
	CookieSecure bool
}

// HTTPConfig holds backend client and admin API configuration
type HTTPConfig struct {
	RequestTimeout time.Duration
	RateLimitRPS   float64
	CORSOrigins    []string
}

// LoadConfig loads configuration from environment variables
// .env file is automatically loaded via autoload import
func LoadConfig() *Config {
	sessionConfig := &SessionConfig{
		Store:      strings.ToLower(getEnvWithDefault("BACKOFFICE_SESSION_STORE", StoreFile)),
		Path:       getEnvWithDefault("BACKOFFICE_SESSION_PATH", "./state/session.json"),
		CookieName: getEnvWithDefault("BACKOFFICE_SESSION_COOKIE", "token"),

		CookieSecure: getBoolEnvWithDefault("BACKOFFICE_COOKIE_SECURE", false),
	}

	httpConfig := &HTTPConfig{
		RequestTimeout: getDurationEnvWithDefault("BACKOFFICE_REQUEST_TIMEOUT", 30*time.Second),
		RateLimitRPS:   getFloatEnvWithDefault("BACKOFFICE_RATE_LIMIT_RPS", 0),
		CORSOrigins:    splitList(getEnvWithDefault("BACKOFFICE_CORS_ORIGINS", "")),
	}

	return &Config{
		APIURL:       getEnvWithDefault("BACKOFFICE_API_URL", "http://localhost:8080"),
		ListenAddr:   getEnvWithDefault("BACKOFFICE_LISTEN_ADDR", "127.0.0.1:8081"),
		Session:      sessionConfig,
		HTTP:         httpConfig,
		PageSize:     getIntEnvWithDefault("BACKOFFICE_PAGE_SIZE", 10),
		LogFormat:    strings.ToLower(getEnvWithDefault("BACKOFFICE_LOG_FORMAT", "text")),
		DebugEnabled: getBoolEnvWithDefault("DEBUG", false),
	}
}

// Validate checks the configuration for values the application cannot start with
func (c *Config) Validate() error {
	var errs []error

	u, err := url.Parse(c.APIURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("BACKOFFICE_API_URL %q is not an absolute URL", c.APIURL))
	}

	switch c.Session.Store {
	case StoreMemory:
	case StoreFile, StoreSQLite:
		if c.Session.Path == "" {
			errs = append(errs, fmt.Errorf("BACKOFFICE_SESSION_PATH is required for the %s store", c.Session.Store))
		}
	default:
		errs = append(errs, fmt.Errorf("BACKOFFICE_SESSION_STORE %q is not one of memory, file, sqlite", c.Session.Store))
	}

	if c.HTTP.RequestTimeout <= 0 {
		errs = append(errs, fmt.Errorf("BACKOFFICE_REQUEST_TIMEOUT must be positive, got %s", c.HTTP.RequestTimeout))
	}
	if c.HTTP.RateLimitRPS < 0 {
		errs = append(errs, fmt.Errorf("BACKOFFICE_RATE_LIMIT_RPS must not be negative, got %g", c.HTTP.RateLimitRPS))
	}
	for _, origin := range c.HTTP.CORSOrigins {
		if strings.Contains(origin, "*") {
			errs = append(errs, fmt.Errorf("BACKOFFICE_CORS_ORIGINS must list exact origins, got %q", origin))
			continue
		}
		if u, err := url.Parse(origin); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("BACKOFFICE_CORS_ORIGINS entry %q is not an origin", origin))
		}
	}
	if c.PageSize < 1 {
		errs = append(errs, fmt.Errorf("BACKOFFICE_PAGE_SIZE must be positive, got %d", c.PageSize))
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		errs = append(errs, fmt.Errorf("BACKOFFICE_LOG_FORMAT %q is not one of text, json", c.LogFormat))
	}

	return errors.Join(errs...)
}

// getEnvWithDefault gets an environment variable with a default fallback
func getEnvWithDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

// getBoolEnvWithDefault gets a boolean environment variable with a default fallback
func getBoolEnvWithDefault(key string, defaultValue bool) bool {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
		slog.Warn("invalid boolean value, using default", "key", key, "value", value, "default", defaultValue)
	}
	return defaultValue
}

// getIntEnvWithDefault gets an integer environment variable with a default fallback
func getIntEnvWithDefault(key string, defaultValue int) int {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
		slog.Warn("invalid integer value, using default", "key", key, "value", value, "default", defaultValue)
	}
	return defaultValue
}

// getFloatEnvWithDefault gets a float environment variable with a default fallback
func getFloatEnvWithDefault(key string, defaultValue float64) float64 {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
		slog.Warn("invalid number value, using default", "key", key, "value", value, "default", defaultValue)
	}
	return defaultValue
}

// getDurationEnvWithDefault gets a duration environment variable with a default fallback
func getDurationEnvWithDefault(key string, defaultValue time.Duration) time.Duration {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
		slog.Warn("invalid duration value, using default", "key", key, "value", value, "default", defaultValue)
	}
	return defaultValue
}

func splitList(s string) []string {
	var items []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			items = append(items, part)
		}
	}
	return items
}
