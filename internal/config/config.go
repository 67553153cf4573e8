package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures the runtime configuration for the application.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Logging  LoggingConfig
	Auth     AuthConfig
	CMS      CMSConfig
	Cache    CacheConfig
	Mail     MailConfig
}

// ServerConfig configures the HTTP server runtime behavior.
type ServerConfig struct {
	Addr    string
	BaseURL string
}

// DatabaseConfig contains the database connection settings.
type DatabaseConfig struct {
	URL             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	UseMock         bool
}

// LoggingConfig selects the minimum log level.
type LoggingConfig struct {
	Level string
}

// AuthConfig groups account and session settings.
type AuthConfig struct {
	Session          SessionConfig
	PasswordResetTTL time.Duration
}

// SessionConfig controls the session cookie.
type SessionConfig struct {
	Lifetime     time.Duration
	CookieName   string
	CookieDomain string
	CookieSecure bool
}

// CMSConfig points the service at the headless CMS.
type CMSConfig struct {
	BaseURL       string
	Timeout       time.Duration
	SigningSecret string
	TokenTTL      time.Duration
}

// CacheConfig controls caching of CMS reads. An empty RedisAddr selects the
// in-process cache, which holds at most MaxEntries responses; a zero TTL
// disables caching.
type CacheConfig struct {
	TTL        time.Duration
	MaxEntries int
	RedisAddr  string
	RedisDB    int
	Prefix     string
}

// MailConfig selects how password reset emails are delivered. An empty
// SendGridAPIKey writes messages to the log instead.
type MailConfig struct {
	SendGridAPIKey  string
	SendGridBaseURL string
	FromEmail       string
	FromName        string
}

// Load inspects the environment and builds a Config value.
func Load() (Config, error) {
	cfg := Config{}

	cfg.Server = ServerConfig{
		Addr: firstNonEmpty(
			os.Getenv("SERVER_ADDR"),
			os.Getenv("ADDR"),
			":8080",
		),
		BaseURL: strings.TrimRight(firstNonEmpty(os.Getenv("PUBLIC_BASE_URL"), "http://localhost:8080"), "/"),
	}

	cfg.Database = DatabaseConfig{
		URL: firstNonEmpty(
			os.Getenv("DATABASE_URL"),
			os.Getenv("DB_URL"),
			"",
		),
		MaxIdleConns:    parseIntWithDefault(os.Getenv("DATABASE_MAX_IDLE_CONNS"), 5),
		MaxOpenConns:    parseIntWithDefault(os.Getenv("DATABASE_MAX_OPEN_CONNS"), 20),
		ConnMaxLifetime: parseDurationWithDefault(os.Getenv("DATABASE_CONN_MAX_LIFETIME"), 30*time.Minute),
		ConnMaxIdleTime: parseDurationWithDefault(os.Getenv("DATABASE_CONN_MAX_IDLE_TIME"), 5*time.Minute),
		UseMock:         parseBoolWithDefault(os.Getenv("DATABASE_USE_MOCK"), false),
	}

	cfg.Logging = LoggingConfig{
		Level: firstNonEmpty(os.Getenv("LOG_LEVEL"), "info"),
	}

	cfg.Auth = AuthConfig{
		Session: SessionConfig{
			Lifetime:     parseDurationWithDefault(os.Getenv("SESSION_LIFETIME"), 12*time.Hour),
			CookieName:   firstNonEmpty(os.Getenv("SESSION_COOKIE_NAME"), "herbarium_session"),
			CookieDomain: strings.TrimSpace(os.Getenv("SESSION_COOKIE_DOMAIN")),
			CookieSecure: parseBoolWithDefault(os.Getenv("SESSION_COOKIE_SECURE"), true),
		},
		PasswordResetTTL: parseDurationWithDefault(os.Getenv("PASSWORD_RESET_TTL"), time.Hour),
	}

	cfg.CMS = CMSConfig{
		BaseURL:       strings.TrimRight(firstNonEmpty(os.Getenv("CMS_BASE_URL"), "http://localhost:8888"), "/"),
		Timeout:       parseDurationWithDefault(os.Getenv("CMS_TIMEOUT"), 10*time.Second),
		SigningSecret: os.Getenv("CMS_SIGNING_SECRET"),
		TokenTTL:      parseDurationWithDefault(os.Getenv("CMS_TOKEN_TTL"), 5*time.Minute),
	}

	cfg.Cache = CacheConfig{
		TTL:        parseDurationWithDefault(os.Getenv("CACHE_TTL"), 2*time.Minute),
		MaxEntries: parseIntWithDefault(os.Getenv("CACHE_MAX_ENTRIES"), 1024),
		RedisAddr:  strings.TrimSpace(os.Getenv("REDIS_ADDR")),
		RedisDB:    parseIntWithDefault(os.Getenv("REDIS_DB"), 0),
		Prefix:     firstNonEmpty(os.Getenv("CACHE_PREFIX"), "herbarium:cms:"),
	}

	cfg.Mail = MailConfig{
		SendGridAPIKey:  strings.TrimSpace(os.Getenv("SENDGRID_API_KEY")),
		SendGridBaseURL: strings.TrimSpace(os.Getenv("SENDGRID_BASE_URL")),
		FromEmail:       firstNonEmpty(os.Getenv("MAIL_FROM_EMAIL"), "noreply@herbarium.local"),
		FromName:        firstNonEmpty(os.Getenv("MAIL_FROM_NAME"), "Herbarium"),
	}

	if strings.TrimSpace(cfg.Server.Addr) == "" {
		return Config{}, fmt.Errorf("server address must not be empty")
	}
	if cfg.Database.URL == "" && !cfg.Database.UseMock {
		return Config{}, fmt.Errorf("database URL must be set unless DATABASE_USE_MOCK is enabled")
	}

	return cfg, nil
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}

func parseIntWithDefault(value string, def int) int {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return def
	}
	parsed, err := strconv.Atoi(trimmed)
	if err != nil {
		return def
	}
	return parsed
}

func parseDurationWithDefault(value string, def time.Duration) time.Duration {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return def
	}
	parsed, err := time.ParseDuration(trimmed)
	if err != nil {
		return def
	}
	return parsed
}

func parseBoolWithDefault(value string, def bool) bool {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return def
	}
	parsed, err := strconv.ParseBool(trimmed)
	if err != nil {
		return def
	}
	return parsed
}
