// Package config provides centralized configuration management for shoplist.
// Settings come from environment variables (optionally seeded from a .env
// file by the entry points) and are validated on startup.
package config

import (
	"strconv"
	"time"
)

// Store drivers understood by storage.Open.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Store    StoreConfig
	Catalog  CatalogConfig
	Users    UsersConfig
	Static   StaticConfig
	Export   ExportConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8000)
	Port int `env:"SERVER_PORT" envAlt:"PORT" default:"8000"`

	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"30s"`
	IdleTimeout     time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"15s"`

	// RequestTimeout is the middleware timeout for requests (default: 30s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"30s"`

	// MaxUploadSize caps catalog and list uploads in bytes (default: 5MB)
	MaxUploadSize int64 `env:"SERVER_MAX_UPLOAD_SIZE" default:"5242880"`
}

// StoreConfig selects and configures the snapshot store.
type StoreConfig struct {
	// Driver is one of memory, sqlite, postgres, redis (default: sqlite)
	Driver string `env:"STORE_DRIVER" default:"sqlite"`

	// DSN is the sqlite file path or the PostgreSQL connection string.
	// DATABASE_URL is accepted for compatibility with hosted Postgres.
	DSN string `env:"STORE_DSN" envAlt:"DATABASE_URL" default:"shoplist.db"`

	RedisAddr     string `env:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" default:"0"`

	// KeyPrefix namespaces keys in shared backends (redis).
	KeyPrefix string `env:"STORE_KEY_PREFIX" default:"shoplist:"`

	// Timeout bounds a single store round trip (default: 5s)
	Timeout time.Duration `env:"STORE_TIMEOUT" default:"5s"`

	MaxConns int `env:"STORE_MAX_CONNS" default:"4"`
}

// CatalogConfig holds catalog import settings.
type CatalogConfig struct {
	// Delimiter separates fields in imported catalog rows (default: ;)
	Delimiter string `env:"CATALOG_DELIMITER" default:";"`

	// DefaultAisle replaces empty aisle labels (default: Unassigned)
	DefaultAisle string `env:"CATALOG_DEFAULT_AISLE" default:"Unassigned"`

	// Locale drives name collation when sorting (default: es)
	Locale string `env:"CATALOG_LOCALE" default:"es"`
}

// UsersConfig holds user registry settings.
type UsersConfig struct {
	// MaxUsers limits registered (non-admin) users (default: 5)
	MaxUsers int `env:"USERS_MAX" default:"5"`

	// AdminUsers lists identities granted every capability (default: admin)
	AdminUsers []string `env:"ADMIN_USERS" default:"admin"`
}

// StaticConfig holds asset delivery settings.
type StaticConfig struct {
	// Dir is served at / when set; the embedded assets are used otherwise.
	Dir string `env:"STATIC_DIR"`
}

// ExportConfig holds document export settings.
type ExportConfig struct {
	Title           string `env:"EXPORT_TITLE" default:"Lista de Compras"`
	ProductsPerPage int    `env:"EXPORT_PRODUCTS_PER_PAGE" default:"50"`
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	Enabled           bool `env:"RATE_LIMIT_ENABLED" default:"true"`
	RequestsPerMinute int  `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"120"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// AllowedOrigins enables CORS for the listed origins
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS"`

	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

// DelimiterRune returns the configured delimiter, or ';' when unset.
func (c *CatalogConfig) DelimiterRune() rune {
	for _, r := range c.Delimiter {
		return r
	}
	return ';'
}

// IsAdmin reports whether name is configured as an administrator.
func (c *UsersConfig) IsAdmin(name string) bool {
	for _, a := range c.AdminUsers {
		if equalFold(a, name) {
			return true
		}
	}
	return false
}
