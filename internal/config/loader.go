package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// Load reads configuration from environment variables.
// It applies defaults for unset values and validates the result.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := loadStruct(reflect.ValueOf(cfg).Elem()); err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration and panics on error.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}

// loadStruct recursively populates struct fields from environment variables.
func loadStruct(v reflect.Value) error {
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fieldVal := v.Field(i)

		if !fieldVal.CanSet() {
			continue
		}

		if field.Type.Kind() == reflect.Struct {
			if err := loadStruct(fieldVal); err != nil {
				return err
			}
			continue
		}

		envName := field.Tag.Get("env")
		if envName == "" {
			continue
		}

		value, ok := os.LookupEnv(envName)
		if !ok || value == "" {
			if alt := field.Tag.Get("envAlt"); alt != "" {
				value = os.Getenv(alt)
			}
		}

		if value == "" {
			if field.Tag.Get("required") == "true" {
				return fmt.Errorf("required environment variable %s is not set", envName)
			}
			value = field.Tag.Get("default")
		}

		if value == "" {
			continue
		}

		if err := setField(fieldVal, value); err != nil {
			return fmt.Errorf("invalid value for %s=%q: %w", envName, value, err)
		}
	}

	return nil
}

// setField sets a reflect.Value from a string based on its type.
func setField(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return fmt.Errorf("invalid duration: %w", err)
			}
			field.SetInt(int64(d))
			return nil
		}
		i, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid integer: %w", err)
		}
		field.SetInt(i)

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean: %w", err)
		}
		field.SetBool(b)

	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported slice type: %s", field.Type().Elem().Kind())
		}
		parts := strings.Split(value, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				result = append(result, p)
			}
		}
		field.Set(reflect.ValueOf(result))

	default:
		return fmt.Errorf("unsupported field type: %s", field.Kind())
	}

	return nil
}

// Validate checks that the configuration is valid.
// Returns an error describing all validation failures.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("SERVER_PORT (%d) must be 1-65535", c.Server.Port))
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, "SERVER_SHUTDOWN_TIMEOUT must be positive")
	}
	if c.Server.MaxUploadSize <= 0 {
		errs = append(errs, "SERVER_MAX_UPLOAD_SIZE must be positive")
	}

	switch strings.ToLower(c.Store.Driver) {
	case DriverMemory, DriverRedis:
	case DriverSQLite, DriverPostgres:
		if c.Store.DSN == "" {
			errs = append(errs, fmt.Sprintf("STORE_DSN is required for driver %q", c.Store.Driver))
		}
	default:
		errs = append(errs, fmt.Sprintf("STORE_DRIVER (%q) must be one of: memory, sqlite, postgres, redis", c.Store.Driver))
	}
	if c.Store.Timeout <= 0 {
		errs = append(errs, "STORE_TIMEOUT must be positive")
	}
	if c.Store.MaxConns <= 0 {
		errs = append(errs, "STORE_MAX_CONNS must be positive")
	}

	if utf8.RuneCountInString(c.Catalog.Delimiter) != 1 {
		errs = append(errs, fmt.Sprintf("CATALOG_DELIMITER (%q) must be a single character", c.Catalog.Delimiter))
	}
	if strings.TrimSpace(c.Catalog.DefaultAisle) == "" {
		errs = append(errs, "CATALOG_DEFAULT_AISLE must not be blank")
	}

	if c.Users.MaxUsers < 0 {
		errs = append(errs, "USERS_MAX must be non-negative")
	}
	if len(c.Users.AdminUsers) == 0 {
		errs = append(errs, "ADMIN_USERS must name at least one administrator")
	}

	if c.Export.ProductsPerPage <= 0 {
		errs = append(errs, "EXPORT_PRODUCTS_PER_PAGE must be positive")
	}

	if c.Rate.Enabled && c.Rate.RequestsPerMinute <= 0 {
		errs = append(errs, "RATE_LIMIT_REQUESTS_PER_MINUTE must be positive when rate limiting is enabled")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Sprintf("LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Logging.Level))
	}
	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		errs = append(errs, fmt.Sprintf("LOG_FORMAT (%q) must be one of: text, json", c.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// String returns a safe representation of the config for logging.
// The store DSN and redis password are masked.
func (c *Config) String() string {
	var b strings.Builder
	b.WriteString("Config{")
	fmt.Fprintf(&b, "Server: {Host: %q, Port: %d}, ", c.Server.Host, c.Server.Port)
	fmt.Fprintf(&b, "Store: {Driver: %q, DSN: [MASKED], RedisAddr: %q}, ", c.Store.Driver, c.Store.RedisAddr)
	fmt.Fprintf(&b, "Catalog: {Delimiter: %q, DefaultAisle: %q, Locale: %q}, ",
		c.Catalog.Delimiter, c.Catalog.DefaultAisle, c.Catalog.Locale)
	fmt.Fprintf(&b, "Users: {MaxUsers: %d, Admins: %d}, ", c.Users.MaxUsers, len(c.Users.AdminUsers))
	fmt.Fprintf(&b, "Logging: {Level: %q, Format: %q}", c.Logging.Level, c.Logging.Format)
	b.WriteString("}")
	return b.String()
}

func equalFold(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
