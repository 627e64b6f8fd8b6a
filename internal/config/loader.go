package config

import (
	"fmt"
	"net/url"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// FileEnv names the environment variable holding an optional YAML config file path.
const FileEnv = "REVIEWSENSE_CONFIG"

// Load reads configuration in three layers: struct tag defaults, the optional
// YAML file named by REVIEWSENSE_CONFIG, then environment variables.
// Returns an error if a value cannot be parsed or validation fails.
func Load() (*Config, error) {
	cfg := &Config{}
	v := reflect.ValueOf(cfg).Elem()

	if err := loadStruct(v, fromDefault); err != nil {
		return nil, fmt.Errorf("config defaults: %w", err)
	}

	if path := os.Getenv(FileEnv); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, fmt.Errorf("config file: %w", err)
		}
	}

	if err := loadStruct(v, fromEnv); err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration and panics on error.
// Use this only in main() where early termination is desired.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}

// loadFile overlays YAML values onto cfg. Keys absent from the file keep their defaults.
func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// valueSource returns the raw value for a field and a name used in error messages.
// An empty value means "not set" and leaves the field untouched.
type valueSource func(field reflect.StructField) (name, value string)

func fromDefault(field reflect.StructField) (string, string) {
	return "default for " + field.Name, field.Tag.Get("default")
}

func fromEnv(field reflect.StructField) (string, string) {
	envName := field.Tag.Get("env")
	if envName == "" {
		return "", ""
	}
	value := os.Getenv(envName)
	if value == "" {
		if alt := field.Tag.Get("envAlt"); alt != "" {
			value = os.Getenv(alt)
		}
	}
	return envName, value
}

// loadStruct recursively populates struct fields from src.
func loadStruct(v reflect.Value, src valueSource) error {
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fieldVal := v.Field(i)

		if !fieldVal.CanSet() {
			continue
		}

		if field.Type.Kind() == reflect.Struct && field.Type != reflect.TypeOf(time.Time{}) {
			if err := loadStruct(fieldVal, src); err != nil {
				return err
			}
			continue
		}

		name, value := src(field)
		if value == "" {
			continue
		}

		if err := setField(fieldVal, value); err != nil {
			return fmt.Errorf("invalid value for %s=%q: %w", name, value, err)
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
			field.Set(reflect.ValueOf(d))
		} else {
			i, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer: %w", err)
			}
			field.SetInt(i)
		}

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
			p = strings.TrimSpace(p)
			if p != "" {
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

	// Server validation
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("SERVER_PORT (%d) must be 1-65535", c.Server.Port))
	}
	if c.Server.ReadTimeout < 0 {
		errs = append(errs, "SERVER_READ_TIMEOUT must be non-negative")
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, "SERVER_SHUTDOWN_TIMEOUT must be positive")
	}
	if c.Server.RequestTimeout <= 0 {
		errs = append(errs, "SERVER_REQUEST_TIMEOUT must be positive")
	}

	// Ingest validation
	if c.Ingest.MaxDocumentSize <= 0 {
		errs = append(errs, "INGEST_MAX_DOCUMENT_SIZE must be positive")
	}
	if c.Ingest.MaxConcurrent <= 0 {
		errs = append(errs, "INGEST_MAX_CONCURRENT must be positive")
	}
	if c.Ingest.MaxWaitTime <= 0 {
		errs = append(errs, "INGEST_MAX_WAIT_TIME must be positive")
	}
	if c.Ingest.Timeout <= 0 {
		errs = append(errs, "INGEST_TIMEOUT must be positive")
	}

	// Batch validation
	if c.Batch.MaxItems <= 0 {
		errs = append(errs, "BATCH_MAX_ITEMS must be positive")
	}
	if c.Batch.MaxTextLength <= 0 {
		errs = append(errs, "BATCH_MAX_TEXT_LENGTH must be positive")
	}

	// Classifier validation
	switch strings.ToLower(c.Classifier.Backend) {
	case "mock":
	case "remote":
		if c.Classifier.Endpoint == "" {
			errs = append(errs, "CLASSIFIER_ENDPOINT is required when CLASSIFIER_BACKEND=remote")
		}
	default:
		errs = append(errs, fmt.Sprintf("CLASSIFIER_BACKEND (%q) must be one of: mock, remote", c.Classifier.Backend))
	}
	if c.Classifier.MaxTextLength <= 0 {
		errs = append(errs, "CLASSIFIER_MAX_TEXT_LENGTH must be positive")
	}
	if c.Classifier.MaxConcurrency <= 0 {
		errs = append(errs, "CLASSIFIER_MAX_CONCURRENCY must be positive")
	}
	if c.Classifier.CallTimeout <= 0 {
		errs = append(errs, "CLASSIFIER_CALL_TIMEOUT must be positive")
	}
	if c.Classifier.LoadTimeout <= 0 {
		errs = append(errs, "CLASSIFIER_LOAD_TIMEOUT must be positive")
	}

	// History validation
	if _, _, err := c.History.Driver(); err != nil {
		errs = append(errs, fmt.Sprintf("HISTORY_URL: %v", err))
	}
	if c.History.ListLimit <= 0 {
		errs = append(errs, "HISTORY_LIST_LIMIT must be positive")
	}
	if c.History.MaxConns < c.History.MinConns {
		errs = append(errs, fmt.Sprintf("HISTORY_MAX_CONNS (%d) must be >= HISTORY_MIN_CONNS (%d)", c.History.MaxConns, c.History.MinConns))
	}

	// Rate limit validation
	if c.Rate.Enabled && c.Rate.RequestsPerMinute <= 0 {
		errs = append(errs, "RATE_LIMIT_REQUESTS_PER_MINUTE must be positive when rate limiting is enabled")
	}
	if c.Rate.Enabled && c.Rate.UploadLimit <= 0 {
		errs = append(errs, "RATE_LIMIT_UPLOAD must be positive when rate limiting is enabled")
	}

	// Security validation
	if c.Security.RequireAPIKey && len(c.Security.APIKeys) == 0 {
		errs = append(errs, "REQUIRE_API_KEY is true but API_KEYS is empty; configure at least one API key or disable auth")
	}

	// Logging validation
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

// History drivers understood by Driver.
const (
	DriverNone     = "none"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Driver resolves the history URL into a driver name and a driver-specific DSN.
//
//	sqlite://reviewsense.db      -> ("sqlite", "reviewsense.db")
//	sqlite:///var/lib/rs.db      -> ("sqlite", "/var/lib/rs.db")
//	postgres://user@host/db      -> ("postgres", "postgres://user@host/db")
//	none or empty                -> ("none", "")
func (c HistoryConfig) Driver() (string, string, error) {
	raw := strings.TrimSpace(c.URL)
	if raw == "" || strings.EqualFold(raw, DriverNone) {
		return DriverNone, "", nil
	}

	scheme, rest, ok := strings.Cut(raw, "://")
	if !ok {
		return "", "", fmt.Errorf("%q has no scheme (want sqlite://, postgres:// or none)", raw)
	}

	switch strings.ToLower(scheme) {
	case "sqlite", "sqlite3":
		if rest == "" {
			return "", "", fmt.Errorf("sqlite URL %q has no path", raw)
		}
		return DriverSQLite, rest, nil
	case "postgres", "postgresql":
		return DriverPostgres, raw, nil
	default:
		return "", "", fmt.Errorf("unsupported scheme %q", scheme)
	}
}

// String returns a safe string representation of the config for logging.
// Credentials in the history URL and API keys are masked.
func (c *Config) String() string {
	var b strings.Builder
	b.WriteString("Config{")
	b.WriteString(fmt.Sprintf("Server: {Host: %q, Port: %d}, ", c.Server.Host, c.Server.Port))
	b.WriteString(fmt.Sprintf("Ingest: {MaxDocumentSize: %d, MaxConcurrent: %d}, ",
		c.Ingest.MaxDocumentSize, c.Ingest.MaxConcurrent))
	b.WriteString(fmt.Sprintf("Classifier: {Backend: %q, Model: %q, MaxConcurrency: %d, APIKey: %s}, ",
		c.Classifier.Backend, c.Classifier.ModelName, c.Classifier.MaxConcurrency, maskSecret(c.Classifier.APIKey)))
	b.WriteString(fmt.Sprintf("History: {URL: %s}, ", maskURL(c.History.URL)))
	b.WriteString(fmt.Sprintf("Rate: {Enabled: %v, RequestsPerMinute: %d}, ",
		c.Rate.Enabled, c.Rate.RequestsPerMinute))
	b.WriteString(fmt.Sprintf("Security: {RequireAPIKey: %v, APIKeys: %d}, ",
		c.Security.RequireAPIKey, len(c.Security.APIKeys)))
	b.WriteString(fmt.Sprintf("Logging: {Level: %q, Format: %q}",
		c.Logging.Level, c.Logging.Format))
	b.WriteString("}")
	return b.String()
}

func maskSecret(s string) string {
	if s == "" {
		return `""`
	}
	return "[MASKED]"
}

func maskURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return strconv.Quote(raw)
	}
	u.User = url.User("[MASKED]")
	return strconv.Quote(u.String())
}
