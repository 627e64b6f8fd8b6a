// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables (optionally layered over a YAML
// file) with sensible defaults and validates all settings on startup to fail fast
// on misconfiguration.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Ingest     IngestConfig     `yaml:"ingest"`
	Batch      BatchConfig      `yaml:"batch"`
	Classifier ClassifierConfig `yaml:"classifier"`
	History    HistoryConfig    `yaml:"history"`
	Rate       RateLimitConfig  `yaml:"rate"`
	Security   SecurityConfig   `yaml:"security"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `yaml:"host" env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8000)
	Port int `yaml:"port" env:"SERVER_PORT" envAlt:"PORT" default:"8000"`

	// ReadTimeout is the maximum duration for reading request body (default: 30s)
	ReadTimeout time.Duration `yaml:"read_timeout" env:"SERVER_READ_TIMEOUT" default:"30s"`

	// WriteTimeout is the maximum duration for writing the response (default: 0, bounded by RequestTimeout)
	WriteTimeout time.Duration `yaml:"write_timeout" env:"SERVER_WRITE_TIMEOUT" default:"0s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `yaml:"idle_timeout" env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 5m)
	RequestTimeout time.Duration `yaml:"request_timeout" env:"SERVER_REQUEST_TIMEOUT" default:"5m"`
}

// IngestConfig holds review document ingestion settings.
type IngestConfig struct {
	// MaxDocumentSize is the raw byte cap checked before parsing (default: 10 MiB)
	MaxDocumentSize int64 `yaml:"max_document_size" env:"INGEST_MAX_DOCUMENT_SIZE" default:"10485760"`

	// MaxConcurrent is the maximum number of documents analyzed in parallel (default: 5)
	MaxConcurrent int `yaml:"max_concurrent" env:"INGEST_MAX_CONCURRENT" default:"5"`

	// MaxWaitTime is how long to wait for an analysis slot (default: 30s)
	MaxWaitTime time.Duration `yaml:"max_wait_time" env:"INGEST_MAX_WAIT_TIME" default:"30s"`

	// Timeout bounds a single document analysis, classification included (default: 5m)
	Timeout time.Duration `yaml:"timeout" env:"INGEST_TIMEOUT" default:"5m"`
}

// BatchConfig holds limits for the direct batch entry point.
type BatchConfig struct {
	// MaxItems is the largest accepted batch (default: 100)
	MaxItems int `yaml:"max_items" env:"BATCH_MAX_ITEMS" default:"100"`

	// MaxTextLength is the longest accepted text in characters, after trimming (default: 512)
	MaxTextLength int `yaml:"max_text_length" env:"BATCH_MAX_TEXT_LENGTH" default:"512"`
}

// ClassifierConfig selects and tunes the sentiment classifier backend.
type ClassifierConfig struct {
	// Backend is "mock" or "remote" (default: mock)
	Backend string `yaml:"backend" env:"CLASSIFIER_BACKEND" default:"mock"`

	// ModelName is reported by model-info and sent to remote backends
	ModelName string `yaml:"model_name" env:"CLASSIFIER_MODEL_NAME" envAlt:"MODEL_NAME" default:"cardiffnlp/twitter-xlm-roberta-base-sentiment"`

	// Endpoint is the base URL of the remote inference service
	Endpoint string `yaml:"endpoint" env:"CLASSIFIER_ENDPOINT"`

	// APIKey is sent as a bearer token to the remote inference service
	APIKey string `yaml:"api_key" env:"CLASSIFIER_API_KEY"`

	// MaxTextLength truncates inference input in characters (default: 512)
	MaxTextLength int `yaml:"max_text_length" env:"CLASSIFIER_MAX_TEXT_LENGTH" envAlt:"MAX_TEXT_LENGTH" default:"512"`

	// MaxConcurrency bounds in-flight classification calls per batch (default: 8)
	MaxConcurrency int `yaml:"max_concurrency" env:"CLASSIFIER_MAX_CONCURRENCY" default:"8"`

	// CallTimeout bounds one classification call; a timeout degrades that item (default: 10s)
	CallTimeout time.Duration `yaml:"call_timeout" env:"CLASSIFIER_CALL_TIMEOUT" default:"10s"`

	// LoadTimeout bounds model loading at startup (default: 2m)
	LoadTimeout time.Duration `yaml:"load_timeout" env:"CLASSIFIER_LOAD_TIMEOUT" default:"2m"`

	// MockSeed seeds the mock backend; 0 picks a time-based seed
	MockSeed int64 `yaml:"mock_seed" env:"CLASSIFIER_MOCK_SEED" default:"0"`

	// MockLoadDelay makes the mock backend take this long to load (default: 0s)
	MockLoadDelay time.Duration `yaml:"mock_load_delay" env:"CLASSIFIER_MOCK_LOAD_DELAY" default:"0s"`
}

// HistoryConfig holds analysis history persistence settings.
type HistoryConfig struct {
	// URL selects the store: sqlite://path, postgres://..., or "none" (default: sqlite://reviewsense.db)
	URL string `yaml:"url" env:"HISTORY_URL" envAlt:"DATABASE_URL" default:"sqlite://reviewsense.db"`

	// ListLimit caps how many analyses the history listing returns (default: 50)
	ListLimit int `yaml:"list_limit" env:"HISTORY_LIST_LIMIT" default:"50"`

	// MaxConns is the maximum Postgres pool size (default: 10)
	MaxConns int `yaml:"max_conns" env:"HISTORY_MAX_CONNS" default:"10"`

	// MinConns is the minimum Postgres pool size (default: 1)
	MinConns int `yaml:"min_conns" env:"HISTORY_MIN_CONNS" default:"1"`

	// MaxConnLifetime is the maximum lifetime of a pooled connection (default: 1h)
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime" env:"HISTORY_MAX_CONN_LIFETIME" default:"1h"`
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `yaml:"enabled" env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 100)
	RequestsPerMinute int `yaml:"requests_per_minute" env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`

	// UploadLimit is requests per minute for the file upload endpoint (default: 10)
	UploadLimit int `yaml:"upload_limit" env:"RATE_LIMIT_UPLOAD" default:"10"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `yaml:"trusted_proxies" env:"TRUSTED_PROXIES"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `yaml:"enable_csp" env:"SECURITY_ENABLE_CSP" default:"true"`

	// RequireAPIKey rejects /api requests without a valid X-API-Key (default: false)
	RequireAPIKey bool `yaml:"require_api_key" env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted API keys
	APIKeys []string `yaml:"api_keys" env:"API_KEYS"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `yaml:"level" env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `yaml:"format" env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
