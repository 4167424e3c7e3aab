// Package config loads the cleaning service configuration from environment
// variables, applying defaults and validating everything on startup.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Store    StoreConfig
	Input    InputConfig
	Output   OutputConfig
	Session  SessionConfig
	Jobs     JobConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
	Presets  PresetsConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`
	Port int    `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout bounds reading a request, uploads included.
	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" default:"60s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"120s"`
	IdleTimeout     time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`
	RequestTimeout  time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"120s"`
}

// StoreConfig selects where export settings and saved configurations live.
type StoreConfig struct {
	// Backend is one of memory, sqlite, postgres, redis (default: memory)
	Backend string `env:"SETTINGS_STORE" default:"memory"`

	SQLitePath  string `env:"SQLITE_PATH" default:"data/hoover.db"`
	PostgresURL string `env:"DATABASE_URL" envAlt:"DB_URL"`
	RedisURL    string `env:"REDIS_URL"`

	ConnectTimeout time.Duration `env:"STORE_CONNECT_TIMEOUT" default:"10s"`
	RetryAttempts  int           `env:"STORE_RETRY_ATTEMPTS" default:"3"`
	RetryInterval  time.Duration `env:"STORE_RETRY_INTERVAL" default:"2s"`
}

// InputConfig bounds uploaded files.
type InputConfig struct {
	// MaxFileSize is the largest accepted input, as bytes or a size like 50MB
	MaxFileSize int64 `env:"INPUT_MAX_FILE_SIZE" envAlt:"UPLOAD_MAX_FILE_SIZE" default:"100MB" unit:"bytes"`
}

// OutputConfig chooses where stored exports go. A bucket selects S3,
// otherwise files are written under Dir.
type OutputConfig struct {
	Dir string `env:"OUTPUT_DIR" default:"cleaned"`

	S3Bucket         string        `env:"S3_BUCKET"`
	S3Region         string        `env:"S3_REGION" envAlt:"AWS_REGION"`
	S3Prefix         string        `env:"S3_PREFIX"`
	S3Endpoint       string        `env:"S3_ENDPOINT"`
	S3AccessKeyID    string        `env:"S3_ACCESS_KEY_ID"`
	S3SecretKey      string        `env:"S3_SECRET_KEY"`
	S3ForcePathStyle bool          `env:"S3_FORCE_PATH_STYLE" default:"false"`
	S3UploadTimeout  time.Duration `env:"S3_UPLOAD_TIMEOUT" default:"60s"`
}

// UseS3 reports whether exports go to a bucket.
func (c *OutputConfig) UseS3() bool {
	return c.S3Bucket != ""
}

// SessionConfig controls cleaning sessions and their history.
type SessionConfig struct {
	TTL           time.Duration `env:"SESSION_TTL" default:"30m"`
	HistoryLimit  int           `env:"HISTORY_LIMIT" default:"50"`
	SweepInterval time.Duration `env:"SESSION_SWEEP_INTERVAL" default:"1m"`
}

// JobConfig bounds concurrent cleaning work.
type JobConfig struct {
	MaxConcurrent int           `env:"JOBS_MAX_CONCURRENT" default:"4"`
	MaxWaitTime   time.Duration `env:"JOBS_MAX_WAIT_TIME" default:"30s"`
	Timeout       time.Duration `env:"JOB_TIMEOUT" default:"10m"`
}

// RateLimitConfig holds per-IP request limits.
type RateLimitConfig struct {
	Enabled           bool `env:"RATE_LIMIT_ENABLED" default:"true"`
	RequestsPerMinute int  `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`

	// CleanLimit is requests per minute for clean and batch endpoints.
	CleanLimit int `env:"RATE_LIMIT_CLEAN" default:"10"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of proxy CIDRs whose
	// X-Real-IP and X-Forwarded-For headers are believed.
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	RequireAPIKey bool     `env:"REQUIRE_API_KEY" default:"false"`
	APIKeys       []string `env:"API_KEYS"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// PresetsConfig points at an optional YAML file of extra presets.
type PresetsConfig struct {
	File string `env:"PRESETS_FILE"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
