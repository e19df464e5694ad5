package config

import "time"

// Config is the root configuration for the clearance engine.
type Config struct {
	// Ethics configures the evaluation engine and pattern reasoner.
	Ethics EthicsConfig `yaml:"ethics"`

	// Audit configures the audit log backend and retention.
	Audit AuditConfig `yaml:"audit"`

	// Server configures the HTTP evaluation API.
	Server ServerConfig `yaml:"server"`

	// Telemetry configures logging and metrics.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// EthicsConfig configures the evaluation engine and its reasoner.
type EthicsConfig struct {
	// Environment tags evaluation contexts created by the server
	// ("production", "development").
	Environment string `yaml:"environment"`

	// PatternsFile is an optional YAML file with keyword pattern sets.
	// When empty the built-in defaults are used.
	PatternsFile string `yaml:"patterns_file"`

	// WatchPatterns reloads the patterns file on change.
	WatchPatterns bool `yaml:"watch_patterns"`
}

// AuditConfig configures the audit log.
type AuditConfig struct {
	// Backend selects the store backend ("memory", "sqlite").
	Backend string `yaml:"backend"`

	// SQLite configures the sqlite backend.
	SQLite SQLiteConfig `yaml:"sqlite"`

	// WriteTimeout bounds a single audit append.
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// Retention configures pruning of old entries.
	Retention RetentionConfig `yaml:"retention"`
}

// SQLiteConfig configures the sqlite audit backend.
type SQLiteConfig struct {
	// Path is the database file path.
	Path string `yaml:"path"`

	// BusyTimeout is the sqlite busy timeout.
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// RetentionConfig configures audit retention pruning.
type RetentionConfig struct {
	// Days is how many days of entries to keep. Zero disables pruning.
	Days int `yaml:"days"`

	// Schedule is the cron expression for the pruning job.
	Schedule string `yaml:"schedule"`
}

// ServerConfig configures the HTTP evaluation API.
type ServerConfig struct {
	// ListenAddress is the bind address (e.g. ":8080").
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading a request.
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration for writing a response.
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the keep-alive idle timeout.
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// TelemetryConfig configures logging and metrics.
type TelemetryConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	// Level is the minimum log level ("debug", "info", "warn", "error").
	Level string `yaml:"level"`

	// Format is the output format ("json", "text").
	Format string `yaml:"format"`

	// AddSource includes file and line in log records.
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	// Enabled exposes the metrics endpoint.
	Enabled bool `yaml:"enabled"`

	// Path is the metrics endpoint path.
	Path string `yaml:"path"`

	// Namespace is the metric namespace.
	Namespace string `yaml:"namespace"`
}
