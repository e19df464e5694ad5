package config

import (
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
)

// Validate checks the configuration for consistency. It assumes defaults
// have already been applied.
func Validate(cfg *Config) error {
	switch cfg.Ethics.Environment {
	case "production", "development":
	default:
		return fmt.Errorf("ethics.environment must be \"production\" or \"development\", got %q", cfg.Ethics.Environment)
	}

	switch cfg.Audit.Backend {
	case "memory":
	case "sqlite":
		if strings.TrimSpace(cfg.Audit.SQLite.Path) == "" {
			return fmt.Errorf("audit.sqlite.path is required for the sqlite backend")
		}
	default:
		return fmt.Errorf("audit.backend must be \"memory\" or \"sqlite\", got %q", cfg.Audit.Backend)
	}

	if cfg.Audit.Retention.Days < 0 {
		return fmt.Errorf("audit.retention.days cannot be negative, got %d", cfg.Audit.Retention.Days)
	}
	if cfg.Audit.Retention.Days > 0 {
		if _, err := cron.ParseStandard(cfg.Audit.Retention.Schedule); err != nil {
			return fmt.Errorf("invalid audit.retention.schedule %q: %w", cfg.Audit.Retention.Schedule, err)
		}
	}

	if strings.TrimSpace(cfg.Server.ListenAddress) == "" {
		return fmt.Errorf("server.listen_address cannot be empty")
	}

	switch cfg.Telemetry.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid telemetry.logging.level %q", cfg.Telemetry.Logging.Level)
	}
	switch cfg.Telemetry.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("invalid telemetry.logging.format %q", cfg.Telemetry.Logging.Format)
	}

	if cfg.Telemetry.Metrics.Enabled && !strings.HasPrefix(cfg.Telemetry.Metrics.Path, "/") {
		return fmt.Errorf("telemetry.metrics.path must start with \"/\", got %q", cfg.Telemetry.Metrics.Path)
	}

	return nil
}
