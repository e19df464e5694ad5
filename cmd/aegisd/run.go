package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/PMeeske/ouroboros-foundation-sub003/pkg/config"
	"github.com/PMeeske/ouroboros-foundation-sub003/pkg/ethics/audit"
	"github.com/PMeeske/ouroboros-foundation-sub003/pkg/ethics/engine"
	"github.com/PMeeske/ouroboros-foundation-sub003/pkg/ethics/reasoner"
	"github.com/PMeeske/ouroboros-foundation-sub003/pkg/server"
	"github.com/PMeeske/ouroboros-foundation-sub003/pkg/telemetry/logging"
	"github.com/PMeeske/ouroboros-foundation-sub003/pkg/telemetry/metrics"
)

var runFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the Aegis evaluation server",
	Long: `Start the Aegis evaluation server with the specified configuration.

The server exposes the evaluation API, records every decision in the audit
log, and serves Prometheus metrics.

Examples:
  # Start with default config
  aegisd run

  # Start with custom config
  aegisd run --config /etc/aegis/config.yaml

  # Override listen address
  aegisd run --listen 0.0.0.0:8080

  # Validate config without starting the server
  aegisd run --dry-run`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting the server")
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if runFlags.listenAddress != "" {
		cfg.Server.ListenAddress = runFlags.listenAddress
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}

	logger, err := logging.New(logging.Config{
		Level:     cfg.Telemetry.Logging.Level,
		Format:    cfg.Telemetry.Logging.Format,
		AddSource: cfg.Telemetry.Logging.AddSource,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}

	if runFlags.dryRun {
		fmt.Println("✓ Configuration valid")
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Metrics
	var registry *prometheus.Registry
	var ethicsMetrics *metrics.EthicsMetrics
	if cfg.Telemetry.Metrics.Enabled {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		ethicsMetrics = metrics.NewEthicsMetrics(&metrics.Config{
			Namespace: cfg.Telemetry.Metrics.Namespace,
			Subsystem: "ethics",
		}, registry)
	}

	// Reasoner, optionally loaded from a pattern file with hot reload.
	var patterns *reasoner.PatternSet
	var patternSource *reasoner.FileSource
	if cfg.Ethics.PatternsFile != "" {
		patternSource = reasoner.NewFileSource(cfg.Ethics.PatternsFile, logger)
		patterns, err = patternSource.Load()
		if err != nil {
			return fmt.Errorf("failed to load pattern file: %w", err)
		}
	}
	keywordReasoner, err := reasoner.NewKeywordReasoner(patterns, logger)
	if err != nil {
		return fmt.Errorf("failed to create reasoner: %w", err)
	}

	if cfg.Ethics.WatchPatterns && patternSource != nil {
		watcher, err := reasoner.NewWatcher(patternSource, keywordReasoner, nil, logger)
		if err != nil {
			return fmt.Errorf("failed to create pattern watcher: %w", err)
		}
		go func() {
			if err := watcher.Watch(ctx); err != nil {
				logger.Error("pattern watcher stopped", "error", err)
			}
		}()
		defer watcher.Stop()
		fmt.Printf("✓ Watching pattern file %s\n", cfg.Ethics.PatternsFile)
	}

	// Audit store
	var store audit.Store
	switch cfg.Audit.Backend {
	case "sqlite":
		store, err = audit.NewSQLiteStoreWithConfig(audit.SQLiteConfig{
			DBPath:      cfg.Audit.SQLite.Path,
			BusyTimeout: cfg.Audit.SQLite.BusyTimeout,
		})
		if err != nil {
			return fmt.Errorf("failed to open audit store: %w", err)
		}
	case "memory":
		store = audit.NewMemoryStore()
	default:
		return fmt.Errorf("unsupported audit backend: %s", cfg.Audit.Backend)
	}
	defer store.Close()

	auditLog := audit.NewLog(store, &audit.Config{WriteTimeout: cfg.Audit.WriteTimeout}, logger)
	fmt.Printf("✓ Audit log initialized (%s)\n", store.Backend())

	// Retention
	if cfg.Audit.Retention.Days > 0 {
		pruner := audit.NewPruner(store, &audit.RetentionConfig{
			RetentionDays: cfg.Audit.Retention.Days,
			PruneSchedule: cfg.Audit.Retention.Schedule,
		}, logger)
		scheduler := audit.NewScheduler(pruner)
		if err := scheduler.Start(ctx); err != nil {
			return fmt.Errorf("failed to start retention scheduler: %w", err)
		}
		defer scheduler.Stop()
		fmt.Printf("✓ Audit retention enabled (%d days)\n", cfg.Audit.Retention.Days)
	}

	// Engine
	eng, err := engine.New(keywordReasoner, auditLog, ethicsMetrics, logger)
	if err != nil {
		return fmt.Errorf("failed to create evaluation engine: %w", err)
	}

	// Server
	srv, err := server.NewServer(&cfg.Server, eng, auditLog, cfg.Ethics.Environment, server.Options{
		Registry:    registry,
		MetricsPath: cfg.Telemetry.Metrics.Path,
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	fmt.Printf("✓ Server listening on %s (environment: %s)\n", cfg.Server.ListenAddress, cfg.Ethics.Environment)
	fmt.Println("\nPress Ctrl+C to stop")

	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}

	fmt.Println("✓ Server stopped")
	return nil
}

// loadConfig loads the configuration file with AEGIS_* environment
// overrides. A missing file at the default path falls back to defaults.
func loadConfig() (*config.Config, error) {
	if _, err := os.Stat(cfgFile); os.IsNotExist(err) {
		if cfgFile != "config.yaml" {
			return nil, fmt.Errorf("config file not found: %s", cfgFile)
		}
		cfg := config.DefaultConfig()
		if err := config.Validate(cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	return config.LoadConfigWithEnvOverrides(cfgFile)
}
