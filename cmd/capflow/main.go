// Command capflow runs the capital-flow pipeline once: it reads the raw
// source files, derives the indicator panels and writes figures, CSV tables,
// an xlsx workbook and, when configured, a SQLite database.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"capflow/internal/config"
	"capflow/internal/infrastructure"
	"capflow/internal/operations"
	"capflow/internal/store"
	"capflow/internal/store/sqlite"
	"capflow/pkg/contracts"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			slog.Error("capflow failed", "error", err)
		}
		stop()
		os.Exit(1)
	}
}

// run parses args, wires the pipeline and executes it once.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	flags := flag.NewFlagSet("capflow", flag.ContinueOnError)
	flags.SetOutput(stderr)
	configPath := flags.String("config", "", "YAML config file (defaults to capflow.yaml, config.yaml or configs/capflow.yaml)")
	dataDir := flags.String("data", "", "directory holding the raw source files (overrides paths.data_dir)")
	outDir := flags.String("out", "", "directory receiving tables and figures (overrides paths.output_dir)")
	showVersion := flags.Bool("version", false, "print version information and exit")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if *showVersion {
		fmt.Fprintln(stdout, contracts.GetFullVersionString())
		return nil
	}
	if flags.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %v", flags.Args())
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if err := overridePath(&cfg.Paths.DataDir, *dataDir); err != nil {
		return err
	}
	if err := overridePath(&cfg.Paths.OutputDir, *outDir); err != nil {
		return err
	}

	paths := cfg.GetPaths()
	if err := paths.EnsureDirectories(); err != nil {
		return err
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer infrastructure.CloseLogFile()
	paths.LogPathResolution(logger)

	providers, err := infrastructure.InitializeOTel(infrastructure.OTelConfigFrom(cfg.Telemetry), logger)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Telemetry shutdown failed", slog.String("error", err.Error()))
		}
	}()

	metrics, err := infrastructure.CreatePipelineMetrics(providers.Meter)
	if err != nil {
		return err
	}

	var db store.Store = &store.NopStore{}
	if paths.SQLiteFile != "" {
		sqliteStore, err := sqlite.New(paths.SQLiteFile)
		if err != nil {
			return err
		}
		defer sqliteStore.Close()
		db = sqliteStore
	}

	pipelineCfg, err := operations.ConfigFrom(cfg)
	if err != nil {
		return err
	}
	manager, err := operations.NewPipeline(pipelineCfg, operations.Dependencies{
		Paths:   paths,
		Logger:  logger,
		Metrics: metrics,
		Store:   db,
	})
	if err != nil {
		return err
	}

	resp, runErr := manager.Execute(ctx)
	if err := providers.WriteMetrics(); err != nil {
		logger.Warn("Failed to write metrics snapshot", slog.String("error", err.Error()))
	}
	if runErr != nil {
		return runErr
	}

	logger.Info("Pipeline finished",
		slog.String("run_id", resp.ID),
		slog.Int("artifacts", len(resp.Artifacts)),
		slog.Duration("duration", resp.Duration))
	return nil
}

// overridePath replaces *dst with an absolute form of flagValue when the flag was given.
func overridePath(dst *string, flagValue string) error {
	if flagValue == "" {
		return nil
	}
	abs, err := filepath.Abs(flagValue)
	if err != nil {
		return fmt.Errorf("invalid path %q: %w", flagValue, err)
	}
	*dst = abs
	return nil
}
