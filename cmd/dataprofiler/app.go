package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/guillermoBallester/dataprofiler/internal/adapter/clickhouse"
	"github.com/guillermoBallester/dataprofiler/internal/adapter/policy"
	"github.com/guillermoBallester/dataprofiler/internal/adapter/postgres"
	"github.com/guillermoBallester/dataprofiler/internal/adapter/registry"
	"github.com/guillermoBallester/dataprofiler/internal/audit"
	"github.com/guillermoBallester/dataprofiler/internal/config"
	"github.com/guillermoBallester/dataprofiler/internal/core/domain"
	"github.com/guillermoBallester/dataprofiler/internal/core/port"
	"github.com/guillermoBallester/dataprofiler/internal/telemetry"
)

// app is the wired set of adapters one command runs against.
type app struct {
	cfg       *config.Config
	logger    *slog.Logger
	telemetry *telemetry.Provider
	engine    port.Engine
	validator port.QueryValidator
	sink      port.MetricsSink
	journal   port.RunJournal
	policy    *policy.Policy
	closers   []func() error
}

type appOptions struct {
	source bool
	sink   bool
}

func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts appOptions) (_ *app, err error) {
	a := &app{cfg: cfg, logger: logger, sink: port.NoopSink{}, journal: port.NoopJournal{}}
	defer func() {
		if err != nil {
			a.close(ctx)
		}
	}()

	a.telemetry, err = telemetry.Setup(ctx, cfg.OTel.Enabled, cfg.OTel.ServiceName, version)
	if err != nil {
		return nil, fmt.Errorf("setting up telemetry: %w", err)
	}

	if cfg.PolicyFile != "" {
		if a.policy, err = policy.LoadFromFile(cfg.PolicyFile); err != nil {
			return nil, fmt.Errorf("loading policy: %w", err)
		}
		logger.InfoContext(ctx, "policy loaded", slog.String("file", cfg.PolicyFile))
	}

	if cfg.JournalFile != "" {
		j, err := audit.NewFileJournal(cfg.JournalFile)
		if err != nil {
			return nil, err
		}
		a.journal = j
		a.closers = append(a.closers, j.Close)
	}

	if opts.source {
		if err := cfg.RequireSource(); err != nil {
			return nil, err
		}
		a.engine, a.validator, err = registry.Default().Open(ctx, cfg.Source.Type, cfg.Source.URL,
			port.EngineOptions{QueryTimeout: cfg.Source.QueryTimeout}, logger)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, a.engine.Close)
	}

	if opts.sink {
		sink, err := openSink(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		a.sink = sink
		a.closers = append(a.closers, sink.Close)
	}
	return a, nil
}

// openSink connects the configured metrics backend and brings its tables
// up to date.
func openSink(ctx context.Context, cfg *config.Config, logger *slog.Logger) (port.MetricsSink, error) {
	var sink port.MetricsSink
	switch cfg.Metrics.Backend {
	case config.BackendClickHouse:
		s, err := clickhouse.Open(ctx, clickhouse.Options{
			Addr:     cfg.Metrics.ClickHouseAddr,
			Database: cfg.Metrics.ClickHouseDatabase,
			Username: cfg.Metrics.ClickHouseUser,
			Password: cfg.Metrics.ClickHousePassword,
		}, logger)
		if err != nil {
			return nil, err
		}
		sink = s
	case config.BackendPostgres:
		s, err := postgres.OpenMetricsStore(ctx, cfg.Metrics.PostgresURL, logger)
		if err != nil {
			return nil, err
		}
		sink = s
	default:
		return port.NoopSink{}, nil
	}

	if err := sink.Migrate(ctx); err != nil {
		_ = sink.Close()
		return nil, fmt.Errorf("migrating metrics store: %w", err)
	}
	logger.InfoContext(ctx, "metrics store ready", slog.String("backend", cfg.Metrics.Backend))
	return sink, nil
}

// target is the record identity of the configured source.
func (a *app) target() domain.Target {
	return a.cfg.Target(a.engine.Target())
}

// close releases everything newApp opened, in reverse order. It runs after
// cancellation too, so telemetry flushes on a detached context.
func (a *app) close(ctx context.Context) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	if a.telemetry != nil {
		errs = append(errs, a.telemetry.Shutdown(ctx))
	}
	if err := errors.Join(errs...); err != nil {
		a.logger.WarnContext(ctx, "shutdown incomplete", slog.String("error", err.Error()))
	}
}

// openOutput returns the file at path, or fallback when path is empty.
func openOutput(path string, fallback io.Writer) (io.Writer, func() error, error) {
	if path == "" {
		return fallback, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("creating output file: %w", err)
	}
	return f, f.Close, nil
}
