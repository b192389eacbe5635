package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/guillermoBallester/dataprofiler/internal/core/domain"
	"github.com/guillermoBallester/dataprofiler/internal/core/port"
)

// TableFailure is a table the run could not finish.
type TableFailure struct {
	Table string `json:"table"`
	Stage string `json:"stage"`
	Error string `json:"error"`
	Err   error  `json:"-"`
}

// RunResult collects the outcome of profiling a batch of tables.
type RunResult struct {
	RunID    string                 `json:"run_id"`
	Profiles []*domain.TableProfile `json:"profiles"`
	Skipped  []string               `json:"skipped,omitempty"`
	Failures []TableFailure         `json:"failures,omitempty"`
}

// ProfilerService sequences column discovery, statistics and storage per
// table. Tables are processed one at a time on the same source.
type ProfilerService struct {
	source   port.Source
	profiler port.TableProfiler
	sink     port.MetricsSink
	journal  port.RunJournal
	logger   *slog.Logger
	tracer   trace.Tracer
	inst     port.Instrumentation
	dbSystem string
	// canonical maps user-typed names to catalog names.
	canonical func(string) string
}

func NewProfilerService(source port.Source, profiler port.TableProfiler, sink port.MetricsSink, journal port.RunJournal, logger *slog.Logger, tracer trace.Tracer, inst port.Instrumentation) *ProfilerService {
	if sink == nil {
		sink = port.NoopSink{}
	}
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("noop")
	}
	if inst == nil {
		inst = port.NoopInstrumentation{}
	}
	if journal == nil {
		journal = port.NoopJournal{}
	}
	s := &ProfilerService{
		source:    source,
		profiler:  profiler,
		sink:      sink,
		journal:   journal,
		logger:    logger,
		tracer:    tracer,
		inst:      inst,
		canonical: func(name string) string { return name },
	}
	if e, ok := source.(port.Engine); ok {
		caps := e.Capabilities()
		s.dbSystem = string(caps.Type)
		s.canonical = caps.CanonicalIdentifier
	}
	return s
}

// ProfileTables profiles tables in order, or every table of the target
// schema when tables is empty. Table-level failures are collected in the
// result; only failing to list tables is returned as an error. Table and
// schema names are folded to their catalog form first, so the profile,
// the stored records and the result all carry the catalog names.
func (s *ProfilerService) ProfileTables(ctx context.Context, target domain.Target, tables []string) (*RunResult, error) {
	target.SchemaName = s.canonical(target.SchemaName)
	if len(tables) == 0 {
		listed, err := s.source.ListTables(ctx, target.SchemaName)
		if err != nil {
			return nil, fmt.Errorf("listing tables: %w", err)
		}
		tables = listed
	}

	res := &RunResult{RunID: uuid.NewString()}
	for _, table := range tables {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		table = s.canonical(table)
		profile, stage, err := s.profileOne(ctx, res.RunID, target, table)
		switch {
		case errors.Is(err, domain.ErrTableExcluded):
			res.Skipped = append(res.Skipped, table)
		case err != nil:
			res.Failures = append(res.Failures, TableFailure{Table: table, Stage: stage, Error: err.Error(), Err: err})
		}
		if profile != nil {
			res.Profiles = append(res.Profiles, profile)
		}
	}
	return res, nil
}

// profileOne returns the profile even when only storing it failed.
func (s *ProfilerService) profileOne(ctx context.Context, runID string, target domain.Target, table string) (*domain.TableProfile, string, error) {
	ctx, span := s.tracer.Start(ctx, "ProfilerService.ProfileTable",
		trace.WithAttributes(
			attribute.String("db.system", s.dbSystem),
			attribute.String("db.namespace", target.SchemaName),
			attribute.String("db.collection.name", table),
		),
	)
	defer span.End()

	start := time.Now()
	profile, stage, err := s.run(ctx, target, table)
	durationMS := time.Since(start).Milliseconds()

	entry := port.RunEntry{RunID: runID, Operation: "profile", Table: table, DurationMS: durationMS, Err: err}
	if profile != nil {
		entry.Columns = len(profile.Columns)
		entry.Warnings = len(profile.Warnings)
		span.SetAttributes(
			attribute.Int64("dataprofiler.row_count", profile.RowCount),
			attribute.Int("dataprofiler.warnings", len(profile.Warnings)),
		)
		s.inst.AddColumnWarnings(ctx, len(profile.Warnings))
	}
	s.journal.Record(ctx, entry)
	s.inst.RecordTableDuration(ctx, "profile", float64(durationMS))

	if errors.Is(err, domain.ErrTableExcluded) {
		s.logger.InfoContext(ctx, "table skipped by policy", slog.String("table", table))
		return nil, stage, err
	}
	s.inst.IncrementTablesProfiled(ctx, err != nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.ErrorContext(ctx, "profiling table failed",
			slog.String("table", table),
			slog.String("stage", stage),
			slog.String("error", err.Error()),
		)
		return profile, stage, err
	}

	s.logger.InfoContext(ctx, "table profiled",
		slog.String("table", table),
		slog.Int64("row_count", profile.RowCount),
		slog.Int("columns", len(profile.Columns)),
		slog.Int("warnings", len(profile.Warnings)),
		slog.Int64("duration_ms", durationMS),
	)
	return profile, "", nil
}

func (s *ProfilerService) run(ctx context.Context, target domain.Target, table string) (*domain.TableProfile, string, error) {
	columns, err := s.source.ListColumns(ctx, target.SchemaName, table)
	if err != nil {
		if !domain.IsTableNotFound(err) {
			err = &domain.ConnectionError{Op: "listing columns of " + table, Err: err}
		}
		return nil, "columns", err
	}
	if len(columns) == 0 {
		return nil, "columns", &domain.TableNotFoundError{Schema: target.SchemaName, Table: table}
	}

	profile, err := s.profiler.ProfileTable(ctx, target.SchemaName, table, columns)
	if err != nil {
		return nil, "statistics", err
	}

	if err := s.sink.WriteProfile(ctx, target, profile); err != nil {
		return profile, "store", fmt.Errorf("storing profile: %w", err)
	}
	return profile, "", nil
}
