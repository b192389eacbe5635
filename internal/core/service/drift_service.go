package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/guillermoBallester/dataprofiler/internal/core/domain"
	"github.com/guillermoBallester/dataprofiler/internal/core/port"
)

// Environment is one side of a drift comparison.
type Environment struct {
	Name   string
	Engine port.Engine
	Target domain.Target
}

// TableDrift is the comparison of one table across two environments.
// Error is set when either snapshot could not be extracted.
type TableDrift struct {
	Table   string                `json:"table"`
	Before  *domain.TableSchema   `json:"before,omitempty"`
	After   *domain.TableSchema   `json:"after,omitempty"`
	Diff    domain.SchemaDiff     `json:"diff"`
	Columns []domain.ColumnStatus `json:"columns"`
	Error   string                `json:"error,omitempty"`
}

// DriftService extracts snapshots from two environments and diffs them.
type DriftService struct {
	comparator  domain.Comparator
	strictFor   func(table string) (bool, bool)
	sink        port.MetricsSink
	storeSchema bool
	journal     port.RunJournal
	logger      *slog.Logger
	tracer      trace.Tracer
	inst        port.Instrumentation
}

func NewDriftService(comparator domain.Comparator, sink port.MetricsSink, storeSchema bool, journal port.RunJournal, logger *slog.Logger, tracer trace.Tracer, inst port.Instrumentation) *DriftService {
	if sink == nil {
		sink = port.NoopSink{}
	}
	if journal == nil {
		journal = port.NoopJournal{}
	}
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("noop")
	}
	if inst == nil {
		inst = port.NoopInstrumentation{}
	}
	return &DriftService{
		comparator:  comparator,
		sink:        sink,
		storeSchema: storeSchema,
		journal:     journal,
		logger:      logger,
		tracer:      tracer,
		inst:        inst,
	}
}

// WithStrictness installs a per-table override of the comparator mode.
// fn reports (strict, ok); ok=false keeps the default.
func (s *DriftService) WithStrictness(fn func(table string) (bool, bool)) *DriftService {
	s.strictFor = fn
	return s
}

// CompareTables diffs tables between before and after. With no tables
// given, the union of both environments' tables is compared.
func (s *DriftService) CompareTables(ctx context.Context, before, after Environment, tables []string) ([]TableDrift, error) {
	if len(tables) == 0 {
		var err error
		if tables, err = unionTables(ctx, before, after); err != nil {
			return nil, err
		}
	}

	runID := uuid.NewString()
	out := make([]TableDrift, 0, len(tables))
	for _, table := range tables {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		out = append(out, s.compareOne(ctx, runID, before, after, table))
	}
	return out, nil
}

func (s *DriftService) compareOne(ctx context.Context, runID string, before, after Environment, table string) TableDrift {
	ctx, span := s.tracer.Start(ctx, "DriftService.CompareTable",
		trace.WithAttributes(
			attribute.String("db.collection.name", table),
			attribute.String("dataprofiler.before", before.Name),
			attribute.String("dataprofiler.after", after.Name),
		),
	)
	defer span.End()
	start := time.Now()

	drift := TableDrift{Table: table}
	b, errB := s.snapshot(ctx, before, table)
	a, errA := s.snapshot(ctx, after, table)
	if err := firstErr(errB, errA); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.ErrorContext(ctx, "schema extraction failed", slog.String("table", table), slog.String("error", err.Error()))
		drift.Error = err.Error()
		s.journal.Record(ctx, port.RunEntry{RunID: runID, Operation: "compare", Table: table, DurationMS: time.Since(start).Milliseconds(), Err: err})
		return drift
	}

	cmp := s.comparator
	if s.strictFor != nil {
		if strict, ok := s.strictFor(table); ok {
			cmp.Strict = strict
		}
	}

	drift.Before, drift.After = b, a
	drift.Diff = cmp.Compare(b, a)
	drift.Columns = domain.ColumnStatuses(b, a, drift.Diff)

	changes := drift.Diff.ChangeCount()
	s.inst.AddDriftChanges(ctx, changes)
	span.SetAttributes(attribute.Int("dataprofiler.changes", changes))
	s.journal.Record(ctx, port.RunEntry{RunID: runID, Operation: "compare", Table: table, Columns: len(drift.Columns), DurationMS: time.Since(start).Milliseconds()})
	s.inst.RecordTableDuration(ctx, "compare", float64(time.Since(start).Milliseconds()))

	if changes > 0 {
		s.logger.WarnContext(ctx, "schema drift detected",
			slog.String("table", table),
			slog.String("before", before.Name),
			slog.String("after", after.Name),
			slog.Int("changes", changes),
		)
	}
	return drift
}

// snapshot extracts one side. A missing table is a nil schema, not an error.
func (s *DriftService) snapshot(ctx context.Context, env Environment, table string) (*domain.TableSchema, error) {
	schema, err := env.Engine.ExtractSchema(ctx, env.Target.SchemaName, table)
	if domain.IsTableNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", env.Name, err)
	}
	if s.storeSchema {
		if err := s.sink.WriteSchema(ctx, env.Target, schema); err != nil {
			s.logger.WarnContext(ctx, "storing schema snapshot failed",
				slog.String("table", table),
				slog.String("environment", env.Name),
				slog.String("error", err.Error()),
			)
		}
	}
	return schema, nil
}

func unionTables(ctx context.Context, before, after Environment) ([]string, error) {
	seen := make(map[string]bool)
	for _, env := range []Environment{before, after} {
		tables, err := env.Engine.ListTables(ctx, env.Target.SchemaName)
		if err != nil {
			return nil, fmt.Errorf("listing tables in %s: %w", env.Name, err)
		}
		for _, t := range tables {
			seen[t] = true
		}
	}
	out := make([]string, 0, len(seen))
	for t := range seen {
		out = append(out, t)
	}
	sort.Strings(out)
	return out, nil
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
