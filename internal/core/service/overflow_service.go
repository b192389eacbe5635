package service

import (
	"context"
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

// OverflowService detects auto-increment columns and forecasts their
// exhaustion from the growth history kept in the metrics store.
type OverflowService struct {
	engine       port.Engine
	sink         port.MetricsSink
	lookbackDays int
	journal      port.RunJournal
	logger       *slog.Logger
	tracer       trace.Tracer
	inst         port.Instrumentation
	now          func() time.Time
}

func NewOverflowService(engine port.Engine, sink port.MetricsSink, lookbackDays int, journal port.RunJournal, logger *slog.Logger, tracer trace.Tracer, inst port.Instrumentation) *OverflowService {
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
	if lookbackDays <= 0 {
		lookbackDays = domain.DefaultLookbackDays
	}
	return &OverflowService{
		engine:       engine,
		sink:         sink,
		lookbackDays: lookbackDays,
		journal:      journal,
		logger:       logger,
		tracer:       tracer,
		inst:         inst,
		now:          time.Now,
	}
}

// CheckTables forecasts every auto-increment column of tables (all tables
// of the target schema when empty). A table whose detection fails is
// logged and skipped.
func (s *OverflowService) CheckTables(ctx context.Context, target domain.Target, tables []string) ([]domain.OverflowForecast, error) {
	if len(tables) == 0 {
		listed, err := s.engine.ListTables(ctx, target.SchemaName)
		if err != nil {
			return nil, fmt.Errorf("listing tables: %w", err)
		}
		tables = listed
	}

	runID := uuid.NewString()
	var out []domain.OverflowForecast
	for _, table := range tables {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		out = append(out, s.checkOne(ctx, runID, target, table)...)
	}
	return out, nil
}

func (s *OverflowService) checkOne(ctx context.Context, runID string, target domain.Target, table string) []domain.OverflowForecast {
	ctx, span := s.tracer.Start(ctx, "OverflowService.CheckTable",
		trace.WithAttributes(attribute.String("db.collection.name", table)),
	)
	defer span.End()
	start := time.Now()

	cols, err := s.engine.DetectAutoIncrement(ctx, target.SchemaName, table)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.ErrorContext(ctx, "auto-increment detection failed", slog.String("table", table), slog.String("error", err.Error()))
		s.journal.Record(ctx, port.RunEntry{RunID: runID, Operation: "overflow", Table: table, DurationMS: time.Since(start).Milliseconds(), Err: err})
		return nil
	}

	now := s.now().UTC()
	since := now.AddDate(0, 0, -s.lookbackDays)
	forecasts := make([]domain.OverflowForecast, 0, len(cols))
	for _, col := range cols {
		history, err := s.sink.GrowthHistory(ctx, target, col.TableName, col.ColumnName, since)
		if err != nil {
			s.logger.WarnContext(ctx, "reading growth history failed",
				slog.String("table", table),
				slog.String("column", col.ColumnName),
				slog.String("error", err.Error()),
			)
			history = nil
		}
		// The live value is the newest observation of an existing series.
		if len(history) > 0 {
			history = append(history, domain.GrowthSample{Timestamp: now, Value: col.CurrentValue})
		}

		f := domain.Forecast(col, history, now, s.lookbackDays)
		forecasts = append(forecasts, f)
		s.inst.IncrementOverflowAlert(ctx, string(f.AlertStatus))

		if f.AlertStatus != domain.AlertOK {
			s.logger.WarnContext(ctx, "auto-increment column at risk",
				slog.String("table", table),
				slog.String("column", col.ColumnName),
				slog.String("alert_status", string(f.AlertStatus)),
				slog.Float64("usage_percentage", f.UsagePercentage),
			)
		}
	}

	var storeErr error
	if len(forecasts) > 0 {
		if storeErr = s.sink.WriteOverflow(ctx, target, forecasts); storeErr != nil {
			s.logger.ErrorContext(ctx, "storing overflow metrics failed", slog.String("table", table), slog.String("error", storeErr.Error()))
		}
	}
	s.journal.Record(ctx, port.RunEntry{RunID: runID, Operation: "overflow", Table: table, Columns: len(forecasts), DurationMS: time.Since(start).Milliseconds(), Err: storeErr})
	s.inst.RecordTableDuration(ctx, "overflow", float64(time.Since(start).Milliseconds()))
	return forecasts
}
