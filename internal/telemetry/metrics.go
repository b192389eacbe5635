package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/guillermoBallester/dataprofiler/internal/core/port"
)

// Instruments implements port.Instrumentation on OTel metric instruments.
type Instruments struct {
	TablesProfiled metric.Int64Counter
	TableDuration  metric.Float64Histogram
	ColumnWarnings metric.Int64Counter
	OverflowAlerts metric.Int64Counter
	DriftChanges   metric.Int64Counter
}

var _ port.Instrumentation = (*Instruments)(nil)

// NoopInstruments returns instruments that record nothing.
func NoopInstruments() *Instruments {
	return newInstrumentsFromMeter(noop.NewMeterProvider().Meter(instrumentationName))
}

func newInstrumentsFromMeter(meter metric.Meter) *Instruments {
	// The SDK hands back no-op instruments on error.
	profiled, _ := meter.Int64Counter("dataprofiler.table.profiled",
		metric.WithDescription("Tables profiled, by outcome"),
	)
	duration, _ := meter.Float64Histogram("dataprofiler.table.duration",
		metric.WithDescription("Time spent on one table, by operation"),
		metric.WithUnit("ms"),
	)
	warnings, _ := meter.Int64Counter("dataprofiler.column.warnings",
		metric.WithDescription("Column statistics that could not be computed"),
	)
	alerts, _ := meter.Int64Counter("dataprofiler.overflow.alerts",
		metric.WithDescription("Overflow forecasts, by alert status"),
	)
	drift, _ := meter.Int64Counter("dataprofiler.drift.changes",
		metric.WithDescription("Schema changes found by compare runs"),
	)

	return &Instruments{
		TablesProfiled: profiled,
		TableDuration:  duration,
		ColumnWarnings: warnings,
		OverflowAlerts: alerts,
		DriftChanges:   drift,
	}
}

func (i *Instruments) RecordTableDuration(ctx context.Context, operation string, ms float64) {
	i.TableDuration.Record(ctx, ms, metric.WithAttributes(attribute.String("operation", operation)))
}

func (i *Instruments) IncrementTablesProfiled(ctx context.Context, failed bool) {
	i.TablesProfiled.Add(ctx, 1, metric.WithAttributes(attribute.Bool("failed", failed)))
}

func (i *Instruments) AddColumnWarnings(ctx context.Context, n int) {
	if n > 0 {
		i.ColumnWarnings.Add(ctx, int64(n))
	}
}

func (i *Instruments) IncrementOverflowAlert(ctx context.Context, status string) {
	i.OverflowAlerts.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}

func (i *Instruments) AddDriftChanges(ctx context.Context, n int) {
	if n > 0 {
		i.DriftChanges.Add(ctx, int64(n))
	}
}
