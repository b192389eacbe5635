package port

import (
	"context"
	"time"

	"github.com/guillermoBallester/dataprofiler/internal/core/domain"
)

// MetricsSink persists profiling results and serves the growth history the
// overflow predictor regresses over.
type MetricsSink interface {
	Migrate(ctx context.Context) error
	WriteProfile(ctx context.Context, target domain.Target, profile *domain.TableProfile) error
	WriteOverflow(ctx context.Context, target domain.Target, forecasts []domain.OverflowForecast) error
	WriteSchema(ctx context.Context, target domain.Target, schema *domain.TableSchema) error
	// GrowthHistory returns past current-value observations for one column
	// taken at or after since, oldest first.
	GrowthHistory(ctx context.Context, target domain.Target, table, column string, since time.Time) ([]domain.GrowthSample, error)
	Close() error
}

// NoopSink stores nothing and has no history.
type NoopSink struct{}

func (NoopSink) Migrate(context.Context) error { return nil }
func (NoopSink) WriteProfile(context.Context, domain.Target, *domain.TableProfile) error {
	return nil
}
func (NoopSink) WriteOverflow(context.Context, domain.Target, []domain.OverflowForecast) error {
	return nil
}
func (NoopSink) WriteSchema(context.Context, domain.Target, *domain.TableSchema) error { return nil }
func (NoopSink) GrowthHistory(context.Context, domain.Target, string, string, time.Time) ([]domain.GrowthSample, error) {
	return nil, nil
}
func (NoopSink) Close() error { return nil }
