package port

import "context"

// Instrumentation records application-level metrics.
type Instrumentation interface {
	RecordTableDuration(ctx context.Context, operation string, ms float64)
	IncrementTablesProfiled(ctx context.Context, failed bool)
	AddColumnWarnings(ctx context.Context, n int)
	IncrementOverflowAlert(ctx context.Context, status string)
	AddDriftChanges(ctx context.Context, n int)
}

// NoopInstrumentation discards all metrics.
type NoopInstrumentation struct{}

func (NoopInstrumentation) RecordTableDuration(context.Context, string, float64) {}
func (NoopInstrumentation) IncrementTablesProfiled(context.Context, bool)        {}
func (NoopInstrumentation) AddColumnWarnings(context.Context, int)               {}
func (NoopInstrumentation) IncrementOverflowAlert(context.Context, string)       {}
func (NoopInstrumentation) AddDriftChanges(context.Context, int)                 {}
