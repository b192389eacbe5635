package port

import "context"

// RunEntry is one journaled unit of work: a table profiled, compared or
// checked for overflow.
type RunEntry struct {
	RunID      string
	Operation  string
	Table      string
	Columns    int
	Warnings   int
	DurationMS int64
	Err        error
}

// RunJournal records run entries.
type RunJournal interface {
	Record(ctx context.Context, entry RunEntry)
	Close() error
}

// NoopJournal discards entries.
type NoopJournal struct{}

func (NoopJournal) Record(context.Context, RunEntry) {}
func (NoopJournal) Close() error                     { return nil }
