// Package audit keeps an append-only journal of profiling runs.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/guillermoBallester/dataprofiler/internal/core/port"
)

// line is one NDJSON record.
type line struct {
	Timestamp  string  `json:"ts"`
	RunID      string  `json:"run_id"`
	Operation  string  `json:"operation"`
	Table      string  `json:"table"`
	Columns    int     `json:"columns,omitempty"`
	Warnings   int     `json:"warnings,omitempty"`
	DurationMS int64   `json:"duration_ms"`
	Error      *string `json:"error"`
}

// FileJournal appends one JSON object per run entry to a file.
type FileJournal struct {
	mu   sync.Mutex
	file *os.File
	enc  *json.Encoder
	now  func() time.Time
}

var _ port.RunJournal = (*FileJournal)(nil)

// NewFileJournal opens (or creates) path for appending.
func NewFileJournal(path string) (*FileJournal, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening run journal: %w", err)
	}
	return &FileJournal{file: f, enc: json.NewEncoder(f), now: time.Now}, nil
}

func (j *FileJournal) Record(_ context.Context, entry port.RunEntry) {
	l := line{
		Timestamp:  j.now().UTC().Format(time.RFC3339),
		RunID:      entry.RunID,
		Operation:  entry.Operation,
		Table:      entry.Table,
		Columns:    entry.Columns,
		Warnings:   entry.Warnings,
		DurationMS: entry.DurationMS,
	}
	if entry.Err != nil {
		s := entry.Err.Error()
		l.Error = &s
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	_ = j.enc.Encode(l) // journal I/O never fails a run
}

func (j *FileJournal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.file.Close()
}
