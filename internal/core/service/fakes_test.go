package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/guillermoBallester/dataprofiler/internal/core/domain"
	"github.com/guillermoBallester/dataprofiler/internal/core/port"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- fake source ---

// fakeRow scans a fixed value list into *int64, **string and **float64.
type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) != len(r.values) {
		return fmt.Errorf("scan: %d destinations for %d values", len(dest), len(r.values))
	}
	for i, d := range dest {
		v := r.values[i]
		switch d := d.(type) {
		case *int64:
			*d = v.(int64)
		case **string:
			if v == nil {
				*d = nil
				continue
			}
			s := v.(string)
			*d = &s
		case **float64:
			if v == nil {
				*d = nil
				continue
			}
			f := v.(float64)
			*d = &f
		default:
			return fmt.Errorf("scan: unsupported destination %T", d)
		}
	}
	return nil
}

type fakeRule struct {
	contains string
	row      fakeRow
}

// fakeSource answers QueryRow by the first rule whose fragment is in the SQL.
type fakeSource struct {
	mu      sync.Mutex
	rules   []fakeRule
	queries []string
	tables  []string
	columns map[string][]domain.ColumnMeta
	colErr  error
}

func (f *fakeSource) on(fragment string, values ...any) *fakeSource {
	f.rules = append(f.rules, fakeRule{contains: fragment, row: fakeRow{values: values}})
	return f
}

func (f *fakeSource) fail(fragment string, err error) *fakeSource {
	f.rules = append(f.rules, fakeRule{contains: fragment, row: fakeRow{err: err}})
	return f
}

func (f *fakeSource) QueryRow(_ context.Context, query string, _ ...any) port.Row {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, query)
	for _, r := range f.rules {
		if strings.Contains(query, r.contains) {
			return r.row
		}
	}
	return fakeRow{err: fmt.Errorf("no rule for %q", query)}
}

func (f *fakeSource) Query(context.Context, string, ...any) (port.Rows, error) {
	return nil, fmt.Errorf("not implemented")
}

func (f *fakeSource) ListTables(context.Context, string) ([]string, error) { return f.tables, nil }

func (f *fakeSource) ListColumns(_ context.Context, _, table string) ([]domain.ColumnMeta, error) {
	if f.colErr != nil {
		return nil, f.colErr
	}
	return f.columns[table], nil
}

func (f *fakeSource) Close() error { return nil }

func (f *fakeSource) executed(fragment string) bool {
	for _, q := range f.queries {
		if strings.Contains(q, fragment) {
			return true
		}
	}
	return false
}

// --- fake engine ---

type fakeEngine struct {
	*fakeSource
	caps      domain.Capabilities
	schemas   map[string]*domain.TableSchema
	schemaErr map[string]error
	autoInc   map[string][]domain.AutoIncrementColumn
	detectErr error
}

func (e *fakeEngine) Capabilities() domain.Capabilities { return e.caps }
func (e *fakeEngine) Target() domain.Target             { return domain.Target{DatabaseHost: "fake"} }

func (e *fakeEngine) ExtractSchema(_ context.Context, schema, table string) (*domain.TableSchema, error) {
	if err := e.schemaErr[table]; err != nil {
		return nil, err
	}
	s, ok := e.schemas[table]
	if !ok {
		return nil, &domain.TableNotFoundError{Schema: schema, Table: table}
	}
	return s, nil
}

func (e *fakeEngine) DetectAutoIncrement(_ context.Context, _, table string) ([]domain.AutoIncrementColumn, error) {
	if e.detectErr != nil {
		return nil, e.detectErr
	}
	return e.autoInc[table], nil
}

// --- recording sink and journal ---

type recordingSink struct {
	port.NoopSink
	profiles  []*domain.TableProfile
	overflows []domain.OverflowForecast
	schemas   []*domain.TableSchema
	history   []domain.GrowthSample
	since     time.Time
	writeErr  error
}

func (s *recordingSink) WriteProfile(_ context.Context, _ domain.Target, p *domain.TableProfile) error {
	if s.writeErr != nil {
		return s.writeErr
	}
	s.profiles = append(s.profiles, p)
	return nil
}

func (s *recordingSink) WriteOverflow(_ context.Context, _ domain.Target, f []domain.OverflowForecast) error {
	s.overflows = append(s.overflows, f...)
	return s.writeErr
}

func (s *recordingSink) WriteSchema(_ context.Context, _ domain.Target, schema *domain.TableSchema) error {
	s.schemas = append(s.schemas, schema)
	return nil
}

func (s *recordingSink) GrowthHistory(_ context.Context, _ domain.Target, _, _ string, since time.Time) ([]domain.GrowthSample, error) {
	s.since = since
	return s.history, nil
}

type recordingJournal struct {
	entries []port.RunEntry
}

func (j *recordingJournal) Record(_ context.Context, e port.RunEntry) {
	j.entries = append(j.entries, e)
}
func (j *recordingJournal) Close() error { return nil }
