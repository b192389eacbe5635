package port

import (
	"context"
	"log/slog"
	"time"

	"github.com/guillermoBallester/dataprofiler/internal/core/domain"
)

// Row is a single-row result. Both pgx.Row and *sql.Row satisfy it.
type Row interface {
	Scan(dest ...any) error
}

// Rows is a multi-row result cursor.
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
}

// Source is the connectivity collaborator for one source database. Calls
// are issued sequentially; implementations need not be safe for concurrent
// use of a single statement stream.
type Source interface {
	ListTables(ctx context.Context, schema string) ([]string, error)
	ListColumns(ctx context.Context, schema, table string) ([]domain.ColumnMeta, error)
	QueryRow(ctx context.Context, query string, args ...any) Row
	Query(ctx context.Context, query string, args ...any) (Rows, error)
	Close() error
}

// Engine is a Source plus the dialect-specific knowledge the core needs.
// One implementation exists per database type and is selected at startup.
type Engine interface {
	Source
	Capabilities() domain.Capabilities
	// Target describes the connected host and database for stored records.
	Target() domain.Target
	ExtractSchema(ctx context.Context, schema, table string) (*domain.TableSchema, error)
	DetectAutoIncrement(ctx context.Context, schema, table string) ([]domain.AutoIncrementColumn, error)
}

// EngineOptions are connection settings shared by every engine.
type EngineOptions struct {
	// QueryTimeout bounds each statement server-side where the driver allows it.
	QueryTimeout time.Duration
}

// EngineFactory opens an Engine from a driver-specific connection URL.
type EngineFactory func(ctx context.Context, url string, opts EngineOptions, logger *slog.Logger) (Engine, error)
