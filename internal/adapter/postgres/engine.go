package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/guillermoBallester/dataprofiler/internal/core/domain"
	"github.com/guillermoBallester/dataprofiler/internal/core/port"
)

// Engine is the PostgreSQL implementation of port.Engine on a pgx pool.
type Engine struct {
	pool   *pgxpool.Pool
	caps   domain.Capabilities
	target domain.Target
	logger *slog.Logger
}

var _ port.Engine = (*Engine)(nil)

func NewEngine(pool *pgxpool.Pool, logger *slog.Logger) *Engine {
	cfg := pool.Config().ConnConfig
	caps := domain.MustCapabilities(domain.PostgreSQL)
	return &Engine{
		pool: pool,
		caps: caps,
		target: domain.Target{
			DatabaseHost: cfg.Host,
			DatabaseName: cfg.Database,
			SchemaName:   caps.DefaultSchema,
		},
		logger: logger,
	}
}

// Open connects to databaseURL and returns an Engine owning the pool.
func Open(ctx context.Context, databaseURL string, opts port.EngineOptions, logger *slog.Logger) (port.Engine, error) {
	pool, err := NewPool(ctx, databaseURL, opts.QueryTimeout)
	if err != nil {
		return nil, err
	}
	return NewEngine(pool, logger), nil
}

func (e *Engine) Capabilities() domain.Capabilities { return e.caps }
func (e *Engine) Target() domain.Target             { return e.target }

func (e *Engine) QueryRow(ctx context.Context, query string, args ...any) port.Row {
	return e.pool.QueryRow(ctx, query, args...)
}

func (e *Engine) Query(ctx context.Context, query string, args ...any) (port.Rows, error) {
	rows, err := e.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return pgxRows{rows}, nil
}

func (e *Engine) ListTables(ctx context.Context, schema string) ([]string, error) {
	rows, err := e.pool.Query(ctx, queryListTables, schemaOr(schema, e.caps.DefaultSchema))
	if err != nil {
		return nil, fmt.Errorf("listing tables: %w", err)
	}
	return collectStrings(rows)
}

func (e *Engine) ListColumns(ctx context.Context, schema, table string) ([]domain.ColumnMeta, error) {
	rows, err := e.pool.Query(ctx, queryListColumns, schemaOr(schema, e.caps.DefaultSchema), table)
	if err != nil {
		return nil, fmt.Errorf("listing columns: %w", err)
	}
	defer rows.Close()

	var cols []domain.ColumnMeta
	for rows.Next() {
		var c domain.ColumnMeta
		if err := rows.Scan(&c.Name, &c.DeclaredType, &c.Nullable, &c.Position); err != nil {
			return nil, fmt.Errorf("scanning column: %w", err)
		}
		cols = append(cols, c)
	}
	return cols, rows.Err()
}

func (e *Engine) Close() error {
	e.pool.Close()
	return nil
}
