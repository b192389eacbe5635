// Package sqldb holds the database/sql plumbing shared by the MSSQL, MySQL
// and Oracle engines.
package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/guillermoBallester/dataprofiler/internal/core/domain"
	"github.com/guillermoBallester/dataprofiler/internal/core/port"
)

// Open opens driverName, bounds the pool and pings within 10s.
func Open(ctx context.Context, driverName, dsn string) (*sql.DB, error) {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening %s connection: %w", driverName, err)
	}
	db.SetMaxOpenConns(4)
	db.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging database (10s timeout): %w", err)
	}
	return db, nil
}

// Base implements the statement half of port.Source over *sql.DB. Engines
// embed it and add their catalog queries.
type Base struct {
	DB      *sql.DB
	Timeout time.Duration
}

// QueryRow runs query with the configured timeout. The timeout context is
// released once the row is scanned.
func (b *Base) QueryRow(ctx context.Context, query string, args ...any) port.Row {
	ctx, cancel := b.WithTimeout(ctx)
	return &timedRow{row: b.DB.QueryRowContext(ctx, query, args...), cancel: cancel}
}

func (b *Base) Query(ctx context.Context, query string, args ...any) (port.Rows, error) {
	ctx, cancel := b.WithTimeout(ctx)
	rows, err := b.DB.QueryContext(ctx, query, args...)
	if err != nil {
		cancel()
		return nil, err
	}
	return &timedRows{Rows: rows, cancel: cancel}, nil
}

func (b *Base) Close() error { return b.DB.Close() }

// Strings drains a single-column text result.
func (b *Base) Strings(ctx context.Context, query string, args ...any) ([]string, error) {
	ctx, cancel := b.WithTimeout(ctx)
	defer cancel()
	rows, err := b.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Columns reads (name, type, is_nullable, position) rows. is_nullable is
// compared against "YES", "Y" or "1".
func (b *Base) Columns(ctx context.Context, query string, args ...any) ([]domain.ColumnMeta, error) {
	ctx, cancel := b.WithTimeout(ctx)
	defer cancel()
	rows, err := b.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying columns: %w", err)
	}
	defer rows.Close()

	var cols []domain.ColumnMeta
	for rows.Next() {
		var (
			c        domain.ColumnMeta
			nullable string
		)
		if err := rows.Scan(&c.Name, &c.DeclaredType, &nullable, &c.Position); err != nil {
			return nil, fmt.Errorf("scanning column: %w", err)
		}
		c.Nullable = IsYes(nullable)
		cols = append(cols, c)
	}
	return cols, rows.Err()
}

// WithTimeout bounds one statement by Timeout. A zero Timeout leaves ctx as is.
func (b *Base) WithTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if b.Timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, b.Timeout)
}

// IsYes reads catalog yes/no flags.
func IsYes(s string) bool {
	switch s {
	case "YES", "Y", "1", "yes", "true", "TRUE":
		return true
	}
	return false
}

type timedRow struct {
	row    *sql.Row
	cancel context.CancelFunc
}

func (r *timedRow) Scan(dest ...any) error {
	defer r.cancel()
	return r.row.Scan(dest...)
}

type timedRows struct {
	*sql.Rows
	cancel context.CancelFunc
}

func (r *timedRows) Close() error {
	defer r.cancel()
	return r.Rows.Close()
}
