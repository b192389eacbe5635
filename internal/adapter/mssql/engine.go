// Package mssql implements the SQL Server engine on go-mssqldb.
package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/microsoft/go-mssqldb/msdsn"

	"github.com/guillermoBallester/dataprofiler/internal/adapter/sqldb"
	"github.com/guillermoBallester/dataprofiler/internal/core/domain"
	"github.com/guillermoBallester/dataprofiler/internal/core/port"

	_ "github.com/microsoft/go-mssqldb"
)

var catalog = sqldb.Catalog{
	Columns:     querySchemaColumns,
	PrimaryKey:  queryPrimaryKey,
	Indexes:     queryIndexes,
	ForeignKeys: queryForeignKeys,
	Checks:      queryCheckConstraints,
}

type Engine struct {
	sqldb.Base
	caps   domain.Capabilities
	target domain.Target
	logger *slog.Logger
}

var _ port.Engine = (*Engine)(nil)

func NewEngine(db *sql.DB, target domain.Target, opts port.EngineOptions, logger *slog.Logger) *Engine {
	return &Engine{
		Base:   sqldb.Base{DB: db, Timeout: opts.QueryTimeout},
		caps:   domain.MustCapabilities(domain.MSSQL),
		target: target,
		logger: logger,
	}
}

// Open connects with a sqlserver:// URL.
func Open(ctx context.Context, url string, opts port.EngineOptions, logger *slog.Logger) (port.Engine, error) {
	target, err := TargetFromURL(url)
	if err != nil {
		return nil, err
	}
	db, err := sqldb.Open(ctx, "sqlserver", url)
	if err != nil {
		return nil, err
	}
	return NewEngine(db, target, opts, logger), nil
}

// TargetFromURL reads the host and database of a connection string.
func TargetFromURL(url string) (domain.Target, error) {
	cfg, err := msdsn.Parse(url)
	if err != nil {
		return domain.Target{}, fmt.Errorf("parsing sqlserver connection string: %w", err)
	}
	host := cfg.Host
	if cfg.Instance != "" {
		host += `\` + cfg.Instance
	}
	return domain.Target{DatabaseHost: host, DatabaseName: cfg.Database}, nil
}

func (e *Engine) Capabilities() domain.Capabilities { return e.caps }
func (e *Engine) Target() domain.Target             { return e.target }

func (e *Engine) schemaOr(schema string) string {
	if schema == "" {
		return e.caps.DefaultSchema
	}
	return schema
}

func (e *Engine) args(schema, table string) []any {
	return []any{sql.Named("schema", e.schemaOr(schema)), sql.Named("table", table)}
}

func (e *Engine) ListTables(ctx context.Context, schema string) ([]string, error) {
	tables, err := e.Strings(ctx, queryListTables, sql.Named("schema", e.schemaOr(schema)))
	if err != nil {
		return nil, fmt.Errorf("listing tables: %w", err)
	}
	return tables, nil
}

func (e *Engine) ListColumns(ctx context.Context, schema, table string) ([]domain.ColumnMeta, error) {
	return e.Columns(ctx, queryListColumns, e.args(schema, table)...)
}

func (e *Engine) ExtractSchema(ctx context.Context, schema, table string) (*domain.TableSchema, error) {
	schema = e.schemaOr(schema)
	s, err := e.Base.ExtractSchema(ctx, catalog, schema, table, e.args(schema, table)...)
	if err != nil {
		return nil, err
	}
	s.DatabaseHost, s.DatabaseName = e.target.DatabaseHost, e.target.DatabaseName
	return s, nil
}

// DetectAutoIncrement reads the identity column of table. SQL Server allows
// at most one, and IDENT_CURRENT reports its last generated value.
func (e *Engine) DetectAutoIncrement(ctx context.Context, schema, table string) ([]domain.AutoIncrementColumn, error) {
	schema = e.schemaOr(schema)
	args := e.args(schema, table)

	rows, err := e.Query(ctx, queryIdentityColumns, args...)
	if err != nil {
		return nil, fmt.Errorf("querying identity columns: %w", err)
	}
	type identity struct{ name, dataType string }
	var found []identity
	for rows.Next() {
		var id identity
		if err := rows.Scan(&id.name, &id.dataType); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scanning identity column: %w", err)
		}
		found = append(found, id)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("iterating identity columns: %w", err)
	}
	_ = rows.Close()

	qualified := schema + "." + table
	out := make([]domain.AutoIncrementColumn, 0, len(found))
	for _, id := range found {
		var current sql.NullInt64
		if err := e.QueryRow(ctx, queryIdentCurrent, args...).Scan(&current); err != nil || !current.Valid {
			msg := "IDENT_CURRENT returned NULL"
			if err != nil {
				msg = err.Error()
			}
			e.logger.WarnContext(ctx, "reading identity value failed",
				slog.String("table", table),
				slog.String("column", id.name),
				slog.String("error", msg),
			)
			continue
		}
		out = append(out, domain.AutoIncrementColumn{
			TableName:    table,
			ColumnName:   id.name,
			DataType:     id.dataType,
			Source:       qualified,
			CurrentValue: current.Int64,
			MaxTypeValue: e.caps.MaxValue(id.dataType),
		})
	}
	return out, nil
}
