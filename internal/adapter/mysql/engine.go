// Package mysql implements the MySQL and MariaDB engine on go-sql-driver/mysql.
package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net"

	"github.com/go-sql-driver/mysql"

	"github.com/guillermoBallester/dataprofiler/internal/adapter/sqldb"
	"github.com/guillermoBallester/dataprofiler/internal/core/domain"
	"github.com/guillermoBallester/dataprofiler/internal/core/port"
)

var catalog = sqldb.Catalog{
	Columns:        querySchemaColumns,
	PrimaryKey:     queryPrimaryKey,
	Indexes:        queryIndexes,
	ForeignKeys:    queryForeignKeys,
	Checks:         queryCheckConstraints,
	OptionalChecks: true,
	// COLUMN_TYPE is already complete, e.g. "decimal(10,2)" or "int unsigned".
	TypeName: func(columnType string, _, _, _ *int64) string { return columnType },
}

// Engine profiles one MySQL database. A MySQL schema is a database, so the
// default schema is the one named in the DSN.
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
		caps:   domain.MustCapabilities(domain.MySQL),
		target: target,
		logger: logger,
	}
}

// Open connects with a go-sql-driver DSN, e.g. user:pass@tcp(host:3306)/shop.
func Open(ctx context.Context, dsn string, opts port.EngineOptions, logger *slog.Logger) (port.Engine, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing mysql DSN: %w", err)
	}
	if opts.QueryTimeout > 0 {
		cfg.ReadTimeout = opts.QueryTimeout
	}
	db, err := sqldb.Open(ctx, "mysql", cfg.FormatDSN())
	if err != nil {
		return nil, err
	}
	return NewEngine(db, targetFromConfig(cfg), opts, logger), nil
}

func targetFromConfig(cfg *mysql.Config) domain.Target {
	host := cfg.Addr
	if h, _, err := net.SplitHostPort(cfg.Addr); err == nil {
		host = h
	}
	return domain.Target{DatabaseHost: host, DatabaseName: cfg.DBName, SchemaName: cfg.DBName}
}

func (e *Engine) Capabilities() domain.Capabilities { return e.caps }
func (e *Engine) Target() domain.Target             { return e.target }

func (e *Engine) schemaOr(schema string) string {
	if schema == "" {
		return e.target.DatabaseName
	}
	return schema
}

func (e *Engine) ListTables(ctx context.Context, schema string) ([]string, error) {
	tables, err := e.Strings(ctx, queryListTables, e.schemaOr(schema))
	if err != nil {
		return nil, fmt.Errorf("listing tables: %w", err)
	}
	return tables, nil
}

func (e *Engine) ListColumns(ctx context.Context, schema, table string) ([]domain.ColumnMeta, error) {
	return e.Columns(ctx, queryListColumns, e.schemaOr(schema), table)
}

func (e *Engine) ExtractSchema(ctx context.Context, schema, table string) (*domain.TableSchema, error) {
	schema = e.schemaOr(schema)
	s, err := e.Base.ExtractSchema(ctx, catalog, schema, table, schema, table)
	if err != nil {
		return nil, err
	}
	s.DatabaseHost, s.DatabaseName = e.target.DatabaseHost, e.target.DatabaseName
	return s, nil
}

// DetectAutoIncrement reads the AUTO_INCREMENT column of table. The
// current value is the table's next value minus one.
func (e *Engine) DetectAutoIncrement(ctx context.Context, schema, table string) ([]domain.AutoIncrementColumn, error) {
	schema = e.schemaOr(schema)
	ctx, cancel := e.WithTimeout(ctx)
	defer cancel()

	conn, err := e.DB.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquiring connection: %w", err)
	}
	defer conn.Close()
	_, _ = conn.ExecContext(ctx, statsExpiry)

	rows, err := conn.QueryContext(ctx, queryAutoIncrement, schema, table)
	if err != nil {
		return nil, fmt.Errorf("querying auto-increment columns: %w", err)
	}
	defer rows.Close()

	var out []domain.AutoIncrementColumn
	for rows.Next() {
		var (
			name, columnType string
			next             sql.NullInt64
		)
		if err := rows.Scan(&name, &columnType, &next); err != nil {
			return nil, fmt.Errorf("scanning auto-increment column: %w", err)
		}
		if !next.Valid {
			e.logger.WarnContext(ctx, "AUTO_INCREMENT not reported",
				slog.String("table", table), slog.String("column", name))
			continue
		}
		out = append(out, domain.AutoIncrementColumn{
			TableName:    table,
			ColumnName:   name,
			DataType:     columnType,
			Source:       schema + "." + table,
			CurrentValue: currentFromNext(next.Int64),
			MaxTypeValue: e.caps.MaxValue(columnType),
		})
	}
	return out, rows.Err()
}

func currentFromNext(next int64) int64 {
	if next <= 1 {
		return 0
	}
	return next - 1
}
