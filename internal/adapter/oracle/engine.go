// Package oracle implements the Oracle engine on godror. It needs the
// Oracle client libraries at run time.
package oracle

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/godror/godror"

	"github.com/guillermoBallester/dataprofiler/internal/adapter/sqldb"
	"github.com/guillermoBallester/dataprofiler/internal/core/domain"
	"github.com/guillermoBallester/dataprofiler/internal/core/port"
)

var catalog = sqldb.Catalog{
	Columns:     querySchemaColumns,
	PrimaryKey:  queryPrimaryKey,
	Indexes:     queryIndexes,
	ForeignKeys: queryForeignKeys,
	Checks:      queryCheckConstraints,
}

// Engine profiles the tables one Oracle user can see. The default schema is
// the connected user.
type Engine struct {
	sqldb.Base
	caps   domain.Capabilities
	target domain.Target
	owner  string
	logger *slog.Logger
}

var _ port.Engine = (*Engine)(nil)

func NewEngine(db *sql.DB, target domain.Target, owner string, opts port.EngineOptions, logger *slog.Logger) *Engine {
	return &Engine{
		Base:   sqldb.Base{DB: db, Timeout: opts.QueryTimeout},
		caps:   domain.MustCapabilities(domain.Oracle),
		target: target,
		owner:  owner,
		logger: logger,
	}
}

// Open connects with a godror DSN such as
// `user="scott" password="tiger" connectString="db:1521/ORCLPDB1"` or the
// short form scott/tiger@db:1521/ORCLPDB1.
func Open(ctx context.Context, dsn string, opts port.EngineOptions, logger *slog.Logger) (port.Engine, error) {
	params, err := godror.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing oracle DSN: %w", err)
	}
	db, err := sqldb.Open(ctx, "godror", dsn)
	if err != nil {
		return nil, err
	}

	owner := strings.ToUpper(params.Username)
	if owner == "" {
		// External authentication carries no user name.
		if err := db.QueryRowContext(ctx, queryCurrentUser).Scan(&owner); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("resolving current user: %w", err)
		}
	}
	target := TargetFromConnectString(params.ConnectString)
	target.SchemaName = owner
	return NewEngine(db, target, owner, opts, logger), nil
}

// TargetFromConnectString splits an Easy Connect string host[:port]/service.
// TNS aliases are kept whole as the host.
func TargetFromConnectString(cs string) domain.Target {
	cs = strings.TrimPrefix(strings.TrimSpace(cs), "//")
	host, service, _ := strings.Cut(cs, "/")
	if h, _, ok := strings.Cut(host, ":"); ok {
		host = h
	}
	if i := strings.IndexAny(service, ":?"); i >= 0 {
		service = service[:i]
	}
	return domain.Target{DatabaseHost: host, DatabaseName: service}
}

func fold(name string) string {
	return domain.MustCapabilities(domain.Oracle).CanonicalIdentifier(name)
}

func (e *Engine) schemaOr(schema string) string {
	if schema == "" {
		return e.owner
	}
	return fold(schema)
}

func (e *Engine) Capabilities() domain.Capabilities { return e.caps }
func (e *Engine) Target() domain.Target             { return e.target }

func (e *Engine) ListTables(ctx context.Context, schema string) ([]string, error) {
	tables, err := e.Strings(ctx, queryListTables, e.schemaOr(schema))
	if err != nil {
		return nil, fmt.Errorf("listing tables: %w", err)
	}
	return tables, nil
}

func (e *Engine) ListColumns(ctx context.Context, schema, table string) ([]domain.ColumnMeta, error) {
	return e.Columns(ctx, queryListColumns, e.schemaOr(schema), fold(table))
}

func (e *Engine) ExtractSchema(ctx context.Context, schema, table string) (*domain.TableSchema, error) {
	schema, table = e.schemaOr(schema), fold(table)
	s, err := e.Base.ExtractSchema(ctx, catalog, schema, table, schema, table)
	if err != nil {
		return nil, err
	}
	s.DatabaseHost, s.DatabaseName = e.target.DatabaseHost, e.target.DatabaseName
	return s, nil
}

// DetectAutoIncrement reads identity columns from their backing sequence.
// LAST_NUMBER is the next value the sequence writes to disk, so with a
// cache it may run ahead of the last value handed out.
func (e *Engine) DetectAutoIncrement(ctx context.Context, schema, table string) ([]domain.AutoIncrementColumn, error) {
	schema, table = e.schemaOr(schema), fold(table)

	rows, err := e.Query(ctx, queryIdentityColumns, schema, table)
	if err != nil {
		return nil, fmt.Errorf("querying identity columns: %w", err)
	}
	defer rows.Close()

	var out []domain.AutoIncrementColumn
	for rows.Next() {
		var (
			name, dataType, sequence string
			precision                sql.NullInt64
			lastNumber               sql.NullString
		)
		if err := rows.Scan(&name, &dataType, &precision, &sequence, &lastNumber); err != nil {
			return nil, fmt.Errorf("scanning identity column: %w", err)
		}
		if !lastNumber.Valid {
			e.logger.WarnContext(ctx, "identity sequence not visible",
				slog.String("table", table),
				slog.String("column", name),
				slog.String("sequence", sequence),
			)
			continue
		}
		current, err := currentFromLastNumber(lastNumber.String)
		if err != nil {
			e.logger.WarnContext(ctx, "reading sequence value failed",
				slog.String("table", table),
				slog.String("column", name),
				slog.String("error", err.Error()),
			)
			continue
		}
		out = append(out, domain.AutoIncrementColumn{
			TableName:    table,
			ColumnName:   name,
			DataType:     dataType,
			Source:       sequence,
			CurrentValue: current,
			MaxTypeValue: e.maxValue(dataType, precision),
		})
	}
	return out, rows.Err()
}

// maxValue bounds NUMBER(p) by its digits. Unbounded NUMBER and anything
// wider than 18 digits are capped at the int64 maximum.
func (e *Engine) maxValue(dataType string, precision sql.NullInt64) int64 {
	if dataType == "number" && precision.Valid && precision.Int64 > 0 && precision.Int64 <= 18 {
		return int64(math.Pow10(int(precision.Int64))) - 1
	}
	return e.caps.MaxValue(dataType)
}

func currentFromLastNumber(s string) (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if errors.Is(err, strconv.ErrRange) {
		return math.MaxInt64, nil
	}
	if err != nil {
		return 0, err
	}
	if n <= 1 {
		return 0, nil
	}
	return n - 1, nil
}
