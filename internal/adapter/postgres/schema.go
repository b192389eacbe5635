package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/guillermoBallester/dataprofiler/internal/core/domain"
)

// ExtractSchema snapshots one table from the catalog. A table without
// columns is reported as not found.
func (e *Engine) ExtractSchema(ctx context.Context, schema, table string) (*domain.TableSchema, error) {
	schema = schemaOr(schema, e.caps.DefaultSchema)
	s := &domain.TableSchema{
		TableName:    table,
		SchemaName:   schema,
		DatabaseHost: e.target.DatabaseHost,
		DatabaseName: e.target.DatabaseName,
		ExtractedAt:  time.Now().UTC(),
	}

	cols, err := e.fetchSchemaColumns(ctx, schema, table)
	if err != nil {
		return nil, &domain.SchemaExtractionError{Table: table, Op: "columns", Err: err}
	}
	if len(cols) == 0 {
		return nil, &domain.TableNotFoundError{Schema: schema, Table: table}
	}
	s.Columns = cols

	if s.PrimaryKey, err = e.fetchPrimaryKey(ctx, schema, table); err != nil {
		return nil, &domain.SchemaExtractionError{Table: table, Op: "primary key", Err: err}
	}
	if s.Indexes, err = e.fetchIndexes(ctx, schema, table); err != nil {
		return nil, &domain.SchemaExtractionError{Table: table, Op: "indexes", Err: err}
	}
	if s.ForeignKeys, err = e.fetchForeignKeys(ctx, schema, table); err != nil {
		return nil, &domain.SchemaExtractionError{Table: table, Op: "foreign keys", Err: err}
	}
	if s.CheckConstraints, err = e.fetchCheckConstraints(ctx, schema, table); err != nil {
		return nil, &domain.SchemaExtractionError{Table: table, Op: "check constraints", Err: err}
	}

	s.Normalize()
	e.logger.DebugContext(ctx, "schema extracted",
		slog.String("table", table),
		slog.Int("columns", len(s.Columns)),
		slog.Int("indexes", len(s.Indexes)),
		slog.Int("foreign_keys", len(s.ForeignKeys)),
	)
	return s, nil
}

func (e *Engine) fetchSchemaColumns(ctx context.Context, schema, table string) (map[string]domain.ColumnSchema, error) {
	rows, err := e.pool.Query(ctx, querySchemaColumns, schema, table)
	if err != nil {
		return nil, fmt.Errorf("querying columns: %w", err)
	}
	defer rows.Close()

	cols := make(map[string]domain.ColumnSchema)
	for rows.Next() {
		var c domain.ColumnSchema
		if err := rows.Scan(&c.Name, &c.DataType, &c.Nullable, &c.DefaultValue,
			&c.MaxLength, &c.Precision, &c.Scale, &c.Position); err != nil {
			return nil, fmt.Errorf("scanning column: %w", err)
		}
		cols[c.Name] = c
	}
	return cols, rows.Err()
}

func (e *Engine) fetchPrimaryKey(ctx context.Context, schema, table string) ([]string, error) {
	rows, err := e.pool.Query(ctx, queryPrimaryKey, schema, table)
	if err != nil {
		return nil, fmt.Errorf("querying primary key: %w", err)
	}
	return collectStrings(rows)
}

func (e *Engine) fetchIndexes(ctx context.Context, schema, table string) ([]domain.IndexSchema, error) {
	rows, err := e.pool.Query(ctx, queryIndexes, schema, table)
	if err != nil {
		return nil, fmt.Errorf("querying indexes: %w", err)
	}
	defer rows.Close()

	var idxs []domain.IndexSchema
	for rows.Next() {
		var idx domain.IndexSchema
		if err := rows.Scan(&idx.Name, &idx.IsUnique, &idx.IndexType, &idx.Columns); err != nil {
			return nil, fmt.Errorf("scanning index: %w", err)
		}
		idxs = append(idxs, idx)
	}
	return idxs, rows.Err()
}

func (e *Engine) fetchForeignKeys(ctx context.Context, schema, table string) ([]domain.ForeignKeySchema, error) {
	rows, err := e.pool.Query(ctx, queryForeignKeys, schema, table)
	if err != nil {
		return nil, fmt.Errorf("querying foreign keys: %w", err)
	}
	defer rows.Close()

	var fks []domain.ForeignKeySchema
	for rows.Next() {
		var (
			fk       domain.ForeignKeySchema
			del, upd string
		)
		if err := rows.Scan(&fk.Name, &fk.Columns, &fk.ReferencedTable, &fk.ReferencedColumns, &del, &upd); err != nil {
			return nil, fmt.Errorf("scanning fk: %w", err)
		}
		fk.OnDelete = referentialAction(del)
		fk.OnUpdate = referentialAction(upd)
		fks = append(fks, fk)
	}
	return fks, rows.Err()
}

func (e *Engine) fetchCheckConstraints(ctx context.Context, schema, table string) ([]domain.CheckConstraint, error) {
	rows, err := e.pool.Query(ctx, queryCheckConstraints, schema, table)
	if err != nil {
		return nil, fmt.Errorf("querying check constraints: %w", err)
	}
	defer rows.Close()

	var checks []domain.CheckConstraint
	for rows.Next() {
		var ck domain.CheckConstraint
		if err := rows.Scan(&ck.Name, &ck.Expression); err != nil {
			return nil, fmt.Errorf("scanning check constraint: %w", err)
		}
		checks = append(checks, ck)
	}
	return checks, rows.Err()
}
