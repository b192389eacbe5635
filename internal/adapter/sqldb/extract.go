package sqldb

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/guillermoBallester/dataprofiler/internal/core/domain"
)

// Catalog is the set of catalog queries one engine answers ExtractSchema
// with. Every query takes the same bind arguments.
type Catalog struct {
	// Columns: name, data_type, is_nullable, default, max_length, precision, scale, position.
	Columns string
	// PrimaryKey: column, in key order.
	PrimaryKey string
	// Indexes: index, column, is_unique ('YES'/'NO'), type; ordered by index then key position.
	Indexes string
	// ForeignKeys: name, column, referenced table, referenced column, on_delete, on_update.
	ForeignKeys string
	// Checks: name, expression.
	Checks string
	// OptionalChecks tolerates a failing Checks query, for servers
	// without CHECK constraint metadata.
	OptionalChecks bool
	// TypeName renders the declared type; nil means DeclaredType.
	TypeName func(dataType string, maxLength, precision, scale *int64) string
}

// ExtractSchema runs cat against the catalog. Host and database are left
// for the caller to fill.
func (b *Base) ExtractSchema(ctx context.Context, cat Catalog, schema, table string, args ...any) (*domain.TableSchema, error) {
	s := &domain.TableSchema{
		TableName:   table,
		SchemaName:  schema,
		ExtractedAt: time.Now().UTC(),
	}

	cols, err := b.schemaColumns(ctx, cat, args)
	if err != nil {
		return nil, &domain.SchemaExtractionError{Table: table, Op: "columns", Err: err}
	}
	if len(cols) == 0 {
		return nil, &domain.TableNotFoundError{Schema: schema, Table: table}
	}
	s.Columns = cols

	if s.PrimaryKey, err = b.Strings(ctx, cat.PrimaryKey, args...); err != nil {
		return nil, &domain.SchemaExtractionError{Table: table, Op: "primary key", Err: err}
	}
	if s.Indexes, err = b.indexes(ctx, cat.Indexes, args); err != nil {
		return nil, &domain.SchemaExtractionError{Table: table, Op: "indexes", Err: err}
	}
	if s.ForeignKeys, err = b.foreignKeys(ctx, cat.ForeignKeys, args); err != nil {
		return nil, &domain.SchemaExtractionError{Table: table, Op: "foreign keys", Err: err}
	}
	if cat.Checks != "" {
		checks, err := b.checks(ctx, cat.Checks, args)
		if err != nil && !cat.OptionalChecks {
			return nil, &domain.SchemaExtractionError{Table: table, Op: "check constraints", Err: err}
		}
		s.CheckConstraints = checks
	}

	s.Normalize()
	return s, nil
}

func (b *Base) schemaColumns(ctx context.Context, cat Catalog, args []any) (map[string]domain.ColumnSchema, error) {
	ctx, cancel := b.WithTimeout(ctx)
	defer cancel()
	typeName := cat.TypeName
	if typeName == nil {
		typeName = DeclaredType
	}
	rows, err := b.DB.QueryContext(ctx, cat.Columns, args...)
	if err != nil {
		return nil, fmt.Errorf("querying columns: %w", err)
	}
	defer rows.Close()

	cols := make(map[string]domain.ColumnSchema)
	for rows.Next() {
		var (
			c                domain.ColumnSchema
			dataType, isNull string
		)
		if err := rows.Scan(&c.Name, &dataType, &isNull, &c.DefaultValue,
			&c.MaxLength, &c.Precision, &c.Scale, &c.Position); err != nil {
			return nil, fmt.Errorf("scanning column: %w", err)
		}
		c.DataType = typeName(dataType, c.MaxLength, c.Precision, c.Scale)
		c.Nullable = IsYes(isNull)
		cols[c.Name] = c
	}
	return cols, rows.Err()
}

func (b *Base) indexes(ctx context.Context, query string, args []any) ([]domain.IndexSchema, error) {
	ctx, cancel := b.WithTimeout(ctx)
	defer cancel()
	rows, err := b.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying indexes: %w", err)
	}
	defer rows.Close()

	var flat []IndexColumnRow
	for rows.Next() {
		var (
			r      IndexColumnRow
			unique string
		)
		if err := rows.Scan(&r.Name, &r.Column, &unique, &r.Type); err != nil {
			return nil, fmt.Errorf("scanning index: %w", err)
		}
		r.Unique = IsYes(unique)
		flat = append(flat, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return GroupIndexes(flat), nil
}

func (b *Base) foreignKeys(ctx context.Context, query string, args []any) ([]domain.ForeignKeySchema, error) {
	ctx, cancel := b.WithTimeout(ctx)
	defer cancel()
	rows, err := b.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying foreign keys: %w", err)
	}
	defer rows.Close()

	var flat []ForeignKeyColumnRow
	for rows.Next() {
		var r ForeignKeyColumnRow
		if err := rows.Scan(&r.Name, &r.Column, &r.RefTable, &r.RefColumn, &r.OnDelete, &r.OnUpdate); err != nil {
			return nil, fmt.Errorf("scanning fk: %w", err)
		}
		r.OnDelete = strings.ReplaceAll(r.OnDelete, "_", " ")
		r.OnUpdate = strings.ReplaceAll(r.OnUpdate, "_", " ")
		flat = append(flat, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return GroupForeignKeys(flat), nil
}

func (b *Base) checks(ctx context.Context, query string, args []any) ([]domain.CheckConstraint, error) {
	ctx, cancel := b.WithTimeout(ctx)
	defer cancel()
	rows, err := b.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying check constraints: %w", err)
	}
	defer rows.Close()

	var out []domain.CheckConstraint
	for rows.Next() {
		var ck domain.CheckConstraint
		if err := rows.Scan(&ck.Name, &ck.Expression); err != nil {
			return nil, fmt.Errorf("scanning check constraint: %w", err)
		}
		out = append(out, ck)
	}
	return out, rows.Err()
}
