package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/guillermoBallester/dataprofiler/internal/core/domain"
)

// DetectAutoIncrement lists serial and identity columns of table with the
// last value of their sequence. Columns whose sequence cannot be resolved
// or read are left out.
func (e *Engine) DetectAutoIncrement(ctx context.Context, schema, table string) ([]domain.AutoIncrementColumn, error) {
	schema = schemaOr(schema, e.caps.DefaultSchema)

	rows, err := e.pool.Query(ctx, queryAutoIncrementColumns, schema, table)
	if err != nil {
		return nil, fmt.Errorf("querying auto-increment columns: %w", err)
	}
	type candidate struct {
		name, dataType string
		seq            *string
	}
	var candidates []candidate
	for rows.Next() {
		var c candidate
		if err := rows.Scan(&c.name, &c.dataType, &c.seq); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning auto-increment column: %w", err)
		}
		candidates = append(candidates, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating auto-increment columns: %w", err)
	}

	out := make([]domain.AutoIncrementColumn, 0, len(candidates))
	for _, c := range candidates {
		if c.seq == nil {
			e.logger.WarnContext(ctx, "no owned sequence for auto-increment column",
				slog.String("table", table), slog.String("column", c.name))
			continue
		}
		var current int64
		if err := e.pool.QueryRow(ctx, querySequenceLastValue, *c.seq).Scan(&current); err != nil {
			e.logger.WarnContext(ctx, "reading sequence value failed",
				slog.String("table", table),
				slog.String("column", c.name),
				slog.String("sequence", *c.seq),
				slog.String("error", err.Error()),
			)
			continue
		}
		out = append(out, domain.AutoIncrementColumn{
			TableName:    table,
			ColumnName:   c.name,
			DataType:     c.dataType,
			Source:       *c.seq,
			CurrentValue: current,
			MaxTypeValue: e.caps.MaxValue(c.dataType),
		})
	}
	return out, nil
}
