package port

import (
	"context"

	"github.com/guillermoBallester/dataprofiler/internal/core/domain"
)

// TableProfiler computes the statistics of one table from its column list.
type TableProfiler interface {
	ProfileTable(ctx context.Context, schema, table string, columns []domain.ColumnMeta) (*domain.TableProfile, error)
}
