package policy

import (
	"context"
	"fmt"

	"github.com/guillermoBallester/dataprofiler/internal/core/domain"
	"github.com/guillermoBallester/dataprofiler/internal/core/port"
)

// Profiler decorates a TableProfiler with the policy: excluded tables are
// refused, skipped columns never reach the source, and masked columns have
// their min and max rewritten before anything is reported or stored.
type Profiler struct {
	inner  port.TableProfiler
	policy *Policy
}

var _ port.TableProfiler = (*Profiler)(nil)

func NewProfiler(inner port.TableProfiler, pol *Policy) *Profiler {
	return &Profiler{inner: inner, policy: pol}
}

func (p *Profiler) ProfileTable(ctx context.Context, schema, table string, columns []domain.ColumnMeta) (*domain.TableProfile, error) {
	if p.policy.Excluded(schema, table) {
		return nil, fmt.Errorf("%s: %w", table, domain.ErrTableExcluded)
	}

	profile, err := p.inner.ProfileTable(ctx, schema, table, p.policy.FilterColumns(schema, table, columns))
	if err != nil {
		return nil, err
	}

	masks := p.policy.Masks(schema, table)
	for i := range profile.Columns {
		if m, ok := masks[profile.Columns[i].ColumnName]; ok {
			profile.Columns[i].MaskRange(m)
		}
	}
	return profile, nil
}
