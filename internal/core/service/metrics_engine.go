package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/guillermoBallester/dataprofiler/internal/core/domain"
	"github.com/guillermoBallester/dataprofiler/internal/core/port"
)

// Statistic names used in warnings.
const (
	statPresence = "presence"
	statRange    = "min_max"
	statMoments  = "avg_stddev"
	statMedian   = "median"
)

// MetricsEngine computes column statistics for one dialect. It issues one
// statement at a time on its source and is not safe for concurrent use.
type MetricsEngine struct {
	source    port.Source
	caps      domain.Capabilities
	validator port.QueryValidator
	logger    *slog.Logger
	now       func() time.Time
}

// NewMetricsEngine builds an engine over source. validator may be nil.
func NewMetricsEngine(source port.Source, caps domain.Capabilities, validator port.QueryValidator, logger *slog.Logger) *MetricsEngine {
	return &MetricsEngine{
		source:    source,
		caps:      caps,
		validator: validator,
		logger:    logger,
		now:       time.Now,
	}
}

// ProfileTable runs the statistics pass over columns. Only a failed row
// count is fatal; per-column failures degrade into warnings. Schema and
// table are canonicalized for the dialect before quoting; column names are
// used as the catalog reported them.
func (e *MetricsEngine) ProfileTable(ctx context.Context, schema, table string, columns []domain.ColumnMeta) (*domain.TableProfile, error) {
	schema, table = e.caps.CanonicalIdentifier(schema), e.caps.CanonicalIdentifier(table)
	stmts := newStatements(e.caps, schema, table)
	profiledAt := e.now().UTC()

	var rowCount int64
	if err := e.scan(ctx, stmts.rowCount(), &rowCount); err != nil {
		return nil, &domain.ConnectionError{Op: "row count of " + table, Err: err}
	}

	tp := &domain.TableProfile{
		SchemaName: schema,
		TableName:  table,
		RowCount:   rowCount,
		ProfiledAt: profiledAt,
		Columns:    make([]domain.ColumnProfile, 0, len(columns)),
	}

	for _, col := range columns {
		class := e.caps.ClassifyType(col.DeclaredType)
		if class == domain.TypeUnsupported {
			e.logger.InfoContext(ctx, "column type has no range statistics",
				slog.String("table", table),
				slog.String("column", col.Name),
				slog.String("data_type", col.DeclaredType),
			)
			tp.Warnings = append(tp.Warnings, domain.ColumnWarning{
				Column:  col.Name,
				Kind:    domain.WarningUnsupportedType,
				Message: fmt.Sprintf("type %q is not numeric or temporal in %s", col.DeclaredType, e.caps.Type),
			})
		}

		p := domain.NewColumnProfile(col, class, rowCount, profiledAt)
		if rowCount > 0 {
			for _, perr := range e.profileColumn(ctx, stmts, col, class, &p) {
				e.logger.WarnContext(ctx, "column statistic failed",
					slog.String("table", table),
					slog.String("column", perr.Column),
					slog.String("statistic", perr.Statistic),
					slog.String("error", perr.Err.Error()),
				)
				tp.Warnings = append(tp.Warnings, domain.ColumnWarning{
					Column:    perr.Column,
					Statistic: perr.Statistic,
					Kind:      domain.WarningPartialStatistic,
					Message:   perr.Error(),
				})
			}
		}
		tp.Columns = append(tp.Columns, p)
	}

	return tp, nil
}

func (e *MetricsEngine) profileColumn(ctx context.Context, stmts statements, col domain.ColumnMeta, class domain.TypeClass, p *domain.ColumnProfile) []*domain.PartialStatisticError {
	var failures []*domain.PartialStatisticError
	fail := func(stat string, err error) {
		failures = append(failures, &domain.PartialStatisticError{Column: col.Name, Statistic: stat, Err: err})
	}

	var notNull, distinct int64
	if err := e.scan(ctx, stmts.presence(col.Name), &notNull, &distinct); err != nil {
		fail(statPresence, err)
	} else {
		p.ApplyCounts(notNull, distinct)
	}

	if !class.HasRange() {
		return failures
	}

	var lo, hi *string
	if err := e.scan(ctx, stmts.extremes(col.Name, class), &lo, &hi); err != nil {
		fail(statRange, err)
	} else {
		p.Min, p.Max = lo, hi
	}

	if class != domain.TypeNumeric {
		return failures
	}

	var avg, pop, samp *float64
	if err := e.scan(ctx, stmts.moments(col.Name), &avg, &pop, &samp); err != nil {
		fail(statMoments, err)
	} else {
		p.Avg, p.StdDevPopulation, p.StdDevSample = avg, pop, samp
	}

	if q := stmts.median(col.Name); q != "" {
		var median *float64
		if err := e.scan(ctx, q, &median); err != nil {
			fail(statMedian, err)
		} else {
			p.Median = median
		}
	}

	return failures
}

func (e *MetricsEngine) scan(ctx context.Context, query string, dest ...any) error {
	if e.validator != nil {
		if err := e.validator.Validate(query); err != nil {
			return err
		}
	}
	return e.source.QueryRow(ctx, query).Scan(dest...)
}
