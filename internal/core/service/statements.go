package service

import (
	"fmt"

	"github.com/guillermoBallester/dataprofiler/internal/core/domain"
)

// statements builds the statistic SQL for one table in one dialect. Every
// identifier goes through the dialect's quoting.
type statements struct {
	caps  domain.Capabilities
	table string
}

func newStatements(caps domain.Capabilities, schema, table string) statements {
	return statements{caps: caps, table: caps.Qualify(schema, table)}
}

func (s statements) float(expr string) string { return fmt.Sprintf(s.caps.FloatCast, expr) }

func (s statements) rowCount() string {
	return fmt.Sprintf("SELECT %s(*) FROM %s", s.caps.CountFunc, s.table)
}

func (s statements) presence(column string) string {
	q := s.caps.QuoteIdentifier(column)
	return fmt.Sprintf("SELECT %[1]s(%[2]s), %[1]s(DISTINCT %[2]s) FROM %[3]s", s.caps.CountFunc, q, s.table)
}

func (s statements) extremes(column string, class domain.TypeClass) string {
	q := s.caps.QuoteIdentifier(column)
	cast := s.caps.RangeCast(class)
	return fmt.Sprintf("SELECT %s, %s FROM %s",
		fmt.Sprintf(cast, "MIN("+q+")"),
		fmt.Sprintf(cast, "MAX("+q+")"),
		s.table)
}

func (s statements) moments(column string) string {
	v := s.float(s.caps.QuoteIdentifier(column))
	return fmt.Sprintf("SELECT %s, %s, %s FROM %s",
		s.float("AVG("+v+")"),
		s.float(s.caps.StdDevPop+"("+v+")"),
		s.float(s.caps.StdDevSamp+"("+v+")"),
		s.table)
}

// median returns "" when the dialect has no continuous percentile; the
// caller then reports NULL without querying.
func (s statements) median(column string) string {
	pct := "PERCENTILE_CONT(0.5) WITHIN GROUP (ORDER BY " + s.caps.QuoteIdentifier(column) + ")"
	switch s.caps.Median {
	case domain.MedianAggregate:
		return fmt.Sprintf("SELECT %s FROM %s", s.float(pct), s.table)
	case domain.MedianWindow:
		return fmt.Sprintf("SELECT TOP 1 %s FROM %s", s.float(pct+" OVER ()"), s.table)
	default:
		return ""
	}
}
