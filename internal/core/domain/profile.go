package domain

import (
	"time"
)

// ColumnMeta is what the catalog tells us about a column before profiling.
type ColumnMeta struct {
	Name         string `json:"name"`
	DeclaredType string `json:"declared_type"`
	Nullable     bool   `json:"nullable"`
	Position     int    `json:"position"`
}

// WarningKind separates expected gaps from failures.
type WarningKind string

const (
	WarningUnsupportedType  WarningKind = "unsupported_type"
	WarningPartialStatistic WarningKind = "partial_statistic"
)

// ColumnWarning is a non-fatal problem met while profiling one column.
type ColumnWarning struct {
	Column    string      `json:"column"`
	Statistic string      `json:"statistic,omitempty"`
	Kind      WarningKind `json:"kind"`
	Message   string      `json:"message"`
}

// ColumnProfile holds the statistics of one column. Nil pointers mean the
// statistic does not apply or could not be computed; they are never zero-filled.
type ColumnProfile struct {
	ColumnName         string           `json:"column_name"`
	DataType           string           `json:"data_type"`
	TypeClass          TypeClass        `json:"type_class"`
	RowCount           int64            `json:"row_count"`
	NotNullProportion  *float64         `json:"not_null_proportion"`
	DistinctProportion *float64         `json:"distinct_proportion"`
	DistinctCount      *int64           `json:"distinct_count"`
	IsUnique           *bool            `json:"is_unique"`
	Cardinality        CardinalityClass `json:"cardinality,omitempty"`
	Min                *string          `json:"min"`
	Max                *string          `json:"max"`
	Avg                *float64         `json:"avg"`
	Median             *float64         `json:"median"`
	StdDevPopulation   *float64         `json:"std_dev_population"`
	StdDevSample       *float64         `json:"std_dev_sample"`
	ProfiledAt         time.Time        `json:"profiled_at"`
}

// NewColumnProfile returns a profile with every statistic absent.
func NewColumnProfile(meta ColumnMeta, class TypeClass, rowCount int64, at time.Time) ColumnProfile {
	return ColumnProfile{
		ColumnName: meta.Name,
		DataType:   meta.DeclaredType,
		TypeClass:  class,
		RowCount:   rowCount,
		ProfiledAt: at,
	}
}

// ApplyCounts derives the presence and uniqueness statistics from the
// non-null and distinct counts. It is a no-op when RowCount is zero.
func (p *ColumnProfile) ApplyCounts(notNull, distinct int64) {
	if p.RowCount <= 0 {
		return
	}
	rows := float64(p.RowCount)
	nn := float64(notNull) / rows
	dp := float64(distinct) / rows
	unique := distinct == p.RowCount
	p.NotNullProportion = &nn
	p.DistinctProportion = &dp
	p.DistinctCount = &distinct
	p.IsUnique = &unique
	p.Cardinality = ClassifyByDistinctCount(distinct, p.RowCount)
}

// ClearRange drops the type-dependent statistics.
func (p *ColumnProfile) ClearRange() {
	p.Min, p.Max = nil, nil
	p.Avg, p.Median = nil, nil
	p.StdDevPopulation, p.StdDevSample = nil, nil
}

// TableProfile is the result of one profiling pass over a table.
type TableProfile struct {
	SchemaName string          `json:"schema_name"`
	TableName  string          `json:"table_name"`
	RowCount   int64           `json:"row_count"`
	ProfiledAt time.Time       `json:"profiled_at"`
	Columns    []ColumnProfile `json:"columns"`
	Warnings   []ColumnWarning `json:"warnings,omitempty"`
}

// Column returns the profile for name, if present.
func (t *TableProfile) Column(name string) (ColumnProfile, bool) {
	for _, c := range t.Columns {
		if c.ColumnName == name {
			return c, true
		}
	}
	return ColumnProfile{}, false
}

// Degraded reports whether any statistic failed.
func (t *TableProfile) Degraded() bool {
	for _, w := range t.Warnings {
		if w.Kind == WarningPartialStatistic {
			return true
		}
	}
	return false
}
