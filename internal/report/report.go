// Package report renders profiles, schema drift and overflow forecasts
// for people and for downstream tools.
package report

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/guillermoBallester/dataprofiler/internal/core/domain"
	"github.com/guillermoBallester/dataprofiler/internal/core/service"
)

// Formatter writes one kind of result to w.
type Formatter interface {
	Profile(w io.Writer, profile *domain.TableProfile) error
	Diff(w io.Writer, drift service.TableDrift) error
	Overflow(w io.Writer, forecasts []domain.OverflowForecast) error
}

const (
	FormatMarkdown = "markdown"
	FormatJSON     = "json"
	FormatCSV      = "csv"
	FormatTable    = "table"
)

// Formats lists the accepted format names.
var Formats = []string{FormatMarkdown, FormatJSON, FormatCSV, FormatTable}

// New returns the formatter for name. An empty name is markdown.
func New(name string) (Formatter, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", FormatMarkdown, "md":
		return Markdown{}, nil
	case FormatJSON:
		return JSON{}, nil
	case FormatCSV:
		return CSV{}, nil
	case FormatTable:
		return Table{}, nil
	}
	return nil, fmt.Errorf("unknown report format %q (want one of %s)", name, strings.Join(Formats, ", "))
}

// profileHeaders are the dbt-profiler column names.
var profileHeaders = []string{
	"column_name", "data_type", "not_null_proportion", "distinct_proportion",
	"distinct_count", "is_unique", "min", "max", "avg", "median",
	"std_dev_population", "std_dev_sample",
}

func profileCells(c domain.ColumnProfile) []string {
	return []string{
		c.ColumnName,
		c.DataType,
		float(c.NotNullProportion, 2),
		float(c.DistinctProportion, 2),
		integer(c.DistinctCount),
		boolean(c.IsUnique),
		str(c.Min),
		str(c.Max),
		float(c.Avg, 4),
		float(c.Median, 4),
		float(c.StdDevPopulation, 4),
		float(c.StdDevSample, 4),
	}
}

var overflowHeaders = []string{
	"table_name", "column_name", "data_type", "source", "current_value", "max_type_value",
	"usage_percentage", "remaining_values", "daily_growth_rate", "days_until_full", "alert_status",
}

func overflowCells(f domain.OverflowForecast) []string {
	return []string{
		f.Column.TableName,
		f.Column.ColumnName,
		f.Column.DataType,
		f.Column.Source,
		strconv.FormatInt(f.Column.CurrentValue, 10),
		strconv.FormatInt(f.Column.MaxTypeValue, 10),
		strconv.FormatFloat(f.UsagePercentage, 'f', 2, 64),
		strconv.FormatInt(f.RemainingValues, 10),
		float(f.DailyGrowthRate, 2),
		float(f.DaysUntilFull, 1),
		string(f.AlertStatus),
	}
}

// changeText renders field changes as "field: before -> after; ...".
func changeText(changes []domain.FieldChange) string {
	parts := make([]string, 0, len(changes))
	for _, c := range changes {
		parts = append(parts, fmt.Sprintf("%s: %s -> %s", c.Field, value(c.Before), value(c.After)))
	}
	return strings.Join(parts, "; ")
}

// structuralLines summarizes the non-column parts of a diff, one line each.
func structuralLines(d domain.SchemaDiff) []string {
	var lines []string
	if pk := d.PrimaryKey; pk != nil {
		lines = append(lines, fmt.Sprintf("primary key: (%s) -> (%s)", strings.Join(pk.Before, ", "), strings.Join(pk.After, ", ")))
	}
	for _, i := range d.IndexDiffs {
		line := fmt.Sprintf("index %s: %s (%s)", i.Kind, i.Index.Name, strings.Join(i.Index.Columns, ", "))
		if i.Previous != nil {
			line += " was " + i.Previous.Name
		}
		lines = append(lines, line)
	}
	for _, m := range d.IndexMembership {
		state := "lost index coverage"
		if m.After {
			state = "gained index coverage"
		}
		lines = append(lines, fmt.Sprintf("column %s %s", m.Column, state))
	}
	for _, f := range d.ForeignKeyDiffs {
		lines = append(lines, fmt.Sprintf("foreign key %s: (%s) -> %s(%s)", f.Kind,
			strings.Join(f.ForeignKey.Columns, ", "), f.ForeignKey.ReferencedTable, strings.Join(f.ForeignKey.ReferencedColumns, ", ")))
	}
	for _, c := range d.CheckDiffs {
		lines = append(lines, fmt.Sprintf("check %s: %s", c.Kind, c.Constraint.Expression))
	}
	for _, h := range d.RenameHints {
		lines = append(lines, fmt.Sprintf("possible rename: %s -> %s (%.0f%% similar)", h.From, h.To, h.Similarity*100))
	}
	return lines
}

// driftColumns returns the column statuses, or the modified columns in name
// order when statuses were not computed.
func driftColumns(d service.TableDrift) []domain.ColumnStatus {
	if len(d.Columns) > 0 {
		return d.Columns
	}
	names := make([]string, 0, len(d.Diff.ModifiedColumns))
	for n := range d.Diff.ModifiedColumns {
		names = append(names, n)
	}
	sort.Strings(names)
	out := make([]domain.ColumnStatus, 0, len(names))
	for _, n := range names {
		out = append(out, domain.ColumnStatus{Column: n, State: domain.StateModified, Changes: d.Diff.ModifiedColumns[n]})
	}
	return out
}

func float(p *float64, prec int) string {
	if p == nil {
		return ""
	}
	return strconv.FormatFloat(*p, 'f', prec, 64)
}

func integer(p *int64) string {
	if p == nil {
		return ""
	}
	return strconv.FormatInt(*p, 10)
}

func boolean(p *bool) string {
	if p == nil {
		return ""
	}
	if *p {
		return "1"
	}
	return "0"
}

func str(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func value(v any) string {
	if v == nil {
		return "NULL"
	}
	return fmt.Sprint(v)
}
