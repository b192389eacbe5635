package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/guillermoBallester/dataprofiler/internal/core/domain"
	"github.com/guillermoBallester/dataprofiler/internal/core/service"
)

const (
	ruleWidth = 80
	maxCell   = 24
)

// Table writes aligned console output.
type Table struct{}

func (Table) Profile(w io.Writer, p *domain.TableProfile) error {
	fmt.Fprintln(w, strings.Repeat("=", ruleWidth))
	fmt.Fprintf(w, "  Data Profile: %s\n", p.TableName)
	fmt.Fprintf(w, "  Profiled at:  %s\n", p.ProfiledAt.UTC().Format(timeLayout))
	fmt.Fprintf(w, "  Row count:    %d\n", p.RowCount)
	fmt.Fprintln(w, strings.Repeat("=", ruleWidth))

	tw := newTabWriter(w)
	fmt.Fprintln(tw, "COLUMN\tTYPE\tNOT NULL\tDISTINCT\tUNIQUE\tMIN\tMAX\tAVG\tMEDIAN\tSTDDEV")
	for _, c := range p.Columns {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			c.ColumnName,
			c.DataType,
			orNA(float(c.NotNullProportion, 2)),
			orNA(float(c.DistinctProportion, 2)),
			yesNo(c.IsUnique),
			orNA(truncate(str(c.Min))),
			orNA(truncate(str(c.Max))),
			orNA(float(c.Avg, 4)),
			orNA(float(c.Median, 4)),
			orNA(float(c.StdDevPopulation, 4)),
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	for _, wn := range p.Warnings {
		fmt.Fprintf(w, "warning: %s %s: %s\n", wn.Column, wn.Statistic, wn.Message)
	}
	_, err := fmt.Fprintln(w)
	return err
}

func (Table) Diff(w io.Writer, d service.TableDrift) error {
	fmt.Fprintf(w, "Schema drift: %s\n", d.Table)
	if d.Error != "" {
		_, err := fmt.Fprintf(w, "  error: %s\n\n", d.Error)
		return err
	}

	tw := newTabWriter(w)
	fmt.Fprintln(tw, "COLUMN\tSTATE\tCHANGES")
	for _, c := range driftColumns(d) {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", c.Column, c.State, changeText(c.Changes))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	for _, l := range structuralLines(d.Diff) {
		fmt.Fprintf(w, "  %s\n", l)
	}
	_, err := fmt.Fprintln(w)
	return err
}

func (Table) Overflow(w io.Writer, forecasts []domain.OverflowForecast) error {
	tw := newTabWriter(w)
	fmt.Fprintln(tw, "TABLE\tCOLUMN\tTYPE\tCURRENT\tMAX\tUSAGE %\tDAILY GROWTH\tDAYS LEFT\tSTATUS")
	for _, f := range forecasts {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%.2f\t%s\t%s\t%s\n",
			f.Column.TableName,
			f.Column.ColumnName,
			f.Column.DataType,
			f.Column.CurrentValue,
			f.Column.MaxTypeValue,
			f.UsagePercentage,
			orNA(float(f.DailyGrowthRate, 2)),
			orNA(float(f.DaysUntilFull, 1)),
			f.AlertStatus,
		)
	}
	return tw.Flush()
}

func newTabWriter(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func yesNo(p *bool) string {
	switch {
	case p == nil:
		return "N/A"
	case *p:
		return "Yes"
	}
	return "No"
}

func truncate(s string) string {
	r := []rune(s)
	if len(r) <= maxCell {
		return s
	}
	return string(r[:maxCell-3]) + "..."
}
