package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/guillermoBallester/dataprofiler/internal/core/domain"
	"github.com/guillermoBallester/dataprofiler/internal/core/service"
)

const timeLayout = "2006-01-02 15:04:05"

// Markdown renders dbt-profiler style tables.
type Markdown struct{}

func (Markdown) Profile(w io.Writer, p *domain.TableProfile) error {
	var b strings.Builder
	fmt.Fprintf(&b, "# Data Profile: %s\n\n", p.TableName)
	fmt.Fprintf(&b, "**Profiled at:** %s\n", p.ProfiledAt.UTC().Format(timeLayout))
	fmt.Fprintf(&b, "**Row count:** %d\n\n", p.RowCount)

	mdRow(&b, profileHeaders)
	mdSeparator(&b, len(profileHeaders))
	for _, c := range p.Columns {
		mdRow(&b, profileCells(c))
	}

	if len(p.Warnings) > 0 {
		b.WriteString("\n## Warnings\n\n")
		for _, wn := range p.Warnings {
			fmt.Fprintf(&b, "- `%s`", wn.Column)
			if wn.Statistic != "" {
				fmt.Fprintf(&b, " %s", wn.Statistic)
			}
			fmt.Fprintf(&b, " (%s): %s\n", wn.Kind, wn.Message)
		}
	}
	b.WriteString("\n")
	_, err := io.WriteString(w, b.String())
	return err
}

func (Markdown) Diff(w io.Writer, d service.TableDrift) error {
	var b strings.Builder
	fmt.Fprintf(&b, "# Schema Drift: %s\n\n", d.Table)

	switch {
	case d.Error != "":
		fmt.Fprintf(&b, "**Error:** %s\n\n", d.Error)
	case d.Diff.IsEmpty():
		b.WriteString("No differences.\n\n")
	default:
		headers := []string{"column", "state", "changes"}
		mdRow(&b, headers)
		mdSeparator(&b, len(headers))
		for _, c := range driftColumns(d) {
			if c.State == domain.StateMatch {
				continue
			}
			mdRow(&b, []string{c.Column, string(c.State), changeText(c.Changes)})
		}
		if lines := structuralLines(d.Diff); len(lines) > 0 {
			b.WriteString("\n")
			for _, l := range lines {
				fmt.Fprintf(&b, "- %s\n", l)
			}
		}
		b.WriteString("\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func (Markdown) Overflow(w io.Writer, forecasts []domain.OverflowForecast) error {
	var b strings.Builder
	b.WriteString("# Auto-increment Overflow\n\n")
	if len(forecasts) == 0 {
		b.WriteString("No auto-increment columns found.\n\n")
	} else {
		mdRow(&b, overflowHeaders)
		mdSeparator(&b, len(overflowHeaders))
		for _, f := range forecasts {
			mdRow(&b, overflowCells(f))
		}
		b.WriteString("\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func mdRow(b *strings.Builder, cells []string) {
	escaped := make([]string, len(cells))
	for i, c := range cells {
		escaped[i] = strings.ReplaceAll(c, "|", `\|`)
	}
	b.WriteString("| " + strings.Join(escaped, " | ") + " |\n")
}

func mdSeparator(b *strings.Builder, n int) {
	b.WriteString("|" + strings.Repeat(" --- |", n) + "\n")
}
