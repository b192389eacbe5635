package report

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/guillermoBallester/dataprofiler/internal/core/domain"
	"github.com/guillermoBallester/dataprofiler/internal/core/service"
)

// CSV writes one record per column (profiles, drift) or per forecast,
// each call with its own header row.
type CSV struct{}

func (CSV) Profile(w io.Writer, p *domain.TableProfile) error {
	header := append([]string{"table_name"}, profileHeaders...)
	header = append(header, "row_count", "profiled_at")

	rows := make([][]string, 0, len(p.Columns))
	for _, c := range p.Columns {
		row := append([]string{p.TableName}, profileCells(c)...)
		row = append(row, strconv.FormatInt(c.RowCount, 10), c.ProfiledAt.UTC().Format(time.RFC3339))
		rows = append(rows, row)
	}
	return writeCSV(w, header, rows)
}

func (CSV) Diff(w io.Writer, d service.TableDrift) error {
	header := []string{"table_name", "column", "state", "changes", "error"}
	if d.Error != "" {
		return writeCSV(w, header, [][]string{{d.Table, "", "", "", d.Error}})
	}
	cols := driftColumns(d)
	rows := make([][]string, 0, len(cols))
	for _, c := range cols {
		rows = append(rows, []string{d.Table, c.Column, string(c.State), changeText(c.Changes), ""})
	}
	return writeCSV(w, header, rows)
}

func (CSV) Overflow(w io.Writer, forecasts []domain.OverflowForecast) error {
	rows := make([][]string, 0, len(forecasts))
	for _, f := range forecasts {
		rows = append(rows, overflowCells(f))
	}
	return writeCSV(w, overflowHeaders, rows)
}

func writeCSV(w io.Writer, header []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	return cw.Error()
}
