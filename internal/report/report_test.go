package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guillermoBallester/dataprofiler/internal/core/domain"
	"github.com/guillermoBallester/dataprofiler/internal/core/service"
)

func ptr[T any](v T) *T { return &v }

func sampleProfile() *domain.TableProfile {
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	return &domain.TableProfile{
		SchemaName: "public",
		TableName:  "orders",
		RowCount:   100,
		ProfiledAt: at,
		Columns: []domain.ColumnProfile{
			{
				ColumnName: "id", DataType: "integer", RowCount: 100, ProfiledAt: at,
				NotNullProportion: ptr(1.0), DistinctProportion: ptr(1.0), DistinctCount: ptr(int64(100)),
				IsUnique: ptr(true), Min: ptr("1"), Max: ptr("100"), Avg: ptr(50.5), Median: ptr(50.5),
				StdDevPopulation: ptr(28.866), StdDevSample: ptr(29.011),
			},
			{
				ColumnName: "note", DataType: "text", RowCount: 100, ProfiledAt: at,
				NotNullProportion: ptr(0.25), DistinctProportion: ptr(0.2), DistinctCount: ptr(int64(5)),
				IsUnique: ptr(false), Min: ptr("a|b"),
			},
			{ColumnName: "payload", DataType: "bytea", RowCount: 100, ProfiledAt: at},
		},
		Warnings: []domain.ColumnWarning{
			{Column: "payload", Kind: domain.WarningUnsupportedType, Message: "type bytea is not profiled"},
		},
	}
}

func sampleDrift() service.TableDrift {
	diff := domain.SchemaDiff{
		TableName:    "orders",
		AddedColumns: []domain.ColumnSchema{{Name: "status", DataType: "text"}},
		ModifiedColumns: map[string][]domain.FieldChange{
			"total": {{Field: domain.FieldDataType, Before: "integer", After: "bigint"}},
		},
		PrimaryKey: &domain.PrimaryKeyChange{Before: []string{"id"}, After: []string{"id", "region"}},
		IndexDiffs: []domain.IndexDiff{{Kind: domain.DiffAdded, Index: domain.IndexSchema{Name: "idx_status", Columns: []string{"status"}}}},
	}
	return service.TableDrift{
		Table: "orders",
		Diff:  diff,
		Columns: []domain.ColumnStatus{
			{Column: "id", State: domain.StateMatch},
			{Column: "total", State: domain.StateModified, Changes: diff.ModifiedColumns["total"]},
			{Column: "status", State: domain.StateAdded},
		},
	}
}

func sampleForecasts() []domain.OverflowForecast {
	return []domain.OverflowForecast{{
		Column:          domain.AutoIncrementColumn{TableName: "orders", ColumnName: "id", DataType: "integer", Source: "orders_id_seq", CurrentValue: 2000000000, MaxTypeValue: 2147483647},
		UsagePercentage: 93.13,
		RemainingValues: 147483647,
		DailyGrowthRate: ptr(1000000.0),
		DaysUntilFull:   ptr(147.5),
		AlertStatus:     domain.AlertCritical,
		SamplesUsed:     7,
	}}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name string
		want Formatter
	}{
		{"", Markdown{}},
		{"markdown", Markdown{}},
		{"MD", Markdown{}},
		{"json", JSON{}},
		{"csv", CSV{}},
		{" table ", Table{}},
	}
	for _, tt := range tests {
		f, err := New(tt.name)
		require.NoError(t, err, tt.name)
		assert.IsType(t, tt.want, f)
	}

	_, err := New("xml")
	assert.ErrorContains(t, err, "unknown report format")
}

func TestMarkdown_Profile(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Markdown{}.Profile(&buf, sampleProfile()))
	out := buf.String()

	assert.Contains(t, out, "# Data Profile: orders")
	assert.Contains(t, out, "**Row count:** 100")
	assert.Contains(t, out, "| column_name | data_type | not_null_proportion |")
	assert.Contains(t, out, "| id | integer | 1.00 | 1.00 | 100 | 1 | 1 | 100 | 50.5000 | 50.5000 | 28.8660 | 29.0110 |")
	assert.Contains(t, out, `a\|b`, "pipes are escaped")
	assert.Contains(t, out, "| payload | bytea |  |  |  |  |  |  |  |  |  |  |", "absent statistics stay empty")
	assert.Contains(t, out, "## Warnings")
}

func TestMarkdown_Diff(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Markdown{}.Diff(&buf, sampleDrift()))
	out := buf.String()

	assert.Contains(t, out, "| total | modified | dataType: integer -> bigint |")
	assert.Contains(t, out, "| status | added |  |")
	assert.NotContains(t, out, "| id |", "matching columns are omitted")
	assert.Contains(t, out, "- primary key: (id) -> (id, region)")
	assert.Contains(t, out, "- index added: idx_status (status)")

	buf.Reset()
	require.NoError(t, Markdown{}.Diff(&buf, service.TableDrift{Table: "orders", Diff: domain.SchemaDiff{}}))
	assert.Contains(t, buf.String(), "No differences.")

	buf.Reset()
	require.NoError(t, Markdown{}.Diff(&buf, service.TableDrift{Table: "orders", Error: "prod: timeout"}))
	assert.Contains(t, buf.String(), "**Error:** prod: timeout")
}

func TestMarkdown_Overflow(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Markdown{}.Overflow(&buf, sampleForecasts()))
	assert.Contains(t, buf.String(), "| orders | id | integer | orders_id_seq | 2000000000 | 2147483647 | 93.13 | 147483647 | 1000000.00 | 147.5 | CRITICAL |")

	buf.Reset()
	require.NoError(t, Markdown{}.Overflow(&buf, nil))
	assert.Contains(t, buf.String(), "No auto-increment columns found.")
}

func TestJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, JSON{}.Profile(&buf, sampleProfile()))
	assert.Contains(t, buf.String(), "\n  \"table_name\": \"orders\"")

	var decoded domain.TableProfile
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Len(t, decoded.Columns, 3)
	payload, _ := decoded.Column("payload")
	assert.Nil(t, payload.Avg, "absent statistics stay null")

	buf.Reset()
	require.NoError(t, JSON{}.Overflow(&buf, nil))
	assert.Equal(t, "[]\n", buf.String())
}

func TestCSV_Profile(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, CSV{}.Profile(&buf, sampleProfile()))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, "table_name", records[0][0])
	assert.Equal(t, "profiled_at", records[0][len(records[0])-1])
	assert.Equal(t, []string{"orders", "id", "integer"}, records[1][:3])
	assert.Equal(t, "2025-03-01T12:00:00Z", records[1][len(records[1])-1])
	assert.Equal(t, "a|b", records[2][7])
}

func TestCSV_DiffAndOverflow(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, CSV{}.Diff(&buf, sampleDrift()))
	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, []string{"orders", "total", "modified", "dataType: integer -> bigint", ""}, records[2])

	buf.Reset()
	require.NoError(t, CSV{}.Overflow(&buf, sampleForecasts()))
	records, err = csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "CRITICAL", records[1][len(records[1])-1])
}

func TestTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Table{}.Profile(&buf, sampleProfile()))
	out := buf.String()
	assert.Contains(t, out, "Data Profile: orders")
	assert.Contains(t, out, "COLUMN")
	assert.Contains(t, out, "warning: payload")

	var payloadLine string
	for _, l := range strings.Split(out, "\n") {
		if strings.HasPrefix(l, "payload") {
			payloadLine = l
		}
	}
	assert.Contains(t, payloadLine, "N/A")

	buf.Reset()
	require.NoError(t, Table{}.Overflow(&buf, sampleForecasts()))
	assert.Contains(t, buf.String(), "CRITICAL")

	buf.Reset()
	require.NoError(t, Table{}.Diff(&buf, sampleDrift()))
	assert.Contains(t, buf.String(), "primary key: (id) -> (id, region)")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short"))
	long := strings.Repeat("é", 30)
	got := truncate(long)
	assert.Len(t, []rune(got), maxCell)
	assert.True(t, strings.HasSuffix(got, "..."))
}
