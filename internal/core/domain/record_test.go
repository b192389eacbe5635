package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var target = Target{Application: "billing", Environment: "prod", DatabaseHost: "db1", DatabaseName: "app", SchemaName: "public"}

func TestProfileRecords(t *testing.T) {
	t.Parallel()
	p := NewColumnProfile(ColumnMeta{Name: "id", DeclaredType: "integer"}, TypeNumeric, 10, now)
	p.ApplyCounts(10, 10)
	tp := &TableProfile{SchemaName: "public", TableName: "users", RowCount: 10, ProfiledAt: now, Columns: []ColumnProfile{p}}

	recs := ProfileRecords(target, tp)
	require.Len(t, recs, 1)
	assert.Equal(t, "billing", recs[0].Application)
	assert.Equal(t, "users", recs[0].TableName)
	assert.Equal(t, now, recs[0].ScanTime)
	assert.True(t, *recs[0].IsUnique)
	assert.Nil(t, recs[0].MinValue)
}

func TestOverflowRecords(t *testing.T) {
	t.Parallel()
	f := Forecast(AutoIncrementColumn{TableName: "users", ColumnName: "id", Source: "users_id_seq", CurrentValue: 31000, MaxTypeValue: 32767}, nil, now, 7)

	recs := OverflowRecords(target, []OverflowForecast{f})
	require.Len(t, recs, 1)
	assert.Equal(t, "CRITICAL", recs[0].AlertStatus)
	assert.Equal(t, "users_id_seq", recs[0].SequenceName)
	assert.Equal(t, int64(1767), recs[0].RemainingValues)
	assert.Nil(t, recs[0].DaysUntilFull)
}

func TestSchemaRecords(t *testing.T) {
	t.Parallel()
	s := usersSchema("varchar(100)", false)
	s.ExtractedAt = now
	s.Columns["org_id"] = ColumnSchema{Name: "org_id", DataType: "integer", Position: 4}
	s.ForeignKeys = []ForeignKeySchema{{Name: "fk_org", Columns: []string{"org_id"}, ReferencedTable: "orgs", ReferencedColumns: []string{"id"}}}

	recs := SchemaRecords(target, s)
	require.Len(t, recs, 4)

	assert.Equal(t, "id", recs[0].ColumnName)
	assert.True(t, recs[0].IsPrimaryKey)
	assert.True(t, recs[0].IsInIndex)
	assert.Equal(t, "users_pkey", recs[0].IndexNames)

	assert.Equal(t, "email", recs[1].ColumnName)
	assert.False(t, recs[1].IsInIndex)

	assert.Equal(t, "org_id", recs[3].ColumnName)
	assert.True(t, recs[3].IsForeignKey)
	assert.Equal(t, "orgs(id)", recs[3].FKReferences)
	assert.Equal(t, "db1", recs[3].DatabaseHost)
}
