package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColumnProfile_ApplyCounts(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name        string
		rows        int64
		notNull     int64
		distinct    int64
		wantUnique  bool
		wantNotNull float64
		wantDist    float64
	}{
		{"primary key", 100, 100, 100, true, 1, 1},
		{"nullable distinct values", 100, 80, 80, false, 0.8, 0.8},
		{"repeated values", 4, 4, 2, false, 1, 0.5},
		{"all null", 10, 0, 0, false, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p := NewColumnProfile(ColumnMeta{Name: "c", DeclaredType: "int"}, TypeNumeric, tt.rows, now)
			p.ApplyCounts(tt.notNull, tt.distinct)

			require.NotNil(t, p.IsUnique)
			assert.Equal(t, tt.wantUnique, *p.IsUnique)
			assert.Equal(t, tt.wantUnique, *p.DistinctCount == p.RowCount)
			assert.InDelta(t, tt.wantNotNull, *p.NotNullProportion, 1e-9)
			assert.InDelta(t, tt.wantDist, *p.DistinctProportion, 1e-9)
		})
	}
}

func TestColumnProfile_ApplyCounts_EmptyTable(t *testing.T) {
	t.Parallel()
	p := NewColumnProfile(ColumnMeta{Name: "c", DeclaredType: "int"}, TypeNumeric, 0, now)
	p.ApplyCounts(0, 0)

	assert.Nil(t, p.NotNullProportion)
	assert.Nil(t, p.DistinctProportion)
	assert.Nil(t, p.DistinctCount)
	assert.Nil(t, p.IsUnique)
	assert.Empty(t, p.Cardinality)
}

func TestTableProfile_Helpers(t *testing.T) {
	t.Parallel()
	tp := &TableProfile{
		Columns: []ColumnProfile{{ColumnName: "id"}, {ColumnName: "email"}},
		Warnings: []ColumnWarning{
			{Column: "payload", Kind: WarningUnsupportedType},
		},
	}
	_, ok := tp.Column("email")
	assert.True(t, ok)
	_, ok = tp.Column("missing")
	assert.False(t, ok)
	assert.False(t, tp.Degraded())

	tp.Warnings = append(tp.Warnings, ColumnWarning{Column: "id", Statistic: "median", Kind: WarningPartialStatistic})
	assert.True(t, tp.Degraded())
}

func TestErrors(t *testing.T) {
	t.Parallel()
	nf := &TableNotFoundError{Schema: "public", Table: "ghost"}
	assert.ErrorIs(t, nf, ErrNotFound)
	assert.True(t, IsTableNotFound(nf))
	assert.Equal(t, "table public.ghost not found", nf.Error())

	ce := &ConnectionError{Op: "row count", Err: assert.AnError}
	assert.ErrorIs(t, ce, assert.AnError)

	se := &SchemaExtractionError{Table: "users", Op: "indexes", Err: assert.AnError}
	assert.ErrorIs(t, se, assert.AnError)
	assert.False(t, IsTableNotFound(se))
}
