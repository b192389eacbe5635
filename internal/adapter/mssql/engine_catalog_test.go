package mssql

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guillermoBallester/dataprofiler/internal/core/domain"
	"github.com/guillermoBallester/dataprofiler/internal/core/port"
)

func newMockEngine(t *testing.T) (*Engine, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	target := domain.Target{DatabaseHost: "db.internal", DatabaseName: "sales"}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewEngine(db, target, port.EngineOptions{QueryTimeout: time.Second}, logger), mock
}

func TestEngine_ExtractSchema(t *testing.T) {
	e, mock := newMockEngine(t)

	mock.ExpectQuery(querySchemaColumns).WillReturnRows(
		sqlmock.NewRows([]string{"name", "type", "nullable", "default", "len", "precision", "scale", "position"}).
			AddRow("id", "int", "NO", nil, nil, int64(10), int64(0), int64(1)).
			AddRow("customer_id", "int", "NO", nil, nil, int64(10), int64(0), int64(2)).
			AddRow("email", "nvarchar", "YES", nil, int64(255), nil, nil, int64(3)).
			AddRow("notes", "nvarchar", "YES", nil, int64(-1), nil, nil, int64(4)).
			AddRow("total", "decimal", "NO", "((0))", nil, int64(10), int64(2), int64(5)),
	)
	mock.ExpectQuery(queryPrimaryKey).WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("id"))
	mock.ExpectQuery(queryIndexes).WillReturnRows(
		sqlmock.NewRows([]string{"index", "column", "unique", "type"}).
			AddRow("ix_orders_customer_email", "customer_id", "NO", "NONCLUSTERED").
			AddRow("ix_orders_customer_email", "email", "NO", "NONCLUSTERED").
			AddRow("ux_orders_email", "email", "YES", "NONCLUSTERED"),
	)
	mock.ExpectQuery(queryForeignKeys).WillReturnRows(
		sqlmock.NewRows([]string{"name", "column", "ref_table", "ref_column", "on_delete", "on_update"}).
			AddRow("fk_orders_customer", "customer_id", "customers", "id", "CASCADE", "NO_ACTION"),
	)
	mock.ExpectQuery(queryCheckConstraints).WillReturnRows(
		sqlmock.NewRows([]string{"name", "definition"}).AddRow("ck_orders_total", "([total]>=(0))"),
	)

	s, err := e.ExtractSchema(context.Background(), "", "orders")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	assert.Equal(t, "dbo", s.SchemaName)
	assert.Equal(t, "db.internal", s.DatabaseHost)
	assert.Equal(t, "sales", s.DatabaseName)
	assert.Equal(t, []string{"id"}, s.PrimaryKey)

	require.Len(t, s.Columns, 5)
	assert.Equal(t, "int", s.Columns["id"].DataType)
	assert.Equal(t, "nvarchar(255)", s.Columns["email"].DataType)
	assert.True(t, s.Columns["email"].Nullable)
	assert.Equal(t, "nvarchar(max)", s.Columns["notes"].DataType)
	assert.Equal(t, "decimal(10,2)", s.Columns["total"].DataType)
	require.NotNil(t, s.Columns["total"].DefaultValue)
	assert.Equal(t, "((0))", *s.Columns["total"].DefaultValue)

	assert.Equal(t, []domain.IndexSchema{
		{Name: "ix_orders_customer_email", Columns: []string{"customer_id", "email"}, IndexType: "NONCLUSTERED"},
		{Name: "ux_orders_email", Columns: []string{"email"}, IsUnique: true, IndexType: "NONCLUSTERED"},
	}, s.Indexes)

	require.Len(t, s.ForeignKeys, 1)
	fk := s.ForeignKeys[0]
	assert.Equal(t, []string{"customer_id"}, fk.Columns)
	assert.Equal(t, "customers", fk.ReferencedTable)
	assert.Equal(t, []string{"id"}, fk.ReferencedColumns)
	assert.Equal(t, "CASCADE", fk.OnDelete)
	assert.Equal(t, "NO ACTION", fk.OnUpdate)

	require.Len(t, s.CheckConstraints, 1)
	assert.Equal(t, "ck_orders_total", s.CheckConstraints[0].Name)
}

func TestEngine_ExtractSchemaMissingTable(t *testing.T) {
	e, mock := newMockEngine(t)
	mock.ExpectQuery(querySchemaColumns).WillReturnRows(
		sqlmock.NewRows([]string{"name", "type", "nullable", "default", "len", "precision", "scale", "position"}),
	)

	_, err := e.ExtractSchema(context.Background(), "dbo", "nope")
	assert.True(t, domain.IsTableNotFound(err))
}

func TestEngine_ExtractSchemaCheckFailureIsFatal(t *testing.T) {
	e, mock := newMockEngine(t)
	mock.ExpectQuery(querySchemaColumns).WillReturnRows(
		sqlmock.NewRows([]string{"name", "type", "nullable", "default", "len", "precision", "scale", "position"}).
			AddRow("id", "int", "NO", nil, nil, int64(10), int64(0), int64(1)),
	)
	mock.ExpectQuery(queryPrimaryKey).WillReturnRows(sqlmock.NewRows([]string{"name"}))
	mock.ExpectQuery(queryIndexes).WillReturnRows(sqlmock.NewRows([]string{"index", "column", "unique", "type"}))
	mock.ExpectQuery(queryForeignKeys).WillReturnRows(
		sqlmock.NewRows([]string{"name", "column", "ref_table", "ref_column", "on_delete", "on_update"}),
	)
	mock.ExpectQuery(queryCheckConstraints).WillReturnError(errors.New("permission denied"))

	_, err := e.ExtractSchema(context.Background(), "dbo", "orders")
	var se *domain.SchemaExtractionError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "check constraints", se.Op)
}

func TestEngine_DetectAutoIncrement(t *testing.T) {
	identity := func() *sqlmock.Rows {
		return sqlmock.NewRows([]string{"name", "type"}).AddRow("id", "int")
	}

	tests := []struct {
		name    string
		current func(*sqlmock.ExpectedQuery)
		want    []domain.AutoIncrementColumn
	}{
		{
			name: "value read",
			current: func(q *sqlmock.ExpectedQuery) {
				q.WillReturnRows(sqlmock.NewRows([]string{"current"}).AddRow(int64(41)))
			},
			want: []domain.AutoIncrementColumn{{
				TableName: "orders", ColumnName: "id", DataType: "int", Source: "dbo.orders",
				CurrentValue: 41, MaxTypeValue: 2147483647,
			}},
		},
		{
			name: "null value is left out",
			current: func(q *sqlmock.ExpectedQuery) {
				q.WillReturnRows(sqlmock.NewRows([]string{"current"}).AddRow(nil))
			},
			want: []domain.AutoIncrementColumn{},
		},
		{
			name: "read error is left out",
			current: func(q *sqlmock.ExpectedQuery) {
				q.WillReturnError(errors.New("VIEW DEFINITION permission denied"))
			},
			want: []domain.AutoIncrementColumn{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, mock := newMockEngine(t)
			mock.ExpectQuery(queryIdentityColumns).WillReturnRows(identity())
			tt.current(mock.ExpectQuery(queryIdentCurrent))

			got, err := e.DetectAutoIncrement(context.Background(), "", "orders")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestEngine_DetectAutoIncrementQueryFailure(t *testing.T) {
	e, mock := newMockEngine(t)
	mock.ExpectQuery(queryIdentityColumns).WillReturnError(errors.New("connection reset"))

	_, err := e.DetectAutoIncrement(context.Background(), "dbo", "orders")
	assert.ErrorContains(t, err, "querying identity columns")
}
