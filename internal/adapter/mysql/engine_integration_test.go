package mysql_test

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcmysql "github.com/testcontainers/testcontainers-go/modules/mysql"

	"github.com/guillermoBallester/dataprofiler/internal/adapter/mysql"
	"github.com/guillermoBallester/dataprofiler/internal/core/domain"
	"github.com/guillermoBallester/dataprofiler/internal/core/port"
)

var testSchema = []string{
	`CREATE TABLE users (
		id    INT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		email VARCHAR(255) NOT NULL,
		UNIQUE KEY uq_email (email)
	)`,
	`CREATE TABLE orders (
		id      INT AUTO_INCREMENT PRIMARY KEY,
		user_id INT UNSIGNED NULL,
		total   DECIMAL(10,2) NOT NULL DEFAULT 0,
		KEY ix_user_total (user_id, total),
		CONSTRAINT fk_orders_user FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE SET NULL,
		CONSTRAINT ck_orders_total CHECK (total >= 0)
	)`,
	`INSERT INTO users (email) VALUES ('a@example.com'), ('b@example.com'), ('c@example.com')`,
}

func setupEngine(t *testing.T) port.Engine {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx := context.Background()

	container, err := tcmysql.Run(ctx, "mysql:8.0.36",
		tcmysql.WithDatabase("shop"),
		tcmysql.WithUsername("test"),
		tcmysql.WithPassword("test"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	dsn, err := container.ConnectionString(ctx)
	require.NoError(t, err)

	db, err := sql.Open("mysql", dsn)
	require.NoError(t, err)
	defer db.Close()
	for _, stmt := range testSchema {
		_, err := db.ExecContext(ctx, stmt)
		require.NoError(t, err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	engine, err := mysql.Open(ctx, dsn, port.EngineOptions{QueryTimeout: 30 * time.Second}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = engine.Close() })
	return engine
}

func TestEngine_Integration(t *testing.T) {
	engine := setupEngine(t)
	ctx := context.Background()

	t.Run("list", func(t *testing.T) {
		tables, err := engine.ListTables(ctx, "")
		require.NoError(t, err)
		assert.Equal(t, []string{"orders", "users"}, tables)
	})

	t.Run("extract schema", func(t *testing.T) {
		s, err := engine.ExtractSchema(ctx, "", "orders")
		require.NoError(t, err)

		assert.Equal(t, "shop", s.SchemaName)
		assert.Equal(t, []string{"id"}, s.PrimaryKey)
		assert.Equal(t, "decimal(10,2)", s.Columns["total"].DataType)
		assert.Equal(t, "int unsigned", s.Columns["user_id"].DataType)
		assert.True(t, s.Columns["user_id"].Nullable)

		require.Len(t, s.Indexes, 1)
		assert.Equal(t, "ix_user_total", s.Indexes[0].Name)
		assert.Equal(t, []string{"user_id", "total"}, s.Indexes[0].Columns)

		require.Len(t, s.ForeignKeys, 1)
		assert.Equal(t, "users", s.ForeignKeys[0].ReferencedTable)
		assert.Equal(t, "SET NULL", s.ForeignKeys[0].OnDelete)

		require.Len(t, s.CheckConstraints, 1)
		assert.Equal(t, "ck_orders_total", s.CheckConstraints[0].Name)
	})

	t.Run("detect auto increment", func(t *testing.T) {
		cols, err := engine.DetectAutoIncrement(ctx, "", "users")
		require.NoError(t, err)
		require.Len(t, cols, 1)
		assert.Equal(t, int64(3), cols[0].CurrentValue)
		assert.Equal(t, int64(4294967295), cols[0].MaxTypeValue)

		f := domain.Forecast(cols[0], nil, time.Now(), 7)
		assert.Equal(t, domain.AlertOK, f.AlertStatus)
	})
}
