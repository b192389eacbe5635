package postgres_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/guillermoBallester/dataprofiler/internal/adapter/postgres"
	"github.com/guillermoBallester/dataprofiler/internal/core/domain"
	"github.com/guillermoBallester/dataprofiler/internal/core/service"
)

const testSchema = `
	CREATE TABLE categories (
		id   SERIAL PRIMARY KEY,
		name TEXT NOT NULL UNIQUE
	);

	CREATE TABLE products (
		id          SERIAL PRIMARY KEY,
		category_id INTEGER NOT NULL REFERENCES categories(id) ON DELETE CASCADE,
		name        TEXT NOT NULL,
		status      TEXT NOT NULL CHECK (status IN ('active', 'inactive', 'discontinued')),
		price       NUMERIC(10,2) NOT NULL DEFAULT 0,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
		deleted_at  TIMESTAMPTZ,
		metadata    JSONB
	);
	CREATE INDEX idx_products_category ON products(category_id);
	CREATE INDEX idx_products_status_created ON products(status, created_at);

	CREATE TABLE events (
		id      BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
		payload TEXT
	);

	CREATE TABLE tiny (
		id   SMALLSERIAL PRIMARY KEY,
		note TEXT
	);

	INSERT INTO categories (name) VALUES ('Electronics'), ('Books'), ('Clothing');

	INSERT INTO products (category_id, name, status, price, created_at)
	SELECT
		(i % 3) + 1,
		'Product ' || i,
		CASE (i % 5)
			WHEN 0 THEN 'inactive'
			WHEN 4 THEN 'discontinued'
			ELSE 'active'
		END,
		i::numeric(10,2),
		timestamptz '2025-01-01 00:00:00+00' + (i || ' days')::interval
	FROM generate_series(1, 100) AS i;

	INSERT INTO tiny (note) SELECT 'n' || i FROM generate_series(1, 30000) AS i;
`

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("testdb"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := postgres.NewPool(ctx, connStr, 30*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })

	_, err = pool.Exec(ctx, testSchema)
	require.NoError(t, err)

	return pool
}

func TestEngine_ListTablesAndColumns(t *testing.T) {
	pool := setupDB(t)
	engine := postgres.NewEngine(pool, testLogger())
	ctx := context.Background()

	tables, err := engine.ListTables(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"categories", "events", "products", "tiny"}, tables)

	cols, err := engine.ListColumns(ctx, "public", "products")
	require.NoError(t, err)
	require.Len(t, cols, 8)
	assert.Equal(t, "id", cols[0].Name)
	assert.Equal(t, "numeric(10,2)", cols[4].DeclaredType)
	assert.Equal(t, "timestamp with time zone", cols[5].DeclaredType)
	assert.True(t, cols[6].Nullable)
	assert.False(t, cols[1].Nullable)

	assert.Equal(t, "testdb", engine.Target().DatabaseName)
	assert.Equal(t, "public", engine.Target().SchemaName)
}

func TestEngine_ProfileProducts(t *testing.T) {
	pool := setupDB(t)
	engine := postgres.NewEngine(pool, testLogger())
	ctx := context.Background()

	cols, err := engine.ListColumns(ctx, "public", "products")
	require.NoError(t, err)

	metrics := service.NewMetricsEngine(engine, engine.Capabilities(), domain.NewPgQueryValidator(), testLogger())
	tp, err := metrics.ProfileTable(ctx, "public", "products", cols)
	require.NoError(t, err)

	assert.Equal(t, int64(100), tp.RowCount)
	assert.False(t, tp.Degraded(), "warnings: %+v", tp.Warnings)

	id, ok := tp.Column("id")
	require.True(t, ok)
	assert.True(t, *id.IsUnique)
	assert.Equal(t, "1", *id.Min)
	assert.Equal(t, "100", *id.Max)
	assert.InDelta(t, 50.5, *id.Avg, 1e-9)
	assert.InDelta(t, 50.5, *id.Median, 1e-9)

	status, ok := tp.Column("status")
	require.True(t, ok)
	assert.Equal(t, int64(3), *status.DistinctCount)
	assert.Nil(t, status.Min)
	assert.Equal(t, domain.CardinalityEnumLike, status.Cardinality)

	deleted, ok := tp.Column("deleted_at")
	require.True(t, ok)
	assert.InDelta(t, 0.0, *deleted.NotNullProportion, 1e-9)
	assert.Nil(t, deleted.Min)

	created, ok := tp.Column("created_at")
	require.True(t, ok)
	require.NotNil(t, created.Min)
	assert.Contains(t, *created.Min, "2025-01-02")
	assert.Nil(t, created.Avg)
}

func TestEngine_ExtractSchema(t *testing.T) {
	pool := setupDB(t)
	engine := postgres.NewEngine(pool, testLogger())
	ctx := context.Background()

	s, err := engine.ExtractSchema(ctx, "public", "products")
	require.NoError(t, err)

	assert.Equal(t, []string{"id"}, s.PrimaryKey)
	require.Len(t, s.Columns, 8)
	price := s.Columns["price"]
	assert.Equal(t, "numeric(10,2)", price.DataType)
	require.NotNil(t, price.Precision)
	assert.Equal(t, int64(10), *price.Precision)
	require.NotNil(t, price.DefaultValue)

	require.Len(t, s.Indexes, 2)
	assert.Equal(t, "idx_products_category", s.Indexes[0].Name)
	assert.Equal(t, []string{"status", "created_at"}, s.Indexes[1].Columns)
	assert.Equal(t, "btree", s.Indexes[1].IndexType)

	require.Len(t, s.ForeignKeys, 1)
	fk := s.ForeignKeys[0]
	assert.Equal(t, []string{"category_id"}, fk.Columns)
	assert.Equal(t, "categories", fk.ReferencedTable)
	assert.Equal(t, []string{"id"}, fk.ReferencedColumns)
	assert.Equal(t, "CASCADE", fk.OnDelete)
	assert.Equal(t, "NO ACTION", fk.OnUpdate)

	require.Len(t, s.CheckConstraints, 1)
	assert.Contains(t, s.CheckConstraints[0].Expression, "status")

	again, err := engine.ExtractSchema(ctx, "public", "products")
	require.NoError(t, err)
	assert.True(t, domain.Comparator{Strict: true}.Compare(s, again).IsEmpty())
}

func TestEngine_ExtractSchemaMissingTable(t *testing.T) {
	pool := setupDB(t)
	engine := postgres.NewEngine(pool, testLogger())

	_, err := engine.ExtractSchema(context.Background(), "public", "nope")
	assert.True(t, domain.IsTableNotFound(err))
}

func TestEngine_DetectAutoIncrement(t *testing.T) {
	pool := setupDB(t)
	engine := postgres.NewEngine(pool, testLogger())
	ctx := context.Background()

	tiny, err := engine.DetectAutoIncrement(ctx, "public", "tiny")
	require.NoError(t, err)
	require.Len(t, tiny, 1)
	assert.Equal(t, "id", tiny[0].ColumnName)
	assert.Equal(t, int64(30000), tiny[0].CurrentValue)
	assert.Equal(t, int64(32767), tiny[0].MaxTypeValue)
	assert.Contains(t, tiny[0].Source, "tiny_id_seq")

	f := domain.Forecast(tiny[0], nil, time.Now(), 7)
	assert.Equal(t, domain.AlertCritical, f.AlertStatus)

	// Identity sequence never advanced reads as zero.
	events, err := engine.DetectAutoIncrement(ctx, "public", "events")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Zero(t, events[0].CurrentValue)
	assert.Equal(t, int64(9223372036854775807), events[0].MaxTypeValue)
}

func TestEngine_DetectAutoIncrementSkipsUnreadableSequence(t *testing.T) {
	pool := setupDB(t)
	ctx := context.Background()

	_, err := pool.Exec(ctx, `
		CREATE TABLE counters (id SERIAL PRIMARY KEY, ticket BIGSERIAL);
		INSERT INTO counters DEFAULT VALUES;
		INSERT INTO counters DEFAULT VALUES;
		CREATE ROLE limited LOGIN PASSWORD 'limited';
		GRANT USAGE ON SCHEMA public TO limited;
		GRANT SELECT ON counters TO limited;
		GRANT SELECT ON SEQUENCE counters_id_seq TO limited;
	`)
	require.NoError(t, err)

	cfg := pool.Config()
	cfg.ConnConfig.User = "limited"
	cfg.ConnConfig.Password = "limited"
	limited, err := pgxpool.NewWithConfig(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(limited.Close)

	engine := postgres.NewEngine(limited, testLogger())
	cols, err := engine.DetectAutoIncrement(ctx, "", "counters")
	require.NoError(t, err)
	require.Len(t, cols, 1, "ticket's sequence is not readable and is left out")
	assert.Equal(t, "id", cols[0].ColumnName)
	assert.Equal(t, int64(2), cols[0].CurrentValue)
}

func TestMetricsStore_RoundTrip(t *testing.T) {
	pool := setupDB(t)
	store := postgres.NewMetricsStore(pool, testLogger())
	ctx := context.Background()

	require.NoError(t, store.Migrate(ctx))
	require.NoError(t, store.Migrate(ctx), "second migrate is a no-op")

	target := domain.Target{Application: "shop", Environment: "test", DatabaseHost: "h", DatabaseName: "d", SchemaName: "public"}
	col := domain.AutoIncrementColumn{TableName: "orders", ColumnName: "id", DataType: "integer", Source: "orders_id_seq", MaxTypeValue: 1000}

	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := range 3 {
		col.CurrentValue = int64(100 * (i + 1))
		f := domain.Forecast(col, nil, base.AddDate(0, 0, i), 7)
		require.NoError(t, store.WriteOverflow(ctx, target, []domain.OverflowForecast{f}))
	}

	history, err := store.GrowthHistory(ctx, target, "orders", "id", base.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, int64(200), history[0].Value)
	assert.Equal(t, int64(300), history[1].Value)

	other := target
	other.Environment = "prod"
	none, err := store.GrowthHistory(ctx, other, "orders", "id", base)
	require.NoError(t, err)
	assert.Empty(t, none)

	engine := postgres.NewEngine(pool, testLogger())
	s, err := engine.ExtractSchema(ctx, "public", "products")
	require.NoError(t, err)
	require.NoError(t, store.WriteSchema(ctx, target, s))

	var n int
	require.NoError(t, pool.QueryRow(ctx, "SELECT count(*) FROM schema_profiles").Scan(&n))
	assert.Equal(t, 8, n)
}
