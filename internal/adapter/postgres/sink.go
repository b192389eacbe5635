package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/guillermoBallester/dataprofiler/internal/core/domain"
	"github.com/guillermoBallester/dataprofiler/internal/core/port"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const insertProfile = `
	INSERT INTO data_profiles (
		scan_time, application, environment, database_host, database_name,
		schema_name, table_name, column_name, data_type, row_count,
		not_null_proportion, distinct_proportion, distinct_count, is_unique,
		min_value, max_value, avg_value, median_value, std_dev_population, std_dev_sample
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`

const insertOverflow = `
	INSERT INTO auto_increment_metrics (
		scan_time, application, environment, database_host, database_name,
		schema_name, table_name, column_name, data_type, sequence_name,
		current_value, max_type_value, usage_percentage, remaining_values,
		daily_growth_rate, days_until_full, alert_status
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`

const insertSchema = `
	INSERT INTO schema_profiles (
		scan_time, application, environment, database_host, database_name,
		schema_name, table_name, column_name, column_position, data_type,
		is_nullable, column_default, max_length, numeric_precision, numeric_scale,
		is_primary_key, is_in_index, index_names, is_foreign_key, fk_references
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`

const queryGrowthHistory = `
	SELECT scan_time, current_value
	FROM auto_increment_metrics
	WHERE application = $1
		AND environment = $2
		AND database_host = $3
		AND database_name = $4
		AND schema_name = $5
		AND table_name = $6
		AND column_name = $7
		AND scan_time >= $8
	ORDER BY scan_time`

// MetricsStore is a port.MetricsSink backed by a PostgreSQL database.
type MetricsStore struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

var _ port.MetricsSink = (*MetricsStore)(nil)

func NewMetricsStore(pool *pgxpool.Pool, logger *slog.Logger) *MetricsStore {
	return &MetricsStore{pool: pool, logger: logger}
}

// OpenMetricsStore connects to databaseURL and returns a store owning the pool.
func OpenMetricsStore(ctx context.Context, databaseURL string, logger *slog.Logger) (*MetricsStore, error) {
	pool, err := NewPool(ctx, databaseURL, 0)
	if err != nil {
		return nil, fmt.Errorf("connecting metrics store: %w", err)
	}
	return NewMetricsStore(pool, logger), nil
}

// Migrate applies the embedded migrations. It is safe to call on every start.
func (s *MetricsStore) Migrate(ctx context.Context) error {
	db := stdlib.OpenDBFromPool(s.pool)
	driver, err := migratepgx.WithInstance(db, &migratepgx.Config{})
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("creating migration driver: %w", err)
	}
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("opening embedded migrations: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "pgx5", driver)
	if err != nil {
		return fmt.Errorf("creating migration instance: %w", err)
	}
	defer func() {
		srcErr, dbErr := m.Close()
		if srcErr != nil {
			s.logger.WarnContext(ctx, "closing migration source failed", slog.String("error", srcErr.Error()))
		}
		if dbErr != nil {
			s.logger.WarnContext(ctx, "closing migration database failed", slog.String("error", dbErr.Error()))
		}
	}()

	err = m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		s.logger.InfoContext(ctx, "metrics store up to date")
		return nil
	}
	if err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	version, _, _ := m.Version()
	s.logger.InfoContext(ctx, "metrics store migrated", slog.Uint64("version", uint64(version)))
	return nil
}

func (s *MetricsStore) WriteProfile(ctx context.Context, target domain.Target, profile *domain.TableProfile) error {
	batch := &pgx.Batch{}
	for _, r := range domain.ProfileRecords(target, profile) {
		batch.Queue(insertProfile,
			r.ScanTime, r.Application, r.Environment, r.DatabaseHost, r.DatabaseName,
			r.SchemaName, r.TableName, r.ColumnName, r.DataType, r.RowCount,
			r.NotNullProportion, r.DistinctProportion, r.DistinctCount, r.IsUnique,
			r.MinValue, r.MaxValue, r.AvgValue, r.MedianValue, r.StdDevPopulation, r.StdDevSample,
		)
	}
	return s.send(ctx, batch, "data_profiles")
}

func (s *MetricsStore) WriteOverflow(ctx context.Context, target domain.Target, forecasts []domain.OverflowForecast) error {
	batch := &pgx.Batch{}
	for _, r := range domain.OverflowRecords(target, forecasts) {
		batch.Queue(insertOverflow,
			r.ScanTime, r.Application, r.Environment, r.DatabaseHost, r.DatabaseName,
			r.SchemaName, r.TableName, r.ColumnName, r.DataType, r.SequenceName,
			r.CurrentValue, r.MaxTypeValue, r.UsagePercentage, r.RemainingValues,
			r.DailyGrowthRate, r.DaysUntilFull, r.AlertStatus,
		)
	}
	return s.send(ctx, batch, "auto_increment_metrics")
}

func (s *MetricsStore) WriteSchema(ctx context.Context, target domain.Target, schema *domain.TableSchema) error {
	batch := &pgx.Batch{}
	for _, r := range domain.SchemaRecords(target, schema) {
		batch.Queue(insertSchema,
			r.ScanTime, r.Application, r.Environment, r.DatabaseHost, r.DatabaseName,
			r.SchemaName, r.TableName, r.ColumnName, r.ColumnPosition, r.DataType,
			r.IsNullable, r.ColumnDefault, r.MaxLength, r.Precision, r.Scale,
			r.IsPrimaryKey, r.IsInIndex, r.IndexNames, r.IsForeignKey, r.FKReferences,
		)
	}
	return s.send(ctx, batch, "schema_profiles")
}

func (s *MetricsStore) GrowthHistory(ctx context.Context, target domain.Target, table, column string, since time.Time) ([]domain.GrowthSample, error) {
	rows, err := s.pool.Query(ctx, queryGrowthHistory,
		target.Application, target.Environment, target.DatabaseHost, target.DatabaseName,
		target.SchemaName, table, column, since,
	)
	if err != nil {
		return nil, fmt.Errorf("querying growth history: %w", err)
	}
	defer rows.Close()

	var out []domain.GrowthSample
	for rows.Next() {
		var g domain.GrowthSample
		if err := rows.Scan(&g.Timestamp, &g.Value); err != nil {
			return nil, fmt.Errorf("scanning growth sample: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (s *MetricsStore) Close() error {
	s.pool.Close()
	return nil
}

// send runs a queued batch in one round trip. An empty batch is a no-op.
func (s *MetricsStore) send(ctx context.Context, batch *pgx.Batch, table string) error {
	if batch.Len() == 0 {
		return nil
	}
	n := batch.Len()
	if err := s.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("inserting into %s: %w", table, err)
	}
	s.logger.DebugContext(ctx, "metrics stored", slog.String("table", table), slog.Int("rows", n))
	return nil
}
