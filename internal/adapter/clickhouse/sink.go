// Package clickhouse stores profiling results in ClickHouse MergeTree tables.
package clickhouse

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/guillermoBallester/dataprofiler/internal/core/domain"
	"github.com/guillermoBallester/dataprofiler/internal/core/port"
)

// Options addresses the ClickHouse server.
type Options struct {
	Addr     string
	Database string
	Username string
	Password string
}

// Sink is a port.MetricsSink over a native ClickHouse connection.
type Sink struct {
	conn   driver.Conn
	logger *slog.Logger
}

var _ port.MetricsSink = (*Sink)(nil)

func NewSink(conn driver.Conn, logger *slog.Logger) *Sink {
	return &Sink{conn: conn, logger: logger}
}

// Open dials the server and pings it within 10s.
func Open(ctx context.Context, opts Options, logger *slog.Logger) (*Sink, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{opts.Addr},
		Auth: clickhouse.Auth{
			Database: opts.Database,
			Username: opts.Username,
			Password: opts.Password,
		},
		Settings:        clickhouse.Settings{"max_execution_time": 60},
		DialTimeout:     10 * time.Second,
		MaxOpenConns:    4,
		ConnMaxLifetime: time.Hour,
	})
	if err != nil {
		return nil, fmt.Errorf("opening clickhouse connection: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := conn.Ping(pingCtx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("pinging clickhouse at %s: %w", opts.Addr, err)
	}
	return NewSink(conn, logger), nil
}

// Migrate creates the result tables if they are missing.
func (s *Sink) Migrate(ctx context.Context) error {
	for _, ddl := range createTables {
		if err := s.conn.Exec(ctx, ddl); err != nil {
			return fmt.Errorf("creating clickhouse table: %w", err)
		}
	}
	s.logger.InfoContext(ctx, "clickhouse tables ready", slog.Int("tables", len(createTables)))
	return nil
}

func (s *Sink) WriteProfile(ctx context.Context, target domain.Target, profile *domain.TableProfile) error {
	records := domain.ProfileRecords(target, profile)
	rows := make([][]any, 0, len(records))
	for _, r := range records {
		rows = append(rows, []any{
			r.ScanTime, r.Application, r.Environment, r.DatabaseHost, r.DatabaseName,
			r.SchemaName, r.TableName, r.ColumnName, r.DataType, r.RowCount,
			r.NotNullProportion, r.DistinctProportion, r.DistinctCount, r.IsUnique,
			r.MinValue, r.MaxValue, r.AvgValue, r.MedianValue, r.StdDevPopulation, r.StdDevSample,
		})
	}
	return s.insert(ctx, insertProfile, "data_profiles", rows)
}

func (s *Sink) WriteOverflow(ctx context.Context, target domain.Target, forecasts []domain.OverflowForecast) error {
	records := domain.OverflowRecords(target, forecasts)
	rows := make([][]any, 0, len(records))
	for _, r := range records {
		rows = append(rows, []any{
			r.ScanTime, r.Application, r.Environment, r.DatabaseHost, r.DatabaseName,
			r.SchemaName, r.TableName, r.ColumnName, r.DataType, r.SequenceName,
			r.CurrentValue, r.MaxTypeValue, r.UsagePercentage, r.RemainingValues,
			r.DailyGrowthRate, r.DaysUntilFull, r.AlertStatus,
		})
	}
	return s.insert(ctx, insertOverflow, "auto_increment_metrics", rows)
}

func (s *Sink) WriteSchema(ctx context.Context, target domain.Target, schema *domain.TableSchema) error {
	records := domain.SchemaRecords(target, schema)
	rows := make([][]any, 0, len(records))
	for _, r := range records {
		rows = append(rows, []any{
			r.ScanTime, r.Application, r.Environment, r.DatabaseHost, r.DatabaseName,
			r.SchemaName, r.TableName, r.ColumnName, int32(r.ColumnPosition), r.DataType,
			r.IsNullable, r.ColumnDefault, r.MaxLength, r.Precision, r.Scale,
			r.IsPrimaryKey, r.IsInIndex, r.IndexNames, r.IsForeignKey, r.FKReferences,
		})
	}
	return s.insert(ctx, insertSchema, "schema_profiles", rows)
}

func (s *Sink) GrowthHistory(ctx context.Context, target domain.Target, table, column string, since time.Time) ([]domain.GrowthSample, error) {
	rows, err := s.conn.Query(ctx, queryGrowthHistory,
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

func (s *Sink) Close() error { return s.conn.Close() }

// insert sends rows as one native batch. No rows means no round trip.
func (s *Sink) insert(ctx context.Context, query, table string, rows [][]any) error {
	if len(rows) == 0 {
		return nil
	}
	batch, err := s.conn.PrepareBatch(ctx, query)
	if err != nil {
		return fmt.Errorf("preparing batch for %s: %w", table, err)
	}
	for _, row := range rows {
		if err := batch.Append(row...); err != nil {
			_ = batch.Abort()
			return fmt.Errorf("appending to %s: %w", table, err)
		}
	}
	if err := batch.Send(); err != nil {
		return fmt.Errorf("sending batch to %s: %w", table, err)
	}
	s.logger.DebugContext(ctx, "metrics stored", slog.String("table", table), slog.Int("rows", len(rows)))
	return nil
}
