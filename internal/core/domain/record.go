package domain

import (
	"strings"
	"time"
)

// Target identifies where a run's results belong in the metrics store.
type Target struct {
	Application  string `json:"application"`
	Environment  string `json:"environment"`
	DatabaseHost string `json:"database_host"`
	DatabaseName string `json:"database_name"`
	SchemaName   string `json:"schema_name"`
}

// ProfileRecord is one stored row of data_profiles.
type ProfileRecord struct {
	ScanTime           time.Time
	Application        string
	Environment        string
	DatabaseHost       string
	DatabaseName       string
	SchemaName         string
	TableName          string
	ColumnName         string
	DataType           string
	RowCount           int64
	NotNullProportion  *float64
	DistinctProportion *float64
	DistinctCount      *int64
	IsUnique           *bool
	MinValue           *string
	MaxValue           *string
	AvgValue           *float64
	MedianValue        *float64
	StdDevPopulation   *float64
	StdDevSample       *float64
}

// ProfileRecords flattens a table profile into storage rows.
func ProfileRecords(t Target, p *TableProfile) []ProfileRecord {
	out := make([]ProfileRecord, 0, len(p.Columns))
	for _, c := range p.Columns {
		out = append(out, ProfileRecord{
			ScanTime:           p.ProfiledAt,
			Application:        t.Application,
			Environment:        t.Environment,
			DatabaseHost:       t.DatabaseHost,
			DatabaseName:       t.DatabaseName,
			SchemaName:         p.SchemaName,
			TableName:          p.TableName,
			ColumnName:         c.ColumnName,
			DataType:           c.DataType,
			RowCount:           c.RowCount,
			NotNullProportion:  c.NotNullProportion,
			DistinctProportion: c.DistinctProportion,
			DistinctCount:      c.DistinctCount,
			IsUnique:           c.IsUnique,
			MinValue:           c.Min,
			MaxValue:           c.Max,
			AvgValue:           c.Avg,
			MedianValue:        c.Median,
			StdDevPopulation:   c.StdDevPopulation,
			StdDevSample:       c.StdDevSample,
		})
	}
	return out
}

// OverflowRecord is one stored row of auto_increment_metrics.
type OverflowRecord struct {
	ScanTime        time.Time
	Application     string
	Environment     string
	DatabaseHost    string
	DatabaseName    string
	SchemaName      string
	TableName       string
	ColumnName      string
	DataType        string
	SequenceName    string
	CurrentValue    int64
	MaxTypeValue    int64
	UsagePercentage float64
	RemainingValues int64
	DailyGrowthRate *float64
	DaysUntilFull   *float64
	AlertStatus     string
}

func OverflowRecords(t Target, forecasts []OverflowForecast) []OverflowRecord {
	out := make([]OverflowRecord, 0, len(forecasts))
	for _, f := range forecasts {
		out = append(out, OverflowRecord{
			ScanTime:        f.ForecastAt,
			Application:     t.Application,
			Environment:     t.Environment,
			DatabaseHost:    t.DatabaseHost,
			DatabaseName:    t.DatabaseName,
			SchemaName:      t.SchemaName,
			TableName:       f.Column.TableName,
			ColumnName:      f.Column.ColumnName,
			DataType:        f.Column.DataType,
			SequenceName:    f.Column.Source,
			CurrentValue:    f.Column.CurrentValue,
			MaxTypeValue:    f.Column.MaxTypeValue,
			UsagePercentage: f.UsagePercentage,
			RemainingValues: f.RemainingValues,
			DailyGrowthRate: f.DailyGrowthRate,
			DaysUntilFull:   f.DaysUntilFull,
			AlertStatus:     string(f.AlertStatus),
		})
	}
	return out
}

// SchemaRecord is one stored row of schema_profiles: a column of a snapshot
// flattened with its key and index membership.
type SchemaRecord struct {
	ScanTime       time.Time
	Application    string
	Environment    string
	DatabaseHost   string
	DatabaseName   string
	SchemaName     string
	TableName      string
	ColumnName     string
	ColumnPosition int
	DataType       string
	IsNullable     bool
	ColumnDefault  *string
	MaxLength      *int64
	Precision      *int64
	Scale          *int64
	IsPrimaryKey   bool
	IsInIndex      bool
	IndexNames     string
	IsForeignKey   bool
	FKReferences   string
}

func SchemaRecords(t Target, s *TableSchema) []SchemaRecord {
	indexed := s.IndexedColumns()
	cols := s.OrderedColumns()
	out := make([]SchemaRecord, 0, len(cols))
	for _, c := range cols {
		names, inIndex := indexed[c.Name]
		ref, isFK := s.ForeignKeyFor(c.Name)
		host, db := t.DatabaseHost, t.DatabaseName
		if s.DatabaseHost != "" {
			host = s.DatabaseHost
		}
		if s.DatabaseName != "" {
			db = s.DatabaseName
		}
		out = append(out, SchemaRecord{
			ScanTime:       s.ExtractedAt,
			Application:    t.Application,
			Environment:    t.Environment,
			DatabaseHost:   host,
			DatabaseName:   db,
			SchemaName:     s.SchemaName,
			TableName:      s.TableName,
			ColumnName:     c.Name,
			ColumnPosition: c.Position,
			DataType:       c.DataType,
			IsNullable:     c.Nullable,
			ColumnDefault:  c.DefaultValue,
			MaxLength:      c.MaxLength,
			Precision:      c.Precision,
			Scale:          c.Scale,
			IsPrimaryKey:   s.IsPrimaryKey(c.Name),
			IsInIndex:      inIndex,
			IndexNames:     strings.Join(names, ","),
			IsForeignKey:   isFK,
			FKReferences:   ref,
		})
	}
	return out
}
