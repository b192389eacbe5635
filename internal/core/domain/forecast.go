package domain

import (
	"sort"
	"time"
)

// DefaultLookbackDays is the growth history window when none is configured.
const DefaultLookbackDays = 7

// AlertStatus is the overflow risk tier consumed by dashboards.
type AlertStatus string

const (
	AlertOK       AlertStatus = "OK"
	AlertWarning  AlertStatus = "WARNING"
	AlertCritical AlertStatus = "CRITICAL"
)

// Alert thresholds.
const (
	criticalDays    = 30.0
	warningDays     = 90.0
	criticalPercent = 90.0
	warningPercent  = 75.0
)

// AutoIncrementColumn is an identity or sequence-backed column with its
// current position.
type AutoIncrementColumn struct {
	TableName    string `json:"table_name"`
	ColumnName   string `json:"column_name"`
	DataType     string `json:"data_type"`
	Source       string `json:"source"`
	CurrentValue int64  `json:"current_value"`
	MaxTypeValue int64  `json:"max_type_value"`
}

// GrowthSample is one past observation of a column's current value.
type GrowthSample struct {
	Timestamp time.Time `json:"timestamp"`
	Value     int64     `json:"value"`
}

// OverflowForecast is the exhaustion outlook of one column.
type OverflowForecast struct {
	Column          AutoIncrementColumn `json:"column"`
	UsagePercentage float64             `json:"usage_percentage"`
	RemainingValues int64               `json:"remaining_values"`
	DailyGrowthRate *float64            `json:"daily_growth_rate"`
	DaysUntilFull   *float64            `json:"days_until_full"`
	AlertStatus     AlertStatus         `json:"alert_status"`
	SamplesUsed     int                 `json:"samples_used"`
	ForecastAt      time.Time           `json:"forecast_at"`
}

// InsufficientHistory reports whether the growth rate could not be estimated.
func (f OverflowForecast) InsufficientHistory() bool { return f.DailyGrowthRate == nil }

// WindowSamples keeps the samples taken in [now-lookback, now], oldest first.
// The input is not modified.
func WindowSamples(samples []GrowthSample, now time.Time, lookback time.Duration) []GrowthSample {
	cutoff := now.Add(-lookback)
	out := make([]GrowthSample, 0, len(samples))
	for _, s := range samples {
		if s.Timestamp.Before(cutoff) || s.Timestamp.After(now) {
			continue
		}
		out = append(out, s)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out
}

// GrowthRate fits value = a + b*days by ordinary least squares and returns
// b, in values per day. Nil with fewer than two samples or when every
// sample shares one timestamp.
func GrowthRate(samples []GrowthSample) *float64 {
	if len(samples) < 2 {
		return nil
	}
	origin := samples[0].Timestamp
	for _, s := range samples[1:] {
		if s.Timestamp.Before(origin) {
			origin = s.Timestamp
		}
	}

	n := float64(len(samples))
	var sumX, sumY float64
	for _, s := range samples {
		sumX += s.Timestamp.Sub(origin).Hours() / 24
		sumY += float64(s.Value)
	}
	meanX, meanY := sumX/n, sumY/n

	var sxx, sxy float64
	for _, s := range samples {
		dx := s.Timestamp.Sub(origin).Hours()/24 - meanX
		sxx += dx * dx
		sxy += dx * (float64(s.Value) - meanY)
	}
	if sxx == 0 {
		return nil
	}
	slope := sxy / sxx
	return &slope
}

// Forecast estimates when col runs out of values. Only history within
// lookbackDays of now is used; lookbackDays <= 0 means the default.
func Forecast(col AutoIncrementColumn, history []GrowthSample, now time.Time, lookbackDays int) OverflowForecast {
	if lookbackDays <= 0 {
		lookbackDays = DefaultLookbackDays
	}
	window := WindowSamples(history, now, time.Duration(lookbackDays)*24*time.Hour)

	f := OverflowForecast{
		Column:          col,
		RemainingValues: col.MaxTypeValue - col.CurrentValue,
		SamplesUsed:     len(window),
		ForecastAt:      now,
	}
	if col.MaxTypeValue > 0 {
		f.UsagePercentage = float64(col.CurrentValue) / float64(col.MaxTypeValue) * 100
	}

	f.DailyGrowthRate = GrowthRate(window)
	if rate := f.DailyGrowthRate; rate != nil && *rate > 0 {
		days := 0.0
		if f.RemainingValues > 0 {
			days = float64(f.RemainingValues) / *rate
		}
		f.DaysUntilFull = &days
	}
	f.AlertStatus = ClassifyAlert(f.UsagePercentage, f.DaysUntilFull)
	return f
}

// ClassifyAlert applies the fixed tiering. Either condition alone is
// enough; CRITICAL wins over WARNING.
func ClassifyAlert(usagePercentage float64, daysUntilFull *float64) AlertStatus {
	if (daysUntilFull != nil && *daysUntilFull < criticalDays) || usagePercentage > criticalPercent {
		return AlertCritical
	}
	if (daysUntilFull != nil && *daysUntilFull < warningDays) || usagePercentage > warningPercent {
		return AlertWarning
	}
	return AlertOK
}
