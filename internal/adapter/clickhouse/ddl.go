package clickhouse

var createTables = []string{
	`CREATE TABLE IF NOT EXISTS data_profiles (
		scan_time           DateTime64(3, 'UTC'),
		application         LowCardinality(String),
		environment         LowCardinality(String),
		database_host       String,
		database_name       String,
		schema_name         String,
		table_name          String,
		column_name         String,
		data_type           String,
		row_count           Int64,
		not_null_proportion Nullable(Float64),
		distinct_proportion Nullable(Float64),
		distinct_count      Nullable(Int64),
		is_unique           Nullable(Bool),
		min_value           Nullable(String),
		max_value           Nullable(String),
		avg_value           Nullable(Float64),
		median_value        Nullable(Float64),
		std_dev_population  Nullable(Float64),
		std_dev_sample      Nullable(Float64)
	) ENGINE = MergeTree()
	ORDER BY (application, environment, table_name, column_name, scan_time)`,

	`CREATE TABLE IF NOT EXISTS auto_increment_metrics (
		scan_time         DateTime64(3, 'UTC'),
		application       LowCardinality(String),
		environment       LowCardinality(String),
		database_host     String,
		database_name     String,
		schema_name       String,
		table_name        String,
		column_name       String,
		data_type         String,
		sequence_name     String,
		current_value     Int64,
		max_type_value    Int64,
		usage_percentage  Float64,
		remaining_values  Int64,
		daily_growth_rate Nullable(Float64),
		days_until_full   Nullable(Float64),
		alert_status      LowCardinality(String)
	) ENGINE = MergeTree()
	ORDER BY (application, environment, database_host, database_name, schema_name, table_name, column_name, scan_time)`,

	`CREATE TABLE IF NOT EXISTS schema_profiles (
		scan_time         DateTime64(3, 'UTC'),
		application       LowCardinality(String),
		environment       LowCardinality(String),
		database_host     String,
		database_name     String,
		schema_name       String,
		table_name        String,
		column_name       String,
		column_position   Int32,
		data_type         String,
		is_nullable       Bool,
		column_default    Nullable(String),
		max_length        Nullable(Int64),
		numeric_precision Nullable(Int64),
		numeric_scale     Nullable(Int64),
		is_primary_key    Bool,
		is_in_index       Bool,
		index_names       String,
		is_foreign_key    Bool,
		fk_references     String
	) ENGINE = MergeTree()
	ORDER BY (application, environment, table_name, scan_time, column_position)`,
}

const insertProfile = `INSERT INTO data_profiles (
	scan_time, application, environment, database_host, database_name,
	schema_name, table_name, column_name, data_type, row_count,
	not_null_proportion, distinct_proportion, distinct_count, is_unique,
	min_value, max_value, avg_value, median_value, std_dev_population, std_dev_sample)`

const insertOverflow = `INSERT INTO auto_increment_metrics (
	scan_time, application, environment, database_host, database_name,
	schema_name, table_name, column_name, data_type, sequence_name,
	current_value, max_type_value, usage_percentage, remaining_values,
	daily_growth_rate, days_until_full, alert_status)`

const insertSchema = `INSERT INTO schema_profiles (
	scan_time, application, environment, database_host, database_name,
	schema_name, table_name, column_name, column_position, data_type,
	is_nullable, column_default, max_length, numeric_precision, numeric_scale,
	is_primary_key, is_in_index, index_names, is_foreign_key, fk_references)`

const queryGrowthHistory = `
	SELECT scan_time, current_value
	FROM auto_increment_metrics
	WHERE application = ?
		AND environment = ?
		AND database_host = ?
		AND database_name = ?
		AND schema_name = ?
		AND table_name = ?
		AND column_name = ?
		AND scan_time >= ?
	ORDER BY scan_time`
