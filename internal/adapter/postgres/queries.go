package postgres

const queryListTables = `
	SELECT t.table_name::text
	FROM information_schema.tables t
	WHERE t.table_schema = $1
		AND t.table_type = 'BASE TABLE'
	ORDER BY t.table_name`

const queryListColumns = `
	SELECT
		a.attname::text,
		pg_catalog.format_type(a.atttypid, a.atttypmod),
		NOT a.attnotnull,
		a.attnum::int
	FROM pg_catalog.pg_attribute a
	JOIN pg_catalog.pg_class c ON c.oid = a.attrelid
	JOIN pg_catalog.pg_namespace n ON n.oid = c.relnamespace
	WHERE n.nspname = $1
		AND c.relname = $2
		AND a.attnum > 0
		AND NOT a.attisdropped
	ORDER BY a.attnum`

// --- Schema snapshot queries ---

const querySchemaColumns = `
	SELECT
		c.column_name::text,
		pg_catalog.format_type(a.atttypid, a.atttypmod),
		c.is_nullable = 'YES',
		c.column_default::text,
		c.character_maximum_length::bigint,
		c.numeric_precision::bigint,
		c.numeric_scale::bigint,
		c.ordinal_position::int
	FROM information_schema.columns c
	JOIN pg_catalog.pg_namespace n ON n.nspname = c.table_schema
	JOIN pg_catalog.pg_class t ON t.relnamespace = n.oid AND t.relname = c.table_name
	JOIN pg_catalog.pg_attribute a ON a.attrelid = t.oid AND a.attname = c.column_name
	WHERE c.table_schema = $1 AND c.table_name = $2
	ORDER BY c.ordinal_position`

const queryPrimaryKey = `
	SELECT a.attname::text
	FROM pg_catalog.pg_index i
	JOIN pg_catalog.pg_class t ON t.oid = i.indrelid
	JOIN pg_catalog.pg_namespace n ON n.oid = t.relnamespace
	CROSS JOIN LATERAL unnest(i.indkey::int2[]) WITH ORDINALITY AS k(attnum, ord)
	JOIN pg_catalog.pg_attribute a ON a.attrelid = i.indrelid AND a.attnum = k.attnum
	WHERE n.nspname = $1 AND t.relname = $2 AND i.indisprimary
	ORDER BY k.ord`

// queryIndexes excludes the primary key index; expression columns
// (attnum 0) are dropped from the column list.
const queryIndexes = `
	SELECT
		ic.relname::text,
		i.indisunique,
		am.amname::text,
		ARRAY(
			SELECT a.attname::text
			FROM unnest(i.indkey::int2[]) WITH ORDINALITY AS k(attnum, ord)
			JOIN pg_catalog.pg_attribute a ON a.attrelid = i.indrelid AND a.attnum = k.attnum
			ORDER BY k.ord
		)
	FROM pg_catalog.pg_index i
	JOIN pg_catalog.pg_class ic ON ic.oid = i.indexrelid
	JOIN pg_catalog.pg_class t ON t.oid = i.indrelid
	JOIN pg_catalog.pg_namespace n ON n.oid = t.relnamespace
	JOIN pg_catalog.pg_am am ON am.oid = ic.relam
	WHERE n.nspname = $1 AND t.relname = $2 AND NOT i.indisprimary
	ORDER BY ic.relname`

const queryForeignKeys = `
	SELECT
		con.conname::text,
		ARRAY(
			SELECT a.attname::text
			FROM unnest(con.conkey) WITH ORDINALITY AS k(attnum, ord)
			JOIN pg_catalog.pg_attribute a ON a.attrelid = con.conrelid AND a.attnum = k.attnum
			ORDER BY k.ord
		),
		rt.relname::text,
		ARRAY(
			SELECT a.attname::text
			FROM unnest(con.confkey) WITH ORDINALITY AS k(attnum, ord)
			JOIN pg_catalog.pg_attribute a ON a.attrelid = con.confrelid AND a.attnum = k.attnum
			ORDER BY k.ord
		),
		con.confdeltype::text,
		con.confupdtype::text
	FROM pg_catalog.pg_constraint con
	JOIN pg_catalog.pg_class t ON t.oid = con.conrelid
	JOIN pg_catalog.pg_namespace n ON n.oid = t.relnamespace
	JOIN pg_catalog.pg_class rt ON rt.oid = con.confrelid
	WHERE n.nspname = $1 AND t.relname = $2 AND con.contype = 'f'
	ORDER BY con.conname`

const queryCheckConstraints = `
	SELECT con.conname::text, pg_catalog.pg_get_constraintdef(con.oid)
	FROM pg_catalog.pg_constraint con
	JOIN pg_catalog.pg_class t ON t.oid = con.conrelid
	JOIN pg_catalog.pg_namespace n ON n.oid = t.relnamespace
	WHERE n.nspname = $1 AND t.relname = $2 AND con.contype = 'c'
	ORDER BY con.conname`

// --- Auto-increment queries ---

// queryAutoIncrementColumns finds serial and identity columns with the
// sequence that backs them. seq is NULL for a nextval() default on a
// sequence the column does not own.
const queryAutoIncrementColumns = `
	SELECT
		c.column_name::text,
		c.data_type::text,
		pg_catalog.pg_get_serial_sequence(
			quote_ident(c.table_schema) || '.' || quote_ident(c.table_name), c.column_name
		)
	FROM information_schema.columns c
	WHERE c.table_schema = $1
		AND c.table_name = $2
		AND (c.column_default LIKE 'nextval%' OR c.is_identity = 'YES')
	ORDER BY c.ordinal_position`

// querySequenceLastValue is NULL until nextval is first called; that reads as 0.
const querySequenceLastValue = `SELECT COALESCE(pg_catalog.pg_sequence_last_value($1::regclass), 0)`
