package mysql

// Every query binds (schema, table) positionally unless noted.

// queryListTables binds (schema).
const queryListTables = `
	SELECT TABLE_NAME
	FROM information_schema.TABLES
	WHERE TABLE_SCHEMA = ? AND TABLE_TYPE = 'BASE TABLE'
	ORDER BY TABLE_NAME`

// COLUMN_TYPE keeps the unsigned modifier that DATA_TYPE drops.
const queryListColumns = `
	SELECT COLUMN_NAME, COLUMN_TYPE, IS_NULLABLE, ORDINAL_POSITION
	FROM information_schema.COLUMNS
	WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ?
	ORDER BY ORDINAL_POSITION`

const querySchemaColumns = `
	SELECT
		COLUMN_NAME,
		COLUMN_TYPE,
		IS_NULLABLE,
		COLUMN_DEFAULT,
		CHARACTER_MAXIMUM_LENGTH,
		NUMERIC_PRECISION,
		NUMERIC_SCALE,
		ORDINAL_POSITION
	FROM information_schema.COLUMNS
	WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ?
	ORDER BY ORDINAL_POSITION`

const queryPrimaryKey = `
	SELECT COLUMN_NAME
	FROM information_schema.KEY_COLUMN_USAGE
	WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ? AND CONSTRAINT_NAME = 'PRIMARY'
	ORDER BY ORDINAL_POSITION`

// queryIndexes skips the primary key and functional key parts.
const queryIndexes = `
	SELECT
		INDEX_NAME,
		COLUMN_NAME,
		CASE WHEN NON_UNIQUE = 0 THEN 'YES' ELSE 'NO' END,
		INDEX_TYPE
	FROM information_schema.STATISTICS
	WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ?
		AND INDEX_NAME <> 'PRIMARY'
		AND COLUMN_NAME IS NOT NULL
	ORDER BY INDEX_NAME, SEQ_IN_INDEX`

const queryForeignKeys = `
	SELECT
		kcu.CONSTRAINT_NAME,
		kcu.COLUMN_NAME,
		kcu.REFERENCED_TABLE_NAME,
		kcu.REFERENCED_COLUMN_NAME,
		rc.DELETE_RULE,
		rc.UPDATE_RULE
	FROM information_schema.KEY_COLUMN_USAGE kcu
	JOIN information_schema.REFERENTIAL_CONSTRAINTS rc
		ON rc.CONSTRAINT_SCHEMA = kcu.CONSTRAINT_SCHEMA
		AND rc.CONSTRAINT_NAME = kcu.CONSTRAINT_NAME
		AND rc.TABLE_NAME = kcu.TABLE_NAME
	WHERE kcu.TABLE_SCHEMA = ? AND kcu.TABLE_NAME = ?
		AND kcu.REFERENCED_TABLE_NAME IS NOT NULL
	ORDER BY kcu.CONSTRAINT_NAME, kcu.ORDINAL_POSITION`

// queryCheckConstraints needs MySQL 8.0.16 or MariaDB 10.2; older servers
// fail it and the snapshot carries no checks.
const queryCheckConstraints = `
	SELECT cc.CONSTRAINT_NAME, cc.CHECK_CLAUSE
	FROM information_schema.CHECK_CONSTRAINTS cc
	JOIN information_schema.TABLE_CONSTRAINTS tc
		ON tc.CONSTRAINT_SCHEMA = cc.CONSTRAINT_SCHEMA
		AND tc.CONSTRAINT_NAME = cc.CONSTRAINT_NAME
	WHERE tc.TABLE_SCHEMA = ? AND tc.TABLE_NAME = ?
		AND tc.CONSTRAINT_TYPE = 'CHECK'
	ORDER BY cc.CONSTRAINT_NAME`

// queryAutoIncrement returns the next value the table will hand out;
// NULL when the server does not expose it.
const queryAutoIncrement = `
	SELECT c.COLUMN_NAME, c.COLUMN_TYPE, t.AUTO_INCREMENT
	FROM information_schema.COLUMNS c
	JOIN information_schema.TABLES t
		ON t.TABLE_SCHEMA = c.TABLE_SCHEMA AND t.TABLE_NAME = c.TABLE_NAME
	WHERE c.TABLE_SCHEMA = ? AND c.TABLE_NAME = ?
		AND c.EXTRA LIKE '%auto_increment%'`

// statsExpiry makes MySQL 8 read AUTO_INCREMENT live instead of from its
// cached table statistics. MariaDB rejects it; that error is ignored.
const statsExpiry = `SET SESSION information_schema_stats_expiry = 0`
