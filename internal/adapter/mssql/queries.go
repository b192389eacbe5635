package mssql

// All queries take @schema and @table as named parameters.

const objectID = `OBJECT_ID(QUOTENAME(@schema) + N'.' + QUOTENAME(@table))`

const queryListTables = `
	SELECT TABLE_NAME
	FROM INFORMATION_SCHEMA.TABLES
	WHERE TABLE_SCHEMA = @schema AND TABLE_TYPE = 'BASE TABLE'
	ORDER BY TABLE_NAME`

const queryListColumns = `
	SELECT COLUMN_NAME, DATA_TYPE, IS_NULLABLE, ORDINAL_POSITION
	FROM INFORMATION_SCHEMA.COLUMNS
	WHERE TABLE_SCHEMA = @schema AND TABLE_NAME = @table
	ORDER BY ORDINAL_POSITION`

const querySchemaColumns = `
	SELECT
		COLUMN_NAME,
		DATA_TYPE,
		IS_NULLABLE,
		COLUMN_DEFAULT,
		CAST(CHARACTER_MAXIMUM_LENGTH AS BIGINT),
		CAST(NUMERIC_PRECISION AS BIGINT),
		CAST(NUMERIC_SCALE AS BIGINT),
		ORDINAL_POSITION
	FROM INFORMATION_SCHEMA.COLUMNS
	WHERE TABLE_SCHEMA = @schema AND TABLE_NAME = @table
	ORDER BY ORDINAL_POSITION`

const queryPrimaryKey = `
	SELECT c.name
	FROM sys.indexes i
	JOIN sys.index_columns ic ON ic.object_id = i.object_id AND ic.index_id = i.index_id
	JOIN sys.columns c ON c.object_id = ic.object_id AND c.column_id = ic.column_id
	WHERE i.object_id = ` + objectID + ` AND i.is_primary_key = 1
	ORDER BY ic.key_ordinal`

// queryIndexes skips heaps, the primary key and INCLUDE columns.
const queryIndexes = `
	SELECT i.name, c.name, CASE WHEN i.is_unique = 1 THEN 'YES' ELSE 'NO' END, i.type_desc
	FROM sys.indexes i
	JOIN sys.index_columns ic ON ic.object_id = i.object_id AND ic.index_id = i.index_id
	JOIN sys.columns c ON c.object_id = ic.object_id AND c.column_id = ic.column_id
	WHERE i.object_id = ` + objectID + `
		AND i.is_primary_key = 0
		AND i.type > 0
		AND ic.is_included_column = 0
	ORDER BY i.name, ic.key_ordinal`

const queryForeignKeys = `
	SELECT
		fk.name,
		c.name,
		OBJECT_NAME(fk.referenced_object_id),
		rc.name,
		fk.delete_referential_action_desc,
		fk.update_referential_action_desc
	FROM sys.foreign_keys fk
	JOIN sys.foreign_key_columns fkc ON fkc.constraint_object_id = fk.object_id
	JOIN sys.columns c ON c.object_id = fkc.parent_object_id AND c.column_id = fkc.parent_column_id
	JOIN sys.columns rc ON rc.object_id = fkc.referenced_object_id AND rc.column_id = fkc.referenced_column_id
	WHERE fk.parent_object_id = ` + objectID + `
	ORDER BY fk.name, fkc.constraint_column_id`

const queryCheckConstraints = `
	SELECT cc.name, cc.definition
	FROM sys.check_constraints cc
	WHERE cc.parent_object_id = ` + objectID + `
	ORDER BY cc.name`

const queryIdentityColumns = `
	SELECT ic.name, TYPE_NAME(ic.system_type_id)
	FROM sys.identity_columns ic
	WHERE ic.object_id = ` + objectID + `
	ORDER BY ic.column_id`

// queryIdentCurrent is NULL when the caller cannot see the table.
const queryIdentCurrent = `SELECT CAST(IDENT_CURRENT(QUOTENAME(@schema) + N'.' + QUOTENAME(@table)) AS BIGINT)`
