package oracle

// Every catalog query binds :1 as the owner and :2 as the table name.

const queryListTables = `
	SELECT table_name
	FROM all_tables
	WHERE owner = :1 AND nested = 'NO' AND secondary = 'N'
	ORDER BY table_name`

const queryListColumns = `
	SELECT column_name, LOWER(data_type), nullable, column_id
	FROM all_tab_columns
	WHERE owner = :1 AND table_name = :2
	ORDER BY column_id`

// querySchemaColumns reports character lengths in characters, not bytes.
const querySchemaColumns = `
	SELECT
		column_name,
		LOWER(data_type),
		nullable,
		data_default,
		CASE WHEN data_type IN ('VARCHAR2', 'NVARCHAR2', 'CHAR', 'NCHAR') THEN char_length END,
		data_precision,
		data_scale,
		column_id
	FROM all_tab_columns
	WHERE owner = :1 AND table_name = :2
	ORDER BY column_id`

const queryPrimaryKey = `
	SELECT cc.column_name
	FROM all_constraints c
	JOIN all_cons_columns cc ON cc.owner = c.owner AND cc.constraint_name = c.constraint_name
	WHERE c.owner = :1 AND c.table_name = :2 AND c.constraint_type = 'P'
	ORDER BY cc.position`

// queryIndexes leaves out the index backing the primary key.
const queryIndexes = `
	SELECT
		i.index_name,
		ic.column_name,
		CASE WHEN i.uniqueness = 'UNIQUE' THEN 'YES' ELSE 'NO' END,
		LOWER(i.index_type)
	FROM all_indexes i
	JOIN all_ind_columns ic ON ic.index_owner = i.owner AND ic.index_name = i.index_name
	WHERE i.table_owner = :1 AND i.table_name = :2
		AND NOT EXISTS (
			SELECT 1 FROM all_constraints pk
			WHERE pk.owner = i.table_owner
				AND pk.table_name = i.table_name
				AND pk.constraint_type = 'P'
				AND pk.index_name = i.index_name
		)
	ORDER BY i.index_name, ic.column_position`

// queryForeignKeys reports ON UPDATE as NO ACTION; Oracle has no update rule.
const queryForeignKeys = `
	SELECT
		c.constraint_name,
		cc.column_name,
		r.table_name,
		rc.column_name,
		c.delete_rule,
		'NO ACTION'
	FROM all_constraints c
	JOIN all_cons_columns cc ON cc.owner = c.owner AND cc.constraint_name = c.constraint_name
	JOIN all_constraints r ON r.owner = c.r_owner AND r.constraint_name = c.r_constraint_name
	JOIN all_cons_columns rc ON rc.owner = r.owner AND rc.constraint_name = r.constraint_name
		AND rc.position = cc.position
	WHERE c.owner = :1 AND c.table_name = :2 AND c.constraint_type = 'R'
	ORDER BY c.constraint_name, cc.position`

// queryCheckConstraints skips the system-generated NOT NULL checks.
const queryCheckConstraints = `
	SELECT constraint_name, search_condition_vc
	FROM all_constraints
	WHERE owner = :1 AND table_name = :2 AND constraint_type = 'C'
		AND NOT (generated = 'GENERATED NAME' AND search_condition_vc LIKE '% IS NOT NULL')
	ORDER BY constraint_name`

// queryIdentityColumns reads LAST_NUMBER as text: sequences may run past int64.
const queryIdentityColumns = `
	SELECT
		ic.column_name,
		LOWER(c.data_type),
		c.data_precision,
		ic.sequence_name,
		TO_CHAR(s.last_number)
	FROM all_tab_identity_cols ic
	JOIN all_tab_columns c ON c.owner = ic.owner AND c.table_name = ic.table_name
		AND c.column_name = ic.column_name
	LEFT JOIN all_sequences s ON s.sequence_owner = ic.owner AND s.sequence_name = ic.sequence_name
	WHERE ic.owner = :1 AND ic.table_name = :2
	ORDER BY c.column_id`

const queryCurrentUser = `SELECT USER FROM dual`
