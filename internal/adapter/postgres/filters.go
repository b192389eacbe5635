package postgres

// referentialAction maps pg_constraint.confdeltype/confupdtype codes to the
// rule names information_schema reports.
func referentialAction(code string) string {
	switch code {
	case "r":
		return "RESTRICT"
	case "c":
		return "CASCADE"
	case "n":
		return "SET NULL"
	case "d":
		return "SET DEFAULT"
	default:
		return "NO ACTION"
	}
}

// schemaOr falls back to def when schema is empty.
func schemaOr(schema, def string) string {
	if schema == "" {
		return def
	}
	return schema
}
