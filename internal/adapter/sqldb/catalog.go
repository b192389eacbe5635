package sqldb

import "github.com/guillermoBallester/dataprofiler/internal/core/domain"

// IndexColumnRow is one (index, column) pair, as catalogs that list index
// membership a column at a time return it. Rows must arrive ordered by
// index name, then key position.
type IndexColumnRow struct {
	Name    string
	Column  string
	Unique  bool
	Primary bool
	Type    string
}

// GroupIndexes folds per-column rows into indexes, keeping first-seen order.
func GroupIndexes(rows []IndexColumnRow) []domain.IndexSchema {
	var out []domain.IndexSchema
	pos := make(map[string]int)
	for _, r := range rows {
		i, ok := pos[r.Name]
		if !ok {
			i = len(out)
			pos[r.Name] = i
			out = append(out, domain.IndexSchema{
				Name:      r.Name,
				IsUnique:  r.Unique,
				IsPrimary: r.Primary,
				IndexType: r.Type,
			})
		}
		out[i].Columns = append(out[i].Columns, r.Column)
	}
	return out
}

// ForeignKeyColumnRow is one column pair of a foreign key.
type ForeignKeyColumnRow struct {
	Name      string
	Column    string
	RefTable  string
	RefColumn string
	OnDelete  string
	OnUpdate  string
}

// GroupForeignKeys folds per-column rows into composite foreign keys.
func GroupForeignKeys(rows []ForeignKeyColumnRow) []domain.ForeignKeySchema {
	var out []domain.ForeignKeySchema
	pos := make(map[string]int)
	for _, r := range rows {
		i, ok := pos[r.Name]
		if !ok {
			i = len(out)
			pos[r.Name] = i
			out = append(out, domain.ForeignKeySchema{
				Name:            r.Name,
				ReferencedTable: r.RefTable,
				OnDelete:        r.OnDelete,
				OnUpdate:        r.OnUpdate,
			})
		}
		out[i].Columns = append(out[i].Columns, r.Column)
		out[i].ReferencedColumns = append(out[i].ReferencedColumns, r.RefColumn)
	}
	return out
}
