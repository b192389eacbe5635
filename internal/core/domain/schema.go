package domain

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

// ColumnSchema is the structural definition of one column.
type ColumnSchema struct {
	Name         string  `json:"name"`
	DataType     string  `json:"data_type"`
	Nullable     bool    `json:"nullable"`
	DefaultValue *string `json:"default_value,omitempty"`
	MaxLength    *int64  `json:"max_length,omitempty"`
	Precision    *int64  `json:"precision,omitempty"`
	Scale        *int64  `json:"scale,omitempty"`
	Position     int     `json:"position"`
}

// IndexSchema describes one index. Name is informational; identity is Signature.
type IndexSchema struct {
	Name      string   `json:"name"`
	Columns   []string `json:"columns"`
	IsUnique  bool     `json:"is_unique"`
	IsPrimary bool     `json:"is_primary"`
	IndexType string   `json:"index_type,omitempty"`
}

// Signature identifies an index by what it enforces rather than what it is
// called. withType adds the access method (btree, CLUSTERED...).
func (i IndexSchema) Signature(withType bool) string {
	var b strings.Builder
	b.WriteString(strings.ToLower(strings.Join(i.Columns, ",")))
	b.WriteString("|unique=" + strconv.FormatBool(i.IsUnique))
	b.WriteString("|primary=" + strconv.FormatBool(i.IsPrimary))
	if withType {
		b.WriteString("|type=" + strings.ToLower(i.IndexType))
	}
	return b.String()
}

// ForeignKeySchema describes one (possibly composite) foreign key.
type ForeignKeySchema struct {
	Name              string   `json:"name"`
	Columns           []string `json:"columns"`
	ReferencedTable   string   `json:"referenced_table"`
	ReferencedColumns []string `json:"referenced_columns"`
	OnDelete          string   `json:"on_delete,omitempty"`
	OnUpdate          string   `json:"on_update,omitempty"`
}

func (f ForeignKeySchema) Signature() string {
	return strings.ToLower(strings.Join(f.Columns, ",")) +
		"->" + strings.ToLower(f.ReferencedTable) +
		"(" + strings.ToLower(strings.Join(f.ReferencedColumns, ",")) + ")" +
		"|del=" + normalizeRule(f.OnDelete) +
		"|upd=" + normalizeRule(f.OnUpdate)
}

func normalizeRule(r string) string {
	r = strings.ToUpper(strings.TrimSpace(r))
	if r == "" {
		return "NO ACTION"
	}
	return strings.ReplaceAll(r, "_", " ")
}

// CheckConstraint is a named boolean expression.
type CheckConstraint struct {
	Name       string `json:"name"`
	Expression string `json:"expression"`
}

func (c CheckConstraint) Signature() string {
	return strings.ToUpper(collapseSpace(c.Expression))
}

// TableSchema is a structural snapshot of one table. A table that does not
// exist in an environment is represented by a nil *TableSchema.
type TableSchema struct {
	TableName        string                  `json:"table_name"`
	SchemaName       string                  `json:"schema_name"`
	DatabaseHost     string                  `json:"database_host,omitempty"`
	DatabaseName     string                  `json:"database_name,omitempty"`
	Columns          map[string]ColumnSchema `json:"columns"`
	PrimaryKey       []string                `json:"primary_key,omitempty"`
	Indexes          []IndexSchema           `json:"indexes,omitempty"`
	ForeignKeys      []ForeignKeySchema      `json:"foreign_keys,omitempty"`
	CheckConstraints []CheckConstraint       `json:"check_constraints,omitempty"`
	ExtractedAt      time.Time               `json:"extracted_at"`
}

// OrderedColumns returns the columns by ordinal position, then name.
func (s *TableSchema) OrderedColumns() []ColumnSchema {
	if s == nil {
		return nil
	}
	out := make([]ColumnSchema, 0, len(s.Columns))
	for _, c := range s.Columns {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Position != out[j].Position {
			return out[i].Position < out[j].Position
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// IndexedColumns returns the set of columns covered by at least one index.
func (s *TableSchema) IndexedColumns() map[string][]string {
	out := make(map[string][]string)
	if s == nil {
		return out
	}
	for _, idx := range s.Indexes {
		for _, c := range idx.Columns {
			out[c] = append(out[c], idx.Name)
		}
	}
	for _, c := range s.PrimaryKey {
		if _, ok := out[c]; !ok {
			out[c] = nil
		}
	}
	return out
}

// ForeignKeyFor returns "table(column)" if col takes part in a foreign key.
func (s *TableSchema) ForeignKeyFor(col string) (string, bool) {
	if s == nil {
		return "", false
	}
	for _, fk := range s.ForeignKeys {
		for i, c := range fk.Columns {
			if c != col {
				continue
			}
			ref := ""
			if i < len(fk.ReferencedColumns) {
				ref = fk.ReferencedColumns[i]
			}
			return fk.ReferencedTable + "(" + ref + ")", true
		}
	}
	return "", false
}

// IsPrimaryKey reports whether col belongs to the primary key.
func (s *TableSchema) IsPrimaryKey(col string) bool {
	if s == nil {
		return false
	}
	for _, c := range s.PrimaryKey {
		if c == col {
			return true
		}
	}
	return false
}

// Normalize sorts the slice fields so that two extractions of the same
// catalog compare equal.
func (s *TableSchema) Normalize() {
	if s == nil {
		return
	}
	sort.Slice(s.Indexes, func(i, j int) bool { return s.Indexes[i].Name < s.Indexes[j].Name })
	sort.Slice(s.ForeignKeys, func(i, j int) bool { return s.ForeignKeys[i].Name < s.ForeignKeys[j].Name })
	sort.Slice(s.CheckConstraints, func(i, j int) bool { return s.CheckConstraints[i].Name < s.CheckConstraints[j].Name })
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
