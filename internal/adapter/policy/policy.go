package policy

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/guillermoBallester/dataprofiler/internal/core/domain"
)

// Policy holds operator rules loaded from a YAML file: which tables and
// columns to leave alone, which observed values to mask, and where the
// comparator should run in strict mode.
type Policy struct {
	Tables map[string]TableRule `yaml:"tables"`
}

// TableRule applies to one table. Keys are "schema.table" or a bare table
// name; the qualified key wins when both exist.
type TableRule struct {
	Description string                `yaml:"description"`
	Exclude     bool                  `yaml:"exclude"`
	Strict      *bool                 `yaml:"strict,omitempty"`
	Columns     map[string]ColumnRule `yaml:"columns"`
}

// ColumnRule hides a column from profiling or masks its min and max.
type ColumnRule struct {
	Skip bool            `yaml:"skip"`
	Mask domain.MaskType `yaml:"mask,omitempty"`
}

// UnmarshalYAML accepts a plain mask name as shorthand:
//
//	columns:
//	  email: hash        # ColumnRule{Mask: "hash"}
//	  notes:
//	    skip: true
func (cr *ColumnRule) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		cr.Mask = domain.MaskType(value.Value)
		return nil
	}
	type alias ColumnRule
	var a alias
	if err := value.Decode(&a); err != nil {
		return fmt.Errorf("decoding column rule: %w", err)
	}
	*cr = ColumnRule(a)
	return nil
}

// Rule returns the rule for schema.table, falling back to the bare table key.
func (p *Policy) Rule(schema, table string) (TableRule, bool) {
	if p == nil {
		return TableRule{}, false
	}
	if schema != "" {
		if r, ok := p.Tables[schema+"."+table]; ok {
			return r, true
		}
	}
	r, ok := p.Tables[table]
	return r, ok
}

// Excluded reports whether the table must not be touched.
func (p *Policy) Excluded(schema, table string) bool {
	r, ok := p.Rule(schema, table)
	return ok && r.Exclude
}

// Masks returns column to mask type for one table.
func (p *Policy) Masks(schema, table string) map[string]domain.MaskType {
	r, _ := p.Rule(schema, table)
	out := make(map[string]domain.MaskType)
	for col, cr := range r.Columns {
		if cr.Mask != "" {
			out[col] = cr.Mask
		}
	}
	return out
}

// StrictFor adapts the policy for service.DriftService.WithStrictness. The
// table argument may be qualified.
func (p *Policy) StrictFor(table string) (bool, bool) {
	schema, name, found := strings.Cut(table, ".")
	if !found {
		schema, name = "", table
	}
	r, ok := p.Rule(schema, name)
	if !ok || r.Strict == nil {
		return false, false
	}
	return *r.Strict, true
}

// FilterColumns drops columns marked skip.
func (p *Policy) FilterColumns(schema, table string, cols []domain.ColumnMeta) []domain.ColumnMeta {
	r, ok := p.Rule(schema, table)
	if !ok || len(r.Columns) == 0 {
		return cols
	}
	out := make([]domain.ColumnMeta, 0, len(cols))
	for _, c := range cols {
		if r.Columns[c.Name].Skip {
			continue
		}
		out = append(out, c)
	}
	return out
}

// Describe returns the operator description of a table, if any.
func (p *Policy) Describe(schema, table string) string {
	r, _ := p.Rule(schema, table)
	return r.Description
}
