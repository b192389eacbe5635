package policy

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadFromFile reads a YAML policy file and returns a validated Policy.
func LoadFromFile(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading policy file: %w", err)
	}
	var pol Policy
	if err := yaml.Unmarshal(data, &pol); err != nil {
		return nil, fmt.Errorf("parsing policy YAML: %w", err)
	}
	if err := validate(&pol); err != nil {
		return nil, fmt.Errorf("validating policy: %w", err)
	}
	return &pol, nil
}

func validate(pol *Policy) error {
	for key, tr := range pol.Tables {
		if key == "" {
			return fmt.Errorf("tables contains an empty key")
		}
		if tr.Exclude && len(tr.Columns) > 0 {
			return fmt.Errorf("tables[%q]: an excluded table cannot have column rules", key)
		}
		for col, cr := range tr.Columns {
			if col == "" {
				return fmt.Errorf("tables[%q].columns contains an empty key", key)
			}
			if !cr.Mask.Valid() {
				return fmt.Errorf("tables[%q].columns[%q].mask: invalid value %q (allowed: redact, hash, partial, null)", key, col, cr.Mask)
			}
			if cr.Skip && cr.Mask != "" {
				return fmt.Errorf("tables[%q].columns[%q]: skip and mask are exclusive", key, col)
			}
		}
	}
	return nil
}
