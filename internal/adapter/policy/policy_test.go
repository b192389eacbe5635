package policy

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guillermoBallester/dataprofiler/internal/core/domain"
)

// --- LoadFromFile tests ---

func TestLoadFromFile(t *testing.T) {
	yaml := `
tables:
  public.customers:
    description: "Customer accounts"
    strict: false
    columns:
      email: hash
      ssn:
        mask: "null"
      notes:
        skip: true
  audit_log:
    exclude: true
`
	pol, err := LoadFromFile(writeTempFile(t, yaml))
	require.NoError(t, err)
	require.Len(t, pol.Tables, 2)

	customers := pol.Tables["public.customers"]
	assert.Equal(t, "Customer accounts", customers.Description)
	assert.Equal(t, domain.MaskHash, customers.Columns["email"].Mask)
	assert.Equal(t, domain.MaskNull, customers.Columns["ssn"].Mask)
	assert.True(t, customers.Columns["notes"].Skip)
	require.NotNil(t, customers.Strict)
	assert.False(t, *customers.Strict)

	assert.True(t, pol.Tables["audit_log"].Exclude)
}

func TestLoadFromFile_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name: "unknown mask",
			yaml: `
tables:
  users:
    columns:
      email: encrypt
`,
			wantErr: "encrypt",
		},
		{
			name: "skip with mask",
			yaml: `
tables:
  users:
    columns:
      email:
        skip: true
        mask: redact
`,
			wantErr: "exclusive",
		},
		{
			name: "empty table key",
			yaml: `
tables:
  "":
    exclude: true
`,
			wantErr: "empty key",
		},
		{
			name: "excluded table with columns",
			yaml: `
tables:
  users:
    exclude: true
    columns:
      email: redact
`,
			wantErr: "cannot have column rules",
		},
		{
			name:    "malformed",
			yaml:    "tables: [",
			wantErr: "parsing policy YAML",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromFile(writeTempFile(t, tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadFromFile_NotFound(t *testing.T) {
	_, err := LoadFromFile("/nonexistent/policy.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading policy file")
}

// --- Rule lookup tests ---

func TestRule_QualifiedKeyWins(t *testing.T) {
	pol := &Policy{Tables: map[string]TableRule{
		"orders":       {Description: "bare"},
		"sales.orders": {Description: "qualified"},
	}}

	assert.Equal(t, "qualified", pol.Describe("sales", "orders"))
	assert.Equal(t, "bare", pol.Describe("public", "orders"))
	assert.Equal(t, "bare", pol.Describe("", "orders"))
	assert.Empty(t, pol.Describe("public", "missing"))
}

func TestNilPolicyIsPermissive(t *testing.T) {
	var pol *Policy
	cols := []domain.ColumnMeta{{Name: "id"}}

	assert.False(t, pol.Excluded("public", "t"))
	assert.Empty(t, pol.Masks("public", "t"))
	assert.Equal(t, cols, pol.FilterColumns("public", "t", cols))
	_, ok := pol.StrictFor("t")
	assert.False(t, ok)
}

func TestStrictFor(t *testing.T) {
	yes, no := true, false
	pol := &Policy{Tables: map[string]TableRule{
		"public.legacy": {Strict: &no},
		"ledger":        {Strict: &yes},
		"plain":         {},
	}}

	tests := []struct {
		table      string
		wantStrict bool
		wantOK     bool
	}{
		{"public.legacy", false, true},
		{"ledger", true, true},
		{"finance.ledger", true, true},
		{"plain", false, false},
		{"unknown", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.table, func(t *testing.T) {
			strict, ok := pol.StrictFor(tt.table)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantStrict, strict)
		})
	}
}

// --- Profiler decorator tests ---

type recordingProfiler struct {
	columns []domain.ColumnMeta
	calls   int
}

func (r *recordingProfiler) ProfileTable(_ context.Context, schema, table string, columns []domain.ColumnMeta) (*domain.TableProfile, error) {
	r.calls++
	r.columns = columns
	tp := &domain.TableProfile{SchemaName: schema, TableName: table}
	for _, c := range columns {
		lo, hi := "alice@example.com", "zed@example.com"
		tp.Columns = append(tp.Columns, domain.ColumnProfile{ColumnName: c.Name, Min: &lo, Max: &hi})
	}
	return tp, nil
}

func TestProfiler_SkipsAndMasks(t *testing.T) {
	pol := &Policy{Tables: map[string]TableRule{
		"public.customers": {Columns: map[string]ColumnRule{
			"email": {Mask: domain.MaskRedact},
			"notes": {Skip: true},
		}},
	}}
	inner := &recordingProfiler{}
	p := NewProfiler(inner, pol)

	cols := []domain.ColumnMeta{{Name: "id"}, {Name: "email"}, {Name: "notes"}}
	tp, err := p.ProfileTable(context.Background(), "public", "customers", cols)
	require.NoError(t, err)

	require.Len(t, inner.columns, 2)
	assert.Equal(t, "email", inner.columns[1].Name)

	email, ok := tp.Column("email")
	require.True(t, ok)
	assert.Equal(t, "***", *email.Min)
	assert.Equal(t, "***", *email.Max)

	id, ok := tp.Column("id")
	require.True(t, ok)
	assert.Equal(t, "alice@example.com", *id.Min)
}

func TestProfiler_ExcludedTable(t *testing.T) {
	pol := &Policy{Tables: map[string]TableRule{"secrets": {Exclude: true}}}
	inner := &recordingProfiler{}

	_, err := NewProfiler(inner, pol).ProfileTable(context.Background(), "public", "secrets", nil)
	require.ErrorIs(t, err, domain.ErrTableExcluded)
	assert.Zero(t, inner.calls)
}

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}
