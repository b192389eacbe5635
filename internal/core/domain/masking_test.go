package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestMaskType_Valid(t *testing.T) {
	t.Parallel()
	for _, mt := range []MaskType{"", MaskRedact, MaskHash, MaskPartial, MaskNull} {
		assert.True(t, mt.Valid(), "expected %q to be valid", mt)
	}
	for _, mt := range []MaskType{"encrypt", "REDACT", "sha256"} {
		assert.False(t, mt.Valid(), "expected %q to be invalid", mt)
	}
}

func TestMaskValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   *string
		mask MaskType
		want *string
	}{
		{"redact", strPtr("alice@example.com"), MaskRedact, strPtr("***")},
		{"partial long", strPtr("4111111111111111"), MaskPartial, strPtr("************1111")},
		{"partial short", strPtr("abc"), MaskPartial, strPtr("***abc")},
		{"partial unicode", strPtr("héllo wörld"), MaskPartial, strPtr("*******örld")},
		{"null", strPtr("x"), MaskNull, nil},
		{"no mask", strPtr("x"), "", strPtr("x")},
		{"nil input", nil, MaskRedact, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, MaskValue(tt.in, tt.mask))
		})
	}
}

func TestMaskValue_Hash(t *testing.T) {
	t.Parallel()
	a := MaskValue(strPtr("2024-01-01"), MaskHash)
	require.NotNil(t, a)
	assert.Len(t, *a, 64)
	assert.Equal(t, a, MaskValue(strPtr("2024-01-01"), MaskHash))
	assert.NotEqual(t, a, MaskValue(strPtr("2024-01-02"), MaskHash))
}

func TestColumnProfile_MaskRange(t *testing.T) {
	t.Parallel()
	avg := 12.5
	p := ColumnProfile{Min: strPtr("10"), Max: strPtr("15"), Avg: &avg}
	p.MaskRange(MaskRedact)

	assert.Equal(t, "***", *p.Min)
	assert.Equal(t, "***", *p.Max)
	assert.Equal(t, 12.5, *p.Avg)
}
