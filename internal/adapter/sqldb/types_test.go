package sqldb

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func i64(v int64) *int64 { return &v }

func TestDeclaredType(t *testing.T) {
	tests := []struct {
		name                string
		base                string
		length, prec, scale *int64
		want                string
	}{
		{"plain", "int", nil, i64(10), i64(0), "int"},
		{"varchar", "varchar", i64(50), nil, nil, "varchar(50)"},
		{"nvarchar max", "nvarchar", i64(-1), nil, nil, "nvarchar(max)"},
		{"decimal", "decimal", nil, i64(10), i64(2), "decimal(10,2)"},
		{"oracle number no scale", "NUMBER", nil, i64(19), nil, "NUMBER(19,0)"},
		{"zero length ignored", "text", i64(0), nil, nil, "text"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeclaredType(tt.base, tt.length, tt.prec, tt.scale))
		})
	}
}
