package domain

import (
	"crypto/sha256"
	"fmt"
)

// MaskType is how a sensitive column's observed extremes are hidden in reports
// and in the metrics store.
type MaskType string

const (
	MaskRedact  MaskType = "redact"
	MaskHash    MaskType = "hash"
	MaskPartial MaskType = "partial"
	MaskNull    MaskType = "null"
)

// Valid accepts the known strategies and "" (no mask).
func (m MaskType) Valid() bool {
	switch m {
	case MaskRedact, MaskHash, MaskPartial, MaskNull, "":
		return true
	}
	return false
}

// MaskValue transforms a single rendered value. Nil stays nil.
func MaskValue(value *string, maskType MaskType) *string {
	if value == nil {
		return nil
	}
	var out string
	switch maskType {
	case MaskRedact:
		out = "***"
	case MaskHash:
		out = fmt.Sprintf("%x", sha256.Sum256([]byte(*value)))
	case MaskPartial:
		out = maskPartial(*value)
	case MaskNull:
		return nil
	default:
		return value
	}
	return &out
}

// maskPartial keeps the last four runes.
func maskPartial(s string) string {
	runes := []rune(s)
	if len(runes) <= 4 {
		return "***" + s
	}
	for i := 0; i < len(runes)-4; i++ {
		runes[i] = '*'
	}
	return string(runes)
}

// MaskRange applies maskType to the min and max of a profile. Aggregates
// (avg, stddev, median) are not value-revealing and stay untouched.
func (p *ColumnProfile) MaskRange(maskType MaskType) {
	p.Min = MaskValue(p.Min, maskType)
	p.Max = MaskValue(p.Max, maskType)
}
