package sqldb

import (
	"strconv"
	"strings"
)

// DeclaredType rebuilds a full type name from INFORMATION_SCHEMA parts,
// e.g. ("varchar", 50) -> "varchar(50)", ("decimal", p=10, s=2) ->
// "decimal(10,2)". A length of -1 is rendered as (max).
func DeclaredType(base string, maxLength, precision, scale *int64) string {
	lower := strings.ToLower(base)
	switch {
	case maxLength != nil && *maxLength == -1:
		return base + "(max)"
	case maxLength != nil && *maxLength > 0:
		return base + "(" + strconv.FormatInt(*maxLength, 10) + ")"
	case precision != nil && (lower == "decimal" || lower == "numeric" || lower == "number"):
		s := int64(0)
		if scale != nil {
			s = *scale
		}
		return base + "(" + strconv.FormatInt(*precision, 10) + "," + strconv.FormatInt(s, 10) + ")"
	}
	return base
}
