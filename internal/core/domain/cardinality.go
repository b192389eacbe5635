package domain

// CardinalityClass summarises how many distinct values a column carries
// relative to its row count.
type CardinalityClass string

const (
	CardinalityUnique     CardinalityClass = "unique"
	CardinalityNearUnique CardinalityClass = "near_unique"
	CardinalityHigh       CardinalityClass = "high"
	CardinalityLow        CardinalityClass = "low"
	CardinalityEnumLike   CardinalityClass = "enum_like"
	CardinalityConstant   CardinalityClass = "constant"
)

// ClassifyByDistinctCount buckets a column by COUNT(DISTINCT) over COUNT(*).
// Returns "" when the table is empty.
func ClassifyByDistinctCount(distinctCount, totalRows int64) CardinalityClass {
	if totalRows <= 0 {
		return ""
	}
	if distinctCount == totalRows {
		return CardinalityUnique
	}
	if distinctCount <= 1 {
		return CardinalityConstant
	}
	if float64(distinctCount)/float64(totalRows) >= 0.9 {
		return CardinalityNearUnique
	}
	switch {
	case distinctCount <= 20:
		return CardinalityEnumLike
	case distinctCount <= 200:
		return CardinalityLow
	default:
		return CardinalityHigh
	}
}
