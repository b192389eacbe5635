package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrUnsupportedDatabase is returned for database type tags outside the capability table.
var ErrUnsupportedDatabase = errors.New("unsupported database type")

// DatabaseType tags a source engine.
type DatabaseType string

const (
	PostgreSQL DatabaseType = "postgresql"
	MSSQL      DatabaseType = "mssql"
	MySQL      DatabaseType = "mysql"
	Oracle     DatabaseType = "oracle"
)

var databaseAliases = map[string]DatabaseType{
	"postgresql": PostgreSQL,
	"postgres":   PostgreSQL,
	"pg":         PostgreSQL,
	"mssql":      MSSQL,
	"sqlserver":  MSSQL,
	"mysql":      MySQL,
	"mariadb":    MySQL,
	"oracle":     Oracle,
}

// ParseDatabaseType resolves a user-supplied tag (case-insensitive, aliases allowed).
func ParseDatabaseType(s string) (DatabaseType, error) {
	if t, ok := databaseAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return t, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedDatabase, s)
}

// TypeClass decides which statistics a column receives.
type TypeClass string

const (
	TypeNumeric     TypeClass = "numeric"
	TypeTemporal    TypeClass = "temporal"
	TypeUnsupported TypeClass = "unsupported"
)

// HasRange reports whether MIN/MAX apply.
func (c TypeClass) HasRange() bool { return c == TypeNumeric || c == TypeTemporal }

// MedianSupport describes how an engine computes a continuous median.
type MedianSupport int

const (
	MedianNone MedianSupport = iota
	MedianAggregate
	MedianWindow
)

// Capabilities is the static knowledge the engine needs about one dialect.
// Entries are built once and never mutated.
type Capabilities struct {
	Type          DatabaseType
	QuoteOpen     string
	QuoteClose    string
	Types         map[string]TypeClass
	Median        MedianSupport
	StdDevPop     string
	StdDevSamp    string
	CountFunc     string
	TextCast      string // fmt template with one %s
	TemporalCast  string // like TextCast for dates; empty means TextCast
	FloatCast     string // fmt template with one %s
	IntegerLimits map[string]int64
	DefaultSchema string
	placeholder   func(n int) string
	stripModifier bool
	foldUpper     bool
}

var (
	typeParams = regexp.MustCompile(`\([^)]*\)`)
	spaces     = regexp.MustCompile(`\s+`)
)

// QuoteIdentifier wraps name in the dialect's quote pair, doubling any
// embedded closing quote.
func (c Capabilities) QuoteIdentifier(name string) string {
	return c.QuoteOpen + strings.ReplaceAll(name, c.QuoteClose, c.QuoteClose+c.QuoteClose) + c.QuoteClose
}

// Qualify returns schema.table, both quoted. An empty schema yields the bare table.
func (c Capabilities) Qualify(schema, table string) string {
	if schema == "" {
		return c.QuoteIdentifier(table)
	}
	return c.QuoteIdentifier(schema) + "." + c.QuoteIdentifier(table)
}

// CanonicalIdentifier returns name as the catalog stores it when written
// unquoted. On Oracle an all-lower-case name is stored upper-case; names
// with any upper-case letter are taken as quoted and kept. Other dialects
// return name unchanged.
func (c Capabilities) CanonicalIdentifier(name string) string {
	if c.foldUpper && name == strings.ToLower(name) {
		return strings.ToUpper(name)
	}
	return name
}

// NormalizeType lower-cases a declared type and strips its parameters,
// e.g. "NUMERIC(10, 2)" -> "numeric", "timestamp(3) with time zone" ->
// "timestamp with time zone".
func (c Capabilities) NormalizeType(declared string) string {
	t := strings.ToLower(declared)
	t = typeParams.ReplaceAllString(t, "")
	if c.stripModifier {
		t = strings.ReplaceAll(t, "unsigned", "")
		t = strings.ReplaceAll(t, "zerofill", "")
	}
	return strings.TrimSpace(spaces.ReplaceAllString(t, " "))
}

// ClassifyType maps a declared type to its class. Unknown types are unsupported.
func (c Capabilities) ClassifyType(declared string) TypeClass {
	if class, ok := c.Types[c.NormalizeType(declared)]; ok {
		return class
	}
	return TypeUnsupported
}

// RangeCast returns the text cast template for MIN/MAX of class.
func (c Capabilities) RangeCast(class TypeClass) string {
	if class == TypeTemporal && c.TemporalCast != "" {
		return c.TemporalCast
	}
	return c.TextCast
}

// SupportsMedian reports whether the engine exposes a continuous percentile.
func (c Capabilities) SupportsMedian() bool { return c.Median != MedianNone }

// Placeholder returns the n-th (1-based) bind parameter marker.
func (c Capabilities) Placeholder(n int) string {
	if c.placeholder == nil {
		return "?"
	}
	return c.placeholder(n)
}

// MaxValue returns the largest value an integer column of the declared
// type can hold. Unknown types fall back to the signed 64-bit maximum.
func (c Capabilities) MaxValue(declared string) int64 {
	lower := strings.ToLower(declared)
	base := c.NormalizeType(declared)
	limit, ok := c.IntegerLimits[base]
	if !ok {
		return maxBigint
	}
	if c.stripModifier && strings.Contains(lower, "unsigned") {
		if limit >= maxBigint/2 {
			return maxBigint
		}
		return limit*2 + 1
	}
	return limit
}

const maxBigint int64 = 9223372036854775807

func classes(class TypeClass, names ...string) map[string]TypeClass {
	m := make(map[string]TypeClass, len(names))
	for _, n := range names {
		m[n] = class
	}
	return m
}

func merge(maps ...map[string]TypeClass) map[string]TypeClass {
	out := make(map[string]TypeClass)
	for _, m := range maps {
		for k, v := range m {
			out[k] = v
		}
	}
	return out
}

var capabilityTable = map[DatabaseType]Capabilities{
	PostgreSQL: {
		Type:      PostgreSQL,
		QuoteOpen: `"`, QuoteClose: `"`,
		Types: merge(
			classes(TypeNumeric, "smallint", "integer", "int", "bigint", "int2", "int4", "int8",
				"numeric", "decimal", "real", "double precision", "float", "float4", "float8",
				"smallserial", "serial", "bigserial"),
			classes(TypeTemporal, "date", "timestamp", "timestamp without time zone",
				"timestamp with time zone", "timestamptz", "time", "time without time zone",
				"time with time zone", "timetz"),
		),
		Median:        MedianAggregate,
		StdDevPop:     "STDDEV_POP",
		StdDevSamp:    "STDDEV_SAMP",
		CountFunc:     "COUNT",
		TextCast:      "CAST(%s AS text)",
		FloatCast:     "CAST(%s AS double precision)",
		IntegerLimits: map[string]int64{"smallint": 32767, "int2": 32767, "integer": 2147483647, "int": 2147483647, "int4": 2147483647, "serial": 2147483647, "smallserial": 32767},
		DefaultSchema: "public",
		placeholder:   func(n int) string { return fmt.Sprintf("$%d", n) },
	},
	MSSQL: {
		Type:      MSSQL,
		QuoteOpen: "[", QuoteClose: "]",
		Types: merge(
			classes(TypeNumeric, "tinyint", "smallint", "int", "bigint", "decimal", "numeric",
				"float", "real", "money", "smallmoney"),
			classes(TypeTemporal, "date", "datetime", "datetime2", "smalldatetime", "datetimeoffset", "time"),
		),
		Median:        MedianWindow,
		StdDevPop:     "STDEVP",
		StdDevSamp:    "STDEV",
		CountFunc:     "COUNT_BIG",
		TextCast:      "CAST(%s AS NVARCHAR(4000))",
		TemporalCast:  "CONVERT(NVARCHAR(34), %s, 126)",
		FloatCast:     "CAST(%s AS FLOAT)",
		IntegerLimits: map[string]int64{"tinyint": 255, "smallint": 32767, "int": 2147483647},
		DefaultSchema: "dbo",
		placeholder:   func(n int) string { return fmt.Sprintf("@p%d", n) },
	},
	MySQL: {
		Type:      MySQL,
		QuoteOpen: "`", QuoteClose: "`",
		Types: merge(
			classes(TypeNumeric, "tinyint", "smallint", "mediumint", "int", "integer", "bigint",
				"decimal", "numeric", "float", "double", "double precision", "real"),
			classes(TypeTemporal, "date", "datetime", "timestamp", "time", "year"),
		),
		Median:        MedianNone,
		StdDevPop:     "STDDEV_POP",
		StdDevSamp:    "STDDEV_SAMP",
		CountFunc:     "COUNT",
		TextCast:      "CAST(%s AS CHAR)",
		FloatCast:     "CAST(%s AS DOUBLE)",
		IntegerLimits: map[string]int64{"tinyint": 127, "smallint": 32767, "mediumint": 8388607, "int": 2147483647, "integer": 2147483647},
		placeholder:   func(int) string { return "?" },
		stripModifier: true,
	},
	Oracle: {
		Type:      Oracle,
		QuoteOpen: `"`, QuoteClose: `"`,
		Types: merge(
			classes(TypeNumeric, "number", "float", "binary_float", "binary_double", "integer", "smallint"),
			classes(TypeTemporal, "date", "timestamp", "timestamp with time zone", "timestamp with local time zone"),
		),
		Median:        MedianAggregate,
		StdDevPop:     "STDDEV_POP",
		StdDevSamp:    "STDDEV_SAMP",
		CountFunc:     "COUNT",
		TextCast:      "TO_CHAR(%s)",
		TemporalCast:  "TO_CHAR(%s, 'YYYY-MM-DD HH24:MI:SS')",
		FloatCast:     "CAST(%s AS BINARY_DOUBLE)",
		IntegerLimits: map[string]int64{"smallint": 32767, "integer": 2147483647},
		placeholder:   func(n int) string { return fmt.Sprintf(":%d", n) },
		foldUpper:     true,
	},
}

// CapabilitiesFor looks up the capability entry for t.
func CapabilitiesFor(t DatabaseType) (Capabilities, error) {
	c, ok := capabilityTable[t]
	if !ok {
		return Capabilities{}, fmt.Errorf("%w: %q", ErrUnsupportedDatabase, t)
	}
	return c, nil
}

// MustCapabilities is CapabilitiesFor for the built-in constants.
func MustCapabilities(t DatabaseType) Capabilities {
	c, err := CapabilitiesFor(t)
	if err != nil {
		panic(err)
	}
	return c
}
