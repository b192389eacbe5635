package domain

import (
	"regexp"
	"sort"
	"strings"

	"github.com/texttheater/golang-levenshtein/levenshtein"
)

// DiffKind classifies an index, foreign key or check constraint difference.
type DiffKind string

const (
	DiffAdded   DiffKind = "added"
	DiffRemoved DiffKind = "removed"
	DiffRenamed DiffKind = "renamed"
)

func (k DiffKind) swap() DiffKind {
	switch k {
	case DiffAdded:
		return DiffRemoved
	case DiffRemoved:
		return DiffAdded
	}
	return k
}

// FieldChange is one differing attribute of a column present on both sides.
type FieldChange struct {
	Field  string `json:"field"`
	Before any    `json:"before"`
	After  any    `json:"after"`
}

const (
	FieldDataType = "dataType"
	FieldNullable = "nullable"
	FieldDefault  = "defaultValue"
)

type IndexDiff struct {
	Kind     DiffKind     `json:"kind"`
	Index    IndexSchema  `json:"index"`
	Previous *IndexSchema `json:"previous,omitempty"`
}

// IndexMembershipChange records a column that gained or lost index coverage.
type IndexMembershipChange struct {
	Column string `json:"column"`
	Before bool   `json:"before"`
	After  bool   `json:"after"`
}

type ForeignKeyDiff struct {
	Kind       DiffKind         `json:"kind"`
	ForeignKey ForeignKeySchema `json:"foreign_key"`
}

type CheckDiff struct {
	Kind       DiffKind        `json:"kind"`
	Constraint CheckConstraint `json:"constraint"`
}

type PrimaryKeyChange struct {
	Before []string `json:"before"`
	After  []string `json:"after"`
}

// RenameHint pairs a removed and an added column that look like a rename.
// Hints never change how the columns are classified.
type RenameHint struct {
	From       string  `json:"from"`
	To         string  `json:"to"`
	Similarity float64 `json:"similarity"`
}

// SchemaDiff is the structural difference between two snapshots of a table.
type SchemaDiff struct {
	TableName       string                   `json:"table_name"`
	AddedColumns    []ColumnSchema           `json:"added_columns"`
	RemovedColumns  []ColumnSchema           `json:"removed_columns"`
	ModifiedColumns map[string][]FieldChange `json:"modified_columns"`
	IndexDiffs      []IndexDiff              `json:"index_diffs"`
	IndexMembership []IndexMembershipChange  `json:"index_membership"`
	ForeignKeyDiffs []ForeignKeyDiff         `json:"foreign_key_diffs"`
	PrimaryKey      *PrimaryKeyChange        `json:"primary_key,omitempty"`
	CheckDiffs      []CheckDiff              `json:"check_diffs"`
	RenameHints     []RenameHint             `json:"rename_hints,omitempty"`
}

// IsEmpty reports whether the two snapshots are structurally equal.
func (d SchemaDiff) IsEmpty() bool {
	return len(d.AddedColumns) == 0 &&
		len(d.RemovedColumns) == 0 &&
		len(d.ModifiedColumns) == 0 &&
		len(d.IndexDiffs) == 0 &&
		len(d.IndexMembership) == 0 &&
		len(d.ForeignKeyDiffs) == 0 &&
		d.PrimaryKey == nil &&
		len(d.CheckDiffs) == 0
}

// ChangeCount is the number of individual differences, used for metrics.
func (d SchemaDiff) ChangeCount() int {
	n := len(d.AddedColumns) + len(d.RemovedColumns) + len(d.IndexDiffs) +
		len(d.IndexMembership) + len(d.ForeignKeyDiffs) + len(d.CheckDiffs)
	for _, fc := range d.ModifiedColumns {
		n += len(fc)
	}
	if d.PrimaryKey != nil {
		n++
	}
	return n
}

// Swap returns the diff as seen from the other direction.
func (d SchemaDiff) Swap() SchemaDiff {
	out := SchemaDiff{
		TableName:       d.TableName,
		AddedColumns:    d.RemovedColumns,
		RemovedColumns:  d.AddedColumns,
		ModifiedColumns: make(map[string][]FieldChange, len(d.ModifiedColumns)),
	}
	for name, changes := range d.ModifiedColumns {
		swapped := make([]FieldChange, len(changes))
		for i, c := range changes {
			swapped[i] = FieldChange{Field: c.Field, Before: c.After, After: c.Before}
		}
		out.ModifiedColumns[name] = swapped
	}
	for _, id := range d.IndexDiffs {
		if id.Kind == DiffRenamed && id.Previous != nil {
			prev := id.Index
			out.IndexDiffs = append(out.IndexDiffs, IndexDiff{Kind: DiffRenamed, Index: *id.Previous, Previous: &prev})
			continue
		}
		out.IndexDiffs = append(out.IndexDiffs, IndexDiff{Kind: id.Kind.swap(), Index: id.Index})
	}
	for _, m := range d.IndexMembership {
		out.IndexMembership = append(out.IndexMembership, IndexMembershipChange{Column: m.Column, Before: m.After, After: m.Before})
	}
	for _, fk := range d.ForeignKeyDiffs {
		out.ForeignKeyDiffs = append(out.ForeignKeyDiffs, ForeignKeyDiff{Kind: fk.Kind.swap(), ForeignKey: fk.ForeignKey})
	}
	for _, c := range d.CheckDiffs {
		out.CheckDiffs = append(out.CheckDiffs, CheckDiff{Kind: c.Kind.swap(), Constraint: c.Constraint})
	}
	if d.PrimaryKey != nil {
		out.PrimaryKey = &PrimaryKeyChange{Before: d.PrimaryKey.After, After: d.PrimaryKey.Before}
	}
	for _, h := range d.RenameHints {
		out.RenameHints = append(out.RenameHints, RenameHint{From: h.To, To: h.From, Similarity: h.Similarity})
	}
	out.sort()
	return out
}

func (d *SchemaDiff) sort() {
	byName := func(cols []ColumnSchema) {
		sort.Slice(cols, func(i, j int) bool { return cols[i].Name < cols[j].Name })
	}
	byName(d.AddedColumns)
	byName(d.RemovedColumns)
	sort.Slice(d.IndexDiffs, func(i, j int) bool {
		a, b := d.IndexDiffs[i], d.IndexDiffs[j]
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		return a.Index.Name < b.Index.Name
	})
	sort.Slice(d.IndexMembership, func(i, j int) bool { return d.IndexMembership[i].Column < d.IndexMembership[j].Column })
	sort.Slice(d.ForeignKeyDiffs, func(i, j int) bool {
		a, b := d.ForeignKeyDiffs[i], d.ForeignKeyDiffs[j]
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		return a.ForeignKey.Signature() < b.ForeignKey.Signature()
	})
	sort.Slice(d.CheckDiffs, func(i, j int) bool {
		a, b := d.CheckDiffs[i], d.CheckDiffs[j]
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		return a.Constraint.Signature() < b.Constraint.Signature()
	})
	sort.Slice(d.RenameHints, func(i, j int) bool {
		a, b := d.RenameHints[i], d.RenameHints[j]
		if a.From != b.From {
			return a.From < b.From
		}
		return a.To < b.To
	})
}

// RenameSimilarity is the minimum name similarity for a rename hint.
const RenameSimilarity = 0.7

// Comparator diffs two table snapshots. It is stateless and safe for
// concurrent use.
type Comparator struct {
	// Strict compares default expressions verbatim and index access methods.
	// Relaxed mode ignores cosmetic default differences such as ((0)) vs 0.
	Strict bool
}

// Compare computes the changes needed to go from before to after. Either
// side may be nil when the table is missing from that environment.
func (c Comparator) Compare(before, after *TableSchema) SchemaDiff {
	diff := SchemaDiff{ModifiedColumns: make(map[string][]FieldChange)}
	switch {
	case after != nil:
		diff.TableName = after.TableName
	case before != nil:
		diff.TableName = before.TableName
	}

	bCols, aCols := columnsOf(before), columnsOf(after)
	for name, col := range aCols {
		if _, ok := bCols[name]; !ok {
			diff.AddedColumns = append(diff.AddedColumns, col)
		}
	}
	for name, bc := range bCols {
		ac, ok := aCols[name]
		if !ok {
			diff.RemovedColumns = append(diff.RemovedColumns, bc)
			continue
		}
		if changes := c.compareColumn(bc, ac); len(changes) > 0 {
			diff.ModifiedColumns[name] = changes
		}
	}

	diff.IndexDiffs = c.compareIndexes(indexesOf(before), indexesOf(after))
	diff.IndexMembership = compareMembership(before, after, bCols, aCols)
	diff.ForeignKeyDiffs = compareForeignKeys(foreignKeysOf(before), foreignKeysOf(after))
	diff.CheckDiffs = compareChecks(checksOf(before), checksOf(after))
	if pkB, pkA := primaryKeyOf(before), primaryKeyOf(after); !equalFoldSlices(pkB, pkA) {
		diff.PrimaryKey = &PrimaryKeyChange{Before: pkB, After: pkA}
	}
	diff.RenameHints = renameHints(diff.RemovedColumns, diff.AddedColumns)

	diff.sort()
	return diff
}

func (c Comparator) compareColumn(before, after ColumnSchema) []FieldChange {
	var changes []FieldChange
	if normalizeDataType(before.DataType) != normalizeDataType(after.DataType) {
		changes = append(changes, FieldChange{Field: FieldDataType, Before: before.DataType, After: after.DataType})
	}
	if before.Nullable != after.Nullable {
		changes = append(changes, FieldChange{Field: FieldNullable, Before: before.Nullable, After: after.Nullable})
	}
	if !c.sameDefault(before.DefaultValue, after.DefaultValue) {
		changes = append(changes, FieldChange{Field: FieldDefault, Before: derefOrNil(before.DefaultValue), After: derefOrNil(after.DefaultValue)})
	}
	return changes
}

var (
	typeSpacing = regexp.MustCompile(`\s*([(),])\s*`)
	pgCast      = regexp.MustCompile(`::[a-zA-Z_ ]+(\[\])?(\(\d+(,\d+)?\))?`)
)

func normalizeDataType(t string) string {
	return typeSpacing.ReplaceAllString(strings.ToLower(collapseSpace(t)), "$1")
}

func (c Comparator) sameDefault(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if c.Strict {
		return *a == *b
	}
	return normalizeDefault(*a) == normalizeDefault(*b)
}

// normalizeDefault strips the engine decoration around a default
// expression: PostgreSQL casts and MSSQL's wrapping parentheses.
func normalizeDefault(s string) string {
	s = pgCast.ReplaceAllString(strings.TrimSpace(s), "")
	for len(s) >= 2 && s[0] == '(' && s[len(s)-1] == ')' && balanced(s[1:len(s)-1]) {
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	return strings.ToLower(collapseSpace(s))
}

func balanced(s string) bool {
	depth := 0
	for _, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 {
				return false
			}
		}
	}
	return depth == 0
}

// compareIndexes matches indexes per signature as a multiset. Within one
// signature, same-named indexes pair first; leftovers pair in name order
// and count as renames in strict mode. Unpaired indexes are added or removed.
func (c Comparator) compareIndexes(before, after []IndexSchema) []IndexDiff {
	bySig := func(idx []IndexSchema) map[string][]IndexSchema {
		m := make(map[string][]IndexSchema, len(idx))
		for _, i := range idx {
			sig := i.Signature(c.Strict)
			m[sig] = append(m[sig], i)
		}
		for _, group := range m {
			sort.Slice(group, func(x, y int) bool { return group[x].Name < group[y].Name })
		}
		return m
	}
	b, a := bySig(before), bySig(after)

	var diffs []IndexDiff
	for sig, added := range a {
		removed := b[sig]
		removed, added = dropSameNamed(removed, added)
		n := min(len(removed), len(added))
		if c.Strict {
			for k := range n {
				p := removed[k]
				diffs = append(diffs, IndexDiff{Kind: DiffRenamed, Index: added[k], Previous: &p})
			}
		}
		for _, idx := range added[n:] {
			diffs = append(diffs, IndexDiff{Kind: DiffAdded, Index: idx})
		}
		for _, idx := range removed[n:] {
			diffs = append(diffs, IndexDiff{Kind: DiffRemoved, Index: idx})
		}
	}
	for sig, removed := range b {
		if _, ok := a[sig]; ok {
			continue
		}
		for _, idx := range removed {
			diffs = append(diffs, IndexDiff{Kind: DiffRemoved, Index: idx})
		}
	}
	return diffs
}

// dropSameNamed removes the indexes present by name on both sides.
func dropSameNamed(before, after []IndexSchema) ([]IndexSchema, []IndexSchema) {
	names := make(map[string]int, len(before))
	for _, i := range before {
		names[i.Name]++
	}
	var restA []IndexSchema
	for _, i := range after {
		if names[i.Name] > 0 {
			names[i.Name]--
			continue
		}
		restA = append(restA, i)
	}
	var restB []IndexSchema
	for _, i := range before {
		if names[i.Name] > 0 {
			names[i.Name]--
			restB = append(restB, i)
		}
	}
	return restB, restA
}

func compareMembership(before, after *TableSchema, bCols, aCols map[string]ColumnSchema) []IndexMembershipChange {
	if before == nil || after == nil {
		return nil
	}
	bIdx, aIdx := before.IndexedColumns(), after.IndexedColumns()
	var out []IndexMembershipChange
	for name := range bCols {
		if _, ok := aCols[name]; !ok {
			continue
		}
		_, wasIndexed := bIdx[name]
		_, isIndexed := aIdx[name]
		if wasIndexed != isIndexed {
			out = append(out, IndexMembershipChange{Column: name, Before: wasIndexed, After: isIndexed})
		}
	}
	return out
}

func compareForeignKeys(before, after []ForeignKeySchema) []ForeignKeyDiff {
	b, a := make(map[string]ForeignKeySchema), make(map[string]ForeignKeySchema)
	for _, fk := range before {
		b[fk.Signature()] = fk
	}
	for _, fk := range after {
		a[fk.Signature()] = fk
	}
	var diffs []ForeignKeyDiff
	for sig, fk := range a {
		if _, ok := b[sig]; !ok {
			diffs = append(diffs, ForeignKeyDiff{Kind: DiffAdded, ForeignKey: fk})
		}
	}
	for sig, fk := range b {
		if _, ok := a[sig]; !ok {
			diffs = append(diffs, ForeignKeyDiff{Kind: DiffRemoved, ForeignKey: fk})
		}
	}
	return diffs
}

func compareChecks(before, after []CheckConstraint) []CheckDiff {
	b, a := make(map[string]CheckConstraint), make(map[string]CheckConstraint)
	for _, c := range before {
		b[c.Signature()] = c
	}
	for _, c := range after {
		a[c.Signature()] = c
	}
	var diffs []CheckDiff
	for sig, c := range a {
		if _, ok := b[sig]; !ok {
			diffs = append(diffs, CheckDiff{Kind: DiffAdded, Constraint: c})
		}
	}
	for sig, c := range b {
		if _, ok := a[sig]; !ok {
			diffs = append(diffs, CheckDiff{Kind: DiffRemoved, Constraint: c})
		}
	}
	return diffs
}

func renameHints(removed, added []ColumnSchema) []RenameHint {
	var hints []RenameHint
	for _, r := range removed {
		for _, a := range added {
			if normalizeDataType(r.DataType) != normalizeDataType(a.DataType) {
				continue
			}
			if sim := NameSimilarity(r.Name, a.Name); sim >= RenameSimilarity {
				hints = append(hints, RenameHint{From: r.Name, To: a.Name, Similarity: sim})
			}
		}
	}
	return hints
}

// NameSimilarity is 1 - levenshtein(a, b) / max(len(a), len(b)), case-insensitive.
func NameSimilarity(a, b string) float64 {
	ra, rb := []rune(strings.ToLower(a)), []rune(strings.ToLower(b))
	maxLen := max(len(ra), len(rb))
	if maxLen == 0 {
		return 1
	}
	dist := levenshtein.DistanceForStrings(ra, rb, levenshtein.DefaultOptionsWithSub)
	return 1 - float64(dist)/float64(maxLen)
}

func columnsOf(s *TableSchema) map[string]ColumnSchema {
	if s == nil {
		return nil
	}
	return s.Columns
}

func indexesOf(s *TableSchema) []IndexSchema {
	if s == nil {
		return nil
	}
	return s.Indexes
}

func foreignKeysOf(s *TableSchema) []ForeignKeySchema {
	if s == nil {
		return nil
	}
	return s.ForeignKeys
}

func checksOf(s *TableSchema) []CheckConstraint {
	if s == nil {
		return nil
	}
	return s.CheckConstraints
}

func primaryKeyOf(s *TableSchema) []string {
	if s == nil {
		return nil
	}
	return s.PrimaryKey
}

func equalFoldSlices(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !strings.EqualFold(a[i], b[i]) {
			return false
		}
	}
	return true
}

func derefOrNil(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

// ColumnState is the per-column dashboard classification.
type ColumnState string

const (
	StateMatch    ColumnState = "match"
	StateModified ColumnState = "modified"
	StateAdded    ColumnState = "added"
	StateRemoved  ColumnState = "removed"
)

type ColumnStatus struct {
	Column  string        `json:"column"`
	State   ColumnState   `json:"state"`
	Changes []FieldChange `json:"changes,omitempty"`
}

// ColumnStatuses lays out every column from either side with its state,
// after-side columns first in ordinal order, then removed ones.
func ColumnStatuses(before, after *TableSchema, diff SchemaDiff) []ColumnStatus {
	removed := make(map[string]bool, len(diff.RemovedColumns))
	for _, c := range diff.RemovedColumns {
		removed[c.Name] = true
	}
	added := make(map[string]bool, len(diff.AddedColumns))
	for _, c := range diff.AddedColumns {
		added[c.Name] = true
	}

	var out []ColumnStatus
	for _, col := range after.OrderedColumns() {
		st := ColumnStatus{Column: col.Name, State: StateMatch}
		switch {
		case added[col.Name]:
			st.State = StateAdded
		case len(diff.ModifiedColumns[col.Name]) > 0:
			st.State = StateModified
			st.Changes = diff.ModifiedColumns[col.Name]
		}
		out = append(out, st)
	}
	for _, col := range before.OrderedColumns() {
		if removed[col.Name] {
			out = append(out, ColumnStatus{Column: col.Name, State: StateRemoved})
		}
	}
	return out
}
