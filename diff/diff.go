package diff

import (
	"bytes"
	"maps"
	"slices"
	"strings"

	"github.com/ridoystarlord/schemalock/checksum"
	"github.com/ridoystarlord/schemalock/snapshot"
)

type ColumnChangeType string

const (
	ColumnAdded    ColumnChangeType = "added"
	ColumnRemoved  ColumnChangeType = "removed"
	ColumnModified ColumnChangeType = "modified"
	ColumnRenamed  ColumnChangeType = "renamed"
)

type IndexChangeType string

const (
	IndexAdded   IndexChangeType = "added"
	IndexRemoved IndexChangeType = "removed"
)

// RenameHints maps a current field name to the previous field name it
// replaces. Hints are supplied per diff and never persisted.
type RenameHints map[string]string

type ColumnChange struct {
	Column         string                     `json:"column"`
	ChangeType     ColumnChangeType           `json:"changeType"`
	PreviousDef    *snapshot.PropertySnapshot `json:"previousDef,omitempty"`
	CurrentDef     *snapshot.PropertySnapshot `json:"currentDef,omitempty"`
	Modifications  []string                   `json:"modifications,omitempty"`
	PreviousColumn string                     `json:"previousColumn,omitempty"`
}

type IndexChange struct {
	ChangeType IndexChangeType        `json:"changeType"`
	Index      snapshot.IndexSnapshot `json:"index"`
}

type BoolChange struct {
	From *bool `json:"from,omitempty"`
	To   *bool `json:"to,omitempty"`
}

type StringChange struct {
	From string `json:"from,omitempty"`
	To   string `json:"to,omitempty"`
}

// OptionChanges records differing schema-level flags. Unchanged flags are nil.
type OptionChanges struct {
	Timestamps *BoolChange   `json:"timestamps,omitempty"`
	SoftDelete *BoolChange   `json:"softDelete,omitempty"`
	ID         *BoolChange   `json:"id,omitempty"`
	IDType     *StringChange `json:"idType,omitempty"`
}

type Result struct {
	ColumnChanges []ColumnChange `json:"columnChanges,omitempty"`
	IndexChanges  []IndexChange  `json:"indexChanges,omitempty"`
	OptionChanges *OptionChanges `json:"optionChanges,omitempty"`
}

// Empty reports whether the result carries no change at all.
func (r Result) Empty() bool {
	return len(r.ColumnChanges) == 0 && len(r.IndexChanges) == 0 && r.OptionChanges == nil
}

// Snapshots computes the column, index and option differences between two
// snapshots of the same schema.
//
// Renames are classified first; both names of a rename are then excluded
// from the added, removed and modified passes. A hint whose source field
// is absent from prev is ignored, so its field is reported as added.
func Snapshots(prev, curr snapshot.SchemaSnapshot, hints RenameHints) Result {
	var changes []ColumnChange

	prevNames := slices.Sorted(maps.Keys(prev.Properties))
	currNames := slices.Sorted(maps.Keys(curr.Properties))

	renamedNew := map[string]bool{}
	renamedOld := map[string]bool{}

	// 1. Renames
	for _, name := range currNames {
		from, ok := hints[name]
		if !ok {
			continue
		}
		prevProp, exists := prev.Properties[from]
		if !exists {
			continue
		}
		currProp := curr.Properties[name]
		changes = append(changes, ColumnChange{
			Column:         name,
			ChangeType:     ColumnRenamed,
			PreviousColumn: from,
			PreviousDef:    &prevProp,
			CurrentDef:     &currProp,
			Modifications:  Properties(prevProp, currProp),
		})
		renamedNew[name] = true
		renamedOld[from] = true
	}

	// 2. Added
	for _, name := range currNames {
		if _, exists := prev.Properties[name]; exists || renamedNew[name] {
			continue
		}
		currProp := curr.Properties[name]
		changes = append(changes, ColumnChange{
			Column:     name,
			ChangeType: ColumnAdded,
			CurrentDef: &currProp,
		})
	}

	// 3. Removed
	for _, name := range prevNames {
		if _, exists := curr.Properties[name]; exists || renamedOld[name] {
			continue
		}
		prevProp := prev.Properties[name]
		changes = append(changes, ColumnChange{
			Column:      name,
			ChangeType:  ColumnRemoved,
			PreviousDef: &prevProp,
		})
	}

	// 4. Modified
	for _, name := range currNames {
		prevProp, exists := prev.Properties[name]
		if !exists || renamedNew[name] || renamedOld[name] {
			continue
		}
		currProp := curr.Properties[name]
		mods := Properties(prevProp, currProp)
		if len(mods) == 0 {
			continue
		}
		changes = append(changes, ColumnChange{
			Column:        name,
			ChangeType:    ColumnModified,
			PreviousDef:   &prevProp,
			CurrentDef:    &currProp,
			Modifications: mods,
		})
	}

	return Result{
		ColumnChanges: changes,
		IndexChanges:  Indexes(prev.Indexes, curr.Indexes),
		OptionChanges: Options(prev, curr),
	}
}

// Properties lists the attributes that differ between two field definitions.
func Properties(prev, curr snapshot.PropertySnapshot) []string {
	var mods []string
	check := func(name string, differs bool) {
		if differs {
			mods = append(mods, name)
		}
	}

	check("type", prev.Type != curr.Type)
	check("nullable", !ptrEqual(prev.Nullable, curr.Nullable))
	check("unique", !ptrEqual(prev.Unique, curr.Unique))
	check("default", !valueEqual(prev.Default, curr.Default))
	check("length", !ptrEqual(prev.Length, curr.Length))
	check("unsigned", !ptrEqual(prev.Unsigned, curr.Unsigned))
	check("precision", !ptrEqual(prev.Precision, curr.Precision))
	check("scale", !ptrEqual(prev.Scale, curr.Scale))
	check("enum", !slices.Equal(prev.Enum, curr.Enum))
	check("relation", prev.Relation != curr.Relation)
	check("target", prev.Target != curr.Target)
	check("onDelete", prev.OnDelete != curr.OnDelete)
	check("onUpdate", prev.OnUpdate != curr.OnUpdate)
	check("mappedBy", prev.MappedBy != curr.MappedBy)

	return mods
}

// Indexes compares index lists keyed by ordered column list and uniqueness.
// Reordering the columns of an index is a removal plus an addition.
func Indexes(prev, curr []snapshot.IndexSnapshot) []IndexChange {
	var changes []IndexChange

	prevKeys := indexSet(prev)
	currKeys := indexSet(curr)

	seen := map[string]bool{}
	for _, idx := range curr {
		key := indexKey(idx)
		if seen[key] {
			continue
		}
		seen[key] = true
		if _, ok := prevKeys[key]; !ok {
			changes = append(changes, IndexChange{ChangeType: IndexAdded, Index: currKeys[key]})
		}
	}

	clear(seen)
	for _, idx := range prev {
		key := indexKey(idx)
		if seen[key] {
			continue
		}
		seen[key] = true
		if _, ok := currKeys[key]; !ok {
			changes = append(changes, IndexChange{ChangeType: IndexRemoved, Index: prevKeys[key]})
		}
	}

	return changes
}

// Options compares the schema-level flags. It returns nil when none differ.
func Options(prev, curr snapshot.SchemaSnapshot) *OptionChanges {
	var oc OptionChanges
	changed := false

	if !ptrEqual(prev.Timestamps, curr.Timestamps) {
		oc.Timestamps = &BoolChange{From: prev.Timestamps, To: curr.Timestamps}
		changed = true
	}
	if !ptrEqual(prev.SoftDelete, curr.SoftDelete) {
		oc.SoftDelete = &BoolChange{From: prev.SoftDelete, To: curr.SoftDelete}
		changed = true
	}
	if !ptrEqual(prev.ID, curr.ID) {
		oc.ID = &BoolChange{From: prev.ID, To: curr.ID}
		changed = true
	}
	if prev.IDType != curr.IDType {
		oc.IDType = &StringChange{From: prev.IDType, To: curr.IDType}
		changed = true
	}

	if !changed {
		return nil
	}
	return &oc
}

func indexKey(idx snapshot.IndexSnapshot) string {
	unique := "false"
	if idx.Unique {
		unique = "true"
	}
	return strings.Join(idx.Columns, ",") + ":" + unique
}

// indexSet keys indexes; a later duplicate replaces an earlier one.
func indexSet(indexes []snapshot.IndexSnapshot) map[string]snapshot.IndexSnapshot {
	set := make(map[string]snapshot.IndexSnapshot, len(indexes))
	for _, idx := range indexes {
		set[indexKey(idx)] = idx
	}
	return set
}

func ptrEqual[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// valueEqual compares default values by their canonical encoding, so the
// same number decoded from YAML and from JSON compares equal.
func valueEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ea, errA := checksum.Canonical(a)
	eb, errB := checksum.Canonical(b)
	if errA != nil || errB != nil {
		return false
	}
	return bytes.Equal(ea, eb)
}
