package lockfile

import (
	"maps"
	"slices"

	"github.com/ridoystarlord/schemalock/diff"
	"github.com/ridoystarlord/schemalock/snapshot"
)

type ChangeType string

const (
	SchemaAdded    ChangeType = "added"
	SchemaModified ChangeType = "modified"
	SchemaRemoved  ChangeType = "removed"
)

// SchemaChange describes one schema that differs from the lock file. The
// embedded diff result is only filled by deep comparison.
type SchemaChange struct {
	SchemaName   string     `json:"schemaName"`
	ChangeType   ChangeType `json:"changeType"`
	PreviousHash string     `json:"previousHash,omitempty"`
	CurrentHash  string     `json:"currentHash,omitempty"`
	diff.Result
}

type Comparison struct {
	HasChanges bool           `json:"hasChanges"`
	Changes    []SchemaChange `json:"changes"`
	Unchanged  []string       `json:"unchanged"`
}

// CompareShallow classifies schemas by hash alone. Changes are ordered
// added, removed, then modified, each sorted by name.
func CompareShallow(current map[string]snapshot.SchemaHash, lf *LockFile) Comparison {
	curr := make(map[string]string, len(current))
	for name, h := range current {
		curr[name] = h.Hash
	}
	return compare(curr, lf.Hashes(), nil)
}

// CompareDeep classifies schemas like CompareShallow and attaches column,
// index and option details to every modified schema. A version 1 lock file
// holds no snapshots, so its modified entries carry hashes only.
func CompareDeep(current map[string]snapshot.SchemaSnapshot, hints map[string]diff.RenameHints, lf *LockFile) Comparison {
	curr := make(map[string]string, len(current))
	for name, snap := range current {
		curr[name] = snap.Hash
	}

	var detail func(name string) diff.Result
	if lf != nil {
		switch set := lf.Schemas.(type) {
		case SnapshotSet:
			detail = func(name string) diff.Result {
				return diff.Snapshots(set[name], current[name], hints[name])
			}
		case HashSet, nil:
		}
	}
	return compare(curr, lf.Hashes(), detail)
}

func compare(curr, prev map[string]string, detail func(string) diff.Result) Comparison {
	cmp := Comparison{Changes: []SchemaChange{}, Unchanged: []string{}}

	for _, name := range slices.Sorted(maps.Keys(curr)) {
		if _, ok := prev[name]; !ok {
			cmp.Changes = append(cmp.Changes, SchemaChange{
				SchemaName:  name,
				ChangeType:  SchemaAdded,
				CurrentHash: curr[name],
			})
		}
	}

	for _, name := range slices.Sorted(maps.Keys(prev)) {
		if _, ok := curr[name]; !ok {
			cmp.Changes = append(cmp.Changes, SchemaChange{
				SchemaName:   name,
				ChangeType:   SchemaRemoved,
				PreviousHash: prev[name],
			})
		}
	}

	for _, name := range slices.Sorted(maps.Keys(curr)) {
		prevHash, ok := prev[name]
		if !ok {
			continue
		}
		if prevHash == curr[name] {
			cmp.Unchanged = append(cmp.Unchanged, name)
			continue
		}
		change := SchemaChange{
			SchemaName:   name,
			ChangeType:   SchemaModified,
			PreviousHash: prevHash,
			CurrentHash:  curr[name],
		}
		if detail != nil {
			change.Result = detail(name)
		}
		cmp.Changes = append(cmp.Changes, change)
	}

	cmp.HasChanges = len(cmp.Changes) > 0
	return cmp
}
