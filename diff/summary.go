package diff

import (
	"fmt"
	"strings"
)

// Summarize renders a one-line description of a result, e.g.
// "2 added, 1 renamed, 1 index removed, options changed".
func Summarize(r Result) string {
	counts := map[ColumnChangeType]int{}
	for _, c := range r.ColumnChanges {
		counts[c.ChangeType]++
	}

	var parts []string
	for _, t := range []ColumnChangeType{ColumnAdded, ColumnRemoved, ColumnModified, ColumnRenamed} {
		if n := counts[t]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, t))
		}
	}

	var added, removed int
	for _, c := range r.IndexChanges {
		if c.ChangeType == IndexAdded {
			added++
		} else {
			removed++
		}
	}
	if added > 0 {
		parts = append(parts, fmt.Sprintf("%d %s added", added, plural("index", added)))
	}
	if removed > 0 {
		parts = append(parts, fmt.Sprintf("%d %s removed", removed, plural("index", removed)))
	}
	if r.OptionChanges != nil {
		parts = append(parts, "options changed")
	}

	if len(parts) == 0 {
		return "no structural changes"
	}
	return strings.Join(parts, ", ")
}

func plural(word string, n int) string {
	if n == 1 {
		return word
	}
	return word + "es"
}
