package chain

import (
	"fmt"
	"slices"
	"strings"
)

type Action string

const (
	ActionDelete Action = "delete"
	ActionModify Action = "modify"
)

type LockRequest struct {
	Name   string
	Action Action
}

type LockCheckResult struct {
	Allowed          bool     `json:"allowed"`
	Reason           string   `json:"reason,omitempty"`
	AffectedSchemas  []string `json:"affectedSchemas"`
	LockedInVersions []string `json:"lockedInVersions"`
}

func allowed() LockCheckResult {
	return LockCheckResult{
		Allowed:          true,
		AffectedSchemas:  []string{},
		LockedInVersions: []string{},
	}
}

// CheckLockViolation denies any action on a schema that appears in a
// block. Locks are permanent; the denial lists every version that locked
// the schema.
func CheckLockViolation(c *Chain, name string, action Action) LockCheckResult {
	var versions []string
	for _, b := range c.Blocks {
		if slices.ContainsFunc(b.Schemas, func(e SchemaEntry) bool { return e.Name == name }) {
			versions = append(versions, b.Version)
		}
	}
	if len(versions) == 0 {
		return allowed()
	}

	verb := "Modification"
	if action == ActionDelete {
		verb = "Deletion"
	}
	return LockCheckResult{
		Allowed: false,
		Reason: fmt.Sprintf("Schema '%s' is locked in production version(s): %s. %s is not allowed.",
			name, strings.Join(versions, ", "), verb),
		AffectedSchemas:  []string{name},
		LockedInVersions: versions,
	}
}

// CheckBulkLockViolation checks every request and aggregates the denied
// schemas and the union of their locking versions.
func CheckBulkLockViolation(c *Chain, requests []LockRequest) LockCheckResult {
	var names, versions []string
	for _, req := range requests {
		res := CheckLockViolation(c, req.Name, req.Action)
		if res.Allowed {
			continue
		}
		names = append(names, req.Name)
		for _, v := range res.LockedInVersions {
			if !slices.Contains(versions, v) {
				versions = append(versions, v)
			}
		}
	}
	if len(names) == 0 {
		return allowed()
	}

	return LockCheckResult{
		Allowed: false,
		Reason: fmt.Sprintf("The following schemas are locked: %s. They cannot be modified or deleted.",
			strings.Join(names, ", ")),
		AffectedSchemas:  names,
		LockedInVersions: versions,
	}
}
