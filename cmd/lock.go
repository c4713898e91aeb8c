package cmd

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ridoystarlord/schemalock/chain"
	"github.com/ridoystarlord/schemalock/lockfile"
	"github.com/ridoystarlord/schemalock/snapshot"
)

var (
	lockLegacy bool
	lockForce  bool
)

var lockCmd = &cobra.Command{
	Use:   "lock",
	Short: "Record the current schemas in the lock file",
	Long: `Replace the schema state in the lock file with the current schemas.
Migration history is kept.

Schemas that were deployed to the version chain cannot be modified or
removed; use --force to record them anyway.

Examples:
  schemalock lock
  schemalock lock --legacy     # Write the hash-only (version 1) format
  schemalock lock --force      # Ignore version chain locks
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		schemas, err := loadSchemas()
		if err != nil {
			return fmt.Errorf("failed to load schemas: %w", err)
		}

		builder := snapshot.NewBuilder()
		snaps, err := builder.Snapshots(schemas)
		if err != nil {
			return err
		}
		hashes, err := builder.Hashes(schemas)
		if err != nil {
			return err
		}

		prev, found, err := readLock()
		if err != nil {
			return err
		}
		cmp := lockfile.CompareShallow(hashes, prev)
		if found && !cmp.HasChanges {
			fmt.Println("✅ Lock file is up to date")
			return nil
		}

		if err := checkChainLocks(cmp); err != nil {
			return err
		}

		var next *lockfile.LockFile
		if lockLegacy {
			next = lockfile.UpdateHashes(prev, hashes, cfg.Driver)
		} else {
			next = lockfile.Update(prev, snaps, cfg.Driver)
		}
		if err := lockfile.Write(cfg.LockFile, next); err != nil {
			return err
		}

		slog.Info("lock file written",
			"path", cfg.LockFile,
			"version", int(next.Version()),
			"schemas", len(hashes),
			"changes", len(cmp.Changes))
		showComparison(cmp)
		color.Green("\n🔒 Locked %d schemas in %s", len(hashes), cfg.LockFile)
		return nil
	},
}

func init() {
	lockCmd.Flags().BoolVar(&lockLegacy, "legacy", false, "Write the hash-only lock file format")
	lockCmd.Flags().BoolVar(&lockForce, "force", false, "Record changes to schemas locked in the version chain")
}

// checkChainLocks refuses changes to schemas that appear in the version
// chain unless --force is set.
func checkChainLocks(cmp lockfile.Comparison) error {
	c, err := readChain()
	if err != nil || c == nil {
		return err
	}

	var requests []chain.LockRequest
	for _, change := range cmp.Changes {
		switch change.ChangeType {
		case lockfile.SchemaModified:
			requests = append(requests, chain.LockRequest{Name: change.SchemaName, Action: chain.ActionModify})
		case lockfile.SchemaRemoved:
			requests = append(requests, chain.LockRequest{Name: change.SchemaName, Action: chain.ActionDelete})
		}
	}
	res := chain.CheckBulkLockViolation(c, requests)
	if res.Allowed {
		return nil
	}

	if lockForce {
		slog.Warn("recording changes to locked schemas", "schemas", res.AffectedSchemas, "versions", res.LockedInVersions)
		return nil
	}
	color.Red("🔐 %s", res.Reason)
	return errors.New("locked schemas changed; rerun with --force to record them anyway")
}
