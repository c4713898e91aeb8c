package cmd

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ridoystarlord/schemalock/diff"
	"github.com/ridoystarlord/schemalock/lockfile"
	"github.com/ridoystarlord/schemalock/snapshot"
)

var diffFormat string

var diffCmd = &cobra.Command{
	Use:   "diff",
	Short: "Show column, index and option changes since the last lock",
	Long: `Compare the schemas with the snapshots stored in the lock file.

Properties carrying a renamedFrom hint are reported as renames instead of
a removal plus an addition. Lock files written in the legacy hash-only
format only tell which schemas changed.

Examples:
  schemalock diff
  schemalock diff --format json
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		schemas, err := loadSchemas()
		if err != nil {
			return fmt.Errorf("failed to load schemas: %w", err)
		}
		snaps, err := snapshot.NewBuilder().Snapshots(schemas)
		if err != nil {
			return err
		}

		lf, _, err := readLock()
		if err != nil {
			return err
		}

		cmp := lockfile.CompareDeep(snaps, renameHints(schemas), lf)
		if diffFormat == "json" {
			return printJSON(cmp)
		}

		if !cmp.HasChanges {
			fmt.Println("✅ No differences found between schemas and lock file")
			return nil
		}
		if lf.Version() == lockfile.VersionHashes {
			fmt.Println("⚠️  Lock file uses the hash-only format; run 'schemalock lock' to record snapshots")
		}
		showVisualDiff(cmp)
		return nil
	},
}

func init() {
	diffCmd.Flags().StringVarP(&diffFormat, "format", "f", "text", "Output format (text, json)")
}

func showVisualDiff(cmp lockfile.Comparison) {
	green := color.New(color.FgGreen, color.Bold)
	red := color.New(color.FgRed, color.Bold)
	yellow := color.New(color.FgYellow, color.Bold)

	fmt.Println("🌳 Schema Changes (Visual Diff)")
	fmt.Println(strings.Repeat("=", 50))

	for _, c := range cmp.Changes {
		switch c.ChangeType {
		case lockfile.SchemaAdded:
			green.Printf("\n  ➕ CREATE %s\n", c.SchemaName)
		case lockfile.SchemaRemoved:
			red.Printf("\n  ❌ DROP %s\n", c.SchemaName)
		case lockfile.SchemaModified:
			yellow.Printf("\n  ⚡ MODIFY %s", c.SchemaName)
			fmt.Printf("  (%s)\n", diff.Summarize(c.Result))
			showColumnChanges(c.ColumnChanges)
			showIndexChanges(c.IndexChanges)
			showOptionChanges(c.OptionChanges)
		}
	}
}

func showColumnChanges(changes []diff.ColumnChange) {
	if len(changes) == 0 {
		return
	}
	green := color.New(color.FgGreen, color.Bold)
	red := color.New(color.FgRed, color.Bold)
	blue := color.New(color.FgBlue, color.Bold)
	magenta := color.New(color.FgMagenta, color.Bold)

	fmt.Println("    📝 Columns:")
	for _, c := range changes {
		switch c.ChangeType {
		case diff.ColumnAdded:
			green.Printf("      ➕ ADD %s (%s)\n", c.Column, c.CurrentDef.Type)
		case diff.ColumnRemoved:
			red.Printf("      ❌ DROP %s\n", c.Column)
		case diff.ColumnModified:
			blue.Printf("      🔄 MODIFY %s: %s\n", c.Column, strings.Join(c.Modifications, ", "))
		case diff.ColumnRenamed:
			magenta.Printf("      ✏️  RENAME %s → %s", c.PreviousColumn, c.Column)
			if len(c.Modifications) > 0 {
				magenta.Printf(" (%s)", strings.Join(c.Modifications, ", "))
			}
			magenta.Println()
		}
	}
}

func showIndexChanges(changes []diff.IndexChange) {
	if len(changes) == 0 {
		return
	}
	green := color.New(color.FgGreen, color.Bold)
	red := color.New(color.FgRed, color.Bold)

	fmt.Println("    🔍 Indexes:")
	for _, c := range changes {
		kind := "INDEX"
		if c.Index.Unique {
			kind = "UNIQUE INDEX"
		}
		cols := strings.Join(c.Index.Columns, ", ")
		switch c.ChangeType {
		case diff.IndexAdded:
			green.Printf("      ➕ CREATE %s (%s)\n", kind, cols)
		case diff.IndexRemoved:
			red.Printf("      ❌ DROP %s (%s)\n", kind, cols)
		}
	}
}

func showOptionChanges(changes *diff.OptionChanges) {
	if changes == nil {
		return
	}
	cyan := color.New(color.FgCyan)

	fmt.Println("    ⚙️  Options:")
	for _, opt := range []struct {
		name   string
		change *diff.BoolChange
	}{
		{"timestamps", changes.Timestamps},
		{"softDelete", changes.SoftDelete},
		{"id", changes.ID},
	} {
		if opt.change != nil {
			cyan.Printf("      🔧 %s: %s → %s\n", opt.name, boolLabel(opt.change.From), boolLabel(opt.change.To))
		}
	}
	if changes.IDType != nil {
		cyan.Printf("      🔧 idType: %q → %q\n", changes.IDType.From, changes.IDType.To)
	}
}

func boolLabel(b *bool) string {
	if b == nil {
		return "unset"
	}
	return fmt.Sprint(*b)
}
