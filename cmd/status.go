package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ridoystarlord/schemalock/lockfile"
	"github.com/ridoystarlord/schemalock/snapshot"
)

var statusFormat string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which schemas changed since the last lock",
	Long: `Compare schema content hashes with the lock file.

Examples:
  schemalock status
  schemalock status --format json
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		schemas, err := loadSchemas()
		if err != nil {
			return fmt.Errorf("failed to load schemas: %w", err)
		}
		hashes, err := snapshot.NewBuilder().Hashes(schemas)
		if err != nil {
			return err
		}

		lf, found, err := readLock()
		if err != nil {
			return err
		}

		cmp := lockfile.CompareShallow(hashes, lf)
		if statusFormat == "json" {
			return printJSON(cmp)
		}

		if !found {
			fmt.Printf("🆕 No lock file at %s yet\n", cfg.LockFile)
		}
		showComparison(cmp)
		return nil
	},
}

func init() {
	statusCmd.Flags().StringVarP(&statusFormat, "format", "f", "text", "Output format (text, json)")
}

func showComparison(cmp lockfile.Comparison) {
	green := color.New(color.FgGreen, color.Bold)
	red := color.New(color.FgRed, color.Bold)
	yellow := color.New(color.FgYellow, color.Bold)

	if !cmp.HasChanges {
		fmt.Printf("✅ All %d schemas match the lock file\n", len(cmp.Unchanged))
		return
	}

	fmt.Println("📋 Schema changes:")
	for _, c := range cmp.Changes {
		switch c.ChangeType {
		case lockfile.SchemaAdded:
			green.Printf("  ➕ ADDED    %s\n", c.SchemaName)
		case lockfile.SchemaRemoved:
			red.Printf("  ❌ REMOVED  %s\n", c.SchemaName)
		case lockfile.SchemaModified:
			yellow.Printf("  ⚡ MODIFIED %s", c.SchemaName)
			fmt.Printf(" (%s → %s)\n", shortHash(c.PreviousHash), shortHash(c.CurrentHash))
		}
	}
	if len(cmp.Unchanged) > 0 {
		fmt.Printf("\n🕒 Unchanged: %d\n", len(cmp.Unchanged))
	}
}
