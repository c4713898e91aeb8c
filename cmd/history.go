package cmd

import (
	"fmt"
	"slices"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ridoystarlord/schemalock/chain"
)

var (
	historyLimit    int
	historyEnv      string
	historyDetailed bool
	historyFormat   string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show deployed versions from the version chain",
	Long: `Show the blocks of the version chain, newest first.

Examples:
  schemalock history                    # Show all versions
  schemalock history --limit 10         # Show the last 10 versions
  schemalock history --env staging      # Show versions deployed to staging
  schemalock history --detailed         # List the locked schemas of each version
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := readChain()
		if err != nil {
			return err
		}
		if c == nil || len(c.Blocks) == 0 {
			fmt.Println("📋 No versions deployed yet")
			return nil
		}

		var blocks []chain.Block
		for _, b := range slices.Backward(c.Blocks) {
			if historyEnv != "" && b.Environment != historyEnv {
				continue
			}
			blocks = append(blocks, b)
		}
		if historyLimit > 0 && len(blocks) > historyLimit {
			blocks = blocks[:historyLimit]
		}

		if historyFormat == "json" {
			return printJSON(blocks)
		}
		showVersionHistory(chain.Summarize(c), blocks, historyDetailed)
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "l", 0, "Limit number of versions shown")
	historyCmd.Flags().StringVarP(&historyEnv, "env", "e", "", "Show versions of one environment")
	historyCmd.Flags().BoolVarP(&historyDetailed, "detailed", "d", false, "List the locked schemas of each version")
	historyCmd.Flags().StringVarP(&historyFormat, "format", "f", "text", "Output format (text, json)")
}

func showVersionHistory(summary chain.Summary, blocks []chain.Block, detailed bool) {
	fmt.Println("📋 Version History")
	fmt.Println(strings.Repeat("=", 60))

	if detailed {
		showDetailedHistory(blocks)
	} else {
		showSummaryHistory(blocks)
	}

	fmt.Println(strings.Repeat("-", 80))
	fmt.Printf("📊 Summary: %d versions, %d schemas, %s → %s\n",
		summary.BlockCount, summary.SchemaCount, summary.FirstVersion, summary.LatestVersion)
	fmt.Printf("🌍 Environments: %s\n", strings.Join(summary.Environments, ", "))
}

func showDetailedHistory(blocks []chain.Block) {
	blue := color.New(color.FgBlue, color.Bold)
	cyan := color.New(color.FgCyan)

	for i, b := range blocks {
		fmt.Printf("\n%d. ", i+1)
		blue.Printf("%s\n", b.Version)
		cyan.Printf("   📅 Locked: %s\n", b.LockedAt)
		cyan.Printf("   🌍 Environment: %s\n", b.Environment)
		if b.DeployedBy != "" {
			cyan.Printf("   👤 User: %s\n", b.DeployedBy)
		}
		if b.Comment != "" {
			cyan.Printf("   💬 Comment: %s\n", b.Comment)
		}
		cyan.Printf("   🔗 Block: %s\n", b.BlockHash)
		cyan.Printf("   📦 Schemas (%d):\n", len(b.Schemas))
		for _, e := range b.Schemas {
			fmt.Printf("      • %-20s %-30s %s\n", e.Name, e.RelativePath, shortHash(e.ContentHash))
		}
	}
}

func showSummaryHistory(blocks []chain.Block) {
	blue := color.New(color.FgBlue, color.Bold)

	fmt.Printf("%-4s %-22s %-12s %-8s %-10s %s\n", "#", "Version", "Environment", "Schemas", "User", "Locked")
	fmt.Println(strings.Repeat("-", 80))

	for i, b := range blocks {
		version := b.Version
		if len(version) > 20 {
			version = version[:17] + "..."
		}
		user := b.DeployedBy
		if user == "" {
			user = "N/A"
		}
		fmt.Printf("%-4d %-22s %-12s %-8d %-10s %s\n",
			i+1,
			blue.Sprint(version),
			b.Environment,
			len(b.Schemas),
			user,
			b.LockedAt,
		)
	}
}
