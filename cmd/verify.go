package cmd

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ridoystarlord/schemalock/chain"
)

var verifyFormat string

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify the version chain and the locked schema files",
	Long: `Recompute every block hash, check the links between blocks and compare
the last locked state of each schema with the file on disk.

Examples:
  schemalock verify
  schemalock verify --format json
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := readChain()
		if err != nil {
			return err
		}
		if c == nil {
			fmt.Printf("ℹ️  No version chain at %s; run 'schemalock deploy' first\n", cfg.ChainFile)
			return nil
		}

		res, err := chain.Verify(c, cfg.SchemasDir)
		if err != nil {
			return fmt.Errorf("verification failed: %w", err)
		}

		if verifyFormat == "json" {
			if err := printJSON(res); err != nil {
				return err
			}
		} else {
			showVerification(res)
		}

		if !res.Valid {
			return errors.New("version chain verification failed")
		}
		return nil
	},
}

func init() {
	verifyCmd.Flags().StringVarP(&verifyFormat, "format", "f", "text", "Output format (text, json)")
}

func showVerification(res *chain.VerificationResult) {
	red := color.New(color.FgRed, color.Bold)
	yellow := color.New(color.FgYellow, color.Bold)
	cyan := color.New(color.FgCyan)

	if res.Valid {
		color.Green("✅ Version chain intact: %d/%d blocks verified", len(res.VerifiedBlocks), res.BlockCount)
		return
	}
	color.Red("❌ Version chain verification failed: %d/%d blocks verified", len(res.VerifiedBlocks), res.BlockCount)

	if len(res.CorruptedBlocks) > 0 {
		fmt.Printf("\n🧱 Corrupted blocks (%d):\n", len(res.CorruptedBlocks))
		for _, b := range res.CorruptedBlocks {
			red.Printf("  • %s: %s\n", b.Version, b.Reason)
			cyan.Printf("      expected %s\n", b.ExpectedHash)
			cyan.Printf("      actual   %s\n", b.ActualHash)
		}
	}
	if len(res.TamperedSchemas) > 0 {
		fmt.Printf("\n✏️  Modified locked schemas (%d):\n", len(res.TamperedSchemas))
		for _, s := range res.TamperedSchemas {
			yellow.Printf("  • %s (%s)", s.SchemaName, s.FilePath)
			fmt.Printf(" locked in %s: %s → %s\n", s.LockedInVersion, shortHash(s.LockedHash), shortHash(s.CurrentHash))
		}
	}
	if len(res.DeletedLockedSchemas) > 0 {
		fmt.Printf("\n🗑️  Deleted locked schemas (%d):\n", len(res.DeletedLockedSchemas))
		for _, s := range res.DeletedLockedSchemas {
			red.Printf("  • %s (%s)", s.SchemaName, s.FilePath)
			fmt.Printf(" locked in %s\n", s.LockedInVersion)
		}
	}
}
