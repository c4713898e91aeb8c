package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ridoystarlord/schemalock/chain"
	"github.com/ridoystarlord/schemalock/validator"
)

var (
	deployVersion  string
	deployEnv      string
	deployBy       string
	deployComment  string
	deploySkipLint bool
)

var deployCmd = &cobra.Command{
	Use:   "deploy",
	Short: "Lock the current schema files in a new version block",
	Long: `Append a block to the version chain that locks the content of every
schema file. Schemas changed since their last lock are reported and locked
in their new state.

Examples:
  schemalock deploy                              # Version name from the current time
  schemalock deploy --version v1.2.0 --env staging
  schemalock deploy --by alice --comment "initial release"
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		schemas, err := loadSchemas()
		if err != nil {
			return fmt.Errorf("failed to load schemas: %w", err)
		}

		if !deploySkipLint {
			result := validator.NewSchemaValidator().ValidateSchemas(schemas)
			if !result.Valid {
				outputText(result)
				return errors.New("refusing to deploy invalid schemas (use --skip-validate to override)")
			}
		}

		env := deployEnv
		if env == "" {
			env = cfg.Environment
		}
		by := deployBy
		if by == "" {
			by = os.Getenv("USER")
		}

		res, err := chain.Deploy(cfg.ChainFile, schemaFiles(schemas), chain.DeployOptions{
			Version:     deployVersion,
			Environment: env,
			DeployedBy:  by,
			Comment:     deployComment,
		})
		if err != nil {
			return fmt.Errorf("deploy failed: %w", err)
		}

		green := color.New(color.FgGreen, color.Bold)
		yellow := color.New(color.FgYellow, color.Bold)
		cyan := color.New(color.FgCyan)

		green.Printf("🚀 Deployed %s to %s\n", res.Block.Version, res.Block.Environment)
		cyan.Printf("   🔗 Block:    %s\n", res.Block.BlockHash)
		if res.Block.PreviousHash != nil {
			cyan.Printf("   ⛓️  Previous: %s\n", *res.Block.PreviousHash)
		}
		cyan.Printf("   📦 Schemas:  %d\n", len(res.Block.Schemas))
		for _, name := range res.AddedSchemas {
			green.Printf("   ➕ %s\n", name)
		}
		for _, name := range res.ModifiedSchemas {
			yellow.Printf("   ⚡ %s\n", name)
		}
		for _, w := range res.Warnings {
			yellow.Printf("   ⚠️  %s\n", w)
		}
		return nil
	},
}

func init() {
	deployCmd.Flags().StringVar(&deployVersion, "version", "", "Version label (default: generated from the current time)")
	deployCmd.Flags().StringVar(&deployEnv, "env", "", "Target environment (default: config environment)")
	deployCmd.Flags().StringVar(&deployBy, "by", "", "Who deployed (default: $USER)")
	deployCmd.Flags().StringVar(&deployComment, "comment", "", "Free-form comment stored with the block")
	deployCmd.Flags().BoolVar(&deploySkipLint, "skip-validate", false, "Deploy without validating schemas first")
}
