package cmd

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ridoystarlord/schemalock/validator"
)

var validateFormat string

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate schema definitions",
	Long: `Validate every schema file in the schemas directory.

This command checks:
- Schema and property naming
- Property types, lengths, precision and scale
- Enum schemas and enum properties
- Associations (relation kind, target, referential actions)
- Rename hints (renamedFrom)
- Index and unique constraint columns
- References between schemas

Examples:
  schemalock validate                 # Validate schemas/
  schemalock validate --format json   # Output validation results as JSON
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		schemas, err := loadSchemas()
		if err != nil {
			return fmt.Errorf("failed to load schemas: %w", err)
		}

		result := validator.NewSchemaValidator().ValidateSchemas(schemas)
		if validateFormat == "json" {
			if err := printJSON(result); err != nil {
				return err
			}
		} else {
			outputText(result)
		}

		if !result.Valid {
			return errors.New("schema validation failed")
		}
		return nil
	},
}

func init() {
	validateCmd.Flags().StringVarP(&validateFormat, "format", "f", "text", "Output format (text, json)")
}

func printFindings(title string, findings []validator.ValidationError) {
	if len(findings) == 0 {
		return
	}
	fmt.Printf("\n%s (%d):\n", title, len(findings))
	for i, f := range findings {
		fmt.Printf("  %d. ", i+1)
		if f.Schema != "" {
			fmt.Printf("[%s]", f.Schema)
		}
		if f.Property != "" {
			fmt.Printf(".%s", f.Property)
		}
		if f.Index != "" {
			fmt.Printf(" (index: %s)", f.Index)
		}
		fmt.Printf(": %s\n", f.Message)
	}
}

func outputText(result *validator.ValidationResult) {
	if result.Valid {
		color.Green("✅ Schema validation passed!")
	} else {
		color.Red("❌ Schema validation failed!")
	}

	printFindings("🔴 Errors", result.Errors)
	printFindings("🟡 Warnings", result.Warnings)
	printFindings("🔵 Info", result.Info)

	fmt.Printf("\n📊 Summary:\n")
	fmt.Printf("  • Errors: %d\n", len(result.Errors))
	fmt.Printf("  • Warnings: %d\n", len(result.Warnings))
	fmt.Printf("  • Info: %d\n", len(result.Info))

	if result.Valid {
		fmt.Printf("\n🎉 Your schemas are valid and ready to lock!\n")
	} else {
		fmt.Printf("\n💡 Fix the errors above before locking.\n")
	}
}
