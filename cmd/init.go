package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

const exampleConfig = `# schemalock configuration
schemasDir: schemas
lockFile: .omnify.lock
chainFile: .omnify.chain
driver: mysql
migrationsDir: database/migrations
environment: production
staleAfter: 168h
logLevel: info
logFormat: text
`

const exampleUser = `name: User
properties:
  email:
    type: Email
    unique: true
  name:
    type: String
    length: 100
  status:
    type: EnumRef
    target: UserStatus
options:
  timestamps: true
  softDelete: true
  indexes:
    - columns: [status]
`

const exampleUserStatus = `name: UserStatus
kind: enum
values: [active, suspended]
`

const examplePost = `name: Post
properties:
  title:
    type: String
  body:
    type: Text
    nullable: true
  author:
    type: Association
    relation: ManyToOne
    target: User
    onDelete: CASCADE
options:
  timestamps: true
  unique: [title]
`

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new schemalock project",
	Long: `Create a config file and an example schemas directory.

Existing files are left untouched.

Examples:
  schemalock init
  schemalock init --config custom.yaml
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := os.Stat(configFile); err == nil {
			fmt.Printf("⚠️  %s already exists, skipping\n", configFile)
		} else {
			if err := os.WriteFile(configFile, []byte(exampleConfig), 0o644); err != nil {
				return fmt.Errorf("creating %s: %w", configFile, err)
			}
			fmt.Printf("✅ Created %s\n", configFile)
		}

		if _, err := os.Stat(cfg.SchemasDir); err == nil {
			fmt.Printf("⚠️  %s directory already exists, skipping examples\n", cfg.SchemasDir)
			return nil
		}
		if err := os.MkdirAll(cfg.SchemasDir, 0o755); err != nil {
			return fmt.Errorf("failed to create schemas directory: %w", err)
		}

		examples := map[string]string{
			"User.yaml":       exampleUser,
			"UserStatus.yaml": exampleUserStatus,
			"Post.yaml":       examplePost,
		}
		for name, content := range examples {
			if err := os.WriteFile(filepath.Join(cfg.SchemasDir, name), []byte(content), 0o644); err != nil {
				return fmt.Errorf("creating %s: %w", name, err)
			}
		}

		fmt.Printf("✅ Created %s with example schemas\n", cfg.SchemasDir)
		fmt.Println("📝 Edit the YAML files to define your schemas")
		fmt.Println("🚀 Run 'schemalock lock' to record them in the lock file")
		return nil
	},
}
