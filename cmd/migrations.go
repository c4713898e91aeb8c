package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ridoystarlord/schemalock/lockfile"
)

var (
	migrationsExt    string
	migrationsFormat string

	findType string

	recordSchemas []string
	recordTable   string
	recordType    string
)

var migrationsCmd = &cobra.Command{
	Use:   "migrations",
	Short: "Check generated migration files against the lock file",
	Long: `Compare the migration files in the migrations directory with the
records in the lock file. Tracked files that were deleted or edited make
the check fail; untracked files older than the stale threshold are
reported as stale.

Examples:
  schemalock migrations
  schemalock migrations --ext .sql
  schemalock migrations find users --type create
  schemalock migrations record 2025_01_01_000000_create_users_table.php --schema User
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		lf, _, err := readLock()
		if err != nil {
			return err
		}

		res, err := lockfile.ValidateMigrations(lf, cfg.MigrationsDir, lockfile.ValidateOptions{
			Extension:  migrationsExt,
			StaleAfter: cfg.StaleAfter,
		})
		if err != nil {
			return err
		}
		regenerate := lockfile.MigrationsToRegenerate(lf, res.MissingFiles)

		if migrationsFormat == "json" {
			if err := printJSON(struct {
				lockfile.MigrationValidation
				Regenerate []lockfile.RegenerationTarget `json:"regenerate"`
			}{res, regenerate}); err != nil {
				return err
			}
		} else {
			showMigrationValidation(res, regenerate)
		}

		if !res.Valid {
			return errors.New("migration files do not match the lock file")
		}
		return nil
	},
}

var migrationsFindCmd = &cobra.Command{
	Use:   "find <table>",
	Short: "Find the recorded migration for a table",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		lf, _, err := readLock()
		if err != nil {
			return err
		}
		rec, ok := lockfile.FindMigrationByTable(lf, args[0], lockfile.MigrationKind(findType))
		if !ok {
			return fmt.Errorf("no migration recorded for table '%s'", args[0])
		}
		if migrationsFormat == "json" {
			return printJSON(rec)
		}
		color.New(color.FgBlue, color.Bold).Printf("📄 %s\n", rec.FileName)
		fmt.Printf("   🏷️  Type: %s\n", rec.Kind())
		fmt.Printf("   📅 Generated: %s\n", rec.GeneratedAt.Format("2006-01-02 15:04:05"))
		fmt.Printf("   📦 Schemas: %s\n", strings.Join(rec.Schemas, ", "))
		fmt.Printf("   🔍 Checksum: %s...\n", shortHash(rec.Checksum))
		return nil
	},
}

var migrationsRecordCmd = &cobra.Command{
	Use:   "record <file>",
	Short: "Record a generated migration file in the lock file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		if !filepath.IsAbs(path) && filepath.Dir(path) == "." {
			path = filepath.Join(cfg.MigrationsDir, path)
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read migration: %w", err)
		}

		lf, _, err := readLock()
		if err != nil {
			return err
		}
		fileName := filepath.Base(path)
		ts, _ := lockfile.ExtractTimestamp(fileName)
		table := recordTable
		if table == "" {
			table, _ = lockfile.ExtractTableName(fileName)
		}

		next := lockfile.AppendMigrationRecord(lf, lockfile.MigrationSpec{
			FileName:  fileName,
			Timestamp: ts,
			TableName: table,
			Type:      lockfile.MigrationKind(recordType),
			Schemas:   recordSchemas,
			Content:   string(content),
		})
		if err := lockfile.Write(cfg.LockFile, next); err != nil {
			return err
		}
		color.Green("📝 Recorded %s (%d migrations tracked)", fileName, len(next.Migrations))
		return nil
	},
}

func init() {
	migrationsCmd.PersistentFlags().StringVar(&migrationsExt, "ext", ".php", "Migration file extension")
	migrationsCmd.PersistentFlags().StringVarP(&migrationsFormat, "format", "f", "text", "Output format (text, json)")

	migrationsFindCmd.Flags().StringVarP(&findType, "type", "t", "", "Migration type (create, alter, drop, pivot)")

	migrationsRecordCmd.Flags().StringSliceVarP(&recordSchemas, "schema", "s", nil, "Schemas the migration was generated from")
	migrationsRecordCmd.Flags().StringVar(&recordTable, "table", "", "Table name (default: taken from the file name)")
	migrationsRecordCmd.Flags().StringVarP(&recordType, "type", "t", "", "Migration type (create, alter, drop, pivot)")

	migrationsCmd.AddCommand(migrationsFindCmd)
	migrationsCmd.AddCommand(migrationsRecordCmd)
}

func showMigrationValidation(res lockfile.MigrationValidation, regenerate []lockfile.RegenerationTarget) {
	red := color.New(color.FgRed, color.Bold)
	yellow := color.New(color.FgYellow, color.Bold)
	cyan := color.New(color.FgCyan)

	fmt.Printf("📊 Tracked: %d, on disk: %d\n", res.TotalTracked, res.TotalOnDisk)

	for _, name := range res.MissingFiles {
		red.Printf("  ❌ MISSING  %s\n", name)
	}
	for _, name := range res.ModifiedFiles {
		yellow.Printf("  ✏️  MODIFIED %s\n", name)
	}
	for _, name := range res.StaleFiles {
		cyan.Printf("  🕒 STALE    %s\n", name)
	}

	if len(regenerate) > 0 {
		fmt.Println("\n♻️  Regenerate:")
		for _, t := range regenerate {
			fmt.Printf("  • %s (%s %s from %s)\n", t.FileName, t.Type, t.TableName, strings.Join(t.Schemas, ", "))
		}
	}

	if res.Valid {
		color.Green("\n✅ Migration files match the lock file")
	}
}
