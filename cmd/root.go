package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ridoystarlord/schemalock/config"
	"github.com/ridoystarlord/schemalock/logger"
)

var (
	configFile string
	logLevel   string
	logFormat  string

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "schemalock",
	Short: "Track, diff and lock schema definitions",
	Long: `schemalock keeps a lock file of your schema definitions and a
hash-linked version chain of every deployed schema set.

Examples:

  schemalock init
  schemalock status
  schemalock diff
  schemalock lock
  schemalock deploy --version v1.0.0 --env production
  schemalock verify
`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configFile)
		if err != nil {
			return err
		}
		if logLevel != "" {
			loaded.LogLevel = logLevel
		}
		if logFormat != "" {
			loaded.LogFormat = logFormat
		}
		cfg = loaded

		slog.SetDefault(logger.New(cfg.LogLevel, cfg.LogFormat, os.Stderr))
		slog.Debug("configuration loaded",
			"config", configFile,
			"schemas", cfg.SchemasDir,
			"lock", cfg.LockFile,
			"chain", cfg.ChainFile)
		return nil
	},
}

// Execute runs the CLI
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("❌", err)
		os.Exit(1)
	}
}

// Register subcommands
func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", config.DefaultFile, "Config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format (text, json)")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(diffCmd)
	rootCmd.AddCommand(lockCmd)
	rootCmd.AddCommand(deployCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(migrationsCmd)
}
