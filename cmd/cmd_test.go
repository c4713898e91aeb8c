package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridoystarlord/schemalock/chain"
	"github.com/ridoystarlord/schemalock/lockfile"
)

func run(t *testing.T, args ...string) error {
	t.Helper()
	resetFlags(rootCmd)
	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}

// resetFlags restores every flag to its default so each run starts clean.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func TestWorkflow(t *testing.T) {
	t.Chdir(t.TempDir())

	require.NoError(t, run(t, "init"))
	assert.FileExists(t, "schemalock.yaml")
	assert.FileExists(t, filepath.Join("schemas", "User.yaml"))

	require.NoError(t, run(t, "validate"))
	require.NoError(t, run(t, "lock"))

	lf, found, err := lockfile.Read(lockfile.FileName)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, lockfile.VersionSnapshots, lf.Version())
	assert.Len(t, lf.Hashes(), 3)

	require.NoError(t, run(t, "status"))
	require.NoError(t, run(t, "diff"))

	require.NoError(t, run(t, "deploy", "--version", "v1.0.0", "--by", "tester"))
	c, found, err := chain.Read(chain.FileName)
	require.NoError(t, err)
	require.True(t, found)
	require.Len(t, c.Blocks, 1)
	assert.Equal(t, "v1.0.0", c.Blocks[0].Version)
	assert.Equal(t, "production", c.Blocks[0].Environment)
	assert.Equal(t, "tester", c.Blocks[0].DeployedBy)

	require.NoError(t, run(t, "verify"))
	require.NoError(t, run(t, "history", "--detailed"))
	assert.Error(t, run(t, "check", "User"))

	migrations := filepath.Join("database", "migrations")
	require.NoError(t, os.MkdirAll(migrations, 0o755))
	migration := "2025_01_01_000000_create_users_table.php"
	require.NoError(t, os.WriteFile(filepath.Join(migrations, migration), []byte("<?php // users"), 0o644))

	require.NoError(t, run(t, "migrations", "record", migration, "--schema", "User"))
	require.NoError(t, run(t, "migrations"))
	require.NoError(t, run(t, "migrations", "find", "users"))

	lf, _, err = lockfile.Read(lockfile.FileName)
	require.NoError(t, err)
	require.Len(t, lf.Migrations, 1)
	assert.Equal(t, "users", lf.Migrations[0].TableName)
	assert.Equal(t, []string{"User"}, lf.Migrations[0].Schemas)

	require.NoError(t, os.Remove(filepath.Join(migrations, migration)))
	assert.Error(t, run(t, "migrations"))

	user := filepath.Join("schemas", "User.yaml")
	content, err := os.ReadFile(user)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(user, append(content, "    \n# edited\n"...), 0o644))

	assert.Error(t, run(t, "verify"), "edited locked schema")
}

func TestLockRefusesLockedChanges(t *testing.T) {
	t.Chdir(t.TempDir())

	require.NoError(t, run(t, "init"))
	require.NoError(t, run(t, "lock"))
	require.NoError(t, run(t, "deploy", "--version", "v1"))

	require.NoError(t, os.Remove(filepath.Join("schemas", "Post.yaml")))
	assert.Error(t, run(t, "lock"))

	lf, _, err := lockfile.Read(lockfile.FileName)
	require.NoError(t, err)
	assert.Contains(t, lf.Hashes(), "Post", "lock file untouched")

	require.NoError(t, run(t, "lock", "--force"))
	lf, _, err = lockfile.Read(lockfile.FileName)
	require.NoError(t, err)
	assert.NotContains(t, lf.Hashes(), "Post")
}
