package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFileAtomic_CreatesAndReplaces(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".omnify.lock")

	require.NoError(t, WriteFileAtomic(path, []byte("first\n"), 0o644))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "first\n", string(data))

	require.NoError(t, WriteFileAtomic(path, []byte("second\n"), 0o644))
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second\n", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestWriteFileAtomic_MissingDirectory(t *testing.T) {
	err := WriteFileAtomic(filepath.Join(t.TempDir(), "nope", "file"), []byte("x"), 0o644)
	assert.Error(t, err)
}

func TestGetenv(t *testing.T) {
	t.Setenv("SCHEMALOCK_TEST_VALUE", "  value ")
	assert.Equal(t, "value", Getenv("SCHEMALOCK_TEST_VALUE", "fallback"))

	t.Setenv("SCHEMALOCK_TEST_BLANK", "   ")
	assert.Equal(t, "fallback", Getenv("SCHEMALOCK_TEST_BLANK", "fallback"))
	assert.Equal(t, "fallback", Getenv("SCHEMALOCK_TEST_UNSET_KEY", "fallback"))
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("SCHEMALOCK_FROM_DOTENV=yes\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("SCHEMALOCK_FROM_DOTENV") })

	LoadEnv(envFile)
	assert.Equal(t, "yes", os.Getenv("SCHEMALOCK_FROM_DOTENV"))

	// Missing files are tolerated.
	LoadEnv(filepath.Join(dir, "missing.env"))
}
