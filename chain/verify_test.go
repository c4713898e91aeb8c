package chain

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// deployed returns a schema directory and a chain of three blocks locking
// its files.
func deployed(t *testing.T) (string, *Chain) {
	t.Helper()
	dir, files := schemaDir(t, map[string]string{
		"User": "name: User\n",
		"Post": "name: Post\n",
	})
	chainPath := filepath.Join(dir, FileName)
	for i, v := range []string{"v1", "v2", "v3"} {
		_, err := Deploy(chainPath, files, DeployOptions{
			Version:     v,
			Environment: "production",
			LockedAt:    t0.Add(time.Duration(i) * time.Hour),
		})
		require.NoError(t, err)
	}
	c, _, err := Read(chainPath)
	require.NoError(t, err)
	return dir, c
}

func TestVerify_IntactChain(t *testing.T) {
	dir, c := deployed(t)

	res, err := Verify(c, dir)
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.Equal(t, 3, res.BlockCount)
	assert.Equal(t, []string{"v1", "v2", "v3"}, res.VerifiedBlocks)
	assert.Empty(t, res.CorruptedBlocks)
	assert.Empty(t, res.TamperedSchemas)
	assert.Empty(t, res.DeletedLockedSchemas)
}

func TestVerify_EmptyChain(t *testing.T) {
	res, err := Verify(New(t0), t.TempDir())
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.Equal(t, 0, res.BlockCount)
}

func TestVerify_TamperedSchema(t *testing.T) {
	dir, c := deployed(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "User.yaml"), []byte("name: User\nkind: enum\n"), 0o644))

	res, err := Verify(c, dir)
	require.NoError(t, err)
	assert.False(t, res.Valid)
	require.Len(t, res.TamperedSchemas, 1)

	tampered := res.TamperedSchemas[0]
	assert.Equal(t, "User", tampered.SchemaName)
	assert.Equal(t, "User.yaml", tampered.FilePath)
	assert.Equal(t, "v3", tampered.LockedInVersion)
	assert.NotEqual(t, tampered.LockedHash, tampered.CurrentHash)
	assert.Empty(t, res.CorruptedBlocks)
	assert.Empty(t, res.DeletedLockedSchemas)
}

func TestVerify_DeletedSchema(t *testing.T) {
	dir, c := deployed(t)
	require.NoError(t, os.Remove(filepath.Join(dir, "Post.yaml")))

	res, err := Verify(c, dir)
	require.NoError(t, err)
	assert.False(t, res.Valid)
	require.Len(t, res.DeletedLockedSchemas, 1)
	assert.Equal(t, "Post", res.DeletedLockedSchemas[0].SchemaName)
	assert.Equal(t, "v3", res.DeletedLockedSchemas[0].LockedInVersion)
	assert.Empty(t, res.TamperedSchemas)
}

func TestVerify_EditedBlockField(t *testing.T) {
	dir, c := deployed(t)
	c.Blocks[0].Environment = "staging"

	res, err := Verify(c, dir)
	require.NoError(t, err)
	assert.False(t, res.Valid)
	require.Len(t, res.CorruptedBlocks, 1)
	assert.Equal(t, "v1", res.CorruptedBlocks[0].Version)
	assert.Equal(t, ReasonHashMismatch, res.CorruptedBlocks[0].Reason)
	assert.Equal(t, c.Blocks[0].BlockHash, res.CorruptedBlocks[0].ActualHash)
	assert.Equal(t, []string{"v2", "v3"}, res.VerifiedBlocks)
}

func TestVerify_BrokenLink(t *testing.T) {
	dir, c := deployed(t)
	c.Blocks[1].PreviousHash = strPtr("0000")

	res, err := Verify(c, dir)
	require.NoError(t, err)
	assert.False(t, res.Valid)
	require.Len(t, res.CorruptedBlocks, 1)

	broken := res.CorruptedBlocks[0]
	assert.Equal(t, "v2", broken.Version)
	assert.Equal(t, ReasonBrokenLink, broken.Reason)
	assert.Equal(t, c.Blocks[0].BlockHash, broken.ExpectedHash)
	assert.Equal(t, "0000", broken.ActualHash)
}

func TestVerify_GenesisWithPreviousHash(t *testing.T) {
	dir, c := deployed(t)
	c.Blocks[0].PreviousHash = strPtr("abc")

	res, err := Verify(c, dir)
	require.NoError(t, err)
	require.Len(t, res.CorruptedBlocks, 1)
	assert.Equal(t, "null", res.CorruptedBlocks[0].ExpectedHash)
	assert.Equal(t, "abc", res.CorruptedBlocks[0].ActualHash)
}

func TestVerify_ReplacedBlockHashCascades(t *testing.T) {
	dir, c := deployed(t)
	c.Blocks[1].BlockHash = "forged"

	res, err := Verify(c, dir)
	require.NoError(t, err)
	assert.False(t, res.Valid)

	var reasons []string
	for _, cb := range res.CorruptedBlocks {
		reasons = append(reasons, cb.Version+": "+cb.Reason)
	}
	assert.Equal(t, []string{
		"v2: " + ReasonHashMismatch,
		"v3: " + ReasonHashMismatch,
		"v3: " + ReasonBrokenLink,
	}, reasons)
	assert.Equal(t, []string{"v1"}, res.VerifiedBlocks)
}

func TestVerify_DuplicateVersionLabels(t *testing.T) {
	dir, files := schemaDir(t, map[string]string{"User": "name: User\n"})
	chainPath := filepath.Join(dir, FileName)
	for i := 0; i < 2; i++ {
		_, err := Deploy(chainPath, files, DeployOptions{
			Version:     "v1",
			Environment: "production",
			LockedAt:    t0.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}
	c, _, err := Read(chainPath)
	require.NoError(t, err)
	c.Blocks[0].Comment = "comments are not hashed"
	c.Blocks[1].Environment = "qa"

	res, err := Verify(c, dir)
	require.NoError(t, err)
	require.Len(t, res.CorruptedBlocks, 1)
	assert.Equal(t, []string{"v1"}, res.VerifiedBlocks, "only the untouched block is verified")
}
