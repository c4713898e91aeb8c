package chain

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridoystarlord/schemalock/checksum"
)

var t0 = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func strPtr(s string) *string { return &s }

// schemaDir writes name -> content as <name>.yaml files and returns the
// directory with matching SchemaFile descriptors.
func schemaDir(t *testing.T, files map[string]string) (string, []SchemaFile) {
	t.Helper()
	dir := t.TempDir()
	var out []SchemaFile
	for name, content := range files {
		rel := name + ".yaml"
		path := filepath.Join(dir, rel)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		out = append(out, SchemaFile{Name: name, RelativePath: rel, FilePath: path})
	}
	return dir, out
}

func TestBlockHash_MatchesReferencePreimage(t *testing.T) {
	got := BlockHash(nil, "v1.0.0", "2025-01-01T00:00:00.000Z", "production", []SchemaEntry{
		{Name: "User", RelativePath: "User.yaml", ContentHash: "abc"},
	})
	assert.Equal(t, "c9ecdd6ee0cf6aae9beb484b36d0410bff90fd5c51c4a6a212442ea92a5cb75d", got)
}

func TestBlockHash_NoHTMLEscapingAndEmptySchemas(t *testing.T) {
	got := BlockHash(strPtr("x<y>&z"), "v2", "2025-01-01T00:00:00.000Z", "staging", nil)
	assert.Equal(t, "bbb62ef2f06cc00910f92acfccb12fa7c204e6e49bb042d33c7b69d667bfb554", got)
}

func TestBuildEntries(t *testing.T) {
	_, files := schemaDir(t, map[string]string{
		"User":    "name: User\n",
		"Comment": "name: Comment\n",
		"Post":    "name: Post\n",
	})
	files = append(files, SchemaFile{Name: "Gone", RelativePath: "Gone.yaml", FilePath: "/does/not/exist.yaml"})

	entries, err := BuildEntries(files)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "Comment", entries[0].Name)
	assert.Equal(t, "Post", entries[1].Name)
	assert.Equal(t, "User", entries[2].Name)
	assert.Equal(t, checksum.Sum("name: User\n"), entries[2].ContentHash)
	assert.Equal(t, "User.yaml", entries[2].RelativePath)
}

func TestGenerateVersionName(t *testing.T) {
	ts := time.Date(2025, 3, 14, 9, 26, 53, 0, time.Local)
	assert.Equal(t, "v2025.03.14-092653", GenerateVersionName(ts))
}

func TestCreateBlock_LinksBlocks(t *testing.T) {
	c := New(t0)
	entries := []SchemaEntry{{Name: "User", RelativePath: "User.yaml", ContentHash: "u1"}}

	var blocks []Block
	for i := 0; i < 4; i++ {
		var b Block
		c, b = CreateBlock(c, entries, DeployOptions{
			Environment: "production",
			LockedAt:    t0.Add(time.Duration(i) * time.Hour),
		})
		blocks = append(blocks, b)
	}

	require.Len(t, c.Blocks, 4)
	assert.Nil(t, c.Blocks[0].PreviousHash)
	for i := 1; i < len(c.Blocks); i++ {
		require.NotNil(t, c.Blocks[i].PreviousHash)
		assert.Equal(t, c.Blocks[i-1].BlockHash, *c.Blocks[i].PreviousHash)
	}
	for _, b := range c.Blocks {
		assert.Equal(t, BlockHash(b.PreviousHash, b.Version, b.LockedAt, b.Environment, b.Schemas), b.BlockHash)
	}
	assert.Equal(t, blocks[0].BlockHash, *c.GenesisHash)
	assert.Equal(t, blocks[3].BlockHash, *c.LatestHash)
	assert.Equal(t, t0.Add(3*time.Hour), c.UpdatedAt)
	assert.Equal(t, "2025-01-01T03:00:00.000Z", c.Blocks[3].LockedAt)
}

func TestCreateBlock_LeavesInputUntouched(t *testing.T) {
	base := New(t0)
	entries := []SchemaEntry{
		{Name: "User", ContentHash: "u"},
		{Name: "Post", ContentHash: "p"},
	}

	next, block := CreateBlock(base, entries, DeployOptions{Version: "v1", Environment: "production", LockedAt: t0})

	assert.Empty(t, base.Blocks)
	assert.Nil(t, base.GenesisHash)
	assert.Nil(t, base.LatestHash)
	assert.Len(t, next.Blocks, 1)
	assert.Equal(t, "User", entries[0].Name, "caller's entries are not reordered")
	assert.Equal(t, "Post", block.Schemas[0].Name)

	again, _ := CreateBlock(next, entries, DeployOptions{Version: "v2", Environment: "production", LockedAt: t0.Add(time.Minute)})
	assert.Len(t, next.Blocks, 1)
	assert.Len(t, again.Blocks, 2)
	assert.Equal(t, *next.GenesisHash, *again.GenesisHash)
}

func TestCreateBlock_DuplicateVersionLabels(t *testing.T) {
	c := New(t0)
	entries := []SchemaEntry{{Name: "User", ContentHash: "u"}}

	c, first := CreateBlock(c, entries, DeployOptions{Version: "v1", Environment: "production", LockedAt: t0})
	c, second := CreateBlock(c, entries, DeployOptions{Version: "v1", Environment: "production", LockedAt: t0.Add(time.Second)})

	require.Len(t, c.Blocks, 2)
	assert.Equal(t, first.Version, second.Version)
	assert.NotEqual(t, first.BlockHash, second.BlockHash)
}

func TestCreateBlock_DefaultVersionName(t *testing.T) {
	locked := time.Date(2025, 6, 1, 12, 30, 45, 0, time.Local)
	_, b := CreateBlock(New(t0), nil, DeployOptions{Environment: "staging", LockedAt: locked})
	assert.Equal(t, "v2025.06.01-123045", b.Version)
	assert.NotNil(t, b.Schemas)
}

func TestWriteReadRoundTrip(t *testing.T) {
	c := New(t0)
	c, _ = CreateBlock(c, []SchemaEntry{{Name: "User", RelativePath: "User.yaml", ContentHash: "u"}},
		DeployOptions{Version: "v1", Environment: "production", DeployedBy: "ci", Comment: "first", LockedAt: t0})
	c, _ = CreateBlock(c, []SchemaEntry{{Name: "Post", RelativePath: "Post.yaml", ContentHash: "p"}},
		DeployOptions{Version: "v2", Environment: "staging", LockedAt: t0.Add(time.Hour)})

	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, Write(path, c))

	got, found, err := Read(path)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, c, got)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n  \"type\": \"omnify-version-chain\",")
	assert.Contains(t, string(data), `"previousHash": null`)
	assert.Equal(t, byte('\n'), data[len(data)-1])
}

func TestWriteReadRoundTrip_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, Write(path, New(t0)))

	got, found, err := Read(path)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, New(t0), got)
}

func TestRead(t *testing.T) {
	dir := t.TempDir()

	c, found, err := Read(filepath.Join(dir, "missing"))
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, c)

	tests := []struct {
		name    string
		content string
	}{
		{"malformed", `{"version": 1, "type": `},
		{"wrong type", `{"version": 1, "type": "something-else", "blocks": []}`},
		{"wrong version", `{"version": 2, "type": "omnify-version-chain", "blocks": []}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name)
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))

			c, found, err := Read(path)
			assert.ErrorIs(t, err, ErrInvalidFormat)
			assert.False(t, found)
			assert.Nil(t, c)
		})
	}
}

func TestDeploy(t *testing.T) {
	dir, files := schemaDir(t, map[string]string{
		"User": "name: User\n",
		"Post": "name: Post\n",
	})
	chainPath := filepath.Join(dir, FileName)

	first, err := Deploy(chainPath, files, DeployOptions{Version: "v1", Environment: "production", LockedAt: t0})
	require.NoError(t, err)
	assert.Equal(t, []string{"Post", "User"}, first.AddedSchemas)
	assert.Empty(t, first.ModifiedSchemas)
	assert.Empty(t, first.Warnings)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "User.yaml"), []byte("name: User\nkind: object\n"), 0o644))

	second, err := Deploy(chainPath, files, DeployOptions{Version: "v2", Environment: "production", LockedAt: t0.Add(time.Hour)})
	require.NoError(t, err)
	assert.Empty(t, second.AddedSchemas)
	assert.Equal(t, []string{"User"}, second.ModifiedSchemas)
	require.Len(t, second.Warnings, 1)
	assert.Contains(t, second.Warnings[0], "'User' has been modified since last lock")

	stored, found, err := Read(chainPath)
	require.NoError(t, err)
	require.True(t, found)
	require.Len(t, stored.Blocks, 2)
	assert.Equal(t, first.Block.BlockHash, *stored.Blocks[1].PreviousHash)
	assert.Equal(t, second.Block.BlockHash, *stored.LatestHash)
}

func TestDeploy_NoSchemasWritesNothing(t *testing.T) {
	dir := t.TempDir()
	chainPath := filepath.Join(dir, FileName)

	res, err := Deploy(chainPath, []SchemaFile{{Name: "Ghost", FilePath: filepath.Join(dir, "Ghost.yaml")}},
		DeployOptions{Environment: "production"})
	assert.ErrorIs(t, err, ErrNoSchemas)
	assert.Nil(t, res)

	_, statErr := os.Stat(chainPath)
	assert.True(t, os.IsNotExist(statErr))
}

func TestDeploy_RejectsCorruptChain(t *testing.T) {
	dir, files := schemaDir(t, map[string]string{"User": "name: User\n"})
	chainPath := filepath.Join(dir, FileName)
	require.NoError(t, os.WriteFile(chainPath, []byte("not json"), 0o644))

	_, err := Deploy(chainPath, files, DeployOptions{Environment: "production"})
	assert.ErrorIs(t, err, ErrInvalidFormat)

	data, err := os.ReadFile(chainPath)
	require.NoError(t, err)
	assert.Equal(t, "not json", string(data))
}

func TestLockedSchemasAndSummarize(t *testing.T) {
	c := New(t0)
	c, _ = CreateBlock(c, []SchemaEntry{
		{Name: "User", RelativePath: "User.yaml", ContentHash: "u1"},
		{Name: "Post", RelativePath: "Post.yaml", ContentHash: "p1"},
	}, DeployOptions{Version: "v1", Environment: "staging", LockedAt: t0})
	c, _ = CreateBlock(c, []SchemaEntry{
		{Name: "User", RelativePath: "models/User.yaml", ContentHash: "u2"},
	}, DeployOptions{Version: "v2", Environment: "production", LockedAt: t0.Add(time.Hour)})
	c, _ = CreateBlock(c, []SchemaEntry{
		{Name: "Tag", RelativePath: "Tag.yaml", ContentHash: "t1"},
	}, DeployOptions{Version: "v3", Environment: "staging", LockedAt: t0.Add(2 * time.Hour)})

	locked := LockedSchemas(c)
	assert.Equal(t, map[string]LockedSchema{
		"User": {Hash: "u2", Version: "v2", RelativePath: "models/User.yaml"},
		"Post": {Hash: "p1", Version: "v1", RelativePath: "Post.yaml"},
		"Tag":  {Hash: "t1", Version: "v3", RelativePath: "Tag.yaml"},
	}, locked)

	assert.Equal(t, Summary{
		BlockCount:    3,
		SchemaCount:   3,
		FirstVersion:  "v1",
		LatestVersion: "v3",
		Environments:  []string{"staging", "production"},
	}, Summarize(c))

	assert.Equal(t, Summary{Environments: []string{}}, Summarize(New(t0)))
}
