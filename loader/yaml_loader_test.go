package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridoystarlord/schemalock/schema"
)

func write(t *testing.T, dir, rel, content string) {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "User.yaml", `
name: User
properties:
  email:
    type: Email
    unique: true
  display_name:
    type: String
    length: 120
    renamedFrom: name
  age:
    type: Int
    default: 18
options:
  timestamps: true
  indexes:
    - columns: [email]
      unique: true
  unique: [email, display_name]
`)
	write(t, dir, "blog/Post.yml", `
properties:
  title:
    type: String
options:
  unique:
    - [title]
    - [title, slug]
`)
	write(t, dir, "enums/Status.yaml", `
name: Status
kind: enum
values: [draft, published]
`)
	write(t, dir, "notes.txt", "not a schema")

	schemas, err := LoadDir(dir)
	require.NoError(t, err)
	require.Len(t, schemas, 3)

	post, status, user := schemas[0], schemas[1], schemas[2]

	assert.Equal(t, "Post", post.Name)
	assert.Equal(t, "blog/Post.yml", post.RelativePath)
	assert.Equal(t, schema.UniqueConstraints{{"title"}, {"title", "slug"}}, post.Options.Unique)

	assert.Equal(t, "Status", status.Name)
	assert.Equal(t, schema.KindEnum, status.Kind)
	assert.Equal(t, []string{"draft", "published"}, status.Values)

	assert.Equal(t, "User", user.Name)
	assert.Equal(t, filepath.Join(dir, "User.yaml"), user.FilePath)
	assert.Equal(t, "User.yaml", user.RelativePath)
	assert.Equal(t, schema.KindObject, user.KindOrDefault())
	require.NotNil(t, user.Properties["email"].Unique)
	assert.True(t, *user.Properties["email"].Unique)
	assert.Equal(t, 120, *user.Properties["display_name"].Length)
	assert.Equal(t, 18, user.Properties["age"].Default)
	assert.Equal(t, map[string]string{"display_name": "name"}, user.RenameHints())
	assert.Equal(t, schema.UniqueConstraints{{"email", "display_name"}}, user.Options.Unique)
	require.Len(t, user.Options.Indexes, 1)
	assert.Equal(t, []string{"email"}, user.Options.Indexes[0].Columns)
}

func TestLoadDir_MissingDirectory(t *testing.T) {
	_, err := LoadDir(filepath.Join(t.TempDir(), "schemas"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schemalock init")
}

func TestLoadDir_DuplicateNames(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "a/User.yaml", "name: User\n")
	write(t, dir, "b/User.yaml", "name: User\n")

	_, err := LoadDir(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate schema name 'User'")
}

func TestLoadFile_RejectsUnknownKeys(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "User.yaml", "name: User\nproperties:\n  email:\n    typ: Email\n")

	_, err := LoadFile(filepath.Join(dir, "User.yaml"), dir)
	require.Error(t, err)
}

func TestLoadFile_EmptyFile(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "Empty.yaml", "")

	s, err := LoadFile(filepath.Join(dir, "Empty.yaml"), dir)
	require.NoError(t, err)
	assert.Equal(t, "Empty", s.Name)
	assert.Empty(t, s.Properties)
}
