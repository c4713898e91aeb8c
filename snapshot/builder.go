package snapshot

import (
	"fmt"
	"os"
	"time"

	"github.com/ridoystarlord/schemalock/checksum"
	"github.com/ridoystarlord/schemalock/schema"
)

// hashDocument is the structural content of a schema. File location,
// modification time and rename hints stay out of it, so moving or touching
// a file never changes its hash.
//
// Options are hashed as authored: an index with an explicit "unique: false"
// hashes differently from one that omits unique, although both snapshot to
// the same IndexSnapshot. Existing lock files depend on this form.
type hashDocument struct {
	Name       string                     `json:"name"`
	Kind       schema.Kind                `json:"kind"`
	Properties map[string]schema.Property `json:"properties"`
	Options    schema.Options             `json:"options"`
	Values     []string                   `json:"values"`
}

// Hash computes the content hash of a schema.
func Hash(s schema.Schema) (string, error) {
	doc := hashDocument{
		Name:       s.Name,
		Kind:       s.KindOrDefault(),
		Properties: s.Properties,
		Options:    s.Options,
		Values:     s.Values,
	}
	if doc.Properties == nil {
		doc.Properties = map[string]schema.Property{}
	}
	if doc.Values == nil {
		doc.Values = []string{}
	}
	hash, err := checksum.SumCanonical(doc)
	if err != nil {
		return "", fmt.Errorf("hash schema %s: %w", s.Name, err)
	}
	return hash, nil
}

// Builder turns loaded schemas into snapshots.
type Builder struct {
	Stat func(name string) (os.FileInfo, error)
	Now  func() time.Time
}

func NewBuilder() *Builder {
	return &Builder{Stat: os.Stat, Now: time.Now}
}

// modifiedAt falls back to the current time when the file cannot be stat'ed.
func (b *Builder) modifiedAt(path string) time.Time {
	if path != "" {
		if info, err := b.Stat(path); err == nil {
			return info.ModTime().UTC()
		}
	}
	return b.Now().UTC()
}

// Snapshot builds the snapshot of one schema. It fails only when a default
// value cannot be encoded.
func (b *Builder) Snapshot(s schema.Schema) (SchemaSnapshot, error) {
	hash, err := Hash(s)
	if err != nil {
		return SchemaSnapshot{}, err
	}
	return FromSchema(s, hash, b.modifiedAt(s.FilePath)), nil
}

// Snapshots builds snapshots keyed by schema name.
func (b *Builder) Snapshots(schemas []schema.Schema) (map[string]SchemaSnapshot, error) {
	out := make(map[string]SchemaSnapshot, len(schemas))
	for _, s := range schemas {
		snap, err := b.Snapshot(s)
		if err != nil {
			return nil, err
		}
		out[s.Name] = snap
	}
	return out, nil
}

// Hashes builds the hash-only records used by version 1 lock files.
func (b *Builder) Hashes(schemas []schema.Schema) (map[string]SchemaHash, error) {
	out := make(map[string]SchemaHash, len(schemas))
	for _, s := range schemas {
		hash, err := Hash(s)
		if err != nil {
			return nil, err
		}
		out[s.Name] = SchemaHash{
			Name:         s.Name,
			Hash:         hash,
			RelativePath: s.RelativePath,
			ModifiedAt:   b.modifiedAt(s.FilePath),
		}
	}
	return out, nil
}
