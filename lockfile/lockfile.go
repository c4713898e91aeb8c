// Package lockfile persists the last known schema state and the history of
// generated migration artifacts.
//
// Two on-disk formats exist. Version 1 stores a hash record per schema,
// version 2 stores a full snapshot per schema. The format of a LockFile is
// carried by the concrete type of its Schemas field.
package lockfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"slices"
	"time"

	"github.com/ridoystarlord/schemalock/snapshot"
	"github.com/ridoystarlord/schemalock/utils"
)

// FileName is the default lock file name.
const FileName = ".omnify.lock"

type Version int

const (
	VersionHashes    Version = 1
	VersionSnapshots Version = 2

	CurrentVersion = VersionSnapshots
)

// ErrInvalidFormat marks a lock file that exists but cannot be used:
// malformed JSON or an unknown version tag.
var ErrInvalidFormat = errors.New("invalid lock file")

var now = time.Now

// SchemaSet is the per-schema state of a lock file. It is implemented only
// by HashSet and SnapshotSet.
type SchemaSet interface {
	version() Version
	// hashes returns the content hash of every schema by name.
	hashes() map[string]string
}

// HashSet is the version 1 schema state.
type HashSet map[string]snapshot.SchemaHash

// SnapshotSet is the version 2 schema state.
type SnapshotSet map[string]snapshot.SchemaSnapshot

func (HashSet) version() Version { return VersionHashes }

func (s HashSet) hashes() map[string]string {
	out := make(map[string]string, len(s))
	for name, h := range s {
		out[name] = h.Hash
	}
	return out
}

func (SnapshotSet) version() Version { return VersionSnapshots }

func (s SnapshotSet) hashes() map[string]string {
	out := make(map[string]string, len(s))
	for name, snap := range s {
		out[name] = snap.Hash
	}
	return out
}

type LockFile struct {
	UpdatedAt   time.Time
	Driver      string
	Schemas     SchemaSet
	Migrations  []MigrationRecord
	HCLChecksum string
}

// New returns an empty version 2 lock file.
func New(driver string) *LockFile {
	return &LockFile{
		UpdatedAt: now().UTC(),
		Driver:    driver,
		Schemas:   SnapshotSet{},
	}
}

// Version reports the on-disk format of the lock file.
func (l *LockFile) Version() Version {
	if l.Schemas == nil {
		return CurrentVersion
	}
	return l.Schemas.version()
}

// Hashes returns the recorded content hash of every schema by name.
func (l *LockFile) Hashes() map[string]string {
	if l == nil || l.Schemas == nil {
		return map[string]string{}
	}
	return l.Schemas.hashes()
}

type lockFileJSON struct {
	Version     Version           `json:"version"`
	UpdatedAt   time.Time         `json:"updatedAt"`
	Driver      string            `json:"driver"`
	Schemas     json.RawMessage   `json:"schemas"`
	Migrations  []MigrationRecord `json:"migrations"`
	HCLChecksum string            `json:"hclChecksum,omitempty"`
}

func (l LockFile) MarshalJSON() ([]byte, error) {
	var schemas any = map[string]any{}
	switch set := l.Schemas.(type) {
	case HashSet:
		if set != nil {
			schemas = map[string]snapshot.SchemaHash(set)
		}
	case SnapshotSet:
		if set != nil {
			schemas = map[string]snapshot.SchemaSnapshot(set)
		}
	case nil:
	default:
		return nil, fmt.Errorf("unsupported schema set %T", set)
	}

	raw, err := json.Marshal(schemas)
	if err != nil {
		return nil, err
	}

	migrations := l.Migrations
	if migrations == nil {
		migrations = []MigrationRecord{}
	}

	return json.Marshal(lockFileJSON{
		Version:     l.Version(),
		UpdatedAt:   l.UpdatedAt,
		Driver:      l.Driver,
		Schemas:     raw,
		Migrations:  migrations,
		HCLChecksum: l.HCLChecksum,
	})
}

func (l *LockFile) UnmarshalJSON(data []byte) error {
	var doc lockFileJSON
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}

	var set SchemaSet
	switch doc.Version {
	case VersionHashes:
		hashes := HashSet{}
		if err := unmarshalSchemas(doc.Schemas, &hashes); err != nil {
			return err
		}
		set = hashes
	case VersionSnapshots:
		snaps := SnapshotSet{}
		if err := unmarshalSchemas(doc.Schemas, &snaps); err != nil {
			return err
		}
		set = snaps
	default:
		return fmt.Errorf("version mismatch: expected 1 or 2, got %d", doc.Version)
	}

	if len(doc.Migrations) == 0 {
		doc.Migrations = nil
	}

	*l = LockFile{
		UpdatedAt:   doc.UpdatedAt,
		Driver:      doc.Driver,
		Schemas:     set,
		Migrations:  doc.Migrations,
		HCLChecksum: doc.HCLChecksum,
	}
	return nil
}

func unmarshalSchemas(raw json.RawMessage, v any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("schemas: %w", err)
	}
	return nil
}

// Read loads the lock file at path. A missing file is reported with
// found == false and no error. Anything that exists but does not parse is
// an ErrInvalidFormat error, never a fresh start.
func Read(path string) (lf *LockFile, found bool, err error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read lock file: %w", err)
	}

	lf = &LockFile{}
	if err := json.Unmarshal(data, lf); err != nil {
		return nil, false, fmt.Errorf("%w %s: %v", ErrInvalidFormat, path, err)
	}
	return lf, true, nil
}

// Write replaces the lock file at path with lf, pretty-printed with a
// trailing newline.
func Write(path string, lf *LockFile) error {
	data, err := json.MarshalIndent(lf, "", "  ")
	if err != nil {
		return fmt.Errorf("encode lock file: %w", err)
	}
	data = append(data, '\n')
	if err := utils.WriteFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("write lock file: %w", err)
	}
	return nil
}

// Update returns a version 2 lock file holding current, keeping the
// migration history and HCL checksum of prev. prev may be nil.
func Update(prev *LockFile, current map[string]snapshot.SchemaSnapshot, driver string) *LockFile {
	set := make(SnapshotSet, len(current))
	for name, snap := range current {
		set[name] = snap.Clone()
	}
	return replace(prev, set, driver)
}

// UpdateHashes is Update for the legacy version 1 format.
func UpdateHashes(prev *LockFile, current map[string]snapshot.SchemaHash, driver string) *LockFile {
	return replace(prev, HashSet(maps.Clone(current)), driver)
}

func replace(prev *LockFile, set SchemaSet, driver string) *LockFile {
	lf := &LockFile{
		UpdatedAt: now().UTC(),
		Driver:    driver,
		Schemas:   set,
	}
	if prev != nil {
		lf.Migrations = slices.Clone(prev.Migrations)
		lf.HCLChecksum = prev.HCLChecksum
	}
	return lf
}
