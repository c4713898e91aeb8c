package lockfile

import (
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/ridoystarlord/schemalock/checksum"
)

// DefaultStaleAfter is how old an untracked migration file must be before
// it is reported as stale.
const DefaultStaleAfter = 7 * 24 * time.Hour

type MigrationKind string

const (
	MigrationCreate MigrationKind = "create"
	MigrationAlter  MigrationKind = "alter"
	MigrationDrop   MigrationKind = "drop"
	MigrationPivot  MigrationKind = "pivot"
)

// MigrationRecord is one generated migration artifact.
type MigrationRecord struct {
	FileName    string        `json:"fileName"`
	Timestamp   string        `json:"timestamp,omitempty"`
	TableName   string        `json:"tableName,omitempty"`
	Type        MigrationKind `json:"type,omitempty"`
	GeneratedAt time.Time     `json:"generatedAt"`
	Schemas     []string      `json:"schemas"`
	Checksum    string        `json:"checksum"`
}

// Table returns the recorded table name, or the one encoded in the file
// name for records written before tables were tracked.
func (r MigrationRecord) Table() (string, bool) {
	if r.TableName != "" {
		return r.TableName, true
	}
	return ExtractTableName(r.FileName)
}

// Kind returns the recorded kind, or the one inferred from the file name.
// Names that say nothing default to create.
func (r MigrationRecord) Kind() MigrationKind {
	if r.Type != "" {
		return r.Type
	}
	switch {
	case strings.Contains(r.FileName, "_create_"):
		return MigrationCreate
	case strings.Contains(r.FileName, "_update_"):
		return MigrationAlter
	case strings.Contains(r.FileName, "_drop_"):
		return MigrationDrop
	default:
		return MigrationCreate
	}
}

// MigrationSpec describes an artifact to record with AppendMigrationRecord.
type MigrationSpec struct {
	FileName  string
	Timestamp string
	TableName string
	Type      MigrationKind
	Schemas   []string
	Content   string
}

// AppendMigration returns a copy of lf with one more migration record.
func AppendMigration(lf *LockFile, fileName string, schemas []string, content string) *LockFile {
	return AppendMigrationRecord(lf, MigrationSpec{
		FileName: fileName,
		Schemas:  schemas,
		Content:  content,
	})
}

// AppendMigrationRecord is AppendMigration with the optional timestamp,
// table and kind fields. lf is left untouched.
func AppendMigrationRecord(lf *LockFile, spec MigrationSpec) *LockFile {
	out := *lf
	out.UpdatedAt = now().UTC()
	out.Migrations = append(slices.Clip(lf.Migrations), MigrationRecord{
		FileName:    spec.FileName,
		Timestamp:   spec.Timestamp,
		TableName:   spec.TableName,
		Type:        spec.Type,
		GeneratedAt: out.UpdatedAt,
		Schemas:     slices.Clone(spec.Schemas),
		Checksum:    checksum.Sum(spec.Content),
	})
	return &out
}

var (
	timestampPattern = regexp.MustCompile(`^(\d{4}_\d{2}_\d{2}_\d{6})_`)
	tablePatterns    = []*regexp.Regexp{
		regexp.MustCompile(`_create_(.+)_table\.\w+$`),
		regexp.MustCompile(`_update_(.+)_table\.\w+$`),
		regexp.MustCompile(`_drop_(.+)_table\.\w+$`),
	}
)

// ExtractTimestamp returns the "YYYY_MM_DD_HHMMSS" prefix of a migration
// file name.
func ExtractTimestamp(fileName string) (string, bool) {
	m := timestampPattern.FindStringSubmatch(fileName)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// ExtractTableName returns the table a migration file name refers to.
func ExtractTableName(fileName string) (string, bool) {
	for _, re := range tablePatterns {
		if m := re.FindStringSubmatch(fileName); m != nil {
			return m[1], true
		}
	}
	return "", false
}

// FindMigrationByTable returns the first record for table. An empty kind
// matches any kind. Records without an explicit table name are matched on
// the file name alone.
func FindMigrationByTable(lf *LockFile, table string, kind MigrationKind) (MigrationRecord, bool) {
	for _, rec := range lf.Migrations {
		if rec.TableName != "" {
			if rec.TableName == table && (kind == "" || rec.Type == kind) {
				return rec, true
			}
			continue
		}
		if name, ok := ExtractTableName(rec.FileName); ok && name == table {
			return rec, true
		}
	}
	return MigrationRecord{}, false
}

// RegenerationTarget is what it takes to rewrite a missing migration file
// under its original name.
type RegenerationTarget struct {
	FileName  string        `json:"fileName"`
	Timestamp string        `json:"timestamp"`
	TableName string        `json:"tableName"`
	Type      MigrationKind `json:"type"`
	Schemas   []string      `json:"schemas"`
}

// MigrationsToRegenerate maps missing file names back to their records.
// Names without a record are skipped, as are records whose timestamp or
// table can be neither read from the record nor parsed from its file name.
func MigrationsToRegenerate(lf *LockFile, missing []string) []RegenerationTarget {
	var targets []RegenerationTarget
	for _, fileName := range missing {
		idx := slices.IndexFunc(lf.Migrations, func(r MigrationRecord) bool {
			return r.FileName == fileName
		})
		if idx < 0 {
			continue
		}
		rec := lf.Migrations[idx]

		ts := rec.Timestamp
		if ts == "" {
			ts, _ = ExtractTimestamp(rec.FileName)
		}
		if ts == "" {
			continue
		}
		table, ok := rec.Table()
		if !ok {
			continue
		}

		targets = append(targets, RegenerationTarget{
			FileName:  rec.FileName,
			Timestamp: ts,
			TableName: table,
			Type:      rec.Kind(),
			Schemas:   slices.Clone(rec.Schemas),
		})
	}
	return targets
}

type ValidateOptions struct {
	// Extension selects migration files in the directory. Default ".php".
	Extension string
	// StaleAfter defaults to DefaultStaleAfter.
	StaleAfter time.Duration
	// Now defaults to time.Now.
	Now func() time.Time
}

type MigrationValidation struct {
	Valid         bool     `json:"valid"`
	MissingFiles  []string `json:"missingFiles"`
	ModifiedFiles []string `json:"modifiedFiles"`
	StaleFiles    []string `json:"staleFiles"`
	TotalTracked  int      `json:"totalTracked"`
	TotalOnDisk   int      `json:"totalOnDisk"`
}

// ValidateMigrations checks the recorded migrations against dir. Tracked
// files that are gone are missing, tracked files whose content hash changed
// are modified, and untracked files whose timestamp is older than
// StaleAfter are stale. Stale files do not make the result invalid.
// A missing directory counts as empty.
func ValidateMigrations(lf *LockFile, dir string, opts ValidateOptions) (MigrationValidation, error) {
	if opts.Extension == "" {
		opts.Extension = ".php"
	}
	if opts.StaleAfter <= 0 {
		opts.StaleAfter = DefaultStaleAfter
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	res := MigrationValidation{
		MissingFiles:  []string{},
		ModifiedFiles: []string{},
		StaleFiles:    []string{},
		TotalTracked:  len(lf.Migrations),
	}

	onDisk, err := listMigrationFiles(dir, opts.Extension)
	if err != nil {
		return res, err
	}
	res.TotalOnDisk = len(onDisk)

	tracked := make(map[string]bool, len(lf.Migrations))
	for _, rec := range lf.Migrations {
		tracked[rec.FileName] = true
		if !onDisk[rec.FileName] {
			res.MissingFiles = append(res.MissingFiles, rec.FileName)
			continue
		}
		if rec.Checksum == "" {
			continue
		}
		content, err := os.ReadFile(filepath.Join(dir, rec.FileName))
		if err != nil {
			return res, fmt.Errorf("read migration %s: %w", rec.FileName, err)
		}
		if checksum.SumBytes(content) != rec.Checksum {
			res.ModifiedFiles = append(res.ModifiedFiles, rec.FileName)
		}
	}

	current := opts.Now()
	for _, name := range slices.Sorted(maps.Keys(onDisk)) {
		if tracked[name] {
			continue
		}
		ts, ok := ExtractTimestamp(name)
		if !ok {
			continue
		}
		date, err := time.ParseInLocation("2006_01_02", ts[:10], time.Local)
		if err != nil {
			continue
		}
		if current.Sub(date) > opts.StaleAfter {
			res.StaleFiles = append(res.StaleFiles, name)
		}
	}

	res.Valid = len(res.MissingFiles) == 0 && len(res.ModifiedFiles) == 0
	return res, nil
}

func listMigrationFiles(dir, ext string) (map[string]bool, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]bool{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read migrations dir: %w", err)
	}
	files := make(map[string]bool, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ext) {
			continue
		}
		files[e.Name()] = true
	}
	return files, nil
}
