package cmd

import (
	"encoding/json"
	"log/slog"
	"os"

	"github.com/ridoystarlord/schemalock/chain"
	"github.com/ridoystarlord/schemalock/diff"
	"github.com/ridoystarlord/schemalock/loader"
	"github.com/ridoystarlord/schemalock/lockfile"
	"github.com/ridoystarlord/schemalock/schema"
)

func loadSchemas() ([]schema.Schema, error) {
	schemas, err := loader.LoadDir(cfg.SchemasDir)
	if err != nil {
		return nil, err
	}
	slog.Debug("schemas loaded", "dir", cfg.SchemasDir, "count", len(schemas))
	return schemas, nil
}

func schemaFiles(schemas []schema.Schema) []chain.SchemaFile {
	files := make([]chain.SchemaFile, 0, len(schemas))
	for _, s := range schemas {
		files = append(files, chain.SchemaFile{
			Name:         s.Name,
			RelativePath: s.RelativePath,
			FilePath:     s.FilePath,
		})
	}
	return files
}

func renameHints(schemas []schema.Schema) map[string]diff.RenameHints {
	hints := map[string]diff.RenameHints{}
	for _, s := range schemas {
		if h := s.RenameHints(); len(h) > 0 {
			hints[s.Name] = h
		}
	}
	return hints
}

// readLock returns the lock file, or an empty one when none exists yet.
func readLock() (*lockfile.LockFile, bool, error) {
	lf, found, err := lockfile.Read(cfg.LockFile)
	if err != nil {
		return nil, false, err
	}
	if !found {
		slog.Debug("no lock file", "path", cfg.LockFile)
		return lockfile.New(cfg.Driver), false, nil
	}
	return lf, true, nil
}

// readChain returns the version chain, or nil when none exists yet.
func readChain() (*chain.Chain, error) {
	c, found, err := chain.Read(cfg.ChainFile)
	if err != nil {
		return nil, err
	}
	if !found {
		slog.Debug("no version chain", "path", cfg.ChainFile)
		return nil, nil
	}
	return c, nil
}

func printJSON(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
