package loader

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ridoystarlord/schemalock/schema"
)

// LoadDir loads every *.yaml and *.yml file under dir, one schema per file.
// A schema without a name takes the file's base name. Schemas are returned
// sorted by name.
func LoadDir(dir string) ([]schema.Schema, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil, fmt.Errorf("schemas directory '%s' does not exist. Run 'schemalock init' first", dir)
	}

	var schemas []schema.Schema
	seen := map[string]string{}

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !isSchemaFile(path) {
			return nil
		}

		s, err := LoadFile(path, dir)
		if err != nil {
			return err
		}
		if prev, dup := seen[s.Name]; dup {
			return fmt.Errorf("duplicate schema name '%s' in %s and %s", s.Name, prev, s.RelativePath)
		}
		seen[s.Name] = s.RelativePath

		schemas = append(schemas, s)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load schemas: %w", err)
	}

	slices.SortFunc(schemas, func(a, b schema.Schema) int {
		return strings.Compare(a.Name, b.Name)
	})
	return schemas, nil
}

// LoadFile parses one schema file. RelativePath is made relative to root
// with forward slashes. Unknown keys are rejected.
func LoadFile(path, root string) (schema.Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return schema.Schema{}, fmt.Errorf("reading schema file: %w", err)
	}

	var s schema.Schema
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil && !errors.Is(err, io.EOF) {
		return schema.Schema{}, fmt.Errorf("unmarshalling YAML %s: %w", path, err)
	}

	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = filepath.Base(path)
	}

	if s.Name == "" {
		s.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	s.FilePath = path
	s.RelativePath = filepath.ToSlash(rel)
	return s, nil
}

func isSchemaFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}
