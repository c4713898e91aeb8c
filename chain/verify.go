package chain

import (
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"

	"github.com/ridoystarlord/schemalock/checksum"
)

const (
	ReasonHashMismatch = "Block hash mismatch - chain integrity compromised"
	ReasonBrokenLink   = "Previous hash chain broken"
)

type CorruptedBlock struct {
	Version      string `json:"version"`
	ExpectedHash string `json:"expectedHash"`
	ActualHash   string `json:"actualHash"`
	Reason       string `json:"reason"`
}

type TamperedSchema struct {
	SchemaName      string `json:"schemaName"`
	FilePath        string `json:"filePath"`
	LockedHash      string `json:"lockedHash"`
	CurrentHash     string `json:"currentHash"`
	LockedInVersion string `json:"lockedInVersion"`
}

type DeletedSchema struct {
	SchemaName      string `json:"schemaName"`
	FilePath        string `json:"filePath"`
	LockedInVersion string `json:"lockedInVersion"`
	LockedHash      string `json:"lockedHash"`
}

type VerificationResult struct {
	Valid                bool             `json:"valid"`
	BlockCount           int              `json:"blockCount"`
	VerifiedBlocks       []string         `json:"verifiedBlocks"`
	CorruptedBlocks      []CorruptedBlock `json:"corruptedBlocks"`
	TamperedSchemas      []TamperedSchema `json:"tamperedSchemas"`
	DeletedLockedSchemas []DeletedSchema  `json:"deletedLockedSchemas"`
}

// Verify checks the chain against itself and against the schema files
// under dir.
//
// Each block's hash is recomputed from its fields and the actual previous
// block's hash, and its stored previous hash is compared with that block's
// hash. Both checks run on every block and neither stops the walk. The
// last locked state of each schema is then compared with the live file:
// a missing file is a deleted locked schema, a different content hash is a
// tampered schema.
func Verify(c *Chain, dir string) (*VerificationResult, error) {
	res := &VerificationResult{
		BlockCount:           len(c.Blocks),
		VerifiedBlocks:       []string{},
		CorruptedBlocks:      []CorruptedBlock{},
		TamperedSchemas:      []TamperedSchema{},
		DeletedLockedSchemas: []DeletedSchema{},
	}

	var previous *string
	for _, b := range c.Blocks {
		corrupted := false

		expected := BlockHash(previous, b.Version, b.LockedAt, b.Environment, b.Schemas)
		if expected != b.BlockHash {
			corrupted = true
			res.CorruptedBlocks = append(res.CorruptedBlocks, CorruptedBlock{
				Version:      b.Version,
				ExpectedHash: expected,
				ActualHash:   b.BlockHash,
				Reason:       ReasonHashMismatch,
			})
		}

		if !sameHash(b.PreviousHash, previous) {
			corrupted = true
			res.CorruptedBlocks = append(res.CorruptedBlocks, CorruptedBlock{
				Version:      b.Version,
				ExpectedHash: orNull(previous),
				ActualHash:   orNull(b.PreviousHash),
				Reason:       ReasonBrokenLink,
			})
		}

		if !corrupted {
			res.VerifiedBlocks = append(res.VerifiedBlocks, b.Version)
		}

		hash := b.BlockHash
		previous = &hash
	}

	locked := LockedSchemas(c)
	for _, name := range slices.Sorted(maps.Keys(locked)) {
		l := locked[name]
		path := l.RelativePath
		if !filepath.IsAbs(path) {
			path = filepath.Join(dir, filepath.FromSlash(path))
		}

		content, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			res.DeletedLockedSchemas = append(res.DeletedLockedSchemas, DeletedSchema{
				SchemaName:      name,
				FilePath:        l.RelativePath,
				LockedInVersion: l.Version,
				LockedHash:      l.Hash,
			})
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read locked schema %s: %w", name, err)
		}

		if current := checksum.SumBytes(content); current != l.Hash {
			res.TamperedSchemas = append(res.TamperedSchemas, TamperedSchema{
				SchemaName:      name,
				FilePath:        l.RelativePath,
				LockedHash:      l.Hash,
				CurrentHash:     current,
				LockedInVersion: l.Version,
			})
		}
	}

	res.Valid = len(res.CorruptedBlocks) == 0 &&
		len(res.TamperedSchemas) == 0 &&
		len(res.DeletedLockedSchemas) == 0
	return res, nil
}

func sameHash(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func orNull(s *string) string {
	if s == nil {
		return "null"
	}
	return *s
}
