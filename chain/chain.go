// Package chain maintains the version chain: an append-only ledger of
// hash-linked deployment blocks, each locking the schema files of one
// released version.
package chain

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/ridoystarlord/schemalock/checksum"
	"github.com/ridoystarlord/schemalock/utils"
)

const (
	FileName      = ".omnify.chain"
	FormatType    = "omnify-version-chain"
	FormatVersion = 1
)

// lockedAtLayout is the timestamp form stored in a block and fed to its hash.
const lockedAtLayout = "2006-01-02T15:04:05.000Z"

var (
	ErrInvalidFormat = errors.New("invalid version chain file")
	ErrNoSchemas     = errors.New("no schema files found to lock")
)

var now = time.Now

type SchemaEntry struct {
	Name         string `json:"name"`
	RelativePath string `json:"relativePath"`
	ContentHash  string `json:"contentHash"`
}

// Block is one deployment. Blocks are never edited once appended.
type Block struct {
	Version      string        `json:"version"`
	BlockHash    string        `json:"blockHash"`
	PreviousHash *string       `json:"previousHash"`
	LockedAt     string        `json:"lockedAt"`
	Environment  string        `json:"environment"`
	DeployedBy   string        `json:"deployedBy,omitempty"`
	Schemas      []SchemaEntry `json:"schemas"`
	Comment      string        `json:"comment,omitempty"`
}

type Chain struct {
	Version     int       `json:"version"`
	Type        string    `json:"type"`
	GenesisHash *string   `json:"genesisHash"`
	LatestHash  *string   `json:"latestHash"`
	Blocks      []Block   `json:"blocks"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// New returns an empty chain created at t.
func New(t time.Time) *Chain {
	t = t.UTC()
	return &Chain{
		Version:   FormatVersion,
		Type:      FormatType,
		Blocks:    []Block{},
		CreatedAt: t,
		UpdatedAt: t,
	}
}

// Read loads the chain at path. A missing file is reported with
// found == false and no error.
func Read(path string) (c *Chain, found bool, err error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read chain file: %w", err)
	}

	c = &Chain{}
	if err := json.Unmarshal(data, c); err != nil {
		return nil, false, fmt.Errorf("%w %s: %v", ErrInvalidFormat, path, err)
	}
	if c.Type != FormatType || c.Version != FormatVersion {
		return nil, false, fmt.Errorf("%w %s: type %q version %d", ErrInvalidFormat, path, c.Type, c.Version)
	}
	if c.Blocks == nil {
		c.Blocks = []Block{}
	}
	return c, true, nil
}

// Write replaces the chain file at path, pretty-printed with a trailing
// newline.
func Write(path string, c *Chain) error {
	out := *c
	if out.Blocks == nil {
		out.Blocks = []Block{}
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("encode chain: %w", err)
	}
	data = append(data, '\n')
	if err := utils.WriteFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("write chain file: %w", err)
	}
	return nil
}

type blockPreimage struct {
	PreviousHash *string       `json:"previousHash"`
	Version      string        `json:"version"`
	LockedAt     string        `json:"lockedAt"`
	Environment  string        `json:"environment"`
	Schemas      []SchemaEntry `json:"schemas"`
}

// BlockHash digests the fields a block commits to, in this order:
// previous hash, version, lock time, environment and schema entries.
// Author and comment are not covered.
func BlockHash(previous *string, version, lockedAt, environment string, entries []SchemaEntry) string {
	if entries == nil {
		entries = []SchemaEntry{}
	}
	data, err := checksum.Marshal(blockPreimage{
		PreviousHash: previous,
		Version:      version,
		LockedAt:     lockedAt,
		Environment:  environment,
		Schemas:      entries,
	})
	if err != nil {
		// Strings and string slices always encode.
		panic(err)
	}
	return checksum.SumBytes(data)
}

// SchemaFile locates one schema on disk.
type SchemaFile struct {
	Name         string
	RelativePath string
	FilePath     string
}

// BuildEntries hashes the raw content of every file and returns the entries
// sorted by schema name. Files that no longer exist are skipped.
func BuildEntries(files []SchemaFile) ([]SchemaEntry, error) {
	entries := make([]SchemaEntry, 0, len(files))
	for _, f := range files {
		content, err := os.ReadFile(f.FilePath)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("hash schema %s: %w", f.Name, err)
		}
		entries = append(entries, SchemaEntry{
			Name:         f.Name,
			RelativePath: f.RelativePath,
			ContentHash:  checksum.SumBytes(content),
		})
	}
	sortEntries(entries)
	return entries, nil
}

func sortEntries(entries []SchemaEntry) {
	slices.SortStableFunc(entries, func(a, b SchemaEntry) int {
		return strings.Compare(a.Name, b.Name)
	})
}

// GenerateVersionName derives a version label from t in local time,
// e.g. "v2025.03.14-092653".
func GenerateVersionName(t time.Time) string {
	return t.Local().Format("v2006.01.02-150405")
}

type DeployOptions struct {
	// Version defaults to GenerateVersionName of the lock time.
	Version     string
	Environment string
	DeployedBy  string
	Comment     string
	// LockedAt defaults to the current time.
	LockedAt time.Time
}

// CreateBlock returns a copy of c with a new block locking entries, and the
// block itself. c is left untouched. Version labels need not be unique.
func CreateBlock(c *Chain, entries []SchemaEntry, opts DeployOptions) (*Chain, Block) {
	lockedAt := opts.LockedAt
	if lockedAt.IsZero() {
		lockedAt = now()
	}
	lockedAt = lockedAt.UTC().Truncate(time.Millisecond)

	version := opts.Version
	if version == "" {
		version = GenerateVersionName(lockedAt)
	}

	schemas := append([]SchemaEntry{}, entries...)
	sortEntries(schemas)

	stamp := lockedAt.Format(lockedAtLayout)
	previous := cloneString(c.LatestHash)
	hash := BlockHash(previous, version, stamp, opts.Environment, schemas)

	block := Block{
		Version:      version,
		BlockHash:    hash,
		PreviousHash: previous,
		LockedAt:     stamp,
		Environment:  opts.Environment,
		DeployedBy:   opts.DeployedBy,
		Schemas:      schemas,
		Comment:      opts.Comment,
	}

	next := *c
	next.Blocks = append(slices.Clip(c.Blocks), block)
	next.LatestHash = &hash
	if c.GenesisHash == nil {
		next.GenesisHash = &hash
	} else {
		next.GenesisHash = cloneString(c.GenesisHash)
	}
	next.UpdatedAt = lockedAt
	return &next, block
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

type DeployResult struct {
	Chain           *Chain
	Block           Block
	AddedSchemas    []string
	ModifiedSchemas []string
	Warnings        []string
}

// Deploy locks the current content of files in a new block and persists
// the chain at chainPath. Schemas changed since their last lock are
// reported as warnings and locked anyway. Nothing is written when no file
// could be hashed.
func Deploy(chainPath string, files []SchemaFile, opts DeployOptions) (*DeployResult, error) {
	c, found, err := Read(chainPath)
	if err != nil {
		return nil, err
	}
	if !found {
		c = New(now())
	}

	entries, err := BuildEntries(files)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, ErrNoSchemas
	}

	res := &DeployResult{
		AddedSchemas:    []string{},
		ModifiedSchemas: []string{},
		Warnings:        []string{},
	}

	locked := LockedSchemas(c)
	for _, e := range entries {
		prev, ok := locked[e.Name]
		switch {
		case !ok:
			res.AddedSchemas = append(res.AddedSchemas, e.Name)
		case prev.Hash != e.ContentHash:
			res.ModifiedSchemas = append(res.ModifiedSchemas, e.Name)
			res.Warnings = append(res.Warnings, fmt.Sprintf(
				"Schema '%s' has been modified since last lock. This version will include the new state.", e.Name))
		}
	}

	res.Chain, res.Block = CreateBlock(c, entries, opts)
	if err := Write(chainPath, res.Chain); err != nil {
		return nil, err
	}

	slog.Debug("version locked",
		"version", res.Block.Version,
		"environment", res.Block.Environment,
		"schemas", len(entries),
		"block", res.Block.BlockHash)
	return res, nil
}

// LockedSchema is the most recent locked state of one schema.
type LockedSchema struct {
	Hash         string
	Version      string
	RelativePath string
}

// LockedSchemas returns the latest locked state of every schema that
// appears in any block.
func LockedSchemas(c *Chain) map[string]LockedSchema {
	locked := map[string]LockedSchema{}
	for _, b := range c.Blocks {
		for _, s := range b.Schemas {
			locked[s.Name] = LockedSchema{
				Hash:         s.ContentHash,
				Version:      b.Version,
				RelativePath: s.RelativePath,
			}
		}
	}
	return locked
}

type Summary struct {
	BlockCount    int
	SchemaCount   int
	FirstVersion  string
	LatestVersion string
	// Environments in order of first deployment.
	Environments []string
}

func Summarize(c *Chain) Summary {
	s := Summary{BlockCount: len(c.Blocks), Environments: []string{}}
	names := map[string]bool{}
	for _, b := range c.Blocks {
		if !slices.Contains(s.Environments, b.Environment) {
			s.Environments = append(s.Environments, b.Environment)
		}
		for _, e := range b.Schemas {
			names[e.Name] = true
		}
	}
	s.SchemaCount = len(names)
	if len(c.Blocks) > 0 {
		s.FirstVersion = c.Blocks[0].Version
		s.LatestVersion = c.Blocks[len(c.Blocks)-1].Version
	}
	return s
}
