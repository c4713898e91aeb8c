// Package snapshot normalizes loaded schemas into comparable, serializable
// snapshots and computes their content hashes.
package snapshot

import (
	"maps"
	"slices"
	"time"

	"github.com/ridoystarlord/schemalock/checksum"
	"github.com/ridoystarlord/schemalock/schema"
)

// PropertySnapshot is the normalized form of one field.
type PropertySnapshot struct {
	Type        string                          `json:"type"`
	Nullable    *bool                           `json:"nullable,omitempty"`
	Unique      *bool                           `json:"unique,omitempty"`
	Default     any                             `json:"default,omitempty"`
	Length      *int                            `json:"length,omitempty"`
	Unsigned    *bool                           `json:"unsigned,omitempty"`
	Precision   *int                            `json:"precision,omitempty"`
	Scale       *int                            `json:"scale,omitempty"`
	Enum        []string                        `json:"enum,omitempty"`
	Relation    string                          `json:"relation,omitempty"`
	Target      string                          `json:"target,omitempty"`
	OnDelete    string                          `json:"onDelete,omitempty"`
	OnUpdate    string                          `json:"onUpdate,omitempty"`
	MappedBy    string                          `json:"mappedBy,omitempty"`
	JoinTable   string                          `json:"joinTable,omitempty"`
	PivotFields map[string]schema.PivotField    `json:"pivotFields,omitempty"`
	Hidden      *bool                           `json:"hidden,omitempty"`
	Fillable    *bool                           `json:"fillable,omitempty"`
	Fields      map[string]schema.FieldOverride `json:"fields,omitempty"`
}

type IndexSnapshot struct {
	Columns []string `json:"columns"`
	Unique  bool     `json:"unique"`
	Name    string   `json:"name,omitempty"`
}

// SchemaSnapshot is one schema at a point in time. Snapshots are never
// mutated; a newer run produces a new snapshot.
type SchemaSnapshot struct {
	Name              string                      `json:"name"`
	Kind              schema.Kind                 `json:"kind"`
	Hash              string                      `json:"hash"`
	RelativePath      string                      `json:"relativePath"`
	ModifiedAt        time.Time                   `json:"modifiedAt"`
	ID                *bool                       `json:"id,omitempty"`
	IDType            string                      `json:"idType,omitempty"`
	Properties        map[string]PropertySnapshot `json:"properties"`
	Timestamps        *bool                       `json:"timestamps,omitempty"`
	SoftDelete        *bool                       `json:"softDelete,omitempty"`
	Indexes           []IndexSnapshot             `json:"indexes,omitempty"`
	UniqueConstraints [][]string                  `json:"uniqueConstraints,omitempty"`
	Values            []string                    `json:"values,omitempty"`
}

// SchemaHash is the hash-only record kept by version 1 lock files.
type SchemaHash struct {
	Name         string    `json:"name"`
	Hash         string    `json:"hash"`
	RelativePath string    `json:"relativePath"`
	ModifiedAt   time.Time `json:"modifiedAt"`
}

// FromProperty converts an authored property. The rename hint is dropped.
// Default values are held in their decoded JSON form so a snapshot read back
// from a lock file equals the one that was written.
func FromProperty(p schema.Property) PropertySnapshot {
	return PropertySnapshot{
		Type:        p.Type,
		Nullable:    p.Nullable,
		Unique:      p.Unique,
		Default:     jsonValue(p.Default),
		Length:      p.Length,
		Unsigned:    p.Unsigned,
		Precision:   p.Precision,
		Scale:       p.Scale,
		Enum:        slices.Clone(p.Enum),
		Relation:    p.Relation,
		Target:      p.Target,
		OnDelete:    p.OnDelete,
		OnUpdate:    p.OnUpdate,
		MappedBy:    p.MappedBy,
		JoinTable:   p.JoinTable,
		PivotFields: clonePivots(p.PivotFields),
		Hidden:      p.Hidden,
		Fillable:    p.Fillable,
		Fields:      maps.Clone(p.Fields),
	}
}

func clonePivots(fields map[string]schema.PivotField) map[string]schema.PivotField {
	if fields == nil {
		return nil
	}
	out := make(map[string]schema.PivotField, len(fields))
	for name, f := range fields {
		f.Default = jsonValue(f.Default)
		out[name] = f
	}
	return out
}

// jsonValue keeps v unchanged when it cannot be encoded; Hash reports that
// case before a snapshot is built.
func jsonValue(v any) any {
	if v == nil {
		return nil
	}
	out, err := checksum.Normalize(v)
	if err != nil {
		return v
	}
	return out
}

// FromSchema wraps a schema and its precomputed hash into a snapshot.
func FromSchema(s schema.Schema, hash string, modifiedAt time.Time) SchemaSnapshot {
	props := make(map[string]PropertySnapshot, len(s.Properties))
	for name, p := range s.Properties {
		props[name] = FromProperty(p)
	}

	var indexes []IndexSnapshot
	for _, idx := range s.Options.Indexes {
		indexes = append(indexes, IndexSnapshot{
			Columns: slices.Clone(idx.Columns),
			Unique:  idx.Unique != nil && *idx.Unique,
			Name:    idx.Name,
		})
	}

	var unique [][]string
	for _, cols := range s.Options.Unique {
		unique = append(unique, slices.Clone(cols))
	}

	return SchemaSnapshot{
		Name:              s.Name,
		Kind:              s.KindOrDefault(),
		Hash:              hash,
		RelativePath:      s.RelativePath,
		ModifiedAt:        modifiedAt,
		ID:                s.Options.ID,
		IDType:            s.Options.IDType,
		Properties:        props,
		Timestamps:        s.Options.Timestamps,
		SoftDelete:        s.Options.SoftDelete,
		Indexes:           indexes,
		UniqueConstraints: unique,
		Values:            slices.Clone(s.Values),
	}
}

// Clone returns a deep copy of the snapshot. Default values are copied
// through their JSON form.
func (s SchemaSnapshot) Clone() SchemaSnapshot {
	out := s
	out.Properties = make(map[string]PropertySnapshot, len(s.Properties))
	for name, p := range s.Properties {
		p.Enum = slices.Clone(p.Enum)
		p.Default = jsonValue(p.Default)
		p.PivotFields = clonePivots(p.PivotFields)
		p.Fields = maps.Clone(p.Fields)
		out.Properties[name] = p
	}
	out.Indexes = nil
	for _, idx := range s.Indexes {
		idx.Columns = slices.Clone(idx.Columns)
		out.Indexes = append(out.Indexes, idx)
	}
	out.UniqueConstraints = nil
	for _, cols := range s.UniqueConstraints {
		out.UniqueConstraints = append(out.UniqueConstraints, slices.Clone(cols))
	}
	out.Values = slices.Clone(s.Values)
	return out
}
