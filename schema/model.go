package schema

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

type Kind string

const (
	KindObject Kind = "object"
	KindEnum   Kind = "enum"
)

// Schema is one loaded data-model definition.
type Schema struct {
	Name         string              `yaml:"name" json:"name"`
	Kind         Kind                `yaml:"kind" json:"kind,omitempty"`
	Properties   map[string]Property `yaml:"properties" json:"properties,omitempty"`
	Options      Options             `yaml:"options" json:"options"`
	Values       []string            `yaml:"values" json:"values,omitempty"`
	FilePath     string              `yaml:"-" json:"-"`
	RelativePath string              `yaml:"-" json:"-"`
}

type Property struct {
	Type        string                   `yaml:"type" json:"type"`
	Nullable    *bool                    `yaml:"nullable" json:"nullable,omitempty"`
	Unique      *bool                    `yaml:"unique" json:"unique,omitempty"`
	Default     any                      `yaml:"default" json:"default,omitempty"`
	Length      *int                     `yaml:"length" json:"length,omitempty"`
	Unsigned    *bool                    `yaml:"unsigned" json:"unsigned,omitempty"`
	Precision   *int                     `yaml:"precision" json:"precision,omitempty"`
	Scale       *int                     `yaml:"scale" json:"scale,omitempty"`
	Enum        []string                 `yaml:"enum" json:"enum,omitempty"`
	Relation    string                   `yaml:"relation" json:"relation,omitempty"`
	Target      string                   `yaml:"target" json:"target,omitempty"`
	OnDelete    string                   `yaml:"onDelete" json:"onDelete,omitempty"`
	OnUpdate    string                   `yaml:"onUpdate" json:"onUpdate,omitempty"`
	MappedBy    string                   `yaml:"mappedBy" json:"mappedBy,omitempty"`
	JoinTable   string                   `yaml:"joinTable" json:"joinTable,omitempty"`
	PivotFields map[string]PivotField    `yaml:"pivotFields" json:"pivotFields,omitempty"`
	Hidden      *bool                    `yaml:"hidden" json:"hidden,omitempty"`
	Fillable    *bool                    `yaml:"fillable" json:"fillable,omitempty"`
	Fields      map[string]FieldOverride `yaml:"fields" json:"fields,omitempty"`

	// RenamedFrom names the field this one replaces. It is an authoring hint
	// for a single diff and is never part of a schema's committed state.
	RenamedFrom string `yaml:"renamedFrom" json:"-"`
}

// PivotField is an extra column on a many-to-many join table.
type PivotField struct {
	Type     string `yaml:"type" json:"type"`
	Nullable *bool  `yaml:"nullable" json:"nullable,omitempty"`
	Default  any    `yaml:"default" json:"default,omitempty"`
	Length   *int   `yaml:"length" json:"length,omitempty"`
	Unsigned *bool  `yaml:"unsigned" json:"unsigned,omitempty"`
}

// FieldOverride adjusts one sub-field of a compound type.
type FieldOverride struct {
	Nullable *bool `yaml:"nullable" json:"nullable,omitempty"`
	Hidden   *bool `yaml:"hidden" json:"hidden,omitempty"`
	Fillable *bool `yaml:"fillable" json:"fillable,omitempty"`
}

type Options struct {
	ID         *bool             `yaml:"id" json:"id,omitempty"`
	IDType     string            `yaml:"idType" json:"idType,omitempty"`
	Timestamps *bool             `yaml:"timestamps" json:"timestamps,omitempty"`
	SoftDelete *bool             `yaml:"softDelete" json:"softDelete,omitempty"`
	Indexes    []Index           `yaml:"indexes" json:"indexes,omitempty"`
	Unique     UniqueConstraints `yaml:"unique" json:"unique,omitempty"`
}

type Index struct {
	Name    string   `yaml:"name" json:"name,omitempty"`
	Columns []string `yaml:"columns" json:"columns"`
	Unique  *bool    `yaml:"unique" json:"unique,omitempty"`
}

// UniqueConstraints holds composite unique constraints. In YAML it may be
// written as a single column list or as a list of column lists.
type UniqueConstraints [][]string

func (u *UniqueConstraints) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.SequenceNode {
		return fmt.Errorf("line %d: unique must be a list", node.Line)
	}
	if len(node.Content) > 0 && node.Content[0].Kind == yaml.ScalarNode {
		var single []string
		if err := node.Decode(&single); err != nil {
			return err
		}
		*u = UniqueConstraints{single}
		return nil
	}
	var many [][]string
	if err := node.Decode(&many); err != nil {
		return err
	}
	*u = many
	return nil
}

// KindOrDefault returns the schema kind, treating an empty kind as object.
func (s Schema) KindOrDefault() Kind {
	if s.Kind == "" {
		return KindObject
	}
	return s.Kind
}

// RenameHints maps each renamed property to the name it was renamed from.
func (s Schema) RenameHints() map[string]string {
	hints := map[string]string{}
	for name, prop := range s.Properties {
		if prop.RenamedFrom != "" {
			hints[name] = prop.RenamedFrom
		}
	}
	return hints
}
