package validator

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/ridoystarlord/schemalock/schema"
)

// ValidationError represents a validation error with details
type ValidationError struct {
	Type     string `json:"type"`
	Schema   string `json:"schema,omitempty"`
	Property string `json:"property,omitempty"`
	Index    string `json:"index,omitempty"`
	Message  string `json:"message"`
	Severity string `json:"severity"` // "error", "warning", "info"
}

// ValidationResult contains all validation results
type ValidationResult struct {
	Valid    bool              `json:"valid"`
	Errors   []ValidationError `json:"errors"`
	Warnings []ValidationError `json:"warnings"`
	Info     []ValidationError `json:"info"`
}

func (r *ValidationResult) addError(e ValidationError) {
	e.Severity = "error"
	r.Errors = append(r.Errors, e)
}

func (r *ValidationResult) addWarning(e ValidationError) {
	e.Severity = "warning"
	r.Warnings = append(r.Warnings, e)
}

func (r *ValidationResult) addInfo(e ValidationError) {
	e.Severity = "info"
	r.Info = append(r.Info, e)
}

var propertyTypes = map[string]bool{
	"String": true, "Text": true, "LongText": true,
	"Int": true, "BigInt": true, "TinyInt": true, "Float": true, "Decimal": true,
	"Boolean": true,
	"Date": true, "Time": true, "DateTime": true, "Timestamp": true,
	"Json": true, "Uuid": true,
	"Email": true, "Password": true,
	"File": true, "MultiFile": true,
	"Enum": true, "EnumRef": true, "Select": true, "Lookup": true,
	"Association": true,
}

var relations = map[string]bool{
	"OneToOne": true, "OneToMany": true, "ManyToOne": true, "ManyToMany": true,
}

var referentialActions = []string{"CASCADE", "SET NULL", "SET DEFAULT", "RESTRICT", "NO ACTION"}

var idTypes = map[string]bool{"Int": true, "BigInt": true, "Uuid": true, "String": true}

// SchemaValidator validates loaded schema definitions before they are
// hashed, locked or deployed.
type SchemaValidator struct{}

// NewSchemaValidator creates a new schema validator
func NewSchemaValidator() *SchemaValidator {
	return &SchemaValidator{}
}

// ValidateSchemas validates every schema and the references between them.
func (v *SchemaValidator) ValidateSchemas(schemas []schema.Schema) *ValidationResult {
	result := &ValidationResult{
		Valid:    true,
		Errors:   []ValidationError{},
		Warnings: []ValidationError{},
		Info:     []ValidationError{},
	}

	names := map[string]bool{}
	for _, s := range schemas {
		if names[s.Name] {
			result.addError(ValidationError{
				Type:    "duplicate_schema",
				Schema:  s.Name,
				Message: fmt.Sprintf("Duplicate schema name '%s'", s.Name),
			})
			continue
		}
		names[s.Name] = true
		v.validateSchema(s, result)
	}

	v.validateCrossSchemaReferences(schemas, names, result)

	result.Valid = len(result.Errors) == 0
	return result
}

func (v *SchemaValidator) validateSchema(s schema.Schema, result *ValidationResult) {
	if err := validateIdentifier("schema", s.Name); err != nil {
		result.addError(ValidationError{Type: "schema_name", Schema: s.Name, Message: err.Error()})
	}

	switch s.KindOrDefault() {
	case schema.KindEnum:
		v.validateEnumSchema(s, result)
		return
	case schema.KindObject:
	default:
		result.addError(ValidationError{
			Type:    "schema_kind",
			Schema:  s.Name,
			Message: fmt.Sprintf("Unknown kind '%s' (expected object or enum)", s.Kind),
		})
		return
	}

	if len(s.Properties) == 0 {
		result.addWarning(ValidationError{
			Type:    "no_properties",
			Schema:  s.Name,
			Message: fmt.Sprintf("Schema '%s' defines no properties", s.Name),
		})
	}

	if s.Options.IDType != "" && !idTypes[s.Options.IDType] {
		result.addError(ValidationError{
			Type:    "id_type",
			Schema:  s.Name,
			Message: fmt.Sprintf("Unsupported idType '%s'", s.Options.IDType),
		})
	}

	v.validateProperties(s, result)
	v.validateRenames(s, result)
	v.validateIndexes(s, result)
}

func (v *SchemaValidator) validateEnumSchema(s schema.Schema, result *ValidationResult) {
	if len(s.Values) == 0 {
		result.addError(ValidationError{
			Type:    "enum_values",
			Schema:  s.Name,
			Message: fmt.Sprintf("Enum schema '%s' must define at least one value", s.Name),
		})
	}
	seen := map[string]bool{}
	for _, value := range s.Values {
		if seen[value] {
			result.addError(ValidationError{
				Type:    "duplicate_enum_value",
				Schema:  s.Name,
				Message: fmt.Sprintf("Duplicate enum value '%s' in '%s'", value, s.Name),
			})
		}
		seen[value] = true
	}
	if len(s.Properties) > 0 {
		result.addWarning(ValidationError{
			Type:    "enum_properties",
			Schema:  s.Name,
			Message: fmt.Sprintf("Enum schema '%s' has properties; they are ignored", s.Name),
		})
	}
}

func (v *SchemaValidator) validateProperties(s schema.Schema, result *ValidationResult) {
	for _, name := range slices.Sorted(maps.Keys(s.Properties)) {
		prop := s.Properties[name]
		fail := func(kind, format string, args ...any) {
			result.addError(ValidationError{
				Type:     kind,
				Schema:   s.Name,
				Property: name,
				Message:  fmt.Sprintf(format, args...),
			})
		}

		if err := validateIdentifier("property", name); err != nil {
			fail("property_name", "%s", err.Error())
		}

		switch {
		case prop.Type == "":
			fail("property_type", "Property '%s' has no type", name)
			continue
		case !propertyTypes[prop.Type]:
			fail("property_type", "Unsupported property type '%s'", prop.Type)
			continue
		}

		if prop.Length != nil && *prop.Length <= 0 {
			fail("length", "Length of '%s' must be positive, got %d", name, *prop.Length)
		}
		if prop.Precision != nil && *prop.Precision <= 0 {
			fail("precision", "Precision of '%s' must be positive, got %d", name, *prop.Precision)
		}
		if prop.Precision != nil && prop.Scale != nil && *prop.Scale > *prop.Precision {
			fail("scale", "Scale of '%s' (%d) exceeds its precision (%d)", name, *prop.Scale, *prop.Precision)
		}

		switch prop.Type {
		case "Enum":
			if len(prop.Enum) == 0 {
				fail("enum_values", "Enum property '%s' must list its values", name)
			}
			if d, ok := prop.Default.(string); ok && len(prop.Enum) > 0 && !slices.Contains(prop.Enum, d) {
				result.addWarning(ValidationError{
					Type:     "default_value",
					Schema:   s.Name,
					Property: name,
					Message:  fmt.Sprintf("Default '%s' is not one of %v", d, prop.Enum),
				})
			}
		case "EnumRef":
			if prop.Target == "" {
				fail("enum_target", "EnumRef property '%s' needs a target enum schema", name)
			}
		case "Association":
			if !relations[prop.Relation] {
				fail("relation", "Association '%s' has unsupported relation '%s'", name, prop.Relation)
			}
			if prop.Target == "" {
				fail("relation_target", "Association '%s' needs a target schema", name)
			}
			if err := validateAction("onDelete", prop.OnDelete); err != nil {
				fail("foreign_key", "%s", err.Error())
			}
			if err := validateAction("onUpdate", prop.OnUpdate); err != nil {
				fail("foreign_key", "%s", err.Error())
			}
		case "Boolean":
			if prop.Default != nil {
				if _, ok := prop.Default.(bool); !ok {
					result.addWarning(ValidationError{
						Type:     "default_value",
						Schema:   s.Name,
						Property: name,
						Message:  fmt.Sprintf("boolean type should have true/false default value, got '%v'", prop.Default),
					})
				}
			}
		}

		if prop.Type != "Association" && len(prop.PivotFields) > 0 {
			result.addWarning(ValidationError{
				Type:     "pivot_fields",
				Schema:   s.Name,
				Property: name,
				Message:  fmt.Sprintf("pivotFields on non-association property '%s' are ignored", name),
			})
		}
	}
}

// validateRenames checks the renamedFrom hints of a schema. A hint must not
// point at a property that still exists, and two properties cannot claim
// the same previous name.
func (v *SchemaValidator) validateRenames(s schema.Schema, result *ValidationResult) {
	hints := s.RenameHints()
	claimed := map[string]string{}
	for _, name := range slices.Sorted(maps.Keys(hints)) {
		from := hints[name]
		switch {
		case from == name:
			result.addError(ValidationError{
				Type:     "rename",
				Schema:   s.Name,
				Property: name,
				Message:  fmt.Sprintf("Property '%s' cannot be renamed from itself", name),
			})
		case hasProperty(s, from):
			result.addError(ValidationError{
				Type:     "rename",
				Schema:   s.Name,
				Property: name,
				Message:  fmt.Sprintf("Property '%s' is renamed from '%s', which still exists", name, from),
			})
		case claimed[from] != "":
			result.addError(ValidationError{
				Type:     "rename",
				Schema:   s.Name,
				Property: name,
				Message:  fmt.Sprintf("Properties '%s' and '%s' are both renamed from '%s'", claimed[from], name, from),
			})
		default:
			claimed[from] = name
			result.addInfo(ValidationError{
				Type:     "rename",
				Schema:   s.Name,
				Property: name,
				Message:  fmt.Sprintf("Property '%s' will be diffed as a rename of '%s'", name, from),
			})
		}
	}
}

func hasProperty(s schema.Schema, name string) bool {
	_, ok := s.Properties[name]
	return ok
}

// implicitColumns are generated from schema options and may be indexed
// without being declared as properties.
var implicitColumns = map[string]bool{
	"id": true, "created_at": true, "updated_at": true, "deleted_at": true,
}

func (v *SchemaValidator) validateIndexes(s schema.Schema, result *ValidationResult) {
	known := func(col string) bool {
		return hasProperty(s, col) || implicitColumns[col]
	}

	indexNames := map[string]bool{}
	for i, index := range s.Options.Indexes {
		label := index.Name
		if label == "" {
			label = fmt.Sprintf("#%d", i+1)
		}

		if index.Name != "" {
			if indexNames[index.Name] {
				result.addError(ValidationError{
					Type:    "duplicate_index",
					Schema:  s.Name,
					Index:   index.Name,
					Message: fmt.Sprintf("Duplicate index name '%s' in schema '%s'", index.Name, s.Name),
				})
				continue
			}
			indexNames[index.Name] = true
		}

		if len(index.Columns) == 0 {
			result.addError(ValidationError{
				Type:    "index_columns",
				Schema:  s.Name,
				Index:   label,
				Message: fmt.Sprintf("Index '%s' lists no columns", label),
			})
			continue
		}
		for _, col := range index.Columns {
			if !known(col) {
				result.addError(ValidationError{
					Type:     "index_column_not_found",
					Schema:   s.Name,
					Index:    label,
					Property: col,
					Message:  fmt.Sprintf("Index '%s' references non-existent column '%s' in schema '%s'", label, col, s.Name),
				})
			}
		}
	}

	for _, cols := range s.Options.Unique {
		for _, col := range cols {
			if !known(col) {
				result.addError(ValidationError{
					Type:     "unique_column_not_found",
					Schema:   s.Name,
					Property: col,
					Message:  fmt.Sprintf("Unique constraint %v references non-existent column '%s'", cols, col),
				})
			}
		}
	}
}

// validateCrossSchemaReferences checks that association and enum targets
// name a loaded schema.
func (v *SchemaValidator) validateCrossSchemaReferences(schemas []schema.Schema, names map[string]bool, result *ValidationResult) {
	for _, s := range schemas {
		for _, name := range slices.Sorted(maps.Keys(s.Properties)) {
			prop := s.Properties[name]
			if prop.Type != "Association" && prop.Type != "EnumRef" {
				continue
			}
			if prop.Target == "" || names[prop.Target] {
				continue
			}
			result.addError(ValidationError{
				Type:     "target_not_found",
				Schema:   s.Name,
				Property: name,
				Message:  fmt.Sprintf("Property '%s' references non-existent schema '%s'", name, prop.Target),
			})
		}
	}
}

// validateIdentifier validates name format
func validateIdentifier(what, name string) error {
	if name == "" {
		return fmt.Errorf("%s name cannot be empty", what)
	}

	if len(name) > 63 {
		return fmt.Errorf("%s name '%s' is too long (max 63 characters)", what, name)
	}

	first := name[0]
	if !((first >= 'a' && first <= 'z') || (first >= 'A' && first <= 'Z')) {
		return fmt.Errorf("%s name '%s' must start with a letter", what, name)
	}

	// Check for valid characters
	for _, char := range name {
		if !((char >= 'a' && char <= 'z') || (char >= 'A' && char <= 'Z') || (char >= '0' && char <= '9') || char == '_') {
			return fmt.Errorf("%s name '%s' contains invalid character '%c'", what, name, char)
		}
	}

	return nil
}

func validateAction(field, action string) error {
	if action == "" {
		return nil
	}
	if slices.Contains(referentialActions, strings.ToUpper(action)) {
		return nil
	}
	return fmt.Errorf("invalid %s action '%s', must be one of: %v", field, action, referentialActions)
}
