// Package schema implements the declarative field schemas published by
// output plugins, and the validation/defaulting pass applied to each
// application descriptor before rendering.
package schema

import "fmt"

// Field type names. The zero value of FieldSpec.Type means TypeStr.
const (
	TypeStr   = "str"
	TypeInt   = "int"
	TypeFloat = "float"
	TypeBool  = "bool"
	TypeList  = "list"
	TypeDict  = "dict"
)

// FieldSpec describes one recognized field of an application descriptor.
// Specs are immutable; each output plugin defines its schema once at
// startup.
type FieldSpec struct {
	// Required marks the field as mandatory when no Default is given.
	Required bool

	// Type is one of the Type* constants; empty means TypeStr.
	Type string

	// Default is used when the field is absent from the descriptor.
	Default any

	// Subtype is the element type for TypeList fields (TypeDict or a
	// scalar type).
	Subtype string

	// Fields is the nested schema for TypeDict fields and for TypeList
	// fields with Subtype TypeDict.
	Fields Fields
}

// Fields is a schema: a mapping from field name to its spec.
type Fields map[string]FieldSpec

// Has reports whether the schema declares the named field.
func (f Fields) Has(name string) bool {
	_, ok := f[name]
	return ok
}

// CheckFields verifies that every field present in the descriptor is
// declared by at least one of the applicable schemas. One error is returned
// per unrecognized field; the descriptor is not modified.
func CheckFields(app map[string]any, schemas []Fields) []error {
	var errs []error
	for _, name := range sortedKeys(app) {
		declared := false
		for _, s := range schemas {
			if s.Has(name) {
				declared = true
				break
			}
		}
		if !declared {
			errs = append(errs, &UnknownFieldError{Field: name})
		}
	}
	return errs
}

// ApplyDefaults fills in defaults for every declared field absent from the
// descriptor and coerces supplied values to their declared types, mutating
// the descriptor in place. Fields absent with no default are set to nil,
// the explicit absence marker (distinct from the template omit sentinel).
// Defaulting is idempotent: a second pass over an already-defaulted
// descriptor produces no further changes.
func ApplyDefaults(app map[string]any, fields Fields) []error {
	return applyDefaults(app, fields, "")
}

func applyDefaults(app map[string]any, fields Fields, path string) []error {
	var errs []error

	for _, name := range sortedKeys(fields) {
		spec := fields[name]
		fieldPath := joinPath(path, name)

		value, present := app[name]
		if !present || value == nil {
			errs = append(errs, defaultField(app, name, spec, fieldPath)...)
			continue
		}

		coerced, err := coerce(value, spec, fieldPath)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		app[name] = coerced

		// Recurse into nested schemas for supplied structures.
		switch spec.Type {
		case TypeDict:
			if len(spec.Fields) > 0 {
				if m, ok := coerced.(map[string]any); ok {
					errs = append(errs, applyDefaults(m, spec.Fields, fieldPath)...)
				}
			}
		case TypeList:
			if spec.Subtype == TypeDict && len(spec.Fields) > 0 {
				if list, ok := coerced.([]any); ok {
					for i, elem := range list {
						if m, ok := elem.(map[string]any); ok {
							errs = append(errs, applyDefaults(m, spec.Fields, fmt.Sprintf("%s[%d]", fieldPath, i))...)
						}
					}
				}
			}
		}
	}

	return errs
}

// defaultField fills in a single absent field.
func defaultField(app map[string]any, name string, spec FieldSpec, path string) []error {
	if spec.Default != nil {
		app[name] = spec.Default
		return nil
	}

	var errs []error
	if spec.Required {
		errs = append(errs, &RequiredFieldError{Path: path})
	}

	switch spec.Type {
	case TypeList:
		// Absent list fields default to an empty sequence so that plugin
		// loops do not need a nil guard.
		app[name] = []any{}
	case TypeDict:
		if len(spec.Fields) > 0 {
			// Absent dict fields get their nested schema defaulted so that
			// plugins can address subfields unconditionally.
			nested := make(map[string]any)
			errs = append(errs, applyDefaults(nested, spec.Fields, path)...)
			app[name] = nested
		} else {
			app[name] = nil
		}
	default:
		app[name] = nil
	}

	return errs
}
