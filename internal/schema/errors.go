package schema

import "fmt"

// UnknownFieldError indicates a descriptor field not declared by any
// applicable plugin schema.
type UnknownFieldError struct {
	Field string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("field %q is not valid for relevant output plugins", e.Field)
}

// RequiredFieldError indicates a required field with no default was absent
// from the descriptor.
type RequiredFieldError struct {
	Path string
}

func (e *RequiredFieldError) Error() string {
	return fmt.Sprintf("required field %q is missing", e.Path)
}

// TypeMismatchError indicates a field value could not be coerced to its
// declared type.
type TypeMismatchError struct {
	Path string
	Want string
	Got  any
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("field %q: expected %s, got %T (%v)", e.Path, e.Want, e.Got, e.Got)
}
