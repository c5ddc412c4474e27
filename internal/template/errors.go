package template

import "fmt"

// UndefinedVariableError indicates a template referenced a variable that is
// absent from the scope at final render time.
type UndefinedVariableError struct {
	// Name is the missing variable, when it could be extracted.
	Name string

	// Template is the offending template string.
	Template string

	// Path is the enclosing field path, when known.
	Path string
}

func (e *UndefinedVariableError) Error() string {
	msg := fmt.Sprintf("undefined variable %q in template %q", e.Name, e.Template)
	if e.Path != "" {
		msg += " at " + e.Path
	}
	return msg
}

// DepthError indicates the finalize recursion exceeded its bound, which
// usually means a self-referential variable cycle.
type DepthError struct {
	Template string
	Path     string
	Depth    int
}

func (e *DepthError) Error() string {
	msg := fmt.Sprintf("template %q did not resolve after %d passes (variable cycle?)", e.Template, e.Depth)
	if e.Path != "" {
		msg += " at " + e.Path
	}
	return msg
}

// RenderError indicates malformed template syntax or a malformed type marker.
type RenderError struct {
	Template string
	Path     string
	Err      error
}

func (e *RenderError) Error() string {
	msg := fmt.Sprintf("rendering %q: %v", e.Template, e.Err)
	if e.Path != "" {
		msg += " at " + e.Path
	}
	return msg
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

// ConditionError indicates a condition expression did not evaluate to a
// clean boolean.
type ConditionError struct {
	Expr   string
	Result string
	Err    error
}

func (e *ConditionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("evaluating condition %q: %v", e.Expr, e.Err)
	}
	return fmt.Sprintf("condition %q evaluated to %q, expected true or false", e.Expr, e.Result)
}

func (e *ConditionError) Unwrap() error {
	return e.Err
}
