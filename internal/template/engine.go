// Package template implements the recursive deploy config template engine.
//
// Templates are standard text/template syntax with the sprig function map,
// rendered against a variable scope. The engine renders arbitrary nested
// structures (maps, slices, strings), resolves variables whose values
// themselves contain template markers (bounded finalize recursion), and
// carries non-string leaf types through the textual substitution layer via
// a small tagged-value protocol (outputInt/outputFloat/outputBool markers)
// that is guaranteed to be stripped before results are returned.
package template

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	texttemplate "text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/google/uuid"
)

// maxRenderDepth bounds the finalize recursion. A template that still
// contains markers after this many passes is considered cyclic.
const maxRenderDepth = 10

var (
	// typeMarkerPattern matches a fully formed __type__payload__type__ value.
	typeMarkerPattern = regexp.MustCompile(`^__(int|float|bool)__(.*)__(int|float|bool)__$`)

	// typeMarkerPrefix detects strings that start like a type marker; used to
	// reject malformed markers instead of passing them through as text.
	typeMarkerPrefix = regexp.MustCompile(`^__(int|float|bool)__`)

	// missingKeyPattern extracts the variable name from a text/template
	// missing-key execution error.
	missingKeyPattern = regexp.MustCompile(`map has no entry for key "([^"]+)"`)
)

// Engine renders templates against variable scopes.
type Engine struct {
	funcs     texttemplate.FuncMap
	omitToken string
}

// New creates an Engine with the sprig function map plus the deploy config
// helpers (omit, outputInt, outputFloat, outputBool).
func New() *Engine {
	e := &Engine{
		// The token is salted per process so config text cannot forge it.
		omitToken: "__omit_" + uuid.NewString() + "__",
	}

	funcs := sprig.TxtFuncMap()
	funcs["omit"] = func() string { return e.omitToken }
	funcs["outputInt"] = func(v any) string { return wrapMarker("int", v) }
	funcs["outputFloat"] = func(v any) string { return wrapMarker("float", v) }
	funcs["outputBool"] = func(v any) string { return wrapMarker("bool", v) }
	e.funcs = funcs

	return e
}

// OmitToken returns the sentinel value that, when a rendered map entry or
// sequence element equals it, causes that entry to be dropped from the
// output instead of rendered.
func (e *Engine) OmitToken() string {
	return e.omitToken
}

// Render recursively renders value against scope.
//
// Strings are evaluated as templates with bounded re-evaluation of results
// that still contain template markers, then type-fixed-up. Maps and slices
// are rendered element-wise with order preserved; elements equal to the omit
// sentinel (before or after rendering) are dropped. Other values pass
// through unchanged.
func (e *Engine) Render(value any, scope map[string]any) (any, error) {
	return e.render(value, scope, "")
}

func (e *Engine) render(value any, scope map[string]any, path string) (any, error) {
	switch v := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, elem := range v {
			if e.isOmit(elem) {
				continue
			}
			rendered, err := e.render(elem, scope, joinPath(path, k))
			if err != nil {
				return nil, err
			}
			if e.isOmit(rendered) {
				continue
			}
			out[k] = rendered
		}
		return out, nil

	case []any:
		out := make([]any, 0, len(v))
		for i, elem := range v {
			if e.isOmit(elem) {
				continue
			}
			rendered, err := e.render(elem, scope, fmt.Sprintf("%s[%d]", path, i))
			if err != nil {
				return nil, err
			}
			if e.isOmit(rendered) {
				continue
			}
			out = append(out, rendered)
		}
		return out, nil

	case string:
		rendered, err := e.renderString(v, scope, path)
		if err != nil {
			return nil, err
		}
		return e.typeFixup(rendered, path)

	default:
		return value, nil
	}
}

// renderString evaluates a template string with finalize semantics: render
// once, and as long as the result still contains template markers, render
// again against the same scope, up to maxRenderDepth passes.
func (e *Engine) renderString(s string, scope map[string]any, path string) (string, error) {
	out := s
	for depth := 0; hasTemplateSyntax(out); depth++ {
		if depth >= maxRenderDepth {
			return "", &DepthError{Template: s, Path: path, Depth: maxRenderDepth}
		}
		rendered, err := e.renderOnce(out, scope, path)
		if err != nil {
			return "", err
		}
		out = rendered
	}
	return out, nil
}

// renderOnce performs a single template evaluation pass.
func (e *Engine) renderOnce(s string, scope map[string]any, path string) (string, error) {
	tmpl, err := texttemplate.New("inline").
		Funcs(e.funcs).
		Option("missingkey=error").
		Parse(s)
	if err != nil {
		return "", &RenderError{Template: s, Path: path, Err: err}
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, scope); err != nil {
		if m := missingKeyPattern.FindStringSubmatch(err.Error()); m != nil {
			return "", &UndefinedVariableError{Name: m[1], Template: s, Path: path}
		}
		return "", &RenderError{Template: s, Path: path, Err: err}
	}
	return buf.String(), nil
}

// typeFixup resolves a __type__payload__type__ marker back to a native int,
// float64, or bool. Values without a marker pass through unchanged. A value
// that starts like a marker but is malformed is an error rather than being
// silently passed through as text.
func (e *Engine) typeFixup(s string, path string) (any, error) {
	m := typeMarkerPattern.FindStringSubmatch(s)
	if m == nil {
		if typeMarkerPrefix.MatchString(s) {
			return nil, &RenderError{Template: s, Path: path, Err: fmt.Errorf("malformed type marker")}
		}
		return s, nil
	}
	if m[1] != m[3] {
		return nil, &RenderError{Template: s, Path: path, Err: fmt.Errorf("mismatched type markers %q and %q", m[1], m[3])}
	}

	payload := m[2]
	switch m[1] {
	case "int":
		n, err := strconv.Atoi(strings.TrimSpace(payload))
		if err != nil {
			return nil, &RenderError{Template: s, Path: path, Err: fmt.Errorf("int marker payload %q: %w", payload, err)}
		}
		return n, nil
	case "float":
		f, err := strconv.ParseFloat(strings.TrimSpace(payload), 64)
		if err != nil {
			return nil, &RenderError{Template: s, Path: path, Err: fmt.Errorf("float marker payload %q: %w", payload, err)}
		}
		return f, nil
	default: // bool
		return strings.EqualFold(strings.TrimSpace(payload), "true"), nil
	}
}

// EvaluateCondition evaluates a boolean expression against scope. The
// expression uses the same language as templates; it is rendered as
// true/false text and parsed. Any other result is a contract violation.
func (e *Engine) EvaluateCondition(expr string, scope map[string]any) (bool, error) {
	rendered, err := e.renderOnce("{{ if "+expr+" }}true{{ else }}false{{ end }}", scope, "")
	if err != nil {
		return false, &ConditionError{Expr: expr, Err: err}
	}
	switch rendered {
	case "true":
		return true, nil
	case "false":
		return false, nil
	default:
		return false, &ConditionError{Expr: expr, Result: rendered}
	}
}

// ChildScope returns a copy of scope with extra entries layered on top.
// Callers use it to expose loop-local variables (the current list element
// and its index) without mutating the shared scope.
func ChildScope(scope map[string]any, extra map[string]any) map[string]any {
	out := make(map[string]any, len(scope)+len(extra))
	for k, v := range scope {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

func (e *Engine) isOmit(v any) bool {
	s, ok := v.(string)
	return ok && s == e.omitToken
}

func hasTemplateSyntax(s string) bool {
	return strings.Contains(s, "{{")
}

func wrapMarker(kind string, v any) string {
	return "__" + kind + "__" + fmt.Sprintf("%v", v) + "__" + kind + "__"
}

func joinPath(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}
