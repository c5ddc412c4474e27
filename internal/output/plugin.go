// Package output defines the output plugin contract and the built-in
// plugins that turn validated, rendered application descriptors into
// target-specific deploy artifacts.
package output

import (
	"fmt"

	"github.com/cameronsjo/quartermaster/internal/schema"
	"github.com/cameronsjo/quartermaster/internal/template"
	"github.com/cameronsjo/quartermaster/internal/vars"
)

// Plugin is the boundary that validated, rendered deploy data crosses into
// format-specific generation logic.
type Plugin interface {
	// Name is the unique plugin name, used for artifact naming and errors.
	Name() string

	// Descr is a short human-readable description.
	Descr() string

	// FileExt is the artifact file extension, including the dot.
	FileExt() string

	// Fields is the plugin's immutable field schema.
	Fields() schema.Fields

	// IsNeeded reports whether this plugin participates for the given
	// application descriptor.
	IsNeeded(app map[string]any) bool

	// Generate produces the serialized artifact for the descriptor.
	// Ordinal is the 1-based application position in the deploy config.
	Generate(app map[string]any, ordinal int) ([]byte, error)
}

// Context carries the shared collaborators plugins render with: the frozen
// variable scope and the template engine.
type Context struct {
	Vars   *vars.Set
	Engine *template.Engine
}

// Scope builds the base template scope for an application: all top-level
// variables, plus VARS (the variable map itself) and APP (the descriptor).
func (c *Context) Scope(app map[string]any) map[string]any {
	scope := c.Vars.Scope()
	scope["VARS"] = c.Vars.Scope()
	scope["APP"] = app
	return scope
}

// Registry returns the output plugins in registration order. The set is
// assembled statically at process start; there is no dynamic discovery.
func Registry(ctx *Context) []Plugin {
	return []Plugin{
		NewMarathon(ctx),
		NewCompose(ctx),
		NewDummy(ctx),
	}
}

// GenerateError wraps a plugin generation failure with enough context to
// locate the offending application.
type GenerateError struct {
	Plugin  string
	Ordinal int
	Err     error
}

func (e *GenerateError) Error() string {
	return fmt.Sprintf("plugin %s, application %d: %v", e.Plugin, e.Ordinal, e.Err)
}

func (e *GenerateError) Unwrap() error {
	return e.Err
}
