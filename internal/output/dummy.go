package output

import "github.com/cameronsjo/quartermaster/internal/schema"

// Dummy is a diagnostic plugin that dumps the variable scope and the
// application descriptor. Useful for inspecting what the template engine
// actually sees.
type Dummy struct {
	ctx *Context
}

// NewDummy creates the dummy output plugin.
func NewDummy(ctx *Context) *Dummy {
	return &Dummy{ctx: ctx}
}

func (p *Dummy) Name() string    { return "dummy" }
func (p *Dummy) Descr() string   { return "Dummy output plugin for testing" }
func (p *Dummy) FileExt() string { return ".txt" }

// IsNeeded: only apps that opt in with a dummy field participate.
func (p *Dummy) IsNeeded(app map[string]any) bool {
	_, ok := app["dummy"]
	return ok
}

func (p *Dummy) Fields() schema.Fields {
	return schema.Fields{
		"name":  {Required: true},
		"dummy": {Type: schema.TypeBool, Default: false},
	}
}

const dummyTemplate = `Dummy output plugin

Vars:

{{ .VARS | toPrettyJson }}

App config:

{{ .APP | toPrettyJson }}

SERVICE_NAME = {{ index .VARS "SERVICE_NAME" | default "N/A" }}
`

// Generate renders the diagnostic dump.
func (p *Dummy) Generate(app map[string]any, ordinal int) ([]byte, error) {
	scope := p.ctx.Scope(app)

	rendered, err := p.ctx.Engine.Render(dummyTemplate, scope)
	if err != nil {
		return nil, err
	}
	return []byte(rendered.(string)), nil
}
