package output

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/cameronsjo/quartermaster/internal/schema"
)

// Compose generates docker-compose service definitions (YAML).
type Compose struct {
	ctx *Context
}

// NewCompose creates the compose output plugin.
func NewCompose(ctx *Context) *Compose {
	return &Compose{ctx: ctx}
}

func (p *Compose) Name() string    { return "compose" }
func (p *Compose) Descr() string   { return "docker-compose output plugin" }
func (p *Compose) FileExt() string { return ".yml" }

// IsNeeded: compose services are identified by their name field.
func (p *Compose) IsNeeded(app map[string]any) bool {
	_, ok := app["name"]
	return ok
}

func (p *Compose) Fields() schema.Fields {
	return composeFields
}

var composeFields = schema.Fields{
	"name":          {Required: true},
	"image":         {Required: true},
	"command":       {},
	"restart":       {Default: "unless-stopped"},
	"environment":   {Type: schema.TypeDict},
	"compose_ports": {Type: schema.TypeList},
	"volumes":       {Type: schema.TypeList},
	"networks":      {Type: schema.TypeList},
	"depends_on":    {Type: schema.TypeList},
}

// Generate renders a compose file with a single service entry.
func (p *Compose) Generate(app map[string]any, ordinal int) ([]byte, error) {
	scope := p.ctx.Scope(app)

	name, err := p.ctx.Engine.Render(app["name"], scope)
	if err != nil {
		return nil, err
	}

	service := map[string]any{
		"image":   "{{ .APP.image }}",
		"restart": "{{ .APP.restart }}",
	}
	if app["command"] != nil {
		service["command"] = app["command"]
	}
	if env, ok := app["environment"].(map[string]any); ok && len(env) > 0 {
		service["environment"] = env
	}
	for appField, outField := range map[string]string{
		"compose_ports": "ports",
		"volumes":       "volumes",
		"networks":      "networks",
		"depends_on":    "depends_on",
	} {
		if list, ok := app[appField].([]any); ok && len(list) > 0 {
			service[outField] = list
		}
	}

	doc := map[string]any{
		"services": map[string]any{
			fmt.Sprintf("%v", name): service,
		},
	}

	rendered, err := p.ctx.Engine.Render(doc, scope)
	if err != nil {
		return nil, err
	}

	out, err := yaml.Marshal(rendered)
	if err != nil {
		return nil, fmt.Errorf("marshal compose service: %w", err)
	}
	return out, nil
}
