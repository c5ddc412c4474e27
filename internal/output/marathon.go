package output

import (
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/cameronsjo/quartermaster/internal/schema"
	"github.com/cameronsjo/quartermaster/internal/template"
)

// camelPattern matches an underscore followed by a lowercase letter.
var camelPattern = regexp.MustCompile(`_[a-z]`)

// Marathon generates Marathon app definitions (JSON).
type Marathon struct {
	ctx *Context
}

// NewMarathon creates the Marathon output plugin.
func NewMarathon(ctx *Context) *Marathon {
	return &Marathon{ctx: ctx}
}

func (p *Marathon) Name() string    { return "marathon" }
func (p *Marathon) Descr() string   { return "Marathon output plugin" }
func (p *Marathon) FileExt() string { return ".json" }

// IsNeeded: Marathon apps are identified by their id field.
func (p *Marathon) IsNeeded(app map[string]any) bool {
	_, ok := app["id"]
	return ok
}

func (p *Marathon) Fields() schema.Fields {
	return marathonFields
}

var marathonFields = schema.Fields{
	"id":    {Required: true},
	"image": {Required: true},
	"cpus":  {Type: schema.TypeFloat, Required: true},
	"mem":   {Type: schema.TypeInt, Required: true},
	"disk":  {Type: schema.TypeInt, Required: true},
	"instances": {
		Type:    schema.TypeInt,
		Default: 1,
	},
	"constraints": {Type: schema.TypeList},
	"ports": {
		Type:    schema.TypeList,
		Subtype: schema.TypeDict,
		Fields: schema.Fields{
			"container_port": {Type: schema.TypeInt, Required: true},
			"host_port":      {Type: schema.TypeInt, Default: 0},
			"service_port":   {Type: schema.TypeInt, Default: 0},
			"protocol":       {Default: "tcp"},
			"labels": {
				Type:    schema.TypeList,
				Subtype: schema.TypeDict,
				Fields: schema.Fields{
					"name":      {},
					"value":     {},
					"condition": {},
				},
			},
		},
	},
	"env":              {Type: schema.TypeDict},
	"labels":           {Type: schema.TypeDict},
	"container_labels": {Type: schema.TypeList},
	"fetch": {
		Type:    schema.TypeList,
		Subtype: schema.TypeDict,
	},
	"health_checks": {
		Type:    schema.TypeList,
		Subtype: schema.TypeDict,
		Fields: schema.Fields{
			"port_index":               {Type: schema.TypeInt},
			"protocol":                 {Default: "MESOS_HTTP"},
			"grace_period_seconds":     {Type: schema.TypeInt},
			"interval_seconds":         {Type: schema.TypeInt},
			"timeout_seconds":          {Type: schema.TypeInt},
			"max_consecutive_failures": {Type: schema.TypeInt},
			"command":                  {},
			"path":                     {},
		},
	},
	"upgrade_strategy": {
		Type: schema.TypeDict,
		Fields: schema.Fields{
			"minimum_health_capacity": {Type: schema.TypeFloat},
			"maximum_over_capacity":   {Type: schema.TypeFloat},
		},
	},
	"unreachable_strategy": {
		Type: schema.TypeDict,
		Fields: schema.Fields{
			"inactive_after_seconds": {Type: schema.TypeInt},
			"expunge_after_seconds":  {Type: schema.TypeInt},
		},
	},
}

// Generate renders the Marathon app definition for one application.
func (p *Marathon) Generate(app map[string]any, ordinal int) ([]byte, error) {
	scope := p.ctx.Scope(app)

	data := map[string]any{
		"id":        "{{ .APP.id }}",
		"cpus":      "{{ .APP.cpus | outputFloat }}",
		"mem":       "{{ .APP.mem | outputInt }}",
		"disk":      "{{ .APP.disk | outputInt }}",
		"instances": "{{ .APP.instances | outputInt }}",
		"container": map[string]any{
			"type":    "DOCKER",
			"volumes": []any{},
			"docker": map[string]any{
				"image":          "{{ .APP.image }}",
				"network":        "BRIDGE",
				"privileged":     false,
				"parameters":     []any{},
				"forcePullImage": true,
			},
		},
	}

	if list, ok := app["constraints"].([]any); ok && len(list) > 0 {
		data["constraints"] = list
	}

	if err := p.buildPortMappings(app, scope, data); err != nil {
		return nil, err
	}
	p.buildContainerParameters(app, data)

	if env, ok := app["env"].(map[string]any); ok {
		data["env"] = env
	}

	if err := p.buildFetch(app, scope, data); err != nil {
		return nil, err
	}
	if err := p.buildHealthChecks(app, scope, data); err != nil {
		return nil, err
	}
	p.buildStrategy(app, data, "upgrade_strategy", "upgradeStrategy")
	p.buildStrategy(app, data, "unreachable_strategy", "unreachableStrategy")

	if labels, ok := app["labels"].(map[string]any); ok {
		data["labels"] = labels
	}

	rendered, err := p.ctx.Engine.Render(data, scope)
	if err != nil {
		return nil, err
	}

	out, err := json.MarshalIndent(rendered, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal marathon app: %w", err)
	}
	return append(out, '\n'), nil
}

// buildPortMappings renders container.docker.portMappings, exposing the
// current port and its index as loop-local template variables.
func (p *Marathon) buildPortMappings(app map[string]any, scope map[string]any, data map[string]any) error {
	ports, _ := app["ports"].([]any)
	var mappings []any

	for i, elem := range ports {
		port, ok := elem.(map[string]any)
		if !ok {
			continue
		}
		portScope := template.ChildScope(scope, map[string]any{
			"port":      port,
			"portIndex": i,
		})

		mapping := map[string]any{
			"protocol": port["protocol"],
		}
		for _, field := range []string{"container_port", "host_port", "service_port"} {
			if port[field] != nil {
				mapping[underscoreToCamelCase(field)] = port[field]
			}
		}

		labels, err := p.buildPortLabels(port, portScope)
		if err != nil {
			return err
		}
		if len(labels) > 0 {
			mapping["labels"] = labels
		}

		// Render now so loop-local vars are in scope.
		rendered, err := p.ctx.Engine.Render(mapping, portScope)
		if err != nil {
			return err
		}
		mappings = append(mappings, rendered)
	}

	if len(mappings) > 0 {
		docker := data["container"].(map[string]any)["docker"].(map[string]any)
		docker["portMappings"] = mappings
	}
	return nil
}

// buildPortLabels renders a port's labels, skipping entries whose condition
// evaluates false.
func (p *Marathon) buildPortLabels(port map[string]any, portScope map[string]any) (map[string]any, error) {
	labelList, _ := port["labels"].([]any)
	labels := make(map[string]any)

	for j, elem := range labelList {
		label, ok := elem.(map[string]any)
		if !ok {
			continue
		}
		labelScope := template.ChildScope(portScope, map[string]any{
			"label":      label,
			"labelIndex": j,
		})

		if cond, ok := label["condition"].(string); ok && cond != "" {
			include, err := p.ctx.Engine.EvaluateCondition(cond, labelScope)
			if err != nil {
				return nil, err
			}
			if !include {
				continue
			}
		}

		name, err := p.ctx.Engine.Render(label["name"], labelScope)
		if err != nil {
			return nil, err
		}
		value, err := p.ctx.Engine.Render(label["value"], labelScope)
		if err != nil {
			return nil, err
		}
		labels[fmt.Sprintf("%v", name)] = value
	}
	return labels, nil
}

// buildContainerParameters maps container_labels onto docker run parameters.
func (p *Marathon) buildContainerParameters(app map[string]any, data map[string]any) {
	labels, ok := app["container_labels"].([]any)
	if !ok || len(labels) == 0 {
		return
	}

	params := make([]any, 0, len(labels))
	for _, label := range labels {
		params = append(params, map[string]any{
			"key":   "label",
			"value": label,
		})
	}
	docker := data["container"].(map[string]any)["docker"].(map[string]any)
	docker["parameters"] = params
}

// buildFetch copies condition-passing fetch entries, dropping the condition
// key itself from the output.
func (p *Marathon) buildFetch(app map[string]any, scope map[string]any, data map[string]any) error {
	fetchList, _ := app["fetch"].([]any)
	var out []any

	for i, elem := range fetchList {
		fetch, ok := elem.(map[string]any)
		if !ok {
			continue
		}
		fetchScope := template.ChildScope(scope, map[string]any{
			"fetch":      fetch,
			"fetchIndex": i,
		})

		if cond, ok := fetch["condition"].(string); ok && cond != "" {
			include, err := p.ctx.Engine.EvaluateCondition(cond, fetchScope)
			if err != nil {
				return err
			}
			if !include {
				continue
			}
		}

		entry := make(map[string]any, len(fetch))
		for k, v := range fetch {
			if k == "condition" {
				continue
			}
			entry[k] = v
		}
		out = append(out, entry)
	}

	if len(out) > 0 {
		data["fetch"] = out
	}
	return nil
}

// healthCheckFields are the passthrough health check fields, converted to
// camelCase on output.
var healthCheckFields = []string{
	"grace_period_seconds",
	"interval_seconds",
	"timeout_seconds",
	"max_consecutive_failures",
	"path",
	"port_index",
	"protocol",
}

// buildHealthChecks renders healthChecks with loop-local check variables.
// A check with a command becomes a COMMAND protocol check.
func (p *Marathon) buildHealthChecks(app map[string]any, scope map[string]any, data map[string]any) error {
	checkList, _ := app["health_checks"].([]any)
	var checks []any

	for i, elem := range checkList {
		check, ok := elem.(map[string]any)
		if !ok {
			continue
		}
		checkScope := template.ChildScope(scope, map[string]any{
			"check":      check,
			"checkIndex": i,
		})

		out := make(map[string]any)
		for _, field := range healthCheckFields {
			if check[field] != nil {
				out[underscoreToCamelCase(field)] = check[field]
			}
		}
		if cmd, ok := check["command"].(string); ok && cmd != "" {
			out["protocol"] = "COMMAND"
			out["command"] = map[string]any{"value": cmd}
		}

		rendered, err := p.ctx.Engine.Render(out, checkScope)
		if err != nil {
			return err
		}
		checks = append(checks, rendered)
	}

	if len(checks) > 0 {
		data["healthChecks"] = checks
	}
	return nil
}

// buildStrategy copies a strategy dict's non-absent subfields under the
// camelCase output key.
func (p *Marathon) buildStrategy(app map[string]any, data map[string]any, field, outKey string) {
	section, ok := app[field].(map[string]any)
	if !ok {
		return
	}

	strategy := make(map[string]any)
	for k, v := range section {
		if v != nil {
			strategy[underscoreToCamelCase(k)] = v
		}
	}
	if len(strategy) > 0 {
		data[outKey] = strategy
	}
}

// underscoreToCamelCase converts foo_bar_baz (this tool's field style) to
// fooBarBaz (Marathon's field style).
func underscoreToCamelCase(value string) string {
	return camelPattern.ReplaceAllStringFunc(value, func(match string) string {
		b := match[len(match)-1]
		return string(b - 'a' + 'A')
	})
}
