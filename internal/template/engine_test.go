package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderPlainValues(t *testing.T) {
	e := New()
	scope := map[string]any{"SERVICE_NAME": "api"}

	tests := []struct {
		name  string
		value any
		want  any
	}{
		{name: "plain string identity", value: "no templates here", want: "no templates here"},
		{name: "int passthrough", value: 42, want: 42},
		{name: "float passthrough", value: 1.5, want: 1.5},
		{name: "bool passthrough", value: true, want: true},
		{name: "nil passthrough", value: nil, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.Render(tt.value, scope)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRenderSubstitution(t *testing.T) {
	e := New()
	scope := map[string]any{"SERVICE_NAME": "api"}

	got, err := e.Render("{{ .SERVICE_NAME }}-v1", scope)
	require.NoError(t, err)
	assert.Equal(t, "api-v1", got)
}

func TestRenderFinalizeIndirection(t *testing.T) {
	e := New()

	// IMAGE references TAG; a single extra finalize pass resolves it.
	scope := map[string]any{
		"IMAGE": "registry/api:{{ .TAG }}",
		"TAG":   "1.2.3",
	}

	got, err := e.Render("{{ .IMAGE }}", scope)
	require.NoError(t, err)
	assert.Equal(t, "registry/api:1.2.3", got)
}

func TestRenderFinalizeChain(t *testing.T) {
	e := New()

	// A chain of indirections within the recursion bound resolves fully.
	scope := map[string]any{
		"A": "{{ .B }}",
		"B": "{{ .C }}",
		"C": "{{ .D }}",
		"D": "done",
	}

	got, err := e.Render("{{ .A }}", scope)
	require.NoError(t, err)
	assert.Equal(t, "done", got)
}

func TestRenderDepthExceeded(t *testing.T) {
	e := New()

	// SELF references itself; the finalize loop must fail, not spin.
	scope := map[string]any{"SELF": "{{ .SELF }}"}

	_, err := e.Render("{{ .SELF }}", scope)
	require.Error(t, err)
	var depthErr *DepthError
	require.ErrorAs(t, err, &depthErr)
	assert.Equal(t, maxRenderDepth, depthErr.Depth)
}

func TestRenderUndefinedVariable(t *testing.T) {
	e := New()

	_, err := e.Render("{{ .MISSING }}", map[string]any{"PRESENT": 1})
	require.Error(t, err)
	var undefErr *UndefinedVariableError
	require.ErrorAs(t, err, &undefErr)
	assert.Equal(t, "MISSING", undefErr.Name)
}

func TestRenderMalformedSyntax(t *testing.T) {
	e := New()

	_, err := e.Render("{{ .A ", map[string]any{"A": 1})
	require.Error(t, err)
	var renderErr *RenderError
	require.ErrorAs(t, err, &renderErr)
	assert.Equal(t, "{{ .A ", renderErr.Template)
}

func TestTypeFixupRoundTrip(t *testing.T) {
	e := New()
	scope := map[string]any{
		"CPUS":      0.25,
		"MEM":       512,
		"PRIVILEGED": "True",
	}

	tests := []struct {
		name     string
		template string
		want     any
	}{
		{name: "int marker", template: "{{ .MEM | outputInt }}", want: 512},
		{name: "float marker", template: "{{ .CPUS | outputFloat }}", want: 0.25},
		{name: "bool marker true", template: "{{ .PRIVILEGED | outputBool }}", want: true},
		{name: "bool marker false", template: `{{ "no" | outputBool }}`, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.Render(tt.template, scope)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTypeFixupIdempotentOnPlainText(t *testing.T) {
	e := New()

	// Values not matching the marker pattern are returned unchanged.
	got, err := e.Render("__notatype__5__notatype__", map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, "__notatype__5__notatype__", got)
}

func TestTypeFixupMalformedMarkerIsError(t *testing.T) {
	e := New()

	tests := []struct {
		name  string
		value string
	}{
		{name: "unterminated marker", value: "__int__5"},
		{name: "mismatched marker types", value: "__int__5__float__"},
		{name: "non-numeric int payload", value: "__int__abc__int__"},
		{name: "non-numeric float payload", value: "__float__abc__float__"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Render(tt.value, map[string]any{})
			require.Error(t, err)
			var renderErr *RenderError
			assert.ErrorAs(t, err, &renderErr)
		})
	}
}

func TestRenderMapAndList(t *testing.T) {
	e := New()
	scope := map[string]any{"NAME": "api", "PORT": 8080}

	value := map[string]any{
		"id": "/{{ .NAME }}",
		"ports": []any{
			"{{ .PORT | outputInt }}",
			9090,
		},
		"nested": map[string]any{
			"label": "{{ .NAME }}-label",
		},
	}

	got, err := e.Render(value, scope)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"id":    "/api",
		"ports": []any{8080, 9090},
		"nested": map[string]any{
			"label": "api-label",
		},
	}, got)
}

func TestRenderOmitSentinel(t *testing.T) {
	e := New()
	scope := map[string]any{"NAME": "api"}

	t.Run("map entries dropped", func(t *testing.T) {
		value := map[string]any{
			"keep":     "{{ .NAME }}",
			"template": "{{ omit }}",
			"direct":   e.OmitToken(),
		}

		got, err := e.Render(value, scope)
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"keep": "api"}, got)
	})

	t.Run("list elements dropped order preserved", func(t *testing.T) {
		value := []any{"first", "{{ omit }}", "third", e.OmitToken(), "fifth"}

		got, err := e.Render(value, scope)
		require.NoError(t, err)
		assert.Equal(t, []any{"first", "third", "fifth"}, got)
	})
}

func TestEvaluateCondition(t *testing.T) {
	e := New()

	tests := []struct {
		name  string
		expr  string
		scope map[string]any
		want  bool
	}{
		{
			name:  "comparison true",
			expr:  `eq .ENV "prod"`,
			scope: map[string]any{"ENV": "prod"},
			want:  true,
		},
		{
			name:  "comparison false",
			expr:  `eq .ENV "prod"`,
			scope: map[string]any{"ENV": "dev"},
			want:  false,
		},
		{
			name:  "boolean connective",
			expr:  `and (eq .ENV "prod") (gt .COUNT 1)`,
			scope: map[string]any{"ENV": "prod", "COUNT": 2},
			want:  true,
		},
		{
			name: "loop-local element and index",
			expr: `and (eq .port.protocol "tcp") (eq .portIndex 0)`,
			scope: map[string]any{
				"port":      map[string]any{"protocol": "tcp"},
				"portIndex": 0,
			},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.EvaluateCondition(tt.expr, tt.scope)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvaluateConditionErrors(t *testing.T) {
	e := New()

	_, err := e.EvaluateCondition("eq .A", map[string]any{"A": 1})
	require.Error(t, err)
	var condErr *ConditionError
	assert.ErrorAs(t, err, &condErr)
}

func TestChildScopeDoesNotMutateParent(t *testing.T) {
	parent := map[string]any{"A": 1}
	child := ChildScope(parent, map[string]any{"A": 2, "B": 3})

	assert.Equal(t, 1, parent["A"])
	assert.Equal(t, 2, child["A"])
	assert.Equal(t, 3, child["B"])
	_, ok := parent["B"]
	assert.False(t, ok)
}

func TestOmitTokenUniquePerEngine(t *testing.T) {
	a := New()
	b := New()
	assert.NotEqual(t, a.OmitToken(), b.OmitToken())
}
