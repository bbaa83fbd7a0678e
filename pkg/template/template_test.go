package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	data := map[string]any{
		"data": map[string]any{
			"total":    750.5,
			"customer": "cust-1",
			"tags":     []any{"new", "storefront"},
		},
	}

	tests := []struct {
		name     string
		template string
		want     any
	}{
		{
			name:     "plain value",
			template: "{{.data.customer}}",
			want:     "cust-1",
		},
		{
			name:     "boolean predicate",
			template: "{{if gt .data.total 500.0}}true{{else}}false{{end}}",
			want:     "true",
		},
		{
			name:     "json output comes back structured",
			template: `{"customer": "{{.data.customer}}"}`,
			want:     map[string]any{"customer": "cust-1"},
		},
		{
			name:     "static text",
			template: "hello",
			want:     "hello",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Render(tt.template, data)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRender_MissingKeyIsError(t *testing.T) {
	_, err := Render("{{.data.missing}}", map[string]any{"data": map[string]any{}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to execute template")
}

func TestRender_ParseError(t *testing.T) {
	_, err := Render("{{if}}", map[string]any{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse template")
}

func TestRenderMap(t *testing.T) {
	data := map[string]any{
		"data": map[string]any{"email": "a@example.com"},
	}

	args := map[string]any{
		"to":      "{{.data.email}}",
		"retries": 3,
		"options": map[string]any{
			"reply_to": "{{.data.email}}",
		},
	}

	rendered, err := RenderMap(args, data)
	require.NoError(t, err)

	assert.Equal(t, "a@example.com", rendered["to"])
	assert.Equal(t, 3, rendered["retries"])

	options, ok := rendered["options"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "a@example.com", options["reply_to"])
}

func TestRenderMap_SliceElements(t *testing.T) {
	data := map[string]any{
		"data": map[string]any{"email": "a@example.com", "cc": "b@example.com"},
	}

	args := map[string]any{
		"recipients": []any{"{{.data.email}}", "{{.data.cc}}", 7},
		"headers": []any{
			map[string]any{"reply_to": "{{.data.email}}"},
		},
	}

	rendered, err := RenderMap(args, data)
	require.NoError(t, err)

	recipients, ok := rendered["recipients"].([]any)
	require.True(t, ok)
	assert.Equal(t, []any{"a@example.com", "b@example.com", 7}, recipients)

	headers, ok := rendered["headers"].([]any)
	require.True(t, ok)
	require.Len(t, headers, 1)

	header, ok := headers[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "a@example.com", header["reply_to"])
}

func TestRenderMap_SliceElementError(t *testing.T) {
	_, err := RenderMap(
		map[string]any{"recipients": []any{"{{.data.missing}}"}},
		map[string]any{"data": map[string]any{}},
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `failed to render argument "recipients"`)
}

func TestRenderMap_NilArgs(t *testing.T) {
	rendered, err := RenderMap(nil, map[string]any{})
	require.NoError(t, err)
	assert.Empty(t, rendered)
}

func TestRenderMap_PropagatesRenderError(t *testing.T) {
	_, err := RenderMap(map[string]any{"to": "{{.data.missing}}"}, map[string]any{"data": map[string]any{}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `failed to render argument "to"`)
}
