// Package template renders condition predicates and action arguments
// against the current execution context.
package template

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/template"
	"time"
)

// Render evaluates a text/template expression against the given data. A
// reference to a missing key is an error, not an empty string: condition
// predicates must fail loudly rather than silently coerce.
func Render(templateStr string, data map[string]any) (any, error) {
	tmpl, err := template.
		New("expression").
		Option("missingkey=error").
		Funcs(template.FuncMap{
			"now": func() string {
				return time.Now().UTC().Format(time.RFC3339)
			},
		}).Parse(templateStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template %q: %w", templateStr, err)
	}

	var buf strings.Builder

	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to execute template %q: %w", templateStr, err)
	}

	result := strings.TrimSpace(buf.String())

	// Values that render as JSON documents come back structured.
	if (strings.HasPrefix(result, "{") && strings.HasSuffix(result, "}")) ||
		(strings.HasPrefix(result, "[") && strings.HasSuffix(result, "]")) {
		var jsonResult any

		if err := json.Unmarshal([]byte(result), &jsonResult); err == nil {
			return jsonResult, nil
		}
	}

	return result, nil
}

// RenderMap renders every string value of args, leaving other types as-is.
// Nested maps and slices are rendered recursively.
func RenderMap(args map[string]any, data map[string]any) (map[string]any, error) {
	if args == nil {
		return map[string]any{}, nil
	}

	out := make(map[string]any, len(args))

	for key, value := range args {
		rendered, err := renderValue(value, data)
		if err != nil {
			return nil, fmt.Errorf("failed to render argument %q: %w", key, err)
		}

		out[key] = rendered
	}

	return out, nil
}

func renderValue(value any, data map[string]any) (any, error) {
	switch v := value.(type) {
	case string:
		return Render(v, data)
	case map[string]any:
		out := make(map[string]any, len(v))

		for key, item := range v {
			rendered, err := renderValue(item, data)
			if err != nil {
				return nil, err
			}

			out[key] = rendered
		}

		return out, nil
	case []any:
		out := make([]any, len(v))

		for i, item := range v {
			rendered, err := renderValue(item, data)
			if err != nil {
				return nil, err
			}

			out[i] = rendered
		}

		return out, nil
	default:
		return value, nil
	}
}
