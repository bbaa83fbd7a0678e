package httpreq

import (
	"net/http"
	"time"

	"github.com/bloomandco/automation/pkg/capability"
)

const defaultTimeout = 30 * time.Second

// Factory creates http.request capability instances.
type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (f *Factory) ID() string {
	return "http.request"
}

func (f *Factory) Description() string {
	return "Performs an outbound HTTP request with optional headers and body."
}

func (f *Factory) Create(_ map[string]any) (capability.Capability, error) {
	return &Capability{
		client: &http.Client{Timeout: defaultTimeout},
	}, nil
}

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"url": map[string]any{
				"type":        "string",
				"description": "The URL to send the request to. Supports templating.",
			},
			"method": map[string]any{
				"type":        "string",
				"description": "HTTP method to use.",
				"default":     "GET",
				"enum":        []string{"GET", "POST", "PUT", "DELETE", "PATCH", "HEAD"},
			},
			"headers": map[string]any{
				"type":        "object",
				"description": "Headers to include. Values support templating.",
			},
			"body": map[string]any{
				"type":        "string",
				"description": "Request body. Supports templating.",
			},
		},
		"required": []string{"url"},
	}
}
