// Package logcap provides a log capability, useful when building and
// debugging workflows.
package logcap

import (
	"context"
	"log/slog"

	"github.com/bloomandco/automation/pkg/capability"
)

type Capability struct{}

func (c *Capability) Invoke(ctx context.Context, args map[string]any, dryRun bool, logger *slog.Logger) (map[string]any, error) {
	message, _ := args["message"].(string)

	// Logging is harmless either way; dry runs log at debug so test traces
	// stay quiet.
	if dryRun {
		logger.DebugContext(ctx, "Workflow log", "message", message)
	} else {
		logger.InfoContext(ctx, "Workflow log", "message", message)
	}

	return map[string]any{"logged": true, "message": message}, nil
}

// Factory creates log capability instances.
type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (f *Factory) ID() string {
	return "log"
}

func (f *Factory) Description() string {
	return "Writes a message to the service log."
}

func (f *Factory) Create(_ map[string]any) (capability.Capability, error) {
	return &Capability{}, nil
}

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"message": map[string]any{
				"type":        "string",
				"description": "Message to log. Supports templating.",
			},
		},
		"required": []string{"message"},
	}
}
