// Package capability defines the contract between the execution engine and
// the external capabilities action nodes invoke (email send, customer tag,
// record update, outbound HTTP). The engine knows only this interface, never
// a capability's implementation.
package capability

import (
	"context"
	"log/slog"
)

// Capability performs one external effect. In dry mode it must validate the
// arguments and compute the would-be effect without performing any I/O
// visible to the rest of the system.
type Capability interface {
	Invoke(ctx context.Context, args map[string]any, dryRun bool, logger *slog.Logger) (map[string]any, error)
}

// Factory creates capability instances and describes the capability type.
type Factory interface {
	// Create creates a new capability instance with the given configuration.
	Create(config map[string]any) (Capability, error)

	// ID returns the unique identifier for this capability (e.g. "email.send").
	ID() string

	// Description returns a description of what this capability does.
	Description() string

	// Schema returns the JSON schema its arguments are validated against.
	Schema() map[string]any
}
