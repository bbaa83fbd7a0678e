package capability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// ErrCapabilityNotFound indicates an action node referenced an unregistered capability.
var ErrCapabilityNotFound = errors.New("capability not registered")

// Registry holds the capabilities available to action nodes.
type Registry struct {
	logger    *slog.Logger
	factories map[string]Factory
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger:    logger,
		factories: make(map[string]Factory),
	}
}

func (r *Registry) Register(factory Factory) {
	r.factories[factory.ID()] = factory
}

// Invoke validates args against the capability's schema, creates the
// capability and invokes it. Both real and dry mode go through here so the
// two paths cannot drift.
func (r *Registry) Invoke(ctx context.Context, id string, args map[string]any, dryRun bool) (map[string]any, error) {
	factory, ok := r.factories[id]
	if !ok {
		return nil, fmt.Errorf("capability %q: %w", id, ErrCapabilityNotFound)
	}

	if err := validateArgs(factory.Schema(), args); err != nil {
		return nil, fmt.Errorf("capability %q: %w", id, err)
	}

	instance, err := factory.Create(nil)
	if err != nil {
		return nil, fmt.Errorf("capability %q: %w", id, err)
	}

	logger := r.logger.With("capability", id, "dry_run", dryRun)

	return instance.Invoke(ctx, args, dryRun, logger)
}

// Descriptor describes a registered capability for the admin API.
type Descriptor struct {
	ID          string         `json:"id"`
	Description string         `json:"description"`
	Schema      map[string]any `json:"schema"`
}

// List returns the registered capabilities sorted by id.
func (r *Registry) List() []Descriptor {
	out := make([]Descriptor, 0, len(r.factories))

	for _, factory := range r.factories {
		out = append(out, Descriptor{
			ID:          factory.ID(),
			Description: factory.Description(),
			Schema:      factory.Schema(),
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return out
}

func validateArgs(schema map[string]any, args map[string]any) error {
	if schema == nil {
		return nil
	}

	if args == nil {
		args = map[string]any{}
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(schema),
		gojsonschema.NewGoLoader(args),
	)
	if err != nil {
		return fmt.Errorf("argument validation failed: %w", err)
	}

	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, resultErr := range result.Errors() {
			details = append(details, resultErr.String())
		}

		return fmt.Errorf("invalid arguments: %s", strings.Join(details, "; "))
	}

	return nil
}
