// Package tag provides the customer.tag capability.
package tag

import (
	"context"
	"errors"
	"log/slog"

	"github.com/bloomandco/automation/pkg/capability"
)

// Tagger applies a tag to a customer record in the commerce backend.
type Tagger interface {
	ApplyTag(ctx context.Context, customerID, tag string) error
}

var ErrNoTagger = errors.New("tag capability has no backend configured")

type Capability struct {
	tagger Tagger
}

func (c *Capability) Invoke(ctx context.Context, args map[string]any, dryRun bool, logger *slog.Logger) (map[string]any, error) {
	customerID, _ := args["customer_id"].(string)
	tagName, _ := args["tag"].(string)

	if dryRun {
		logger.InfoContext(ctx, "Dry run, would tag customer", "customer_id", customerID, "tag", tagName)

		return map[string]any{
			"would_tag":   true,
			"customer_id": customerID,
			"tag":         tagName,
		}, nil
	}

	if c.tagger == nil {
		return nil, ErrNoTagger
	}

	if err := c.tagger.ApplyTag(ctx, customerID, tagName); err != nil {
		return nil, err
	}

	logger.InfoContext(ctx, "Tagged customer", "customer_id", customerID, "tag", tagName)

	return map[string]any{
		"tagged":      true,
		"customer_id": customerID,
		"tag":         tagName,
	}, nil
}

// Factory creates customer.tag capability instances.
type Factory struct {
	tagger Tagger
}

func NewFactory(tagger Tagger) *Factory {
	return &Factory{tagger: tagger}
}

func (f *Factory) ID() string {
	return "customer.tag"
}

func (f *Factory) Description() string {
	return "Applies a tag to a customer record."
}

func (f *Factory) Create(_ map[string]any) (capability.Capability, error) {
	return &Capability{tagger: f.tagger}, nil
}

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"customer_id": map[string]any{
				"type":        "string",
				"description": "Customer to tag. Supports templating.",
			},
			"tag": map[string]any{
				"type":        "string",
				"description": "Tag to apply, e.g. \"vip\".",
			},
		},
		"required": []string{"customer_id", "tag"},
	}
}
