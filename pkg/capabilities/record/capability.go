// Package record provides the record.update capability.
package record

import (
	"context"
	"errors"
	"log/slog"

	"github.com/bloomandco/automation/pkg/capability"
)

// Updater patches fields on a backend record.
type Updater interface {
	UpdateRecord(ctx context.Context, entity, recordID string, fields map[string]any) error
}

var ErrNoUpdater = errors.New("record capability has no backend configured")

type Capability struct {
	updater Updater
}

func (c *Capability) Invoke(ctx context.Context, args map[string]any, dryRun bool, logger *slog.Logger) (map[string]any, error) {
	entity, _ := args["entity"].(string)
	recordID, _ := args["record_id"].(string)
	fields, _ := args["fields"].(map[string]any)

	if dryRun {
		logger.InfoContext(ctx, "Dry run, would update record", "entity", entity, "record_id", recordID)

		return map[string]any{
			"would_update": true,
			"entity":       entity,
			"record_id":    recordID,
			"fields":       fields,
		}, nil
	}

	if c.updater == nil {
		return nil, ErrNoUpdater
	}

	if err := c.updater.UpdateRecord(ctx, entity, recordID, fields); err != nil {
		return nil, err
	}

	logger.InfoContext(ctx, "Updated record", "entity", entity, "record_id", recordID)

	return map[string]any{
		"updated":   true,
		"entity":    entity,
		"record_id": recordID,
	}, nil
}

// Factory creates record.update capability instances.
type Factory struct {
	updater Updater
}

func NewFactory(updater Updater) *Factory {
	return &Factory{updater: updater}
}

func (f *Factory) ID() string {
	return "record.update"
}

func (f *Factory) Description() string {
	return "Patches fields on a commerce backend record."
}

func (f *Factory) Create(_ map[string]any) (capability.Capability, error) {
	return &Capability{updater: f.updater}, nil
}

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"entity": map[string]any{
				"type":        "string",
				"description": "Record collection, e.g. \"orders\" or \"customers\".",
			},
			"record_id": map[string]any{
				"type":        "string",
				"description": "Record to update. Supports templating.",
			},
			"fields": map[string]any{
				"type":        "object",
				"description": "Field values to set.",
			},
		},
		"required": []string{"entity", "record_id", "fields"},
	}
}
