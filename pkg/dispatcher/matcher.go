package dispatcher

import (
	"fmt"
	"log/slog"

	"github.com/bloomandco/automation/pkg/models"
)

// Matcher selects the workflows a domain event should trigger: status must
// be active, the trigger type must equal the event type, and the trigger
// config's filters must pass against the payload.
type Matcher struct {
	logger *slog.Logger
}

func NewMatcher(logger *slog.Logger) *Matcher {
	return &Matcher{logger: logger.With("module", "trigger_matcher")}
}

func (m *Matcher) Match(eventType string, payload map[string]any, workflows []*models.Workflow) []*models.Workflow {
	var matched []*models.Workflow

	for _, workflow := range workflows {
		if workflow.Status != models.WorkflowStatusActive {
			continue
		}

		if workflow.TriggerType != eventType {
			continue
		}

		if !m.configMatches(workflow.TriggerConfig, payload) {
			continue
		}

		m.logger.Debug("Matched workflow for event",
			"workflow_id", workflow.ID,
			"workflow_name", workflow.Name,
			"event_type", eventType)

		matched = append(matched, workflow)
	}

	return matched
}

func (m *Matcher) configMatches(config, payload map[string]any) bool {
	if config == nil {
		return true
	}

	// min_total gates order events on the order value.
	if minTotal, ok := asFloat(config["min_total"]); ok {
		total, hasTotal := asFloat(payload["total"])
		if !hasTotal || total < minTotal {
			return false
		}
	}

	// filters requires exact matches between config and payload values.
	if filters, ok := config["filters"].(map[string]any); ok {
		for key, expected := range filters {
			actual, exists := payload[key]
			if !exists || fmt.Sprintf("%v", actual) != fmt.Sprintf("%v", expected) {
				return false
			}
		}
	}

	return true
}

func asFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}
