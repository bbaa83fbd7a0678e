// Package dispatcher exposes the two ways a workflow run starts: the
// asynchronous production path that enqueues a job, and the synchronous
// test-run path that walks the graph in-process with no visible side
// effects.
package dispatcher

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bloomandco/automation/pkg/engine"
	"github.com/bloomandco/automation/pkg/eventbus"
	"github.com/bloomandco/automation/pkg/events"
	"github.com/bloomandco/automation/pkg/models"
	"github.com/bloomandco/automation/pkg/persistence"
	"github.com/bloomandco/automation/pkg/services"
	"github.com/google/uuid"
)

type Dispatcher struct {
	persistence persistence.Persistence
	engine      *engine.Engine
	publisher   eventbus.EventPublisher
	matcher     *Matcher
	logger      *slog.Logger
}

func New(p persistence.Persistence, eng *engine.Engine, publisher eventbus.EventPublisher, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		persistence: p,
		engine:      eng,
		publisher:   publisher,
		matcher:     NewMatcher(logger),
		logger:      logger.With("module", "dispatcher"),
	}
}

// TriggerWorkflow validates the workflow, creates a running execution record
// and enqueues the job. It returns the job id immediately; the walk happens
// in a worker. Archived workflows refuse new triggers.
func (d *Dispatcher) TriggerWorkflow(ctx context.Context, workflowID, triggeredBy string, customData map[string]any) (string, error) {
	workflow, err := d.persistence.WorkflowByID(ctx, workflowID)
	if err != nil {
		return "", err
	}

	if workflow.Status == models.WorkflowStatusArchived {
		return "", fmt.Errorf("workflow %s: %w", workflowID, services.ErrWorkflowArchived)
	}

	if err := engine.ValidateDefinition(workflow); err != nil {
		return "", err
	}

	execution := &models.WorkflowExecution{
		ID:          uuid.New().String(),
		WorkflowID:  workflowID,
		TriggeredBy: triggeredBy,
		Status:      models.ExecutionStatusRunning,
		StartedAt:   time.Now().UTC(),
	}

	if err := d.persistence.SaveExecution(ctx, execution); err != nil {
		return "", fmt.Errorf("failed to create execution record: %w", err)
	}

	event := events.WorkflowTriggered{
		BaseEvent:   events.NewBaseEvent(events.WorkflowTriggeredEvent, workflowID),
		ExecutionID: execution.ID,
		TriggeredBy: triggeredBy,
		CustomData:  customData,
	}

	if err := d.publisher.Publish(ctx, workflowID, event); err != nil {
		// No worker will ever own this record, so don't leave it running.
		execution.Status = models.ExecutionStatusFailed
		execution.Error = fmt.Sprintf("failed to enqueue workflow job: %v", err)
		finished := time.Now().UTC()
		execution.FinishedAt = &finished

		if saveErr := d.persistence.SaveExecution(ctx, execution); saveErr != nil {
			d.logger.ErrorContext(ctx, "Failed to mark execution failed after enqueue failure",
				"execution_id", execution.ID,
				"error", saveErr)
		}

		return "", fmt.Errorf("failed to enqueue workflow job: %w", err)
	}

	d.logger.InfoContext(ctx, "Enqueued workflow job",
		"workflow_id", workflowID,
		"execution_id", execution.ID,
		"triggered_by", triggeredBy)

	return execution.ID, nil
}

// TestRunWorkflow walks the graph in dry mode and returns the full trace
// synchronously. No execution record is created, nothing is enqueued and no
// idempotency reservation is taken, so it is safe to call repeatedly and
// concurrently.
func (d *Dispatcher) TestRunWorkflow(ctx context.Context, workflowID string, customData map[string]any) (*engine.RunResult, error) {
	workflow, err := d.persistence.WorkflowByID(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	return d.engine.Run(ctx, workflow, customData, true)
}

// DispatchEvent routes a domain event (order placed, schedule tick) to every
// active workflow whose trigger matches, triggering each. It returns the job
// ids of the runs it started.
func (d *Dispatcher) DispatchEvent(ctx context.Context, eventType string, payload map[string]any) ([]string, error) {
	workflows, err := d.persistence.Workflows(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list workflows: %w", err)
	}

	matched := d.matcher.Match(eventType, payload, workflows)

	jobIDs := make([]string, 0, len(matched))

	for _, workflow := range matched {
		jobID, err := d.TriggerWorkflow(ctx, workflow.ID, eventType, payload)
		if err != nil {
			d.logger.ErrorContext(ctx, "Failed to trigger matched workflow",
				"workflow_id", workflow.ID,
				"event_type", eventType,
				"error", err)

			continue
		}

		jobIDs = append(jobIDs, jobID)
	}

	return jobIDs, nil
}
