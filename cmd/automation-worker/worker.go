// Package main provides the worker that consumes trigger jobs from the
// queue and runs workflows for real.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/bloomandco/automation/pkg/capability"
	"github.com/bloomandco/automation/pkg/engine"
	"github.com/bloomandco/automation/pkg/eventbus"
	"github.com/bloomandco/automation/pkg/events"
	"github.com/bloomandco/automation/pkg/models"
	"github.com/bloomandco/automation/pkg/persistence"
	"github.com/bloomandco/automation/pkg/tracing"
)

type Worker struct {
	id          string
	logger      *slog.Logger
	persistence persistence.Persistence
	engine      *engine.Engine
	eventBus    eventbus.EventBus
	tracer      trace.Tracer
}

func NewWorker(
	id string,
	p persistence.Persistence,
	registry *capability.Registry,
	eventBus eventbus.EventBus,
	tracer trace.Tracer,
	logger *slog.Logger,
) *Worker {
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("automation-worker")
	}

	return &Worker{
		id:          id,
		logger:      logger.With("module", "worker", "worker_id", id),
		persistence: p,
		engine:      engine.New(registry, logger),
		eventBus:    eventBus,
		tracer:      tracer,
	}
}

// Start subscribes to trigger jobs and blocks until SIGINT or SIGTERM.
func (w *Worker) Start(ctx context.Context) error {
	w.logger.InfoContext(ctx, "Starting worker")

	if err := w.eventBus.Handle(events.WorkflowTriggeredEvent, w.handleWorkflowTriggered); err != nil {
		return err
	}

	if err := w.eventBus.Subscribe(ctx); err != nil {
		w.logger.ErrorContext(ctx, "Failed to subscribe to event bus", "error", err)

		return err
	}

	w.logger.InfoContext(ctx, "Worker started successfully")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	<-sigChan
	w.logger.InfoContext(ctx, "Shutting down worker...")

	return nil
}

func (w *Worker) handleWorkflowTriggered(ctx context.Context, event any) error {
	triggeredEvent, ok := event.(*events.WorkflowTriggered)
	if !ok {
		w.logger.ErrorContext(ctx, "Invalid event type for WorkflowTriggered")

		return nil
	}

	logger := w.logger.With(
		"workflow_id", triggeredEvent.WorkflowID,
		"execution_id", triggeredEvent.ExecutionID,
		"event_id", triggeredEvent.ID,
	)
	logger.InfoContext(ctx, "Processing workflow trigger job")

	ctx, span := tracing.StartSpan(ctx, w.tracer, "workflow.run",
		attribute.String(tracing.WorkflowIDKey, triggeredEvent.WorkflowID),
		attribute.String(tracing.ExecutionIDKey, triggeredEvent.ExecutionID),
		attribute.String(tracing.WorkerIDKey, w.id),
	)
	defer span.End()

	started := time.Now()

	workflow, err := w.persistence.WorkflowByID(ctx, triggeredEvent.WorkflowID)
	if err != nil {
		tracing.SetError(span, err)

		return w.finishFailed(ctx, logger, triggeredEvent, nil, err.Error(), time.Since(started))
	}

	result, err := w.engine.Run(ctx, workflow, triggeredEvent.CustomData, false)
	if err != nil {
		tracing.SetError(span, err)

		return w.finishFailed(ctx, logger, triggeredEvent, nil, err.Error(), time.Since(started))
	}

	if result.Summary.Status == models.RunStatusFailed {
		return w.finishFailed(ctx, logger, triggeredEvent, result, failureReason(result.Trace), time.Since(started))
	}

	return w.finishCompleted(ctx, logger, triggeredEvent, result, time.Since(started))
}

func (w *Worker) finishCompleted(ctx context.Context, logger *slog.Logger, job *events.WorkflowTriggered, result *engine.RunResult, duration time.Duration) error {
	execution := w.executionRecord(job, models.ExecutionStatusCompleted, result, "")
	if err := w.persistence.SaveExecution(ctx, execution); err != nil {
		logger.ErrorContext(ctx, "Failed to save execution record", "error", err)

		return err
	}

	completedEvent := events.WorkflowExecutionCompleted{
		BaseEvent:   events.NewBaseEvent(events.WorkflowExecutionCompletedEvent, job.WorkflowID),
		ExecutionID: job.ExecutionID,
		Summary:     result.Summary,
		Duration:    duration,
	}
	completedEvent.WorkerID = w.id

	if err := w.eventBus.Publish(ctx, job.WorkflowID, completedEvent); err != nil {
		logger.ErrorContext(ctx, "Failed to publish execution completed event", "error", err)
	}

	logger.InfoContext(ctx, "Workflow run completed",
		"steps", result.Summary.Total,
		"duration_ms", duration.Milliseconds())

	return nil
}

func (w *Worker) finishFailed(ctx context.Context, logger *slog.Logger, job *events.WorkflowTriggered, result *engine.RunResult, reason string, duration time.Duration) error {
	logger.ErrorContext(ctx, "Workflow run failed", "error", reason)

	execution := w.executionRecord(job, models.ExecutionStatusFailed, result, reason)
	if err := w.persistence.SaveExecution(ctx, execution); err != nil {
		logger.ErrorContext(ctx, "Failed to save execution record", "error", err)

		return err
	}

	failedEvent := events.WorkflowExecutionFailed{
		BaseEvent:   events.NewBaseEvent(events.WorkflowExecutionFailedEvent, job.WorkflowID),
		ExecutionID: job.ExecutionID,
		Error:       reason,
		Duration:    duration,
	}
	failedEvent.WorkerID = w.id

	if err := w.eventBus.Publish(ctx, job.WorkflowID, failedEvent); err != nil {
		logger.ErrorContext(ctx, "Failed to publish execution failed event", "error", err)
	}

	return nil
}

// executionRecord builds the terminal execution record for the job. The
// dispatcher already saved a running record under the same id, so this save
// overwrites it in place.
func (w *Worker) executionRecord(job *events.WorkflowTriggered, status models.ExecutionStatus, result *engine.RunResult, reason string) *models.WorkflowExecution {
	now := time.Now().UTC()

	execution := &models.WorkflowExecution{
		ID:          job.ExecutionID,
		WorkflowID:  job.WorkflowID,
		TriggeredBy: job.TriggeredBy,
		Status:      status,
		Error:       reason,
		StartedAt:   job.Timestamp,
		FinishedAt:  &now,
	}

	if result != nil {
		execution.Trace = result.Trace
	}

	return execution
}

// failureReason picks the first failed step's error out of a trace.
func failureReason(trace []models.StepResult) string {
	reasons := make([]string, 0, 1)

	for _, step := range trace {
		if step.Status == models.StepStatusFailed && step.Error != "" {
			reasons = append(reasons, step.Error)
		}
	}

	if len(reasons) == 0 {
		return "workflow run failed"
	}

	return strings.Join(reasons, "; ")
}
