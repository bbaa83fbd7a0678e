// Package events defines the messages flowing over the job queue: trigger
// jobs going in, execution lifecycle notifications coming out.
package events

import (
	"time"

	"github.com/bloomandco/automation/pkg/models"
	"github.com/google/uuid"
)

type EventType string

// Queue topic.
const Topic = "automation.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	WorkflowTriggeredEvent          EventType = "workflow.triggered"
	WorkflowExecutionCompletedEvent EventType = "workflow.execution.completed"
	WorkflowExecutionFailedEvent    EventType = "workflow.execution.failed"
)

type BaseEvent struct {
	ID         string         `json:"id"`
	Type       EventType      `json:"type"`
	Timestamp  time.Time      `json:"timestamp"`
	WorkflowID string         `json:"workflow_id"`
	WorkerID   string         `json:"worker_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

func NewBaseEvent(eventType EventType, workflowID string) BaseEvent {
	return BaseEvent{
		ID:         uuid.New().String(),
		Type:       eventType,
		Timestamp:  time.Now().UTC(),
		WorkflowID: workflowID,
	}
}

// WorkflowTriggered is the job the dispatcher enqueues: one asynchronous
// execution of one workflow.
type WorkflowTriggered struct {
	BaseEvent

	ExecutionID string         `json:"execution_id"`
	TriggeredBy string         `json:"triggered_by"`
	CustomData  map[string]any `json:"custom_data,omitempty"`
}

func (w WorkflowTriggered) GetType() EventType {
	return WorkflowTriggeredEvent
}

// WorkflowExecutionCompleted reports a finished run.
type WorkflowExecutionCompleted struct {
	BaseEvent

	ExecutionID string            `json:"execution_id"`
	Summary     models.RunSummary `json:"summary"`
	Duration    time.Duration     `json:"duration"`
}

func (w WorkflowExecutionCompleted) GetType() EventType {
	return WorkflowExecutionCompletedEvent
}

// WorkflowExecutionFailed reports a run that ended with a failed step or an
// engine-level error.
type WorkflowExecutionFailed struct {
	BaseEvent

	ExecutionID string        `json:"execution_id"`
	Error       string        `json:"error"`
	Duration    time.Duration `json:"duration"`
}

func (w WorkflowExecutionFailed) GetType() EventType {
	return WorkflowExecutionFailedEvent
}
