package models

import "time"

// ExecutionStatus represents the state of one workflow run.
type ExecutionStatus string

const (
	ExecutionStatusRunning   ExecutionStatus = "running"
	ExecutionStatusCompleted ExecutionStatus = "completed"
	ExecutionStatusFailed    ExecutionStatus = "failed"
)

// StepStatus defines the possible outcomes of a single node execution.
type StepStatus string

const (
	StepStatusCompleted StepStatus = "completed"
	StepStatusFailed    StepStatus = "failed"
	StepStatusSkipped   StepStatus = "skipped"
)

// WorkflowExecution is the persisted record of one asynchronous run. It is
// created in running state when the trigger is accepted and updated exactly
// once at completion, by the run that owns it. Test runs never create one.
type WorkflowExecution struct {
	ID          string          `json:"id"`
	WorkflowID  string          `json:"workflow_id"`
	TriggeredBy string          `json:"triggered_by"`
	Status      ExecutionStatus `json:"status"`
	Trace       []StepResult    `json:"trace,omitempty"`
	Error       string          `json:"error,omitempty"`
	StartedAt   time.Time       `json:"started_at"`
	FinishedAt  *time.Time      `json:"finished_at,omitempty"`
}

// StepResult is one entry in a run's trace.
type StepResult struct {
	NodeID     string         `json:"node_id"`
	NodeType   NodeType       `json:"node_type"`
	NodeLabel  string         `json:"node_label"`
	Status     StepStatus     `json:"status"`
	InputData  map[string]any `json:"input_data,omitempty"`
	OutputData map[string]any `json:"output_data,omitempty"`
	Error      string         `json:"error,omitempty"`
	DurationMs int64          `json:"duration_ms"`
}

// RunStatus summarises a whole run.
type RunStatus string

const (
	RunStatusSuccess RunStatus = "success"
	RunStatusFailed  RunStatus = "failed"
)

// RunSummary aggregates a trace.
type RunSummary struct {
	Total           int       `json:"total"`
	Completed       int       `json:"completed"`
	Failed          int       `json:"failed"`
	Skipped         int       `json:"skipped"`
	TotalDurationMs int64     `json:"total_duration_ms"`
	Status          RunStatus `json:"status"`
}

// Summarize builds a RunSummary from a trace.
func Summarize(trace []StepResult) RunSummary {
	summary := RunSummary{Total: len(trace), Status: RunStatusSuccess}

	for _, step := range trace {
		summary.TotalDurationMs += step.DurationMs

		switch step.Status {
		case StepStatusCompleted:
			summary.Completed++
		case StepStatusFailed:
			summary.Failed++
			summary.Status = RunStatusFailed
		case StepStatusSkipped:
			summary.Skipped++
		}
	}

	return summary
}
