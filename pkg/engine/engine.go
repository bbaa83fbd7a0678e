package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bloomandco/automation/pkg/capability"
	"github.com/bloomandco/automation/pkg/models"
)

// Engine executes a workflow graph. It is a pure consumer of the definition:
// no run mutates the workflow it is executing.
type Engine struct {
	registry *capability.Registry
	logger   *slog.Logger
}

func New(registry *capability.Registry, logger *slog.Logger) *Engine {
	return &Engine{
		registry: registry,
		logger:   logger.With("module", "engine"),
	}
}

// RunResult is the outcome of one run: the ordered trace and its summary.
type RunResult struct {
	Trace   []models.StepResult `json:"trace"`
	Summary models.RunSummary   `json:"summary"`
}

// runState carries the mutable state of one walk.
type runState struct {
	workflow   *models.Workflow
	customData map[string]any
	dryRun     bool

	data   map[string]any            // current context, seeded by the trigger
	steps  map[string]map[string]any // action outputs by node id
	branch string                    // edge label selected by the last condition
}

// Run walks the graph from the trigger node. Structural problems abort with
// an error before any node executes; per-step failures land in the trace and
// the run completes with a failed summary, so callers always get a trace.
func (e *Engine) Run(ctx context.Context, workflow *models.Workflow, customData map[string]any, dryRun bool) (*RunResult, error) {
	if err := ValidateDefinition(workflow); err != nil {
		return nil, err
	}

	logger := e.logger.With("workflow_id", workflow.ID, "dry_run", dryRun)
	logger.Info("Starting workflow run")

	run := &runState{
		workflow:   workflow,
		customData: customData,
		dryRun:     dryRun,
		steps:      make(map[string]map[string]any),
	}

	trace := make([]models.StepResult, 0, len(workflow.Nodes))
	visited := make(map[string]bool)

	current := workflow.TriggerNodes()[0]

	for current != nil {
		if visited[current.ID] {
			trace = append(trace, models.StepResult{
				NodeID:    current.ID,
				NodeType:  current.Type,
				NodeLabel: current.Label,
				Status:    models.StepStatusFailed,
				Error:     fmt.Sprintf("cycle detected: node %q already visited in this run", current.ID),
			})

			break
		}

		visited[current.ID] = true

		result := e.executeNode(ctx, run, current)
		trace = append(trace, result)

		logger.Debug("Executed node",
			"node_id", current.ID,
			"node_type", current.Type,
			"status", result.Status,
			"duration_ms", result.DurationMs)

		if result.Status == models.StepStatusFailed {
			break
		}

		current = e.nextNode(run, current)
	}

	summary := models.Summarize(trace)

	logger.Info("Completed workflow run",
		"status", summary.Status,
		"steps", summary.Total,
		"total_duration_ms", summary.TotalDurationMs)

	return &RunResult{Trace: trace, Summary: summary}, nil
}

// nextNode selects the successor of the node just executed. After a
// condition the edge whose label matches the selected branch is followed; no
// matching edge is a valid "nothing to do" terminal, not a failure. Other
// node types follow their single outgoing edge.
func (e *Engine) nextNode(run *runState, node *models.Node) *models.Node {
	edges := run.workflow.OutgoingEdges(node.ID)
	if len(edges) == 0 {
		return nil
	}

	if node.Type == models.NodeTypeCondition {
		for _, edge := range edges {
			if edge.Label == run.branch {
				next, _ := run.workflow.NodeByID(edge.TargetID)

				return next
			}
		}

		return nil
	}

	next, _ := run.workflow.NodeByID(edges[0].TargetID)

	return next
}
