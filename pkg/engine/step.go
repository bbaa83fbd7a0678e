package engine

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/bloomandco/automation/pkg/models"
	"github.com/bloomandco/automation/pkg/template"
)

// ErrCapabilityTimeout indicates an action's capability invocation exceeded
// its deadline. It is recorded in the trace like any other step failure.
var ErrCapabilityTimeout = errors.New("capability invocation timed out")

const defaultActionTimeout = 30 * time.Second

// Branch outcome recorded in a condition step's output data.
const outcomeKey = "outcome"

// executeNode evaluates one node against the current run context and returns
// its StepResult. DurationMs is populated on every path, including failure.
func (e *Engine) executeNode(ctx context.Context, run *runState, node *models.Node) models.StepResult {
	result := models.StepResult{
		NodeID:    node.ID,
		NodeType:  node.Type,
		NodeLabel: node.Label,
	}

	started := time.Now()

	switch node.Type {
	case models.NodeTypeTrigger:
		e.executeTrigger(run, node, &result)
	case models.NodeTypeCondition:
		e.executeCondition(run, node, &result)
	case models.NodeTypeAction:
		e.executeAction(ctx, run, node, &result)
	default:
		result.Status = models.StepStatusFailed
		result.Error = fmt.Sprintf("unknown node type %q", node.Type)
	}

	result.DurationMs = time.Since(started).Milliseconds()

	return result
}

// executeTrigger seeds the run context: the workflow's static trigger config
// merged with the caller-supplied custom data, custom data winning.
func (e *Engine) executeTrigger(run *runState, node *models.Node, result *models.StepResult) {
	seed := make(map[string]any, len(run.workflow.TriggerConfig)+len(run.customData))

	for k, v := range run.workflow.TriggerConfig {
		seed[k] = v
	}

	for k, v := range run.customData {
		seed[k] = v
	}

	run.data = seed

	result.Status = models.StepStatusCompleted
	result.InputData = run.customData
	result.OutputData = seed
}

// executeCondition evaluates the node's predicate and records which branch
// label the walk should follow next. Evaluation failure is reported as a
// failed step, never silently coerced.
func (e *Engine) executeCondition(run *runState, node *models.Node, result *models.StepResult) {
	expression := node.ConfigString("expression")
	result.InputData = run.data

	if expression == "" {
		result.Status = models.StepStatusFailed
		result.Error = "condition node has no expression"

		return
	}

	value, err := template.Render(expression, e.templateData(run))
	if err != nil {
		result.Status = models.StepStatusFailed
		result.Error = fmt.Sprintf("condition evaluation failed: %v", err)

		return
	}

	outcome := models.BranchNo
	if truthy(value) {
		outcome = models.BranchYes
	}

	// Named branches override the canonical yes/no labels.
	if override := node.ConfigString("on_" + outcome); override != "" {
		outcome = override
	}

	run.branch = outcome

	result.Status = models.StepStatusCompleted
	result.OutputData = map[string]any{
		outcomeKey:        outcome,
		"evaluated_value": fmt.Sprintf("%v", value),
	}
}

// executeAction renders the node's arguments, invokes the configured
// capability through the registry and merges its output into the run
// context. The invocation is bounded by a timeout.
func (e *Engine) executeAction(ctx context.Context, run *runState, node *models.Node, result *models.StepResult) {
	capabilityID := node.ConfigString("capability")
	if capabilityID == "" {
		result.Status = models.StepStatusFailed
		result.Error = "action node has no capability"

		return
	}

	args, err := template.RenderMap(node.ConfigMap("args"), e.templateData(run))
	if err != nil {
		result.Status = models.StepStatusFailed
		result.Error = fmt.Sprintf("argument rendering failed: %v", err)

		return
	}

	result.InputData = args

	timeout := defaultActionTimeout
	if ms := node.ConfigString("timeout_ms"); ms != "" {
		if parsed, err := strconv.Atoi(ms); err == nil && parsed > 0 {
			timeout = time.Duration(parsed) * time.Millisecond
		}
	}

	invokeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	output, err := e.registry.Invoke(invokeCtx, capabilityID, args, run.dryRun)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(invokeCtx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("%w after %s: %v", ErrCapabilityTimeout, timeout, err)
		}

		result.Status = models.StepStatusFailed
		result.Error = err.Error()

		return
	}

	if output != nil {
		run.steps[node.ID] = output
	}

	result.Status = models.StepStatusCompleted
	result.OutputData = output
}

// templateData builds the data tree predicates and arguments render against.
func (e *Engine) templateData(run *runState) map[string]any {
	return map[string]any{
		"data":    run.data,
		"trigger": run.workflow.TriggerConfig,
		"steps":   run.steps,
		"workflow": map[string]any{
			"id":   run.workflow.ID,
			"name": run.workflow.Name,
		},
	}
}

// truthy converts a rendered predicate value to a boolean.
func truthy(value any) bool {
	switch v := value.(type) {
	case bool:
		return v
	case string:
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}

		return v != "" && v != "<no value>"
	case int:
		return v != 0
	case int64:
		return v != 0
	case float64:
		return v != 0
	case []any:
		return len(v) > 0
	case map[string]any:
		return len(v) > 0
	case nil:
		return false
	default:
		return false
	}
}
