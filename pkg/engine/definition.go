// Package engine walks a workflow graph from its trigger node, executing one
// node at a time and accumulating a trace. The walk is identical for real
// and dry runs; the mode threads only into capability invocation.
package engine

import (
	"errors"
	"fmt"

	"github.com/bloomandco/automation/pkg/models"
)

// ErrInvalidDefinition indicates a malformed workflow graph. It is raised at
// load time, before any node executes, and is never retried.
var ErrInvalidDefinition = errors.New("invalid workflow definition")

// minimum distinct outgoing edge labels a branching condition node needs.
const minConditionBranches = 2

// ValidateDefinition checks the structural invariants of a workflow graph:
// exactly one trigger node, every edge resolving to known nodes, and every
// condition node carrying at least two distinct outgoing edge labels.
func ValidateDefinition(workflow *models.Workflow) error {
	triggers := workflow.TriggerNodes()
	if len(triggers) == 0 {
		return fmt.Errorf("%w: no trigger node", ErrInvalidDefinition)
	}

	if len(triggers) > 1 {
		return fmt.Errorf("%w: %d trigger nodes, expected exactly one", ErrInvalidDefinition, len(triggers))
	}

	for _, edge := range workflow.Edges {
		if _, ok := workflow.NodeByID(edge.SourceID); !ok {
			return fmt.Errorf("%w: edge references unknown source node %q", ErrInvalidDefinition, edge.SourceID)
		}

		if _, ok := workflow.NodeByID(edge.TargetID); !ok {
			return fmt.Errorf("%w: edge references unknown target node %q", ErrInvalidDefinition, edge.TargetID)
		}
	}

	for _, node := range workflow.Nodes {
		if node.Type != models.NodeTypeCondition {
			continue
		}

		// Gate-style conditions carry a single outgoing edge and simply
		// stop the run when the predicate selects no edge.
		if gate, _ := node.Config["gate"].(bool); gate {
			continue
		}

		labels := make(map[string]struct{})
		for _, edge := range workflow.OutgoingEdges(node.ID) {
			labels[edge.Label] = struct{}{}
		}

		if len(labels) < minConditionBranches {
			return fmt.Errorf("%w: condition node %q has %d outgoing edge labels, needs at least %d",
				ErrInvalidDefinition, node.ID, len(labels), minConditionBranches)
		}
	}

	return nil
}

// IsInvalidDefinition checks if an error indicates a malformed workflow graph.
func IsInvalidDefinition(err error) bool {
	return errors.Is(err, ErrInvalidDefinition)
}
