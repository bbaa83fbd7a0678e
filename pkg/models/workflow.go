// Package models defines the core domain models for workflow automation.
package models

import "time"

// WorkflowStatus represents the lifecycle state of a workflow.
type WorkflowStatus string

const (
	WorkflowStatusDraft    WorkflowStatus = "draft"    // Editable, not wired to any event source
	WorkflowStatusActive   WorkflowStatus = "active"   // Executable, receives trigger events
	WorkflowStatusPaused   WorkflowStatus = "paused"   // Temporarily not executable
	WorkflowStatusArchived WorkflowStatus = "archived" // Terminal, refuses new triggers
)

// Built-in trigger types.
const (
	TriggerTypeManual       = "manual"
	TriggerTypeOrderPlaced  = "order.placed"
	TriggerTypeScheduleTick = "schedule.tick"
)

// Workflow represents a named automation definition: a trigger, a set of
// nodes and the directed labeled edges connecting them. The engine is a pure
// consumer of this definition; only admin actions mutate it.
type Workflow struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"           validate:"required,min=3"`
	Description   string         `json:"description"`
	Status        WorkflowStatus `json:"status"         validate:"required"`
	TriggerType   string         `json:"trigger_type"   validate:"required"`
	TriggerConfig map[string]any `json:"trigger_config,omitempty"`
	Nodes         []*Node        `json:"nodes"`
	Edges         []*Edge        `json:"edges"`
	Owner         string         `json:"owner"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	ArchivedAt    *time.Time     `json:"archived_at,omitempty"`
}

// NodeByID returns the node with the given id, if present.
func (w *Workflow) NodeByID(id string) (*Node, bool) {
	for _, n := range w.Nodes {
		if n.ID == id {
			return n, true
		}
	}

	return nil, false
}

// TriggerNodes returns all nodes of type trigger. A valid definition has
// exactly one; the validator enforces that.
func (w *Workflow) TriggerNodes() []*Node {
	var out []*Node

	for _, n := range w.Nodes {
		if n.Type == NodeTypeTrigger {
			out = append(out, n)
		}
	}

	return out
}

// OutgoingEdges returns the edges leaving the given node, in definition order.
func (w *Workflow) OutgoingEdges(nodeID string) []*Edge {
	var out []*Edge

	for _, e := range w.Edges {
		if e.SourceID == nodeID {
			out = append(out, e)
		}
	}

	return out
}
