package models

// NodeType is the closed set of node kinds the engine can execute. New kinds
// extend the Step Executor's switch without changing the outer walk.
type NodeType string

const (
	NodeTypeTrigger   NodeType = "trigger"
	NodeTypeCondition NodeType = "condition"
	NodeTypeAction    NodeType = "action"
)

// Canonical edge labels for condition branches.
const (
	BranchYes = "yes"
	BranchNo  = "no"
)

// Node is one step in a workflow graph.
type Node struct {
	ID     string         `json:"id"     validate:"required"`
	Type   NodeType       `json:"type"   validate:"required,oneof=trigger condition action"`
	Label  string         `json:"label"  validate:"required"`
	Config map[string]any `json:"config,omitempty"`
}

// Edge is a directed connection between two nodes. Condition nodes carry two
// or more outgoing edges distinguished by label; trigger and action nodes
// have at most one outgoing edge.
type Edge struct {
	SourceID string `json:"source_id" validate:"required"`
	TargetID string `json:"target_id" validate:"required"`
	Label    string `json:"label,omitempty"`
}

// ConfigString reads a string value from the node config.
func (n *Node) ConfigString(key string) string {
	if n.Config == nil {
		return ""
	}

	s, _ := n.Config[key].(string)

	return s
}

// ConfigMap reads a nested map value from the node config.
func (n *Node) ConfigMap(key string) map[string]any {
	if n.Config == nil {
		return nil
	}

	m, _ := n.Config[key].(map[string]any)

	return m
}
