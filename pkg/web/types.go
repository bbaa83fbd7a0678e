package web

import "github.com/bloomandco/automation/pkg/models"

// CreateWorkflowRequest is the payload for POST /workflows.
type CreateWorkflowRequest struct {
	Name          string         `json:"name"           validate:"required,min=3"`
	Description   string         `json:"description"`
	TriggerType   string         `json:"trigger_type"   validate:"required"`
	TriggerConfig map[string]any `json:"trigger_config"`
	Nodes         []*models.Node `json:"nodes"`
	Edges         []*models.Edge `json:"edges"`
	Owner         string         `json:"owner"`
}

// UpdateWorkflowRequest is the payload for PATCH /workflows/:id. Zero-valued
// fields are left untouched.
type UpdateWorkflowRequest struct {
	Name          string         `json:"name,omitempty"          validate:"omitempty,min=3"`
	Description   string         `json:"description,omitempty"`
	TriggerType   string         `json:"trigger_type,omitempty"`
	TriggerConfig map[string]any `json:"trigger_config,omitempty"`
	Nodes         []*models.Node `json:"nodes,omitempty"`
	Edges         []*models.Edge `json:"edges,omitempty"`
}

// RunRequest is the payload for execute and test-run calls.
type RunRequest struct {
	CustomData map[string]any `json:"custom_data"`
}

// DispatchEventRequest is the payload for POST /events: a domain event to be
// routed to every active workflow whose trigger matches.
type DispatchEventRequest struct {
	Type    string         `json:"type"    validate:"required"`
	Payload map[string]any `json:"payload"`
}

func (r *CreateWorkflowRequest) toModel() *models.Workflow {
	return &models.Workflow{
		Name:          r.Name,
		Description:   r.Description,
		TriggerType:   r.TriggerType,
		TriggerConfig: r.TriggerConfig,
		Nodes:         r.Nodes,
		Edges:         r.Edges,
		Owner:         r.Owner,
	}
}

func (r *UpdateWorkflowRequest) toModel() *models.Workflow {
	return &models.Workflow{
		Name:          r.Name,
		Description:   r.Description,
		TriggerType:   r.TriggerType,
		TriggerConfig: r.TriggerConfig,
		Nodes:         r.Nodes,
		Edges:         r.Edges,
	}
}
