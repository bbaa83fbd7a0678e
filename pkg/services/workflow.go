package services

import (
	"context"
	"time"

	"github.com/bloomandco/automation/pkg/engine"
	"github.com/bloomandco/automation/pkg/models"
	"github.com/bloomandco/automation/pkg/persistence"
	"github.com/google/uuid"
)

// Workflow implements the admin lifecycle: create draft, edit, activate,
// pause, resume, archive, delete. The legal transitions are
// draft -> active <-> paused -> archived, with archived terminal.
type Workflow struct {
	persistence persistence.Persistence
}

// NewWorkflow creates a new workflow service.
func NewWorkflow(p persistence.Persistence) *Workflow {
	return &Workflow{persistence: p}
}

// HealthCheck checks the health of the persistence layer.
func (s *Workflow) HealthCheck(ctx context.Context) (string, bool) {
	if s.persistence == nil {
		return "Persistence layer not initialized", false
	}

	if err := s.persistence.HealthCheck(ctx); err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

// List returns all workflows.
func (s *Workflow) List(ctx context.Context) ([]*models.Workflow, error) {
	return s.persistence.Workflows(ctx)
}

// Get returns a single workflow by id.
func (s *Workflow) Get(ctx context.Context, id string) (*models.Workflow, error) {
	return s.persistence.WorkflowByID(ctx, id)
}

// Create stores a new workflow in draft state.
func (s *Workflow) Create(ctx context.Context, workflow *models.Workflow) (*models.Workflow, error) {
	if workflow == nil {
		return nil, &ServiceError{Op: "Create", Err: ErrWorkflowNil}
	}

	if workflow.Name == "" {
		return nil, &ServiceError{Op: "Create", Err: ErrWorkflowNameRequired}
	}

	if workflow.TriggerType == "" {
		return nil, &ServiceError{Op: "Create", Err: ErrTriggerTypeRequired}
	}

	now := time.Now().UTC()

	workflow.ID = uuid.New().String()
	workflow.Status = models.WorkflowStatusDraft
	workflow.CreatedAt = now
	workflow.UpdatedAt = now

	if err := s.persistence.SaveWorkflow(ctx, workflow); err != nil {
		return nil, err
	}

	return workflow, nil
}

// Update replaces the mutable parts of a draft workflow. Active, paused and
// archived workflows are immutable; pause first, or create a new draft.
func (s *Workflow) Update(ctx context.Context, id string, update *models.Workflow) (*models.Workflow, error) {
	existing, err := s.persistence.WorkflowByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if existing.Status != models.WorkflowStatusDraft {
		return nil, &ServiceError{Op: "Update", Err: ErrCannotModifyActive}
	}

	if update.Name != "" {
		existing.Name = update.Name
	}

	if update.Description != "" {
		existing.Description = update.Description
	}

	if update.TriggerType != "" {
		existing.TriggerType = update.TriggerType
	}

	if update.TriggerConfig != nil {
		existing.TriggerConfig = update.TriggerConfig
	}

	if update.Nodes != nil {
		existing.Nodes = update.Nodes
	}

	if update.Edges != nil {
		existing.Edges = update.Edges
	}

	existing.UpdatedAt = time.Now().UTC()

	if err := s.persistence.SaveWorkflow(ctx, existing); err != nil {
		return nil, err
	}

	return existing, nil
}

// Activate moves a draft or paused workflow to active. The graph is
// validated here so a malformed definition never becomes triggerable.
func (s *Workflow) Activate(ctx context.Context, id string) (*models.Workflow, error) {
	return s.transition(ctx, "Activate", id, models.WorkflowStatusActive,
		models.WorkflowStatusDraft, models.WorkflowStatusPaused)
}

// Pause moves an active workflow to paused.
func (s *Workflow) Pause(ctx context.Context, id string) (*models.Workflow, error) {
	return s.transition(ctx, "Pause", id, models.WorkflowStatusPaused,
		models.WorkflowStatusActive)
}

// Archive moves an active or paused workflow to the terminal archived state.
func (s *Workflow) Archive(ctx context.Context, id string) (*models.Workflow, error) {
	return s.transition(ctx, "Archive", id, models.WorkflowStatusArchived,
		models.WorkflowStatusActive, models.WorkflowStatusPaused)
}

// Delete removes a draft workflow.
func (s *Workflow) Delete(ctx context.Context, id string) error {
	existing, err := s.persistence.WorkflowByID(ctx, id)
	if err != nil {
		return err
	}

	if existing.Status != models.WorkflowStatusDraft {
		return &ServiceError{Op: "Delete", Err: ErrCannotDeleteActive}
	}

	return s.persistence.DeleteWorkflow(ctx, id)
}

func (s *Workflow) transition(ctx context.Context, op, id string, target models.WorkflowStatus, allowedFrom ...models.WorkflowStatus) (*models.Workflow, error) {
	workflow, err := s.persistence.WorkflowByID(ctx, id)
	if err != nil {
		return nil, err
	}

	allowed := false

	for _, from := range allowedFrom {
		if workflow.Status == from {
			allowed = true

			break
		}
	}

	if !allowed {
		return nil, &ServiceError{
			Op:      op,
			Message: "cannot move workflow from " + string(workflow.Status) + " to " + string(target),
			Err:     ErrInvalidTransition,
		}
	}

	if target == models.WorkflowStatusActive {
		if err := engine.ValidateDefinition(workflow); err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	workflow.Status = target
	workflow.UpdatedAt = now

	if target == models.WorkflowStatusArchived {
		workflow.ArchivedAt = &now
	}

	if err := s.persistence.SaveWorkflow(ctx, workflow); err != nil {
		return nil, err
	}

	return workflow, nil
}
