package file

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/bloomandco/automation/pkg/models"
	"github.com/bloomandco/automation/pkg/persistence"
)

func (fp *Persistence) workflowPath(id string) string {
	return filepath.Join(fp.root, "workflows", id+".json")
}

// Workflows returns all stored workflow definitions, sorted by creation time.
func (fp *Persistence) Workflows(ctx context.Context) ([]*models.Workflow, error) {
	fp.mu.RLock()
	defer fp.mu.RUnlock()

	root := os.DirFS(filepath.Join(fp.root, "workflows"))

	jsonFiles, err := fs.Glob(root, "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list workflow files: %w", err)
	}

	workflows := make([]*models.Workflow, 0, len(jsonFiles))

	for _, file := range jsonFiles {
		id := file[:len(file)-len(".json")]

		workflow, err := fp.readWorkflow(id)
		if err != nil {
			return nil, fmt.Errorf("failed to load workflow %s: %w", id, err)
		}

		workflows = append(workflows, workflow)
	}

	sort.Slice(workflows, func(i, j int) bool {
		return workflows[i].CreatedAt.Before(workflows[j].CreatedAt)
	})

	return workflows, nil
}

// WorkflowByID loads a single workflow definition.
func (fp *Persistence) WorkflowByID(ctx context.Context, id string) (*models.Workflow, error) {
	fp.mu.RLock()
	defer fp.mu.RUnlock()

	return fp.readWorkflow(id)
}

// SaveWorkflow writes the workflow definition, creating or replacing it.
func (fp *Persistence) SaveWorkflow(ctx context.Context, workflow *models.Workflow) error {
	fp.mu.Lock()
	defer fp.mu.Unlock()

	if err := os.MkdirAll(filepath.Join(fp.root, "workflows"), 0o755); err != nil {
		return persistence.NewWorkflowError("SaveWorkflow", workflow.ID, err)
	}

	data, err := json.MarshalIndent(workflow, "", "  ")
	if err != nil {
		return persistence.NewWorkflowError("SaveWorkflow", workflow.ID, err)
	}

	if err := os.WriteFile(fp.workflowPath(workflow.ID), data, 0o644); err != nil {
		return persistence.NewWorkflowError("SaveWorkflow", workflow.ID, err)
	}

	return nil
}

// DeleteWorkflow removes the workflow definition file.
func (fp *Persistence) DeleteWorkflow(ctx context.Context, id string) error {
	fp.mu.Lock()
	defer fp.mu.Unlock()

	err := os.Remove(fp.workflowPath(id))
	if os.IsNotExist(err) {
		return persistence.NewWorkflowError("DeleteWorkflow", id, persistence.ErrWorkflowNotFound)
	}

	if err != nil {
		return persistence.NewWorkflowError("DeleteWorkflow", id, err)
	}

	return nil
}

func (fp *Persistence) readWorkflow(id string) (*models.Workflow, error) {
	data, err := os.ReadFile(fp.workflowPath(id))
	if os.IsNotExist(err) {
		return nil, persistence.NewWorkflowError("WorkflowByID", id, persistence.ErrWorkflowNotFound)
	}

	if err != nil {
		return nil, persistence.NewWorkflowError("WorkflowByID", id, err)
	}

	var workflow models.Workflow
	if err := json.Unmarshal(data, &workflow); err != nil {
		return nil, persistence.NewWorkflowError("WorkflowByID", id, err)
	}

	return &workflow, nil
}
