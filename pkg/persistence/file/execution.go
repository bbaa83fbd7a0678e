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

func (fp *Persistence) executionPath(id string) string {
	return filepath.Join(fp.root, "executions", id+".json")
}

// SaveExecution writes the execution record, creating or replacing it.
func (fp *Persistence) SaveExecution(ctx context.Context, execution *models.WorkflowExecution) error {
	fp.mu.Lock()
	defer fp.mu.Unlock()

	if err := os.MkdirAll(filepath.Join(fp.root, "executions"), 0o755); err != nil {
		return fmt.Errorf("failed to create executions directory: %w", err)
	}

	data, err := json.MarshalIndent(execution, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal execution %s: %w", execution.ID, err)
	}

	if err := os.WriteFile(fp.executionPath(execution.ID), data, 0o644); err != nil {
		return fmt.Errorf("failed to write execution %s: %w", execution.ID, err)
	}

	return nil
}

// ExecutionByID loads a single execution record.
func (fp *Persistence) ExecutionByID(ctx context.Context, id string) (*models.WorkflowExecution, error) {
	fp.mu.RLock()
	defer fp.mu.RUnlock()

	data, err := os.ReadFile(fp.executionPath(id))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("execution %s: %w", id, persistence.ErrExecutionNotFound)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to read execution %s: %w", id, err)
	}

	var execution models.WorkflowExecution
	if err := json.Unmarshal(data, &execution); err != nil {
		return nil, fmt.Errorf("failed to unmarshal execution %s: %w", id, err)
	}

	return &execution, nil
}

// ExecutionsByWorkflow returns all execution records for a workflow, newest first.
func (fp *Persistence) ExecutionsByWorkflow(ctx context.Context, workflowID string) ([]*models.WorkflowExecution, error) {
	fp.mu.RLock()
	defer fp.mu.RUnlock()

	root := os.DirFS(filepath.Join(fp.root, "executions"))

	jsonFiles, err := fs.Glob(root, "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list execution files: %w", err)
	}

	executions := make([]*models.WorkflowExecution, 0)

	for _, file := range jsonFiles {
		data, err := os.ReadFile(filepath.Join(fp.root, "executions", file))
		if err != nil {
			return nil, fmt.Errorf("failed to read execution file %s: %w", file, err)
		}

		var execution models.WorkflowExecution
		if err := json.Unmarshal(data, &execution); err != nil {
			return nil, fmt.Errorf("failed to unmarshal execution file %s: %w", file, err)
		}

		if execution.WorkflowID == workflowID {
			executions = append(executions, &execution)
		}
	}

	sort.Slice(executions, func(i, j int) bool {
		return executions[i].StartedAt.After(executions[j].StartedAt)
	})

	return executions, nil
}
