package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/bloomandco/automation/pkg/models"
	"github.com/bloomandco/automation/pkg/persistence"
)

const executionColumns = `id, workflow_id, triggered_by, status, trace, error, started_at, finished_at`

// SaveExecution inserts or updates a workflow execution record.
func (p *Persistence) SaveExecution(ctx context.Context, execution *models.WorkflowExecution) error {
	trace, err := json.Marshal(execution.Trace)
	if err != nil {
		return fmt.Errorf("failed to marshal trace for execution %s: %w", execution.ID, err)
	}

	_, err = p.db.ExecContext(ctx, `
		INSERT INTO workflow_executions (id, workflow_id, triggered_by, status, trace, error, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			trace = EXCLUDED.trace,
			error = EXCLUDED.error,
			finished_at = EXCLUDED.finished_at`,
		execution.ID, execution.WorkflowID, execution.TriggeredBy, execution.Status,
		trace, execution.Error, execution.StartedAt, execution.FinishedAt)
	if err != nil {
		return fmt.Errorf("failed to save execution %s: %w", execution.ID, err)
	}

	return nil
}

// ExecutionByID loads a single execution record.
func (p *Persistence) ExecutionByID(ctx context.Context, id string) (*models.WorkflowExecution, error) {
	row := p.db.QueryRowContext(ctx,
		`SELECT `+executionColumns+` FROM workflow_executions WHERE id = $1`, id)

	execution, err := scanExecution(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("execution %s: %w", id, persistence.ErrExecutionNotFound)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to load execution %s: %w", id, err)
	}

	return execution, nil
}

// ExecutionsByWorkflow returns all execution records for a workflow, newest first.
func (p *Persistence) ExecutionsByWorkflow(ctx context.Context, workflowID string) ([]*models.WorkflowExecution, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT `+executionColumns+` FROM workflow_executions
		 WHERE workflow_id = $1 ORDER BY started_at DESC`, workflowID)
	if err != nil {
		return nil, fmt.Errorf("failed to query executions for workflow %s: %w", workflowID, err)
	}
	defer func() { _ = rows.Close() }()

	executions := make([]*models.WorkflowExecution, 0)

	for rows.Next() {
		execution, err := scanExecution(rows)
		if err != nil {
			return nil, err
		}

		executions = append(executions, execution)
	}

	return executions, rows.Err()
}

func scanExecution(row rowScanner) (*models.WorkflowExecution, error) {
	var (
		execution models.WorkflowExecution
		trace     []byte
	)

	err := row.Scan(&execution.ID, &execution.WorkflowID, &execution.TriggeredBy,
		&execution.Status, &trace, &execution.Error, &execution.StartedAt, &execution.FinishedAt)
	if err != nil {
		return nil, err
	}

	if len(trace) > 0 {
		if err := json.Unmarshal(trace, &execution.Trace); err != nil {
			return nil, fmt.Errorf("failed to unmarshal trace: %w", err)
		}
	}

	return &execution, nil
}
