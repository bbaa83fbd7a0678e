// Package web provides the HTTP admin API for workflows: lifecycle CRUD,
// trigger and test-run endpoints, and execution lookups.
package web

import (
	"context"
	"encoding/json"

	"github.com/bloomandco/automation/pkg/capability"
	"github.com/bloomandco/automation/pkg/dispatcher"
	"github.com/bloomandco/automation/pkg/idempotency"
	"github.com/bloomandco/automation/pkg/models"
	"github.com/bloomandco/automation/pkg/persistence"
	"github.com/bloomandco/automation/pkg/services"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

type APIHandlers struct {
	workflowService *services.Workflow
	dispatcher      *dispatcher.Dispatcher
	guard           *idempotency.Guard
	executions      persistence.ExecutionRepository
	registry        *capability.Registry
	validator       *validator.Validate
}

func NewAPIHandlers(
	workflowService *services.Workflow,
	d *dispatcher.Dispatcher,
	guard *idempotency.Guard,
	executions persistence.ExecutionRepository,
	registry *capability.Registry,
	validate *validator.Validate,
) *APIHandlers {
	return &APIHandlers{
		workflowService: workflowService,
		dispatcher:      d,
		guard:           guard,
		executions:      executions,
		registry:        registry,
		validator:       validate,
	}
}

func (h *APIHandlers) GetWorkflows(c fiber.Ctx) error {
	workflows, err := h.workflowService.List(c.Context())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{"workflows": workflows})
}

func (h *APIHandlers) GetWorkflow(c fiber.Ctx) error {
	workflow, err := h.workflowService.Get(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(workflow)
}

func (h *APIHandlers) CreateWorkflow(c fiber.Ctx) error {
	var req CreateWorkflowRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return badRequest(c, "invalid JSON body: "+err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return badRequest(c, err.Error())
	}

	workflow, err := h.workflowService.Create(c.Context(), req.toModel())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(workflow)
}

func (h *APIHandlers) UpdateWorkflow(c fiber.Ctx) error {
	var req UpdateWorkflowRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return badRequest(c, "invalid JSON body: "+err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return badRequest(c, err.Error())
	}

	workflow, err := h.workflowService.Update(c.Context(), c.Params("id"), req.toModel())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(workflow)
}

func (h *APIHandlers) DeleteWorkflow(c fiber.Ctx) error {
	if err := h.workflowService.Delete(c.Context(), c.Params("id")); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) ActivateWorkflow(c fiber.Ctx) error {
	workflow, err := h.workflowService.Activate(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(workflow)
}

func (h *APIHandlers) PauseWorkflow(c fiber.Ctx) error {
	workflow, err := h.workflowService.Pause(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(workflow)
}

func (h *APIHandlers) ArchiveWorkflow(c fiber.Ctx) error {
	workflow, err := h.workflowService.Archive(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(workflow)
}

// ExecuteWorkflow enqueues an asynchronous run and answers 202 with the job
// handle. The idempotency guard blocks an identical request repeated inside
// the cool-down window.
func (h *APIHandlers) ExecuteWorkflow(c fiber.Ctx) error {
	workflowID := c.Params("id")

	var req RunRequest
	if len(c.Body()) > 0 {
		if err := json.Unmarshal(c.Body(), &req); err != nil {
			return badRequest(c, "invalid JSON body: "+err.Error())
		}
	}

	workflow, err := h.workflowService.Get(c.Context(), workflowID)
	if err != nil {
		return handleServiceError(c, err)
	}

	jobID, err := h.guard.WithDeduplication(c.Context(), map[string]any{
		"workflow_id": workflowID,
		"custom_data": req.CustomData,
	}, func(ctx context.Context) (any, error) {
		return h.dispatcher.TriggerWorkflow(ctx, workflowID, models.TriggerTypeManual, req.CustomData)
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"job_id":        jobID,
		"workflow_id":   workflow.ID,
		"workflow_name": workflow.Name,
	})
}

// TestRunWorkflow walks the graph in dry mode and answers synchronously with
// the full trace. Safe to call repeatedly; nothing is persisted.
func (h *APIHandlers) TestRunWorkflow(c fiber.Ctx) error {
	var req RunRequest
	if len(c.Body()) > 0 {
		if err := json.Unmarshal(c.Body(), &req); err != nil {
			return badRequest(c, "invalid JSON body: "+err.Error())
		}
	}

	result, err := h.dispatcher.TestRunWorkflow(c.Context(), c.Params("id"), req.CustomData)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"summary": result.Summary,
		"trace":   result.Trace,
	})
}

// DispatchEvent routes a domain event to every matching active workflow and
// answers 202 with the job ids of the runs it started. The guard
// fingerprints the event itself, so the same event replayed inside the
// cool-down window is suppressed.
func (h *APIHandlers) DispatchEvent(c fiber.Ctx) error {
	var req DispatchEventRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return badRequest(c, "invalid JSON body: "+err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return badRequest(c, err.Error())
	}

	jobIDs, err := h.guard.WithDeduplication(c.Context(), map[string]any{
		"event_type": req.Type,
		"payload":    req.Payload,
	}, func(ctx context.Context) (any, error) {
		return h.dispatcher.DispatchEvent(ctx, req.Type, req.Payload)
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"event_type": req.Type,
		"job_ids":    jobIDs,
	})
}

func (h *APIHandlers) GetWorkflowExecutions(c fiber.Ctx) error {
	executions, err := h.executions.ExecutionsByWorkflow(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{"executions": executions})
}

func (h *APIHandlers) GetExecution(c fiber.Ctx) error {
	execution, err := h.executions.ExecutionByID(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(execution)
}

func (h *APIHandlers) GetCapabilities(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"capabilities": h.registry.List()})
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	message, healthy := h.workflowService.HealthCheck(c.Context())
	if !healthy {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": message})
	}

	return c.JSON(fiber.Map{"status": message})
}
