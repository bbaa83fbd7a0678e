package main

import (
	"context"
	"log/slog"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bloomandco/automation/pkg/capability"
	"github.com/bloomandco/automation/pkg/eventbus"
	"github.com/bloomandco/automation/pkg/events"
	"github.com/bloomandco/automation/pkg/models"
	"github.com/bloomandco/automation/pkg/persistence/file"
)

// fakeBus collects published events; Handle and Subscribe are unused in
// these tests.
type fakeBus struct {
	mu     sync.Mutex
	events []eventbus.Event
}

func (b *fakeBus) Publish(_ context.Context, _ string, event eventbus.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.events = append(b.events, event)

	return nil
}

func (b *fakeBus) Handle(events.EventType, eventbus.EventHandler) error { return nil }
func (b *fakeBus) Subscribe(context.Context) error                      { return nil }
func (b *fakeBus) Close() error                                         { return nil }
func (b *fakeBus) GenerateID() string                                   { return uuid.New().String() }

type countingCapability struct {
	mu    sync.Mutex
	calls int
}

func (c *countingCapability) Invoke(_ context.Context, args map[string]any, _ bool, _ *slog.Logger) (map[string]any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.calls++

	return map[string]any{"done": true}, nil
}

type countingFactory struct {
	counter *countingCapability
}

func (f *countingFactory) Create(_ map[string]any) (capability.Capability, error) { return f.counter, nil }
func (f *countingFactory) ID() string                                             { return "log" }
func (f *countingFactory) Description() string                                    { return "counting" }
func (f *countingFactory) Schema() map[string]any                                 { return nil }

func testWorkflow(status models.WorkflowStatus) *models.Workflow {
	return &models.Workflow{
		ID:          "wf-1",
		Name:        "Worker test flow",
		Status:      status,
		TriggerType: models.TriggerTypeOrderPlaced,
		Nodes: []*models.Node{
			{ID: "t1", Type: models.NodeTypeTrigger, Label: "Order placed"},
			{ID: "a1", Type: models.NodeTypeAction, Label: "Note", Config: map[string]any{
				"capability": "log",
				"args":       map[string]any{"message": "hi"},
			}},
		},
		Edges: []*models.Edge{{SourceID: "t1", TargetID: "a1"}},
	}
}

func triggerJob(workflowID string) *events.WorkflowTriggered {
	return &events.WorkflowTriggered{
		BaseEvent:   events.NewBaseEvent(events.WorkflowTriggeredEvent, workflowID),
		ExecutionID: uuid.New().String(),
		TriggeredBy: models.TriggerTypeManual,
		CustomData:  map[string]any{"total": 10.0},
	}
}

func newTestWorker(t *testing.T) (*Worker, *file.Persistence, *fakeBus, *countingCapability) {
	t.Helper()

	p := file.NewPersistence(t.TempDir())
	bus := &fakeBus{}
	counter := &countingCapability{}

	registry := capability.NewRegistry(slog.Default())
	registry.Register(&countingFactory{counter: counter})

	worker := NewWorker("worker-test", p, registry, bus, nil, slog.Default())

	return worker, p, bus, counter
}

func TestHandleWorkflowTriggered_Completes(t *testing.T) {
	worker, p, bus, counter := newTestWorker(t)
	ctx := context.Background()

	require.NoError(t, p.SaveWorkflow(ctx, testWorkflow(models.WorkflowStatusActive)))

	job := triggerJob("wf-1")
	require.NoError(t, worker.handleWorkflowTriggered(ctx, job))

	assert.Equal(t, 1, counter.calls)

	execution, err := p.ExecutionByID(ctx, job.ExecutionID)
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusCompleted, execution.Status)
	assert.Len(t, execution.Trace, 2)
	require.NotNil(t, execution.FinishedAt)

	require.Len(t, bus.events, 1)
	completed, ok := bus.events[0].(events.WorkflowExecutionCompleted)
	require.True(t, ok)
	assert.Equal(t, job.ExecutionID, completed.ExecutionID)
	assert.Equal(t, 2, completed.Summary.Total)
}

func TestHandleWorkflowTriggered_StepFailure(t *testing.T) {
	worker, p, bus, _ := newTestWorker(t)
	ctx := context.Background()

	workflow := testWorkflow(models.WorkflowStatusActive)
	workflow.Nodes[1].Config["capability"] = "does.not.exist"
	require.NoError(t, p.SaveWorkflow(ctx, workflow))

	job := triggerJob("wf-1")
	require.NoError(t, worker.handleWorkflowTriggered(ctx, job))

	execution, err := p.ExecutionByID(ctx, job.ExecutionID)
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusFailed, execution.Status)
	assert.Contains(t, execution.Error, "not registered")
	assert.Len(t, execution.Trace, 2)

	require.Len(t, bus.events, 1)
	failed, ok := bus.events[0].(events.WorkflowExecutionFailed)
	require.True(t, ok)
	assert.Equal(t, job.ExecutionID, failed.ExecutionID)
}

func TestHandleWorkflowTriggered_WorkflowGone(t *testing.T) {
	worker, p, bus, _ := newTestWorker(t)
	ctx := context.Background()

	job := triggerJob("wf-missing")
	require.NoError(t, worker.handleWorkflowTriggered(ctx, job))

	execution, err := p.ExecutionByID(ctx, job.ExecutionID)
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusFailed, execution.Status)
	assert.Contains(t, execution.Error, "not found")

	require.Len(t, bus.events, 1)
	_, ok := bus.events[0].(events.WorkflowExecutionFailed)
	assert.True(t, ok)
}

func TestHandleWorkflowTriggered_IgnoresWrongEventType(t *testing.T) {
	worker, _, bus, counter := newTestWorker(t)

	require.NoError(t, worker.handleWorkflowTriggered(context.Background(), "not an event"))
	assert.Empty(t, bus.events)
	assert.Equal(t, 0, counter.calls)
}
