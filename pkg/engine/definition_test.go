package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bloomandco/automation/pkg/models"
)

func TestValidateDefinition(t *testing.T) {
	tests := []struct {
		name     string
		workflow *models.Workflow
		wantErr  string
	}{
		{
			name: "valid linear graph",
			workflow: &models.Workflow{
				Nodes: []*models.Node{
					{ID: "t1", Type: models.NodeTypeTrigger, Label: "Trigger"},
					{ID: "a1", Type: models.NodeTypeAction, Label: "Action"},
				},
				Edges: []*models.Edge{{SourceID: "t1", TargetID: "a1"}},
			},
		},
		{
			name: "no trigger node",
			workflow: &models.Workflow{
				Nodes: []*models.Node{
					{ID: "a1", Type: models.NodeTypeAction, Label: "Action"},
				},
			},
			wantErr: "no trigger node",
		},
		{
			name: "two trigger nodes",
			workflow: &models.Workflow{
				Nodes: []*models.Node{
					{ID: "t1", Type: models.NodeTypeTrigger, Label: "One"},
					{ID: "t2", Type: models.NodeTypeTrigger, Label: "Two"},
				},
			},
			wantErr: "expected exactly one",
		},
		{
			name: "edge with unknown target",
			workflow: &models.Workflow{
				Nodes: []*models.Node{
					{ID: "t1", Type: models.NodeTypeTrigger, Label: "Trigger"},
				},
				Edges: []*models.Edge{{SourceID: "t1", TargetID: "ghost"}},
			},
			wantErr: "unknown target node",
		},
		{
			name: "edge with unknown source",
			workflow: &models.Workflow{
				Nodes: []*models.Node{
					{ID: "t1", Type: models.NodeTypeTrigger, Label: "Trigger"},
				},
				Edges: []*models.Edge{{SourceID: "ghost", TargetID: "t1"}},
			},
			wantErr: "unknown source node",
		},
		{
			name: "condition with a single branch label",
			workflow: &models.Workflow{
				Nodes: []*models.Node{
					{ID: "t1", Type: models.NodeTypeTrigger, Label: "Trigger"},
					{ID: "c1", Type: models.NodeTypeCondition, Label: "Check", Config: map[string]any{
						"expression": "{{.data.x}}",
					}},
					{ID: "a1", Type: models.NodeTypeAction, Label: "Action"},
				},
				Edges: []*models.Edge{
					{SourceID: "t1", TargetID: "c1"},
					{SourceID: "c1", TargetID: "a1", Label: models.BranchYes},
				},
			},
			wantErr: "needs at least 2",
		},
		{
			name: "gate condition with a single branch is allowed",
			workflow: &models.Workflow{
				Nodes: []*models.Node{
					{ID: "t1", Type: models.NodeTypeTrigger, Label: "Trigger"},
					{ID: "c1", Type: models.NodeTypeCondition, Label: "Gate", Config: map[string]any{
						"expression": "{{.data.x}}",
						"gate":       true,
					}},
					{ID: "a1", Type: models.NodeTypeAction, Label: "Action"},
				},
				Edges: []*models.Edge{
					{SourceID: "t1", TargetID: "c1"},
					{SourceID: "c1", TargetID: "a1", Label: models.BranchYes},
				},
			},
		},
		{
			name: "condition with two same-labeled edges still fails",
			workflow: &models.Workflow{
				Nodes: []*models.Node{
					{ID: "t1", Type: models.NodeTypeTrigger, Label: "Trigger"},
					{ID: "c1", Type: models.NodeTypeCondition, Label: "Check", Config: map[string]any{
						"expression": "{{.data.x}}",
					}},
					{ID: "a1", Type: models.NodeTypeAction, Label: "One"},
					{ID: "a2", Type: models.NodeTypeAction, Label: "Two"},
				},
				Edges: []*models.Edge{
					{SourceID: "t1", TargetID: "c1"},
					{SourceID: "c1", TargetID: "a1", Label: models.BranchYes},
					{SourceID: "c1", TargetID: "a2", Label: models.BranchYes},
				},
			},
			wantErr: "needs at least 2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDefinition(tt.workflow)

			if tt.wantErr == "" {
				assert.NoError(t, err)

				return
			}

			assert.Error(t, err)
			assert.True(t, IsInvalidDefinition(err))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
