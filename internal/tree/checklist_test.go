package tree_test

import (
	"testing"
	"time"

	"todoTracker/internal/models/task"
	"todoTracker/internal/tree"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestProgress(t *testing.T) {
	completedNode := func(title string, children ...task.Subtask) task.Subtask {
		n := node(title, children...)
		n.Completed = true
		n.Status = task.StatusCompleted
		return n
	}

	tests := []struct {
		name  string
		nodes []task.Subtask
		want  task.ChecklistProgress
	}{
		{name: "empty", nodes: nil, want: task.ChecklistProgress{}},
		{name: "flat", nodes: []task.Subtask{node("a"), completedNode("b")}, want: task.ChecklistProgress{Total: 2, Completed: 1}},
		{
			name:  "nested counts every depth once",
			nodes: []task.Subtask{node("a", completedNode("a1", completedNode("a11")), node("a2")), node("b")},
			want:  task.ChecklistProgress{Total: 5, Completed: 2},
		},
		{
			name:  "completed parent does not imply children",
			nodes: []task.Subtask{completedNode("a", node("a1"))},
			want:  task.ChecklistProgress{Total: 2, Completed: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tree.Progress(tt.nodes))
		})
	}
}

func TestProgress_TracksMutations(t *testing.T) {
	now := time.Now()
	nodes := []task.Subtask{}

	pick := tree.NewNode("Pick brand", "", "", nil, now)
	tree.Insert(&nodes, uuid.Nil, pick)
	assert.Equal(t, task.ChecklistProgress{Total: 1}, tree.Progress(nodes))

	done := true
	tree.Update(nodes, pick.ID, task.SubtaskPatch{Completed: &done}, now)
	assert.Equal(t, task.ChecklistProgress{Total: 1, Completed: 1}, tree.Progress(nodes))

	tree.Remove(&nodes, pick.ID)
	assert.Equal(t, task.ChecklistProgress{}, tree.Progress(nodes))
}
