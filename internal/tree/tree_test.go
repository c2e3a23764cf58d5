package tree_test

import (
	"encoding/json"
	"testing"
	"time"

	"todoTracker/internal/models/task"
	"todoTracker/internal/tree"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func node(title string, children ...task.Subtask) task.Subtask {
	if children == nil {
		children = []task.Subtask{}
	}
	return task.Subtask{
		ID:       uuid.New(),
		Title:    title,
		Status:   task.StatusTodo,
		Priority: task.PriorityMedium,
		Subtasks: children,
	}
}

// a -> (a1 -> a11), a2 ; b
func sampleTree() []task.Subtask {
	return []task.Subtask{
		node("a", node("a1", node("a11")), node("a2")),
		node("b"),
	}
}

func titles(nodes []task.Subtask) []string {
	var res []string
	tree.Walk(nodes, func(n *task.Subtask, _ int) bool {
		res = append(res, n.Title)
		return true
	})
	return res
}

func TestWalk_PreOrder(t *testing.T) {
	assert.Equal(t, []string{"a", "a1", "a11", "a2", "b"}, titles(sampleTree()))
}

func TestWalk_Stop(t *testing.T) {
	visited := 0
	tree.Walk(sampleTree(), func(n *task.Subtask, _ int) bool {
		visited++
		return n.Title != "a1"
	})
	assert.Equal(t, 2, visited)
}

func TestFind(t *testing.T) {
	nodes := sampleTree()
	deep := nodes[0].Subtasks[0].Subtasks[0]

	found, ok := tree.Find(nodes, deep.ID)
	require.True(t, ok)
	assert.Equal(t, "a11", found.Title)

	_, ok = tree.Find(nodes, uuid.New())
	assert.False(t, ok)

	_, ok = tree.Find(nil, deep.ID)
	assert.False(t, ok)
}

func TestFind_DuplicateIDsFirstMatchWins(t *testing.T) {
	nodes := sampleTree()
	dup := nodes[1].ID
	nodes[0].Subtasks[1].ID = dup // "a2" now shares b's id and comes first

	found, ok := tree.Find(nodes, dup)
	require.True(t, ok)
	assert.Equal(t, "a2", found.Title)
}

func TestDepth(t *testing.T) {
	nodes := sampleTree()

	d, ok := tree.Depth(nodes, nodes[0].Subtasks[0].Subtasks[0].ID)
	require.True(t, ok)
	assert.Equal(t, 3, d)

	d, ok = tree.Depth(nodes, nodes[1].ID)
	require.True(t, ok)
	assert.Equal(t, 1, d)

	_, ok = tree.Depth(nodes, uuid.New())
	assert.False(t, ok)
}

func TestInsert(t *testing.T) {
	now := time.Now()

	t.Run("root when parent is nil", func(t *testing.T) {
		nodes := []task.Subtask{}
		ok := tree.Insert(&nodes, uuid.Nil, tree.NewNode("first", "", "", nil, now))
		require.True(t, ok)
		require.Len(t, nodes, 1)
		assert.Equal(t, task.StatusTodo, nodes[0].Status)
		assert.False(t, nodes[0].Completed)
		assert.Empty(t, nodes[0].Subtasks)
		assert.NotEqual(t, uuid.Nil, nodes[0].ID)
	})

	t.Run("under nested parent", func(t *testing.T) {
		nodes := sampleTree()
		parent := nodes[0].Subtasks[0].Subtasks[0].ID

		n := node("child")
		n.Completed = true
		n.Status = task.StatusCompleted
		ok := tree.Insert(&nodes, parent, n)
		require.True(t, ok)

		found, ok := tree.Find(nodes, n.ID)
		require.True(t, ok)
		assert.Equal(t, task.StatusTodo, found.Status)
		assert.False(t, found.Completed)

		d, _ := tree.Depth(nodes, n.ID)
		assert.Equal(t, 4, d)
	})

	t.Run("missing parent", func(t *testing.T) {
		nodes := sampleTree()
		before := titles(nodes)
		ok := tree.Insert(&nodes, uuid.New(), node("orphan"))
		assert.False(t, ok)
		assert.Equal(t, before, titles(nodes))
	})
}

func TestUpdate(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	title := "renamed"
	done := true
	undone := false
	inProgress := task.StatusInProgress
	completed := task.StatusCompleted

	t.Run("only present fields change", func(t *testing.T) {
		nodes := sampleTree()
		id := nodes[0].Subtasks[1].ID

		ok := tree.Update(nodes, id, task.SubtaskPatch{Title: &title}, now)
		require.True(t, ok)

		n, _ := tree.Find(nodes, id)
		assert.Equal(t, "renamed", n.Title)
		assert.Equal(t, task.PriorityMedium, n.Priority)
		assert.Equal(t, task.StatusTodo, n.Status)
		assert.Equal(t, "a", nodes[0].Title)
	})

	t.Run("completing stamps completedAt", func(t *testing.T) {
		nodes := sampleTree()
		id := nodes[0].Subtasks[0].Subtasks[0].ID

		require.True(t, tree.Update(nodes, id, task.SubtaskPatch{Completed: &done}, now))
		n, _ := tree.Find(nodes, id)
		assert.True(t, n.Completed)
		assert.Equal(t, task.StatusCompleted, n.Status)
		require.NotNil(t, n.CompletedAt)
		assert.True(t, now.Equal(*n.CompletedAt))

		require.True(t, tree.Update(nodes, id, task.SubtaskPatch{Completed: &undone}, now))
		assert.False(t, n.Completed)
		assert.Nil(t, n.CompletedAt)
		assert.Equal(t, task.StatusTodo, n.Status)
	})

	t.Run("status keeps completion in sync", func(t *testing.T) {
		nodes := sampleTree()
		id := nodes[1].ID

		require.True(t, tree.Update(nodes, id, task.SubtaskPatch{Status: &completed}, now))
		assert.True(t, nodes[1].Completed)
		assert.NotNil(t, nodes[1].CompletedAt)

		require.True(t, tree.Update(nodes, id, task.SubtaskPatch{Status: &inProgress}, now))
		assert.False(t, nodes[1].Completed)
		assert.Nil(t, nodes[1].CompletedAt)
		assert.Equal(t, task.StatusInProgress, nodes[1].Status)
	})

	t.Run("missing id leaves tree unchanged", func(t *testing.T) {
		nodes := sampleTree()
		before, err := json.Marshal(nodes)
		require.NoError(t, err)

		ok := tree.Update(nodes, uuid.New(), task.SubtaskPatch{Title: &title, Completed: &done}, now)
		assert.False(t, ok)

		after, err := json.Marshal(nodes)
		require.NoError(t, err)
		assert.JSONEq(t, string(before), string(after))
	})
}

func TestRemove(t *testing.T) {
	t.Run("removes whole subtree", func(t *testing.T) {
		nodes := sampleTree()
		ok := tree.Remove(&nodes, nodes[0].Subtasks[0].ID)
		require.True(t, ok)
		assert.Equal(t, []string{"a", "a2", "b"}, titles(nodes))
	})

	t.Run("removes root node", func(t *testing.T) {
		nodes := sampleTree()
		ok := tree.Remove(&nodes, nodes[1].ID)
		require.True(t, ok)
		assert.Equal(t, []string{"a", "a1", "a11", "a2"}, titles(nodes))
	})

	t.Run("missing id", func(t *testing.T) {
		nodes := sampleTree()
		assert.False(t, tree.Remove(&nodes, uuid.New()))
		assert.Len(t, titles(nodes), 5)
	})
}

func TestClone_IndependentCopy(t *testing.T) {
	nodes := sampleTree()
	nodes[1].Comments = []task.Comment{{ID: uuid.New(), Text: "hi"}}
	now := time.Now()

	cp := tree.Clone(nodes, now)
	assert.Equal(t, titles(nodes), titles(cp))
	assert.Equal(t, tree.Progress(nodes), tree.Progress(cp))
	assert.Nil(t, cp[1].Comments)

	ids := map[uuid.UUID]bool{}
	tree.Walk(nodes, func(n *task.Subtask, _ int) bool {
		ids[n.ID] = true
		return true
	})
	tree.Walk(cp, func(n *task.Subtask, _ int) bool {
		assert.False(t, ids[n.ID], "clone must use fresh ids")
		return true
	})

	cp[0].Subtasks[0].Title = "changed"
	done := true
	tree.Update(cp, cp[0].Subtasks[0].Subtasks[0].ID, task.SubtaskPatch{Completed: &done}, now)
	assert.Equal(t, "a1", nodes[0].Subtasks[0].Title)
	assert.False(t, nodes[0].Subtasks[0].Subtasks[0].Completed)
}

func TestWalk_DeepTreeDoesNotRecurse(t *testing.T) {
	root := []task.Subtask{node("0")}
	cur := &root[0]
	for i := 0; i < 100000; i++ {
		cur.Subtasks = []task.Subtask{node("n")}
		cur = &cur.Subtasks[0]
	}

	p := tree.Progress(root)
	assert.Equal(t, 100001, p.Total)
}
