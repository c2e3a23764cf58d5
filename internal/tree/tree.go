// Package tree manipulates the subtask tree of a task by node id.
//
// Traversal is iterative with an explicit stack, so a deep or hostile tree
// cannot blow the call stack. Every lookup is pre-order: a node is visited
// before its children, and its children before its next sibling. Ids are
// expected to be unique; with duplicates the first node in that order wins.
package tree

import (
	"slices"
	"time"

	"todoTracker/internal/models/task"

	"github.com/google/uuid"
)

type visit struct {
	node  *task.Subtask
	depth int
}

// Walk calls fn for every node in pre-order with its depth (root level is 1).
// Returning false from fn stops the walk.
func Walk(nodes []task.Subtask, fn func(n *task.Subtask, depth int) bool) {
	stack := make([]visit, 0, len(nodes))
	for i := len(nodes) - 1; i >= 0; i-- {
		stack = append(stack, visit{&nodes[i], 1})
	}

	for len(stack) > 0 {
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if !fn(v.node, v.depth) {
			return
		}

		children := v.node.Subtasks
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, visit{&children[i], v.depth + 1})
		}
	}
}

// Find returns the first node with the given id.
func Find(nodes []task.Subtask, id uuid.UUID) (*task.Subtask, bool) {
	var found *task.Subtask
	Walk(nodes, func(n *task.Subtask, _ int) bool {
		if n.ID == id {
			found = n
			return false
		}
		return true
	})
	return found, found != nil
}

// Depth reports how deep the node sits, 1 being the root sequence.
func Depth(nodes []task.Subtask, id uuid.UUID) (int, bool) {
	depth := 0
	Walk(nodes, func(n *task.Subtask, d int) bool {
		if n.ID == id {
			depth = d
			return false
		}
		return true
	})
	return depth, depth > 0
}

// NewNode returns a fresh leaf: todo, not completed, no children.
func NewNode(title, description string, priority task.Priority, due *time.Time, now time.Time) task.Subtask {
	if priority == "" {
		priority = task.PriorityMedium
	}
	return task.Subtask{
		ID:          uuid.New(),
		Title:       title,
		Description: description,
		Status:      task.StatusTodo,
		Priority:    priority,
		DueDate:     copyTime(due),
		Subtasks:    []task.Subtask{},
		CreatedAt:   now,
	}
}

// Insert appends node to the root sequence when parentID is uuid.Nil,
// otherwise to the children of the matched parent. It reports false when
// the parent does not exist.
func Insert(nodes *[]task.Subtask, parentID uuid.UUID, node task.Subtask) bool {
	if node.ID == uuid.Nil {
		node.ID = uuid.New()
	}
	node.Status = task.StatusTodo
	node.Completed = false
	node.CompletedAt = nil
	node.Subtasks = []task.Subtask{}

	if parentID == uuid.Nil {
		*nodes = append(*nodes, node)
		return true
	}

	parent, ok := Find(*nodes, parentID)
	if !ok {
		return false
	}
	parent.Subtasks = append(parent.Subtasks, node)
	return true
}

// Update applies the fields present in patch to the matched node only.
// Status and completion move together: completing stamps CompletedAt,
// reopening clears it.
func Update(nodes []task.Subtask, id uuid.UUID, patch task.SubtaskPatch, now time.Time) bool {
	n, ok := Find(nodes, id)
	if !ok {
		return false
	}

	if patch.Title != nil {
		n.Title = *patch.Title
	}
	if patch.Description != nil {
		n.Description = *patch.Description
	}
	if patch.Priority != nil {
		n.Priority = *patch.Priority
	}
	if patch.DueDate != nil {
		n.DueDate = copyTime(patch.DueDate)
	}
	if patch.Status != nil {
		if *patch.Status == task.StatusCompleted {
			setCompleted(n, true, now)
		} else {
			n.Status = *patch.Status
			if n.Completed {
				n.Completed = false
				n.CompletedAt = nil
			}
		}
	}
	if patch.Completed != nil {
		setCompleted(n, *patch.Completed, now)
	}
	return true
}

func setCompleted(n *task.Subtask, done bool, now time.Time) {
	switch {
	case done && !n.Completed:
		at := now
		n.Completed = true
		n.CompletedAt = &at
		n.Status = task.StatusCompleted
	case done:
		n.Status = task.StatusCompleted
	case n.Completed:
		n.Completed = false
		n.CompletedAt = nil
		if n.Status == task.StatusCompleted {
			n.Status = task.StatusTodo
		}
	}
}

type slot struct {
	list *[]task.Subtask
	idx  int
}

// Remove deletes the matched node together with its subtree.
func Remove(nodes *[]task.Subtask, id uuid.UUID) bool {
	stack := make([]slot, 0, len(*nodes))
	for i := len(*nodes) - 1; i >= 0; i-- {
		stack = append(stack, slot{nodes, i})
	}

	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		n := &(*s.list)[s.idx]
		if n.ID == id {
			*s.list = slices.Delete(*s.list, s.idx, s.idx+1)
			return true
		}
		for i := len(n.Subtasks) - 1; i >= 0; i-- {
			stack = append(stack, slot{&n.Subtasks, i})
		}
	}
	return false
}

// Clone deep-copies the tree with fresh ids. Content and completion state
// are kept, comments and attachments are not.
func Clone(nodes []task.Subtask, now time.Time) []task.Subtask {
	type pair struct {
		src []task.Subtask
		dst []task.Subtask
	}

	out := make([]task.Subtask, len(nodes))
	stack := []pair{{nodes, out}}

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for i := range p.src {
			src := p.src[i]
			dst := src
			dst.ID = uuid.New()
			dst.CreatedAt = now
			dst.DueDate = copyTime(src.DueDate)
			dst.CompletedAt = copyTime(src.CompletedAt)
			dst.Comments = nil
			dst.Attachments = nil
			dst.Subtasks = make([]task.Subtask, len(src.Subtasks))
			p.dst[i] = dst

			if len(src.Subtasks) > 0 {
				stack = append(stack, pair{src.Subtasks, dst.Subtasks})
			}
		}
	}
	return out
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
