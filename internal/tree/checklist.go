package tree

import "todoTracker/internal/models/task"

// Progress counts every node at every depth, and the completed ones among
// them. The owning task itself is not counted.
func Progress(nodes []task.Subtask) task.ChecklistProgress {
	var p task.ChecklistProgress
	Walk(nodes, func(n *task.Subtask, _ int) bool {
		p.Total++
		if n.Completed {
			p.Completed++
		}
		return true
	})
	return p
}
