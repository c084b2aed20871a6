package convert

import "github.com/mesh-intelligence/almanac/pkg/types"

// linkSubtasks restores the parent/subtask invariant over the task arena:
// every child whose parent is known appears exactly once in that parent's
// subtask list, and every subtask list entry that names a known task points
// back to the listing parent. index maps task id to arena position.
// References to tasks outside the arena are left alone.
func linkSubtasks(tasks []types.Task, index map[string]int) {
	for i := range tasks {
		t := &tasks[i]
		if t.ParentTaskID != nil && *t.ParentTaskID == t.ID {
			t.ParentTaskID = nil
		}
		t.SubtaskIDs = dedupe(t.SubtaskIDs, t.ID)
	}

	// Children listed by a parent but missing their parent pointer adopt
	// the first parent that lists them.
	for i := range tasks {
		for _, sub := range tasks[i].SubtaskIDs {
			j, ok := index[sub]
			if !ok || tasks[j].ParentTaskID != nil {
				continue
			}
			parent := tasks[i].ID
			tasks[j].ParentTaskID = &parent
		}
	}

	// Parent pointers are authoritative: drop list entries for children
	// that belong to another parent, then append missing children.
	for i := range tasks {
		subs := tasks[i].SubtaskIDs[:0]
		for _, sub := range tasks[i].SubtaskIDs {
			j, ok := index[sub]
			if ok && (tasks[j].ParentTaskID == nil || *tasks[j].ParentTaskID != tasks[i].ID) {
				continue
			}
			subs = append(subs, sub)
		}
		tasks[i].SubtaskIDs = subs
	}
	for i := range tasks {
		p := tasks[i].ParentTaskID
		if p == nil {
			continue
		}
		j, ok := index[*p]
		if !ok {
			continue
		}
		if !tasks[j].HasSubtask(tasks[i].ID) {
			tasks[j].SubtaskIDs = append(tasks[j].SubtaskIDs, tasks[i].ID)
		}
	}
}

// dedupe returns ids without repeats or self, preserving first occurrences.
func dedupe(ids []string, self string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id == self || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
