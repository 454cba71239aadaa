package tree

import (
	"errors"
	"fmt"
	"slices"
	"sort"

	"github.com/sandeepkv93/focusd/internal/model"
	"github.com/sandeepkv93/focusd/internal/storage"
)

var (
	ErrCycle     = errors.New("tree: move would create a cycle")
	ErrCrossList = errors.New("tree: parent belongs to a different list")
)

// WouldCycle reports whether making newParent the parent of taskID would
// make the task its own ancestor. The parent's path carries its full
// ancestor chain, so membership of the task's id token is sufficient.
func WouldCycle(taskID string, newParent model.Task) bool {
	return slices.Contains(newParent.PathTokens(), taskID)
}

// Rebase rewrites path and level for a subtree snapshot being re-anchored
// at newPath. The snapshot must hold the subtree root first; every other
// entry's path must extend the root's.
func Rebase(subtree []model.Task, newPath string, levelDelta int) []model.Task {
	if len(subtree) == 0 {
		return nil
	}
	oldPath := subtree[0].Path
	out := make([]model.Task, len(subtree))
	for i, task := range subtree {
		task.Path = newPath + task.Path[len(oldPath):]
		task.Level += levelDelta
		out[i] = task
	}
	return out
}

// Renumber returns the members of one sibling group whose order index
// must change for the group to be dense in the given order.
func Renumber(siblings []model.Task) []model.Task {
	changed := make([]model.Task, 0)
	for i, task := range siblings {
		if task.Position != i {
			task.Position = i
			changed = append(changed, task)
		}
	}
	return changed
}

// Flatten orders tasks depth-first: every parent immediately precedes its
// subtree, siblings ascend by order index.
func Flatten(tasks []model.Task) []model.Task {
	children := make(map[string][]model.Task)
	for _, task := range tasks {
		key := ""
		if task.ParentID != nil {
			key = *task.ParentID
		}
		children[key] = append(children[key], task)
	}
	for key := range children {
		group := children[key]
		sort.SliceStable(group, func(i, j int) bool { return group[i].Position < group[j].Position })
	}

	out := make([]model.Task, 0, len(tasks))
	var walk func(parentKey string)
	walk = func(parentKey string) {
		for _, task := range children[parentKey] {
			out = append(out, task)
			walk(task.ID)
		}
	}
	walk("")
	return out
}

// slotFor picks the order index for a new sibling and returns the
// existing siblings whose index shifts up to open the slot. A nil afterID
// appends, an empty one claims the first slot, anything else lands right
// after the named sibling.
func slotFor(siblings []model.Task, afterID *string) (int, []model.Task, error) {
	if afterID == nil {
		max := -1
		for _, sib := range siblings {
			if sib.Position > max {
				max = sib.Position
			}
		}
		return max + 1, nil, nil
	}

	slot := 0
	if *afterID != "" {
		found := false
		for _, sib := range siblings {
			if sib.ID == *afterID {
				slot = sib.Position + 1
				found = true
				break
			}
		}
		if !found {
			return 0, nil, fmt.Errorf("%w: sibling %q", storage.ErrNotFound, *afterID)
		}
	}

	shifted := make([]model.Task, 0)
	for _, sib := range siblings {
		if sib.Position >= slot {
			sib.Position++
			shifted = append(shifted, sib)
		}
	}
	return slot, shifted, nil
}
