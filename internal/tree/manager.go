package tree

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sandeepkv93/focusd/internal/model"
	"github.com/sandeepkv93/focusd/internal/storage"
)

// Manager owns every structural mutation of a task tree. Each mutation
// reads its snapshot, computes the fixup in memory and commits all row
// updates in one transaction, so a failure never leaves a subtree with
// partially stamped paths.
type Manager struct {
	store storage.Store
	now   func() time.Time
	newID func() string
}

func NewManager(store storage.Store) *Manager {
	return &Manager{
		store: store,
		now:   time.Now,
		newID: func() string { return uuid.New().String() },
	}
}

type CreateRequest struct {
	OwnerID  string
	ListID   string
	ParentID *string
	// AfterID picks the slot within the sibling group: nil appends,
	// empty string claims the first slot, anything else lands right
	// after that sibling.
	AfterID *string
	Content string
	Labels  []string
}

func (m *Manager) Create(ctx context.Context, req CreateRequest) (model.Task, error) {
	var created model.Task
	err := m.store.WithTx(ctx, func(s storage.Store) error {
		if _, err := s.GetList(ctx, req.OwnerID, req.ListID); err != nil {
			return err
		}
		level := 0
		prefix := ""
		if req.ParentID != nil {
			parent, err := s.GetTask(ctx, req.OwnerID, *req.ParentID)
			if err != nil {
				return err
			}
			if parent.ListID != req.ListID {
				return fmt.Errorf("%w: parent %q", ErrCrossList, parent.ID)
			}
			level = parent.Level + 1
			prefix = parent.Path + model.PathSeparator
		}

		siblings, err := s.ListChildren(ctx, req.OwnerID, req.ListID, req.ParentID)
		if err != nil {
			return err
		}
		position, shifted, err := slotFor(siblings, req.AfterID)
		if err != nil {
			return err
		}

		id := m.newID()
		task := model.Task{
			ID:        id,
			ListID:    req.ListID,
			ParentID:  req.ParentID,
			Content:   strings.TrimSpace(req.Content),
			Labels:    model.NormalizeLabels(req.Labels),
			Level:     level,
			Path:      prefix + id,
			Position:  position,
			CreatedAt: m.now().UTC(),
		}
		if err := task.Validate(); err != nil {
			return err
		}

		for _, sib := range shifted {
			if err := s.UpdateTask(ctx, sib); err != nil {
				return err
			}
		}
		if err := s.CreateTask(ctx, task); err != nil {
			return err
		}
		created = task
		return nil
	})
	if err != nil {
		return model.Task{}, err
	}
	return created, nil
}

// Move reparents a task, or makes it a root when newParentID is nil. The
// task lands at the end of its new sibling group; its old group closes
// the gap. Every descendant's path and level are rewritten in the same
// transaction.
func (m *Manager) Move(ctx context.Context, ownerID, taskID string, newParentID *string) (model.Task, error) {
	var moved model.Task
	err := m.store.WithTx(ctx, func(s storage.Store) error {
		task, err := s.GetTask(ctx, ownerID, taskID)
		if err != nil {
			return err
		}

		newPath := task.ID
		newLevel := 0
		if newParentID != nil {
			parent, err := s.GetTask(ctx, ownerID, *newParentID)
			if err != nil {
				return err
			}
			if parent.ListID != task.ListID {
				return fmt.Errorf("%w: parent %q", ErrCrossList, parent.ID)
			}
			if WouldCycle(task.ID, parent) {
				return fmt.Errorf("%w: task %q into %q", ErrCycle, task.ID, parent.ID)
			}
			newPath = parent.Path + model.PathSeparator + task.ID
			newLevel = parent.Level + 1
		}

		if sameParent(task.ParentID, newParentID) {
			moved = task
			return nil
		}
		oldParentID := task.ParentID

		subtree, err := s.ListSubtree(ctx, ownerID, task.Path)
		if err != nil {
			return err
		}
		rebased := Rebase(subtree, newPath, newLevel-task.Level)

		newSiblings, err := s.ListChildren(ctx, ownerID, task.ListID, newParentID)
		if err != nil {
			return err
		}
		maxPos := -1
		for _, sib := range newSiblings {
			if sib.Position > maxPos {
				maxPos = sib.Position
			}
		}

		for i := range rebased {
			if rebased[i].ID == task.ID {
				rebased[i].ParentID = newParentID
				rebased[i].Position = maxPos + 1
				moved = rebased[i]
			}
			if err := s.UpdateTask(ctx, rebased[i]); err != nil {
				return err
			}
		}

		oldSiblings, err := s.ListChildren(ctx, ownerID, task.ListID, oldParentID)
		if err != nil {
			return err
		}
		for _, sib := range Renumber(oldSiblings) {
			if err := s.UpdateTask(ctx, sib); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return model.Task{}, err
	}
	return moved, nil
}

// Reorder assigns each listed task the order index matching its place in
// the sequence. Ids that do not resolve to the caller's tasks in this
// list are skipped; tasks omitted from the sequence keep their index.
func (m *Manager) Reorder(ctx context.Context, ownerID, listID string, orderedIDs []string) error {
	return m.store.WithTx(ctx, func(s storage.Store) error {
		if _, err := s.GetList(ctx, ownerID, listID); err != nil {
			return err
		}
		for i, id := range orderedIDs {
			task, err := s.GetTask(ctx, ownerID, id)
			if errors.Is(err, storage.ErrNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			if task.ListID != listID || task.Position == i {
				continue
			}
			task.Position = i
			if err := s.UpdateTask(ctx, task); err != nil {
				return err
			}
		}
		return nil
	})
}

// Delete removes a task and its whole subtree, then closes the gap in
// the surviving sibling group.
func (m *Manager) Delete(ctx context.Context, ownerID, taskID string) error {
	return m.store.WithTx(ctx, func(s storage.Store) error {
		task, err := s.GetTask(ctx, ownerID, taskID)
		if err != nil {
			return err
		}
		if err := s.DeleteTask(ctx, ownerID, taskID); err != nil {
			return err
		}
		siblings, err := s.ListChildren(ctx, ownerID, task.ListID, task.ParentID)
		if err != nil {
			return err
		}
		for _, sib := range Renumber(siblings) {
			if err := s.UpdateTask(ctx, sib); err != nil {
				return err
			}
		}
		return nil
	})
}

// Hierarchy returns the list's tasks depth-first: roots by order index,
// each immediately followed by its full subtree.
func (m *Manager) Hierarchy(ctx context.Context, ownerID, listID string) ([]model.Task, error) {
	if _, err := m.store.GetList(ctx, ownerID, listID); err != nil {
		return nil, err
	}
	tasks, err := m.store.ListTasks(ctx, ownerID, listID)
	if err != nil {
		return nil, err
	}
	return Flatten(tasks), nil
}

func (m *Manager) SetDone(ctx context.Context, ownerID, taskID string, done bool) (model.Task, error) {
	return m.patchTask(ctx, ownerID, taskID, func(t *model.Task) { t.Done = done })
}

func (m *Manager) SetLabels(ctx context.Context, ownerID, taskID string, labels []string) (model.Task, error) {
	return m.patchTask(ctx, ownerID, taskID, func(t *model.Task) { t.Labels = model.NormalizeLabels(labels) })
}

func (m *Manager) Rename(ctx context.Context, ownerID, taskID, content string) (model.Task, error) {
	return m.patchTask(ctx, ownerID, taskID, func(t *model.Task) { t.Content = strings.TrimSpace(content) })
}

func (m *Manager) patchTask(ctx context.Context, ownerID, taskID string, mutate func(*model.Task)) (model.Task, error) {
	task, err := m.store.GetTask(ctx, ownerID, taskID)
	if err != nil {
		return model.Task{}, err
	}
	mutate(&task)
	if err := task.Validate(); err != nil {
		return model.Task{}, err
	}
	if err := m.store.UpdateTask(ctx, task); err != nil {
		return model.Task{}, err
	}
	return task, nil
}

func sameParent(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
