package storage

import (
	"context"
	"errors"

	"github.com/sandeepkv93/focusd/internal/model"
)

var (
	ErrNotFound = errors.New("storage: not found")
	ErrConflict = errors.New("storage: already exists")
)

// Store is the persistence surface for lists and tasks. Every read and
// write is scoped to an owner; rows belonging to other owners behave as
// if they do not exist.
type Store interface {
	CreateList(ctx context.Context, in model.List) error
	GetList(ctx context.Context, ownerID, id string) (model.List, error)
	GetActiveList(ctx context.Context, ownerID string) (model.List, error)
	ListLists(ctx context.Context, ownerID string) ([]model.List, error)
	UpdateList(ctx context.Context, in model.List) error
	ActivateList(ctx context.Context, ownerID, id string) error
	DeleteList(ctx context.Context, ownerID, id string) error

	CreateTask(ctx context.Context, in model.Task) error
	GetTask(ctx context.Context, ownerID, id string) (model.Task, error)
	UpdateTask(ctx context.Context, in model.Task) error
	DeleteTask(ctx context.Context, ownerID, id string) error
	ListTasks(ctx context.Context, ownerID, listID string) ([]model.Task, error)
	ListChildren(ctx context.Context, ownerID, listID string, parentID *string) ([]model.Task, error)
	ListSubtree(ctx context.Context, ownerID, rootPath string) ([]model.Task, error)

	// WithTx runs fn against a Store whose operations share one
	// transaction. fn returning an error rolls everything back.
	WithTx(ctx context.Context, fn func(Store) error) error
}
