package repository

import (
	"context"
	"errors"

	"task-service/internal/entity"
)

// ErrNotFound is returned by lookups that match nothing.
var ErrNotFound = errors.New("record not found")

// ErrInvalidID is returned when an id cannot address a record in the
// backing store at all (for example a non-hex Mongo id).
var ErrInvalidID = errors.New("invalid id")

// UserRepository stores credentials. Usernames are not unique.
type UserRepository interface {
	CreateUser(ctx context.Context, user *entity.User) (*entity.User, error)
	// GetUserByUsername returns the first stored user with that username.
	GetUserByUsername(ctx context.Context, username string) (*entity.User, error)
}

type TaskRepository interface {
	GetTasks(ctx context.Context) ([]*entity.Task, error)
	CreateTask(ctx context.Context, task *entity.Task) (*entity.Task, error)
	// UpdateTask returns (nil, nil) when no task has that id.
	UpdateTask(ctx context.Context, id string, update entity.TaskUpdate) (*entity.Task, error)
	// DeleteTask succeeds whether or not the task exists.
	DeleteTask(ctx context.Context, id string) error
}

// Store is a backend holding both collections.
type Store interface {
	UserRepository
	TaskRepository
	Close(ctx context.Context) error
}
