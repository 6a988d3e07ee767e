package repository

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"task-service/internal/entity"
)

// MemoryRepository keeps users and tasks in process memory. Nothing
// survives a restart; it backs STORE_DRIVER=memory and the tests.
type MemoryRepository struct {
	mu    sync.RWMutex
	users []entity.User
	tasks []entity.Task
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (r *MemoryRepository) CreateUser(ctx context.Context, user *entity.User) (*entity.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	user.ID = uuid.NewString()
	r.users = append(r.users, *user)
	return user, nil
}

func (r *MemoryRepository) GetUserByUsername(ctx context.Context, username string) (*entity.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if u.Username == username {
			user := u
			return &user, nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryRepository) GetTasks(ctx context.Context) ([]*entity.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	tasks := make([]*entity.Task, 0, len(r.tasks))
	for _, t := range r.tasks {
		task := t
		tasks = append(tasks, &task)
	}
	return tasks, nil
}

func (r *MemoryRepository) CreateTask(ctx context.Context, task *entity.Task) (*entity.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	task.ID = uuid.NewString()
	r.tasks = append(r.tasks, *task)
	return task, nil
}

func (r *MemoryRepository) UpdateTask(ctx context.Context, id string, update entity.TaskUpdate) (*entity.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.tasks {
		if r.tasks[i].ID != id {
			continue
		}
		if update.Stage != nil {
			r.tasks[i].Stage = *update.Stage
		}
		task := r.tasks[i]
		return &task, nil
	}
	return nil, nil
}

func (r *MemoryRepository) DeleteTask(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.tasks {
		if r.tasks[i].ID == id {
			r.tasks = append(r.tasks[:i], r.tasks[i+1:]...)
			break
		}
	}
	return nil
}

func (r *MemoryRepository) Close(ctx context.Context) error {
	return nil
}
