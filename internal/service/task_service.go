package service

import (
	"context"

	"task-service/internal/entity"
	"task-service/internal/repository"
)

// Identity is what the token gate knows about the caller.
type Identity struct {
	UserID   string
	Username string
}

// TaskService is a service that provides task-related operations. It only
// requires an authenticated caller; no operation checks task ownership.
type TaskService struct {
	taskRepo repository.TaskRepository
	events   EventPublisher
}

// NewTaskService creates a new instance of TaskService
func NewTaskService(taskRepo repository.TaskRepository, events EventPublisher) *TaskService {
	if events == nil {
		events = NopPublisher{}
	}
	return &TaskService{
		taskRepo: taskRepo,
		events:   events,
	}
}

// ListTasks returns every stored task regardless of owner.
func (s *TaskService) ListTasks(ctx context.Context) ([]*entity.Task, error) {
	tasks, err := s.taskRepo.GetTasks(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Error getting tasks")
		return nil, err
	}

	return tasks, nil
}

// CreateTask stores a task owned by the caller.
//
// Known defect: tokens carry only a username, so owner.UserID is empty and
// the task is stored without an owner.
func (s *TaskService) CreateTask(ctx context.Context, owner Identity, input entity.NewTask) (*entity.Task, error) {
	task := &entity.Task{
		Task:    input.Task,
		TaskID:  input.TaskID,
		Stage:   input.Stage,
		OwnerID: owner.UserID,
	}

	createdTask, err := s.taskRepo.CreateTask(ctx, task)
	if err != nil {
		logger.Error().Err(err).Msg("Error creating task")
		return nil, err
	}

	s.publish(ctx, TaskEvent{Type: EventCreated, TaskID: createdTask.ID, Task: createdTask})
	return createdTask, nil
}

// UpdateTask applies update to the task with the given id. It returns
// (nil, nil) when there is no such task.
func (s *TaskService) UpdateTask(ctx context.Context, id string, update entity.TaskUpdate) (*entity.Task, error) {
	updatedTask, err := s.taskRepo.UpdateTask(ctx, id, update)
	if err != nil {
		logger.Error().Err(err).Msgf("Error updating task %s", id)
		return nil, err
	}

	if updatedTask != nil {
		s.publish(ctx, TaskEvent{Type: EventUpdated, TaskID: updatedTask.ID, Task: updatedTask})
	}
	return updatedTask, nil
}

// DeleteTask removes the task with the given id, if any.
func (s *TaskService) DeleteTask(ctx context.Context, id string) error {
	if err := s.taskRepo.DeleteTask(ctx, id); err != nil {
		logger.Error().Err(err).Msgf("Error deleting task %s", id)
		return err
	}

	s.publish(ctx, TaskEvent{Type: EventDeleted, TaskID: id})
	return nil
}

func (s *TaskService) publish(ctx context.Context, event TaskEvent) {
	if err := s.events.Publish(ctx, event); err != nil {
		logger.Warn().Err(err).Msgf("Error publishing task-%s event for task %s", event.Type, event.TaskID)
	}
}
