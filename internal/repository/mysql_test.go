package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"task-service/internal/entity"
)

var taskColumns = []string{"id", "task", "task_id", "stage", "user_id"}

func newMockMySQL(t *testing.T) (*MySQLRepository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})

	return NewMySQLRepository(db), mock
}

func TestMySQLCreateUser(t *testing.T) {
	repo, mock := newMockMySQL(t)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO users (username, password) VALUES (?, ?)`)).
		WithArgs("alice", "hash").
		WillReturnResult(sqlmock.NewResult(7, 1))

	user, err := repo.CreateUser(context.Background(), &entity.User{Username: "alice", Password: "hash"})
	require.NoError(t, err)
	assert.Equal(t, "7", user.ID)
}

func TestMySQLGetUserByUsername(t *testing.T) {
	repo, mock := newMockMySQL(t)
	query := regexp.QuoteMeta(`SELECT id, username, password FROM users WHERE username = ? ORDER BY id LIMIT 1`)

	mock.ExpectQuery(query).
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "password"}).AddRow(3, "alice", "hash"))

	user, err := repo.GetUserByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, &entity.User{ID: "3", Username: "alice", Password: "hash"}, user)

	mock.ExpectQuery(query).WithArgs("ghost").WillReturnError(sql.ErrNoRows)

	_, err = repo.GetUserByUsername(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMySQLGetTasks(t *testing.T) {
	repo, mock := newMockMySQL(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, task, task_id, stage, user_id FROM tasks ORDER BY id`)).
		WillReturnRows(sqlmock.NewRows(taskColumns).
			AddRow(1, "buy milk", "t1", "todo", nil).
			AddRow(2, "walk dog", "t2", "done", "5"))

	tasks, err := repo.GetTasks(context.Background())
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, &entity.Task{ID: "1", Task: "buy milk", TaskID: "t1", Stage: "todo"}, tasks[0])
	assert.Equal(t, "5", tasks[1].OwnerID)
}

func TestMySQLGetTasksEmpty(t *testing.T) {
	repo, mock := newMockMySQL(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, task, task_id, stage, user_id FROM tasks ORDER BY id`)).
		WillReturnRows(sqlmock.NewRows(taskColumns))

	tasks, err := repo.GetTasks(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, tasks)
	assert.Empty(t, tasks)
}

func TestMySQLCreateTaskWithoutOwner(t *testing.T) {
	repo, mock := newMockMySQL(t)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO tasks (task, task_id, stage, user_id) VALUES (?, ?, ?, ?)`)).
		WithArgs("buy milk", "t1", "todo", nil).
		WillReturnResult(sqlmock.NewResult(9, 1))

	task, err := repo.CreateTask(context.Background(), &entity.Task{Task: "buy milk", TaskID: "t1", Stage: "todo"})
	require.NoError(t, err)
	assert.Equal(t, "9", task.ID)
}

func TestMySQLUpdateTask(t *testing.T) {
	repo, mock := newMockMySQL(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE tasks SET stage = ? WHERE id = ?`)).
		WithArgs("done", int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, task, task_id, stage, user_id FROM tasks WHERE id = ?`)).
		WithArgs(int64(4)).
		WillReturnRows(sqlmock.NewRows(taskColumns).AddRow(4, "buy milk", "t1", "done", nil))
	mock.ExpectCommit()

	stage := "done"
	task, err := repo.UpdateTask(context.Background(), "4", entity.TaskUpdate{Stage: &stage})
	require.NoError(t, err)
	require.NotNil(t, task)
	assert.Equal(t, "done", task.Stage)
}

func TestMySQLUpdateTaskTextOnly(t *testing.T) {
	repo, mock := newMockMySQL(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, task, task_id, stage, user_id FROM tasks WHERE id = ?`)).
		WithArgs(int64(4)).
		WillReturnRows(sqlmock.NewRows(taskColumns).AddRow(4, "buy milk", "t1", "todo", nil))
	mock.ExpectCommit()

	text := "buy bread"
	task, err := repo.UpdateTask(context.Background(), "4", entity.TaskUpdate{Text: &text})
	require.NoError(t, err)
	require.NotNil(t, task)
	assert.Equal(t, "buy milk", task.Task)
}

func TestMySQLUpdateTaskNotFound(t *testing.T) {
	repo, mock := newMockMySQL(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE tasks SET stage = ? WHERE id = ?`)).
		WithArgs("done", int64(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, task, task_id, stage, user_id FROM tasks WHERE id = ?`)).
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows(taskColumns))
	mock.ExpectCommit()

	stage := "done"
	task, err := repo.UpdateTask(context.Background(), "99", entity.TaskUpdate{Stage: &stage})
	require.NoError(t, err)
	assert.Nil(t, task)
}

func TestMySQLUpdateTaskRollsBack(t *testing.T) {
	repo, mock := newMockMySQL(t)
	execErr := errors.New("deadlock")

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE tasks SET stage = ? WHERE id = ?`)).
		WithArgs("done", int64(4)).
		WillReturnError(execErr)
	mock.ExpectRollback()

	stage := "done"
	_, err := repo.UpdateTask(context.Background(), "4", entity.TaskUpdate{Stage: &stage})
	assert.ErrorIs(t, err, execErr)
}

func TestMySQLInvalidID(t *testing.T) {
	repo, _ := newMockMySQL(t)

	_, err := repo.UpdateTask(context.Background(), "abc", entity.TaskUpdate{})
	assert.ErrorIs(t, err, ErrInvalidID)

	err = repo.DeleteTask(context.Background(), "abc")
	assert.ErrorIs(t, err, ErrInvalidID)
}

func TestMySQLDeleteTask(t *testing.T) {
	repo, mock := newMockMySQL(t)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM tasks WHERE id = ?`)).
		WithArgs(int64(12)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, repo.DeleteTask(context.Background(), "12"))
}
