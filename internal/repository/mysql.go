package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"task-service/internal/entity"
)

type MySQLRepository struct {
	db *sql.DB
}

func NewMySQLRepository(db *sql.DB) *MySQLRepository {
	return &MySQLRepository{db}
}

func (r *MySQLRepository) CreateUser(ctx context.Context, user *entity.User) (*entity.User, error) {
	query := `INSERT INTO users (username, password) VALUES (?, ?)`
	res, err := r.db.ExecContext(ctx, query, user.Username, user.Password)
	if err != nil {
		return nil, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	user.ID = strconv.FormatInt(id, 10)
	return user, nil
}

func (r *MySQLRepository) GetUserByUsername(ctx context.Context, username string) (*entity.User, error) {
	var (
		user entity.User
		id   int64
	)
	query := `SELECT id, username, password FROM users WHERE username = ? ORDER BY id LIMIT 1`
	err := r.db.QueryRowContext(ctx, query, username).Scan(&id, &user.Username, &user.Password)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	user.ID = strconv.FormatInt(id, 10)
	return &user, nil
}

func (r *MySQLRepository) GetTasks(ctx context.Context) ([]*entity.Task, error) {
	tasks := []*entity.Task{}

	query := `SELECT id, task, task_id, stage, user_id FROM tasks ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}

	return tasks, rows.Err()
}

func (r *MySQLRepository) CreateTask(ctx context.Context, task *entity.Task) (*entity.Task, error) {
	query := `INSERT INTO tasks (task, task_id, stage, user_id) VALUES (?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, query, task.Task, task.TaskID, task.Stage, nullString(task.OwnerID))
	if err != nil {
		return nil, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	task.ID = strconv.FormatInt(id, 10)
	return task, nil
}

func (r *MySQLRepository) UpdateTask(ctx context.Context, id string, update entity.TaskUpdate) (*entity.Task, error) {
	taskID, err := parseMySQLID(id)
	if err != nil {
		return nil, err
	}

	// Start a transaction
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}

	if update.Stage != nil {
		updateQuery := `UPDATE tasks SET stage = ? WHERE id = ?`
		_, err = tx.ExecContext(ctx, updateQuery, *update.Stage, taskID)
		if err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	selectQuery := `SELECT id, task, task_id, stage, user_id FROM tasks WHERE id = ?`
	task, err := scanTask(tx.QueryRowContext(ctx, selectQuery, taskID))
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		tx.Rollback()
		return nil, err
	}

	// Commit the transaction
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	// A missing row is not an error for callers.
	return task, nil
}

func (r *MySQLRepository) DeleteTask(ctx context.Context, id string) error {
	taskID, err := parseMySQLID(id)
	if err != nil {
		return err
	}

	query := `DELETE FROM tasks WHERE id = ?`
	_, err = r.db.ExecContext(ctx, query, taskID)
	return err
}

func (r *MySQLRepository) Close(ctx context.Context) error {
	return r.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*entity.Task, error) {
	var (
		task  entity.Task
		id    int64
		owner sql.NullString
	)
	if err := row.Scan(&id, &task.Task, &task.TaskID, &task.Stage, &owner); err != nil {
		return nil, err
	}
	task.ID = strconv.FormatInt(id, 10)
	task.OwnerID = owner.String
	return &task, nil
}

func parseMySQLID(id string) (int64, error) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return n, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
