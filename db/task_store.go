package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"task_app_backend/models"
)

var ErrNotFound = errors.New("task not found")

const taskColumns = "id, description, is_reminder_set, is_task_open, created_on, priority"

// TaskStore is the SQL-backed task collection. Lists are ordered by id.
type TaskStore struct {
	db     *sql.DB
	driver string
}

func NewTaskStore(db *sql.DB, driver string) *TaskStore {
	return &TaskStore{db: db, driver: driver}
}

func (s *TaskStore) q(query string) string {
	return rebind(s.driver, query)
}

func (s *TaskStore) FindAll(ctx context.Context) ([]models.Task, error) {
	return s.query(ctx, "SELECT "+taskColumns+" FROM tasks ORDER BY id")
}

// QueryOpen returns every task whose open flag is set.
func (s *TaskStore) QueryOpen(ctx context.Context) ([]models.Task, error) {
	return s.query(ctx, "SELECT "+taskColumns+" FROM tasks WHERE is_task_open = ? ORDER BY id", true)
}

// QueryClosed returns every task whose open flag is cleared.
func (s *TaskStore) QueryClosed(ctx context.Context) ([]models.Task, error) {
	return s.query(ctx, "SELECT "+taskColumns+" FROM tasks WHERE is_task_open = ? ORDER BY id", false)
}

func (s *TaskStore) FindByID(ctx context.Context, id int64) (models.Task, error) {
	row := s.db.QueryRowContext(ctx, s.q("SELECT "+taskColumns+" FROM tasks WHERE id = ?"), id)
	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Task{}, fmt.Errorf("find task %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return models.Task{}, fmt.Errorf("find task %d: %w", id, err)
	}
	return task, nil
}

func (s *TaskStore) ExistsByID(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, s.q("SELECT EXISTS(SELECT 1 FROM tasks WHERE id = ?)"), id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check task %d: %w", id, err)
	}
	return exists, nil
}

// DescriptionExists reports whether any task has exactly this description.
func (s *TaskStore) DescriptionExists(ctx context.Context, description string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, s.q("SELECT EXISTS(SELECT 1 FROM tasks WHERE description = ?)"), description).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check description: %w", err)
	}
	return exists, nil
}

// Save inserts a task with a zero ID and returns it with the generated ID.
// A task with an ID replaces the stored row; ErrNotFound if there is none.
func (s *TaskStore) Save(ctx context.Context, task models.Task) (models.Task, error) {
	if task.ID == 0 {
		// Anonymous fixed zones do not survive a sqlite round trip.
		task.CreatedOn = task.CreatedOn.In(time.Local).Round(0)
		err := s.db.QueryRowContext(ctx, s.q(`
            INSERT INTO tasks (description, is_reminder_set, is_task_open, created_on, priority)
            VALUES (?, ?, ?, ?, ?)
            RETURNING id`),
			task.Description, task.IsReminderSet, task.IsTaskOpen, task.CreatedOn, string(task.Priority),
		).Scan(&task.ID)
		if err != nil {
			return models.Task{}, fmt.Errorf("insert task: %w", err)
		}
		return task, nil
	}

	res, err := s.db.ExecContext(ctx, s.q(`
        UPDATE tasks
        SET description = ?, is_reminder_set = ?, is_task_open = ?, priority = ?
        WHERE id = ?`),
		task.Description, task.IsReminderSet, task.IsTaskOpen, string(task.Priority), task.ID)
	if err != nil {
		return models.Task{}, fmt.Errorf("update task %d: %w", task.ID, err)
	}
	if err := expectOneRow(res, task.ID); err != nil {
		return models.Task{}, err
	}
	return task, nil
}

func (s *TaskStore) DeleteByID(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, s.q("DELETE FROM tasks WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("delete task %d: %w", id, err)
	}
	return expectOneRow(res, id)
}

// Ping checks the connection for the health endpoint.
func (s *TaskStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *TaskStore) query(ctx context.Context, query string, args ...any) ([]models.Task, error) {
	rows, err := s.db.QueryContext(ctx, s.q(query), args...)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}
	return tasks, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(row scanner) (models.Task, error) {
	var t models.Task
	err := row.Scan(&t.ID, &t.Description, &t.IsReminderSet, &t.IsTaskOpen, &t.CreatedOn, &t.Priority)
	return t, err
}

func expectOneRow(res sql.Result, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected for task %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("task %d: %w", id, ErrNotFound)
	}
	return nil
}
