package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/isdelr/tasktrack-be/internal/apperr"
	"github.com/isdelr/tasktrack-be/internal/database"
	"github.com/isdelr/tasktrack-be/internal/models"
)

const taskColumns = "id, user_id, title, description, completed, created_at, updated_at"

// Every statement is scoped by user_id; a task owned by someone else is
// indistinguishable from one that does not exist.
const (
	listTasksQuery         = "SELECT " + taskColumns + " FROM tasks WHERE user_id = ? ORDER BY created_at DESC, id DESC"
	listTasksByStatusQuery = "SELECT " + taskColumns + " FROM tasks WHERE user_id = ? AND completed = ? ORDER BY created_at DESC, id DESC"
	getTaskQuery           = "SELECT " + taskColumns + " FROM tasks WHERE id = ? AND user_id = ?"
	insertTaskQuery        = "INSERT INTO tasks (user_id, title, description, completed, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?) RETURNING id"
	deleteTaskQuery        = "DELETE FROM tasks WHERE id = ? AND user_id = ?"

	// updateTaskQuery applies a TaskPatch: a NULL argument keeps the column.
	updateTaskQuery = `
		UPDATE tasks
		SET title = COALESCE(?, title),
		    description = COALESCE(?, description),
		    completed = COALESCE(?, completed),
		    updated_at = ?
		WHERE id = ? AND user_id = ?`
)

// TaskServiceProvider defines the interface for task services.
type TaskServiceProvider interface {
	ListTasks(ctx context.Context, userID int64, completed *bool) ([]models.Task, error)
	CreateTask(ctx context.Context, userID int64, title, description string) (models.Task, error)
	UpdateTask(ctx context.Context, userID, taskID int64, patch models.TaskPatch) (models.Task, error)
	DeleteTask(ctx context.Context, userID, taskID int64) error
}

// TaskService provides owner-scoped access to tasks.
type TaskService struct {
	db  *database.DB
	now func() time.Time
}

// NewTaskService creates a new TaskService. A nil now uses time.Now.
func NewTaskService(db *database.DB, now func() time.Time) *TaskService {
	if now == nil {
		now = time.Now
	}
	return &TaskService{db: db, now: now}
}

// ListTasks returns the user's tasks, newest first, optionally filtered by
// completion state. The result is never nil.
func (s *TaskService) ListTasks(ctx context.Context, userID int64, completed *bool) ([]models.Task, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if completed == nil {
		rows, err = s.db.QueryContext(ctx, s.db.Rebind(listTasksQuery), userID)
	} else {
		rows, err = s.db.QueryContext(ctx, s.db.Rebind(listTasksByStatusQuery), userID, *completed)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// CreateTask inserts a new, not yet completed task.
func (s *TaskService) CreateTask(ctx context.Context, userID int64, title, description string) (models.Task, error) {
	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)

	var errs fieldErrors
	if title == "" {
		errs.add("title", "is required")
	}
	if err := errs.err(); err != nil {
		return models.Task{}, err
	}

	now := timestamp(s.now)
	var id int64
	err := s.db.QueryRowContext(ctx, s.db.Rebind(insertTaskQuery),
		userID, title, description, false, now, now,
	).Scan(&id)
	if err != nil {
		return models.Task{}, fmt.Errorf("failed to create task: %w", err)
	}

	return s.getTask(ctx, userID, id)
}

// UpdateTask applies the fields present in patch and refreshes updated_at in
// the same statement. Omitted fields are left untouched.
func (s *TaskService) UpdateTask(ctx context.Context, userID, taskID int64, patch models.TaskPatch) (models.Task, error) {
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return models.Task{}, apperr.Validation("Validation failed", apperr.FieldError{Field: "title", Message: "must not be empty"})
		}
		patch.Title = &title
	}
	if patch.Description != nil {
		description := strings.TrimSpace(*patch.Description)
		patch.Description = &description
	}

	if patch.IsEmpty() {
		// Unknown tasks are reported as missing before the patch is judged.
		if _, err := s.getTask(ctx, userID, taskID); err != nil {
			return models.Task{}, err
		}
		return models.Task{}, apperr.Validation("No fields to update")
	}

	res, err := s.db.ExecContext(ctx, s.db.Rebind(updateTaskQuery),
		nullString(patch.Title), nullString(patch.Description), nullBool(patch.Completed),
		timestamp(s.now), taskID, userID,
	)
	if err != nil {
		return models.Task{}, fmt.Errorf("failed to update task %d: %w", taskID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return models.Task{}, fmt.Errorf("failed to update task %d: %w", taskID, err)
	}
	if n == 0 {
		return models.Task{}, apperr.NotFound("Task not found")
	}

	return s.getTask(ctx, userID, taskID)
}

// DeleteTask removes a task owned by userID.
func (s *TaskService) DeleteTask(ctx context.Context, userID, taskID int64) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(deleteTaskQuery), taskID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete task %d: %w", taskID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete task %d: %w", taskID, err)
	}
	if n == 0 {
		return apperr.NotFound("Task not found")
	}
	return nil
}

func (s *TaskService) getTask(ctx context.Context, userID, taskID int64) (models.Task, error) {
	row := s.db.QueryRowContext(ctx, s.db.Rebind(getTaskQuery), taskID, userID)
	task, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Task{}, apperr.NotFound("Task not found")
		}
		return models.Task{}, err
	}
	return task, nil
}

// scanTask is a helper to scan a task from a row or rows object.
func scanTask(scanner interface{ Scan(...any) error }) (models.Task, error) {
	var task models.Task
	err := scanner.Scan(
		&task.ID,
		&task.UserID,
		&task.Title,
		&task.Description,
		&task.Completed,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Task{}, err
		}
		return models.Task{}, fmt.Errorf("failed to scan task: %w", err)
	}
	task.CreatedAt = task.CreatedAt.UTC()
	task.UpdatedAt = task.UpdatedAt.UTC()
	return task, nil
}

func nullString(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

func nullBool(p *bool) sql.NullBool {
	if p == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *p, Valid: true}
}
