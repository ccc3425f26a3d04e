package task

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var ErrTaskNotFound = errors.New("task not found")

// TaskRepo handles database operations for tasks and their status history
type TaskRepo struct {
	db *sqlx.DB
}

func NewTaskRepo(db *sqlx.DB) *TaskRepo {
	return &TaskRepo{db: db}
}

func (r *TaskRepo) CreateTx(tx *sqlx.Tx, projectID uuid.UUID, req *UpsertTaskRequest) (*Task, error) {
	query := `
        INSERT INTO tasks (name, description, project_id)
        VALUES ($1, $2, $3)
        RETURNING id, name, description, status, project_id, created_at, updated_at
    `

	var t Task
	err := tx.Get(&t, query, req.Name, req.Description, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	return &t, nil
}

func (r *TaskRepo) GetByID(ctx context.Context, id uuid.UUID) (*Task, error) {
	query := `
        SELECT id, name, description, status, project_id, created_at, updated_at
        FROM tasks
        WHERE id = $1
    `

	var t Task
	err := r.db.GetContext(ctx, &t, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	return &t, nil
}

// ListByProject returns the project's tasks oldest first, matching the
// insertion order of the original task list.
func (r *TaskRepo) ListByProject(ctx context.Context, projectID uuid.UUID) ([]*Task, error) {
	query := `
        SELECT id, name, description, status, project_id, created_at, updated_at
        FROM tasks
        WHERE project_id = $1
        ORDER BY created_at
    `

	tasks := []*Task{}
	err := r.db.SelectContext(ctx, &tasks, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	return tasks, nil
}

func (r *TaskRepo) Update(ctx context.Context, id uuid.UUID, req *UpsertTaskRequest) error {
	query := `
        UPDATE tasks
        SET name = $1, description = $2, updated_at = NOW()
        WHERE id = $3
    `

	result, err := r.db.ExecContext(ctx, query, req.Name, req.Description, id)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrTaskNotFound
	}

	return nil
}

func (r *TaskRepo) DeleteTx(tx *sqlx.Tx, id uuid.UUID) error {
	query := `DELETE FROM tasks WHERE id = $1`

	result, err := tx.Exec(query, id)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrTaskNotFound
	}

	return nil
}

func (r *TaskRepo) UpdateStatusTx(tx *sqlx.Tx, id uuid.UUID, status Status) error {
	query := `UPDATE tasks SET status = $1, updated_at = NOW() WHERE id = $2`

	if _, err := tx.Exec(query, status, id); err != nil {
		return fmt.Errorf("failed to update status: %w", err)
	}

	return nil
}

func (r *TaskRepo) AppendHistoryTx(tx *sqlx.Tx, taskID, userID uuid.UUID, status Status) error {
	query := `INSERT INTO task_status_history (task_id, user_id, status) VALUES ($1, $2, $3)`

	if _, err := tx.Exec(query, taskID, userID, status); err != nil {
		return fmt.Errorf("failed to append status history: %w", err)
	}

	return nil
}

// History returns status changes in the order they were recorded.
func (r *TaskRepo) History(ctx context.Context, taskID uuid.UUID) ([]*StatusChange, error) {
	query := `
        SELECT id, task_id, user_id, status, changed_at
        FROM task_status_history
        WHERE task_id = $1
        ORDER BY id
    `

	history := []*StatusChange{}
	err := r.db.SelectContext(ctx, &history, query, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to get status history: %w", err)
	}

	return history, nil
}

// TouchProjectTx bumps the parent project's updated_at inside the same
// transaction as a task write, keeping the pair atomic.
func (r *TaskRepo) TouchProjectTx(tx *sqlx.Tx, projectID uuid.UUID) error {
	query := `UPDATE projects SET updated_at = NOW() WHERE id = $1`

	if _, err := tx.Exec(query, projectID); err != nil {
		return fmt.Errorf("failed to touch project: %w", err)
	}

	return nil
}
