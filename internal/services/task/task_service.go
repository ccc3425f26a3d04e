package task

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/uptask/uptask-server/internal/services/note"
)

var ErrInvalidStatus = errors.New("invalid task status")

// TaskService contains business logic for tasks. Writes that touch both
// the task and its parent project run in a single transaction rather than
// as independent best-effort writes.
type TaskService struct {
	db    *sqlx.DB
	repo  *TaskRepo
	notes *note.NoteRepo
}

func NewTaskService(db *sqlx.DB, repo *TaskRepo, notes *note.NoteRepo) *TaskService {
	return &TaskService{db: db, repo: repo, notes: notes}
}

// Create inserts the task and links it to the parent project atomically.
func (s *TaskService) Create(ctx context.Context, projectID uuid.UUID, req *UpsertTaskRequest) (*Task, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	t, err := s.repo.CreateTx(tx, projectID, req)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := s.repo.TouchProjectTx(tx, projectID); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit task creation: %w", err)
	}

	return t, nil
}

func (s *TaskService) GetByID(ctx context.Context, id uuid.UUID) (*Task, error) {
	return s.repo.GetByID(ctx, id)
}

// GetDetail loads a task with its status history and notes.
func (s *TaskService) GetDetail(ctx context.Context, t *Task) (*Detail, error) {
	history, err := s.repo.History(ctx, t.ID)
	if err != nil {
		return nil, err
	}

	notes, err := s.notes.ListByTask(ctx, t.ID)
	if err != nil {
		return nil, err
	}

	return &Detail{Task: *t, CompletedBy: history, Notes: notes}, nil
}

func (s *TaskService) ListByProject(ctx context.Context, projectID uuid.UUID) ([]*Task, error) {
	return s.repo.ListByProject(ctx, projectID)
}

func (s *TaskService) Update(ctx context.Context, id uuid.UUID, req *UpsertTaskRequest) error {
	return s.repo.Update(ctx, id, req)
}

// Delete removes the task and unlinks it from the parent project
// atomically. Dependent notes go with the task.
func (s *TaskService) Delete(ctx context.Context, t *Task) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := s.repo.DeleteTx(tx, t.ID); err != nil {
		tx.Rollback()
		return err
	}

	if err := s.repo.TouchProjectTx(tx, t.ProjectID); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit task deletion: %w", err)
	}

	return nil
}

// UpdateStatus replaces the task's status and appends a history record,
// both in one transaction. History is append-only.
func (s *TaskService) UpdateStatus(ctx context.Context, taskID, userID uuid.UUID, status Status) error {
	if !ValidStatus(status) {
		return ErrInvalidStatus
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := s.repo.UpdateStatusTx(tx, taskID, status); err != nil {
		tx.Rollback()
		return err
	}

	if err := s.repo.AppendHistoryTx(tx, taskID, userID, status); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit status update: %w", err)
	}

	return nil
}
