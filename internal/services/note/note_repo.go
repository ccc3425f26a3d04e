package note

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var ErrNoteNotFound = errors.New("note not found")

type NoteRepo struct {
	db *sqlx.DB
}

func NewNoteRepo(db *sqlx.DB) *NoteRepo {
	return &NoteRepo{db: db}
}

func (r *NoteRepo) Create(ctx context.Context, taskID, createdBy uuid.UUID, content string) (*Note, error) {
	query := `
        INSERT INTO notes (content, created_by, task_id)
        VALUES ($1, $2, $3)
        RETURNING id, content, created_by, task_id, created_at
    `

	var n Note
	err := r.db.GetContext(ctx, &n, query, content, createdBy, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to create note: %w", err)
	}

	return &n, nil
}

func (r *NoteRepo) GetByID(ctx context.Context, id uuid.UUID) (*Note, error) {
	query := `
        SELECT id, content, created_by, task_id, created_at
        FROM notes
        WHERE id = $1
    `

	var n Note
	err := r.db.GetContext(ctx, &n, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNoteNotFound
		}
		return nil, fmt.Errorf("failed to get note: %w", err)
	}

	return &n, nil
}

func (r *NoteRepo) ListByTask(ctx context.Context, taskID uuid.UUID) ([]*Note, error) {
	query := `
        SELECT id, content, created_by, task_id, created_at
        FROM notes
        WHERE task_id = $1
        ORDER BY created_at
    `

	notes := []*Note{}
	err := r.db.SelectContext(ctx, &notes, query, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}

	return notes, nil
}

func (r *NoteRepo) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM notes WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete note: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNoteNotFound
	}

	return nil
}
