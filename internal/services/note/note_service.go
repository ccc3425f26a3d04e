package note

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrNotOwner = errors.New("note belongs to another user")

type NoteService struct {
	repo *NoteRepo
}

func NewNoteService(repo *NoteRepo) *NoteService {
	return &NoteService{repo: repo}
}

func (s *NoteService) Create(ctx context.Context, taskID, createdBy uuid.UUID, content string) (*Note, error) {
	return s.repo.Create(ctx, taskID, createdBy, content)
}

func (s *NoteService) ListByTask(ctx context.Context, taskID uuid.UUID) ([]*Note, error) {
	return s.repo.ListByTask(ctx, taskID)
}

// Delete removes a note; only its author may do so.
func (s *NoteService) Delete(ctx context.Context, id, actingUserID uuid.UUID) error {
	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if n.CreatedBy != actingUserID {
		return ErrNotOwner
	}

	return s.repo.Delete(ctx, id)
}
