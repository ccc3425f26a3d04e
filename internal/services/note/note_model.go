package note

import (
	"time"

	"github.com/google/uuid"
)

type Note struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Content   string    `db:"content" json:"content"`
	CreatedBy uuid.UUID `db:"created_by" json:"createdBy"`
	TaskID    uuid.UUID `db:"task_id" json:"task"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type CreateNoteRequest struct {
	Content string `json:"content"`
}
