package task

import (
	"time"

	"github.com/google/uuid"

	"github.com/uptask/uptask-server/internal/services/note"
)

type Status string

const (
	StatusPending     Status = "pending"
	StatusOnHold      Status = "onHold"
	StatusInProgress  Status = "inProgress"
	StatusUnderReview Status = "underReview"
	StatusCompleted   Status = "completed"
)

// ValidStatus reports whether s is one of the known task statuses.
func ValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusOnHold, StatusInProgress, StatusUnderReview, StatusCompleted:
		return true
	}
	return false
}

type Task struct {
	ID          uuid.UUID `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	Status      Status    `db:"status" json:"status"`
	ProjectID   uuid.UUID `db:"project_id" json:"project"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// StatusChange is one append-only entry of a task's status history.
type StatusChange struct {
	ID        int64     `db:"id" json:"-"`
	TaskID    uuid.UUID `db:"task_id" json:"-"`
	UserID    uuid.UUID `db:"user_id" json:"user"`
	Status    Status    `db:"status" json:"status"`
	ChangedAt time.Time `db:"changed_at" json:"timestamp"`
}

// Detail is a task together with its history and notes, as returned by
// the single-task endpoint.
type Detail struct {
	Task
	CompletedBy []*StatusChange `json:"completedBy"`
	Notes       []*note.Note    `json:"notes"`
}

type UpsertTaskRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}
