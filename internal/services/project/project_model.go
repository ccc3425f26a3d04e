package project

import (
	"time"

	"github.com/google/uuid"
)

type Project struct {
	ID          uuid.UUID `db:"id" json:"id"`
	ProjectName string    `db:"project_name" json:"projectName"`
	ClientName  string    `db:"client_name" json:"clientName"`
	Description string    `db:"description" json:"description"`
	ManagerID   uuid.UUID `db:"manager_id" json:"manager"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// UpsertProjectRequest carries the payload for both create and update;
// all three fields are mandatory on either operation.
type UpsertProjectRequest struct {
	ProjectName string `json:"projectName"`
	ClientName  string `json:"clientName"`
	Description string `json:"description"`
}
