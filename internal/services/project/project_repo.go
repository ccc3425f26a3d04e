package project

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/uptask/uptask-server/internal/services/user"
)

var ErrProjectNotFound = errors.New("project not found")

// isUniqueViolation reports whether err is a Postgres unique constraint
// failure (code 23505).
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// ProjectRepo handles database operations for projects and their team sets
type ProjectRepo struct {
	db *sqlx.DB
}

func NewProjectRepo(db *sqlx.DB) *ProjectRepo {
	return &ProjectRepo{db: db}
}

func (r *ProjectRepo) Create(ctx context.Context, managerID uuid.UUID, req *UpsertProjectRequest) (*Project, error) {
	query := `
        INSERT INTO projects (project_name, client_name, description, manager_id)
        VALUES ($1, $2, $3, $4)
        RETURNING id, project_name, client_name, description, manager_id, created_at, updated_at
    `

	var p Project
	err := r.db.GetContext(ctx, &p, query, req.ProjectName, req.ClientName, req.Description, managerID)
	if err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	return &p, nil
}

func (r *ProjectRepo) GetByID(ctx context.Context, id uuid.UUID) (*Project, error) {
	query := `
        SELECT id, project_name, client_name, description, manager_id, created_at, updated_at
        FROM projects
        WHERE id = $1
    `

	var p Project
	err := r.db.GetContext(ctx, &p, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	return &p, nil
}

// ListForUser returns projects the user manages or belongs to as a member.
func (r *ProjectRepo) ListForUser(ctx context.Context, userID uuid.UUID) ([]*Project, error) {
	query := `
        SELECT DISTINCT p.id, p.project_name, p.client_name, p.description, p.manager_id, p.created_at, p.updated_at
        FROM projects p
        LEFT JOIN project_members pm ON pm.project_id = p.id
        WHERE p.manager_id = $1 OR pm.user_id = $1
        ORDER BY p.created_at DESC
    `

	projects := []*Project{}
	err := r.db.SelectContext(ctx, &projects, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}

	return projects, nil
}

func (r *ProjectRepo) Update(ctx context.Context, id uuid.UUID, req *UpsertProjectRequest) error {
	query := `
        UPDATE projects
        SET project_name = $1, client_name = $2, description = $3, updated_at = NOW()
        WHERE id = $4
    `

	result, err := r.db.ExecContext(ctx, query, req.ProjectName, req.ClientName, req.Description, id)
	if err != nil {
		return fmt.Errorf("failed to update project: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrProjectNotFound
	}

	return nil
}

func (r *ProjectRepo) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM projects WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrProjectNotFound
	}

	return nil
}

// IsMember reports whether the user is in the project's team set.
func (r *ProjectRepo) IsMember(ctx context.Context, projectID, userID uuid.UUID) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM project_members WHERE project_id = $1 AND user_id = $2)`

	var exists bool
	err := r.db.GetContext(ctx, &exists, query, projectID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to check membership: %w", err)
	}

	return exists, nil
}

func (r *ProjectRepo) ListTeam(ctx context.Context, projectID uuid.UUID) ([]*user.Profile, error) {
	query := `
        SELECT u.id, u.name, u.email
        FROM project_members pm
        JOIN users u ON u.id = pm.user_id
        WHERE pm.project_id = $1
        ORDER BY pm.added_at
    `

	team := []*user.Profile{}
	err := r.db.SelectContext(ctx, &team, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list team: %w", err)
	}

	return team, nil
}

func (r *ProjectRepo) AddMember(ctx context.Context, projectID, userID uuid.UUID) error {
	query := `INSERT INTO project_members (project_id, user_id) VALUES ($1, $2)`

	if _, err := r.db.ExecContext(ctx, query, projectID, userID); err != nil {
		// A concurrent add can slip past the service's membership check;
		// the primary key still answers conflict, not a server error.
		if isUniqueViolation(err) {
			return ErrAlreadyMember
		}
		return fmt.Errorf("failed to add member: %w", err)
	}

	return nil
}

func (r *ProjectRepo) RemoveMember(ctx context.Context, projectID, userID uuid.UUID) error {
	query := `DELETE FROM project_members WHERE project_id = $1 AND user_id = $2`

	if _, err := r.db.ExecContext(ctx, query, projectID, userID); err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}

	return nil
}
