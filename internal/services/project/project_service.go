package project

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/uptask/uptask-server/internal/services/user"
)

var (
	ErrAlreadyMember = errors.New("user is already a member")
	ErrNotMember     = errors.New("user is not a member")
)

// Store is the persistence surface the service works against. Satisfied
// by *ProjectRepo.
type Store interface {
	Create(ctx context.Context, managerID uuid.UUID, req *UpsertProjectRequest) (*Project, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Project, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]*Project, error)
	Update(ctx context.Context, id uuid.UUID, req *UpsertProjectRequest) error
	Delete(ctx context.Context, id uuid.UUID) error
	IsMember(ctx context.Context, projectID, userID uuid.UUID) (bool, error)
	ListTeam(ctx context.Context, projectID uuid.UUID) ([]*user.Profile, error)
	AddMember(ctx context.Context, projectID, userID uuid.UUID) error
	RemoveMember(ctx context.Context, projectID, userID uuid.UUID) error
}

// ProjectService contains business logic for projects and team membership
type ProjectService struct {
	repo Store
}

func NewProjectService(repo Store) *ProjectService {
	return &ProjectService{repo: repo}
}

// Create persists a project owned by the acting user. Project names are
// not unique; resubmitting the same payload creates a second project.
func (s *ProjectService) Create(ctx context.Context, managerID uuid.UUID, req *UpsertProjectRequest) (*Project, error) {
	p, err := s.repo.Create(ctx, managerID, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	return p, nil
}

func (s *ProjectService) GetByID(ctx context.Context, id uuid.UUID) (*Project, error) {
	return s.repo.GetByID(ctx, id)
}

// ListForUser returns every project the user can read, as manager or member.
func (s *ProjectService) ListForUser(ctx context.Context, userID uuid.UUID) ([]*Project, error) {
	return s.repo.ListForUser(ctx, userID)
}

func (s *ProjectService) Update(ctx context.Context, id uuid.UUID, req *UpsertProjectRequest) error {
	return s.repo.Update(ctx, id, req)
}

func (s *ProjectService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

// HasAccess reports whether the user may read the project: either as its
// manager or through team membership.
func (s *ProjectService) HasAccess(ctx context.Context, p *Project, userID uuid.UUID) (bool, error) {
	if p.ManagerID == userID {
		return true, nil
	}
	return s.repo.IsMember(ctx, p.ID, userID)
}

func (s *ProjectService) ListTeam(ctx context.Context, projectID uuid.UUID) ([]*user.Profile, error) {
	return s.repo.ListTeam(ctx, projectID)
}

// AddMember adds a user to the team set; adding an existing member is
// a conflict.
func (s *ProjectService) AddMember(ctx context.Context, projectID, userID uuid.UUID) error {
	member, err := s.repo.IsMember(ctx, projectID, userID)
	if err != nil {
		return err
	}
	if member {
		return ErrAlreadyMember
	}

	return s.repo.AddMember(ctx, projectID, userID)
}

// RemoveMember deletes a user from the team set; removing a non-member is
// a conflict, not a silent success.
func (s *ProjectService) RemoveMember(ctx context.Context, projectID, userID uuid.UUID) error {
	member, err := s.repo.IsMember(ctx, projectID, userID)
	if err != nil {
		return err
	}
	if !member {
		return ErrNotMember
	}

	return s.repo.RemoveMember(ctx, projectID, userID)
}
