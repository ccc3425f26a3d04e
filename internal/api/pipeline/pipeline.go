package pipeline

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/valyala/fasthttp"

	"github.com/uptask/uptask-server/internal/api/response"
	"github.com/uptask/uptask-server/internal/perrors"
	"github.com/uptask/uptask-server/internal/services/project"
	"github.com/uptask/uptask-server/internal/services/task"
	"github.com/uptask/uptask-server/internal/services/user"
)

// Scope carries the entities resolved for one request. Stages fill it in
// order; downstream stages and handlers read what upstream attached. It
// replaces the ambient per-request mutation the route table would otherwise
// need, so every handler sees exactly what the chain loaded and nothing else.
type Scope struct {
	User    *user.User
	Project *project.Project
	Task    *task.Task

	// Body holds the parsed and validated request payload when a
	// validation stage precedes the handler.
	Body any
}

// Stage is one step of a request pipeline. Returning an error terminates
// the chain; no later stage runs.
type Stage func(ctx *fasthttp.RequestCtx, stdCtx context.Context, sc *Scope) error

// TokenVerifier validates a bearer credential and returns the user id it
// carries.
type TokenVerifier interface {
	VerifyToken(token string) (uuid.UUID, error)
}

type UserSource interface {
	GetByID(ctx context.Context, id uuid.UUID) (*user.User, error)
}

type ProjectSource interface {
	GetByID(ctx context.Context, id uuid.UUID) (*project.Project, error)
}

type TaskSource interface {
	GetByID(ctx context.Context, id uuid.UUID) (*task.Task, error)
}

// Pipeline builds the identity, loader and guard stages over the stores
// they resolve entities from.
type Pipeline struct {
	verifier TokenVerifier
	users    UserSource
	projects ProjectSource
	tasks    TaskSource
}

func New(verifier TokenVerifier, users UserSource, projects ProjectSource, tasks TaskSource) *Pipeline {
	return &Pipeline{verifier: verifier, users: users, projects: projects, tasks: tasks}
}

// Chain composes stages into a fasthttp handler. Stages run strictly in
// the given order and the first error short-circuits the request.
func Chain(stages ...Stage) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		stdCtx := RequestContext(ctx)
		sc := &Scope{}

		for _, stage := range stages {
			if err := stage(ctx, stdCtx, sc); err != nil {
				response.Error(ctx, stdCtx, err)
				return
			}
		}
	}
}

// RequestContext returns the context for downstream calls, picking up the
// trace context the outer middleware extracted when present.
func RequestContext(ctx *fasthttp.RequestCtx) context.Context {
	if traceCtx, ok := ctx.UserValue("traceCtx").(context.Context); ok {
		return traceCtx
	}
	return context.Background()
}

// Authenticate resolves the bearer credential into a full user record and
// attaches it to the scope.
func (p *Pipeline) Authenticate() Stage {
	return func(ctx *fasthttp.RequestCtx, stdCtx context.Context, sc *Scope) error {
		header := string(ctx.Request.Header.Peek("Authorization"))
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			return perrors.NewErrUnauthorized("Missing bearer token", errors.New("Not authorized"))
		}

		userID, err := p.verifier.VerifyToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			return perrors.NewErrUnauthorized("Bearer token rejected", errors.New("Token not valid"))
		}

		u, err := p.users.GetByID(stdCtx, userID)
		if err != nil {
			// A token for a user that no longer exists is as good as no token
			if errors.Is(err, user.ErrUserNotFound) {
				return perrors.NewErrUnauthorized("Token user no longer exists", errors.New("Token not valid"))
			}
			return perrors.NewErrInternalServerError("User lookup failed", err)
		}

		sc.User = u
		return nil
	}
}

// LoadProject resolves the {projectID} path parameter into a project.
// Malformed identifiers are rejected before the lookup runs.
func (p *Pipeline) LoadProject() Stage {
	return func(ctx *fasthttp.RequestCtx, stdCtx context.Context, sc *Scope) error {
		id, err := PathUUID(ctx, "projectID")
		if err != nil {
			return perrors.NewErrInvalidRequest("Malformed project id", errors.New("Not valid ID"))
		}

		proj, err := p.projects.GetByID(stdCtx, id)
		if err != nil {
			if errors.Is(err, project.ErrProjectNotFound) {
				return perrors.NewErrNotFound("Project lookup failed", errors.New("Project does not exist"))
			}
			return perrors.NewErrInternalServerError("Project lookup failed", err)
		}

		sc.Project = proj
		return nil
	}
}

// LoadTask resolves the {taskId} path parameter into a task.
func (p *Pipeline) LoadTask() Stage {
	return func(ctx *fasthttp.RequestCtx, stdCtx context.Context, sc *Scope) error {
		id, err := PathUUID(ctx, "taskId")
		if err != nil {
			return perrors.NewErrInvalidRequest("Malformed task id", errors.New("Not valid ID"))
		}

		t, err := p.tasks.GetByID(stdCtx, id)
		if err != nil {
			if errors.Is(err, task.ErrTaskNotFound) {
				return perrors.NewErrNotFound("Task lookup failed", errors.New("task does not exist"))
			}
			return perrors.NewErrInternalServerError("Task lookup failed", err)
		}

		sc.Task = t
		return nil
	}
}

// TaskBelongsToProject verifies the loaded task actually lives under the
// loaded project, blocking cross-project access through mismatched paths.
// The mismatch reads as not-found on purpose, so callers learn nothing
// about tasks outside their project.
func TaskBelongsToProject() Stage {
	return func(ctx *fasthttp.RequestCtx, stdCtx context.Context, sc *Scope) error {
		if sc.Task.ProjectID != sc.Project.ID {
			return perrors.NewErrNotFound("Task does not belong to project", errors.New("Invalid action"))
		}
		return nil
	}
}

// HasAuthorization restricts the request to the project's manager. Like the
// consistency guard it answers not-found rather than forbidden.
func HasAuthorization() Stage {
	return func(ctx *fasthttp.RequestCtx, stdCtx context.Context, sc *Scope) error {
		if sc.User.ID != sc.Project.ManagerID {
			return perrors.NewErrNotFound("Requester is not the project manager", errors.New("Invalid action"))
		}
		return nil
	}
}

// PathUUID parses a route parameter as a UUID.
func PathUUID(ctx *fasthttp.RequestCtx, key string) (uuid.UUID, error) {
	val := ctx.UserValue(key)
	if val == nil {
		return uuid.Nil, errors.New(key + " is required")
	}

	s, ok := val.(string)
	if !ok {
		return uuid.Nil, errors.New(key + " is required")
	}

	return uuid.Parse(s)
}
