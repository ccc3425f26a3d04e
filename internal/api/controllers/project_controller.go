package controllers

import (
	"context"
	"errors"

	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	"github.com/uptask/uptask-server/internal/api/pipeline"
	"github.com/uptask/uptask-server/internal/api/response"
	"github.com/uptask/uptask-server/internal/perrors"
	"github.com/uptask/uptask-server/internal/services"
	project2 "github.com/uptask/uptask-server/internal/services/project"
	task2 "github.com/uptask/uptask-server/internal/services/task"
)

// projectDetail is the single-project payload: the project plus its tasks.
type projectDetail struct {
	project2.Project
	Tasks []*task2.Task `json:"tasks"`
}

func RegisterProjectRoutes(r *router.Router, svc *services.Services, p *pipeline.Pipeline) {
	r.POST("/api/projects", pipeline.Chain(
		p.Authenticate(),
		validateProjectBody(),
		createProject(svc),
	))

	r.GET("/api/projects", pipeline.Chain(
		p.Authenticate(),
		listProjects(svc),
	))

	r.GET("/api/projects/{projectID}", pipeline.Chain(
		p.Authenticate(),
		p.LoadProject(),
		getProject(svc),
	))

	r.PUT("/api/projects/{projectID}", pipeline.Chain(
		p.Authenticate(),
		p.LoadProject(),
		validateProjectBody(),
		pipeline.HasAuthorization(),
		updateProject(svc),
	))

	r.DELETE("/api/projects/{projectID}", pipeline.Chain(
		p.Authenticate(),
		p.LoadProject(),
		pipeline.HasAuthorization(),
		deleteProject(svc),
	))
}

func validateProjectBody() pipeline.Stage {
	return func(ctx *fasthttp.RequestCtx, stdCtx context.Context, sc *pipeline.Scope) error {
		var body project2.UpsertProjectRequest
		if err := parseBody(ctx, &body); err != nil {
			return perrors.NewErrInvalidRequest("Invalid request body", err)
		}

		if body.ProjectName == "" {
			return invalid("Project name is mandatory")
		}
		if body.ClientName == "" {
			return invalid("Client name is mandatory")
		}
		if body.Description == "" {
			return invalid("Description is mandatory")
		}

		sc.Body = &body
		return nil
	}
}

func createProject(svc *services.Services) pipeline.Stage {
	return func(ctx *fasthttp.RequestCtx, stdCtx context.Context, sc *pipeline.Scope) error {
		body := sc.Body.(*project2.UpsertProjectRequest)

		if _, err := svc.Project.Create(stdCtx, sc.User.ID, body); err != nil {
			return perrors.NewErrInternalServerError("Failed to create project", err)
		}

		response.Text(ctx, "Project created successfully")
		return nil
	}
}

func listProjects(svc *services.Services) pipeline.Stage {
	return func(ctx *fasthttp.RequestCtx, stdCtx context.Context, sc *pipeline.Scope) error {
		projects, err := svc.Project.ListForUser(stdCtx, sc.User.ID)
		if err != nil {
			return perrors.NewErrInternalServerError("Failed to list projects", err)
		}

		response.JSON(ctx, stdCtx, projects)
		return nil
	}
}

func getProject(svc *services.Services) pipeline.Stage {
	return func(ctx *fasthttp.RequestCtx, stdCtx context.Context, sc *pipeline.Scope) error {
		ok, err := svc.Project.HasAccess(stdCtx, sc.Project, sc.User.ID)
		if err != nil {
			return perrors.NewErrInternalServerError("Failed to check access", err)
		}
		if !ok {
			return perrors.NewErrNotFound("Requester has no access to project", errors.New("No valid action"))
		}

		tasks, err := svc.Task.ListByProject(stdCtx, sc.Project.ID)
		if err != nil {
			return perrors.NewErrInternalServerError("Failed to load project tasks", err)
		}

		response.JSON(ctx, stdCtx, &projectDetail{Project: *sc.Project, Tasks: tasks})
		return nil
	}
}

func updateProject(svc *services.Services) pipeline.Stage {
	return func(ctx *fasthttp.RequestCtx, stdCtx context.Context, sc *pipeline.Scope) error {
		body := sc.Body.(*project2.UpsertProjectRequest)

		if err := svc.Project.Update(stdCtx, sc.Project.ID, body); err != nil {
			return perrors.NewErrInternalServerError("Failed to update project", err)
		}

		response.Text(ctx, "Project has been updated")
		return nil
	}
}

func deleteProject(svc *services.Services) pipeline.Stage {
	return func(ctx *fasthttp.RequestCtx, stdCtx context.Context, sc *pipeline.Scope) error {
		if err := svc.Project.Delete(stdCtx, sc.Project.ID); err != nil {
			return perrors.NewErrInternalServerError("Failed to delete project", err)
		}

		response.Text(ctx, "The project has been deleted successfully")
		return nil
	}
}
