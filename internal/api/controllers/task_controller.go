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
	task2 "github.com/uptask/uptask-server/internal/services/task"
)

type statusRequest struct {
	Status task2.Status `json:"status"`
}

func RegisterTaskRoutes(r *router.Router, svc *services.Services, p *pipeline.Pipeline) {
	r.POST("/api/projects/{projectID}/tasks", pipeline.Chain(
		p.Authenticate(),
		p.LoadProject(),
		pipeline.HasAuthorization(),
		validateTaskBody(),
		createTask(svc),
	))

	r.GET("/api/projects/{projectID}/tasks", pipeline.Chain(
		p.Authenticate(),
		p.LoadProject(),
		listTasks(svc),
	))

	r.GET("/api/projects/{projectID}/tasks/{taskId}", pipeline.Chain(
		p.Authenticate(),
		p.LoadProject(),
		p.LoadTask(),
		pipeline.TaskBelongsToProject(),
		getTask(svc),
	))

	r.PUT("/api/projects/{projectID}/tasks/{taskId}", pipeline.Chain(
		p.Authenticate(),
		p.LoadProject(),
		p.LoadTask(),
		pipeline.TaskBelongsToProject(),
		pipeline.HasAuthorization(),
		validateTaskBody(),
		updateTask(svc),
	))

	r.DELETE("/api/projects/{projectID}/tasks/{taskId}", pipeline.Chain(
		p.Authenticate(),
		p.LoadProject(),
		p.LoadTask(),
		pipeline.TaskBelongsToProject(),
		pipeline.HasAuthorization(),
		deleteTask(svc),
	))

	// Status updates are open to the whole team, not only the manager
	r.POST("/api/projects/{projectID}/tasks/{taskId}/status", pipeline.Chain(
		p.Authenticate(),
		p.LoadProject(),
		p.LoadTask(),
		pipeline.TaskBelongsToProject(),
		validateStatusBody(),
		updateTaskStatus(svc),
	))
}

func validateTaskBody() pipeline.Stage {
	return func(ctx *fasthttp.RequestCtx, stdCtx context.Context, sc *pipeline.Scope) error {
		var body task2.UpsertTaskRequest
		if err := parseBody(ctx, &body); err != nil {
			return perrors.NewErrInvalidRequest("Invalid request body", err)
		}

		if body.Name == "" {
			return invalid("Task name is mandatory")
		}
		if body.Description == "" {
			return invalid("Description task is mandatory")
		}

		sc.Body = &body
		return nil
	}
}

func createTask(svc *services.Services) pipeline.Stage {
	return func(ctx *fasthttp.RequestCtx, stdCtx context.Context, sc *pipeline.Scope) error {
		body := sc.Body.(*task2.UpsertTaskRequest)

		if _, err := svc.Task.Create(stdCtx, sc.Project.ID, body); err != nil {
			return perrors.NewErrInternalServerError("Failed to create task", err)
		}

		response.Text(ctx, "Task created successfully")
		return nil
	}
}

func listTasks(svc *services.Services) pipeline.Stage {
	return func(ctx *fasthttp.RequestCtx, stdCtx context.Context, sc *pipeline.Scope) error {
		tasks, err := svc.Task.ListByProject(stdCtx, sc.Project.ID)
		if err != nil {
			return perrors.NewErrInternalServerError("Failed to list tasks", err)
		}

		response.JSON(ctx, stdCtx, tasks)
		return nil
	}
}

func getTask(svc *services.Services) pipeline.Stage {
	return func(ctx *fasthttp.RequestCtx, stdCtx context.Context, sc *pipeline.Scope) error {
		detail, err := svc.Task.GetDetail(stdCtx, sc.Task)
		if err != nil {
			return perrors.NewErrInternalServerError("Failed to load task", err)
		}

		response.JSON(ctx, stdCtx, detail)
		return nil
	}
}

func updateTask(svc *services.Services) pipeline.Stage {
	return func(ctx *fasthttp.RequestCtx, stdCtx context.Context, sc *pipeline.Scope) error {
		body := sc.Body.(*task2.UpsertTaskRequest)

		if err := svc.Task.Update(stdCtx, sc.Task.ID, body); err != nil {
			return perrors.NewErrInternalServerError("Failed to update task", err)
		}

		response.Text(ctx, "Task updated successfully")
		return nil
	}
}

func deleteTask(svc *services.Services) pipeline.Stage {
	return func(ctx *fasthttp.RequestCtx, stdCtx context.Context, sc *pipeline.Scope) error {
		if err := svc.Task.Delete(stdCtx, sc.Task); err != nil {
			return perrors.NewErrInternalServerError("Failed to delete task", err)
		}

		response.Text(ctx, "Task deleted successfully")
		return nil
	}
}

func validateStatusBody() pipeline.Stage {
	return func(ctx *fasthttp.RequestCtx, stdCtx context.Context, sc *pipeline.Scope) error {
		var body statusRequest
		if err := parseBody(ctx, &body); err != nil {
			return perrors.NewErrInvalidRequest("Invalid request body", err)
		}

		if body.Status == "" {
			return invalid("Status is mandatory")
		}
		if !task2.ValidStatus(body.Status) {
			return invalid("Not valid status")
		}

		sc.Body = &body
		return nil
	}
}

func updateTaskStatus(svc *services.Services) pipeline.Stage {
	return func(ctx *fasthttp.RequestCtx, stdCtx context.Context, sc *pipeline.Scope) error {
		body := sc.Body.(*statusRequest)

		if err := svc.Task.UpdateStatus(stdCtx, sc.Task.ID, sc.User.ID, body.Status); err != nil {
			if errors.Is(err, task2.ErrInvalidStatus) {
				return invalid("Not valid status")
			}
			return perrors.NewErrInternalServerError("Failed to update task status", err)
		}

		response.Text(ctx, "Task status updated")
		return nil
	}
}
