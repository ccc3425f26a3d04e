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
	note2 "github.com/uptask/uptask-server/internal/services/note"
)

func RegisterNoteRoutes(r *router.Router, svc *services.Services, p *pipeline.Pipeline) {
	r.POST("/api/projects/{projectID}/tasks/{taskId}/notes", pipeline.Chain(
		p.Authenticate(),
		p.LoadProject(),
		p.LoadTask(),
		pipeline.TaskBelongsToProject(),
		validateNoteBody(),
		createNote(svc),
	))

	r.GET("/api/projects/{projectID}/tasks/{taskId}/notes", pipeline.Chain(
		p.Authenticate(),
		p.LoadProject(),
		p.LoadTask(),
		pipeline.TaskBelongsToProject(),
		listNotes(svc),
	))

	r.DELETE("/api/projects/{projectID}/tasks/{taskId}/notes/{noteId}", pipeline.Chain(
		p.Authenticate(),
		p.LoadProject(),
		p.LoadTask(),
		pipeline.TaskBelongsToProject(),
		deleteNote(svc),
	))
}

func validateNoteBody() pipeline.Stage {
	return func(ctx *fasthttp.RequestCtx, stdCtx context.Context, sc *pipeline.Scope) error {
		var body note2.CreateNoteRequest
		if err := parseBody(ctx, &body); err != nil {
			return perrors.NewErrInvalidRequest("Invalid request body", err)
		}

		if body.Content == "" {
			return invalid("The content of the note is mandatory")
		}

		sc.Body = &body
		return nil
	}
}

func createNote(svc *services.Services) pipeline.Stage {
	return func(ctx *fasthttp.RequestCtx, stdCtx context.Context, sc *pipeline.Scope) error {
		body := sc.Body.(*note2.CreateNoteRequest)

		if _, err := svc.Note.Create(stdCtx, sc.Task.ID, sc.User.ID, body.Content); err != nil {
			return perrors.NewErrInternalServerError("Failed to create note", err)
		}

		response.Text(ctx, "Note created successfully")
		return nil
	}
}

func listNotes(svc *services.Services) pipeline.Stage {
	return func(ctx *fasthttp.RequestCtx, stdCtx context.Context, sc *pipeline.Scope) error {
		notes, err := svc.Note.ListByTask(stdCtx, sc.Task.ID)
		if err != nil {
			return perrors.NewErrInternalServerError("Failed to list notes", err)
		}

		response.JSON(ctx, stdCtx, notes)
		return nil
	}
}

func deleteNote(svc *services.Services) pipeline.Stage {
	return func(ctx *fasthttp.RequestCtx, stdCtx context.Context, sc *pipeline.Scope) error {
		noteID, err := pipeline.PathUUID(ctx, "noteId")
		if err != nil {
			return invalid("Invalid ID")
		}

		if err := svc.Note.Delete(stdCtx, noteID, sc.User.ID); err != nil {
			switch {
			case errors.Is(err, note2.ErrNoteNotFound):
				return perrors.NewErrNotFound("Unknown note", errors.New("Note not found"))
			case errors.Is(err, note2.ErrNotOwner):
				return perrors.NewErrUnauthorized("Only the author may delete a note", errors.New("Invalid action"))
			default:
				return perrors.NewErrInternalServerError("Failed to delete note", err)
			}
		}

		response.Text(ctx, "Note deleted")
		return nil
	}
}
