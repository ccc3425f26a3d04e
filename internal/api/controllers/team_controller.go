package controllers

import (
	"context"
	"errors"

	"github.com/fasthttp/router"
	"github.com/google/uuid"
	"github.com/valyala/fasthttp"

	"github.com/uptask/uptask-server/internal/api/pipeline"
	"github.com/uptask/uptask-server/internal/api/response"
	"github.com/uptask/uptask-server/internal/perrors"
	"github.com/uptask/uptask-server/internal/services"
	project2 "github.com/uptask/uptask-server/internal/services/project"
	user2 "github.com/uptask/uptask-server/internal/services/user"
)

type addMemberRequest struct {
	ID uuid.UUID `json:"id"`
}

func RegisterTeamRoutes(r *router.Router, svc *services.Services, p *pipeline.Pipeline) {
	r.GET("/api/projects/{projectID}/team", pipeline.Chain(
		p.Authenticate(),
		p.LoadProject(),
		listTeam(svc),
	))

	r.POST("/api/projects/{projectID}/team/find", pipeline.Chain(
		p.Authenticate(),
		p.LoadProject(),
		validateEmailBody(),
		findMemberByEmail(svc),
	))

	r.POST("/api/projects/{projectID}/team", pipeline.Chain(
		p.Authenticate(),
		p.LoadProject(),
		pipeline.HasAuthorization(),
		addMember(svc),
	))

	r.DELETE("/api/projects/{projectID}/team/{userId}", pipeline.Chain(
		p.Authenticate(),
		p.LoadProject(),
		pipeline.HasAuthorization(),
		removeMember(svc),
	))
}

func listTeam(svc *services.Services) pipeline.Stage {
	return func(ctx *fasthttp.RequestCtx, stdCtx context.Context, sc *pipeline.Scope) error {
		team, err := svc.Project.ListTeam(stdCtx, sc.Project.ID)
		if err != nil {
			return perrors.NewErrInternalServerError("Failed to list team", err)
		}

		response.JSON(ctx, stdCtx, team)
		return nil
	}
}

func findMemberByEmail(svc *services.Services) pipeline.Stage {
	return func(ctx *fasthttp.RequestCtx, stdCtx context.Context, sc *pipeline.Scope) error {
		body := sc.Body.(*emailRequest)

		profile, err := svc.User.GetProfileByEmail(stdCtx, body.Email)
		if err != nil {
			if errors.Is(err, user2.ErrUserNotFound) {
				return perrors.NewErrNotFound("Unknown email", errors.New("User not found"))
			}
			return perrors.NewErrInternalServerError("Failed to find user", err)
		}

		response.JSON(ctx, stdCtx, profile)
		return nil
	}
}

func addMember(svc *services.Services) pipeline.Stage {
	return func(ctx *fasthttp.RequestCtx, stdCtx context.Context, sc *pipeline.Scope) error {
		var body addMemberRequest
		if err := parseBody(ctx, &body); err != nil {
			return invalid("No valid ID")
		}
		if body.ID == uuid.Nil {
			return invalid("No valid ID")
		}

		// The target must be a real user before touching the team set
		if _, err := svc.User.GetByID(stdCtx, body.ID); err != nil {
			if errors.Is(err, user2.ErrUserNotFound) {
				return perrors.NewErrNotFound("Unknown user", errors.New("User not found"))
			}
			return perrors.NewErrInternalServerError("Failed to find user", err)
		}

		if err := svc.Project.AddMember(stdCtx, sc.Project.ID, body.ID); err != nil {
			if errors.Is(err, project2.ErrAlreadyMember) {
				return perrors.NewErrConflict("Duplicate membership", errors.New("The user is a current member of the project"))
			}
			return perrors.NewErrInternalServerError("Failed to add member", err)
		}

		response.Text(ctx, "Member added correctly")
		return nil
	}
}

func removeMember(svc *services.Services) pipeline.Stage {
	return func(ctx *fasthttp.RequestCtx, stdCtx context.Context, sc *pipeline.Scope) error {
		userID, err := pipeline.PathUUID(ctx, "userId")
		if err != nil {
			return invalid("No valid ID")
		}

		if err := svc.Project.RemoveMember(stdCtx, sc.Project.ID, userID); err != nil {
			if errors.Is(err, project2.ErrNotMember) {
				return perrors.NewErrConflict("Not a member", errors.New("The user does not exists"))
			}
			return perrors.NewErrInternalServerError("Failed to remove member", err)
		}

		response.Text(ctx, "Member deleted successfully")
		return nil
	}
}
