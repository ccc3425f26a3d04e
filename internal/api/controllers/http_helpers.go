package controllers

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	json "github.com/bytedance/sonic"
	"github.com/valyala/fasthttp"

	"github.com/uptask/uptask-server/internal/api/pipeline"
	"github.com/uptask/uptask-server/internal/api/ratelimit"
	"github.com/uptask/uptask-server/internal/perrors"
)

func parseBody(ctx *fasthttp.RequestCtx, target any) error {
	body := ctx.PostBody()
	if len(body) == 0 {
		return errors.New("request body is empty")
	}

	return json.Unmarshal(body, target)
}

// invalid builds the 400 validation error carried to the client as
// `{"error": msg}`.
func invalid(msg string) error {
	return perrors.NewErrInvalidRequest("Input validation failed", errors.New(msg))
}

func validEmail(email string) bool {
	_, err := mail.ParseAddress(email)
	return err == nil
}

// normalizeEmail lowercases an address so storage and lookups are
// case-insensitive; A@x.com and a@x.com are the same account.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// rateLimited guards credential endpoints, keyed by client address.
func rateLimited(storage ratelimit.Storage, limit ratelimit.Limit) pipeline.Stage {
	return func(ctx *fasthttp.RequestCtx, stdCtx context.Context, sc *pipeline.Scope) error {
		allowed, err := storage.Allow(stdCtx, ctx.RemoteIP().String(), limit)
		if err != nil {
			// A broken limiter should not take the endpoint down with it
			return nil
		}
		if !allowed {
			return perrors.New(perrors.ErrCodeTooManyRequests, "Rate limit exceeded", errors.New("Too many requests, try again later"))
		}
		return nil
	}
}
