package response

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/valyala/fasthttp"

	"github.com/uptask/uptask-server/internal/perrors"
)

func TestJSON(t *testing.T) {
	ctx := &fasthttp.RequestCtx{}

	JSON(ctx, context.Background(), map[string]string{"hello": "world"})

	assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	assert.Equal(t, "application/json", string(ctx.Response.Header.ContentType()))
	assert.JSONEq(t, `{"hello": "world"}`, string(ctx.Response.Body()))
}

func TestText(t *testing.T) {
	ctx := &fasthttp.RequestCtx{}

	Text(ctx, "Account confirmed successfully")

	assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	assert.Equal(t, "Account confirmed successfully", string(ctx.Response.Body()))
}

func TestErrorUsesEmbeddedStatus(t *testing.T) {
	ctx := &fasthttp.RequestCtx{}

	Error(ctx, context.Background(), perrors.NewErrConflict("duplicate registration", errors.New("This user already exists")))

	assert.Equal(t, fasthttp.StatusConflict, ctx.Response.StatusCode())
	assert.JSONEq(t, `{"error": "This user already exists"}`, string(ctx.Response.Body()))
}

func TestErrorWrapsPlainErrors(t *testing.T) {
	ctx := &fasthttp.RequestCtx{}

	Error(ctx, context.Background(), errors.New("pq: connection refused"))

	assert.Equal(t, fasthttp.StatusInternalServerError, ctx.Response.StatusCode())
	assert.JSONEq(t, `{"error": "pq: connection refused"}`, string(ctx.Response.Body()))
}
