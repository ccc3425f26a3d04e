package response

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	json "github.com/bytedance/sonic"
	"github.com/valyala/fasthttp"

	"github.com/uptask/uptask-server/internal/perrors"
)

// errorBody is the only shape an error response ever takes: a single
// `error` field carrying the user-facing message.
type errorBody struct {
	Error string `json:"error"`
}

// JSON writes data as an application/json body with status 200.
func JSON(ctx *fasthttp.RequestCtx, stdCtx context.Context, data any) {
	body, err := json.Marshal(data)
	if err != nil {
		slog.ErrorContext(stdCtx, "Unable to json encode response", slog.Any("error", err))
		ctx.SetStatusCode(http.StatusInternalServerError)
		return
	}

	ctx.Response.Header.Set("content-type", "application/json")
	ctx.SetStatusCode(http.StatusOK)
	ctx.SetBody(body)
}

// Text writes a plain confirmation string with status 200.
func Text(ctx *fasthttp.RequestCtx, msg string) {
	ctx.Response.Header.Set("content-type", "text/plain; charset=utf-8")
	ctx.SetStatusCode(http.StatusOK)
	ctx.SetBodyString(msg)
}

// Error writes `{"error": msg}` using the status embedded in the error.
// Anything that is not a perrors.Err is treated as an internal failure.
func Error(ctx *fasthttp.RequestCtx, stdCtx context.Context, err error) {
	var perr perrors.Err
	if !errors.As(err, &perr) {
		perr = perrors.NewErrInternalServerError("Unhandled error", err).(perrors.Err)
	}
	perr.Print(stdCtx)

	body, merr := json.Marshal(errorBody{Error: perr.Error()})
	if merr != nil {
		slog.ErrorContext(stdCtx, "Unable to json encode error response", slog.Any("error", merr))
		ctx.SetStatusCode(http.StatusInternalServerError)
		return
	}

	ctx.Response.Header.Set("content-type", "application/json")
	ctx.SetStatusCode(perr.HttpStatus())
	ctx.SetBody(body)
}
