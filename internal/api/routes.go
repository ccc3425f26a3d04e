package api

import (
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/fasthttp/router"
	"github.com/redis/go-redis/v9"
	"github.com/valyala/fasthttp"
	"go.opentelemetry.io/otel/propagation"

	"github.com/uptask/uptask-server/internal/api/authenticator"
	"github.com/uptask/uptask-server/internal/api/controllers"
	"github.com/uptask/uptask-server/internal/api/pipeline"
	"github.com/uptask/uptask-server/internal/api/ratelimit"
	"github.com/uptask/uptask-server/internal/config"
)

var tracePropagator = propagation.TraceContext{}

func (s *Server) initRoutes(conf *config.Config) fasthttp.RequestHandler {
	r := router.New()

	r.GET("/api/health", func(ctx *fasthttp.RequestCtx) {
		ctx.SetStatusCode(fasthttp.StatusOK)
		_, _ = ctx.Write([]byte("OK"))
	})

	auth, err := authenticator.New(conf)
	if err != nil {
		log.Fatal(err)
	}

	p := pipeline.New(auth, s.services.User, s.services.Project, s.services.Task)
	limiter := newLimiterStorage(conf)

	controllers.RegisterAuthRoutes(r, s.services, auth, p, limiter)
	controllers.RegisterProjectRoutes(r, s.services, p)
	controllers.RegisterTaskRoutes(r, s.services, p)
	controllers.RegisterTeamRoutes(r, s.services, p)
	controllers.RegisterNoteRoutes(r, s.services, p)

	return s.withMiddlewares(r.Handler)
}

// newLimiterStorage picks the rate-limit backend: Redis when configured,
// otherwise a per-process in-memory store.
func newLimiterStorage(conf *config.Config) ratelimit.Storage {
	if conf.REDIS_ADDR == "" {
		return ratelimit.NewInMemoryStorage()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     conf.REDIS_ADDR,
		Password: conf.REDIS_PASSWORD,
	})

	return ratelimit.NewRedisStorage(client, "uptask:ratelimit")
}

func (s *Server) withMiddlewares(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		applyCORS(ctx)
		if string(ctx.Method()) == fasthttp.MethodOptions {
			ctx.SetStatusCode(fasthttp.StatusNoContent)
			return
		}

		start := time.Now()
		uri := ctx.URI()
		requestURI := string(uri.FullURI())
		slog.Info("Started processing", slog.String("method", string(ctx.Method())), slog.String("request_uri", requestURI))

		h := http.Header{}
		ctx.Request.Header.VisitAll(func(k, v []byte) {
			h[string(k)] = []string{string(v)}
		})
		traceCtx := tracePropagator.Extract(ctx, propagation.HeaderCarrier(h))
		ctx.SetUserValue("traceCtx", traceCtx)

		next(ctx)

		slog.Info("Finished processing", slog.String("method", string(ctx.Method())), slog.String("request_uri", requestURI), slog.Duration("duration", time.Since(start)))
	}
}

func applyCORS(ctx *fasthttp.RequestCtx) {
	headers := &ctx.Response.Header
	headers.Set("Access-Control-Allow-Origin", string(ctx.Request.Header.Peek("Origin")))
	headers.Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS,PATCH")
	headers.Set("Access-Control-Allow-Headers", os.Getenv("ALLOWED_HEADERS"))
	headers.Set("Access-Control-Allow-Credentials", "true")
}
