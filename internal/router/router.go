package router

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/pprofhandler"

	apiHandler "github.com/fastygo/taskdesk/api/handler"
	"github.com/fastygo/taskdesk/internal/middleware"
)

type Handlers struct {
	Profile *apiHandler.ProfileHandler
	Task    *apiHandler.TaskHandler
	Health  *apiHandler.HealthHandler
}

// Options toggles the operational endpoints.
type Options struct {
	Metrics fasthttp.RequestHandler
	Pprof   bool
}

func New(handlers Handlers, authMiddleware func(fasthttp.RequestHandler) fasthttp.RequestHandler, observer middleware.RequestObserver, opts Options) *router.Router {
	r := router.New()

	public := func(route string, h fasthttp.RequestHandler) fasthttp.RequestHandler {
		return middleware.Instrument(observer, route, h)
	}
	protected := func(route string, h fasthttp.RequestHandler) fasthttp.RequestHandler {
		return middleware.Instrument(observer, route, authMiddleware(h))
	}

	r.GET("/health", public("/health", handlers.Health.Check))

	if opts.Metrics != nil {
		r.GET("/metrics", opts.Metrics)
	}
	if opts.Pprof {
		r.ANY("/debug/pprof/{profile:*}", pprofhandler.PprofHandler)
	}

	api := r.Group("/api")

	api.GET("/auth/me", protected("/api/auth/me", handlers.Profile.Me))
	api.GET("/users", protected("/api/users", handlers.Profile.ListUsers))

	// Task routes. The static priority segment is matched before {id}.
	api.GET("/tasks", protected("/api/tasks", handlers.Task.GetTasks))
	api.POST("/tasks", protected("/api/tasks", handlers.Task.CreateTask))
	api.GET("/tasks/priority/{priority}", protected("/api/tasks/priority/{priority}", handlers.Task.GetTasksByPriority))
	api.GET("/tasks/{id}", protected("/api/tasks/{id}", handlers.Task.GetTask))
	api.PUT("/tasks/{id}", protected("/api/tasks/{id}", handlers.Task.UpdateTask))
	api.DELETE("/tasks/{id}", protected("/api/tasks/{id}", handlers.Task.DeleteTask))
	api.PATCH("/tasks/{id}/status", protected("/api/tasks/{id}/status", handlers.Task.UpdateStatus))
	api.PATCH("/tasks/{id}/priority", protected("/api/tasks/{id}/priority", handlers.Task.UpdatePriority))

	return r
}
