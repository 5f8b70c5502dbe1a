package middleware

import (
	"time"

	"github.com/valyala/fasthttp"
)

// RequestObserver records finished requests.
type RequestObserver interface {
	ObserveRequest(route, method string, status int, elapsed time.Duration)
}

// Instrument reports latency and status for route, the registered pattern
// rather than the concrete path so label cardinality stays bounded.
func Instrument(observer RequestObserver, route string, next fasthttp.RequestHandler) fasthttp.RequestHandler {
	if observer == nil {
		return next
	}
	return func(ctx *fasthttp.RequestCtx) {
		start := time.Now()
		next(ctx)
		observer.ObserveRequest(route, string(ctx.Method()), ctx.Response.StatusCode(), time.Since(start))
	}
}
