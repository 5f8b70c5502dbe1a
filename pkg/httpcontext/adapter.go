package httpcontext

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/valyala/fasthttp"

	"github.com/fastygo/taskdesk/domain"
	appLogger "github.com/fastygo/taskdesk/pkg/logger"
)

const (
	userValueRequestID = "httpcontext.request_id"
	userValuePrincipal = "httpcontext.principal"
)

// Adapter converts fasthttp.RequestCtx into a stdlib context with deadlines and metadata.
type Adapter struct {
	timeout time.Duration
}

// NewAdapter constructs a new Adapter using the provided timeout.
func NewAdapter(timeout time.Duration) *Adapter {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Adapter{
		timeout: timeout,
	}
}

// Attach creates a context with timeout derived from the adapter and enriches
// it with the request ID. Repeated calls for the same request share one
// request ID.
func (a *Adapter) Attach(ctx *fasthttp.RequestCtx) (context.Context, context.CancelFunc) {
	stdCtx, cancel := context.WithTimeout(context.Background(), a.timeout)

	reqID := RequestID(ctx)
	stdCtx = appLogger.ContextWithRequestID(stdCtx, reqID)
	ctx.Response.Header.Set("X-Request-ID", reqID)

	return stdCtx, cancel
}

// RequestID returns the inbound X-Request-ID or a generated one, memoized on
// the request.
func RequestID(ctx *fasthttp.RequestCtx) string {
	if ctx == nil {
		return uuid.NewString()
	}
	if id, ok := ctx.UserValue(userValueRequestID).(string); ok && id != "" {
		return id
	}
	id := strings.TrimSpace(string(ctx.Request.Header.Peek("X-Request-ID")))
	if id == "" {
		id = uuid.NewString()
	}
	ctx.SetUserValue(userValueRequestID, id)
	return id
}

// SetPrincipal attaches the authenticated principal to the request.
func SetPrincipal(ctx *fasthttp.RequestCtx, principal *domain.Principal) {
	ctx.SetUserValue(userValuePrincipal, principal)
}

// Principal returns the principal attached by the auth middleware, or nil.
func Principal(ctx *fasthttp.RequestCtx) *domain.Principal {
	if ctx == nil {
		return nil
	}
	principal, _ := ctx.UserValue(userValuePrincipal).(*domain.Principal)
	return principal
}
