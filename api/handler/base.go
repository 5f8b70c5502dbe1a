package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/taskdesk/api/transport"
	"github.com/fastygo/taskdesk/domain"
	"github.com/fastygo/taskdesk/pkg/httpcontext"
)

const internalErrorMessage = "internal server error"

type baseHandler struct {
	adapter *httpcontext.Adapter
	logger  *zap.Logger
}

func newBaseHandler(adapter *httpcontext.Adapter, logger *zap.Logger) baseHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return baseHandler{adapter: adapter, logger: logger}
}

func (h baseHandler) requestContext(ctx *fasthttp.RequestCtx) (context.Context, context.CancelFunc) {
	if h.adapter != nil {
		return h.adapter.Attach(ctx)
	}
	return context.WithCancel(context.Background())
}

func (h baseHandler) respondJSON(ctx *fasthttp.RequestCtx, status int, payload interface{}) {
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetStatusCode(status)
	ctx.SetBody(transport.Marshal(payload))
}

// respondError maps a domain error onto its HTTP status. Anything that is not
// a classified domain error is logged and reported with a generic message.
func (h baseHandler) respondError(ctx *fasthttp.RequestCtx, err error) {
	status, code := mapError(err)
	message := internalErrorMessage

	var dErr *domain.Error
	if status != http.StatusInternalServerError && errors.As(err, &dErr) {
		message = dErr.Message
	} else {
		h.logger.Error("request failed",
			zap.String("request_id", httpcontext.RequestID(ctx)),
			zap.ByteString("method", ctx.Method()),
			zap.ByteString("path", ctx.Path()),
			zap.String("remote_addr", ctx.RemoteAddr().String()),
			zap.ByteString("user_agent", ctx.Request.Header.UserAgent()),
			zap.Error(err))
	}

	h.respondJSON(ctx, status, transport.NewError(code, message, nil))
}

func (h baseHandler) respondInvalidPayload(ctx *fasthttp.RequestCtx) {
	h.respondError(ctx, domain.ErrInvalidPayload)
}

// principal returns the caller attached by the auth middleware and answers
// 401 itself when there is none.
func (h baseHandler) principal(ctx *fasthttp.RequestCtx) (*domain.Principal, bool) {
	principal := httpcontext.Principal(ctx)
	if principal == nil {
		h.respondError(ctx, domain.ErrUnauthenticated)
		return nil, false
	}
	return principal, true
}

func mapError(err error) (int, string) {
	switch {
	case domain.IsDomainError(err, domain.ErrCodeUnauthorized):
		return http.StatusUnauthorized, string(domain.ErrCodeUnauthorized)
	case domain.IsDomainError(err, domain.ErrCodeForbidden):
		return http.StatusForbidden, string(domain.ErrCodeForbidden)
	case domain.IsDomainError(err, domain.ErrCodeInvalid):
		return http.StatusBadRequest, string(domain.ErrCodeInvalid)
	case domain.IsDomainError(err, domain.ErrCodeNotFound):
		return http.StatusNotFound, string(domain.ErrCodeNotFound)
	default:
		return http.StatusInternalServerError, string(domain.ErrCodeInternal)
	}
}
