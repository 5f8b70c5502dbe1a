package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/taskdesk/api/transport"
	"github.com/fastygo/taskdesk/pkg/httpcontext"
	profileUC "github.com/fastygo/taskdesk/usecase/profile"
)

type ProfileHandler struct {
	baseHandler
	uc *profileUC.UseCase
}

func NewProfileHandler(uc *profileUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *ProfileHandler {
	return &ProfileHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary Current user
// @Tags profile
// @Router /api/auth/me [get]
func (h *ProfileHandler) Me(ctx *fasthttp.RequestCtx) {
	principal, ok := h.principal(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	user, err := h.uc.GetProfile(stdCtx, principal)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondJSON(ctx, http.StatusOK, transport.UserItem{Success: true, User: user})
}

// @Summary User directory (admin)
// @Tags profile
// @Router /api/users [get]
func (h *ProfileHandler) ListUsers(ctx *fasthttp.RequestCtx) {
	principal, ok := h.principal(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	users, err := h.uc.ListUsers(stdCtx, principal)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondJSON(ctx, http.StatusOK, transport.UserList{Success: true, Users: users})
}
