package handler

import (
	"net/http"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/taskdesk/internal/infrastructure/monitor"
	"github.com/fastygo/taskdesk/pkg/httpcontext"
)

// StatusSource provides the latest dependency snapshot.
type StatusSource interface {
	GetStatus() monitor.Status
}

type HealthHandler struct {
	baseHandler
	monitor StatusSource
}

func NewHealthHandler(mon StatusSource, adapter *httpcontext.Adapter, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		baseHandler: newBaseHandler(adapter, logger),
		monitor:     mon,
	}
}

type healthPayload struct {
	Success   bool           `json:"success"`
	Timestamp time.Time      `json:"timestamp"`
	Services  monitor.Status `json:"services"`
	Message   string         `json:"message,omitempty"`
	Code      string         `json:"code,omitempty"`
}

// @Summary Health check
// @Tags health
// @Router /health [get]
func (h *HealthHandler) Check(ctx *fasthttp.RequestCtx) {
	status := h.monitor.GetStatus()
	payload := healthPayload{
		Success:   status.Healthy(),
		Timestamp: time.Now().UTC(),
		Services:  status,
	}

	if payload.Success {
		h.respondJSON(ctx, http.StatusOK, payload)
		return
	}
	payload.Code = "DEGRADED"
	payload.Message = "dependencies unhealthy"
	h.respondJSON(ctx, http.StatusServiceUnavailable, payload)
}
