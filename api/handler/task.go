package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/taskdesk/api/transport"
	"github.com/fastygo/taskdesk/pkg/httpcontext"
	taskUC "github.com/fastygo/taskdesk/usecase/task"
)

const taskDeletedMessage = "Task deleted successfully"

type TaskHandler struct {
	baseHandler
	uc *taskUC.UseCase
}

func NewTaskHandler(uc *taskUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary List tasks
// @Tags tasks
// @Param page query int false "page, default 1"
// @Param limit query int false "page size, default 10"
// @Param status query string false "status filter"
// @Param priority query string false "priority filter"
// @Router /api/tasks [get]
func (h *TaskHandler) GetTasks(ctx *fasthttp.RequestCtx) {
	principal, ok := h.principal(ctx)
	if !ok {
		return
	}

	args := ctx.QueryArgs()
	req := taskUC.ListRequest{
		Page:  parseInt(string(args.Peek("page")), 0),
		Limit: parseInt(string(args.Peek("limit")), 0),
		Filters: taskUC.Filters{
			Status:   string(args.Peek("status")),
			Priority: string(args.Peek("priority")),
		},
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	result, err := h.uc.ListTasks(stdCtx, principal, req)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondJSON(ctx, http.StatusOK, transport.TaskList{
		Success:    true,
		Tasks:      result.Tasks,
		Pagination: result.Pagination,
	})
}

// @Summary List tasks of one priority, soonest due first
// @Tags tasks
// @Router /api/tasks/priority/{priority} [get]
func (h *TaskHandler) GetTasksByPriority(ctx *fasthttp.RequestCtx) {
	principal, ok := h.principal(ctx)
	if !ok {
		return
	}

	priority, _ := ctx.UserValue("priority").(string)

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	tasks, err := h.uc.ListTasksByPriority(stdCtx, principal, priority)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondJSON(ctx, http.StatusOK, transport.PriorityList{Success: true, Tasks: tasks})
}

// @Summary Get task
// @Tags tasks
// @Router /api/tasks/{id} [get]
func (h *TaskHandler) GetTask(ctx *fasthttp.RequestCtx) {
	principal, ok := h.principal(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	task, err := h.uc.GetTask(stdCtx, principal, taskID(ctx))
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondJSON(ctx, http.StatusOK, transport.TaskItem{Success: true, Task: task})
}

// @Summary Create task
// @Tags tasks
// @Accept json
// @Router /api/tasks [post]
func (h *TaskHandler) CreateTask(ctx *fasthttp.RequestCtx) {
	principal, ok := h.principal(ctx)
	if !ok {
		return
	}

	var req transport.TaskRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondInvalidPayload(ctx)
		return
	}

	in := taskUC.CreateInput{
		Title:       transport.Value(req.Title),
		Description: transport.Value(req.Description),
		Status:      transport.Value(req.Status),
		Priority:    transport.Value(req.Priority),
		AssignedTo:  transport.Value(req.AssignedTo),
	}
	if due := transport.Value(req.DueDate); due != "" {
		parsed, err := transport.ParseDueDate(due)
		if err != nil {
			h.respondError(ctx, err)
			return
		}
		in.DueDate = parsed
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	created, err := h.uc.CreateTask(stdCtx, principal, in)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondJSON(ctx, http.StatusCreated, transport.TaskItem{Success: true, Task: created})
}

// @Summary Update task
// @Tags tasks
// @Accept json
// @Router /api/tasks/{id} [put]
func (h *TaskHandler) UpdateTask(ctx *fasthttp.RequestCtx) {
	principal, ok := h.principal(ctx)
	if !ok {
		return
	}

	var req transport.TaskRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondInvalidPayload(ctx)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	// the body is decoded into a patch only once the task is known to be writable
	updated, err := h.uc.UpdateTaskFrom(stdCtx, principal, taskID(ctx), req)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondJSON(ctx, http.StatusOK, transport.TaskItem{Success: true, Task: updated})
}

// @Summary Update task status
// @Tags tasks
// @Router /api/tasks/{id}/status [patch]
func (h *TaskHandler) UpdateStatus(ctx *fasthttp.RequestCtx) {
	principal, ok := h.principal(ctx)
	if !ok {
		return
	}

	var req transport.StatusRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondInvalidPayload(ctx)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	updated, err := h.uc.UpdateStatus(stdCtx, principal, taskID(ctx), req.Status)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondJSON(ctx, http.StatusOK, transport.TaskItem{Success: true, Task: updated})
}

// @Summary Update task priority
// @Tags tasks
// @Router /api/tasks/{id}/priority [patch]
func (h *TaskHandler) UpdatePriority(ctx *fasthttp.RequestCtx) {
	principal, ok := h.principal(ctx)
	if !ok {
		return
	}

	var req transport.PriorityRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondInvalidPayload(ctx)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	updated, err := h.uc.UpdatePriority(stdCtx, principal, taskID(ctx), req.Priority)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondJSON(ctx, http.StatusOK, transport.TaskItem{Success: true, Task: updated})
}

// @Summary Delete task
// @Tags tasks
// @Router /api/tasks/{id} [delete]
func (h *TaskHandler) DeleteTask(ctx *fasthttp.RequestCtx) {
	principal, ok := h.principal(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.DeleteTask(stdCtx, principal, taskID(ctx)); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondJSON(ctx, http.StatusOK, transport.NewMessage(taskDeletedMessage))
}

func taskID(ctx *fasthttp.RequestCtx) string {
	id, _ := ctx.UserValue("id").(string)
	return id
}

func parseInt(value string, fallback int) int {
	if v, err := strconv.Atoi(value); err == nil {
		return v
	}
	return fallback
}
