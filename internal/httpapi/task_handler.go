package httpapi

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/minisource/chronos"
	"github.com/minisource/chronos/trigger"
	"github.com/minisource/chronos/webhook"
)

// TaskHandler exposes the chronos facade as a REST surface.
type TaskHandler struct{}

func NewTaskHandler() *TaskHandler {
	return &TaskHandler{}
}

// TriggerSpec is the wire form of a trigger.Trigger, selected by Type.
type TriggerSpec struct {
	Type string `json:"type"`

	IntervalMillis     int64 `json:"interval_ms,omitempty"`
	InitialDelayMillis int64 `json:"initial_delay_ms,omitempty"`
	RepeatCount        *int  `json:"repeat_count,omitempty"`

	DelayMillis int64 `json:"delay_ms,omitempty"`

	Expression string `json:"expression,omitempty"`
	Zone       string `json:"zone,omitempty"`
}

func (spec TriggerSpec) build() (trigger.Trigger, error) {
	switch spec.Type {
	case "interval":
		t := trigger.NewInterval(time.Duration(spec.IntervalMillis) * time.Millisecond)
		if spec.InitialDelayMillis > 0 {
			t = t.WithInitialDelay(time.Duration(spec.InitialDelayMillis) * time.Millisecond)
		}
		if spec.RepeatCount != nil {
			t = t.WithRepeatCount(*spec.RepeatCount)
		}
		return t, nil
	case "delay":
		return trigger.NewDelay(time.Duration(spec.DelayMillis) * time.Millisecond), nil
	case "cron":
		t, err := trigger.NewCron(spec.Expression)
		if err != nil {
			return nil, err
		}
		if spec.Zone != "" {
			loc, err := time.LoadLocation(spec.Zone)
			if err != nil {
				return nil, err
			}
			t = t.WithZone(loc)
		}
		return t, nil
	default:
		return nil, trigger.ErrInvalid
	}
}

// CreateTaskRequest is the request body for POST /api/v1/tasks.
type CreateTaskRequest struct {
	ID      string         `json:"id,omitempty"`
	Trigger TriggerSpec    `json:"trigger"`
	Webhook webhook.Config `json:"webhook"`
}

// TaskView is the response shape for a single task.
type TaskView struct {
	ID       string     `json:"id"`
	Paused   bool       `json:"paused"`
	NextFire *time.Time `json:"next_fire,omitempty"`
	PrevFire *time.Time `json:"prev_fire,omitempty"`
}

func viewOf(h *chronos.TaskHandle) TaskView {
	view := TaskView{ID: h.ID()}
	if paused, err := h.IsPaused(); err == nil {
		view.Paused = paused
	}
	if next, ok := h.NextFireTime(); ok {
		view.NextFire = &next
	}
	if prev, ok := h.PreviousFireTime(); ok {
		view.PrevFire = &prev
	}
	return view
}

// Create handles POST /api/v1/tasks.
//
// @Summary Create a task
// @Description Schedule a new task from a trigger and webhook definition
// @Tags tasks
// @Accept json
// @Produce json
// @Param request body CreateTaskRequest true "Task creation request"
// @Success 201 {object} Response{data=TaskView}
// @Failure 400 {object} Response
// @Router /api/v1/tasks [post]
func (h *TaskHandler) Create(c *fiber.Ctx) error {
	var req CreateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	t, err := req.Trigger.build()
	if err != nil {
		return badRequest(c, err.Error())
	}

	callable := webhook.New(req.Webhook)

	handle, err := chronos.NewTask(callable).WithID(req.ID).WithTrigger(t).Schedule()
	if err != nil {
		if errors.Is(err, chronos.ErrDuplicateTaskID) {
			return conflict(c, err.Error())
		}
		return badRequest(c, err.Error())
	}

	return created(c, viewOf(handle))
}

// List handles GET /api/v1/tasks.
//
// @Summary List tasks
// @Tags tasks
// @Produce json
// @Success 200 {object} Response{data=[]TaskView}
// @Router /api/v1/tasks [get]
func (h *TaskHandler) List(c *fiber.Ctx) error {
	handles := chronos.GetAllTasks()
	views := make([]TaskView, len(handles))
	for i, handle := range handles {
		views[i] = viewOf(handle)
	}
	return success(c, views)
}

// Get handles GET /api/v1/tasks/:id.
//
// @Summary Get a task
// @Tags tasks
// @Produce json
// @Param id path string true "Task ID"
// @Success 200 {object} Response{data=TaskView}
// @Failure 404 {object} Response
// @Router /api/v1/tasks/{id} [get]
func (h *TaskHandler) Get(c *fiber.Ctx) error {
	handle, err := chronos.GetTask(c.Params("id"))
	if err != nil {
		return notFound(c, err.Error())
	}
	return success(c, viewOf(handle))
}

// Delete handles DELETE /api/v1/tasks/:id.
//
// @Summary Delete a task
// @Tags tasks
// @Param id path string true "Task ID"
// @Success 204 "No Content"
// @Failure 404 {object} Response
// @Router /api/v1/tasks/{id} [delete]
func (h *TaskHandler) Delete(c *fiber.Ctx) error {
	if !chronos.DeleteTask(c.Params("id")) {
		return notFound(c, "task not found")
	}
	return noContent(c)
}

// Pause handles POST /api/v1/tasks/:id/pause.
//
// @Summary Pause a task
// @Tags tasks
// @Param id path string true "Task ID"
// @Success 200 {object} Response{data=TaskView}
// @Failure 404 {object} Response
// @Router /api/v1/tasks/{id}/pause [post]
func (h *TaskHandler) Pause(c *fiber.Ctx) error {
	handle, err := chronos.GetTask(c.Params("id"))
	if err != nil {
		return notFound(c, err.Error())
	}
	if err := handle.Pause(); err != nil {
		return notFound(c, err.Error())
	}
	return success(c, viewOf(handle))
}

// Resume handles POST /api/v1/tasks/:id/resume.
//
// @Summary Resume a task
// @Tags tasks
// @Param id path string true "Task ID"
// @Success 200 {object} Response{data=TaskView}
// @Failure 404 {object} Response
// @Router /api/v1/tasks/{id}/resume [post]
func (h *TaskHandler) Resume(c *fiber.Ctx) error {
	handle, err := chronos.GetTask(c.Params("id"))
	if err != nil {
		return notFound(c, err.Error())
	}
	if err := handle.Resume(); err != nil {
		return notFound(c, err.Error())
	}
	return success(c, viewOf(handle))
}

// Trigger handles POST /api/v1/tasks/:id/trigger.
//
// @Summary Trigger a task immediately
// @Tags tasks
// @Param id path string true "Task ID"
// @Success 200 {object} Response
// @Failure 404 {object} Response
// @Router /api/v1/tasks/{id}/trigger [post]
func (h *TaskHandler) Trigger(c *fiber.Ctx) error {
	handle, err := chronos.GetTask(c.Params("id"))
	if err != nil {
		return notFound(c, err.Error())
	}
	if err := handle.TriggerNow(); err != nil {
		return notFound(c, err.Error())
	}
	return success(c, nil)
}

// Reschedule handles PUT /api/v1/tasks/:id/schedule.
//
// @Summary Reschedule a task
// @Tags tasks
// @Accept json
// @Param id path string true "Task ID"
// @Param request body TriggerSpec true "New trigger"
// @Success 200 {object} Response{data=TaskView}
// @Failure 400 {object} Response
// @Failure 404 {object} Response
// @Router /api/v1/tasks/{id}/schedule [put]
func (h *TaskHandler) Reschedule(c *fiber.Ctx) error {
	var spec TriggerSpec
	if err := c.BodyParser(&spec); err != nil {
		return badRequest(c, "invalid request body")
	}

	t, err := spec.build()
	if err != nil {
		return badRequest(c, err.Error())
	}

	if err := chronos.Reschedule(c.Params("id"), t); err != nil {
		if errors.Is(err, chronos.ErrTaskNotFound) {
			return notFound(c, err.Error())
		}
		return badRequest(c, err.Error())
	}

	handle, err := chronos.GetTask(c.Params("id"))
	if err != nil {
		return notFound(c, err.Error())
	}
	return success(c, viewOf(handle))
}
