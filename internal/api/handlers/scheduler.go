// Package handlers holds echo handlers for subsystems without their own
// routes.
package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lazysearch/lazysearch/internal/scheduler"
)

// TaskRunner is the part of the scheduler the handlers use.
type TaskRunner interface {
	ListTasks() []scheduler.TaskInfo
	GetTask(taskID string) (*scheduler.TaskInfo, error)
	RunNow(taskID string) error
}

// SchedulerHandler handles scheduler-related API requests.
type SchedulerHandler struct {
	scheduler TaskRunner
}

// NewSchedulerHandler creates a new scheduler handler.
func NewSchedulerHandler(sched TaskRunner) *SchedulerHandler {
	return &SchedulerHandler{scheduler: sched}
}

// RegisterRoutes registers scheduler routes.
func (h *SchedulerHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/tasks", h.ListTasks)
	g.GET("/tasks/:id", h.GetTask)
	g.POST("/tasks/:id/run", h.RunTask)
}

// ListTasks returns all scheduled tasks.
// GET /api/v1/scheduler/tasks
func (h *SchedulerHandler) ListTasks(c echo.Context) error {
	return c.JSON(http.StatusOK, h.scheduler.ListTasks())
}

// GetTask returns information about a specific task.
// GET /api/v1/scheduler/tasks/:id
func (h *SchedulerHandler) GetTask(c echo.Context) error {
	task, err := h.scheduler.GetTask(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, task)
}

// RunTask manually triggers a task to run.
// POST /api/v1/scheduler/tasks/:id/run
func (h *SchedulerHandler) RunTask(c echo.Context) error {
	taskID := c.Param("id")
	if err := h.scheduler.RunNow(taskID); err != nil {
		status := http.StatusBadRequest
		switch {
		case errors.Is(err, scheduler.ErrTaskNotFound):
			status = http.StatusNotFound
		case errors.Is(err, scheduler.ErrTaskRunning):
			status = http.StatusConflict
		}
		return c.JSON(status, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusAccepted, map[string]string{
		"message": "Task started",
		"taskId":  taskID,
	})
}
