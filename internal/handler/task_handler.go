package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	dtos "taskmirror/internal/model/DTOs"
	"taskmirror/internal/repositories"
	"taskmirror/internal/service"
)

// TaskHandler holds dependencies for HTTP handlers.
type TaskHandler struct {
	svc service.TaskService
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(s service.TaskService) *TaskHandler {
	return &TaskHandler{svc: s}
}

// CreateTask handles POST /tasks.
// A partial success (event mirrored, store down) is answered with 202 and a
// calendar_only status so clients can tell it apart from a full create.
func (h *TaskHandler) CreateTask(c *gin.Context) {
	var dto dtos.CreateTaskDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	candidate, err := dto.ToModel()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	res, err := h.svc.Create(ctx, candidate)
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input"})
			return
		}
		if errors.Is(err, repositories.ErrUnavailable) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "task store unreachable"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create task"})
		return
	}

	if res.CalendarOnly {
		c.JSON(http.StatusAccepted, gin.H{
			"status":            "calendar_only",
			"calendar_event_id": res.CalendarEventID,
			"message":           "event created in calendar; task store unavailable",
		})
		return
	}

	c.JSON(http.StatusCreated, res.Task)
}

// ListTasks handles GET /tasks
func (h *TaskHandler) ListTasks(c *gin.Context) {
	ctx := c.Request.Context()
	items, err := h.svc.List(ctx)
	if err != nil {
		if errors.Is(err, repositories.ErrUnavailable) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "task store unreachable"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list tasks"})
		return
	}

	c.Header("X-Total-Count", strconv.Itoa(len(items)))
	c.JSON(http.StatusOK, gin.H{
		"items": items,
		"total": len(items),
	})
}

// GetTask handles GET /tasks/:id
func (h *TaskHandler) GetTask(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing id"})
		return
	}

	ctx := c.Request.Context()
	t, err := h.svc.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch task"})
		return
	}
	c.JSON(http.StatusOK, t)
}

// UpdateTask handles PUT /tasks/:id with a partial update body.
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing id"})
		return
	}
	var dto dtos.UpdateTaskDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	patch, err := dto.ToPatch()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	updated, err := h.svc.Update(ctx, id, patch)
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if errors.Is(err, repositories.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update task"})
		return
	}

	c.JSON(http.StatusOK, updated)
}

// ToggleTask handles POST /tasks/:id/toggle
func (h *TaskHandler) ToggleTask(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing id"})
		return
	}

	ctx := c.Request.Context()
	t, err := h.svc.ToggleComplete(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
			return
		}
		if errors.Is(err, repositories.ErrUnavailable) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "task store unreachable"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to toggle task"})
		return
	}
	c.JSON(http.StatusOK, t)
}

// DeleteTask handles DELETE /tasks/:id. Deleting an id that is already gone
// still answers 204.
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing id"})
		return
	}

	ctx := c.Request.Context()
	if err := h.svc.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrUnavailable) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "task store unreachable"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete task"})
		return
	}

	c.Status(http.StatusNoContent)
}

// RefreshTasks handles POST /tasks/refresh
func (h *TaskHandler) RefreshTasks(c *gin.Context) {
	ctx := c.Request.Context()
	items, err := h.svc.Refresh(ctx)
	if err != nil {
		if errors.Is(err, repositories.ErrUnavailable) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "task store unreachable"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to refresh tasks"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"items": items,
		"total": len(items),
	})
}
