package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arnavshah/worker-allocator-go/pkg/models"
	"github.com/arnavshah/worker-allocator-go/pkg/scheduler"
)

type taskInput struct {
	Skills        []string `json:"skills"`
	Time          string   `json:"time" binding:"required"`
	HoursRequired float64  `json:"hoursRequired" binding:"required,gt=0"`
	Members       int      `json:"members" binding:"required,gte=1"`
}

// bindTask validates the request body and builds the allocation request
func bindTask(c *gin.Context) (models.Task, bool) {
	var in taskInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return models.Task{}, false
	}

	start, err := models.ParseTimestamp(in.Time)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return models.Task{}, false
	}

	skills := in.Skills
	if skills == nil {
		skills = []string{}
	}
	return models.Task{
		RequiredSkills: skills,
		Start:          start,
		HoursRequired:  in.HoursRequired,
		MembersNeeded:  in.Members,
	}, true
}

// AllocateTask allocates workers to a task and persists the result
func (h *Handler) AllocateTask(c *gin.Context) {
	task, ok := bindTask(c)
	if !ok {
		return
	}

	res, err := h.Allocator.Run(c.Request.Context(), task)
	if errors.Is(err, scheduler.ErrInsufficientCapacity) {
		c.JSON(http.StatusConflict, gin.H{
			"error":      "Not suitable employees...",
			"requested":  task.MembersNeeded,
			"available":  len(res.Allocated),
			"rejections": res.RejectionSummary(),
		})
		return
	}
	if err != nil {
		slog.Error("allocation failed", slog.String("request_id", c.GetString("requestID")), slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not allocate task"})
		return
	}

	c.JSON(http.StatusOK, res.Allocated)
}

// ListTasks returns the allocation history, newest first
func (h *Handler) ListTasks(c *gin.Context) {
	tasks, err := h.Store.ListTasks(c.Request.Context(), 100)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not list tasks"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}
