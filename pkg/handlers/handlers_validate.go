package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arnavshah/worker-allocator-go/pkg/scheduler"
)

// PreviewTask runs an allocation pass against the current pool without
// committing it, so a manager can see who would be picked and why others
// would be skipped
func (h *Handler) PreviewTask(c *gin.Context) {
	task, ok := bindTask(c)
	if !ok {
		return
	}

	res, err := h.Allocator.Preview(c.Request.Context(), task)
	if err != nil && !errors.Is(err, scheduler.ErrInsufficientCapacity) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not preview task"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"valid":      err == nil,
		"allocated":  res.Allocated,
		"rejections": res.Rejections,
		"stats": gin.H{
			"pool_size": len(res.Workers),
			"requested": task.MembersNeeded,
			"available": len(res.Allocated),
		},
	})
}
