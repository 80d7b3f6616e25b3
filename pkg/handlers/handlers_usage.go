package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arnavshah/worker-allocator-go/pkg/scheduler"
)

// GetUsage returns daily allocation usage for the last 30 days
func (h *Handler) GetUsage(c *gin.Context) {
	usage, err := h.Store.ListUsage(c.Request.Context(), 30)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not fetch usage details"})
		return
	}

	// Calculate totals
	var totalRequests, totalAllocated, totalFailed int64
	for _, u := range usage {
		totalRequests += int64(u.RequestCount)
		totalAllocated += int64(u.AllocatedWorkers)
		totalFailed += int64(u.FailedRequests)
	}

	c.JSON(http.StatusOK, gin.H{
		"usage_history": usage,
		"totals": gin.H{
			"requests":          totalRequests,
			"allocated_workers": totalAllocated,
			"failed_requests":   totalFailed,
		},
	})
}

// GetWorkload reports each worker's fatigue and hours plus how evenly the
// hours are spread across the pool
func (h *Handler) GetWorkload(c *gin.Context) {
	workers, err := h.Store.ListWorkers(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not load workers"})
		return
	}

	rows := make([]gin.H, 0, len(workers))
	for _, w := range workers {
		row := gin.H{
			"id":             w.ID,
			"name":           w.Name,
			"fatigue":        w.Fatigue,
			"hoursWorked":    w.HoursWorked,
			"maxWeeklyHours": w.MaxWeeklyHours,
			"eligible":       w.Fatigue < scheduler.MaxFatigue,
		}
		if last, ok := w.LastShiftEnd(); ok {
			row["lastShiftEnd"] = last
		}
		rows = append(rows, row)
	}

	c.JSON(http.StatusOK, gin.H{
		"workers":        rows,
		"fairness_score": scheduler.FairnessScore(workers),
	})
}
