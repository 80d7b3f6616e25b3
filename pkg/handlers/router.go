package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arnavshah/worker-allocator-go/pkg/models"
)

// Version is reported by the index route
const Version = "1.0.0"

// NewRouter builds the gin engine with every route registered
func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(h.RequestLogger(), gin.Recovery())

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Worker Allocation API",
			"version": Version,
		})
	})

	r.POST("/register", h.Register)
	r.POST("/token", h.Token)

	authed := r.Group("/")
	authed.Use(h.AuthMiddleware())
	{
		authed.GET("/employees/me", h.Me)
	}

	manager := r.Group("/")
	manager.Use(h.AuthMiddleware(), h.RequireRole(models.RoleManager))
	{
		manager.GET("/employees", h.ListEmployees)
		manager.POST("/employees", h.AddEmployee)
		manager.POST("/task", h.AllocateTask)
		manager.POST("/task/preview", h.PreviewTask)
		manager.GET("/tasks", h.ListTasks)
		manager.GET("/workload", h.GetWorkload)
		manager.GET("/usage", h.GetUsage)
	}

	return r
}
