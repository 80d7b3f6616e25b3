package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/arnavshah/worker-allocator-go/pkg/auth"
	"github.com/arnavshah/worker-allocator-go/pkg/database"
	"github.com/arnavshah/worker-allocator-go/pkg/models"
	"github.com/arnavshah/worker-allocator-go/pkg/scheduler"
)

// Handler contains dependencies for the route handlers
type Handler struct {
	Store     *database.Store
	Auth      *auth.Authenticator
	Allocator *scheduler.Service
}

// New creates a Handler whose allocation service is backed by store
func New(store *database.Store, authenticator *auth.Authenticator) *Handler {
	return &Handler{
		Store:     store,
		Auth:      authenticator,
		Allocator: scheduler.NewService(store),
	}
}

// RequestLogger tags every request with an id and writes an access log line
func (h *Handler) RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set("requestID", requestID)
		c.Header("X-Request-ID", requestID)

		start := time.Now()
		c.Next()

		slog.Info("request",
			slog.String("request_id", requestID),
			slog.String("method", c.Request.Method),
			slog.String("path", c.FullPath()),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("latency", time.Since(start)),
		)
	}
}

// AuthMiddleware verifies the bearer token
func (h *Handler) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader("Authorization")
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}

		token = strings.TrimPrefix(token, "Bearer ")

		claims, err := h.Auth.VerifyToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			c.Abort()
			return
		}

		c.Set("username", claims.Username)
		c.Set("role", claims.Role)
		c.Next()
	}
}

// RequireRole rejects callers whose token carries none of roles
func (h *Handler) RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString("role")
		for _, r := range roles {
			if r == role {
				c.Next()
				return
			}
		}
		c.JSON(http.StatusForbidden, gin.H{"error": "Not enough permissions"})
		c.Abort()
	}
}

type employeeInput struct {
	Name           string   `json:"name" binding:"required"`
	Password       string   `json:"password" binding:"required"`
	Availability   []string `json:"availability"`
	Skills         []string `json:"skills"`
	MaxWeeklyHours float64  `json:"maxWeeklyHours" binding:"gte=0"`
	Role           string   `json:"role" binding:"omitempty,oneof=manager employee"`
}

func (h *Handler) newEmployee(in employeeInput) (*database.Employee, error) {
	availability, err := models.ParseTimestamps(in.Availability)
	if err != nil {
		return nil, err
	}
	hash, err := h.Auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	skills := in.Skills
	if skills == nil {
		skills = []string{}
	}
	return &database.Employee{
		Name:            in.Name,
		PasswordHash:    hash,
		Role:            in.Role,
		Skills:          skills,
		Availability:    availability,
		MaxWeeklyHours:  in.MaxWeeklyHours,
		RecentShiftEnds: []time.Time{},
	}, nil
}

// Register handles self registration. The first account becomes the manager.
func (h *Handler) Register(c *gin.Context) {
	var in employeeInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	e, err := h.newEmployee(in)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.Store.Register(c.Request.Context(), e); err != nil {
		h.writeCreateError(c, err)
		return
	}

	c.JSON(http.StatusCreated, e)
}

// AddEmployee lets a manager create an account with an explicit role
func (h *Handler) AddEmployee(c *gin.Context) {
	var in employeeInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	e, err := h.newEmployee(in)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.Store.CreateEmployee(c.Request.Context(), e); err != nil {
		h.writeCreateError(c, err)
		return
	}

	c.JSON(http.StatusCreated, e)
}

func (h *Handler) writeCreateError(c *gin.Context, err error) {
	if errors.Is(err, database.ErrDuplicateName) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "A user with this name already exists."})
		return
	}
	slog.Error("could not create employee", slog.Any("error", err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not create employee"})
}

// Token handles the password login form and returns a bearer token
func (h *Handler) Token(c *gin.Context) {
	var req struct {
		Username string `form:"username" binding:"required"`
		Password string `form:"password" binding:"required"`
	}

	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.Store.FindEmployeeByName(c.Request.Context(), req.Username)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Incorrect username or password"})
		return
	}

	if !h.Auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Incorrect username or password"})
		return
	}

	token, err := h.Auth.CreateToken(user.Name, user.Role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not create token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"access_token": token, "token_type": "bearer"})
}

// ListEmployees returns every employee
func (h *Handler) ListEmployees(c *gin.Context) {
	employees, err := h.Store.ListEmployees(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not list employees"})
		return
	}
	c.JSON(http.StatusOK, employees)
}

// Me returns the caller's own record
func (h *Handler) Me(c *gin.Context) {
	e, err := h.Store.FindEmployeeByName(c.Request.Context(), c.GetString("username"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Employee not found"})
		return
	}
	c.JSON(http.StatusOK, e)
}
