package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/arnavshah/worker-allocator-go/pkg/auth"
	"github.com/arnavshah/worker-allocator-go/pkg/config"
	"github.com/arnavshah/worker-allocator-go/pkg/database"
)

type testServer struct {
	router *gin.Engine
	store  *database.Store
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.InitDB(&config.Config{
		DataPath: fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()),
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	store := database.NewStore(db)
	h := New(store, auth.New("test-secret", time.Hour, bcrypt.MinCost))
	return &testServer{router: NewRouter(h), store: store}
}

func (s *testServer) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) register(t *testing.T, body gin.H) *httptest.ResponseRecorder {
	t.Helper()
	return s.do(t, http.MethodPost, "/register", body, "")
}

func (s *testServer) login(t *testing.T, username, password string) string {
	t.Helper()
	form := url.Values{"username": {username}, "password": {password}}
	req := httptest.NewRequest(http.MethodPost, "/token", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, "bearer", resp.TokenType)
	require.NotEmpty(t, resp.AccessToken)
	return resp.AccessToken
}

func (s *testServer) manager(t *testing.T, name string) string {
	t.Helper()
	w := s.register(t, gin.H{"name": name, "password": "pw", "skills": []string{}, "maxWeeklyHours": 40, "availability": []string{}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return s.login(t, name, "pw")
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

func pythonTask(start string, hours float64) gin.H {
	return gin.H{"skills": []string{"Python"}, "time": start, "hoursRequired": hours, "members": 1}
}

func TestRegisterAndLoginManager(t *testing.T) {
	s := newTestServer(t)

	w := s.register(t, gin.H{
		"name":           "TestManager",
		"availability":   []string{},
		"skills":         []string{"Management"},
		"maxWeeklyHours": 40,
		"password":       "managerpassword",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "manager", decode[map[string]any](t, w)["role"])
	assert.NotContains(t, w.Body.String(), "managerpassword")

	s.login(t, "TestManager", "managerpassword")
}

func TestLoginWrongPassword(t *testing.T) {
	s := newTestServer(t)
	s.manager(t, "boss")

	form := url.Values{"username": {"boss"}, "password": {"nope"}}
	req := httptest.NewRequest(http.MethodPost, "/token", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestManagerAddsEmployee(t *testing.T) {
	s := newTestServer(t)
	token := s.manager(t, "ManagerUser")

	w := s.do(t, http.MethodPost, "/employees", gin.H{
		"name":           "NewDev",
		"availability":   []string{"2025-01-01", "2025-12-31"},
		"skills":         []string{"Python"},
		"maxWeeklyHours": 40,
		"password":       "devpassword",
		"role":           "employee",
	}, token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	body := decode[map[string]any](t, w)
	assert.Equal(t, "NewDev", body["name"])
	assert.Equal(t, "employee", body["role"])
}

func TestEmployeeCannotAccessManagerRoute(t *testing.T) {
	s := newTestServer(t)
	s.manager(t, "TestManager")
	w := s.register(t, gin.H{"name": "TestEmployee", "password": "pw2", "skills": []string{}, "maxWeeklyHours": 40, "availability": []string{}})
	require.Equal(t, http.StatusCreated, w.Code)
	token := s.login(t, "TestEmployee", "pw2")

	w = s.do(t, http.MethodGet, "/employees", nil, token)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Not enough permissions", decode[map[string]any](t, w)["error"])

	w = s.do(t, http.MethodGet, "/employees/me", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "TestEmployee", decode[map[string]any](t, w)["name"])
}

func TestMissingToken(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/employees", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodGet, "/employees", nil, "garbage")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestTaskAllocationFailsWithNoSuitableEmployees(t *testing.T) {
	s := newTestServer(t)
	token := s.manager(t, "Manager")

	w := s.do(t, http.MethodPost, "/task", gin.H{
		"skills":        []string{"QuantumComputing"},
		"time":          "2025-10-10T09:00:00",
		"hoursRequired": 8,
		"members":       1,
	}, token)
	require.Equal(t, http.StatusConflict, w.Code)

	body := decode[map[string]any](t, w)
	assert.Equal(t, "Not suitable employees...", body["error"])
	assert.Equal(t, float64(0), body["available"])
}

func TestRegisterDuplicateUsernameFails(t *testing.T) {
	s := newTestServer(t)
	user := gin.H{"name": "DuplicateUser", "password": "pw1", "skills": []string{}, "maxWeeklyHours": 40, "availability": []string{}}

	w := s.register(t, user)
	require.Equal(t, http.StatusCreated, w.Code)

	user["password"] = "pw2"
	w = s.register(t, user)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "A user with this name already exists.", decode[map[string]any](t, w)["error"])
}

func TestSuccessfulTaskAllocation(t *testing.T) {
	s := newTestServer(t)
	token := s.manager(t, "ManagerForTask")
	w := s.register(t, gin.H{
		"name":           "PythonDev",
		"availability":   []string{"2025-01-01", "2025-12-31"},
		"skills":         []string{"Python", "SQL"},
		"maxWeeklyHours": 10,
		"password":       "devpw",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = s.do(t, http.MethodPost, "/task", pythonTask("2025-10-10T09:00:00", 8), token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	allotted := decode[[]map[string]any](t, w)
	require.Len(t, allotted, 1)
	assert.Equal(t, "PythonDev", allotted[0]["name"])
	assert.Equal(t, 8.0, allotted[0]["hoursWorked"])

	w = s.do(t, http.MethodGet, "/tasks", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	tasks := decode[map[string][]database.TaskRecord](t, w)["tasks"]
	require.Len(t, tasks, 1)
	assert.Equal(t, database.TaskAllocated, tasks[0].Status)
}

func TestEmployeeRejectedDueToHighFatigue(t *testing.T) {
	s := newTestServer(t)
	token := s.manager(t, "ManagerForFatigueTest")
	w := s.register(t, gin.H{
		"name":           "TiredDev",
		"availability":   []string{"2025-01-01", "2025-12-31"},
		"skills":         []string{"Python"},
		"maxWeeklyHours": 10,
		"password":       "devpw",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = s.do(t, http.MethodPost, "/task", pythonTask("2025-10-01T09:00:00", 8), token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	tired, err := s.store.FindEmployeeByName(context.Background(), "TiredDev")
	require.NoError(t, err)
	require.NoError(t, s.store.DB.Model(tired).Update("fatigue", 2).Error)

	w = s.do(t, http.MethodPost, "/task", pythonTask("2025-10-02T09:00:00", 4), token)
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "Not suitable employees...", decode[map[string]any](t, w)["error"])
}

func TestTaskValidation(t *testing.T) {
	s := newTestServer(t)
	token := s.manager(t, "Manager")

	for _, body := range []gin.H{
		{"skills": []string{}, "time": "2025-10-10T09:00:00", "hoursRequired": 8, "members": 0},
		{"skills": []string{}, "time": "2025-10-10T09:00:00", "hoursRequired": -1, "members": 1},
		{"skills": []string{}, "time": "not a time", "hoursRequired": 8, "members": 1},
		{"skills": []string{}, "hoursRequired": 8, "members": 1},
	} {
		w := s.do(t, http.MethodPost, "/task", body, token)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}
}

func TestPreviewDoesNotCommit(t *testing.T) {
	s := newTestServer(t)
	token := s.manager(t, "Manager")
	w := s.register(t, gin.H{
		"name":           "Dev",
		"availability":   []string{"2025-01-01", "2025-12-31"},
		"skills":         []string{"Python"},
		"maxWeeklyHours": 40,
		"password":       "pw",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = s.do(t, http.MethodPost, "/task/preview", pythonTask("2025-10-10T09:00:00", 8), token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode[map[string]any](t, w)
	assert.Equal(t, true, body["valid"])
	assert.Len(t, body["allocated"], 1)

	dev, err := s.store.FindEmployeeByName(context.Background(), "Dev")
	require.NoError(t, err)
	assert.Equal(t, 0.0, dev.HoursWorked)
	assert.Empty(t, dev.RecentShiftEnds)
}

func TestWorkloadAndUsage(t *testing.T) {
	s := newTestServer(t)
	token := s.manager(t, "Manager")
	w := s.register(t, gin.H{
		"name":           "Dev",
		"availability":   []string{"2025-01-01", "2025-12-31"},
		"skills":         []string{"Python"},
		"maxWeeklyHours": 40,
		"password":       "pw",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = s.do(t, http.MethodPost, "/task", pythonTask("2025-10-10T09:00:00", 8), token)
	require.Equal(t, http.StatusOK, w.Code)
	w = s.do(t, http.MethodPost, "/task", pythonTask("2025-10-10T10:00:00", 8), token)
	require.Equal(t, http.StatusConflict, w.Code)

	w = s.do(t, http.MethodGet, "/workload", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	workload := decode[map[string]any](t, w)
	assert.Len(t, workload["workers"], 2)
	assert.Equal(t, 0.0, workload["fairness_score"])

	w = s.do(t, http.MethodGet, "/usage", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	usage := decode[struct {
		History []database.AllocationUsage `json:"usage_history"`
		Totals  map[string]int64           `json:"totals"`
	}](t, w)
	require.Len(t, usage.History, 1)
	assert.Equal(t, int64(2), usage.Totals["requests"])
	assert.Equal(t, int64(1), usage.Totals["allocated_workers"])
	assert.Equal(t, int64(1), usage.Totals["failed_requests"])
}
