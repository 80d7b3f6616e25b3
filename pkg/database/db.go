package database

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/arnavshah/worker-allocator-go/pkg/config"
	"github.com/arnavshah/worker-allocator-go/pkg/models"
)

// Employee represents the employees table. Every account is a worker that
// can be allocated; managers additionally may drive allocations.
type Employee struct {
	ID              uint        `gorm:"primaryKey" json:"id"`
	Name            string      `gorm:"unique;not null" json:"name"`
	PasswordHash    string      `gorm:"not null" json:"-"`
	Role            string      `gorm:"not null;default:employee" json:"role"`
	Skills          []string    `gorm:"serializer:json" json:"skills"`
	Availability    []time.Time `gorm:"serializer:json" json:"availability"`
	MaxWeeklyHours  float64     `json:"maxWeeklyHours"`
	HoursWorked     float64     `gorm:"default:0" json:"hoursWorked"`
	Fatigue         int         `gorm:"default:0" json:"fatigue"`
	RecentShiftEnds []time.Time `gorm:"serializer:json" json:"recentShift"`
	CreatedAt       time.Time   `json:"created_at"`
}

// ToWorker converts the row into the allocation model
func (e *Employee) ToWorker() *models.Worker {
	w := &models.Worker{
		ID:              e.ID,
		Name:            e.Name,
		Role:            e.Role,
		Skills:          e.Skills,
		Availability:    e.Availability,
		MaxWeeklyHours:  e.MaxWeeklyHours,
		HoursWorked:     e.HoursWorked,
		Fatigue:         e.Fatigue,
		RecentShiftEnds: e.RecentShiftEnds,
	}
	if w.Skills == nil {
		w.Skills = []string{}
	}
	if w.Availability == nil {
		w.Availability = []time.Time{}
	}
	if w.RecentShiftEnds == nil {
		w.RecentShiftEnds = []time.Time{}
	}
	return w
}

// Task statuses
const (
	TaskAllocated = "allocated"
	TaskUnfilled  = "unfilled"
)

// TaskRecord represents the task_records table, the history of allocation requests
type TaskRecord struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Skills        []string  `gorm:"serializer:json" json:"skills"`
	StartTime     time.Time `gorm:"not null" json:"time"`
	EndTime       time.Time `gorm:"not null" json:"end"`
	HoursRequired float64   `gorm:"not null" json:"hoursRequired"`
	Members       int       `gorm:"not null" json:"members"`
	Status        string    `gorm:"not null;index" json:"status"`
	WorkerIDs     []uint    `gorm:"serializer:json" json:"worker_ids"`
	CreatedAt     time.Time `json:"created_at"`
}

// AllocationUsage represents the allocation_usages table
type AllocationUsage struct {
	ID               uint   `gorm:"primaryKey" json:"id"`
	Date             string `gorm:"uniqueIndex;not null" json:"date"`
	RequestCount     int    `gorm:"default:0" json:"request_count"`
	AllocatedWorkers int    `gorm:"default:0" json:"allocated_workers"`
	FailedRequests   int    `gorm:"default:0" json:"failed_requests"`
}

// InitDB initializes the database connection and migrates the schema
func InitDB(cfg *config.Config) (*gorm.DB, error) {
	var db *gorm.DB
	var err error

	level := logger.Warn
	if cfg.Debug {
		level = logger.Info
	}
	gormConfig := &gorm.Config{Logger: logger.Default.LogMode(level)}

	if cfg.DatabaseURL != "" {
		gormConfig.PrepareStmt = false
		db, err = gorm.Open(postgres.New(postgres.Config{
			DSN:                  cfg.DatabaseURL,
			PreferSimpleProtocol: true,
		}), gormConfig)
	} else {
		dbPath := cfg.DataPath
		if dbPath == "" {
			dbPath = "workers.db"
		}
		db, err = gorm.Open(sqlite.Open(dbPath), gormConfig)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	if err := db.AutoMigrate(&Employee{}, &TaskRecord{}, &AllocationUsage{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	return db, nil
}
