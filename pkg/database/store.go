package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/arnavshah/worker-allocator-go/pkg/models"
	"github.com/arnavshah/worker-allocator-go/pkg/scheduler"
)

var (
	ErrDuplicateName = errors.New("a user with this name already exists")
	ErrNotFound      = errors.New("not found")
)

// Store is the gorm backed worker repository
type Store struct {
	DB *gorm.DB
}

var _ scheduler.Repository = (*Store)(nil)

// NewStore creates a new store
func NewStore(db *gorm.DB) *Store {
	return &Store{DB: db}
}

// ListWorkers returns every employee as an allocation worker, in id order
func (s *Store) ListWorkers(ctx context.Context) ([]*models.Worker, error) {
	var rows []Employee
	if err := s.DB.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	workers := make([]*models.Worker, 0, len(rows))
	for i := range rows {
		workers = append(workers, rows[i].ToWorker())
	}
	return workers, nil
}

// CommitAllocation writes the post-allocation state of the touched workers,
// records the task and bumps today's usage counters in one transaction
func (s *Store) CommitAllocation(ctx context.Context, task models.Task, res *scheduler.Result, allocated bool) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, w := range res.Touched {
			err := tx.Model(&Employee{ID: w.ID}).
				Select("fatigue", "hours_worked", "recent_shift_ends").
				Updates(Employee{
					Fatigue:         w.Fatigue,
					HoursWorked:     w.HoursWorked,
					RecentShiftEnds: w.RecentShiftEnds,
				}).Error
			if err != nil {
				return fmt.Errorf("update worker %d: %w", w.ID, err)
			}
		}

		status := TaskUnfilled
		if allocated {
			status = TaskAllocated
		}
		workerIDs := res.AllocatedIDs()
		record := TaskRecord{
			Skills:        task.RequiredSkills,
			StartTime:     task.Start,
			EndTime:       task.End(),
			HoursRequired: task.HoursRequired,
			Members:       task.MembersNeeded,
			Status:        status,
			WorkerIDs:     workerIDs,
		}
		if err := tx.Create(&record).Error; err != nil {
			return fmt.Errorf("record task: %w", err)
		}

		filled := 0
		if allocated {
			filled = len(workerIDs)
		}
		return recordUsage(tx, filled, !allocated)
	})
}

// recordUsage upserts today's usage row
func recordUsage(tx *gorm.DB, allocatedWorkers int, failed bool) error {
	failedCount := 0
	if failed {
		failedCount = 1
	}

	today := time.Now().Format("2006-01-02")

	return tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "date"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"request_count":     gorm.Expr("request_count + ?", 1),
			"allocated_workers": gorm.Expr("allocated_workers + ?", allocatedWorkers),
			"failed_requests":   gorm.Expr("failed_requests + ?", failedCount),
		}),
	}).Create(&AllocationUsage{
		Date:             today,
		RequestCount:     1,
		AllocatedWorkers: allocatedWorkers,
		FailedRequests:   failedCount,
	}).Error
}

// CreateEmployee inserts a new employee, refusing duplicate names
func (s *Store) CreateEmployee(ctx context.Context, e *Employee) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return createEmployee(tx, e)
	})
}

// Register inserts a self-registered employee. The first account becomes
// the manager; every later one is an employee.
func (s *Store) Register(ctx context.Context, e *Employee) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&Employee{}).Count(&count).Error; err != nil {
			return err
		}
		e.Role = models.RoleEmployee
		if count == 0 {
			e.Role = models.RoleManager
		}
		return createEmployee(tx, e)
	})
}

func createEmployee(tx *gorm.DB, e *Employee) error {
	var count int64
	if err := tx.Model(&Employee{}).Where("name = ?", e.Name).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrDuplicateName
	}
	if e.Role == "" {
		e.Role = models.RoleEmployee
	}
	return tx.Create(e).Error
}

// FindEmployeeByName looks up an employee by its unique name
func (s *Store) FindEmployeeByName(ctx context.Context, name string) (*Employee, error) {
	var e Employee
	err := s.DB.WithContext(ctx).Where("name = ?", name).First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// ListEmployees returns all employees in id order
func (s *Store) ListEmployees(ctx context.Context) ([]Employee, error) {
	var rows []Employee
	err := s.DB.WithContext(ctx).Order("id").Find(&rows).Error
	return rows, err
}

// CountEmployees returns the number of accounts
func (s *Store) CountEmployees(ctx context.Context) (int64, error) {
	var count int64
	err := s.DB.WithContext(ctx).Model(&Employee{}).Count(&count).Error
	return count, err
}

// ListTasks returns the most recent task records first
func (s *Store) ListTasks(ctx context.Context, limit int) ([]TaskRecord, error) {
	var rows []TaskRecord
	err := s.DB.WithContext(ctx).Order("id desc").Limit(limit).Find(&rows).Error
	return rows, err
}

// ListUsage returns the most recent daily usage rows first
func (s *Store) ListUsage(ctx context.Context, limit int) ([]AllocationUsage, error) {
	var rows []AllocationUsage
	err := s.DB.WithContext(ctx).Order("date desc").Limit(limit).Find(&rows).Error
	return rows, err
}
