package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/arnavshah/worker-allocator-go/pkg/models"
)

// Repository is the persistence the allocation service needs
type Repository interface {
	ListWorkers(ctx context.Context) ([]*models.Worker, error)
	// CommitAllocation persists the touched workers of res and records the
	// task, in a single transaction. allocated reports whether the quota was met.
	CommitAllocation(ctx context.Context, task models.Task, res *Result, allocated bool) error
}

// Service runs allocation passes against a repository. Passes are serialized
// since every pass reads and writes the same worker records.
type Service struct {
	Repo Repository

	mu sync.Mutex
}

// NewService creates a new allocation service
func NewService(repo Repository) *Service {
	return &Service{Repo: repo}
}

// Run snapshots the pool, allocates task and commits the result. Workers
// mutated by a failed pass are committed as well; callers get
// ErrInsufficientCapacity together with the result.
func (s *Service) Run(ctx context.Context, task models.Task) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pool, err := s.Repo.ListWorkers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load worker pool: %w", err)
	}

	res, allocErr := Allocate(task, pool)
	if allocErr != nil && !errors.Is(allocErr, ErrInsufficientCapacity) {
		return nil, allocErr
	}

	if err := s.Repo.CommitAllocation(ctx, task, res, allocErr == nil); err != nil {
		return nil, fmt.Errorf("failed to commit allocation: %w", err)
	}

	slog.Info("allocation pass finished",
		slog.Int("pool", len(pool)),
		slog.Int("requested", task.MembersNeeded),
		slog.Int("allocated", len(res.Allocated)),
		slog.Int("touched", len(res.Touched)),
		slog.Bool("filled", allocErr == nil),
	)

	return res, allocErr
}

// Preview runs an allocation pass against the current pool without
// committing anything
func (s *Service) Preview(ctx context.Context, task models.Task) (*Result, error) {
	s.mu.Lock()
	pool, err := s.Repo.ListWorkers(ctx)
	s.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("failed to load worker pool: %w", err)
	}
	return Allocate(task, pool)
}
