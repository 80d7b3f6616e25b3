package scheduler

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/arnavshah/worker-allocator-go/pkg/models"
)

const (
	// MaxFatigue is the fatigue level at which a worker is no longer eligible
	MaxFatigue = 4

	RestPeriod        = 7 * 24 * time.Hour
	BackToBackWindow  = 24 * time.Hour
	BackToBackPenalty = 1
	OvertimePenalty   = 2
)

// ErrInsufficientCapacity is returned when the pool cannot supply the
// requested number of workers
var ErrInsufficientCapacity = errors.New("insufficient capacity")

// Result is the outcome of a single allocation pass
type Result struct {
	// Allocated holds accepted workers in acceptance order
	Allocated []*models.Worker
	// Touched holds every worker whose state changed, in pool order
	Touched []*models.Worker
	// Workers is the full post-allocation pool, in its original order
	Workers    []*models.Worker
	Rejections []models.Rejection
}

// AllocatedIDs returns the ids of the allocated workers
func (r *Result) AllocatedIDs() []uint {
	ids := make([]uint, 0, len(r.Allocated))
	for _, w := range r.Allocated {
		ids = append(ids, w.ID)
	}
	return ids
}

// RejectionSummary counts rejections per reason
func (r *Result) RejectionSummary() map[string]int {
	summary := make(map[string]int)
	for _, rej := range r.Rejections {
		summary[rej.Reason]++
	}
	return summary
}

// Allocate picks task.MembersNeeded workers from pool in a single greedy pass,
// least fatigued first. pool is never modified: the pass works on copies and
// returns them in the Result.
func Allocate(task models.Task, pool []*models.Worker) (*Result, error) {
	workers := make([]*models.Worker, len(pool))
	for i, w := range pool {
		workers[i] = w.Clone()
	}

	res := &Result{Workers: workers}
	if task.MembersNeeded <= 0 {
		return res, nil
	}

	ordered := make([]*models.Worker, len(workers))
	copy(ordered, workers)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Fatigue < ordered[j].Fatigue
	})

	required := mapset.NewSet(task.RequiredSkills...)
	end := task.End()
	touched := make(map[*models.Worker]bool)

	for _, w := range ordered {
		if len(res.Allocated) >= task.MembersNeeded {
			break
		}

		reason, reset := evaluate(w, task, end, required)
		if reset {
			touched[w] = true
		}
		if reason != "" {
			res.Rejections = append(res.Rejections, models.Rejection{
				WorkerID: w.ID,
				Name:     w.Name,
				Reason:   reason,
			})
			continue
		}
		touched[w] = true
		res.Allocated = append(res.Allocated, w)
	}

	for _, w := range workers {
		if touched[w] {
			res.Touched = append(res.Touched, w)
		}
	}

	if len(res.Allocated) < task.MembersNeeded {
		return res, fmt.Errorf("%w: %d of %d workers available", ErrInsufficientCapacity, len(res.Allocated), task.MembersNeeded)
	}
	return res, nil
}

// evaluate runs the eligibility checks for one worker and, if accepted,
// applies the allocation to it. It returns the rejection reason (empty on
// acceptance) and whether the rest reset fired.
func evaluate(w *models.Worker, task models.Task, end time.Time, required mapset.Set[string]) (string, bool) {
	if !required.IsSubset(w.SkillSet()) {
		return models.ReasonSkills, false
	}

	start, stop, ok := w.Window()
	if !ok || start.After(task.Start) || stop.Before(end) {
		return models.ReasonAvailability, false
	}

	lastEnd, hasHistory := w.LastShiftEnd()
	reset := false
	if hasHistory && end.Sub(lastEnd) >= RestPeriod {
		w.Fatigue = 0
		w.HoursWorked = 0
		reset = true
	}

	if hasHistory && !lastEnd.Before(task.Start) {
		return models.ReasonOverlap, reset
	}
	if w.Fatigue >= MaxFatigue {
		return models.ReasonFatigue, reset
	}

	newFatigue := w.Fatigue
	if hasHistory && end.Sub(lastEnd) <= BackToBackWindow {
		newFatigue += BackToBackPenalty
	}
	if w.HoursWorked+task.HoursRequired > w.MaxWeeklyHours {
		newFatigue += OvertimePenalty
	}
	if newFatigue >= MaxFatigue {
		return models.ReasonPenalty, reset
	}

	w.HoursWorked += task.HoursRequired
	w.Fatigue = newFatigue
	w.RecentShiftEnds = append(w.RecentShiftEnds, end)
	return "", reset
}

// FairnessScore returns a percentage (0-100) representing how evenly worked
// hours are distributed. 100% is perfectly fair (Standard Deviation = 0).
func FairnessScore(workers []*models.Worker) float64 {
	if len(workers) == 0 {
		return 100.0
	}

	var sum float64
	for _, w := range workers {
		sum += w.HoursWorked
	}

	if sum == 0 {
		return 100.0
	}

	mean := sum / float64(len(workers))

	var varianceSum float64
	for _, w := range workers {
		diff := w.HoursWorked - mean
		varianceSum += diff * diff
	}
	stdDev := math.Sqrt(varianceSum / float64(len(workers)))

	// 100% means SD is 0. 0% means SD is >= mean.
	score := (1.0 - (stdDev / mean)) * 100.0
	if score < 0 {
		return 0.0
	}
	return score
}
