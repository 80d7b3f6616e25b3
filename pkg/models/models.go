package models

import (
	"fmt"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
)

// Roles a worker account can hold
const (
	RoleManager  = "manager"
	RoleEmployee = "employee"
)

// Worker represents a person who can be allocated to tasks
type Worker struct {
	ID              uint        `json:"id"`
	Name            string      `json:"name"`
	Role            string      `json:"role"`
	Skills          []string    `json:"skills"`
	Availability    []time.Time `json:"availability"`
	MaxWeeklyHours  float64     `json:"maxWeeklyHours"`
	HoursWorked     float64     `json:"hoursWorked"`
	Fatigue         int         `json:"fatigue"`
	RecentShiftEnds []time.Time `json:"recentShift"`
}

// SkillSet returns the worker's skills as a set
func (w *Worker) SkillSet() mapset.Set[string] {
	return mapset.NewSet(w.Skills...)
}

// Window returns the availability window. ok is false when the worker has
// fewer than two availability endpoints.
func (w *Worker) Window() (start, end time.Time, ok bool) {
	if len(w.Availability) < 2 {
		return time.Time{}, time.Time{}, false
	}
	return w.Availability[0], w.Availability[len(w.Availability)-1], true
}

// LastShiftEnd returns the end of the most recently allocated shift
func (w *Worker) LastShiftEnd() (time.Time, bool) {
	if len(w.RecentShiftEnds) == 0 {
		return time.Time{}, false
	}
	return w.RecentShiftEnds[len(w.RecentShiftEnds)-1], true
}

// Clone returns a deep copy of the worker
func (w *Worker) Clone() *Worker {
	c := *w
	c.Skills = append([]string{}, w.Skills...)
	c.Availability = append([]time.Time{}, w.Availability...)
	c.RecentShiftEnds = append([]time.Time{}, w.RecentShiftEnds...)
	return &c
}

// Task is a single allocation request. It is built per call and never stored
// as mutable state.
type Task struct {
	RequiredSkills []string  `json:"skills"`
	Start          time.Time `json:"time"`
	HoursRequired  float64   `json:"hoursRequired"`
	MembersNeeded  int       `json:"members"`
}

// End returns Start + HoursRequired
func (t Task) End() time.Time {
	return t.Start.Add(time.Duration(t.HoursRequired * float64(time.Hour)))
}

// Rejection reasons
const (
	ReasonSkills       = "skills"
	ReasonAvailability = "availability"
	ReasonOverlap      = "overlap"
	ReasonFatigue      = "fatigue"
	ReasonPenalty      = "penalty"
)

// Rejection records why a worker was skipped during an allocation pass
type Rejection struct {
	WorkerID uint   `json:"worker_id"`
	Name     string `json:"name"`
	Reason   string `json:"reason"`
}

var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseTimestamp parses the timestamp formats accepted by the API
func ParseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
}

// ParseTimestamps parses every entry of values
func ParseTimestamps(values []string) ([]time.Time, error) {
	out := make([]time.Time, 0, len(values))
	for _, v := range values {
		t, err := ParseTimestamp(v)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}
