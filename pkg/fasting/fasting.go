// Package fasting tracks intermittent fasting windows.
package fasting

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// ErrInvalidSchedule is returned for custom schedules without a fasting window.
var ErrInvalidSchedule = errors.New("invalid fasting schedule")

// Schedule is a fasting window followed by an eating window.
type Schedule struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	FastingHours float64 `json:"fastingHours"`
	EatingHours  float64 `json:"eatingHours"`
	Difficulty   string  `json:"difficulty"`
}

var schedules = []Schedule{
	{ID: "12:12", Name: "12:12 (Beginner)", FastingHours: 12, EatingHours: 12, Difficulty: "Beginner"},
	{ID: "14:10", Name: "14:10 (Beginner)", FastingHours: 14, EatingHours: 10, Difficulty: "Beginner"},
	{ID: "16:8", Name: "16:8 (Popular)", FastingHours: 16, EatingHours: 8, Difficulty: "Intermediate"},
	{ID: "18:6", Name: "18:6 (Advanced)", FastingHours: 18, EatingHours: 6, Difficulty: "Advanced"},
	{ID: "20:4", Name: "20:4 (Warrior)", FastingHours: 20, EatingHours: 4, Difficulty: "Expert"},
	{ID: "24:0", Name: "24:0 (OMAD)", FastingHours: 24, EatingHours: 0, Difficulty: "Expert"},
}

// Schedules returns the predefined schedules, shortest fast first.
func Schedules() []Schedule {
	return append([]Schedule(nil), schedules...)
}

// LookupSchedule finds a predefined schedule by id, e.g. "16:8".
func LookupSchedule(id string) (Schedule, bool) {
	id = strings.TrimSpace(id)
	for _, s := range schedules {
		if s.ID == id {
			return s, true
		}
	}
	return Schedule{}, false
}

// Custom builds a schedule from explicit window lengths.
func Custom(fastingHours, eatingHours float64) (Schedule, error) {
	if !(fastingHours > 0) || math.IsInf(fastingHours, 0) {
		return Schedule{}, fmt.Errorf("%w: fasting window must be positive", ErrInvalidSchedule)
	}
	if !(eatingHours >= 0) || math.IsInf(eatingHours, 0) {
		return Schedule{}, fmt.Errorf("%w: eating window must not be negative", ErrInvalidSchedule)
	}
	return Schedule{
		ID:           "custom",
		Name:         "Custom Schedule",
		FastingHours: fastingHours,
		EatingHours:  eatingHours,
		Difficulty:   "Beginner",
	}, nil
}

// Phase is the current stage of a session.
type Phase string

const (
	Fasting  Phase = "fasting"
	Eating   Phase = "eating"
	Complete Phase = "complete"
)

// Status describes a session at a point in time. Elapsed, Remaining and
// Progress refer to the current phase; Progress runs from 0 to 1.
type Status struct {
	Phase       Phase         `json:"phase"`
	Elapsed     time.Duration `json:"elapsed"`
	Remaining   time.Duration `json:"remaining"`
	Progress    float64       `json:"progress"`
	PhaseEndsAt time.Time     `json:"phaseEndsAt"`
}

func (s Schedule) fastingWindow() time.Duration {
	return time.Duration(s.FastingHours * float64(time.Hour))
}

func (s Schedule) eatingWindow() time.Duration {
	return time.Duration(s.EatingHours * float64(time.Hour))
}

// StatusAt reports where a session started at start stands at now. A now
// before start counts as the beginning of the fast.
func (s Schedule) StatusAt(start, now time.Time) Status {
	elapsed := now.Sub(start)
	if elapsed < 0 {
		elapsed = 0
	}
	fast, eat := s.fastingWindow(), s.eatingWindow()

	switch {
	case elapsed < fast:
		return phaseStatus(Fasting, elapsed, fast, start.Add(fast))
	case elapsed < fast+eat:
		return phaseStatus(Eating, elapsed-fast, eat, start.Add(fast+eat))
	default:
		return Status{Phase: Complete, Progress: 1, PhaseEndsAt: start.Add(fast + eat)}
	}
}

func phaseStatus(phase Phase, elapsed, window time.Duration, endsAt time.Time) Status {
	return Status{
		Phase:       phase,
		Elapsed:     elapsed,
		Remaining:   window - elapsed,
		Progress:    float64(elapsed) / float64(window),
		PhaseEndsAt: endsAt,
	}
}

// FormatDuration renders d as HH:MM:SS, truncated to whole seconds. Hours
// are not wrapped at 24.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, total%3600/60, total%60)
}
