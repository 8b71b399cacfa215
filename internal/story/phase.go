// Package story models the month-long narrative arc: which phase of the
// story a given calendar day falls in, which prior posts belong to the
// current month's tale, and how a finished month is summarized.
package story

import "time"

// Phase is a stage of the narrative arc. The month is partitioned into the
// five classic stages, in order.
type Phase string

const (
	PhaseExposition    Phase = "exposition"
	PhaseRisingAction  Phase = "rising_action"
	PhaseClimax        Phase = "climax"
	PhaseFallingAction Phase = "falling_action"
	PhaseResolution    Phase = "resolution"
)

// Phases lists all phases in narrative order.
func Phases() []Phase {
	return []Phase{
		PhaseExposition,
		PhaseRisingAction,
		PhaseClimax,
		PhaseFallingAction,
		PhaseResolution,
	}
}

// Schedule maps the days of a month onto phases using percentage shares of
// the month's length. Thresholds are cumulative with truncating arithmetic,
// so the shares need not account for every day: whatever remains past the
// falling-action threshold is resolution.
type Schedule struct {
	ExpositionShare    float64
	RisingActionShare  float64
	ClimaxShare        float64
	FallingActionShare float64
}

// DefaultSchedule returns the standard arc pacing: 20% exposition,
// 50% rising action, 15% climax, 10% falling action, remainder resolution.
func DefaultSchedule() Schedule {
	return Schedule{
		ExpositionShare:    0.20,
		RisingActionShare:  0.50,
		ClimaxShare:        0.15,
		FallingActionShare: 0.10,
	}
}

// PhaseFor returns the phase for a given day of the month (1-based) in a
// month of totalDays days. Deterministic and total: every valid day maps to
// exactly one phase.
func (s Schedule) PhaseFor(day, totalDays int) Phase {
	expositionEnd := int(float64(totalDays) * s.ExpositionShare)
	risingEnd := expositionEnd + int(float64(totalDays)*s.RisingActionShare)
	climaxEnd := risingEnd + int(float64(totalDays)*s.ClimaxShare)
	fallingEnd := climaxEnd + int(float64(totalDays)*s.FallingActionShare)

	switch {
	case day <= expositionEnd:
		return PhaseExposition
	case day <= risingEnd:
		return PhaseRisingAction
	case day <= climaxEnd:
		return PhaseClimax
	case day <= fallingEnd:
		return PhaseFallingAction
	default:
		return PhaseResolution
	}
}

// DaysInMonth returns the number of days in t's month.
func DaysInMonth(t time.Time) int {
	firstOfNext := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location()).AddDate(0, 1, 0)
	return firstOfNext.AddDate(0, 0, -1).Day()
}
