// Package scoring turns completion timestamps and raw activity scores into
// lesson scores and folds lesson scores into a course total.
package scoring

import "time"

const (
	// DefaultGrace is added to the due date before anything counts as late.
	DefaultGrace = 15 * time.Minute
	// DefaultLateWindow is how long after the grace deadline half credit is given.
	DefaultLateWindow = 7 * 24 * time.Hour
)

// LatePolicy gives full credit up to the grace deadline, half credit for the
// following late window and nothing afterwards.
type LatePolicy struct {
	Grace      time.Duration
	LateWindow time.Duration
}

func DefaultLatePolicy() LatePolicy {
	return LatePolicy{Grace: DefaultGrace, LateWindow: DefaultLateWindow}
}

// Deadlines returns the on-time and late deadlines for a due date.
func (p LatePolicy) Deadlines(due time.Time) (onTime, late time.Time) {
	onTime = due.Add(p.Grace)
	return onTime, onTime.Add(p.LateWindow)
}

// TimeFactor is 0.5 per deadline met, so 1, 0.5 or 0. A missing submission
// meets neither deadline.
func (p LatePolicy) TimeFactor(due, submitted time.Time, ok bool) float64 {
	if !ok {
		return 0
	}
	onTime, late := p.Deadlines(due)
	return 0.5*indicator(!submitted.After(onTime)) + 0.5*indicator(!submitted.After(late))
}

func indicator(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
