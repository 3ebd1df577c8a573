package scheduler

import "time"

// Offset labels for the fixed advance-notice triggers. The label is part of
// the trigger identity, so renaming one would orphan armed triggers until
// the next restart.
const (
	OffsetTenDays  = "10-days"
	OffsetFiveDays = "5-days"
	OffsetTwoDays  = "2-days"
)

// offsets maps each label to its lead time before the due date, in the
// order triggers are planned.
var offsets = []struct {
	label string
	lead  time.Duration
}{
	{OffsetTenDays, 10 * 24 * time.Hour},
	{OffsetFiveDays, 5 * 24 * time.Hour},
	{OffsetTwoDays, 2 * 24 * time.Hour},
}

// PlannedTrigger is one named fire time computed from a due date.
type PlannedTrigger struct {
	Label  string
	FireAt time.Time
}

// Plan computes the advance-notice fire times for a due date: one trigger
// per fixed offset, silently dropping any whose fire time has already
// elapsed at planning time. A reminder past all offsets yields an empty
// plan and simply gets no advance warning.
//
// Plan is pure and cannot fail.
func Plan(dueDate, now time.Time) []PlannedTrigger {
	var planned []PlannedTrigger
	for _, o := range offsets {
		fireAt := dueDate.Add(-o.lead)
		if fireAt.Before(now) {
			continue
		}
		planned = append(planned, PlannedTrigger{Label: o.label, FireAt: fireAt})
	}
	return planned
}
