package scheduler

import (
	"testing"
	"time"
)

var baseDue = time.Date(2026, 9, 15, 12, 0, 0, 0, time.UTC)

func labels(planned []PlannedTrigger) []string {
	out := make([]string, len(planned))
	for i, p := range planned {
		out[i] = p.Label
	}
	return out
}

func TestPlan_AllOffsetsInFuture(t *testing.T) {
	now := baseDue.Add(-11 * 24 * time.Hour)

	planned := Plan(baseDue, now)

	if len(planned) != 3 {
		t.Fatalf("expected 3 triggers, got %d (%v)", len(planned), labels(planned))
	}

	wants := []struct {
		label  string
		fireAt time.Time
	}{
		{OffsetTenDays, baseDue.Add(-10 * 24 * time.Hour)},
		{OffsetFiveDays, baseDue.Add(-5 * 24 * time.Hour)},
		{OffsetTwoDays, baseDue.Add(-2 * 24 * time.Hour)},
	}
	for i, want := range wants {
		if planned[i].Label != want.label {
			t.Errorf("trigger %d: label = %s, want %s", i, planned[i].Label, want.label)
		}
		if !planned[i].FireAt.Equal(want.fireAt) {
			t.Errorf("trigger %d: fireAt = %v, want %v", i, planned[i].FireAt, want.fireAt)
		}
		if planned[i].FireAt.Before(now) {
			t.Errorf("trigger %d: fireAt %v is before now %v", i, planned[i].FireAt, now)
		}
	}
}

func TestPlan_TenDayOffsetElapsed(t *testing.T) {
	// D - 10d < now <= D - 5d
	now := baseDue.Add(-7 * 24 * time.Hour)

	planned := Plan(baseDue, now)

	got := labels(planned)
	if len(got) != 2 || got[0] != OffsetFiveDays || got[1] != OffsetTwoDays {
		t.Fatalf("expected [5-days 2-days], got %v", got)
	}
}

func TestPlan_OnlyTwoDayRemains(t *testing.T) {
	now := baseDue.Add(-3 * 24 * time.Hour)

	planned := Plan(baseDue, now)

	got := labels(planned)
	if len(got) != 1 || got[0] != OffsetTwoDays {
		t.Fatalf("expected [2-days], got %v", got)
	}
}

func TestPlan_AllOffsetsElapsed(t *testing.T) {
	now := baseDue.Add(-24 * time.Hour)

	if planned := Plan(baseDue, now); len(planned) != 0 {
		t.Fatalf("expected empty plan, got %v", labels(planned))
	}
}

func TestPlan_DueDateInPast(t *testing.T) {
	now := baseDue.Add(30 * 24 * time.Hour)

	if planned := Plan(baseDue, now); len(planned) != 0 {
		t.Fatalf("expected empty plan for past due date, got %v", labels(planned))
	}
}

func TestPlan_FireTimeEqualToNowIncluded(t *testing.T) {
	// fireTime >= now is the contract: an offset landing exactly on now
	// still arms (and will misfire-fire immediately).
	now := baseDue.Add(-10 * 24 * time.Hour)

	planned := Plan(baseDue, now)

	got := labels(planned)
	if len(got) != 3 || got[0] != OffsetTenDays {
		t.Fatalf("expected 10-days trigger at boundary to be included, got %v", got)
	}
}
