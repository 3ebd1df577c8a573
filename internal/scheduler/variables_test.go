package scheduler

import (
	"testing"
	"time"

	"reminderd/internal/types"
)

func TestVariableBuilder_FromSnapshot_DisplayZoneAndRemindAt(t *testing.T) {
	b, err := NewVariableBuilder("America/Sao_Paulo", "https://app.example.com")
	if err != nil {
		t.Fatalf("NewVariableBuilder: %v", err)
	}

	// 01:00 UTC is still the previous day in Sao Paulo (UTC-3).
	due := time.Date(2026, 9, 10, 1, 0, 0, 0, time.UTC)
	remindAt := time.Date(2026, 9, 8, 15, 0, 0, 0, time.UTC)
	snap := snapshotAt(12, due)
	snap.RemindAt = &remindAt

	vars := b.FromSnapshot(&snap)

	if vars[VarDueDate] != "09/09/2026" {
		t.Errorf("due_date = %q, want 09/09/2026", vars[VarDueDate])
	}
	if vars[VarRemindAt] != "08/09/2026" {
		t.Errorf("remind_at = %q, want 08/09/2026", vars[VarRemindAt])
	}
	want := "https://app.example.com/reminders/12/notifications/disable"
	if vars[VarDisableURL] != want {
		t.Errorf("disable url = %q, want %q", vars[VarDisableURL], want)
	}
}

func TestVariableBuilder_DisableURLDefaultsInert(t *testing.T) {
	b, err := NewVariableBuilder("UTC", "#")
	if err != nil {
		t.Fatalf("NewVariableBuilder: %v", err)
	}
	snap := snapshotAt(1, time.Now())
	if got := b.FromSnapshot(&snap)[VarDisableURL]; got != "#" {
		t.Errorf("disable url = %q, want #", got)
	}
}

func TestVariableBuilder_InvalidZone(t *testing.T) {
	if _, err := NewVariableBuilder("Mars/Olympus", "#"); err == nil {
		t.Fatal("expected error for unknown zone")
	}
}

func TestNewFailureRecord_SnapshotsVariables(t *testing.T) {
	b, err := NewVariableBuilder("UTC", "#")
	if err != nil {
		t.Fatal(err)
	}
	snap := snapshotAt(5, time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC))
	vars := b.FromSnapshot(&snap)

	failedAt := time.Date(2026, 8, 31, 9, 0, 0, 0, time.UTC)
	rec := NewFailureRecord(vars, "boom", failedAt)

	if rec.ID == "" {
		t.Error("record id is empty")
	}
	if rec.Email != snap.RecipientEmail || rec.Name != snap.RecipientName {
		t.Errorf("recipient = %q / %q", rec.Email, rec.Name)
	}
	if rec.Subject != "Lembrete - pagar aluguel" {
		t.Errorf("subject = %q", rec.Subject)
	}
	if rec.RetryCount != 0 || rec.ErrorMessage != "boom" || !rec.FailedAt.Equal(failedAt) {
		t.Errorf("state = %d / %q / %v", rec.RetryCount, rec.ErrorMessage, rec.FailedAt)
	}

	// A round trip through the record rebuilds the same variables.
	rebuilt := b.FromFailureRecord(rec)
	for _, k := range []string{VarName, VarEmail, VarTitle, VarRemindAt, VarDueDate, VarDisableURL, VarSubject} {
		if rebuilt[k] != vars[k] {
			t.Errorf("rebuilt %s = %q, want %q", k, rebuilt[k], vars[k])
		}
	}
}

func TestVariableBuilder_FromFailureRecord_RemindAtFallback(t *testing.T) {
	b, err := NewVariableBuilder("UTC", "#")
	if err != nil {
		t.Fatal(err)
	}
	rec := &types.FailureRecord{DueDate: "10/09/2026"}
	if got := b.FromFailureRecord(rec)[VarRemindAt]; got != "10/09/2026" {
		t.Errorf("remind_at = %q, want due date fallback", got)
	}
}
