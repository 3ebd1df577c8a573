// Package types defines the domain model and error taxonomy shared across
// the reminder platform. It has no dependencies on other internal packages
// so that every layer (scheduler, persistence, API) can import it freely.
package types

import "time"

// Reminder is the persisted reminder entity. DueDate drives the advance
// notification triggers; RemindAt, when set, is the user-facing reminder
// instant preferred in rendered email text.
//
// Sent and ExecutedAt are write-once: they transition exactly once, from
// false/nil to true/set, when a trigger fires and delivery succeeds. Once
// Sent is true no further triggers for the reminder may fire or be re-armed.
type Reminder struct {
	ID         int64      `json:"id"`
	UserID     int64      `json:"user_id"`
	Title      string     `json:"title"`
	DueDate    time.Time  `json:"due_date"`
	RemindAt   *time.Time `json:"remind_at,omitempty"`
	ExecutedAt *time.Time `json:"executed_at,omitempty"`
	Sent       bool       `json:"sent"`
	CreatedAt  time.Time  `json:"created_at"`
}

// Pending reports whether the reminder still qualifies for scheduling:
// never sent, never executed, and not yet past its reminder instant.
func (r *Reminder) Pending(now time.Time) bool {
	return !r.Sent && r.ExecutedAt == nil && r.EffectiveRemindAt().After(now)
}

// EffectiveRemindAt returns RemindAt when set, falling back to DueDate.
func (r *Reminder) EffectiveRemindAt() time.Time {
	if r.RemindAt != nil {
		return *r.RemindAt
	}
	return r.DueDate
}

// ReminderSnapshot is a reminder flattened together with the contact fields
// needed to deliver its notification. The store produces it with a single
// query so the scheduler never walks a live entity graph.
type ReminderSnapshot struct {
	Reminder

	RecipientName  string `json:"recipient_name"`
	RecipientEmail string `json:"recipient_email"`
}

// FailureRecord is a denormalized snapshot of a failed delivery attempt,
// queued for retry. It carries everything needed to resend without touching
// the reminder again; the originating reminder may have been edited or
// deleted by the time a retry runs.
//
// FailedAt is set once at enqueue time and never updated, so records keep
// their place in the oldest-first retry ordering across failed reattempts.
type FailureRecord struct {
	ID                     string    `json:"id"`
	Email                  string    `json:"email"`
	Subject                string    `json:"subject"`
	Name                   string    `json:"name"`
	Title                  string    `json:"title"`
	RemindAt               string    `json:"remind_at,omitempty"`
	DueDate                string    `json:"due_date"`
	DisableNotificationURL string    `json:"disable_notification_url"`
	FailedAt               time.Time `json:"failed_at"`
	RetryCount             int       `json:"retry_count"`
	ErrorMessage           string    `json:"error_message"`
}
