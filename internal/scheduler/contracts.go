package scheduler

import (
	"context"
	"time"

	"reminderd/internal/types"
)

// ReminderStore is the persistence contract the engine depends on. By
// depending on this narrow interface rather than a full repository, every
// component in this package is testable with lightweight fakes.
type ReminderStore interface {
	// FindPending returns snapshots of all reminders that are not sent,
	// not executed, and whose reminder instant is after now.
	FindPending(ctx context.Context, now time.Time) ([]types.ReminderSnapshot, error)

	// FindByIDWithAssociations returns the flattened snapshot for one
	// reminder, or nil (with no error) when the reminder does not exist.
	// Absence is expected -- a reminder may be deleted between trigger
	// arming and fire time.
	FindByIDWithAssociations(ctx context.Context, id int64) (*types.ReminderSnapshot, error)

	// RegisterExecution marks a reminder sent with the given execution
	// instant. The write is a no-op for reminders already sent.
	RegisterExecution(ctx context.Context, id int64, executedAt time.Time) error
}

// FailureStore is the durable queue of failed delivery attempts.
type FailureStore interface {
	// Enqueue persists a new failure record.
	Enqueue(ctx context.Context, rec *types.FailureRecord) error

	// DequeueBatch returns up to limit records ordered by FailedAt
	// ascending. Records are not removed by reading.
	DequeueBatch(ctx context.Context, limit int) ([]types.FailureRecord, error)

	// Remove deletes a record, ending its retry lifecycle.
	Remove(ctx context.Context, id string) error

	// ReenqueueWithIncrementedRetry bumps the record's retry count and
	// overwrites its error message, preserving FailedAt so the record
	// keeps its place in the oldest-first ordering.
	ReenqueueWithIncrementedRetry(ctx context.Context, rec *types.FailureRecord, errorMessage string) error
}

// Notifier produces and transmits one notification from a set of named
// delivery variables. Implementations must treat the variable keys defined
// in variables.go as the contract.
type Notifier interface {
	Send(ctx context.Context, vars map[string]string) error
}

// ExecuteFunc is the callback invoked when a reminder trigger fires.
// Triggers encode only the reminder id, never reminder data, so a fire
// can never act on stale state from before an edit.
type ExecuteFunc func(ctx context.Context, reminderID int64)

// SweepFunc is the callback invoked on each retry-sweep tick.
type SweepFunc func(ctx context.Context)
