package scheduler

import (
	"context"
	"log/slog"
	"time"
)

// Executor is the reminder execution handler: the callback behind every
// fired trigger. It is idempotent under at-least-once trigger delivery --
// the Sent flag short-circuits repeat fires, and a deleted reminder is a
// silent no-op.
//
// Delivery failures never escape Execute. They are captured as failure
// records and the reminder stays unsent, so the failure queue is the single
// source of pending retries and a human can still see delivery never
// completed. Store failures do propagate; they leave a state recoverable by
// bootstrap on the next start.
type Executor struct {
	store    ReminderStore
	failures FailureStore
	notifier Notifier
	vars     *VariableBuilder
	log      *slog.Logger
	nowFn    func() time.Time
}

// ExecutorConfig holds the dependencies for creating an Executor.
type ExecutorConfig struct {
	Store    ReminderStore
	Failures FailureStore
	Notifier Notifier
	Vars     *VariableBuilder
	Logger   *slog.Logger
	Now      func() time.Time
}

// NewExecutor creates an Executor.
func NewExecutor(cfg ExecutorConfig) *Executor {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	nowFn := cfg.Now
	if nowFn == nil {
		nowFn = time.Now
	}
	return &Executor{
		store:    cfg.Store,
		failures: cfg.Failures,
		notifier: cfg.Notifier,
		vars:     cfg.Vars,
		log:      log,
		nowFn:    nowFn,
	}
}

// Execute runs one reminder-due notification attempt for reminderID.
func (e *Executor) Execute(ctx context.Context, reminderID int64) error {
	snap, err := e.store.FindByIDWithAssociations(ctx, reminderID)
	if err != nil {
		return err
	}
	if snap == nil {
		// Deleted after the trigger was armed; expected, not an error.
		e.log.Debug("reminder gone before trigger fired", "reminder_id", reminderID)
		return nil
	}
	if snap.Sent {
		// A sibling trigger or a previous fire already delivered.
		e.log.Debug("reminder already sent, skipping", "reminder_id", reminderID)
		return nil
	}

	vars := e.vars.FromSnapshot(snap)

	if err := e.notifier.Send(ctx, vars); err != nil {
		e.log.Error("reminder delivery failed, queueing for retry",
			"reminder_id", reminderID,
			"error", err.Error(),
		)

		rec := NewFailureRecord(vars, err.Error(), e.nowFn())
		if qerr := e.failures.Enqueue(ctx, rec); qerr != nil {
			return qerr
		}
		// The delivery error is captured, not thrown; the reminder stays
		// unsent until a retry sweep succeeds.
		return nil
	}

	executedAt := e.nowFn()
	if err := e.store.RegisterExecution(ctx, reminderID, executedAt); err != nil {
		return err
	}

	e.log.Info("reminder executed",
		"reminder_id", reminderID,
		"executed_at", executedAt.Format(time.RFC3339),
	)
	return nil
}
