package scheduler

import (
	"context"
	"errors"
	"log/slog"
)

// Bootstrap restores scheduling state at process start. In-memory trigger
// state never survives a restart, so recovery queries the store for every
// reminder still pending and re-arms its triggers, then registers the
// retry sweep. Running recovery twice is harmless: job upserts reuse
// existing entries and trigger keys overwrite rather than accumulate.
type Bootstrap struct {
	store ReminderStore
	jobs  *JobService
	log   *slog.Logger
}

// NewBootstrap creates a Bootstrap.
func NewBootstrap(store ReminderStore, jobs *JobService, log *slog.Logger) *Bootstrap {
	if log == nil {
		log = slog.Default()
	}
	return &Bootstrap{store: store, jobs: jobs, log: log}
}

// RestoreSchedules re-arms triggers for every pending reminder and
// registers the retry sweep. A reminder that fails to schedule is logged
// and does not block restoration of the others; the first such error is
// still returned so startup can decide to abort.
func (b *Bootstrap) RestoreSchedules(ctx context.Context) error {
	now := b.jobs.engine.Now()

	pending, err := b.store.FindPending(ctx, now)
	if err != nil {
		return err
	}

	var firstErr error
	restored := 0
	for i := range pending {
		if err := b.jobs.ScheduleJob(pending[i].Reminder); err != nil {
			b.log.Error("failed to restore reminder schedule",
				"reminder_id", pending[i].ID,
				"error", err.Error(),
			)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		restored++
	}

	if err := b.jobs.ScheduleRetrySweepJob(); err != nil {
		return errors.Join(firstErr, err)
	}

	b.log.Info("pending reminders restored", "count", restored, "pending", len(pending))
	return firstErr
}
