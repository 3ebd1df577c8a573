package scheduler

import (
	"context"
	"log/slog"
	"time"

	"reminderd/internal/types"
)

// retrySweepJobName identifies the single recurring retry sweep in the
// engine's interval jobs.
const retrySweepJobName = "retry-failed-emails"

// JobService is the scheduling facade: it orchestrates the planner, the
// registry, and the trigger engine, and is the only component the reminder
// service layer talks to. It holds direct callback references for the
// execution handler and retry sweep -- no reflective job lookup.
type JobService struct {
	engine   *Engine
	registry *Registry
	execute  ExecuteFunc
	sweep    SweepFunc

	sweepEvery time.Duration
	log        *slog.Logger
}

// JobServiceConfig holds the dependencies for creating a JobService.
type JobServiceConfig struct {
	Engine   *Engine
	Registry *Registry
	// Execute is invoked with the reminder id each time a trigger fires.
	Execute ExecuteFunc
	// Sweep is invoked on every retry-sweep tick.
	Sweep SweepFunc
	// SweepInterval defaults to 20 minutes.
	SweepInterval time.Duration
	Logger        *slog.Logger
}

// NewJobService creates the scheduling facade.
func NewJobService(cfg JobServiceConfig) *JobService {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	every := cfg.SweepInterval
	if every <= 0 {
		every = 20 * time.Minute
	}
	return &JobService{
		engine:     cfg.Engine,
		registry:   cfg.Registry,
		execute:    cfg.Execute,
		sweep:      cfg.Sweep,
		sweepEvery: every,
		log:        log,
	}
}

// ScheduleJob registers the durable job definition for a reminder and arms
// one trigger per planned offset. Re-registering the same reminder reuses
// the existing job and overwrites colliding trigger keys instead of
// accumulating duplicates. Triggers already live under other keys are left
// alone; callers wanting full replacement use UpdateReminderSchedules.
func (s *JobService) ScheduleJob(rem types.Reminder) error {
	if rem.Sent {
		// Once sent, no further triggers may be armed for the reminder.
		s.log.Debug("refusing to schedule sent reminder", "reminder_id", rem.ID)
		return nil
	}

	entry := s.registry.Upsert(JobKey(rem.ID), rem.ID)
	planned := Plan(rem.DueDate, s.engine.Now())

	for _, p := range planned {
		key := TriggerKey(rem.ID, p.Label)
		reminderID := rem.ID

		timer, err := s.engine.ArmAt(p.FireAt, func() {
			s.execute(context.Background(), reminderID)
		})
		if err != nil {
			return types.NewAppError(types.ErrCodeSchedulingFailed,
				"failed to arm reminder trigger", err)
		}

		prev := entry.PutTrigger(&Trigger{
			Key:    key,
			Label:  p.Label,
			FireAt: p.FireAt,
			timer:  timer,
		})
		if prev != nil {
			prev.Cancel()
		}
	}

	s.log.Info("reminder scheduled",
		"reminder_id", rem.ID,
		"job_key", entry.Key,
		"triggers", len(planned),
	)
	return nil
}

// UpdateReminderSchedules replaces a reminder's schedules: full delete then
// re-create. The two steps are not atomic; a crash in between leaves the
// reminder with zero live triggers until bootstrap recovery on the next
// start, which callers must tolerate.
func (s *JobService) UpdateReminderSchedules(rem types.Reminder) error {
	if err := s.DeleteReminderSchedules(rem.ID); err != nil {
		return err
	}
	return s.ScheduleJob(rem)
}

// DeleteReminderSchedules removes a reminder's job and cancels all of its
// triggers. A reminder with no registered job is a no-op, not an error.
func (s *JobService) DeleteReminderSchedules(reminderID int64) error {
	entry, ok := s.registry.Remove(JobKey(reminderID))
	if !ok {
		return nil
	}

	for _, t := range entry.ClearTriggers() {
		t.Cancel()
	}

	s.log.Info("reminder schedules deleted", "reminder_id", reminderID)
	return nil
}

// UnscheduleReminderJobTriggers cancels each live trigger of a reminder
// individually while keeping the job identity registered. A trigger that
// cannot be cancelled (already fired, already stopped) is logged and
// skipped so it never blocks cancellation of its siblings. Used for
// "disable notifications" without deleting the job.
func (s *JobService) UnscheduleReminderJobTriggers(reminderID int64) error {
	entry, ok := s.registry.Get(JobKey(reminderID))
	if !ok {
		return nil
	}

	for _, t := range entry.Triggers() {
		if !t.Cancel() {
			s.log.Warn("trigger could not be cancelled, skipping",
				"reminder_id", reminderID,
				"trigger_key", t.Key,
			)
		}
		entry.RemoveTrigger(t.Key)
	}

	s.log.Info("reminder triggers unscheduled", "reminder_id", reminderID)
	return nil
}

// ScheduleRetrySweepJob idempotently registers the fixed-interval retry
// sweep. Safe to call at every boot: re-registration overwrites the
// previous schedule rather than duplicating it.
func (s *JobService) ScheduleRetrySweepJob() error {
	err := s.engine.RegisterIntervalJob(retrySweepJobName, s.sweepEvery, func() {
		s.sweep(context.Background())
	})
	if err != nil {
		return types.NewAppError(types.ErrCodeSchedulingFailed,
			"failed to register retry sweep job", err)
	}
	return nil
}
