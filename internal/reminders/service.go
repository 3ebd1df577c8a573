// Package reminders implements the reminder application service: CRUD over
// persisted reminders kept in lockstep with their scheduled notification
// triggers.
package reminders

import (
	"context"
	"log/slog"
	"time"

	"reminderd/internal/types"
)

// ReminderRepo is the persistence surface the service needs.
type ReminderRepo interface {
	Create(ctx context.Context, rem *types.Reminder) error
	Update(ctx context.Context, rem *types.Reminder) error
	DeleteByID(ctx context.Context, id int64) error
	FindByID(ctx context.Context, id int64) (*types.Reminder, error)
	List(ctx context.Context) ([]types.Reminder, error)
}

// FailureRepo exposes the retry queue for inspection.
type FailureRepo interface {
	List(ctx context.Context) ([]types.FailureRecord, error)
}

// Scheduler is the trigger-management surface the service needs. Persistence
// and scheduling always move together: a write that succeeds in the database
// but fails to schedule is reported as an error, not silently accepted.
type Scheduler interface {
	ScheduleJob(rem types.Reminder) error
	UpdateReminderSchedules(rem types.Reminder) error
	DeleteReminderSchedules(reminderID int64) error
	UnscheduleReminderJobTriggers(reminderID int64) error
}

// Service wires reminder persistence to trigger scheduling.
type Service struct {
	repo     ReminderRepo
	failures FailureRepo
	jobs     Scheduler
	log      *slog.Logger
	nowFn    func() time.Time
}

// ServiceConfig holds the dependencies for creating a Service.
type ServiceConfig struct {
	Repo     ReminderRepo
	Failures FailureRepo
	Jobs     Scheduler
	Logger   *slog.Logger
	// Now is injectable for tests; defaults to time.Now.
	Now func() time.Time
}

// NewService creates a Service.
func NewService(cfg ServiceConfig) *Service {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	nowFn := cfg.Now
	if nowFn == nil {
		nowFn = time.Now
	}
	return &Service{
		repo:     cfg.Repo,
		failures: cfg.Failures,
		jobs:     cfg.Jobs,
		log:      log,
		nowFn:    nowFn,
	}
}

// CreateInput carries the user-editable reminder fields.
type CreateInput struct {
	UserID   int64
	Title    string
	DueDate  time.Time
	RemindAt *time.Time
}

// Create persists a new reminder and arms its notification triggers. The
// effective reminder instant must lie in the future.
func (s *Service) Create(ctx context.Context, input CreateInput) (*types.Reminder, error) {
	rem := &types.Reminder{
		UserID:   input.UserID,
		Title:    input.Title,
		DueDate:  input.DueDate,
		RemindAt: input.RemindAt,
	}
	if !rem.EffectiveRemindAt().After(s.nowFn()) {
		return nil, types.NewAppError(types.ErrCodeValidationPastRemindAt,
			"reminder instant must be in the future", nil)
	}

	if err := s.repo.Create(ctx, rem); err != nil {
		return nil, err
	}
	if err := s.jobs.ScheduleJob(*rem); err != nil {
		return nil, err
	}

	s.log.Info("reminder created", "reminder_id", rem.ID, "due_date", rem.DueDate)
	return rem, nil
}

// Get loads one reminder.
func (s *Service) Get(ctx context.Context, id int64) (*types.Reminder, error) {
	rem, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rem == nil {
		return nil, types.NewAppError(types.ErrCodeNotFoundReminder, "reminder not found", nil)
	}
	return rem, nil
}

// List returns all reminders ordered by due date.
func (s *Service) List(ctx context.Context) ([]types.Reminder, error) {
	return s.repo.List(ctx)
}

// UpdateInput carries the editable fields for an update. UserID is not
// editable after creation.
type UpdateInput struct {
	Title    string
	DueDate  time.Time
	RemindAt *time.Time
}

// Update rewrites a reminder and replaces its scheduled triggers with a plan
// for the new due date.
func (s *Service) Update(ctx context.Context, id int64, input UpdateInput) (*types.Reminder, error) {
	rem, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	rem.Title = input.Title
	rem.DueDate = input.DueDate
	rem.RemindAt = input.RemindAt
	if !rem.EffectiveRemindAt().After(s.nowFn()) {
		return nil, types.NewAppError(types.ErrCodeValidationPastRemindAt,
			"reminder instant must be in the future", nil)
	}

	if err := s.repo.Update(ctx, rem); err != nil {
		return nil, err
	}
	if err := s.jobs.UpdateReminderSchedules(*rem); err != nil {
		return nil, err
	}

	s.log.Info("reminder updated", "reminder_id", rem.ID, "due_date", rem.DueDate)
	return rem, nil
}

// Delete removes a reminder and cancels all its triggers.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.DeleteByID(ctx, id); err != nil {
		return err
	}
	if err := s.jobs.DeleteReminderSchedules(id); err != nil {
		return err
	}
	s.log.Info("reminder deleted", "reminder_id", id)
	return nil
}

// DisableNotifications cancels the pending triggers of a reminder without
// touching the stored entity. The reminder stays visible and editable; a
// later update re-arms its triggers.
func (s *Service) DisableNotifications(ctx context.Context, id int64) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.jobs.UnscheduleReminderJobTriggers(id); err != nil {
		return err
	}
	s.log.Info("reminder notifications disabled", "reminder_id", id)
	return nil
}

// ListFailures returns the queued delivery failures, oldest first.
func (s *Service) ListFailures(ctx context.Context) ([]types.FailureRecord, error) {
	return s.failures.List(ctx)
}
