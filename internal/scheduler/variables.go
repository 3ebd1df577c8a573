package scheduler

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"reminderd/internal/types"
)

// Delivery variable keys. These are the contract between the engine and
// any Notifier implementation; failure records persist the same values so
// a retry can rebuild the exact variable set without the original entity.
const (
	VarName       = "name"
	VarEmail      = "email"
	VarTitle      = "title"
	VarRemindAt   = "remind_at"
	VarDueDate    = "due_date"
	VarDisableURL = "disable_notification_url"
	VarSubject    = "subject"
)

const (
	subjectPrefix = "Lembrete - "
	dateLayout    = "02/01/2006"
)

// VariableBuilder renders the delivery variables for a reminder. Dates are
// formatted in the configured display zone; stored instants stay UTC.
type VariableBuilder struct {
	loc            *time.Location
	disableURLBase string
}

// NewVariableBuilder creates a VariableBuilder formatting dates in the
// given IANA zone. The disable-URL base may be "#" to emit inert links.
func NewVariableBuilder(displayTZ, disableURLBase string) (*VariableBuilder, error) {
	loc, err := time.LoadLocation(displayTZ)
	if err != nil {
		return nil, fmt.Errorf("scheduler: loading display timezone %q: %w", displayTZ, err)
	}
	return &VariableBuilder{loc: loc, disableURLBase: disableURLBase}, nil
}

// FromSnapshot builds the variable set for a live delivery attempt.
// remind_at falls back to the due date text when the reminder has no
// explicit remind instant.
func (b *VariableBuilder) FromSnapshot(s *types.ReminderSnapshot) map[string]string {
	remindAt := b.format(s.DueDate)
	if s.RemindAt != nil {
		remindAt = b.format(*s.RemindAt)
	}

	return map[string]string{
		VarName:       s.RecipientName,
		VarEmail:      s.RecipientEmail,
		VarTitle:      s.Title,
		VarRemindAt:   remindAt,
		VarDueDate:    b.format(s.DueDate),
		VarDisableURL: b.disableURL(s.ID),
		VarSubject:    subjectPrefix + s.Title,
	}
}

// FromFailureRecord rebuilds the variable set for a retry attempt from the
// denormalized record alone, preferring the original remind_at text when
// present, else the due date text.
func (b *VariableBuilder) FromFailureRecord(rec *types.FailureRecord) map[string]string {
	remindAt := rec.RemindAt
	if remindAt == "" {
		remindAt = rec.DueDate
	}

	return map[string]string{
		VarName:       rec.Name,
		VarEmail:      rec.Email,
		VarTitle:      rec.Title,
		VarRemindAt:   remindAt,
		VarDueDate:    rec.DueDate,
		VarDisableURL: rec.DisableNotificationURL,
		VarSubject:    subjectPrefix + rec.Title,
	}
}

func (b *VariableBuilder) format(t time.Time) string {
	return t.In(b.loc).Format(dateLayout)
}

func (b *VariableBuilder) disableURL(reminderID int64) string {
	if b.disableURLBase == "" || b.disableURLBase == "#" {
		return "#"
	}
	return fmt.Sprintf("%s/reminders/%d/notifications/disable", b.disableURLBase, reminderID)
}

// NewFailureRecord snapshots a failed delivery attempt into a queueable
// record carrying the exact variables the attempt used.
func NewFailureRecord(vars map[string]string, errorMessage string, failedAt time.Time) *types.FailureRecord {
	return &types.FailureRecord{
		ID:                     uuid.NewString(),
		Email:                  vars[VarEmail],
		Subject:                vars[VarSubject],
		Name:                   vars[VarName],
		Title:                  vars[VarTitle],
		RemindAt:               vars[VarRemindAt],
		DueDate:                vars[VarDueDate],
		DisableNotificationURL: vars[VarDisableURL],
		FailedAt:               failedAt,
		RetryCount:             0,
		ErrorMessage:           errorMessage,
	}
}
