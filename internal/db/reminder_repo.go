package db

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"reminderd/internal/types"
)

// ReminderRepository provides data access for the reminders table. It backs
// both the REST service layer and the scheduler's ReminderStore contract.
type ReminderRepository struct {
	db DBTX
}

// NewReminderRepository creates a ReminderRepository backed by the given
// database connection (pool or transaction).
func NewReminderRepository(db DBTX) *ReminderRepository {
	return &ReminderRepository{db: db}
}

// Create inserts a new reminder and fills in its generated ID and CreatedAt.
func (r *ReminderRepository) Create(ctx context.Context, rem *types.Reminder) error {
	row := r.db.QueryRow(ctx,
		`INSERT INTO reminders (user_id, title, due_date, remind_at)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		rem.UserID,
		rem.Title,
		rem.DueDate,
		rem.RemindAt,
	)
	if err := row.Scan(&rem.ID, &rem.CreatedAt); err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to create reminder", err)
	}
	return nil
}

// Update rewrites the editable fields of a reminder. Sent and ExecutedAt are
// deliberately excluded; they only move through RegisterExecution.
func (r *ReminderRepository) Update(ctx context.Context, rem *types.Reminder) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE reminders SET title = $1, due_date = $2, remind_at = $3
		 WHERE id = $4`,
		rem.Title,
		rem.DueDate,
		rem.RemindAt,
		rem.ID,
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to update reminder", err)
	}
	if tag.RowsAffected() == 0 {
		return types.NewAppError(types.ErrCodeNotFoundReminder, "reminder not found", nil)
	}
	return nil
}

// DeleteByID removes a reminder.
func (r *ReminderRepository) DeleteByID(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM reminders WHERE id = $1`, id)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to delete reminder", err)
	}
	if tag.RowsAffected() == 0 {
		return types.NewAppError(types.ErrCodeNotFoundReminder, "reminder not found", nil)
	}
	return nil
}

// FindByID loads a single reminder. Returns (nil, nil) when absent.
func (r *ReminderRepository) FindByID(ctx context.Context, id int64) (*types.Reminder, error) {
	row := r.db.QueryRow(ctx,
		`SELECT id, user_id, title, due_date, remind_at, executed_at, sent, created_at
		 FROM reminders WHERE id = $1`,
		id,
	)
	var rem types.Reminder
	err := row.Scan(&rem.ID, &rem.UserID, &rem.Title, &rem.DueDate,
		&rem.RemindAt, &rem.ExecutedAt, &rem.Sent, &rem.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to load reminder", err)
	}
	return &rem, nil
}

// List returns all reminders ordered by their effective reminder instant.
func (r *ReminderRepository) List(ctx context.Context) ([]types.Reminder, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, user_id, title, due_date, remind_at, executed_at, sent, created_at
		 FROM reminders ORDER BY COALESCE(remind_at, due_date) ASC, id ASC`,
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to list reminders", err)
	}
	defer rows.Close()

	var out []types.Reminder
	for rows.Next() {
		var rem types.Reminder
		if err := rows.Scan(&rem.ID, &rem.UserID, &rem.Title, &rem.DueDate,
			&rem.RemindAt, &rem.ExecutedAt, &rem.Sent, &rem.CreatedAt); err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan reminder", err)
		}
		out = append(out, rem)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to list reminders", err)
	}
	return out, nil
}

// FindPending returns snapshots for every reminder still eligible for
// scheduling: unsent, unexecuted, and whose effective reminder instant
// (remind_at, falling back to due_date) is still in the future.
func (r *ReminderRepository) FindPending(ctx context.Context, now time.Time) ([]types.ReminderSnapshot, error) {
	rows, err := r.db.Query(ctx,
		`SELECT r.id, r.user_id, r.title, r.due_date, r.remind_at, r.executed_at,
		        r.sent, r.created_at, u.name, u.email
		 FROM reminders r
		 JOIN users u ON u.id = r.user_id
		 WHERE r.sent = false
		   AND r.executed_at IS NULL
		   AND COALESCE(r.remind_at, r.due_date) > $1
		 ORDER BY r.due_date ASC, r.id ASC`,
		now,
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to query pending reminders", err)
	}
	defer rows.Close()

	var out []types.ReminderSnapshot
	for rows.Next() {
		var snap types.ReminderSnapshot
		if err := rows.Scan(&snap.ID, &snap.UserID, &snap.Title, &snap.DueDate,
			&snap.RemindAt, &snap.ExecutedAt, &snap.Sent, &snap.CreatedAt,
			&snap.RecipientName, &snap.RecipientEmail); err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan pending reminder", err)
		}
		out = append(out, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to query pending reminders", err)
	}
	return out, nil
}

// FindByIDWithAssociations loads one reminder joined with its recipient
// contact fields. Returns (nil, nil) when the reminder no longer exists.
func (r *ReminderRepository) FindByIDWithAssociations(ctx context.Context, id int64) (*types.ReminderSnapshot, error) {
	row := r.db.QueryRow(ctx,
		`SELECT r.id, r.user_id, r.title, r.due_date, r.remind_at, r.executed_at,
		        r.sent, r.created_at, u.name, u.email
		 FROM reminders r
		 JOIN users u ON u.id = r.user_id
		 WHERE r.id = $1`,
		id,
	)
	var snap types.ReminderSnapshot
	err := row.Scan(&snap.ID, &snap.UserID, &snap.Title, &snap.DueDate,
		&snap.RemindAt, &snap.ExecutedAt, &snap.Sent, &snap.CreatedAt,
		&snap.RecipientName, &snap.RecipientEmail)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to load reminder snapshot", err)
	}
	return &snap, nil
}

// RegisterExecution marks a reminder as sent with its execution instant. The
// sent guard makes the write idempotent: a second trigger firing for the same
// reminder updates nothing.
func (r *ReminderRepository) RegisterExecution(ctx context.Context, id int64, executedAt time.Time) error {
	_, err := r.db.Exec(ctx,
		`UPDATE reminders SET sent = true, executed_at = $1
		 WHERE id = $2 AND sent = false`,
		executedAt,
		id,
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to register reminder execution", err)
	}
	return nil
}
