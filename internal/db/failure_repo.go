package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"reminderd/internal/types"
)

// FailureRepository provides data access for the email_send_failures table,
// the persistent retry queue behind the scheduler's FailureStore contract.
type FailureRepository struct {
	db DBTX
}

// NewFailureRepository creates a FailureRepository backed by the given
// database connection (pool or transaction).
func NewFailureRepository(db DBTX) *FailureRepository {
	return &FailureRepository{db: db}
}

// Enqueue persists a new failure record.
func (r *FailureRepository) Enqueue(ctx context.Context, rec *types.FailureRecord) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO email_send_failures
		 (id, email, subject, name, title, remind_at, due_date,
		  disable_notification_url, failed_at, retry_count, error_message)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		rec.ID,
		rec.Email,
		rec.Subject,
		rec.Name,
		rec.Title,
		rec.RemindAt,
		rec.DueDate,
		rec.DisableNotificationURL,
		rec.FailedAt,
		rec.RetryCount,
		rec.ErrorMessage,
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to enqueue failure record", err)
	}
	return nil
}

// DequeueBatch returns up to limit records, oldest first by failed_at.
// Records stay in the table; the sweep removes or re-persists each one after
// its retry attempt.
func (r *FailureRepository) DequeueBatch(ctx context.Context, limit int) ([]types.FailureRecord, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, email, subject, name, title, remind_at, due_date,
		        disable_notification_url, failed_at, retry_count, error_message
		 FROM email_send_failures
		 ORDER BY failed_at ASC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to query failure records", err)
	}
	defer rows.Close()

	return scanFailureRecords(rows)
}

// List returns every queued failure record, oldest first. It serves the
// failures inspection endpoint.
func (r *FailureRepository) List(ctx context.Context) ([]types.FailureRecord, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, email, subject, name, title, remind_at, due_date,
		        disable_notification_url, failed_at, retry_count, error_message
		 FROM email_send_failures
		 ORDER BY failed_at ASC`,
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to list failure records", err)
	}
	defer rows.Close()

	return scanFailureRecords(rows)
}

func scanFailureRecords(rows pgx.Rows) ([]types.FailureRecord, error) {
	var out []types.FailureRecord
	for rows.Next() {
		var rec types.FailureRecord
		if err := rows.Scan(&rec.ID, &rec.Email, &rec.Subject, &rec.Name, &rec.Title,
			&rec.RemindAt, &rec.DueDate, &rec.DisableNotificationURL,
			&rec.FailedAt, &rec.RetryCount, &rec.ErrorMessage); err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan failure record", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to read failure records", err)
	}
	return out, nil
}

// Remove deletes a retried record after a successful resend. Removing an
// already removed record is not an error.
func (r *FailureRepository) Remove(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM email_send_failures WHERE id = $1`, id)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to remove failure record", err)
	}
	return nil
}

// ReenqueueWithIncrementedRetry bumps the retry count and overwrites the
// error message after a failed resend. failed_at is untouched so the record
// keeps its place in the oldest-first ordering. The passed record is updated
// with the persisted retry count.
func (r *FailureRepository) ReenqueueWithIncrementedRetry(ctx context.Context, rec *types.FailureRecord, errorMessage string) error {
	row := r.db.QueryRow(ctx,
		`UPDATE email_send_failures
		 SET retry_count = retry_count + 1, error_message = $1
		 WHERE id = $2
		 RETURNING retry_count`,
		errorMessage,
		rec.ID,
	)
	err := row.Scan(&rec.RetryCount)
	if errors.Is(err, pgx.ErrNoRows) {
		return types.NewAppError(types.ErrCodeNotFoundFailure, "failure record not found", nil)
	}
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to update failure record", err)
	}
	rec.ErrorMessage = errorMessage
	return nil
}
