package scheduler

import (
	"context"
	"log/slog"

	"reminderd/internal/types"
)

// RetrySweep drains a bounded batch of the failure queue through the
// notifier. Records are processed strictly sequentially within one sweep:
// oldest-first ordering stays predictable and an outage is never amplified
// by parallel resend attempts.
//
// There is no retry-count cap -- a permanently failing address retries at
// every sweep. Deliberate simplification; the count is surfaced via the
// failures API so runaway records are visible.
type RetrySweep struct {
	failures  FailureStore
	notifier  Notifier
	vars      *VariableBuilder
	batchSize int
	log       *slog.Logger
}

// RetrySweepConfig holds the dependencies for creating a RetrySweep.
type RetrySweepConfig struct {
	Failures FailureStore
	Notifier Notifier
	Vars     *VariableBuilder
	// BatchSize bounds work per tick; defaults to 20.
	BatchSize int
	Logger    *slog.Logger
}

// NewRetrySweep creates a RetrySweep.
func NewRetrySweep(cfg RetrySweepConfig) *RetrySweep {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	batch := cfg.BatchSize
	if batch <= 0 {
		batch = 20
	}
	return &RetrySweep{
		failures:  cfg.Failures,
		notifier:  cfg.Notifier,
		vars:      cfg.Vars,
		batchSize: batch,
		log:       log,
	}
}

// Run executes one sweep: fetch the oldest batch, retry each record in
// order, remove successes, re-persist failures with an incremented retry
// count. Returns an error only when the batch cannot be fetched at all.
func (s *RetrySweep) Run(ctx context.Context) error {
	batch, err := s.failures.DequeueBatch(ctx, s.batchSize)
	if err != nil {
		return err
	}
	if len(batch) == 0 {
		return nil
	}

	s.log.Info("retry sweep started", "records", len(batch))

	for i := range batch {
		s.retryOne(ctx, &batch[i])
	}
	return nil
}

func (s *RetrySweep) retryOne(ctx context.Context, rec *types.FailureRecord) {
	vars := s.vars.FromFailureRecord(rec)

	if err := s.notifier.Send(ctx, vars); err != nil {
		s.log.Error("email resend failed",
			"failure_id", rec.ID,
			"retry_count", rec.RetryCount,
			"error", err.Error(),
		)
		if perr := s.failures.ReenqueueWithIncrementedRetry(ctx, rec, err.Error()); perr != nil {
			s.log.Error("failed to persist retry state",
				"failure_id", rec.ID,
				"error", perr.Error(),
			)
		}
		return
	}

	if err := s.failures.Remove(ctx, rec.ID); err != nil {
		s.log.Error("failed to remove retried failure record",
			"failure_id", rec.ID,
			"error", err.Error(),
		)
		return
	}

	s.log.Info("email resend successful", "failure_id", rec.ID, "email", rec.Email)
}
