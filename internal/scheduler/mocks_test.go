package scheduler

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"reminderd/internal/types"
)

// manualTimer is a TimerHandle whose firing is driven by manualClock.
type manualTimer struct {
	mu      sync.Mutex
	fireAt  time.Time
	fn      func()
	stopped bool
	fired   bool
}

func (t *manualTimer) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.fired || t.stopped {
		return false
	}
	t.stopped = true
	return true
}

func (t *manualTimer) tryFire(now time.Time) bool {
	t.mu.Lock()
	if t.fired || t.stopped || t.fireAt.After(now) {
		t.mu.Unlock()
		return false
	}
	t.fired = true
	fn := t.fn
	t.mu.Unlock()
	fn()
	return true
}

// manualClock provides a controllable Now and AfterFunc for engine tests.
// Advancing the clock fires due timers synchronously in fire-time order.
type manualClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*manualTimer
}

func newManualClock(start time.Time) *manualClock {
	return &manualClock{now: start}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) After(d time.Duration, fn func()) TimerHandle {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTimer{fireAt: c.now.Add(d), fn: fn}
	c.timers = append(c.timers, t)
	return t
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	now := c.now
	pending := make([]*manualTimer, len(c.timers))
	copy(pending, c.timers)
	c.mu.Unlock()

	sort.Slice(pending, func(i, j int) bool {
		return pending[i].fireAt.Before(pending[j].fireAt)
	})
	for _, t := range pending {
		t.tryFire(now)
	}
}

// fakeReminderStore is an in-memory ReminderStore.
type fakeReminderStore struct {
	mu        sync.Mutex
	snapshots map[int64]*types.ReminderSnapshot

	findErr error
	execErr error

	executions []int64
}

func newFakeReminderStore() *fakeReminderStore {
	return &fakeReminderStore{snapshots: make(map[int64]*types.ReminderSnapshot)}
}

func (s *fakeReminderStore) put(snap types.ReminderSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[snap.ID] = &snap
}

func (s *fakeReminderStore) get(id int64) *types.ReminderSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshots[id]
}

func (s *fakeReminderStore) FindPending(_ context.Context, now time.Time) ([]types.ReminderSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findErr != nil {
		return nil, s.findErr
	}
	var out []types.ReminderSnapshot
	for _, snap := range s.snapshots {
		if snap.Pending(now) {
			out = append(out, *snap)
		}
	}
	return out, nil
}

func (s *fakeReminderStore) FindByIDWithAssociations(_ context.Context, id int64) (*types.ReminderSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findErr != nil {
		return nil, s.findErr
	}
	snap, ok := s.snapshots[id]
	if !ok {
		return nil, nil
	}
	cp := *snap
	return &cp, nil
}

func (s *fakeReminderStore) RegisterExecution(_ context.Context, id int64, executedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.execErr != nil {
		return s.execErr
	}
	s.executions = append(s.executions, id)
	if snap, ok := s.snapshots[id]; ok && !snap.Sent {
		snap.Sent = true
		at := executedAt
		snap.ExecutedAt = &at
	}
	return nil
}

// fakeFailureStore is an in-memory FailureStore with oldest-first batches.
type fakeFailureStore struct {
	mu      sync.Mutex
	records []types.FailureRecord

	enqueueErr error
	dequeueErr error
}

func newFakeFailureStore() *fakeFailureStore {
	return &fakeFailureStore{}
}

func (s *fakeFailureStore) Enqueue(_ context.Context, rec *types.FailureRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.enqueueErr != nil {
		return s.enqueueErr
	}
	s.records = append(s.records, *rec)
	return nil
}

func (s *fakeFailureStore) DequeueBatch(_ context.Context, limit int) ([]types.FailureRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dequeueErr != nil {
		return nil, s.dequeueErr
	}
	sorted := make([]types.FailureRecord, len(s.records))
	copy(sorted, s.records)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].FailedAt.Before(sorted[j].FailedAt)
	})
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted, nil
}

func (s *fakeFailureStore) Remove(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.records {
		if s.records[i].ID == id {
			s.records = append(s.records[:i], s.records[i+1:]...)
			return nil
		}
	}
	return nil
}

func (s *fakeFailureStore) ReenqueueWithIncrementedRetry(_ context.Context, rec *types.FailureRecord, errorMessage string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.records {
		if s.records[i].ID == rec.ID {
			s.records[i].RetryCount++
			s.records[i].ErrorMessage = errorMessage
			rec.RetryCount = s.records[i].RetryCount
			rec.ErrorMessage = errorMessage
			return nil
		}
	}
	return nil
}

func (s *fakeFailureStore) all() []types.FailureRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.FailureRecord, len(s.records))
	copy(out, s.records)
	return out
}

// fakeNotifier records calls and fails according to its script: errs[i] is
// returned for call i, with nil beyond the script's end.
type fakeNotifier struct {
	mu    sync.Mutex
	calls []map[string]string
	errs  []error
}

func (n *fakeNotifier) Send(_ context.Context, vars map[string]string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	cp := make(map[string]string, len(vars))
	for k, v := range vars {
		cp[k] = v
	}
	n.calls = append(n.calls, cp)
	if len(n.calls)-1 < len(n.errs) {
		return n.errs[len(n.calls)-1]
	}
	return nil
}

func (n *fakeNotifier) callCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.calls)
}

func (n *fakeNotifier) call(i int) map[string]string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.calls[i]
}

// harness wires a full engine around fakes with a manual clock.
type harness struct {
	clock    *manualClock
	store    *fakeReminderStore
	failures *fakeFailureStore
	notifier *fakeNotifier
	engine   *Engine
	registry *Registry
	executor *Executor
	sweep    *RetrySweep
	jobs     *JobService
	boot     *Bootstrap
}

func newHarness(t *testing.T, start time.Time) *harness {
	t.Helper()

	clock := newManualClock(start)
	store := newFakeReminderStore()
	failures := newFakeFailureStore()
	notifier := &fakeNotifier{}
	log := slog.Default()

	vars, err := NewVariableBuilder("UTC", "#")
	if err != nil {
		t.Fatalf("NewVariableBuilder: %v", err)
	}

	engine := NewEngine(EngineConfig{
		Logger: log,
		Now:    clock.Now,
		After:  clock.After,
	})
	registry := NewRegistry()

	executor := NewExecutor(ExecutorConfig{
		Store:    store,
		Failures: failures,
		Notifier: notifier,
		Vars:     vars,
		Logger:   log,
		Now:      clock.Now,
	})
	sweep := NewRetrySweep(RetrySweepConfig{
		Failures: failures,
		Notifier: notifier,
		Vars:     vars,
		Logger:   log,
	})

	jobs := NewJobService(JobServiceConfig{
		Engine:   engine,
		Registry: registry,
		Execute: func(ctx context.Context, id int64) {
			_ = executor.Execute(ctx, id)
		},
		Sweep: func(ctx context.Context) {
			_ = sweep.Run(ctx)
		},
		Logger: log,
	})

	return &harness{
		clock:    clock,
		store:    store,
		failures: failures,
		notifier: notifier,
		engine:   engine,
		registry: registry,
		executor: executor,
		sweep:    sweep,
		jobs:     jobs,
		boot:     NewBootstrap(store, jobs, log),
	}
}

func snapshotAt(id int64, due time.Time) types.ReminderSnapshot {
	return types.ReminderSnapshot{
		Reminder: types.Reminder{
			ID:      id,
			UserID:  1,
			Title:   "pagar aluguel",
			DueDate: due,
		},
		RecipientName:  "Ana",
		RecipientEmail: "ana@example.com",
	}
}
