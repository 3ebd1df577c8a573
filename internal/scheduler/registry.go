package scheduler

import (
	"fmt"
	"sync"
	"time"
)

// Identity scheme: one stable job key groups every trigger belonging to a
// reminder, so cancellation is a single lookup however many triggers fired
// against it. Trigger keys extend the job key with the offset label;
// their uniqueness is what prevents duplicate arming.
const jobKeyPrefix = "reminder-job"

// JobKey returns the registry key for a reminder's job.
func JobKey(reminderID int64) string {
	return fmt.Sprintf("%s:%d", jobKeyPrefix, reminderID)
}

// TriggerKey returns the registry key for one named trigger of a reminder.
func TriggerKey(reminderID int64, offsetLabel string) string {
	return fmt.Sprintf("%s:%s", JobKey(reminderID), offsetLabel)
}

// Trigger is a single armed fire time tied to a job and an offset label.
type Trigger struct {
	Key    string
	Label  string
	FireAt time.Time

	timer TimerHandle
}

// Cancel stops the underlying timer. It reports false when the trigger had
// already fired (or was never armed); a trigger mid-fire is allowed to
// complete, cancellation only prevents future fires.
func (t *Trigger) Cancel() bool {
	if t.timer == nil {
		return false
	}
	return t.timer.Stop()
}

// JobEntry is one registered job and its live trigger set. Each entry owns
// its own lock so trigger churn on one reminder never contends with another.
type JobEntry struct {
	Key        string
	ReminderID int64

	mu       sync.Mutex
	triggers map[string]*Trigger
}

// PutTrigger installs a trigger under its key, replacing (and returning)
// any previous trigger with the same key. Replacement rather than
// accumulation is what makes re-scheduling idempotent.
func (e *JobEntry) PutTrigger(t *Trigger) (prev *Trigger) {
	e.mu.Lock()
	defer e.mu.Unlock()
	prev = e.triggers[t.Key]
	e.triggers[t.Key] = t
	return prev
}

// RemoveTrigger detaches a trigger by key without cancelling it.
func (e *JobEntry) RemoveTrigger(key string) (*Trigger, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	t, ok := e.triggers[key]
	if ok {
		delete(e.triggers, key)
	}
	return t, ok
}

// Triggers returns a snapshot of the live trigger set.
func (e *JobEntry) Triggers() []*Trigger {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*Trigger, 0, len(e.triggers))
	for _, t := range e.triggers {
		out = append(out, t)
	}
	return out
}

// ClearTriggers detaches and returns every trigger. Cancellation is the
// caller's job so no timer work happens under the entry lock.
func (e *JobEntry) ClearTriggers() []*Trigger {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*Trigger, 0, len(e.triggers))
	for _, t := range e.triggers {
		out = append(out, t)
	}
	e.triggers = make(map[string]*Trigger)
	return out
}

// TriggerCount returns the number of live triggers.
func (e *JobEntry) TriggerCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.triggers)
}

// Registry maps job keys to their persisted trigger sets. It is safe for
// concurrent use from request-handling paths and from the engine's own
// fired-trigger goroutines; the registry-wide lock only guards membership,
// per-job trigger state is guarded by each entry's lock.
type Registry struct {
	mu   sync.RWMutex
	jobs map[string]*JobEntry
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{jobs: make(map[string]*JobEntry)}
}

// Upsert returns the entry for key, creating it if absent. Re-registering
// an existing key returns the same entry without disturbing its triggers.
func (r *Registry) Upsert(key string, reminderID int64) *JobEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.jobs[key]; ok {
		return e
	}
	e := &JobEntry{
		Key:        key,
		ReminderID: reminderID,
		triggers:   make(map[string]*Trigger),
	}
	r.jobs[key] = e
	return e
}

// Get looks up a job entry.
func (r *Registry) Get(key string) (*JobEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.jobs[key]
	return e, ok
}

// Remove detaches and returns a job entry. The caller cancels its triggers
// outside the registry lock.
func (r *Registry) Remove(key string) (*JobEntry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.jobs[key]
	if ok {
		delete(r.jobs, key)
	}
	return e, ok
}

// Len returns the number of registered jobs.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.jobs)
}
