package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// TimerHandle is the cancellable handle of an armed one-shot timer.
// *time.Timer satisfies it; tests substitute manual handles.
type TimerHandle interface {
	// Stop prevents a pending fire. It reports false when the timer has
	// already fired or been stopped.
	Stop() bool
}

// AfterFunc matches time.AfterFunc and allows tests to intercept arming.
type AfterFunc func(d time.Duration, fn func()) TimerHandle

// ErrEngineClosed is returned when an operation is attempted against an
// engine that has been stopped.
var ErrEngineClosed = fmt.Errorf("scheduler: engine is closed")

// Engine is the clock/trigger primitive: it arms fire-once callbacks at
// absolute instants and runs named fixed-interval jobs. It owns no domain
// logic; the facade decides what fires and when.
type Engine struct {
	log     *slog.Logger
	nowFn   func() time.Time
	afterFn AfterFunc
	cron    *cron.Cron

	mu       sync.Mutex
	interval map[string]cron.EntryID
	closed   bool
}

// EngineConfig holds the dependencies for creating an Engine. Now and
// After default to the real clock; tests override them to drive time.
type EngineConfig struct {
	Logger *slog.Logger
	Now    func() time.Time
	After  AfterFunc
}

// NewEngine creates an Engine. The interval runner is created immediately
// but does not tick until Start.
func NewEngine(cfg EngineConfig) *Engine {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	nowFn := cfg.Now
	if nowFn == nil {
		nowFn = time.Now
	}
	afterFn := cfg.After
	if afterFn == nil {
		afterFn = func(d time.Duration, fn func()) TimerHandle {
			return time.AfterFunc(d, fn)
		}
	}
	return &Engine{
		log:      log,
		nowFn:    nowFn,
		afterFn:  afterFn,
		cron:     cron.New(),
		interval: make(map[string]cron.EntryID),
	}
}

// Now returns the engine's notion of the current instant.
func (e *Engine) Now() time.Time {
	return e.nowFn()
}

// Start begins running interval jobs. One-shot triggers are live from the
// moment they are armed regardless of Start.
func (e *Engine) Start() {
	e.cron.Start()
}

// Stop cancels interval scheduling and marks the engine closed; already
// running job invocations finish. Blocks until running jobs complete or
// ctx expires. Armed one-shot triggers are not stopped here -- the facade
// owns them through the registry.
func (e *Engine) Stop(ctx context.Context) {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()

	done := e.cron.Stop().Done()
	select {
	case <-done:
	case <-ctx.Done():
	}
}

// ArmAt arms fn to run once at fireAt on its own goroutine. A fire time
// already in the past counts as a misfire and fires immediately, matching
// the recovery semantics of re-arming persisted triggers after a restart.
func (e *Engine) ArmAt(fireAt time.Time, fn func()) (TimerHandle, error) {
	e.mu.Lock()
	closed := e.closed
	e.mu.Unlock()
	if closed {
		return nil, ErrEngineClosed
	}

	delay := fireAt.Sub(e.nowFn())
	if delay < 0 {
		delay = 0
	}
	return e.afterFn(delay, fn), nil
}

// RegisterIntervalJob registers fn to run every interval under a stable
// name. Re-registering the same name replaces the previous schedule rather
// than duplicating it, so the call is safe to repeat at every boot.
func (e *Engine) RegisterIntervalJob(name string, every time.Duration, fn func()) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrEngineClosed
	}

	if prev, ok := e.interval[name]; ok {
		e.cron.Remove(prev)
		e.log.Debug("interval job replaced", "job", name)
	}

	id, err := e.cron.AddFunc(fmt.Sprintf("@every %s", every), fn)
	if err != nil {
		return fmt.Errorf("scheduler: registering interval job %q: %w", name, err)
	}
	e.interval[name] = id

	e.log.Info("interval job registered", "job", name, "every", every.String())
	return nil
}
