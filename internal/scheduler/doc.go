// Package scheduler implements the reminder scheduling and delivery-retry
// engine: planning of advance-notice fire times, a concurrent job/trigger
// registry, the fire-once trigger primitive, the idempotent execution
// handler, the failure-queue retry sweep, and bootstrap recovery after a
// process restart.
//
// The engine is a single-process subsystem. Trigger state lives in memory
// and is rebuilt at startup from the reminder store, so correctness never
// depends on in-process timers surviving a restart.
package scheduler
