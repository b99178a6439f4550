// Package state runs the step analysis event loop and publishes its state.
//
// # Overview
//
// A Store owns the analysis registry of one search step. The UI and the
// effects spawned by the state machine both feed it events; the Store
// applies them one at a time and publishes the resulting registry as an
// immutable snapshot.
//
// # Architecture
//
//	Producers:                       Store:                      Readers:
//	┌────────────────┐              ┌───────────────────┐       ┌──────────────┐
//	│ UI key presses │──Dispatch──→ │ queue             │       │              │
//	│ effect results │              │   ↓               │       │ Snapshot()   │
//	└────────────────┘              │ Machine.Apply     │──────→│ Subscribe()  │
//	        ↑                       │   ↓               │       │ render UI    │
//	        └────── go effect(ctx) ─│ effects           │       └──────────────┘
//	                                └───────────────────┘
//
// Run is the only goroutine that changes the registry, so transitions never
// interleave. Effects (service calls, prompts, countdown timers) run in
// their own goroutines and report back through Dispatch, which never
// blocks: the queue is unbounded.
//
// # Concurrency Model
//
//   - Dispatch: appends under a mutex and wakes Run. Safe from any goroutine.
//   - Snapshot: read lock only. The registry inside is never mutated, so it
//     can be kept and rendered after the lock is released.
//   - Subscribe: one buffered channel per reader. Notifications coalesce;
//     readers always take a fresh Snapshot rather than trusting a count.
//
// # Lifecycle
//
//	store := state.New(stepID, analysis.NewMachine(deps), state.WithLogger(log))
//	go store.Run(ctx)
//	store.Dispatch(analysis.StartLoadingTabListing{})
//	...
//	cancel() // Run waits for effects, then discards every panel
//
// After Run returns, Snapshot reports Closed and an empty registry for the
// same step. A Store is not restarted; open a new one for another step.
//
// # Instrumentation
//
// An optional Observer (see internal/metrics) is told about every applied
// event, the panel count and the number of effects in flight. Every event
// is also traced at debug level on the configured slog logger.
package state
