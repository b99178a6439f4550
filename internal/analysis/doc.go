// Package analysis is the step analysis panel state machine.
//
// # Overview
//
// A search step can carry any number of analyses, each shown as a tab. The
// package models one step's tabs as a Registry value: the available analysis
// types, the panels keyed by PanelID, their tab order and the active tab.
//
// A panel is exactly one of four variants:
//
//	Uninitialized ──select──→ Saved
//	      ↑                     ↺ submit, poll, rename
//	 (listing)      Menu ──choose──→ Unsaved ──submit──→ Saved
//
// # Events, reducer, observers
//
// Everything that happens to a registry is an Event. Reduce is the pure
// transition function: it returns a new Registry and never touches the one
// it was given, so any snapshot handed to a reader stays consistent.
//
// Observers react to an event after it has been reduced. They see the
// registry before and after the event, decide synchronously whether to act,
// and return an Effect that performs the slow part (service calls, user
// prompts, the one-second countdown) off the event loop. An Effect answers
// with more events, which go back through Reduce:
//
//	event → Reduce → observers → effects → events → ...
//
// Observers always read the registry as of the event being handled, never a
// copy captured earlier. Events for a panel that has been removed therefore
// resolve to nothing, which is also how a poll loop ends when its tab closes.
// Effects answer with what the service returned (a Submission), and Reduce
// merges it into the panel as it is then, so edits made meanwhile survive.
//
// # Polling
//
// While a saved analysis runs, check-result-status resets its countdown to 3
// and each count-down tick waits one interval and decrements it, so the
// status is re-checked after three ticks:
//
//	check(3) → tick(2) → tick(1) → tick(0) → check(3) → ...
//
// # Errors
//
// No failure stops the event loop. Listing failures are logged and yield no
// tabs. Load and poll failures are stored in the panel. Submission, delete
// and rename failures are shown through the Prompter; delete and rename
// still apply locally.
//
// Machine bundles Reduce with the standard observers. The event loop itself
// lives in internal/state.
package analysis
