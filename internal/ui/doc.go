// Package ui provides the terminal user interface for the step analysis panel.
//
// # Architecture Overview
//
// The UI is a Bubble Tea program that renders the analysis registry of one
// search step as a row of tabs. It never changes panel state itself: every
// user action becomes an analysis event dispatched to the state.Store, and
// every screen is drawn from the latest store snapshot.
//
// # Package Structure
//
//   - model.go: Model, Update loop, key handling and the Run entry point
//   - panel_view.go: Tab strip and per-variant panel rendering
//   - modal.go: Confirm/alert, rename and parameter editing dialogs
//   - prompter.go: Bridge that lets state machine effects ask the user
//   - keys.go, help.go: Key bindings and the help overlay
//   - theme.go: Color themes (Nightfox, Kanagawa, Slate)
//
// # Panels
//
// Each tab shows one panel variant:
//
//   - Uninitialized: An analysis from the step listing that is loading or failed to load
//   - Analysis menu: The list of analysis types the step offers
//   - Unsaved: A chosen analysis with its parameter form, not yet on the server
//   - Saved: A persisted analysis with its form and result
//
// Forms and results are rendered by the plugin registered for the analysis
// type, falling back to a generic parameter list and JSON dump.
//
// # Event Flow
//
//  1. Init fetches the snapshot, subscribes to changes and dispatches StartLoadingTabListing
//  2. Each store notification triggers a snapshot fetch and a redraw
//  3. When panels exist but none is active, the first tab is selected
//  4. Keys and dialogs produce dispatchMsg values, which Update hands to the store
//  5. Effects that need the user send a promptMsg through Prompter and block for the answer
//  6. A closed snapshot or context cancellation ends the program
//
// # Usage Example
//
//	prompter := ui.NewPrompter()
//	machine := analysis.NewMachine(analysis.Deps{Service: client, Prompter: prompter})
//	store := state.New(stepID, machine)
//	go store.Run(ctx)
//	if err := ui.Run(ctx, ui.Options{Store: store, Prompter: prompter}); err != nil {
//		log.Fatal(err)
//	}
//
// # Key Bindings
//
//   - tab/shift+tab (l/h): Next/previous tab
//   - n: Open a new analysis menu tab
//   - j/k: Move the menu cursor or scroll
//   - enter: Choose the analysis under the cursor
//   - s: Run the analysis
//   - e: Edit parameters
//   - r: Rename
//   - c: Duplicate
//   - x: Delete (asks for confirmation)
//   - D/f: Toggle description/form
//   - o: Toggle result sort order
//   - T: Cycle theme
//   - ?: Help
//   - q or Ctrl+C: Exit
package ui
