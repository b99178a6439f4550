// Package app provides the orchestration layer for the step analysis client.
//
// # Overview
//
// This package wires together configuration, logging, metrics, the WDK
// gateway, the analysis state machine and the UI. It is the composition
// root where all dependencies are initialized and connected.
//
// # Architecture
//
//  1. Load settings from ~/.config/stepanalysis/config.toml (flags override)
//  2. Open the log file and build the slog logger
//  3. Register Prometheus collectors on a private registry
//  4. Create the WDK client, reporting every call to the metrics
//  5. Build the analysis machine with the UI prompter as its confirm/alert sink
//  6. Run the store, the optional /metrics server and the TUI in one errgroup
//
// # Components
//
//   - app.go: Run and the shared config/client helpers
//   - list.go: Non-interactive listing of a step's analyses and types
//   - logging.go: Log file and handler setup
//
// # Data Flow
//
//	┌──────────────┐
//	│   Run()      │ Initialize everything
//	└──────┬───────┘
//	       │
//	       ├─────> config.Load()        Read settings
//	       ├─────> newLogger()          Text or JSON log file
//	       ├─────> metrics.New()        Collectors on a private registry
//	       ├─────> wdk.NewClient()      HTTP gateway with spec cache
//	       ├─────> analysis.NewMachine()
//	       ├─────> state.New()          Event loop and effect runner
//	       └─────> errgroup
//	                 ├── store.Run()
//	                 ├── metrics.Serve()  (when metrics_addr is set)
//	                 └── ui.Run()         (blocks; exit cancels the group)
//
// # Shutdown
//
// Quitting the UI or cancelling the parent context stops the group. The
// store waits for in-flight effects, discards every panel and returns; the
// metrics server shuts down gracefully.
package app
