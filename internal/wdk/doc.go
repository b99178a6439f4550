// Package wdk provides an HTTP client for the WDK step-analysis service.
//
// # Overview
//
// A step analysis is a server-side computation (GO enrichment, word
// enrichment, an externally hosted viewer, ...) attached to a search step.
// This package covers the calls the analysis panels need: listing applied
// analyses and available analysis types, loading an analysis and its
// parameter specs, creating, updating, running, polling, renaming and
// deleting analyses, and fetching results.
//
// # Architecture
//
//   - client.go: Client, the AnalysisService interface and request handling
//   - types.go: payloads mirroring the service schema
//
// # Client Usage
//
//	client, err := wdk.NewClient(wdk.Options{BaseURL: "https://example.org/service"})
//	if err != nil {
//		return err
//	}
//	applied, err := client.AppliedAnalyses(ctx, stepID)
//
// # Endpoints
//
// All paths are relative to the configured service URL:
//
//   - GET    users/current/steps/{step}/analyses
//   - POST   users/current/steps/{step}/analyses
//   - GET    users/current/steps/{step}/analysis-types
//   - GET    users/current/steps/{step}/analysis-types/{name}
//   - GET    users/current/steps/{step}/analyses/{id}
//   - PATCH  users/current/steps/{step}/analyses/{id}
//   - DELETE users/current/steps/{step}/analyses/{id}
//   - PUT    users/current/steps/{step}/analyses/{id}/properties
//   - GET    users/current/steps/{step}/analyses/{id}/result
//   - POST   users/current/steps/{step}/analyses/{id}/result
//   - GET    users/current/steps/{step}/analyses/{id}/result/status
//
// # Caching
//
// Parameter specs rarely change for a given step and analysis type, so
// ParamSpecs keeps them in a bounded LRU cache. Callers receive copies.
//
// # Error Handling
//
// Responses with status >= 400 become *APIError values carrying the path,
// status code and a short body excerpt. Network and decode failures are
// wrapped with context. The client never retries; retry policy belongs to
// the caller.
//
// # Instrumentation
//
// An optional RequestObserver is told the operation name, latency and error
// of every call. The metrics package implements it.
package wdk
