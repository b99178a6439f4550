package wdk

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestParseBaseURL_DefaultsAndNormalizes(t *testing.T) {
	u, err := parseBaseURL("")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.Scheme != "http" || u.Host != "localhost:8080" || u.Path != "/service/" {
		t.Fatalf("default base = %q, want http://localhost:8080/service/", u.String())
	}

	u, err = parseBaseURL("example.org/wdk?x=1#frag")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.RawQuery != "" || u.Fragment != "" {
		t.Fatalf("url not normalized: %q", u.String())
	}
	if u.Path != "/wdk/" {
		t.Fatalf("path = %q, want /wdk/", u.Path)
	}
}

type recordedRequest struct {
	method string
	path   string
	body   string
	auth   string
}

func newTestServer(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) (*httptest.Server, *[]recordedRequest) {
	t.Helper()
	var mu sync.Mutex
	var seen []recordedRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		seen = append(seen, recordedRequest{
			method: r.Method,
			path:   r.URL.Path,
			body:   string(body),
			auth:   r.Header.Get("Auth-Key"),
		})
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		handler(w, r)
	}))
	t.Cleanup(server.Close)
	return server, &seen
}

func TestClient_RoutesEveryOperation(t *testing.T) {
	t.Parallel()

	server, seen := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method + " " + r.URL.Path {
		case "GET /service/users/current/steps/7/analyses":
			_ = json.NewEncoder(w).Encode([]AnalysisConfig{{AnalysisID: 1, DisplayName: "GO Enrichment", AnalysisName: "go-enrichment", Status: StatusComplete}})
		case "GET /service/users/current/steps/7/analysis-types":
			_ = json.NewEncoder(w).Encode([]AnalysisType{{Name: "go-enrichment", DisplayName: "GO Enrichment", HasParameters: true}})
		case "GET /service/users/current/steps/7/analyses/1":
			_ = json.NewEncoder(w).Encode(AnalysisConfig{AnalysisID: 1, AnalysisName: "go-enrichment", Status: StatusRunning})
		case "GET /service/users/current/steps/7/analysis-types/go-enrichment":
			_, _ = w.Write([]byte(`{"searchParams":[{"name":"pValueCutoff","displayName":"P-Value cutoff","defaultValue":"0.05"}]}`))
		case "GET /service/users/current/steps/7/analyses/1/result":
			_, _ = w.Write([]byte(`{"resultData":[{"goId":"GO:0001"}]}`))
		case "POST /service/users/current/steps/7/analyses":
			_ = json.NewEncoder(w).Encode(AnalysisConfig{AnalysisID: 2, DisplayName: "Copy", AnalysisName: "go-enrichment", Status: StatusCreated})
		case "PUT /service/users/current/steps/7/analyses/1/properties":
			_, _ = w.Write([]byte(`["pValueCutoff must be positive"]`))
		case "POST /service/users/current/steps/7/analyses/1/result":
			_ = json.NewEncoder(w).Encode(StatusResponse{Status: StatusPending})
		case "GET /service/users/current/steps/7/analyses/1/result/status":
			_ = json.NewEncoder(w).Encode(StatusResponse{Status: StatusComplete})
		case "DELETE /service/users/current/steps/7/analyses/1":
			w.WriteHeader(http.StatusNoContent)
		case "PATCH /service/users/current/steps/7/analyses/1":
			w.WriteHeader(http.StatusNoContent)
		default:
			http.NotFound(w, r)
		}
	})

	c, err := NewClient(Options{BaseURL: server.URL + "/service", AuthToken: " secret "})
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)

	applied, err := c.AppliedAnalyses(ctx, 7)
	if err != nil || len(applied) != 1 || applied[0].DisplayName != "GO Enrichment" {
		t.Fatalf("AppliedAnalyses = %#v, %v", applied, err)
	}
	types, err := c.AnalysisTypes(ctx, 7)
	if err != nil || len(types) != 1 || !types[0].HasParameters {
		t.Fatalf("AnalysisTypes = %#v, %v", types, err)
	}
	cfg, err := c.Analysis(ctx, 7, 1)
	if err != nil || cfg.Status != StatusRunning {
		t.Fatalf("Analysis = %#v, %v", cfg, err)
	}
	specs, err := c.ParamSpecs(ctx, 7, "go-enrichment")
	if err != nil || len(specs) != 1 || specs[0].DefaultValue != "0.05" {
		t.Fatalf("ParamSpecs = %#v, %v", specs, err)
	}
	result, err := c.Result(ctx, 7, 1)
	if err != nil || !strings.Contains(string(result), "GO:0001") {
		t.Fatalf("Result = %s, %v", result, err)
	}
	created, err := c.CreateAnalysis(ctx, 7, NewAnalysis{DisplayName: "Copy", AnalysisName: "go-enrichment"})
	if err != nil || created.AnalysisID != 2 {
		t.Fatalf("CreateAnalysis = %#v, %v", created, err)
	}
	validation, err := c.UpdateFormParams(ctx, 7, 1, map[string][]string{"pValueCutoff": {"-1"}})
	if err != nil || len(validation) != 1 {
		t.Fatalf("UpdateFormParams = %#v, %v", validation, err)
	}
	run, err := c.RunAnalysis(ctx, 7, 1)
	if err != nil || run.Status != StatusPending {
		t.Fatalf("RunAnalysis = %#v, %v", run, err)
	}
	status, err := c.RunStatus(ctx, 7, 1)
	if err != nil || status.Status != StatusComplete {
		t.Fatalf("RunStatus = %#v, %v", status, err)
	}
	if err := c.DeleteAnalysis(ctx, 7, 1); err != nil {
		t.Fatalf("DeleteAnalysis returned error: %v", err)
	}
	if err := c.RenameAnalysis(ctx, 7, 1, "Renamed"); err != nil {
		t.Fatalf("RenameAnalysis returned error: %v", err)
	}

	requests := *seen
	if len(requests) != 11 {
		t.Fatalf("server saw %d requests, want 11", len(requests))
	}
	for _, req := range requests {
		if req.auth != "secret" {
			t.Fatalf("%s %s Auth-Key = %q, want secret", req.method, req.path, req.auth)
		}
	}
	create := requests[5]
	if !strings.Contains(create.body, `"analysisName":"go-enrichment"`) || !strings.Contains(create.body, `"displayName":"Copy"`) {
		t.Fatalf("create body = %s", create.body)
	}
	rename := requests[10]
	if rename.body != `{"displayName":"Renamed"}` {
		t.Fatalf("rename body = %s", rename.body)
	}
}

func TestClient_ParamSpecsAreCached(t *testing.T) {
	t.Parallel()

	server, seen := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"searchParams":[{"name":"organism"}]}`))
	})
	c, err := NewClient(Options{BaseURL: server.URL, ParamCacheSize: 2})
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	first, err := c.ParamSpecs(context.Background(), 3, "word-enrichment")
	if err != nil {
		t.Fatalf("ParamSpecs returned error: %v", err)
	}
	first[0].Name = "mutated"

	second, err := c.ParamSpecs(context.Background(), 3, "word-enrichment")
	if err != nil {
		t.Fatalf("ParamSpecs returned error: %v", err)
	}
	if second[0].Name != "organism" {
		t.Fatalf("cached spec name = %q, want organism", second[0].Name)
	}
	if len(*seen) != 1 {
		t.Fatalf("server saw %d requests, want 1", len(*seen))
	}

	if _, err := c.ParamSpecs(context.Background(), 4, "word-enrichment"); err != nil {
		t.Fatalf("ParamSpecs returned error: %v", err)
	}
	if len(*seen) != 2 {
		t.Fatalf("server saw %d requests, want cache keyed by step", len(*seen))
	}
}

func TestClient_ParamSpecsRequiresName(t *testing.T) {
	c, err := NewClient(Options{BaseURL: "127.0.0.1:1"})
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	if _, err := c.ParamSpecs(context.Background(), 1, "  "); err == nil {
		t.Fatalf("ParamSpecs returned nil error, want error")
	}
}

type observedCall struct {
	op  string
	err error
}

type recordingObserver struct {
	mu    sync.Mutex
	calls []observedCall
}

func (r *recordingObserver) ObserveRequest(op string, _ time.Duration, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, observedCall{op: op, err: err})
}

func TestClient_HTTPErrorAndDecodeError(t *testing.T) {
	t.Parallel()

	server, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/users/current/steps/1/analyses":
			_, _ = w.Write([]byte("{not-json"))
		case "/users/current/steps/1/analysis-types":
			http.Error(w, "step is not ready", http.StatusInternalServerError)
		default:
			http.NotFound(w, r)
		}
	})
	observer := &recordingObserver{}
	c, err := NewClient(Options{BaseURL: server.URL, Observer: observer})
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	_, err = c.AppliedAnalyses(context.Background(), 1)
	if err == nil || !strings.Contains(err.Error(), "decode response") {
		t.Fatalf("AppliedAnalyses error = %v, want decode response error", err)
	}

	_, err = c.AnalysisTypes(context.Background(), 1)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("AnalysisTypes error = %v, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusInternalServerError || !strings.Contains(apiErr.Body, "step is not ready") {
		t.Fatalf("APIError = %#v", apiErr)
	}

	if len(observer.calls) != 2 || observer.calls[0].op != "list_analyses" || observer.calls[1].err == nil {
		t.Fatalf("observer calls = %#v", observer.calls)
	}
}
