package wdk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// AnalysisService lists every step-analysis call the client supports.
// It is implemented by *Client and can be faked in tests.
type AnalysisService interface {
	AppliedAnalyses(ctx context.Context, stepID int64) ([]AnalysisConfig, error)
	AnalysisTypes(ctx context.Context, stepID int64) ([]AnalysisType, error)
	Analysis(ctx context.Context, stepID, analysisID int64) (AnalysisConfig, error)
	ParamSpecs(ctx context.Context, stepID int64, analysisName string) ([]ParamSpec, error)
	Result(ctx context.Context, stepID, analysisID int64) (Result, error)
	CreateAnalysis(ctx context.Context, stepID int64, analysis NewAnalysis) (AnalysisConfig, error)
	UpdateFormParams(ctx context.Context, stepID, analysisID int64, values map[string][]string) ([]string, error)
	RunAnalysis(ctx context.Context, stepID, analysisID int64) (StatusResponse, error)
	RunStatus(ctx context.Context, stepID, analysisID int64) (StatusResponse, error)
	DeleteAnalysis(ctx context.Context, stepID, analysisID int64) error
	RenameAnalysis(ctx context.Context, stepID, analysisID int64, displayName string) error
}

// Ensure Client implements AnalysisService at compile time.
var _ AnalysisService = (*Client)(nil)

// RequestObserver receives the outcome of every API call.
type RequestObserver interface {
	ObserveRequest(op string, elapsed time.Duration, err error)
}

// APIError reports a non-2xx response from the service.
type APIError struct {
	Path       string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("api %s returned status %d", e.Path, e.StatusCode)
	}
	return fmt.Sprintf("api %s returned status %d: %s", e.Path, e.StatusCode, e.Body)
}

// Options configure a Client.
type Options struct {
	BaseURL        string
	AuthToken      string
	Timeout        time.Duration
	ParamCacheSize int
	Observer       RequestObserver
}

// Client talks to the WDK step-analysis REST API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
	authToken string
	observer  RequestObserver
	specs     *lru.Cache[string, []ParamSpec]
}

const (
	defaultBaseURL        = "http://localhost:8080/service"
	defaultUserAgent      = "stepanalysis/0.1"
	defaultTimeout        = 30 * time.Second
	defaultParamCacheSize = 64
	maxErrorBody          = 512
)

// NewClient builds a Client for the service rooted at opts.BaseURL.
func NewClient(opts Options) (*Client, error) {
	base, err := parseBaseURL(opts.BaseURL)
	if err != nil {
		return nil, err
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	size := opts.ParamCacheSize
	if size <= 0 {
		size = defaultParamCacheSize
	}
	specs, err := lru.New[string, []ParamSpec](size)
	if err != nil {
		return nil, fmt.Errorf("param spec cache: %w", err)
	}
	return &Client{
		baseURL:   base,
		http:      &http.Client{Timeout: timeout},
		userAgent: defaultUserAgent,
		authToken: strings.TrimSpace(opts.AuthToken),
		observer:  opts.Observer,
		specs:     specs,
	}, nil
}

// AppliedAnalyses lists the analyses already attached to a step.
func (c *Client) AppliedAnalyses(ctx context.Context, stepID int64) ([]AnalysisConfig, error) {
	var payload []AnalysisConfig
	err := c.call(ctx, "list_analyses", http.MethodGet, analysesPath(stepID), nil, &payload)
	return payload, err
}

// AnalysisTypes lists the analysis types available for a step.
func (c *Client) AnalysisTypes(ctx context.Context, stepID int64) ([]AnalysisType, error) {
	var payload []AnalysisType
	err := c.call(ctx, "list_types", http.MethodGet, stepPath(stepID)+"/analysis-types", nil, &payload)
	return payload, err
}

// Analysis fetches one analysis instance.
func (c *Client) Analysis(ctx context.Context, stepID, analysisID int64) (AnalysisConfig, error) {
	var payload AnalysisConfig
	err := c.call(ctx, "get_analysis", http.MethodGet, analysisPath(stepID, analysisID), nil, &payload)
	return payload, err
}

// ParamSpecs fetches the parameter declarations of an analysis type.
// Results are cached per step and type.
func (c *Client) ParamSpecs(ctx context.Context, stepID int64, analysisName string) ([]ParamSpec, error) {
	name := strings.TrimSpace(analysisName)
	if name == "" {
		return nil, fmt.Errorf("analysis name required")
	}
	key := strconv.FormatInt(stepID, 10) + "/" + name
	if specs, ok := c.specs.Get(key); ok {
		return cloneSpecs(specs), nil
	}
	var payload paramSpecsResponse
	path := stepPath(stepID) + "/analysis-types/" + name
	if err := c.call(ctx, "param_specs", http.MethodGet, path, nil, &payload); err != nil {
		return nil, err
	}
	c.specs.Add(key, cloneSpecs(payload.SearchParams))
	return payload.SearchParams, nil
}

// Result fetches the result payload of a completed analysis.
func (c *Client) Result(ctx context.Context, stepID, analysisID int64) (Result, error) {
	var payload Result
	err := c.call(ctx, "get_result", http.MethodGet, analysisPath(stepID, analysisID)+"/result", nil, &payload)
	return payload, err
}

// CreateAnalysis attaches a new analysis of the given type to a step.
func (c *Client) CreateAnalysis(ctx context.Context, stepID int64, analysis NewAnalysis) (AnalysisConfig, error) {
	var payload AnalysisConfig
	err := c.call(ctx, "create_analysis", http.MethodPost, analysesPath(stepID), analysis, &payload)
	return payload, err
}

// UpdateFormParams stores form values and returns the validation errors the
// service reported, if any.
func (c *Client) UpdateFormParams(ctx context.Context, stepID, analysisID int64, values map[string][]string) ([]string, error) {
	if values == nil {
		values = map[string][]string{}
	}
	var payload []string
	err := c.call(ctx, "update_form", http.MethodPut, analysisPath(stepID, analysisID)+"/properties", values, &payload)
	return payload, err
}

// RunAnalysis starts an execution of the analysis.
func (c *Client) RunAnalysis(ctx context.Context, stepID, analysisID int64) (StatusResponse, error) {
	var payload StatusResponse
	err := c.call(ctx, "run_analysis", http.MethodPost, analysisPath(stepID, analysisID)+"/result", nil, &payload)
	return payload, err
}

// RunStatus fetches the execution status of the analysis.
func (c *Client) RunStatus(ctx context.Context, stepID, analysisID int64) (StatusResponse, error) {
	var payload StatusResponse
	err := c.call(ctx, "run_status", http.MethodGet, analysisPath(stepID, analysisID)+"/result/status", nil, &payload)
	return payload, err
}

// DeleteAnalysis removes the analysis from the step.
func (c *Client) DeleteAnalysis(ctx context.Context, stepID, analysisID int64) error {
	return c.call(ctx, "delete_analysis", http.MethodDelete, analysisPath(stepID, analysisID), nil, nil)
}

// RenameAnalysis changes the analysis display name.
func (c *Client) RenameAnalysis(ctx context.Context, stepID, analysisID int64, displayName string) error {
	body := renameRequest{DisplayName: displayName}
	return c.call(ctx, "rename_analysis", http.MethodPatch, analysisPath(stepID, analysisID), body, nil)
}

func (c *Client) call(ctx context.Context, op, method, path string, body, dest any) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	start := time.Now()
	err := c.do(ctx, method, path, body, dest)
	if c.observer != nil {
		c.observer.ObserveRequest(op, time.Since(start), err)
	}
	return err
}

func (c *Client) do(ctx context.Context, method, path string, body, dest any) error {
	rel := &url.URL{Path: strings.TrimPrefix(path, "/")}
	reqURL := c.baseURL.ResolveReference(rel)

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.authToken != "" {
		req.Header.Set("Auth-Key", c.authToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &APIError{Path: path, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(excerpt))}
	}
	if dest == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func stepPath(stepID int64) string {
	return "/users/current/steps/" + strconv.FormatInt(stepID, 10)
}

func analysesPath(stepID int64) string {
	return stepPath(stepID) + "/analyses"
}

func analysisPath(stepID, analysisID int64) string {
	return analysesPath(stepID) + "/" + strconv.FormatInt(analysisID, 10)
}

func cloneSpecs(specs []ParamSpec) []ParamSpec {
	if specs == nil {
		return nil
	}
	dup := make([]ParamSpec, len(specs))
	copy(dup, specs)
	return dup
}

func parseBaseURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		trimmed = defaultBaseURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse service url %q: %w", raw, err)
	}
	// ResolveReference drops the last path segment unless the base ends in a slash.
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
