package wdk

import (
	"encoding/json"
	"strings"
)

// RunStatus is the server-side execution status of a step analysis.
type RunStatus string

const (
	StatusCreated  RunStatus = "CREATED"
	StatusPending  RunStatus = "PENDING"
	StatusRunning  RunStatus = "RUNNING"
	StatusComplete RunStatus = "COMPLETE"
	StatusError    RunStatus = "ERROR"
)

// InProgress reports whether the analysis is still executing on the server.
func (s RunStatus) InProgress() bool {
	return s == StatusPending || s == StatusRunning
}

// AnalysisConfig mirrors a step analysis instance as stored by the service.
type AnalysisConfig struct {
	AnalysisID       int64               `json:"analysisId"`
	StepID           int64               `json:"stepId"`
	DisplayName      string              `json:"displayName"`
	ShortDescription string              `json:"shortDescription,omitempty"`
	Description      string              `json:"description,omitempty"`
	AnalysisName     string              `json:"analysisName"`
	Status           RunStatus           `json:"status"`
	FormParams       map[string][]string `json:"formParams"`
}

// AnalysisType describes an analysis kind that can be applied to a step.
type AnalysisType struct {
	Name             string `json:"name"`
	DisplayName      string `json:"displayName"`
	ShortDescription string `json:"shortDescription,omitempty"`
	Description      string `json:"description,omitempty"`
	ReleaseVersion   string `json:"releaseVersion,omitempty"`
	HasParameters    bool   `json:"hasParameters"`
}

// ParamSpec declares one parameter of an analysis type.
type ParamSpec struct {
	Name                string `json:"name"`
	DisplayName         string `json:"displayName"`
	Help                string `json:"help,omitempty"`
	Type                string `json:"type,omitempty"`
	DefaultValue        string `json:"defaultValue,omitempty"`
	AllowMultipleValues bool   `json:"multiPick,omitempty"`
	IsVisible           *bool  `json:"isVisible,omitempty"`
}

// Visible reports whether the parameter should be shown on a form. Specs
// without an explicit flag are visible.
func (p ParamSpec) Visible() bool {
	return p.IsVisible == nil || *p.IsVisible
}

// NewAnalysis is the payload for creating a step analysis.
type NewAnalysis struct {
	DisplayName  string `json:"displayName"`
	AnalysisName string `json:"analysisName"`
}

// StatusResponse mirrors run and run-status payloads.
type StatusResponse struct {
	Status RunStatus `json:"status"`
}

// Result is an analysis result payload. Its shape belongs to the analysis
// type's result plugin.
type Result json.RawMessage

// Empty reports whether the result carries no content.
func (r Result) Empty() bool {
	trimmed := strings.TrimSpace(string(r))
	return trimmed == "" || trimmed == "{}" || trimmed == "null"
}

// EmptyResult is the placeholder used while no result is available.
func EmptyResult() Result {
	return Result("{}")
}

// MarshalJSON keeps the payload verbatim.
func (r Result) MarshalJSON() ([]byte, error) {
	if len(r) == 0 {
		return []byte("{}"), nil
	}
	return []byte(r), nil
}

// UnmarshalJSON stores a copy of the raw payload.
func (r *Result) UnmarshalJSON(data []byte) error {
	*r = append((*r)[:0], data...)
	return nil
}

type paramSpecsResponse struct {
	SearchParams []ParamSpec `json:"searchParams"`
}

type renameRequest struct {
	DisplayName string `json:"displayName"`
}
