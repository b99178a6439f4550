package analysis

import (
	"fmt"

	"github.com/wdkclient/stepanalysis/internal/plugin"
	"github.com/wdkclient/stepanalysis/internal/wdk"
)

// PanelID identifies a panel within its registry. Zero means no panel.
type PanelID int

// NoPanel is the zero PanelID.
const NoPanel PanelID = 0

// PanelKind discriminates the Panel variants.
type PanelKind int

const (
	KindUninitialized PanelKind = iota + 1
	KindAnalysisMenu
	KindUnsaved
	KindSaved
)

func (k PanelKind) String() string {
	switch k {
	case KindUninitialized:
		return "uninitialized"
	case KindAnalysisMenu:
		return "analysis-menu"
	case KindUnsaved:
		return "unsaved"
	case KindSaved:
		return "saved"
	default:
		return fmt.Sprintf("PanelKind(%d)", int(k))
	}
}

// LoadStatus tracks the lazy load of an Uninitialized panel.
type LoadStatus string

const (
	LoadUnopened LoadStatus = "UNOPENED"
	LoadLoading  LoadStatus = "LOADING"
	LoadError    LoadStatus = "ERROR"
)

// ConfigStatus tracks the client's view of a saved analysis.
type ConfigStatus string

const (
	ConfigLoading  ConfigStatus = "LOADING"
	ConfigComplete ConfigStatus = "COMPLETE"
	ConfigError    ConfigStatus = "ERROR"
)

// FormStatus tracks the parameter form of a runnable panel.
type FormStatus string

const (
	FormAwaitingSubmission FormStatus = "AWAITING_USER_SUBMISSION"
	FormSubmitting         FormStatus = "SUBMITTING"
)

// InitialPollCountdown is the number of one-tick countdowns between two
// status checks of a running analysis.
const InitialPollCountdown = 3

// PanelUIState is the layout state shared by every opened panel.
type PanelUIState struct {
	DescriptionExpanded bool
	FormExpanded        bool
}

// Panel is one analysis tab. It is exactly one of *UninitializedPanel,
// *MenuPanel, *UnsavedPanel or *SavedPanel, and is never mutated once it is
// part of a Registry.
type Panel interface {
	Kind() PanelKind
	// Title is the tab label.
	Title() string
	clone() Panel
}

// UninitializedPanel is an analysis known from the step listing but not
// opened yet, or one whose load failed.
type UninitializedPanel struct {
	AnalysisID   int64
	DisplayName  string
	AnalysisName string
	RunStatus    wdk.RunStatus
	Status       LoadStatus
	ErrorMessage string
}

// MenuPanel is a new tab where the user picks an analysis type.
type MenuPanel struct {
	PanelUI      PanelUIState
	Loading      bool
	ErrorMessage string
}

// UnsavedPanel is a chosen analysis type whose parameters are being edited
// and that does not exist on the server yet.
type UnsavedPanel struct {
	// AnalysisType is nil when a duplicated analysis' type is no longer
	// offered for the step.
	AnalysisType         *wdk.AnalysisType
	AnalysisName         string
	DisplayName          string
	ParamSpecs           []wdk.ParamSpec
	ParamValues          map[string][]string
	FormUIState          plugin.UIState
	FormStatus           FormStatus
	FormErrorMessage     string
	FormValidationErrors []string
	PollCountdown        int
	PanelUI              PanelUIState
}

// SavedPanel is an analysis persisted on the server.
type SavedPanel struct {
	AnalysisConfig       wdk.AnalysisConfig
	ConfigStatus         ConfigStatus
	ParamSpecs           []wdk.ParamSpec
	ParamValues          map[string][]string
	FormUIState          plugin.UIState
	ResultUIState        plugin.UIState
	ResultContents       wdk.Result
	ResultErrorMessage   string
	FormStatus           FormStatus
	FormErrorMessage     string
	FormValidationErrors []string
	PollCountdown        int
	PanelUI              PanelUIState
}

func (p *UninitializedPanel) Kind() PanelKind { return KindUninitialized }
func (p *MenuPanel) Kind() PanelKind          { return KindAnalysisMenu }
func (p *UnsavedPanel) Kind() PanelKind       { return KindUnsaved }
func (p *SavedPanel) Kind() PanelKind         { return KindSaved }

func (p *UninitializedPanel) Title() string { return p.DisplayName }
func (p *MenuPanel) Title() string          { return "Choose an analysis" }
func (p *UnsavedPanel) Title() string       { return p.DisplayName }
func (p *SavedPanel) Title() string         { return p.AnalysisConfig.DisplayName }

func (p *UninitializedPanel) clone() Panel {
	dup := *p
	return &dup
}

func (p *MenuPanel) clone() Panel {
	dup := *p
	return &dup
}

func (p *UnsavedPanel) clone() Panel {
	dup := *p
	if p.AnalysisType != nil {
		choice := *p.AnalysisType
		dup.AnalysisType = &choice
	}
	dup.ParamSpecs = cloneSlice(p.ParamSpecs)
	dup.ParamValues = plugin.CloneParamValues(p.ParamValues)
	dup.FormUIState = p.FormUIState.Clone()
	dup.FormValidationErrors = cloneSlice(p.FormValidationErrors)
	return &dup
}

func (p *SavedPanel) clone() Panel {
	dup := *p
	dup.AnalysisConfig.FormParams = plugin.CloneParamValues(p.AnalysisConfig.FormParams)
	dup.ParamSpecs = cloneSlice(p.ParamSpecs)
	dup.ParamValues = plugin.CloneParamValues(p.ParamValues)
	dup.FormUIState = p.FormUIState.Clone()
	dup.ResultUIState = p.ResultUIState.Clone()
	dup.ResultContents = append(wdk.Result(nil), p.ResultContents...)
	dup.FormValidationErrors = cloneSlice(p.FormValidationErrors)
	return &dup
}

// HasParameters reports whether the draft's analysis type takes parameters.
func (p *UnsavedPanel) HasParameters() bool {
	if p.AnalysisType != nil {
		return p.AnalysisType.HasParameters
	}
	return len(p.ParamSpecs) > 0
}

// TypeName is the analysis type the draft will be created as.
func (p *UnsavedPanel) TypeName() string {
	if p.AnalysisType != nil && p.AnalysisType.Name != "" {
		return p.AnalysisType.Name
	}
	return p.AnalysisName
}

// Running reports whether the server is still computing the result.
func (p *SavedPanel) Running() bool {
	return p.AnalysisConfig.Status.InProgress()
}

// Runnable reports whether submit, poll, rename and duplicate apply to p.
func Runnable(p Panel) bool {
	if p == nil {
		return false
	}
	k := p.Kind()
	return k == KindUnsaved || k == KindSaved
}

// ClonePanel returns a deep copy of p that may be modified freely.
func ClonePanel(p Panel) Panel {
	if p == nil {
		return nil
	}
	return p.clone()
}

func cloneSlice[T any](in []T) []T {
	if in == nil {
		return nil
	}
	return append(make([]T, 0, len(in)), in...)
}
