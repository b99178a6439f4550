package analysis

import (
	"github.com/wdkclient/stepanalysis/internal/plugin"
	"github.com/wdkclient/stepanalysis/internal/wdk"
)

// EventKind names an event type.
type EventKind string

const (
	EventStartLoadingTabListing         EventKind = "start-loading-tab-listing"
	EventFinishLoadingTabListing        EventKind = "finish-loading-tab-listing"
	EventSelectTab                      EventKind = "select-tab"
	EventStartLoadingSavedTab           EventKind = "start-loading-saved-tab"
	EventFinishLoadingSavedTab          EventKind = "finish-loading-saved-tab"
	EventStartLoadingChosenAnalysisTab  EventKind = "start-loading-chosen-analysis-tab"
	EventFinishLoadingChosenAnalysisTab EventKind = "finish-loading-chosen-analysis-tab"
	EventDeleteAnalysis                 EventKind = "delete-analysis"
	EventRemoveTab                      EventKind = "remove-tab"
	EventCreateNewTab                   EventKind = "create-new-tab"
	EventStartFormSubmission            EventKind = "start-form-submission"
	EventFinishFormSubmission           EventKind = "finish-form-submission"
	EventAbortFormSubmission            EventKind = "abort-form-submission"
	EventCheckResultStatus              EventKind = "check-result-status"
	EventCountDown                      EventKind = "count-down"
	EventRenameAnalysis                 EventKind = "rename-analysis"
	EventRenameTab                      EventKind = "rename-tab"
	EventDuplicateAnalysis              EventKind = "duplicate-analysis"
	EventUpdateParamValues              EventKind = "update-param-values"
	EventUpdateFormUIState              EventKind = "update-form-ui-state"
	EventUpdateResultUIState            EventKind = "update-result-ui-state"
	EventToggleDescription              EventKind = "toggle-description"
	EventToggleFormVisibility           EventKind = "toggle-form-visibility"
)

// Event is an intent or a result flowing through the state machine.
type Event interface {
	Kind() EventKind
}

// PanelEvent is an Event scoped to one panel.
type PanelEvent interface {
	Event
	Target() PanelID
}

type (
	// StartLoadingTabListing asks for the step's applied analyses.
	StartLoadingTabListing struct{}

	// FinishLoadingTabListing replaces the listed panels with the step's
	// applied analyses. Tabs the user already opened are kept.
	FinishLoadingTabListing struct {
		Tabs    []*UninitializedPanel
		Choices []wdk.AnalysisType
	}

	SelectTab struct{ PanelID PanelID }

	StartLoadingSavedTab struct{ PanelID PanelID }

	FinishLoadingSavedTab struct {
		PanelID PanelID
		State   Panel
	}

	StartLoadingChosenAnalysisTab struct {
		PanelID PanelID
		Choice  wdk.AnalysisType
	}

	FinishLoadingChosenAnalysisTab struct {
		PanelID PanelID
		State   Panel
	}

	DeleteAnalysis struct{ PanelID PanelID }

	RemoveTab struct{ PanelID PanelID }

	// CreateNewTab appends a panel and activates it.
	CreateNewTab struct{ State Panel }

	StartFormSubmission struct{ PanelID PanelID }

	// FinishFormSubmission carries what the service reported for a
	// submission or a status check. It is merged into the panel as it is
	// when the event is reduced, so edits made while the call was out
	// survive.
	FinishFormSubmission struct {
		PanelID PanelID
		Outcome Submission
	}

	// AbortFormSubmission returns a form to AWAITING_USER_SUBMISSION after
	// a failed submission.
	AbortFormSubmission struct{ PanelID PanelID }

	CheckResultStatus struct{ PanelID PanelID }

	CountDown struct{ PanelID PanelID }

	RenameAnalysis struct {
		PanelID        PanelID
		NewDisplayName string
	}

	RenameTab struct {
		PanelID        PanelID
		NewDisplayName string
	}

	DuplicateAnalysis struct{ PanelID PanelID }

	UpdateParamValues struct {
		PanelID PanelID
		Values  map[string][]string
	}

	UpdateFormUIState struct {
		PanelID PanelID
		State   plugin.UIState
	}

	UpdateResultUIState struct {
		PanelID PanelID
		State   plugin.UIState
	}

	ToggleDescription struct{ PanelID PanelID }

	ToggleFormVisibility struct{ PanelID PanelID }
)

func (StartLoadingTabListing) Kind() EventKind         { return EventStartLoadingTabListing }
func (FinishLoadingTabListing) Kind() EventKind        { return EventFinishLoadingTabListing }
func (SelectTab) Kind() EventKind                      { return EventSelectTab }
func (StartLoadingSavedTab) Kind() EventKind           { return EventStartLoadingSavedTab }
func (FinishLoadingSavedTab) Kind() EventKind          { return EventFinishLoadingSavedTab }
func (StartLoadingChosenAnalysisTab) Kind() EventKind  { return EventStartLoadingChosenAnalysisTab }
func (FinishLoadingChosenAnalysisTab) Kind() EventKind { return EventFinishLoadingChosenAnalysisTab }
func (DeleteAnalysis) Kind() EventKind                 { return EventDeleteAnalysis }
func (RemoveTab) Kind() EventKind                      { return EventRemoveTab }
func (CreateNewTab) Kind() EventKind                   { return EventCreateNewTab }
func (StartFormSubmission) Kind() EventKind            { return EventStartFormSubmission }
func (FinishFormSubmission) Kind() EventKind           { return EventFinishFormSubmission }
func (AbortFormSubmission) Kind() EventKind            { return EventAbortFormSubmission }
func (CheckResultStatus) Kind() EventKind              { return EventCheckResultStatus }
func (CountDown) Kind() EventKind                      { return EventCountDown }
func (RenameAnalysis) Kind() EventKind                 { return EventRenameAnalysis }
func (RenameTab) Kind() EventKind                      { return EventRenameTab }
func (DuplicateAnalysis) Kind() EventKind              { return EventDuplicateAnalysis }
func (UpdateParamValues) Kind() EventKind              { return EventUpdateParamValues }
func (UpdateFormUIState) Kind() EventKind              { return EventUpdateFormUIState }
func (UpdateResultUIState) Kind() EventKind            { return EventUpdateResultUIState }
func (ToggleDescription) Kind() EventKind              { return EventToggleDescription }
func (ToggleFormVisibility) Kind() EventKind           { return EventToggleFormVisibility }

func (e SelectTab) Target() PanelID                      { return e.PanelID }
func (e StartLoadingSavedTab) Target() PanelID           { return e.PanelID }
func (e FinishLoadingSavedTab) Target() PanelID          { return e.PanelID }
func (e StartLoadingChosenAnalysisTab) Target() PanelID  { return e.PanelID }
func (e FinishLoadingChosenAnalysisTab) Target() PanelID { return e.PanelID }
func (e DeleteAnalysis) Target() PanelID                 { return e.PanelID }
func (e RemoveTab) Target() PanelID                      { return e.PanelID }
func (e StartFormSubmission) Target() PanelID            { return e.PanelID }
func (e FinishFormSubmission) Target() PanelID           { return e.PanelID }
func (e AbortFormSubmission) Target() PanelID            { return e.PanelID }
func (e CheckResultStatus) Target() PanelID              { return e.PanelID }
func (e CountDown) Target() PanelID                      { return e.PanelID }
func (e RenameAnalysis) Target() PanelID                 { return e.PanelID }
func (e RenameTab) Target() PanelID                      { return e.PanelID }
func (e DuplicateAnalysis) Target() PanelID              { return e.PanelID }
func (e UpdateParamValues) Target() PanelID              { return e.PanelID }
func (e UpdateFormUIState) Target() PanelID              { return e.PanelID }
func (e UpdateResultUIState) Target() PanelID            { return e.PanelID }
func (e ToggleDescription) Target() PanelID              { return e.PanelID }
func (e ToggleFormVisibility) Target() PanelID           { return e.PanelID }

// SubmissionStep names the point a submission or status check reached.
type SubmissionStep int

const (
	// SubmissionCreated: a draft was saved on the server and becomes a
	// saved panel.
	SubmissionCreated SubmissionStep = iota + 1
	// SubmissionRejected: the parameters failed validation; nothing runs.
	SubmissionRejected
	SubmissionStarted
	// SubmissionSettled: the run left PENDING/RUNNING.
	SubmissionSettled
	// SubmissionFailed: the status or the result could not be fetched.
	SubmissionFailed
)

// Submission is the server's side of a FinishFormSubmission. Only the fields
// of its Step are read.
type Submission struct {
	Step SubmissionStep

	// Created
	Config        wdk.AnalysisConfig
	ResultUIState plugin.UIState

	// Rejected
	ValidationErrors []string

	// Started, Settled
	Status wdk.RunStatus
	Result wdk.Result

	// Failed
	Error string
}
