package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wdkclient/stepanalysis/internal/plugin"
	"github.com/wdkclient/stepanalysis/internal/wdk"
)

const (
	confirmDeleteMessage = "Are you sure you want to delete this analysis? You will not be able to retrieve it later."
	retryLaterSuffix     = "at this time. Please try again later, or contact us if the problem persists."
)

// DefaultCountdownInterval separates two poll countdown ticks.
const DefaultCountdownInterval = time.Second

// Prompter asks the user for decisions that block an effect.
type Prompter interface {
	// Confirm returns true when the user accepts msg.
	Confirm(ctx context.Context, msg string) bool
	// Alert shows msg and returns once the user has seen it.
	Alert(ctx context.Context, msg string)
}

// Deps are the collaborators of the observers.
type Deps struct {
	Service  wdk.AnalysisService
	Prompter Prompter
	Plugins  *plugin.Registry

	// Countdown is the delay before a count-down tick resolves. Zero means
	// DefaultCountdownInterval.
	Countdown time.Duration

	// CollapseForms opens new panels with the parameter form collapsed.
	CollapseForms bool

	Logger *slog.Logger
}

// Effect is the asynchronous part of a reaction. It runs off the event loop
// and returns the events to dispatch next.
type Effect func(ctx context.Context) []Event

// Observer reacts to an event that has just been reduced. prev and next are
// the registry before and after the event. It runs on the event loop and
// must not block; anything slow goes into the returned Effect, which may be
// nil.
type Observer func(ev Event, prev, next Registry) Effect

// Machine couples the reducer with the observers.
type Machine struct {
	observers []Observer
}

// NewMachine builds a Machine with the standard observers.
func NewMachine(d Deps) *Machine {
	return &Machine{observers: Observers(d)}
}

// Apply reduces ev into r and collects the effects it triggers.
func (m *Machine) Apply(r Registry, ev Event) (Registry, []Effect) {
	next := Reduce(r, ev)
	var effects []Effect
	for _, observe := range m.observers {
		if eff := observe(ev, r, next); eff != nil {
			effects = append(effects, eff)
		}
	}
	return next, effects
}

// Observers returns the reactions of the step analysis state machine.
func Observers(d Deps) []Observer {
	if d.Countdown <= 0 {
		d.Countdown = DefaultCountdownInterval
	}
	if d.Logger == nil {
		d.Logger = slog.New(slog.DiscardHandler)
	}
	if d.Plugins == nil {
		d.Plugins = plugin.Default()
	}
	o := &observers{Deps: d}
	return []Observer{
		o.startLoadingTabListing,
		o.selectTab,
		o.startLoadingSavedTab,
		o.startLoadingChosenAnalysisTab,
		o.deleteAnalysis,
		o.removeTab,
		o.startFormSubmission,
		o.checkResultStatus,
		o.countDown,
		o.renameAnalysis,
		o.duplicateAnalysis,
	}
}

type observers struct {
	Deps
}

// focused is a panel event resolved against the registry it was reduced
// into.
type focused struct {
	stepID  int64
	panelID PanelID
	panel   Panel
	choices []wdk.AnalysisType
}

func focus[E PanelEvent](ev Event, r Registry) (E, focused, bool) {
	e, ok := ev.(E)
	if !ok {
		return e, focused{}, false
	}
	p, ok := r.Panel(e.Target())
	if !ok {
		return e, focused{}, false
	}
	return e, focused{stepID: r.StepID, panelID: e.Target(), panel: p, choices: r.Choices}, true
}

func emit(events ...Event) Effect {
	return func(context.Context) []Event { return events }
}

func (o *observers) log(f focused) *slog.Logger {
	return o.Logger.With("step", f.stepID, "panel", int(f.panelID))
}

func (o *observers) panelUI() PanelUIState {
	return PanelUIState{FormExpanded: !o.CollapseForms}
}

func (o *observers) startLoadingTabListing(ev Event, _, next Registry) Effect {
	if _, ok := ev.(StartLoadingTabListing); !ok {
		return nil
	}
	stepID := next.StepID
	return func(ctx context.Context) []Event {
		var (
			applied []wdk.AnalysisConfig
			choices []wdk.AnalysisType
		)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			applied, err = o.Service.AppliedAnalyses(gctx, stepID)
			return err
		})
		g.Go(func() error {
			var err error
			choices, err = o.Service.AnalysisTypes(gctx, stepID)
			return err
		})
		if err := g.Wait(); err != nil {
			o.Logger.Warn("tab listing failed", "step", stepID, "error", err)
			return nil
		}
		tabs := make([]*UninitializedPanel, 0, len(applied))
		for _, a := range applied {
			tabs = append(tabs, &UninitializedPanel{
				AnalysisID:   a.AnalysisID,
				DisplayName:  a.DisplayName,
				AnalysisName: a.AnalysisName,
				RunStatus:    a.Status,
				Status:       LoadUnopened,
			})
		}
		return []Event{FinishLoadingTabListing{Tabs: tabs, Choices: choices}}
	}
}

func (o *observers) selectTab(ev Event, _, next Registry) Effect {
	e, f, ok := focus[SelectTab](ev, next)
	if !ok {
		return nil
	}
	if u, ok := f.panel.(*UninitializedPanel); !ok || u.Status != LoadUnopened {
		return nil
	}
	return emit(StartLoadingSavedTab{PanelID: e.PanelID})
}

// startLoadingSavedTab only fetches for the event that moved the panel from
// UNOPENED to LOADING, so a panel is never loaded twice concurrently.
func (o *observers) startLoadingSavedTab(ev Event, prev, next Registry) Effect {
	e, f, ok := focus[StartLoadingSavedTab](ev, next)
	if !ok {
		return nil
	}
	before, ok := prev.Panel(e.PanelID)
	if !ok || before == f.panel {
		return nil
	}
	u, ok := f.panel.(*UninitializedPanel)
	if !ok || u.Status != LoadLoading {
		return nil
	}
	u = u.clone().(*UninitializedPanel)

	return func(ctx context.Context) []Event {
		saved, err := o.loadSaved(ctx, f.stepID, u.AnalysisID)
		if err != nil {
			o.log(f).Warn("loading analysis failed", "analysis", u.AnalysisID, "error", err)
			u.Status = LoadError
			u.ErrorMessage = fmt.Sprintf("An error occurred while loading this analysis: %v", err)
			return []Event{FinishLoadingSavedTab{PanelID: e.PanelID, State: u}}
		}
		events := []Event{FinishLoadingSavedTab{PanelID: e.PanelID, State: saved}}
		if saved.Running() {
			events = append(events, CheckResultStatus{PanelID: e.PanelID})
		}
		return events
	}
}

func (o *observers) loadSaved(ctx context.Context, stepID, analysisID int64) (*SavedPanel, error) {
	config, err := o.Service.Analysis(ctx, stepID, analysisID)
	if err != nil {
		return nil, err
	}
	specs, err := o.Service.ParamSpecs(ctx, stepID, config.AnalysisName)
	if err != nil {
		return nil, err
	}
	result := wdk.EmptyResult()
	if config.Status == wdk.StatusComplete {
		if result, err = o.Service.Result(ctx, stepID, analysisID); err != nil {
			return nil, err
		}
	}
	return &SavedPanel{
		AnalysisConfig: config,
		ConfigStatus:   ConfigComplete,
		PollCountdown:  InitialPollCountdown,
		ParamSpecs:     specs,
		ParamValues:    plugin.CloneParamValues(config.FormParams),
		PanelUI:        o.panelUI(),
		FormUIState:    o.Plugins.LocateForm(config.AnalysisName).InitialFormUIState,
		ResultUIState:  o.Plugins.LocateResult(config.AnalysisName).InitialResultUIState,
		FormStatus:     FormAwaitingSubmission,
		ResultContents: result,
	}, nil
}

func (o *observers) startLoadingChosenAnalysisTab(ev Event, prev, next Registry) Effect {
	e, f, ok := focus[StartLoadingChosenAnalysisTab](ev, next)
	if !ok {
		return nil
	}
	m, ok := f.panel.(*MenuPanel)
	if !ok || !m.Loading {
		return nil
	}
	if before, ok := prev.Panel(e.PanelID); !ok || before == f.panel {
		return nil
	}
	menu := m.clone().(*MenuPanel)
	choice := e.Choice

	return func(ctx context.Context) []Event {
		specs, err := o.Service.ParamSpecs(ctx, f.stepID, choice.Name)
		if err != nil {
			o.log(f).Warn("loading analysis type failed", "type", choice.Name, "error", err)
			menu.Loading = false
			menu.ErrorMessage = fmt.Sprintf("An error occurred while loading your chosen analysis: %v", err)
			return []Event{FinishLoadingChosenAnalysisTab{PanelID: e.PanelID, State: menu}}
		}
		draft := &UnsavedPanel{
			AnalysisType: &choice,
			AnalysisName: choice.Name,
			DisplayName:  choice.DisplayName,
			ParamSpecs:   specs,
			ParamValues:  plugin.DefaultParamValues(specs),
			FormUIState:  o.Plugins.LocateForm(choice.Name).InitialFormUIState,
			FormStatus:   FormAwaitingSubmission,
			PanelUI:      o.panelUI(),
		}
		events := []Event{FinishLoadingChosenAnalysisTab{PanelID: e.PanelID, State: draft}}
		if !choice.HasParameters {
			events = append(events, StartFormSubmission{PanelID: e.PanelID})
		}
		return events
	}
}

func (o *observers) deleteAnalysis(ev Event, _, next Registry) Effect {
	e, f, ok := focus[DeleteAnalysis](ev, next)
	if !ok {
		return nil
	}
	remove := []Event{RemoveTab{PanelID: e.PanelID}}
	if f.panel.Kind() == KindAnalysisMenu {
		return emit(remove...)
	}

	var (
		analysisID  int64
		displayName string
		persisted   = true
	)
	switch p := f.panel.(type) {
	case *UninitializedPanel:
		analysisID, displayName = p.AnalysisID, p.DisplayName
	case *SavedPanel:
		analysisID, displayName = p.AnalysisConfig.AnalysisID, p.AnalysisConfig.DisplayName
	default:
		persisted = false
	}

	return func(ctx context.Context) []Event {
		if !o.Prompter.Confirm(ctx, confirmDeleteMessage) {
			return nil
		}
		if persisted {
			if err := o.Service.DeleteAnalysis(ctx, f.stepID, analysisID); err != nil {
				o.log(f).Warn("delete failed", "analysis", analysisID, "error", err)
				o.Prompter.Alert(ctx, fmt.Sprintf("Cannot delete analysis '%s' %s", displayName, retryLaterSuffix))
			}
		}
		return remove
	}
}

// removeTab re-selects the tab that became active when the active tab was
// removed, so that it loads if it was never opened.
func (o *observers) removeTab(ev Event, prev, next Registry) Effect {
	e, ok := ev.(RemoveTab)
	if !ok || prev.ActiveTab != e.PanelID || next.ActiveTab == e.PanelID {
		return nil
	}
	if next.ActiveTab == NoPanel {
		return nil
	}
	return emit(SelectTab{PanelID: next.ActiveTab})
}

func (o *observers) startFormSubmission(ev Event, _, next Registry) Effect {
	e, f, ok := focus[StartFormSubmission](ev, next)
	if !ok || !Runnable(f.panel) {
		return nil
	}
	panel := f.panel.clone()

	return func(ctx context.Context) []Event {
		var (
			events []Event
			err    error
			name   string
		)
		switch p := panel.(type) {
		case *UnsavedPanel:
			name = p.DisplayName
			events, err = o.createAnalysis(ctx, f.stepID, e.PanelID, p)
		case *SavedPanel:
			name = p.AnalysisConfig.DisplayName
			events, err = o.runAnalysis(ctx, f.stepID, e.PanelID, p)
		}
		if err != nil {
			o.log(f).Warn("form submission failed", "name", name, "error", err)
			o.Prompter.Alert(ctx, fmt.Sprintf("Cannot run analysis '%s' %s", name, retryLaterSuffix))
			return []Event{AbortFormSubmission{PanelID: e.PanelID}}
		}
		return events
	}
}

func (o *observers) createAnalysis(ctx context.Context, stepID int64, id PanelID, p *UnsavedPanel) ([]Event, error) {
	typeName := p.TypeName()
	if typeName == "" {
		return nil, errors.New("analysis type is unknown")
	}
	config, err := o.Service.CreateAnalysis(ctx, stepID, wdk.NewAnalysis{
		DisplayName:  p.DisplayName,
		AnalysisName: typeName,
	})
	if err != nil {
		return nil, err
	}
	created := Submission{
		Step:          SubmissionCreated,
		Config:        config,
		ResultUIState: o.Plugins.LocateResult(typeName).InitialResultUIState,
	}
	return []Event{
		FinishFormSubmission{PanelID: id, Outcome: created},
		StartFormSubmission{PanelID: id},
	}, nil
}

func (o *observers) runAnalysis(ctx context.Context, stepID int64, id PanelID, p *SavedPanel) ([]Event, error) {
	analysisID := p.AnalysisConfig.AnalysisID
	validation, err := o.Service.UpdateFormParams(ctx, stepID, analysisID, p.ParamValues)
	if err != nil {
		return nil, err
	}
	if len(validation) > 0 {
		return []Event{FinishFormSubmission{PanelID: id, Outcome: Submission{
			Step:             SubmissionRejected,
			ValidationErrors: validation,
		}}}, nil
	}
	status, err := o.Service.RunAnalysis(ctx, stepID, analysisID)
	if err != nil {
		return nil, err
	}
	return []Event{
		FinishFormSubmission{PanelID: id, Outcome: Submission{Step: SubmissionStarted, Status: status.Status}},
		CheckResultStatus{PanelID: id},
	}, nil
}

func (o *observers) checkResultStatus(ev Event, _, next Registry) Effect {
	e, f, ok := focus[CheckResultStatus](ev, next)
	if !ok {
		return nil
	}
	s, ok := f.panel.(*SavedPanel)
	if !ok {
		return nil
	}
	analysisID := s.AnalysisConfig.AnalysisID

	return func(ctx context.Context) []Event {
		status, result, err := o.pollResult(ctx, f.stepID, analysisID)
		if err != nil {
			o.log(f).Warn("status check failed", "analysis", analysisID, "error", err)
			return []Event{FinishFormSubmission{PanelID: e.PanelID, Outcome: Submission{
				Step:  SubmissionFailed,
				Error: fmt.Sprintf("An error occurred while trying to run your analysis: %v", err),
			}}}
		}
		if status.InProgress() {
			return []Event{CountDown{PanelID: e.PanelID}}
		}
		return []Event{FinishFormSubmission{PanelID: e.PanelID, Outcome: Submission{
			Step:   SubmissionSettled,
			Status: status,
			Result: result,
		}}}
	}
}

func (o *observers) pollResult(ctx context.Context, stepID, analysisID int64) (wdk.RunStatus, wdk.Result, error) {
	resp, err := o.Service.RunStatus(ctx, stepID, analysisID)
	if err != nil {
		return "", nil, err
	}
	if resp.Status != wdk.StatusComplete {
		return resp.Status, wdk.EmptyResult(), nil
	}
	result, err := o.Service.Result(ctx, stepID, analysisID)
	if err != nil {
		return "", nil, err
	}
	return resp.Status, result, nil
}

// countDown waits one interval, then ticks again while the countdown of the
// panel, as it was when the event arrived, is above zero.
func (o *observers) countDown(ev Event, _, next Registry) Effect {
	e, f, ok := focus[CountDown](ev, next)
	if !ok || !Runnable(f.panel) {
		return nil
	}
	remaining := pollCountdown(f.panel)

	return func(ctx context.Context) []Event {
		t := time.NewTimer(o.Countdown)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
		}
		if remaining > 0 {
			return []Event{CountDown{PanelID: e.PanelID}}
		}
		return []Event{CheckResultStatus{PanelID: e.PanelID}}
	}
}

func pollCountdown(p Panel) int {
	switch v := p.(type) {
	case *UnsavedPanel:
		return v.PollCountdown
	case *SavedPanel:
		return v.PollCountdown
	}
	return 0
}

func (o *observers) renameAnalysis(ev Event, _, next Registry) Effect {
	e, f, ok := focus[RenameAnalysis](ev, next)
	if !ok || !Runnable(f.panel) {
		return nil
	}
	rename := []Event{RenameTab{PanelID: e.PanelID, NewDisplayName: e.NewDisplayName}}
	s, ok := f.panel.(*SavedPanel)
	if !ok {
		return emit(rename...)
	}
	analysisID, oldName := s.AnalysisConfig.AnalysisID, s.AnalysisConfig.DisplayName

	return func(ctx context.Context) []Event {
		if err := o.Service.RenameAnalysis(ctx, f.stepID, analysisID, e.NewDisplayName); err != nil {
			o.log(f).Warn("rename failed", "analysis", analysisID, "error", err)
			o.Prompter.Alert(ctx, fmt.Sprintf("Cannot rename analysis '%s' %s", oldName, retryLaterSuffix))
		}
		return rename
	}
}

func (o *observers) duplicateAnalysis(ev Event, _, next Registry) Effect {
	_, f, ok := focus[DuplicateAnalysis](ev, next)
	if !ok || !Runnable(f.panel) {
		return nil
	}
	switch p := f.panel.(type) {
	case *UnsavedPanel:
		return emit(CreateNewTab{State: p.clone()})
	case *SavedPanel:
		name := p.AnalysisConfig.AnalysisName
		draft := &UnsavedPanel{
			AnalysisName:  name,
			DisplayName:   p.AnalysisConfig.DisplayName,
			ParamSpecs:    cloneSlice(p.ParamSpecs),
			ParamValues:   plugin.CloneParamValues(p.ParamValues),
			FormUIState:   o.Plugins.LocateForm(name).InitialFormUIState,
			FormStatus:    FormAwaitingSubmission,
			PollCountdown: InitialPollCountdown,
			PanelUI:       o.panelUI(),
		}
		for _, choice := range f.choices {
			if choice.Name == name {
				draft.AnalysisType = &choice
				break
			}
		}
		return emit(CreateNewTab{State: draft})
	}
	return nil
}
