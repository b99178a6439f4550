package analysis

import (
	"slices"

	"github.com/wdkclient/stepanalysis/internal/plugin"
	"github.com/wdkclient/stepanalysis/internal/wdk"
)

// Reduce applies ev to r and returns the next registry. It never modifies r.
// Events aimed at a panel that no longer exists, or at a panel whose variant
// does not carry the affected field, leave the registry unchanged.
func Reduce(r Registry, ev Event) Registry {
	switch e := ev.(type) {
	case FinishLoadingTabListing:
		return reduceTabListing(r, e)

	case SelectTab:
		if _, ok := r.Panel(e.PanelID); !ok {
			return r
		}
		r.ActiveTab = e.PanelID
		return r

	case StartLoadingSavedTab:
		return r.updatePanel(e.PanelID, func(p Panel) Panel {
			u, ok := p.(*UninitializedPanel)
			if !ok || u.Status != LoadUnopened {
				return nil
			}
			u.Status = LoadLoading
			return u
		})

	case StartLoadingChosenAnalysisTab:
		return r.updatePanel(e.PanelID, func(p Panel) Panel {
			m, ok := p.(*MenuPanel)
			if !ok || m.Loading {
				return nil
			}
			m.Loading = true
			m.ErrorMessage = ""
			return m
		})

	case FinishLoadingSavedTab:
		return r.replacePanel(e.PanelID, ClonePanel(e.State))
	case FinishLoadingChosenAnalysisTab:
		return r.updatePanel(e.PanelID, func(p Panel) Panel {
			m, ok := p.(*MenuPanel)
			if !ok {
				return nil
			}
			next := ClonePanel(e.State)
			if failed, ok := next.(*MenuPanel); ok {
				failed.PanelUI = m.PanelUI
			}
			return next
		})
	case FinishFormSubmission:
		return r.updatePanel(e.PanelID, func(p Panel) Panel {
			return mergeSubmission(p, e.Outcome)
		})

	case RemoveTab:
		return r.removePanel(e.PanelID)

	case CreateNewTab:
		if e.State == nil {
			return r
		}
		next, id := r.appendPanel(ClonePanel(e.State))
		next.ActiveTab = id
		return next

	case StartFormSubmission:
		return setFormStatus(r, e.PanelID, FormSubmitting)
	case AbortFormSubmission:
		return setFormStatus(r, e.PanelID, FormAwaitingSubmission)

	case CheckResultStatus:
		return r.updatePanel(e.PanelID, func(p Panel) Panel {
			s, ok := p.(*SavedPanel)
			if !ok {
				return nil
			}
			s.PollCountdown = InitialPollCountdown
			return s
		})

	case CountDown:
		return r.updatePanel(e.PanelID, func(p Panel) Panel {
			switch v := p.(type) {
			case *UnsavedPanel:
				if v.PollCountdown > 0 {
					v.PollCountdown--
					return v
				}
			case *SavedPanel:
				if v.PollCountdown > 0 {
					v.PollCountdown--
					return v
				}
			}
			return nil
		})

	case RenameTab:
		return r.updatePanel(e.PanelID, func(p Panel) Panel {
			switch v := p.(type) {
			case *UnsavedPanel:
				v.DisplayName = e.NewDisplayName
				return v
			case *SavedPanel:
				v.AnalysisConfig.DisplayName = e.NewDisplayName
				return v
			}
			return nil
		})

	case UpdateParamValues:
		return r.updatePanel(e.PanelID, func(p Panel) Panel {
			switch v := p.(type) {
			case *UnsavedPanel:
				v.ParamValues = plugin.CloneParamValues(e.Values)
				return v
			case *SavedPanel:
				v.ParamValues = plugin.CloneParamValues(e.Values)
				return v
			}
			return nil
		})

	case UpdateFormUIState:
		return r.updatePanel(e.PanelID, func(p Panel) Panel {
			switch v := p.(type) {
			case *UnsavedPanel:
				v.FormUIState = e.State.Clone()
				return v
			case *SavedPanel:
				v.FormUIState = e.State.Clone()
				return v
			}
			return nil
		})

	case UpdateResultUIState:
		return r.updatePanel(e.PanelID, func(p Panel) Panel {
			s, ok := p.(*SavedPanel)
			if !ok {
				return nil
			}
			s.ResultUIState = e.State.Clone()
			return s
		})

	case ToggleDescription:
		return r.updatePanel(e.PanelID, func(p Panel) Panel {
			ui := panelUI(p)
			if ui == nil {
				return nil
			}
			ui.DescriptionExpanded = !ui.DescriptionExpanded
			return p
		})

	case ToggleFormVisibility:
		return r.updatePanel(e.PanelID, func(p Panel) Panel {
			if !Runnable(p) {
				return nil
			}
			ui := panelUI(p)
			ui.FormExpanded = !ui.FormExpanded
			return p
		})
	}
	return r
}

// reduceTabListing replaces the listed (Uninitialized) panels. Panels the
// user opened before the listing arrived keep their ids and follow the
// listed ones; a listed analysis that is already open is not listed twice.
func reduceTabListing(r Registry, e FinishLoadingTabListing) Registry {
	next := r.copyOnWrite()
	next.Choices = slices.Clone(e.Choices)
	next.Panels = make(map[PanelID]Panel, len(e.Tabs)+len(r.Order))
	next.Order = make([]PanelID, 0, len(e.Tabs)+len(r.Order))

	var kept []PanelID
	open := map[int64]bool{}
	for _, id := range r.Order {
		p := r.Panels[id]
		if p == nil || p.Kind() == KindUninitialized {
			continue
		}
		if s, ok := p.(*SavedPanel); ok {
			open[s.AnalysisConfig.AnalysisID] = true
		}
		kept = append(kept, id)
	}

	for _, tab := range e.Tabs {
		if tab == nil || open[tab.AnalysisID] {
			continue
		}
		next.lastID++
		next.Panels[next.lastID] = tab.clone()
		next.Order = append(next.Order, next.lastID)
	}
	for _, id := range kept {
		next.Panels[id] = r.Panels[id]
		next.Order = append(next.Order, id)
	}
	if _, ok := next.Panel(next.ActiveTab); !ok {
		next.ActiveTab = NoPanel
	}
	return next
}

// mergeSubmission folds a service outcome into the current panel. Fields
// the outcome does not speak for keep their current values.
func mergeSubmission(p Panel, out Submission) Panel {
	if out.Step == SubmissionCreated {
		d, ok := p.(*UnsavedPanel)
		if !ok {
			return nil
		}
		return &SavedPanel{
			AnalysisConfig:       out.Config,
			ConfigStatus:         ConfigComplete,
			ParamSpecs:           d.ParamSpecs,
			ParamValues:          d.ParamValues,
			FormUIState:          d.FormUIState,
			ResultUIState:        out.ResultUIState.Clone(),
			ResultContents:       wdk.EmptyResult(),
			FormStatus:           d.FormStatus,
			FormErrorMessage:     d.FormErrorMessage,
			FormValidationErrors: d.FormValidationErrors,
			PollCountdown:        InitialPollCountdown,
			PanelUI:              d.PanelUI,
		}
	}

	s, ok := p.(*SavedPanel)
	if !ok {
		return nil
	}
	switch out.Step {
	case SubmissionRejected:
		s.FormValidationErrors = cloneSlice(out.ValidationErrors)
		s.FormStatus = FormAwaitingSubmission
	case SubmissionStarted:
		s.AnalysisConfig.Status = out.Status
		s.ConfigStatus = ConfigLoading
		s.FormValidationErrors = nil
	case SubmissionSettled:
		s.AnalysisConfig.Status = out.Status
		s.ConfigStatus = ConfigComplete
		s.FormStatus = FormAwaitingSubmission
		s.FormErrorMessage = ""
		s.FormValidationErrors = nil
		s.ResultContents = append(wdk.Result(nil), out.Result...)
		s.ResultErrorMessage = ""
	case SubmissionFailed:
		s.ResultErrorMessage = out.Error
		s.ConfigStatus = ConfigError
	default:
		return nil
	}
	return s
}

func setFormStatus(r Registry, id PanelID, status FormStatus) Registry {
	return r.updatePanel(id, func(p Panel) Panel {
		switch v := p.(type) {
		case *UnsavedPanel:
			v.FormStatus = status
			return v
		case *SavedPanel:
			v.FormStatus = status
			return v
		}
		return nil
	})
}

// panelUI returns the layout state of the variants that have one.
func panelUI(p Panel) *PanelUIState {
	switch v := p.(type) {
	case *MenuPanel:
		return &v.PanelUI
	case *UnsavedPanel:
		return &v.PanelUI
	case *SavedPanel:
		return &v.PanelUI
	}
	return nil
}
