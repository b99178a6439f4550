package analysis

import (
	"maps"
	"slices"

	"github.com/wdkclient/stepanalysis/internal/wdk"
)

// Registry is the analysis panel state of one search step. It is a value:
// reducers return a new Registry and never modify one that has been
// published, so readers may keep and share snapshots freely.
type Registry struct {
	StepID    int64
	Choices   []wdk.AnalysisType
	Panels    map[PanelID]Panel
	Order     []PanelID
	ActiveTab PanelID

	lastID PanelID
}

// NewRegistry returns an empty registry for a step.
func NewRegistry(stepID int64) Registry {
	return Registry{
		StepID: stepID,
		Panels: map[PanelID]Panel{},
	}
}

// Panel looks up a panel by id.
func (r Registry) Panel(id PanelID) (Panel, bool) {
	p, ok := r.Panels[id]
	return p, ok && p != nil
}

// TabIndex returns the position of id in the tab order, or -1.
func (r Registry) TabIndex(id PanelID) int {
	return slices.Index(r.Order, id)
}

// Active returns the active panel, if any.
func (r Registry) Active() (PanelID, Panel, bool) {
	p, ok := r.Panel(r.ActiveTab)
	if !ok {
		return NoPanel, nil, false
	}
	return r.ActiveTab, p, true
}

// Choice finds an available analysis type by name.
func (r Registry) Choice(name string) (wdk.AnalysisType, bool) {
	for _, choice := range r.Choices {
		if choice.Name == name {
			return choice, true
		}
	}
	return wdk.AnalysisType{}, false
}

// Len is the number of panels.
func (r Registry) Len() int {
	return len(r.Order)
}

func (r Registry) copyOnWrite() Registry {
	r.Panels = maps.Clone(r.Panels)
	if r.Panels == nil {
		r.Panels = map[PanelID]Panel{}
	}
	r.Order = slices.Clone(r.Order)
	return r
}

// replacePanel swaps the panel stored under id. Unknown ids are ignored so
// that late results for a closed tab never resurrect it.
func (r Registry) replacePanel(id PanelID, p Panel) Registry {
	if _, ok := r.Panel(id); !ok || p == nil {
		return r
	}
	next := r.copyOnWrite()
	next.Panels[id] = p
	return next
}

func (r Registry) appendPanel(p Panel) (Registry, PanelID) {
	next := r.copyOnWrite()
	next.lastID++
	id := next.lastID
	next.Panels[id] = p
	next.Order = append(next.Order, id)
	return next, id
}

func (r Registry) removePanel(id PanelID) Registry {
	idx := r.TabIndex(id)
	if idx < 0 {
		return r
	}
	next := r.copyOnWrite()
	delete(next.Panels, id)
	next.Order = slices.Delete(next.Order, idx, idx+1)
	if next.ActiveTab == id {
		next.ActiveTab = fallbackTab(next.Order, idx)
	}
	return next
}

// fallbackTab picks the tab that preceded a removed one, else the tab now at
// its position, else none.
func fallbackTab(order []PanelID, removedIdx int) PanelID {
	switch {
	case len(order) == 0:
		return NoPanel
	case removedIdx > 0:
		return order[removedIdx-1]
	default:
		return order[0]
	}
}

// updatePanel applies fn to a copy of the panel stored under id.
func (r Registry) updatePanel(id PanelID, fn func(Panel) Panel) Registry {
	p, ok := r.Panel(id)
	if !ok {
		return r
	}
	updated := fn(p.clone())
	if updated == nil {
		return r
	}
	return r.replacePanel(id, updated)
}
