package ui

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/wdkclient/stepanalysis/internal/analysis"
	"github.com/wdkclient/stepanalysis/internal/plugin"
	"github.com/wdkclient/stepanalysis/internal/prefs"
	"github.com/wdkclient/stepanalysis/internal/state"
)

// Store is the part of *state.Store the UI drives.
type Store interface {
	Snapshot() state.Snapshot
	Dispatch(events ...analysis.Event)
	Subscribe() (<-chan struct{}, func())
}

// Options configures the UI.
type Options struct {
	Store     Store
	Plugins   *plugin.Registry
	Prompter  *Prompter
	Prefs     prefs.Prefs
	PrefsPath string
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	store       Store
	plugins     *plugin.Registry
	keys        keyMap
	prefs       prefs.Prefs
	prefsPath   string
	changes     <-chan struct{}
	unsubscribe func()

	// UI state
	theme      Theme
	width      int
	height     int
	ready      bool
	viewport   viewport.Model
	help       help.Model
	menuCursor int
	lastActive analysis.PanelID

	// Data state
	snapshot state.Snapshot

	// Overlays
	showHelp bool
	modal    Modal
	prompts  []promptMsg
}

// New creates a new Bubble Tea model subscribed to the store.
func New(opts Options) Model {
	plugins := opts.Plugins
	if plugins == nil {
		plugins = plugin.Default()
	}
	p := opts.Prefs
	if p.Theme == "" {
		p = prefs.Default()
	}
	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	m := Model{
		store:       opts.Store,
		plugins:     plugins,
		keys:        DefaultKeyMap(),
		prefs:       p,
		prefsPath:   prefsPath,
		theme:       GetTheme(p.Theme),
		help:        help.New(),
		lastActive:  analysis.NoPanel,
		unsubscribe: func() {},
	}
	if m.store != nil {
		m.changes, m.unsubscribe = m.store.Subscribe()
		m.snapshot = m.store.Snapshot()
	}
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	if m.store == nil {
		return nil
	}
	return tea.Batch(
		fetchSnapshotCmd(m.store),
		waitForChangeCmd(m.changes),
		dispatch(analysis.StartLoadingTabListing{}),
	)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		bodyHeight := max(msg.Height-2, 1)
		if !m.ready {
			m.viewport = viewport.New(msg.Width, bodyHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = bodyHeight
		}
		m.refreshViewport()
		return m, nil

	case changeMsg:
		return m, tea.Batch(fetchSnapshotCmd(m.store), waitForChangeCmd(m.changes))

	case snapshotMsg:
		return m.handleSnapshot(state.Snapshot(msg))

	case dispatchMsg:
		if m.store != nil {
			m.store.Dispatch(msg...)
		}
		return m, nil

	case promptMsg:
		if m.modal == nil {
			m.modal = promptModal{prompt: msg}
		} else {
			m.prompts = append(m.prompts, msg)
		}
		return m, nil
	}

	if m.modal != nil {
		modal, cmd, _ := m.modal.Update(msg, m.keys)
		m.modal = modal
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.modal != nil {
		return m.modal.View(m.theme, m.width, m.height)
	}
	if m.showHelp {
		return m.renderHelp()
	}

	var b strings.Builder
	b.WriteString(m.renderTabs())
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(m.theme.Styles().Footer.Width(m.width).Render(m.renderShortHelp()))
	return b.String()
}

func (m Model) handleSnapshot(snap state.Snapshot) (tea.Model, tea.Cmd) {
	if snap.Version < m.snapshot.Version && !snap.Closed {
		return m, nil
	}
	m.snapshot = snap
	if snap.Closed {
		return m, tea.Quit
	}

	reg := snap.Registry
	m.menuCursor = clampCursor(m.menuCursor, len(reg.Choices))
	m.refreshViewport()

	// The listing leaves nothing active; open the first tab.
	if _, _, ok := reg.Active(); !ok && len(reg.Order) > 0 {
		return m, dispatch(analysis.SelectTab{PanelID: reg.Order[0]})
	}
	return m, nil
}

func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderPanel())
	if active := m.snapshot.Registry.ActiveTab; active != m.lastActive {
		m.lastActive = active
		m.viewport.GotoTop()
	}
}

// nextPrompt shows the oldest queued prompt, if any.
func (m *Model) nextPrompt() {
	if len(m.prompts) == 0 {
		return
	}
	m.modal = promptModal{prompt: m.prompts[0]}
	m.prompts = m.prompts[1:]
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.modal != nil {
		modal, cmd, done := m.modal.Update(msg, m.keys)
		if done {
			m.modal = nil
			m.nextPrompt()
		} else {
			m.modal = modal
		}
		return m, cmd
	}

	if m.showHelp {
		// Any key closes help
		m.showHelp = false
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.prefs.Theme = m.theme.Name
		if m.prefsPath != "" {
			_ = prefs.Save(m.prefsPath, m.prefs)
		}
		m.refreshViewport()
		return m, nil

	case key.Matches(msg, m.keys.NextTab):
		return m, m.cycleTab(1)

	case key.Matches(msg, m.keys.PrevTab):
		return m, m.cycleTab(-1)

	case key.Matches(msg, m.keys.NewTab):
		m.menuCursor = 0
		return m, dispatch(analysis.CreateNewTab{State: &analysis.MenuPanel{
			PanelUI: analysis.PanelUIState{FormExpanded: m.prefs.FormExpanded},
		}})

	case key.Matches(msg, m.keys.PageUp):
		m.viewport.HalfPageUp()
		return m, nil

	case key.Matches(msg, m.keys.PageDown):
		m.viewport.HalfPageDown()
		return m, nil
	}

	id, p, ok := m.snapshot.Registry.Active()
	if !ok {
		return m, nil
	}
	if menu, isMenu := p.(*analysis.MenuPanel); isMenu {
		return m.handleMenuKey(msg, id, menu)
	}
	return m.handlePanelKey(msg, id, p)
}

func (m Model) handleMenuKey(msg tea.KeyMsg, id analysis.PanelID, menu *analysis.MenuPanel) (tea.Model, tea.Cmd) {
	choices := m.snapshot.Registry.Choices
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.menuCursor > 0 {
			m.menuCursor--
		}
		m.refreshViewport()
	case key.Matches(msg, m.keys.Down):
		if m.menuCursor < len(choices)-1 {
			m.menuCursor++
		}
		m.refreshViewport()
	case key.Matches(msg, m.keys.Choose):
		if menu.Loading || len(choices) == 0 {
			return m, nil
		}
		choice := choices[clampCursor(m.menuCursor, len(choices))]
		return m, dispatch(analysis.StartLoadingChosenAnalysisTab{PanelID: id, Choice: choice})
	case key.Matches(msg, m.keys.ToggleDescription):
		return m, dispatch(analysis.ToggleDescription{PanelID: id})
	case key.Matches(msg, m.keys.Delete):
		return m, dispatch(analysis.DeleteAnalysis{PanelID: id})
	}
	return m, nil
}

func (m Model) handlePanelKey(msg tea.KeyMsg, id analysis.PanelID, p analysis.Panel) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		m.viewport.ScrollUp(1)
		return m, nil
	case key.Matches(msg, m.keys.Down):
		m.viewport.ScrollDown(1)
		return m, nil
	case key.Matches(msg, m.keys.Delete):
		return m, dispatch(analysis.DeleteAnalysis{PanelID: id})
	}

	if !analysis.Runnable(p) {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Submit):
		if formStatus(p) == analysis.FormSubmitting {
			return m, nil
		}
		return m, dispatch(analysis.StartFormSubmission{PanelID: id})
	case key.Matches(msg, m.keys.Rename):
		m.modal = newRenameModal(id, p.Title())
	case key.Matches(msg, m.keys.Duplicate):
		return m, dispatch(analysis.DuplicateAnalysis{PanelID: id})
	case key.Matches(msg, m.keys.EditParams):
		switch p := p.(type) {
		case *analysis.UnsavedPanel:
			m.modal = newParamsModal(id, p.ParamSpecs, p.ParamValues)
		case *analysis.SavedPanel:
			m.modal = newParamsModal(id, p.ParamSpecs, p.ParamValues)
		}
	case key.Matches(msg, m.keys.ToggleDescription):
		return m, dispatch(analysis.ToggleDescription{PanelID: id})
	case key.Matches(msg, m.keys.ToggleForm):
		return m, dispatch(analysis.ToggleFormVisibility{PanelID: id})
	case key.Matches(msg, m.keys.ToggleSort):
		saved, isSaved := p.(*analysis.SavedPanel)
		if !isSaved {
			return m, nil
		}
		next := saved.ResultUIState.Clone()
		asc, _ := next[plugin.SortAscendingState].(bool)
		next[plugin.SortAscendingState] = !asc
		return m, dispatch(analysis.UpdateResultUIState{PanelID: id, State: next})
	}
	return m, nil
}

// cycleTab selects the tab delta positions away from the active one.
func (m Model) cycleTab(delta int) tea.Cmd {
	order := m.snapshot.Registry.Order
	if len(order) == 0 {
		return nil
	}
	idx := m.snapshot.Registry.TabIndex(m.snapshot.Registry.ActiveTab)
	if idx < 0 {
		idx = 0
	} else {
		idx = (idx + delta + len(order)) % len(order)
	}
	return dispatch(analysis.SelectTab{PanelID: order[idx]})
}

func formStatus(p analysis.Panel) analysis.FormStatus {
	switch p := p.(type) {
	case *analysis.UnsavedPanel:
		return p.FormStatus
	case *analysis.SavedPanel:
		return p.FormStatus
	}
	return ""
}

// Messages

type changeMsg struct{}

type snapshotMsg state.Snapshot

// dispatchMsg carries events to the store from the Update loop.
type dispatchMsg []analysis.Event

// Commands

func waitForChangeCmd(ch <-chan struct{}) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return changeMsg{}
	}
}

func fetchSnapshotCmd(store Store) tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg(store.Snapshot())
	}
}

func dispatch(events ...analysis.Event) tea.Cmd {
	return func() tea.Msg {
		return dispatchMsg(events)
	}
}

// Run starts the Bubble Tea program and blocks until it exits or ctx ends.
func Run(ctx context.Context, opts Options) error {
	m := New(opts)
	defer m.unsubscribe()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if opts.Prompter != nil {
		opts.Prompter.Attach(p.Send)
		defer opts.Prompter.Attach(nil)
	}
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
