package ui

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wdkclient/stepanalysis/internal/analysis"
	"github.com/wdkclient/stepanalysis/internal/plugin"
	"github.com/wdkclient/stepanalysis/internal/prefs"
	"github.com/wdkclient/stepanalysis/internal/state"
	"github.com/wdkclient/stepanalysis/internal/wdk"
)

type fakeStore struct {
	mu     sync.Mutex
	snap   state.Snapshot
	events []analysis.Event
}

func (s *fakeStore) Snapshot() state.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

func (s *fakeStore) Dispatch(events ...analysis.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, events...)
}

func (s *fakeStore) Subscribe() (<-chan struct{}, func()) {
	return make(chan struct{}), func() {}
}

func (s *fakeStore) last(t *testing.T) analysis.Event {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	require.NotEmpty(t, s.events, "no event dispatched")
	return s.events[len(s.events)-1]
}

func (s *fakeStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

var (
	goChoice   = wdk.AnalysisType{Name: "go-enrichment", DisplayName: "Gene Ontology Enrichment", HasParameters: true}
	wordChoice = wdk.AnalysisType{Name: "word-enrichment", DisplayName: "Word Enrichment", HasParameters: true}
)

func registryWith(active analysis.PanelID, panels ...analysis.Panel) analysis.Registry {
	reg := analysis.NewRegistry(7)
	reg.Choices = []wdk.AnalysisType{goChoice, wordChoice}
	for i, p := range panels {
		id := analysis.PanelID(i + 1)
		reg.Panels[id] = p
		reg.Order = append(reg.Order, id)
	}
	reg.ActiveTab = active
	return reg
}

func newTestModel(t *testing.T, reg analysis.Registry) (Model, *fakeStore) {
	t.Helper()
	store := &fakeStore{snap: state.Snapshot{Registry: reg, Version: 1}}
	m := New(Options{
		Store:     store,
		Prefs:     prefs.Prefs{Theme: "Slate", FormExpanded: true},
		PrefsPath: filepath.Join(t.TempDir(), "prefs.toml"),
	})
	result, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return result.(Model), store
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEscape}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "shift+tab":
		return tea.KeyMsg{Type: tea.KeyShiftTab}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

// press sends a key and feeds a resulting dispatch back into the model.
func press(t *testing.T, m Model, k string) Model {
	t.Helper()
	result, cmd := m.Update(keyMsg(k))
	m = result.(Model)
	if cmd == nil {
		return m
	}
	if d, ok := cmd().(dispatchMsg); ok {
		result, _ = m.Update(d)
		m = result.(Model)
	}
	return m
}

// typeText sends runes to a focused text input without running its
// cursor blink commands.
func typeText(m Model, text string) Model {
	result, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
	return result.(Model)
}

func savedPanel() *analysis.SavedPanel {
	return &analysis.SavedPanel{
		AnalysisConfig: wdk.AnalysisConfig{
			AnalysisID:   11,
			DisplayName:  "GO Enrichment",
			AnalysisName: "unregistered",
			Status:       wdk.StatusComplete,
		},
		ConfigStatus:   analysis.ConfigComplete,
		ResultContents: wdk.Result(`{"value": 1}`),
		ResultUIState:  plugin.UIState{plugin.SortKeyState: "pValue", plugin.SortAscendingState: true},
		FormStatus:     analysis.FormAwaitingSubmission,
		PanelUI:        analysis.PanelUIState{FormExpanded: true},
	}
}

func TestInitStartsTabListing(t *testing.T) {
	m, _ := newTestModel(t, analysis.NewRegistry(7))
	cmd := m.Init()
	require.NotNil(t, cmd)

	batch, ok := cmd().(tea.BatchMsg)
	require.True(t, ok)

	var found bool
	for _, c := range batch {
		if c == nil {
			continue
		}
		// The change waiter blocks on the subscription.
		done := make(chan tea.Msg, 1)
		go func() { done <- c() }()
		select {
		case msg := <-done:
			if d, ok := msg.(dispatchMsg); ok {
				assert.Equal(t, dispatchMsg{analysis.StartLoadingTabListing{}}, d)
				found = true
			}
		case <-time.After(50 * time.Millisecond):
		}
	}
	assert.True(t, found)
}

func TestSnapshotSelectsFirstTabWhenNoneActive(t *testing.T) {
	reg := registryWith(analysis.NoPanel,
		&analysis.UninitializedPanel{DisplayName: "a", Status: analysis.LoadUnopened},
		&analysis.UninitializedPanel{DisplayName: "b", Status: analysis.LoadUnopened},
	)
	m, store := newTestModel(t, analysis.NewRegistry(7))

	result, cmd := m.Update(snapshotMsg(state.Snapshot{Registry: reg, Version: 2}))
	m = result.(Model)
	require.NotNil(t, cmd)
	result, _ = m.Update(cmd())
	_ = result.(Model)

	assert.Equal(t, analysis.SelectTab{PanelID: 1}, store.last(t))
}

func TestStaleSnapshotIgnored(t *testing.T) {
	reg := registryWith(1, &analysis.MenuPanel{})
	m, _ := newTestModel(t, reg)
	m.snapshot.Version = 5

	result, _ := m.Update(snapshotMsg(state.Snapshot{Registry: analysis.NewRegistry(7), Version: 4}))
	m = result.(Model)
	assert.Equal(t, 1, m.snapshot.Registry.Len())
}

func TestClosedSnapshotQuits(t *testing.T) {
	m, _ := newTestModel(t, analysis.NewRegistry(7))
	_, cmd := m.Update(snapshotMsg(state.Snapshot{Registry: analysis.NewRegistry(7), Closed: true}))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestTabCyclingWraps(t *testing.T) {
	reg := registryWith(1,
		&analysis.UninitializedPanel{DisplayName: "a"},
		&analysis.UninitializedPanel{DisplayName: "b"},
	)
	m, store := newTestModel(t, reg)

	m = press(t, m, "tab")
	assert.Equal(t, analysis.SelectTab{PanelID: 2}, store.last(t))

	m = press(t, m, "shift+tab")
	assert.Equal(t, analysis.SelectTab{PanelID: 2}, store.last(t))
	_ = m
}

func TestNewTabUsesFormPreference(t *testing.T) {
	m, store := newTestModel(t, analysis.NewRegistry(7))
	m.prefs.FormExpanded = false

	press(t, m, "n")

	ev, ok := store.last(t).(analysis.CreateNewTab)
	require.True(t, ok)
	menu, ok := ev.State.(*analysis.MenuPanel)
	require.True(t, ok)
	assert.False(t, menu.PanelUI.FormExpanded)
	assert.False(t, menu.Loading)
}

func TestMenuChoosesHighlightedAnalysis(t *testing.T) {
	m, store := newTestModel(t, registryWith(1, &analysis.MenuPanel{}))

	m = press(t, m, "j")
	assert.Equal(t, 1, m.menuCursor)
	m = press(t, m, "j")
	assert.Equal(t, 1, m.menuCursor, "cursor stops at the last choice")

	press(t, m, "enter")
	assert.Equal(t, analysis.StartLoadingChosenAnalysisTab{PanelID: 1, Choice: wordChoice}, store.last(t))
}

func TestMenuIgnoresChooseWhileLoading(t *testing.T) {
	m, store := newTestModel(t, registryWith(1, &analysis.MenuPanel{Loading: true}))
	press(t, m, "enter")
	assert.Equal(t, 0, store.count())
}

func TestMenuDeleteDispatches(t *testing.T) {
	m, store := newTestModel(t, registryWith(1, &analysis.MenuPanel{}))
	press(t, m, "x")
	assert.Equal(t, analysis.DeleteAnalysis{PanelID: 1}, store.last(t))
}

func TestSubmitSkippedWhileSubmitting(t *testing.T) {
	p := savedPanel()
	p.FormStatus = analysis.FormSubmitting
	m, store := newTestModel(t, registryWith(1, p))

	press(t, m, "s")
	assert.Equal(t, 0, store.count())
}

func TestSubmitDispatches(t *testing.T) {
	m, store := newTestModel(t, registryWith(1, savedPanel()))
	press(t, m, "s")
	assert.Equal(t, analysis.StartFormSubmission{PanelID: 1}, store.last(t))
}

func TestRunnableActionsIgnoreUninitializedPanels(t *testing.T) {
	m, store := newTestModel(t, registryWith(1, &analysis.UninitializedPanel{DisplayName: "a", Status: analysis.LoadLoading}))
	for _, k := range []string{"s", "c", "f", "o", "r", "e"} {
		m = press(t, m, k)
	}
	assert.Equal(t, 0, store.count())
	assert.Nil(t, m.modal)
}

func TestRenameModalDispatchesRenameAnalysis(t *testing.T) {
	m, store := newTestModel(t, registryWith(1, savedPanel()))

	m = press(t, m, "r")
	require.IsType(t, renameModal{}, m.modal)

	m = typeText(m, " 2")
	m = press(t, m, "enter")

	assert.Nil(t, m.modal)
	assert.Equal(t, analysis.RenameAnalysis{PanelID: 1, NewDisplayName: "GO Enrichment 2"}, store.last(t))
}

func TestRenameModalCancel(t *testing.T) {
	m, store := newTestModel(t, registryWith(1, savedPanel()))
	m = press(t, m, "r")
	m = press(t, m, "esc")
	assert.Nil(t, m.modal)
	assert.Equal(t, 0, store.count())
}

func TestParamsModalDenormalizesValues(t *testing.T) {
	hidden := false
	draft := &analysis.UnsavedPanel{
		AnalysisType: &goChoice,
		AnalysisName: goChoice.Name,
		DisplayName:  goChoice.DisplayName,
		ParamSpecs: []wdk.ParamSpec{
			{Name: "organism", DisplayName: "Organism", AllowMultipleValues: true},
			{Name: "hidden", IsVisible: &hidden},
			{Name: "pValueCutoff", DisplayName: "P-Value cutoff"},
		},
		ParamValues: map[string][]string{
			"organism":     {"P. falciparum"},
			"hidden":       {"x"},
			"pValueCutoff": {"0.05"},
		},
		FormStatus: analysis.FormAwaitingSubmission,
	}
	m, store := newTestModel(t, registryWith(1, draft))

	m = press(t, m, "e")
	modal, ok := m.modal.(paramsModal)
	require.True(t, ok)
	require.Len(t, modal.inputs, 2)

	m = typeText(m, ", P. vivax")
	m = press(t, m, "enter")

	ev, ok := store.last(t).(analysis.UpdateParamValues)
	require.True(t, ok)
	assert.Equal(t, analysis.PanelID(1), ev.PanelID)
	assert.Equal(t, map[string][]string{
		"organism":     {"P. falciparum", "P. vivax"},
		"hidden":       {"x"},
		"pValueCutoff": {"0.05"},
	}, ev.Values)
	assert.Equal(t, []string{"P. falciparum"}, draft.ParamValues["organism"], "panel values are not modified")
}

func TestToggleSortFlipsResultOrder(t *testing.T) {
	p := savedPanel()
	m, store := newTestModel(t, registryWith(1, p))

	press(t, m, "o")

	ev, ok := store.last(t).(analysis.UpdateResultUIState)
	require.True(t, ok)
	assert.Equal(t, false, ev.State[plugin.SortAscendingState])
	assert.Equal(t, "pValue", ev.State[plugin.SortKeyState])
	assert.Equal(t, true, p.ResultUIState[plugin.SortAscendingState])
}

func TestPanelTogglesDispatch(t *testing.T) {
	m, store := newTestModel(t, registryWith(1, savedPanel()))

	m = press(t, m, "D")
	assert.Equal(t, analysis.ToggleDescription{PanelID: 1}, store.last(t))
	m = press(t, m, "f")
	assert.Equal(t, analysis.ToggleFormVisibility{PanelID: 1}, store.last(t))
	press(t, m, "c")
	assert.Equal(t, analysis.DuplicateAnalysis{PanelID: 1}, store.last(t))
}

func TestConfirmPromptAnswers(t *testing.T) {
	m, _ := newTestModel(t, analysis.NewRegistry(7))
	reply := make(chan bool, 1)

	result, _ := m.Update(promptMsg{text: "Delete?", confirm: true, reply: reply})
	m = result.(Model)
	require.NotNil(t, m.modal)
	assert.Contains(t, m.View(), "Delete?")

	m = press(t, m, "z")
	assert.NotNil(t, m.modal, "unrelated keys keep the prompt open")

	m = press(t, m, "y")
	assert.Nil(t, m.modal)
	assert.True(t, <-reply)
}

func TestPromptsQueueWhileModalOpen(t *testing.T) {
	m, _ := newTestModel(t, analysis.NewRegistry(7))
	first := make(chan bool, 1)
	second := make(chan bool, 1)

	result, _ := m.Update(promptMsg{text: "first", confirm: true, reply: first})
	m = result.(Model)
	result, _ = m.Update(promptMsg{text: "second", reply: second})
	m = result.(Model)

	m = press(t, m, "n")
	assert.False(t, <-first)
	require.NotNil(t, m.modal)
	assert.Contains(t, m.View(), "second")

	m = press(t, m, "q")
	assert.True(t, <-second)
	assert.Nil(t, m.modal)
}

func TestViewRendersSavedResult(t *testing.T) {
	m, _ := newTestModel(t, registryWith(1, savedPanel()))
	view := m.View()
	assert.Contains(t, view, "GO Enrichment")
	assert.Contains(t, view, "Results")
	assert.Contains(t, view, `"value": 1`)
}

func TestViewShowsCountdownWhileRunning(t *testing.T) {
	p := savedPanel()
	p.AnalysisConfig.Status = wdk.StatusRunning
	p.ConfigStatus = analysis.ConfigLoading
	p.PollCountdown = 2
	m, _ := newTestModel(t, registryWith(1, p))
	assert.Contains(t, m.View(), "next check in 2")
}

func TestViewShowsLoadError(t *testing.T) {
	m, _ := newTestModel(t, registryWith(1, &analysis.UninitializedPanel{
		DisplayName:  "Broken",
		Status:       analysis.LoadError,
		ErrorMessage: "An error occurred while loading this analysis: boom",
	}))
	assert.Contains(t, m.View(), "boom")
}

func TestCycleThemeSavesPrefs(t *testing.T) {
	m, _ := newTestModel(t, analysis.NewRegistry(7))
	m = press(t, m, "T")
	assert.Equal(t, "Nightfox", m.theme.Name)
	assert.Equal(t, "Nightfox", prefs.Load(m.prefsPath).Theme)
}

func TestHelpOverlayClosesOnAnyKey(t *testing.T) {
	m, _ := newTestModel(t, analysis.NewRegistry(7))
	m = press(t, m, "?")
	assert.True(t, m.showHelp)
	assert.True(t, strings.Contains(m.View(), "Keyboard Shortcuts"))
	m = press(t, m, "j")
	assert.False(t, m.showHelp)
}

func TestPrompterRoundTrip(t *testing.T) {
	p := NewPrompter()
	p.Attach(func(msg tea.Msg) {
		pm := msg.(promptMsg)
		go func() { pm.reply <- pm.confirm }()
	})
	assert.True(t, p.Confirm(context.Background(), "ok?"))
	p.Alert(context.Background(), "done")
}

func TestDetachedPrompterDeclines(t *testing.T) {
	p := NewPrompter()
	assert.False(t, p.Confirm(context.Background(), "ok?"))
	p.Alert(context.Background(), "ignored")
}

func TestPrompterHonoursContext(t *testing.T) {
	p := NewPrompter()
	p.Attach(func(tea.Msg) {})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.False(t, p.Confirm(ctx, "never answered"))
}

func TestResultRendersEnrichmentTable(t *testing.T) {
	p := savedPanel()
	p.AnalysisConfig.AnalysisName = "go-enrichment"
	payload, err := json.Marshal(map[string]any{
		"resultData": []map[string]any{
			{"goId": "GO:0001", "goTerm": "binding", "pValue": 0.01},
		},
	})
	require.NoError(t, err)
	p.ResultContents = wdk.Result(payload)

	m, _ := newTestModel(t, registryWith(1, p))
	assert.Contains(t, m.View(), "GO:0001")
}
