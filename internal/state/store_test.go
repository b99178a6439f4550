package state

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wdkclient/stepanalysis/internal/analysis"
	"github.com/wdkclient/stepanalysis/internal/wdk"
)

type stubService struct {
	wdk.AnalysisService
	applied []wdk.AnalysisConfig
	config  wdk.AnalysisConfig
}

func (s stubService) AppliedAnalyses(context.Context, int64) ([]wdk.AnalysisConfig, error) {
	return s.applied, nil
}

func (s stubService) AnalysisTypes(context.Context, int64) ([]wdk.AnalysisType, error) {
	return []wdk.AnalysisType{{Name: "go-enrichment"}}, nil
}

func (s stubService) Analysis(context.Context, int64, int64) (wdk.AnalysisConfig, error) {
	return s.config, nil
}

func (s stubService) ParamSpecs(context.Context, int64, string) ([]wdk.ParamSpec, error) {
	return nil, nil
}

func (s stubService) Result(context.Context, int64, int64) (wdk.Result, error) {
	return wdk.Result(`{"ok":true}`), nil
}

type countingObserver struct {
	mu     sync.Mutex
	events map[string]int
	panels int
}

func (o *countingObserver) ObserveEvent(kind string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.events == nil {
		o.events = map[string]int{}
	}
	o.events[kind]++
}

func (o *countingObserver) ObservePanels(n int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.panels = n
}

func (o *countingObserver) ObserveEffects(int) {}

func (o *countingObserver) count(kind string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.events[kind]
}

func newStore(t *testing.T, svc wdk.AnalysisService, opts ...Option) (*Store, context.CancelFunc, <-chan struct{}) {
	t.Helper()
	machine := analysis.NewMachine(analysis.Deps{Service: svc, Countdown: time.Millisecond})
	s := New(7, machine, opts...)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return s, cancel, done
}

func TestStore_ListsAndLoadsTabs(t *testing.T) {
	config := wdk.AnalysisConfig{AnalysisID: 1, DisplayName: "GO", AnalysisName: "go-enrichment", Status: wdk.StatusComplete}
	obs := &countingObserver{}
	s, _, _ := newStore(t, stubService{applied: []wdk.AnalysisConfig{config}, config: config}, WithObserver(obs))

	s.Dispatch(analysis.StartLoadingTabListing{})
	require.Eventually(t, func() bool { return s.Snapshot().Registry.Len() == 1 }, time.Second, time.Millisecond)

	id := s.Snapshot().Registry.Order[0]
	s.Dispatch(analysis.SelectTab{PanelID: id})
	require.Eventually(t, func() bool {
		p, ok := s.Snapshot().Registry.Panel(id)
		return ok && p.Kind() == analysis.KindSaved
	}, time.Second, time.Millisecond)

	snap := s.Snapshot()
	assert.Equal(t, id, snap.Registry.ActiveTab)
	assert.False(t, snap.Closed)
	assert.Equal(t, 1, obs.count("select-tab"))
	assert.Eventually(t, func() bool { return obs.count("finish-loading-saved-tab") == 1 }, time.Second, time.Millisecond)
}

func TestStore_SubscribeNotifies(t *testing.T) {
	s, _, _ := newStore(t, stubService{})
	changes, cancel := s.Subscribe()
	defer cancel()

	s.Dispatch(analysis.CreateNewTab{State: &analysis.MenuPanel{}})

	select {
	case <-changes:
	case <-time.After(time.Second):
		t.Fatal("no change notification")
	}
	assert.Equal(t, 1, s.Snapshot().Registry.Len())
	assert.NotZero(t, s.Snapshot().Version)
}

func TestStore_SnapshotsAreStable(t *testing.T) {
	s, _, _ := newStore(t, stubService{})

	s.Dispatch(analysis.CreateNewTab{State: &analysis.MenuPanel{}})
	require.Eventually(t, func() bool { return s.Snapshot().Registry.Len() == 1 }, time.Second, time.Millisecond)
	before := s.Snapshot()

	s.Dispatch(analysis.RemoveTab{PanelID: before.Registry.Order[0]})
	require.Eventually(t, func() bool { return s.Snapshot().Registry.Len() == 0 }, time.Second, time.Millisecond)

	assert.Equal(t, 1, before.Registry.Len())
	_, ok := before.Registry.Panel(before.Registry.Order[0])
	assert.True(t, ok)
}

func TestStore_TeardownDiscardsPanels(t *testing.T) {
	obs := &countingObserver{}
	s, cancel, done := newStore(t, stubService{}, WithObserver(obs))

	s.Dispatch(analysis.CreateNewTab{State: &analysis.MenuPanel{}}, analysis.CreateNewTab{State: &analysis.MenuPanel{}})
	require.Eventually(t, func() bool { return s.Snapshot().Registry.Len() == 2 }, time.Second, time.Millisecond)

	cancel()
	<-done

	snap := s.Snapshot()
	assert.True(t, snap.Closed)
	assert.Equal(t, 0, snap.Registry.Len())
	assert.Equal(t, int64(7), snap.Registry.StepID)
	obs.mu.Lock()
	assert.Equal(t, 0, obs.panels)
	obs.mu.Unlock()
}

func TestStore_DispatchNeverBlocks(t *testing.T) {
	machine := analysis.NewMachine(analysis.Deps{Service: stubService{}})
	s := New(1, machine)

	for range 1000 {
		s.Dispatch(analysis.ToggleDescription{PanelID: 1})
	}
	assert.Len(t, s.drain(), 1000)
}
