package state

import (
	"context"
	"log/slog"
	"sync"

	"github.com/wdkclient/stepanalysis/internal/analysis"
)

// Snapshot is the registry as last published by the event loop.
type Snapshot struct {
	Registry analysis.Registry
	// Version increases with every applied event.
	Version uint64
	// Closed is set once the loop has stopped and the panels were discarded.
	Closed bool
}

// Observer receives store activity for instrumentation.
type Observer interface {
	ObserveEvent(kind string)
	ObservePanels(n int)
	ObserveEffects(inFlight int)
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for event tracing.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithObserver registers an instrumentation observer.
func WithObserver(o Observer) Option {
	return func(s *Store) { s.observer = o }
}

// Store owns the registry of one step. Events are queued by Dispatch and
// applied one at a time by Run; readers take snapshots concurrently.
type Store struct {
	machine  *analysis.Machine
	logger   *slog.Logger
	observer Observer

	mu       sync.RWMutex
	snapshot Snapshot

	qmu     sync.Mutex
	queue   []analysis.Event
	pending chan struct{}

	subMu  sync.Mutex
	subs   map[int]chan struct{}
	nextID int

	effects  sync.WaitGroup
	inFlight int
}

// New creates the store for stepID. Run must be called to process events.
func New(stepID int64, machine *analysis.Machine, opts ...Option) *Store {
	s := &Store{
		machine:  machine,
		logger:   slog.New(slog.DiscardHandler),
		snapshot: Snapshot{Registry: analysis.NewRegistry(stepID)},
		pending:  make(chan struct{}, 1),
		subs:     map[int]chan struct{}{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot returns the current registry. The registry is immutable and may
// be kept by the caller.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// Dispatch queues events for the loop. It never blocks.
func (s *Store) Dispatch(events ...analysis.Event) {
	if len(events) == 0 {
		return
	}
	s.qmu.Lock()
	s.queue = append(s.queue, events...)
	s.qmu.Unlock()

	select {
	case s.pending <- struct{}{}:
	default:
	}
}

// Subscribe returns a channel that receives a value whenever a new snapshot
// has been published. Notifications coalesce; a slow reader only misses
// intermediate versions. The returned func cancels the subscription.
func (s *Store) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = ch
	s.subMu.Unlock()

	return ch, func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

// Run applies queued events until ctx is cancelled. Effects run in their own
// goroutines with ctx and their events are queued like any other. When ctx
// ends, Run waits for running effects, discards every panel and returns.
func (s *Store) Run(ctx context.Context) {
	defer s.teardown()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.pending:
		}
		for _, ev := range s.drain() {
			if ctx.Err() != nil {
				return
			}
			s.apply(ctx, ev)
		}
	}
}

func (s *Store) drain() []analysis.Event {
	s.qmu.Lock()
	defer s.qmu.Unlock()
	events := s.queue
	s.queue = nil
	return events
}

func (s *Store) apply(ctx context.Context, ev analysis.Event) {
	s.mu.Lock()
	next, effects := s.machine.Apply(s.snapshot.Registry, ev)
	s.snapshot.Registry = next
	s.snapshot.Version++
	s.mu.Unlock()

	s.logger.Debug("event applied",
		"kind", string(ev.Kind()),
		"panels", next.Len(),
		"active", int(next.ActiveTab),
		"effects", len(effects),
	)
	if s.observer != nil {
		s.observer.ObserveEvent(string(ev.Kind()))
		s.observer.ObservePanels(next.Len())
	}
	s.notify()

	for _, eff := range effects {
		s.startEffect(ctx, eff)
	}
}

func (s *Store) startEffect(ctx context.Context, eff analysis.Effect) {
	s.effects.Add(1)
	s.trackEffect(1)
	go func() {
		defer s.effects.Done()
		defer s.trackEffect(-1)
		s.Dispatch(eff(ctx)...)
	}()
}

func (s *Store) trackEffect(delta int) {
	if s.observer == nil {
		return
	}
	s.qmu.Lock()
	s.inFlight += delta
	n := s.inFlight
	s.qmu.Unlock()
	s.observer.ObserveEffects(n)
}

func (s *Store) notify() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (s *Store) teardown() {
	s.effects.Wait()

	s.mu.Lock()
	stepID := s.snapshot.Registry.StepID
	s.snapshot.Registry = analysis.NewRegistry(stepID)
	s.snapshot.Version++
	s.snapshot.Closed = true
	s.mu.Unlock()

	s.qmu.Lock()
	s.queue = nil
	s.qmu.Unlock()

	if s.observer != nil {
		s.observer.ObservePanels(0)
	}
	s.logger.Debug("step registry discarded", "step", stepID)
	s.notify()
}
