// Package metrics exposes Prometheus collectors for the step analysis client.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "stepanalysis"

// Metrics records state machine and service gateway activity. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	events          *prometheus.CounterVec
	panels          prometheus.Gauge
	effects         prometheus.Gauge
	requestDuration *prometheus.HistogramVec
	requestErrors   *prometheus.CounterVec
}

// New registers the collectors with reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "machine",
			Name:      "events_total",
			Help:      "Events applied to the analysis registry, by kind.",
		}, []string{"kind"}),
		panels: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "machine",
			Name:      "panels",
			Help:      "Analysis panels currently open.",
		}),
		effects: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "machine",
			Name:      "effects_in_flight",
			Help:      "Asynchronous effects currently running.",
		}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "service",
			Name:      "request_duration_seconds",
			Help:      "Latency of step analysis service calls.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
		requestErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "service",
			Name:      "request_errors_total",
			Help:      "Failed step analysis service calls.",
		}, []string{"op"}),
	}
	for _, c := range []prometheus.Collector{m.events, m.panels, m.effects, m.requestDuration, m.requestErrors} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// ObserveEvent counts an applied event.
func (m *Metrics) ObserveEvent(kind string) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(kind).Inc()
}

// ObservePanels sets the open panel count.
func (m *Metrics) ObservePanels(n int) {
	if m == nil {
		return
	}
	m.panels.Set(float64(n))
}

// ObserveEffects sets the number of running effects.
func (m *Metrics) ObserveEffects(inFlight int) {
	if m == nil {
		return
	}
	m.effects.Set(float64(inFlight))
}

// ObserveRequest records one service call.
func (m *Metrics) ObserveRequest(op string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	m.requestDuration.WithLabelValues(op).Observe(elapsed.Seconds())
	if err != nil {
		m.requestErrors.WithLabelValues(op).Inc()
	}
}

// Serve exposes gatherer on addr under /metrics until ctx is cancelled.
func Serve(ctx context.Context, addr string, gatherer prometheus.Gatherer) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
