package metrics

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRecordActivity(t *testing.T) {
	m, err := New(prometheus.NewRegistry())
	require.NoError(t, err)

	m.ObserveEvent("select-tab")
	m.ObserveEvent("select-tab")
	m.ObserveEvent("count-down")
	m.ObservePanels(3)
	m.ObserveEffects(2)
	m.ObserveRequest("get_result", 40*time.Millisecond, nil)
	m.ObserveRequest("get_result", 10*time.Millisecond, errors.New("boom"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.events.WithLabelValues("select-tab")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.events.WithLabelValues("count-down")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.panels))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.effects))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestErrors.WithLabelValues("get_result")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.requestDuration))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveEvent("x")
	m.ObservePanels(1)
	m.ObserveEffects(1)
	m.ObserveRequest("x", time.Second, nil)
}

func TestDuplicateRegistrationFails(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := New(reg)
	require.NoError(t, err)

	_, err = New(reg)
	assert.Error(t, err)
}

func TestHandlerExposesCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := New(reg)
	require.NoError(t, err)
	m.ObserveEvent("remove-tab")

	rec := httptest.NewRecorder()
	promhttp.HandlerFor(reg, promhttp.HandlerOpts{}).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `stepanalysis_machine_events_total{kind="remove-tab"} 1`), body)
}
