// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package metrics exposes the Prometheus instrumentation for the link
// manager. A nil *Metrics is valid and records nothing, so components
// can run uninstrumented in tests.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors for one wireless interface.
type Metrics struct {
	registry *prometheus.Registry

	linkState *prometheus.GaugeVec
	mode      *prometheus.GaugeVec

	linkAttempts prometheus.Counter
	linkFailures prometheus.Counter
	linkRetries  prometheus.Counter
	scans        prometheus.Counter
	polls        prometheus.Counter

	requestDuration *prometheus.HistogramVec
}

var linkStates = []string{"idle", "linking", "linked", "faulted"}
var modes = []string{"station_on", "station_off", "access_point"}

// New builds a Metrics instance backed by its own registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		linkState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "wavelink_link_state",
			Help: "Current link state; exactly one series is 1.",
		}, []string{"state"}),
		mode: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "wavelink_operating_mode",
			Help: "Current operating mode; exactly one series is 1.",
		}, []string{"mode"}),
		linkAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wavelink_link_attempts_total",
			Help: "Driver link calls issued.",
		}),
		linkFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wavelink_link_failures_total",
			Help: "Driver link calls that failed.",
		}),
		linkRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wavelink_link_retries_total",
			Help: "Failed attempts inside bounded retry loops.",
		}),
		scans: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wavelink_scans_total",
			Help: "Network scans requested.",
		}),
		polls: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wavelink_polls_total",
			Help: "Readiness poll calls.",
		}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "wavelink_http_request_duration_seconds",
			Help:    "Control API request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "code"}),
	}

	m.registry.MustRegister(
		m.linkState, m.mode,
		m.linkAttempts, m.linkFailures, m.linkRetries,
		m.scans, m.polls,
		m.requestDuration,
	)

	m.SetMode("station_on")
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// SetLinkState marks the given state active and all others inactive.
func (m *Metrics) SetLinkState(state string) {
	if m == nil {
		return
	}
	for _, s := range linkStates {
		v := 0.0
		if s == state {
			v = 1
		}
		m.linkState.WithLabelValues(s).Set(v)
	}
}

// SetMode marks the given operating mode active and all others inactive.
func (m *Metrics) SetMode(mode string) {
	if m == nil {
		return
	}
	for _, md := range modes {
		v := 0.0
		if md == mode {
			v = 1
		}
		m.mode.WithLabelValues(md).Set(v)
	}
}

func (m *Metrics) LinkAttempt() {
	if m == nil {
		return
	}
	m.linkAttempts.Inc()
}

func (m *Metrics) LinkFailure() {
	if m == nil {
		return
	}
	m.linkFailures.Inc()
}

func (m *Metrics) LinkRetry() {
	if m == nil {
		return
	}
	m.linkRetries.Inc()
}

func (m *Metrics) Scan() {
	if m == nil {
		return
	}
	m.scans.Inc()
}

func (m *Metrics) Poll() {
	if m == nil {
		return
	}
	m.polls.Inc()
}

// ObserveRequest records one control API request.
func (m *Metrics) ObserveRequest(method, route string, code int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requestDuration.WithLabelValues(method, route, strconv.Itoa(code)).Observe(elapsed.Seconds())
}
