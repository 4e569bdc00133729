package metrics

import (
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Package-level Prometheus collectors. They are registered via Register.
var (
	regOK atomic.Bool

	runOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bookit",
			Subsystem: "itest",
			Name:      "run_outcomes_total",
			Help:      "Terminal outcomes of integration-test runs.",
		}, []string{"outcome"},
	)
	readinessProbes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bookit",
			Subsystem: "itest",
			Name:      "readiness_probes_total",
			Help:      "Health probes issued while waiting for the server, by result.",
		}, []string{"result"},
	)
	timeToReady = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "bookit",
			Subsystem: "itest",
			Name:      "time_to_ready_seconds",
			Help:      "Time from server spawn until the ready signal was observed.",
			Buckets:   prometheus.DefBuckets,
		},
	)
	appointmentOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bookit",
			Subsystem: "api",
			Name:      "appointment_ops_total",
			Help:      "Appointment API operations served, by operation.",
		}, []string{"op"},
	)
)

// Register registers all metrics with the provided registerer.
// Safe to call multiple times; calls after the first success are no-ops.
func Register(r prometheus.Registerer) error {
	if regOK.Load() {
		return nil
	}
	cs := []prometheus.Collector{runOutcomes, readinessProbes, timeToReady, appointmentOps}
	for _, c := range cs {
		if err := r.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	regOK.Store(true)
	return nil
}

// Handler serves Prometheus metrics from the default gatherer.
func Handler() http.Handler { return promhttp.Handler() }

// Helpers below no-op until Register has been called.

func IncOutcome(outcome string) {
	if regOK.Load() {
		runOutcomes.WithLabelValues(outcome).Inc()
	}
}

func IncProbe(ok bool) {
	if !regOK.Load() {
		return
	}
	if ok {
		readinessProbes.WithLabelValues("ok").Inc()
	} else {
		readinessProbes.WithLabelValues("fail").Inc()
	}
}

func ObserveTimeToReady(seconds float64) {
	if regOK.Load() {
		timeToReady.Observe(seconds)
	}
}

func IncAppointmentOp(op string) {
	if regOK.Load() {
		appointmentOps.WithLabelValues(op).Inc()
	}
}
