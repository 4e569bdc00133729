package bookit

import (
	"context"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/bookit-dev/bookit/internal/metrics"
	"github.com/bookit-dev/bookit/internal/orchestrator"
	"github.com/bookit-dev/bookit/internal/process"
	"github.com/bookit-dev/bookit/internal/readiness"
	"github.com/bookit-dev/bookit/internal/server"
	"github.com/bookit-dev/bookit/internal/store"
	"github.com/bookit-dev/bookit/internal/store/factory"
	"github.com/bookit-dev/bookit/internal/testrun"
)

// Re-export core types for embedding. These are aliases, so conversions are
// zero-cost.

type ServerSpec = process.Spec

type ServerStatus = process.Status

type HealthCheck = readiness.Check

type TestRunner = testrun.Runner

type RunConfig = orchestrator.Config

type Outcome = orchestrator.Outcome

type Appointment = store.Appointment

type Store = store.Store

// ReadyMarker is the stdout line prefix the appointment server emits once its
// listener is bound.
const ReadyMarker = server.ReadyMarker

// RunITest performs one supervised integration-test run: start the server,
// wait for readiness, run the tests, and always shut the server down.
// Cancelling ctx interrupts the run cleanly at any stage.
func RunITest(ctx context.Context, cfg RunConfig, log *slog.Logger) Outcome {
	return orchestrator.New(cfg, log).Run(ctx)
}

// RunServer serves the appointment API on addr until ctx is cancelled.
func RunServer(ctx context.Context, addr string, st Store, log *slog.Logger) error {
	return server.Run(ctx, addr, st, log)
}

// NewStore opens an appointment store for the DSN: empty/"memory", a SQLite
// path, or a postgres:// URL.
func NewStore(dsn string) (Store, error) { return factory.New(dsn) }

// Metrics helpers (public facade)

func RegisterMetrics(r prometheus.Registerer) error { return metrics.Register(r) }

func RegisterMetricsDefault() error { return metrics.Register(prometheus.DefaultRegisterer) }
