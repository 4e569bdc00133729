package orchestrator

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/bookit-dev/bookit/internal/metrics"
	"github.com/bookit-dev/bookit/internal/process"
	"github.com/bookit-dev/bookit/internal/readiness"
	"github.com/bookit-dev/bookit/internal/testrun"
)

// Phase names one step of the run's state machine. Transitions only move
// forward; an external interrupt in any non-terminal phase short-circuits to
// ShuttingDown.
type Phase string

const (
	PhaseIdle         Phase = "idle"
	PhaseStarting     Phase = "starting"
	PhaseWaitingReady Phase = "waiting-ready"
	PhaseRunningTests Phase = "running-tests"
	PhaseShuttingDown Phase = "shutting-down"
	PhaseDone         Phase = "done"
)

// Config collects everything one run needs. Interruption is delivered through
// the context passed to Run, not through ambient signal handlers, so callers
// (and tests) control it.
type Config struct {
	Server process.Spec
	Health readiness.Check
	Test   testrun.Runner
	Grace  time.Duration // graceful-shutdown window before the forceful kill
}

// Orchestrator sequences one start → wait-ready → run-tests → shutdown run.
// It is single-use: construct, Run once, read the Outcome.
type Orchestrator struct {
	cfg   Config
	log   *slog.Logger
	phase Phase
}

func New(cfg Config, log *slog.Logger) *Orchestrator {
	if log == nil {
		log = slog.Default()
	}
	return &Orchestrator{cfg: cfg, log: log, phase: PhaseIdle}
}

func (o *Orchestrator) setPhase(p Phase) {
	o.log.Debug("phase", "from", o.phase, "to", p)
	o.phase = p
}

// Run executes the whole run and always returns a terminal Outcome. Once the
// server handle exists, shutdown runs on every exit path, including panics in
// the test phase, via the deferred release below.
func (o *Orchestrator) Run(ctx context.Context) (out Outcome) {
	defer func() {
		metrics.IncOutcome(string(out.Kind))
		o.setPhase(PhaseDone)
		o.log.Info("run finished", "outcome", out.String())
	}()

	o.setPhase(PhaseStarting)
	proc := process.New(o.cfg.Server, o.log)
	if err := proc.Start(); err != nil {
		// No handle exists; there is nothing to shut down.
		return Outcome{Kind: ServerStartFailed, Err: err}
	}
	defer func() {
		o.setPhase(PhaseShuttingDown)
		if err := proc.Stop(o.cfg.Grace); err != nil {
			o.log.Warn("shutdown", "err", err)
		}
	}()

	o.setPhase(PhaseWaitingReady)
	if err := o.waitReady(ctx, proc); err != nil {
		switch {
		case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
			return Outcome{Kind: Interrupted}
		case isEarlyExit(err):
			return Outcome{Kind: ServerStartFailed, Err: err}
		default:
			return Outcome{Kind: ServerNotReady, Err: err}
		}
	}

	o.setPhase(PhaseRunningTests)
	res, err := o.cfg.Test.Run(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return Outcome{Kind: Interrupted}
		}
		return Outcome{Kind: TestSpawnFailed, Err: err}
	}
	if !res.Passed {
		return Outcome{Kind: TestsFailed, TestExit: res.ExitCode}
	}
	return Outcome{Kind: TestsPassed}
}

// waitReady races the supervisor's output-marker scan against the health
// poller. Either signal resolves readiness; the first one wins and a slow
// probe after a confirmed marker never extends the wait.
func (o *Orchestrator) waitReady(ctx context.Context, proc *process.Process) error {
	if o.cfg.Health.URL != "" {
		pollCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		go func() {
			if err := readiness.WaitUntilReady(pollCtx, o.cfg.Health); err == nil {
				proc.MarkReadyByProbe()
			}
		}()
	}
	return proc.WaitReady(ctx)
}

func isEarlyExit(err error) bool {
	var ee *process.EarlyExitError
	return errors.As(err, &ee)
}
