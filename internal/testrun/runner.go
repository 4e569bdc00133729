package testrun

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"

	"github.com/bookit-dev/bookit/internal/process"
)

// SpawnError reports that the test process could not even be launched, as
// opposed to launching and exiting nonzero.
type SpawnError struct{ Err error }

func (e *SpawnError) Error() string { return fmt.Sprintf("spawn test command: %v", e.Err) }
func (e *SpawnError) Unwrap() error { return e.Err }

// Result is the mapped exit status of one test run.
type Result struct {
	Passed   bool
	ExitCode int
}

// Runner executes the dependent test process once. Its streams are inherited
// from the orchestrator so a human watching the run sees live test output.
// There are no retries; a failing run is a final, reportable outcome.
type Runner struct {
	Command string
	WorkDir string
	Env     []string // extra KEY=VALUE entries appended to the parent env
	Log     *slog.Logger
}

// Run spawns the test command and waits for it. A nonzero exit maps to a
// failed Result, not an error; errors are reserved for spawn failures and
// context cancellation.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	log := r.Log
	if log == nil {
		log = slog.Default()
	}

	cmd := process.BuildCommand(r.Command)
	if r.WorkDir != "" {
		cmd.Dir = r.WorkDir
	}
	if len(r.Env) > 0 {
		cmd.Env = append(os.Environ(), r.Env...)
	}
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return Result{}, &SpawnError{Err: err}
	}
	log.Info("tests started", "command", r.Command, "pid", cmd.Process.Pid)

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	select {
	case <-ctx.Done():
		_ = cmd.Process.Kill()
		<-done
		return Result{}, ctx.Err()
	case err := <-done:
		if err == nil {
			return Result{Passed: true, ExitCode: 0}, nil
		}
		var ee *exec.ExitError
		if errors.As(err, &ee) {
			return Result{Passed: false, ExitCode: ee.ExitCode()}, nil
		}
		return Result{}, fmt.Errorf("wait for test command: %w", err)
	}
}
