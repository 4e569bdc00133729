package process

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/bookit-dev/bookit/internal/metrics"
	"github.com/bookit-dev/bookit/internal/readiness"
)

// DefaultGrace is the window allowed for graceful shutdown before escalating
// to a forceful kill.
const DefaultGrace = 5 * time.Second

// reapWait bounds the best-effort wait for the monitor to reap after a kill.
const reapWait = 2 * time.Second

// StartTimeoutError reports that the server never signaled readiness within
// the supervisor's own time-to-ready bound.
type StartTimeoutError struct{ Timeout time.Duration }

func (e *StartTimeoutError) Error() string {
	return fmt.Sprintf("server not ready within %s", e.Timeout)
}

// EarlyExitError reports that the server exited before readiness was observed.
type EarlyExitError struct{ ExitErr error }

func (e *EarlyExitError) Error() string {
	if e.ExitErr != nil {
		return fmt.Sprintf("server exited before becoming ready: %v", e.ExitErr)
	}
	return "server exited before becoming ready"
}

func (e *EarlyExitError) Unwrap() error { return e.ExitErr }

// Process supervises one spawned server for the duration of a run. Output is
// captured (not inherited) so the ready marker can be observed and each line
// forwarded to the log sink. Exactly one Process exists per run and it is
// never restarted.
type Process struct {
	spec Spec
	log  *slog.Logger

	mu        sync.Mutex
	cmd       *exec.Cmd
	status    Status
	waitDone  chan struct{} // closed by the monitor once cmd.Wait returns
	ready     *readiness.Latch
	outCloser io.WriteCloser
	errCloser io.WriteCloser
	stopping  bool // Stop requested; a later exit is expected, not logged as unexpected
}

func New(spec Spec, log *slog.Logger) *Process {
	if log == nil {
		log = slog.Default()
	}
	return &Process{
		spec:  spec,
		log:   log,
		ready: readiness.NewLatch(),
		status: Status{
			Name:     spec.Name,
			State:    StateStarting,
			ExitCode: -1,
		},
	}
}

// Start spawns the server with stdout/stderr captured and begins scanning for
// the ready marker. A spawn failure is returned immediately; the ready wait is
// a separate call so the caller can race other signals against it.
func (p *Process) Start() error {
	cmd := BuildCommand(p.spec.Command)
	if p.spec.WorkDir != "" {
		cmd.Dir = p.spec.WorkDir
	}
	if len(p.spec.Env) > 0 {
		cmd.Env = append(os.Environ(), p.spec.Env...)
	}
	setSysProcAttr(cmd)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("stderr pipe: %w", err)
	}
	outW, errW, err := p.spec.Log.Writers(p.spec.Name)
	if err != nil {
		return fmt.Errorf("open log writers: %w", err)
	}

	if err := cmd.Start(); err != nil {
		closeQuiet(outW)
		closeQuiet(errW)
		return fmt.Errorf("spawn %q: %w", p.spec.Command, err)
	}

	p.mu.Lock()
	p.cmd = cmd
	p.waitDone = make(chan struct{})
	p.outCloser = outW
	p.errCloser = errW
	p.status.Running = true
	p.status.PID = cmd.Process.Pid
	p.status.StartedAt = time.Now()
	p.mu.Unlock()

	p.log.Debug("server spawned", "name", p.spec.Name, "pid", cmd.Process.Pid)

	var scanners sync.WaitGroup
	scanners.Add(2)
	go p.scan(stdout, outW, "stdout", &scanners)
	go p.scan(stderr, errW, "stderr", &scanners)
	go p.monitor(&scanners)
	return nil
}

// scan forwards each captured line to the rotating file (when configured) and
// the log sink, and resolves the readiness latch on the first marker hit.
func (p *Process) scan(r io.Reader, file io.Writer, stream string, wg *sync.WaitGroup) {
	defer wg.Done()
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for s.Scan() {
		line := s.Text()
		if file != nil {
			_, _ = io.WriteString(file, line+"\n")
		}
		p.log.Info("server output", "name", p.spec.Name, "stream", stream, "line", line)
		if p.spec.ReadyMarker != "" && strings.Contains(line, p.spec.ReadyMarker) {
			p.markReady("marker")
		}
	}
}

// monitor reaps the child exactly once. Stop never calls cmd.Wait; it waits on
// waitDone instead, so there is a single waiter by construction.
func (p *Process) monitor(scanners *sync.WaitGroup) {
	scanners.Wait()
	err := p.cmd.Wait()

	p.mu.Lock()
	p.status.Running = false
	p.status.StoppedAt = time.Now()
	p.status.ExitErr = err
	p.status.ExitCode = exitCode(err)
	// A kill escalation may already have marked the terminal state.
	if p.status.State != StateKilled {
		p.status.State = StateExited
	}
	wasRunning := p.status.ReadyBy != "" && !p.stopping
	wd := p.waitDone
	p.mu.Unlock()

	p.closeWriters()
	if wasRunning {
		// By this point the run has moved on to the test phase; an exit here
		// is noteworthy but not fatal to the supervisor.
		p.log.Warn("server exited unexpectedly", "name", p.spec.Name, "err", err)
	}
	close(wd)
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		return ee.ExitCode()
	}
	return -1
}

func (p *Process) closeWriters() {
	p.mu.Lock()
	outW, errW := p.outCloser, p.errCloser
	p.outCloser, p.errCloser = nil, nil
	p.mu.Unlock()
	closeQuiet(outW)
	closeQuiet(errW)
}

func closeQuiet(c io.Closer) {
	if c != nil {
		_ = c.Close()
	}
}

func (p *Process) markReady(source string) {
	p.ready.Resolve(source)
	p.mu.Lock()
	if stateRank(p.status.State) < stateRank(StateReady) {
		p.status.State = StateReady
		p.status.ReadyBy = p.ready.Source()
		metrics.ObserveTimeToReady(time.Since(p.status.StartedAt).Seconds())
	}
	p.mu.Unlock()
}

// MarkReadyByProbe resolves readiness from the health poller. The first of
// marker and probe wins; the other is corroboration and never blocks the run.
func (p *Process) MarkReadyByProbe() { p.markReady("probe") }

// ReadySignal returns a channel closed once either readiness signal fires.
func (p *Process) ReadySignal() <-chan struct{} { return p.ready.Done() }

// ExitSignal returns a channel closed once the child has been reaped.
// It is nil before Start.
func (p *Process) ExitSignal() <-chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.waitDone
}

// WaitReady blocks until a readiness signal, the child's premature exit, the
// time-to-ready bound, or ctx cancellation, whichever comes first.
func (p *Process) WaitReady(ctx context.Context) error {
	p.mu.Lock()
	wd := p.waitDone
	p.mu.Unlock()
	if wd == nil {
		return errors.New("process not started")
	}

	timer := time.NewTimer(p.spec.readyTimeout())
	defer timer.Stop()

	select {
	case <-p.ready.Done():
	case <-wd:
		// Exit and readiness can race; readiness wins if it fired first.
		if !p.ready.Resolved() {
			st := p.Snapshot()
			return &EarlyExitError{ExitErr: st.ExitErr}
		}
	case <-timer.C:
		return &StartTimeoutError{Timeout: p.spec.readyTimeout()}
	case <-ctx.Done():
		return ctx.Err()
	}

	p.mu.Lock()
	if stateRank(p.status.State) < stateRank(StateRunning) {
		p.status.State = StateRunning
	}
	p.mu.Unlock()
	p.log.Info("server ready", "name", p.spec.Name, "signal", p.ready.Source())
	return nil
}

// Stop is the shutdown path: send the graceful signal, race the grace window
// against the exit notification, and escalate to a forceful kill at most once.
// It is idempotent and safe to call after the child has already exited.
func (p *Process) Stop(grace time.Duration) error {
	if grace <= 0 {
		grace = DefaultGrace
	}

	p.mu.Lock()
	p.stopping = true
	cmd := p.cmd
	wd := p.waitDone
	p.mu.Unlock()
	if cmd == nil || cmd.Process == nil {
		return nil
	}
	select {
	case <-wd:
		return nil // already reaped
	default:
	}

	pid := cmd.Process.Pid
	p.log.Debug("stopping server", "name", p.spec.Name, "pid", pid, "grace", grace)
	_ = terminate(pid)

	select {
	case <-wd:
		return nil
	case <-time.After(grace):
	}

	p.log.Warn("grace window elapsed, killing", "name", p.spec.Name, "pid", pid)
	p.mu.Lock()
	if !p.status.State.Terminal() {
		p.status.State = StateKilled
	}
	p.mu.Unlock()
	_ = kill(pid)

	select {
	case <-wd:
	case <-time.After(reapWait):
		// best-effort; the group received SIGKILL
	}
	return nil
}

// Snapshot returns a copy of the current status.
func (p *Process) Snapshot() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}
