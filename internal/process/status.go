package process

import "time"

// State is the lifecycle phase of a supervised process. Transitions are
// monotonic: Starting → Ready → Running → Exited|Killed, and a handle is
// never reused after a terminal state.
type State string

const (
	StateStarting State = "starting"
	StateReady    State = "ready"
	StateRunning  State = "running"
	StateExited   State = "exited"
	StateKilled   State = "killed"
)

func (s State) Terminal() bool { return s == StateExited || s == StateKilled }

func stateRank(s State) int {
	switch s {
	case StateStarting:
		return 0
	case StateReady:
		return 1
	case StateRunning:
		return 2
	case StateExited, StateKilled:
		return 3
	default:
		return -1
	}
}

// Status is a point-in-time snapshot of a supervised process.
type Status struct {
	Name      string    `json:"name"`
	State     State     `json:"state"`
	Running   bool      `json:"running"`
	PID       int       `json:"pid"`
	StartedAt time.Time `json:"started_at"`
	StoppedAt time.Time `json:"stopped_at"`
	ExitCode  int       `json:"exit_code"` // -1 until the process has been reaped
	ExitErr   error     `json:"-"`
	ReadyBy   string    `json:"ready_by"` // which signal resolved readiness: "marker" or "probe"
}
