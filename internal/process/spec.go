package process

import (
	"os/exec"
	"strings"
	"time"

	"github.com/bookit-dev/bookit/internal/logger"
)

// DefaultReadyTimeout bounds time-to-readiness independently of any health
// poller deadline.
const DefaultReadyTimeout = 10 * time.Second

// Spec describes the server process to be supervised for one run.
type Spec struct {
	Name         string        `json:"name" mapstructure:"name"`
	Command      string        `json:"command" mapstructure:"command"`             // shell-aware command line
	WorkDir      string        `json:"work_dir" mapstructure:"work_dir"`           // optional working dir
	Env          []string      `json:"env" mapstructure:"env"`                     // extra KEY=VALUE entries appended to the parent env
	ReadyMarker  string        `json:"ready_marker" mapstructure:"ready_marker"`   // substring in output that signals readiness
	ReadyTimeout time.Duration `json:"ready_timeout" mapstructure:"ready_timeout"` // hard bound on time-to-ready (default 10s)
	Log          logger.Config `json:"log" mapstructure:"log"`                     // rotating files for captured output
}

func (s *Spec) readyTimeout() time.Duration {
	if s.ReadyTimeout <= 0 {
		return DefaultReadyTimeout
	}
	return s.ReadyTimeout
}

// BuildCommand constructs an *exec.Cmd for a shell-aware command line. It
// avoids invoking a shell when not necessary and respects an explicit shell
// invocation already present in the string (e.g. "sh -c 'echo hi'") without
// double-wrapping it.
func BuildCommand(cmdStr string) *exec.Cmd {
	cmdStr = strings.TrimSpace(cmdStr)
	if cmdStr == "" {
		// #nosec G204
		return exec.Command("/bin/true")
	}
	if after, ok := parseExplicitShell(cmdStr); ok {
		// #nosec G204
		return exec.Command("/bin/sh", "-c", after)
	}
	if strings.ContainsAny(cmdStr, "|&;<>*?`$\"'(){}[]~") {
		// #nosec G204
		return exec.Command("/bin/sh", "-c", cmdStr)
	}
	parts := strings.Fields(cmdStr)
	// #nosec G204
	return exec.Command(parts[0], parts[1:]...)
}

// parseExplicitShell detects "sh -c <ARG>" (or an absolute-path variant) at
// the start of cmdStr and returns the argument passed to -c. A single pair of
// wrapping quotes is stripped so the shell sees the actual script.
func parseExplicitShell(cmdStr string) (string, bool) {
	trim := strings.TrimLeft(cmdStr, " \t")
	for _, p := range []string{"sh -c ", "/bin/sh -c ", "/usr/bin/sh -c "} {
		if !strings.HasPrefix(trim, p) {
			continue
		}
		after := trim[len(p):]
		if n := len(after); n >= 2 {
			if (after[0] == '\'' && after[n-1] == '\'') || (after[0] == '"' && after[n-1] == '"') {
				after = after[1 : n-1]
			}
		}
		return after, true
	}
	return "", false
}
