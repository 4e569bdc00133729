package orchestrator

import "fmt"

// Kind is the terminal result of one orchestration run.
type Kind string

const (
	TestsPassed       Kind = "tests-passed"
	TestsFailed       Kind = "tests-failed"
	ServerStartFailed Kind = "server-start-failed"
	ServerNotReady    Kind = "server-not-ready"
	TestSpawnFailed   Kind = "test-spawn-failed"
	Interrupted       Kind = "interrupted"
)

// Outcome is the only state that outlives a run. It is mapped to the process
// exit code at the boundary: zero for passed tests, a distinguishable nonzero
// code otherwise.
type Outcome struct {
	Kind     Kind
	TestExit int   // exit code of the test process, when it ran
	Err      error // failure detail for server-start-failed / server-not-ready / test-spawn-failed
}

func (o Outcome) ExitCode() int {
	switch o.Kind {
	case TestsPassed:
		return 0
	case TestsFailed:
		return 1
	case ServerStartFailed:
		return 2
	case ServerNotReady:
		return 3
	case TestSpawnFailed:
		return 4
	case Interrupted:
		return 130
	default:
		return 1
	}
}

func (o Outcome) String() string {
	switch o.Kind {
	case TestsFailed:
		return fmt.Sprintf("%s(%d)", o.Kind, o.TestExit)
	case ServerStartFailed, ServerNotReady, TestSpawnFailed:
		if o.Err != nil {
			return fmt.Sprintf("%s: %v", o.Kind, o.Err)
		}
	}
	return string(o.Kind)
}
