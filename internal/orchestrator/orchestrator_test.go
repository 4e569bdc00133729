package orchestrator

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookit-dev/bookit/internal/process"
	"github.com/bookit-dev/bookit/internal/readiness"
	"github.com/bookit-dev/bookit/internal/testrun"
)

func requireUnix(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("tests require sh/sleep on Unix-like systems")
	}
}

// markerServer builds a fake server command that prints the ready marker
// after delay, touches stopFile when terminated, and then idles.
func markerServer(delay string, stopFile string) string {
	return fmt.Sprintf(
		`sh -c 'trap "touch %s; exit 0" TERM; sleep %s; echo SERVER READY; while true; do sleep 0.1; done'`,
		stopFile, delay)
}

func TestRunPassesWithMarkerAndHealthProbe(t *testing.T) {
	requireUnix(t)
	dir := t.TempDir()
	stopFile := filepath.Join(dir, "stopped")
	health := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer health.Close()

	orch := New(Config{
		Server: process.Spec{
			Name:        "srv",
			Command:     markerServer("0.3", stopFile),
			ReadyMarker: "SERVER READY",
		},
		Health: readiness.Check{
			URL:      health.URL + "/health",
			Interval: 100 * time.Millisecond,
			Timeout:  5 * time.Second,
		},
		Test:  testrun.Runner{Command: "sh -c 'exit 0'"},
		Grace: 2 * time.Second,
	}, nil)

	out := orch.Run(context.Background())
	require.Equal(t, TestsPassed, out.Kind, "outcome: %s", out)
	assert.Equal(t, 0, out.ExitCode())
	assert.FileExists(t, stopFile, "server must be shut down after a passing run")
}

func TestRunTestsNeverStartBeforeReadiness(t *testing.T) {
	requireUnix(t)
	dir := t.TempDir()
	stopFile := filepath.Join(dir, "stopped")
	ranFile := filepath.Join(dir, "tests-ran")

	delay := 500 * time.Millisecond
	begin := time.Now()
	orch := New(Config{
		Server: process.Spec{
			Name:        "srv",
			Command:     markerServer("0.5", stopFile),
			ReadyMarker: "SERVER READY",
		},
		Test:  testrun.Runner{Command: "sh -c 'touch " + ranFile + "'"},
		Grace: 2 * time.Second,
	}, nil)

	out := orch.Run(context.Background())
	require.Equal(t, TestsPassed, out.Kind, "outcome: %s", out)
	require.FileExists(t, ranFile)

	info, err := os.Stat(ranFile)
	require.NoError(t, err)
	assert.True(t, info.ModTime().After(begin.Add(delay-50*time.Millisecond)),
		"tests started %v after begin, before the ready marker at %v",
		info.ModTime().Sub(begin), delay)
}

func TestRunServerNeverReady(t *testing.T) {
	requireUnix(t)
	dir := t.TempDir()
	stopFile := filepath.Join(dir, "stopped")
	ranFile := filepath.Join(dir, "tests-ran")

	orch := New(Config{
		Server: process.Spec{
			Name:         "srv",
			Command:      fmt.Sprintf(`sh -c 'trap "touch %s; exit 0" TERM; while true; do sleep 0.1; done'`, stopFile),
			ReadyMarker:  "SERVER READY",
			ReadyTimeout: 400 * time.Millisecond,
		},
		Test:  testrun.Runner{Command: "sh -c 'touch " + ranFile + "'"},
		Grace: 2 * time.Second,
	}, nil)

	out := orch.Run(context.Background())
	require.Equal(t, ServerNotReady, out.Kind, "outcome: %s", out)
	assert.Equal(t, 3, out.ExitCode())
	assert.NoFileExists(t, ranFile, "tests must never run when the server is not ready")
	assert.FileExists(t, stopFile, "shutdown must still happen")
}

func TestRunTestsFailedCarriesExitCode(t *testing.T) {
	requireUnix(t)
	dir := t.TempDir()
	stopFile := filepath.Join(dir, "stopped")

	orch := New(Config{
		Server: process.Spec{
			Name:        "srv",
			Command:     markerServer("0", stopFile),
			ReadyMarker: "SERVER READY",
		},
		Test:  testrun.Runner{Command: "sh -c 'exit 1'"},
		Grace: 2 * time.Second,
	}, nil)

	out := orch.Run(context.Background())
	require.Equal(t, TestsFailed, out.Kind)
	assert.Equal(t, 1, out.TestExit)
	assert.NotZero(t, out.ExitCode())
	assert.FileExists(t, stopFile)
}

func TestRunServerSpawnFailure(t *testing.T) {
	requireUnix(t)
	orch := New(Config{
		Server: process.Spec{Name: "srv", Command: "/definitely/not/a/binary"},
		Test:   testrun.Runner{Command: "sh -c 'exit 0'"},
	}, nil)

	out := orch.Run(context.Background())
	require.Equal(t, ServerStartFailed, out.Kind)
	require.Error(t, out.Err)
	assert.Equal(t, 2, out.ExitCode())
}

func TestRunServerExitsBeforeReady(t *testing.T) {
	requireUnix(t)
	orch := New(Config{
		Server: process.Spec{
			Name:        "srv",
			Command:     "sh -c 'echo crash; exit 9'",
			ReadyMarker: "SERVER READY",
		},
		Test: testrun.Runner{Command: "sh -c 'exit 0'"},
	}, nil)

	out := orch.Run(context.Background())
	require.Equal(t, ServerStartFailed, out.Kind, "outcome: %s", out)
	require.Error(t, out.Err)
}

func TestRunTestSpawnFailure(t *testing.T) {
	requireUnix(t)
	dir := t.TempDir()
	stopFile := filepath.Join(dir, "stopped")

	orch := New(Config{
		Server: process.Spec{
			Name:        "srv",
			Command:     markerServer("0", stopFile),
			ReadyMarker: "SERVER READY",
		},
		Test:  testrun.Runner{Command: "/definitely/not/a/binary"},
		Grace: 2 * time.Second,
	}, nil)

	out := orch.Run(context.Background())
	require.Equal(t, TestSpawnFailed, out.Kind)
	assert.Equal(t, 4, out.ExitCode())
	assert.FileExists(t, stopFile)
}

func TestRunInterruptedWhileWaitingReady(t *testing.T) {
	requireUnix(t)
	dir := t.TempDir()
	stopFile := filepath.Join(dir, "stopped")

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(200 * time.Millisecond)
		cancel()
	}()

	begin := time.Now()
	orch := New(Config{
		Server: process.Spec{
			Name:         "srv",
			Command:      fmt.Sprintf(`sh -c 'trap "touch %s; exit 0" TERM; while true; do sleep 0.1; done'`, stopFile),
			ReadyMarker:  "SERVER READY",
			ReadyTimeout: 10 * time.Second,
		},
		Test:  testrun.Runner{Command: "sh -c 'exit 0'"},
		Grace: 2 * time.Second,
	}, nil)

	out := orch.Run(ctx)
	require.Equal(t, Interrupted, out.Kind, "outcome: %s", out)
	assert.Equal(t, 130, out.ExitCode())
	assert.FileExists(t, stopFile, "shutdown must run on interrupt")
	assert.Less(t, time.Since(begin), 3*time.Second, "interrupted run must exit promptly")
}

func TestOutcomeExitCodes(t *testing.T) {
	cases := []struct {
		out  Outcome
		code int
	}{
		{Outcome{Kind: TestsPassed}, 0},
		{Outcome{Kind: TestsFailed, TestExit: 5}, 1},
		{Outcome{Kind: ServerStartFailed}, 2},
		{Outcome{Kind: ServerNotReady}, 3},
		{Outcome{Kind: TestSpawnFailed}, 4},
		{Outcome{Kind: Interrupted}, 130},
	}
	for _, c := range cases {
		assert.Equal(t, c.code, c.out.ExitCode(), "kind %s", c.out.Kind)
	}
}

func TestOutcomeStringIncludesTestExit(t *testing.T) {
	out := Outcome{Kind: TestsFailed, TestExit: 2}
	assert.Equal(t, "tests-failed(2)", out.String())
}
