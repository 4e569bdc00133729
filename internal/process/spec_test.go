package process

import (
	"strings"
	"testing"
)

func TestBuildCommandSimple(t *testing.T) {
	cmd := BuildCommand("sleep 1")
	if len(cmd.Args) != 2 || cmd.Args[0] != "sleep" || cmd.Args[1] != "1" {
		t.Fatalf("unexpected args: %v", cmd.Args)
	}
}

func TestBuildCommandEmptyIsNoop(t *testing.T) {
	cmd := BuildCommand("   ")
	if !strings.HasSuffix(cmd.Path, "true") {
		t.Fatalf("expected /bin/true for empty command, got %q", cmd.Path)
	}
}

func TestBuildCommandMetacharsUseShell(t *testing.T) {
	cmd := BuildCommand("echo hi > /tmp/out")
	if cmd.Args[0] != "/bin/sh" || cmd.Args[1] != "-c" {
		t.Fatalf("expected shell wrapping, got %v", cmd.Args)
	}
	if cmd.Args[2] != "echo hi > /tmp/out" {
		t.Fatalf("shell arg mangled: %q", cmd.Args[2])
	}
}

func TestBuildCommandExplicitShellNotDoubleWrapped(t *testing.T) {
	cmd := BuildCommand("sh -c 'echo out; sleep 0.1'")
	if cmd.Args[0] != "/bin/sh" || cmd.Args[1] != "-c" {
		t.Fatalf("expected explicit shell to be honored, got %v", cmd.Args)
	}
	if cmd.Args[2] != "echo out; sleep 0.1" {
		t.Fatalf("quotes not stripped for -c arg: %q", cmd.Args[2])
	}
}

func TestBuildCommandAbsoluteShellPrefix(t *testing.T) {
	cmd := BuildCommand(`/bin/sh -c "exit 3"`)
	if cmd.Args[2] != "exit 3" {
		t.Fatalf("unexpected -c arg: %q", cmd.Args[2])
	}
}

func TestSpecReadyTimeoutDefault(t *testing.T) {
	s := Spec{}
	if s.readyTimeout() != DefaultReadyTimeout {
		t.Fatalf("expected default ready timeout, got %v", s.readyTimeout())
	}
}
