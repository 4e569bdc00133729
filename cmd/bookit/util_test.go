package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/bookit-dev/bookit/internal/config"
)

func TestConfirmAffirmatives(t *testing.T) {
	cases := map[string]bool{
		"y\n":      true,
		"Y\n":      true,
		"yes\n":    true,
		"YES\n":    true,
		" yes \n":  true,
		"n\n":      false,
		"no\n":     false,
		"\n":       false,
		"yep\n":    false,
		"":         false, // EOF without input
	}
	for input, want := range cases {
		var out bytes.Buffer
		got := confirm(strings.NewReader(input), &out, "Sure?")
		if got != want {
			t.Fatalf("confirm(%q) = %v, want %v", input, got, want)
		}
		if !strings.Contains(out.String(), "[y/N]") {
			t.Fatalf("prompt missing choices: %q", out.String())
		}
	}
}

func TestApplyITestFlagsOverridesOnlySetValues(t *testing.T) {
	c := config.Default().ITest
	c.ServerCommand = "orig serve"
	c.TestCommand = "orig test"

	applyITestFlags(&c, &ITestFlags{
		TestCommand: "new test",
		Grace:       7 * time.Second,
	})
	if c.ServerCommand != "orig serve" {
		t.Fatalf("unset flag must not override: %q", c.ServerCommand)
	}
	if c.TestCommand != "new test" || c.Grace != 7*time.Second {
		t.Fatalf("set flags not applied: %+v", c)
	}
}

func TestFirstNonEmpty(t *testing.T) {
	if got := firstNonEmpty("", "", "x", "y"); got != "x" {
		t.Fatalf("got %q", got)
	}
	if got := firstNonEmpty(); got != "" {
		t.Fatalf("got %q", got)
	}
}
