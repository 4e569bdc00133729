package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/bookit-dev/bookit/internal/config"
	"github.com/bookit-dev/bookit/internal/metrics"
	"github.com/bookit-dev/bookit/internal/orchestrator"
	"github.com/bookit-dev/bookit/internal/process"
	"github.com/bookit-dev/bookit/internal/readiness"
	"github.com/bookit-dev/bookit/internal/testrun"
	"github.com/prometheus/client_golang/prometheus"
)

// ITestFlags override the [itest] config section.
type ITestFlags struct {
	ServerCommand string
	ServerEnv     []string
	WorkDir       string
	ReadyMarker   string
	ReadyTimeout  time.Duration
	HealthURL     string
	PollInterval  time.Duration
	PollTimeout   time.Duration
	TestCommand   string
	TestEnv       []string
	Grace         time.Duration
}

func createITestCommand(gf *GlobalFlags) *cobra.Command {
	f := &ITestFlags{}
	cmd := &cobra.Command{
		Use:   "itest",
		Short: "Launch the server, wait for readiness, run tests, always tear down",
		Long: `itest spawns the configured server command, waits until either its
output contains the ready marker or the health endpoint answers, then runs
the test command with inherited streams. The server is terminated on every
exit path, escalating from SIGTERM to SIGKILL after the grace window.

Exit codes: 0 tests passed, 1 tests failed, 2 server failed to start,
3 server never became ready, 4 test command could not be spawned,
130 interrupted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := gf.loadConfig()
			if err != nil {
				return err
			}
			applyITestFlags(&cfg.ITest, f)
			if err := cfg.Validate(); err != nil {
				return err
			}
			if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
				return err
			}
			log := loggerFrom(cmd.Context())

			orch := orchestrator.New(orchestrator.Config{
				Server: process.Spec{
					Name:         "server",
					Command:      cfg.ITest.ServerCommand,
					WorkDir:      cfg.ITest.WorkDir,
					Env:          cfg.ITest.ServerEnv,
					ReadyMarker:  cfg.ITest.ReadyMarker,
					ReadyTimeout: cfg.ITest.ReadyTimeout,
					Log:          cfg.Log.FileConfig(),
				},
				Health: readiness.Check{
					URL:            cfg.ITest.HealthURL,
					Interval:       cfg.ITest.PollInterval,
					AttemptTimeout: cfg.ITest.AttemptTimeout,
					Timeout:        cfg.ITest.PollTimeout,
				},
				Test: testrun.Runner{
					Command: cfg.ITest.TestCommand,
					WorkDir: cfg.ITest.WorkDir,
					Env:     cfg.ITest.TestEnv,
					Log:     log,
				},
				Grace: cfg.ITest.Grace,
			}, log)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			outcome := orch.Run(ctx)
			if code := outcome.ExitCode(); code != 0 {
				os.Exit(code)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&f.ServerCommand, "server-command", "", "command that starts the server under test")
	cmd.Flags().StringSliceVar(&f.ServerEnv, "server-env", nil, "extra KEY=VALUE env entries for the server")
	cmd.Flags().StringVar(&f.WorkDir, "workdir", "", "working directory for server and test commands")
	cmd.Flags().StringVar(&f.ReadyMarker, "ready-marker", "", "stdout substring that signals server readiness")
	cmd.Flags().DurationVar(&f.ReadyTimeout, "ready-timeout", 0, "hard bound on time-to-ready")
	cmd.Flags().StringVar(&f.HealthURL, "health-url", "", "health endpoint polled for readiness")
	cmd.Flags().DurationVar(&f.PollInterval, "poll-interval", 0, "health poll interval")
	cmd.Flags().DurationVar(&f.PollTimeout, "poll-timeout", 0, "overall health poll deadline")
	cmd.Flags().StringVar(&f.TestCommand, "test-command", "", "test command to run once the server is ready")
	cmd.Flags().StringSliceVar(&f.TestEnv, "test-env", nil, "extra KEY=VALUE env entries for the test command")
	cmd.Flags().DurationVar(&f.Grace, "grace", 0, "graceful-shutdown window before SIGKILL")
	return cmd
}

func applyITestFlags(c *config.ITestConfig, f *ITestFlags) {
	if f.ServerCommand != "" {
		c.ServerCommand = f.ServerCommand
	}
	if len(f.ServerEnv) > 0 {
		c.ServerEnv = f.ServerEnv
	}
	if f.WorkDir != "" {
		c.WorkDir = f.WorkDir
	}
	if f.ReadyMarker != "" {
		c.ReadyMarker = f.ReadyMarker
	}
	if f.ReadyTimeout > 0 {
		c.ReadyTimeout = f.ReadyTimeout
	}
	if f.HealthURL != "" {
		c.HealthURL = f.HealthURL
	}
	if f.PollInterval > 0 {
		c.PollInterval = f.PollInterval
	}
	if f.PollTimeout > 0 {
		c.PollTimeout = f.PollTimeout
	}
	if f.TestCommand != "" {
		c.TestCommand = f.TestCommand
	}
	if len(f.TestEnv) > 0 {
		c.TestEnv = f.TestEnv
	}
	if f.Grace > 0 {
		c.Grace = f.Grace
	}
}
