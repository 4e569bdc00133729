package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bookit-dev/bookit/internal/config"
	"github.com/bookit-dev/bookit/internal/logger"
)

func main() {
	if err := buildRoot().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// GlobalFlags holds persistent flags shared by all subcommands.
type GlobalFlags struct {
	ConfigPath string
	LogLevel   string
	NoColor    bool
}

func (g *GlobalFlags) loadConfig() (*config.Config, error) {
	if g.ConfigPath == "" {
		return config.Default(), nil
	}
	return config.Load(g.ConfigPath)
}

func buildRoot() *cobra.Command {
	gf := &GlobalFlags{}
	root := &cobra.Command{
		Use:   "bookit",
		Short: "Appointment service with an integration-test orchestrator",
		Long: `bookit runs a simulated appointment server, manages appointment
records against it, and orchestrates integration-test runs that launch the
server, wait for readiness, execute a test command, and always tear the
server down.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			log := logger.New(gf.LogLevel, !gf.NoColor)
			cmd.SetContext(withLogger(cmd.Context(), log))
		},
	}
	root.PersistentFlags().StringVarP(&gf.ConfigPath, "config", "c", "", "path to TOML config file")
	root.PersistentFlags().StringVar(&gf.LogLevel, "log-level", "info", "log level: debug, info, warn, error")
	root.PersistentFlags().BoolVar(&gf.NoColor, "no-color", false, "disable colored log output")

	root.AddCommand(createServeCommand(gf), createITestCommand(gf))
	root.AddCommand(createAppointmentCommands(gf)...)
	return root
}
