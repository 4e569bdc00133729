package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bookit-dev/bookit/internal/metrics"
	"github.com/bookit-dev/bookit/internal/server"
	"github.com/bookit-dev/bookit/internal/store/factory"
	"github.com/prometheus/client_golang/prometheus"
)

// ServeFlags holds flags for the serve command. Environment variables
// BOOKIT_LISTEN and BOOKIT_DSN take effect when the flags are unset, which is
// how the orchestrator steers a spawned server onto a test port.
type ServeFlags struct {
	Listen string
	DSN    string
}

func createServeCommand(gf *GlobalFlags) *cobra.Command {
	f := &ServeFlags{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the simulated appointment server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := gf.loadConfig()
			if err != nil {
				return err
			}
			listen := firstNonEmpty(f.Listen, os.Getenv("BOOKIT_LISTEN"), cfg.Server.Listen)
			dsn := firstNonEmpty(f.DSN, os.Getenv("BOOKIT_DSN"), cfg.Server.DSN)

			log := loggerFrom(cmd.Context())
			st, err := factory.New(dsn)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()
			if err := st.EnsureSchema(cmd.Context()); err != nil {
				return err
			}
			if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return server.Run(ctx, listen, st, log)
		},
	}
	cmd.Flags().StringVar(&f.Listen, "listen", "", "listen address (overrides BOOKIT_LISTEN and config)")
	cmd.Flags().StringVar(&f.DSN, "dsn", "", "store DSN: empty/memory, sqlite path, or postgres:// (overrides BOOKIT_DSN and config)")
	return cmd
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
