package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/bookit-dev/bookit/internal/store"
)

// ReadyMarker is the line prefix written to stdout once the listener is
// bound. The integration-test supervisor watches for this substring.
const ReadyMarker = "Listening on"

// Run binds addr, announces readiness on stdout, and serves until ctx is
// cancelled, then shuts down gracefully. The marker is printed only after the
// listener is bound, so observers never see it before connections succeed.
func Run(ctx context.Context, addr string, st store.Store, log *slog.Logger) error {
	if log == nil {
		log = slog.Default()
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}

	srv := &http.Server{
		Handler:           NewRouter(st, log).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	_, _ = fmt.Fprintf(os.Stdout, "%s %s\n", ReadyMarker, ln.Addr().String())
	log.Info("appointment server started", "addr", ln.Addr().String())

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return srv.Close()
	}
	return nil
}
