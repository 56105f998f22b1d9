package cli

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aretw0/relstore"
	"github.com/aretw0/relstore/internal/config"
)

// Interrupted is the cancellation cause of a context stopped by a shutdown signal.
type Interrupted struct {
	Signal os.Signal
}

func (i *Interrupted) Error() string {
	return "interrupted by " + i.Signal.String()
}

// NotifyContext returns a context cancelled on SIGINT or SIGTERM. The signal is kept
// as the context's cause; see SignalOf.
func NotifyContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancelCause(parent)
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigCh)
		select {
		case sig := <-sigCh:
			cancel(&Interrupted{Signal: sig})
		case <-ctx.Done():
		}
	}()

	return ctx, func() { cancel(context.Canceled) }
}

// SignalOf returns the signal that cancelled ctx, or nil.
func SignalOf(ctx context.Context) os.Signal {
	var in *Interrupted
	if errors.As(context.Cause(ctx), &in) {
		return in.Signal
	}
	return nil
}

// ServeStore opens the configured store and hands it to serve with a context that a
// shutdown signal cancels. The backend is closed once serve returns.
func ServeStore(
	parent context.Context,
	cfg config.Config,
	reg prometheus.Registerer,
	logger *slog.Logger,
	serve func(ctx context.Context, store *relstore.Store) error,
) error {
	ctx, stop := NotifyContext(parent)
	defer stop()

	store, backend, err := OpenStore(ctx, cfg, reg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := backend.Close(); err != nil {
			logger.Error("failed to close backend", "backend", cfg.Backend, "error", err)
		}
	}()

	err = serve(ctx, store)
	if sig := SignalOf(ctx); sig != nil {
		logger.Info("store released after signal", "signal", sig.String(), "schema", store.Schema().Name())
	}
	return err
}
