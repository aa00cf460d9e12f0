package app

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
)

type Runner func(ctx context.Context) error

// Run executes run under a context canceled on SIGINT/SIGTERM and returns the
// process exit code. The runner is expected to return once ctx is done.
func Run(serviceName string, logger zerolog.Logger, run Runner) int {
	logger = logger.With().Str("service", serviceName).Logger()
	logger.Info().Msg("starting")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := run(ctx)
	switch {
	case err == nil, errors.Is(err, context.Canceled) && ctx.Err() != nil:
		logger.Info().Msg("stopped")
		return 0
	default:
		logger.Error().Err(err).Msg("failed")
		return 1
	}
}
