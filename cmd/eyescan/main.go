package main

import (
	"context"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/romariotrain/eyescan/internal/app"
)

func main() {
	logger := app.NewLogger(os.Getenv("LOG_LEVEL"), isatty.IsTerminal(os.Stderr.Fd()))

	code := app.Run("eyescan", logger, func(ctx context.Context) error {
		return newRootCmd(logger).ExecuteContext(ctx)
	})
	os.Exit(code)
}
