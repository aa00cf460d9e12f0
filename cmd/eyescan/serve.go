package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/romariotrain/eyescan/internal/config"
	"github.com/romariotrain/eyescan/internal/scan/httpapi"
	"github.com/romariotrain/eyescan/internal/scan/kafka"
	"github.com/romariotrain/eyescan/internal/scan/outbox"
	"github.com/romariotrain/eyescan/internal/scan/repository"
	"github.com/romariotrain/eyescan/internal/scan/service"
	"github.com/romariotrain/eyescan/internal/scan/workflow"
)

var _ outbox.EventPublisher = (*kafka.Producer)(nil)

const (
	shutdownTimeout = 10 * time.Second
	sweepInterval   = time.Minute
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the scan intake HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
}

func runServe(ctx context.Context, opts *rootOptions) error {
	cfg, logger := opts.cfg, opts.logger

	classifier, recommender, err := opts.clients()
	if err != nil {
		return err
	}

	queue := outbox.NewQueue(cfg.EventsBuffer, logger)
	target, closeTarget, err := eventTarget(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeTarget()

	publisher, err := outbox.NewPublisher(outbox.PublisherConfig{
		Queue:     queue,
		Target:    target,
		Interval:  cfg.EventsInterval,
		BatchSize: cfg.EventsBatchSize,
		Logger:    logger,
	})
	if err != nil {
		return fmt.Errorf("outbox publisher: %w", err)
	}

	// Dependencies
	svc := service.New(repository.NewMemoryRepository(), workflow.Config{
		Classifier:  classifier,
		Recommender: recommender,
		Sink:        queue,
		Timeout:     cfg.RequestTimeout,
		Language:    cfg.Language,
		Logger:      logger,
	}, cfg.SessionTTL)
	router := httpapi.NewRouter(httpapi.New(svc, logger))

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info().Str("addr", cfg.HTTPAddr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen and serve: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return ignoreCanceled(publisher.Start(gctx))
	})

	g.Go(func() error {
		return ignoreCanceled(svc.RunSweeper(gctx, sweepInterval))
	})

	return g.Wait()
}

// eventTarget picks Kafka when brokers are configured and the log otherwise.
func eventTarget(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (outbox.EventPublisher, func(), error) {
	if !cfg.EventsEnabled() {
		logger.Info().Msg("no kafka brokers configured, scan events go to the log")
		return outbox.NewLogPublisher(logger), func() {}, nil
	}

	producer, err := kafka.NewProducer(kafka.ProducerConfig{
		Brokers:   cfg.KafkaBrokers,
		Topic:     cfg.KafkaTopic,
		BatchSize: cfg.EventsBatchSize,
		Logger:    logger,
	})
	if err != nil {
		return nil, nil, err
	}

	hctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := producer.HealthCheck(hctx); err != nil {
		logger.Warn().Err(err).Msg("kafka unreachable at startup, events will be retried")
	}

	return producer, func() {
		if err := producer.Close(); err != nil {
			logger.Warn().Err(err).Msg("close kafka producer")
		}
	}, nil
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
