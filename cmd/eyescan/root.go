package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/romariotrain/eyescan/internal/config"
	"github.com/romariotrain/eyescan/internal/scan/inference"
)

type rootOptions struct {
	logger zerolog.Logger
	cfg    *config.Config

	classifierURL  string
	recommenderURL string
	timeout        time.Duration
	language       string
}

func newRootCmd(logger zerolog.Logger) *cobra.Command {
	opts := &rootOptions{logger: logger}

	cmd := &cobra.Command{
		Use:           "eyescan",
		Short:         "Eye scan intake: classify fundus images and fetch recommendations",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load(cmd)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.classifierURL, "classifier-url", "", "classification service base URL (overrides CLASSIFIER_URL)")
	flags.StringVar(&opts.recommenderURL, "recommender-url", "", "recommendation service base URL (overrides RECOMMENDER_URL)")
	flags.DurationVar(&opts.timeout, "timeout", 0, "per-request timeout (overrides REQUEST_TIMEOUT)")
	flags.StringVar(&opts.language, "language", "", "recommendation language, en or hi (overrides RECOMMENDATION_LANGUAGE)")

	cmd.AddCommand(newServeCmd(opts), newScanCmd(opts))
	return cmd
}

// load reads the environment configuration and applies flag overrides.
func (o *rootOptions) load(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("classifier-url") {
		cfg.ClassifierURL = o.classifierURL
		// both endpoints live on one server unless configured apart
		if !flags.Changed("recommender-url") && os.Getenv("RECOMMENDER_URL") == "" {
			cfg.RecommenderURL = o.classifierURL
		}
	}
	if flags.Changed("recommender-url") {
		cfg.RecommenderURL = o.recommenderURL
	}
	if flags.Changed("timeout") {
		cfg.RequestTimeout = o.timeout
	}
	if flags.Changed("language") {
		cfg.Language = o.language
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil && cfg.LogLevel != "" {
		o.logger = o.logger.Level(lvl)
	}
	o.cfg = cfg
	return nil
}

func (o *rootOptions) clients() (*inference.Classifier, *inference.Recommender, error) {
	classifier, err := inference.NewClassifier(inference.ClientConfig{
		BaseURL: o.cfg.ClassifierURL,
		Timeout: o.cfg.RequestTimeout,
		Logger:  o.logger,
	})
	if err != nil {
		return nil, nil, err
	}
	recommender, err := inference.NewRecommender(inference.ClientConfig{
		BaseURL: o.cfg.RecommenderURL,
		Timeout: o.cfg.RequestTimeout,
		Logger:  o.logger,
	})
	if err != nil {
		return nil, nil, err
	}
	return classifier, recommender, nil
}
