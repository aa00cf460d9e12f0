package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/romariotrain/eyescan/internal/scan/models"
)

type Config struct {
	HTTPAddr string
	LogLevel string

	ClassifierURL  string
	RecommenderURL string
	RequestTimeout time.Duration
	Language       string
	SessionTTL     time.Duration

	KafkaBrokers    []string
	KafkaTopic      string
	EventsInterval  time.Duration
	EventsBatchSize int
	EventsBuffer    int
}

// EventsEnabled reports whether scan events go to Kafka rather than the log.
func (c *Config) EventsEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return LoadFrom(os.Getenv)
}

// LoadFrom builds a Config from getenv, applying defaults for unset keys.
func LoadFrom(getenv func(string) string) (*Config, error) {
	env := func(k, def string) string {
		if v := strings.TrimSpace(getenv(k)); v != "" {
			return v
		}
		return def
	}

	cfg := &Config{
		HTTPAddr:      env("HTTP_ADDR", ":8081"),
		LogLevel:      env("LOG_LEVEL", "info"),
		ClassifierURL: env("CLASSIFIER_URL", "http://127.0.0.1:5000"),
		Language:      env("RECOMMENDATION_LANGUAGE", models.LanguageEnglish),
		KafkaTopic:    env("KAFKA_TOPIC", "scan-events"),
	}
	cfg.RecommenderURL = env("RECOMMENDER_URL", cfg.ClassifierURL)
	cfg.KafkaBrokers = splitList(getenv("KAFKA_BROKERS"))

	var errs []error
	cfg.RequestTimeout = parseDuration(env("REQUEST_TIMEOUT", "30s"), "REQUEST_TIMEOUT", &errs)
	cfg.SessionTTL = parseDuration(env("SESSION_TTL", "30m"), "SESSION_TTL", &errs)
	cfg.EventsInterval = parseDuration(env("EVENTS_INTERVAL", "1s"), "EVENTS_INTERVAL", &errs)
	cfg.EventsBatchSize = parseInt(env("EVENTS_BATCH_SIZE", "100"), "EVENTS_BATCH_SIZE", &errs)
	cfg.EventsBuffer = parseInt(env("EVENTS_BUFFER", "1024"), "EVENTS_BUFFER", &errs)

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	for name, raw := range map[string]string{
		"CLASSIFIER_URL":  c.ClassifierURL,
		"RECOMMENDER_URL": c.RecommenderURL,
	} {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("%s: invalid url %q", name, raw))
		}
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, fmt.Errorf("REQUEST_TIMEOUT: must be positive, got %v", c.RequestTimeout))
	}
	if !models.SupportedLanguage(c.Language) {
		errs = append(errs, fmt.Errorf("RECOMMENDATION_LANGUAGE: unsupported language %q", c.Language))
	}
	if c.EventsEnabled() && c.KafkaTopic == "" {
		errs = append(errs, errors.New("KAFKA_TOPIC is empty"))
	}
	return errors.Join(errs...)
}

func parseDuration(raw, key string, errs *[]error) time.Duration {
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		*errs = append(*errs, fmt.Errorf("%s: invalid duration %q", key, raw))
		return 0
	}
	return d
}

func parseInt(raw, key string, errs *[]error) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		*errs = append(*errs, fmt.Errorf("%s: invalid positive integer %q", key, raw))
		return 0
	}
	return n
}

func splitList(raw string) []string {
	var out []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
