package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := LoadFrom(envMap(nil))
	require.NoError(t, err)

	assert.Equal(t, ":8081", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "http://127.0.0.1:5000", cfg.ClassifierURL)
	assert.Equal(t, cfg.ClassifierURL, cfg.RecommenderURL)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL)
	assert.Equal(t, "en", cfg.Language)
	assert.Equal(t, "scan-events", cfg.KafkaTopic)
	assert.Equal(t, time.Second, cfg.EventsInterval)
	assert.Equal(t, 100, cfg.EventsBatchSize)
	assert.Equal(t, 1024, cfg.EventsBuffer)
	assert.False(t, cfg.EventsEnabled())
}

func TestLoadFrom_Overrides(t *testing.T) {
	cfg, err := LoadFrom(envMap(map[string]string{
		"HTTP_ADDR":               ":9000",
		"CLASSIFIER_URL":          "http://classifier:5000",
		"RECOMMENDER_URL":         "http://recommender:5001",
		"REQUEST_TIMEOUT":         "5s",
		"RECOMMENDATION_LANGUAGE": "hi",
		"KAFKA_BROKERS":           "kafka-1:9092, kafka-2:9092,,",
		"EVENTS_BATCH_SIZE":       "10",
	}))
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.HTTPAddr)
	assert.Equal(t, "http://recommender:5001", cfg.RecommenderURL)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "hi", cfg.Language)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 10, cfg.EventsBatchSize)
	assert.True(t, cfg.EventsEnabled())
}

func TestLoadFrom_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{"bad timeout", map[string]string{"REQUEST_TIMEOUT": "soon"}, "REQUEST_TIMEOUT"},
		{"negative timeout", map[string]string{"REQUEST_TIMEOUT": "-1s"}, "REQUEST_TIMEOUT"},
		{"bad batch size", map[string]string{"EVENTS_BATCH_SIZE": "0"}, "EVENTS_BATCH_SIZE"},
		{"bad classifier url", map[string]string{"CLASSIFIER_URL": "not a url"}, "CLASSIFIER_URL"},
		{"unsupported language", map[string]string{"RECOMMENDATION_LANGUAGE": "fr"}, "RECOMMENDATION_LANGUAGE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadFrom(envMap(tt.env))
			require.Error(t, err)
			assert.Nil(t, cfg)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
