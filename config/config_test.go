package config

import (
	"log/slog"
	"testing"
	"time"

	env "github.com/caarlos0/env/v11"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppConfig_Defaults(t *testing.T) {
	var cfg AppConfig
	err := env.ParseWithOptions(&cfg, env.Options{Environment: map[string]string{}})
	require.NoError(t, err)
	cfg.Sanitize()

	assert.Equal(t, 4, cfg.LLM.Concurrency)
	assert.Equal(t, 2, cfg.LLM.Retries)
	assert.Equal(t, 500*time.Millisecond, cfg.LLM.BackoffFactor)
	assert.Equal(t, 4*time.Second, cfg.LLM.MaxBackoff)
	assert.Equal(t, 60*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, 1000, cfg.LLM.MaxTokens)
	assert.InDelta(t, 0.7, cfg.LLM.DefaultTemperature, 1e-9)
	assert.InDelta(t, 0.9, cfg.LLM.DefaultTopP, 1e-9)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, "llmlab", cfg.Postgres.Name)
	assert.False(t, cfg.Cache.Enabled)
	assert.Equal(t, 30*time.Second, cfg.Providers.HTTPTimeout)
	assert.InDelta(t, 0.05, cfg.Providers.Mock.FailureRate, 1e-9)
}

func TestAppConfig_ParseLLMEnv(t *testing.T) {
	var cfg AppConfig
	err := env.ParseWithOptions(&cfg, env.Options{Environment: map[string]string{
		"LLM_CONCURRENCY":    "8",
		"LLM_RETRIES":        "0",
		"LLM_BACKOFF_FACTOR": "250ms",
		"LLM_TIMEOUT":        "5s",
		"OPENAI_API_KEY":     " sk-test ",
		"OLLAMA_BASE_URL":    "http://ollama:11434/",
		"PROVIDER_MODEL_MAP": "llama3.1:8b=Ollama, =openai",
	}})
	require.NoError(t, err)
	cfg.Sanitize()

	assert.Equal(t, 8, cfg.LLM.Concurrency)
	assert.Equal(t, 0, cfg.LLM.Retries)
	assert.Equal(t, 250*time.Millisecond, cfg.LLM.BackoffFactor)
	assert.Equal(t, 5*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, "sk-test", cfg.Providers.OpenAI.APIKey)
	assert.Equal(t, "http://ollama:11434", cfg.Providers.Ollama.BaseURL)
	assert.Equal(t, map[string]string{"llama3.1:8b": "ollama"}, cfg.Providers.ModelProviders)
}

func TestLLMConfig_Sanitize(t *testing.T) {
	cfg := LLMConfig{
		Concurrency:   0,
		Retries:       -3,
		BackoffFactor: 2 * time.Second,
		MaxBackoff:    time.Second,
	}
	cfg.Sanitize()

	assert.Equal(t, 4, cfg.Concurrency)
	assert.Equal(t, 0, cfg.Retries)
	assert.Equal(t, 2*time.Second, cfg.MaxBackoff, "max backoff never drops below the factor")
	assert.Equal(t, 60*time.Second, cfg.Timeout)
	assert.Equal(t, 1000, cfg.MaxTokens)
}

func TestMockProviderConfig_Sanitize(t *testing.T) {
	cfg := MockProviderConfig{MinDelay: time.Second, MaxDelay: time.Millisecond, FailureRate: 3}
	cfg.sanitize()

	assert.Equal(t, time.Second, cfg.MaxDelay)
	assert.InDelta(t, 1.0, cfg.FailureRate, 1e-9)
}

func TestObservabilityMetricsConfig_Sanitize(t *testing.T) {
	cfg := ObservabilityMetricsConfig{
		Enabled:       true,
		StatsdAddress: " ",
	}

	cfg.Sanitize()

	if cfg.Enabled {
		t.Fatalf("expected enabled to be false when address is empty")
	}

	cfg = ObservabilityMetricsConfig{
		Enabled:       true,
		StatsdAddress: " statsd:1234 ",
		Prefix:        " llmlab. ",
	}

	cfg.Sanitize()

	if !cfg.IsEnabled() {
		t.Fatalf("expected metrics to remain enabled")
	}
	if cfg.StatsdAddress != "statsd:1234" {
		t.Fatalf("expected address to be trimmed, got %q", cfg.StatsdAddress)
	}
	if cfg.Prefix != "llmlab" {
		t.Fatalf("expected prefix to be trimmed, got %q", cfg.Prefix)
	}
}

func TestAppConfig_SlogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		cfg := AppConfig{LogLevel: in}
		assert.Equal(t, want, cfg.SlogLevel(), "level %q", in)
	}
}

func TestHTTPConfig_Defaults(t *testing.T) {
	var cfg AppConfig
	err := env.ParseWithOptions(&cfg, env.Options{Environment: map[string]string{
		"HTTP_CORS_ALLOWED_ORIGINS": "http://localhost:3000,https://lab.example.com",
		"HTTP_COMPRESSION_LEVEL":    "42",
	}})
	require.NoError(t, err)
	cfg.Sanitize()

	assert.Equal(t, 5*time.Minute, cfg.HTTP.WriteTimeout)
	assert.Equal(t, int64(1<<20), cfg.HTTP.MaxBodyBytes)
	assert.True(t, cfg.HTTP.CompressionEnabled)
	assert.Equal(t, 6, cfg.HTTP.CompressionLevel)
	assert.Equal(t, []string{"http://localhost:3000", "https://lab.example.com"}, cfg.HTTP.CORSAllowedOrigins)
	assert.Equal(t, 10, cfg.Postgres.MaxOpenConns)
}

func TestDBConfig_Sanitize(t *testing.T) {
	cfg := DBConfig{MaxOpenConns: 0, MaxIdleConns: 50}
	cfg.Sanitize()

	assert.Equal(t, 10, cfg.MaxOpenConns)
	assert.Equal(t, 10, cfg.MaxIdleConns)
	assert.Equal(t, 5*time.Minute, cfg.ConnMaxLifetime)
}

func TestReaperConfig_ParseAndSanitize(t *testing.T) {
	var cfg AppConfig
	err := env.ParseWithOptions(&cfg, env.Options{Environment: map[string]string{
		"REAPER_ENABLED":           "false",
		"REAPER_INTERVAL":          "-1s",
		"REAPER_RETENTION_MAX_AGE": "720h",
		"REAPER_BATCH_SIZE":        "0",
	}})
	require.NoError(t, err)
	cfg.Sanitize()

	assert.False(t, cfg.Reaper.Enabled)
	assert.Equal(t, 5*time.Minute, cfg.Reaper.Interval)
	assert.Equal(t, time.Hour, cfg.Reaper.RunningMaxAge)
	assert.Equal(t, 720*time.Hour, cfg.Reaper.RetentionMaxAge)
	assert.Equal(t, 500, cfg.Reaper.BatchSize)
}

func TestProvidersConfig_RateLimits(t *testing.T) {
	var cfg AppConfig
	err := env.ParseWithOptions(&cfg, env.Options{Environment: map[string]string{
		"OPENAI_RATE_LIMIT": "2.5",
		"OPENAI_RATE_BURST": "4",
		"GOOGLE_RATE_LIMIT": "-1",
		"GOOGLE_RATE_BURST": "0",
	}})
	require.NoError(t, err)
	cfg.Sanitize()

	assert.InDelta(t, 2.5, cfg.Providers.OpenAI.RateLimit, 1e-9)
	assert.Equal(t, 4, cfg.Providers.OpenAI.RateBurst)
	assert.Zero(t, cfg.Providers.Google.RateLimit)
	assert.Equal(t, 1, cfg.Providers.Google.RateBurst)
	assert.Zero(t, cfg.Providers.Anthropic.RateLimit)
}
