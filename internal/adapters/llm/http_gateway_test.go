package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/llmlab/internal/core"
)

type capturedRequest struct {
	Path    string
	Headers http.Header
	Body    map[string]any
}

func newUpstream(t *testing.T, status int, reply string) (*httptest.Server, *capturedRequest) {
	t.Helper()
	captured := &capturedRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.Path = r.URL.Path
		captured.Headers = r.Header.Clone()
		_ = json.NewDecoder(r.Body).Decode(&captured.Body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(reply))
	}))
	t.Cleanup(srv.Close)
	return srv, captured
}

func sampleRequest(model string) core.GenerateRequest {
	return core.GenerateRequest{Prompt: "Say hi", Temperature: 0.5, TopP: 0.9, MaxTokens: 64, Model: model}
}

func TestHTTPGateway_Dialects(t *testing.T) {
	tests := []struct {
		name       string
		newGateway func(HTTPGatewayOptions) *HTTPGateway
		provider   string
		model      string
		reply      string
		wantPath   string
		wantHeader [2]string
		wantText   string
		wantTokens int
	}{
		{
			name:       "openai",
			newGateway: NewOpenAIGateway,
			provider:   ProviderOpenAI,
			model:      "gpt-4o",
			reply:      `{"choices":[{"message":{"content":"hi there"}}],"usage":{"total_tokens":12}}`,
			wantPath:   "/chat/completions",
			wantHeader: [2]string{"Authorization", "Bearer k"},
			wantText:   "hi there",
			wantTokens: 12,
		},
		{
			name:       "openrouter",
			newGateway: NewOpenRouterGateway,
			provider:   ProviderOpenRouter,
			model:      "openai/gpt-oss-20b:free",
			reply:      `{"choices":[{"message":{"content":"routed"}}],"usage":{"total_tokens":7}}`,
			wantPath:   "/chat/completions",
			wantHeader: [2]string{"X-Title", "llmlab"},
			wantText:   "routed",
			wantTokens: 7,
		},
		{
			name:       "anthropic",
			newGateway: NewAnthropicGateway,
			provider:   ProviderAnthropic,
			model:      "claude-4",
			reply:      `{"content":[{"type":"text","text":"bonjour"}],"usage":{"input_tokens":4,"output_tokens":6}}`,
			wantPath:   "/messages",
			wantHeader: [2]string{"x-api-key", "k"},
			wantText:   "bonjour",
			wantTokens: 10,
		},
		{
			name:       "google",
			newGateway: NewGoogleGateway,
			provider:   ProviderGoogle,
			model:      "gemini-2.5-pro",
			reply:      `{"candidates":[{"content":{"parts":[{"text":"hola"}]}}],"usageMetadata":{"totalTokenCount":9}}`,
			wantPath:   "/models/gemini-2.5-pro:generateContent",
			wantHeader: [2]string{"x-goog-api-key", "k"},
			wantText:   "hola",
			wantTokens: 9,
		},
		{
			name:       "ollama",
			newGateway: NewOllamaGateway,
			provider:   ProviderOllama,
			model:      "llama3.1:8b",
			reply:      `{"response":"local","eval_count":3}`,
			wantPath:   "/api/generate",
			wantText:   "local",
			wantTokens: 3,
		},
		{
			name:       "llama.cpp",
			newGateway: NewLlamaCPPGateway,
			provider:   ProviderLlamaCPP,
			model:      "local",
			reply:      `{"content":"cpp","tokens_evaluated":5}`,
			wantPath:   "/completion",
			wantText:   "cpp",
			wantTokens: 5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, captured := newUpstream(t, http.StatusOK, tt.reply)
			gw := tt.newGateway(HTTPGatewayOptions{APIKey: "k", BaseURL: srv.URL + "/"})
			assert.Equal(t, tt.provider, gw.Provider())
			assert.Equal(t, srv.URL, gw.BaseURL())

			res, err := gw.Generate(context.Background(), sampleRequest(tt.model))
			require.NoError(t, err)
			require.NotNil(t, res)

			assert.True(t, res.Success, res.Error)
			assert.Equal(t, tt.wantText, res.ResponseText)
			require.NotNil(t, res.TokensUsed)
			assert.Equal(t, tt.wantTokens, *res.TokensUsed)
			assert.Equal(t, tt.wantPath, captured.Path)
			if tt.wantHeader[0] != "" {
				assert.Equal(t, tt.wantHeader[1], captured.Headers.Get(tt.wantHeader[0]))
			}
		})
	}
}

func TestHTTPGateway_RequestBody(t *testing.T) {
	srv, captured := newUpstream(t, http.StatusOK, `{"response":"ok"}`)
	gw := NewOllamaGateway(HTTPGatewayOptions{BaseURL: srv.URL})

	_, err := gw.Generate(context.Background(), sampleRequest("llama3.1:8b"))
	require.NoError(t, err)

	assert.Equal(t, "llama3.1:8b", captured.Body["model"])
	assert.Equal(t, "Say hi", captured.Body["prompt"])
	assert.Equal(t, false, captured.Body["stream"])
	opts, ok := captured.Body["options"].(map[string]any)
	require.True(t, ok)
	assert.InDelta(t, 0.5, opts["temperature"], 1e-9)
	assert.InDelta(t, 0.9, opts["top_p"], 1e-9)
	assert.InDelta(t, 64, opts["num_predict"], 1e-9)
}

func TestHTTPGateway_MissingTokens(t *testing.T) {
	srv, _ := newUpstream(t, http.StatusOK, `{"choices":[{"message":{"content":"x"}}]}`)
	gw := NewOpenAIGateway(HTTPGatewayOptions{APIKey: "k", BaseURL: srv.URL})

	res, err := gw.Generate(context.Background(), sampleRequest("gpt-4o"))
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Nil(t, res.TokensUsed)
}

func TestHTTPGateway_MissingAPIKey(t *testing.T) {
	gw := NewAnthropicGateway(HTTPGatewayOptions{BaseURL: "http://127.0.0.1:1"})

	res, err := gw.Generate(context.Background(), sampleRequest("claude-4"))
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "API key is not configured")
}

func TestHTTPGateway_UpstreamError(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		reply   string
		wantErr string
	}{
		{
			name:    "structured error message",
			status:  http.StatusTooManyRequests,
			reply:   `{"error":{"message":"slow down"}}`,
			wantErr: "API error: 429 (rate_limit) - slow down",
		},
		{
			name:    "plain body",
			status:  http.StatusBadGateway,
			reply:   `upstream exploded`,
			wantErr: "API error: 502",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newUpstream(t, tt.status, tt.reply)
			gw := NewOpenAIGateway(HTTPGatewayOptions{APIKey: "k", BaseURL: srv.URL})

			res, err := gw.Generate(context.Background(), sampleRequest("gpt-4o"))
			require.NoError(t, err)
			assert.False(t, res.Success)
			assert.Contains(t, res.Error, tt.wantErr)
		})
	}
}

func TestHTTPGateway_UpstreamErrorKeepsUTF8(t *testing.T) {
	body := "a" + strings.Repeat("é", 400)
	srv, _ := newUpstream(t, http.StatusBadGateway, body)
	gw := NewOpenAIGateway(HTTPGatewayOptions{APIKey: "k", BaseURL: srv.URL})

	res, err := gw.Generate(context.Background(), sampleRequest("gpt-4o"))
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.True(t, utf8.ValidString(res.Error), "error text must be valid UTF-8: %q", res.Error)
	assert.True(t, strings.HasSuffix(res.Error, "é..."))
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		n    int
		want string
	}{
		{name: "short", in: "hello", n: 10, want: "hello"},
		{name: "ascii cut", in: "hello world", n: 5, want: "hello..."},
		{name: "backs off to rune start", in: "aéé", n: 2, want: "a..."},
		{name: "cut on boundary", in: "aéé", n: 3, want: "aé..."},
		{name: "invalid input replaced", in: "ok\xff", n: 10, want: "ok\uFFFD"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncate(tt.in, tt.n)
			assert.Equal(t, tt.want, got)
			assert.True(t, utf8.ValidString(got))
		})
	}
}

func TestHTTPGateway_InvalidJSON(t *testing.T) {
	srv, _ := newUpstream(t, http.StatusOK, `not json`)
	gw := NewLlamaCPPGateway(HTTPGatewayOptions{BaseURL: srv.URL})

	res, err := gw.Generate(context.Background(), sampleRequest("local"))
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "decode response")
}

func TestHTTPGateway_ContextCancelled(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-release
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(func() {
		close(release)
		srv.Close()
	})

	gw := NewOllamaGateway(HTTPGatewayOptions{BaseURL: srv.URL})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	res, err := gw.Generate(ctx, sampleRequest("llama3.1:8b"))
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Nil(t, res)
}

func TestHTTPGateway_ClientTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-release
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(func() {
		close(release)
		srv.Close()
	})

	gw := NewOllamaGateway(HTTPGatewayOptions{
		BaseURL:    srv.URL,
		HTTPClient: &http.Client{Timeout: 50 * time.Millisecond},
	})

	res, err := gw.Generate(context.Background(), sampleRequest("llama3.1:8b"))
	require.ErrorIs(t, err, core.ErrUpstreamTimeout)
	assert.Contains(t, err.Error(), "ollama: upstream timeout")
	assert.Nil(t, res)
}

func TestHTTPGateway_RateLimit(t *testing.T) {
	srv, _ := newUpstream(t, http.StatusOK, `{"response":"local","eval_count":3}`)
	gw := NewOllamaGateway(HTTPGatewayOptions{BaseURL: srv.URL, RateLimit: 0.001, RateBurst: 1})

	res, err := gw.Generate(context.Background(), sampleRequest("llama3.1:8b"))
	require.NoError(t, err)
	assert.Empty(t, res.Error)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	res, err = gw.Generate(ctx, sampleRequest("llama3.1:8b"))
	require.NoError(t, err, "waiting past the deadline is a provider failure, not a cancellation")
	assert.Contains(t, res.Error, "ollama rate limit")
}
