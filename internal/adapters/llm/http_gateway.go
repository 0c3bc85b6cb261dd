package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	jmespath "github.com/jmespath-community/go-jmespath"
	"github.com/target/llmlab/internal/core"
	"golang.org/x/time/rate"
)

// maxResponseBytes bounds how much of an upstream body is read.
const maxResponseBytes = 4 << 20

// HTTPGatewayOptions configures an HTTP-backed gateway.
type HTTPGatewayOptions struct {
	APIKey     string
	BaseURL    string       // optional; provider default when empty
	HTTPClient *http.Client // optional
	Logger     *slog.Logger // optional

	// RateLimit caps calls per second to this provider; zero disables pacing.
	RateLimit float64
	// RateBurst is the number of calls allowed at once; values below 1 mean 1.
	RateBurst int
}

// HTTPGateway performs generation calls against a JSON HTTP API.
type HTTPGateway struct {
	dialect dialect
	apiKey  string
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

func newHTTPGateway(d dialect, opts HTTPGatewayOptions) *HTTPGateway {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = d.defaultURL
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	var limiter *rate.Limiter
	if opts.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), max(opts.RateBurst, 1))
	}
	return &HTTPGateway{
		dialect: d,
		apiKey:  opts.APIKey,
		baseURL: baseURL,
		client:  client,
		limiter: limiter,
		logger:  logger.With("component", "llm_gateway", "provider", d.provider),
	}
}

// NewOpenAIGateway returns a gateway for the OpenAI chat completions API.
func NewOpenAIGateway(opts HTTPGatewayOptions) *HTTPGateway {
	return newHTTPGateway(openAIDialect, opts)
}

// NewAnthropicGateway returns a gateway for the Anthropic messages API.
func NewAnthropicGateway(opts HTTPGatewayOptions) *HTTPGateway {
	return newHTTPGateway(anthropicDialect, opts)
}

// NewGoogleGateway returns a gateway for the Gemini generateContent API.
func NewGoogleGateway(opts HTTPGatewayOptions) *HTTPGateway {
	return newHTTPGateway(googleDialect, opts)
}

// NewOpenRouterGateway returns a gateway for OpenRouter's OpenAI-compatible API.
func NewOpenRouterGateway(opts HTTPGatewayOptions) *HTTPGateway {
	return newHTTPGateway(openRouterDialect, opts)
}

// NewOllamaGateway returns a gateway for a local Ollama server.
func NewOllamaGateway(opts HTTPGatewayOptions) *HTTPGateway {
	return newHTTPGateway(ollamaDialect, opts)
}

// NewLlamaCPPGateway returns a gateway for a llama.cpp server.
func NewLlamaCPPGateway(opts HTTPGatewayOptions) *HTTPGateway {
	return newHTTPGateway(llamaCPPDialect, opts)
}

// Provider returns the provider id.
func (g *HTTPGateway) Provider() string { return g.dialect.provider }

// BaseURL returns the resolved API base URL.
func (g *HTTPGateway) BaseURL() string { return g.baseURL }

// Generate performs one generation call. Transport and upstream failures are
// reported in the result. Only context errors and transport timeouts, which
// wrap core.ErrUpstreamTimeout, are returned.
func (g *HTTPGateway) Generate(ctx context.Context, req core.GenerateRequest) (*core.GenerateResult, error) {
	start := time.Now()
	fail := func(msg string) (*core.GenerateResult, error) {
		g.logger.WarnContext(ctx, "generation call failed", "model", req.Model, "error", msg)
		return &core.GenerateResult{ExecutionTime: time.Since(start), Error: msg}, nil
	}

	if g.dialect.requiresKey && g.apiKey == "" {
		return fail(fmt.Sprintf("%s API key is not configured", g.dialect.provider))
	}

	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			// The next token would arrive after the call deadline.
			return fail(fmt.Sprintf("%s rate limit: %v", g.dialect.provider, err))
		}
	}

	payload, err := json.Marshal(g.dialect.body(req))
	if err != nil {
		return fail(fmt.Sprintf("encode request: %v", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+g.dialect.path(req), bytes.NewReader(payload))
	if err != nil {
		return fail(fmt.Sprintf("build request: %v", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	g.dialect.headers(httpReq.Header, g.apiKey)

	resp, err := g.client.Do(httpReq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if isTimeout(err) {
			return nil, g.timeoutError(ctx, req.Model, err)
		}
		return fail(err.Error())
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			g.logger.DebugContext(ctx, "close response body", "error", cerr)
		}
	}()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if isTimeout(err) {
			return nil, g.timeoutError(ctx, req.Model, err)
		}
		return fail(fmt.Sprintf("read response: %v", err))
	}

	var doc any
	decodeErr := json.Unmarshal(raw, &doc)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail := ""
		if decodeErr == nil {
			detail = searchString(g.dialect.errorExpr, doc)
		}
		if detail == "" {
			detail = truncate(strings.TrimSpace(string(raw)), 500)
		}
		return fail(core.FormatUpstreamError(resp.StatusCode, detail))
	}
	if decodeErr != nil {
		return fail(fmt.Sprintf("decode response: %v", decodeErr))
	}

	return &core.GenerateResult{
		ResponseText:  searchString(g.dialect.textExpr, doc),
		TokensUsed:    searchInt(g.dialect.tokensExpr, doc),
		ExecutionTime: time.Since(start),
		Success:       true,
	}, nil
}

func searchString(expr string, doc any) string {
	if expr == "" {
		return ""
	}
	v, err := jmespath.Search(expr, doc)
	if err != nil {
		return ""
	}
	s, _ := v.(string)
	return s
}

func searchInt(expr string, doc any) *int {
	if expr == "" {
		return nil
	}
	v, err := jmespath.Search(expr, doc)
	if err != nil {
		return nil
	}
	f, ok := v.(float64)
	if !ok {
		return nil
	}
	n := int(f)
	return &n
}

func (g *HTTPGateway) timeoutError(ctx context.Context, model string, err error) error {
	g.logger.WarnContext(ctx, "generation call timed out", "model", model, "error", err)
	return fmt.Errorf("%s: %w: %v", g.dialect.provider, core.ErrUpstreamTimeout, err)
}

// isTimeout matches http.Client timeouts and dial or read deadlines.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// truncate shortens s to at most n bytes without splitting a rune. Invalid
// sequences in the input are replaced so the result is always valid UTF-8.
func truncate(s string, n int) string {
	s = strings.ToValidUTF8(s, "\uFFFD")
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
