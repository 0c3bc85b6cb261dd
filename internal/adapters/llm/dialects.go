package llm

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/target/llmlab/internal/core"
)

// dialect describes how one provider's HTTP API is spoken. Response fields are
// located with JMESPath expressions over the decoded JSON body.
type dialect struct {
	provider    string
	defaultURL  string
	requiresKey bool

	path    func(req core.GenerateRequest) string
	headers func(h http.Header, apiKey string)
	body    func(req core.GenerateRequest) any

	textExpr   string
	tokensExpr string
	// errorExpr extracts a message from a non-2xx body.
	errorExpr string
}

func bearer(h http.Header, apiKey string) {
	h.Set("Authorization", "Bearer "+apiKey)
}

func chatCompletionsBody(req core.GenerateRequest) any {
	return map[string]any{
		"model": req.Model,
		"messages": []map[string]string{
			{"role": "user", "content": req.Prompt},
		},
		"temperature": req.Temperature,
		"top_p":       req.TopP,
		"max_tokens":  req.MaxTokens,
	}
}

func fixedPath(p string) func(core.GenerateRequest) string {
	return func(core.GenerateRequest) string { return p }
}

var openAIDialect = dialect{
	provider:    ProviderOpenAI,
	defaultURL:  "https://api.openai.com/v1",
	requiresKey: true,
	path:        fixedPath("/chat/completions"),
	headers:     bearer,
	body:        chatCompletionsBody,
	textExpr:    "choices[0].message.content",
	tokensExpr:  "usage.total_tokens",
	errorExpr:   "error.message",
}

var openRouterDialect = dialect{
	provider:    ProviderOpenRouter,
	defaultURL:  "https://openrouter.ai/api/v1",
	requiresKey: true,
	path:        fixedPath("/chat/completions"),
	headers: func(h http.Header, apiKey string) {
		bearer(h, apiKey)
		h.Set("X-Title", "llmlab")
	},
	body:       chatCompletionsBody,
	textExpr:   "choices[0].message.content",
	tokensExpr: "usage.total_tokens",
	errorExpr:  "error.message",
}

var anthropicDialect = dialect{
	provider:    ProviderAnthropic,
	defaultURL:  "https://api.anthropic.com/v1",
	requiresKey: true,
	path:        fixedPath("/messages"),
	headers: func(h http.Header, apiKey string) {
		h.Set("x-api-key", apiKey)
		h.Set("anthropic-version", "2023-06-01")
	},
	body: func(req core.GenerateRequest) any {
		return map[string]any{
			"model": req.Model,
			"messages": []map[string]string{
				{"role": "user", "content": req.Prompt},
			},
			"temperature": req.Temperature,
			"top_p":       req.TopP,
			"max_tokens":  req.MaxTokens,
		}
	},
	textExpr:   "content[0].text",
	tokensExpr: "sum([usage.input_tokens, usage.output_tokens])",
	errorExpr:  "error.message",
}

var googleDialect = dialect{
	provider:    ProviderGoogle,
	defaultURL:  "https://generativelanguage.googleapis.com/v1",
	requiresKey: true,
	path: func(req core.GenerateRequest) string {
		return fmt.Sprintf("/models/%s:generateContent", url.PathEscape(req.Model))
	},
	headers: func(h http.Header, apiKey string) {
		h.Set("x-goog-api-key", apiKey)
	},
	body: func(req core.GenerateRequest) any {
		return map[string]any{
			"contents": []map[string]any{
				{"role": "user", "parts": []map[string]string{{"text": req.Prompt}}},
			},
			"generationConfig": map[string]any{
				"temperature":     req.Temperature,
				"topP":            req.TopP,
				"maxOutputTokens": req.MaxTokens,
			},
		}
	},
	textExpr:   "candidates[0].content.parts[0].text",
	tokensExpr: "usageMetadata.totalTokenCount",
	errorExpr:  "error.message",
}

var ollamaDialect = dialect{
	provider:   ProviderOllama,
	defaultURL: "http://localhost:11434",
	path:       fixedPath("/api/generate"),
	headers:    func(http.Header, string) {},
	body: func(req core.GenerateRequest) any {
		return map[string]any{
			"model":  req.Model,
			"prompt": req.Prompt,
			"stream": false,
			"options": map[string]any{
				"temperature": req.Temperature,
				"top_p":       req.TopP,
				"num_predict": req.MaxTokens,
			},
		}
	},
	textExpr:   "response",
	tokensExpr: "eval_count",
	errorExpr:  "error",
}

var llamaCPPDialect = dialect{
	provider:   ProviderLlamaCPP,
	defaultURL: "http://localhost:8080",
	path:       fixedPath("/completion"),
	headers:    func(http.Header, string) {},
	body: func(req core.GenerateRequest) any {
		return map[string]any{
			"prompt":      req.Prompt,
			"temperature": req.Temperature,
			"top_p":       req.TopP,
			"n_predict":   req.MaxTokens,
		}
	},
	textExpr:   "content",
	tokensExpr: "tokens_evaluated",
	errorExpr:  "error.message",
}
