package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	jmespath "github.com/jmespath-community/go-jmespath"
)

// OllamaModels lists models installed on an Ollama server via GET /api/tags.
type OllamaModels struct {
	baseURL string
	client  *http.Client
}

// NewOllamaModels creates an Ollama model lister. An empty baseURL selects
// the local default.
func NewOllamaModels(baseURL string, client *http.Client) *OllamaModels {
	baseURL = strings.TrimRight(baseURL, "/")
	if baseURL == "" {
		baseURL = ollamaDialect.defaultURL
	}
	if client == nil {
		client = &http.Client{Timeout: 2 * time.Second}
	}
	return &OllamaModels{baseURL: baseURL, client: client}
}

// ListModels returns the installed model names.
func (o *OllamaModels) ListModels(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.baseURL+"/api/tags", nil)
	if err != nil {
		return nil, fmt.Errorf("build ollama tags request: %w", err)
	}
	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list ollama models: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("list ollama models: unexpected status %d", resp.StatusCode)
	}

	var doc any
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode ollama tags: %w", err)
	}
	v, err := jmespath.Search("models[].name", doc)
	if err != nil {
		return nil, fmt.Errorf("extract ollama model names: %w", err)
	}
	raw, _ := v.([]any)
	names := make([]string, 0, len(raw))
	for _, n := range raw {
		if s, ok := n.(string); ok && s != "" {
			names = append(names, s)
		}
	}
	return names, nil
}
