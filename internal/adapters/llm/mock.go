package llm

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/target/llmlab/internal/core"
)

var mockResponses = []string{
	"This is a mock response from the LLM. It demonstrates how the system works with parameter variations.",
	"Here's another mock response that shows the diversity of outputs you can expect.",
	"Mock response #3: This simulates different creative outputs based on temperature and top_p settings.",
	"Another simulated response that varies based on the input parameters you've configured.",
	"Final mock response demonstrating the parameter sweep functionality in action.",
}

// MockGatewayOptions tunes the mock gateway.
type MockGatewayOptions struct {
	MinDelay    time.Duration
	MaxDelay    time.Duration
	FailureRate float64
	// Float64 returns values in [0, 1); defaults to math/rand/v2.
	Float64 func() float64
}

// MockGateway answers with canned text after a simulated delay. The chosen
// response depends only on temperature and top_p.
type MockGateway struct {
	minDelay    time.Duration
	maxDelay    time.Duration
	failureRate float64
	random      func() float64
}

// NewMockGateway creates a mock gateway.
func NewMockGateway(opts MockGatewayOptions) *MockGateway {
	f := opts.Float64
	if f == nil {
		f = rand.Float64 // #nosec G404 -- simulated latency and failures only
	}
	maxDelay := opts.MaxDelay
	if maxDelay < opts.MinDelay {
		maxDelay = opts.MinDelay
	}
	return &MockGateway{
		minDelay:    opts.MinDelay,
		maxDelay:    maxDelay,
		failureRate: opts.FailureRate,
		random:      f,
	}
}

// Provider returns the provider id.
func (g *MockGateway) Provider() string { return ProviderMock }

// Generate simulates a generation call. Higher temperatures take longer.
func (g *MockGateway) Generate(ctx context.Context, req core.GenerateRequest) (*core.GenerateResult, error) {
	start := time.Now()

	span := float64(g.maxDelay - g.minDelay)
	delay := time.Duration((float64(g.minDelay) + g.random()*span) * (1 + req.Temperature))
	if delay > 0 {
		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		case <-t.C:
		}
	}

	if g.random() < g.failureRate {
		return &core.GenerateResult{
			ExecutionTime: time.Since(start),
			Error:         "mock provider simulated failure",
		}, nil
	}

	text := MockResponseText(req.Temperature, req.TopP)
	tokens := len(strings.Fields(text)) + int(req.Temperature*50) + int(req.TopP*30)
	return &core.GenerateResult{
		ResponseText:  text,
		TokensUsed:    &tokens,
		ExecutionTime: time.Since(start),
		Success:       true,
	}, nil
}

// MockResponseText returns the canned response for a parameter pair.
func MockResponseText(temperature, topP float64) string {
	idx := int((temperature+topP)*2) % len(mockResponses)
	text := mockResponses[idx]

	switch {
	case temperature > 1.0:
		text += fmt.Sprintf(" [High creativity mode - temp: %.2f]", temperature)
	case temperature < 0.3:
		text += fmt.Sprintf(" [Conservative mode - temp: %.2f]", temperature)
	}
	switch {
	case topP < 0.5:
		text += fmt.Sprintf(" [Focused sampling - top_p: %.2f]", topP)
	case topP > 0.9:
		text += fmt.Sprintf(" [Diverse sampling - top_p: %.2f]", topP)
	}
	return text
}
