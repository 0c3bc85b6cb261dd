package llm

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/llmlab/internal/core"
)

func constRandom(v float64) func() float64 {
	return func() float64 { return v }
}

func TestMockResponseText(t *testing.T) {
	tests := []struct {
		name     string
		temp     float64
		topP     float64
		prefix   string
		contains []string
		excludes []string
	}{
		{
			name:     "conservative and focused",
			temp:     0.1,
			topP:     0.2,
			prefix:   mockResponses[0],
			contains: []string{"[Conservative mode - temp: 0.10]", "[Focused sampling - top_p: 0.20]"},
		},
		{
			name:     "no annotations in the middle band",
			temp:     0.7,
			topP:     0.9,
			prefix:   mockResponses[3],
			excludes: []string{"["},
		},
		{
			name:     "creative and diverse",
			temp:     1.5,
			topP:     0.95,
			prefix:   mockResponses[4],
			contains: []string{"[High creativity mode - temp: 1.50]", "[Diverse sampling - top_p: 0.95]"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MockResponseText(tt.temp, tt.topP)
			assert.True(t, strings.HasPrefix(got, tt.prefix), got)
			for _, s := range tt.contains {
				assert.Contains(t, got, s)
			}
			for _, s := range tt.excludes {
				assert.NotContains(t, got, s)
			}
		})
	}
}

func TestMockGateway_Generate(t *testing.T) {
	gw := NewMockGateway(MockGatewayOptions{Float64: constRandom(0.5)})
	assert.Equal(t, ProviderMock, gw.Provider())

	res, err := gw.Generate(context.Background(), core.GenerateRequest{Prompt: "p", Temperature: 0.5, TopP: 0.5, Model: "mock-model"})
	require.NoError(t, err)
	require.True(t, res.Success)
	assert.Equal(t, MockResponseText(0.5, 0.5), res.ResponseText)

	require.NotNil(t, res.TokensUsed)
	want := len(strings.Fields(res.ResponseText)) + 25 + 15
	assert.Equal(t, want, *res.TokensUsed)
}

func TestMockGateway_Deterministic(t *testing.T) {
	gw := NewMockGateway(MockGatewayOptions{Float64: constRandom(0.9)})
	req := core.GenerateRequest{Prompt: "p", Temperature: 0.3, TopP: 0.4, Model: "mock-model"}

	a, err := gw.Generate(context.Background(), req)
	require.NoError(t, err)
	b, err := gw.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, a.ResponseText, b.ResponseText)
}

func TestMockGateway_SimulatedFailure(t *testing.T) {
	gw := NewMockGateway(MockGatewayOptions{FailureRate: 0.5, Float64: constRandom(0.1)})

	res, err := gw.Generate(context.Background(), core.GenerateRequest{Model: "mock-model"})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "mock provider simulated failure", res.Error)
}

func TestMockGateway_ContextCancelled(t *testing.T) {
	gw := NewMockGateway(MockGatewayOptions{MinDelay: time.Second, MaxDelay: time.Second})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := gw.Generate(ctx, core.GenerateRequest{Model: "mock-model"})
	require.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, res)
}
