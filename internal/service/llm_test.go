package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/target/llmlab/config"
	"github.com/target/llmlab/internal/adapters/llm"
	"github.com/target/llmlab/internal/core"
	"github.com/target/llmlab/internal/domain/model"
	"github.com/target/llmlab/internal/mocks"
)

func testLLMConfig() config.LLMConfig {
	return config.LLMConfig{
		Concurrency:        2,
		Retries:            1,
		BackoffFactor:      time.Millisecond,
		MaxBackoff:         2 * time.Millisecond,
		Timeout:            time.Second,
		MaxTokens:          100,
		DefaultTemperature: 0.7,
		DefaultTopP:        0.9,
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type llmFixture struct {
	catalog   *mocks.MockModelCatalog
	gateways  *mocks.MockGatewayRegistry
	responses *mocks.MockLLMResponseRepository
	svc       *LLMService
}

func newLLMFixture(t *testing.T, cfg config.LLMConfig) *llmFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	f := &llmFixture{
		catalog:   mocks.NewMockModelCatalog(ctrl),
		gateways:  mocks.NewMockGatewayRegistry(ctrl),
		responses: mocks.NewMockLLMResponseRepository(ctrl),
	}
	svc, err := NewLLMService(LLMServiceOptions{
		Catalog:   f.catalog,
		Gateways:  f.gateways,
		Responses: f.responses,
		Config:    cfg,
		Logger:    discardLogger(),
	})
	require.NoError(t, err)
	f.svc = svc
	return f
}

func (f *llmFixture) route(modelID, provider string, gw core.LLMGateway) {
	f.catalog.EXPECT().ProviderFor(gomock.Any(), modelID).Return(provider, nil).AnyTimes()
	f.gateways.EXPECT().Gateway(provider).Return(gw, nil).AnyTimes()
}

func okResult(text string) *core.GenerateResult {
	tokens := 7
	return &core.GenerateResult{
		ResponseText:  text,
		TokensUsed:    &tokens,
		ExecutionTime: 250 * time.Millisecond,
		Success:       true,
	}
}

func TestNewLLMService_RequiresDependencies(t *testing.T) {
	ctrl := gomock.NewController(t)
	catalog := mocks.NewMockModelCatalog(ctrl)
	gateways := mocks.NewMockGatewayRegistry(ctrl)

	_, err := NewLLMService(LLMServiceOptions{Gateways: gateways, Config: testLLMConfig()})
	require.EqualError(t, err, "ModelCatalog is required")

	_, err = NewLLMService(LLMServiceOptions{Catalog: catalog, Config: testLLMConfig()})
	require.EqualError(t, err, "GatewayRegistry is required")

	cfg := testLLMConfig()
	cfg.Concurrency = 0
	_, err = NewLLMService(LLMServiceOptions{Catalog: catalog, Gateways: gateways, Config: cfg})
	require.Error(t, err)

	cfg = testLLMConfig()
	cfg.Timeout = 0
	_, err = NewLLMService(LLMServiceOptions{Catalog: catalog, Gateways: gateways, Config: cfg})
	require.EqualError(t, err, "LLM timeout must be positive")
}

func TestLLMService_ProcessNilRequest(t *testing.T) {
	f := newLLMFixture(t, testLLMConfig())
	_, err := f.svc.Process(context.Background(), "exp-1", nil)
	require.ErrorIs(t, err, ErrNilLLMRequest)
}

func TestLLMService_SweepPreservesParameterOrder(t *testing.T) {
	f := newLLMFixture(t, testLLMConfig())
	gw := mocks.NewMockLLMGateway(gomock.NewController(t))
	f.route("gpt-4o", "openai", gw)

	gw.EXPECT().Generate(gomock.Any(), gomock.Any()).Times(2).DoAndReturn(
		func(_ context.Context, req core.GenerateRequest) (*core.GenerateResult, error) {
			assert.Equal(t, "hello", req.Prompt)
			assert.Equal(t, "gpt-4o", req.Model)
			assert.Equal(t, 100, req.MaxTokens)
			if req.Temperature == 0.2 {
				// The first job finishes last; positions must not follow completion order.
				time.Sleep(20 * time.Millisecond)
				return okResult("cold"), nil
			}
			return okResult("hot"), nil
		})

	var saved []model.JobResult
	f.responses.EXPECT().SaveResults(gomock.Any(), "exp-1", gomock.Any()).DoAndReturn(
		func(_ context.Context, _ string, results []model.JobResult) ([]*model.LLMResponseRecord, error) {
			saved = results
			return make([]*model.LLMResponseRecord, len(results)), nil
		})

	resp, err := f.svc.Process(context.Background(), "exp-1", &model.LLMRequest{
		Prompt:       "hello",
		Temperatures: []float64{0.2, 0.8},
		TopPs:        []float64{0.5},
		SingleLLM:    true,
		Models:       []string{"gpt-4o"},
	})
	require.NoError(t, err)

	require.Len(t, resp.Results, 2)
	assert.Equal(t, 0.2, resp.Results[0].Temperature)
	assert.Equal(t, "cold", resp.Results[0].ResponseText)
	assert.Equal(t, 0.8, resp.Results[1].Temperature)
	assert.Equal(t, "hot", resp.Results[1].ResponseText)
	for _, r := range resp.Results {
		assert.True(t, r.Success)
		assert.Equal(t, "openai", r.Provider)
		assert.Equal(t, 0.5, r.TopP)
		assert.InDelta(t, 0.25, r.ExecutionTime, 1e-9)
		require.NotNil(t, r.TokensUsed)
		assert.Equal(t, 7, *r.TokensUsed)
	}

	assert.True(t, resp.Success)
	assert.Equal(t, 2, resp.TotalRequests)
	assert.Equal(t, 2, resp.SuccessfulRequests)
	assert.Zero(t, resp.FailedRequests)
	assert.Equal(t, "Request processed successfully", resp.Message)
	assert.Equal(t, resp.Results, saved)
}

func TestLLMService_MockModeForcesMockProvider(t *testing.T) {
	f := newLLMFixture(t, testLLMConfig())
	// The catalog is never consulted in mock mode.
	f.gateways.EXPECT().Gateway(model.MockProvider).
		Return(llm.NewMockGateway(llm.MockGatewayOptions{}), nil)
	f.responses.EXPECT().SaveResults(gomock.Any(), "exp-1", gomock.Len(2)).Return(nil, nil)

	resp, err := f.svc.Process(context.Background(), "exp-1", &model.LLMRequest{
		Prompt:       "hello",
		Temperatures: []float64{0.1, 1.5},
		TopPs:        []float64{0.95},
		SingleLLM:    true,
		Models:       []string{"gpt-5"},
		MockMode:     true,
	})
	require.NoError(t, err)

	require.Len(t, resp.Results, 2)
	for _, r := range resp.Results {
		assert.Equal(t, "mock", r.Provider)
		assert.Equal(t, "mock-model", r.Model)
		assert.Equal(t, llm.MockResponseText(r.Temperature, r.TopP), r.ResponseText)
	}
	assert.Equal(t, 2, resp.SuccessfulRequests)
}

func TestLLMService_SweepFailsFast(t *testing.T) {
	f := newLLMFixture(t, testLLMConfig())
	gw := mocks.NewMockLLMGateway(gomock.NewController(t))
	f.route("gpt-4o", "openai", gw)

	var calls atomic.Int32
	gw.EXPECT().Generate(gomock.Any(), gomock.Any()).AnyTimes().DoAndReturn(
		func(ctx context.Context, req core.GenerateRequest) (*core.GenerateResult, error) {
			calls.Add(1)
			if req.Temperature == 0.9 {
				return &core.GenerateResult{Error: "API error: 500 (provider)"}, nil
			}
			<-ctx.Done()
			return nil, ctx.Err()
		})
	// No SaveResults expectation: a failed sweep persists nothing.

	resp, err := f.svc.Process(context.Background(), "exp-1", &model.LLMRequest{
		Prompt:       "hello",
		Temperatures: []float64{0.1, 0.9},
		TopPs:        []float64{1},
		SingleLLM:    true,
		Models:       []string{"gpt-4o"},
	})
	require.Error(t, err)
	assert.Nil(t, resp)

	var pe *core.ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, core.ProviderErrorSignalled, pe.Kind)
	assert.Equal(t, "openai", pe.Provider)
	assert.Equal(t, "LLM signalled failure: API error: 500 (provider)", err.Error())
	// One blocked call plus two attempts of the failing job.
	assert.Equal(t, int32(3), calls.Load())
}

func TestLLMService_MultiModelRecordsFailures(t *testing.T) {
	f := newLLMFixture(t, testLLMConfig())
	ctrl := gomock.NewController(t)
	gwA := mocks.NewMockLLMGateway(ctrl)
	gwB := mocks.NewMockLLMGateway(ctrl)
	f.route("model-a", "openai", gwA)
	f.route("model-b", "anthropic", gwB)

	gwA.EXPECT().Generate(gomock.Any(), gomock.Any()).Return(okResult("from a"), nil)
	gwB.EXPECT().Generate(gomock.Any(), gomock.Any()).Times(2).
		Return(&core.GenerateResult{Success: false, Error: "API error: 401 (auth)"}, nil)
	f.responses.EXPECT().SaveResults(gomock.Any(), "exp-1", gomock.Len(2)).Return(nil, nil)

	resp, err := f.svc.Process(context.Background(), "exp-1", &model.LLMRequest{
		Prompt:       "hello",
		Temperatures: []float64{0.3, 1.1},
		TopPs:        []float64{0.6},
		Models:       []string{"model-a", "model-b"},
	})
	require.NoError(t, err)

	require.Len(t, resp.Results, 2)
	a, b := resp.Results[0], resp.Results[1]
	assert.True(t, a.Success)
	assert.Equal(t, "model-a", a.Model)
	assert.Equal(t, 0.3, a.Temperature)
	assert.Equal(t, 0.6, a.TopP)

	assert.False(t, b.Success)
	assert.Equal(t, "anthropic", b.Provider)
	assert.Equal(t, "model-b", b.Model)
	assert.Equal(t, 0.3, b.Temperature)
	require.NotNil(t, b.Error)
	assert.Contains(t, *b.Error, "API error: 401 (auth)")

	assert.Equal(t, 2, resp.TotalRequests)
	assert.Equal(t, 1, resp.SuccessfulRequests)
	assert.Equal(t, 1, resp.FailedRequests)
}

func TestLLMService_MultiModelDefaultsParameters(t *testing.T) {
	f := newLLMFixture(t, testLLMConfig())
	gw := mocks.NewMockLLMGateway(gomock.NewController(t))
	f.route("model-a", "openai", gw)

	gw.EXPECT().Generate(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req core.GenerateRequest) (*core.GenerateResult, error) {
			assert.Equal(t, 0.7, req.Temperature)
			assert.Equal(t, 0.9, req.TopP)
			return okResult("ok"), nil
		})
	f.responses.EXPECT().SaveResults(gomock.Any(), "exp-1", gomock.Any()).Return(nil, nil)

	resp, err := f.svc.Process(context.Background(), "exp-1", &model.LLMRequest{
		Prompt: "hello",
		Models: []string{"model-a"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.SuccessfulRequests)
}

func TestLLMService_UnknownModelFailsBeforeDispatch(t *testing.T) {
	f := newLLMFixture(t, testLLMConfig())
	gw := mocks.NewMockLLMGateway(gomock.NewController(t))
	f.route("model-a", "openai", gw)
	f.catalog.EXPECT().ProviderFor(gomock.Any(), "nope").Return("", llm.ErrUnknownModel)

	_, err := f.svc.Process(context.Background(), "exp-1", &model.LLMRequest{
		Prompt: "hello",
		Models: []string{"model-a", "nope"},
	})
	require.ErrorIs(t, err, llm.ErrUnknownModel)
}

func TestLLMService_InvalidResultsAreProviderErrors(t *testing.T) {
	tests := []struct {
		name    string
		result  *core.GenerateResult
		kind    core.ProviderErrorKind
		message string
	}{
		{
			name:    "nil result",
			kind:    core.ProviderErrorEmptyResult,
			message: "empty result from LLM",
		},
		{
			name:    "signalled failure",
			result:  &core.GenerateResult{Error: "API error: 429 (rate_limit)"},
			kind:    core.ProviderErrorSignalled,
			message: "LLM signalled failure: API error: 429 (rate_limit)",
		},
		{
			name:    "empty text",
			result:  &core.GenerateResult{Success: true},
			kind:    core.ProviderErrorEmptyResponse,
			message: "LLM returned empty response",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testLLMConfig()
			cfg.Retries = 0
			f := newLLMFixture(t, cfg)
			gw := mocks.NewMockLLMGateway(gomock.NewController(t))
			f.route("gpt-4o", "openai", gw)
			gw.EXPECT().Generate(gomock.Any(), gomock.Any()).Return(tt.result, nil)

			_, err := f.svc.Process(context.Background(), "exp-1", &model.LLMRequest{
				Prompt:       "hello",
				Temperatures: []float64{0.5},
				TopPs:        []float64{0.5},
				SingleLLM:    true,
				Models:       []string{"gpt-4o"},
			})
			var pe *core.ProviderError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, tt.kind, pe.Kind)
			assert.Equal(t, "gpt-4o", pe.Model)
			assert.Equal(t, tt.message, pe.Message)
		})
	}
}

func TestLLMService_HardTimeoutIgnoresGatewayContext(t *testing.T) {
	cfg := testLLMConfig()
	cfg.Retries = 0
	cfg.Timeout = 20 * time.Millisecond
	f := newLLMFixture(t, cfg)
	gw := mocks.NewMockLLMGateway(gomock.NewController(t))
	f.route("slow-model", "ollama", gw)

	release := make(chan struct{})
	t.Cleanup(func() { close(release) })
	gw.EXPECT().Generate(gomock.Any(), gomock.Any()).DoAndReturn(
		func(context.Context, core.GenerateRequest) (*core.GenerateResult, error) {
			<-release
			return okResult("too late"), nil
		})
	f.responses.EXPECT().SaveResults(gomock.Any(), "exp-1", gomock.Any()).Return(nil, nil)

	start := time.Now()
	resp, err := f.svc.Process(context.Background(), "exp-1", &model.LLMRequest{
		Prompt: "hello",
		Models: []string{"slow-model"},
	})
	require.NoError(t, err)
	assert.Less(t, time.Since(start), time.Second)

	require.Len(t, resp.Results, 1)
	res := resp.Results[0]
	assert.False(t, res.Success)
	require.NotNil(t, res.Error)
	assert.Equal(t, "timeout after 20ms for model=slow-model", *res.Error)
	assert.Equal(t, 1, resp.FailedRequests)
}

func TestLLMService_TransportTimeoutIsTimeoutKind(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-release
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(func() {
		close(release)
		srv.Close()
	})

	cfg := testLLMConfig()
	cfg.Retries = 0
	cfg.Timeout = 2 * time.Second
	f := newLLMFixture(t, cfg)
	gw := llm.NewOllamaGateway(llm.HTTPGatewayOptions{
		BaseURL:    srv.URL,
		HTTPClient: &http.Client{Timeout: 50 * time.Millisecond},
		Logger:     discardLogger(),
	})
	f.route("llama3.1:8b", llm.ProviderOllama, gw)

	start := time.Now()
	_, err := f.svc.Process(context.Background(), "exp-1", &model.LLMRequest{
		Prompt:       "hello",
		Models:       []string{"llama3.1:8b"},
		Temperatures: []float64{0.5},
		TopPs:        []float64{0.9},
		SingleLLM:    true,
	})
	require.Error(t, err)
	assert.Less(t, time.Since(start), cfg.Timeout)

	var pe *core.ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, core.ProviderErrorTimeout, pe.Kind)
	assert.Equal(t, llm.ProviderOllama, pe.Provider)
	assert.Contains(t, pe.Message, "upstream timeout for model=llama3.1:8b")
}

func TestLLMService_PersistenceFailureIsSwallowed(t *testing.T) {
	f := newLLMFixture(t, testLLMConfig())
	gw := mocks.NewMockLLMGateway(gomock.NewController(t))
	f.route("model-a", "openai", gw)
	gw.EXPECT().Generate(gomock.Any(), gomock.Any()).Return(okResult("ok"), nil)
	f.responses.EXPECT().SaveResults(gomock.Any(), "exp-1", gomock.Any()).
		Return(nil, errors.New("connection refused"))

	resp, err := f.svc.Process(context.Background(), "exp-1", &model.LLMRequest{
		Prompt: "hello",
		Models: []string{"model-a"},
	})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, 1, resp.SuccessfulRequests)
}

func TestLLMService_CancellationIsNotRetried(t *testing.T) {
	f := newLLMFixture(t, testLLMConfig())
	gw := mocks.NewMockLLMGateway(gomock.NewController(t))
	f.route("model-a", "openai", gw)

	ctx, cancel := context.WithCancel(context.Background())
	started := make(chan struct{})
	gw.EXPECT().Generate(gomock.Any(), gomock.Any()).Times(1).DoAndReturn(
		func(ctx context.Context, _ core.GenerateRequest) (*core.GenerateResult, error) {
			close(started)
			<-ctx.Done()
			return nil, ctx.Err()
		})

	go func() {
		<-started
		cancel()
	}()

	resp, err := f.svc.Process(ctx, "exp-1", &model.LLMRequest{
		Prompt: "hello",
		Models: []string{"model-a"},
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, resp)
	assert.False(t, core.IsProviderError(err))
}
