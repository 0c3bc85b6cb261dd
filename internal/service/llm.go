package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/target/llmlab/config"
	"github.com/target/llmlab/internal/core"
	"github.com/target/llmlab/internal/domain/job"
	"github.com/target/llmlab/internal/domain/model"
	"github.com/target/llmlab/internal/observability/metrics"
	"github.com/target/llmlab/internal/observability/statsd"
)

const (
	modeSweep      = "sweep"
	modeMultiModel = "multi_model"

	processedMessage = "Request processed successfully"
)

// ErrNilLLMRequest is returned when Process is called without a request.
var ErrNilLLMRequest = errors.New("llm request is required")

// LLMServiceOptions groups dependencies for LLMService.
type LLMServiceOptions struct {
	Catalog   core.ModelCatalog          // Required: model id -> provider id
	Gateways  core.GatewayRegistry       // Required: provider id -> gateway
	Responses core.LLMResponseRepository // Optional: results are not persisted when nil
	Config    config.LLMConfig           // Required: concurrency, retry and timeout settings
	Metrics   statsd.Sink                // Optional: metrics sink
	Logger    *slog.Logger               // Optional: structured logger
}

// LLMService fans an experiment's prompt out to providers and aggregates the results.
type LLMService struct {
	catalog   core.ModelCatalog
	gateways  core.GatewayRegistry
	responses core.LLMResponseRepository
	runner    *job.Runner
	cfg       config.LLMConfig
	metrics   statsd.Sink
	logger    *slog.Logger
}

var _ core.ExperimentProcessor = (*LLMService)(nil)

// NewLLMService constructs a new LLMService.
func NewLLMService(opts LLMServiceOptions) (*LLMService, error) {
	if opts.Catalog == nil {
		return nil, errors.New("ModelCatalog is required")
	}
	if opts.Gateways == nil {
		return nil, errors.New("GatewayRegistry is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	runner, err := job.NewRunner(job.RunnerOptions{
		Config: job.Config{
			Concurrency:   opts.Config.Concurrency,
			Retries:       opts.Config.Retries,
			BackoffFactor: opts.Config.BackoffFactor,
			MaxBackoff:    opts.Config.MaxBackoff,
		},
		Logger: logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create job runner: %w", err)
	}
	if opts.Config.Timeout <= 0 {
		return nil, errors.New("LLM timeout must be positive")
	}

	return &LLMService{
		catalog:   opts.Catalog,
		gateways:  opts.Gateways,
		responses: opts.Responses,
		runner:    runner,
		cfg:       opts.Config,
		metrics:   opts.Metrics,
		logger:    logger.With("component", "llm_service"),
	}, nil
}

// MustNewLLMService is like NewLLMService but panics on error.
func MustNewLLMService(opts LLMServiceOptions) *LLMService {
	s, err := NewLLMService(opts)
	if err != nil {
		panic(err)
	}
	return s
}

// generationJob is one provider call with fixed sampling parameters.
type generationJob struct {
	gateway  core.LLMGateway
	provider string
	model    string
	params   model.ParameterSet
}

// Process runs every generation job of an experiment and persists the results.
//
// With req.SingleLLM the prompt is swept over all temperature/top_p
// combinations for one model and the batch fails fast: the first job that
// exhausts its retries aborts the run and its error is returned. Otherwise
// the prompt is sent once to every model and a model that keeps failing is
// reported as a failed result without affecting the others.
func (s *LLMService) Process(ctx context.Context, experimentID string, req *model.LLMRequest) (*model.LLMResponse, error) {
	if req == nil {
		return nil, ErrNilLLMRequest
	}

	start := time.Now()
	mode := modeMultiModel
	if req.SingleLLM {
		mode = modeSweep
	}
	s.logger.InfoContext(ctx, "processing experiment",
		"experiment_id", experimentID,
		"mode", mode,
		"models", req.Models,
		"temperatures", req.Temperatures,
		"top_ps", req.TopPs,
	)

	var (
		results []model.JobResult
		err     error
	)
	if req.SingleLLM {
		results, err = s.runSweep(ctx, req)
	} else {
		results, err = s.runMultiModel(ctx, req)
	}
	elapsed := time.Since(start)

	resp := model.NewLLMResponse(results, elapsed)
	resp.ExperimentID = experimentID
	metrics.EmitRun(s.metrics, metrics.RunMetric{
		Mode:       mode,
		Total:      resp.TotalRequests,
		Successful: resp.SuccessfulRequests,
		Duration:   elapsed,
		Err:        err,
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "experiment run failed",
			"experiment_id", experimentID,
			"error", err,
			"elapsed", elapsed,
		)
		return nil, err
	}

	s.saveResults(ctx, experimentID, results)

	resp.Message = processedMessage
	s.logger.InfoContext(ctx, "experiment run completed",
		"experiment_id", experimentID,
		"successful_requests", resp.SuccessfulRequests,
		"failed_requests", resp.FailedRequests,
		"execution_time", resp.ExecutionTime,
	)
	return resp, nil
}

func (s *LLMService) runSweep(ctx context.Context, req *model.LLMRequest) ([]model.JobResult, error) {
	if len(req.Models) == 0 {
		return nil, model.ErrSweepRequiresOneModel
	}

	modelID := req.Models[0]
	provider := ""
	if req.MockMode {
		provider, modelID = model.MockProvider, model.MockModel
	}
	target, err := s.resolve(ctx, modelID, provider)
	if err != nil {
		return nil, err
	}

	combos := model.ParameterCombinations(req.Temperatures, req.TopPs)
	jobs := make([]generationJob, len(combos))
	for i, params := range combos {
		jobs[i] = target
		jobs[i].params = params
	}

	return job.Run(ctx, s.runner, jobs, s.worker(req.Prompt))
}

func (s *LLMService) runMultiModel(ctx context.Context, req *model.LLMRequest) ([]model.JobResult, error) {
	params := req.FirstParameters(s.cfg.DefaultTemperature, s.cfg.DefaultTopP)

	jobs := make([]generationJob, len(req.Models))
	for i, modelID := range req.Models {
		target, err := s.resolve(ctx, modelID, "")
		if err != nil {
			return nil, err
		}
		target.params = params
		jobs[i] = target
	}

	settled, err := job.RunSettled(ctx, s.runner, jobs, s.worker(req.Prompt))
	if err != nil {
		return nil, err
	}
	results := make([]model.JobResult, len(settled))
	for i, st := range settled {
		if st.Err != nil {
			results[i] = model.NewFailureResult(jobs[i].provider, jobs[i].model, jobs[i].params, st.Err)
			continue
		}
		results[i] = st.Value
	}
	return results, nil
}

// resolve finds the gateway serving modelID. A non-empty provider skips the
// catalog lookup.
func (s *LLMService) resolve(ctx context.Context, modelID, provider string) (generationJob, error) {
	if provider == "" {
		p, err := s.catalog.ProviderFor(ctx, modelID)
		if err != nil {
			return generationJob{}, fmt.Errorf("resolve model %q: %w", modelID, err)
		}
		provider = p
	}
	gw, err := s.gateways.Gateway(provider)
	if err != nil {
		return generationJob{}, fmt.Errorf("resolve gateway for model %q: %w", modelID, err)
	}
	return generationJob{gateway: gw, provider: provider, model: modelID}, nil
}

func (s *LLMService) worker(prompt string) job.Worker[generationJob, model.JobResult] {
	return func(ctx context.Context, j generationJob) (model.JobResult, error) {
		start := time.Now()
		res, err := s.generate(ctx, j, prompt)
		metrics.EmitGeneration(s.metrics, metrics.GenerationMetric{
			Provider: j.provider,
			Model:    j.model,
			Success:  err == nil,
			Duration: time.Since(start),
			Err:      err,
		})
		return res, err
	}
}

type generateOutcome struct {
	result *core.GenerateResult
	err    error
}

// generate performs one provider call under the hard per-job timeout. The
// deadline holds even if the gateway ignores ctx: the call is abandoned and
// its eventual result discarded.
func (s *LLMService) generate(ctx context.Context, j generationJob, prompt string) (model.JobResult, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	done := make(chan generateOutcome, 1)
	go func() {
		res, err := j.gateway.Generate(callCtx, core.GenerateRequest{
			Prompt:      prompt,
			Temperature: j.params.Temperature,
			TopP:        j.params.TopP,
			MaxTokens:   s.cfg.MaxTokens,
			Model:       j.model,
		})
		done <- generateOutcome{result: res, err: err}
	}()

	var out generateOutcome
	select {
	case out = <-done:
	case <-callCtx.Done():
		if err := ctx.Err(); err != nil {
			return model.JobResult{}, err
		}
		return model.JobResult{}, s.providerError(j, core.ProviderErrorTimeout,
			fmt.Sprintf("timeout after %s for model=%s", s.cfg.Timeout, j.model))
	}

	if out.err != nil {
		if err := ctx.Err(); err != nil {
			return model.JobResult{}, err
		}
		if callCtx.Err() != nil && errors.Is(out.err, context.DeadlineExceeded) {
			return model.JobResult{}, s.providerError(j, core.ProviderErrorTimeout,
				fmt.Sprintf("timeout after %s for model=%s", s.cfg.Timeout, j.model))
		}
		if errors.Is(out.err, core.ErrUpstreamTimeout) || errors.Is(out.err, context.DeadlineExceeded) {
			return model.JobResult{}, s.providerError(j, core.ProviderErrorTimeout,
				fmt.Sprintf("upstream timeout for model=%s: %v", j.model, out.err))
		}
		return model.JobResult{}, fmt.Errorf("generate with %s: %w", j.provider, out.err)
	}

	res := out.result
	switch {
	case res == nil:
		return model.JobResult{}, s.providerError(j, core.ProviderErrorEmptyResult, "empty result from LLM")
	case !res.Success:
		return model.JobResult{}, s.providerError(j, core.ProviderErrorSignalled, "LLM signalled failure: "+res.Error)
	case res.ResponseText == "":
		return model.JobResult{}, s.providerError(j, core.ProviderErrorEmptyResponse, "LLM returned empty response")
	}

	return model.JobResult{
		Provider:      j.provider,
		Model:         j.model,
		Temperature:   j.params.Temperature,
		TopP:          j.params.TopP,
		ResponseText:  res.ResponseText,
		TokensUsed:    res.TokensUsed,
		ExecutionTime: res.ExecutionTime.Seconds(),
		Success:       true,
	}, nil
}

func (s *LLMService) providerError(j generationJob, kind core.ProviderErrorKind, msg string) error {
	return &core.ProviderError{Provider: j.provider, Model: j.model, Kind: kind, Message: msg}
}

// saveResults persists results. Failures are logged and never fail the run.
func (s *LLMService) saveResults(ctx context.Context, experimentID string, results []model.JobResult) {
	if s.responses == nil || experimentID == "" {
		return
	}
	saved, err := s.responses.SaveResults(ctx, experimentID, results)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to persist llm responses",
			"experiment_id", experimentID,
			"results", len(results),
			"error", err,
		)
		return
	}
	s.logger.InfoContext(ctx, "saved llm responses",
		"experiment_id", experimentID,
		"created_responses", len(saved),
	)
}
