package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/target/llmlab/internal/adapters/llm"
	"github.com/target/llmlab/internal/bootstrap"
	"github.com/target/llmlab/internal/core"
	"github.com/target/llmlab/internal/data"
	"github.com/target/llmlab/internal/domain/model"
)

const (
	defaultRunTimeout   = 10 * time.Minute
	defaultQueryTimeout = 30 * time.Second
	responsePreviewLen  = 60
)

type modelsOptions struct {
	JSON bool
}

type runOptions struct {
	Request model.LLMRequest
	Timeout time.Duration
	JSON    bool
}

type statusOptions struct {
	ID   string
	JSON bool
}

type listExperimentsOptions struct {
	Status string
	Limit  int
	Offset int
}

type clearViewCacheOptions struct {
	ID string
}

func runListModels(cmdCtx *commandContext, args []string) error {
	opts, err := parseModelsFlags(args)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, defaultQueryTimeout)
	defer cancel()

	catalogOpts := llm.CatalogOptions{
		Extra:  cmdCtx.Config.Providers.ModelProviders,
		Logger: cmdCtx.Logger,
	}
	if cmdCtx.Config.Providers.OllamaDiscovery {
		catalogOpts.Ollama = llm.NewOllamaModels(cmdCtx.Config.Providers.Ollama.BaseURL, nil)
	}
	models := llm.NewCatalog(catalogOpts).Models(ctx)

	if opts.JSON {
		return writeJSON(cmdCtx.Stdout, model.ModelsResponse{Models: models})
	}
	return renderModels(cmdCtx.Stdout, models)
}

func runExperiment(cmdCtx *commandContext, args []string) error {
	opts, err := parseRunFlags(args)
	if err != nil {
		return err
	}
	if validateErr := opts.Request.Validate(); validateErr != nil {
		return fmt.Errorf("invalid request: %w", validateErr)
	}

	return withServices(cmdCtx, opts.Timeout, false, func(ctx context.Context, svcs bootstrap.ServiceContainer) error {
		cmdCtx.Logger.InfoContext(ctx, "running experiment", "single_llm", opts.Request.SingleLLM, "models", opts.Request.Models)

		exp, resp, runErr := svcs.Experiments.SubmitSync(ctx, &opts.Request)
		if runErr != nil {
			if exp != nil {
				return fmt.Errorf("experiment %s: %w", exp.ID, runErr)
			}
			return fmt.Errorf("start experiment: %w", runErr)
		}
		resp.ExperimentID = exp.ID

		if opts.JSON {
			return writeJSON(cmdCtx.Stdout, resp)
		}
		return renderRunResponse(cmdCtx.Stdout, resp)
	})
}

func runStatus(cmdCtx *commandContext, args []string) error {
	opts, err := parseStatusFlags(args)
	if err != nil {
		return err
	}

	return withServices(cmdCtx, defaultQueryTimeout, true, func(ctx context.Context, svcs bootstrap.ServiceContainer) error {
		view, statusErr := svcs.Experiments.Status(ctx, opts.ID)
		if statusErr != nil {
			return statusErr
		}
		if view == nil {
			return fmt.Errorf("experiment %s not found", opts.ID)
		}
		if opts.JSON {
			return writeJSON(cmdCtx.Stdout, view)
		}
		return renderExperimentView(cmdCtx.Stdout, view)
	})
}

func runListExperiments(cmdCtx *commandContext, args []string) error {
	opts, listOpts, err := parseListExperimentsFlags(args)
	if err != nil {
		return err
	}
	cmdCtx.Logger.Debug("listing experiments", "status", opts.Status, "limit", opts.Limit, "offset", opts.Offset)

	return withServices(cmdCtx, defaultQueryTimeout, false, func(ctx context.Context, svcs bootstrap.ServiceContainer) error {
		experiments, listErr := svcs.Experiments.List(ctx, listOpts)
		if listErr != nil {
			return listErr
		}
		return renderExperiments(cmdCtx.Stdout, experiments)
	})
}

func runClearViewCache(cmdCtx *commandContext, args []string) error {
	opts, err := parseClearViewCacheFlags(args)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, defaultQueryTimeout)
	defer cancel()

	redisClient, err := maybeConnectRedis(cmdCtx.Logger, &cmdCtx.Config.Redis)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := redisClient.Close(); closeErr != nil {
			cmdCtx.Logger.Warn("redis close failed", "error", closeErr)
		}
	}()

	cache := core.NewExperimentViewCache(core.ExperimentViewCacheOptions{
		Cache:     data.NewRedisCacheRepo(redisClient),
		TTL:       cmdCtx.Config.Cache.ExperimentTTL,
		KeyPrefix: cmdCtx.Config.Cache.KeyPrefix,
	})
	if invErr := cache.Invalidate(ctx, opts.ID); invErr != nil {
		return fmt.Errorf("invalidate experiment view: %w", invErr)
	}
	cmdCtx.Logger.Info("experiment view cache cleared", "experiment_id", opts.ID)
	return nil
}

// withServices connects infrastructure, builds the service container and runs f
// under a context cancelled by SIGINT/SIGTERM or the timeout.
func withServices(
	cmdCtx *commandContext,
	timeout time.Duration,
	wantRedis bool,
	f func(context.Context, bootstrap.ServiceContainer) error,
) error {
	ctx, stop := signal.NotifyContext(cmdCtx.Ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	db, redisClient, err := connectInfra(&connectInfraOptions{
		Logger:    cmdCtx.Logger,
		Config:    &cmdCtx.Config,
		WantRedis: wantRedis && cmdCtx.Config.Cache.Enabled,
	})
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := closeInfra(db, redisClient); closeErr != nil {
			cmdCtx.Logger.Warn("close infrastructure failed", "error", closeErr)
		}
	}()

	svcs, err := bootstrap.NewServices(&bootstrap.ServiceDeps{
		Config:      &cmdCtx.Config,
		DB:          db,
		RedisClient: redisClient,
		Logger:      cmdCtx.Logger,
	})
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := svcs.Observability.Close(); closeErr != nil {
			cmdCtx.Logger.Warn("close metrics sink failed", "error", closeErr)
		}
	}()

	return f(ctx, svcs)
}

func parseModelsFlags(args []string) (modelsOptions, error) {
	fs := flag.NewFlagSet("models", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := modelsOptions{}
	fs.BoolVar(&opts.JSON, "json", false, "Print the model list as JSON")
	if err := fs.Parse(args); err != nil {
		return modelsOptions{}, err
	}
	return opts, nil
}

func parseRunFlags(args []string) (runOptions, error) {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var (
		opts         runOptions
		models       string
		temperatures string
		topPs        string
	)
	fs.StringVar(&opts.Request.Prompt, "prompt", "", "Prompt to send (required)")
	fs.StringVar(&models, "models", "", "Comma-separated model ids (required)")
	fs.StringVar(&temperatures, "temperatures", "", "Comma-separated temperatures, e.g. 0.2,0.7")
	fs.StringVar(&topPs, "top-ps", "", "Comma-separated top_p values, e.g. 0.9,1.0")
	fs.BoolVar(&opts.Request.SingleLLM, "single", false, "Sweep every temperature/top_p pair over one model")
	fs.BoolVar(&opts.Request.MockMode, "mock", false, "Route the sweep to the mock provider")
	fs.StringVar(&opts.Request.ExperimentName, "name", "", "Experiment name; generated when empty")
	fs.DurationVar(&opts.Timeout, "timeout", defaultRunTimeout, "Maximum duration for the whole run")
	fs.BoolVar(&opts.JSON, "json", false, "Print the response as JSON")

	if err := fs.Parse(args); err != nil {
		return runOptions{}, err
	}
	if opts.Timeout <= 0 {
		return runOptions{}, errors.New("--timeout must be greater than zero")
	}

	opts.Request.Models = splitList(models)
	var err error
	if opts.Request.Temperatures, err = parseFloatList("--temperatures", temperatures); err != nil {
		return runOptions{}, err
	}
	if opts.Request.TopPs, err = parseFloatList("--top-ps", topPs); err != nil {
		return runOptions{}, err
	}
	return opts, nil
}

func parseStatusFlags(args []string) (statusOptions, error) {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := statusOptions{}
	fs.StringVar(&opts.ID, "id", "", "Experiment id (required)")
	fs.BoolVar(&opts.JSON, "json", false, "Print the experiment as JSON")
	if err := fs.Parse(args); err != nil {
		return statusOptions{}, err
	}
	opts.ID = strings.TrimSpace(opts.ID)
	if opts.ID == "" {
		return statusOptions{}, errors.New("--id is required")
	}
	return opts, nil
}

func parseListExperimentsFlags(args []string) (listExperimentsOptions, model.ListExperimentsOptions, error) {
	fs := flag.NewFlagSet("list-experiments", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := listExperimentsOptions{}
	fs.StringVar(&opts.Status, "status", "", "Only list experiments in this status")
	fs.IntVar(&opts.Limit, "limit", 20, "Maximum number of experiments to list")
	fs.IntVar(&opts.Offset, "offset", 0, "Number of experiments to skip")
	if err := fs.Parse(args); err != nil {
		return listExperimentsOptions{}, model.ListExperimentsOptions{}, err
	}
	if opts.Limit <= 0 {
		return listExperimentsOptions{}, model.ListExperimentsOptions{}, errors.New("--limit must be greater than zero")
	}
	if opts.Offset < 0 {
		return listExperimentsOptions{}, model.ListExperimentsOptions{}, errors.New("--offset must not be negative")
	}

	listOpts := model.ListExperimentsOptions{Limit: opts.Limit, Offset: opts.Offset}
	if opts.Status != "" {
		var status model.ExperimentStatus
		if err := status.UnmarshalText([]byte(opts.Status)); err != nil {
			return listExperimentsOptions{}, model.ListExperimentsOptions{}, err
		}
		listOpts.Status = &status
	}
	return opts, listOpts, nil
}

func parseClearViewCacheFlags(args []string) (clearViewCacheOptions, error) {
	fs := flag.NewFlagSet("clear-view-cache", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := clearViewCacheOptions{}
	fs.StringVar(&opts.ID, "id", "", "Experiment id (required)")
	if err := fs.Parse(args); err != nil {
		return clearViewCacheOptions{}, err
	}
	opts.ID = strings.TrimSpace(opts.ID)
	if opts.ID == "" {
		return clearViewCacheOptions{}, errors.New("--id is required")
	}
	return opts, nil
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseFloatList(flagName, raw string) ([]float64, error) {
	items := splitList(raw)
	out := make([]float64, 0, len(items))
	for _, item := range items {
		v, err := strconv.ParseFloat(item, 64)
		if err != nil {
			return nil, fmt.Errorf("%s: invalid number %q", flagName, item)
		}
		out = append(out, v)
	}
	return out, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

func renderModels(w io.Writer, models []model.ModelInfo) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if err := writef(tw, "ID\tPROVIDER\tNAME\n"); err != nil {
		return err
	}
	for _, m := range models {
		if err := writef(tw, "%s\t%s\t%s\n", m.ID, m.Provider, m.Name); err != nil {
			return err
		}
	}
	return tw.Flush()
}

func renderRunResponse(w io.Writer, resp *model.LLMResponse) error {
	if err := writef(w, "Experiment: %s\n", resp.ExperimentID); err != nil {
		return err
	}
	if err := writef(w, "Requests: %d total, %d succeeded, %d failed in %.2fs\n\n",
		resp.TotalRequests, resp.SuccessfulRequests, resp.FailedRequests, resp.ExecutionTime); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if err := writef(tw, "#\tPROVIDER\tMODEL\tTEMP\tTOP_P\tTIME\tRESULT\n"); err != nil {
		return err
	}
	for i, r := range resp.Results {
		if err := writef(tw, "%d\t%s\t%s\t%.2f\t%.2f\t%.2fs\t%s\n",
			i+1, r.Provider, r.Model, r.Temperature, r.TopP, r.ExecutionTime, resultSummary(r.Success, r.ResponseText, r.Error)); err != nil {
			return err
		}
	}
	return tw.Flush()
}

func renderExperimentView(w io.Writer, view *model.ExperimentView) error {
	if err := writef(w, "Experiment: %s (%s)\nStatus: %s\nCreated: %s\n",
		view.ID, view.Name, view.Status, view.CreatedAt.Format(time.RFC3339)); err != nil {
		return err
	}
	if view.ErrorMessage != nil {
		if err := writef(w, "Error: %s\n", *view.ErrorMessage); err != nil {
			return err
		}
	}
	if view.Status != model.ExperimentStatusCompleted {
		return nil
	}
	if err := writef(w, "Requests: %d total, %d succeeded, %d failed\n\n",
		view.TotalRequests, view.SuccessfulRequests, view.FailedRequests); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if err := writef(tw, "#\tPROVIDER\tMODEL\tTEMP\tTOP_P\tRESULT\n"); err != nil {
		return err
	}
	for _, r := range view.Results {
		if err := writef(tw, "%d\t%s\t%s\t%.2f\t%.2f\t%s\n",
			r.Position+1, r.Provider, r.Model, r.Temperature, r.TopP, resultSummary(r.Success, r.ResponseText, r.Error)); err != nil {
			return err
		}
	}
	return tw.Flush()
}

func renderExperiments(w io.Writer, experiments []*model.Experiment) error {
	if len(experiments) == 0 {
		return writeln(w, "(no experiments found)")
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if err := writef(tw, "ID\tNAME\tSTATUS\tCREATED\n"); err != nil {
		return err
	}
	for _, e := range experiments {
		if err := writef(tw, "%s\t%s\t%s\t%s\n", e.ID, e.Name, e.Status, e.CreatedAt.Format(time.RFC3339)); err != nil {
			return err
		}
	}
	return tw.Flush()
}

func resultSummary(success bool, text string, errMsg *string) string {
	if !success {
		if errMsg == nil {
			return "error"
		}
		return "error: " + *errMsg
	}
	text = strings.Join(strings.Fields(text), " ")
	if r := []rune(text); len(r) > responsePreviewLen {
		return string(r[:responsePreviewLen]) + "..."
	}
	return text
}
