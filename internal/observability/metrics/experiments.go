// Package metrics defines the metrics emitted by the experiment runner.
package metrics

import (
	"time"

	obserrors "github.com/target/llmlab/internal/observability/errors"
	"github.com/target/llmlab/internal/observability/statsd"
)

// Result constants for metric tagging.
const (
	ResultSuccess = "success"
	ResultError   = "error"
	ResultNoop    = "noop"
)

// GenerationMetric describes the outcome of one generation job.
type GenerationMetric struct {
	Provider string
	Model    string
	Success  bool
	Duration time.Duration
	Err      error
}

// EmitGeneration records one generation job outcome.
func EmitGeneration(sink statsd.Sink, in GenerationMetric) {
	if sink == nil {
		return
	}
	tags := map[string]string{
		"provider": in.Provider,
		"model":    in.Model,
		"result":   ResultSuccess,
	}
	if !in.Success {
		tags["result"] = ResultError
		if class := obserrors.Classify(in.Err); class != "" {
			tags["error_class"] = class
		}
	}
	sink.Count("llm.generation", 1, tags)
	if in.Duration > 0 {
		sink.Timing("llm.generation.duration", in.Duration, CloneTags(tags))
	}
}

// RunMetric summarises one orchestrated experiment run.
type RunMetric struct {
	Mode       string
	Total      int
	Successful int
	Duration   time.Duration
	Err        error
}

// EmitRun records the aggregate outcome of an experiment run.
func EmitRun(sink statsd.Sink, in RunMetric) {
	if sink == nil {
		return
	}
	tags := map[string]string{"mode": in.Mode, "result": ResultSuccess}
	if in.Err != nil {
		tags["result"] = ResultError
		tags["error_class"] = obserrors.Classify(in.Err)
	}
	sink.Count("experiment.run", 1, tags)
	sink.Gauge("experiment.run.jobs", float64(in.Total), CloneTags(tags))
	sink.Gauge("experiment.run.failed_jobs", float64(in.Total-in.Successful), CloneTags(tags))
	if in.Duration > 0 {
		sink.Timing("experiment.run.duration", in.Duration, CloneTags(tags))
	}
}

// TransitionMetric describes an experiment status change attempt.
type TransitionMetric struct {
	To     string
	Result string
}

// EmitTransition records an experiment status transition. Result is
// ResultNoop when another actor already moved the experiment.
func EmitTransition(sink statsd.Sink, in TransitionMetric) {
	if sink == nil {
		return
	}
	sink.Count("experiment.transition", 1, map[string]string{"to": in.To, "result": in.Result})
}

// CloneTags creates a shallow copy of a tag map.
func CloneTags(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
