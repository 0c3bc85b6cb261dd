package model

import "time"

// JobResult is the normalized outcome of one generation job. Success results
// carry ResponseText; failures carry Error.
type JobResult struct {
	Provider      string  `json:"provider"`
	Model         string  `json:"model"`
	Temperature   float64 `json:"temperature"`
	TopP          float64 `json:"top_p"`
	ResponseText  string  `json:"response"`
	TokensUsed    *int    `json:"tokens_used,omitempty"`
	ExecutionTime float64 `json:"execution_time"`
	Success       bool    `json:"success"`
	Error         *string `json:"error,omitempty"`
}

// NewFailureResult builds a failed JobResult for the given parameters.
func NewFailureResult(provider, model string, params ParameterSet, err error) JobResult {
	msg := err.Error()
	return JobResult{
		Provider:    provider,
		Model:       model,
		Temperature: params.Temperature,
		TopP:        params.TopP,
		Success:     false,
		Error:       &msg,
	}
}

// LLMResponseRecord is a persisted JobResult. ExecutionTime is in seconds.
type LLMResponseRecord struct {
	ID            string    `json:"id"              db:"id"`
	ExperimentID  string    `json:"experiment_id"   db:"experiment_id"`
	Position      int       `json:"position"        db:"position"`
	Provider      string    `json:"provider"        db:"provider"`
	Model         string    `json:"model"           db:"model"`
	Temperature   float64   `json:"temperature"     db:"temperature"`
	TopP          float64   `json:"top_p"           db:"top_p"`
	ResponseText  string    `json:"response_text"   db:"response_text"`
	TokensUsed    *int      `json:"tokens_used"     db:"tokens_used"`
	ExecutionTime float64   `json:"execution_time"  db:"execution_time"`
	Success       bool      `json:"success"         db:"success"`
	Error         *string   `json:"error,omitempty" db:"error"`
	CreatedAt     time.Time `json:"created_at"      db:"created_at"`
}

// LLMResponse aggregates the results of one experiment run. ExecutionTime is
// wall-clock seconds for the whole run.
type LLMResponse struct {
	ExperimentID       string      `json:"experiment_id,omitempty"`
	Success            bool        `json:"success"`
	Results            []JobResult `json:"results"`
	TotalRequests      int         `json:"total_requests"`
	SuccessfulRequests int         `json:"successful_requests"`
	FailedRequests     int         `json:"failed_requests"`
	ExecutionTime      float64     `json:"execution_time"`
	Message            string      `json:"message,omitempty"`
}

// NewLLMResponse computes aggregate counts over the results of a run that
// completed. Individual failures are reported through FailedRequests.
func NewLLMResponse(results []JobResult, elapsed time.Duration) *LLMResponse {
	resp := &LLMResponse{
		Results:       results,
		TotalRequests: len(results),
		ExecutionTime: elapsed.Seconds(),
	}
	for i := range results {
		if results[i].Success {
			resp.SuccessfulRequests++
		}
	}
	resp.FailedRequests = resp.TotalRequests - resp.SuccessfulRequests
	resp.Success = true
	return resp
}
