// Package model defines the core data types shared by the experiment runner,
// its persistence layer and the HTTP API.
package model

import (
	"fmt"
	"strings"
	"time"
)

// ExperimentStatus represents the lifecycle state of an experiment.
//
//nolint:recvcheck // UnmarshalText needs pointer receiver, Valid needs value receiver
type ExperimentStatus string

const (
	// ExperimentStatusPending is set when the experiment record is created.
	ExperimentStatusPending ExperimentStatus = "pending"
	// ExperimentStatusRunning indicates generation jobs are in flight.
	ExperimentStatusRunning ExperimentStatus = "running"
	// ExperimentStatusCompleted indicates results were produced.
	ExperimentStatusCompleted ExperimentStatus = "completed"
	// ExperimentStatusFailed indicates the run aborted with an error.
	ExperimentStatusFailed ExperimentStatus = "failed"
	// ExperimentStatusCancelled indicates the run was cancelled by a caller.
	ExperimentStatusCancelled ExperimentStatus = "cancelled"
)

// UnmarshalText implements encoding.TextUnmarshaler so statuses can be parsed from query strings.
func (s *ExperimentStatus) UnmarshalText(text []byte) error {
	v := ExperimentStatus(strings.ToLower(strings.TrimSpace(string(text))))
	if !v.Valid() {
		return fmt.Errorf("invalid experiment status: %q", string(text))
	}
	*s = v
	return nil
}

// Valid returns true if the status is one of the known values.
func (s ExperimentStatus) Valid() bool {
	switch s {
	case ExperimentStatusPending, ExperimentStatusRunning, ExperimentStatusCompleted,
		ExperimentStatusFailed, ExperimentStatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transitions are possible.
func (s ExperimentStatus) Terminal() bool {
	return s == ExperimentStatusCompleted || s == ExperimentStatusFailed || s == ExperimentStatusCancelled
}

// TransitionSources returns the statuses an experiment may move to s from.
func (s ExperimentStatus) TransitionSources() []ExperimentStatus {
	switch s {
	case ExperimentStatusRunning:
		return []ExperimentStatus{ExperimentStatusPending}
	case ExperimentStatusCompleted, ExperimentStatusFailed, ExperimentStatusCancelled:
		return []ExperimentStatus{ExperimentStatusRunning}
	default:
		return nil
	}
}

// CanTransitionTo reports whether pending -> running -> {completed, failed, cancelled}
// allows moving from s to next.
func (s ExperimentStatus) CanTransitionTo(next ExperimentStatus) bool {
	for _, from := range next.TransitionSources() {
		if from == s {
			return true
		}
	}
	return false
}

// Experiment is one prompt submission and the lifecycle of its generation run.
type Experiment struct {
	ID              string           `json:"id"                      db:"id"`
	Name            string           `json:"name"                    db:"name"`
	OriginalMessage string           `json:"original_message"        db:"original_message"`
	Status          ExperimentStatus `json:"status"                  db:"status"`
	ErrorMessage    *string          `json:"error_message,omitempty" db:"error_message"`
	CreatedAt       time.Time        `json:"created_at"              db:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"              db:"updated_at"`
}

// CreateExperimentRequest represents a request to create a new experiment.
type CreateExperimentRequest struct {
	Name            string `json:"name"`
	OriginalMessage string `json:"original_message"`
}

// DefaultExperimentName returns the name used when a caller does not provide one.
func DefaultExperimentName(now time.Time) string {
	return fmt.Sprintf("exp_%d", now.Unix())
}

// ListExperimentsOptions controls experiment listing.
type ListExperimentsOptions struct {
	Status *ExperimentStatus
	Limit  int
	Offset int
}

// ExperimentView is what a status poll returns. Results and counts are only
// populated once the experiment has completed.
type ExperimentView struct {
	Experiment

	Results            []LLMResponseRecord `json:"results,omitempty"`
	TotalRequests      int                 `json:"total_requests"`
	SuccessfulRequests int                 `json:"successful_requests"`
	FailedRequests     int                 `json:"failed_requests"`
}

// NewExperimentView builds a view, attaching results only for completed experiments.
func NewExperimentView(exp *Experiment, results []LLMResponseRecord) *ExperimentView {
	view := &ExperimentView{Experiment: *exp}
	if exp.Status != ExperimentStatusCompleted {
		return view
	}
	view.Results = results
	view.TotalRequests = len(results)
	for i := range results {
		if results[i].Success {
			view.SuccessfulRequests++
		}
	}
	view.FailedRequests = view.TotalRequests - view.SuccessfulRequests
	return view
}

// StartExperimentResponse is returned when an experiment is accepted for background processing.
type StartExperimentResponse struct {
	ExperimentID string           `json:"experiment_id"`
	Status       ExperimentStatus `json:"status"`
}

// CancelExperimentResponse reports whether a live run was found and cancelled.
type CancelExperimentResponse struct {
	ExperimentID string `json:"experiment_id"`
	Cancelled    bool   `json:"cancelled"`
}
