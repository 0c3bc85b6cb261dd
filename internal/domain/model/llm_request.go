package model

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	// MockProvider is the provider id of the built-in mock gateway.
	MockProvider = "mock"
	// MockModel is the model id forced when a request runs in mock mode.
	MockModel = "mock-model"

	// MaxModelsPerRequest caps the model list of a single request.
	MaxModelsPerRequest = 10
)

var (
	// ErrMockModeRequiresSingleLLM is returned when mock mode is combined with multi-model dispatch.
	ErrMockModeRequiresSingleLLM = errors.New("mock_mode is only supported with single_llm")
	// ErrSweepRequiresOneModel is returned when a parameter sweep names zero or several models.
	ErrSweepRequiresOneModel = errors.New("single_llm requires exactly one model")
	// ErrSweepRequiresParameters is returned when a parameter sweep has no temperatures or top_ps.
	ErrSweepRequiresParameters = errors.New("single_llm requires at least one temperature and one top_p")
)

// validate is the package-level validator instance used for struct validation.
var validate = validator.New(validator.WithRequiredStructEnabled())

// LLMRequest is a prompt submission. With SingleLLM the prompt is swept over
// every temperature/top_p combination for one model; otherwise it is sent once
// to every model using the first temperature and top_p.
type LLMRequest struct {
	Prompt         string    `json:"prompt"                    validate:"required,max=10000"`
	Temperatures   []float64 `json:"temperatures"              validate:"max=20,dive,gte=0,lte=2"`
	TopPs          []float64 `json:"top_ps"                    validate:"max=20,dive,gte=0,lte=1"`
	SingleLLM      bool      `json:"single_llm"`
	Models         []string  `json:"models"                    validate:"required,min=1,max=10,dive,required,max=200"`
	MockMode       bool      `json:"mock_mode"`
	ExperimentName string    `json:"experiment_name,omitempty" validate:"omitempty,max=200"`
}

// Validate checks field constraints and the cross-field dispatch rules.
func (r *LLMRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		return describeValidationError(err)
	}
	if strings.TrimSpace(r.Prompt) == "" {
		return errors.New("prompt: must not be blank")
	}
	if r.MockMode && !r.SingleLLM {
		return ErrMockModeRequiresSingleLLM
	}
	if r.SingleLLM {
		if len(r.Models) != 1 {
			return ErrSweepRequiresOneModel
		}
		if len(r.Temperatures) == 0 || len(r.TopPs) == 0 {
			return ErrSweepRequiresParameters
		}
	}
	return nil
}

// FirstParameters returns the parameter set used in multi-model mode, falling
// back to the given defaults when a list is empty.
func (r *LLMRequest) FirstParameters(defaultTemperature, defaultTopP float64) ParameterSet {
	params := ParameterSet{Temperature: defaultTemperature, TopP: defaultTopP}
	if len(r.Temperatures) > 0 {
		params.Temperature = r.Temperatures[0]
	}
	if len(r.TopPs) > 0 {
		params.TopP = r.TopPs[0]
	}
	return params
}

func describeValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return errors.New(strings.Join(msgs, "; "))
}

func fieldMessage(fe validator.FieldError) string {
	field := jsonFieldName(fe.Namespace())
	switch fe.Tag() {
	case "required":
		return field + ": is required"
	case "min":
		return fmt.Sprintf("%s: must contain at least %s item(s)", field, fe.Param())
	case "max":
		if fe.Kind().String() == "string" {
			return fmt.Sprintf("%s: must be at most %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s: must contain at most %s item(s)", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s: must be >= %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s: must be <= %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s: failed %q validation", field, fe.Tag())
	}
}

var jsonFieldNames = map[string]string{
	"Prompt":         "prompt",
	"Temperatures":   "temperatures",
	"TopPs":          "top_ps",
	"Models":         "models",
	"ExperimentName": "experiment_name",
}

// jsonFieldName turns "LLMRequest.Temperatures[1]" into "temperatures[1]".
func jsonFieldName(namespace string) string {
	name := namespace
	if i := strings.Index(name, "."); i >= 0 {
		name = name[i+1:]
	}
	base, index, _ := strings.Cut(name, "[")
	if mapped, ok := jsonFieldNames[base]; ok {
		base = mapped
	}
	if index != "" {
		return base + "[" + index
	}
	return base
}
