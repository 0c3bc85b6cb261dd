// Package errors derives low-cardinality metric tags from error values.
package errors

import (
	"context"
	goerrors "errors"
	"reflect"
	"strings"

	"github.com/target/llmlab/internal/core"
)

// Classify returns a normalized error class suitable for tagging metrics and logs.
// Provider errors are classified by kind; everything else by the innermost
// concrete type, e.g. "net_operror".
func Classify(err error) string {
	if err == nil {
		return ""
	}
	switch {
	case goerrors.Is(err, context.DeadlineExceeded):
		return "deadline_exceeded"
	case goerrors.Is(err, context.Canceled):
		return "canceled"
	}
	var pe *core.ProviderError
	if goerrors.As(err, &pe) && pe.Kind != "" {
		return "provider_" + string(pe.Kind)
	}

	for {
		unwrapped := goerrors.Unwrap(err)
		if unwrapped == nil {
			break
		}
		err = unwrapped
	}

	t := reflect.TypeOf(err)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return "unknown"
	}
	name := strings.ReplaceAll(strings.ToLower(t.String()), ".", "_")
	if name == "" {
		return "unknown"
	}
	return name
}
