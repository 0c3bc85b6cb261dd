//go:build tools

// Package tools records the development tools used with this module. They are
// run with `go run` or installed with `go install` and are not imported by
// the service.
package tools

// mockgen - regenerates internal/mocks and core/cache_mock.go
//   Run: go generate ./internal/...
//   Version: go.uber.org/mock/mockgen@v0.6.0 (matches go.mod)
//
// Air - live reload for cmd/llmlab during development
//   Install: go install github.com/air-verse/air@v1.63.0
//   Docs: https://github.com/air-verse/air
