package main

import (
	"bytes"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/llmlab/config"
	"github.com/target/llmlab/internal/domain/model"
)

func TestPrintUsageListsCommandsSorted(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printUsage(&buf))

	out := buf.String()
	assert.Contains(t, out, "Usage: llmlab-admin <command> [flags]")
	for name := range commands() {
		assert.Contains(t, out, name)
	}
	assert.Less(t, strings.Index(out, "clear-view-cache"), strings.Index(out, "status"))
}

func TestParseRunFlags(t *testing.T) {
	opts, err := parseRunFlags([]string{
		"--prompt", "Write a haiku",
		"--models", "mock-model, ",
		"--temperatures", "0.2, 0.7",
		"--top-ps", "0.9",
		"--single", "--mock", "--json",
	})
	require.NoError(t, err)

	assert.Equal(t, "Write a haiku", opts.Request.Prompt)
	assert.Equal(t, []string{"mock-model"}, opts.Request.Models)
	assert.Equal(t, []float64{0.2, 0.7}, opts.Request.Temperatures)
	assert.Equal(t, []float64{0.9}, opts.Request.TopPs)
	assert.True(t, opts.Request.SingleLLM)
	assert.True(t, opts.Request.MockMode)
	assert.True(t, opts.JSON)
	assert.Equal(t, defaultRunTimeout, opts.Timeout)
	require.NoError(t, opts.Request.Validate())
}

func TestParseRunFlags_Errors(t *testing.T) {
	_, err := parseRunFlags([]string{"--temperatures", "warm"})
	require.EqualError(t, err, `--temperatures: invalid number "warm"`)

	_, err = parseRunFlags([]string{"--timeout", "0s"})
	require.EqualError(t, err, "--timeout must be greater than zero")
}

func TestParseListExperimentsFlags(t *testing.T) {
	_, listOpts, err := parseListExperimentsFlags([]string{"--status", "Completed", "--limit", "5"})
	require.NoError(t, err)
	require.NotNil(t, listOpts.Status)
	assert.Equal(t, model.ExperimentStatusCompleted, *listOpts.Status)
	assert.Equal(t, 5, listOpts.Limit)

	_, _, err = parseListExperimentsFlags([]string{"--status", "done"})
	require.Error(t, err)

	_, _, err = parseListExperimentsFlags([]string{"--limit", "0"})
	require.Error(t, err)
}

func TestParseStatusFlags_RequiresID(t *testing.T) {
	_, err := parseStatusFlags([]string{"--id", "  "})
	require.EqualError(t, err, "--id is required")

	_, err = parseClearViewCacheFlags(nil)
	require.EqualError(t, err, "--id is required")
}

func TestIsLikelyRemoteHost(t *testing.T) {
	tests := map[string]bool{
		"":                  false,
		"localhost":         false,
		"127.0.0.1":         false,
		"::1":               false,
		"db.local":          false,
		"10.0.0.5":          true,
		"postgres.prod.net": true,
	}
	for host, want := range tests {
		assert.Equal(t, want, isLikelyRemoteHost(host), "host %q", host)
	}
}

func TestResetStatements(t *testing.T) {
	stmts := resetStatements(`llm"lab`)
	require.Len(t, stmts, 4)
	assert.Equal(t, `GRANT ALL ON SCHEMA public TO "llm""lab"`, stmts[3])

	assert.Len(t, resetStatements("public"), 3)
}

func TestConfirmReset(t *testing.T) {
	newCtx := func(input string) (*commandContext, *bytes.Buffer) {
		var out bytes.Buffer
		return &commandContext{
			Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
			Config: config.AppConfig{Postgres: config.DBConfig{Host: "db.example.com", Name: "llmlab"}},
			Stdout: &out,
			Stdin:  strings.NewReader(input),
		}, &out
	}

	cmdCtx, out := newCtx("yes\n")
	require.NoError(t, confirmReset(cmdCtx, false))
	assert.Contains(t, out.String(), "Continue? [y/N]")

	cmdCtx, _ = newCtx("\n")
	require.ErrorIs(t, confirmReset(cmdCtx, false), errAborted)

	cmdCtx, _ = newCtx("y\n")
	require.ErrorIs(t, confirmReset(cmdCtx, true), errAborted, "remote hosts require the host name")

	cmdCtx, _ = newCtx("db.example.com")
	require.NoError(t, confirmReset(cmdCtx, true))
}

func TestGuardRemoteHost(t *testing.T) {
	cmdCtx := &commandContext{Config: config.AppConfig{Postgres: config.DBConfig{Host: "db.example.com"}}}

	remote, err := guardRemoteHost(cmdCtx, false)
	assert.True(t, remote)
	require.Error(t, err)

	remote, err = guardRemoteHost(cmdCtx, true)
	assert.True(t, remote)
	require.NoError(t, err)
}

func TestRenderRunResponse(t *testing.T) {
	tokens := 12
	errMsg := "provider openai: status 429"
	resp := model.NewLLMResponse([]model.JobResult{
		{
			Provider: "mock", Model: "mock-model", Temperature: 0.2, TopP: 0.9,
			ResponseText: "line one\nline two", TokensUsed: &tokens, ExecutionTime: 0.5, Success: true,
		},
		{Provider: "openai", Model: "gpt-4o", Temperature: 0.2, TopP: 0.9, Error: &errMsg},
	}, 1500*time.Millisecond)
	resp.ExperimentID = "exp-1"

	var buf bytes.Buffer
	require.NoError(t, renderRunResponse(&buf, resp))

	out := buf.String()
	assert.Contains(t, out, "Experiment: exp-1")
	assert.Contains(t, out, "Requests: 2 total, 1 succeeded, 1 failed in 1.50s")
	assert.Contains(t, out, "line one line two")
	assert.Contains(t, out, "error: provider openai: status 429")
}

func TestRenderExperimentView(t *testing.T) {
	created := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	exp := &model.Experiment{ID: "exp-1", Name: "sweep", Status: model.ExperimentStatusCompleted, CreatedAt: created}
	view := model.NewExperimentView(exp, []model.LLMResponseRecord{
		{Position: 0, Provider: "mock", Model: "mock-model", Success: true, ResponseText: strings.Repeat("x", 80)},
	})

	var buf bytes.Buffer
	require.NoError(t, renderExperimentView(&buf, view))

	out := buf.String()
	assert.Contains(t, out, "Status: completed")
	assert.Contains(t, out, "Created: 2025-01-02T03:04:05Z")
	assert.Contains(t, out, strings.Repeat("x", responsePreviewLen)+"...")
}

func TestRenderExperiments_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, renderExperiments(&buf, nil))
	assert.Equal(t, "(no experiments found)\n", buf.String())
}

func TestHasRedisConfig(t *testing.T) {
	assert.False(t, hasRedisConfig(nil))
	assert.False(t, hasRedisConfig(&config.RedisConfig{}))
	assert.True(t, hasRedisConfig(&config.RedisConfig{URI: "localhost:6379"}))
	assert.False(t, hasRedisConfig(&config.RedisConfig{UseSentinel: true}))
	assert.True(t, hasRedisConfig(&config.RedisConfig{UseCluster: true, ClusterNodes: []string{"a:1"}}))
}

func TestParseReapFlags(t *testing.T) {
	defaults := config.ReaperConfig{RunningMaxAge: time.Hour, BatchSize: 500}

	opts, err := parseReapFlags([]string{"--retention", "720h", "--batch-size", "50"}, defaults)
	require.NoError(t, err)
	assert.Equal(t, time.Hour, opts.Reaper.RunningMaxAge)
	assert.Equal(t, 720*time.Hour, opts.Reaper.RetentionMaxAge)
	assert.Equal(t, 50, opts.Reaper.BatchSize)
	assert.Equal(t, defaultReapTimeout, opts.Timeout)

	_, err = parseReapFlags([]string{"--running-max-age", "0s"}, defaults)
	require.EqualError(t, err, "--running-max-age must be greater than zero")

	_, err = parseReapFlags([]string{"--retention", "-1h"}, defaults)
	require.EqualError(t, err, "--retention must not be negative")
}
