package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/target/llmlab/config"
	"github.com/target/llmlab/internal/adapters/reaper"
)

const defaultReapTimeout = 5 * time.Minute

type reapOptions struct {
	Timeout time.Duration
	Reaper  config.ReaperConfig
}

// runReap performs one cleanup pass. This process has no live runs, so any
// experiment running longer than --running-max-age is treated as orphaned.
func runReap(cmdCtx *commandContext, args []string) error {
	opts, err := parseReapFlags(args, cmdCtx.Config.Reaper)
	if err != nil {
		return err
	}

	return withDatabase(cmdCtx, opts.Timeout, func(ctx context.Context, db *sql.DB) error {
		runner, err := reaper.NewRunner(reaper.RunnerOptions{
			DB:     db,
			Config: opts.Reaper,
			Logger: cmdCtx.Logger,
		})
		if err != nil {
			return err
		}
		if err := runner.RunOnce(ctx); err != nil {
			return fmt.Errorf("reap: %w", err)
		}
		return writeln(cmdCtx.Stdout, "cleanup pass complete")
	})
}

func parseReapFlags(args []string, defaults config.ReaperConfig) (reapOptions, error) {
	fs := flag.NewFlagSet("reap", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := reapOptions{Reaper: defaults}
	fs.DurationVar(&opts.Timeout, "timeout", defaultReapTimeout, "Maximum duration for the cleanup pass")
	fs.DurationVar(&opts.Reaper.RunningMaxAge, "running-max-age", defaults.RunningMaxAge,
		"Fail running experiments not updated within this age")
	fs.DurationVar(&opts.Reaper.RetentionMaxAge, "retention", defaults.RetentionMaxAge,
		"Delete finished experiments older than this (0 keeps them)")
	fs.IntVar(&opts.Reaper.BatchSize, "batch-size", defaults.BatchSize, "Rows touched per statement")

	if err := fs.Parse(args); err != nil {
		return reapOptions{}, err
	}
	if opts.Timeout <= 0 {
		return reapOptions{}, errors.New("--timeout must be greater than zero")
	}
	if opts.Reaper.RunningMaxAge <= 0 {
		return reapOptions{}, errors.New("--running-max-age must be greater than zero")
	}
	if opts.Reaper.RetentionMaxAge < 0 {
		return reapOptions{}, errors.New("--retention must not be negative")
	}
	return opts, nil
}
