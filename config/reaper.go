package config

import "time"

// ReaperConfig controls the background experiment cleanup loop.
// Values are read with the REAPER_ prefix.
type ReaperConfig struct {
	// Enabled starts the reaper alongside the HTTP server.
	Enabled bool `env:"ENABLED" envDefault:"true"`

	// Interval is the time between cleanup passes.
	Interval time.Duration `env:"INTERVAL" envDefault:"5m"`

	// RunningMaxAge is how long an experiment may stay running without an
	// update before it is marked failed. Runs live in this process are skipped.
	RunningMaxAge time.Duration `env:"RUNNING_MAX_AGE" envDefault:"1h"`

	// RetentionMaxAge deletes completed and failed experiments, with their
	// results, once they are older than this. Zero keeps them forever.
	RetentionMaxAge time.Duration `env:"RETENTION_MAX_AGE" envDefault:"0s"`

	// BatchSize caps rows touched per statement.
	BatchSize int `env:"BATCH_SIZE" envDefault:"500"`
}

// Sanitize replaces out-of-range values with the defaults.
func (c *ReaperConfig) Sanitize() {
	if c.Interval <= 0 {
		c.Interval = 5 * time.Minute
	}
	if c.RunningMaxAge <= 0 {
		c.RunningMaxAge = time.Hour
	}
	if c.RetentionMaxAge < 0 {
		c.RetentionMaxAge = 0
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 500
	}
}
