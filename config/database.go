package config

import "time"

// DBConfig contains PostgreSQL database configuration.
type DBConfig struct {
	Host     string `env:"HOST"                    envDefault:"localhost"`
	Port     int    `env:"PORT"                    envDefault:"5432"`
	User     string `env:"USER"                    envDefault:"llmlab"`
	Password string `env:"PASSWORD"                envDefault:"llmlab"`
	Name     string `env:"NAME"                    envDefault:"llmlab"`
	SSLMode  string `env:"SSL_MODE"                envDefault:"disable"` // Use 'disable' for local dev, 'require' for production
	// Connection pool limits.
	MaxOpenConns    int           `env:"MAX_OPEN_CONNS"          envDefault:"10"`
	MaxIdleConns    int           `env:"MAX_IDLE_CONNS"          envDefault:"5"`
	ConnMaxLifetime time.Duration `env:"CONN_MAX_LIFETIME"       envDefault:"5m"`
	// RunMigrationsOnStart controls whether the application automatically applies migrations during startup.
	RunMigrationsOnStart bool `env:"RUN_MIGRATIONS_ON_START" envDefault:"true"`
}

// Sanitize applies guardrails to pool settings.
func (d *DBConfig) Sanitize() {
	if d.MaxOpenConns <= 0 {
		d.MaxOpenConns = 10
	}
	if d.MaxIdleConns < 0 {
		d.MaxIdleConns = 0
	}
	if d.MaxIdleConns > d.MaxOpenConns {
		d.MaxIdleConns = d.MaxOpenConns
	}
	if d.ConnMaxLifetime <= 0 {
		d.ConnMaxLifetime = 5 * time.Minute
	}
}

// RedisConfig contains Redis configuration.
type RedisConfig struct {
	URI                string   `env:"URI"                  envDefault:"localhost:6379"`
	Password           string   `env:"PASSWORD"             envDefault:""`
	SentinelNodes      []string `env:"SENTINEL_NODES"       envDefault:"localhost:26379"`
	SentinelMasterName string   `env:"SENTINEL_MASTER_NAME" envDefault:"mymaster"`
	SentinelPassword   string   `env:"SENTINEL_PASSWORD"    envDefault:""`
	UseSentinel        bool     `env:"USE_SENTINEL"         envDefault:"false"`
	ClusterNodes       []string `env:"CLUSTER_NODES"        envDefault:""`
	UseCluster         bool     `env:"USE_CLUSTER"          envDefault:"false"`
}

const defaultExperimentViewTTL = 10 * time.Minute

// CacheConfig controls the Redis-backed experiment view cache.
type CacheConfig struct {
	// Enabled turns on caching of terminal experiment views. Redis is only
	// dialed when this is set.
	Enabled bool `env:"CACHE_ENABLED" envDefault:"false"`

	// ExperimentTTL is the TTL for cached experiment views.
	ExperimentTTL time.Duration `env:"CACHE_EXPERIMENT_TTL" envDefault:"10m"`

	// KeyPrefix namespaces cache keys.
	KeyPrefix string `env:"CACHE_KEY_PREFIX" envDefault:"llmlab"`
}

// Sanitize applies guardrails to cache configuration values.
func (c *CacheConfig) Sanitize() {
	if c.ExperimentTTL <= 0 {
		c.ExperimentTTL = defaultExperimentViewTTL
	}
	if c.KeyPrefix == "" {
		c.KeyPrefix = "llmlab"
	}
}
