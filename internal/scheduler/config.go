package scheduler

import (
	"time"

	"github.com/smallbiznis/pamdes/internal/config"
)

const (
	JobOverdueSweep      = "overdue_sweep"
	JobBundleExpiry      = "bundle_expiry"
	JobAutoGenerateBills = "auto_generate_bills"
)

// Config controls scheduler intervals and timeouts.
type Config struct {
	RunInterval     time.Duration
	JobTimeout      time.Duration
	GenerateTimeout time.Duration
	// LockWait bounds how long a run waits for another instance holding the same job.
	LockWait    time.Duration
	EnabledJobs []string
}

func DefaultConfig() Config {
	return Config{
		RunInterval:     time.Minute,
		JobTimeout:      30 * time.Second,
		GenerateTimeout: 5 * time.Minute,
		LockWait:        100 * time.Millisecond,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.RunInterval <= 0 {
		c.RunInterval = defaults.RunInterval
	}
	if c.JobTimeout <= 0 {
		c.JobTimeout = defaults.JobTimeout
	}
	if c.GenerateTimeout <= 0 {
		c.GenerateTimeout = defaults.GenerateTimeout
	}
	if c.LockWait <= 0 {
		c.LockWait = defaults.LockWait
	}
	return c
}

func ProvideConfig(cfg config.Config, billing *config.BillingConfigHolder) Config {
	return Config{
		RunInterval: billing.Get().SchedulerInterval,
		EnabledJobs: cfg.SchedulerJobs,
	}.withDefaults()
}
