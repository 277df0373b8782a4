package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultBillingConfigIsValid(t *testing.T) {
	cfg := DefaultBillingConfig()
	require.NoError(t, validateBillingConfig(cfg))
	assert.Equal(t, 7*24*time.Hour, cfg.BundleExpiry)
	assert.Equal(t, "BDL", cfg.BundleReferencePrefix)
}

func TestValidateBillingConfigRejectsBadValues(t *testing.T) {
	cases := map[string]func(*BillingConfig){
		"expiry":  func(c *BillingConfig) { c.BundleExpiry = 0 },
		"bundle":  func(c *BillingConfig) { c.BundleReferencePrefix = " " },
		"payment": func(c *BillingConfig) { c.PaymentReferencePrefix = "" },
		"workers": func(c *BillingConfig) { c.GenerateWorkers = 0 },
		"ticker":  func(c *BillingConfig) { c.SchedulerInterval = -time.Second },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultBillingConfig()
			mutate(&cfg)
			assert.Error(t, validateBillingConfig(cfg))
		})
	}
}

func TestStaticHolderReturnsStoredConfig(t *testing.T) {
	cfg := DefaultBillingConfig()
	cfg.GenerateWorkers = 9
	holder := NewStaticBillingConfigHolder(cfg)
	assert.Equal(t, 9, holder.Get().GenerateWorkers)
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("DATABASE_TYPE", "sqlite")
	t.Setenv("SNOWFLAKE_NODE", "7")
	t.Setenv("SCHEDULER_ENABLED", "off")

	cfg := Load()
	assert.Equal(t, "sqlite", cfg.DBType)
	assert.Equal(t, int64(7), cfg.SnowflakeNode)
	assert.False(t, cfg.SchedulerEnabled)
}
