package config

import (
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// BillingConfig carries the tunables of bill generation and settlement.
// It is reloaded from pamdes.yml without a restart.
type BillingConfig struct {
	BundleExpiry           time.Duration `mapstructure:"bundleExpiry"`
	BundleReferencePrefix  string        `mapstructure:"bundleReferencePrefix"`
	PaymentReferencePrefix string        `mapstructure:"paymentReferencePrefix"`
	GenerateWorkers        int           `mapstructure:"generateWorkers"`
	SchedulerInterval      time.Duration `mapstructure:"schedulerInterval"`
	OverdueBatchSize       int           `mapstructure:"overdueBatchSize"`
}

func DefaultBillingConfig() BillingConfig {
	return BillingConfig{
		BundleExpiry:           7 * 24 * time.Hour,
		BundleReferencePrefix:  "BDL",
		PaymentReferencePrefix: "PAY",
		GenerateWorkers:        4,
		SchedulerInterval:      time.Minute,
		OverdueBatchSize:       500,
	}
}

type BillingConfigHolder struct {
	current atomic.Value // holds BillingConfig
}

// NewStaticBillingConfigHolder returns a holder that never reloads.
func NewStaticBillingConfigHolder(cfg BillingConfig) *BillingConfigHolder {
	holder := &BillingConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func NewBillingConfigHolder(log *zap.Logger) (*BillingConfigHolder, error) {
	log = log.Named("billing-config")
	v := viper.New()

	v.SetConfigName("pamdes")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/pamdes")
	v.AddConfigPath(".")

	v.SetEnvPrefix("PAMDES")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultBillingConfig()
	v.SetDefault("billing.bundleExpiry", defaults.BundleExpiry)
	v.SetDefault("billing.bundleReferencePrefix", defaults.BundleReferencePrefix)
	v.SetDefault("billing.paymentReferencePrefix", defaults.PaymentReferencePrefix)
	v.SetDefault("billing.generateWorkers", defaults.GenerateWorkers)
	v.SetDefault("billing.schedulerInterval", defaults.SchedulerInterval)
	v.SetDefault("billing.overdueBatchSize", defaults.OverdueBatchSize)

	fileFound := true
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		fileFound = false
	}

	var cfg BillingConfig
	if err := v.UnmarshalKey("billing", &cfg); err != nil {
		return nil, err
	}
	if err := validateBillingConfig(cfg); err != nil {
		return nil, err
	}

	holder := NewStaticBillingConfigHolder(cfg)
	if !fileFound {
		return holder, nil
	}

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated BillingConfig
		if err := v.UnmarshalKey("billing", &updated); err != nil {
			log.Warn("reload failed", zap.Error(err))
			return
		}
		if err := validateBillingConfig(updated); err != nil {
			log.Warn("invalid config ignored", zap.Error(err))
			return
		}
		holder.current.Store(updated)
		log.Info("reloaded", zap.String("file", e.Name))
	})

	return holder, nil
}

func (h *BillingConfigHolder) Get() BillingConfig {
	return h.current.Load().(BillingConfig)
}

func validateBillingConfig(cfg BillingConfig) error {
	if cfg.BundleExpiry <= 0 {
		return errors.New("billing.bundleExpiry must be positive")
	}
	if strings.TrimSpace(cfg.BundleReferencePrefix) == "" {
		return errors.New("billing.bundleReferencePrefix cannot be empty")
	}
	if strings.TrimSpace(cfg.PaymentReferencePrefix) == "" {
		return errors.New("billing.paymentReferencePrefix cannot be empty")
	}
	if cfg.GenerateWorkers <= 0 {
		return errors.New("billing.generateWorkers must be positive")
	}
	if cfg.SchedulerInterval <= 0 {
		return errors.New("billing.schedulerInterval must be positive")
	}
	return nil
}
