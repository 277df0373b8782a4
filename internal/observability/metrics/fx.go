package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/smallbiznis/pamdes/internal/config"
	"go.uber.org/fx"
)

func configFrom(cfg config.Config) Config {
	return Config{ServiceName: cfg.AppName, Environment: cfg.Environment}
}

var Module = fx.Module("metrics",
	fx.Provide(
		func(cfg config.Config) *BillingMetrics {
			return NewBillingMetrics(prometheus.DefaultRegisterer, configFrom(cfg))
		},
		func(cfg config.Config) *SchedulerMetrics {
			return SchedulerWithConfig(configFrom(cfg))
		},
	),
)
