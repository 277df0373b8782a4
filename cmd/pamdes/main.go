package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/pamdes/internal/bill"
	"github.com/smallbiznis/pamdes/internal/billingperiod"
	"github.com/smallbiznis/pamdes/internal/bundle"
	"github.com/smallbiznis/pamdes/internal/clock"
	"github.com/smallbiznis/pamdes/internal/collector"
	"github.com/smallbiznis/pamdes/internal/config"
	"github.com/smallbiznis/pamdes/internal/customer"
	"github.com/smallbiznis/pamdes/internal/ledger"
	"github.com/smallbiznis/pamdes/internal/lock"
	"github.com/smallbiznis/pamdes/internal/logger"
	"github.com/smallbiznis/pamdes/internal/migration"
	"github.com/smallbiznis/pamdes/internal/observability/metrics"
	"github.com/smallbiznis/pamdes/internal/observability/tracing"
	"github.com/smallbiznis/pamdes/internal/payment"
	"github.com/smallbiznis/pamdes/internal/report"
	"github.com/smallbiznis/pamdes/internal/scheduler"
	"github.com/smallbiznis/pamdes/internal/server"
	"github.com/smallbiznis/pamdes/internal/tariff"
	"github.com/smallbiznis/pamdes/internal/village"
	"github.com/smallbiznis/pamdes/internal/waterusage"
	"github.com/smallbiznis/pamdes/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core Infrastructure
		config.Module,
		logger.Module,
		metrics.Module,
		tracing.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		migration.Module,
		clock.Module,
		lock.Module,

		// Functional Domains
		village.Module,
		tariff.Module,
		customer.Module,
		collector.Module,
		billingperiod.Module,
		waterusage.Module,
		ledger.Module,
		bill.Module,
		bundle.Module,
		payment.Module,
		report.Module,

		server.Module,
		scheduler.Module,
	)
	app.Run()
}

func RegisterSnowflake(cfg config.Config) (*snowflake.Node, error) {
	return snowflake.NewNode(cfg.SnowflakeNode)
}
