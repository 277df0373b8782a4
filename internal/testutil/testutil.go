// Package testutil wires the billing services against an in-memory sqlite database.
package testutil

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	billdomain "github.com/smallbiznis/pamdes/internal/bill/domain"
	billrepository "github.com/smallbiznis/pamdes/internal/bill/repository"
	billservice "github.com/smallbiznis/pamdes/internal/bill/service"
	perioddomain "github.com/smallbiznis/pamdes/internal/billingperiod/domain"
	periodrepository "github.com/smallbiznis/pamdes/internal/billingperiod/repository"
	periodservice "github.com/smallbiznis/pamdes/internal/billingperiod/service"
	bundledomain "github.com/smallbiznis/pamdes/internal/bundle/domain"
	bundlerepository "github.com/smallbiznis/pamdes/internal/bundle/repository"
	bundleservice "github.com/smallbiznis/pamdes/internal/bundle/service"
	"github.com/smallbiznis/pamdes/internal/clock"
	collectordomain "github.com/smallbiznis/pamdes/internal/collector/domain"
	collectorrepository "github.com/smallbiznis/pamdes/internal/collector/repository"
	collectorservice "github.com/smallbiznis/pamdes/internal/collector/service"
	"github.com/smallbiznis/pamdes/internal/config"
	customerdomain "github.com/smallbiznis/pamdes/internal/customer/domain"
	customerrepository "github.com/smallbiznis/pamdes/internal/customer/repository"
	customerservice "github.com/smallbiznis/pamdes/internal/customer/service"
	ledgerdomain "github.com/smallbiznis/pamdes/internal/ledger/domain"
	ledgerrepository "github.com/smallbiznis/pamdes/internal/ledger/repository"
	ledgerservice "github.com/smallbiznis/pamdes/internal/ledger/service"
	"github.com/smallbiznis/pamdes/internal/lock"
	"github.com/smallbiznis/pamdes/internal/migration"
	paymentdomain "github.com/smallbiznis/pamdes/internal/payment/domain"
	paymentrepository "github.com/smallbiznis/pamdes/internal/payment/repository"
	paymentservice "github.com/smallbiznis/pamdes/internal/payment/service"
	reportdomain "github.com/smallbiznis/pamdes/internal/report/domain"
	reportservice "github.com/smallbiznis/pamdes/internal/report/service"
	tariffdomain "github.com/smallbiznis/pamdes/internal/tariff/domain"
	tariffrepository "github.com/smallbiznis/pamdes/internal/tariff/repository"
	tariffservice "github.com/smallbiznis/pamdes/internal/tariff/service"
	villagedomain "github.com/smallbiznis/pamdes/internal/village/domain"
	villagerepository "github.com/smallbiznis/pamdes/internal/village/repository"
	villageservice "github.com/smallbiznis/pamdes/internal/village/service"
	usagedomain "github.com/smallbiznis/pamdes/internal/waterusage/domain"
	usagerepository "github.com/smallbiznis/pamdes/internal/waterusage/repository"
	usageservice "github.com/smallbiznis/pamdes/internal/waterusage/service"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var dbSeq atomic.Int64

// OpenDB returns a private migrated in-memory database.
// One open connection keeps sqlite writers from contending with each other.
func OpenDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:pamdes_%d?mode=memory&cache=shared", dbSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, migration.AutoMigrate(db))
	return db
}

// Env holds every service over one database and one fake clock.
type Env struct {
	DB     *gorm.DB
	Clock  *clock.FakeClock
	GenID  *snowflake.Node
	Locker lock.Locker
	Config *config.BillingConfigHolder

	VillageRepo  villagedomain.Repository
	CustomerRepo customerdomain.Repository
	PeriodRepo   perioddomain.Repository
	UsageRepo    usagedomain.Repository
	TariffRepo   tariffdomain.Repository
	BillRepo     billdomain.Repository
	BundleRepo   bundledomain.Repository
	PaymentRepo  paymentdomain.Repository
	LedgerRepo   ledgerdomain.Repository

	Villages   villagedomain.Service
	Customers  customerdomain.Service
	Collectors collectordomain.Service
	Periods    perioddomain.Service
	Usages     usagedomain.Service
	Tariffs    tariffdomain.Service
	Ledger     ledgerdomain.Service
	Bills      billdomain.Service
	Bundles    bundledomain.Service
	Payments   paymentdomain.Service
	Reports    reportdomain.Service
}

// Now is the fake clock start used by NewEnv.
var Now = time.Date(2025, time.March, 5, 9, 0, 0, 0, time.UTC)

func NewEnv(t *testing.T) *Env {
	t.Helper()
	db := OpenDB(t)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	log := zap.NewNop()

	e := &Env{
		DB:           db,
		Clock:        clock.NewFakeClock(Now),
		GenID:        node,
		Locker:       lock.NewLocalLocker(),
		Config:       config.NewStaticBillingConfigHolder(config.DefaultBillingConfig()),
		VillageRepo:  villagerepository.Provide(),
		CustomerRepo: customerrepository.Provide(),
		PeriodRepo:   periodrepository.Provide(),
		UsageRepo:    usagerepository.Provide(),
		TariffRepo:   tariffrepository.Provide(),
		BillRepo:     billrepository.Provide(),
		BundleRepo:   bundlerepository.Provide(),
		PaymentRepo:  paymentrepository.Provide(),
		LedgerRepo:   ledgerrepository.Provide(),
	}

	e.Villages = villageservice.New(villageservice.Params{DB: db, Log: log, Clock: e.Clock, Repo: e.VillageRepo})
	e.Customers = customerservice.New(customerservice.Params{
		DB: db, Log: log, GenID: node, Clock: e.Clock, Repo: e.CustomerRepo, VillageRepo: e.VillageRepo,
	})
	e.Collectors = collectorservice.New(collectorservice.Params{
		DB: db, Log: log, GenID: node, Clock: e.Clock, Repo: collectorrepository.Provide(),
	})
	e.Periods = periodservice.New(periodservice.Params{
		DB: db, Log: log, GenID: node, Clock: e.Clock, Repo: e.PeriodRepo, VillageRepo: e.VillageRepo,
	})
	e.Usages = usageservice.New(usageservice.Params{
		DB: db, Log: log, GenID: node, Clock: e.Clock, Locker: e.Locker, Repo: e.UsageRepo,
		CustomerRepo: e.CustomerRepo, PeriodRepo: e.PeriodRepo,
	})
	e.Tariffs = tariffservice.New(tariffservice.Params{
		DB: db, Log: log, GenID: node, Clock: e.Clock, Locker: e.Locker,
		Repo: e.TariffRepo, VillageRepo: e.VillageRepo,
	})
	e.Ledger = ledgerservice.NewService(ledgerservice.Params{
		DB: db, Log: log, GenID: node, Clock: e.Clock, Repo: e.LedgerRepo,
	})
	e.Bills = billservice.New(billservice.Params{
		DB: db, Log: log, GenID: node, Clock: e.Clock, Locker: e.Locker, Config: e.Config,
		Repo: e.BillRepo, UsageRepo: e.UsageRepo, CustomerRepo: e.CustomerRepo,
		PeriodRepo: e.PeriodRepo, VillageRepo: e.VillageRepo,
		TariffSvc: e.Tariffs, LedgerSvc: e.Ledger,
	})
	e.Bundles = bundleservice.New(bundleservice.Params{
		DB: db, Log: log, GenID: node, Clock: e.Clock, Locker: e.Locker, Config: e.Config,
		Repo: e.BundleRepo, BillRepo: e.BillRepo, PaymentRepo: e.PaymentRepo, LedgerSvc: e.Ledger,
	})
	e.Payments = paymentservice.NewService(paymentservice.Params{
		DB: db, Log: log, GenID: node, Clock: e.Clock, Locker: e.Locker, Config: e.Config,
		Repo: e.PaymentRepo, BillRepo: e.BillRepo, LedgerSvc: e.Ledger,
	})
	e.Reports = reportservice.NewService(reportservice.Params{DB: db, Log: log, PeriodRepo: e.PeriodRepo})
	return e
}

// Village creates a village with the fees used across the billing tests: admin 5000, maintenance 2000.
func (e *Env) Village(t *testing.T, name string) *villagedomain.Village {
	t.Helper()
	v, err := e.Villages.Create(context.Background(), villagedomain.CreateRequest{
		Name:                  name,
		CodePrefix:            "PAM",
		DefaultAdminFee:       decimal.NewFromInt(5000),
		DefaultMaintenanceFee: decimal.NewFromInt(2000),
		OverdueThresholdDays:  10,
	})
	require.NoError(t, err)
	return v
}

// StandardTariff installs [0-10]@2500, [11-20]@3000, [21,inf)@3500 for the village.
func (e *Env) StandardTariff(t *testing.T, villageID uuid.UUID) {
	t.Helper()
	ctx := context.Background()
	for _, b := range []struct{ start, price int64 }{{0, 2500}, {11, 3000}, {21, 3500}} {
		_, err := e.Tariffs.CreateRange(ctx, tariffdomain.CreateRangeRequest{
			VillageID:    &villageID,
			UsageMin:     b.start,
			PricePerUnit: decimal.NewFromInt(b.price),
		})
		require.NoError(t, err)
	}
}

func (e *Env) Customer(t *testing.T, villageID uuid.UUID, name string) *customerdomain.Customer {
	t.Helper()
	c, err := e.Customers.Create(context.Background(), customerdomain.CreateRequest{VillageID: villageID, Name: name})
	require.NoError(t, err)
	return c
}

// Period creates an active period whose readings end on the 28th of the month.
func (e *Env) Period(t *testing.T, villageID uuid.UUID, year, month int) *perioddomain.BillingPeriod {
	t.Helper()
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	p, err := e.Periods.Create(context.Background(), perioddomain.CreateRequest{
		VillageID:    villageID,
		Year:         year,
		Month:        month,
		ReadingStart: start,
		ReadingEnd:   start.AddDate(0, 0, 27),
		Activate:     true,
	})
	require.NoError(t, err)
	return p
}

func (e *Env) Reading(t *testing.T, customerID, periodID snowflake.ID, initial, final int64) *usagedomain.WaterUsage {
	t.Helper()
	u, err := e.Usages.Record(context.Background(), usagedomain.RecordRequest{
		CustomerID:   customerID,
		PeriodID:     periodID,
		InitialMeter: &initial,
		FinalMeter:   final,
		UsageDate:    e.Clock.Now(),
	})
	require.NoError(t, err)
	return u
}

// Bill records a reading and bills it with explicit fees.
func (e *Env) Bill(t *testing.T, customerID, periodID snowflake.ID, usage int64, admin, maintenance int64) *billdomain.Bill {
	t.Helper()
	u := e.Reading(t, customerID, periodID, 100, 100+usage)
	a, m := decimal.NewFromInt(admin), decimal.NewFromInt(maintenance)
	b, err := e.Bills.GenerateBill(context.Background(), billdomain.GenerateRequest{
		UsageID:        u.ID,
		AdminFee:       &a,
		MaintenanceFee: &m,
	})
	require.NoError(t, err)
	return b
}
