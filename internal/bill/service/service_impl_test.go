package service_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/pamdes/internal/bill/domain"
	billservice "github.com/smallbiznis/pamdes/internal/bill/service"
	customerdomain "github.com/smallbiznis/pamdes/internal/customer/domain"
	ledgerdomain "github.com/smallbiznis/pamdes/internal/ledger/domain"
	paymentdomain "github.com/smallbiznis/pamdes/internal/payment/domain"
	tariffdomain "github.com/smallbiznis/pamdes/internal/tariff/domain"
	"github.com/smallbiznis/pamdes/internal/lock"
	"github.com/smallbiznis/pamdes/internal/testutil"
	usagedomain "github.com/smallbiznis/pamdes/internal/waterusage/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestGenerateBill_EndToEnd(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	village := env.Village(t, "Sukamaju")
	env.StandardTariff(t, village.ID)
	customer := env.Customer(t, village.ID, "Budi")
	period := env.Period(t, village.ID, 2025, 3)
	reading := env.Reading(t, customer.ID, period.ID, 100, 125)

	bill, err := env.Bills.GenerateBill(ctx, domain.GenerateRequest{UsageID: reading.ID})
	require.NoError(t, err)

	// 25 m3 walks 11 units @2500, 10 @3000 and 4 @3500 (bracket capacity is max-min+1).
	assert.Equal(t, "71500", bill.WaterCharge.String())
	assert.Equal(t, "5000", bill.AdminFee.String())
	assert.Equal(t, "2000", bill.MaintenanceFee.String())
	assert.Equal(t, "78500", bill.TotalAmount.String())
	assert.Equal(t, domain.StatusUnpaid, bill.Status)
	assert.Equal(t, domain.KindSingle, bill.Kind())
	assert.Equal(t, time.Date(2025, time.April, 7, 0, 0, 0, 0, time.UTC), bill.DueDate.UTC())
	require.NotNil(t, bill.TariffID)

	var breakdown []tariffdomain.BreakdownLine
	require.NoError(t, json.Unmarshal(bill.Breakdown, &breakdown))
	assert.Len(t, breakdown, 3)

	stored, err := env.Bills.Get(ctx, bill.ID)
	require.NoError(t, err)
	assert.True(t, stored.TotalAmount.Equal(decimal.NewFromInt(78500)))

	receivable, err := env.Ledger.Balance(ctx, village.ID, ledgerdomain.AccountCodeAccountsReceivable)
	require.NoError(t, err)
	assert.True(t, receivable.Equal(decimal.NewFromInt(78500)), receivable.String())

	payment, err := env.Payments.PayBill(ctx, bill.ID, paymentdomain.PayRequest{})
	require.NoError(t, err)
	assert.True(t, payment.AmountPaid.Equal(decimal.NewFromInt(78500)))
	assert.Equal(t, paymentdomain.MethodCash, payment.PaymentMethod)

	payments, err := env.Payments.ListByBill(ctx, bill.ID)
	require.NoError(t, err)
	assert.Len(t, payments, 1)

	paid, err := env.Bills.Get(ctx, bill.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPaid, paid.Status)
	require.NotNil(t, paid.PaidAt)

	receivable, err = env.Ledger.Balance(ctx, village.ID, ledgerdomain.AccountCodeAccountsReceivable)
	require.NoError(t, err)
	assert.True(t, receivable.IsZero(), receivable.String())
	cash, err := env.Ledger.Balance(ctx, village.ID, ledgerdomain.AccountCodeCash)
	require.NoError(t, err)
	assert.True(t, cash.Equal(decimal.NewFromInt(78500)), cash.String())
}

func TestGenerateBill_ExplicitFeesOverrideDefaults(t *testing.T) {
	env := testutil.NewEnv(t)
	village := env.Village(t, "Sukamaju")
	env.StandardTariff(t, village.ID)
	customer := env.Customer(t, village.ID, "Budi")
	period := env.Period(t, village.ID, 2025, 3)

	bill := env.Bill(t, customer.ID, period.ID, 5, 1000, 0)
	assert.Equal(t, "12500", bill.WaterCharge.String())
	assert.Equal(t, "13500", bill.TotalAmount.String())
}

func TestGenerateBill_RejectsDuplicate(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	village := env.Village(t, "Sukamaju")
	env.StandardTariff(t, village.ID)
	customer := env.Customer(t, village.ID, "Budi")
	period := env.Period(t, village.ID, 2025, 3)
	reading := env.Reading(t, customer.ID, period.ID, 0, 12)

	_, err := env.Bills.GenerateBill(ctx, domain.GenerateRequest{UsageID: reading.ID})
	require.NoError(t, err)
	_, err = env.Bills.GenerateBill(ctx, domain.GenerateRequest{UsageID: reading.ID})
	require.ErrorIs(t, err, domain.ErrDuplicateBill)

	bills, err := env.Bills.List(ctx, domain.ListFilter{CustomerID: customer.ID})
	require.NoError(t, err)
	assert.Len(t, bills, 1)
}

func TestGenerateBill_Validation(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	village := env.Village(t, "Sukamaju")
	customer := env.Customer(t, village.ID, "Budi")
	period := env.Period(t, village.ID, 2025, 3)
	reading := env.Reading(t, customer.ID, period.ID, 0, 12)

	negative := decimal.NewFromInt(-1)
	_, err := env.Bills.GenerateBill(ctx, domain.GenerateRequest{UsageID: reading.ID, AdminFee: &negative})
	require.ErrorIs(t, err, domain.ErrInvalidFee)

	_, err = env.Bills.GenerateBill(ctx, domain.GenerateRequest{UsageID: env.GenID.Generate()})
	require.ErrorIs(t, err, domain.ErrUsageNotFound)

	_, err = env.Bills.GenerateBill(ctx, domain.GenerateRequest{UsageID: reading.ID})
	require.ErrorIs(t, err, tariffdomain.ErrEmptySchedule)

	env.StandardTariff(t, village.ID)
	_, err = env.Customers.SetStatus(ctx, customer.ID, customerdomain.StatusInactive)
	require.NoError(t, err)
	_, err = env.Bills.GenerateBill(ctx, domain.GenerateRequest{UsageID: reading.ID})
	require.ErrorIs(t, err, domain.ErrCustomerInactive)
}

func TestGenerateBillsForPeriod_TalliesOutcomes(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	village := env.Village(t, "Sukamaju")
	env.StandardTariff(t, village.ID)
	period := env.Period(t, village.ID, 2025, 3)

	for i, usage := range []int64{3, 15, 25, 40} {
		c := env.Customer(t, village.ID, "Pelanggan "+string(rune('A'+i)))
		env.Reading(t, c.ID, period.ID, 0, usage)
	}
	inactive := env.Customer(t, village.ID, "Nonaktif")
	env.Reading(t, inactive.ID, period.ID, 0, 9)
	_, err := env.Customers.SetStatus(ctx, inactive.ID, customerdomain.StatusInactive)
	require.NoError(t, err)

	result, err := env.Bills.GenerateBillsForPeriod(ctx, period.ID, nil, nil)
	require.NoError(t, err)
	assert.Len(t, result.Created, 4)
	assert.Empty(t, result.Failed)
	assert.Equal(t, 1, result.Skipped)

	again, err := env.Bills.GenerateBillsForPeriod(ctx, period.ID, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, again.Created)
	assert.Empty(t, again.Failed)
}

func TestGenerateBillsForPeriod_IsolatesFailures(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	village := env.Village(t, "Sukamaju")
	period := env.Period(t, village.ID, 2025, 3)
	c := env.Customer(t, village.ID, "Budi")
	env.Reading(t, c.ID, period.ID, 0, 9)

	result, err := env.Bills.GenerateBillsForPeriod(ctx, period.ID, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, result.Created)
	require.Len(t, result.Failed, 1)
	assert.Contains(t, result.Failed[0].Reason, tariffdomain.ErrEmptySchedule.Error())

	_, err = env.Bills.GenerateBillsForPeriod(ctx, env.GenID.Generate(), nil, nil)
	require.ErrorIs(t, err, domain.ErrPeriodNotFound)
}

func TestUpdateOverdueBills_Idempotent(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	village := env.Village(t, "Sukamaju")
	env.StandardTariff(t, village.ID)
	period := env.Period(t, village.ID, 2025, 3)
	late := env.Bill(t, env.Customer(t, village.ID, "Budi").ID, period.ID, 10, 5000, 2000)
	paid := env.Bill(t, env.Customer(t, village.ID, "Sari").ID, period.ID, 10, 5000, 2000)
	_, err := env.Payments.PayBill(ctx, paid.ID, paymentdomain.PayRequest{})
	require.NoError(t, err)

	n, err := env.Bills.UpdateOverdueBills(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	// due date is 2025-04-07; the bill is overdue from the 8th.
	env.Clock.Set(time.Date(2025, time.April, 7, 23, 0, 0, 0, time.UTC))
	n, err = env.Bills.UpdateOverdueBills(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	env.Clock.Set(time.Date(2025, time.April, 8, 0, 30, 0, 0, time.UTC))
	n, err = env.Bills.UpdateOverdueBills(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = env.Bills.UpdateOverdueBills(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	stored, err := env.Bills.Get(ctx, late.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusOverdue, stored.Status)
	stored, err = env.Bills.Get(ctx, paid.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPaid, stored.Status)
}

// pricingHook runs before every tariff calculation.
type pricingHook struct {
	tariffdomain.Service
	before func(ctx context.Context)
}

func (h *pricingHook) Calculate(ctx context.Context, villageID *uuid.UUID, usage int64) (*tariffdomain.Calculation, error) {
	h.before(ctx)
	return h.Service.Calculate(ctx, villageID, usage)
}

func billsWithHook(env *testutil.Env, before func(ctx context.Context)) domain.Service {
	return billservice.New(billservice.Params{
		DB: env.DB, Log: zap.NewNop(), GenID: env.GenID, Clock: env.Clock, Locker: env.Locker, Config: env.Config,
		Repo: env.BillRepo, UsageRepo: env.UsageRepo, CustomerRepo: env.CustomerRepo,
		PeriodRepo: env.PeriodRepo, VillageRepo: env.VillageRepo,
		TariffSvc: &pricingHook{Service: env.Tariffs, before: before}, LedgerSvc: env.Ledger,
	})
}

func TestGenerateBill_MeterEditWaitsForPricing(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	village := env.Village(t, "Sukamaju")
	env.StandardTariff(t, village.ID)
	customer := env.Customer(t, village.ID, "Budi")
	period := env.Period(t, village.ID, 2025, 3)
	reading := env.Reading(t, customer.ID, period.ID, 100, 125)

	var editErr error
	bills := billsWithHook(env, func(context.Context) {
		editCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
		defer cancel()
		_, editErr = env.Usages.UpdateFinalMeter(editCtx, reading.ID, 140)
	})

	bill, err := bills.GenerateBill(ctx, domain.GenerateRequest{UsageID: reading.ID})
	require.NoError(t, err)
	assert.ErrorIs(t, editErr, lock.ErrLockTimeout)
	assert.Equal(t, "71500", bill.WaterCharge.String())

	stored, err := env.Usages.Get(ctx, reading.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(25), stored.TotalUsage)

	_, err = env.Usages.UpdateFinalMeter(ctx, reading.ID, 140)
	assert.ErrorIs(t, err, usagedomain.ErrReadingBilled)
}

func TestGenerateBill_RejectsReadingChangedWhilePricing(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	village := env.Village(t, "Sukamaju")
	env.StandardTariff(t, village.ID)
	customer := env.Customer(t, village.ID, "Budi")
	period := env.Period(t, village.ID, 2025, 3)
	reading := env.Reading(t, customer.ID, period.ID, 100, 125)

	// A writer that skips the reading lock still cannot get a stale bill written.
	bills := billsWithHook(env, func(hookCtx context.Context) {
		require.NoError(t, env.UsageRepo.UpdateMeter(hookCtx, env.DB, reading.ID, 140, 40, env.Clock.Now()))
	})

	_, err := bills.GenerateBill(ctx, domain.GenerateRequest{UsageID: reading.ID})
	require.ErrorIs(t, err, domain.ErrUsageChanged)

	bill, err := env.Bills.GenerateBill(ctx, domain.GenerateRequest{UsageID: reading.ID})
	require.NoError(t, err)
	// 40 m3: 11 @2500 + 10 @3000 + 19 @3500.
	assert.Equal(t, "124000", bill.WaterCharge.String())
}
