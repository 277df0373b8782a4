package service_test

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/pamdes/internal/actorcontext"
	billdomain "github.com/smallbiznis/pamdes/internal/bill/domain"
	"github.com/smallbiznis/pamdes/internal/payment/domain"
	"github.com/smallbiznis/pamdes/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unpaidBill(t *testing.T) (*testutil.Env, *billdomain.Bill) {
	env := testutil.NewEnv(t)
	village := env.Village(t, "Sukamaju")
	env.StandardTariff(t, village.ID)
	customer := env.Customer(t, village.ID, "Budi")
	period := env.Period(t, village.ID, 2025, 3)
	return env, env.Bill(t, customer.ID, period.ID, 10, 5000, 2000)
}

func TestPayBill_DefaultsToFullAmountInCash(t *testing.T) {
	env, bill := unpaidBill(t)

	payment, err := env.Payments.PayBill(context.Background(), bill.ID, domain.PayRequest{})
	require.NoError(t, err)
	assert.Equal(t, "32000", payment.AmountPaid.String())
	assert.True(t, payment.ChangeGiven.IsZero())
	assert.Equal(t, domain.MethodCash, payment.PaymentMethod)
	assert.True(t, strings.HasPrefix(payment.PaymentReference, "PAY-"))
	assert.Nil(t, payment.CollectorID)

	stored, err := env.Payments.Get(context.Background(), payment.ID)
	require.NoError(t, err)
	assert.Equal(t, payment.PaymentReference, stored.PaymentReference)
}

func TestPayBill_ComputesChange(t *testing.T) {
	env, bill := unpaidBill(t)
	tendered := decimal.NewFromInt(50000)

	payment, err := env.Payments.PayBill(context.Background(), bill.ID, domain.PayRequest{
		Tendered:      &tendered,
		PaymentMethod: domain.MethodTransfer,
	})
	require.NoError(t, err)
	assert.Equal(t, "18000", payment.ChangeGiven.String())
	assert.Equal(t, domain.MethodTransfer, payment.PaymentMethod)

	stored, err := env.Bills.Get(context.Background(), bill.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.PaymentMethod)
	assert.Equal(t, "transfer", *stored.PaymentMethod)
}

func TestPayBill_CollectorFromActor(t *testing.T) {
	env, bill := unpaidBill(t)
	actor := env.GenID.Generate()
	ctx := actorcontext.WithActorID(context.Background(), actor)

	payment, err := env.Payments.PayBill(ctx, bill.ID, domain.PayRequest{})
	require.NoError(t, err)
	require.NotNil(t, payment.CollectorID)
	assert.Equal(t, actor, *payment.CollectorID)
}

func TestPayBill_Rejections(t *testing.T) {
	env, bill := unpaidBill(t)
	ctx := context.Background()

	_, err := env.Payments.PayBill(ctx, bill.ID, domain.PayRequest{PaymentMethod: "cheque"})
	require.ErrorIs(t, err, domain.ErrInvalidMethod)

	zero := decimal.Zero
	_, err = env.Payments.PayBill(ctx, bill.ID, domain.PayRequest{Amount: &zero})
	require.ErrorIs(t, err, domain.ErrInvalidAmount)

	short := decimal.NewFromInt(1000)
	_, err = env.Payments.PayBill(ctx, bill.ID, domain.PayRequest{Tendered: &short})
	require.ErrorIs(t, err, domain.ErrInsufficientTender)

	_, err = env.Payments.PayBill(ctx, env.GenID.Generate(), domain.PayRequest{})
	require.ErrorIs(t, err, billdomain.ErrNotFound)

	_, err = env.Payments.PayBill(ctx, bill.ID, domain.PayRequest{})
	require.NoError(t, err)
	_, err = env.Payments.PayBill(ctx, bill.ID, domain.PayRequest{})
	require.ErrorIs(t, err, domain.ErrNotPayable)

	payments, err := env.Payments.ListByBill(ctx, bill.ID)
	require.NoError(t, err)
	assert.Len(t, payments, 1)
}

func TestPayBill_ConcurrentAttemptsPayOnce(t *testing.T) {
	env, bill := unpaidBill(t)
	ctx := context.Background()

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		okRuns int
	)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.Payments.PayBill(ctx, bill.ID, domain.PayRequest{})
			if err == nil {
				mu.Lock()
				okRuns++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, domain.ErrNotPayable)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, okRuns)
	payments, err := env.Payments.ListByBill(ctx, bill.ID)
	require.NoError(t, err)
	assert.Len(t, payments, 1)
}

func TestPayBill_OverdueBillIsPayable(t *testing.T) {
	env, bill := unpaidBill(t)
	ctx := context.Background()
	require.NoError(t, env.DB.Model(&billdomain.Bill{}).Where("id = ?", bill.ID).Update("status", billdomain.StatusOverdue).Error)

	_, err := env.Payments.PayBill(ctx, bill.ID, domain.PayRequest{PaymentMethod: domain.MethodQRIS})
	require.NoError(t, err)

	stored, err := env.Bills.Get(ctx, bill.ID)
	require.NoError(t, err)
	assert.Equal(t, billdomain.StatusPaid, stored.Status)
}
