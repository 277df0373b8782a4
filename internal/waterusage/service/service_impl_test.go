package service_test

import (
	"context"
	"testing"
	"time"

	billdomain "github.com/smallbiznis/pamdes/internal/bill/domain"
	"github.com/smallbiznis/pamdes/internal/testutil"
	usagedomain "github.com/smallbiznis/pamdes/internal/waterusage/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func int64Ptr(v int64) *int64 { return &v }

func TestRecord_DefaultsInitialMeterFromPreviousReading(t *testing.T) {
	e := testutil.NewEnv(t)
	ctx := context.Background()
	village := e.Village(t, "Sukamaju")
	andi := e.Customer(t, village.ID, "Andi")
	feb := e.Period(t, village.ID, 2025, 2)
	mar := e.Period(t, village.ID, 2025, 3)

	first := e.Reading(t, andi.ID, feb.ID, 100, 125)
	assert.Equal(t, int64(25), first.TotalUsage)

	e.Clock.Advance(24 * time.Hour)
	second, err := e.Usages.Record(ctx, usagedomain.RecordRequest{
		CustomerID: andi.ID,
		PeriodID:   mar.ID,
		FinalMeter: 140,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(125), second.InitialMeter)
	assert.Equal(t, int64(15), second.TotalUsage)
	assert.Equal(t, village.ID, second.VillageID)
	assert.True(t, e.Clock.Now().Equal(second.UsageDate))
}

func TestRecord_FirstReadingStartsFromZero(t *testing.T) {
	e := testutil.NewEnv(t)
	village := e.Village(t, "Sukamaju")
	andi := e.Customer(t, village.ID, "Andi")
	mar := e.Period(t, village.ID, 2025, 3)

	u, err := e.Usages.Record(context.Background(), usagedomain.RecordRequest{
		CustomerID: andi.ID,
		PeriodID:   mar.ID,
		FinalMeter: 12,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), u.InitialMeter)
	assert.Equal(t, int64(12), u.TotalUsage)
}

func TestRecord_MeterRollbackFloorsUsage(t *testing.T) {
	e := testutil.NewEnv(t)
	village := e.Village(t, "Sukamaju")
	andi := e.Customer(t, village.ID, "Andi")
	mar := e.Period(t, village.ID, 2025, 3)

	u := e.Reading(t, andi.ID, mar.ID, 500, 480)
	assert.Equal(t, int64(0), u.TotalUsage)
}

func TestRecord_Rejections(t *testing.T) {
	e := testutil.NewEnv(t)
	ctx := context.Background()
	village := e.Village(t, "Sukamaju")
	other := e.Village(t, "Sukasari")
	andi := e.Customer(t, village.ID, "Andi")
	mar := e.Period(t, village.ID, 2025, 3)
	otherMar := e.Period(t, other.ID, 2025, 3)

	_, err := e.Usages.Record(ctx, usagedomain.RecordRequest{CustomerID: andi.ID, PeriodID: mar.ID, FinalMeter: -1})
	assert.ErrorIs(t, err, usagedomain.ErrInvalidMeter)

	_, err = e.Usages.Record(ctx, usagedomain.RecordRequest{CustomerID: e.GenID.Generate(), PeriodID: mar.ID, FinalMeter: 10})
	assert.ErrorIs(t, err, usagedomain.ErrInvalidCustomer)

	_, err = e.Usages.Record(ctx, usagedomain.RecordRequest{CustomerID: andi.ID, PeriodID: e.GenID.Generate(), FinalMeter: 10})
	assert.ErrorIs(t, err, usagedomain.ErrInvalidPeriod)

	_, err = e.Usages.Record(ctx, usagedomain.RecordRequest{CustomerID: andi.ID, PeriodID: otherMar.ID, FinalMeter: 10})
	assert.ErrorIs(t, err, usagedomain.ErrVillageMismatch)

	e.Reading(t, andi.ID, mar.ID, 0, 10)
	_, err = e.Usages.Record(ctx, usagedomain.RecordRequest{CustomerID: andi.ID, PeriodID: mar.ID, InitialMeter: int64Ptr(10), FinalMeter: 20})
	assert.ErrorIs(t, err, usagedomain.ErrDuplicateReading)

	feb := e.Period(t, village.ID, 2025, 2)
	_, err = e.Periods.Complete(ctx, feb.ID)
	require.NoError(t, err)
	_, err = e.Usages.Record(ctx, usagedomain.RecordRequest{CustomerID: andi.ID, PeriodID: feb.ID, FinalMeter: 5})
	assert.ErrorIs(t, err, usagedomain.ErrPeriodClosed)
}

func TestUpdateFinalMeter(t *testing.T) {
	e := testutil.NewEnv(t)
	ctx := context.Background()
	village := e.Village(t, "Sukamaju")
	e.StandardTariff(t, village.ID)
	andi := e.Customer(t, village.ID, "Andi")
	mar := e.Period(t, village.ID, 2025, 3)

	u := e.Reading(t, andi.ID, mar.ID, 100, 110)

	updated, err := e.Usages.UpdateFinalMeter(ctx, u.ID, 130)
	require.NoError(t, err)
	assert.Equal(t, int64(30), updated.TotalUsage)

	stored, err := e.Usages.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(130), stored.FinalMeter)
	assert.Equal(t, int64(30), stored.TotalUsage)

	_, err = e.Usages.UpdateFinalMeter(ctx, u.ID, -5)
	assert.ErrorIs(t, err, usagedomain.ErrInvalidMeter)

	_, err = e.Bills.GenerateBill(ctx, billdomain.GenerateRequest{UsageID: u.ID})
	require.NoError(t, err)

	_, err = e.Usages.UpdateFinalMeter(ctx, u.ID, 140)
	assert.ErrorIs(t, err, usagedomain.ErrReadingBilled)

	_, err = e.Usages.UpdateFinalMeter(ctx, e.GenID.Generate(), 140)
	assert.ErrorIs(t, err, usagedomain.ErrNotFound)

	readings, err := e.Usages.ListByPeriod(ctx, mar.ID)
	require.NoError(t, err)
	assert.Len(t, readings, 1)
}
