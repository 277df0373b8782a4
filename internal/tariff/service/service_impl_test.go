package service_test

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/pamdes/internal/tariff/domain"
	"github.com/smallbiznis/pamdes/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func price(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func TestCreateRange_SplitsContainingBracket(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	village := env.Village(t, "Sukamaju")

	_, err := env.Tariffs.CreateRange(ctx, domain.CreateRangeRequest{VillageID: &village.ID, UsageMin: 0, PricePerUnit: price(2000)})
	require.NoError(t, err)
	created, err := env.Tariffs.CreateRange(ctx, domain.CreateRangeRequest{VillageID: &village.ID, UsageMin: 10, PricePerUnit: price(3000)})
	require.NoError(t, err)
	assert.True(t, created.IsUnbounded())

	schedule, err := env.Tariffs.ListBrackets(ctx, &village.ID)
	require.NoError(t, err)
	require.Len(t, schedule.Brackets, 2)
	assert.False(t, schedule.Inherited)

	first, second := schedule.Brackets[0], schedule.Brackets[1]
	assert.Equal(t, int64(0), first.UsageMin)
	require.NotNil(t, first.UsageMax)
	assert.Equal(t, int64(9), *first.UsageMax)
	assert.True(t, first.PricePerUnit.Equal(price(2000)))
	assert.Equal(t, int64(10), second.UsageMin)
	assert.Nil(t, second.UsageMax)
	assert.True(t, second.PricePerUnit.Equal(price(3000)))

	require.NoError(t, env.Tariffs.Validate(ctx, &village.ID))
}

func TestCreateRange_RejectsDuplicateStart(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	village := env.Village(t, "Sukamaju")
	env.StandardTariff(t, village.ID)

	_, err := env.Tariffs.CreateRange(ctx, domain.CreateRangeRequest{VillageID: &village.ID, UsageMin: 11, PricePerUnit: price(4000)})
	require.ErrorIs(t, err, domain.ErrDuplicateRangeStart)

	schedule, err := env.Tariffs.ListBrackets(ctx, &village.ID)
	require.NoError(t, err)
	assert.Len(t, schedule.Brackets, 3)
}

func TestCreateRange_FirstBracketMustStartAtZero(t *testing.T) {
	env := testutil.NewEnv(t)
	village := env.Village(t, "Sukamaju")

	_, err := env.Tariffs.CreateRange(context.Background(), domain.CreateRangeRequest{VillageID: &village.ID, UsageMin: 5, PricePerUnit: price(2000)})
	require.ErrorIs(t, err, domain.ErrGap)
}

func TestCreateRange_UnknownVillage(t *testing.T) {
	env := testutil.NewEnv(t)
	missing := uuid.New()

	_, err := env.Tariffs.CreateRange(context.Background(), domain.CreateRangeRequest{VillageID: &missing, UsageMin: 0, PricePerUnit: price(2000)})
	require.ErrorIs(t, err, domain.ErrInvalidVillage)
}

func TestCreateRange_ConcurrentInsertsKeepPartition(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	village := env.Village(t, "Sukamaju")
	_, err := env.Tariffs.CreateRange(ctx, domain.CreateRangeRequest{VillageID: &village.ID, UsageMin: 0, PricePerUnit: price(1000)})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := int64(1); i <= 8; i++ {
		wg.Add(1)
		go func(start int64) {
			defer wg.Done()
			_, err := env.Tariffs.CreateRange(ctx, domain.CreateRangeRequest{
				VillageID:    &village.ID,
				UsageMin:     start * 5,
				PricePerUnit: price(1000 + start*100),
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	require.NoError(t, env.Tariffs.Validate(ctx, &village.ID))
	schedule, err := env.Tariffs.ListBrackets(ctx, &village.ID)
	require.NoError(t, err)
	assert.Len(t, schedule.Brackets, 9)
}

func TestCalculate_StandardSchedule(t *testing.T) {
	env := testutil.NewEnv(t)
	village := env.Village(t, "Sukamaju")
	env.StandardTariff(t, village.ID)

	calc, err := env.Tariffs.Calculate(context.Background(), &village.ID, 25)
	require.NoError(t, err)
	require.Len(t, calc.Breakdown, 3)
	assert.Equal(t, "71500", calc.TotalCharge.String())

	sum := decimal.Zero
	for _, line := range calc.Breakdown {
		sum = sum.Add(line.Charge)
	}
	assert.True(t, sum.Equal(calc.TotalCharge))
	assert.Equal(t, int64(11), calc.Breakdown[0].Usage)
	assert.Equal(t, int64(10), calc.Breakdown[1].Usage)
	assert.Equal(t, int64(4), calc.Breakdown[2].Usage)
}

func TestCalculate_FallsBackToGlobalSchedule(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	village := env.Village(t, "Sukamaju")

	_, err := env.Tariffs.CreateRange(ctx, domain.CreateRangeRequest{UsageMin: 0, PricePerUnit: price(1500)})
	require.NoError(t, err)

	schedule, err := env.Tariffs.ListBrackets(ctx, &village.ID)
	require.NoError(t, err)
	assert.True(t, schedule.Inherited)
	require.Len(t, schedule.Brackets, 1)

	calc, err := env.Tariffs.Calculate(ctx, &village.ID, 4)
	require.NoError(t, err)
	assert.Equal(t, "6000", calc.TotalCharge.String())
}

func TestCalculate_EmptySchedule(t *testing.T) {
	env := testutil.NewEnv(t)
	village := env.Village(t, "Sukamaju")

	_, err := env.Tariffs.Calculate(context.Background(), &village.ID, 4)
	require.ErrorIs(t, err, domain.ErrEmptySchedule)
}

func TestUpdateRange_PriceAndBoundary(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	village := env.Village(t, "Sukamaju")
	env.StandardTariff(t, village.ID)

	schedule, err := env.Tariffs.ListBrackets(ctx, &village.ID)
	require.NoError(t, err)
	first, top := schedule.Brackets[0], schedule.Brackets[2]

	newPrice := price(2600)
	updated, err := env.Tariffs.UpdateRange(ctx, first.ID, domain.EditRequest{PricePerUnit: &newPrice})
	require.NoError(t, err)
	assert.True(t, updated.PricePerUnit.Equal(newPrice))

	_, err = env.Tariffs.UpdateRange(ctx, first.ID, domain.EditRequest{UsageMin: domain.Int64(1)})
	require.ErrorIs(t, err, domain.ErrFieldNotEditable)

	fields, err := env.Tariffs.EditableFields(ctx, top.ID)
	require.NoError(t, err)
	assert.True(t, fields.CanEditMin)
	assert.False(t, fields.CanEditMax)

	_, err = env.Tariffs.UpdateRange(ctx, top.ID, domain.EditRequest{UsageMin: domain.Int64(25)})
	require.NoError(t, err)
	require.NoError(t, env.Tariffs.Validate(ctx, &village.ID))

	schedule, err = env.Tariffs.ListBrackets(ctx, &village.ID)
	require.NoError(t, err)
	require.Len(t, schedule.Brackets, 3)
	require.NotNil(t, schedule.Brackets[1].UsageMax)
	assert.Equal(t, int64(24), *schedule.Brackets[1].UsageMax)
}

func TestDeactivateSchedule_InheritsGlobal(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	village := env.Village(t, "Sukamaju")
	env.StandardTariff(t, village.ID)
	_, err := env.Tariffs.CreateRange(ctx, domain.CreateRangeRequest{UsageMin: 0, PricePerUnit: price(1500)})
	require.NoError(t, err)

	require.NoError(t, env.Tariffs.DeactivateSchedule(ctx, village.ID))

	schedule, err := env.Tariffs.ListBrackets(ctx, &village.ID)
	require.NoError(t, err)
	assert.True(t, schedule.Inherited)
	assert.Len(t, schedule.Brackets, 1)
}
