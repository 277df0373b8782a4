package domain

import (
	"math/rand"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bracket(id int64, min int64, max *int64, price int64) WaterTariff {
	return WaterTariff{
		ID:           snowflake.ID(id),
		UsageMin:     min,
		UsageMax:     max,
		PricePerUnit: decimal.NewFromInt(price),
		IsActive:     true,
	}
}

func standardSchedule() []WaterTariff {
	return []WaterTariff{
		bracket(1, 0, Int64(10), 2500),
		bracket(2, 11, Int64(20), 3000),
		bracket(3, 21, nil, 3500),
	}
}

// applyWithIDs mimics persistence by giving inserted rows a fresh ID.
func applyWithIDs(t *testing.T, brackets []WaterTariff, plan Plan, next *int64) []WaterTariff {
	t.Helper()
	if plan.Insert != nil {
		*next++
		plan.Insert.ID = snowflake.ID(*next)
	}
	return plan.Apply(brackets)
}

func TestValidatePartition(t *testing.T) {
	assert.NoError(t, ValidatePartition(standardSchedule()))

	cases := []struct {
		name     string
		brackets []WaterTariff
		want     error
	}{
		{"empty", nil, ErrEmptySchedule},
		{"not from zero", []WaterTariff{bracket(1, 1, nil, 100)}, ErrGap},
		{"gap", []WaterTariff{bracket(1, 0, Int64(10), 100), bracket(2, 12, nil, 100)}, ErrGap},
		{"overlap", []WaterTariff{bracket(1, 0, Int64(10), 100), bracket(2, 10, nil, 100)}, ErrOverlap},
		{"no unbounded", []WaterTariff{bracket(1, 0, Int64(10), 100), bracket(2, 11, Int64(20), 100)}, ErrMissingUnbounded},
		{"two unbounded", []WaterTariff{bracket(1, 0, nil, 100), bracket(2, 11, nil, 100)}, ErrMultipleUnbounded},
		{"unbounded below bounded", []WaterTariff{bracket(1, 0, Int64(10), 100), bracket(2, 11, nil, 100), bracket(3, 12, Int64(20), 100)}, ErrOverlap},
		{"zero price", []WaterTariff{bracket(1, 0, nil, 0)}, ErrInvalidRange},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.ErrorIs(t, ValidatePartition(tc.brackets), tc.want)
		})
	}
}

func TestPlanInsertFirstBracket(t *testing.T) {
	_, err := PlanInsert(nil, 5, decimal.NewFromInt(100))
	assert.ErrorIs(t, err, ErrGap)

	plan, err := PlanInsert(nil, 0, decimal.NewFromInt(100))
	require.NoError(t, err)
	require.NotNil(t, plan.Insert)
	assert.Nil(t, plan.Insert.UsageMax)
	assert.Empty(t, plan.Updates)
}

func TestPlanInsertSplitsContainingBracket(t *testing.T) {
	plan, err := PlanInsert(standardSchedule(), 15, decimal.NewFromInt(2800))
	require.NoError(t, err)

	require.Len(t, plan.Updates, 1)
	assert.Equal(t, snowflake.ID(2), plan.Updates[0].ID)
	assert.Equal(t, int64(14), *plan.Updates[0].UsageMax)

	require.NotNil(t, plan.Insert)
	assert.Equal(t, int64(15), plan.Insert.UsageMin)
	assert.Equal(t, int64(20), *plan.Insert.UsageMax)

	assert.NoError(t, ValidatePartition(plan.Apply(standardSchedule())))
}

func TestPlanInsertSplitsUnboundedBracket(t *testing.T) {
	plan, err := PlanInsert(standardSchedule(), 31, decimal.NewFromInt(4000))
	require.NoError(t, err)

	require.Len(t, plan.Updates, 1)
	assert.Equal(t, snowflake.ID(3), plan.Updates[0].ID)
	assert.Equal(t, int64(30), *plan.Updates[0].UsageMax)
	assert.Nil(t, plan.Insert.UsageMax)
}

func TestPlanInsertRejectsDuplicateStart(t *testing.T) {
	_, err := PlanInsert(standardSchedule(), 11, decimal.NewFromInt(2800))
	assert.ErrorIs(t, err, ErrDuplicateRangeStart)
}

func TestPlanInsertRejectsInvalidInput(t *testing.T) {
	_, err := PlanInsert(standardSchedule(), -1, decimal.NewFromInt(100))
	assert.ErrorIs(t, err, ErrInvalidRange)
	_, err = PlanInsert(standardSchedule(), 5, decimal.Zero)
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestPlanInsertSequencesKeepPartition(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for round := 0; round < 50; round++ {
		var (
			brackets []WaterTariff
			next     int64
		)
		plan, err := PlanInsert(brackets, 0, decimal.NewFromInt(1000))
		require.NoError(t, err)
		brackets = applyWithIDs(t, brackets, plan, &next)

		for i := 0; i < 20; i++ {
			start := rng.Int63n(200)
			plan, err := PlanInsert(brackets, start, decimal.NewFromInt(1000+rng.Int63n(5000)))
			if err != nil {
				assert.ErrorIs(t, err, ErrDuplicateRangeStart)
				continue
			}
			brackets = applyWithIDs(t, brackets, plan, &next)
			require.NoError(t, ValidatePartition(brackets), "round %d insert %d", round, start)
		}
	}
}

func TestPlanEditMinOfTopBracket(t *testing.T) {
	plan, err := PlanEdit(standardSchedule(), 3, EditRequest{UsageMin: Int64(25)})
	require.NoError(t, err)
	got := plan.Apply(standardSchedule())
	require.Len(t, got, 3)
	assert.Equal(t, int64(24), *got[1].UsageMax)
	assert.Equal(t, int64(25), got[2].UsageMin)
}

func TestPlanEditMinAbsorbsPrevious(t *testing.T) {
	plan, err := PlanEdit(standardSchedule(), 3, EditRequest{UsageMin: Int64(11)})
	require.NoError(t, err)
	assert.Equal(t, []snowflake.ID{2}, plan.Removes)

	got := plan.Apply(standardSchedule())
	require.Len(t, got, 2)
	assert.NoError(t, ValidatePartition(got))
}

func TestPlanEditMinBelowPreviousRejected(t *testing.T) {
	_, err := PlanEdit(standardSchedule(), 3, EditRequest{UsageMin: Int64(5)})
	assert.ErrorIs(t, err, ErrOverlap)
}

func TestPlanEditMinOfBoundedRejected(t *testing.T) {
	_, err := PlanEdit(standardSchedule(), 2, EditRequest{UsageMin: Int64(12)})
	assert.ErrorIs(t, err, ErrFieldNotEditable)
}

func TestPlanEditMax(t *testing.T) {
	_, err := PlanEdit(standardSchedule(), 1, EditRequest{UsageMax: Int64(12)})
	assert.ErrorIs(t, err, ErrOverlap)

	_, err = PlanEdit(standardSchedule(), 1, EditRequest{UsageMax: Int64(8)})
	assert.ErrorIs(t, err, ErrGap)

	_, err = PlanEdit(standardSchedule(), 3, EditRequest{UsageMax: Int64(40)})
	assert.ErrorIs(t, err, ErrFieldNotEditable)

	_, err = PlanEdit(standardSchedule(), 1, EditRequest{UsageMax: Int64(10)})
	assert.NoError(t, err)
}

func TestPlanEditPrice(t *testing.T) {
	price := decimal.NewFromInt(2700)
	plan, err := PlanEdit(standardSchedule(), 1, EditRequest{PricePerUnit: &price})
	require.NoError(t, err)
	require.Len(t, plan.Updates, 1)
	assert.True(t, plan.Updates[0].PricePerUnit.Equal(price))

	zero := decimal.Zero
	_, err = PlanEdit(standardSchedule(), 1, EditRequest{PricePerUnit: &zero})
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestPlanEditUnknownBracket(t *testing.T) {
	_, err := PlanEdit(standardSchedule(), 99, EditRequest{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEditableFieldsFor(t *testing.T) {
	top := EditableFieldsFor(bracket(3, 21, nil, 3500))
	assert.Equal(t, EditableFields{CanEditMin: true, CanEditMax: false, CanEditPrice: true}, top)

	bounded := EditableFieldsFor(bracket(1, 0, Int64(10), 2500))
	assert.Equal(t, EditableFields{CanEditMin: false, CanEditMax: true, CanEditPrice: true}, bounded)
}

func TestCalculateProgressive(t *testing.T) {
	calc, err := Calculate(standardSchedule(), 25)
	require.NoError(t, err)

	assert.True(t, calc.TotalCharge.Equal(decimal.NewFromInt(71500)), calc.TotalCharge.String())
	require.Len(t, calc.Breakdown, 3)
	assert.Equal(t, "0-10", calc.Breakdown[0].Range)
	assert.Equal(t, int64(10), calc.Breakdown[0].Usage)
	assert.Equal(t, int64(10), calc.Breakdown[1].Usage)
	assert.Equal(t, "21+", calc.Breakdown[2].Range)
	assert.Equal(t, int64(4), calc.Breakdown[2].Usage)
	assert.True(t, calc.Breakdown[2].Charge.Equal(decimal.NewFromInt(14000)))
	assert.Equal(t, snowflake.ID(3), *calc.TopTariffID())
}

func TestCalculateWithinFirstBracket(t *testing.T) {
	calc, err := Calculate(standardSchedule(), 7)
	require.NoError(t, err)
	assert.True(t, calc.TotalCharge.Equal(decimal.NewFromInt(17500)))
	assert.Len(t, calc.Breakdown, 1)
}

func TestCalculateZeroUsage(t *testing.T) {
	calc, err := Calculate(standardSchedule(), 0)
	require.NoError(t, err)
	assert.True(t, calc.TotalCharge.IsZero())
	assert.Empty(t, calc.Breakdown)
	assert.Nil(t, calc.TopTariffID())
}

func TestCalculateKeepsFractionalRates(t *testing.T) {
	brackets := []WaterTariff{{ID: 1, UsageMin: 0, PricePerUnit: decimal.RequireFromString("1250.125"), IsActive: true}}
	calc, err := Calculate(brackets, 3)
	require.NoError(t, err)
	assert.Equal(t, "3750.375", calc.TotalCharge.String())
}

func TestCalculateRejectsNegativeAndEmpty(t *testing.T) {
	_, err := Calculate(standardSchedule(), -1)
	assert.ErrorIs(t, err, ErrNegativeUsage)
	_, err = Calculate(nil, 3)
	assert.ErrorIs(t, err, ErrEmptySchedule)
}
