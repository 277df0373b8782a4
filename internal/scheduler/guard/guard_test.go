package guard

import (
	"testing"
	"time"

	perioddomain "github.com/smallbiznis/pamdes/internal/billingperiod/domain"
	villagedomain "github.com/smallbiznis/pamdes/internal/village/domain"
	"github.com/stretchr/testify/assert"
)

func TestEnsurePeriodCanAutoGenerate(t *testing.T) {
	end := time.Date(2025, time.March, 28, 0, 0, 0, 0, time.UTC)

	assert.ErrorIs(t, EnsurePeriodCanAutoGenerate(perioddomain.StatusInactive, end, end.AddDate(0, 1, 0)), ErrPeriodNotActive)
	assert.ErrorIs(t, EnsurePeriodCanAutoGenerate(perioddomain.StatusCompleted, end, end.AddDate(0, 1, 0)), ErrPeriodNotActive)
	assert.ErrorIs(t, EnsurePeriodCanAutoGenerate(perioddomain.StatusActive, end, end.Add(23*time.Hour)), ErrReadingWindowIsOpen)
	assert.ErrorIs(t, EnsurePeriodCanAutoGenerate(perioddomain.StatusActive, end, end.AddDate(0, 0, 1)), ErrReadingWindowIsOpen)
	assert.NoError(t, EnsurePeriodCanAutoGenerate(perioddomain.StatusActive, end, end.AddDate(0, 0, 1).Add(time.Second)))
}

func TestEnsureVillageAutoGenerates(t *testing.T) {
	assert.ErrorIs(t, EnsureVillageAutoGenerates(villagedomain.Village{IsActive: false, AutoGenerateBills: true}), ErrVillageInactive)
	assert.ErrorIs(t, EnsureVillageAutoGenerates(villagedomain.Village{IsActive: true}), ErrAutoGenerateOff)
	assert.NoError(t, EnsureVillageAutoGenerates(villagedomain.Village{IsActive: true, AutoGenerateBills: true}))
}
