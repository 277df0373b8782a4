package guard

import (
	"errors"
	"time"

	perioddomain "github.com/smallbiznis/pamdes/internal/billingperiod/domain"
	villagedomain "github.com/smallbiznis/pamdes/internal/village/domain"
)

var (
	ErrVillageInactive     = errors.New("village_inactive")
	ErrAutoGenerateOff     = errors.New("auto_generate_disabled")
	ErrPeriodNotActive     = errors.New("period_not_active")
	ErrReadingWindowIsOpen = errors.New("reading_window_open")
)

func EnsureVillageAutoGenerates(v villagedomain.Village) error {
	if !v.IsActive {
		return ErrVillageInactive
	}
	if !v.AutoGenerateBills {
		return ErrAutoGenerateOff
	}
	return nil
}

// EnsurePeriodCanAutoGenerate allows billing once the last reading day is over.
func EnsurePeriodCanAutoGenerate(status perioddomain.Status, readingEnd time.Time, now time.Time) error {
	if status != perioddomain.StatusActive {
		return ErrPeriodNotActive
	}
	if !now.After(readingEnd.AddDate(0, 0, 1)) {
		return ErrReadingWindowIsOpen
	}
	return nil
}
