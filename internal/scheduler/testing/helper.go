package testing

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	billdomain "github.com/smallbiznis/pamdes/internal/bill/domain"
	perioddomain "github.com/smallbiznis/pamdes/internal/billingperiod/domain"
	"gorm.io/gorm"
)

// TimeAccelerator rewrites stored dates so scheduled jobs pick rows up without waiting.
type TimeAccelerator struct {
	db  *gorm.DB
	now func() time.Time
}

func NewTimeAccelerator(db *gorm.DB, now func() time.Time) *TimeAccelerator {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &TimeAccelerator{db: db, now: now}
}

// ExpireDueDate moves the due date of an unpaid bill to yesterday.
func (ta *TimeAccelerator) ExpireDueDate(ctx context.Context, billID snowflake.ID) error {
	now := ta.now()
	return ta.db.WithContext(ctx).Exec(
		`UPDATE bills
		 SET due_date = ?, updated_at = ?
		 WHERE id = ? AND status = ?`,
		now.AddDate(0, 0, -1),
		now,
		billID,
		billdomain.StatusUnpaid,
	).Error
}

// ExpireAllDueDates backdates every unpaid bill that is not yet due.
func (ta *TimeAccelerator) ExpireAllDueDates(ctx context.Context) (int64, error) {
	now := ta.now()
	result := ta.db.WithContext(ctx).Exec(
		`UPDATE bills
		 SET due_date = ?, updated_at = ?
		 WHERE status = ? AND due_date >= ?`,
		now.AddDate(0, 0, -1),
		now,
		billdomain.StatusUnpaid,
		now,
	)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// ExpireBundle moves the expiry of a pending bundle one minute into the past.
func (ta *TimeAccelerator) ExpireBundle(ctx context.Context, bundleID snowflake.ID) error {
	now := ta.now()
	return ta.db.WithContext(ctx).Exec(
		`UPDATE bills
		 SET expires_at = ?, updated_at = ?
		 WHERE id = ? AND status = ? AND bundle_reference IS NOT NULL`,
		now.Add(-time.Minute),
		now,
		bundleID,
		billdomain.StatusPending,
	).Error
}

// CloseReadingWindow ends the reading window of an active period two days ago.
func (ta *TimeAccelerator) CloseReadingWindow(ctx context.Context, periodID snowflake.ID) error {
	now := ta.now()
	return ta.db.WithContext(ctx).Exec(
		`UPDATE billing_periods
		 SET reading_end = ?, updated_at = ?
		 WHERE id = ? AND status = ?`,
		now.AddDate(0, 0, -2),
		now,
		periodID,
		perioddomain.StatusActive,
	).Error
}
