package repository

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/pamdes/internal/bill/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, bill *domain.Bill) error {
	return db.WithContext(ctx).Create(bill).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Bill, error) {
	var bill domain.Bill
	err := db.WithContext(ctx).Where("id = ?", id).First(&bill).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &bill, nil
}

func (r *repo) LockByIDs(ctx context.Context, db *gorm.DB, ids []snowflake.ID) ([]*domain.Bill, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	sorted := make([]snowflake.ID, len(ids))
	copy(sorted, ids)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var bills []*domain.Bill
	err := db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", sorted).
		Order("id ASC").
		Find(&bills).Error
	if err != nil {
		return nil, err
	}
	return bills, nil
}

func (r *repo) FindSingleByUsage(ctx context.Context, db *gorm.DB, usageID snowflake.ID) (*domain.Bill, error) {
	var bill domain.Bill
	err := db.WithContext(ctx).
		Where("usage_id = ? AND bill_count = ?", usageID, 1).
		Limit(1).
		Find(&bill).Error
	if err != nil {
		return nil, err
	}
	if bill.ID == 0 {
		return nil, nil
	}
	return &bill, nil
}

func (r *repo) UpdateSettlement(ctx context.Context, db *gorm.DB, bill *domain.Bill) error {
	return db.WithContext(ctx).
		Model(&domain.Bill{}).
		Where("id = ?", bill.ID).
		Updates(map[string]any{
			"status":         bill.Status,
			"payment_date":   bill.PaymentDate,
			"paid_at":        bill.PaidAt,
			"payment_method": bill.PaymentMethod,
			"collector_id":   bill.CollectorID,
			"notes":          bill.Notes,
			"updated_at":     bill.UpdatedAt,
		}).Error
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]*domain.Bill, error) {
	query := db.WithContext(ctx).Model(&domain.Bill{})
	if len(filter.IDs) > 0 {
		query = query.Where("id IN ?", filter.IDs)
	}
	if filter.CustomerID != 0 {
		query = query.Where("customer_id = ?", filter.CustomerID)
	}
	if len(filter.Statuses) > 0 {
		query = query.Where("status IN ?", filter.Statuses)
	}

	var bills []*domain.Bill
	if err := query.Order("due_date ASC, id ASC").Find(&bills).Error; err != nil {
		return nil, err
	}
	return bills, nil
}

func (r *repo) ListUnbilledUsageIDs(ctx context.Context, db *gorm.DB, periodID snowflake.ID) ([]snowflake.ID, error) {
	var ids []snowflake.ID
	err := db.WithContext(ctx).Raw(
		`SELECT u.id
		 FROM water_usages u
		 WHERE u.period_id = ?
		   AND NOT EXISTS (
		     SELECT 1 FROM bills b WHERE b.usage_id = u.id AND b.bill_count = 1
		   )
		 ORDER BY u.id ASC`,
		periodID,
	).Scan(&ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *repo) ListOverdueCandidates(ctx context.Context, db *gorm.DB, before time.Time, limit int) ([]snowflake.ID, error) {
	var ids []snowflake.ID
	err := db.WithContext(ctx).Raw(
		`SELECT id FROM bills
		 WHERE status = ? AND due_date < ?
		 ORDER BY id ASC
		 LIMIT ?`,
		domain.StatusUnpaid, before, limit,
	).Scan(&ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *repo) MarkOverdue(ctx context.Context, db *gorm.DB, ids []snowflake.ID, before time.Time, at time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := db.WithContext(ctx).Exec(
		`UPDATE bills SET status = ?, updated_at = ?
		 WHERE id IN ? AND status = ? AND due_date < ?`,
		domain.StatusOverdue, at, ids, domain.StatusUnpaid, before,
	)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
