package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	billdomain "github.com/smallbiznis/pamdes/internal/bill/domain"
	"github.com/smallbiznis/pamdes/internal/payment/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

const paymentColumns = `id, village_id, bill_id, payment_date, amount_paid, change_given,
	payment_method, payment_reference, collector_id, notes, created_at`

func (r *repo) Insert(ctx context.Context, db *gorm.DB, payment *domain.Payment) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO payments (`+paymentColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		payment.ID,
		payment.VillageID,
		payment.BillID,
		payment.PaymentDate,
		payment.AmountPaid,
		payment.ChangeGiven,
		payment.PaymentMethod,
		payment.PaymentReference,
		payment.CollectorID,
		payment.Notes,
		payment.CreatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Payment, error) {
	var item domain.Payment
	err := db.WithContext(ctx).Raw(
		`SELECT `+paymentColumns+` FROM payments WHERE id = ?`,
		id,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

func (r *repo) ListByBill(ctx context.Context, db *gorm.DB, billID snowflake.ID) ([]*domain.Payment, error) {
	var items []*domain.Payment
	err := db.WithContext(ctx).Raw(
		`SELECT `+paymentColumns+` FROM payments
		 WHERE bill_id = ?
		 ORDER BY payment_date ASC, id ASC`,
		billID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) InActiveBundle(ctx context.Context, db *gorm.DB, billID snowflake.ID, now time.Time) (bool, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(1)
		 FROM bill_bundle_items i
		 JOIN bills c ON c.id = i.bundle_id
		 WHERE i.bill_id = ? AND c.status = ?
		   AND (c.expires_at IS NULL OR c.expires_at >= ?)`,
		billID, billdomain.StatusPending, now,
	).Scan(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
