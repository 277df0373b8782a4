package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	billdomain "github.com/smallbiznis/pamdes/internal/bill/domain"
	"github.com/smallbiznis/pamdes/internal/bundle/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) InsertItems(ctx context.Context, db *gorm.DB, items []domain.Item) error {
	if len(items) == 0 {
		return nil
	}
	return db.WithContext(ctx).Create(&items).Error
}

func (r *repo) ListItems(ctx context.Context, db *gorm.DB, bundleID snowflake.ID) ([]domain.Item, error) {
	var items []domain.Item
	err := db.WithContext(ctx).Raw(
		`SELECT bundle_id, bill_id, original_amount, created_at
		 FROM bill_bundle_items
		 WHERE bundle_id = ?
		 ORDER BY bill_id ASC`,
		bundleID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) ActiveMembers(ctx context.Context, db *gorm.DB, billIDs []snowflake.ID, now time.Time) ([]snowflake.ID, error) {
	if len(billIDs) == 0 {
		return nil, nil
	}
	var ids []snowflake.ID
	err := db.WithContext(ctx).Raw(
		`SELECT DISTINCT i.bill_id
		 FROM bill_bundle_items i
		 JOIN bills c ON c.id = i.bundle_id
		 WHERE i.bill_id IN ? AND c.status = ?
		   AND (c.expires_at IS NULL OR c.expires_at >= ?)`,
		billIDs, billdomain.StatusPending, now,
	).Scan(&ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *repo) ExpireStale(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE bills SET status = ?, updated_at = ?
		 WHERE status = ? AND bundle_reference IS NOT NULL AND expires_at < ?`,
		billdomain.StatusExpired, now, billdomain.StatusPending, now,
	)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
