package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/pamdes/internal/waterusage/domain"
	"github.com/smallbiznis/pamdes/pkg/db/option"
	"github.com/smallbiznis/pamdes/pkg/repository"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

const usageColumns = `id, village_id, customer_id, period_id, initial_meter, final_meter, total_usage, usage_date, created_at, updated_at`

func (r *repo) Insert(ctx context.Context, db *gorm.DB, usage *domain.WaterUsage) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO water_usages (`+usageColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		usage.ID,
		usage.VillageID,
		usage.CustomerID,
		usage.PeriodID,
		usage.InitialMeter,
		usage.FinalMeter,
		usage.TotalUsage,
		usage.UsageDate,
		usage.CreatedAt,
		usage.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.WaterUsage, error) {
	var usage domain.WaterUsage
	err := db.WithContext(ctx).Raw(
		`SELECT `+usageColumns+` FROM water_usages WHERE id = ?`,
		id,
	).Scan(&usage).Error
	if err != nil {
		return nil, err
	}
	if usage.ID == 0 {
		return nil, nil
	}
	return &usage, nil
}

func (r *repo) LockByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.WaterUsage, error) {
	return repository.For[domain.WaterUsage](db).First(ctx, nil, option.WithWhere("id = ?", id), option.ForUpdate())
}

func (r *repo) FindLatestForCustomer(ctx context.Context, db *gorm.DB, customerID snowflake.ID) (*domain.WaterUsage, error) {
	var usage domain.WaterUsage
	err := db.WithContext(ctx).Raw(
		`SELECT `+usageColumns+` FROM water_usages
		 WHERE customer_id = ?
		 ORDER BY usage_date DESC, id DESC
		 LIMIT 1`,
		customerID,
	).Scan(&usage).Error
	if err != nil {
		return nil, err
	}
	if usage.ID == 0 {
		return nil, nil
	}
	return &usage, nil
}

func (r *repo) ListByPeriod(ctx context.Context, db *gorm.DB, periodID snowflake.ID) ([]*domain.WaterUsage, error) {
	var items []*domain.WaterUsage
	err := db.WithContext(ctx).Raw(
		`SELECT `+usageColumns+` FROM water_usages WHERE period_id = ? ORDER BY id ASC`,
		periodID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) UpdateMeter(ctx context.Context, db *gorm.DB, id snowflake.ID, finalMeter, totalUsage int64, at time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE water_usages SET final_meter = ?, total_usage = ?, updated_at = ? WHERE id = ?`,
		finalMeter,
		totalUsage,
		at,
		id,
	).Error
}

func (r *repo) HasBill(ctx context.Context, db *gorm.DB, id snowflake.ID) (bool, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(1) FROM bills WHERE usage_id = ? AND bill_count = 1`,
		id,
	).Scan(&count).Error
	return count > 0, err
}
