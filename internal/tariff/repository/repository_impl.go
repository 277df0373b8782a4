package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/smallbiznis/pamdes/internal/tariff/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

const tariffColumns = `id, village_id, usage_min, usage_max, price_per_unit, is_active, created_at, updated_at`

func (r *repo) Insert(ctx context.Context, db *gorm.DB, tariff *domain.WaterTariff) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO water_tariffs (`+tariffColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		tariff.ID,
		tariff.VillageID,
		tariff.UsageMin,
		tariff.UsageMax,
		tariff.PricePerUnit,
		tariff.IsActive,
		tariff.CreatedAt,
		tariff.UpdatedAt,
	).Error
}

func (r *repo) UpdateBounds(ctx context.Context, db *gorm.DB, tariff *domain.WaterTariff) error {
	return db.WithContext(ctx).Exec(
		`UPDATE water_tariffs
		 SET usage_min = ?, usage_max = ?, price_per_unit = ?, updated_at = ?
		 WHERE id = ?`,
		tariff.UsageMin,
		tariff.UsageMax,
		tariff.PricePerUnit,
		tariff.UpdatedAt,
		tariff.ID,
	).Error
}

func (r *repo) Deactivate(ctx context.Context, db *gorm.DB, ids []snowflake.ID, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	return db.WithContext(ctx).Exec(
		`UPDATE water_tariffs SET is_active = ?, updated_at = ? WHERE id IN ?`,
		false, at, ids,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.WaterTariff, error) {
	var tariff domain.WaterTariff
	err := db.WithContext(ctx).Raw(
		`SELECT `+tariffColumns+` FROM water_tariffs WHERE id = ?`,
		id,
	).Scan(&tariff).Error
	if err != nil {
		return nil, err
	}
	if tariff.ID == 0 {
		return nil, nil
	}
	return &tariff, nil
}

func (r *repo) ListActive(ctx context.Context, db *gorm.DB, villageID *uuid.UUID) ([]domain.WaterTariff, error) {
	var tariffs []domain.WaterTariff
	query := db.WithContext(ctx).Model(&domain.WaterTariff{}).Where("is_active = ?", true)
	if villageID == nil {
		query = query.Where("village_id IS NULL")
	} else {
		query = query.Where("village_id = ?", *villageID)
	}
	if err := query.Order("usage_min ASC").Find(&tariffs).Error; err != nil {
		return nil, err
	}
	return tariffs, nil
}
