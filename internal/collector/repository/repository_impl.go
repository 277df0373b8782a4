package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/smallbiznis/pamdes/internal/collector/domain"
	"github.com/smallbiznis/pamdes/pkg/db/option"
	"github.com/smallbiznis/pamdes/pkg/repository"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func store(db *gorm.DB) repository.Store[domain.Collector] {
	return repository.For[domain.Collector](db)
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, collector *domain.Collector) error {
	return store(db).Insert(ctx, collector)
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Collector, error) {
	return store(db).First(ctx, &domain.Collector{ID: id})
}

func (r *repo) FindByNormalizedName(ctx context.Context, db *gorm.DB, villageID uuid.UUID, normalized string) (*domain.Collector, error) {
	return store(db).First(ctx, nil,
		option.WithWhere("village_id = ? AND normalized_name = ?", villageID, normalized),
		option.WithOrder("is_active DESC, id ASC"),
	)
}

func (r *repo) List(ctx context.Context, db *gorm.DB, villageID uuid.UUID, activeOnly bool) ([]*domain.Collector, error) {
	opts := []option.QueryOption{option.WithWhere("village_id = ?", villageID)}
	if activeOnly {
		opts = append(opts, option.WithWhere("is_active = ?", true))
	}
	opts = append(opts, option.WithOrder("name ASC"))
	return store(db).Find(ctx, nil, opts...)
}

func (r *repo) SetActive(ctx context.Context, db *gorm.DB, id snowflake.ID, active bool) error {
	_, err := store(db).Patch(ctx, id, map[string]any{"is_active": active})
	return err
}
