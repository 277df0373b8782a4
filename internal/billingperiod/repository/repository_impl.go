package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/smallbiznis/pamdes/internal/billingperiod/domain"
	"github.com/smallbiznis/pamdes/pkg/db/option"
	"github.com/smallbiznis/pamdes/pkg/repository"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func store(db *gorm.DB) repository.Store[domain.BillingPeriod] {
	return repository.For[domain.BillingPeriod](db)
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, period *domain.BillingPeriod) error {
	return store(db).Insert(ctx, period)
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.BillingPeriod, error) {
	return store(db).First(ctx, &domain.BillingPeriod{ID: id})
}

func (r *repo) FindByMonth(ctx context.Context, db *gorm.DB, villageID uuid.UUID, year, month int) (*domain.BillingPeriod, error) {
	return store(db).First(ctx, nil,
		option.WithWhere("village_id = ? AND year = ? AND month = ?", villageID, year, month),
	)
}

func (r *repo) ListByStatus(ctx context.Context, db *gorm.DB, villageID uuid.UUID, status domain.Status) ([]*domain.BillingPeriod, error) {
	return store(db).Find(ctx, nil,
		option.WithWhere("village_id = ? AND status = ?", villageID, status),
		option.WithOrder("year DESC, month DESC"),
	)
}

func (r *repo) List(ctx context.Context, db *gorm.DB, villageID uuid.UUID) ([]*domain.BillingPeriod, error) {
	return store(db).Find(ctx, nil,
		option.WithWhere("village_id = ?", villageID),
		option.WithOrder("year DESC, month DESC"),
	)
}

func (r *repo) UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status domain.Status, at time.Time) error {
	_, err := store(db).Patch(ctx, id, map[string]any{"status": status, "updated_at": at})
	return err
}
