package repository

import (
	"context"

	"github.com/google/uuid"
	villagedomain "github.com/smallbiznis/pamdes/internal/village/domain"
	"github.com/smallbiznis/pamdes/pkg/db/option"
	"github.com/smallbiznis/pamdes/pkg/repository"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() villagedomain.Repository {
	return &repo{}
}

func store(db *gorm.DB) repository.Store[villagedomain.Village] {
	return repository.For[villagedomain.Village](db)
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, village *villagedomain.Village) error {
	return store(db).Insert(ctx, village)
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, village *villagedomain.Village) error {
	_, err := store(db).Patch(ctx, village.ID, map[string]any{
		"default_admin_fee":       village.DefaultAdminFee,
		"default_maintenance_fee": village.DefaultMaintenanceFee,
		"auto_generate_bills":     village.AutoGenerateBills,
		"overdue_threshold_days":  village.OverdueThresholdDays,
		"updated_at":              village.UpdatedAt,
	})
	return err
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*villagedomain.Village, error) {
	return store(db).First(ctx, nil, option.WithWhere("id = ?", id))
}

func (r *repo) FindBySlug(ctx context.Context, db *gorm.DB, slug string) (*villagedomain.Village, error) {
	return store(db).First(ctx, &villagedomain.Village{Slug: slug})
}

func (r *repo) LockByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*villagedomain.Village, error) {
	return store(db).First(ctx, nil, option.WithWhere("id = ?", id), option.ForUpdate())
}

func (r *repo) List(ctx context.Context, db *gorm.DB) ([]*villagedomain.Village, error) {
	return store(db).Find(ctx, nil, option.WithOrder("name ASC"))
}

func (r *repo) ListAutoGenerate(ctx context.Context, db *gorm.DB) ([]*villagedomain.Village, error) {
	return store(db).Find(ctx, nil,
		option.WithWhere("auto_generate_bills = ? AND is_active = ?", true, true),
		option.WithOrder("name ASC"),
	)
}
