package domain

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, village *Village) error
	Update(ctx context.Context, db *gorm.DB, village *Village) error
	FindByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*Village, error)
	FindBySlug(ctx context.Context, db *gorm.DB, slug string) (*Village, error)
	// LockByID takes a row lock on the village, serializing per-tenant writers.
	LockByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*Village, error)
	List(ctx context.Context, db *gorm.DB) ([]*Village, error)
	ListAutoGenerate(ctx context.Context, db *gorm.DB) ([]*Village, error)
}
