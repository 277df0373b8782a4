package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, collector *Collector) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Collector, error)
	FindByNormalizedName(ctx context.Context, db *gorm.DB, villageID uuid.UUID, normalized string) (*Collector, error)
	List(ctx context.Context, db *gorm.DB, villageID uuid.UUID, activeOnly bool) ([]*Collector, error)
	SetActive(ctx context.Context, db *gorm.DB, id snowflake.ID, active bool) error
}
