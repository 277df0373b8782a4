package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, period *BillingPeriod) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*BillingPeriod, error)
	FindByMonth(ctx context.Context, db *gorm.DB, villageID uuid.UUID, year, month int) (*BillingPeriod, error)
	ListByStatus(ctx context.Context, db *gorm.DB, villageID uuid.UUID, status Status) ([]*BillingPeriod, error)
	List(ctx context.Context, db *gorm.DB, villageID uuid.UUID) ([]*BillingPeriod, error)
	UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status Status, at time.Time) error
}
