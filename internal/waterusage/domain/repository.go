package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, usage *WaterUsage) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*WaterUsage, error)
	// LockByID reads the row FOR UPDATE; db must be a transaction.
	LockByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*WaterUsage, error)
	FindLatestForCustomer(ctx context.Context, db *gorm.DB, customerID snowflake.ID) (*WaterUsage, error)
	ListByPeriod(ctx context.Context, db *gorm.DB, periodID snowflake.ID) ([]*WaterUsage, error)
	UpdateMeter(ctx context.Context, db *gorm.DB, id snowflake.ID, finalMeter, totalUsage int64, at time.Time) error
	HasBill(ctx context.Context, db *gorm.DB, id snowflake.ID) (bool, error)
}
