package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, tariff *WaterTariff) error
	UpdateBounds(ctx context.Context, db *gorm.DB, tariff *WaterTariff) error
	Deactivate(ctx context.Context, db *gorm.DB, ids []snowflake.ID, at time.Time) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*WaterTariff, error)
	// ListActive returns the active brackets of one scope; a nil village is the global scope.
	ListActive(ctx context.Context, db *gorm.DB, villageID *uuid.UUID) ([]WaterTariff, error)
}
