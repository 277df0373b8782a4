package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/smallbiznis/pamdes/pkg/db/pagination"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, customer *Customer) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Customer, error)
	FindByCode(ctx context.Context, db *gorm.DB, villageID uuid.UUID, code string) (*Customer, error)
	MaxSequence(ctx context.Context, db *gorm.DB, villageID uuid.UUID) (int, error)
	UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status Status, at time.Time) error
	List(ctx context.Context, db *gorm.DB, villageID uuid.UUID, filter ListFilter, page pagination.Pagination) ([]*Customer, error)
}
