package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, bill *Bill) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Bill, error)
	// LockByIDs locks rows in id order so concurrent settlements cannot deadlock.
	LockByIDs(ctx context.Context, db *gorm.DB, ids []snowflake.ID) ([]*Bill, error)
	FindSingleByUsage(ctx context.Context, db *gorm.DB, usageID snowflake.ID) (*Bill, error)
	// UpdateSettlement persists status and settlement fields.
	UpdateSettlement(ctx context.Context, db *gorm.DB, bill *Bill) error
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]*Bill, error)
	ListUnbilledUsageIDs(ctx context.Context, db *gorm.DB, periodID snowflake.ID) ([]snowflake.ID, error)
	ListOverdueCandidates(ctx context.Context, db *gorm.DB, before time.Time, limit int) ([]snowflake.ID, error)
	MarkOverdue(ctx context.Context, db *gorm.DB, ids []snowflake.ID, before time.Time, at time.Time) (int64, error)
}
