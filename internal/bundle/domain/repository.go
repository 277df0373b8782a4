package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	InsertItems(ctx context.Context, db *gorm.DB, items []Item) error
	ListItems(ctx context.Context, db *gorm.DB, bundleID snowflake.ID) ([]Item, error)
	// ActiveMembers returns those of billIDs held by a pending bundle whose
	// deadline has not passed at now. A lapsed bundle releases its children
	// before the expiry sweep marks it.
	ActiveMembers(ctx context.Context, db *gorm.DB, billIDs []snowflake.ID, now time.Time) ([]snowflake.ID, error)
	ExpireStale(ctx context.Context, db *gorm.DB, now time.Time) (int64, error)
}
