package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, payment *Payment) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Payment, error)
	ListByBill(ctx context.Context, db *gorm.DB, billID snowflake.ID) ([]*Payment, error)
	// InActiveBundle reports whether the bill is a child of a pending bundle
	// whose deadline has not passed at now.
	InActiveBundle(ctx context.Context, db *gorm.DB, billID snowflake.ID, now time.Time) (bool, error)
}
