package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Repository interface {
	// InsertEntry reports false when an entry for the same source already exists.
	InsertEntry(ctx context.Context, db *gorm.DB, entry *LedgerEntry) (bool, error)
	InsertLines(ctx context.Context, db *gorm.DB, lines []LedgerEntryLine) error
	FindBySource(ctx context.Context, db *gorm.DB, sourceType LedgerSourceType, sourceID snowflake.ID) (*LedgerEntry, []LedgerEntryLine, error)
	Balance(ctx context.Context, db *gorm.DB, villageID uuid.UUID, account LedgerAccountCode) (decimal.Decimal, error)
}
