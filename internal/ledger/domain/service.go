package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Service interface {
	// Post writes the entry inside tx when given, so it commits with the caller's state change.
	Post(ctx context.Context, tx *gorm.DB, req PostRequest) error
	EntryForSource(ctx context.Context, sourceType LedgerSourceType, sourceID snowflake.ID) (*LedgerEntry, []LedgerEntryLine, error)
	// Balance is debits minus credits on one account.
	Balance(ctx context.Context, villageID uuid.UUID, account LedgerAccountCode) (decimal.Decimal, error)
}
