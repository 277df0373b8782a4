package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LedgerEntryDirection represents debit or credit postings.
type LedgerEntryDirection string

const (
	LedgerEntryDirectionDebit  LedgerEntryDirection = "debit"
	LedgerEntryDirectionCredit LedgerEntryDirection = "credit"
)

type LedgerSourceType string

const (
	SourceTypeBill    LedgerSourceType = "bill"    // receivable raised for a single bill
	SourceTypePayment LedgerSourceType = "payment" // cash collected against a bill
)

type LedgerAccountCode string

const (
	// Assets
	AccountCodeAccountsReceivable LedgerAccountCode = "accounts_receivable"
	AccountCodeCash               LedgerAccountCode = "cash"

	// Revenue
	AccountCodeRevenueWater LedgerAccountCode = "revenue_water"
	AccountCodeRevenueFees  LedgerAccountCode = "revenue_fees"
)

func (c LedgerAccountCode) Valid() bool {
	switch c {
	case AccountCodeAccountsReceivable, AccountCodeCash, AccountCodeRevenueWater, AccountCodeRevenueFees:
		return true
	default:
		return false
	}
}

// LedgerEntry captures the immutable header for a financial event.
type LedgerEntry struct {
	ID         snowflake.ID     `json:"id" gorm:"primaryKey"`
	VillageID  uuid.UUID        `json:"village_id" gorm:"type:uuid;not null;index"`
	SourceType LedgerSourceType `json:"source_type" gorm:"type:text;not null;uniqueIndex:ux_ledger_entries_source,priority:1"`
	SourceID   snowflake.ID     `json:"source_id" gorm:"not null;uniqueIndex:ux_ledger_entries_source,priority:2"`
	OccurredAt time.Time        `json:"occurred_at" gorm:"not null"`
	CreatedAt  time.Time        `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (LedgerEntry) TableName() string { return "ledger_entries" }

// LedgerEntryLine is a double-entry posting line.
type LedgerEntryLine struct {
	ID            snowflake.ID         `json:"id" gorm:"primaryKey"`
	LedgerEntryID snowflake.ID         `json:"ledger_entry_id" gorm:"not null;index"`
	AccountCode   LedgerAccountCode    `json:"account_code" gorm:"type:text;not null;index"`
	Direction     LedgerEntryDirection `json:"direction" gorm:"type:text;not null"`
	Amount        decimal.Decimal      `json:"amount" gorm:"type:decimal(18,2);not null"`
	CreatedAt     time.Time            `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (LedgerEntryLine) TableName() string { return "ledger_entry_lines" }

// PostRequest describes one financial event. Posting the same source twice is a no-op.
type PostRequest struct {
	VillageID  uuid.UUID
	SourceType LedgerSourceType
	SourceID   snowflake.ID
	OccurredAt time.Time
	Lines      []LedgerEntryLine
}

// BillLines raises the receivable for a bill against water and fee revenue.
func BillLines(water, fees decimal.Decimal) []LedgerEntryLine {
	lines := []LedgerEntryLine{
		{AccountCode: AccountCodeAccountsReceivable, Direction: LedgerEntryDirectionDebit, Amount: water.Add(fees)},
		{AccountCode: AccountCodeRevenueWater, Direction: LedgerEntryDirectionCredit, Amount: water},
	}
	if !fees.IsZero() {
		lines = append(lines, LedgerEntryLine{AccountCode: AccountCodeRevenueFees, Direction: LedgerEntryDirectionCredit, Amount: fees})
	}
	return lines
}

// PaymentLines moves a collected amount from receivable to cash.
func PaymentLines(amount decimal.Decimal) []LedgerEntryLine {
	return []LedgerEntryLine{
		{AccountCode: AccountCodeCash, Direction: LedgerEntryDirectionDebit, Amount: amount},
		{AccountCode: AccountCodeAccountsReceivable, Direction: LedgerEntryDirectionCredit, Amount: amount},
	}
}
