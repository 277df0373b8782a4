package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Payment is one settlement of one bill. Rows are append-only.
type Payment struct {
	ID               snowflake.ID    `json:"id" gorm:"primaryKey"`
	VillageID        uuid.UUID       `json:"village_id" gorm:"type:uuid;not null;index"`
	BillID           snowflake.ID    `json:"bill_id" gorm:"not null;uniqueIndex:ux_payments_bill_reference,priority:1"`
	PaymentDate      time.Time       `json:"payment_date" gorm:"not null;index"`
	AmountPaid       decimal.Decimal `json:"amount_paid" gorm:"type:decimal(18,2);not null"`
	ChangeGiven      decimal.Decimal `json:"change_given" gorm:"type:decimal(18,2);not null;default:0"`
	PaymentMethod    Method          `json:"payment_method" gorm:"type:text;not null"`
	PaymentReference string          `json:"payment_reference" gorm:"type:text;not null;uniqueIndex:ux_payments_bill_reference,priority:2"`
	CollectorID      *snowflake.ID   `json:"collector_id,omitempty" gorm:"index"`
	Notes            string          `json:"notes,omitempty" gorm:"type:text"`
	CreatedAt        time.Time       `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Payment) TableName() string { return "payments" }

// PayRequest settles a single bill. Zero values take defaults: the bill total,
// cash, the actor on the context and a generated reference.
type PayRequest struct {
	Amount           *decimal.Decimal `json:"amount"`
	Tendered         *decimal.Decimal `json:"tendered"`
	PaymentMethod    Method           `json:"payment_method"`
	PaymentReference string           `json:"payment_reference"`
	CollectorID      *snowflake.ID    `json:"collector_id"`
	PaymentDate      *time.Time       `json:"payment_date"`
	Notes            string           `json:"notes"`
}
