package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type BillStatus string

const (
	StatusUnpaid  BillStatus = "unpaid"
	StatusPaid    BillStatus = "paid"
	StatusOverdue BillStatus = "overdue"
	StatusPending BillStatus = "pending"
	StatusFailed  BillStatus = "failed"
	StatusExpired BillStatus = "expired"
)

type Kind string

const (
	KindSingle Kind = "single"
	KindBundle Kind = "bundle"
)

// Bill is either a single bill for one reading or a bundle container (BillCount > 1).
// A container's children are linked through bill_bundle_items.
type Bill struct {
	ID              snowflake.ID    `json:"id" gorm:"primaryKey"`
	VillageID       uuid.UUID       `json:"village_id" gorm:"type:uuid;not null;index"`
	CustomerID      snowflake.ID    `json:"customer_id" gorm:"not null;index"`
	UsageID         snowflake.ID    `json:"usage_id" gorm:"not null;index"`
	PeriodID        snowflake.ID    `json:"period_id" gorm:"not null;index"`
	TariffID        *snowflake.ID   `json:"tariff_id,omitempty"`
	WaterCharge     decimal.Decimal `json:"water_charge" gorm:"type:decimal(18,2);not null"`
	AdminFee        decimal.Decimal `json:"admin_fee" gorm:"type:decimal(18,2);not null"`
	MaintenanceFee  decimal.Decimal `json:"maintenance_fee" gorm:"type:decimal(18,2);not null"`
	TotalAmount     decimal.Decimal `json:"total_amount" gorm:"type:decimal(18,2);not null"`
	BillCount       int             `json:"bill_count" gorm:"not null;default:1"`
	Status          BillStatus      `json:"status" gorm:"type:text;not null;index"`
	BundleReference *string         `json:"bundle_reference,omitempty" gorm:"type:text;uniqueIndex"`
	DueDate         time.Time       `json:"due_date" gorm:"not null;index"`
	PaymentDate     *time.Time      `json:"payment_date,omitempty"`
	PaidAt          *time.Time      `json:"paid_at,omitempty"`
	ExpiresAt       *time.Time      `json:"expires_at,omitempty"`
	CollectorID     *snowflake.ID   `json:"collector_id,omitempty"`
	PaymentMethod   *string         `json:"payment_method,omitempty" gorm:"type:text"`
	Notes           string          `json:"notes,omitempty" gorm:"type:text"`
	Breakdown       datatypes.JSON  `json:"breakdown,omitempty"`
	CreatedAt       time.Time       `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt       time.Time       `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Bill) TableName() string { return "bills" }

func (b Bill) Kind() Kind {
	if b.BillCount > 1 || b.BundleReference != nil {
		return KindBundle
	}
	return KindSingle
}

func (b Bill) IsBundle() bool { return b.Kind() == KindBundle }

// IsExpired treats a pending bill past its deadline as expired before the sweep flips it.
func (b Bill) IsExpired(now time.Time) bool {
	if b.Status == StatusExpired {
		return true
	}
	return b.ExpiresAt != nil && now.After(*b.ExpiresAt)
}

func (b Bill) CanBePaid(now time.Time) bool {
	switch b.Status {
	case StatusUnpaid, StatusOverdue, StatusPending:
		return !b.IsExpired(now)
	default:
		return false
	}
}

// Settlement describes how a bill was paid.
type Settlement struct {
	PaidAt        time.Time
	PaymentMethod string
	CollectorID   *snowflake.ID
}

func (b *Bill) MarkAsPaid(now time.Time, s Settlement) error {
	if b.Status == StatusPaid {
		return ErrAlreadyPaid
	}
	if !b.CanBePaid(now) {
		return ErrNotPayable
	}
	paidAt := s.PaidAt.UTC()
	b.Status = StatusPaid
	b.PaidAt = &paidAt
	b.PaymentDate = &paidAt
	if s.PaymentMethod != "" {
		method := s.PaymentMethod
		b.PaymentMethod = &method
	}
	if s.CollectorID != nil {
		id := *s.CollectorID
		b.CollectorID = &id
	}
	b.UpdatedAt = now
	return nil
}

func (b *Bill) MarkAsFailed(now time.Time) error {
	if b.Status != StatusPending {
		return ErrInvalidTransition
	}
	b.Status = StatusFailed
	b.UpdatedAt = now
	return nil
}

func (b *Bill) MarkAsExpired(now time.Time) error {
	if b.Status != StatusPending {
		return ErrInvalidTransition
	}
	b.Status = StatusExpired
	b.UpdatedAt = now
	return nil
}

// GenerateRequest bills one reading. Nil fees fall back to the village defaults.
type GenerateRequest struct {
	UsageID        snowflake.ID     `json:"usage_id"`
	AdminFee       *decimal.Decimal `json:"admin_fee"`
	MaintenanceFee *decimal.Decimal `json:"maintenance_fee"`
	Notes          string           `json:"notes"`
}

type BatchFailure struct {
	UsageID snowflake.ID `json:"usage_id"`
	Reason  string       `json:"reason"`
}

type BatchResult struct {
	Created []*Bill        `json:"created"`
	Failed  []BatchFailure `json:"failed"`
	Skipped int            `json:"skipped"`
}

type ListFilter struct {
	IDs        []snowflake.ID
	CustomerID snowflake.ID
	Statuses   []BillStatus
}
