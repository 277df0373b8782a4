package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	billdomain "github.com/smallbiznis/pamdes/internal/bill/domain"
	paymentdomain "github.com/smallbiznis/pamdes/internal/payment/domain"
)

// Item links a child bill to its bundle container. OriginalAmount is the child's
// total when it was bundled.
type Item struct {
	BundleID       snowflake.ID    `json:"bundle_id" gorm:"primaryKey"`
	BillID         snowflake.ID    `json:"bill_id" gorm:"primaryKey;index"`
	OriginalAmount decimal.Decimal `json:"original_amount" gorm:"type:decimal(18,2);not null"`
	CreatedAt      time.Time       `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Item) TableName() string { return "bill_bundle_items" }

type CreateRequest struct {
	BillIDs []snowflake.ID `json:"bill_ids"`
	Notes   string         `json:"notes"`
}

type SettleRequest struct {
	PaymentMethod paymentdomain.Method `json:"payment_method"`
	CollectorID   *snowflake.ID        `json:"collector_id"`
	Tendered      *decimal.Decimal     `json:"tendered"`
	PaymentDate   *time.Time           `json:"payment_date"`
}

type Detail struct {
	Bundle   *billdomain.Bill   `json:"bundle"`
	Items    []Item             `json:"items"`
	Children []*billdomain.Bill `json:"children"`
}

// SettleResult lists the payment rows written by one settle call; it is empty
// when the bundle was already fully settled.
type SettleResult struct {
	Bundle   *billdomain.Bill         `json:"bundle"`
	Payments []*paymentdomain.Payment `json:"payments"`
}

// Presentation is the payer-facing total: one admin fee plus the accumulated
// water and maintenance charges. StoredTotal is the container's sum of child totals.
type Presentation struct {
	AdminFee       decimal.Decimal `json:"admin_fee"`
	WaterCharge    decimal.Decimal `json:"water_charge"`
	MaintenanceFee decimal.Decimal `json:"maintenance_fee"`
	Total          decimal.Decimal `json:"total"`
	StoredTotal    decimal.Decimal `json:"stored_total"`
	BillCount      int             `json:"bill_count"`
}

// Present folds children into the payer-facing total. The single admin fee
// is the largest child admin fee, so the result does not depend on child order.
func Present(container *billdomain.Bill, children []*billdomain.Bill) Presentation {
	p := Presentation{
		AdminFee:       decimal.Zero,
		WaterCharge:    decimal.Zero,
		MaintenanceFee: decimal.Zero,
		BillCount:      len(children),
	}
	if container != nil {
		p.StoredTotal = container.TotalAmount
	}
	for i, child := range children {
		if i == 0 || child.AdminFee.GreaterThan(p.AdminFee) {
			p.AdminFee = child.AdminFee
		}
		p.WaterCharge = p.WaterCharge.Add(child.WaterCharge)
		p.MaintenanceFee = p.MaintenanceFee.Add(child.MaintenanceFee)
	}
	p.Total = p.AdminFee.Add(p.WaterCharge).Add(p.MaintenanceFee)
	return p
}
