package domain

import (
	"strconv"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// WaterTariff is one bracket of a village's progressive tariff.
// UsageMin and UsageMax are inclusive; a nil UsageMax is unbounded.
type WaterTariff struct {
	ID           snowflake.ID    `json:"id" gorm:"primaryKey"`
	VillageID    *uuid.UUID      `json:"village_id,omitempty" gorm:"type:uuid;index:ix_water_tariffs_scope,priority:1"`
	UsageMin     int64           `json:"usage_min" gorm:"not null;index:ix_water_tariffs_scope,priority:3"`
	UsageMax     *int64          `json:"usage_max,omitempty"`
	PricePerUnit decimal.Decimal `json:"price_per_unit" gorm:"type:decimal(18,2);not null"`
	IsActive     bool            `json:"is_active" gorm:"not null;default:true;index:ix_water_tariffs_scope,priority:2"`
	CreatedAt    time.Time       `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt    time.Time       `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (WaterTariff) TableName() string { return "water_tariffs" }

func (t WaterTariff) IsUnbounded() bool { return t.UsageMax == nil }

// Contains reports whether usage falls inside the bracket.
func (t WaterTariff) Contains(usage int64) bool {
	if usage < t.UsageMin {
		return false
	}
	return t.UsageMax == nil || usage <= *t.UsageMax
}

// RangeLabel renders the bracket for receipts: "0-10" or "21+".
func (t WaterTariff) RangeLabel() string {
	if t.UsageMax == nil {
		return strconv.FormatInt(t.UsageMin, 10) + "+"
	}
	return strconv.FormatInt(t.UsageMin, 10) + "-" + strconv.FormatInt(*t.UsageMax, 10)
}

// EditableFields describes which bounds of a bracket may be edited.
type EditableFields struct {
	CanEditMin   bool `json:"can_edit_min"`
	CanEditMax   bool `json:"can_edit_max"`
	CanEditPrice bool `json:"can_edit_price"`
}

func EditableFieldsFor(t WaterTariff) EditableFields {
	return EditableFields{
		CanEditMin:   t.IsUnbounded(),
		CanEditMax:   !t.IsUnbounded(),
		CanEditPrice: true,
	}
}

// BreakdownLine is one bracket's share of a calculated charge.
type BreakdownLine struct {
	TariffID snowflake.ID    `json:"tariff_id"`
	Range    string          `json:"range"`
	Usage    int64           `json:"usage"`
	Rate     decimal.Decimal `json:"rate"`
	Charge   decimal.Decimal `json:"charge"`
}

type Calculation struct {
	TotalUsage  int64           `json:"total_usage"`
	TotalCharge decimal.Decimal `json:"total_charge"`
	Breakdown   []BreakdownLine `json:"breakdown"`
}

// TopTariffID is the bracket the last consumed unit fell into.
func (c Calculation) TopTariffID() *snowflake.ID {
	if len(c.Breakdown) == 0 {
		return nil
	}
	id := c.Breakdown[len(c.Breakdown)-1].TariffID
	return &id
}

func Int64(v int64) *int64 { return &v }
