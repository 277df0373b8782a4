package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
)

// WaterUsage is one meter reading of a customer for a billing period.
type WaterUsage struct {
	ID           snowflake.ID `json:"id" gorm:"primaryKey"`
	VillageID    uuid.UUID    `json:"village_id" gorm:"type:uuid;not null;index"`
	CustomerID   snowflake.ID `json:"customer_id" gorm:"not null;uniqueIndex:ux_water_usages_customer_period,priority:1"`
	PeriodID     snowflake.ID `json:"period_id" gorm:"not null;uniqueIndex:ux_water_usages_customer_period,priority:2;index"`
	InitialMeter int64        `json:"initial_meter" gorm:"not null"`
	FinalMeter   int64        `json:"final_meter" gorm:"not null"`
	TotalUsage   int64        `json:"total_usage" gorm:"not null"`
	UsageDate    time.Time    `json:"usage_date" gorm:"not null"`
	CreatedAt    time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt    time.Time    `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (WaterUsage) TableName() string { return "water_usages" }

// ComputeUsage is final - initial, floored at zero for meter replacements.
func ComputeUsage(initial, final int64) int64 {
	if final < initial {
		return 0
	}
	return final - initial
}
