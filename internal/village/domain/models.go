package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Village is the tenant: one water utility operator.
type Village struct {
	ID                    uuid.UUID       `json:"id" gorm:"type:uuid;primaryKey"`
	Name                  string          `json:"name" gorm:"type:text;not null"`
	Slug                  string          `json:"slug" gorm:"type:text;not null;uniqueIndex"`
	CodePrefix            string          `json:"code_prefix" gorm:"type:text;not null"`
	DefaultAdminFee       decimal.Decimal `json:"default_admin_fee" gorm:"type:decimal(18,2);not null;default:0"`
	DefaultMaintenanceFee decimal.Decimal `json:"default_maintenance_fee" gorm:"type:decimal(18,2);not null;default:0"`
	AutoGenerateBills     bool            `json:"auto_generate_bills" gorm:"not null;default:false"`
	OverdueThresholdDays  int             `json:"overdue_threshold_days" gorm:"not null;default:0"`
	IsActive              bool            `json:"is_active" gorm:"not null;default:true"`
	CreatedAt             time.Time       `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt             time.Time       `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Village) TableName() string { return "villages" }

// DueDate is the due date for a reading window ending at readingEnd.
func (v Village) DueDate(readingEnd time.Time) time.Time {
	end := readingEnd.UTC()
	end = time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	return end.AddDate(0, 0, v.OverdueThresholdDays)
}

// Fees resolves the admin and maintenance fee, falling back to the village defaults.
func (v Village) Fees(admin, maintenance *decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
	a, m := v.DefaultAdminFee, v.DefaultMaintenanceFee
	if admin != nil {
		a = *admin
	}
	if maintenance != nil {
		m = *maintenance
	}
	return a, m
}
