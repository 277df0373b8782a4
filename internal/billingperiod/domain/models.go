package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
)

type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusInactive  Status = "inactive"
)

// BillingPeriod is one month of meter readings for a village.
type BillingPeriod struct {
	ID           snowflake.ID `json:"id" gorm:"primaryKey"`
	VillageID    uuid.UUID    `json:"village_id" gorm:"type:uuid;not null;uniqueIndex:ux_billing_periods_village_month,priority:1"`
	Year         int          `json:"year" gorm:"not null;uniqueIndex:ux_billing_periods_village_month,priority:2"`
	Month        int          `json:"month" gorm:"not null;uniqueIndex:ux_billing_periods_village_month,priority:3"`
	Status       Status       `json:"status" gorm:"type:text;not null;default:inactive"`
	ReadingStart time.Time    `json:"reading_start" gorm:"not null"`
	ReadingEnd   time.Time    `json:"reading_end" gorm:"not null"`
	DueDate      *time.Time   `json:"due_date,omitempty"`
	CreatedAt    time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt    time.Time    `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (BillingPeriod) TableName() string { return "billing_periods" }

func (p BillingPeriod) Label() string {
	return time.Date(p.Year, time.Month(p.Month), 1, 0, 0, 0, 0, time.UTC).Format("January 2006")
}

// PreviousMonth returns the calendar month before the period.
func (p BillingPeriod) PreviousMonth() (int, int) {
	t := time.Date(p.Year, time.Month(p.Month), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -1, 0)
	return t.Year(), int(t.Month())
}

// Transition validates a status change.
func (p BillingPeriod) Transition(to Status) error {
	switch to {
	case StatusActive:
		if p.Status == StatusInactive {
			return nil
		}
	case StatusCompleted, StatusInactive:
		if p.Status == StatusActive {
			return nil
		}
	}
	return ErrInvalidTransition
}
