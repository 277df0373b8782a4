package domain

import (
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
)

type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

func (s Status) Valid() bool {
	return s == StatusActive || s == StatusInactive
}

type Customer struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	VillageID uuid.UUID    `gorm:"type:uuid;not null;uniqueIndex:ux_customers_village_code,priority:1;uniqueIndex:ux_customers_village_seq,priority:1" json:"village_id"`
	Code      string       `gorm:"type:text;not null;uniqueIndex:ux_customers_village_code,priority:2" json:"code"`
	Sequence  int          `gorm:"not null;uniqueIndex:ux_customers_village_seq,priority:2" json:"-"`
	Name      string       `gorm:"type:text;not null" json:"name"`
	Address   string       `gorm:"type:text" json:"address,omitempty"`
	Phone     string       `gorm:"type:text" json:"phone,omitempty"`
	Status    Status       `gorm:"type:text;not null;default:active" json:"status"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Customer) TableName() string { return "customers" }

func (c Customer) IsActive() bool { return c.Status == StatusActive }

// FormatCode renders the customer code for the n-th customer of a village, e.g. PAM0001.
func FormatCode(prefix string, sequence int) string {
	return fmt.Sprintf("%s%04d", prefix, sequence)
}
