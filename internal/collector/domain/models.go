package domain

import (
	"regexp"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/gosimple/unidecode"
)

type Role string

const (
	RoleCollector Role = "collector"
	RoleCashier   Role = "cashier"
	RoleAdmin     Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleCollector, RoleCashier, RoleAdmin:
		return true
	}
	return false
}

// Collector is a staff member who records payments.
type Collector struct {
	ID             snowflake.ID `json:"id" gorm:"primaryKey"`
	VillageID      uuid.UUID    `json:"village_id" gorm:"type:uuid;not null;index:ix_collectors_village_name,priority:1"`
	Name           string       `json:"name" gorm:"type:text;not null"`
	NormalizedName string       `json:"normalized_name" gorm:"type:text;not null;index:ix_collectors_village_name,priority:2"`
	Role           Role         `json:"role" gorm:"type:text;not null;default:collector"`
	IsActive       bool         `json:"is_active" gorm:"not null;default:true"`
	CreatedAt      time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt      time.Time    `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Collector) TableName() string { return "collectors" }

var (
	nonAlnumSpace = regexp.MustCompile(`[^a-z0-9 ]+`)
	multiSpace    = regexp.MustCompile(`\s+`)
)

// NormalizeName folds a display name to lowercase ASCII letters, digits and single spaces.
func NormalizeName(name string) string {
	folded := strings.ToLower(unidecode.Unidecode(name))
	folded = multiSpace.ReplaceAllString(folded, " ")
	folded = nonAlnumSpace.ReplaceAllString(folded, "")
	folded = multiSpace.ReplaceAllString(folded, " ")
	return strings.TrimSpace(folded)
}
