package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*BillingPeriod, error)
	Get(ctx context.Context, id snowflake.ID) (*BillingPeriod, error)
	List(ctx context.Context, villageID uuid.UUID) ([]*BillingPeriod, error)
	ActivePeriods(ctx context.Context, villageID uuid.UUID) ([]*BillingPeriod, error)
	Previous(ctx context.Context, period *BillingPeriod) (*BillingPeriod, error)
	Activate(ctx context.Context, id snowflake.ID) (*BillingPeriod, error)
	Complete(ctx context.Context, id snowflake.ID) (*BillingPeriod, error)
	Deactivate(ctx context.Context, id snowflake.ID) (*BillingPeriod, error)
}

type CreateRequest struct {
	VillageID    uuid.UUID  `json:"village_id"`
	Year         int        `json:"year"`
	Month        int        `json:"month"`
	ReadingStart time.Time  `json:"reading_start"`
	ReadingEnd   time.Time  `json:"reading_end"`
	DueDate      *time.Time `json:"due_date"`
	Activate     bool       `json:"activate"`
}

var (
	ErrInvalidVillage       = errors.New("invalid_village")
	ErrInvalidMonth         = errors.New("invalid_month")
	ErrInvalidReadingWindow = errors.New("invalid_reading_window")
	ErrInvalidDueDate       = errors.New("invalid_due_date")
	ErrDuplicatePeriod      = errors.New("duplicate_period")
	ErrInvalidTransition    = errors.New("invalid_period_transition")
	ErrNotFound             = errors.New("period_not_found")
)
