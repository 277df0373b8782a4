package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CreateRangeRequest struct {
	VillageID    *uuid.UUID      `json:"village_id"`
	UsageMin     int64           `json:"usage_min"`
	PricePerUnit decimal.Decimal `json:"price_per_unit"`
}

// Schedule is a resolved tariff; Inherited is set when a village falls back to the global brackets.
type Schedule struct {
	VillageID *uuid.UUID    `json:"village_id,omitempty"`
	Inherited bool          `json:"inherited"`
	Brackets  []WaterTariff `json:"brackets"`
}

type Service interface {
	CreateRange(ctx context.Context, req CreateRangeRequest) (*WaterTariff, error)
	UpdateRange(ctx context.Context, id snowflake.ID, req EditRequest) (*WaterTariff, error)
	Get(ctx context.Context, id snowflake.ID) (*WaterTariff, error)
	EditableFields(ctx context.Context, id snowflake.ID) (EditableFields, error)
	ListBrackets(ctx context.Context, villageID *uuid.UUID) (*Schedule, error)
	Validate(ctx context.Context, villageID *uuid.UUID) error
	Calculate(ctx context.Context, villageID *uuid.UUID, usage int64) (*Calculation, error)
	// DeactivateSchedule deactivates every bracket of a village so it inherits the global schedule.
	DeactivateSchedule(ctx context.Context, villageID uuid.UUID) error
}
