package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	Record(ctx context.Context, req RecordRequest) (*WaterUsage, error)
	Get(ctx context.Context, id snowflake.ID) (*WaterUsage, error)
	ListByPeriod(ctx context.Context, periodID snowflake.ID) ([]*WaterUsage, error)
	UpdateFinalMeter(ctx context.Context, id snowflake.ID, finalMeter int64) (*WaterUsage, error)
}

type RecordRequest struct {
	CustomerID snowflake.ID `json:"customer_id"`
	PeriodID   snowflake.ID `json:"period_id"`
	// InitialMeter defaults to the final meter of the customer's previous reading.
	InitialMeter *int64    `json:"initial_meter"`
	FinalMeter   int64     `json:"final_meter"`
	UsageDate    time.Time `json:"usage_date"`
}

var (
	ErrInvalidCustomer  = errors.New("invalid_customer")
	ErrInvalidPeriod    = errors.New("invalid_period")
	ErrInvalidMeter     = errors.New("invalid_meter")
	ErrVillageMismatch  = errors.New("village_mismatch")
	ErrDuplicateReading = errors.New("duplicate_reading")
	ErrReadingBilled    = errors.New("reading_already_billed")
	ErrPeriodClosed     = errors.New("period_closed")
	ErrNotFound         = errors.New("reading_not_found")
)
