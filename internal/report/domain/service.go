package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CollectionSummary struct {
	VillageID      uuid.UUID        `json:"village_id"`
	PeriodID       snowflake.ID     `json:"period_id"`
	PeriodLabel    string           `json:"period_label"`
	Billed         decimal.Decimal  `json:"billed"`
	Collected      decimal.Decimal  `json:"collected"`
	Outstanding    decimal.Decimal  `json:"outstanding"`
	CollectionRate *float64         `json:"collection_rate,omitempty"`
	TotalUsage     int64            `json:"total_usage"`
	BillCount      int64            `json:"bill_count"`
	StatusCounts   map[string]int64 `json:"status_counts"`
	HasData        bool             `json:"has_data"`
}

type OutstandingCustomer struct {
	CustomerID   snowflake.ID    `json:"customer_id"`
	CustomerCode string          `json:"customer_code"`
	CustomerName string          `json:"customer_name"`
	Unpaid       decimal.Decimal `json:"unpaid"`
	Overdue      decimal.Decimal `json:"overdue"`
	Total        decimal.Decimal `json:"total"`
	BillCount    int64           `json:"bill_count"`
	OldestDue    time.Time       `json:"oldest_due"`
}

type Delta struct {
	Current    decimal.Decimal  `json:"current"`
	Previous   *decimal.Decimal `json:"previous,omitempty"`
	Change     *decimal.Decimal `json:"change,omitempty"`
	GrowthRate *float64         `json:"growth_rate,omitempty"`
}

type Trend struct {
	PeriodID         snowflake.ID  `json:"period_id"`
	PreviousPeriodID *snowflake.ID `json:"previous_period_id,omitempty"`
	Usage            Delta         `json:"usage"`
	Billed           Delta         `json:"billed"`
	Collected        Delta         `json:"collected"`
	CollectionRate   Delta         `json:"collection_rate"`
}

type CollectorTotal struct {
	CollectorID   *snowflake.ID   `json:"collector_id,omitempty"`
	PaymentMethod string          `json:"payment_method"`
	PaymentCount  int64           `json:"payment_count"`
	Amount        decimal.Decimal `json:"amount"`
}

// Service is read-only; bundle containers are left out of every sum so a bundled
// bill is not counted twice.
type Service interface {
	CollectionSummary(ctx context.Context, villageID uuid.UUID, periodID snowflake.ID) (*CollectionSummary, error)
	Outstanding(ctx context.Context, villageID uuid.UUID) ([]OutstandingCustomer, error)
	Trend(ctx context.Context, villageID uuid.UUID, periodID snowflake.ID) (*Trend, error)
	CollectorTotals(ctx context.Context, villageID uuid.UUID, from, to time.Time) ([]CollectorTotal, error)
}

var (
	ErrInvalidVillage = errors.New("invalid_village")
	ErrPeriodNotFound = errors.New("period_not_found")
	ErrInvalidRange   = errors.New("invalid_report_range")
)
