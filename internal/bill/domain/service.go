package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type Service interface {
	GenerateBill(ctx context.Context, req GenerateRequest) (*Bill, error)
	// GenerateBillsForPeriod bills every reading of the period that has no bill yet.
	// A failing reading is recorded in the result and does not stop the batch.
	GenerateBillsForPeriod(ctx context.Context, periodID snowflake.ID, adminFee, maintenanceFee *decimal.Decimal) (*BatchResult, error)
	UpdateOverdueBills(ctx context.Context) (int64, error)
	Get(ctx context.Context, id snowflake.ID) (*Bill, error)
	List(ctx context.Context, filter ListFilter) ([]*Bill, error)
}
