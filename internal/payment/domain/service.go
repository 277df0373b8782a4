package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	PayBill(ctx context.Context, billID snowflake.ID, req PayRequest) (*Payment, error)
	Get(ctx context.Context, id snowflake.ID) (*Payment, error)
	ListByBill(ctx context.Context, billID snowflake.ID) ([]*Payment, error)
}
