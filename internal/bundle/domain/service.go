package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	billdomain "github.com/smallbiznis/pamdes/internal/bill/domain"
)

type Service interface {
	CreateBundle(ctx context.Context, req CreateRequest) (*billdomain.Bill, error)
	// Settle pays the container and fans the payment out to every child not yet paid.
	// Calling it again on a settled bundle writes nothing.
	Settle(ctx context.Context, bundleID snowflake.ID, req SettleRequest) (*SettleResult, error)
	Fail(ctx context.Context, bundleID snowflake.ID, reason string) (*billdomain.Bill, error)
	ExpireStale(ctx context.Context) (int64, error)
	Get(ctx context.Context, bundleID snowflake.ID) (*Detail, error)
	Presentation(ctx context.Context, bundleID snowflake.ID) (*Presentation, error)
}
