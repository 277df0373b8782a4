package bill

import (
	"github.com/smallbiznis/pamdes/internal/bill/repository"
	"github.com/smallbiznis/pamdes/internal/bill/service"
	"go.uber.org/fx"
)

var Module = fx.Module("bill.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
