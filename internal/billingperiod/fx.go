package billingperiod

import (
	"github.com/smallbiznis/pamdes/internal/billingperiod/repository"
	"github.com/smallbiznis/pamdes/internal/billingperiod/service"
	"go.uber.org/fx"
)

var Module = fx.Module("billingperiod.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
