package collector

import (
	"github.com/smallbiznis/pamdes/internal/collector/repository"
	"github.com/smallbiznis/pamdes/internal/collector/service"
	"go.uber.org/fx"
)

var Module = fx.Module("collector.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
