package waterusage

import (
	"github.com/smallbiznis/pamdes/internal/waterusage/repository"
	"github.com/smallbiznis/pamdes/internal/waterusage/service"
	"go.uber.org/fx"
)

var Module = fx.Module("waterusage.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
