package village

import (
	"github.com/smallbiznis/pamdes/internal/village/repository"
	"github.com/smallbiznis/pamdes/internal/village/service"
	"go.uber.org/fx"
)

var Module = fx.Module("village.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
