package invoice

import (
	"github.com/smallbiznis/billrun/internal/invoice/repository"
	"github.com/smallbiznis/billrun/internal/invoice/service"
	"go.uber.org/fx"
)

var Module = fx.Module("invoice.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
