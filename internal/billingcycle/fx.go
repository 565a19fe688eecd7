package billingcycle

import (
	"github.com/smallbiznis/billrun/internal/billingcycle/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("billingcycle",
	fx.Provide(repository.Provide),
)
