package payment

import (
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("payment",
	fx.Provide(func(log *zap.Logger) Provider {
		return NewMockProvider(log, true, time.Now().UnixNano())
	}),
)
