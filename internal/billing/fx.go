package billing

import (
	"context"

	"github.com/bwmarrin/snowflake"
	cycledomain "github.com/smallbiznis/billrun/internal/billingcycle/domain"
	"github.com/smallbiznis/billrun/internal/clock"
	"github.com/smallbiznis/billrun/internal/config"
	invoicedomain "github.com/smallbiznis/billrun/internal/invoice/domain"
	"github.com/smallbiznis/billrun/internal/payment"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("billing",
	fx.Provide(provideConfigSource),
	fx.Provide(provideAdvance),
	fx.Provide(provideCharger),
	fx.Provide(provideRunner),
	fx.Provide(provideScheduler),
	fx.Invoke(startScheduler),
)

func provideConfigSource(holder *config.BillingConfigHolder) ConfigSource {
	return holder
}

// provideAdvance resolves the configured advance policy. The holder already
// rejects unknown policy names, so the switch only maps names to functions.
func provideAdvance(cfg ConfigSource) AdvanceFunc {
	switch cfg.Get().AdvancePolicy {
	case config.AdvanceFirstOfNextMonth:
		return FirstOfNextMonth
	default:
		return FirstOfNextMonth
	}
}

type chargerParams struct {
	fx.In

	Log      *zap.Logger
	Invoices invoicedomain.Service
	Provider payment.Provider
	Cfg      ConfigSource
}

func provideCharger(p chargerParams) *Charger {
	return NewCharger(p.Log, p.Invoices, p.Provider, p.Cfg)
}

type runnerParams struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	Clock     clock.Clock
	CycleRepo cycledomain.Repository
	Invoices  invoicedomain.Service
	Charger   *Charger
	Cfg       ConfigSource
}

func provideRunner(p runnerParams) *Runner {
	return NewRunner(p.DB, p.Log, p.Clock, p.CycleRepo, p.Invoices, p.Charger, p.Cfg)
}

type schedulerParams struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	Clock     clock.Clock
	GenID     *snowflake.Node
	CycleRepo cycledomain.Repository
	Runner    *Runner
	Advance   AdvanceFunc `optional:"true"`
}

func provideScheduler(p schedulerParams) *Scheduler {
	return NewScheduler(p.DB, p.Log, p.Clock, p.GenID, p.CycleRepo, p.Runner, p.Advance)
}

func startScheduler(lc fx.Lifecycle, sched *Scheduler) {
	runCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			_ = ctx
			go func() {
				defer close(done)
				sched.Run(runCtx)
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			cancel()
			select {
			case <-done:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	})
}
