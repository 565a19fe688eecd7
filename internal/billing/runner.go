package billing

import (
	"context"
	"sync"
	"sync/atomic"

	cycledomain "github.com/smallbiznis/billrun/internal/billingcycle/domain"
	"github.com/smallbiznis/billrun/internal/clock"
	invoicedomain "github.com/smallbiznis/billrun/internal/invoice/domain"
	obsmetrics "github.com/smallbiznis/billrun/internal/observability/metrics"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Runner processes one due billing cycle: it fans the charger out over all
// pending invoices, joins the batch, finalizes the cycle and reports how
// many invoices were left unpaid.
type Runner struct {
	db        *gorm.DB
	log       *zap.Logger
	clock     clock.Clock
	cycleRepo cycledomain.Repository
	invoices  invoicedomain.Service
	charger   *Charger
	cfg       ConfigSource
}

func NewRunner(
	db *gorm.DB,
	log *zap.Logger,
	clk clock.Clock,
	cycleRepo cycledomain.Repository,
	invoices invoicedomain.Service,
	charger *Charger,
	cfg ConfigSource,
) *Runner {
	return &Runner{
		db:        db,
		log:       log.Named("billing.runner"),
		clock:     clk,
		cycleRepo: cycleRepo,
		invoices:  invoices,
		charger:   charger,
		cfg:       cfg,
	}
}

// RunCycle charges every pending invoice for a due cycle. Preconditions:
// the cycle is unfulfilled and its scheduled time has passed; calling it
// again after finalization is a no-op. Invoices are charged concurrently
// under a bounded worker pool and the cycle is finalized only after every
// invoice has reached a terminal outcome.
func (r *Runner) RunCycle(ctx context.Context, cycle cycledomain.BillingCycle) (int, error) {
	now := r.clock.Now()
	log := r.log.With(zap.Time("scheduled_for", cycle.ScheduledFor))

	if cycle.Fulfilled() {
		log.Debug("cycle already fulfilled, nothing to run")
		return 0, nil
	}
	if !cycle.Due(now) {
		log.Debug("cycle not due yet, nothing to run")
		return 0, nil
	}

	billingMetrics := obsmetrics.Billing()
	billingMetrics.IncCycleRun()
	start := now

	// Any invoice still pending is eligible, including leftovers from a
	// missed or partially failed prior cycle.
	pending, err := r.invoices.FetchPending(ctx)
	if err != nil {
		return 0, err
	}
	log.Info("billing customers", zap.Int("pending_invoices", len(pending)))

	failures := r.chargeAll(ctx, pending)

	fulfilledOn := r.clock.Now()
	if _, err := r.cycleRepo.FinalizeForDate(ctx, r.db, cycle.ScheduledFor, fulfilledOn); err != nil {
		// The batch ran but the cycle stays unfulfilled; the next schedule
		// check will pick it up again and skip the now-PAID invoices.
		return failures, err
	}

	duration := fulfilledOn.Sub(start)
	billingMetrics.AddCycleFailures(failures)
	billingMetrics.ObserveCycleDuration(duration)
	log.Info("done billing",
		zap.Int("failures", failures),
		zap.Duration("duration", duration),
	)
	return failures, nil
}

// chargeAll fans out charge attempts under a bounded pool and blocks until
// every invoice has a terminal outcome. One invoice's fate never affects
// another's; the returned count is the number of non-paid outcomes.
func (r *Runner) chargeAll(ctx context.Context, pending []invoicedomain.Invoice) int {
	workers := r.cfg.Get().ChargeWorkers
	if workers <= 0 {
		workers = 1
	}

	var failures atomic.Int64
	var wg sync.WaitGroup
	sem := make(chan struct{}, workers)

	for _, invoice := range pending {
		wg.Add(1)
		sem <- struct{}{}
		go func(invoice invoicedomain.Invoice) {
			defer wg.Done()
			defer func() { <-sem }()
			if outcome := r.charger.ChargeInvoice(ctx, invoice); outcome != OutcomePaid {
				failures.Add(1)
			}
		}(invoice)
	}

	wg.Wait()
	return int(failures.Load())
}
