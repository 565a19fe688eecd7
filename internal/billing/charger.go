package billing

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	invoicedomain "github.com/smallbiznis/billrun/internal/invoice/domain"
	obsmetrics "github.com/smallbiznis/billrun/internal/observability/metrics"
	"github.com/smallbiznis/billrun/internal/payment"
	"go.uber.org/zap"
)

// Outcome is the terminal result of charging one invoice within a cycle.
type Outcome int

const (
	// OutcomePaid means the charge succeeded and PAID was persisted.
	OutcomePaid Outcome = iota
	// OutcomeFailedTerminal means the capability reported a condition that
	// cannot change within this cycle; no retry was attempted.
	OutcomeFailedTerminal
	// OutcomeFailedExhausted means the invoice stays pending: the charge
	// was declined outright or transient faults outlasted the retry
	// schedule.
	OutcomeFailedExhausted
)

func (o Outcome) String() string {
	switch o {
	case OutcomePaid:
		return "paid"
	case OutcomeFailedTerminal:
		return "failed_terminal"
	default:
		return "failed_exhausted"
	}
}

// Charger charges a single invoice against the payment capability, applying
// the retry policy to transient faults. The only store write it performs is
// the PENDING->PAID transition, and only after the capability confirmed
// payment.
type Charger struct {
	log      *zap.Logger
	invoices invoicedomain.Service
	provider payment.Provider
	cfg      ConfigSource

	// sleep is swapped out in tests to record waits instead of taking them.
	sleep func(ctx context.Context, d time.Duration) error
}

func NewCharger(log *zap.Logger, invoices invoicedomain.Service, provider payment.Provider, cfg ConfigSource) *Charger {
	return &Charger{
		log:      log.Named("billing.charger"),
		invoices: invoices,
		provider: provider,
		cfg:      cfg,
		sleep:    sleepCtx,
	}
}

// ChargeInvoice runs the charge loop for one invoice to a terminal outcome.
// It never returns an error: every failure mode is classified, logged and
// folded into the outcome so one invoice can never abort a batch.
func (c *Charger) ChargeInvoice(ctx context.Context, invoice invoicedomain.Invoice) Outcome {
	policy := NewRetryPolicy(c.cfg.Get().RetryWaits)
	billingMetrics := obsmetrics.Billing()

	log := c.log.With(
		zap.String("invoice_id", invoice.ID.String()),
		zap.String("customer_id", invoice.CustomerID.String()),
	)

	retries := 0
	for {
		result := c.provider.Charge(ctx, invoice)

		switch result.Kind {
		case payment.ResultPaid:
			if err := c.markPaid(ctx, invoice.ID); err != nil {
				// The charge went through but the status write did not.
				// The invoice stays PENDING and will be retried next
				// cycle; the capability's idempotency is out of our hands.
				log.Error("paid invoice status write failed", zap.Error(err))
				billingMetrics.IncChargeOutcome(obsmetrics.ChargeOutcomeExhausted)
				return OutcomeFailedExhausted
			}
			billingMetrics.IncChargeOutcome(obsmetrics.ChargeOutcomePaid)
			return OutcomePaid

		case payment.ResultDeclined:
			log.Warn("charge declined by payment capability")
			billingMetrics.IncChargeOutcome(obsmetrics.ChargeOutcomeDeclined)
			return OutcomeFailedExhausted

		case payment.ResultTerminalError:
			log.Warn("charge failed with terminal condition",
				zap.String("reason", result.Reason),
			)
			billingMetrics.IncChargeOutcome(obsmetrics.ChargeOutcomeTerminal)
			return OutcomeFailedTerminal

		case payment.ResultTransientError:
			retries++
			wait, ok := policy.WaitBeforeRetry(retries)
			if !ok {
				log.Warn("charge retries exhausted",
					zap.String("reason", result.Reason),
					zap.Int("attempts", policy.MaxAttempts()),
				)
				billingMetrics.IncChargeOutcome(obsmetrics.ChargeOutcomeExhausted)
				return OutcomeFailedExhausted
			}
			log.Debug("transient charge failure, retrying",
				zap.String("reason", result.Reason),
				zap.Int("retry", retries),
				zap.Duration("wait", wait),
			)
			billingMetrics.IncChargeRetry()
			if err := c.sleep(ctx, wait); err != nil {
				log.Warn("charge retry interrupted", zap.Error(err))
				billingMetrics.IncChargeOutcome(obsmetrics.ChargeOutcomeExhausted)
				return OutcomeFailedExhausted
			}

		default:
			log.Error("unknown charge result kind", zap.Int("kind", int(result.Kind)))
			billingMetrics.IncChargeOutcome(obsmetrics.ChargeOutcomeExhausted)
			return OutcomeFailedExhausted
		}
	}
}

func (c *Charger) markPaid(ctx context.Context, id snowflake.ID) error {
	err := c.invoices.MarkPaid(ctx, id)
	if errors.Is(err, invoicedomain.ErrAlreadySettled) {
		// A previous run already recorded the payment; nothing to write.
		return nil
	}
	return err
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
