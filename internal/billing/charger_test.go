package billing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/billrun/internal/config"
	invoicedomain "github.com/smallbiznis/billrun/internal/invoice/domain"
	"github.com/smallbiznis/billrun/internal/payment"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

// scriptedProvider replays a fixed sequence of charge results and then
// repeats the last one.
type scriptedProvider struct {
	results []payment.ChargeResult
	calls   int
}

func (p *scriptedProvider) Charge(ctx context.Context, invoice invoicedomain.Invoice) payment.ChargeResult {
	_ = ctx
	_ = invoice
	idx := p.calls
	if idx >= len(p.results) {
		idx = len(p.results) - 1
	}
	p.calls++
	return p.results[idx]
}

// invoiceServiceStub satisfies the invoice service with in-memory state.
type invoiceServiceStub struct {
	markPaidCalls []snowflake.ID
	markPaidErr   error
}

func (s *invoiceServiceStub) List(context.Context) ([]invoicedomain.Invoice, error) {
	return nil, nil
}

func (s *invoiceServiceStub) GetByID(context.Context, invoicedomain.GetInvoiceRequest) (invoicedomain.Invoice, error) {
	return invoicedomain.Invoice{}, invoicedomain.ErrNotFound
}

func (s *invoiceServiceStub) FetchPending(context.Context) ([]invoicedomain.Invoice, error) {
	return nil, nil
}

func (s *invoiceServiceStub) MarkPaid(ctx context.Context, id snowflake.ID) error {
	_ = ctx
	s.markPaidCalls = append(s.markPaidCalls, id)
	return s.markPaidErr
}

func newTestCharger(t *testing.T, provider payment.Provider, invoices invoicedomain.Service, waits []time.Duration) (*Charger, *[]time.Duration) {
	t.Helper()

	charger := NewCharger(zap.NewNop(), invoices, provider, StaticConfig{
		Config: config.BillingConfig{
			RetryWaits:    waits,
			ChargeWorkers: 1,
		},
	})

	var recorded []time.Duration
	charger.sleep = func(ctx context.Context, d time.Duration) error {
		_ = ctx
		recorded = append(recorded, d)
		return nil
	}
	return charger, &recorded
}

func testInvoice() invoicedomain.Invoice {
	node, _ := snowflake.NewNode(1)
	return invoicedomain.Invoice{
		ID:          node.Generate(),
		CustomerID:  node.Generate(),
		AmountMinor: 1999,
		Currency:    "EUR",
		Status:      invoicedomain.InvoiceStatusPending,
	}
}

func TestChargePaidOnFirstAttempt(t *testing.T) {
	registry := setupBillingMetrics(t)

	provider := &scriptedProvider{results: []payment.ChargeResult{payment.Paid()}}
	invoices := &invoiceServiceStub{}
	charger, slept := newTestCharger(t, provider, invoices, []time.Duration{time.Second})

	invoice := testInvoice()
	outcome := charger.ChargeInvoice(context.Background(), invoice)

	assert.Equal(t, OutcomePaid, outcome)
	assert.Equal(t, 1, provider.calls)
	assert.Empty(t, *slept)
	assert.Equal(t, []snowflake.ID{invoice.ID}, invoices.markPaidCalls)
	assert.Equal(t, float64(1), getCounterValue(t, registry, "billrun_charge_outcomes_total", map[string]string{"outcome": "paid"}))
}

func TestChargeDeclinedIsNotRetried(t *testing.T) {
	registry := setupBillingMetrics(t)

	provider := &scriptedProvider{results: []payment.ChargeResult{payment.Declined()}}
	invoices := &invoiceServiceStub{}
	charger, slept := newTestCharger(t, provider, invoices, []time.Duration{time.Second, time.Second})

	outcome := charger.ChargeInvoice(context.Background(), testInvoice())

	assert.Equal(t, OutcomeFailedExhausted, outcome)
	assert.Equal(t, 1, provider.calls)
	assert.Empty(t, *slept)
	assert.Empty(t, invoices.markPaidCalls)
	assert.Equal(t, float64(1), getCounterValue(t, registry, "billrun_charge_outcomes_total", map[string]string{"outcome": "declined"}))
}

func TestChargeTerminalConditionStopsAfterOneAttempt(t *testing.T) {
	registry := setupBillingMetrics(t)

	provider := &scriptedProvider{results: []payment.ChargeResult{
		payment.TerminalError(payment.ReasonCurrencyMismatch),
	}}
	invoices := &invoiceServiceStub{}
	charger, slept := newTestCharger(t, provider, invoices, []time.Duration{time.Second, time.Second, time.Second})

	outcome := charger.ChargeInvoice(context.Background(), testInvoice())

	assert.Equal(t, OutcomeFailedTerminal, outcome)
	assert.Equal(t, 1, provider.calls)
	assert.Empty(t, *slept)
	assert.Empty(t, invoices.markPaidCalls)
	assert.Equal(t, float64(1), getCounterValue(t, registry, "billrun_charge_outcomes_total", map[string]string{"outcome": "terminal"}))
}

func TestChargeTransientFaultsExhaustSchedule(t *testing.T) {
	registry := setupBillingMetrics(t)

	waits := []time.Duration{500 * time.Millisecond, 2 * time.Second, 8 * time.Second}
	provider := &scriptedProvider{results: []payment.ChargeResult{
		payment.TransientError("network"),
	}}
	invoices := &invoiceServiceStub{}
	charger, slept := newTestCharger(t, provider, invoices, waits)

	outcome := charger.ChargeInvoice(context.Background(), testInvoice())

	assert.Equal(t, OutcomeFailedExhausted, outcome)
	assert.Equal(t, len(waits)+1, provider.calls)
	assert.Equal(t, waits, *slept)
	assert.Empty(t, invoices.markPaidCalls)
	assert.Equal(t, float64(1), getCounterValue(t, registry, "billrun_charge_outcomes_total", map[string]string{"outcome": "exhausted"}))
	assert.Equal(t, float64(len(waits)), getCounterValue(t, registry, "billrun_charge_retries_total", nil))
}

func TestChargeTransientThenPaid(t *testing.T) {
	setupBillingMetrics(t)

	waits := []time.Duration{500 * time.Millisecond, 2 * time.Second, 8 * time.Second}
	provider := &scriptedProvider{results: []payment.ChargeResult{
		payment.TransientError("network"),
		payment.TransientError("network"),
		payment.Paid(),
	}}
	invoices := &invoiceServiceStub{}
	charger, slept := newTestCharger(t, provider, invoices, waits)

	invoice := testInvoice()
	outcome := charger.ChargeInvoice(context.Background(), invoice)

	assert.Equal(t, OutcomePaid, outcome)
	assert.Equal(t, 3, provider.calls)
	assert.Equal(t, waits[:2], *slept)
	assert.Equal(t, []snowflake.ID{invoice.ID}, invoices.markPaidCalls)
}

func TestChargeAlreadySettledInvoiceCountsAsPaid(t *testing.T) {
	setupBillingMetrics(t)

	provider := &scriptedProvider{results: []payment.ChargeResult{payment.Paid()}}
	invoices := &invoiceServiceStub{markPaidErr: invoicedomain.ErrAlreadySettled}
	charger, _ := newTestCharger(t, provider, invoices, nil)

	outcome := charger.ChargeInvoice(context.Background(), testInvoice())

	assert.Equal(t, OutcomePaid, outcome)
}

func TestChargeStatusWriteFailureLeavesInvoicePending(t *testing.T) {
	registry := setupBillingMetrics(t)

	provider := &scriptedProvider{results: []payment.ChargeResult{payment.Paid()}}
	invoices := &invoiceServiceStub{markPaidErr: errors.New("store unavailable")}
	charger, _ := newTestCharger(t, provider, invoices, nil)

	outcome := charger.ChargeInvoice(context.Background(), testInvoice())

	assert.Equal(t, OutcomeFailedExhausted, outcome)
	assert.Equal(t, float64(1), getCounterValue(t, registry, "billrun_charge_outcomes_total", map[string]string{"outcome": "exhausted"}))
}

func TestChargeCanceledContextStopsRetrying(t *testing.T) {
	setupBillingMetrics(t)

	provider := &scriptedProvider{results: []payment.ChargeResult{
		payment.TransientError("network"),
	}}
	invoices := &invoiceServiceStub{}
	charger, _ := newTestCharger(t, provider, invoices, []time.Duration{time.Second, time.Second})
	charger.sleep = func(ctx context.Context, d time.Duration) error {
		_ = d
		return ctx.Err()
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcome := charger.ChargeInvoice(ctx, testInvoice())

	assert.Equal(t, OutcomeFailedExhausted, outcome)
	assert.Equal(t, 1, provider.calls)
}
