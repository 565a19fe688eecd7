package payment

import (
	"context"
	"math/rand"
	"sync"

	invoicedomain "github.com/smallbiznis/billrun/internal/invoice/domain"
	"go.uber.org/zap"
)

// MockProvider simulates a payment gateway for local runs and demos. With
// failures enabled it rejects or faults a share of charges so the retry and
// classification paths get exercised.
type MockProvider struct {
	log           *zap.Logger
	allowFailures bool

	mu  sync.Mutex
	rng *rand.Rand
}

func NewMockProvider(log *zap.Logger, allowFailures bool, seed int64) *MockProvider {
	return &MockProvider{
		log:           log.Named("payment.mock"),
		allowFailures: allowFailures,
		rng:           rand.New(rand.NewSource(seed)),
	}
}

func (p *MockProvider) Charge(ctx context.Context, invoice invoicedomain.Invoice) ChargeResult {
	_ = ctx

	p.mu.Lock()
	roll := p.rng.Intn(8)
	p.mu.Unlock()

	if !p.allowFailures {
		if roll%2 == 0 {
			return Paid()
		}
		return Declined()
	}

	switch roll {
	case 0:
		return TerminalError(ReasonCustomerNotFound)
	case 1:
		return TerminalError(ReasonCurrencyMismatch)
	case 2, 3:
		return TransientError("simulated network fault")
	default:
		if roll%2 == 0 {
			return Paid()
		}
		return Declined()
	}
}
