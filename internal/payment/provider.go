// Package payment is the boundary to the external payment capability. The
// orchestrator only ever calls Charge and reacts to the returned variant; a
// concrete gateway (or a test double) is injected.
package payment

import (
	"context"

	invoicedomain "github.com/smallbiznis/billrun/internal/invoice/domain"
)

// ResultKind tags a ChargeResult.
type ResultKind int

const (
	// ResultPaid means the account was charged and the money will arrive.
	ResultPaid ResultKind = iota
	// ResultDeclined means the capability evaluated the charge and said no.
	// This is a business rejection, not a fault, and is never retried.
	ResultDeclined
	// ResultTerminalError covers faults whose cause cannot change within
	// the cycle (unknown customer, currency mismatch). Never retried.
	ResultTerminalError
	// ResultTransientError covers network or communication faults,
	// eligible for bounded retry with backoff.
	ResultTransientError
)

// Terminal failure reasons.
const (
	ReasonCustomerNotFound = "customer_not_found"
	ReasonCurrencyMismatch = "currency_mismatch"
)

// ChargeResult is the tagged outcome of one charge attempt. Reason is set
// for the two error kinds only.
type ChargeResult struct {
	Kind   ResultKind
	Reason string
}

func Paid() ChargeResult { return ChargeResult{Kind: ResultPaid} }

func Declined() ChargeResult { return ChargeResult{Kind: ResultDeclined} }

func TerminalError(reason string) ChargeResult {
	return ChargeResult{Kind: ResultTerminalError, Reason: reason}
}

func TransientError(reason string) ChargeResult {
	return ChargeResult{Kind: ResultTransientError, Reason: reason}
}

// Provider charges the customer's account for the given invoice.
type Provider interface {
	Charge(ctx context.Context, invoice invoicedomain.Invoice) ChargeResult
}
