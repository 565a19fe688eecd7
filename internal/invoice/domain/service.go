package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type GetInvoiceRequest struct {
	ID string
}

type Service interface {
	List(ctx context.Context) ([]Invoice, error)
	GetByID(ctx context.Context, req GetInvoiceRequest) (Invoice, error)
	FetchPending(ctx context.Context) ([]Invoice, error)

	// MarkPaid records a successful charge. It is the only status write the
	// orchestrator performs and enforces the one-way PENDING->PAID rule.
	MarkPaid(ctx context.Context, id snowflake.ID) error
}

var (
	ErrInvalidID      = errors.New("invalid_id")
	ErrNotFound       = errors.New("not_found")
	ErrAlreadySettled = errors.New("invoice_already_settled")
)
