package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, invoice *Invoice) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Invoice, error)
	List(ctx context.Context, db *gorm.DB) ([]*Invoice, error)

	// FetchPending returns every invoice still awaiting a successful
	// charge, across all customers.
	FetchPending(ctx context.Context, db *gorm.DB) ([]*Invoice, error)

	// UpdateStatus transitions an invoice from one status to another. It
	// reports false when no row matched, which callers treat as "someone
	// else already moved it".
	UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, from, to InvoiceStatus, updatedAt time.Time) (bool, error)
}
