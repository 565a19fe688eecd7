package domain

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

type Repository interface {
	// FetchCurrent returns the one cycle eligible for attention right now:
	// the most recent unfulfilled cycle whose scheduled time has passed,
	// or failing that the nearest unfulfilled future cycle, or nil.
	FetchCurrent(ctx context.Context, db *gorm.DB, now time.Time) (*BillingCycle, error)

	// Insert persists a new cycle. The scheduled_for column is unique, so a
	// concurrent duplicate surfaces as a duplicate-key error.
	Insert(ctx context.Context, db *gorm.DB, cycle *BillingCycle) error

	// FinalizeForDate stamps fulfilled_on for the cycle scheduled at the
	// given time. Finalizing an already-fulfilled cycle is a no-op.
	FinalizeForDate(ctx context.Context, db *gorm.DB, scheduledFor, fulfilledOn time.Time) (bool, error)

	// FetchLatest returns the cycle with the greatest scheduled_for,
	// fulfilled or not, or nil when the table is empty.
	FetchLatest(ctx context.Context, db *gorm.DB) (*BillingCycle, error)

	List(ctx context.Context, db *gorm.DB) ([]*BillingCycle, error)
}

var ErrCycleExists = errors.New("billing_cycle_exists")
