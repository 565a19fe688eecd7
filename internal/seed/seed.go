package seed

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/bwmarrin/snowflake"
	cycledomain "github.com/smallbiznis/billrun/internal/billingcycle/domain"
	customerdomain "github.com/smallbiznis/billrun/internal/customer/domain"
	invoicedomain "github.com/smallbiznis/billrun/internal/invoice/domain"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var currencies = []string{"EUR", "USD", "DKK", "SEK", "GBP"}

const (
	seedCustomers           = 25
	seedInvoicesPerCustomer = 10
)

// EnsureDemoData populates an empty database with demo customers and
// invoices (one pending per customer) plus a billing cycle due shortly, so
// a fresh checkout exercises the whole charge loop. It does nothing when
// customers already exist.
func EnsureDemoData(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&customerdomain.Customer{}).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		now := time.Now().UTC()
		for i := 0; i < seedCustomers; i++ {
			customer := customerdomain.Customer{
				ID:        node.Generate(),
				Currency:  currencies[rng.Intn(len(currencies))],
				Metadata:  datatypes.JSONMap{},
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := tx.Create(&customer).Error; err != nil {
				return err
			}

			for j := 0; j < seedInvoicesPerCustomer; j++ {
				status := invoicedomain.InvoiceStatusPaid
				if j == 0 {
					status = invoicedomain.InvoiceStatusPending
				}
				invoice := invoicedomain.Invoice{
					ID:          node.Generate(),
					CustomerID:  customer.ID,
					AmountMinor: int64(rng.Intn(49000) + 1000),
					Currency:    customer.Currency,
					Status:      status,
					Metadata:    datatypes.JSONMap{},
					CreatedAt:   now,
					UpdatedAt:   now,
				}
				if err := tx.Create(&invoice).Error; err != nil {
					return err
				}
			}
		}

		// A cycle due shortly after boot so the first run is observable.
		cycle := cycledomain.BillingCycle{
			ID:           node.Generate(),
			ScheduledOn:  now,
			ScheduledFor: now.Add(15 * time.Second),
		}
		return tx.Create(&cycle).Error
	})
}
