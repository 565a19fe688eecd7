// Package migration creates the schema on startup so the service is usable
// out of the box for local and self-hosted environments.
package migration

import (
	cycledomain "github.com/smallbiznis/billrun/internal/billingcycle/domain"
	"github.com/smallbiznis/billrun/internal/config"
	customerdomain "github.com/smallbiznis/billrun/internal/customer/domain"
	invoicedomain "github.com/smallbiznis/billrun/internal/invoice/domain"
	"github.com/smallbiznis/billrun/internal/seed"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if err := conn.AutoMigrate(
			&customerdomain.Customer{},
			&invoicedomain.Invoice{},
			&cycledomain.BillingCycle{},
		); err != nil {
			return err
		}

		if cfg.SeedDemoData {
			return seed.EnsureDemoData(conn)
		}
		return nil
	}),
)
