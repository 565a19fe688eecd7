package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/billrun/internal/billing"
	"github.com/smallbiznis/billrun/internal/billingcycle"
	"github.com/smallbiznis/billrun/internal/clock"
	"github.com/smallbiznis/billrun/internal/config"
	"github.com/smallbiznis/billrun/internal/customer"
	"github.com/smallbiznis/billrun/internal/invoice"
	"github.com/smallbiznis/billrun/internal/migration"
	"github.com/smallbiznis/billrun/internal/observability"
	"github.com/smallbiznis/billrun/internal/payment"
	"github.com/smallbiznis/billrun/internal/server"
	"github.com/smallbiznis/billrun/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,

		// Functional domains
		customer.Module,
		invoice.Module,
		billingcycle.Module,
		payment.Module,
		billing.Module,

		migration.Module,
		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() (*snowflake.Node, error) {
	return snowflake.NewNode(1)
}
