// Package domain contains the billing cycle record and its store contract.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// BillingCycle is one scheduled pass over all pending invoices.
//
// Invariants: ScheduledOn <= ScheduledFor; FulfilledOn stays nil until the
// cycle has been fully processed, is then set once and never cleared. At
// most one cycle is "current" at any instant (see Repository.FetchCurrent).
type BillingCycle struct {
	ID           snowflake.ID `gorm:"primaryKey" json:"id"`
	ScheduledOn  time.Time    `gorm:"not null" json:"scheduled_on"`
	ScheduledFor time.Time    `gorm:"not null;uniqueIndex:ux_billing_cycles_scheduled_for" json:"scheduled_for"`
	FulfilledOn  *time.Time   `gorm:"index" json:"fulfilled_on,omitempty"`
}

// TableName sets the database table name.
func (BillingCycle) TableName() string { return "billing_cycles" }

// Fulfilled reports whether the cycle has been finalized.
func (c BillingCycle) Fulfilled() bool { return c.FulfilledOn != nil }

// Due reports whether the cycle's scheduled time has passed.
func (c BillingCycle) Due(now time.Time) bool { return !c.ScheduledFor.After(now) }

// TimestampView is the unix-seconds rendering used by the reporting API.
// A zero FulfilledOn means the cycle is still open.
type TimestampView struct {
	ScheduledOn  int64 `json:"scheduled_on"`
	ScheduledFor int64 `json:"scheduled_for"`
	FulfilledOn  int64 `json:"fulfilled_on"`
}

// Timestamps converts a cycle to its unix-seconds view.
func (c BillingCycle) Timestamps() TimestampView {
	view := TimestampView{
		ScheduledOn:  c.ScheduledOn.Unix(),
		ScheduledFor: c.ScheduledFor.Unix(),
	}
	if c.FulfilledOn != nil {
		view.FulfilledOn = c.FulfilledOn.Unix()
	}
	return view
}
