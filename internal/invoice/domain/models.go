// Package domain contains persistence models for invoices.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// InvoiceStatus represents invoice lifecycle states.
type InvoiceStatus string

const (
	InvoiceStatusPending InvoiceStatus = "PENDING"
	InvoiceStatusPaid    InvoiceStatus = "PAID"
)

// Invoice is one outstanding charge against a customer. The amount is an
// opaque quantity in currency minor units; the orchestrator never does
// arithmetic on it. Status moves PENDING->PAID exactly once and never back.
type Invoice struct {
	ID          snowflake.ID      `gorm:"primaryKey" json:"id"`
	CustomerID  snowflake.ID      `gorm:"not null;index" json:"customer_id"`
	AmountMinor int64             `gorm:"not null" json:"amount_minor"`
	Currency    string            `gorm:"type:text;not null" json:"currency"`
	Status      InvoiceStatus     `gorm:"type:text;not null;default:'PENDING';index" json:"status"`
	Metadata    datatypes.JSONMap `gorm:"not null;default:'{}'" json:"metadata,omitempty"`
	CreatedAt   time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Invoice) TableName() string { return "invoices" }
