package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Customer owns a currency; every invoice billed to a customer carries the
// same currency code. Customers are created outside the orchestrator and are
// read-only here.
type Customer struct {
	ID        snowflake.ID      `gorm:"primaryKey" json:"id"`
	Currency  string            `gorm:"type:text;not null" json:"currency"`
	Metadata  datatypes.JSONMap `gorm:"not null;default:'{}'" json:"metadata,omitempty"`
	CreatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Customer) TableName() string { return "customers" }
