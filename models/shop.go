package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Shop represents a seller account that lists products and accrues earnings.
// The commission rate here is the platform's current cut; each revenue
// record captures the rate in force when the order completed.
type Shop struct {
	ID             int64           `db:"id" json:"id"`
	Name           string          `db:"name" json:"name"`
	OwnerEmail     string          `db:"owner_email" json:"owner_email"`
	CommissionRate decimal.Decimal `db:"commission_rate" json:"commission_rate"`
	Active         bool            `db:"active" json:"active"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updated_at"`
}
