package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// RevenueRecord represents one shop's earning for a single completed order.
// Exactly one record exists per order; the unique constraint on order_id is
// what prevents double-crediting a shop for the same order.
type RevenueRecord struct {
	ID               int64           `db:"id" json:"id"`
	ShopID           int64           `db:"shop_id" json:"shop_id"`
	OrderID          string          `db:"order_id" json:"order_id"`
	TotalAmount      decimal.Decimal `db:"total_amount" json:"total_amount"`
	CommissionRate   decimal.Decimal `db:"commission_rate" json:"commission_rate"`
	CommissionAmount decimal.Decimal `db:"commission_amount" json:"commission_amount"`
	ShopEarning      decimal.Decimal `db:"shop_earning" json:"shop_earning"`
	IsPaid           bool            `db:"is_paid" json:"is_paid"`
	PaymentDate      *time.Time      `db:"payment_date" json:"payment_date,omitempty"`
	PaymentID        *string         `db:"payment_id" json:"payment_id,omitempty"`
	PaymentBatchID   *string         `db:"payment_batch_id" json:"payment_batch_id,omitempty"`
	TransactionDate  time.Time       `db:"transaction_date" json:"transaction_date"`
	CreatedAt        time.Time       `db:"created_at" json:"created_at"`
}

// NewRevenueRecord builds a record for an order, splitting the total into
// commission and shop earning at the given rate.
func NewRevenueRecord(shopID int64, orderID string, totalAmount, commissionRate decimal.Decimal, transactionDate time.Time) (*RevenueRecord, error) {
	if commissionRate.IsNegative() || commissionRate.GreaterThan(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("commission rate %s outside [0,1]", commissionRate)
	}
	if totalAmount.IsNegative() {
		return nil, fmt.Errorf("total amount %s must not be negative", totalAmount)
	}

	commission := totalAmount.Mul(commissionRate).Round(2)
	return &RevenueRecord{
		ShopID:           shopID,
		OrderID:          orderID,
		TotalAmount:      totalAmount,
		CommissionRate:   commissionRate,
		CommissionAmount: commission,
		ShopEarning:      totalAmount.Sub(commission),
		TransactionDate:  transactionDate,
	}, nil
}

// Validate checks the commission split invariant:
// commission_amount + shop_earning == total_amount.
func (r *RevenueRecord) Validate() error {
	if r.CommissionRate.IsNegative() || r.CommissionRate.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("commission rate %s outside [0,1]", r.CommissionRate)
	}
	if !r.CommissionAmount.Add(r.ShopEarning).Equal(r.TotalAmount) {
		return fmt.Errorf("commission %s + earning %s != total %s",
			r.CommissionAmount, r.ShopEarning, r.TotalAmount)
	}
	return nil
}

// ShopTotal is the aggregated unpaid earning of one shop within a window.
type ShopTotal struct {
	ShopID      int64           `db:"shop_id" json:"shop_id"`
	RecordCount int             `db:"record_count" json:"record_count"`
	TotalAmount decimal.Decimal `db:"total_amount" json:"total_amount"`
	ShopEarning decimal.Decimal `db:"shop_earning" json:"shop_earning"`
}
