package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BatchStatus represents the lifecycle state of a payment batch
type BatchStatus string

const (
	BatchStatusPending    BatchStatus = "pending"
	BatchStatusProcessing BatchStatus = "processing"
	BatchStatusCompleted  BatchStatus = "completed"
	BatchStatusFailed     BatchStatus = "failed"
)

// CanTransitionTo reports whether moving from s to next is a legal
// lifecycle step. Completed and failed are terminal; nothing ever
// returns to pending.
func (s BatchStatus) CanTransitionTo(next BatchStatus) bool {
	switch s {
	case BatchStatusPending:
		return next == BatchStatusProcessing
	case BatchStatusProcessing:
		return next == BatchStatusCompleted || next == BatchStatusFailed
	default:
		return false
	}
}

// IsTerminal reports whether the status allows no further transitions.
func (s BatchStatus) IsTerminal() bool {
	return s == BatchStatusCompleted || s == BatchStatusFailed
}

// PaymentBatch represents one settlement run over a date window, covering
// the unpaid earnings of possibly many shops.
type PaymentBatch struct {
	ID             int64           `db:"id" json:"id"`
	BatchID        string          `db:"batch_id" json:"batch_id"`
	StartDate      time.Time       `db:"start_date" json:"start_date"`
	EndDate        time.Time       `db:"end_date" json:"end_date"`
	Status         BatchStatus     `db:"status" json:"status"`
	TotalShops     int             `db:"total_shops" json:"total_shops"`
	TotalAmount    decimal.Decimal `db:"total_amount" json:"total_amount"`
	ProcessedCount int             `db:"processed_count" json:"processed_count"`
	Notes          *string         `db:"notes" json:"notes,omitempty"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	ProcessedAt    *time.Time      `db:"processed_at" json:"processed_at,omitempty"`
}

// BatchResult is the outcome of creating a batch: the persisted batch plus
// the per-shop breakdown it was aggregated from.
type BatchResult struct {
	Batch      *PaymentBatch
	ShopTotals []*ShopTotal
}

// ProcessResult is the outcome of processing a batch.
type ProcessResult struct {
	Batch          *PaymentBatch
	RecordsUpdated int
}
