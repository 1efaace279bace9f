package service

import (
	"context"
	"time"

	"trooc/events"
	"trooc/models"

	"github.com/shopspring/decimal"
)

// ShopRepository defines the interface for shop registry data access
type ShopRepository interface {
	// Create persists a new shop
	Create(ctx context.Context, shop *models.Shop) error

	// GetByID retrieves a shop by its ID, nil if absent
	GetByID(ctx context.Context, id int64) (*models.Shop, error)

	// GetAll returns all shops
	GetAll(ctx context.Context) ([]*models.Shop, error)
}

// RevenueRecordRepository defines the interface for the revenue ledger
type RevenueRecordRepository interface {
	// Create inserts a new revenue record. Returns ErrDuplicateOrder if a
	// record for the same order_id already exists.
	Create(ctx context.Context, record *models.RevenueRecord) error

	// GetByOrderID retrieves a record by order id, nil if absent
	GetByOrderID(ctx context.Context, orderID string) (*models.RevenueRecord, error)

	// GetUnpaid returns unpaid records with transaction_date in [from, to),
	// optionally filtered by shop
	GetUnpaid(ctx context.Context, shopID *int64, from, to time.Time) ([]*models.RevenueRecord, error)

	// GetUnpaidShopTotals aggregates unpaid, unclaimed records in
	// [from, to) per shop
	GetUnpaidShopTotals(ctx context.Context, from, to time.Time) ([]*models.ShopTotal, error)

	// MarkPaidForWindow flips every unpaid, unclaimed record in [from, to)
	// to paid, stamping the batch and payment ids. Returns the number of
	// records updated.
	MarkPaidForWindow(ctx context.Context, batchID, paymentID string, from, to time.Time, paidAt time.Time) (int, error)

	// GetByBatchID returns all records settled by a batch
	GetByBatchID(ctx context.Context, batchID string) ([]*models.RevenueRecord, error)
}

// PaymentBatchRepository defines the interface for payment batch data access
type PaymentBatchRepository interface {
	// Create persists a new batch in pending state
	Create(ctx context.Context, batch *models.PaymentBatch) error

	// GetByBatchID retrieves a batch by its batch id, nil if absent
	GetByBatchID(ctx context.Context, batchID string) (*models.PaymentBatch, error)

	// ClaimForProcessing atomically transitions pending -> processing.
	// Returns false if the batch was not pending; the losing writer of a
	// race sees false, never a second settlement.
	ClaimForProcessing(ctx context.Context, batchID string) (bool, error)

	// Complete transitions processing -> completed, recording the
	// processed count and timestamp
	Complete(ctx context.Context, batchID string, processedCount int, processedAt time.Time) error

	// MarkFailed transitions processing -> failed with operator notes
	MarkFailed(ctx context.Context, batchID string, notes string) error

	// List returns the most recent batches
	List(ctx context.Context, limit int) ([]*models.PaymentBatch, error)
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event)
}

// UnitOfWork represents a transactional boundary over the repositories
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction and flushes pending events
	Commit() error

	// Rollback rolls back the transaction; no-op if already committed
	Rollback() error

	// ShopRepository returns the shop repository bound to this transaction
	ShopRepository() ShopRepository

	// RevenueRecordRepository returns the ledger repository bound to this
	// transaction
	RevenueRecordRepository() RevenueRecordRepository

	// PaymentBatchRepository returns the batch repository bound to this
	// transaction
	PaymentBatchRepository() PaymentBatchRepository

	// EventBus returns the transactional event bus for this unit of work
	EventBus() EventPublisher
}

// UnitOfWorkFactory creates units of work
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}

// LedgerService defines the revenue ledger operations
type LedgerService interface {
	// RecordEarning writes exactly one revenue record for a finalized
	// order, splitting the total at the shop's current commission rate
	RecordEarning(ctx context.Context, shopID int64, orderID string, totalAmount decimal.Decimal, transactionDate time.Time) (*models.RevenueRecord, error)

	// QueryUnpaid lists unpaid records, optionally for one shop
	QueryUnpaid(ctx context.Context, shopID *int64, from, to time.Time) ([]*models.RevenueRecord, error)
}

// SettlementService defines batch aggregation and processing
type SettlementService interface {
	// CreateBatch aggregates unpaid records in [start, end) into a
	// pending payment batch
	CreateBatch(ctx context.Context, start, end time.Time) (*models.BatchResult, error)

	// ProcessBatch settles a pending batch exactly once, flipping every
	// eligible record to paid in a single transaction
	ProcessBatch(ctx context.Context, batchID, transactionID string) (*models.ProcessResult, error)

	// GetBatch retrieves a batch by its batch id
	GetBatch(ctx context.Context, batchID string) (*models.PaymentBatch, error)
}

// ShopService defines shop registry operations
type ShopService interface {
	// CreateShop registers a new shop with its commission rate
	CreateShop(ctx context.Context, name, ownerEmail string, commissionRate decimal.Decimal) (*models.Shop, error)

	// GetShop retrieves a shop by ID
	GetShop(ctx context.Context, id int64) (*models.Shop, error)
}
