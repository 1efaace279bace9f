package repository

import (
	"context"
	"fmt"

	"trooc/database"
	"trooc/events"
	"trooc/service"

	"github.com/jackc/pgx/v5"
)

// unitOfWork implements the service.UnitOfWork interface
type unitOfWork struct {
	db               *database.DB
	tx               pgx.Tx
	ctx              context.Context
	transactionalBus *events.TransactionalBus
	shopRepo         service.ShopRepository
	recordRepo       service.RevenueRecordRepository
	batchRepo        service.PaymentBatchRepository
}

type unitOfWorkFactory struct {
	db       *database.DB
	eventBus *events.Bus
}

// NewUnitOfWorkFactory creates a new UnitOfWork factory
func NewUnitOfWorkFactory(db *database.DB, eventBus *events.Bus) service.UnitOfWorkFactory {
	return &unitOfWorkFactory{
		db:       db,
		eventBus: eventBus,
	}
}

func (f *unitOfWorkFactory) Create() service.UnitOfWork {
	return &unitOfWork{
		db:               f.db,
		transactionalBus: events.NewTransactionalBus(f.eventBus),
	}
}

// Begin starts a new transaction
func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}

	tx, err := u.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	u.tx = tx
	u.ctx = ctx

	// Bind repositories to the transaction
	u.shopRepo = newShopRepositoryWithTx(tx)
	u.recordRepo = newRevenueRecordRepositoryWithTx(tx)
	u.batchRepo = newPaymentBatchRepositoryWithTx(tx)

	return nil
}

// Commit commits the transaction and flushes pending events
func (u *unitOfWork) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}

	if err := u.tx.Commit(u.ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	u.tx = nil

	if u.transactionalBus != nil {
		u.transactionalBus.Flush(u.ctx)
	}

	return nil
}

// Rollback rolls back the transaction; no-op if already committed
func (u *unitOfWork) Rollback() error {
	if u.tx == nil {
		return nil
	}

	err := u.tx.Rollback(u.ctx)
	if err != nil && err != pgx.ErrTxClosed {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}

	u.tx = nil

	if u.transactionalBus != nil {
		u.transactionalBus.Discard()
	}

	return nil
}

// ShopRepository returns the shop repository for this unit of work
func (u *unitOfWork) ShopRepository() service.ShopRepository {
	if u.shopRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.shopRepo
}

// RevenueRecordRepository returns the ledger repository for this unit of work
func (u *unitOfWork) RevenueRecordRepository() service.RevenueRecordRepository {
	if u.recordRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.recordRepo
}

// PaymentBatchRepository returns the batch repository for this unit of work
func (u *unitOfWork) PaymentBatchRepository() service.PaymentBatchRepository {
	if u.batchRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.batchRepo
}

// EventBus returns the transactional event bus for this unit of work
func (u *unitOfWork) EventBus() service.EventPublisher {
	if u.transactionalBus == nil {
		panic("unit of work has no event bus")
	}
	return u.transactionalBus
}
