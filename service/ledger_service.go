package service

import (
	"context"
	"fmt"
	"time"

	"trooc/events"
	"trooc/models"

	"github.com/shopspring/decimal"
)

type ledgerService struct {
	uowFactory UnitOfWorkFactory
}

// NewLedgerService creates a new revenue ledger service
func NewLedgerService(uowFactory UnitOfWorkFactory) LedgerService {
	return &ledgerService{
		uowFactory: uowFactory,
	}
}

func (s *ledgerService) RecordEarning(ctx context.Context, shopID int64, orderID string, totalAmount decimal.Decimal, transactionDate time.Time) (*models.RevenueRecord, error) {
	if orderID == "" {
		return nil, fmt.Errorf("order id must not be empty")
	}
	if totalAmount.IsNegative() {
		return nil, fmt.Errorf("total amount %s must not be negative", totalAmount)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	shop, err := uow.ShopRepository().GetByID(ctx, shopID)
	if err != nil {
		return nil, fmt.Errorf("failed to get shop %d: %w", shopID, err)
	}
	if shop == nil || !shop.Active {
		return nil, fmt.Errorf("shop %d: %w", shopID, ErrShopNotFound)
	}

	// The commission rate is captured onto the record here; later rate
	// changes never rewrite history.
	record, err := models.NewRevenueRecord(shopID, orderID, totalAmount, shop.CommissionRate, transactionDate)
	if err != nil {
		return nil, fmt.Errorf("failed to build revenue record for order %s: %w", orderID, err)
	}

	if err := uow.RevenueRecordRepository().Create(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to record earning for order %s: %w", orderID, err)
	}

	uow.EventBus().Publish(events.EarningRecordedEvent{
		ShopID:           record.ShopID,
		OrderID:          record.OrderID,
		TotalAmount:      record.TotalAmount,
		CommissionAmount: record.CommissionAmount,
		ShopEarning:      record.ShopEarning,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return record, nil
}

func (s *ledgerService) QueryUnpaid(ctx context.Context, shopID *int64, from, to time.Time) ([]*models.RevenueRecord, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	records, err := uow.RevenueRecordRepository().GetUnpaid(ctx, shopID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query unpaid records: %w", err)
	}

	return records, nil
}
