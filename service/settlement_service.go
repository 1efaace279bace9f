package service

import (
	"context"
	"fmt"
	"time"

	"trooc/events"
	"trooc/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type settlementService struct {
	uowFactory UnitOfWorkFactory
}

// NewSettlementService creates a new settlement service
func NewSettlementService(uowFactory UnitOfWorkFactory) SettlementService {
	return &settlementService{
		uowFactory: uowFactory,
	}
}

// newBatchID generates a unique batch identifier for a window start date.
func newBatchID(start time.Time) string {
	return fmt.Sprintf("PB-%s-%s", start.Format("20060102"), uuid.NewString()[:8])
}

func (s *settlementService) CreateBatch(ctx context.Context, start, end time.Time) (*models.BatchResult, error) {
	if !start.Before(end) {
		return nil, fmt.Errorf("window start %s must be before end %s", start, end)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	totals, err := uow.RevenueRecordRepository().GetUnpaidShopTotals(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate unpaid records: %w", err)
	}
	if len(totals) == 0 {
		return nil, fmt.Errorf("window [%s, %s): %w",
			start.Format(time.RFC3339), end.Format(time.RFC3339), ErrNoEligibleRecords)
	}

	totalAmount := decimal.Zero
	for _, t := range totals {
		totalAmount = totalAmount.Add(t.TotalAmount)
	}

	batch := &models.PaymentBatch{
		BatchID:     newBatchID(start),
		StartDate:   start,
		EndDate:     end,
		Status:      models.BatchStatusPending,
		TotalShops:  len(totals),
		TotalAmount: totalAmount,
	}

	if err := uow.PaymentBatchRepository().Create(ctx, batch); err != nil {
		return nil, fmt.Errorf("failed to create payment batch: %w", err)
	}

	uow.EventBus().Publish(events.BatchCreatedEvent{
		BatchID:     batch.BatchID,
		StartDate:   batch.StartDate,
		EndDate:     batch.EndDate,
		TotalShops:  batch.TotalShops,
		TotalAmount: batch.TotalAmount,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"batchID":     batch.BatchID,
		"totalShops":  batch.TotalShops,
		"totalAmount": batch.TotalAmount,
	}).Info("Payment batch created")

	return &models.BatchResult{Batch: batch, ShopTotals: totals}, nil
}

func (s *settlementService) ProcessBatch(ctx context.Context, batchID, transactionID string) (*models.ProcessResult, error) {
	if transactionID == "" {
		return nil, fmt.Errorf("transaction id must not be empty")
	}

	// Claim the batch in its own short transaction. The conditional
	// pending -> processing update is the at-most-once guard: a second
	// caller, concurrent or later, finds the batch no longer pending.
	batch, err := s.claimBatch(ctx, batchID)
	if err != nil {
		return nil, err
	}

	result, err := s.settleClaimedBatch(ctx, batch, transactionID)
	if err != nil {
		// The settlement transaction rolled back; no record was flipped.
		// Mark the claimed batch failed so the run is visible to
		// operators. The still-unpaid records are picked up by the next
		// created batch.
		s.failBatch(ctx, batchID, err)
		return nil, err
	}

	return result, nil
}

func (s *settlementService) GetBatch(ctx context.Context, batchID string) (*models.PaymentBatch, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	batch, err := uow.PaymentBatchRepository().GetByBatchID(ctx, batchID)
	if err != nil {
		return nil, fmt.Errorf("failed to get batch %s: %w", batchID, err)
	}
	if batch == nil {
		return nil, fmt.Errorf("batch %s: %w", batchID, ErrBatchNotFound)
	}
	return batch, nil
}

// claimBatch verifies the batch exists and atomically transitions it from
// pending to processing.
func (s *settlementService) claimBatch(ctx context.Context, batchID string) (*models.PaymentBatch, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	batch, err := uow.PaymentBatchRepository().GetByBatchID(ctx, batchID)
	if err != nil {
		return nil, fmt.Errorf("failed to get batch %s: %w", batchID, err)
	}
	if batch == nil {
		return nil, fmt.Errorf("batch %s: %w", batchID, ErrBatchNotFound)
	}
	if batch.Status != models.BatchStatusPending {
		return nil, fmt.Errorf("batch %s has status %s: %w", batchID, batch.Status, ErrInvalidBatchState)
	}

	claimed, err := uow.PaymentBatchRepository().ClaimForProcessing(ctx, batchID)
	if err != nil {
		return nil, fmt.Errorf("failed to claim batch %s: %w", batchID, err)
	}
	if !claimed {
		// Lost the race against a concurrent processor.
		return nil, fmt.Errorf("batch %s already claimed: %w", batchID, ErrInvalidBatchState)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit claim for batch %s: %w", batchID, err)
	}

	batch.Status = models.BatchStatusProcessing
	return batch, nil
}

// settleClaimedBatch flips every eligible record and completes the batch
// in one transaction, so settlement is all-or-nothing.
func (s *settlementService) settleClaimedBatch(ctx context.Context, batch *models.PaymentBatch, transactionID string) (*models.ProcessResult, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	now := time.Now().UTC()
	updated, err := uow.RevenueRecordRepository().MarkPaidForWindow(
		ctx, batch.BatchID, transactionID, batch.StartDate, batch.EndDate, now)
	if err != nil {
		return nil, fmt.Errorf("failed to mark records paid for batch %s: %w", batch.BatchID, err)
	}

	if err := uow.PaymentBatchRepository().Complete(ctx, batch.BatchID, updated, now); err != nil {
		return nil, fmt.Errorf("failed to complete batch %s: %w", batch.BatchID, err)
	}

	uow.EventBus().Publish(events.BatchProcessedEvent{
		BatchID:        batch.BatchID,
		PaymentID:      transactionID,
		RecordsUpdated: updated,
		TotalAmount:    batch.TotalAmount,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit settlement for batch %s: %w", batch.BatchID, err)
	}

	batch.Status = models.BatchStatusCompleted
	batch.ProcessedCount = updated
	batch.ProcessedAt = &now

	log.WithFields(log.Fields{
		"batchID":        batch.BatchID,
		"paymentID":      transactionID,
		"recordsUpdated": updated,
	}).Info("Payment batch processed")

	return &models.ProcessResult{Batch: batch, RecordsUpdated: updated}, nil
}

// failBatch records the failure on the claimed batch in a fresh
// transaction. Best effort: a failure here leaves the batch in
// processing, which an operator resolves manually.
func (s *settlementService) failBatch(ctx context.Context, batchID string, cause error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		log.WithError(err).WithField("batchID", batchID).Error("Failed to begin fail-marking transaction")
		return
	}
	defer uow.Rollback()

	notes := fmt.Sprintf("settlement aborted: %v", cause)
	if err := uow.PaymentBatchRepository().MarkFailed(ctx, batchID, notes); err != nil {
		log.WithError(err).WithField("batchID", batchID).Error("Failed to mark batch failed")
		return
	}

	uow.EventBus().Publish(events.BatchFailedEvent{
		BatchID: batchID,
		Reason:  notes,
	})

	if err := uow.Commit(); err != nil {
		log.WithError(err).WithField("batchID", batchID).Error("Failed to commit fail-marking transaction")
	}
}
