package repository

import (
	"context"
	"fmt"
	"time"

	"trooc/database"
	"trooc/models"

	"github.com/jackc/pgx/v5"
)

// PaymentBatchRepository implements the PaymentBatchRepository interface
type PaymentBatchRepository struct {
	q queryable
}

// NewPaymentBatchRepository creates a new payment batch repository
func NewPaymentBatchRepository(db *database.DB) *PaymentBatchRepository {
	return &PaymentBatchRepository{q: db.Pool}
}

// newPaymentBatchRepositoryWithTx creates a new payment batch repository
// with a transaction
func newPaymentBatchRepositoryWithTx(tx queryable) *PaymentBatchRepository {
	return &PaymentBatchRepository{q: tx}
}

const paymentBatchColumns = `
	id, batch_id, start_date, end_date, status, total_shops, total_amount,
	processed_count, notes, created_at, processed_at`

// Create persists a new batch in pending state
func (r *PaymentBatchRepository) Create(ctx context.Context, batch *models.PaymentBatch) error {
	query := `
		INSERT INTO payment_batches
		(batch_id, start_date, end_date, status, total_shops, total_amount, processed_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		batch.BatchID,
		batch.StartDate,
		batch.EndDate,
		batch.Status,
		batch.TotalShops,
		batch.TotalAmount,
		batch.ProcessedCount,
	).Scan(&batch.ID, &batch.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create payment batch %s: %w", batch.BatchID, err)
	}

	return nil
}

// GetByBatchID retrieves a batch by its batch id, nil if absent
func (r *PaymentBatchRepository) GetByBatchID(ctx context.Context, batchID string) (*models.PaymentBatch, error) {
	query := `SELECT` + paymentBatchColumns + `
		FROM payment_batches
		WHERE batch_id = $1
	`

	var batch models.PaymentBatch
	err := r.q.QueryRow(ctx, query, batchID).Scan(
		&batch.ID,
		&batch.BatchID,
		&batch.StartDate,
		&batch.EndDate,
		&batch.Status,
		&batch.TotalShops,
		&batch.TotalAmount,
		&batch.ProcessedCount,
		&batch.Notes,
		&batch.CreatedAt,
		&batch.ProcessedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payment batch %s: %w", batchID, err)
	}

	return &batch, nil
}

// ClaimForProcessing atomically transitions pending -> processing. The
// status guard in the WHERE clause makes this the single-writer gate: only
// one caller ever sees a row updated.
func (r *PaymentBatchRepository) ClaimForProcessing(ctx context.Context, batchID string) (bool, error) {
	query := `
		UPDATE payment_batches
		SET status = $1
		WHERE batch_id = $2 AND status = $3
	`

	tag, err := r.q.Exec(ctx, query, models.BatchStatusProcessing, batchID, models.BatchStatusPending)
	if err != nil {
		return false, fmt.Errorf("failed to claim payment batch %s: %w", batchID, err)
	}

	return tag.RowsAffected() == 1, nil
}

// Complete transitions processing -> completed, recording the processed
// count and timestamp
func (r *PaymentBatchRepository) Complete(ctx context.Context, batchID string, processedCount int, processedAt time.Time) error {
	query := `
		UPDATE payment_batches
		SET status = $1, processed_count = $2, processed_at = $3
		WHERE batch_id = $4 AND status = $5
	`

	tag, err := r.q.Exec(ctx, query,
		models.BatchStatusCompleted, processedCount, processedAt,
		batchID, models.BatchStatusProcessing)
	if err != nil {
		return fmt.Errorf("failed to complete payment batch %s: %w", batchID, err)
	}
	if tag.RowsAffected() != 1 {
		return fmt.Errorf("payment batch %s was not in processing state", batchID)
	}

	return nil
}

// MarkFailed transitions processing -> failed with operator notes
func (r *PaymentBatchRepository) MarkFailed(ctx context.Context, batchID string, notes string) error {
	query := `
		UPDATE payment_batches
		SET status = $1, notes = $2
		WHERE batch_id = $3 AND status = $4
	`

	tag, err := r.q.Exec(ctx, query,
		models.BatchStatusFailed, notes,
		batchID, models.BatchStatusProcessing)
	if err != nil {
		return fmt.Errorf("failed to mark payment batch %s failed: %w", batchID, err)
	}
	if tag.RowsAffected() != 1 {
		return fmt.Errorf("payment batch %s was not in processing state", batchID)
	}

	return nil
}

// List returns the most recent batches
func (r *PaymentBatchRepository) List(ctx context.Context, limit int) ([]*models.PaymentBatch, error) {
	query := `SELECT` + paymentBatchColumns + `
		FROM payment_batches
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := r.q.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list payment batches: %w", err)
	}
	defer rows.Close()

	var batches []*models.PaymentBatch
	for rows.Next() {
		var batch models.PaymentBatch
		err := rows.Scan(
			&batch.ID,
			&batch.BatchID,
			&batch.StartDate,
			&batch.EndDate,
			&batch.Status,
			&batch.TotalShops,
			&batch.TotalAmount,
			&batch.ProcessedCount,
			&batch.Notes,
			&batch.CreatedAt,
			&batch.ProcessedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment batch: %w", err)
		}
		batches = append(batches, &batch)
	}

	return batches, rows.Err()
}
