package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"trooc/database"
	"trooc/models"
	"trooc/service"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// RevenueRecordRepository implements the RevenueRecordRepository interface
type RevenueRecordRepository struct {
	q queryable
}

// NewRevenueRecordRepository creates a new revenue record repository
func NewRevenueRecordRepository(db *database.DB) *RevenueRecordRepository {
	return &RevenueRecordRepository{q: db.Pool}
}

// newRevenueRecordRepositoryWithTx creates a new revenue record repository
// with a transaction
func newRevenueRecordRepositoryWithTx(tx queryable) *RevenueRecordRepository {
	return &RevenueRecordRepository{q: tx}
}

const revenueRecordColumns = `
	id, shop_id, order_id, total_amount, commission_rate, commission_amount,
	shop_earning, is_paid, payment_date, payment_id, payment_batch_id,
	transaction_date, created_at`

// Create inserts a new revenue record. The unique constraint on order_id
// maps to service.ErrDuplicateOrder so at most one record exists per order.
func (r *RevenueRecordRepository) Create(ctx context.Context, record *models.RevenueRecord) error {
	query := `
		INSERT INTO revenue_records
		(shop_id, order_id, total_amount, commission_rate, commission_amount,
		 shop_earning, transaction_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		record.ShopID,
		record.OrderID,
		record.TotalAmount,
		record.CommissionRate,
		record.CommissionAmount,
		record.ShopEarning,
		record.TransactionDate,
	).Scan(&record.ID, &record.CreatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return fmt.Errorf("order %s: %w", record.OrderID, service.ErrDuplicateOrder)
		}
		return fmt.Errorf("failed to create revenue record for order %s: %w", record.OrderID, err)
	}

	return nil
}

// GetByOrderID retrieves a record by order id, nil if absent
func (r *RevenueRecordRepository) GetByOrderID(ctx context.Context, orderID string) (*models.RevenueRecord, error) {
	query := `SELECT` + revenueRecordColumns + `
		FROM revenue_records
		WHERE order_id = $1
	`

	record, err := r.scanOne(r.q.QueryRow(ctx, query, orderID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get revenue record for order %s: %w", orderID, err)
	}
	return record, nil
}

// GetUnpaid returns unpaid records with transaction_date in [from, to),
// optionally filtered by shop
func (r *RevenueRecordRepository) GetUnpaid(ctx context.Context, shopID *int64, from, to time.Time) ([]*models.RevenueRecord, error) {
	query := `SELECT` + revenueRecordColumns + `
		FROM revenue_records
		WHERE is_paid = FALSE
		  AND transaction_date >= $1 AND transaction_date < $2
		  AND ($3::bigint IS NULL OR shop_id = $3)
		ORDER BY transaction_date, id
	`

	rows, err := r.q.Query(ctx, query, from, to, shopID)
	if err != nil {
		return nil, fmt.Errorf("failed to query unpaid revenue records: %w", err)
	}
	defer rows.Close()

	return r.scanAll(rows)
}

// GetUnpaidShopTotals aggregates unpaid, unclaimed records in [from, to)
// per shop. Records already claimed by a batch are excluded so a window
// overlapping a pending batch cannot double-count them.
func (r *RevenueRecordRepository) GetUnpaidShopTotals(ctx context.Context, from, to time.Time) ([]*models.ShopTotal, error) {
	query := `
		SELECT shop_id, COUNT(*), SUM(total_amount), SUM(shop_earning)
		FROM revenue_records
		WHERE is_paid = FALSE AND payment_batch_id IS NULL
		  AND transaction_date >= $1 AND transaction_date < $2
		GROUP BY shop_id
		ORDER BY shop_id
	`

	rows, err := r.q.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate unpaid revenue records: %w", err)
	}
	defer rows.Close()

	var totals []*models.ShopTotal
	for rows.Next() {
		var t models.ShopTotal
		if err := rows.Scan(&t.ShopID, &t.RecordCount, &t.TotalAmount, &t.ShopEarning); err != nil {
			return nil, fmt.Errorf("failed to scan shop total: %w", err)
		}
		totals = append(totals, &t)
	}

	return totals, rows.Err()
}

// MarkPaidForWindow flips every unpaid, unclaimed record in [from, to) to
// paid, stamping the batch and payment ids. The payment_batch_id IS NULL
// guard means each record is claimed by exactly one batch.
func (r *RevenueRecordRepository) MarkPaidForWindow(ctx context.Context, batchID, paymentID string, from, to time.Time, paidAt time.Time) (int, error) {
	query := `
		UPDATE revenue_records
		SET is_paid = TRUE,
		    payment_date = $3,
		    payment_id = $2,
		    payment_batch_id = $1
		WHERE is_paid = FALSE AND payment_batch_id IS NULL
		  AND transaction_date >= $4 AND transaction_date < $5
	`

	tag, err := r.q.Exec(ctx, query, batchID, paymentID, paidAt, from, to)
	if err != nil {
		return 0, fmt.Errorf("failed to mark records paid for batch %s: %w", batchID, err)
	}

	return int(tag.RowsAffected()), nil
}

// GetByBatchID returns all records settled by a batch
func (r *RevenueRecordRepository) GetByBatchID(ctx context.Context, batchID string) ([]*models.RevenueRecord, error) {
	query := `SELECT` + revenueRecordColumns + `
		FROM revenue_records
		WHERE payment_batch_id = $1
		ORDER BY id
	`

	rows, err := r.q.Query(ctx, query, batchID)
	if err != nil {
		return nil, fmt.Errorf("failed to get revenue records for batch %s: %w", batchID, err)
	}
	defer rows.Close()

	return r.scanAll(rows)
}

func (r *RevenueRecordRepository) scanOne(row pgx.Row) (*models.RevenueRecord, error) {
	var record models.RevenueRecord
	err := row.Scan(
		&record.ID,
		&record.ShopID,
		&record.OrderID,
		&record.TotalAmount,
		&record.CommissionRate,
		&record.CommissionAmount,
		&record.ShopEarning,
		&record.IsPaid,
		&record.PaymentDate,
		&record.PaymentID,
		&record.PaymentBatchID,
		&record.TransactionDate,
		&record.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *RevenueRecordRepository) scanAll(rows pgx.Rows) ([]*models.RevenueRecord, error) {
	var records []*models.RevenueRecord
	for rows.Next() {
		record, err := r.scanOne(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan revenue record: %w", err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}
