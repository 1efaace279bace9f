package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"trooc/models"
	"trooc/repository/testutil"
	"trooc/service"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRevenueRecordRepository_Create(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	shopRepo := NewShopRepository(testDB.DB)
	repo := NewRevenueRecordRepository(testDB.DB)
	ctx := context.Background()

	shop := testutil.CreateTestShop("Acme Goods", "acme@example.com")
	require.NoError(t, shopRepo.Create(ctx, shop))

	txDate := time.Date(2024, 1, 10, 14, 0, 0, 0, time.UTC)

	t.Run("successful creation", func(t *testing.T) {
		record := testutil.CreateTestRevenueRecord(shop.ID, "order-1", "100", txDate)
		err := repo.Create(ctx, record)
		require.NoError(t, err)
		assert.NotZero(t, record.ID)
		assert.False(t, record.CreatedAt.IsZero())
	})

	t.Run("duplicate order rejected", func(t *testing.T) {
		dup := testutil.CreateTestRevenueRecord(shop.ID, "order-1", "250", txDate)
		err := repo.Create(ctx, dup)
		require.Error(t, err)
		assert.True(t, errors.Is(err, service.ErrDuplicateOrder))

		// The original record is untouched
		existing, err := repo.GetByOrderID(ctx, "order-1")
		require.NoError(t, err)
		require.NotNil(t, existing)
		assert.True(t, existing.TotalAmount.Equal(decimal.NewFromInt(100)))
	})

	t.Run("split invariant survives round trip", func(t *testing.T) {
		record := testutil.CreateTestRevenueRecord(shop.ID, "order-2", "99.99", txDate)
		require.NoError(t, repo.Create(ctx, record))

		loaded, err := repo.GetByOrderID(ctx, "order-2")
		require.NoError(t, err)
		require.NotNil(t, loaded)
		assert.NoError(t, loaded.Validate())
		assert.False(t, loaded.IsPaid)
		assert.Nil(t, loaded.PaymentBatchID)
	})
}

func TestRevenueRecordRepository_GetUnpaidShopTotals(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	shopRepo := NewShopRepository(testDB.DB)
	repo := NewRevenueRecordRepository(testDB.DB)
	ctx := context.Background()

	shopA := testutil.CreateTestShop("Shop A", "a@example.com")
	shopB := testutil.CreateTestShop("Shop B", "b@example.com")
	require.NoError(t, shopRepo.Create(ctx, shopA))
	require.NoError(t, shopRepo.Create(ctx, shopB))

	windowStart := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	windowEnd := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)
	inWindow := windowStart.Add(24 * time.Hour)

	// 3 orders for shop A (100, 200, 300) and 1 order for shop B (500),
	// all at commission rate 0.1
	for i, amount := range []string{"100", "200", "300"} {
		record := testutil.CreateTestRevenueRecord(shopA.ID, fmt.Sprintf("order-a-%d", i), amount, inWindow)
		require.NoError(t, repo.Create(ctx, record))
	}
	require.NoError(t, repo.Create(ctx,
		testutil.CreateTestRevenueRecord(shopB.ID, "order-b-0", "500", inWindow)))

	// A record outside the window must not count
	require.NoError(t, repo.Create(ctx,
		testutil.CreateTestRevenueRecord(shopA.ID, "order-outside", "999", windowEnd.Add(time.Hour))))

	totals, err := repo.GetUnpaidShopTotals(ctx, windowStart, windowEnd)
	require.NoError(t, err)
	require.Len(t, totals, 2)

	byShop := map[int64]*models.ShopTotal{}
	for _, tot := range totals {
		byShop[tot.ShopID] = tot
	}

	require.Contains(t, byShop, shopA.ID)
	require.Contains(t, byShop, shopB.ID)

	assert.Equal(t, 3, byShop[shopA.ID].RecordCount)
	assert.True(t, byShop[shopA.ID].TotalAmount.Equal(decimal.NewFromInt(600)))
	assert.True(t, byShop[shopA.ID].ShopEarning.Equal(decimal.NewFromInt(540)),
		"shop A earning: got %s", byShop[shopA.ID].ShopEarning)

	assert.Equal(t, 1, byShop[shopB.ID].RecordCount)
	assert.True(t, byShop[shopB.ID].TotalAmount.Equal(decimal.NewFromInt(500)))
	assert.True(t, byShop[shopB.ID].ShopEarning.Equal(decimal.NewFromInt(450)),
		"shop B earning: got %s", byShop[shopB.ID].ShopEarning)

	t.Run("empty window yields no totals", func(t *testing.T) {
		emptyStart := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
		emptyEnd := time.Date(2023, 6, 8, 0, 0, 0, 0, time.UTC)
		totals, err := repo.GetUnpaidShopTotals(ctx, emptyStart, emptyEnd)
		require.NoError(t, err)
		assert.Empty(t, totals)
	})
}

func TestRevenueRecordRepository_MarkPaidForWindow(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	shopRepo := NewShopRepository(testDB.DB)
	repo := NewRevenueRecordRepository(testDB.DB)
	batchRepo := NewPaymentBatchRepository(testDB.DB)
	ctx := context.Background()

	shop := testutil.CreateTestShop("Acme Goods", "acme@example.com")
	require.NoError(t, shopRepo.Create(ctx, shop))

	windowStart := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	windowEnd := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)
	inWindow := windowStart.Add(24 * time.Hour)

	batch := testutil.CreateTestBatch("PB-20240101-aaaa1111", windowStart, windowEnd, 1, "300")
	require.NoError(t, batchRepo.Create(ctx, batch))

	inside1 := testutil.CreateTestRevenueRecord(shop.ID, "order-1", "100", inWindow)
	inside2 := testutil.CreateTestRevenueRecord(shop.ID, "order-2", "200", inWindow)
	outside := testutil.CreateTestRevenueRecord(shop.ID, "order-3", "400", windowEnd.Add(time.Hour))
	require.NoError(t, repo.Create(ctx, inside1))
	require.NoError(t, repo.Create(ctx, inside2))
	require.NoError(t, repo.Create(ctx, outside))

	paidAt := time.Now().UTC()
	updated, err := repo.MarkPaidForWindow(ctx, batch.BatchID, "TXN-1", windowStart, windowEnd, paidAt)
	require.NoError(t, err)
	assert.Equal(t, 2, updated)

	// Every touched record carries the batch and payment ids
	settled, err := repo.GetByBatchID(ctx, batch.BatchID)
	require.NoError(t, err)
	require.Len(t, settled, 2)
	for _, record := range settled {
		assert.True(t, record.IsPaid)
		require.NotNil(t, record.PaymentBatchID)
		assert.Equal(t, batch.BatchID, *record.PaymentBatchID)
		require.NotNil(t, record.PaymentID)
		assert.Equal(t, "TXN-1", *record.PaymentID)
		require.NotNil(t, record.PaymentDate)
	}

	// The record outside the window stays unpaid
	untouched, err := repo.GetByOrderID(ctx, "order-3")
	require.NoError(t, err)
	assert.False(t, untouched.IsPaid)
	assert.Nil(t, untouched.PaymentBatchID)

	t.Run("second run over the same window touches nothing", func(t *testing.T) {
		updated, err := repo.MarkPaidForWindow(ctx, "PB-other", "TXN-2", windowStart, windowEnd, time.Now().UTC())
		require.NoError(t, err)
		assert.Equal(t, 0, updated)

		// Payment stamps are from the first run only
		record, err := repo.GetByOrderID(ctx, "order-1")
		require.NoError(t, err)
		assert.Equal(t, batch.BatchID, *record.PaymentBatchID)
		assert.Equal(t, "TXN-1", *record.PaymentID)
	})

	t.Run("claimed records are excluded from later aggregation", func(t *testing.T) {
		totals, err := repo.GetUnpaidShopTotals(ctx, windowStart, windowEnd)
		require.NoError(t, err)
		assert.Empty(t, totals)
	})
}

func TestRevenueRecordRepository_GetUnpaid(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	shopRepo := NewShopRepository(testDB.DB)
	repo := NewRevenueRecordRepository(testDB.DB)
	ctx := context.Background()

	shopA := testutil.CreateTestShop("Shop A", "a@example.com")
	shopB := testutil.CreateTestShop("Shop B", "b@example.com")
	require.NoError(t, shopRepo.Create(ctx, shopA))
	require.NoError(t, shopRepo.Create(ctx, shopB))

	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	inWindow := from.Add(48 * time.Hour)

	require.NoError(t, repo.Create(ctx, testutil.CreateTestRevenueRecord(shopA.ID, "order-a", "100", inWindow)))
	require.NoError(t, repo.Create(ctx, testutil.CreateTestRevenueRecord(shopB.ID, "order-b", "200", inWindow)))

	t.Run("all shops", func(t *testing.T) {
		records, err := repo.GetUnpaid(ctx, nil, from, to)
		require.NoError(t, err)
		assert.Len(t, records, 2)
	})

	t.Run("filtered by shop", func(t *testing.T) {
		records, err := repo.GetUnpaid(ctx, &shopA.ID, from, to)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "order-a", records[0].OrderID)
	})
}

func TestRevenueRecordRepository_RollbackLeavesNoRecord(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	shopRepo := NewShopRepository(testDB.DB)
	repo := NewRevenueRecordRepository(testDB.DB)
	ctx := context.Background()

	shop := testutil.CreateTestShop("Acme Goods", "acme@example.com")
	require.NoError(t, shopRepo.Create(ctx, shop))

	txDate := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)

	err := testDB.DB.WithTransaction(ctx, func(tx pgx.Tx) error {
		txRepo := newRevenueRecordRepositoryWithTx(tx)
		record := testutil.CreateTestRevenueRecord(shop.ID, "order-rollback", "100", txDate)
		if err := txRepo.Create(ctx, record); err != nil {
			return err
		}
		return fmt.Errorf("force rollback")
	})
	require.Error(t, err)

	record, err := repo.GetByOrderID(ctx, "order-rollback")
	require.NoError(t, err)
	assert.Nil(t, record)
}
