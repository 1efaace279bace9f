package repository

import (
	"context"
	"testing"
	"time"

	"trooc/models"
	"trooc/repository/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaymentBatchRepository_CreateAndGet(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewPaymentBatchRepository(testDB.DB)
	ctx := context.Background()

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)

	t.Run("round trip", func(t *testing.T) {
		batch := testutil.CreateTestBatch("PB-20240101-aaaa1111", start, end, 2, "1100")
		require.NoError(t, repo.Create(ctx, batch))
		assert.NotZero(t, batch.ID)

		loaded, err := repo.GetByBatchID(ctx, batch.BatchID)
		require.NoError(t, err)
		require.NotNil(t, loaded)
		assert.Equal(t, models.BatchStatusPending, loaded.Status)
		assert.Equal(t, 2, loaded.TotalShops)
		assert.True(t, loaded.TotalAmount.Equal(decimal.NewFromInt(1100)))
		assert.Equal(t, 0, loaded.ProcessedCount)
		assert.Nil(t, loaded.ProcessedAt)
		assert.Nil(t, loaded.Notes)
	})

	t.Run("absent batch returns nil", func(t *testing.T) {
		loaded, err := repo.GetByBatchID(ctx, "PB-missing")
		require.NoError(t, err)
		assert.Nil(t, loaded)
	})
}

func TestPaymentBatchRepository_ClaimForProcessing(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewPaymentBatchRepository(testDB.DB)
	ctx := context.Background()

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)

	batch := testutil.CreateTestBatch("PB-20240101-bbbb2222", start, end, 1, "500")
	require.NoError(t, repo.Create(ctx, batch))

	claimed, err := repo.ClaimForProcessing(ctx, batch.BatchID)
	require.NoError(t, err)
	assert.True(t, claimed)

	loaded, err := repo.GetByBatchID(ctx, batch.BatchID)
	require.NoError(t, err)
	assert.Equal(t, models.BatchStatusProcessing, loaded.Status)

	// Only one claimant ever wins
	claimedAgain, err := repo.ClaimForProcessing(ctx, batch.BatchID)
	require.NoError(t, err)
	assert.False(t, claimedAgain)
}

func TestPaymentBatchRepository_Complete(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewPaymentBatchRepository(testDB.DB)
	ctx := context.Background()

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)

	batch := testutil.CreateTestBatch("PB-20240101-cccc3333", start, end, 1, "500")
	require.NoError(t, repo.Create(ctx, batch))

	t.Run("complete from pending is rejected", func(t *testing.T) {
		err := repo.Complete(ctx, batch.BatchID, 3, time.Now().UTC())
		require.Error(t, err)

		loaded, err := repo.GetByBatchID(ctx, batch.BatchID)
		require.NoError(t, err)
		assert.Equal(t, models.BatchStatusPending, loaded.Status)
	})

	t.Run("complete from processing", func(t *testing.T) {
		claimed, err := repo.ClaimForProcessing(ctx, batch.BatchID)
		require.NoError(t, err)
		require.True(t, claimed)

		processedAt := time.Date(2024, 1, 9, 3, 0, 0, 0, time.UTC)
		require.NoError(t, repo.Complete(ctx, batch.BatchID, 3, processedAt))

		loaded, err := repo.GetByBatchID(ctx, batch.BatchID)
		require.NoError(t, err)
		assert.Equal(t, models.BatchStatusCompleted, loaded.Status)
		assert.Equal(t, 3, loaded.ProcessedCount)
		require.NotNil(t, loaded.ProcessedAt)
		assert.True(t, loaded.ProcessedAt.Equal(processedAt))
	})

	t.Run("completed batch cannot be reclaimed", func(t *testing.T) {
		claimed, err := repo.ClaimForProcessing(ctx, batch.BatchID)
		require.NoError(t, err)
		assert.False(t, claimed)
	})
}

func TestPaymentBatchRepository_MarkFailed(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewPaymentBatchRepository(testDB.DB)
	ctx := context.Background()

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)

	batch := testutil.CreateTestBatch("PB-20240101-dddd4444", start, end, 1, "500")
	require.NoError(t, repo.Create(ctx, batch))

	t.Run("fail from pending is rejected", func(t *testing.T) {
		err := repo.MarkFailed(ctx, batch.BatchID, "should not apply")
		require.Error(t, err)
	})

	t.Run("fail from processing", func(t *testing.T) {
		claimed, err := repo.ClaimForProcessing(ctx, batch.BatchID)
		require.NoError(t, err)
		require.True(t, claimed)

		require.NoError(t, repo.MarkFailed(ctx, batch.BatchID, "settlement aborted: connection reset"))

		loaded, err := repo.GetByBatchID(ctx, batch.BatchID)
		require.NoError(t, err)
		assert.Equal(t, models.BatchStatusFailed, loaded.Status)
		require.NotNil(t, loaded.Notes)
		assert.Contains(t, *loaded.Notes, "connection reset")
	})
}

func TestPaymentBatchRepository_List(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewPaymentBatchRepository(testDB.DB)
	ctx := context.Background()

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)

	for _, id := range []string{"PB-1", "PB-2", "PB-3"} {
		require.NoError(t, repo.Create(ctx, testutil.CreateTestBatch(id, start, end, 1, "100")))
	}

	batches, err := repo.List(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, batches, 2)
}
