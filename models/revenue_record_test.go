package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRevenueRecord_CommissionSplit(t *testing.T) {
	txDate := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name               string
		total              string
		rate               string
		expectedCommission string
		expectedEarning    string
	}{
		{"standard ten percent", "100", "0.1", "10", "90"},
		{"zero rate", "250", "0", "0", "250"},
		{"full rate", "250", "1", "250", "0"},
		{"rounding to cents", "99.99", "0.15", "15", "84.99"},
		{"zero amount", "0", "0.2", "0", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record, err := NewRevenueRecord(1, "order-1",
				decimal.RequireFromString(tt.total),
				decimal.RequireFromString(tt.rate),
				txDate)
			require.NoError(t, err)

			assert.True(t, record.CommissionAmount.Equal(decimal.RequireFromString(tt.expectedCommission)),
				"commission: got %s want %s", record.CommissionAmount, tt.expectedCommission)
			assert.True(t, record.ShopEarning.Equal(decimal.RequireFromString(tt.expectedEarning)),
				"earning: got %s want %s", record.ShopEarning, tt.expectedEarning)

			// The split invariant holds for every valid rate
			assert.NoError(t, record.Validate())
		})
	}
}

func TestNewRevenueRecord_RejectsInvalidInputs(t *testing.T) {
	txDate := time.Now()

	_, err := NewRevenueRecord(1, "order-1", decimal.NewFromInt(100), decimal.RequireFromString("1.01"), txDate)
	assert.Error(t, err, "rate above 1 must be rejected")

	_, err = NewRevenueRecord(1, "order-1", decimal.NewFromInt(100), decimal.RequireFromString("-0.1"), txDate)
	assert.Error(t, err, "negative rate must be rejected")

	_, err = NewRevenueRecord(1, "order-1", decimal.NewFromInt(-5), decimal.RequireFromString("0.1"), txDate)
	assert.Error(t, err, "negative amount must be rejected")
}

func TestRevenueRecord_ValidateDetectsBrokenSplit(t *testing.T) {
	record := &RevenueRecord{
		TotalAmount:      decimal.NewFromInt(100),
		CommissionRate:   decimal.RequireFromString("0.1"),
		CommissionAmount: decimal.NewFromInt(10),
		ShopEarning:      decimal.NewFromInt(85),
	}
	assert.Error(t, record.Validate())
}
