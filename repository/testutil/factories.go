package testutil

import (
	"fmt"
	"time"

	"trooc/models"

	"github.com/shopspring/decimal"
)

// CreateTestShop creates a shop with a ten percent commission rate
func CreateTestShop(name, ownerEmail string) *models.Shop {
	return &models.Shop{
		Name:           name,
		OwnerEmail:     ownerEmail,
		CommissionRate: decimal.RequireFromString("0.1"),
		Active:         true,
	}
}

// CreateTestShopWithRate creates a shop with a specific commission rate
func CreateTestShopWithRate(name, ownerEmail, rate string) *models.Shop {
	shop := CreateTestShop(name, ownerEmail)
	shop.CommissionRate = decimal.RequireFromString(rate)
	return shop
}

// CreateTestRevenueRecord builds an unpaid record for a shop and order,
// splitting the amount at the shop's test rate of 0.1
func CreateTestRevenueRecord(shopID int64, orderID string, totalAmount string, transactionDate time.Time) *models.RevenueRecord {
	record, err := models.NewRevenueRecord(
		shopID, orderID,
		decimal.RequireFromString(totalAmount),
		decimal.RequireFromString("0.1"),
		transactionDate,
	)
	if err != nil {
		panic(fmt.Sprintf("invalid test revenue record: %v", err))
	}
	return record
}

// CreateTestBatch builds a pending batch over a window
func CreateTestBatch(batchID string, start, end time.Time, totalShops int, totalAmount string) *models.PaymentBatch {
	return &models.PaymentBatch{
		BatchID:     batchID,
		StartDate:   start,
		EndDate:     end,
		Status:      models.BatchStatusPending,
		TotalShops:  totalShops,
		TotalAmount: decimal.RequireFromString(totalAmount),
	}
}
