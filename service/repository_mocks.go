package service

import (
	"context"
	"time"

	"trooc/events"
	"trooc/models"

	"github.com/stretchr/testify/mock"
)

// MockShopRepository is a mock implementation of ShopRepository
type MockShopRepository struct {
	mock.Mock
}

func (m *MockShopRepository) Create(ctx context.Context, shop *models.Shop) error {
	args := m.Called(ctx, shop)
	return args.Error(0)
}

func (m *MockShopRepository) GetByID(ctx context.Context, id int64) (*models.Shop, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Shop), args.Error(1)
}

func (m *MockShopRepository) GetAll(ctx context.Context) ([]*models.Shop, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Shop), args.Error(1)
}

// MockRevenueRecordRepository is a mock implementation of RevenueRecordRepository
type MockRevenueRecordRepository struct {
	mock.Mock
}

func (m *MockRevenueRecordRepository) Create(ctx context.Context, record *models.RevenueRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockRevenueRecordRepository) GetByOrderID(ctx context.Context, orderID string) (*models.RevenueRecord, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RevenueRecord), args.Error(1)
}

func (m *MockRevenueRecordRepository) GetUnpaid(ctx context.Context, shopID *int64, from, to time.Time) ([]*models.RevenueRecord, error) {
	args := m.Called(ctx, shopID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.RevenueRecord), args.Error(1)
}

func (m *MockRevenueRecordRepository) GetUnpaidShopTotals(ctx context.Context, from, to time.Time) ([]*models.ShopTotal, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ShopTotal), args.Error(1)
}

func (m *MockRevenueRecordRepository) MarkPaidForWindow(ctx context.Context, batchID, paymentID string, from, to time.Time, paidAt time.Time) (int, error) {
	args := m.Called(ctx, batchID, paymentID, from, to, paidAt)
	return args.Int(0), args.Error(1)
}

func (m *MockRevenueRecordRepository) GetByBatchID(ctx context.Context, batchID string) ([]*models.RevenueRecord, error) {
	args := m.Called(ctx, batchID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.RevenueRecord), args.Error(1)
}

// MockPaymentBatchRepository is a mock implementation of PaymentBatchRepository
type MockPaymentBatchRepository struct {
	mock.Mock
}

func (m *MockPaymentBatchRepository) Create(ctx context.Context, batch *models.PaymentBatch) error {
	args := m.Called(ctx, batch)
	return args.Error(0)
}

func (m *MockPaymentBatchRepository) GetByBatchID(ctx context.Context, batchID string) (*models.PaymentBatch, error) {
	args := m.Called(ctx, batchID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PaymentBatch), args.Error(1)
}

func (m *MockPaymentBatchRepository) ClaimForProcessing(ctx context.Context, batchID string) (bool, error) {
	args := m.Called(ctx, batchID)
	return args.Bool(0), args.Error(1)
}

func (m *MockPaymentBatchRepository) Complete(ctx context.Context, batchID string, processedCount int, processedAt time.Time) error {
	args := m.Called(ctx, batchID, processedCount, processedAt)
	return args.Error(0)
}

func (m *MockPaymentBatchRepository) MarkFailed(ctx context.Context, batchID string, notes string) error {
	args := m.Called(ctx, batchID, notes)
	return args.Error(0)
}

func (m *MockPaymentBatchRepository) List(ctx context.Context, limit int) ([]*models.PaymentBatch, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.PaymentBatch), args.Error(1)
}

// capturingEventBus collects events published through a unit of work so
// tests can assert on them
type capturingEventBus struct {
	published []events.Event
}

func (b *capturingEventBus) Publish(e events.Event) {
	b.published = append(b.published, e)
}

// MockUnitOfWork is a mock implementation of UnitOfWork. Repositories are
// injected with SetRepositories; Begin/Commit/Rollback are regular testify
// expectations.
type MockUnitOfWork struct {
	mock.Mock
	shopRepo   ShopRepository
	recordRepo RevenueRecordRepository
	batchRepo  PaymentBatchRepository
	eventBus   *capturingEventBus
}

// SetRepositories wires the repositories the unit of work hands out
func (m *MockUnitOfWork) SetRepositories(shops ShopRepository, records RevenueRecordRepository, batches PaymentBatchRepository) {
	m.shopRepo = shops
	m.recordRepo = records
	m.batchRepo = batches
	m.eventBus = &capturingEventBus{}
}

// PublishedEvents returns the events published through this unit of work
func (m *MockUnitOfWork) PublishedEvents() []events.Event {
	if m.eventBus == nil {
		return nil
	}
	return m.eventBus.published
}

func (m *MockUnitOfWork) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUnitOfWork) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) ShopRepository() ShopRepository {
	return m.shopRepo
}

func (m *MockUnitOfWork) RevenueRecordRepository() RevenueRecordRepository {
	return m.recordRepo
}

func (m *MockUnitOfWork) PaymentBatchRepository() PaymentBatchRepository {
	return m.batchRepo
}

func (m *MockUnitOfWork) EventBus() EventPublisher {
	if m.eventBus == nil {
		m.eventBus = &capturingEventBus{}
	}
	return m.eventBus
}

// MockUnitOfWorkFactory is a mock implementation of UnitOfWorkFactory
type MockUnitOfWorkFactory struct {
	mock.Mock
}

func (m *MockUnitOfWorkFactory) Create() UnitOfWork {
	args := m.Called()
	return args.Get(0).(UnitOfWork)
}
