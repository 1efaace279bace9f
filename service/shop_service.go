package service

import (
	"context"
	"fmt"

	"trooc/models"

	"github.com/shopspring/decimal"
)

type shopService struct {
	uowFactory UnitOfWorkFactory
}

// NewShopService creates a new shop registry service
func NewShopService(uowFactory UnitOfWorkFactory) ShopService {
	return &shopService{
		uowFactory: uowFactory,
	}
}

func (s *shopService) CreateShop(ctx context.Context, name, ownerEmail string, commissionRate decimal.Decimal) (*models.Shop, error) {
	if name == "" {
		return nil, fmt.Errorf("shop name must not be empty")
	}
	if ownerEmail == "" {
		return nil, fmt.Errorf("owner email must not be empty")
	}
	if commissionRate.IsNegative() || commissionRate.GreaterThan(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("commission rate %s outside [0,1]", commissionRate)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	shop := &models.Shop{
		Name:           name,
		OwnerEmail:     ownerEmail,
		CommissionRate: commissionRate,
		Active:         true,
	}
	if err := uow.ShopRepository().Create(ctx, shop); err != nil {
		return nil, fmt.Errorf("failed to create shop: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return shop, nil
}

func (s *shopService) GetShop(ctx context.Context, id int64) (*models.Shop, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	shop, err := uow.ShopRepository().GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get shop %d: %w", id, err)
	}
	if shop == nil {
		return nil, fmt.Errorf("shop %d: %w", id, ErrShopNotFound)
	}
	return shop, nil
}
