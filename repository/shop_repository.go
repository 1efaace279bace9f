package repository

import (
	"context"
	"fmt"

	"trooc/database"
	"trooc/models"

	"github.com/jackc/pgx/v5"
)

// ShopRepository implements the ShopRepository interface
type ShopRepository struct {
	q queryable
}

// NewShopRepository creates a new shop repository
func NewShopRepository(db *database.DB) *ShopRepository {
	return &ShopRepository{q: db.Pool}
}

// newShopRepositoryWithTx creates a new shop repository with a transaction
func newShopRepositoryWithTx(tx queryable) *ShopRepository {
	return &ShopRepository{q: tx}
}

// Create persists a new shop
func (r *ShopRepository) Create(ctx context.Context, shop *models.Shop) error {
	query := `
		INSERT INTO shops (name, owner_email, commission_rate, active)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`

	err := r.q.QueryRow(ctx, query,
		shop.Name,
		shop.OwnerEmail,
		shop.CommissionRate,
		shop.Active,
	).Scan(&shop.ID, &shop.CreatedAt, &shop.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create shop %s: %w", shop.Name, err)
	}

	return nil
}

// GetByID retrieves a shop by its ID, nil if absent
func (r *ShopRepository) GetByID(ctx context.Context, id int64) (*models.Shop, error) {
	query := `
		SELECT id, name, owner_email, commission_rate, active, created_at, updated_at
		FROM shops
		WHERE id = $1
	`

	var shop models.Shop
	err := r.q.QueryRow(ctx, query, id).Scan(
		&shop.ID,
		&shop.Name,
		&shop.OwnerEmail,
		&shop.CommissionRate,
		&shop.Active,
		&shop.CreatedAt,
		&shop.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get shop %d: %w", id, err)
	}

	return &shop, nil
}

// GetAll returns all shops
func (r *ShopRepository) GetAll(ctx context.Context) ([]*models.Shop, error) {
	query := `
		SELECT id, name, owner_email, commission_rate, active, created_at, updated_at
		FROM shops
		ORDER BY id
	`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get shops: %w", err)
	}
	defer rows.Close()

	var shops []*models.Shop
	for rows.Next() {
		var shop models.Shop
		err := rows.Scan(
			&shop.ID,
			&shop.Name,
			&shop.OwnerEmail,
			&shop.CommissionRate,
			&shop.Active,
			&shop.CreatedAt,
			&shop.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan shop: %w", err)
		}
		shops = append(shops, &shop)
	}

	return shops, rows.Err()
}
