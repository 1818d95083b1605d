package orders

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

// Repository stores orders in the orders table.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(conn *gorm.DB) *Repository {
	return &Repository{db: conn}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

func (r *Repository) Append(ctx context.Context, order Order) error {
	return r.db.WithContext(ctx).Create(&order).Error
}

func (r *Repository) Update(ctx context.Context, id string, fn func(*Order) error) (*Order, error) {
	var updated Order
	err := db.RunInTx(ctx, r.db, func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&updated).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errOrderNotFound(id)
		}
		if err != nil {
			return err
		}
		if err := fn(&updated); err != nil {
			return err
		}
		return tx.Save(&updated).Error
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (r *Repository) ListByUser(ctx context.Context, userID string) ([]Order, error) {
	var rows []Order
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("placed_at ASC").
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []Order{}
	}
	return rows, nil
}

func (r *Repository) Get(ctx context.Context, id string) (*Order, error) {
	var order Order
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errOrderNotFound(id)
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// CheckoutCart locks the user's cart row, inserts the order built from it and
// empties the cart in a single transaction.
func (r *Repository) CheckoutCart(ctx context.Context, userID string, build func(types.CartLineItems) (*Order, error)) (*Order, error) {
	var placed *Order
	err := db.RunInTx(ctx, r.db, func(tx *gorm.DB) error {
		carts := cart.NewRepository(tx)
		items, err := carts.GetForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		order, err := build(items)
		if err != nil {
			return err
		}
		if err := r.WithTx(tx).Append(ctx, *order); err != nil {
			return err
		}
		if err := carts.Clear(ctx, userID); err != nil {
			return err
		}
		placed = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return placed, nil
}
