package cart

import (
	"context"
	"errors"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Record is the carts table row.
type Record struct {
	UserID    string              `gorm:"column:user_id;primaryKey"`
	Items     types.CartLineItems `gorm:"column:items;type:text"`
	UpdatedAt time.Time           `gorm:"column:updated_at"`
}

func (Record) TableName() string { return "carts" }

// Repository stores carts in the carts table.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a cart repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

func (r *Repository) Get(ctx context.Context, userID string) (types.CartLineItems, error) {
	record, err := r.find(r.db.WithContext(ctx), userID)
	if err != nil {
		return nil, err
	}
	if record == nil || record.Items == nil {
		return types.CartLineItems{}, nil
	}
	return record.Items, nil
}

// GetForUpdate reads the cart and row-locks it for the rest of the surrounding
// transaction. sqlite ignores the lock clause.
func (r *Repository) GetForUpdate(ctx context.Context, userID string) (types.CartLineItems, error) {
	record, err := r.find(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), userID)
	if err != nil {
		return nil, err
	}
	if record == nil || record.Items == nil {
		return types.CartLineItems{}, nil
	}
	return record.Items, nil
}

func (r *Repository) Update(ctx context.Context, userID string, fn MutateFunc) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		record, err := r.find(tx, userID)
		if err != nil {
			return err
		}
		var current types.CartLineItems
		if record != nil {
			current = record.Items
		}
		next, err := fn(current.Clone(), record != nil)
		if err != nil {
			return err
		}
		return r.WithTx(tx).save(ctx, userID, next)
	})
}

func (r *Repository) Clear(ctx context.Context, userID string) error {
	return r.save(ctx, userID, types.CartLineItems{})
}

func (r *Repository) find(conn *gorm.DB, userID string) (*Record, error) {
	var record Record
	err := conn.Where("user_id = ?", userID).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *Repository) save(ctx context.Context, userID string, items types.CartLineItems) error {
	if items == nil {
		items = types.CartLineItems{}
	}
	record := Record{UserID: userID, Items: items, UpdatedAt: time.Now().UTC()}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"items", "updated_at"}),
	}).Create(&record).Error
}
