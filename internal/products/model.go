package products

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/types"
)

// Product is a catalog entry as stored in products.json.
type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Image       string          `json:"image"`
	Category    string          `json:"category"`
}

// Snapshot copies the fields a cart line freezes at add time.
func (p Product) Snapshot() types.ProductSnapshot {
	return types.ProductSnapshot{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Image:       p.Image,
		Category:    p.Category,
	}
}

// Filters narrows List results. Empty fields match everything.
type Filters struct {
	Search   string
	Category string
}
