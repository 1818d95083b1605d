package types

import "github.com/shopspring/decimal"

func init() {
	// Prices and totals are written as JSON numbers, matching the persisted documents.
	decimal.MarshalJSONWithoutQuotes = true
}

// ProductSnapshot is the catalog data frozen into a cart line when the item is
// added. Orders carry the same snapshot, so later catalog edits never reprice them.
type ProductSnapshot struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Image       string          `json:"image"`
	Category    string          `json:"category"`
}
