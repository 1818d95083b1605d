package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// CartLineItem is one product line in a cart or order.
type CartLineItem struct {
	ProductID string          `json:"productId"`
	Quantity  int             `json:"quantity"`
	Product   ProductSnapshot `json:"product"`
}

// LineTotal returns price times quantity for the line.
func (c CartLineItem) LineTotal() decimal.Decimal {
	return c.Product.Price.Mul(decimal.NewFromInt(int64(c.Quantity)))
}

// CartLineItems is an ordered item list persisted as a JSON column.
type CartLineItems []CartLineItem

// Subtotal sums every line total without intermediate rounding.
func (items CartLineItems) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.LineTotal())
	}
	return total
}

// Clone copies the slice so callers cannot alias stored state.
func (items CartLineItems) Clone() CartLineItems {
	if items == nil {
		return nil
	}
	out := make(CartLineItems, len(items))
	copy(out, items)
	return out
}

// Value marshals the items into JSON text.
func (items CartLineItems) Value() (driver.Value, error) {
	if items == nil {
		return "[]", nil
	}
	buf, err := json.Marshal(items)
	if err != nil {
		return nil, err
	}
	return string(buf), nil
}

// Scan decodes a JSON column into the items.
func (items *CartLineItems) Scan(value interface{}) error {
	if value == nil {
		*items = CartLineItems{}
		return nil
	}

	var raw []byte
	switch v := value.(type) {
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("cart line items: unsupported scan type %T", value)
	}

	result := CartLineItems{}
	if err := json.Unmarshal(raw, &result); err != nil {
		return err
	}
	*items = result
	return nil
}
