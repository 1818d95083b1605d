package orders

import (
	"context"

	"github.com/angelmondragon/storefront-backend/pkg/types"
)

// Store is the durable order collection.
type Store interface {
	Append(ctx context.Context, order Order) error
	// Update applies fn to the stored order and persists it. Returns a
	// NOT_FOUND error when id is unknown; nothing is written when fn fails.
	Update(ctx context.Context, id string, fn func(*Order) error) (*Order, error)
	ListByUser(ctx context.Context, userID string) ([]Order, error)
	Get(ctx context.Context, id string) (*Order, error)
}

// AtomicCheckout is implemented by stores that can read a cart, persist the
// order built from it and empty the cart as one unit.
type AtomicCheckout interface {
	CheckoutCart(ctx context.Context, userID string, build func(types.CartLineItems) (*Order, error)) (*Order, error)
}

type cartStore interface {
	Get(ctx context.Context, userID string) (types.CartLineItems, error)
	Clear(ctx context.Context, userID string) error
}
