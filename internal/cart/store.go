package cart

import (
	"context"

	"github.com/angelmondragon/storefront-backend/pkg/types"
)

// MutateFunc receives the current lines of a cart and returns the lines to keep.
// exists is false when the user has no cart yet.
type MutateFunc func(items types.CartLineItems, exists bool) (types.CartLineItems, error)

// Store persists carts keyed by user id.
type Store interface {
	// Get returns the user's lines, or an empty list when no cart exists.
	Get(ctx context.Context, userID string) (types.CartLineItems, error)
	// Update runs fn against the current lines and persists the result.
	// Nothing is written when fn fails.
	Update(ctx context.Context, userID string, fn MutateFunc) error
	// Clear replaces the user's cart with an empty list.
	Clear(ctx context.Context, userID string) error
}
