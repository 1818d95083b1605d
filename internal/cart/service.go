package cart

import (
	"context"
	"fmt"

	"github.com/angelmondragon/storefront-backend/internal/products"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/keylock"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

type productLoader interface {
	Get(ctx context.Context, id string) (*products.Product, error)
}

// Service exposes cart mutations for a single user at a time.
type Service interface {
	Get(ctx context.Context, userID string) (types.CartLineItems, error)
	AddItem(ctx context.Context, userID, productID string, quantity int) error
	UpdateItem(ctx context.Context, userID, productID string, quantity int) error
	RemoveItem(ctx context.Context, userID, productID string) error
}

// ServiceParams wires the cart service. Locks must be the set the order
// service uses so a checkout never interleaves with a cart edit.
type ServiceParams struct {
	Store    Store
	Products productLoader
	Locks    *keylock.Set
	Logger   *logger.Logger
}

type service struct {
	store    Store
	products productLoader
	locks    *keylock.Set
	logg     *logger.Logger
}

// NewService builds a cart service backed by the provided stack.
func NewService(params ServiceParams) (Service, error) {
	if params.Store == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	locks := params.Locks
	if locks == nil {
		locks = keylock.New()
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		store:    params.Store,
		products: params.Products,
		locks:    locks,
		logg:     logg,
	}, nil
}

func (s *service) Get(ctx context.Context, userID string) (types.CartLineItems, error) {
	items, err := s.store.Get(ctx, userID)
	if err != nil {
		return nil, storageError(err, "Failed to read cart")
	}
	return items, nil
}

// AddItem increments an existing line or appends a snapshot of the product.
// Negative quantities decrement and a line reaching zero is dropped.
func (s *service) AddItem(ctx context.Context, userID, productID string, quantity int) error {
	if productID == "" || quantity == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "Product ID and quantity are required")
	}

	product, err := s.products.Get(ctx, productID)
	if err != nil {
		return storageError(err, "Failed to read products")
	}

	unlock := s.locks.Lock(userID)
	defer unlock()

	err = s.store.Update(ctx, userID, func(items types.CartLineItems, _ bool) (types.CartLineItems, error) {
		for i := range items {
			if items[i].ProductID == productID {
				items[i].Quantity += quantity
				return prune(items), nil
			}
		}
		items = append(items, types.CartLineItem{
			ProductID: productID,
			Quantity:  quantity,
			Product:   product.Snapshot(),
		})
		return prune(items), nil
	})
	if err != nil {
		return storageError(err, "Failed to save cart")
	}

	ctx = s.logg.WithFields(ctx, map[string]any{"user_id": userID, "product_id": productID, "quantity": quantity})
	s.logg.Info(ctx, "cart.item_added")
	return nil
}

// UpdateItem sets a line's quantity. Zero or less removes the line.
func (s *service) UpdateItem(ctx context.Context, userID, productID string, quantity int) error {
	unlock := s.locks.Lock(userID)
	defer unlock()

	err := s.store.Update(ctx, userID, func(items types.CartLineItems, exists bool) (types.CartLineItems, error) {
		if !exists {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Cart not found")
		}
		for i := range items {
			if items[i].ProductID == productID {
				items[i].Quantity = quantity
				return prune(items), nil
			}
		}
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Item not in cart")
	})
	return storageError(err, "Failed to save cart")
}

func (s *service) RemoveItem(ctx context.Context, userID, productID string) error {
	unlock := s.locks.Lock(userID)
	defer unlock()

	err := s.store.Update(ctx, userID, func(items types.CartLineItems, exists bool) (types.CartLineItems, error) {
		if !exists {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Cart not found")
		}
		kept := items[:0]
		for _, item := range items {
			if item.ProductID != productID {
				kept = append(kept, item)
			}
		}
		return kept, nil
	})
	return storageError(err, "Failed to save cart")
}

func prune(items types.CartLineItems) types.CartLineItems {
	kept := items[:0]
	for _, item := range items {
		if item.Quantity > 0 {
			kept = append(kept, item)
		}
	}
	return kept
}

// storageError passes typed errors through and tags anything else as storage.
func storageError(err error, msg string) error {
	if err == nil {
		return nil
	}
	if typed := pkgerrors.As(err); typed != nil {
		return typed
	}
	return pkgerrors.Wrap(pkgerrors.CodeStorage, err, msg)
}
