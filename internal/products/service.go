package products

import (
	"context"
	"strings"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

// Store is the read side of the catalog.
type Store interface {
	All(ctx context.Context) ([]Product, error)
}

// Service exposes catalog browsing.
type Service interface {
	List(ctx context.Context, filters Filters) ([]Product, error)
	Get(ctx context.Context, id string) (*Product, error)
}

type ServiceParams struct {
	Store Store
}

type service struct {
	store Store
}

func NewService(params ServiceParams) (Service, error) {
	if params.Store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product store is required")
	}
	return &service{store: params.Store}, nil
}

// List applies a case-insensitive search over name and description and an
// exact category match.
func (s *service) List(ctx context.Context, filters Filters) ([]Product, error) {
	all, err := s.store.All(ctx)
	if err != nil {
		return nil, err
	}

	search := strings.ToLower(filters.Search)
	out := make([]Product, 0, len(all))
	for _, p := range all {
		if search != "" &&
			!strings.Contains(strings.ToLower(p.Name), search) &&
			!strings.Contains(strings.ToLower(p.Description), search) {
			continue
		}
		if filters.Category != "" && p.Category != filters.Category {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, id string) (*Product, error) {
	all, err := s.store.All(ctx)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].ID == id {
			p := all[i]
			return &p, nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Product not found").WithDetails(map[string]any{"product_id": id})
}
