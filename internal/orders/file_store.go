package orders

import (
	"context"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/filestore"
)

// FileStore keeps orders in a JSON array, oldest first.
type FileStore struct {
	doc *filestore.Document[[]Order]
}

func NewFileStore(path string) *FileStore {
	return &FileStore{doc: filestore.New(path, func() []Order { return []Order{} })}
}

func (s *FileStore) Append(ctx context.Context, order Order) error {
	return s.doc.Update(ctx, func(all *[]Order) error {
		*all = append(*all, order.clone())
		return nil
	})
}

func (s *FileStore) Update(ctx context.Context, id string, fn func(*Order) error) (*Order, error) {
	var updated Order
	err := s.doc.Update(ctx, func(all *[]Order) error {
		for i := range *all {
			if (*all)[i].ID != id {
				continue
			}
			next := (*all)[i].clone()
			if err := fn(&next); err != nil {
				return err
			}
			(*all)[i] = next
			updated = next.clone()
			return nil
		}
		return errOrderNotFound(id)
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *FileStore) ListByUser(ctx context.Context, userID string) ([]Order, error) {
	all, err := s.doc.Read(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Order, 0)
	for _, order := range all {
		if order.UserID == userID {
			out = append(out, order)
		}
	}
	return out, nil
}

func (s *FileStore) Get(ctx context.Context, id string) (*Order, error) {
	all, err := s.doc.Read(ctx)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].ID == id {
			order := all[i]
			return &order, nil
		}
	}
	return nil, errOrderNotFound(id)
}

func errOrderNotFound(id string) error {
	return pkgerrors.New(pkgerrors.CodeNotFound, "Order not found").WithDetails(map[string]any{"order_id": id})
}
