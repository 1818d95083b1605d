package cart

import (
	"context"

	"github.com/angelmondragon/storefront-backend/pkg/filestore"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

type cartDocument = map[string]types.CartLineItems

// FileStore keeps every cart in one JSON object keyed by user id.
type FileStore struct {
	doc *filestore.Document[cartDocument]
}

func NewFileStore(path string) *FileStore {
	return &FileStore{doc: filestore.New(path, func() cartDocument { return cartDocument{} })}
}

func (s *FileStore) Get(ctx context.Context, userID string) (types.CartLineItems, error) {
	carts, err := s.doc.Read(ctx)
	if err != nil {
		return nil, err
	}
	items := carts[userID].Clone()
	if items == nil {
		items = types.CartLineItems{}
	}
	return items, nil
}

func (s *FileStore) Update(ctx context.Context, userID string, fn MutateFunc) error {
	return s.doc.Update(ctx, func(carts *cartDocument) error {
		if *carts == nil {
			*carts = cartDocument{}
		}
		current, exists := (*carts)[userID]
		next, err := fn(current.Clone(), exists)
		if err != nil {
			return err
		}
		if next == nil {
			next = types.CartLineItems{}
		}
		(*carts)[userID] = next
		return nil
	})
}

func (s *FileStore) Clear(ctx context.Context, userID string) error {
	return s.doc.Update(ctx, func(carts *cartDocument) error {
		if *carts == nil {
			*carts = cartDocument{}
		}
		(*carts)[userID] = types.CartLineItems{}
		return nil
	})
}
