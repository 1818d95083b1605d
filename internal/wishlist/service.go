package wishlist

import (
	"context"
	"errors"
	"fmt"
	"strings"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/filestore"
)

type document = map[string][]string

// FileStore keeps every wishlist in one JSON object keyed by user id.
type FileStore struct {
	doc *filestore.Document[document]
}

func NewFileStore(path string) *FileStore {
	return &FileStore{doc: filestore.New(path, func() document { return document{} })}
}

// Service exposes business rules for wishlist management.
type Service interface {
	List(ctx context.Context, userID string) ([]string, error)
	Add(ctx context.Context, userID, productID string) error
	Remove(ctx context.Context, userID, productID string) error
}

type service struct {
	store *FileStore
}

// NewService builds a wishlist service over the provided store.
func NewService(store *FileStore) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("wishlist store required")
	}
	return &service{store: store}, nil
}

// List returns product ids in the order they were added.
func (s *service) List(ctx context.Context, userID string) ([]string, error) {
	all, err := s.store.doc.Read(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "Failed to read wishlist")
	}
	ids := append([]string{}, all[userID]...)
	return ids, nil
}

// Add is a no-op when the product is already listed.
func (s *service) Add(ctx context.Context, userID, productID string) error {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "Product ID is required")
	}
	err := s.store.doc.Update(ctx, func(all *document) error {
		if *all == nil {
			*all = document{}
		}
		for _, id := range (*all)[userID] {
			if id == productID {
				return errUnchanged
			}
		}
		(*all)[userID] = append((*all)[userID], productID)
		return nil
	})
	if errors.Is(err, errUnchanged) {
		return nil
	}
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "Failed to save wishlist")
	}
	return nil
}

// Remove drops productID when present. Unknown users and products succeed.
func (s *service) Remove(ctx context.Context, userID, productID string) error {
	err := s.store.doc.Update(ctx, func(all *document) error {
		ids, ok := (*all)[userID]
		if !ok {
			return errUnchanged
		}
		kept := make([]string, 0, len(ids))
		for _, id := range ids {
			if id != productID {
				kept = append(kept, id)
			}
		}
		(*all)[userID] = kept
		return nil
	})
	if errors.Is(err, errUnchanged) {
		return nil
	}
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "Failed to save wishlist")
	}
	return nil
}

// errUnchanged aborts an update that would write identical content.
var errUnchanged = errors.New("wishlist unchanged")
