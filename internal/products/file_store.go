package products

import (
	"context"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/filestore"
)

// FileStore reads the catalog from a JSON array document.
type FileStore struct {
	doc *filestore.Document[[]Product]
}

func NewFileStore(path string) *FileStore {
	return &FileStore{doc: filestore.New(path, func() []Product { return []Product{} })}
}

// All returns every catalog entry in file order.
func (s *FileStore) All(ctx context.Context) ([]Product, error) {
	items, err := s.doc.Read(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "Failed to read products")
	}
	return items, nil
}
