package products

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

const catalogJSON = `[
  {"id": "p1", "name": "Ceramic Mug", "description": "Holds coffee", "price": 10.00, "image": "mug.png", "category": "kitchen"},
  {"id": "p2", "name": "Desk Lamp", "description": "Warm LED light", "price": 24.5, "image": "lamp.png", "category": "office"},
  {"id": "p3", "name": "Tea Kettle", "description": "Whistles when the COFFEE water boils", "price": 31, "image": "kettle.png", "category": "kitchen"}
]`

func newCatalogService(t *testing.T) Service {
	t.Helper()
	path := filepath.Join(t.TempDir(), "products.json")
	require.NoError(t, os.WriteFile(path, []byte(catalogJSON), 0o644))
	svc, err := NewService(ServiceParams{Store: NewFileStore(path)})
	require.NoError(t, err)
	return svc
}

func ids(items []Product) []string {
	out := make([]string, 0, len(items))
	for _, p := range items {
		out = append(out, p.ID)
	}
	return out
}

func TestListFilters(t *testing.T) {
	svc := newCatalogService(t)
	ctx := context.Background()

	all, err := svc.List(ctx, Filters{})
	require.NoError(t, err)
	assert.Equal(t, []string{"p1", "p2", "p3"}, ids(all))

	got, err := svc.List(ctx, Filters{Search: "coffee"})
	require.NoError(t, err)
	assert.Equal(t, []string{"p1", "p3"}, ids(got), "search should match description case-insensitively")

	got, err = svc.List(ctx, Filters{Search: "LAMP"})
	require.NoError(t, err)
	assert.Equal(t, []string{"p2"}, ids(got))

	got, err = svc.List(ctx, Filters{Search: "coffee", Category: "kitchen"})
	require.NoError(t, err)
	assert.Equal(t, []string{"p1", "p3"}, ids(got))

	got, err = svc.List(ctx, Filters{Category: "Kitchen"})
	require.NoError(t, err)
	assert.Empty(t, got, "category match is exact")
}

func TestGet(t *testing.T) {
	svc := newCatalogService(t)

	p, err := svc.Get(context.Background(), "p2")
	require.NoError(t, err)
	assert.Equal(t, "Desk Lamp", p.Name)
	assert.True(t, p.Price.Equal(decimal.RequireFromString("24.50")))

	snap := p.Snapshot()
	assert.Equal(t, p.ID, snap.ID)
	assert.True(t, snap.Price.Equal(p.Price))

	_, err = svc.Get(context.Background(), "missing")
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
}

func TestMissingCatalogIsEmpty(t *testing.T) {
	svc, err := NewService(ServiceParams{Store: NewFileStore(filepath.Join(t.TempDir(), "none.json"))})
	require.NoError(t, err)

	got, err := svc.List(context.Background(), Filters{})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCorruptCatalogIsStorageError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "products.json")
	require.NoError(t, os.WriteFile(path, []byte("[{"), 0o644))
	svc, err := NewService(ServiceParams{Store: NewFileStore(path)})
	require.NoError(t, err)

	_, err = svc.List(context.Background(), Filters{})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeStorage))
}
