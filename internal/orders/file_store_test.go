package orders

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

func TestFileStoreWritesOrderJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orders.json")
	store := NewFileStore(path)
	ctx := context.Background()

	order := Order{
		ID:                "o1",
		UserID:            "u1",
		Items:             nil,
		Total:             decimal.RequireFromString("25.5"),
		ShippingAddress:   "1 Main St",
		Phone:             "555",
		ReceiverName:      "Ann",
		Email:             "a@x.io",
		Status:            enums.OrderStatusPending,
		Date:              fixedNow,
		TrackingNumber:    "TRK1",
		EstimatedDelivery: fixedNow,
	}
	require.NoError(t, store.Append(ctx, order))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	body := string(raw)
	assert.Contains(t, body, `"total": 25.5`)
	assert.Contains(t, body, `"userId": "u1"`)
	assert.Contains(t, body, `"trackingNumber": "TRK1"`)
	assert.NotContains(t, body, "paymentMethod", "empty payment method is omitted")
}

func TestFileStoreUpdateErrorKeepsOrder(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "orders.json"))
	ctx := context.Background()
	require.NoError(t, store.Append(ctx, Order{ID: "o1", Status: enums.OrderStatusPending}))

	boom := errors.New("boom")
	_, err := store.Update(ctx, "o1", func(o *Order) error {
		o.Status = enums.OrderStatusCancelled
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := store.Get(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusPending, got.Status)

	_, err = store.Update(ctx, "o2", func(*Order) error { return nil })
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
}

func TestFileStoreListPreservesInsertionOrder(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "orders.json"))
	ctx := context.Background()
	for _, id := range []string{"b", "a", "c"} {
		require.NoError(t, store.Append(ctx, Order{ID: id, UserID: "u1"}))
	}
	require.NoError(t, store.Append(ctx, Order{ID: "z", UserID: "u2"}))

	got, err := store.ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "b", got[0].ID)
	assert.Equal(t, "a", got[1].ID)
	assert.Equal(t, "c", got[2].ID)
}

func TestFileStoreCorruptFileFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orders.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"not":"an array"}`), 0o644))
	store := NewFileStore(path)

	_, err := store.ListByUser(context.Background(), "u1")
	require.Error(t, err)
}
