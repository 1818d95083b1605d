package orders

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/keylock"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

const (
	defaultDeliveryWindow = 7 * 24 * time.Hour
	defaultTrackingPrefix = "TRK"
)

// Service is the order workflow: cart to order conversion plus status and lookups.
type Service interface {
	PlaceOrder(ctx context.Context, input PlaceOrderInput) (*Order, error)
	UpdateStatus(ctx context.Context, orderID, status string) (*Order, error)
	ListForUser(ctx context.Context, userID string) ([]Order, error)
	GetByID(ctx context.Context, orderID string) (*Order, error)
}

// ServiceParams wires the order service. Carts may be nil when Store also
// implements AtomicCheckout.
type ServiceParams struct {
	Store          Store
	Carts          cartStore
	Locks          *keylock.Set
	Logger         *logger.Logger
	Metrics        *metrics.OrderMetrics
	DeliveryWindow time.Duration
	TrackingPrefix string
	Clock          func() time.Time
	RandIntN       func(int) int
	NewID          func() string
}

type service struct {
	store          Store
	checkout       AtomicCheckout
	carts          cartStore
	locks          *keylock.Set
	logg           *logger.Logger
	metrics        *metrics.OrderMetrics
	deliveryWindow time.Duration
	trackingPrefix string
	clock          func() time.Time
	randIntN       func(int) int
	newID          func() string
}

// NewService builds the order workflow with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Store == nil {
		return nil, fmt.Errorf("order store required")
	}
	checkout, _ := params.Store.(AtomicCheckout)
	if checkout == nil && params.Carts == nil {
		return nil, fmt.Errorf("cart store required")
	}

	svc := &service{
		store:          params.Store,
		checkout:       checkout,
		carts:          params.Carts,
		locks:          params.Locks,
		logg:           params.Logger,
		metrics:        params.Metrics,
		deliveryWindow: params.DeliveryWindow,
		trackingPrefix: params.TrackingPrefix,
		clock:          params.Clock,
		randIntN:       params.RandIntN,
		newID:          params.NewID,
	}
	if svc.locks == nil {
		svc.locks = keylock.New()
	}
	if svc.logg == nil {
		svc.logg = logger.Nop()
	}
	if svc.deliveryWindow <= 0 {
		svc.deliveryWindow = defaultDeliveryWindow
	}
	if svc.trackingPrefix == "" {
		svc.trackingPrefix = defaultTrackingPrefix
	}
	if svc.clock == nil {
		svc.clock = time.Now
	}
	if svc.randIntN == nil {
		svc.randIntN = rand.IntN
	}
	if svc.newID == nil {
		svc.newID = uuid.NewString
	}
	return svc, nil
}

// PlaceOrder converts the user's cart into a Pending order. The order is
// durable before the cart is emptied.
func (s *service) PlaceOrder(ctx context.Context, input PlaceOrderInput) (*Order, error) {
	started := time.Now()
	order, err := s.placeOrder(ctx, input)
	code := ""
	if err != nil {
		code = string(pkgerrors.As(err).Code())
	}
	s.metrics.ObserveCheckout(code, time.Since(started))
	return order, err
}

func (s *service) placeOrder(ctx context.Context, input PlaceOrderInput) (*Order, error) {
	input = normalizeInput(input)
	if input.UserID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if missing := missingFields(input); len(missing) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "All fields are required: shippingAddress, phone, receiverName, email").
			WithDetails(map[string]any{"missing": missing})
	}

	ctx = s.logg.WithUserID(ctx, input.UserID)

	unlock := s.locks.Lock(input.UserID)
	defer unlock()

	build := func(items types.CartLineItems) (*Order, error) {
		return s.buildOrder(input, items)
	}

	var (
		order *Order
		err   error
	)
	if s.checkout != nil {
		order, err = s.checkout.CheckoutCart(ctx, input.UserID, build)
		if err != nil {
			return nil, storageError(err, "Failed to place order")
		}
	} else {
		order, err = s.placeFromCartStore(ctx, input.UserID, build)
		if err != nil {
			return nil, err
		}
	}

	ctx = s.logg.WithFields(ctx, map[string]any{
		"order_id":        order.ID,
		"tracking_number": order.TrackingNumber,
		"item_count":      len(order.Items),
		"total":           order.Total.StringFixed(2),
	})
	s.logg.Info(ctx, "order.placed")
	return order, nil
}

func (s *service) placeFromCartStore(ctx context.Context, userID string, build func(types.CartLineItems) (*Order, error)) (*Order, error) {
	items, err := s.carts.Get(ctx, userID)
	if err != nil {
		return nil, storageError(err, "Failed to read cart")
	}
	order, err := build(items)
	if err != nil {
		return nil, err
	}
	if err := s.store.Append(ctx, *order); err != nil {
		return nil, storageError(err, "Failed to save order")
	}

	// The order is already durable; a failed clear leaves the cart for the
	// shopper to empty and is surfaced through logs and metrics only.
	if err := s.carts.Clear(ctx, userID); err != nil {
		s.metrics.IncCartClearFailure()
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{"order_id": order.ID, "error": err.Error()}), "order.cart_clear_failed")
	}
	return order, nil
}

func (s *service) buildOrder(input PlaceOrderInput, items types.CartLineItems) (*Order, error) {
	if len(items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeEmptyCart, "Cart is empty")
	}
	now := s.clock().UTC()
	return &Order{
		ID:                s.newID(),
		UserID:            input.UserID,
		Items:             items.Clone(),
		Total:             items.Subtotal(),
		ShippingAddress:   input.ShippingAddress,
		Phone:             input.Phone,
		ReceiverName:      input.ReceiverName,
		Email:             input.Email,
		PaymentMethod:     input.PaymentMethod,
		Status:            enums.OrderStatusPending,
		Date:              now,
		TrackingNumber:    trackingNumber(s.trackingPrefix, now, s.randIntN),
		EstimatedDelivery: now.Add(s.deliveryWindow),
	}, nil
}

// UpdateStatus sets any non-empty status. Moving to Shipped assigns a tracking
// number only when the order has none.
func (s *service) UpdateStatus(ctx context.Context, orderID, status string) (*Order, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	next, err := enums.ParseOrderStatus(status)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Status is required")
	}

	order, err := s.store.Update(ctx, orderID, func(o *Order) error {
		o.Status = next
		if next == enums.OrderStatusShipped && o.TrackingNumber == "" {
			o.TrackingNumber = trackingNumber(s.trackingPrefix, s.clock().UTC(), s.randIntN)
		}
		return nil
	})
	if err != nil {
		return nil, storageError(err, "Failed to update order")
	}

	s.metrics.IncStatusUpdate(next.String())
	ctx = s.logg.WithOrderID(ctx, order.ID)
	s.logg.Info(s.logg.WithField(ctx, "status", next.String()), "order.status_updated")
	return order, nil
}

func (s *service) ListForUser(ctx context.Context, userID string) ([]Order, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	orders, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, storageError(err, "Failed to read orders")
	}
	return orders, nil
}

func (s *service) GetByID(ctx context.Context, orderID string) (*Order, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	order, err := s.store.Get(ctx, orderID)
	if err != nil {
		return nil, storageError(err, "Failed to read orders")
	}
	return order, nil
}

func normalizeInput(input PlaceOrderInput) PlaceOrderInput {
	input.UserID = strings.TrimSpace(input.UserID)
	input.ShippingAddress = strings.TrimSpace(input.ShippingAddress)
	input.Phone = strings.TrimSpace(input.Phone)
	input.ReceiverName = strings.TrimSpace(input.ReceiverName)
	input.Email = strings.TrimSpace(input.Email)
	input.PaymentMethod = strings.TrimSpace(input.PaymentMethod)
	return input
}

func missingFields(input PlaceOrderInput) []string {
	var missing []string
	if input.ShippingAddress == "" {
		missing = append(missing, "shippingAddress")
	}
	if input.Phone == "" {
		missing = append(missing, "phone")
	}
	if input.ReceiverName == "" {
		missing = append(missing, "receiverName")
	}
	if input.Email == "" {
		missing = append(missing, "email")
	}
	return missing
}

// storageError passes typed errors through and tags anything else as storage.
func storageError(err error, msg string) error {
	if typed := pkgerrors.As(err); typed != nil {
		return typed
	}
	return pkgerrors.Wrap(pkgerrors.CodeStorage, err, msg)
}
