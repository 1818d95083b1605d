package orders

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

// Order is a placed order. Items and Total are frozen at placement.
type Order struct {
	ID                string              `json:"id" gorm:"column:id;primaryKey"`
	UserID            string              `json:"userId" gorm:"column:user_id"`
	Items             types.CartLineItems `json:"items" gorm:"column:items;type:text"`
	Total             decimal.Decimal     `json:"total" gorm:"column:total;type:numeric"`
	ShippingAddress   string              `json:"shippingAddress" gorm:"column:shipping_address"`
	Phone             string              `json:"phone" gorm:"column:phone"`
	ReceiverName      string              `json:"receiverName" gorm:"column:receiver_name"`
	Email             string              `json:"email" gorm:"column:email"`
	PaymentMethod     string              `json:"paymentMethod,omitempty" gorm:"column:payment_method"`
	Status            enums.OrderStatus   `json:"status" gorm:"column:status"`
	Date              time.Time           `json:"date" gorm:"column:placed_at"`
	TrackingNumber    string              `json:"trackingNumber" gorm:"column:tracking_number"`
	EstimatedDelivery time.Time           `json:"estimatedDelivery" gorm:"column:estimated_delivery"`
}

func (Order) TableName() string { return "orders" }

func (o Order) clone() Order {
	o.Items = o.Items.Clone()
	return o
}

// PlaceOrderInput carries the shopper-supplied checkout fields.
type PlaceOrderInput struct {
	UserID          string
	ShippingAddress string
	Phone           string
	ReceiverName    string
	Email           string
	PaymentMethod   string
}
