package orders

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order statuses driven by downstream fulfillment.
const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
)

// Payment statuses derived from gateway facts at checkout time.
const (
	PaymentStatusPending = "pending"
	PaymentStatusPaid    = "paid"
	PaymentStatusFailed  = "failed"
)

// Order represents an order row in the database.
type Order struct {
	ID                int64           `json:"id"`                  // Auto-incrementing ID
	UserID            int64           `json:"user_id"`             // User placing the order
	ShippingAddressID int64           `json:"shipping_address_id"` // Address the order ships to
	TotalAmount       decimal.Decimal `json:"total_amount"`        // Server-computed cart total plus platform fee
	OrderStatus       string          `json:"order_status"`        // pending, processing, shipped, delivered or cancelled
	PaymentStatus     string          `json:"payment_status"`      // pending, paid or failed
	CreatedAt         time.Time       `json:"created_at"`          // When the order was created
}

// OrderItem is an immutable snapshot of one purchased line. UnitPrice is the
// price at purchase time and never follows later variant price changes.
type OrderItem struct {
	ID        int64           `json:"id"`
	OrderID   int64           `json:"order_id"`
	VariantID int64           `json:"variant_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// Payment records what the gateway reported for this order. Amount is in the
// major currency unit, converted from the gateway's minor unit at the boundary.
type Payment struct {
	ID            int64           `json:"id"`
	OrderID       int64           `json:"order_id"`
	TransactionID string          `json:"transaction_id"` // Gateway payment reference
	Status        string          `json:"status"`         // Gateway-reported status string
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"payment_method"`
	Description   string          `json:"description"`
	Currency      string          `json:"currency"`
	PaidAt        time.Time       `json:"paid_at"`
}

// Shipment carries the courier assignment for one order.
type Shipment struct {
	ID               int64     `json:"id"`
	OrderID          int64     `json:"order_id"`
	CourierName      string    `json:"courier_name"`
	TrackingNumber   string    `json:"tracking_number"`
	ShippedAt        time.Time `json:"shipped_at"`
	DeliveryEstimate time.Time `json:"delivery_estimate"`
	Status           string    `json:"status"`
}

// OrderLine is one cart line as submitted by the client. It only lives for
// the duration of a checkout request and is persisted as an OrderItem.
type OrderLine struct {
	VariantID int64           `json:"variant_id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"` // Unit price in major currency units
}
