package kafka

import "time"

const (
	TopicOrderPaid = `order-service.order-paid`
)

// OrderPaidEvent is emitted once per order line when the gateway confirms a
// payment, so inventory and notification services can react.
type OrderPaidEvent struct {
	OrderID   int64     `json:"order_id"`
	VariantID int64     `json:"variant_id"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
}
