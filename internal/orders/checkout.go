package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/abhay-jindal/shopkart/internal/razorpay"

	"github.com/shopspring/decimal"
)

// Store is the unit-of-work boundary the orchestrator stages records through.
// CreateOrder must persist all four record types atomically.
type Store interface {
	CreateOrder(ctx context.Context, order Order, items []OrderItem, payment Payment, shipment Shipment) (Order, error)
}

// PaymentGateway is the external payment provider as seen by checkout.
type PaymentGateway interface {
	FetchPayment(ctx context.Context, paymentID string) (razorpay.PaymentFacts, error)
	VerifySignature(paymentOrderID, paymentID, signature string) error
}

// CheckoutRequest is the boundary input for one checkout attempt.
type CheckoutRequest struct {
	AddressID      int64
	PaymentOrderID string
	PaymentID      string
	Signature      string
	Lines          []OrderLine
}

// CheckoutResult is the persisted order plus the gateway's payment
// description, which is shaped into the response but never stored on the
// order itself.
type CheckoutResult struct {
	Order              Order
	PaymentDescription string
}

// Orchestrator turns cart lines plus a payment reference into a durable
// order, order items, payment and shipment, reconciling payment state with
// the gateway. Dependencies are injected; there are no package singletons.
type Orchestrator struct {
	store   Store
	gateway PaymentGateway
	now     func() time.Time
}

func NewOrchestrator(store Store, gateway PaymentGateway) (*Orchestrator, error) {
	if store == nil || gateway == nil {
		return nil, fmt.Errorf("store and gateway must be non-nil")
	}
	return &Orchestrator{store: store, gateway: gateway, now: time.Now}, nil
}

// Checkout runs one checkout attempt end to end:
//
//	validate lines -> compute total -> verify signature -> fetch gateway
//	facts -> derive payment status -> assign shipment -> persist everything
//	in one transaction.
//
// Any failure leaves no partial record set behind; the caller must assume no
// order was placed.
func (o *Orchestrator) Checkout(ctx context.Context, userID int64, req CheckoutRequest) (CheckoutResult, error) {
	for _, line := range req.Lines {
		if line.VariantID <= 0 {
			return CheckoutResult{}, ErrInvalidOrderLines
		}
	}

	total, err := ComputeTotal(req.Lines)
	if err != nil {
		return CheckoutResult{}, err
	}

	// Gateway facts are only trusted once the signature handed to the
	// client at payment time checks out.
	if err := o.gateway.VerifySignature(req.PaymentOrderID, req.PaymentID, req.Signature); err != nil {
		return CheckoutResult{}, err
	}

	facts, err := o.gateway.FetchPayment(ctx, req.PaymentID)
	if err != nil {
		return CheckoutResult{}, err
	}

	paymentStatus := PaymentStatusFailed
	if facts.Status == razorpay.PaymentStatusCaptured {
		paymentStatus = PaymentStatusPaid
	}

	now := o.now().UTC()
	order := Order{
		UserID:            userID,
		ShippingAddressID: req.AddressID,
		TotalAmount:       total,
		OrderStatus:       OrderStatusPending,
		PaymentStatus:     paymentStatus,
		CreatedAt:         now,
	}

	items := make([]OrderItem, 0, len(req.Lines))
	for _, line := range req.Lines {
		items = append(items, OrderItem{
			VariantID: line.VariantID,
			Quantity:  line.Quantity,
			UnitPrice: line.Price,
		})
	}

	payment := Payment{
		TransactionID: facts.ID,
		Status:        facts.Status,
		Amount:        decimal.New(facts.Amount, -2), // gateway reports paise
		PaymentMethod: facts.Method,
		Description:   facts.Description,
		Currency:      facts.Currency,
		PaidAt:        now,
	}

	// A shipment is assigned regardless of the payment outcome; orders with
	// failed payments keep their shipment row until fulfillment cancels them.
	plan := AssignShipment(now)
	shipment := Shipment{
		CourierName:      plan.CourierName,
		TrackingNumber:   plan.TrackingNumber,
		ShippedAt:        plan.ShippedAt,
		DeliveryEstimate: plan.DeliveryEstimate,
		Status:           plan.Status,
	}

	created, err := o.store.CreateOrder(ctx, order, items, payment, shipment)
	if err != nil {
		return CheckoutResult{}, err
	}

	return CheckoutResult{Order: created, PaymentDescription: facts.Description}, nil
}
