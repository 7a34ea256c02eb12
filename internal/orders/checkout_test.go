package orders

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/abhay-jindal/shopkart/internal/razorpay"

	"github.com/shopspring/decimal"
)

type fakeStore struct {
	calls       int
	err         error
	gotOrder    Order
	gotItems    []OrderItem
	gotPayment  Payment
	gotShipment Shipment
}

func (f *fakeStore) CreateOrder(ctx context.Context, order Order, items []OrderItem,
	payment Payment, shipment Shipment) (Order, error) {
	f.calls++
	f.gotOrder = order
	f.gotItems = items
	f.gotPayment = payment
	f.gotShipment = shipment
	if f.err != nil {
		return Order{}, f.err
	}
	order.ID = 42
	return order, nil
}

type fakeGateway struct {
	facts      razorpay.PaymentFacts
	fetchErr   error
	sigErr     error
	fetchCalls int
}

func (f *fakeGateway) FetchPayment(ctx context.Context, paymentID string) (razorpay.PaymentFacts, error) {
	f.fetchCalls++
	if f.fetchErr != nil {
		return razorpay.PaymentFacts{}, f.fetchErr
	}
	return f.facts, nil
}

func (f *fakeGateway) VerifySignature(paymentOrderID, paymentID, signature string) error {
	return f.sigErr
}

func validRequest() CheckoutRequest {
	return CheckoutRequest{
		AddressID:      3,
		PaymentOrderID: "order_abc",
		PaymentID:      "pay_abc",
		Signature:      "sig",
		Lines: []OrderLine{
			{VariantID: 11, Quantity: 2, Price: decimal.NewFromInt(500)},
			{VariantID: 12, Quantity: 1, Price: decimal.NewFromInt(300)},
		},
	}
}

func newTestOrchestrator(t *testing.T, store *fakeStore, gateway *fakeGateway) *Orchestrator {
	t.Helper()
	orch, err := NewOrchestrator(store, gateway)
	if err != nil {
		t.Fatalf("NewOrchestrator: %v", err)
	}
	orch.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	return orch
}

func TestCheckoutCapturedPayment(t *testing.T) {
	store := &fakeStore{}
	gateway := &fakeGateway{facts: razorpay.PaymentFacts{
		ID:          "pay_abc",
		Status:      "captured",
		Amount:      132000,
		Currency:    "INR",
		Method:      "upi",
		Description: "order payment",
	}}
	orch := newTestOrchestrator(t, store, gateway)

	result, err := orch.Checkout(context.Background(), 7, validRequest())
	if err != nil {
		t.Fatalf("Checkout returned error: %v", err)
	}

	if result.Order.ID != 42 {
		t.Errorf("order id = %d, want persisted id 42", result.Order.ID)
	}
	if result.Order.PaymentStatus != PaymentStatusPaid {
		t.Errorf("payment status = %q, want paid", result.Order.PaymentStatus)
	}
	if result.Order.OrderStatus != OrderStatusPending {
		t.Errorf("order status = %q, want pending", result.Order.OrderStatus)
	}
	if !result.Order.TotalAmount.Equal(decimal.NewFromInt(1320)) {
		t.Errorf("total = %s, want 1320", result.Order.TotalAmount)
	}
	if result.PaymentDescription != "order payment" {
		t.Errorf("description = %q", result.PaymentDescription)
	}

	// Payment amount converted from paise to rupees.
	if !store.gotPayment.Amount.Equal(decimal.NewFromInt(1320)) {
		t.Errorf("payment amount = %s, want 1320", store.gotPayment.Amount)
	}
	if store.gotPayment.TransactionID != "pay_abc" || store.gotPayment.Status != "captured" {
		t.Errorf("payment facts not carried over: %+v", store.gotPayment)
	}

	// Line items are price snapshots of the submitted lines.
	if len(store.gotItems) != 2 {
		t.Fatalf("staged %d items, want 2", len(store.gotItems))
	}
	if store.gotItems[0].VariantID != 11 || !store.gotItems[0].UnitPrice.Equal(decimal.NewFromInt(500)) {
		t.Errorf("first item snapshot wrong: %+v", store.gotItems[0])
	}

	if store.gotShipment.TrackingNumber == "" || store.gotShipment.CourierName == "" {
		t.Errorf("shipment not staged: %+v", store.gotShipment)
	}
}

func TestCheckoutUncapturedPaymentFails(t *testing.T) {
	for _, status := range []string{"created", "authorized", "failed", "refunded"} {
		store := &fakeStore{}
		gateway := &fakeGateway{facts: razorpay.PaymentFacts{ID: "pay_x", Status: status, Amount: 100, Currency: "INR"}}
		orch := newTestOrchestrator(t, store, gateway)

		result, err := orch.Checkout(context.Background(), 7, validRequest())
		if err != nil {
			t.Fatalf("Checkout(%s) returned error: %v", status, err)
		}
		if result.Order.PaymentStatus != PaymentStatusFailed {
			t.Errorf("status %q: payment status = %q, want failed", status, result.Order.PaymentStatus)
		}
		// A shipment is still assigned for failed payments.
		if store.gotShipment.TrackingNumber == "" {
			t.Errorf("status %q: no shipment staged", status)
		}
	}
}

func TestCheckoutValidationShortCircuits(t *testing.T) {
	tests := []struct {
		name  string
		lines []OrderLine
	}{
		{name: "empty lines", lines: nil},
		{name: "zero quantity", lines: []OrderLine{{VariantID: 1, Quantity: 0, Price: decimal.NewFromInt(10)}}},
		{name: "negative price", lines: []OrderLine{{VariantID: 1, Quantity: 1, Price: decimal.NewFromInt(-1)}}},
		{name: "missing variant", lines: []OrderLine{{VariantID: 0, Quantity: 1, Price: decimal.NewFromInt(10)}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStore{}
			gateway := &fakeGateway{}
			orch := newTestOrchestrator(t, store, gateway)

			req := validRequest()
			req.Lines = tt.lines
			_, err := orch.Checkout(context.Background(), 7, req)
			if !errors.Is(err, ErrInvalidOrderLines) {
				t.Errorf("error = %v, want ErrInvalidOrderLines", err)
			}
			if gateway.fetchCalls != 0 {
				t.Errorf("gateway was called %d times for invalid input", gateway.fetchCalls)
			}
			if store.calls != 0 {
				t.Errorf("store was called %d times for invalid input", store.calls)
			}
		})
	}
}

func TestCheckoutSignatureMismatch(t *testing.T) {
	store := &fakeStore{}
	gateway := &fakeGateway{sigErr: razorpay.ErrSignatureMismatch}
	orch := newTestOrchestrator(t, store, gateway)

	_, err := orch.Checkout(context.Background(), 7, validRequest())
	if !errors.Is(err, razorpay.ErrSignatureMismatch) {
		t.Fatalf("error = %v, want ErrSignatureMismatch", err)
	}
	if gateway.fetchCalls != 0 {
		t.Errorf("gateway facts fetched despite bad signature")
	}
	if store.calls != 0 {
		t.Errorf("store was called despite bad signature")
	}
}

func TestCheckoutGatewayErrorLeavesNoRecords(t *testing.T) {
	for _, gwErr := range []error{
		razorpay.ErrGatewayUnavailable,
		razorpay.ErrPaymentNotFound,
		razorpay.ErrProtocol,
	} {
		store := &fakeStore{}
		gateway := &fakeGateway{fetchErr: gwErr}
		orch := newTestOrchestrator(t, store, gateway)

		_, err := orch.Checkout(context.Background(), 7, validRequest())
		if !errors.Is(err, gwErr) {
			t.Errorf("error = %v, want %v", err, gwErr)
		}
		if store.calls != 0 {
			t.Errorf("store was called after gateway error %v", gwErr)
		}
	}
}

func TestCheckoutStoreErrorPropagates(t *testing.T) {
	storeErr := errors.New("failed to commit withTx: connection lost")
	store := &fakeStore{err: storeErr}
	gateway := &fakeGateway{facts: razorpay.PaymentFacts{ID: "pay_x", Status: "captured", Amount: 100, Currency: "INR"}}
	orch := newTestOrchestrator(t, store, gateway)

	_, err := orch.Checkout(context.Background(), 7, validRequest())
	if !errors.Is(err, storeErr) {
		t.Fatalf("error = %v, want store error", err)
	}
}

func TestCheckoutConsumedPaymentReference(t *testing.T) {
	store := &fakeStore{err: ErrPaymentConsumed}
	gateway := &fakeGateway{facts: razorpay.PaymentFacts{ID: "pay_x", Status: "captured", Amount: 100, Currency: "INR"}}
	orch := newTestOrchestrator(t, store, gateway)

	_, err := orch.Checkout(context.Background(), 7, validRequest())
	if !errors.Is(err, ErrPaymentConsumed) {
		t.Fatalf("error = %v, want ErrPaymentConsumed", err)
	}
}
