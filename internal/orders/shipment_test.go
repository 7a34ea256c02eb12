package orders

import (
	"testing"
	"time"
)

func TestAssignShipment(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	couriers := map[string]bool{}
	for _, c := range CourierPartners {
		couriers[c] = true
	}

	for i := 0; i < 200; i++ {
		plan := AssignShipment(now)

		if !couriers[plan.CourierName] {
			t.Fatalf("unknown courier %q", plan.CourierName)
		}
		if len(plan.TrackingNumber) != 10 {
			t.Fatalf("tracking number %q is not 10 digits", plan.TrackingNumber)
		}
		for _, r := range plan.TrackingNumber {
			if r < '0' || r > '9' {
				t.Fatalf("tracking number %q contains non-digit", plan.TrackingNumber)
			}
		}
		if !plan.ShippedAt.Equal(now) {
			t.Fatalf("ShippedAt = %v, want %v", plan.ShippedAt, now)
		}
		min, max := now.AddDate(0, 0, 3), now.AddDate(0, 0, 7)
		if plan.DeliveryEstimate.Before(min) || plan.DeliveryEstimate.After(max) {
			t.Fatalf("delivery estimate %v outside [%v, %v]", plan.DeliveryEstimate, min, max)
		}
		if plan.Status != ShipmentStatusPending {
			t.Fatalf("status = %q, want %q", plan.Status, ShipmentStatusPending)
		}
	}
}
