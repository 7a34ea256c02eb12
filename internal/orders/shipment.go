package orders

import (
	"math/rand"
	"strconv"
	"time"
)

// Courier partners a shipment may be assigned to.
var CourierPartners = []string{"DTDC", "BlueDart", "DHL", "FedEx", "IndiaPost"}

const ShipmentStatusPending = "pending"

// ShipmentPlan is the courier assignment generated for a new order before it
// is persisted as a Shipment row.
type ShipmentPlan struct {
	CourierName      string
	TrackingNumber   string
	ShippedAt        time.Time
	DeliveryEstimate time.Time
	Status           string
}

// AssignShipment picks a courier at random and generates a 10-digit tracking
// number and a delivery estimate of 3 to 7 days from now. Tracking numbers
// are not guaranteed unique here; the shipments table enforces uniqueness.
func AssignShipment(now time.Time) ShipmentPlan {
	return ShipmentPlan{
		CourierName:      CourierPartners[rand.Intn(len(CourierPartners))],
		TrackingNumber:   strconv.FormatInt(1000000000+rand.Int63n(9000000000), 10),
		ShippedAt:        now,
		DeliveryEstimate: now.AddDate(0, 0, 3+rand.Intn(5)),
		Status:           ShipmentStatusPending,
	}
}
