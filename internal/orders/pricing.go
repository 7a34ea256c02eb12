package orders

import (
	"errors"

	"github.com/shopspring/decimal"
)

// PlatformFee is the flat fee added to every order total, in major currency units.
var PlatformFee = decimal.NewFromInt(20)

// ErrInvalidOrderLines rejects an empty cart or a line with a non-positive
// quantity or negative price before any gateway call is made.
var ErrInvalidOrderLines = errors.New("order lines must be non-empty with quantity >= 1 and price >= 0")

// ComputeTotal returns sum(quantity * unit price) over all lines plus the
// platform fee. The total is always computed server side; client-asserted
// totals are never trusted.
func ComputeTotal(lines []OrderLine) (decimal.Decimal, error) {
	if len(lines) == 0 {
		return decimal.Zero, ErrInvalidOrderLines
	}

	total := decimal.Zero
	for _, line := range lines {
		if line.Quantity < 1 || line.Price.IsNegative() {
			return decimal.Zero, ErrInvalidOrderLines
		}
		total = total.Add(line.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	return total.Add(PlatformFee), nil
}
