package orders

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestComputeTotal(t *testing.T) {
	tests := []struct {
		name  string
		lines []OrderLine
		want  string
	}{
		{
			name: "two lines plus platform fee",
			lines: []OrderLine{
				{VariantID: 1, Quantity: 2, Price: decimal.NewFromInt(500)},
				{VariantID: 2, Quantity: 1, Price: decimal.NewFromInt(300)},
			},
			want: "1320",
		},
		{
			name: "single free line still pays the fee",
			lines: []OrderLine{
				{VariantID: 1, Quantity: 3, Price: decimal.Zero},
			},
			want: "20",
		},
		{
			name: "fractional prices",
			lines: []OrderLine{
				{VariantID: 1, Quantity: 3, Price: decimal.RequireFromString("99.99")},
			},
			want: "319.97",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ComputeTotal(tt.lines)
			if err != nil {
				t.Fatalf("ComputeTotal returned error: %v", err)
			}
			if !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("ComputeTotal = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestComputeTotalRejectsBadInput(t *testing.T) {
	tests := []struct {
		name  string
		lines []OrderLine
	}{
		{name: "empty lines", lines: nil},
		{name: "zero quantity", lines: []OrderLine{{VariantID: 1, Quantity: 0, Price: decimal.NewFromInt(10)}}},
		{name: "negative quantity", lines: []OrderLine{{VariantID: 1, Quantity: -2, Price: decimal.NewFromInt(10)}}},
		{name: "negative price", lines: []OrderLine{{VariantID: 1, Quantity: 1, Price: decimal.NewFromInt(-5)}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ComputeTotal(tt.lines)
			if !errors.Is(err, ErrInvalidOrderLines) {
				t.Errorf("ComputeTotal error = %v, want ErrInvalidOrderLines", err)
			}
		})
	}
}

func TestComputeTotalIsPure(t *testing.T) {
	lines := []OrderLine{
		{VariantID: 1, Quantity: 2, Price: decimal.NewFromInt(500)},
	}
	first, err := ComputeTotal(lines)
	if err != nil {
		t.Fatalf("ComputeTotal returned error: %v", err)
	}
	second, err := ComputeTotal(lines)
	if err != nil {
		t.Fatalf("ComputeTotal returned error: %v", err)
	}
	if !first.Equal(second) {
		t.Errorf("repeated calls differ: %s vs %s", first, second)
	}
	if !lines[0].Price.Equal(decimal.NewFromInt(500)) || lines[0].Quantity != 2 {
		t.Errorf("ComputeTotal mutated its input: %+v", lines[0])
	}
}
