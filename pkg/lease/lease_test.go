package lease

import (
	"errors"
	"math"
	"testing"
)

func TestCalculate(t *testing.T) {
	tests := []struct {
		name     string
		input    Input
		expected Result
	}{
		{
			name: "Typical 36 month lease",
			input: Input{
				VehiclePrice:    30000,
				DownPayment:     3000,
				TermMonths:      36,
				InterestRate:    4.5,
				ResidualPercent: 60,
				AcquisitionFee:  595,
				DispositionFee:  395,
			},
			expected: Result{
				MonthlyPayment: 446.53,
				TotalAmount:    19470,
				TotalInterest:  6480,
				Depreciation:   12000,
				ResidualValue:  18000,
				AcquisitionFee: 595,
				DispositionFee: 395,
			},
		},
		{
			name:  "Zero interest",
			input: Input{VehiclePrice: 24000, TermMonths: 24, ResidualPercent: 50},
			expected: Result{
				MonthlyPayment: 500,
				TotalAmount:    12000,
				Depreciation:   12000,
				ResidualValue:  12000,
			},
		},
		{
			name:  "Large down payment floors the monthly payment",
			input: Input{VehiclePrice: 10000, DownPayment: 9000, TermMonths: 12, ResidualPercent: 50},
			expected: Result{
				MonthlyPayment: 0,
				TotalAmount:    5000,
				Depreciation:   5000,
				ResidualValue:  5000,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Calculate(tt.input)
			if err != nil {
				t.Fatalf("Calculate() error = %v", err)
			}
			checks := []struct {
				field    string
				got      float64
				expected float64
			}{
				{"MonthlyPayment", got.MonthlyPayment, tt.expected.MonthlyPayment},
				{"TotalAmount", got.TotalAmount, tt.expected.TotalAmount},
				{"TotalInterest", got.TotalInterest, tt.expected.TotalInterest},
				{"Depreciation", got.Depreciation, tt.expected.Depreciation},
				{"ResidualValue", got.ResidualValue, tt.expected.ResidualValue},
				{"AcquisitionFee", got.AcquisitionFee, tt.expected.AcquisitionFee},
				{"DispositionFee", got.DispositionFee, tt.expected.DispositionFee},
			}
			for _, c := range checks {
				if math.Abs(c.got-c.expected) > 0.005 {
					t.Errorf("%s = %v, expected %v", c.field, c.got, c.expected)
				}
			}
		})
	}
}

func TestCalculateRejectsInvalidInput(t *testing.T) {
	valid := Input{VehiclePrice: 30000, TermMonths: 36, InterestRate: 4.5, ResidualPercent: 60}

	tests := []struct {
		name   string
		mutate func(*Input)
	}{
		{"Zero price", func(in *Input) { in.VehiclePrice = 0 }},
		{"NaN price", func(in *Input) { in.VehiclePrice = math.NaN() }},
		{"Zero term", func(in *Input) { in.TermMonths = 0 }},
		{"Negative rate", func(in *Input) { in.InterestRate = -1 }},
		{"Residual above 100%", func(in *Input) { in.ResidualPercent = 120 }},
		{"Negative fee", func(in *Input) { in.DispositionFee = -10 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			tt.mutate(&in)
			if _, err := Calculate(in); !errors.Is(err, ErrInvalidLease) {
				t.Errorf("expected ErrInvalidLease, got %v", err)
			}
		})
	}
}
