package taxengine

import (
	"errors"
	"testing"

	"github.com/iwvelando/calcsuite/pkg/validation"
)

func TestParseInput(t *testing.T) {
	table := MustDefaultTable()

	tests := []struct {
		name     string
		raw      RawInput
		expected TaxInput
	}{
		{
			name:     "All fields provided",
			raw:      RawInput{Income: "50000", Deductions: "12950", Jurisdiction: "US", FilingStatus: "single"},
			expected: TaxInput{GrossIncome: 50000, Deductions: 12950, Jurisdiction: "US", FilingStatus: "single"},
		},
		{
			name:     "Blank jurisdiction uses default",
			raw:      RawInput{Income: "50000", Deductions: "0"},
			expected: TaxInput{GrossIncome: 50000, Deductions: 0, Jurisdiction: "US", FilingStatus: "single"},
		},
		{
			name:     "Blank deductions use standard deduction",
			raw:      RawInput{Income: "60,000", Jurisdiction: "uk"},
			expected: TaxInput{GrossIncome: 60000, Deductions: 12570, Jurisdiction: "UK", FilingStatus: "individual"},
		},
		{
			name:     "Blank status takes jurisdiction default",
			raw:      RawInput{Income: "1000000", Jurisdiction: "IN"},
			expected: TaxInput{GrossIncome: 1000000, Deductions: 50000, Jurisdiction: "IN", FilingStatus: "individual"},
		},
		{
			name:     "Unknown jurisdiction passes through",
			raw:      RawInput{Income: "1000", Jurisdiction: "xx", FilingStatus: "Single"},
			expected: TaxInput{GrossIncome: 1000, Deductions: 0, Jurisdiction: "XX", FilingStatus: "single"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseInput(tt.raw, table)
			if err != nil {
				t.Fatalf("ParseInput() error = %v", err)
			}
			if got != tt.expected {
				t.Errorf("ParseInput() = %+v, expected %+v", got, tt.expected)
			}
		})
	}
}

func TestParseInputRejects(t *testing.T) {
	table := MustDefaultTable()

	tests := []struct {
		name  string
		raw   RawInput
		field string
		cause error
	}{
		{"Empty income", RawInput{Income: ""}, "income", validation.ErrEmpty},
		{"Non-numeric income", RawInput{Income: "fifty"}, "income", validation.ErrNotNumeric},
		{"Negative income", RawInput{Income: "-1"}, "income", validation.ErrNegative},
		{"Zero income", RawInput{Income: "0", Deductions: "100", Jurisdiction: "US"}, "income", validation.ErrNotPositive},
		{"Misgrouped income", RawInput{Income: "1,2,3"}, "income", validation.ErrNotNumeric},
		{"NaN income", RawInput{Income: "NaN"}, "income", validation.ErrNotFinite},
		{"Infinite income", RawInput{Income: "+Inf"}, "income", validation.ErrNotFinite},
		{"Negative deductions", RawInput{Income: "100", Deductions: "-50"}, "deductions", validation.ErrNegative},
		{"Non-numeric deductions", RawInput{Income: "100", Deductions: "lots"}, "deductions", validation.ErrNotNumeric},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseInput(tt.raw, table)
			if !errors.Is(err, ErrNoResult) {
				t.Fatalf("expected ErrNoResult, got %v", err)
			}
			if !errors.Is(err, tt.cause) {
				t.Errorf("expected cause %v, got %v", tt.cause, err)
			}
			var inputErr *InputError
			if !errors.As(err, &inputErr) || inputErr.Field != tt.field {
				t.Errorf("expected InputError on field %s, got %v", tt.field, err)
			}
		})
	}
}

func TestCalculate(t *testing.T) {
	table := MustDefaultTable()

	result, err := Calculate(RawInput{Income: "50000", Jurisdiction: "US", FilingStatus: "single"}, table)
	if err != nil {
		t.Fatalf("Calculate() error = %v", err)
	}
	if !approxEqual(result.TotalTax, 4226) {
		t.Errorf("TotalTax = %v, expected 4226", result.TotalTax)
	}

	if _, err := Calculate(RawInput{Income: "oops"}, table); !errors.Is(err, ErrNoResult) {
		t.Errorf("expected ErrNoResult, got %v", err)
	}
}
