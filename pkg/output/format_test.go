package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/iwvelando/calcsuite/internal/taxengine"
)

func sampleResult(t *testing.T) taxengine.TaxResult {
	t.Helper()
	return taxengine.ComputeTax(taxengine.TaxInput{
		GrossIncome:  50000,
		Jurisdiction: "US",
		FilingStatus: "single",
		Deductions:   12950,
	}, taxengine.MustDefaultTable())
}

func TestTaxPretty(t *testing.T) {
	var buf bytes.Buffer
	if err := TaxPretty(&buf, sampleResult(t), "USD"); err != nil {
		t.Fatalf("TaxPretty() error = %v", err)
	}
	output := buf.String()

	expected := []string{
		"--- Tax results for US (single), tax year 2023 ---",
		"$50,000",
		"$37,050",
		"$4,226",
		"$45,774",
		"8.45%",
		"12.00%",
		"$0 - $11,000",
		"$11,000 - $44,725",
		"$1,100",
		"$3,126",
	}
	for _, want := range expected {
		if !strings.Contains(output, want) {
			t.Errorf("TaxPretty output missing %q:\n%s", want, output)
		}
	}
	if strings.Contains(output, "default brackets applied") {
		t.Error("TaxPretty should not mention fallback for a known table")
	}
}

func TestTaxPrettyFallbackNote(t *testing.T) {
	result := taxengine.ComputeTax(taxengine.TaxInput{GrossIncome: 1000, Jurisdiction: "FR", FilingStatus: "single"}, taxengine.MustDefaultTable())

	var buf bytes.Buffer
	if err := TaxPretty(&buf, result, "EUR"); err != nil {
		t.Fatalf("TaxPretty() error = %v", err)
	}
	if !strings.Contains(buf.String(), "default brackets applied") {
		t.Errorf("expected fallback note, got:\n%s", buf.String())
	}
}

func TestTaxPrettyZeroIncomeHasNoBreakdown(t *testing.T) {
	result := taxengine.ComputeTax(taxengine.TaxInput{Jurisdiction: "US", FilingStatus: "single"}, taxengine.MustDefaultTable())

	var buf bytes.Buffer
	if err := TaxPretty(&buf, result, "USD"); err != nil {
		t.Fatalf("TaxPretty() error = %v", err)
	}
	if strings.Contains(buf.String(), "Bracket") {
		t.Errorf("expected no breakdown table, got:\n%s", buf.String())
	}
}

func TestTaxCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := TaxCSV(&buf, sampleResult(t)); err != nil {
		t.Fatalf("TaxCSV() error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header, 2 brackets and a total row, got %d lines:\n%s", len(lines), buf.String())
	}
	if lines[0] != "min,max,rate,amount" {
		t.Errorf("unexpected header %q", lines[0])
	}
	if lines[1] != "0,11000,0.1,1100" {
		t.Errorf("unexpected first row %q", lines[1])
	}
	if !strings.HasPrefix(lines[3], "total,,") || !strings.HasSuffix(lines[3], ",4226") {
		t.Errorf("unexpected total row %q", lines[3])
	}
}

func TestWriteTaxJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteTax(&buf, "json", sampleResult(t), "USD"); err != nil {
		t.Fatalf("WriteTax() error = %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if decoded["totalTax"] != 4226.0 {
		t.Errorf("totalTax = %v, expected 4226", decoded["totalTax"])
	}
	breakdown, ok := decoded["breakdown"].([]any)
	if !ok || len(breakdown) != 2 {
		t.Errorf("unexpected breakdown %v", decoded["breakdown"])
	}
}

func TestWriteRejectsUnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteTax(&buf, "xml", sampleResult(t), "USD"); err == nil {
		t.Error("expected error for unknown output format")
	}
	if err := WriteSummary(&buf, "yaml", Summary{}); err == nil {
		t.Error("expected error for unknown output format")
	}
	if buf.Len() != 0 {
		t.Errorf("nothing should be written on error, got %q", buf.String())
	}
}

func TestWriteSummary(t *testing.T) {
	summary := Summary{
		Title: "Car loan",
		Fields: []Field{
			{Key: "monthlyPayment", Label: "Monthly payment", Value: 483.32, Display: "$483.32"},
			{Key: "termMonths", Label: "Term (months)", Value: 60},
		},
	}

	tests := []struct {
		format   string
		expected []string
	}{
		{"pretty", []string{"--- Car loan ---", "Monthly payment", "$483.32", "Term (months)", "60"}},
		{"csv", []string{"key,value", "monthlyPayment,483.32", "termMonths,60"}},
		{"json", []string{`"title": "Car loan"`, `"key": "monthlyPayment"`, `"value": 483.32`}},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			var buf bytes.Buffer
			if err := WriteSummary(&buf, tt.format, summary); err != nil {
				t.Fatalf("WriteSummary() error = %v", err)
			}
			for _, want := range tt.expected {
				if !strings.Contains(buf.String(), want) {
					t.Errorf("output missing %q:\n%s", want, buf.String())
				}
			}
		})
	}
}

func TestWriteText(t *testing.T) {
	fields := []TextField{
		{Key: "snake", Label: "snake_case", Value: "hello_world"},
		{Key: "kebab", Label: "kebab-case", Value: "hello-world"},
	}

	tests := []struct {
		format   string
		expected []string
	}{
		{"pretty", []string{"--- Case conversions ---", "snake_case", "hello_world", "hello-world"}},
		{"csv", []string{"key,value", "snake,hello_world", "kebab,hello-world"}},
		{"json", []string{`"title": "Case conversions"`, `"value": "hello_world"`}},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			var buf bytes.Buffer
			if err := WriteText(&buf, tt.format, "Case conversions", fields); err != nil {
				t.Fatalf("WriteText() error = %v", err)
			}
			for _, want := range tt.expected {
				if !strings.Contains(buf.String(), want) {
					t.Errorf("output missing %q:\n%s", want, buf.String())
				}
			}
		})
	}
}

func TestWriteJurisdictions(t *testing.T) {
	table := taxengine.MustDefaultTable()

	tests := []struct {
		format   string
		expected []string
	}{
		{"pretty", []string{"tax year 2023", "United Kingdom", "£12,570", "married_separately*", "* taxed with the default brackets"}},
		{"csv", []string{"code,name,currency", "UK,United Kingdom,GBP,12570,individual,individual"}},
		{"json", []string{`"taxYear": 2023`, `"code": "DE"`}},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			var buf bytes.Buffer
			if err := WriteJurisdictions(&buf, tt.format, table.Year(), table.Jurisdictions()); err != nil {
				t.Fatalf("WriteJurisdictions() error = %v", err)
			}
			for _, want := range tt.expected {
				if !strings.Contains(buf.String(), want) {
					t.Errorf("output missing %q:\n%s", want, buf.String())
				}
			}
		})
	}
}
