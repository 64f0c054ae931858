package taxengine

import (
	"errors"

	"github.com/iwvelando/calcsuite/pkg/validation"
)

// ErrNoResult marks inputs that must not reach ComputeTax. Callers show no
// result for them rather than a degenerate one.
var ErrNoResult = errors.New("no tax result for input")

// InputError reports which form field was rejected.
type InputError struct {
	Field string
	Err   error
}

func (e *InputError) Error() string {
	return ErrNoResult.Error() + ": " + e.Err.Error()
}

// Unwrap exposes both ErrNoResult and the underlying validation error.
func (e *InputError) Unwrap() []error {
	return []error{ErrNoResult, e.Err}
}

// RawInput is a tax request as entered in a form: every field is text.
type RawInput struct {
	Income       string `json:"income"`
	Deductions   string `json:"deductions"`
	Jurisdiction string `json:"jurisdiction"`
	FilingStatus string `json:"filingStatus"`
}

// ParseInput validates form values and converts them to a TaxInput. Income
// must be a finite number above zero. Deductions default to the
// jurisdiction's standard deduction when blank and must otherwise be finite
// and non-negative. Blank jurisdiction and filing status take the table's
// defaults; unknown codes are passed through and resolved by ComputeTax.
func ParseInput(raw RawInput, table *BracketTable) (TaxInput, error) {
	income, err := validation.ParsePositiveAmount("income", raw.Income)
	if err != nil {
		return TaxInput{}, &InputError{Field: "income", Err: err}
	}

	defJurisdiction, defStatus := table.DefaultKey()

	jurisdiction := normalizeJurisdiction(raw.Jurisdiction)
	if jurisdiction == "" {
		jurisdiction = defJurisdiction
	}
	meta, known := table.Jurisdiction(jurisdiction)

	status := normalizeStatus(raw.FilingStatus)
	if status == "" {
		status = defStatus
		if known && meta.DefaultFilingStatus() != "" {
			status = meta.DefaultFilingStatus()
		}
	}

	var standard float64
	if known {
		standard = meta.StandardDeduction
	}
	deductions, err := validation.ParseOptionalAmount("deductions", raw.Deductions, standard)
	if err != nil {
		return TaxInput{}, &InputError{Field: "deductions", Err: err}
	}

	return TaxInput{
		GrossIncome:  income,
		Jurisdiction: jurisdiction,
		FilingStatus: status,
		Deductions:   deductions,
	}, nil
}

// Calculate parses raw form input and computes the tax in one step.
func Calculate(raw RawInput, table *BracketTable) (TaxResult, error) {
	input, err := ParseInput(raw, table)
	if err != nil {
		return TaxResult{}, err
	}
	return ComputeTax(input, table), nil
}
