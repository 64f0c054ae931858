package taxengine

// ComputeTax applies the bracket table for the input's jurisdiction and filing
// status to its taxable income. Unknown pairs are taxed with the table's default
// brackets and flagged with FallbackUsed.
//
// ComputeTax performs no validation and no rounding: negative deductions raise
// taxable income, and negative gross income yields meaningless output. Use
// ParseInput to build a TaxInput from user-entered values.
func ComputeTax(input TaxInput, table *BracketTable) TaxResult {
	brackets, key, fallback := table.selectBrackets(input.Jurisdiction, input.FilingStatus)

	taxable := input.GrossIncome - input.Deductions
	if taxable < 0 {
		taxable = 0
	}

	result := TaxResult{
		GrossIncome:   input.GrossIncome,
		TaxableIncome: taxable,
		Breakdown:     []BreakdownEntry{},
		Jurisdiction:  key.jurisdiction,
		FilingStatus:  key.status,
		FallbackUsed:  fallback,
		TaxYear:       table.year,
	}

	for _, bracket := range brackets {
		if taxable <= bracket.Min {
			break
		}

		amount := taxable - bracket.Min
		if bracket.Max != nil {
			if width := *bracket.Max - bracket.Min; width < amount {
				amount = width
			}
		}

		tax := amount * bracket.Rate
		result.TotalTax += tax
		result.MarginalRate = bracket.Rate

		if tax > 0 {
			result.Breakdown = append(result.Breakdown, BreakdownEntry{
				Min:    bracket.Min,
				Max:    cloneBound(bracket.Max),
				Rate:   bracket.Rate,
				Amount: tax,
			})
		}
	}

	result.NetIncome = input.GrossIncome - result.TotalTax
	if input.GrossIncome > 0 {
		result.EffectiveRate = result.TotalTax / input.GrossIncome
	}
	return result
}

func cloneBound(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
