// Package taxengine computes progressive income tax from ordered bracket
// tables. The tables are reference data loaded once at startup; the
// calculation itself is a pure function over that data.
package taxengine

// TaxBracket is a half-open income range [Min, Max) taxed at Rate. A nil Max
// marks the top bracket ("and above"). Rate is a fraction, 0.10 for 10%.
type TaxBracket struct {
	Min  float64  `yaml:"min" json:"min"`
	Max  *float64 `yaml:"max" json:"max"`
	Rate float64  `yaml:"rate" json:"rate"`
}

// Unbounded reports whether the bracket has no upper limit.
func (b TaxBracket) Unbounded() bool {
	return b.Max == nil
}

// FilingStatus is one selectable filing status of a jurisdiction.
type FilingStatus struct {
	Value string `yaml:"value" json:"value"`
	Label string `yaml:"label" json:"label"`
}

// Jurisdiction describes a supported country and its presentation defaults.
type Jurisdiction struct {
	Code              string         `json:"code" yaml:"code"`
	Name              string         `json:"name" yaml:"name"`
	Currency          string         `json:"currency" yaml:"currency"`
	StandardDeduction float64        `json:"standardDeduction" yaml:"standardDeduction"`
	FilingStatuses    []FilingStatus `json:"filingStatuses" yaml:"filingStatuses"`
	// HasBrackets lists the filing statuses with a bracket table of their own;
	// every other status is resolved through the default table.
	HasBrackets []string `json:"hasBrackets" yaml:"hasBrackets"`
}

// DefaultFilingStatus returns the first listed filing status, which is the one
// preselected for the jurisdiction.
func (j Jurisdiction) DefaultFilingStatus() string {
	if len(j.FilingStatuses) == 0 {
		return ""
	}
	return j.FilingStatuses[0].Value
}

// HasFilingStatus reports whether status is one of the jurisdiction's filing
// statuses.
func (j Jurisdiction) HasFilingStatus(status string) bool {
	status = normalizeStatus(status)
	for _, fs := range j.FilingStatuses {
		if normalizeStatus(fs.Value) == status {
			return true
		}
	}
	return false
}

// TaxInput holds one calculation request.
type TaxInput struct {
	GrossIncome  float64 `json:"grossIncome"`
	Jurisdiction string  `json:"jurisdiction"`
	FilingStatus string  `json:"filingStatus"`
	Deductions   float64 `json:"deductions"`
}

// BreakdownEntry is the tax contributed by a single bracket.
type BreakdownEntry struct {
	Min    float64  `json:"min"`
	Max    *float64 `json:"max"`
	Rate   float64  `json:"rate"`
	Amount float64  `json:"amount"`
}

// TaxResult is the outcome of ComputeTax. Rates are fractions.
type TaxResult struct {
	GrossIncome   float64          `json:"grossIncome"`
	TaxableIncome float64          `json:"taxableIncome"`
	TotalTax      float64          `json:"totalTax"`
	NetIncome     float64          `json:"netIncome"`
	EffectiveRate float64          `json:"effectiveRate"`
	MarginalRate  float64          `json:"marginalRate"`
	Breakdown     []BreakdownEntry `json:"breakdown"`

	// Jurisdiction and FilingStatus identify the bracket table actually
	// applied, which differs from the request when FallbackUsed is set.
	Jurisdiction string `json:"jurisdiction"`
	FilingStatus string `json:"filingStatus"`
	FallbackUsed bool   `json:"fallbackUsed"`
	TaxYear      int    `json:"taxYear"`
}
