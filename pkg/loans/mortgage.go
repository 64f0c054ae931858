package loans

import (
	"fmt"
	"strings"

	"github.com/iwvelando/calcsuite/pkg/constants"
	"github.com/iwvelando/calcsuite/pkg/mathutil"
)

// LoanType selects rate adjustments and mortgage insurance rules.
type LoanType string

// Supported mortgage loan types.
const (
	Conventional LoanType = "conventional"
	FHA          LoanType = "fha"
	VA           LoanType = "va"
)

const (
	// fhaRateAdjustment and vaRateAdjustment are monthly rate offsets.
	fhaRateAdjustment = 0.0025
	vaRateAdjustment  = -0.00125

	// fhaAnnualMIP is the FHA mortgage insurance premium, charged regardless
	// of down payment.
	fhaAnnualMIP = 0.0085

	pmiDownPaymentThreshold = 20.0
	pmiRemovalLTV           = 0.78
	affordabilityRatio      = 0.28
	recommendedPriceFactor  = 0.85
)

// ParseLoanType normalizes a loan type name. Blank means conventional.
func ParseLoanType(s string) (LoanType, error) {
	switch t := LoanType(strings.ToLower(strings.TrimSpace(s))); t {
	case "":
		return Conventional, nil
	case Conventional, FHA, VA:
		return t, nil
	default:
		return "", fmt.Errorf("%w: unknown loan type %q", ErrInvalidLoan, s)
	}
}

// MortgageInput describes a home purchase. Property tax and insurance are
// annual amounts; HOA fees are monthly; rates are percentages.
type MortgageInput struct {
	HomePrice          float64  `json:"homePrice" validate:"gt=0"`
	DownPayment        float64  `json:"downPayment" validate:"gte=0"`
	DownPaymentPercent float64  `json:"downPaymentPercent" validate:"gte=0,lte=100"`
	UsePercentage      bool     `json:"usePercentage"`
	InterestRate       float64  `json:"interestRate" validate:"gte=0"`
	TermYears          float64  `json:"termYears" validate:"gt=0"`
	LoanType           LoanType `json:"loanType" validate:"omitempty,oneof=conventional fha va"`
	PropertyTax        float64  `json:"propertyTax" validate:"gte=0"`
	HomeInsurance      float64  `json:"homeInsurance" validate:"gte=0"`
	PMIRate            float64  `json:"pmiRate" validate:"gte=0"`
	HOAFees            float64  `json:"hoaFees" validate:"gte=0"`
	ClosingCostPercent float64  `json:"closingCostPercent" validate:"gte=0"`
	MonthlyIncome      float64  `json:"monthlyIncome" validate:"gte=0"`
}

// PMIRemoval is the first month in which the balance falls to 78% of the
// home price.
type PMIRemoval struct {
	Month   int     `json:"month"`
	Balance float64 `json:"balance"`
}

// MortgageResult is rounded to cents. LoanToValue and DebtToIncome are
// percentages.
type MortgageResult struct {
	MonthlyPayment       float64     `json:"monthlyPayment"`
	PrincipalAndInterest float64     `json:"principalAndInterest"`
	MonthlyTaxes         float64     `json:"monthlyTaxes"`
	MonthlyInsurance     float64     `json:"monthlyInsurance"`
	MonthlyPMI           float64     `json:"monthlyPMI"`
	MonthlyHOA           float64     `json:"monthlyHOA"`
	TotalAmount          float64     `json:"totalAmount"`
	TotalInterest        float64     `json:"totalInterest"`
	LoanAmount           float64     `json:"loanAmount"`
	DownPayment          float64     `json:"downPayment"`
	ClosingCosts         float64     `json:"closingCosts"`
	TotalCashNeeded      float64     `json:"totalCashNeeded"`
	LoanToValue          float64     `json:"loanToValue"`
	DebtToIncome         float64     `json:"debtToIncome"`
	MaxAffordablePrice   float64     `json:"maxAffordablePrice"`
	RecommendedPrice     float64     `json:"recommendedPrice"`
	Affordable           bool        `json:"affordable"`
	PMIRemoval           *PMIRemoval `json:"pmiRemoval,omitempty"`
	TermMonths           int         `json:"termMonths"`
}

// Mortgage computes the full monthly housing cost and affordability figures.
func Mortgage(in MortgageInput) (MortgageResult, error) {
	loanType, err := ParseLoanType(string(in.LoanType))
	if err != nil {
		return MortgageResult{}, err
	}

	down := resolveDownPayment(in.HomePrice, in.DownPayment, in.DownPaymentPercent, in.UsePercentage)
	loan := Loan{
		Name:         "mortgage",
		Principal:    in.HomePrice,
		DownPayment:  down,
		InterestRate: in.InterestRate,
		TermMonths:   TermMonths(in.TermYears),
	}
	if err := loan.Validate(); err != nil {
		return MortgageResult{}, fmt.Errorf("mortgage: %w", err)
	}

	amount := in.HomePrice - down
	rate := adjustedMonthlyRate(mathutil.MonthlyRate(in.InterestRate), loanType)
	term := loan.TermMonths

	monthlyPI := paymentAtMonthlyRate(amount, rate, term)
	monthlyTaxes := in.PropertyTax / constants.MonthsPerYear
	monthlyInsurance := in.HomeInsurance / constants.MonthsPerYear

	downPercent := mathutil.CalculatePercentage(down, in.HomePrice)
	var monthlyPMI float64
	switch {
	case loanType == Conventional && downPercent < pmiDownPaymentThreshold:
		monthlyPMI = mathutil.ApplyPercentage(amount, in.PMIRate) / constants.MonthsPerYear
	case loanType == FHA:
		monthlyPMI = amount * fhaAnnualMIP / constants.MonthsPerYear
	}

	monthlyPayment := monthlyPI + monthlyTaxes + monthlyInsurance + monthlyPMI + in.HOAFees
	closingCosts := mathutil.ApplyPercentage(in.HomePrice, in.ClosingCostPercent)
	total := monthlyPI * float64(term)

	result := MortgageResult{
		MonthlyPayment:       mathutil.Round(monthlyPayment),
		PrincipalAndInterest: mathutil.Round(monthlyPI),
		MonthlyTaxes:         mathutil.Round(monthlyTaxes),
		MonthlyInsurance:     mathutil.Round(monthlyInsurance),
		MonthlyPMI:           mathutil.Round(monthlyPMI),
		MonthlyHOA:           mathutil.Round(in.HOAFees),
		TotalAmount:          mathutil.Round(total),
		TotalInterest:        mathutil.Round(total - amount),
		LoanAmount:           amount,
		DownPayment:          down,
		ClosingCosts:         mathutil.Round(closingCosts),
		TotalCashNeeded:      mathutil.Round(down + closingCosts),
		LoanToValue:          mathutil.Round(mathutil.CalculatePercentage(amount, in.HomePrice)),
		TermMonths:           term,
	}

	if in.MonthlyIncome > 0 {
		maxPayment := in.MonthlyIncome * affordabilityRatio
		maxPrice := (maxPayment-monthlyTaxes-monthlyInsurance-in.HOAFees)/annuityFactor(rate, term) + down
		result.DebtToIncome = mathutil.Round(mathutil.CalculatePercentage(monthlyPayment, in.MonthlyIncome))
		result.MaxAffordablePrice = mathutil.Round(maxPrice)
		result.RecommendedPrice = mathutil.Round(maxPrice * recommendedPriceFactor)
		result.Affordable = monthlyPayment <= maxPayment
	}

	if loanType == Conventional && monthlyPMI > 0 {
		result.PMIRemoval = pmiRemoval(amount, in.HomePrice, rate, monthlyPI, term)
	}
	return result, nil
}

func adjustedMonthlyRate(rate float64, loanType LoanType) float64 {
	switch loanType {
	case FHA:
		rate += fhaRateAdjustment
	case VA:
		rate += vaRateAdjustment
	}
	return mathutil.Max(rate, 0)
}

// pmiRemoval walks the schedule until the loan-to-value ratio reaches 78%.
// It returns nil when that does not happen within the term.
func pmiRemoval(balance, price, monthlyRate, monthlyPI float64, term int) *PMIRemoval {
	month := 0
	for balance/price > pmiRemovalLTV && month < term {
		month++
		balance -= monthlyPI - balance*monthlyRate
	}
	if month >= term {
		return nil
	}
	return &PMIRemoval{Month: month, Balance: mathutil.Round(balance)}
}
