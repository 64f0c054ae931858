package loans

import (
	"fmt"

	"github.com/iwvelando/calcsuite/pkg/mathutil"
)

// CarLoanInput is a car purchase financed with a fixed-rate loan.
type CarLoanInput struct {
	Price              float64 `json:"price" validate:"gt=0"`
	DownPayment        float64 `json:"downPayment" validate:"gte=0"`
	DownPaymentPercent float64 `json:"downPaymentPercent" validate:"gte=0,lte=100"`
	UsePercentage      bool    `json:"usePercentage"`
	InterestRate       float64 `json:"interestRate" validate:"gte=0"`
	TermYears          float64 `json:"termYears" validate:"gt=0"`
}

// CarLoanResult is rounded to cents.
type CarLoanResult struct {
	MonthlyPayment float64 `json:"monthlyPayment"`
	TotalAmount    float64 `json:"totalAmount"`
	TotalInterest  float64 `json:"totalInterest"`
	LoanAmount     float64 `json:"loanAmount"`
	DownPayment    float64 `json:"downPayment"`
	Price          float64 `json:"price"`
	TermMonths     int     `json:"termMonths"`
}

// CarLoan computes the monthly payment and totals of a car loan.
func CarLoan(in CarLoanInput) (CarLoanResult, error) {
	down := resolveDownPayment(in.Price, in.DownPayment, in.DownPaymentPercent, in.UsePercentage)
	loan := Loan{
		Name:         "car loan",
		Principal:    in.Price,
		DownPayment:  down,
		InterestRate: in.InterestRate,
		TermMonths:   TermMonths(in.TermYears),
	}
	if err := loan.Validate(); err != nil {
		return CarLoanResult{}, fmt.Errorf("car loan: %w", err)
	}

	amount := in.Price - down
	monthly := CalculateMonthlyPayment(loan.Principal, loan.DownPayment, loan.InterestRate, loan.TermMonths)
	total := monthly * float64(loan.TermMonths)

	return CarLoanResult{
		MonthlyPayment: mathutil.Round(monthly),
		TotalAmount:    mathutil.Round(total),
		TotalInterest:  mathutil.Round(total - amount),
		LoanAmount:     amount,
		DownPayment:    down,
		Price:          in.Price,
		TermMonths:     loan.TermMonths,
	}, nil
}
