// Package loans provides amortized loan calculations for car loans and
// mortgages.
package loans

import (
	"errors"
	"fmt"
	"math"

	"github.com/iwvelando/calcsuite/pkg/constants"
	"github.com/iwvelando/calcsuite/pkg/mathutil"
	"go.uber.org/zap"
)

// ErrInvalidLoan is wrapped by every loan input validation failure.
var ErrInvalidLoan = errors.New("invalid loan")

// Payment holds the values for a given payment.
type Payment struct {
	Month              int     `json:"month"`
	Payment            float64 `json:"payment"`
	Principal          float64 `json:"principal"`
	Interest           float64 `json:"interest"`
	RemainingPrincipal float64 `json:"remainingPrincipal"`
}

// CalculateMonthlyPayment calculates the monthly payment for a loan using the standard amortization formula.
func CalculateMonthlyPayment(principal, downPayment, annualInterestRate float64, termMonths int) float64 {
	return paymentAtMonthlyRate(principal-downPayment, mathutil.MonthlyRate(annualInterestRate), termMonths)
}

// CalculateInterestPayment calculates the interest portion of a payment.
func CalculateInterestPayment(remainingPrincipal, annualInterestRate float64) float64 {
	return remainingPrincipal * mathutil.MonthlyRate(annualInterestRate)
}

func paymentAtMonthlyRate(amount, monthlyRate float64, termMonths int) float64 {
	if termMonths <= 0 {
		return 0
	}
	if monthlyRate == 0 {
		// For zero interest, simply divide the principal by term
		return amount / float64(termMonths)
	}
	power := math.Pow(1.00+monthlyRate, float64(termMonths))
	return amount * monthlyRate * power / (power - 1.00)
}

// annuityFactor is the payment per unit of principal.
func annuityFactor(monthlyRate float64, termMonths int) float64 {
	return paymentAtMonthlyRate(1, monthlyRate, termMonths)
}

// TermMonths converts a term in years, possibly fractional, to whole months.
func TermMonths(years float64) int {
	return int(math.Round(years * constants.MonthsPerYear))
}

// Loan describes a fixed-rate amortized loan.
type Loan struct {
	Name         string
	Principal    float64
	DownPayment  float64
	InterestRate float64 // annual percentage, e.g. 6.5
	TermMonths   int
	// ExtraPrincipal is paid on top of the scheduled payment every month.
	ExtraPrincipal float64
}

// Validate checks that the loan can be amortized.
func (l Loan) Validate() error {
	switch {
	case !mathutil.IsFiniteNonNegative(l.Principal) || !mathutil.IsFiniteNonNegative(l.DownPayment):
		return fmt.Errorf("%w: principal and down payment must be non-negative", ErrInvalidLoan)
	case l.Principal-l.DownPayment <= 0:
		return fmt.Errorf("%w: down payment %.2f leaves nothing to finance", ErrInvalidLoan, l.DownPayment)
	case !mathutil.IsFiniteNonNegative(l.InterestRate):
		return fmt.Errorf("%w: interest rate must be non-negative", ErrInvalidLoan)
	case l.TermMonths <= 0:
		return fmt.Errorf("%w: term must be at least one month", ErrInvalidLoan)
	case !mathutil.IsFiniteNonNegative(l.ExtraPrincipal):
		return fmt.Errorf("%w: extra principal must be non-negative", ErrInvalidLoan)
	}
	return nil
}

// AmortizationScheduleGenerator provides utilities for generating loan amortization schedules
type AmortizationScheduleGenerator struct {
	logger *zap.Logger
}

// NewAmortizationScheduleGenerator creates a new generator instance
func NewAmortizationScheduleGenerator(logger *zap.Logger) *AmortizationScheduleGenerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AmortizationScheduleGenerator{logger: logger}
}

// GenerateSchedule creates a month-by-month schedule that ends when the
// balance reaches zero, which can be before the term when extra principal is
// paid.
func (g *AmortizationScheduleGenerator) GenerateSchedule(loan Loan) ([]Payment, error) {
	if err := loan.Validate(); err != nil {
		return nil, err
	}

	monthlyPayment := CalculateMonthlyPayment(loan.Principal, loan.DownPayment, loan.InterestRate, loan.TermMonths)
	balance := loan.Principal - loan.DownPayment
	schedule := make([]Payment, 0, loan.TermMonths)

	for month := 1; month <= loan.TermMonths; month++ {
		interest := CalculateInterestPayment(balance, loan.InterestRate)
		extra := g.capExtraPrincipal(loan, month, balance-(monthlyPayment-interest))

		payment := Payment{
			Month:     month,
			Interest:  interest,
			Principal: monthlyPayment - interest + extra,
		}

		if month == loan.TermMonths || mathutil.Round(balance-payment.Principal) <= 0 {
			// We will get machine error otherwise so just settle the balance.
			payment.Principal = balance
			payment.Payment = balance + interest
			schedule = append(schedule, payment)
			if month < loan.TermMonths {
				g.logger.Debug(fmt.Sprintf("loan %s paid off in month %d of %d", loan.Name, month, loan.TermMonths),
					zap.String("op", "loans.GenerateSchedule"),
				)
			}
			break
		}

		payment.Payment = monthlyPayment + extra
		balance -= payment.Principal
		payment.RemainingPrincipal = balance
		schedule = append(schedule, payment)
	}

	return schedule, nil
}

// capExtraPrincipal limits the extra payment to what is left after the
// scheduled principal.
func (g *AmortizationScheduleGenerator) capExtraPrincipal(loan Loan, month int, remaining float64) float64 {
	if loan.ExtraPrincipal <= 0 {
		return 0
	}
	if remaining < 0 {
		remaining = 0
	}
	if loan.ExtraPrincipal > remaining {
		g.logger.Debug("Capping extra principal payment to prevent overpayment",
			zap.String("op", "loans.capExtraPrincipal"),
			zap.String("loan", loan.Name),
			zap.Int("month", month),
			zap.Float64("requested", loan.ExtraPrincipal),
			zap.Float64("capped_to_balance", remaining))
		return remaining
	}
	return loan.ExtraPrincipal
}

// ScheduleTotals sums the payments and interest of a schedule.
func ScheduleTotals(schedule []Payment) (totalPaid, totalInterest float64) {
	for _, p := range schedule {
		totalPaid += p.Payment
		totalInterest += p.Interest
	}
	return totalPaid, totalInterest
}

// resolveDownPayment returns the down payment either as given or as a
// percentage of price.
func resolveDownPayment(price, downPayment, downPaymentPercent float64, usePercentage bool) float64 {
	if usePercentage {
		return mathutil.ApplyPercentage(price, downPaymentPercent)
	}
	return downPayment
}
