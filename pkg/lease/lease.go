// Package lease estimates monthly vehicle lease payments.
package lease

import (
	"errors"
	"fmt"

	"github.com/iwvelando/calcsuite/pkg/mathutil"
)

// ErrInvalidLease is wrapped by every lease input validation failure.
var ErrInvalidLease = errors.New("invalid lease")

// Input describes a vehicle lease. InterestRate and ResidualPercent are
// percentages; fees are one-off amounts.
type Input struct {
	VehiclePrice    float64 `json:"vehiclePrice" validate:"gt=0"`
	DownPayment     float64 `json:"downPayment" validate:"gte=0"`
	TermMonths      int     `json:"termMonths" validate:"gt=0"`
	InterestRate    float64 `json:"interestRate" validate:"gte=0"`
	ResidualPercent float64 `json:"residualPercent" validate:"gte=0,lte=100"`
	AcquisitionFee  float64 `json:"acquisitionFee" validate:"gte=0"`
	DispositionFee  float64 `json:"dispositionFee" validate:"gte=0"`
}

// Result is rounded to cents.
type Result struct {
	MonthlyPayment float64 `json:"monthlyPayment"`
	TotalAmount    float64 `json:"totalAmount"`
	TotalInterest  float64 `json:"totalInterest"`
	Depreciation   float64 `json:"depreciation"`
	ResidualValue  float64 `json:"residualValue"`
	AcquisitionFee float64 `json:"acquisitionFee"`
	DispositionFee float64 `json:"dispositionFee"`
}

// Calculate computes the lease payment as monthly depreciation plus the
// finance charge on price and residual, plus the acquisition fee spread over
// the term, less the down payment spread over the term. The monthly payment is
// floored at zero; the total reflects the unfloored payment.
func Calculate(in Input) (Result, error) {
	switch {
	case !(in.VehiclePrice > 0) || !mathutil.IsFiniteNonNegative(in.VehiclePrice):
		return Result{}, fmt.Errorf("%w: vehicle price must be positive", ErrInvalidLease)
	case in.TermMonths <= 0:
		return Result{}, fmt.Errorf("%w: term must be at least one month", ErrInvalidLease)
	case !mathutil.IsFiniteNonNegative(in.InterestRate):
		return Result{}, fmt.Errorf("%w: interest rate must be non-negative", ErrInvalidLease)
	case !mathutil.IsFiniteNonNegative(in.ResidualPercent) || in.ResidualPercent > 100:
		return Result{}, fmt.Errorf("%w: residual must be between 0 and 100 percent", ErrInvalidLease)
	case !mathutil.IsFiniteNonNegative(in.DownPayment) ||
		!mathutil.IsFiniteNonNegative(in.AcquisitionFee) ||
		!mathutil.IsFiniteNonNegative(in.DispositionFee):
		return Result{}, fmt.Errorf("%w: down payment and fees must be non-negative", ErrInvalidLease)
	}

	term := float64(in.TermMonths)
	residual := mathutil.ApplyPercentage(in.VehiclePrice, in.ResidualPercent)
	depreciation := in.VehiclePrice - residual
	monthlyInterest := (in.VehiclePrice + residual) * mathutil.MonthlyRate(in.InterestRate)

	monthly := depreciation/term + monthlyInterest + in.AcquisitionFee/term - in.DownPayment/term
	total := monthly*term + in.DownPayment + in.DispositionFee

	return Result{
		MonthlyPayment: mathutil.Max(0, mathutil.Round(monthly)),
		TotalAmount:    mathutil.Round(total),
		TotalInterest:  mathutil.Round(monthlyInterest * term),
		Depreciation:   mathutil.Round(depreciation),
		ResidualValue:  mathutil.Round(residual),
		AcquisitionFee: in.AcquisitionFee,
		DispositionFee: in.DispositionFee,
	}, nil
}
