// Package interest implements simple interest calculations.
package interest

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/iwvelando/calcsuite/pkg/constants"
	"github.com/iwvelando/calcsuite/pkg/mathutil"
)

// ErrInvalidInput is returned when principal, rate or time is not positive.
var ErrInvalidInput = errors.New("principal, rate and time must be positive")

// TimeUnit is the unit of Input.Time.
type TimeUnit string

const (
	Years  TimeUnit = "years"
	Months TimeUnit = "months"
)

// Input is a simple interest request. Rate is an annual percentage.
type Input struct {
	Principal float64  `json:"principal" validate:"gt=0"`
	Rate      float64  `json:"rate" validate:"gt=0"`
	Time      float64  `json:"time" validate:"gt=0"`
	Unit      TimeUnit `json:"unit" validate:"omitempty,oneof=years months"`
}

// Year is one row of the yearly breakdown. The last row covers a partial
// year when the term is not a whole number of years.
type Year struct {
	Year               int     `json:"year"`
	InterestEarned     float64 `json:"interestEarned"`
	TotalAmount        float64 `json:"totalAmount"`
	CumulativeInterest float64 `json:"cumulativeInterest"`
}

// Result holds unrounded amounts.
type Result struct {
	SimpleInterest  float64 `json:"simpleInterest"`
	TotalAmount     float64 `json:"totalAmount"`
	Principal       float64 `json:"principal"`
	MonthlyInterest float64 `json:"monthlyInterest"`
	Years           float64 `json:"years"`
	Breakdown       []Year  `json:"yearlyBreakdown"`
}

// Calculate computes SI = P × R × T.
func Calculate(in Input) (Result, error) {
	years := in.Time
	switch TimeUnit(strings.ToLower(string(in.Unit))) {
	case Years, "":
	case Months:
		years = in.Time / constants.MonthsPerYear
	default:
		return Result{}, fmt.Errorf("unknown time unit %q", in.Unit)
	}

	rate := in.Rate / constants.PercentageMultiplier
	if !positive(in.Principal) || !positive(rate) || !positive(years) {
		return Result{}, ErrInvalidInput
	}

	si := in.Principal * rate * years
	result := Result{
		SimpleInterest:  si,
		TotalAmount:     in.Principal + si,
		Principal:       in.Principal,
		MonthlyInterest: si / (years * constants.MonthsPerYear),
		Years:           years,
	}

	previous := 0.0
	for year := 1; year <= int(math.Ceil(years)); year++ {
		cumulative := in.Principal * rate * mathutil.Min(float64(year), years)
		result.Breakdown = append(result.Breakdown, Year{
			Year:               year,
			InterestEarned:     cumulative - previous,
			TotalAmount:        in.Principal + cumulative,
			CumulativeInterest: cumulative,
		})
		previous = cumulative
	}
	return result, nil
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}
