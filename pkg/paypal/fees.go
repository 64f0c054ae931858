// Package paypal estimates PayPal transaction fees.
package paypal

import (
	"errors"
	"fmt"
	"strings"

	"github.com/iwvelando/calcsuite/pkg/mathutil"
)

// ErrInvalidAmount is returned for amounts that are not positive.
var ErrInvalidAmount = errors.New("amount must be a positive number")

// AccountType is personal or business.
type AccountType string

// TransactionType is domestic or international.
type TransactionType string

// Mode selects which side of the transaction the amount describes.
type Mode string

const (
	Personal AccountType = "personal"
	Business AccountType = "business"

	Domestic      TransactionType = "domestic"
	International TransactionType = "international"

	// Receiving treats the amount as the gross payment received.
	Receiving Mode = "receiving"
	// Requesting treats the amount as the net to end up with and finds the
	// gross to ask for.
	Requesting Mode = "requesting"
)

const defaultCurrency = "default"

// Fee is a percentage rate plus a fixed amount in the transaction currency.
type Fee struct {
	Rate  float64 `json:"rate"`
	Fixed float64 `json:"fixed"`
}

type scheduleKey struct {
	account     AccountType
	transaction TransactionType
}

var fixedFees = map[string]float64{
	"USD": 0.30, "EUR": 0.35, "GBP": 0.30, "CAD": 0.30, "AUD": 0.30, "JPY": 40,
	"CHF": 0.30, "SEK": 3.25, "NOK": 2.80, "DKK": 2.60, "SGD": 0.50, "HKD": 2.35,
	defaultCurrency: 0.30,
}

var schedules = buildSchedules()

func buildSchedules() map[scheduleKey]map[string]Fee {
	rates := map[TransactionType]struct{ standard, aud float64 }{
		Domestic:      {standard: 2.9, aud: 2.6},
		International: {standard: 4.4, aud: 4.1},
	}

	out := make(map[scheduleKey]map[string]Fee)
	for _, account := range []AccountType{Personal, Business} {
		for transaction, rate := range rates {
			fees := make(map[string]Fee, len(fixedFees))
			for code, fixed := range fixedFees {
				r := rate.standard
				if code == "AUD" {
					r = rate.aud
				}
				fees[code] = Fee{Rate: r, Fixed: fixed}
			}
			out[scheduleKey{account, transaction}] = fees
		}
	}
	return out
}

// LookupFee returns the fee for an account type, transaction type and
// currency. Unknown account or transaction types use the personal domestic
// schedule; unknown currencies use the schedule's default entry.
func LookupFee(account AccountType, transaction TransactionType, currency string) Fee {
	key := scheduleKey{
		account:     AccountType(strings.ToLower(string(account))),
		transaction: TransactionType(strings.ToLower(string(transaction))),
	}
	schedule, ok := schedules[key]
	if !ok {
		schedule = schedules[scheduleKey{Personal, Domestic}]
	}
	if fee, ok := schedule[strings.ToUpper(strings.TrimSpace(currency))]; ok {
		return fee
	}
	return schedule[defaultCurrency]
}

// Input is one fee calculation request.
type Input struct {
	Amount          float64         `json:"amount" validate:"gt=0"`
	Mode            Mode            `json:"mode" validate:"omitempty,oneof=receiving requesting"`
	AccountType     AccountType     `json:"accountType"`
	TransactionType TransactionType `json:"transactionType"`
	Currency        string          `json:"currency"`
}

// Result is rounded to cents. EffectiveFeeRate is a percentage of the gross.
type Result struct {
	OriginalAmount   float64 `json:"originalAmount"`
	Fee              float64 `json:"fee"`
	NetAmount        float64 `json:"netAmount"`
	GrossAmount      float64 `json:"grossAmount"`
	EffectiveFeeRate float64 `json:"effectiveFeeRate"`
	Applied          Fee     `json:"appliedFee"`
}

// Calculate computes the fee and the amounts on either side of it.
func Calculate(in Input) (Result, error) {
	if !(in.Amount > 0) || !mathutil.IsFiniteNonNegative(in.Amount) {
		return Result{}, fmt.Errorf("%w: got %v", ErrInvalidAmount, in.Amount)
	}

	fee := LookupFee(in.AccountType, in.TransactionType, in.Currency)
	var gross, net, charged float64

	switch Mode(strings.ToLower(string(in.Mode))) {
	case Requesting:
		net = in.Amount
		gross = (net + fee.Fixed) / (1 - fee.Rate/100)
		charged = gross - net
	case Receiving, "":
		gross = in.Amount
		charged = mathutil.ApplyPercentage(gross, fee.Rate) + fee.Fixed
		net = gross - charged
	default:
		return Result{}, fmt.Errorf("unknown calculation mode %q", in.Mode)
	}

	return Result{
		OriginalAmount:   mathutil.Round(in.Amount),
		Fee:              mathutil.Round(charged),
		NetAmount:        mathutil.Round(net),
		GrossAmount:      mathutil.Round(gross),
		EffectiveFeeRate: mathutil.Round(mathutil.CalculatePercentage(charged, gross)),
		Applied:          fee,
	}, nil
}
