// Package format renders money and rates for display.
package format

import (
	"fmt"
	"math"
	"strings"

	"github.com/iwvelando/calcsuite/pkg/constants"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

type currencyStyle struct {
	symbol string
	tag    language.Tag
	suffix bool
}

var styles = map[string]currencyStyle{
	"USD": {symbol: "$", tag: language.AmericanEnglish},
	"EUR": {symbol: "€", tag: language.German, suffix: true},
	"GBP": {symbol: "£", tag: language.BritishEnglish},
	"CAD": {symbol: "$", tag: language.MustParse("en-CA")},
	"AUD": {symbol: "$", tag: language.MustParse("en-AU")},
	"INR": {symbol: "₹", tag: language.MustParse("en-IN")},
	"JPY": {symbol: "¥", tag: language.Japanese},
	"SGD": {symbol: "$", tag: language.MustParse("en-SG")},
	"NZD": {symbol: "$", tag: language.MustParse("en-NZ")},
}

// Currency formats a whole-unit amount in the given ISO currency, e.g.
// "$45,774" for USD. Unknown or malformed codes are formatted as USD.
func Currency(amount float64, code string) string {
	return money(amount, code, 0)
}

// CurrencyCents is like Currency but keeps two fraction digits, e.g.
// "$1,234.56".
func CurrencyCents(amount float64, code string) string {
	return money(amount, code, 2)
}

// NormalizeCurrency returns the upper-case ISO code, or the default currency
// when code is not a recognized ISO 4217 code.
func NormalizeCurrency(code string) string {
	unit, err := currency.ParseISO(strings.TrimSpace(code))
	if err != nil {
		return constants.DefaultCurrency
	}
	return unit.String()
}

func money(amount float64, code string, digits int) string {
	code = NormalizeCurrency(code)
	style, ok := styles[code]
	if !ok {
		style = currencyStyle{symbol: code + " ", tag: language.AmericanEnglish}
	}

	scale := math.Pow(10, float64(digits))
	value := math.Round(math.Abs(amount)*scale) / scale

	p := message.NewPrinter(style.tag)
	number := p.Sprintf(fmt.Sprintf("%%.%df", digits), value)

	sign := ""
	if amount < 0 && value != 0 {
		sign = "-"
	}
	if style.suffix {
		return sign + number + " " + style.symbol
	}
	return sign + style.symbol + number
}

// Percent formats a fraction as a percentage with two decimals: 0.0845 becomes
// "8.45%".
func Percent(fraction float64) string {
	return fmt.Sprintf("%.2f%%", fraction*100)
}

// BracketLabel describes a bracket range as "min - max", or "min+" for the
// open top bracket.
func BracketLabel(min float64, max *float64, code string) string {
	if max == nil {
		return Currency(min, code) + "+"
	}
	return Currency(min, code) + " - " + Currency(*max, code)
}
