// Package output renders calculation results for the terminal and for
// machine consumption.
package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/iwvelando/calcsuite/internal/taxengine"
	"github.com/iwvelando/calcsuite/pkg/constants"
	"github.com/iwvelando/calcsuite/pkg/format"
	"github.com/iwvelando/calcsuite/pkg/validation"
)

// Field is one labelled value of a calculator summary. Value is kept numeric
// so the CSV and JSON renderers stay machine readable; Display is what the
// pretty renderer prints.
type Field struct {
	Key     string  `json:"key"`
	Label   string  `json:"label"`
	Value   float64 `json:"value"`
	Display string  `json:"-"`
}

// Summary is the generic result shape used by every calculator other than
// the tax engine.
type Summary struct {
	Title  string  `json:"title"`
	Fields []Field `json:"fields"`
}

// WriteTax renders a tax result in the requested output format.
func WriteTax(w io.Writer, outputFormat string, result taxengine.TaxResult, currency string) error {
	if err := validation.ValidateOutputFormat(outputFormat); err != nil {
		return err
	}
	switch outputFormat {
	case constants.OutputFormatCSV:
		return TaxCSV(w, result)
	case constants.OutputFormatJSON:
		return JSON(w, result)
	default:
		return TaxPretty(w, result, currency)
	}
}

// WriteSummary renders a calculator summary in the requested output format.
func WriteSummary(w io.Writer, outputFormat string, summary Summary) error {
	if err := validation.ValidateOutputFormat(outputFormat); err != nil {
		return err
	}
	switch outputFormat {
	case constants.OutputFormatCSV:
		return SummaryCSV(w, summary)
	case constants.OutputFormatJSON:
		return JSON(w, summary)
	default:
		return SummaryPretty(w, summary)
	}
}

// TaxPretty outputs a human-readable summary followed by the bracket breakdown.
func TaxPretty(w io.Writer, result taxengine.TaxResult, currency string) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintf(tw, "--- Tax results for %s (%s), tax year %d ---\n", result.Jurisdiction, result.FilingStatus, result.TaxYear)
	if result.FallbackUsed {
		fmt.Fprintf(tw, "Note:\tno bracket table for the requested jurisdiction; default brackets applied\n")
	}
	fmt.Fprintf(tw, "Gross income\t%s\n", format.Currency(result.GrossIncome, currency))
	fmt.Fprintf(tw, "Taxable income\t%s\n", format.Currency(result.TaxableIncome, currency))
	fmt.Fprintf(tw, "Total tax\t%s\n", format.Currency(result.TotalTax, currency))
	fmt.Fprintf(tw, "Net income\t%s\n", format.Currency(result.NetIncome, currency))
	fmt.Fprintf(tw, "Effective rate\t%s\n", format.Percent(result.EffectiveRate))
	fmt.Fprintf(tw, "Marginal rate\t%s\n", format.Percent(result.MarginalRate))

	if len(result.Breakdown) > 0 {
		fmt.Fprintf(tw, "\nBracket\tRate\tTax\n")
		fmt.Fprintf(tw, "_______\t____\t___\n")
		for _, entry := range result.Breakdown {
			fmt.Fprintf(tw, "%s\t%s\t%s\n",
				format.BracketLabel(entry.Min, entry.Max, currency),
				format.Percent(entry.Rate),
				format.Currency(entry.Amount, currency))
		}
	}
	return tw.Flush()
}

// TaxCSV outputs the bracket breakdown as comma-separated values with the
// totals in a trailing row.
func TaxCSV(w io.Writer, result taxengine.TaxResult) error {
	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"min", "max", "rate", "amount"})
	for _, entry := range result.Breakdown {
		max := ""
		if entry.Max != nil {
			max = formatFloat(*entry.Max)
		}
		_ = cw.Write([]string{formatFloat(entry.Min), max, formatFloat(entry.Rate), formatFloat(entry.Amount)})
	}
	_ = cw.Write([]string{"total", "", formatFloat(result.EffectiveRate), formatFloat(result.TotalTax)})
	cw.Flush()
	return cw.Error()
}

// SummaryPretty outputs a calculator summary as an aligned two-column table.
func SummaryPretty(w io.Writer, summary Summary) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if summary.Title != "" {
		fmt.Fprintf(tw, "--- %s ---\n", summary.Title)
	}
	for _, field := range summary.Fields {
		display := field.Display
		if display == "" {
			display = formatFloat(field.Value)
		}
		fmt.Fprintf(tw, "%s\t%s\n", field.Label, display)
	}
	return tw.Flush()
}

// SummaryCSV outputs one key,value row per field.
func SummaryCSV(w io.Writer, summary Summary) error {
	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"key", "value"})
	for _, field := range summary.Fields {
		_ = cw.Write([]string{field.Key, formatFloat(field.Value)})
	}
	cw.Flush()
	return cw.Error()
}

// TextField is one labelled string value, such as a text conversion.
type TextField struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Value string `json:"value"`
}

// WriteText renders string results in the requested output format.
func WriteText(w io.Writer, outputFormat, title string, fields []TextField) error {
	if err := validation.ValidateOutputFormat(outputFormat); err != nil {
		return err
	}
	switch outputFormat {
	case constants.OutputFormatCSV:
		cw := csv.NewWriter(w)
		_ = cw.Write([]string{"key", "value"})
		for _, field := range fields {
			_ = cw.Write([]string{field.Key, field.Value})
		}
		cw.Flush()
		return cw.Error()
	case constants.OutputFormatJSON:
		return JSON(w, struct {
			Title  string      `json:"title"`
			Fields []TextField `json:"fields"`
		}{title, fields})
	default:
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		if title != "" {
			fmt.Fprintf(tw, "--- %s ---\n", title)
		}
		for _, field := range fields {
			fmt.Fprintf(tw, "%s\t%s\n", field.Label, field.Value)
		}
		return tw.Flush()
	}
}

// WriteJurisdictions renders the supported jurisdictions with their filing
// statuses and standard deductions.
func WriteJurisdictions(w io.Writer, outputFormat string, year int, jurisdictions []taxengine.Jurisdiction) error {
	if err := validation.ValidateOutputFormat(outputFormat); err != nil {
		return err
	}
	switch outputFormat {
	case constants.OutputFormatCSV:
		cw := csv.NewWriter(w)
		_ = cw.Write([]string{"code", "name", "currency", "standardDeduction", "filingStatuses", "hasBrackets"})
		for _, j := range jurisdictions {
			_ = cw.Write([]string{j.Code, j.Name, j.Currency, formatFloat(j.StandardDeduction),
				strings.Join(statusValues(j), ";"), strings.Join(j.HasBrackets, ";")})
		}
		cw.Flush()
		return cw.Error()
	case constants.OutputFormatJSON:
		return JSON(w, struct {
			TaxYear       int                      `json:"taxYear"`
			Jurisdictions []taxengine.Jurisdiction `json:"jurisdictions"`
		}{year, jurisdictions})
	default:
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintf(tw, "--- Jurisdictions, tax year %d ---\n", year)
		fmt.Fprintf(tw, "Code\tName\tStandard deduction\tFiling statuses\n")
		fmt.Fprintf(tw, "____\t____\t__________________\t_______________\n")
		for _, j := range jurisdictions {
			statuses := make([]string, 0, len(j.FilingStatuses))
			for _, fs := range j.FilingStatuses {
				label := fs.Value
				if !hasBrackets(j, fs.Value) {
					label += "*"
				}
				statuses = append(statuses, label)
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", j.Code, j.Name,
				format.Currency(j.StandardDeduction, j.Currency), strings.Join(statuses, ", "))
		}
		fmt.Fprintf(tw, "\n* taxed with the default brackets\n")
		return tw.Flush()
	}
}

func statusValues(j taxengine.Jurisdiction) []string {
	values := make([]string, 0, len(j.FilingStatuses))
	for _, fs := range j.FilingStatuses {
		values = append(values, fs.Value)
	}
	return values
}

func hasBrackets(j taxengine.Jurisdiction, status string) bool {
	for _, s := range j.HasBrackets {
		if s == status {
			return true
		}
	}
	return false
}

// JSON writes v as indented JSON.
func JSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
