package main

import (
	"github.com/iwvelando/calcsuite/internal/taxengine"
	"github.com/iwvelando/calcsuite/pkg/constants"
	"github.com/iwvelando/calcsuite/pkg/output"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func taxCmd(a *app) *cobra.Command {
	var raw taxengine.RawInput
	var strict bool

	cmd := &cobra.Command{
		Use:   "tax",
		Short: "Compute progressive income tax",
		Example: `  calcsuite tax --income 50000 --jurisdiction US --filing-status single
  calcsuite tax --income "60,000" --jurisdiction UK --output-format json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			jurisdictionFromConfig := raw.Jurisdiction == ""
			if jurisdictionFromConfig {
				raw.Jurisdiction = a.conf.Tax.DefaultJurisdiction
			}
			if raw.FilingStatus == "" {
				raw.FilingStatus = a.defaultFilingStatus(raw.Jurisdiction, jurisdictionFromConfig)
			}

			input, err := taxengine.ParseInput(raw, a.table)
			if err != nil {
				return err
			}
			if strict {
				if _, err := a.table.Resolve(input.Jurisdiction, input.FilingStatus); err != nil {
					return err
				}
			}

			result := taxengine.ComputeTax(input, a.table)
			if result.FallbackUsed {
				a.logger.Warn("default brackets applied",
					zap.String("op", "main.tax"),
					zap.String("requested_jurisdiction", input.Jurisdiction),
					zap.String("requested_filing_status", input.FilingStatus),
				)
			}

			currency := a.conf.Tax.Currency
			if currency == "" {
				currency = a.table.Currency(input.Jurisdiction, constants.DefaultCurrency)
			}
			return output.WriteTax(cmd.OutOrStdout(), a.outputFormat, result, currency)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&raw.Income, "income", "", "gross annual income, e.g. 50000 or \"50,000\"")
	flags.StringVar(&raw.Deductions, "deductions", "", "deductions; blank uses the standard deduction")
	flags.StringVar(&raw.Jurisdiction, "jurisdiction", "", "jurisdiction code such as US, UK or CA")
	flags.StringVar(&raw.FilingStatus, "filing-status", "", "filing status such as single or married_jointly")
	flags.BoolVar(&strict, "strict", false, "fail instead of applying the default brackets")
	_ = cmd.MarkFlagRequired("income")
	return cmd
}

// defaultFilingStatus returns the configured filing status when it belongs to
// jurisdiction. Otherwise it returns "" and the jurisdiction's own default is
// used.
func (a *app) defaultFilingStatus(jurisdiction string, fromConfig bool) string {
	status := a.conf.Tax.DefaultFilingStatus
	if status == "" || fromConfig {
		return status
	}
	if meta, ok := a.table.Jurisdiction(jurisdiction); ok && meta.HasFilingStatus(status) {
		return status
	}
	return ""
}

func jurisdictionsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "jurisdictions",
		Short: "List supported jurisdictions and filing statuses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return output.WriteJurisdictions(cmd.OutOrStdout(), a.outputFormat, a.table.Year(), a.table.Jurisdictions())
		},
	}
}
