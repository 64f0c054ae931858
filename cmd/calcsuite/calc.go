package main

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/iwvelando/calcsuite/pkg/bmr"
	"github.com/iwvelando/calcsuite/pkg/constants"
	"github.com/iwvelando/calcsuite/pkg/fasting"
	"github.com/iwvelando/calcsuite/pkg/format"
	"github.com/iwvelando/calcsuite/pkg/interest"
	"github.com/iwvelando/calcsuite/pkg/lease"
	"github.com/iwvelando/calcsuite/pkg/loans"
	"github.com/iwvelando/calcsuite/pkg/mathutil"
	"github.com/iwvelando/calcsuite/pkg/output"
	"github.com/iwvelando/calcsuite/pkg/paypal"
	"github.com/iwvelando/calcsuite/pkg/textcase"
	"github.com/spf13/cobra"
)

func money(key, label string, v float64, currency string) output.Field {
	return output.Field{Key: key, Label: label, Value: v, Display: format.CurrencyCents(v, currency)}
}

func percent(key, label string, v float64) output.Field {
	return output.Field{Key: key, Label: label, Value: v, Display: format.Percent(v / constants.PercentageMultiplier)}
}

func number(key, label string, v float64) output.Field {
	return output.Field{Key: key, Label: label, Value: v}
}

func loanCmd(a *app) *cobra.Command {
	var in loans.CarLoanInput

	cmd := &cobra.Command{
		Use:   "loan",
		Short: "Car loan monthly payment and totals",
		RunE: func(cmd *cobra.Command, args []string) error {
			in.UsePercentage = cmd.Flags().Changed("down-percent")
			res, err := loans.CarLoan(in)
			if err != nil {
				return err
			}
			usd := constants.DefaultCurrency
			return output.WriteSummary(cmd.OutOrStdout(), a.outputFormat, output.Summary{
				Title: "Car loan",
				Fields: []output.Field{
					money("monthlyPayment", "Monthly payment", res.MonthlyPayment, usd),
					money("loanAmount", "Loan amount", res.LoanAmount, usd),
					money("downPayment", "Down payment", res.DownPayment, usd),
					money("totalInterest", "Total interest", res.TotalInterest, usd),
					money("totalAmount", "Total of payments", res.TotalAmount, usd),
					number("termMonths", "Term (months)", float64(res.TermMonths)),
				},
			})
		},
	}

	flags := cmd.Flags()
	flags.Float64Var(&in.Price, "price", 0, "vehicle price")
	flags.Float64Var(&in.DownPayment, "down", 0, "down payment amount")
	flags.Float64Var(&in.DownPaymentPercent, "down-percent", 0, "down payment as a percentage of the price")
	flags.Float64Var(&in.InterestRate, "rate", 0, "annual interest rate in percent")
	flags.Float64Var(&in.TermYears, "years", 5, "loan term in years")
	_ = cmd.MarkFlagRequired("price")
	return cmd
}

func mortgageCmd(a *app) *cobra.Command {
	var in loans.MortgageInput
	var loanType string

	cmd := &cobra.Command{
		Use:   "mortgage",
		Short: "Mortgage payment, insurance and affordability",
		RunE: func(cmd *cobra.Command, args []string) error {
			in.UsePercentage = cmd.Flags().Changed("down-percent")
			in.LoanType = loans.LoanType(loanType)
			res, err := loans.Mortgage(in)
			if err != nil {
				return err
			}

			usd := constants.DefaultCurrency
			fields := []output.Field{
				money("monthlyPayment", "Monthly payment", res.MonthlyPayment, usd),
				money("principalAndInterest", "Principal and interest", res.PrincipalAndInterest, usd),
				money("monthlyTaxes", "Property tax", res.MonthlyTaxes, usd),
				money("monthlyInsurance", "Insurance", res.MonthlyInsurance, usd),
			}
			if !mathutil.IsZero(res.MonthlyPMI) {
				fields = append(fields, money("monthlyPMI", "Mortgage insurance", res.MonthlyPMI, usd))
			}
			if !mathutil.IsZero(res.MonthlyHOA) {
				fields = append(fields, money("monthlyHOA", "HOA fees", res.MonthlyHOA, usd))
			}
			fields = append(fields,
				money("loanAmount", "Loan amount", res.LoanAmount, usd),
				money("totalInterest", "Total interest", res.TotalInterest, usd),
				money("totalCashNeeded", "Cash needed at closing", res.TotalCashNeeded, usd),
				percent("loanToValue", "Loan to value", res.LoanToValue),
			)
			if in.MonthlyIncome > 0 {
				fields = append(fields,
					percent("debtToIncome", "Debt to income", res.DebtToIncome),
					money("maxAffordablePrice", "Maximum affordable price", res.MaxAffordablePrice, usd),
					money("recommendedPrice", "Recommended price", res.RecommendedPrice, usd),
				)
			}
			if res.PMIRemoval != nil {
				fields = append(fields, number("pmiRemovalMonth", "Mortgage insurance ends (month)", float64(res.PMIRemoval.Month)))
			}
			return output.WriteSummary(cmd.OutOrStdout(), a.outputFormat, output.Summary{Title: "Mortgage", Fields: fields})
		},
	}

	flags := cmd.Flags()
	flags.Float64Var(&in.HomePrice, "price", 0, "home price")
	flags.Float64Var(&in.DownPayment, "down", 0, "down payment amount")
	flags.Float64Var(&in.DownPaymentPercent, "down-percent", 0, "down payment as a percentage of the price")
	flags.Float64Var(&in.InterestRate, "rate", 0, "annual interest rate in percent")
	flags.Float64Var(&in.TermYears, "years", 30, "loan term in years")
	flags.StringVar(&loanType, "loan-type", "conventional", "conventional, fha or va")
	flags.Float64Var(&in.PropertyTax, "property-tax", 0, "annual property tax")
	flags.Float64Var(&in.HomeInsurance, "insurance", 0, "annual home insurance")
	flags.Float64Var(&in.PMIRate, "pmi-rate", 0, "annual mortgage insurance rate in percent")
	flags.Float64Var(&in.HOAFees, "hoa", 0, "monthly HOA fees")
	flags.Float64Var(&in.ClosingCostPercent, "closing-costs", 0, "closing costs as a percentage of the price")
	flags.Float64Var(&in.MonthlyIncome, "income", 0, "gross monthly income for the affordability check")
	_ = cmd.MarkFlagRequired("price")
	return cmd
}

func leaseCmd(a *app) *cobra.Command {
	var in lease.Input

	cmd := &cobra.Command{
		Use:   "lease",
		Short: "Vehicle lease monthly payment",
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := lease.Calculate(in)
			if err != nil {
				return err
			}
			usd := constants.DefaultCurrency
			return output.WriteSummary(cmd.OutOrStdout(), a.outputFormat, output.Summary{
				Title: "Lease",
				Fields: []output.Field{
					money("monthlyPayment", "Monthly payment", res.MonthlyPayment, usd),
					money("depreciation", "Depreciation", res.Depreciation, usd),
					money("residualValue", "Residual value", res.ResidualValue, usd),
					money("totalInterest", "Total interest", res.TotalInterest, usd),
					money("totalAmount", "Total cost", res.TotalAmount, usd),
				},
			})
		},
	}

	flags := cmd.Flags()
	flags.Float64Var(&in.VehiclePrice, "price", 0, "vehicle price")
	flags.Float64Var(&in.DownPayment, "down", 0, "down payment")
	flags.IntVar(&in.TermMonths, "months", 36, "lease term in months")
	flags.Float64Var(&in.InterestRate, "rate", 0, "annual interest rate in percent")
	flags.Float64Var(&in.ResidualPercent, "residual", 60, "residual value as a percentage of the price")
	flags.Float64Var(&in.AcquisitionFee, "acquisition-fee", 0, "acquisition fee")
	flags.Float64Var(&in.DispositionFee, "disposition-fee", 0, "disposition fee")
	_ = cmd.MarkFlagRequired("price")
	return cmd
}

func paypalCmd(a *app) *cobra.Command {
	var in paypal.Input
	var mode, account, transaction string

	cmd := &cobra.Command{
		Use:   "paypal",
		Short: "PayPal fee for a payment or the amount to request",
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Mode = paypal.Mode(mode)
			in.AccountType = paypal.AccountType(account)
			in.TransactionType = paypal.TransactionType(transaction)
			res, err := paypal.Calculate(in)
			if err != nil {
				return err
			}
			cur := format.NormalizeCurrency(in.Currency)
			return output.WriteSummary(cmd.OutOrStdout(), a.outputFormat, output.Summary{
				Title: "PayPal fees",
				Fields: []output.Field{
					money("fee", "Fee", res.Fee, cur),
					money("netAmount", "You receive", res.NetAmount, cur),
					money("grossAmount", "Payment", res.GrossAmount, cur),
					percent("effectiveFeeRate", "Effective rate", res.EffectiveFeeRate),
				},
			})
		},
	}

	flags := cmd.Flags()
	flags.Float64Var(&in.Amount, "amount", 0, "payment amount")
	flags.StringVar(&mode, "mode", string(paypal.Receiving), "receiving or requesting")
	flags.StringVar(&account, "account", string(paypal.Personal), "personal or business")
	flags.StringVar(&transaction, "transaction", string(paypal.Domestic), "domestic or international")
	flags.StringVar(&in.Currency, "currency", constants.DefaultCurrency, "ISO currency code")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func interestCmd(a *app) *cobra.Command {
	var in interest.Input
	var unit string

	cmd := &cobra.Command{
		Use:   "interest",
		Short: "Simple interest with a yearly breakdown",
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Unit = interest.TimeUnit(unit)
			res, err := interest.Calculate(in)
			if err != nil {
				return err
			}

			usd := constants.DefaultCurrency
			fields := []output.Field{
				money("simpleInterest", "Interest", res.SimpleInterest, usd),
				money("totalAmount", "Total amount", res.TotalAmount, usd),
				money("monthlyInterest", "Monthly interest", res.MonthlyInterest, usd),
			}
			for _, year := range res.Breakdown {
				fields = append(fields, money(fmt.Sprintf("year%d", year.Year),
					fmt.Sprintf("Balance after year %d", year.Year), year.TotalAmount, usd))
			}
			return output.WriteSummary(cmd.OutOrStdout(), a.outputFormat, output.Summary{Title: "Simple interest", Fields: fields})
		},
	}

	flags := cmd.Flags()
	flags.Float64Var(&in.Principal, "principal", 0, "principal amount")
	flags.Float64Var(&in.Rate, "rate", 0, "annual interest rate in percent")
	flags.Float64Var(&in.Time, "time", 0, "duration in --unit")
	flags.StringVar(&unit, "unit", string(interest.Years), "years or months")
	_ = cmd.MarkFlagRequired("principal")
	_ = cmd.MarkFlagRequired("rate")
	_ = cmd.MarkFlagRequired("time")
	return cmd
}

func bmrCmd(a *app) *cobra.Command {
	var in bmr.Input
	var units, sex, equation string

	cmd := &cobra.Command{
		Use:   "bmr",
		Short: "Basal metabolic rate, daily energy expenditure and macros",
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Units = bmr.UnitSystem(units)
			in.Sex = bmr.Sex(sex)
			in.Equation = bmr.Equation(equation)
			res, err := bmr.Calculate(in)
			if err != nil {
				return err
			}

			kcal := func(key, label string, v float64) output.Field {
				return output.Field{Key: key, Label: label, Value: v, Display: fmt.Sprintf("%.0f kcal", v)}
			}
			grams := func(key, label string, m bmr.Macro) output.Field {
				return output.Field{Key: key, Label: label, Value: m.Grams, Display: fmt.Sprintf("%.0f g", m.Grams)}
			}
			return output.WriteSummary(cmd.OutOrStdout(), a.outputFormat, output.Summary{
				Title: "BMR (" + res.Equation + ")",
				Fields: []output.Field{
					kcal("bmr", "BMR", res.BMR),
					kcal("tdee", "Maintenance (TDEE)", res.TDEE),
					kcal("mildLoss", "Mild weight loss", res.MildLoss),
					kcal("moderateLoss", "Weight loss", res.ModerateLoss),
					kcal("aggressiveLoss", "Extreme weight loss", res.AggressiveLoss),
					kcal("mildGain", "Mild weight gain", res.MildGain),
					kcal("moderateGain", "Weight gain", res.ModerateGain),
					grams("protein", "Protein", res.Protein),
					grams("carbs", "Carbohydrates", res.Carbs),
					grams("fat", "Fat", res.Fat),
				},
			})
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&units, "units", string(bmr.Metric), "metric or imperial")
	flags.Float64Var(&in.Weight, "weight", 0, "weight in kg, or lb for imperial units")
	flags.Float64Var(&in.Height, "height", 0, "height in cm")
	flags.Float64Var(&in.Feet, "feet", 0, "height in feet for imperial units")
	flags.Float64Var(&in.Inches, "inches", 0, "additional inches for imperial units")
	flags.Float64Var(&in.Age, "age", 0, "age in years")
	flags.StringVar(&sex, "sex", "", "male or female")
	flags.StringVar(&equation, "equation", string(bmr.MifflinStJeor), "mifflin or harris-benedict")
	flags.StringVar(&in.Activity, "activity", "sedentary", "sedentary, lightly-active, moderately-active, very-active or extra-active")
	_ = cmd.MarkFlagRequired("weight")
	_ = cmd.MarkFlagRequired("age")
	_ = cmd.MarkFlagRequired("sex")
	return cmd
}

var caseLabels = map[string]string{
	"upper":       "UPPERCASE",
	"lower":       "lowercase",
	"title":       "Title Case",
	"sentence":    "Sentence case",
	"camel":       "camelCase",
	"pascal":      "PascalCase",
	"snake":       "snake_case",
	"kebab":       "kebab-case",
	"constant":    "CONSTANT_CASE",
	"alternating": "aLtErNaTiNg",
	"inverse":     "iNVERSE",
	"random":      "RaNdOm",
}

func caseCmd(a *app) *cobra.Command {
	opts := textcase.DefaultOptions()
	var style string
	var seed uint64

	cmd := &cobra.Command{
		Use:   "case [text...]",
		Short: "Convert text between letter cases and identifier styles",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("seed") {
				opts.Rand = rand.New(rand.NewPCG(seed, seed))
			}
			result := textcase.Convert(strings.Join(args, " "), opts)

			styles := textcase.Styles
			if style != "" {
				if _, ok := result.Apply(style); !ok {
					return fmt.Errorf("unknown style %q, expected one of %s", style, strings.Join(textcase.Styles, ", "))
				}
				styles = []string{strings.ToLower(style)}
			}

			fields := make([]output.TextField, 0, len(styles))
			for _, s := range styles {
				converted, _ := result.Apply(s)
				fields = append(fields, output.TextField{Key: s, Label: caseLabels[s], Value: converted})
			}
			return output.WriteText(cmd.OutOrStdout(), a.outputFormat, "Case conversions", fields)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&style, "style", "", "only print this style, e.g. snake")
	flags.BoolVar(&opts.PreserveNumbers, "preserve-numbers", opts.PreserveNumbers, "keep digits in identifier styles")
	flags.BoolVar(&opts.KeepPunctuation, "keep-punctuation", opts.KeepPunctuation, "keep punctuation in identifier styles")
	flags.BoolVar(&opts.RemoveExtraSpaces, "remove-extra-spaces", opts.RemoveExtraSpaces, "collapse whitespace runs")
	flags.BoolVar(&opts.PreserveLineBreaks, "preserve-line-breaks", opts.PreserveLineBreaks, "keep line breaks when collapsing whitespace")
	flags.StringVar(&opts.Separator, "separator", "", "separator for snake and kebab case")
	flags.StringVar(&opts.Prefix, "prefix", "", "prefix for every converted value")
	flags.StringVar(&opts.Suffix, "suffix", "", "suffix for every converted value")
	flags.Uint64Var(&seed, "seed", 0, "seed for reproducible random case")
	return cmd
}

func fastingCmd(a *app) *cobra.Command {
	var scheduleID, start string
	var fastingHours, eatingHours float64
	var list bool

	cmd := &cobra.Command{
		Use:   "fasting",
		Short: "Intermittent fasting schedules and session status",
		RunE: func(cmd *cobra.Command, args []string) error {
			if list {
				fields := make([]output.TextField, 0, len(fasting.Schedules()))
				for _, s := range fasting.Schedules() {
					fields = append(fields, output.TextField{Key: s.ID, Label: s.Name, Value: s.Difficulty})
				}
				return output.WriteText(cmd.OutOrStdout(), a.outputFormat, "Fasting schedules", fields)
			}

			var schedule fasting.Schedule
			if cmd.Flags().Changed("fasting-hours") {
				s, err := fasting.Custom(fastingHours, eatingHours)
				if err != nil {
					return err
				}
				schedule = s
			} else {
				s, ok := fasting.LookupSchedule(scheduleID)
				if !ok {
					return fmt.Errorf("%w: unknown schedule %q", fasting.ErrInvalidSchedule, scheduleID)
				}
				schedule = s
			}

			now := time.Now()
			began := now
			if start != "" {
				t, err := time.Parse(time.RFC3339, start)
				if err != nil {
					return fmt.Errorf("invalid --start %q: %w", start, err)
				}
				began = t
			}

			status := schedule.StatusAt(began, now)
			return output.WriteText(cmd.OutOrStdout(), a.outputFormat, schedule.Name, []output.TextField{
				{Key: "phase", Label: "Phase", Value: string(status.Phase)},
				{Key: "elapsed", Label: "Elapsed", Value: fasting.FormatDuration(status.Elapsed)},
				{Key: "remaining", Label: "Remaining", Value: fasting.FormatDuration(status.Remaining)},
				{Key: "progress", Label: "Progress", Value: format.Percent(status.Progress)},
				{Key: "phaseEndsAt", Label: "Phase ends", Value: status.PhaseEndsAt.Local().Format(time.RFC1123)},
			})
		},
	}

	flags := cmd.Flags()
	flags.BoolVar(&list, "list", false, "list the predefined schedules")
	flags.StringVar(&scheduleID, "schedule", "16:8", "predefined schedule id")
	flags.Float64Var(&fastingHours, "fasting-hours", 0, "custom fasting window in hours")
	flags.Float64Var(&eatingHours, "eating-hours", 0, "custom eating window in hours")
	flags.StringVar(&start, "start", "", "session start time (RFC 3339); defaults to now")
	return cmd
}
