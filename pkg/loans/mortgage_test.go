package loans

import (
	"errors"
	"math"
	"testing"
)

func baseMortgage() MortgageInput {
	return MortgageInput{
		HomePrice:          400000,
		DownPaymentPercent: 20,
		UsePercentage:      true,
		InterestRate:       6.5,
		TermYears:          30,
		LoanType:           Conventional,
		PropertyTax:        4800,
		HomeInsurance:      1200,
		PMIRate:            0.5,
		ClosingCostPercent: 3,
	}
}

func TestMortgageConventional(t *testing.T) {
	got, err := Mortgage(baseMortgage())
	if err != nil {
		t.Fatalf("Mortgage() error = %v", err)
	}

	checks := []struct {
		name     string
		got      float64
		expected float64
	}{
		{"PrincipalAndInterest", got.PrincipalAndInterest, 2022.62},
		{"MonthlyTaxes", got.MonthlyTaxes, 400},
		{"MonthlyInsurance", got.MonthlyInsurance, 100},
		{"MonthlyPMI", got.MonthlyPMI, 0},
		{"MonthlyPayment", got.MonthlyPayment, 2522.62},
		{"LoanAmount", got.LoanAmount, 320000},
		{"DownPayment", got.DownPayment, 80000},
		{"ClosingCosts", got.ClosingCosts, 12000},
		{"TotalCashNeeded", got.TotalCashNeeded, 92000},
		{"LoanToValue", got.LoanToValue, 80},
	}
	for _, c := range checks {
		if math.Abs(c.got-c.expected) > 0.011 {
			t.Errorf("%s = %v, expected %v", c.name, c.got, c.expected)
		}
	}

	if got.PMIRemoval != nil {
		t.Errorf("expected no PMI removal with 20%% down, got %+v", got.PMIRemoval)
	}
	if got.DebtToIncome != 0 || got.MaxAffordablePrice != 0 || got.Affordable {
		t.Errorf("affordability should be empty without income: %+v", got)
	}
}

func TestMortgageAffordability(t *testing.T) {
	in := baseMortgage()
	in.MonthlyIncome = 10000

	got, err := Mortgage(in)
	if err != nil {
		t.Fatalf("Mortgage() error = %v", err)
	}
	if math.Abs(got.DebtToIncome-25.23) > 0.011 {
		t.Errorf("DebtToIncome = %v, expected ~25.23", got.DebtToIncome)
	}
	if !got.Affordable {
		t.Error("expected payment within 28% of income to be affordable")
	}
	if got.MaxAffordablePrice <= in.HomePrice {
		t.Errorf("MaxAffordablePrice = %v, expected above home price", got.MaxAffordablePrice)
	}
	if math.Abs(got.RecommendedPrice-got.MaxAffordablePrice*0.85) > 0.011 {
		t.Errorf("RecommendedPrice = %v, expected 85%% of %v", got.RecommendedPrice, got.MaxAffordablePrice)
	}

	in.MonthlyIncome = 5000
	got, err = Mortgage(in)
	if err != nil {
		t.Fatalf("Mortgage() error = %v", err)
	}
	if got.Affordable {
		t.Error("expected payment above 28% of income to be unaffordable")
	}
}

func TestMortgagePMI(t *testing.T) {
	in := baseMortgage()
	in.HomePrice = 300000
	in.DownPaymentPercent = 10

	got, err := Mortgage(in)
	if err != nil {
		t.Fatalf("Mortgage() error = %v", err)
	}
	if math.Abs(got.MonthlyPMI-112.5) > 0.001 {
		t.Errorf("MonthlyPMI = %v, expected 112.5", got.MonthlyPMI)
	}
	if got.PMIRemoval == nil {
		t.Fatal("expected a PMI removal month")
	}
	if got.PMIRemoval.Month <= 0 || got.PMIRemoval.Month >= got.TermMonths {
		t.Errorf("PMI removal month %d outside term", got.PMIRemoval.Month)
	}
	if got.PMIRemoval.Balance > 0.78*in.HomePrice {
		t.Errorf("PMI removal balance %v above 78%% LTV", got.PMIRemoval.Balance)
	}
}

func TestMortgageLoanTypes(t *testing.T) {
	conventional, err := Mortgage(baseMortgage())
	if err != nil {
		t.Fatalf("Mortgage() error = %v", err)
	}

	fhaInput := baseMortgage()
	fhaInput.LoanType = FHA
	fha, err := Mortgage(fhaInput)
	if err != nil {
		t.Fatalf("Mortgage(FHA) error = %v", err)
	}
	if fha.PrincipalAndInterest <= conventional.PrincipalAndInterest {
		t.Errorf("FHA P&I %v should exceed conventional %v", fha.PrincipalAndInterest, conventional.PrincipalAndInterest)
	}
	if math.Abs(fha.MonthlyPMI-226.67) > 0.001 {
		t.Errorf("FHA MIP = %v, expected 226.67", fha.MonthlyPMI)
	}

	vaInput := baseMortgage()
	vaInput.LoanType = "VA"
	va, err := Mortgage(vaInput)
	if err != nil {
		t.Fatalf("Mortgage(VA) error = %v", err)
	}
	if va.PrincipalAndInterest >= conventional.PrincipalAndInterest {
		t.Errorf("VA P&I %v should be below conventional %v", va.PrincipalAndInterest, conventional.PrincipalAndInterest)
	}
	if va.MonthlyPMI != 0 {
		t.Errorf("VA should carry no mortgage insurance, got %v", va.MonthlyPMI)
	}
}

func TestMortgageRejectsInvalidInput(t *testing.T) {
	unknownType := baseMortgage()
	unknownType.LoanType = "balloon"
	if _, err := Mortgage(unknownType); !errors.Is(err, ErrInvalidLoan) {
		t.Errorf("expected ErrInvalidLoan for unknown loan type, got %v", err)
	}

	fullDown := baseMortgage()
	fullDown.DownPaymentPercent = 100
	if _, err := Mortgage(fullDown); !errors.Is(err, ErrInvalidLoan) {
		t.Errorf("expected ErrInvalidLoan for full down payment, got %v", err)
	}
}
