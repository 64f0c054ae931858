package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/iwvelando/calcsuite/internal/config"
)

func TestInitializeLogger(t *testing.T) {
	tests := []struct {
		name      string
		config    config.LoggingConfig
		override  string
		expectErr bool
	}{
		{"Defaults", config.LoggingConfig{}, "", false},
		{"Console debug", config.LoggingConfig{Level: "debug", Format: "console"}, "", false},
		{"Override wins", config.LoggingConfig{Level: "bogus"}, "warn", false},
		{"Invalid level", config.LoggingConfig{Level: "verbose"}, "", true},
		{"Invalid format", config.LoggingConfig{Format: "logfmt"}, "", true},
		{"Log file", config.LoggingConfig{OutputFile: filepath.Join(t.TempDir(), "logs", "calcsuite.log")}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := initializeLogger(tt.config, tt.override)
			if tt.expectErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if logger == nil {
				t.Fatal("expected logger")
			}
			if tt.config.OutputFile != "" {
				if _, err := os.Stat(tt.config.OutputFile); err != nil {
					t.Errorf("expected log file to be created: %v", err)
				}
			}
		})
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(&app{})
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestTaxCommand(t *testing.T) {
	out, err := execute(t, "tax", "--income", "50,000", "--jurisdiction", "US", "--filing-status", "single")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"tax year 2023", "$4,226", "$45,774", "8.45%", "$11,000 - $44,725"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestTaxCommandJSON(t *testing.T) {
	out, err := execute(t, "tax", "--income", "60000", "--deductions", "0", "--jurisdiction", "uk", "--output-format", "json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var result map[string]interface{}
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("failed to decode %q: %v", out, err)
	}
	if result["totalTax"] != 11432.0 || result["filingStatus"] != "individual" {
		t.Errorf("unexpected result %v", result)
	}
}

func TestTaxCommandErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"Missing income", []string{"tax"}},
		{"Negative income", []string{"tax", "--income", "-1"}},
		{"Strict without table", []string{"tax", "--income", "1000", "--jurisdiction", "DE", "--strict"}},
		{"Unknown output format", []string{"tax", "--income", "1000", "--output-format", "xml"}},
		{"Missing explicit config", []string{"tax", "--income", "1000", "--config", "does-not-exist.yaml"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := execute(t, tt.args...); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestTaxCommandUsesConfigDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := "tax:\n  defaultJurisdiction: UK\noutput:\n  format: csv\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	out, err := execute(t, "tax", "--income", "60000", "--config", path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "min,max,rate,amount") || !strings.Contains(out, "total,,") {
		t.Errorf("expected CSV output, got:\n%s", out)
	}
	// taxable income is 60000 less the UK standard deduction of 12570
	if !strings.Contains(out, "12570,50270,0.2,6972") {
		t.Errorf("expected UK brackets, got:\n%s", out)
	}
}

func TestTaxCommandConfigStatusStaysInJurisdiction(t *testing.T) {
	// the example config defaults to US/single
	example := filepath.Join("..", "..", "config.example.yaml")

	tests := []struct {
		name         string
		args         []string
		totalTax     float64
		filingStatus string
	}{
		{"Other jurisdiction uses its own status", []string{"--jurisdiction", "UK", "--income", "60000"}, 6972, "individual"},
		{"Configured jurisdiction uses configured status", []string{"--income", "50000"}, 4226, "single"},
		{"Status shared with configured one", []string{"--jurisdiction", "US", "--income", "50000"}, 4226, "single"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"tax", "--config", example, "--output-format", "json"}, tt.args...)
			out, err := execute(t, args...)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			var result map[string]interface{}
			if err := json.Unmarshal([]byte(out), &result); err != nil {
				t.Fatalf("failed to decode %q: %v", out, err)
			}
			if result["totalTax"] != tt.totalTax || result["filingStatus"] != tt.filingStatus || result["fallbackUsed"] != false {
				t.Errorf("unexpected result %v", result)
			}
		})
	}
}

func TestCalculatorCommands(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected []string
	}{
		{
			name:     "Jurisdictions",
			args:     []string{"jurisdictions"},
			expected: []string{"United States", "Germany"},
		},
		{
			name:     "Car loan",
			args:     []string{"loan", "--price", "25000", "--down-percent", "20", "--rate", "5", "--years", "5"},
			expected: []string{"$377.42", "$20,000.00", "60"},
		},
		{
			name:     "Mortgage",
			args:     []string{"mortgage", "--price", "400000", "--down", "80000", "--rate", "6.5", "--property-tax", "4800", "--insurance", "1200"},
			expected: []string{"$2,522.62", "$2,022.62", "80.00%"},
		},
		{
			name:     "Lease",
			args:     []string{"lease", "--price", "30000", "--down", "3000", "--months", "36", "--rate", "4.5", "--residual", "60", "--acquisition-fee", "595", "--disposition-fee", "395"},
			expected: []string{"$446.53"},
		},
		{
			name:     "PayPal",
			args:     []string{"paypal", "--amount", "100", "--output-format", "csv"},
			expected: []string{"fee,3.2", "netAmount,96.8"},
		},
		{
			name:     "Simple interest",
			args:     []string{"interest", "--principal", "1000", "--rate", "5", "--time", "2"},
			expected: []string{"$100.00", "$1,100.00", "Balance after year 2"},
		},
		{
			name:     "BMR",
			args:     []string{"bmr", "--weight", "70", "--height", "175", "--age", "30", "--sex", "male", "--activity", "moderately-active"},
			expected: []string{"1649 kcal", "2556 kcal"},
		},
		{
			name:     "Case",
			args:     []string{"case", "Hello", "World"},
			expected: []string{"snake_case", "hello_world", "HelloWorld", "HELLO_WORLD"},
		},
		{
			name:     "Case single style",
			args:     []string{"case", "--style", "kebab", "Hello World", "--output-format", "csv"},
			expected: []string{"kebab,hello-world"},
		},
		{
			name:     "Fasting schedules",
			args:     []string{"fasting", "--list"},
			expected: []string{"16:8 (Popular)", "24:0 (OMAD)"},
		},
		{
			name:     "Fasting custom",
			args:     []string{"fasting", "--fasting-hours", "14", "--eating-hours", "10"},
			expected: []string{"Custom Schedule", "fasting", "00:00:00"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, tt.args...)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			for _, want := range tt.expected {
				if !strings.Contains(out, want) {
					t.Errorf("output missing %q:\n%s", want, out)
				}
			}
		})
	}
}

func TestCalculatorCommandErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"Loan without price", []string{"loan"}},
		{"Mortgage with unknown loan type", []string{"mortgage", "--price", "1", "--loan-type", "jumbo"}},
		{"Lease residual above 100", []string{"lease", "--price", "1", "--residual", "120"}},
		{"PayPal negative amount", []string{"paypal", "--amount", "-5"}},
		{"BMR unknown sex", []string{"bmr", "--weight", "70", "--height", "175", "--age", "30", "--sex", "x"}},
		{"Case unknown style", []string{"case", "--style", "leet", "text"}},
		{"Case without text", []string{"case"}},
		{"Fasting unknown schedule", []string{"fasting", "--schedule", "5:2"}},
		{"Fasting bad start", []string{"fasting", "--start", "yesterday"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := execute(t, tt.args...); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestServerConfigEnvOverrides(t *testing.T) {
	a := &app{}
	cmd := newRootCmd(a)
	cmd.SetArgs([]string{"jurisdictions"})
	cmd.SetOut(&bytes.Buffer{})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	envFile := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(envFile, []byte("JWT_SECRET=from-dotenv\nPORT=4000\n"), 0600); err != nil {
		t.Fatalf("failed to write env file: %v", err)
	}
	t.Setenv("JWT_SECRET", "")
	t.Setenv("PORT", "")
	os.Unsetenv("JWT_SECRET")
	os.Unsetenv("PORT")

	cfg, err := a.serverConfig("", envFile)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.JWTSecret != "from-dotenv" {
		t.Errorf("expected secret from env file, got %q", cfg.JWTSecret)
	}
	if cfg.Address != ":4000" {
		t.Errorf("expected address :4000, got %q", cfg.Address)
	}
	if cfg.RateLimit.Auth.Requests != 5 || cfg.UploadSizeBytes() != 256*1024 {
		t.Errorf("unexpected defaults %+v", cfg)
	}

	if _, err := a.serverConfig("", filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Errorf("missing env file should not be an error: %v", err)
	}
}
