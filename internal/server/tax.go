package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/iwvelando/calcsuite/internal/metrics"
	"github.com/iwvelando/calcsuite/internal/taxengine"
	"github.com/iwvelando/calcsuite/pkg/constants"
	"github.com/iwvelando/calcsuite/pkg/format"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// formValue accepts a JSON string or number and keeps its text, so that form
// values reach the tax parser exactly as entered.
type formValue string

func (f *formValue) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	switch {
	case bytes.Equal(trimmed, []byte("null")):
		*f = ""
	case len(trimmed) > 0 && trimmed[0] == '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*f = formValue(s)
	default:
		var n json.Number
		if err := json.Unmarshal(trimmed, &n); err != nil {
			return err
		}
		*f = formValue(n.String())
	}
	return nil
}

type taxRequest struct {
	Income       formValue `json:"income"`
	Deductions   formValue `json:"deductions"`
	Jurisdiction string    `json:"jurisdiction"`
	FilingStatus string    `json:"filingStatus"`
	// Strict rejects jurisdiction and filing status pairs without a bracket
	// table instead of taxing them with the default table.
	Strict bool `json:"strict"`
}

type taxResponse struct {
	taxengine.TaxResult
	Deductions float64      `json:"deductions"`
	Currency   string       `json:"currency"`
	Formatted  taxFormatted `json:"formatted"`
}

type taxFormatted struct {
	GrossIncome   string             `json:"grossIncome"`
	TaxableIncome string             `json:"taxableIncome"`
	TotalTax      string             `json:"totalTax"`
	NetIncome     string             `json:"netIncome"`
	EffectiveRate string             `json:"effectiveRate"`
	MarginalRate  string             `json:"marginalRate"`
	Breakdown     []formattedBracket `json:"breakdown"`
}

type formattedBracket struct {
	Bracket string `json:"bracket"`
	Rate    string `json:"rate"`
	Tax     string `json:"tax"`
}

func (h *handler) handleTax(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleTax"
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	var req taxRequest
	if !h.decodeJSON(w, r, &req, op) {
		return
	}

	input, err := taxengine.ParseInput(taxengine.RawInput{
		Income:       string(req.Income),
		Deductions:   string(req.Deductions),
		Jurisdiction: req.Jurisdiction,
		FilingStatus: req.FilingStatus,
	}, h.table)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}

	if req.Strict {
		if _, err := h.table.Resolve(input.Jurisdiction, input.FilingStatus); err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, taxengine.ErrUnsupportedJurisdiction) {
				status = http.StatusUnprocessableEntity
			}
			h.respondErrorWithOp(w, status, err.Error(), op)
			return
		}
	}

	result := taxengine.ComputeTax(input, h.table)
	metrics.ObserveTax(result.Jurisdiction, result.FallbackUsed)
	if result.FallbackUsed {
		h.logger.Info("default brackets applied",
			zap.String("op", op),
			zap.String("requested_jurisdiction", input.Jurisdiction),
			zap.String("requested_filing_status", input.FilingStatus),
		)
	}

	h.writeJSON(w, http.StatusOK, h.buildTaxResponse(input, result))
}

func (h *handler) displayCurrency(jurisdiction string) string {
	if h.currency != "" {
		return format.NormalizeCurrency(h.currency)
	}
	return format.NormalizeCurrency(h.table.Currency(jurisdiction, constants.DefaultCurrency))
}

func (h *handler) buildTaxResponse(input taxengine.TaxInput, result taxengine.TaxResult) taxResponse {
	code := h.displayCurrency(input.Jurisdiction)

	breakdown := make([]formattedBracket, 0, len(result.Breakdown))
	for _, entry := range result.Breakdown {
		breakdown = append(breakdown, formattedBracket{
			Bracket: format.BracketLabel(entry.Min, entry.Max, code),
			Rate:    format.Percent(entry.Rate),
			Tax:     format.Currency(entry.Amount, code),
		})
	}

	return taxResponse{
		TaxResult:  result,
		Deductions: input.Deductions,
		Currency:   code,
		Formatted: taxFormatted{
			GrossIncome:   format.Currency(result.GrossIncome, code),
			TaxableIncome: format.Currency(result.TaxableIncome, code),
			TotalTax:      format.Currency(result.TotalTax, code),
			NetIncome:     format.Currency(result.NetIncome, code),
			EffectiveRate: format.Percent(result.EffectiveRate),
			MarginalRate:  format.Percent(result.MarginalRate),
			Breakdown:     breakdown,
		},
	}
}

type jurisdictionsResponse struct {
	TaxYear             int                      `json:"taxYear" yaml:"taxYear"`
	DefaultJurisdiction string                   `json:"defaultJurisdiction" yaml:"defaultJurisdiction"`
	DefaultFilingStatus string                   `json:"defaultFilingStatus" yaml:"defaultFilingStatus"`
	Jurisdictions       []taxengine.Jurisdiction `json:"jurisdictions" yaml:"jurisdictions"`
}

func (h *handler) handleJurisdictions(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleJurisdictions"
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	jurisdiction, status := h.table.DefaultKey()
	resp := jurisdictionsResponse{
		TaxYear:             h.table.Year(),
		DefaultJurisdiction: jurisdiction,
		DefaultFilingStatus: status,
		Jurisdictions:       h.table.Jurisdictions(),
	}

	switch strings.ToLower(r.URL.Query().Get("format")) {
	case "", "json":
		h.writeJSON(w, http.StatusOK, resp)
	case "yaml":
		data, err := yaml.Marshal(resp)
		if err != nil {
			h.respondErrorWithOp(w, http.StatusInternalServerError, "failed to encode jurisdictions: "+err.Error(), op)
			return
		}
		w.Header().Set("Content-Type", "application/yaml")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(data); err != nil {
			h.logger.Error("failed to write YAML response", zap.String("op", op), zap.Error(err))
		}
	default:
		h.respondErrorWithOp(w, http.StatusBadRequest, "unsupported format: "+r.URL.Query().Get("format"), op)
	}
}
