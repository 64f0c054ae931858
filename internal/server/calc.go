package server

import (
	"fmt"
	"math/rand/v2"
	"net/http"
	"strings"
	"time"

	"github.com/iwvelando/calcsuite/pkg/bmr"
	"github.com/iwvelando/calcsuite/pkg/fasting"
	"github.com/iwvelando/calcsuite/pkg/interest"
	"github.com/iwvelando/calcsuite/pkg/lease"
	"github.com/iwvelando/calcsuite/pkg/loans"
	"github.com/iwvelando/calcsuite/pkg/paypal"
	"github.com/iwvelando/calcsuite/pkg/textcase"
)

// calcHandler decodes and validates a request of type In, runs fn and
// answers with its result. Calculator errors are input errors.
func calcHandler[In any, Out any](h *handler, op string, fn func(In) (Out, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}

		var in In
		if !h.decodeJSON(w, r, &in, op) {
			return
		}
		if !h.validateRequest(w, &in, op) {
			return
		}

		out, err := fn(in)
		if err != nil {
			h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
			return
		}
		h.writeJSON(w, http.StatusOK, out)
	}
}

func (h *handler) calculators() map[string]http.Handler {
	return map[string]http.Handler{
		"loan":     calcHandler(h, "server.calcLoan", h.carLoan),
		"mortgage": calcHandler(h, "server.calcMortgage", loans.Mortgage),
		"lease":    calcHandler(h, "server.calcLease", lease.Calculate),
		"paypal":   calcHandler(h, "server.calcPayPal", paypal.Calculate),
		"interest": calcHandler(h, "server.calcInterest", interest.Calculate),
		"bmr":      calcHandler(h, "server.calcBMR", bmr.Calculate),
		"case":     calcHandler(h, "server.calcCase", convertCase),
		"fasting":  http.HandlerFunc(h.handleFasting),
	}
}

type carLoanRequest struct {
	loans.CarLoanInput
	// Schedule adds the month-by-month amortization schedule.
	Schedule bool `json:"schedule"`
}

type carLoanResponse struct {
	loans.CarLoanResult
	Schedule []loans.Payment `json:"schedule,omitempty"`
}

func (h *handler) carLoan(req carLoanRequest) (carLoanResponse, error) {
	result, err := loans.CarLoan(req.CarLoanInput)
	if err != nil {
		return carLoanResponse{}, err
	}
	resp := carLoanResponse{CarLoanResult: result}
	if !req.Schedule {
		return resp, nil
	}

	generator := loans.NewAmortizationScheduleGenerator(h.logger)
	resp.Schedule, err = generator.GenerateSchedule(loans.Loan{
		Name:         "car loan",
		Principal:    result.Price,
		DownPayment:  result.DownPayment,
		InterestRate: req.InterestRate,
		TermMonths:   result.TermMonths,
	})
	if err != nil {
		return carLoanResponse{}, err
	}
	return resp, nil
}

type caseRequest struct {
	Text string `json:"text" validate:"required"`
	// Style limits the response to one conversion.
	Style   string            `json:"style" validate:"omitempty,oneof=original upper lower title sentence camel pascal snake kebab constant alternating inverse random"`
	Options *textcase.Options `json:"options"`
	// Seed makes random case reproducible.
	Seed *uint64 `json:"seed"`
}

type caseStyleResponse struct {
	Style  string `json:"style"`
	Result string `json:"result"`
}

func convertCase(req caseRequest) (interface{}, error) {
	opts := textcase.DefaultOptions()
	if req.Options != nil {
		opts = *req.Options
	}
	if req.Seed != nil {
		opts.Rand = rand.New(rand.NewPCG(*req.Seed, *req.Seed))
	}

	result := textcase.Convert(req.Text, opts)
	if req.Style == "" {
		return result, nil
	}
	converted, _ := result.Apply(req.Style)
	return caseStyleResponse{Style: strings.ToLower(req.Style), Result: converted}, nil
}

type fastingRequest struct {
	// Schedule is a predefined schedule id such as "16:8", or "custom".
	Schedule     string     `json:"schedule"`
	FastingHours float64    `json:"fastingHours" validate:"gte=0"`
	EatingHours  float64    `json:"eatingHours" validate:"gte=0"`
	Start        time.Time  `json:"start"`
	Now          *time.Time `json:"now"`
}

type fastingResponse struct {
	Schedule  fasting.Schedule `json:"schedule"`
	Status    fasting.Status   `json:"status"`
	Elapsed   string           `json:"elapsed"`
	Remaining string           `json:"remaining"`
}

// handleFasting lists the predefined schedules on GET and reports a session's
// status on POST.
func (h *handler) handleFasting(w http.ResponseWriter, r *http.Request) {
	const op = "server.calcFasting"
	switch r.Method {
	case http.MethodGet:
		h.writeJSON(w, http.StatusOK, fasting.Schedules())
		return
	case http.MethodPost:
	default:
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	var req fastingRequest
	if !h.decodeJSON(w, r, &req, op) {
		return
	}
	if !h.validateRequest(w, &req, op) {
		return
	}
	if req.Start.IsZero() {
		h.respondErrorWithOp(w, http.StatusBadRequest, "start is required", op)
		return
	}

	schedule, err := resolveSchedule(req)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}

	now := time.Now()
	if req.Now != nil {
		now = *req.Now
	}
	status := schedule.StatusAt(req.Start, now)
	h.writeJSON(w, http.StatusOK, fastingResponse{
		Schedule:  schedule,
		Status:    status,
		Elapsed:   fasting.FormatDuration(status.Elapsed),
		Remaining: fasting.FormatDuration(status.Remaining),
	})
}

func resolveSchedule(req fastingRequest) (fasting.Schedule, error) {
	id := strings.TrimSpace(req.Schedule)
	if id == "" || strings.EqualFold(id, "custom") {
		if id == "" && req.FastingHours == 0 {
			schedule, _ := fasting.LookupSchedule("16:8")
			return schedule, nil
		}
		return fasting.Custom(req.FastingHours, req.EatingHours)
	}
	schedule, ok := fasting.LookupSchedule(id)
	if !ok {
		return fasting.Schedule{}, fmt.Errorf("%w: unknown schedule %q", fasting.ErrInvalidSchedule, id)
	}
	return schedule, nil
}
