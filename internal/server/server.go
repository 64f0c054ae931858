package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/iwvelando/calcsuite/internal/auth"
	"github.com/iwvelando/calcsuite/internal/leaderboard"
	"github.com/iwvelando/calcsuite/internal/metrics"
	"github.com/iwvelando/calcsuite/internal/taxengine"
	"github.com/iwvelando/calcsuite/pkg/constants"
	"go.uber.org/zap"
)

// Dependencies are the collaborators served by the HTTP handler. Leaderboard,
// Tokens and the limiters may be nil, which leaves the account and
// leaderboard routes unregistered.
type Dependencies struct {
	Logger           *zap.Logger
	Table            *taxengine.BracketTable
	Leaderboard      *leaderboard.Service
	Tokens           *auth.Issuer
	AuthLimiter      *auth.RateLimiter
	ScoreLimiter     *auth.RateLimiter
	MaxUploadSize    int64
	LeaderboardLimit int
	// Currency overrides the display currency of every jurisdiction.
	Currency string
	Version  string
}

type handler struct {
	logger           *zap.Logger
	table            *taxengine.BracketTable
	board            *leaderboard.Service
	tokens           *auth.Issuer
	validate         *validator.Validate
	maxUploadSize    int64
	leaderboardLimit int
	currency         string
	version          string
}

// NewHandler constructs the HTTP handler that serves the calculator, account
// and leaderboard APIs.
func NewHandler(deps Dependencies) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	maxUploadSize := deps.MaxUploadSize
	if maxUploadSize <= 0 {
		maxUploadSize = constants.DefaultMaxUploadSizeBytes
	}

	limit := deps.LeaderboardLimit
	if limit <= 0 {
		limit = constants.DefaultLeaderboardLimit
	}

	table := deps.Table
	if table == nil {
		table = taxengine.MustDefaultTable()
	}

	trimmedVersion := strings.TrimSpace(deps.Version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	h := &handler{
		logger:           logger,
		table:            table,
		board:            deps.Leaderboard,
		tokens:           deps.Tokens,
		validate:         newValidator(),
		maxUploadSize:    maxUploadSize,
		leaderboardLimit: limit,
		currency:         strings.TrimSpace(deps.Currency),
		version:          trimmedVersion,
	}

	mux := http.NewServeMux()
	handle := func(pattern string, next http.Handler) {
		mux.Handle(pattern, metrics.Instrument(pattern, next))
	}

	// Tax API
	handle("/api/tax", http.HandlerFunc(h.handleTax))
	handle("/api/tax/jurisdictions", http.HandlerFunc(h.handleJurisdictions))

	// Calculator API
	for route, fn := range h.calculators() {
		handle("/api/calc/"+route, fn)
	}

	// Account and leaderboard API
	if h.board != nil && h.tokens != nil {
		limited := func(rl *auth.RateLimiter, next http.Handler) http.Handler {
			if rl == nil {
				return next
			}
			return rl.Middleware(next)
		}
		handle("/api/auth/register", limited(deps.AuthLimiter, http.HandlerFunc(h.handleRegister)))
		handle("/api/auth/login", limited(deps.AuthLimiter, http.HandlerFunc(h.handleLogin)))
		handle("/api/auth/update-score", limited(deps.ScoreLimiter,
			h.tokens.RequireToken(logger, http.HandlerFunc(h.handleUpdateScore))))
		handle("/api/leaderboard/global", http.HandlerFunc(h.handleGlobalLeaderboard))
		handle("/api/leaderboard/game/{gameID}", http.HandlerFunc(h.handleGameLeaderboard))
	}

	// Version endpoint for UI metadata
	handle("/api/version", http.HandlerFunc(h.handleVersion))
	mux.HandleFunc("/healthz", h.handleHealth)
	mux.Handle("/metrics", metrics.Handler())

	return h.withRequestID(mux)
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return field.Name
		}
		return name
	})
	return v
}

// withRequestID tags every response with an X-Request-ID, reusing the
// caller's id when one is supplied.
func (h *handler) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get("X-Request-ID"))
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)

		start := time.Now()
		next.ServeHTTP(w, r)
		h.logger.Debug("request served",
			zap.String("op", "server.request"),
			zap.String("request_id", id),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// decodeJSON reads a size-limited JSON body into dst. It writes the error
// response itself and reports whether decoding succeeded.
func (h *handler) decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}, op string) bool {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondErrorWithOp(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("request exceeds limit of %d bytes", h.maxUploadSize), op)
			return false
		}
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to decode request: %v", err), op)
		return false
	}
	return true
}

// validateRequest runs the struct's validate tags and answers 400 on failure.
func (h *handler) validateRequest(w http.ResponseWriter, v interface{}, op string) bool {
	if err := h.validate.Struct(v); err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, validationMessage(err), op)
		return false
	}
	return true
}

func validationMessage(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Field(), rule))
	}
	return "invalid request: " + strings.Join(msgs, "; ")
}

func (h *handler) respondErrorWithOp(w http.ResponseWriter, status int, msg string, op string) {
	log := h.logger.Warn
	if status >= http.StatusInternalServerError {
		log = h.logger.Error
	}
	log("request failed",
		zap.String("op", op),
		zap.Int("status", status),
		zap.String("error", msg),
	)

	h.writeJSON(w, status, map[string]string{"error": msg})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}
