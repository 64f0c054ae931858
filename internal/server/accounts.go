package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/iwvelando/calcsuite/internal/auth"
	"github.com/iwvelando/calcsuite/internal/leaderboard"
	"github.com/iwvelando/calcsuite/internal/metrics"
	"go.uber.org/zap"
)

type registerRequest struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type scoreRequest struct {
	GameID string   `json:"gameId"`
	Score  *float64 `json:"score"`
}

type accountResponse struct {
	User  leaderboard.User `json:"user"`
	Token string           `json:"token"`
}

// accountStatus maps service errors to response codes. Rejected input and
// failed logins are 400.
func accountStatus(err error) int {
	switch {
	case errors.Is(err, leaderboard.ErrMissingFields),
		errors.Is(err, leaderboard.ErrEmailTaken),
		errors.Is(err, leaderboard.ErrUsernameTaken),
		errors.Is(err, leaderboard.ErrInvalidCredentials),
		errors.Is(err, leaderboard.ErrInvalidScore),
		errors.Is(err, auth.ErrPasswordTooShort),
		errors.Is(err, auth.ErrPasswordTooLong):
		return http.StatusBadRequest
	case errors.Is(err, leaderboard.ErrUserNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (h *handler) respondAccountError(w http.ResponseWriter, err error, op string) {
	status := accountStatus(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		h.logger.Error("account operation failed", zap.String("op", op), zap.Error(err))
		msg = "server error"
	}
	h.respondErrorWithOp(w, status, msg, op)
}

func (h *handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleRegister"
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	var req registerRequest
	if !h.decodeJSON(w, r, &req, op) {
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, leaderboard.ErrMissingFields.Error(), op)
		return
	}

	user, err := h.board.Register(req.Username, req.Email, req.Password)
	if err != nil {
		h.respondAccountError(w, err, op)
		return
	}
	h.respondWithToken(w, http.StatusCreated, user, op)
}

func (h *handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleLogin"
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	var req loginRequest
	if !h.decodeJSON(w, r, &req, op) {
		return
	}

	user, err := h.board.Login(req.Email, req.Password)
	if err != nil {
		h.respondAccountError(w, err, op)
		return
	}
	h.respondWithToken(w, http.StatusOK, user, op)
}

func (h *handler) respondWithToken(w http.ResponseWriter, status int, user leaderboard.User, op string) {
	token, err := h.tokens.Issue(user.ID, user.Username)
	if err != nil {
		h.respondAccountError(w, err, op)
		return
	}
	h.writeJSON(w, status, accountResponse{User: user, Token: token})
}

func (h *handler) handleUpdateScore(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleUpdateScore"
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		h.respondErrorWithOp(w, http.StatusUnauthorized, auth.ErrMissingToken.Error(), op)
		return
	}

	var req scoreRequest
	if !h.decodeJSON(w, r, &req, op) {
		return
	}
	if req.Score == nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, leaderboard.ErrInvalidScore.Error(), op)
		return
	}

	user, err := h.board.RecordScore(claims.UserID, req.GameID, *req.Score)
	if err != nil {
		h.respondAccountError(w, err, op)
		return
	}
	metrics.ObserveScore(strings.TrimSpace(req.GameID))
	h.writeJSON(w, http.StatusOK, user)
}

// parseLimit reads the optional limit query parameter.
func (h *handler) parseLimit(r *http.Request) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("limit"))
	if raw == "" {
		return h.leaderboardLimit, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return 0, fmt.Errorf("invalid limit %q", raw)
	}
	return limit, nil
}

func (h *handler) handleGlobalLeaderboard(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleGlobalLeaderboard"
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	limit, err := h.parseLimit(r)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}
	entries, err := h.board.Global(limit)
	if err != nil {
		h.respondAccountError(w, err, op)
		return
	}
	h.writeJSON(w, http.StatusOK, entries)
}

func (h *handler) handleGameLeaderboard(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleGameLeaderboard"
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	gameID := r.PathValue("gameID")
	limit, err := h.parseLimit(r)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}
	entries, err := h.board.ForGame(gameID, limit)
	if err != nil {
		h.respondAccountError(w, err, op)
		return
	}
	h.writeJSON(w, http.StatusOK, entries)
}
