package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"
)

type claimsKey struct{}

// ClaimsFromContext returns the claims stored by RequireToken.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(*Claims)
	return claims, ok
}

// RequireToken rejects requests without a valid bearer token. A missing token
// is answered with 401 and an invalid one with 403.
func (i *Issuer) RequireToken(logger *zap.Logger, next http.Handler) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := i.Verify(r.Header.Get("Authorization"))
		if err != nil {
			status := http.StatusForbidden
			if errors.Is(err, ErrMissingToken) {
				status = http.StatusUnauthorized
			}
			logger.Debug("token rejected",
				zap.String("op", "auth.RequireToken"),
				zap.String("path", r.URL.Path),
				zap.Error(err),
			)
			writeError(w, status, rootMessage(err))
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey{}, claims)))
	})
}

func rootMessage(err error) string {
	switch {
	case errors.Is(err, ErrMissingToken):
		return ErrMissingToken.Error()
	case errors.Is(err, ErrInvalidToken):
		return ErrInvalidToken.Error()
	default:
		return err.Error()
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
