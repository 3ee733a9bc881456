package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/odiadev/tts-gateway/internal/models"
)

type contextKey string

const keyContextKey contextKey = "api_key_record"

// WithKey stores the validated key record on the context.
func WithKey(ctx context.Context, ak *models.APIKey) context.Context {
	return context.WithValue(ctx, keyContextKey, ak)
}

// KeyFromContext returns the validated key record, or nil for demo-mode
// requests that carried no key.
func KeyFromContext(ctx context.Context) *models.APIKey {
	ak, _ := ctx.Value(keyContextKey).(*models.APIKey)
	return ak
}

// Middleware extracts the caller's key from the configured header or a
// Bearer token and resolves it through the validator. In demo mode a
// missing key passes through with no record; handlers apply the reduced
// demo text limit to such requests.
type Middleware struct {
	validator  Validator
	headerName string
	demoMode   bool
}

func NewMiddleware(validator Validator, headerName string, demoMode bool) *Middleware {
	if headerName == "" {
		headerName = "x-api-key"
	}
	return &Middleware{
		validator:  validator,
		headerName: headerName,
		demoMode:   demoMode,
	}
}

func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.demoMode {
			// Key validation is bypassed entirely; handlers see no key
			// record and apply the demo text limit.
			next.ServeHTTP(w, r)
			return
		}

		rawKey := r.Header.Get(m.headerName)
		if rawKey == "" {
			rawKey = strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		}

		if rawKey == "" {
			writeError(w, r, http.StatusUnauthorized, "Missing x-api-key header")
			return
		}

		ak, err := m.validator.Validate(r.Context(), rawKey)
		if err != nil {
			if errors.Is(err, ErrQuotaExceeded) {
				writeError(w, r, http.StatusPaymentRequired, "API key quota exceeded")
				return
			}
			writeError(w, r, http.StatusUnauthorized, "Invalid API key")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithKey(r.Context(), ak)))
	})
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{
		"error":      msg,
		"request_id": chimiddleware.GetReqID(r.Context()),
	})
}
