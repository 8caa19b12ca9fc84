package auth

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/diewo77/metertrack/internal/httpx"
)

type ctxKey string

const userIDCtxKey = ctxKey("userID")

// WithUserID stores the verified token subject in context.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDCtxKey, userID)
}

// UserIDFromContext extracts the verified token subject.
func UserIDFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(userIDCtxKey)
	if v == nil {
		return "", false
	}
	id, ok := v.(string)
	return id, ok && id != ""
}

// BearerToken pulls the token out of the Authorization header.
func BearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if h == "" {
		return "", false
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// RequireAuth verifies the bearer token before any handler logic runs and
// attaches the subject to the request context. Every failure is a 401; the
// failure kind only shows up in the log.
func RequireAuth(verifier TokenVerifier, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := BearerToken(r)
			if !ok {
				httpx.JSONError(w, http.StatusUnauthorized, "missing_bearer_token", nil)
				return
			}
			userID, err := verifier.Verify(r.Context(), token)
			if err != nil {
				log.Warn("token verification failed",
					zap.String("path", r.URL.Path),
					zap.Error(err))
				httpx.JSONError(w, http.StatusUnauthorized, "invalid_token", nil)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}
