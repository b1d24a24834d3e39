package server

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/BlandineRdl/EquimApp-sub001/internal/auth"
	"github.com/BlandineRdl/EquimApp-sub001/internal/models"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const userIDKey contextKey = "user_id"

// userID extracts the authenticated user id from the context. Empty when
// the request was not authenticated.
func userID(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}

// bearerToken extracts the session token from the Authorization header, or,
// for websocket requests where custom headers are awkward, from the "token"
// query parameter.
func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		parts := strings.SplitN(h, " ", 2)
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1]
		}
		return ""
	}
	return r.URL.Query().Get("token")
}

// requireAuth validates the session token and adds the user id to the
// request context, rejecting unauthenticated requests.
func requireAuth(jwtManager *auth.JWTManager, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeErrorCode(w, http.StatusUnauthorized, models.CodeUnauthenticated, auth.ErrMissingSession.Error())
			return
		}
		claims, err := jwtManager.Validate(token)
		if err != nil {
			writeErrorCode(w, http.StatusUnauthorized, models.CodeUnauthenticated, auth.ErrInvalidSession.Error())
			return
		}
		ctx := context.WithValue(r.Context(), userIDKey, claims.UserID)
		next(w, r.WithContext(ctx))
	}
}

// statusRecorder captures the response status for logging and metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// withObservability logs every request and records prometheus metrics.
// Websocket upgrades bypass the recorder because the hijacked connection
// must not be wrapped.
func withObservability(metrics *Metrics, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		duration := time.Since(start)

		pattern := r.Pattern
		if pattern == "" {
			pattern = "unmatched"
		}
		if metrics != nil {
			metrics.RequestsTotal.WithLabelValues(r.Method, pattern, strconv.Itoa(rec.status)).Inc()
			metrics.RequestDuration.WithLabelValues(pattern).Observe(duration.Seconds())
		}
		slog.Info("Request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", duration.Milliseconds(),
		)
	})
}
