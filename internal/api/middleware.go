package api

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"ledrent/internal/auth"
	"ledrent/internal/metrics"
	"ledrent/internal/models"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

type contextKey string

const sessionContextKey contextKey = "session"

// sessionFromContext returns the resolved session or nil.
func sessionFromContext(ctx context.Context) *models.Session {
	s, _ := ctx.Value(sessionContextKey).(*models.Session)
	return s
}

// publicPaths are reachable without a session.
var publicPaths = map[string]bool{
	"/healthz":           true,
	"/api/v1/auth/login": true,
}

func isPublicPath(path string) bool {
	return publicPaths[path]
}

// sessionGate rejects protected paths without a valid session; resolved
// sessions are attached to the request context.
func sessionGate(sessions *auth.SessionManager, logger *zerolog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		token := sessions.TokenFromRequest(r)
		session, err := sessions.Resolve(r.Context(), token)
		if err != nil {
			logger.Error().Err(err).Msg("session lookup failed")
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		if session == nil {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}

		ctx := context.WithValue(r.Context(), sessionContextKey, session)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func loggingMiddleware(logger *zerolog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		dur := time.Since(start)

		logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("duration", dur).
			Msg("http request")
		metrics.IncHTTP(r.URL.Path, strconv.Itoa(recorder.status))
	})
}

// loginLimiter applies a per-IP token bucket to the login endpoint.
type loginLimiter struct {
	rps      float64
	burst    int
	limiters sync.Map // map[string]*rate.Limiter
}

func newLoginLimiter(rps float64, burst int) *loginLimiter {
	if burst <= 0 {
		burst = 5
	}
	return &loginLimiter{rps: rps, burst: burst}
}

func (l *loginLimiter) clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return "unknown"
}

func (l *loginLimiter) getLimiter(key string) *rate.Limiter {
	if v, ok := l.limiters.Load(key); ok {
		return v.(*rate.Limiter)
	}

	lim := rate.NewLimiter(rate.Limit(l.rps), l.burst)
	actual, loaded := l.limiters.LoadOrStore(key, lim)
	if loaded {
		return actual.(*rate.Limiter)
	}
	return lim
}

func (l *loginLimiter) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if l.rps <= 0 || !strings.HasSuffix(r.URL.Path, "/auth/login") {
			next.ServeHTTP(w, r)
			return
		}

		if !l.getLimiter(l.clientKey(r)).Allow() {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}
