package server

import (
	"context"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"WaveFM/logger"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// Caller is the identity attached to every request. Either an anonymous
// visitor or an authenticated user; handlers branch on Authenticated instead
// of probing ambient context values.
type Caller struct {
	Authenticated bool
	UserID        int64
	Username      string
}

type callerContextKey struct{}

// CallerFromContext returns the Caller placed by the auth middleware. An
// absent value is an anonymous caller.
func CallerFromContext(ctx context.Context) Caller {
	if caller, ok := ctx.Value(callerContextKey{}).(Caller); ok {
		return caller
	}
	return Caller{}
}

func withCaller(ctx context.Context, caller Caller) context.Context {
	return context.WithValue(ctx, callerContextKey{}, caller)
}

// bearerToken extracts the token from an Authorization header, or "".
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

// RequireAuth rejects requests without a valid token and attaches the
// authenticated Caller to the context.
func (h *APIHandler) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			respondError(w, http.StatusUnauthorized, "Authorization required")
			return
		}

		claims, err := h.issuer.ParseToken(token)
		if err != nil {
			respondError(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}

		caller := Caller{Authenticated: true, UserID: claims.UserID, Username: claims.Username}
		next.ServeHTTP(w, r.WithContext(withCaller(r.Context(), caller)))
	}
}

// OptionalAuth attaches a Caller when a valid token is present and falls
// back to the anonymous Caller otherwise. A malformed token on an optional
// route is treated as anonymous, not rejected.
func (h *APIHandler) OptionalAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller := Caller{}
		if token := bearerToken(r); token != "" {
			if claims, err := h.issuer.ParseToken(token); err == nil {
				caller = Caller{Authenticated: true, UserID: claims.UserID, Username: claims.Username}
			}
		}
		next.ServeHTTP(w, r.WithContext(withCaller(r.Context(), caller)))
	}
}

// CORSMiddleware sets permissive CORS headers and short-circuits preflight.
func CORSMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, HEAD")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Range")
		w.Header().Set("Access-Control-Expose-Headers", "Content-Length, Content-Range")
		w.Header().Set("Access-Control-Max-Age", "86400")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// RequestLogMiddleware tags each request with an ID and logs it on completion.
func RequestLogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.NewString()
		w.Header().Set("X-Request-ID", requestID)

		start := time.Now()
		next.ServeHTTP(w, r)

		logger.Debug("Request handled",
			logger.String("requestId", requestID),
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path),
			logger.Duration("elapsed", time.Since(start)),
		)
	})
}

// authLimiter throttles register/login attempts per client IP.
type authLimiter struct {
	mu        sync.Mutex
	visitors  map[string]*rate.Limiter
	perMinute int
}

func newAuthLimiter(perMinute int) *authLimiter {
	return &authLimiter{
		visitors:  make(map[string]*rate.Limiter),
		perMinute: perMinute,
	}
}

func (l *authLimiter) limiterFor(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	limiter, ok := l.visitors[ip]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(float64(l.perMinute)/60.0), l.perMinute)
		l.visitors[ip] = limiter
	}
	return limiter
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		if idx := strings.Index(forwarded, ","); idx >= 0 {
			return strings.TrimSpace(forwarded[:idx])
		}
		return strings.TrimSpace(forwarded)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// Limit rejects callers that exceed the per-IP budget with 429.
func (l *authLimiter) Limit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if l.perMinute > 0 && !l.limiterFor(clientIP(r)).Allow() {
			respondError(w, http.StatusTooManyRequests, "Too many attempts, slow down")
			return
		}
		next.ServeHTTP(w, r)
	}
}
