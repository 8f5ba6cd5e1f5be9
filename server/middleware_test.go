package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"WaveFM/core/auth"
)

func newAuthTestHandler() *APIHandler {
	return &APIHandler{issuer: auth.NewTokenIssuer("test-secret")}
}

func TestRequireAuthPopulatesCaller(t *testing.T) {
	h := newAuthTestHandler()
	token, err := h.issuer.GenerateToken(42, "alice")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	var got Caller
	protected := h.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		got = CallerFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	protected(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !got.Authenticated || got.UserID != 42 || got.Username != "alice" {
		t.Errorf("caller = %+v, want authenticated alice (42)", got)
	}
}

func TestRequireAuthRejections(t *testing.T) {
	h := newAuthTestHandler()
	otherToken, err := auth.NewTokenIssuer("different-secret").GenerateToken(1, "eve")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not bearer", "Basic abc123"},
		{"garbage token", "Bearer garbage"},
		{"wrong secret", "Bearer " + otherToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			protected := h.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
				called = true
			})

			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			protected(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", rec.Code)
			}
			if called {
				t.Error("handler ran despite failed auth")
			}
		})
	}
}

func TestOptionalAuthFallsBackToAnonymous(t *testing.T) {
	h := newAuthTestHandler()

	var got Caller
	open := h.OptionalAuth(func(w http.ResponseWriter, r *http.Request) {
		got = CallerFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	// No header at all.
	req := httptest.NewRequest(http.MethodGet, "/open", nil)
	rec := httptest.NewRecorder()
	open(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got.Authenticated {
		t.Errorf("caller = %+v, want anonymous", got)
	}

	// Malformed token on an optional route is anonymous, not 401.
	req = httptest.NewRequest(http.MethodGet, "/open", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec = httptest.NewRecorder()
	open(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status with bad token = %d, want 200", rec.Code)
	}
	if got.Authenticated {
		t.Errorf("caller = %+v, want anonymous for bad token", got)
	}
}

func TestOptionalAuthRecognizesToken(t *testing.T) {
	h := newAuthTestHandler()
	token, err := h.issuer.GenerateToken(7, "bob")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	var got Caller
	open := h.OptionalAuth(func(w http.ResponseWriter, r *http.Request) {
		got = CallerFromContext(r.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/open", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	open(httptest.NewRecorder(), req)

	if !got.Authenticated || got.UserID != 7 {
		t.Errorf("caller = %+v, want authenticated bob (7)", got)
	}
}

func TestCallerFromContextDefault(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	caller := CallerFromContext(req.Context())
	if caller.Authenticated || caller.UserID != 0 {
		t.Errorf("default caller = %+v, want zero value", caller)
	}
}

func TestAuthLimiter(t *testing.T) {
	limiter := newAuthLimiter(3)

	handler := limiter.Limit(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	allowed, limited := 0, 0
	for i := 0; i < 10; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.RemoteAddr = "203.0.113.9:1234"
		rec := httptest.NewRecorder()
		handler(rec, req)
		switch rec.Code {
		case http.StatusOK:
			allowed++
		case http.StatusTooManyRequests:
			limited++
		}
	}
	if allowed != 3 {
		t.Errorf("allowed = %d, want burst of 3", allowed)
	}
	if limited != 7 {
		t.Errorf("limited = %d, want 7", limited)
	}

	// A different IP has its own budget.
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	req.RemoteAddr = "203.0.113.10:1234"
	rec := httptest.NewRecorder()
	handler(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("fresh IP status = %d, want 200", rec.Code)
	}
}
