package router

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shandysiswandi/authgate/internal/pkg/config"
	"github.com/shandysiswandi/authgate/internal/pkg/goerror"
	"github.com/shandysiswandi/authgate/internal/pkg/jwt"
)

type fakeVerifier struct{}

func (fakeVerifier) Generate(int64, string) (string, error) { return "", nil }

func (fakeVerifier) Verify(token string) (jwt.Claims, error) {
	switch token {
	case "good":
		return jwt.Claims{UserID: 7, TokenClass: jwt.ClassAccess}, nil
	case "old":
		return jwt.Claims{}, jwt.ErrTokenExpired
	default:
		return jwt.Claims{}, jwt.ErrInvalidToken
	}
}

type fakeLimiter struct {
	allowed    bool
	retryAfter time.Duration
	err        error
	keys       []string
}

func (f *fakeLimiter) Allow(_ context.Context, key string, _ time.Time) (bool, time.Duration, error) {
	f.keys = append(f.keys, key)
	return f.allowed, f.retryAfter, f.err
}

type created struct {
	ID int64 `json:"id"`
}

func (created) StatusCode() int { return http.StatusCreated }
func (created) Message() string { return "Created" }

func serve(t *testing.T, h http.Handler, method, path, token string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var body map[string]any
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("json.Unmarshal(%q) error = %v", rec.Body.String(), err)
		}
	}

	return rec, body
}

func TestRouter_Envelope(t *testing.T) {
	// Arrange
	r := NewRouter(Config{JWT: fakeVerifier{}})
	r.Public(http.MethodPost, "/items")
	r.POST("/items", func(*Request) (any, error) { return created{ID: 1}, nil })
	r.Public(http.MethodPost, "/empty")
	r.POST("/empty", func(*Request) (any, error) { return nil, nil })
	r.Public(http.MethodGet, "/conflict")
	r.GET("/conflict", func(*Request) (any, error) {
		return nil, goerror.NewBusiness("email already registered", goerror.CodeConflict)
	})
	r.Public(http.MethodGet, "/boom")
	r.GET("/boom", func(*Request) (any, error) { return nil, errors.New("db down") })
	r.Public(http.MethodGet, "/panic")
	r.GET("/panic", func(*Request) (any, error) { panic("bad") })

	tests := []struct {
		name     string
		method   string
		path     string
		wantCode int
		wantMsg  string
	}{
		{name: "welcome", method: http.MethodGet, path: "/", wantCode: http.StatusOK, wantMsg: "Welcome to AuthGate API"},
		{name: "custom status", method: http.MethodPost, path: "/items", wantCode: http.StatusCreated, wantMsg: "Created"},
		{name: "nil response", method: http.MethodPost, path: "/empty", wantCode: http.StatusNoContent},
		{name: "business error", method: http.MethodGet, path: "/conflict", wantCode: http.StatusConflict, wantMsg: "email already registered"},
		{name: "unclassified error", method: http.MethodGet, path: "/boom", wantCode: http.StatusInternalServerError, wantMsg: "Internal server error"},
		{name: "panic", method: http.MethodGet, path: "/panic", wantCode: http.StatusInternalServerError, wantMsg: "Internal server error"},
		{name: "not found", method: http.MethodGet, path: "/nope", wantCode: http.StatusNotFound, wantMsg: "Endpoint not found"},
		{name: "method not allowed", method: http.MethodDelete, path: "/items", wantCode: http.StatusMethodNotAllowed, wantMsg: "Method not allowed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Act
			rec, body := serve(t, r, tt.method, tt.path, "")

			// Assert
			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.wantCode, rec.Body.String())
			}
			if tt.wantMsg != "" && body["message"] != tt.wantMsg {
				t.Fatalf("message = %v, want %q", body["message"], tt.wantMsg)
			}
		})
	}
}

func TestRouter_Authentication(t *testing.T) {
	// Arrange
	r := NewRouter(Config{JWT: fakeVerifier{}})
	r.GET("/me", func(req *Request) (any, error) {
		return map[string]int64{"id": jwt.GetAuth(req.Context()).UserID}, nil
	})

	tests := []struct {
		name     string
		token    string
		wantCode int
		wantMsg  string
	}{
		{name: "missing", wantCode: http.StatusUnauthorized, wantMsg: "Authentication required"},
		{name: "expired", token: "old", wantCode: http.StatusUnauthorized, wantMsg: "Token has expired"},
		{name: "forged", token: "forged", wantCode: http.StatusUnauthorized, wantMsg: "Invalid token"},
		{name: "valid", token: "good", wantCode: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Act
			rec, body := serve(t, r, http.MethodGet, "/me", tt.token)

			// Assert
			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantCode)
			}
			if tt.wantMsg != "" && body["message"] != tt.wantMsg {
				t.Fatalf("message = %v, want %q", body["message"], tt.wantMsg)
			}
			if tt.wantMsg == "" {
				data, _ := body["data"].(map[string]any)
				if data["id"] != float64(7) {
					t.Fatalf("data = %v, want id 7", body["data"])
				}
			}
		})
	}
}

func TestRateLimit(t *testing.T) {
	now := func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }

	tests := []struct {
		name       string
		limiter    *fakeLimiter
		wantCode   int
		wantRetry  string
		wantCalled bool
	}{
		{name: "allowed", limiter: &fakeLimiter{allowed: true}, wantCode: http.StatusOK, wantCalled: true},
		{name: "denied", limiter: &fakeLimiter{retryAfter: 1500 * time.Millisecond}, wantCode: http.StatusTooManyRequests, wantRetry: "2"},
		{name: "denied sub-second", limiter: &fakeLimiter{retryAfter: time.Millisecond}, wantCode: http.StatusTooManyRequests, wantRetry: "1"},
		{name: "limiter down fails open", limiter: &fakeLimiter{err: errors.New("redis down")}, wantCode: http.StatusOK, wantCalled: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			called := false
			h := RateLimit(tt.limiter, KeyByIP("login"), now)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				called = true
				w.WriteHeader(http.StatusOK)
			}))
			req := httptest.NewRequest(http.MethodPost, "/login", nil)
			req.RemoteAddr = "203.0.113.9"
			rec := httptest.NewRecorder()

			// Act
			h.ServeHTTP(rec, req)

			// Assert
			if rec.Code != tt.wantCode || called != tt.wantCalled {
				t.Fatalf("status = %d called = %v, want %d %v", rec.Code, called, tt.wantCode, tt.wantCalled)
			}
			if got := rec.Header().Get("Retry-After"); got != tt.wantRetry {
				t.Fatalf("Retry-After = %q, want %q", got, tt.wantRetry)
			}
			if len(tt.limiter.keys) != 1 || tt.limiter.keys[0] != "login:203.0.113.9" {
				t.Fatalf("limiter keys = %v", tt.limiter.keys)
			}
		})
	}
}

func TestRateLimit_EmptyKeySkips(t *testing.T) {
	// Arrange
	l := &fakeLimiter{}
	h := RateLimit(l, func(*http.Request) string { return "" }, time.Now)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	rec := httptest.NewRecorder()

	// Act
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))

	// Assert
	if rec.Code != http.StatusOK || len(l.keys) != 0 {
		t.Fatalf("status = %d keys = %v, want 200 and no limiter call", rec.Code, l.keys)
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remote     string
		forwarded  string
		trustProxy bool
		want       string
	}{
		{name: "host port", remote: "198.51.100.4:5123", want: "198.51.100.4"},
		{name: "untrusted header ignored", remote: "198.51.100.4:5123", forwarded: "10.0.0.1", want: "198.51.100.4"},
		{name: "trusted first hop", remote: "198.51.100.4:5123", forwarded: "10.0.0.1, 10.0.0.2", trustProxy: true, want: "10.0.0.1"},
		{name: "garbage", remote: "not-an-ip", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			if tt.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tt.forwarded)
			}

			// Act
			got := clientIP(req, tt.trustProxy)

			// Assert
			if got != tt.want {
				t.Fatalf("clientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMaintenance(t *testing.T) {
	// Arrange
	cfg, err := config.NewViperFromBytes("yaml", []byte("app:\n  maintenance:\n    endpoints:\n      - /api/v1/auth/signup\n"))
	if err != nil {
		t.Fatalf("NewViperFromBytes() error = %v", err)
	}
	r := NewRouter(Config{Config: cfg, JWT: fakeVerifier{}})
	for _, p := range []string{"/api/v1/auth/signup", "/api/v1/auth/login"} {
		r.Public(http.MethodPost, p)
		r.POST(p, func(*Request) (any, error) { return nil, nil })
	}

	// Act
	blocked, body := serve(t, r, http.MethodPost, "/api/v1/auth/signup", "")
	open, _ := serve(t, r, http.MethodPost, "/api/v1/auth/login", "")

	// Assert
	if blocked.Code != http.StatusServiceUnavailable || !strings.Contains(body["message"].(string), "maintenance") {
		t.Fatalf("signup = %d %v, want 503", blocked.Code, body)
	}
	if open.Code != http.StatusNoContent {
		t.Fatalf("login = %d, want 204", open.Code)
	}
}
