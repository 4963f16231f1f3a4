package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"clinic-backend/internal/auth"
)

type stubValidator map[string]*auth.Claims

func (s stubValidator) ValidateToken(token string) (*auth.Claims, error) {
	if c, ok := s[token]; ok {
		return c, nil
	}
	return nil, errors.New("invalid token")
}

var tokens = stubValidator{
	"admin":  {Role: auth.RoleAdmin},
	"clinic": {Role: auth.RoleClinic, ClinicID: "clinic-a"},
}

func okHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func request(token string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/api/payments/summary", nil)
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	return r
}

func TestAuthenticate(t *testing.T) {
	m := NewAuthMiddleware(tokens)

	var seen *auth.Claims
	h := m.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = GetClaimsFromContext(r.Context())
		okHandler(w, r)
	}))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"bad token", "Bearer nope", http.StatusUnauthorized},
		{"valid", "Bearer clinic", http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, r)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}

	if seen == nil || seen.ClinicID != "clinic-a" {
		t.Errorf("claims in context = %+v", seen)
	}
}

func TestRequireRole(t *testing.T) {
	m := NewAuthMiddleware(tokens)
	h := m.RequireAdmin(http.HandlerFunc(okHandler))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, request("clinic"))
	if w.Code != http.StatusForbidden {
		t.Errorf("clinic token: status = %d, want 403", w.Code)
	}
	var body map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil || body["ok"] != false {
		t.Errorf("error body = %v (%v)", body, err)
	}

	w = httptest.NewRecorder()
	h.ServeHTTP(w, request("admin"))
	if w.Code != http.StatusNoContent {
		t.Errorf("admin token: status = %d, want 204", w.Code)
	}

	// claims already set by Authenticate are reused
	chained := m.Authenticate(m.RequireRole(auth.RoleClinic)(http.HandlerFunc(okHandler)))
	w = httptest.NewRecorder()
	chained.ServeHTTP(w, request("clinic"))
	if w.Code != http.StatusNoContent {
		t.Errorf("chained: status = %d", w.Code)
	}
}

func TestRateLimiterPerClinic(t *testing.T) {
	rl := NewRateLimiter(1, 2)
	now := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	m := NewAuthMiddleware(tokens)
	h := m.Authenticate(rl.Handler(http.HandlerFunc(okHandler)))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, request("clinic"))
		codes = append(codes, w.Code)
	}
	if codes[0] != http.StatusNoContent || codes[1] != http.StatusNoContent || codes[2] != http.StatusTooManyRequests {
		t.Errorf("codes = %v, want burst of 2 then 429", codes)
	}

	// another caller has its own bucket
	w := httptest.NewRecorder()
	h.ServeHTTP(w, request("admin"))
	if w.Code != http.StatusNoContent {
		t.Errorf("admin: status = %d", w.Code)
	}

	// tokens refill over time
	now = now.Add(time.Second)
	w = httptest.NewRecorder()
	h.ServeHTTP(w, request("clinic"))
	if w.Code != http.StatusNoContent {
		t.Errorf("after refill: status = %d", w.Code)
	}
}

func TestRateLimiterSweepsIdleVisitors(t *testing.T) {
	rl := NewRateLimiter(10, 10)
	now := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	rl.allow("clinic:a")
	now = now.Add(2 * limiterIdle)
	rl.allow("clinic:b")

	if _, ok := rl.visitors["clinic:a"]; ok {
		t.Error("idle visitor was not swept")
	}
	if len(rl.visitors) != 1 {
		t.Errorf("visitors = %d, want 1", len(rl.visitors))
	}
}

func TestPanicRecovery(t *testing.T) {
	h := PanicRecovery(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/payments/split", nil))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
	var body struct {
		OK    bool   `json:"ok"`
		Error string `json:"error"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil || body.OK || body.Error == "" {
		t.Errorf("body = %+v (%v)", body, err)
	}
}

func TestGetClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.9:5123"
	if got := getClientIP(r); got != "10.0.0.9" {
		t.Errorf("RemoteAddr: %q", got)
	}
	r.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	if got := getClientIP(r); got != "203.0.113.7" {
		t.Errorf("X-Forwarded-For: %q", got)
	}
}
