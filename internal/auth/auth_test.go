package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
)

func newService(t *testing.T, key string) *Service {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	return NewService(string(hash), "test-secret")
}

func TestExchange(t *testing.T) {
	s := newService(t, "key-1")
	if _, err := s.Exchange("wrong", "cli"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong key: err = %v", err)
	}
	res, err := s.Exchange("key-1", "cli")
	if err != nil {
		t.Fatal(err)
	}
	sub, err := s.ValidateToken(res.Token)
	if err != nil {
		t.Fatal(err)
	}
	if sub != "cli" {
		t.Fatalf("subject = %q, want cli", sub)
	}
}

func TestValidateToken(t *testing.T) {
	s := newService(t, "key")
	res, err := s.Exchange("key", "cli")
	if err != nil {
		t.Fatal(err)
	}
	other := newService(t, "key")
	other.jwtSecret = []byte("other-secret")

	expired := newService(t, "key")
	expired.now = func() time.Time { return time.Now().Add(-48 * time.Hour) }
	old, err := expired.Exchange("key", "cli")
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		s     *Service
		token string
	}{
		{"garbage", s, "not.a.token"},
		{"other secret", other, res.Token},
		{"expired", s, old.Token},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.s.ValidateToken(tt.token); !errors.Is(err, ErrInvalidToken) {
				t.Fatalf("err = %v, want ErrInvalidToken", err)
			}
		})
	}
}

func TestDisabled(t *testing.T) {
	s := NewService("", "secret")
	if s.Enabled() {
		t.Fatal("service without key hash is enabled")
	}
	if _, err := s.Exchange("anything", "cli"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("err = %v", err)
	}
}

func TestMiddleware(t *testing.T) {
	s := newService(t, "key")
	res, err := s.Exchange("key", "cli")
	if err != nil {
		t.Fatal(err)
	}
	var seen string
	h := s.AuthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = SubjectFromContext(r.Context())
	}))

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"basic", "Basic abc", http.StatusUnauthorized},
		{"bad token", "Bearer nope", http.StatusUnauthorized},
		{"ok", "Bearer " + res.Token, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/compositions", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
		})
	}
	if seen != "cli" {
		t.Fatalf("subject in context = %q", seen)
	}
}

func TestTokenHandler(t *testing.T) {
	h := NewHandler(newService(t, "key"))
	tests := []struct {
		body   string
		status int
	}{
		{`{`, http.StatusBadRequest},
		{`{}`, http.StatusBadRequest},
		{`{"apiKey":"nope"}`, http.StatusUnauthorized},
		{`{"apiKey":"key"}`, http.StatusOK},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		h.Token(rec, httptest.NewRequest(http.MethodPost, "/auth/token", strings.NewReader(tt.body)))
		if rec.Code != tt.status {
			t.Errorf("%s: status = %d, want %d", tt.body, rec.Code, tt.status)
		}
	}
}
