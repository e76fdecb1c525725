package jwtauth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const testKey = "test-secret-key-for-unit-tests-only"

func newTestTokens(t *testing.T) *Tokens {
	t.Helper()
	tk, err := NewTokens(Config{SigningKey: testKey, TTL: time.Hour})
	if err != nil {
		t.Fatalf("NewTokens: %v", err)
	}
	return tk
}

func TestTokens_IssueAndVerify(t *testing.T) {
	tk := newTestTokens(t)

	token, exp, err := tk.Issue("ops@clinica.co", "ops@clinica.co", RoleOperator)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if time.Until(exp) <= 0 {
		t.Fatalf("expected future expiry")
	}

	c, err := tk.Verify(context.Background(), token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if c.UserID != "ops@clinica.co" || c.Email != "ops@clinica.co" || c.Role != RoleOperator {
		t.Fatalf("unexpected claims %+v", c)
	}
}

func TestTokens_RejectsExpiredAndForeign(t *testing.T) {
	tk := newTestTokens(t)
	token, _, _ := tk.Issue("u", "u@x", RoleOperator)

	tk.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if _, err := tk.Verify(context.Background(), token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected expired token rejected, got %v", err)
	}

	other, _ := NewTokens(Config{SigningKey: "another-secret-key-0123456789"})
	foreign, _, _ := other.Issue("u", "u@x", RoleOperator)
	if _, err := newTestTokens(t).Verify(context.Background(), foreign); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected foreign signature rejected, got %v", err)
	}

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "u", Issuer: DefaultIssuer}})
	unsigned, _ := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if _, err := newTestTokens(t).Verify(context.Background(), unsigned); err == nil {
		t.Fatalf("expected alg=none rejected")
	}

	if _, err := newTestTokens(t).Verify(context.Background(), " "); !errors.Is(err, ErrTokenEmpty) {
		t.Fatalf("expected ErrTokenEmpty, got %v", err)
	}
}

func TestNewTokens_KeyRequired(t *testing.T) {
	if _, err := NewTokens(Config{}); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
	if _, err := NewTokens(Config{SigningKey: "short"}); err == nil {
		t.Fatalf("expected short key rejected")
	}
}

func TestLoginHandler(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3creta"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	tk := newTestTokens(t)
	r := chi.NewRouter()
	RegisterRoutes(r, NewLogin(tk, "Ops@Clinica.co", string(hash)))

	post := func(body string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body)))
		return rec
	}

	if rec := post(`{"email":"ops@clinica.co","password":"mala"}`); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong password, got %d", rec.Code)
	}
	if rec := post(`{`); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad json, got %d", rec.Code)
	}

	rec := post(`{"email":"ops@clinica.co","password":"s3creta"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var out loginResponse
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, err := tk.Verify(context.Background(), out.Token); err != nil {
		t.Fatalf("issued token does not verify: %v", err)
	}
}

func TestLoginHandler_NotConfigured(t *testing.T) {
	r := chi.NewRouter()
	RegisterRoutes(r, NewLogin(newTestTokens(t), "", ""))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{}`)))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}
