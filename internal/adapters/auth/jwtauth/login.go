package jwtauth

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"
)

// Login valida la cuenta única de operación y entrega un token.
type Login struct {
	tokens       *Tokens
	email        string
	passwordHash []byte
}

// NewLogin: passwordHash es un hash bcrypt (ADMIN_PASSWORD_HASH).
func NewLogin(tokens *Tokens, email, passwordHash string) *Login {
	return &Login{
		tokens:       tokens,
		email:        strings.ToLower(strings.TrimSpace(email)),
		passwordHash: []byte(strings.TrimSpace(passwordHash)),
	}
}

func (l *Login) configured() bool {
	return l != nil && l.tokens != nil && l.email != "" && len(l.passwordHash) > 0
}

// Check compara credenciales; bcrypt corre siempre, coincida o no el email.
func (l *Login) Check(email, password string) bool {
	if !l.configured() {
		return false
	}
	okPass := bcrypt.CompareHashAndPassword(l.passwordHash, []byte(password)) == nil
	return okPass && strings.ToLower(strings.TrimSpace(email)) == l.email
}

func RegisterRoutes(r chi.Router, l *Login) {
	r.Post("/auth/login", loginHandler(l))
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	Email     string    `json:"email"`
}

// loginHandler godoc
// @Summary Iniciar sesión
// @Description Valida la cuenta de operación y devuelve un bearer token.
// @Tags auth
// @Accept json
// @Produce json
// @Param payload body loginRequest true "Credenciales"
// @Success 200 {object} loginResponse
// @Failure 400 {string} string "invalid json"
// @Failure 401 {string} string "credenciales inválidas"
// @Failure 503 {string} string "login no configurado"
// @Router /auth/login [post]
func loginHandler(l *Login) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !l.configured() {
			http.Error(w, "login no configurado", http.StatusServiceUnavailable)
			return
		}

		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if !l.Check(req.Email, req.Password) {
			http.Error(w, "credenciales inválidas", http.StatusUnauthorized)
			return
		}

		token, exp, err := l.tokens.Issue(l.email, l.email, RoleOperator)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(loginResponse{Token: token, ExpiresAt: exp, Email: l.email})
	}
}
