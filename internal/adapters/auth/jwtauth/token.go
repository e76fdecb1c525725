package jwtauth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"oncology-dispatch/internal/ports/auth"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrNotConfigured = errors.New("jwtauth: signing key not configured")
	ErrTokenEmpty    = errors.New("token is empty")
	ErrInvalidToken  = errors.New("invalid token")
)

const (
	DefaultTTL    = 12 * time.Hour
	DefaultIssuer = "oncology-dispatch"
	RoleOperator  = "operador"
)

type Config struct {
	SigningKey string
	TTL        time.Duration
	Issuer     string
}

// Claims del token emitido por el login.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Tokens emite y verifica tokens HS256. Implementa auth.AuthVerifier.
type Tokens struct {
	key    []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

func NewTokens(cfg Config) (*Tokens, error) {
	key := strings.TrimSpace(cfg.SigningKey)
	if key == "" {
		return nil, ErrNotConfigured
	}
	if len(key) < 16 {
		return nil, fmt.Errorf("jwtauth: signing key too short (%d bytes, min 16)", len(key))
	}
	t := &Tokens{
		key:    []byte(key),
		ttl:    cfg.TTL,
		issuer: strings.TrimSpace(cfg.Issuer),
		now:    time.Now,
	}
	if t.ttl <= 0 {
		t.ttl = DefaultTTL
	}
	if t.issuer == "" {
		t.issuer = DefaultIssuer
	}
	return t, nil
}

// Issue firma un token para el usuario.
func (t *Tokens) Issue(userID, email, role string) (string, time.Time, error) {
	now := t.now()
	exp := now.Add(t.ttl)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID,
			Issuer:    t.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Email: email,
		Role:  role,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("jwtauth: sign: %w", err)
	}
	return signed, exp, nil
}

func (t *Tokens) Verify(ctx context.Context, token string) (auth.Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return auth.Claims{}, ErrTokenEmpty
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return t.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(t.issuer),
		jwt.WithTimeFunc(t.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return auth.Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	sub := strings.TrimSpace(claims.Subject)
	if sub == "" {
		return auth.Claims{}, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return auth.Claims{UserID: sub, Email: claims.Email, Role: claims.Role}, nil
}
