// Package auth verifies the admin password and issues the signed token that
// marks a browser session as authenticated.
package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// CookieName is the cookie carrying the admin token.
const CookieName = "studiod_admin"

// DefaultTTL is how long an admin token stays valid.
const DefaultTTL = 12 * time.Hour

const adminSubject = "admin"

// ErrInvalidPassword is returned when the supplied password does not match.
var ErrInvalidPassword = errors.New("invalid password")

// ErrUnauthenticated is returned when a request carries no valid token.
var ErrUnauthenticated = errors.New("not authenticated")

// Verifier checks passwords against a stored hash. Hashes starting with "$2"
// are bcrypt; anything else is a hex SHA-256 digest.
type Verifier struct {
	hash string
}

// NewVerifier returns a Verifier for hash.
func NewVerifier(hash string) Verifier { return Verifier{hash: strings.TrimSpace(hash)} }

// IsBcrypt reports whether the stored hash is a bcrypt hash.
func (v Verifier) IsBcrypt() bool { return strings.HasPrefix(v.hash, "$2") }

// Verify returns nil when password matches.
func (v Verifier) Verify(password string) error {
	if v.hash == "" {
		return ErrInvalidPassword
	}
	if v.IsBcrypt() {
		if err := bcrypt.CompareHashAndPassword([]byte(v.hash), []byte(password)); err != nil {
			return ErrInvalidPassword
		}
		return nil
	}
	sum := sha256.Sum256([]byte(password))
	got := hex.EncodeToString(sum[:])
	if subtle.ConstantTimeCompare([]byte(got), []byte(strings.ToLower(v.hash))) != 1 {
		return ErrInvalidPassword
	}
	return nil
}

// HashPassword returns a bcrypt hash suitable for admin_password_hash.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", errors.New("empty password")
	}
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("bcrypt: %w", err)
	}
	return string(b), nil
}

// Tokens issues and validates HS256 admin tokens.
type Tokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokens returns a token issuer. An empty secret is replaced by 32 random
// bytes, which invalidates tokens across restarts.
func NewTokens(secret string, ttl time.Duration) (*Tokens, error) {
	key := []byte(secret)
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("generate token secret: %w", err)
		}
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Tokens{secret: key, ttl: ttl, now: time.Now}, nil
}

// TTL returns the token lifetime.
func (t *Tokens) TTL() time.Duration { return t.ttl }

// Issue returns a signed admin token.
func (t *Tokens) Issue() (string, error) {
	now := t.now()
	claims := jwt.RegisteredClaims{
		Subject:   adminSubject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

// Validate returns nil when token is a current admin token signed by t.
func (t *Tokens) Validate(token string) error {
	if token == "" {
		return ErrUnauthenticated
	}
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(t.now), jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid || claims.Subject != adminSubject {
		return ErrUnauthenticated
	}
	return nil
}

// FromRequest extracts a token from the admin cookie or a Bearer header.
func FromRequest(r *http.Request) string {
	if c, err := r.Cookie(CookieName); err == nil && c.Value != "" {
		return c.Value
	}
	if h := r.Header.Get("Authorization"); len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// Cookie returns the cookie that stores token.
func (t *Tokens) Cookie(token string) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(t.ttl / time.Second),
	}
}
