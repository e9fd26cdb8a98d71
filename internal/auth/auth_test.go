package auth

import (
	"net/http/httptest"
	"testing"
	"time"
)

const adminSHA = "8c6976e5b5410415bde908bd4dee15dfb167a9c873fc4bb8a81f6f2ab448a918"

func TestVerifier_SHA256(t *testing.T) {
	v := NewVerifier(adminSHA)
	if err := v.Verify("admin"); err != nil {
		t.Fatalf("expected match: %v", err)
	}
	if err := v.Verify("Admin"); err != ErrInvalidPassword {
		t.Fatalf("expected ErrInvalidPassword, got %v", err)
	}
	if v.IsBcrypt() {
		t.Fatalf("sha256 hash detected as bcrypt")
	}
}

func TestVerifier_Bcrypt(t *testing.T) {
	h, err := HashPassword("s3cret")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	v := NewVerifier(h)
	if !v.IsBcrypt() {
		t.Fatalf("expected bcrypt")
	}
	if err := v.Verify("s3cret"); err != nil {
		t.Fatalf("expected match: %v", err)
	}
	if err := v.Verify("nope"); err != ErrInvalidPassword {
		t.Fatalf("expected mismatch, got %v", err)
	}
}

func TestVerifier_EmptyHashRejects(t *testing.T) {
	if err := NewVerifier("").Verify(""); err == nil {
		t.Fatalf("empty hash must reject")
	}
	if _, err := HashPassword(""); err == nil {
		t.Fatalf("empty password must not hash")
	}
}

func TestTokens_IssueValidate(t *testing.T) {
	tk, err := NewTokens("k", time.Hour)
	if err != nil {
		t.Fatalf("tokens: %v", err)
	}
	tok, err := tk.Issue()
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if err := tk.Validate(tok); err != nil {
		t.Fatalf("validate: %v", err)
	}
	other, _ := NewTokens("other", time.Hour)
	if err := other.Validate(tok); err != ErrUnauthenticated {
		t.Fatalf("foreign secret must fail, got %v", err)
	}
	if err := tk.Validate(""); err != ErrUnauthenticated {
		t.Fatalf("empty token must fail")
	}
	if err := tk.Validate("garbage"); err != ErrUnauthenticated {
		t.Fatalf("garbage token must fail")
	}
}

func TestTokens_Expiry(t *testing.T) {
	tk, _ := NewTokens("k", time.Minute)
	base := time.Now()
	tk.now = func() time.Time { return base }
	tok, _ := tk.Issue()
	tk.now = func() time.Time { return base.Add(2 * time.Minute) }
	if err := tk.Validate(tok); err != ErrUnauthenticated {
		t.Fatalf("expired token must fail, got %v", err)
	}
}

func TestTokens_RandomSecret(t *testing.T) {
	a, _ := NewTokens("", 0)
	b, _ := NewTokens("", 0)
	tok, _ := a.Issue()
	if err := b.Validate(tok); err == nil {
		t.Fatalf("random secrets must differ")
	}
	if a.TTL() != DefaultTTL {
		t.Fatalf("ttl=%v", a.TTL())
	}
}

func TestFromRequest(t *testing.T) {
	tk, _ := NewTokens("k", time.Hour)
	r := httptest.NewRequest("GET", "/", nil)
	if FromRequest(r) != "" {
		t.Fatalf("expected no token")
	}
	r.AddCookie(tk.Cookie("abc"))
	if FromRequest(r) != "abc" {
		t.Fatalf("cookie token not read")
	}
	r2 := httptest.NewRequest("GET", "/", nil)
	r2.Header.Set("Authorization", "Bearer xyz")
	if FromRequest(r2) != "xyz" {
		t.Fatalf("bearer token not read")
	}
}
