package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/vinicaliel/SolarDetect-Fullstack/internal/domain"
)

var tokenBase = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func TestTokenRoundTrip(t *testing.T) {
	codec := NewTokenCodec("test-secret", 20*time.Minute)
	identity := domain.Identity{UserID: "user-1", Role: domain.RoleStudent}

	token, exp, err := codec.Issue(identity, tokenBase)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if want := tokenBase.Add(20 * time.Minute); !exp.Equal(want) {
		t.Fatalf("expected expiry %v, got %v", want, exp)
	}

	for _, at := range []time.Time{
		tokenBase,
		tokenBase.Add(10 * time.Minute),
		tokenBase.Add(19 * time.Minute),
		tokenBase.Add(20*time.Minute - time.Second),
	} {
		got, err := codec.Verify(token, at)
		if err != nil {
			t.Fatalf("verify at %v: %v", at, err)
		}
		if got != identity {
			t.Fatalf("expected identity %+v, got %+v", identity, got)
		}
	}
}

func TestTokenExpiry(t *testing.T) {
	codec := NewTokenCodec("test-secret", 20*time.Minute)
	token, _, err := codec.Issue(domain.Identity{UserID: "user-1", Role: domain.RoleCompany}, tokenBase)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	for _, at := range []time.Time{
		tokenBase.Add(20 * time.Minute),
		tokenBase.Add(21 * time.Minute),
		tokenBase.Add(24 * time.Hour),
	} {
		if _, err := codec.Verify(token, at); !errors.Is(err, ErrTokenExpired) {
			t.Fatalf("verify at %v: expected ErrTokenExpired, got %v", at, err)
		}
	}
}

func TestTokenTampered(t *testing.T) {
	codec := NewTokenCodec("test-secret", 20*time.Minute)
	token, _, err := codec.Issue(domain.Identity{UserID: "user-1", Role: domain.RoleStudent}, tokenBase)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		t.Fatalf("expected 3 token segments, got %d", len(parts))
	}

	// Mutate one character of the payload; the signature no longer matches.
	payload := []byte(parts[1])
	if payload[0] == 'A' {
		payload[0] = 'B'
	} else {
		payload[0] = 'A'
	}
	tampered := parts[0] + "." + string(payload) + "." + parts[2]

	if _, err := codec.Verify(tampered, tokenBase); !errors.Is(err, ErrTokenMalformed) {
		t.Fatalf("expected ErrTokenMalformed, got %v", err)
	}
}

func TestTokenWrongSecret(t *testing.T) {
	issuer := NewTokenCodec("secret-a", 20*time.Minute)
	verifier := NewTokenCodec("secret-b", 20*time.Minute)

	token, _, err := issuer.Issue(domain.Identity{UserID: "user-1", Role: domain.RoleStudent}, tokenBase)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := verifier.Verify(token, tokenBase); !errors.Is(err, ErrTokenMalformed) {
		t.Fatalf("expected ErrTokenMalformed, got %v", err)
	}
}

func TestTokenUnexpectedMethod(t *testing.T) {
	codec := NewTokenCodec("test-secret", 20*time.Minute)

	claims := &Claims{
		Role: domain.RoleStudent,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			IssuedAt:  jwt.NewNumericDate(tokenBase),
			ExpiresAt: jwt.NewNumericDate(tokenBase.Add(20 * time.Minute)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS384, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := codec.Verify(signed, tokenBase); !errors.Is(err, ErrTokenMalformed) {
		t.Fatalf("expected ErrTokenMalformed, got %v", err)
	}
}

func TestTokenMissingClaims(t *testing.T) {
	codec := NewTokenCodec("test-secret", 20*time.Minute)

	cases := map[string]*Claims{
		"no role": {
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "user-1",
				ExpiresAt: jwt.NewNumericDate(tokenBase.Add(time.Hour)),
			},
		},
		"unknown role": {
			Role: domain.Role("ADMIN"),
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "user-1",
				ExpiresAt: jwt.NewNumericDate(tokenBase.Add(time.Hour)),
			},
		},
		"no subject": {
			Role: domain.RoleStudent,
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(tokenBase.Add(time.Hour)),
			},
		},
		// Without an expiry claim the token would never die; it must not verify.
		"no expiry": {
			Role: domain.RoleStudent,
			RegisteredClaims: jwt.RegisteredClaims{
				Subject: "user-1",
			},
		},
	}

	for name, claims := range cases {
		signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
		if err != nil {
			t.Fatalf("%s: sign: %v", name, err)
		}
		if _, err := codec.Verify(signed, tokenBase); !errors.Is(err, ErrTokenMalformed) {
			t.Fatalf("%s: expected ErrTokenMalformed, got %v", name, err)
		}
	}
}
