package auth

import (
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/vinicaliel/SolarDetect-Fullstack/internal/domain"
)

func TestAuthenticate(t *testing.T) {
	codec := NewTokenCodec("test-secret", 20*time.Minute)
	identity := domain.Identity{UserID: "user-1", Role: domain.RoleStudent}

	token, _, err := codec.Issue(identity, tokenBase)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	gate := NewAuthenticator(codec, "Bearer ", zapNop())

	tests := []struct {
		name    string
		header  string
		now     time.Time
		wantErr error
	}{
		{name: "valid", header: "Bearer " + token, now: tokenBase},
		{name: "empty header", header: "", now: tokenBase, wantErr: ErrMissingCredential},
		{name: "wrong scheme", header: "Token " + token, now: tokenBase, wantErr: ErrMissingCredential},
		{name: "prefix only", header: "Bearer ", now: tokenBase, wantErr: ErrMissingCredential},
		{name: "lowercase prefix", header: "bearer " + token, now: tokenBase, wantErr: ErrMissingCredential},
		{name: "garbage token", header: "Bearer not.a.token", now: tokenBase, wantErr: ErrTokenMalformed},
		{name: "expired token", header: "Bearer " + token, now: tokenBase.Add(time.Hour), wantErr: ErrTokenExpired},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := gate.Authenticate(tc.header, tc.now)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != identity {
				t.Fatalf("expected %+v, got %+v", identity, got)
			}
		})
	}
}

func TestAuthenticateCustomPrefix(t *testing.T) {
	codec := NewTokenCodec("test-secret", 20*time.Minute)
	token, _, err := codec.Issue(domain.Identity{UserID: "user-2", Role: domain.RoleCompany}, tokenBase)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	gate := NewAuthenticator(codec, "Key ", zapNop())

	if _, err := gate.Authenticate("Bearer "+token, tokenBase); !errors.Is(err, ErrMissingCredential) {
		t.Fatalf("expected ErrMissingCredential for default prefix, got %v", err)
	}
	if _, err := gate.Authenticate("Key "+token, tokenBase); err != nil {
		t.Fatalf("unexpected error with custom prefix: %v", err)
	}
}

func zapNop() *zap.Logger {
	return zap.NewNop()
}
