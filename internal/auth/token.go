package auth

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/vinicaliel/SolarDetect-Fullstack/internal/domain"
)

// Verification failures callers can branch on. Expired means "log in again";
// malformed means the token is garbage or forged.
var (
	ErrTokenExpired   = errors.New("token expired")
	ErrTokenMalformed = errors.New("token malformed")
)

// TokenCodec issues and verifies HS256-signed JWTs carrying the caller's
// identity. Tokens are self-contained; no server-side session state and no
// revocation list, so operators keep the TTL short.
type TokenCodec struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenCodec builds a codec with the shared signing secret and token TTL.
func NewTokenCodec(secret string, ttl time.Duration) *TokenCodec {
	if ttl <= 0 {
		ttl = 20 * time.Minute
	}
	return &TokenCodec{secret: []byte(secret), ttl: ttl}
}

// Claims describes the JWT payload.
type Claims struct {
	Role domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// Issue signs a token for the identity with issuedAt = now and a fixed expiry.
func (tc *TokenCodec) Issue(identity domain.Identity, now time.Time) (string, time.Time, error) {
	expiresAt := now.Add(tc.ttl)
	claims := &Claims{
		Role: identity.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(tc.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Verify parses the token, checks the signature and expiry against the given
// clock, and returns the embedded identity. Returns ErrTokenExpired when the
// token is past its expiry and ErrTokenMalformed for everything else that is
// wrong with it, including a missing expiry claim.
func (tc *TokenCodec) Verify(tokenStr string, now time.Time) (domain.Identity, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return tc.secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return now }), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domain.Identity{}, ErrTokenExpired
		}
		return domain.Identity{}, ErrTokenMalformed
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return domain.Identity{}, ErrTokenMalformed
	}
	if claims.Subject == "" || !claims.Role.Valid() {
		return domain.Identity{}, ErrTokenMalformed
	}
	return domain.Identity{UserID: claims.Subject, Role: claims.Role}, nil
}
