package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/vinicaliel/SolarDetect-Fullstack/internal/domain"
	apperrors "github.com/vinicaliel/SolarDetect-Fullstack/pkg/util"
)

const identityKey = "auth_identity"

// ErrMissingCredential is returned when the request carries no bearer token.
var ErrMissingCredential = errors.New("missing credential")

// Authenticator extracts and verifies bearer tokens from inbound requests.
// It is stateless and safe for concurrent use; the clock is its only input
// beyond the header itself.
type Authenticator struct {
	codec  *TokenCodec
	prefix string
	logger *zap.Logger
}

// NewAuthenticator constructs the gate. The prefix defaults to "Bearer ".
func NewAuthenticator(codec *TokenCodec, prefix string, logger *zap.Logger) *Authenticator {
	if prefix == "" {
		prefix = "Bearer "
	}
	return &Authenticator{codec: codec, prefix: prefix, logger: logger}
}

// Authenticate resolves the raw header value to an identity. Failures are
// ErrMissingCredential, ErrTokenExpired or ErrTokenMalformed; on any of them
// the caller must not proceed to quota enforcement or the metered operation.
func (a *Authenticator) Authenticate(rawHeader string, now time.Time) (domain.Identity, error) {
	if rawHeader == "" || !strings.HasPrefix(rawHeader, a.prefix) {
		return domain.Identity{}, ErrMissingCredential
	}
	token := rawHeader[len(a.prefix):]
	if strings.TrimSpace(token) == "" {
		return domain.Identity{}, ErrMissingCredential
	}
	return a.codec.Verify(token, now)
}

// Handle enforces authentication for protected routes and stores the
// resulting identity in request locals.
func (a *Authenticator) Handle(c *fiber.Ctx) error {
	identity, err := a.Authenticate(c.Get(fiber.HeaderAuthorization), time.Now())
	if err != nil {
		switch {
		case errors.Is(err, ErrMissingCredential):
			return apperrors.NewUnauthorized("missing authorization header")
		case errors.Is(err, ErrTokenExpired):
			return apperrors.NewUnauthorized("token expired")
		default:
			// Security event. Do not echo which check failed.
			a.logger.Warn("rejected malformed token",
				zap.String("path", c.Path()),
				zap.String("ip", c.IP()),
			)
			return apperrors.NewUnauthorized("invalid token")
		}
	}

	c.Locals(identityKey, identity)
	return c.Next()
}

// IdentityFromContext retrieves the authenticated identity set by Handle.
func IdentityFromContext(c *fiber.Ctx) (domain.Identity, bool) {
	identity, ok := c.Locals(identityKey).(domain.Identity)
	return identity, ok
}
