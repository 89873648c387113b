package quota

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/vinicaliel/SolarDetect-Fullstack/internal/audit"
	"github.com/vinicaliel/SolarDetect-Fullstack/internal/domain"
	apperrors "github.com/vinicaliel/SolarDetect-Fullstack/pkg/util"
)

// Policy maps a role to its quota and fixes the window length. A static
// table, not persisted per user.
type Policy struct {
	StudentLimit int
	CompanyLimit int
	Window       time.Duration
}

// DefaultPolicy mirrors the production limits: students get 3 calls,
// companies 10, per 5-minute window.
func DefaultPolicy() Policy {
	return Policy{StudentLimit: 3, CompanyLimit: 10, Window: 5 * time.Minute}
}

// LimitFor resolves the quota size for a role.
func (p Policy) LimitFor(role domain.Role) int {
	if role == domain.RoleStudent {
		return p.StudentLimit
	}
	return p.CompanyLimit
}

// Admission authorizes one metered call.
type Admission struct {
	Remaining int
}

// Status is the read-only quota projection for status displays.
type Status struct {
	Remaining         int
	TotalQuota        int
	WindowStart       time.Time
	MinutesUntilReset int64
}

// Enforcer orchestrates the check-reset-decrement sequence against the
// ledger and records every admitted call in the audit log.
type Enforcer struct {
	ledger Ledger
	audit  audit.Log
	policy Policy
	logger *zap.Logger
}

// NewEnforcer wires the policy layer.
func NewEnforcer(ledger Ledger, auditLog audit.Log, policy Policy, logger *zap.Logger) *Enforcer {
	return &Enforcer{ledger: ledger, audit: auditLog, policy: policy, logger: logger}
}

// Admit charges one quota unit for the identity and, on success, appends an
// audit entry before the metered call proceeds. On exhaustion nothing is
// mutated and no entry is written. A consumed unit is never refunded, even if
// the caller goes away before the metered call completes.
func (e *Enforcer) Admit(ctx context.Context, identity domain.Identity, lat, lon float64, now time.Time) (Admission, error) {
	limit := e.policy.LimitFor(identity.Role)

	out, err := e.ledger.TryConsume(ctx, identity.UserID, limit, e.policy.Window, now)
	if err != nil {
		return Admission{}, apperrors.NewStorageFailure(err)
	}
	if out.Kind == Exhausted {
		return Admission{}, apperrors.NewQuotaExceeded(minutesUntilReset(out.WindowStart, now, e.policy.Window))
	}

	entry := domain.RequestLog{
		UserID:      identity.UserID,
		RequestedAt: now,
		Latitude:    lat,
		Longitude:   lon,
	}
	if err := e.audit.Append(ctx, entry); err != nil {
		return Admission{}, apperrors.NewStorageFailure(err)
	}

	e.logger.Debug("request admitted",
		zap.String("user_id", identity.UserID),
		zap.String("role", string(identity.Role)),
		zap.Int("remaining", out.Remaining),
		zap.Bool("window_reset", out.Kind == WindowReset),
	)
	return Admission{Remaining: out.Remaining}, nil
}

// Peek reports the current quota state without charging. A lapsed window is
// resolved and persisted so status displays never show a stale zero.
func (e *Enforcer) Peek(ctx context.Context, identity domain.Identity, now time.Time) (Status, error) {
	limit := e.policy.LimitFor(identity.Role)

	rec, err := e.ledger.Peek(ctx, identity.UserID, limit, e.policy.Window, now)
	if err != nil {
		return Status{}, apperrors.NewStorageFailure(err)
	}

	return Status{
		Remaining:         rec.Remaining,
		TotalQuota:        limit,
		WindowStart:       rec.WindowStart,
		MinutesUntilReset: minutesUntilReset(rec.WindowStart, now, e.policy.Window),
	}, nil
}

// minutesUntilReset is the window remainder in whole minutes, clamped at
// zero.
func minutesUntilReset(windowStart, now time.Time, window time.Duration) int64 {
	elapsed := int64(now.Sub(windowStart).Minutes())
	r := int64(window.Minutes()) - elapsed
	if r < 0 {
		return 0
	}
	return r
}
