package quota

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/vinicaliel/SolarDetect-Fullstack/internal/audit"
	"github.com/vinicaliel/SolarDetect-Fullstack/internal/domain"
	apperrors "github.com/vinicaliel/SolarDetect-Fullstack/pkg/util"
)

func newTestEnforcer() (*Enforcer, *audit.MemoryLog) {
	log := audit.NewMemoryLog()
	enforcer := NewEnforcer(NewMemoryLedger(), log, DefaultPolicy(), zap.NewNop())
	return enforcer, log
}

func TestEnforcerStudentScenario(t *testing.T) {
	ctx := context.Background()
	enforcer, log := newTestEnforcer()
	student := domain.Identity{UserID: "student-1", Role: domain.RoleStudent}

	// Calls at t=0,1,2 minutes succeed with remaining 2,1,0.
	for i, want := range []int{2, 1, 0} {
		now := ledgerBase.Add(time.Duration(i) * time.Minute)
		adm, err := enforcer.Admit(ctx, student, -23.55, -46.63, now)
		if err != nil {
			t.Fatalf("admit %d: %v", i, err)
		}
		if adm.Remaining != want {
			t.Fatalf("admit %d: expected remaining %d, got %d", i, want, adm.Remaining)
		}
	}

	// Call at t=3 is rejected with minutes_until_reset=2 and writes no entry.
	_, err := enforcer.Admit(ctx, student, -23.55, -46.63, ledgerBase.Add(3*time.Minute))
	var domainErr *apperrors.DomainError
	if !errors.As(err, &domainErr) {
		t.Fatalf("expected DomainError, got %v", err)
	}
	if domainErr.Code != "QUOTA_EXCEEDED" || domainErr.HTTPStatus != 429 {
		t.Fatalf("expected QUOTA_EXCEEDED 429, got %s %d", domainErr.Code, domainErr.HTTPStatus)
	}
	if got := domainErr.Details["minutes_until_reset"]; got != int64(2) {
		t.Fatalf("expected minutes_until_reset 2, got %v", got)
	}
	if got := len(log.Entries()); got != 3 {
		t.Fatalf("expected 3 audit entries, got %d", got)
	}

	// Call at t=6 lands in a fresh window and charges 1 from the full 3.
	adm, err := enforcer.Admit(ctx, student, -23.55, -46.63, ledgerBase.Add(6*time.Minute))
	if err != nil {
		t.Fatalf("post-reset admit: %v", err)
	}
	if adm.Remaining != 2 {
		t.Fatalf("expected remaining 2 after reset, got %d", adm.Remaining)
	}
	if got := len(log.Entries()); got != 4 {
		t.Fatalf("expected 4 audit entries, got %d", got)
	}
}

func TestEnforcerRoleLimits(t *testing.T) {
	ctx := context.Background()
	enforcer, _ := newTestEnforcer()

	adm, err := enforcer.Admit(ctx, domain.Identity{UserID: "c-1", Role: domain.RoleCompany}, 0, 0, ledgerBase)
	if err != nil {
		t.Fatalf("company admit: %v", err)
	}
	if adm.Remaining != 9 {
		t.Fatalf("expected company remaining 9, got %d", adm.Remaining)
	}

	adm, err = enforcer.Admit(ctx, domain.Identity{UserID: "s-1", Role: domain.RoleStudent}, 0, 0, ledgerBase)
	if err != nil {
		t.Fatalf("student admit: %v", err)
	}
	if adm.Remaining != 2 {
		t.Fatalf("expected student remaining 2, got %d", adm.Remaining)
	}
}

func TestEnforcerAuditEntryContents(t *testing.T) {
	ctx := context.Background()
	enforcer, log := newTestEnforcer()
	identity := domain.Identity{UserID: "student-1", Role: domain.RoleStudent}

	if _, err := enforcer.Admit(ctx, identity, 12.5, -8.25, ledgerBase); err != nil {
		t.Fatalf("admit: %v", err)
	}

	entries := log.Entries()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	e := entries[0]
	if e.UserID != "student-1" || e.Latitude != 12.5 || e.Longitude != -8.25 || !e.RequestedAt.Equal(ledgerBase) {
		t.Fatalf("unexpected audit entry: %+v", e)
	}
}

func TestEnforcerPeek(t *testing.T) {
	ctx := context.Background()
	enforcer, _ := newTestEnforcer()
	student := domain.Identity{UserID: "student-1", Role: domain.RoleStudent}

	// Peek on a fresh user creates the record without charging.
	status, err := enforcer.Peek(ctx, student, ledgerBase)
	if err != nil {
		t.Fatalf("peek: %v", err)
	}
	if status.Remaining != 3 || status.TotalQuota != 3 {
		t.Fatalf("expected 3/3, got %d/%d", status.Remaining, status.TotalQuota)
	}
	if status.MinutesUntilReset != 5 {
		t.Fatalf("expected 5 minutes until reset, got %d", status.MinutesUntilReset)
	}

	if _, err := enforcer.Admit(ctx, student, 0, 0, ledgerBase); err != nil {
		t.Fatalf("admit: %v", err)
	}

	status, err = enforcer.Peek(ctx, student, ledgerBase.Add(3*time.Minute+30*time.Second))
	if err != nil {
		t.Fatalf("peek: %v", err)
	}
	if status.Remaining != 2 {
		t.Fatalf("peek must not decrement: got %d", status.Remaining)
	}
	if status.MinutesUntilReset != 2 {
		t.Fatalf("expected 2 whole minutes until reset, got %d", status.MinutesUntilReset)
	}

	// Far past the window the countdown clamps at zero only transiently:
	// the peek itself resolves the reset, so a lapsed record reports a full
	// fresh window.
	status, err = enforcer.Peek(ctx, student, ledgerBase.Add(20*time.Minute))
	if err != nil {
		t.Fatalf("peek: %v", err)
	}
	if status.Remaining != 3 || status.MinutesUntilReset != 5 {
		t.Fatalf("expected reset projection 3/5m, got %d/%dm", status.Remaining, status.MinutesUntilReset)
	}
}

func TestEnforcerStorageFailure(t *testing.T) {
	ctx := context.Background()
	enforcer := NewEnforcer(failingLedger{}, audit.NewMemoryLog(), DefaultPolicy(), zap.NewNop())

	_, err := enforcer.Admit(ctx, domain.Identity{UserID: "u", Role: domain.RoleStudent}, 0, 0, ledgerBase)
	var domainErr *apperrors.DomainError
	if !errors.As(err, &domainErr) || domainErr.Code != "STORAGE_FAILURE" {
		t.Fatalf("expected STORAGE_FAILURE, got %v", err)
	}

	_, err = enforcer.Peek(ctx, domain.Identity{UserID: "u", Role: domain.RoleStudent}, ledgerBase)
	if !errors.As(err, &domainErr) || domainErr.Code != "STORAGE_FAILURE" {
		t.Fatalf("expected STORAGE_FAILURE, got %v", err)
	}
}

type failingLedger struct{}

func (failingLedger) TryConsume(context.Context, string, int, time.Duration, time.Time) (Outcome, error) {
	return Outcome{}, errors.New("ledger down")
}

func (failingLedger) Peek(context.Context, string, int, time.Duration, time.Time) (domain.QuotaRecord, error) {
	return domain.QuotaRecord{}, errors.New("ledger down")
}

func TestMinutesUntilReset(t *testing.T) {
	window := 5 * time.Minute
	tests := []struct {
		elapsed time.Duration
		want    int64
	}{
		{0, 5},
		{time.Minute, 4},
		{3 * time.Minute, 2},
		{3*time.Minute + 59*time.Second, 2},
		{5 * time.Minute, 0},
		{30 * time.Minute, 0},
	}
	for _, tc := range tests {
		if got := minutesUntilReset(ledgerBase, ledgerBase.Add(tc.elapsed), window); got != tc.want {
			t.Fatalf("elapsed %v: expected %d, got %d", tc.elapsed, tc.want, got)
		}
	}
}
