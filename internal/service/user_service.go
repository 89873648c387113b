package service

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/vinicaliel/SolarDetect-Fullstack/internal/domain"
	"github.com/vinicaliel/SolarDetect-Fullstack/internal/quota"
	"github.com/vinicaliel/SolarDetect-Fullstack/internal/repository"
	apperrors "github.com/vinicaliel/SolarDetect-Fullstack/pkg/util"
)

// UpdateProfileInput carries partial profile changes. Nil pointers mean
// "leave unchanged"; empty strings for phone/address are valid values.
type UpdateProfileInput struct {
	Name    string
	Email   string
	Phone   *string
	Address *string
}

// UserService serves the profile surface, including the quota status
// projection embedded in profile responses.
type UserService struct {
	users    repository.UserRepository
	enforcer *quota.Enforcer
	logs     repository.RequestLogRepository
}

// NewUserService builds the service. logs may be nil when no database is
// configured; History then reports an empty trail.
func NewUserService(users repository.UserRepository, enforcer *quota.Enforcer, logs repository.RequestLogRepository) *UserService {
	return &UserService{users: users, enforcer: enforcer, logs: logs}
}

// History returns the caller's most recent admitted calls, newest first.
func (s *UserService) History(ctx context.Context, identity domain.Identity, limit int) ([]domain.RequestLog, error) {
	if s.logs == nil {
		return nil, nil
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.logs.ListByUser(ctx, identity.UserID, limit)
}

// Profile returns the account and its current quota status. The underlying
// peek persists a lapsed-window reset, so the display never shows a stale
// exhausted counter.
func (s *UserService) Profile(ctx context.Context, identity domain.Identity, now time.Time) (*domain.User, quota.Status, error) {
	user, err := s.users.GetByID(ctx, identity.UserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, quota.Status{}, apperrors.NewNotFound("user", nil)
		}
		return nil, quota.Status{}, err
	}

	status, err := s.enforcer.Peek(ctx, identity, now)
	if err != nil {
		return nil, quota.Status{}, err
	}
	return user, status, nil
}

// UpdateProfile applies partial changes and returns the refreshed profile.
func (s *UserService) UpdateProfile(ctx context.Context, identity domain.Identity, input UpdateProfileInput, now time.Time) (*domain.User, quota.Status, error) {
	user, err := s.users.GetByID(ctx, identity.UserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, quota.Status{}, apperrors.NewNotFound("user", nil)
		}
		return nil, quota.Status{}, err
	}

	if input.Name != "" {
		user.Name = input.Name
	}
	if input.Email != "" && input.Email != user.Email {
		taken, err := s.users.ExistsByEmail(ctx, input.Email)
		if err != nil {
			return nil, quota.Status{}, err
		}
		if taken {
			return nil, quota.Status{}, apperrors.NewConflict("email already in use", nil)
		}
		user.Email = input.Email
	}
	if input.Phone != nil {
		user.Phone = *input.Phone
	}
	if input.Address != nil {
		user.Address = *input.Address
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, quota.Status{}, err
	}

	status, err := s.enforcer.Peek(ctx, identity, now)
	if err != nil {
		return nil, quota.Status{}, err
	}
	return user, status, nil
}
