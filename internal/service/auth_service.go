package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/vinicaliel/SolarDetect-Fullstack/internal/auth"
	"github.com/vinicaliel/SolarDetect-Fullstack/internal/config"
	"github.com/vinicaliel/SolarDetect-Fullstack/internal/domain"
	"github.com/vinicaliel/SolarDetect-Fullstack/internal/repository"
	apperrors "github.com/vinicaliel/SolarDetect-Fullstack/pkg/util"
)

// RegisterInput carries the registration payload. Role is mandatory so every
// account has a quota class from the start.
type RegisterInput struct {
	Name           string
	Email          string
	Password       string
	DocumentNumber string
	Phone          string
	Address        string
	Role           domain.Role
}

// AuthService coordinates registration and login flows.
type AuthService struct {
	users      repository.UserRepository
	codec      *auth.TokenCodec
	bcryptCost int
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, users repository.UserRepository) *AuthService {
	return &AuthService{
		users:      users,
		codec:      auth.NewTokenCodec(cfg.JWTSecret, cfg.TokenTTL()),
		bcryptCost: cfg.BcryptCost,
	}
}

// Register creates an account and issues its first token.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*domain.User, string, time.Time, error) {
	if !input.Role.Valid() {
		return nil, "", time.Time{}, apperrors.NewValidationError("userType must be STUDENT or COMPANY", nil)
	}

	if _, err := s.users.GetByEmail(ctx, input.Email); err == nil {
		return nil, "", time.Time{}, apperrors.NewConflict("email already registered", nil)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, "", time.Time{}, err
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, "", time.Time{}, err
	}

	user := &domain.User{
		ID:             uuid.NewString(),
		Name:           input.Name,
		Email:          input.Email,
		PasswordHash:   hash,
		DocumentNumber: input.DocumentNumber,
		Phone:          input.Phone,
		Address:        input.Address,
		Role:           input.Role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, "", time.Time{}, err
	}

	token, exp, err := s.codec.Issue(domain.Identity{UserID: user.ID, Role: user.Role}, time.Now())
	if err != nil {
		return nil, "", time.Time{}, err
	}
	return user, token, exp, nil
}

// Login verifies credentials and issues a fresh token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, string, time.Time, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, "", time.Time{}, err
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}

	token, exp, err := s.codec.Issue(domain.Identity{UserID: user.ID, Role: user.Role}, time.Now())
	if err != nil {
		return nil, "", time.Time{}, err
	}
	return user, token, exp, nil
}

// Codec exposes the token codec for middleware wiring.
func (s *AuthService) Codec() *auth.TokenCodec {
	return s.codec
}
