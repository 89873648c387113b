package handlers

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/vinicaliel/SolarDetect-Fullstack/internal/api/dto"
	"github.com/vinicaliel/SolarDetect-Fullstack/internal/domain"
	"github.com/vinicaliel/SolarDetect-Fullstack/internal/service"
)

// AuthHandler exposes registration and login.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Name == "" || req.Email == "" || req.Password == "" || req.DocumentNumber == "" {
		return fiber.NewError(http.StatusBadRequest, "name, email, password, documentNumber required")
	}
	if len(req.Password) < 6 {
		return fiber.NewError(http.StatusBadRequest, "password must be at least 6 characters")
	}

	user, token, exp, err := h.auth.Register(c.Context(), service.RegisterInput{
		Name:           req.Name,
		Email:          req.Email,
		Password:       req.Password,
		DocumentNumber: req.DocumentNumber,
		Phone:          req.Phone,
		Address:        req.Address,
		Role:           domain.Role(req.UserType),
	})
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(authResponse(user, token, exp))
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Email == "" || req.Password == "" {
		return fiber.NewError(http.StatusBadRequest, "email and password required")
	}

	user, token, exp, err := h.auth.Login(c.Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(authResponse(user, token, exp))
}

func authResponse(user *domain.User, token string, exp time.Time) dto.AuthResponse {
	return dto.AuthResponse{
		Token:     token,
		Type:      "Bearer",
		Email:     user.Email,
		Name:      user.Name,
		UserType:  string(user.Role),
		UserID:    user.ID,
		ExpiresAt: exp,
	}
}
