package handlers

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/vinicaliel/SolarDetect-Fullstack/internal/api/dto"
	"github.com/vinicaliel/SolarDetect-Fullstack/internal/auth"
	"github.com/vinicaliel/SolarDetect-Fullstack/internal/domain"
	"github.com/vinicaliel/SolarDetect-Fullstack/internal/quota"
	"github.com/vinicaliel/SolarDetect-Fullstack/internal/service"
)

// UserHandler exposes the profile surface.
type UserHandler struct {
	users *service.UserService
}

// NewUserHandler constructs the handler.
func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{users: userService}
}

// Profile handles GET /api/user/profile.
func (h *UserHandler) Profile(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
	}

	user, status, err := h.users.Profile(c.Context(), identity, time.Now())
	if err != nil {
		return err
	}
	return c.JSON(profileResponse(user, status))
}

// UpdateProfile handles PUT /api/user/profile.
func (h *UserHandler) UpdateProfile(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
	}

	var req dto.UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	user, status, err := h.users.UpdateProfile(c.Context(), identity, service.UpdateProfileInput{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Address: req.Address,
	}, time.Now())
	if err != nil {
		return err
	}
	return c.JSON(profileResponse(user, status))
}

// History handles GET /api/user/requests.
func (h *UserHandler) History(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
	}

	entries, err := h.users.History(c.Context(), identity, c.QueryInt("limit", 20))
	if err != nil {
		return err
	}

	items := make([]dto.RequestLogEntry, 0, len(entries))
	for _, e := range entries {
		items = append(items, dto.RequestLogEntry{
			RequestedAt: e.RequestedAt,
			Latitude:    e.Latitude,
			Longitude:   e.Longitude,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

func profileResponse(user *domain.User, status quota.Status) dto.UserProfileResponse {
	return dto.UserProfileResponse{
		ID:             user.ID,
		Email:          user.Email,
		Name:           user.Name,
		UserType:       string(user.Role),
		DocumentNumber: user.DocumentNumber,
		Phone:          user.Phone,
		Address:        user.Address,
		Quota: dto.QuotaInfo{
			RemainingRequests: status.Remaining,
			TotalQuota:        status.TotalQuota,
			LastResetTime:     status.WindowStart,
			MinutesUntilReset: status.MinutesUntilReset,
		},
	}
}
