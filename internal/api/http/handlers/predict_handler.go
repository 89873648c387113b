package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/vinicaliel/SolarDetect-Fullstack/internal/api/dto"
	"github.com/vinicaliel/SolarDetect-Fullstack/internal/auth"
	"github.com/vinicaliel/SolarDetect-Fullstack/internal/quota"
)

// Predictor is the metered downstream operation.
type Predictor interface {
	Detect(ctx context.Context, lat, lon float64) ([]byte, error)
}

// PredictHandler gates the prediction proxy behind the quota enforcer.
type PredictHandler struct {
	enforcer  *quota.Enforcer
	predictor Predictor
}

// NewPredictHandler constructs the handler.
func NewPredictHandler(enforcer *quota.Enforcer, predictor Predictor) *PredictHandler {
	return &PredictHandler{enforcer: enforcer, predictor: predictor}
}

// Get handles GET /api/predict?lat=&lon=.
func (h *PredictHandler) Get(c *fiber.Ctx) error {
	lat, err := strconv.ParseFloat(c.Query("lat"), 64)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "lat is required")
	}
	lon, err := strconv.ParseFloat(c.Query("lon"), 64)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "lon is required")
	}
	return h.predict(c, lat, lon)
}

// Detect handles POST /api/predict/detect.
func (h *PredictHandler) Detect(c *fiber.Ctx) error {
	var req dto.DetectRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Lat == nil || req.Lon == nil {
		return fiber.NewError(http.StatusBadRequest, "lat and lon are required")
	}
	return h.predict(c, *req.Lat, *req.Lon)
}

// predict runs the admit-then-call sequence. A rejected call never reaches
// the predictor; an admitted call's quota unit stays spent even if the
// downstream call fails afterwards.
func (h *PredictHandler) predict(c *fiber.Ctx, lat, lon float64) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
	}

	admission, err := h.enforcer.Admit(c.UserContext(), identity, lat, lon, time.Now())
	if err != nil {
		return err
	}

	image, err := h.predictor.Detect(c.UserContext(), lat, lon)
	if err != nil {
		return err
	}

	c.Set(fiber.HeaderContentType, "image/png")
	c.Set("X-Quota-Remaining", strconv.Itoa(admission.Remaining))
	return c.Send(image)
}
