package service

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/vinicaliel/SolarDetect-Fullstack/internal/config"
	apperrors "github.com/vinicaliel/SolarDetect-Fullstack/pkg/util"
)

// PredictService calls the downstream prediction backend. It is the metered
// operation: only invoked after an admission, and its result is relayed to
// the caller unchanged.
type PredictService struct {
	baseURL string
	client  *http.Client
}

// NewPredictService builds the client.
func NewPredictService(cfg config.PredictConfig) *PredictService {
	return &PredictService{
		baseURL: cfg.BaseURL,
		client:  &http.Client{Timeout: cfg.Timeout()},
	}
}

// Detect fetches the detection image (PNG) for the given coordinates.
func (s *PredictService) Detect(ctx context.Context, lat, lon float64) ([]byte, error) {
	url := fmt.Sprintf("%s/predict?lat=%.6f&lon=%.6f", s.baseURL, lat, lon)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, apperrors.NewUpstreamError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.NewUpstreamError(fmt.Errorf("prediction backend returned %d", resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.NewUpstreamError(err)
	}
	return body, nil
}
