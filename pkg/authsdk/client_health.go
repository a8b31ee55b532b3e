package authsdk

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// ErrNotReady is returned by GetReadiness when a dependency check fails.
var ErrNotReady = errors.New("service not ready")

// GetLiveness checks if the service is alive.
func (c *SDKClient) GetLiveness(ctx context.Context) (*HealthResponse, error) {
	resp, err := c.doJSON(ctx, http.MethodGet, "/livez", "", nil)
	if err != nil {
		return nil, err
	}

	var health HealthResponse
	if err := decodeJSON(resp, &health, http.StatusOK); err != nil {
		return nil, err
	}

	return &health, nil
}

// GetReadiness checks if the service is ready. A degraded service answers
// 503 with the same body, which is returned together with the error.
func (c *SDKClient) GetReadiness(ctx context.Context) (*HealthResponse, error) {
	resp, err := c.doJSON(ctx, http.MethodGet, "/readyz", "", nil)
	if err != nil {
		return nil, err
	}

	var health HealthResponse
	if resp.StatusCode == http.StatusServiceUnavailable {
		err := decodeJSON(resp, &health, http.StatusServiceUnavailable)
		if err != nil {
			return nil, err
		}
		return &health, fmt.Errorf("%w: %s", ErrNotReady, health.Status)
	}
	if err := decodeJSON(resp, &health, http.StatusOK); err != nil {
		return nil, err
	}

	return &health, nil
}
