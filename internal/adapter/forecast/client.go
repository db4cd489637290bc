package forecast

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"ton-payment-gateway/config"
	"ton-payment-gateway/internal/core/ports"

	"github.com/rs/zerolog"
)

// Client implements ports.ForecastClient against the external forecasting
// service. The service owns the models; this client only ships history and
// receives projected points.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        zerolog.Logger
}

// NewClient creates a forecasting service client.
func NewClient(cfg config.ForecastConfig, log zerolog.Logger) *Client {
	return &Client{
		baseURL:    cfg.URL,
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		log:        log.With().Str("component", "forecast_client").Logger(),
	}
}

type forecastResponse struct {
	Forecast []ports.SeriesPoint `json:"forecast"`
}

// Forecast sends the history to the forecasting service and returns the
// projected points.
func (c *Client) Forecast(ctx context.Context, req ports.ForecastRequest) ([]ports.SeriesPoint, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal forecast request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/forecast", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build forecast request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("execute forecast request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("forecast api status %d: %s", resp.StatusCode, string(raw))
	}

	var out forecastResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode forecast response: %w", err)
	}
	return out.Forecast, nil
}
