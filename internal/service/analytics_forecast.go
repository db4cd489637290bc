package service

import (
	"context"
	"fmt"
	"time"

	"ton-payment-gateway/internal/core/ports"
	"ton-payment-gateway/pkg/apperror"
)

const (
	defaultForecastHorizon = 7
	maxForecastHorizon     = 90
	movingAverageWindow    = 7
	fallbackModel          = "moving_average"
)

// Forecast builds the historical daily series for a metric and delegates
// the actual forecasting to the external service. With no model specified
// it falls back to a trivial in-process moving average instead of calling
// out.
func (s *AnalyticsServiceImpl) Forecast(ctx context.Context, metric string, q ports.AnalyticsQuery, model string, horizon int) (*ports.ForecastResult, error) {
	if horizon < 1 {
		horizon = defaultForecastHorizon
	}
	if horizon > maxForecastHorizon {
		return nil, apperror.Validation(fmt.Sprintf("horizon must be at most %d days", maxForecastHorizon))
	}

	history, err := s.DailySeries(ctx, metric, q)
	if err != nil {
		return nil, err
	}

	if model == "" {
		return &ports.ForecastResult{
			Metric:   metric,
			Model:    fallbackModel,
			History:  history,
			Forecast: movingAverageForecast(history, horizon),
		}, nil
	}

	forecast, err := s.forecast.Forecast(ctx, ports.ForecastRequest{
		Points:  history,
		Model:   model,
		Horizon: horizon,
	})
	if err != nil {
		return nil, apperror.ErrForecastUnavailable(fmt.Errorf("forecast %s: %w", metric, err))
	}

	return &ports.ForecastResult{
		Metric:   metric,
		Model:    model,
		History:  history,
		Forecast: forecast,
	}, nil
}

// movingAverageForecast projects the trailing average of the last
// movingAverageWindow points flat across the horizon, one point per day.
func movingAverageForecast(history []ports.SeriesPoint, horizon int) []ports.SeriesPoint {
	if len(history) == 0 {
		return []ports.SeriesPoint{}
	}

	window := history
	if len(window) > movingAverageWindow {
		window = window[len(window)-movingAverageWindow:]
	}
	var sum float64
	for _, p := range window {
		sum += p.Value
	}
	avg := sum / float64(len(window))

	last, err := time.Parse(dateLayout, history[len(history)-1].Date)
	if err != nil {
		last = time.Now().UTC()
	}

	out := make([]ports.SeriesPoint, 0, horizon)
	for i := 1; i <= horizon; i++ {
		out = append(out, ports.SeriesPoint{
			Date:  last.AddDate(0, 0, i).Format(dateLayout),
			Value: avg,
		})
	}
	return out
}
