package service

import (
	"context"
	"errors"
	"testing"

	"ton-payment-gateway/internal/core/ports"
	"ton-payment-gateway/pkg/apperror"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func gmvDays(values ...float64) []ports.DailyStat {
	days := make([]ports.DailyStat, 0, len(values))
	start := day("2026-08-01")
	for i, v := range values {
		days = append(days, ports.DailyStat{
			Date: start.AddDate(0, 0, i),
			GMV:  decimal.NewFromFloat(v),
			Fee:  decimal.Zero,
		})
	}
	return days
}

func TestForecast_DelegatesToCollaborator(t *testing.T) {
	f := newAnalyticsFixture()
	f.txRepo.On("DailyStats", mock.Anything, (*uuid.UUID)(nil), ports.Window{}).Return(gmvDays(10, 20, 30), nil)

	want := []ports.SeriesPoint{{Date: "2026-08-04", Value: 25}}
	f.forecast.On("Forecast", mock.Anything, mock.MatchedBy(func(req ports.ForecastRequest) bool {
		return req.Model == "holt_winters" && req.Horizon == 14 && len(req.Points) == 3
	})).Return(want, nil)

	result, err := f.svc.Forecast(context.Background(), ports.MetricGMV, ports.AnalyticsQuery{}, "holt_winters", 14)

	assert.NoError(t, err)
	assert.Equal(t, "holt_winters", result.Model)
	assert.Equal(t, want, result.Forecast)
	assert.Len(t, result.History, 3)
}

func TestForecast_CollaboratorFailure(t *testing.T) {
	f := newAnalyticsFixture()
	f.txRepo.On("DailyStats", mock.Anything, (*uuid.UUID)(nil), ports.Window{}).Return(gmvDays(10, 20), nil)
	f.forecast.On("Forecast", mock.Anything, mock.Anything).Return(nil, errors.New("model server down"))

	_, err := f.svc.Forecast(context.Background(), ports.MetricGMV, ports.AnalyticsQuery{}, "sarima", 7)

	var appErr *apperror.AppError
	assert.ErrorAs(t, err, &appErr)
	assert.Equal(t, "CHAIN_003", appErr.Code)
}

func TestForecast_MovingAverageFallback(t *testing.T) {
	f := newAnalyticsFixture()
	f.txRepo.On("DailyStats", mock.Anything, (*uuid.UUID)(nil), ports.Window{}).Return(gmvDays(10, 20, 30), nil)

	result, err := f.svc.Forecast(context.Background(), ports.MetricGMV, ports.AnalyticsQuery{}, "", 3)

	assert.NoError(t, err)
	assert.Equal(t, fallbackModel, result.Model)
	assert.Len(t, result.Forecast, 3)
	for i, p := range result.Forecast {
		assert.InDelta(t, 20.0, p.Value, 0.001)
		assert.Equal(t, day("2026-08-03").AddDate(0, 0, i+1).Format(dateLayout), p.Date)
	}
	f.forecast.AssertNotCalled(t, "Forecast", mock.Anything, mock.Anything)
}

func TestForecast_EmptyHistoryFallback(t *testing.T) {
	f := newAnalyticsFixture()
	f.txRepo.On("DailyStats", mock.Anything, (*uuid.UUID)(nil), ports.Window{}).Return([]ports.DailyStat{}, nil)

	result, err := f.svc.Forecast(context.Background(), ports.MetricGMV, ports.AnalyticsQuery{}, "", 5)

	assert.NoError(t, err)
	assert.Empty(t, result.Forecast)
}

func TestForecast_HorizonBounds(t *testing.T) {
	f := newAnalyticsFixture()

	_, err := f.svc.Forecast(context.Background(), ports.MetricGMV, ports.AnalyticsQuery{}, "", maxForecastHorizon+1)

	assert.Error(t, err)
	f.txRepo.AssertNotCalled(t, "DailyStats", mock.Anything, mock.Anything, mock.Anything)
}
