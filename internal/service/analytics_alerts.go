package service

import (
	"context"
	"fmt"
	"time"

	"ton-payment-gateway/internal/core/ports"
	"ton-payment-gateway/pkg/apperror"
)

// Alert rule thresholds.
const (
	alertConversionThreshold       = 70.0
	alertConversionDropThreshold   = 15.0
	alertP95ConfirmThresholdMs     = 120_000.0
	alertFailureSpikeFactor        = 2.0
	alertSystemConversionThreshold = 80.0
	alertTrailingDays              = 7
)

// Alerts evaluates the on-demand alert rules: four per-merchant rules over
// today's figures and one system-wide conversion floor. This is a
// synchronous computation, not a background monitor.
func (s *AnalyticsServiceImpl) Alerts(ctx context.Context) ([]ports.Alert, error) {
	now := time.Now().UTC()
	today := ports.Window{StartDate: dayStart(now), EndDate: now}
	yesterday := ports.Window{StartDate: dayStart(now).AddDate(0, 0, -1), EndDate: dayStart(now)}
	trailing := ports.Window{StartDate: dayStart(now).AddDate(0, 0, -alertTrailingDays), EndDate: dayStart(now)}

	todayStats, err := s.txRepo.MerchantStats(ctx, today)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("today merchant stats: %w", err))
	}
	yesterdayStats, err := s.txRepo.MerchantStats(ctx, yesterday)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("yesterday merchant stats: %w", err))
	}
	trailingStats, err := s.txRepo.MerchantStats(ctx, trailing)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("trailing merchant stats: %w", err))
	}

	yesterdayCR := make(map[string]float64, len(yesterdayStats))
	for _, m := range yesterdayStats {
		yesterdayCR[m.MerchantID.String()] = ratio(m.Completed, m.Total)
	}
	trailingFailures := make(map[string]float64, len(trailingStats))
	for _, m := range trailingStats {
		trailingFailures[m.MerchantID.String()] = float64(m.Failed) / alertTrailingDays
	}

	var alerts []ports.Alert
	for _, m := range todayStats {
		id := m.MerchantID
		cr := ratio(m.Completed, m.Total)

		if cr < alertConversionThreshold {
			alerts = append(alerts, ports.Alert{
				Type:       ports.AlertLowConversion,
				MerchantID: &id,
				Message:    fmt.Sprintf("conversion rate %.1f%% below %.0f%%", cr, alertConversionThreshold),
				Value:      cr,
				Threshold:  alertConversionThreshold,
			})
		}

		if prev, ok := yesterdayCR[id.String()]; ok {
			if drop := prev - cr; drop > alertConversionDropThreshold {
				alerts = append(alerts, ports.Alert{
					Type:       ports.AlertConversionDrop,
					MerchantID: &id,
					Message:    fmt.Sprintf("conversion rate dropped %.1f points day-over-day", drop),
					Value:      drop,
					Threshold:  alertConversionDropThreshold,
				})
			}
		}

		if m.P95ConfirmMs > alertP95ConfirmThresholdMs {
			alerts = append(alerts, ports.Alert{
				Type:       ports.AlertSlowConfirmation,
				MerchantID: &id,
				Message:    fmt.Sprintf("p95 confirmation time %.0fms above %.0fms", m.P95ConfirmMs, alertP95ConfirmThresholdMs),
				Value:      m.P95ConfirmMs,
				Threshold:  alertP95ConfirmThresholdMs,
			})
		}

		if daily, ok := trailingFailures[id.String()]; ok && daily > 0 {
			if float64(m.Failed) > alertFailureSpikeFactor*daily {
				alerts = append(alerts, ports.Alert{
					Type:       ports.AlertFailureSpike,
					MerchantID: &id,
					Message:    fmt.Sprintf("%d failures today vs %.1f daily average", m.Failed, daily),
					Value:      float64(m.Failed),
					Threshold:  alertFailureSpikeFactor * daily,
				})
			}
		}
	}

	system, err := s.txRepo.WindowStats(ctx, nil, today)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("system window stats: %w", err))
	}
	if system.Total > 0 {
		if cr := ratio(system.Completed, system.Total); cr < alertSystemConversionThreshold {
			alerts = append(alerts, ports.Alert{
				Type:      ports.AlertSystemConversion,
				Message:   fmt.Sprintf("system conversion rate %.1f%% below %.0f%%", cr, alertSystemConversionThreshold),
				Value:     cr,
				Threshold: alertSystemConversionThreshold,
			})
		}
	}

	return alerts, nil
}

func dayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
