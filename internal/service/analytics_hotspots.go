package service

import (
	"context"
	"fmt"
	"sort"

	"ton-payment-gateway/internal/core/ports"
	"ton-payment-gateway/pkg/apperror"
)

const (
	// hotspotConversionThreshold flags merchants converting below this rate.
	hotspotConversionThreshold = 70.0
	// hotspotFailureFactor flags merchants whose failure share exceeds this
	// multiple of the population average.
	hotspotFailureFactor = 2.0
)

// Hotspots flags merchants whose conversion rate or failure share is
// anomalous relative to the population, sorted worst-first.
func (s *AnalyticsServiceImpl) Hotspots(ctx context.Context, q ports.AnalyticsQuery) ([]ports.Hotspot, error) {
	stats, err := s.txRepo.MerchantStats(ctx, q.Window)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("merchant stats: %w", err))
	}
	if len(stats) == 0 {
		return []ports.Hotspot{}, nil
	}

	var avgFailure float64
	for _, m := range stats {
		avgFailure += ratio(m.Failed, m.Total)
	}
	avgFailure /= float64(len(stats))

	var out []ports.Hotspot
	for _, m := range stats {
		cr := ratio(m.Completed, m.Total)
		failure := ratio(m.Failed, m.Total)
		if cr < hotspotConversionThreshold || (avgFailure > 0 && failure > hotspotFailureFactor*avgFailure) {
			out = append(out, ports.Hotspot{
				MerchantID:        m.MerchantID,
				ConversionRate:    cr,
				FailureShare:      failure,
				TotalTransactions: m.Total,
			})
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].ConversionRate != out[j].ConversionRate {
			return out[i].ConversionRate < out[j].ConversionRate
		}
		return out[i].FailureShare > out[j].FailureShare
	})
	return out, nil
}
