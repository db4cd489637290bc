package service

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"ton-payment-gateway/internal/core/ports"
	"ton-payment-gateway/pkg/apperror"
)

const (
	clusterK = 3
	// clusterMinTransactions excludes merchants with too little volume for
	// their feature averages to mean anything.
	clusterMinTransactions = 10
	clusterMaxIterations   = 100
	featureCount           = 4
)

// Clusters runs k-means (k=3) over four min-max-normalized per-merchant
// features: average order value, conversion rate, direct-deposit share and
// average confirmation time. Assignments are seeded randomly and therefore
// not stable across runs; treat them as exploratory output.
func (s *AnalyticsServiceImpl) Clusters(ctx context.Context, q ports.AnalyticsQuery) ([]ports.MerchantCluster, error) {
	stats, err := s.txRepo.MerchantStats(ctx, q.Window)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("merchant stats: %w", err))
	}

	var out []ports.MerchantCluster
	var points [][featureCount]float64
	for _, m := range stats {
		if m.Total <= clusterMinTransactions {
			continue
		}
		c := ports.MerchantCluster{
			MerchantID:         m.MerchantID,
			AOV:                averageOrderValue(m.GMV, m.Deposits).InexactFloat64(),
			ConversionRate:     ratio(m.Completed, m.Total),
			DirectDepositShare: ratio(m.Direct, m.Completed),
			AvgConfirmMs:       m.AvgConfirmMs,
		}
		out = append(out, c)
		points = append(points, [featureCount]float64{c.AOV, c.ConversionRate, c.DirectDepositShare, c.AvgConfirmMs})
	}
	if len(out) == 0 {
		return []ports.MerchantCluster{}, nil
	}

	normalized := minMaxNormalize(points)
	assignments := kMeans(normalized, clusterK)
	for i := range out {
		out[i].Cluster = assignments[i]
	}
	return out, nil
}

// minMaxNormalize scales each feature column into [0,1]. A constant column
// normalizes to 0.
func minMaxNormalize(points [][featureCount]float64) [][featureCount]float64 {
	var lo, hi [featureCount]float64
	for f := 0; f < featureCount; f++ {
		lo[f] = math.Inf(1)
		hi[f] = math.Inf(-1)
	}
	for _, p := range points {
		for f := 0; f < featureCount; f++ {
			lo[f] = math.Min(lo[f], p[f])
			hi[f] = math.Max(hi[f], p[f])
		}
	}

	normalized := make([][featureCount]float64, len(points))
	for i, p := range points {
		for f := 0; f < featureCount; f++ {
			if span := hi[f] - lo[f]; span > 0 {
				normalized[i][f] = (p[f] - lo[f]) / span
			}
		}
	}
	return normalized
}

// kMeans assigns each point to one of k clusters. Centroids are seeded from
// random distinct points; iteration stops on convergence or after
// clusterMaxIterations.
func kMeans(points [][featureCount]float64, k int) []int {
	n := len(points)
	assignments := make([]int, n)
	if n <= k {
		for i := range assignments {
			assignments[i] = i
		}
		return assignments
	}

	centroids := make([][featureCount]float64, k)
	for i, idx := range rand.Perm(n)[:k] {
		centroids[i] = points[idx]
	}

	for iter := 0; iter < clusterMaxIterations; iter++ {
		changed := false
		for i, p := range points {
			best := 0
			bestDist := math.Inf(1)
			for c, centroid := range centroids {
				if d := squaredDistance(p, centroid); d < bestDist {
					bestDist = d
					best = c
				}
			}
			if assignments[i] != best {
				assignments[i] = best
				changed = true
			}
		}
		if !changed {
			break
		}

		sums := make([][featureCount]float64, k)
		counts := make([]int, k)
		for i, p := range points {
			c := assignments[i]
			counts[c]++
			for f := 0; f < featureCount; f++ {
				sums[c][f] += p[f]
			}
		}
		for c := 0; c < k; c++ {
			if counts[c] == 0 {
				// Re-seed an empty cluster from a random point.
				centroids[c] = points[rand.Intn(n)]
				continue
			}
			for f := 0; f < featureCount; f++ {
				centroids[c][f] = sums[c][f] / float64(counts[c])
			}
		}
	}
	return assignments
}

func squaredDistance(a, b [featureCount]float64) float64 {
	var sum float64
	for f := 0; f < featureCount; f++ {
		d := a[f] - b[f]
		sum += d * d
	}
	return sum
}
