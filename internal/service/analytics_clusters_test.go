package service

import (
	"context"
	"testing"

	"ton-payment-gateway/internal/core/ports"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func merchantStat(total, completed, direct int64, gmv string, confirmMs float64) ports.MerchantStat {
	return ports.MerchantStat{
		MerchantID:   uuid.New(),
		Total:        total,
		Completed:    completed,
		Deposits:     completed,
		Direct:       direct,
		GMV:          decimal.RequireFromString(gmv),
		AvgConfirmMs: confirmMs,
	}
}

func TestClusters_ExcludesLowVolumeMerchants(t *testing.T) {
	f := newAnalyticsFixture()

	stats := []ports.MerchantStat{
		merchantStat(5, 5, 0, "10", 100),   // at most 10 txs: excluded
		merchantStat(10, 9, 1, "20", 200),  // exactly 10: still excluded
		merchantStat(11, 10, 2, "30", 300), // included
	}
	f.txRepo.On("MerchantStats", mock.Anything, ports.Window{}).Return(stats, nil)

	clusters, err := f.svc.Clusters(context.Background(), ports.AnalyticsQuery{})

	assert.NoError(t, err)
	assert.Len(t, clusters, 1)
	assert.Equal(t, stats[2].MerchantID, clusters[0].MerchantID)
}

func TestClusters_AssignsEveryMerchantToValidCluster(t *testing.T) {
	f := newAnalyticsFixture()

	var stats []ports.MerchantStat
	for i := 0; i < 12; i++ {
		stats = append(stats, merchantStat(int64(20+i*5), int64(15+i*4), int64(i), "100", float64(500+i*250)))
	}
	f.txRepo.On("MerchantStats", mock.Anything, ports.Window{}).Return(stats, nil)

	clusters, err := f.svc.Clusters(context.Background(), ports.AnalyticsQuery{})

	assert.NoError(t, err)
	assert.Len(t, clusters, 12)
	for _, c := range clusters {
		assert.GreaterOrEqual(t, c.Cluster, 0)
		assert.Less(t, c.Cluster, clusterK)
	}
}

func TestKMeans_IdenticalPointsShareOneCluster(t *testing.T) {
	points := make([][featureCount]float64, 8)
	for i := range points {
		points[i] = [featureCount]float64{0.5, 0.5, 0.5, 0.5}
	}

	assignments := kMeans(points, 3)

	for _, a := range assignments[1:] {
		assert.Equal(t, assignments[0], a)
	}
}

func TestKMeans_FewerPointsThanClusters(t *testing.T) {
	points := [][featureCount]float64{{0, 0, 0, 0}, {1, 1, 1, 1}}

	assignments := kMeans(points, 3)

	assert.Equal(t, []int{0, 1}, assignments)
}

func TestMinMaxNormalize_ConstantColumn(t *testing.T) {
	points := [][featureCount]float64{
		{5, 0, 7, 1},
		{5, 10, 3, 2},
	}

	normalized := minMaxNormalize(points)

	// Constant first column collapses to 0; the rest scale into [0,1].
	assert.Equal(t, 0.0, normalized[0][0])
	assert.Equal(t, 0.0, normalized[1][0])
	assert.Equal(t, 0.0, normalized[0][1])
	assert.Equal(t, 1.0, normalized[1][1])
	assert.Equal(t, 1.0, normalized[0][2])
	assert.Equal(t, 0.0, normalized[1][2])
}
