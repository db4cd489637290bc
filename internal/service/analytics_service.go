package service

import (
	"context"
	"fmt"

	"ton-payment-gateway/internal/core/domain"
	"ton-payment-gateway/internal/core/ports"
	"ton-payment-gateway/pkg/apperror"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const (
	dateLayout  = "2006-01-02"
	monthLayout = "2006-01"

	defaultSlowestLimit = 10
)

// AnalyticsServiceImpl implements ports.AnalyticsService: a read-only
// aggregation surface over the ledger. Heavy lifting (counts, sums,
// percentiles, bucketing) happens in SQL; cohort math, hotspot scoring,
// clustering and alert rules are computed here from the aggregates.
type AnalyticsServiceImpl struct {
	txRepo       ports.TransactionRepository
	merchantRepo ports.MerchantRepository
	forecast     ports.ForecastClient
	log          zerolog.Logger
}

// NewAnalyticsService creates a new AnalyticsServiceImpl.
func NewAnalyticsService(
	txRepo ports.TransactionRepository,
	merchantRepo ports.MerchantRepository,
	forecast ports.ForecastClient,
	log zerolog.Logger,
) *AnalyticsServiceImpl {
	return &AnalyticsServiceImpl{
		txRepo:       txRepo,
		merchantRepo: merchantRepo,
		forecast:     forecast,
		log:          log,
	}
}

// Overview computes every point metric for the window in two aggregate
// queries, plus active/new merchant counts for system scope.
func (s *AnalyticsServiceImpl) Overview(ctx context.Context, q ports.AnalyticsQuery) (*ports.Overview, error) {
	stats, err := s.txRepo.WindowStats(ctx, q.MerchantID, q.Window)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("window stats: %w", err))
	}

	customers, err := s.txRepo.CustomerCounts(ctx, q.MerchantID, q.Window)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("customer counts: %w", err))
	}

	o := &ports.Overview{
		TotalTransactions:  stats.Total,
		GMV:                stats.GMV,
		TotalFee:           stats.Fee,
		ConversionRate:     ratio(stats.Completed, stats.Total),
		AvgConfirmMs:       stats.AvgConfirmMs,
		P95ConfirmMs:       stats.P95ConfirmMs,
		DirectDepositShare: ratio(stats.Direct, stats.Completed),
		AOV:                averageOrderValue(stats.GMV, stats.Deposits),
		RepeatCustomerRate: repeatRate(customers),
		FailureShare:       ratio(stats.Failed, stats.Total),
	}

	if q.MerchantID == nil {
		active, err := s.txRepo.CountActiveMerchants(ctx, q.Window)
		if err != nil {
			return nil, apperror.InternalError(fmt.Errorf("active merchants: %w", err))
		}
		o.ActiveMerchants = active

		created, err := s.merchantRepo.CountCreatedBetween(ctx, q.Window)
		if err != nil {
			return nil, apperror.InternalError(fmt.Errorf("new merchants: %w", err))
		}
		o.NewMerchants = created
	}

	return o, nil
}

// DailySeries returns the daily bucketed form of one point metric, ordered
// by date.
func (s *AnalyticsServiceImpl) DailySeries(ctx context.Context, metric string, q ports.AnalyticsQuery) ([]ports.SeriesPoint, error) {
	switch metric {
	case ports.MetricGMV, ports.MetricFee, ports.MetricConversionRate,
		ports.MetricConfirmTime, ports.MetricP95ConfirmTime,
		ports.MetricDirectShare, ports.MetricFailureShare, ports.MetricOrderValue:
		days, err := s.txRepo.DailyStats(ctx, q.MerchantID, q.Window)
		if err != nil {
			return nil, apperror.InternalError(fmt.Errorf("daily stats: %w", err))
		}
		return dailyMetric(metric, days), nil

	case ports.MetricRepeatRate:
		rows, err := s.txRepo.CustomerDailyCounts(ctx, q.MerchantID, q.Window)
		if err != nil {
			return nil, apperror.InternalError(fmt.Errorf("customer daily counts: %w", err))
		}
		return dailyRepeatRate(rows), nil

	case ports.MetricActiveMerchants:
		rows, err := s.txRepo.ActiveMerchantsByDay(ctx, q.Window)
		if err != nil {
			return nil, apperror.InternalError(fmt.Errorf("active merchants by day: %w", err))
		}
		series := make([]ports.SeriesPoint, 0, len(rows))
		for _, r := range rows {
			series = append(series, ports.SeriesPoint{Date: r.Date.Format(dateLayout), Value: float64(r.Count)})
		}
		return series, nil

	default:
		return nil, apperror.Validation(fmt.Sprintf("unknown metric %q", metric))
	}
}

// Heatmap returns completed-transaction counts per (weekday, hour) slot.
func (s *AnalyticsServiceImpl) Heatmap(ctx context.Context, q ports.AnalyticsQuery) ([]ports.HeatmapCell, error) {
	cells, err := s.txRepo.HourlyHeatmap(ctx, q.MerchantID, q.Window)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("hourly heatmap: %w", err))
	}
	return cells, nil
}

// TopSlowest returns the completed deposits with the highest confirmation
// times in the window.
func (s *AnalyticsServiceImpl) TopSlowest(ctx context.Context, q ports.AnalyticsQuery, limit int) ([]domain.Transaction, error) {
	if limit < 1 {
		limit = defaultSlowestLimit
	}
	txs, err := s.txRepo.TopSlowest(ctx, q.MerchantID, q.Window, limit)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("top slowest: %w", err))
	}
	return txs, nil
}

func dailyMetric(metric string, days []ports.DailyStat) []ports.SeriesPoint {
	series := make([]ports.SeriesPoint, 0, len(days))
	for _, d := range days {
		var v float64
		switch metric {
		case ports.MetricGMV:
			v = d.GMV.InexactFloat64()
		case ports.MetricFee:
			v = d.Fee.InexactFloat64()
		case ports.MetricConversionRate:
			v = ratio(d.Completed, d.Total)
		case ports.MetricConfirmTime:
			v = d.AvgConfirmMs
		case ports.MetricP95ConfirmTime:
			v = d.P95ConfirmMs
		case ports.MetricDirectShare:
			v = ratio(d.Direct, d.Completed)
		case ports.MetricFailureShare:
			v = ratio(d.Failed, d.Total)
		case ports.MetricOrderValue:
			v = averageOrderValue(d.GMV, d.Deposits).InexactFloat64()
		}
		series = append(series, ports.SeriesPoint{Date: d.Date.Format(dateLayout), Value: v})
	}
	return series
}

func dailyRepeatRate(rows []ports.CustomerDailyCount) []ports.SeriesPoint {
	type bucket struct {
		distinct int64
		repeat   int64
	}
	byDay := make(map[string]*bucket)
	var order []string
	for _, r := range rows {
		day := r.Date.Format(dateLayout)
		b, ok := byDay[day]
		if !ok {
			b = &bucket{}
			byDay[day] = b
			order = append(order, day)
		}
		b.distinct++
		if r.Count > 1 {
			b.repeat++
		}
	}

	series := make([]ports.SeriesPoint, 0, len(order))
	for _, day := range order {
		b := byDay[day]
		series = append(series, ports.SeriesPoint{Date: day, Value: ratio(b.repeat, b.distinct)})
	}
	return series
}

// ratio returns part/whole as a percentage, 0 when whole is 0. The zero
// guard matters: an empty window yields 0, never NaN.
func ratio(part, whole int64) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100
}

func averageOrderValue(gmv decimal.Decimal, deposits int64) decimal.Decimal {
	if deposits == 0 {
		return decimal.Zero
	}
	return gmv.DivRound(decimal.NewFromInt(deposits), 9)
}

func repeatRate(customers []ports.CustomerCount) float64 {
	if len(customers) == 0 {
		return 0
	}
	var repeat int64
	for _, c := range customers {
		if c.Count > 1 {
			repeat++
		}
	}
	return ratio(repeat, int64(len(customers)))
}
