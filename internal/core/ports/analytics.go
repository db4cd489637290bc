package ports

import (
	"context"

	"ton-payment-gateway/internal/core/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Metric identifiers for time-series and forecast queries.
const (
	MetricGMV             = "gmv"
	MetricFee             = "fee"
	MetricConversionRate  = "conversion_rate"
	MetricConfirmTime     = "confirm_time"
	MetricDirectShare     = "direct_share"
	MetricFailureShare    = "failure_share"
	MetricP95ConfirmTime  = "p95_confirm_time"
	MetricOrderValue      = "order_value"
	MetricRepeatRate      = "repeat_rate"
	MetricActiveMerchants = "active_merchants"
)

// AnalyticsQuery scopes an analytics call. A nil MerchantID means
// system-wide.
type AnalyticsQuery struct {
	MerchantID *uuid.UUID
	Window     Window
}

// Overview holds the point metrics for one window.
type Overview struct {
	TotalTransactions  int64           `json:"total_transactions"`
	GMV                decimal.Decimal `json:"gmv"`
	TotalFee           decimal.Decimal `json:"total_fee"`
	ConversionRate     float64         `json:"conversion_rate"` // percent, 0 when window is empty
	AvgConfirmMs       float64         `json:"avg_confirm_ms"`
	P95ConfirmMs       float64         `json:"p95_confirm_ms"`
	DirectDepositShare float64         `json:"direct_deposit_share"` // percent
	AOV                decimal.Decimal `json:"aov"`
	RepeatCustomerRate float64         `json:"repeat_customer_rate"` // percent
	FailureShare       float64         `json:"failure_share"`        // percent
	ActiveMerchants    int64           `json:"active_merchants"`
	NewMerchants       int64           `json:"new_merchants"` // system scope only
}

// SeriesPoint is one bucket of a time series. Date is "2006-01-02" for
// daily series and "2006-01" for monthly ones.
type SeriesPoint struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

// RetentionCohort measures, for one cohort month and offset, how many of
// the cohort's merchants transacted in that calendar month.
type RetentionCohort struct {
	CohortMonth            string  `json:"cohort_month"`
	MonthOffset            int     `json:"month_offset"`
	RetainedMerchants      int     `json:"retained_merchants"`
	TotalMerchantsInCohort int     `json:"total_merchants_in_cohort"`
	RetentionRate          float64 `json:"retention_rate"` // percent
}

// CohortCell is the non-normalized cohort heatmap cell: raw active-merchant
// counts per cohort month and offset.
type CohortCell struct {
	CohortMonth     string `json:"cohort_month"`
	MonthOffset     int    `json:"month_offset"`
	ActiveMerchants int    `json:"active_merchants"`
}

// Hotspot flags a merchant whose conversion rate or failure share is
// anomalous relative to the population.
type Hotspot struct {
	MerchantID        uuid.UUID `json:"merchant_id"`
	ConversionRate    float64   `json:"cr"`
	FailureShare      float64   `json:"failure_share"`
	TotalTransactions int64     `json:"total_transactions"`
}

// MerchantCluster is one merchant's k-means assignment with the raw feature
// values. Assignments are exploratory output, not stable identifiers.
type MerchantCluster struct {
	MerchantID         uuid.UUID `json:"merchant_id"`
	AOV                float64   `json:"aov"`
	ConversionRate     float64   `json:"conversion_rate"`
	DirectDepositShare float64   `json:"direct_deposit_share"`
	AvgConfirmMs       float64   `json:"avg_confirm_time"`
	Cluster            int       `json:"cluster"`
}

// Alert types.
const (
	AlertLowConversion    = "LOW_CONVERSION"
	AlertConversionDrop   = "CONVERSION_DROP"
	AlertSlowConfirmation = "SLOW_CONFIRMATION"
	AlertFailureSpike     = "FAILURE_SPIKE"
	AlertSystemConversion = "SYSTEM_LOW_CONVERSION"
)

// Alert is one triggered on-demand rule. MerchantID is nil for system-wide
// alerts.
type Alert struct {
	Type       string     `json:"type"`
	MerchantID *uuid.UUID `json:"merchant_id,omitempty"`
	Message    string     `json:"message"`
	Value      float64    `json:"value"`
	Threshold  float64    `json:"threshold"`
}

// ForecastResult pairs the historical series sent to the forecaster with
// the series it returned.
type ForecastResult struct {
	Metric   string        `json:"metric"`
	Model    string        `json:"model"`
	History  []SeriesPoint `json:"history"`
	Forecast []SeriesPoint `json:"forecast"`
}

// AnalyticsService is the read-only aggregation surface over the ledger.
type AnalyticsService interface {
	Overview(ctx context.Context, q AnalyticsQuery) (*Overview, error)
	DailySeries(ctx context.Context, metric string, q AnalyticsQuery) ([]SeriesPoint, error)
	RetentionCohorts(ctx context.Context) ([]RetentionCohort, error)
	NewMerchantCohorts(ctx context.Context) ([]CohortCell, error)
	Hotspots(ctx context.Context, q AnalyticsQuery) ([]Hotspot, error)
	Clusters(ctx context.Context, q AnalyticsQuery) ([]MerchantCluster, error)
	Alerts(ctx context.Context) ([]Alert, error)
	Heatmap(ctx context.Context, q AnalyticsQuery) ([]HeatmapCell, error)
	TopSlowest(ctx context.Context, q AnalyticsQuery, limit int) ([]domain.Transaction, error)
	Forecast(ctx context.Context, metric string, q AnalyticsQuery, model string, horizon int) (*ForecastResult, error)
}
