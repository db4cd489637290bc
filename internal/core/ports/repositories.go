package ports

import (
	"context"
	"errors"
	"time"

	"ton-payment-gateway/internal/core/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrDuplicateHash is returned by TransactionRepository.Create when the
// reference hash already exists. Callers treat it as an ordinary duplicate,
// not a failure: the unique constraint is the final backstop against
// concurrent redelivery racing past the lookup.
var ErrDuplicateHash = errors.New("transaction hash already exists")

// MerchantRepository defines persistence operations for merchants.
// Read methods exclude soft-deleted merchants and return (nil, nil) when
// no row matches.
type MerchantRepository interface {
	Create(ctx context.Context, merchant *domain.Merchant) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Merchant, error)
	GetByAddress(ctx context.Context, address string) (*domain.Merchant, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Merchant, error)
	Update(ctx context.Context, merchant *domain.Merchant) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
	CountCreatedBetween(ctx context.Context, window Window) (int64, error)
}

// AddressRepository defines persistence operations for generated sub-addresses.
type AddressRepository interface {
	Create(ctx context.Context, address *domain.Address) error
	// GetByAddress loads the address with its owning merchant populated.
	// Returns (nil, nil) when no row matches.
	GetByAddress(ctx context.Context, address string) (*domain.Address, error)
	ListByMerchant(ctx context.Context, merchantID uuid.UUID) ([]domain.Address, error)
}

// TransactionRepository defines persistence and reporting operations over
// the append-only ledger. Entries are inserted exactly once and never
// updated or deleted.
type TransactionRepository interface {
	// Create inserts a ledger entry. Returns ErrDuplicateHash when the
	// reference hash is already booked.
	Create(ctx context.Context, tx *domain.Transaction) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)
	GetByHash(ctx context.Context, hash string) (*domain.Transaction, error)
	List(ctx context.Context, params TransactionListParams) ([]domain.Transaction, int64, error)

	// SumNetAmount returns SUM(amount - service_fee) across every entry of
	// the merchant, zero when the merchant has no entries.
	SumNetAmount(ctx context.Context, merchantID uuid.UUID) (decimal.Decimal, error)

	// Aggregate queries backing the analytics engine. A nil merchantID means
	// system-wide scope.
	WindowStats(ctx context.Context, merchantID *uuid.UUID, window Window) (*WindowStats, error)
	DailyStats(ctx context.Context, merchantID *uuid.UUID, window Window) ([]DailyStat, error)
	MerchantStats(ctx context.Context, window Window) ([]MerchantStat, error)
	CustomerCounts(ctx context.Context, merchantID *uuid.UUID, window Window) ([]CustomerCount, error)
	CustomerDailyCounts(ctx context.Context, merchantID *uuid.UUID, window Window) ([]CustomerDailyCount, error)
	HourlyHeatmap(ctx context.Context, merchantID *uuid.UUID, window Window) ([]HeatmapCell, error)
	TopSlowest(ctx context.Context, merchantID *uuid.UUID, window Window, limit int) ([]domain.Transaction, error)
	FirstActivityMonths(ctx context.Context) ([]MerchantMonth, error)
	ActivityMonths(ctx context.Context) ([]MerchantMonth, error)
	CountActiveMerchants(ctx context.Context, window Window) (int64, error)
	ActiveMerchantsByDay(ctx context.Context, window Window) ([]DatedCount, error)
}

// Window bounds a reporting query. Zero values mean unbounded on that side.
type Window struct {
	StartDate time.Time
	EndDate   time.Time
}

// TransactionListParams holds filter + pagination for listing ledger entries.
type TransactionListParams struct {
	MerchantID      uuid.UUID
	Status          *domain.TransactionStatus
	IsDirectDeposit *bool
	Window          Window
	Page            int
	PageSize        int
}

// WindowStats holds single-pass aggregates over a window. Counts cover all
// ledger entries; Deposits, Direct, GMV, Fee and the confirmation-time
// figures cover completed deposits only.
type WindowStats struct {
	Total        int64
	Completed    int64
	Failed       int64
	Deposits     int64 // completed entries with a positive amount
	Direct       int64 // completed direct deposits
	GMV          decimal.Decimal
	Fee          decimal.Decimal
	AvgConfirmMs float64
	P95ConfirmMs float64
}

// DailyStat is one day's worth of WindowStats.
type DailyStat struct {
	Date         time.Time
	Total        int64
	Completed    int64
	Failed       int64
	Deposits     int64
	Direct       int64
	GMV          decimal.Decimal
	Fee          decimal.Decimal
	AvgConfirmMs float64
	P95ConfirmMs float64
}

// MerchantStat holds per-merchant aggregates used for hotspot detection,
// clustering and alerting.
type MerchantStat struct {
	MerchantID   uuid.UUID
	Total        int64
	Completed    int64
	Failed       int64
	Deposits     int64
	Direct       int64
	GMV          decimal.Decimal
	AvgConfirmMs float64
	P95ConfirmMs float64
}

// CustomerCount is the number of completed direct deposits carrying one
// metadata correlation key within a window.
type CustomerCount struct {
	Metadata string
	Count    int64
}

// CustomerDailyCount is CustomerCount bucketed by day.
type CustomerDailyCount struct {
	Date     time.Time
	Metadata string
	Count    int64
}

// HeatmapCell is a transaction count for one (weekday, hour) slot.
type HeatmapCell struct {
	Day   int // 0 = Sunday
	Hour  int
	Count int64
}

// MerchantMonth pairs a merchant with a truncated calendar month.
type MerchantMonth struct {
	MerchantID uuid.UUID
	Month      time.Time
}

// DatedCount is a per-day counter.
type DatedCount struct {
	Date  time.Time
	Count int64
}
