package service

import (
	"context"
	"net/http"
	"time"

	"ton-payment-gateway/internal/core/domain"
	"ton-payment-gateway/internal/core/ports"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// MockTransactionRepository is a mock implementation of ports.TransactionRepository.
type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) Create(ctx context.Context, tx *domain.Transaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockTransactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) GetByHash(ctx context.Context, hash string) (*domain.Transaction, error) {
	args := m.Called(ctx, hash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) List(ctx context.Context, params ports.TransactionListParams) ([]domain.Transaction, int64, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]domain.Transaction), args.Get(1).(int64), args.Error(2)
}

func (m *MockTransactionRepository) SumNetAmount(ctx context.Context, merchantID uuid.UUID) (decimal.Decimal, error) {
	args := m.Called(ctx, merchantID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockTransactionRepository) WindowStats(ctx context.Context, merchantID *uuid.UUID, window ports.Window) (*ports.WindowStats, error) {
	args := m.Called(ctx, merchantID, window)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.WindowStats), args.Error(1)
}

func (m *MockTransactionRepository) DailyStats(ctx context.Context, merchantID *uuid.UUID, window ports.Window) ([]ports.DailyStat, error) {
	args := m.Called(ctx, merchantID, window)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ports.DailyStat), args.Error(1)
}

func (m *MockTransactionRepository) MerchantStats(ctx context.Context, window ports.Window) ([]ports.MerchantStat, error) {
	args := m.Called(ctx, window)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ports.MerchantStat), args.Error(1)
}

func (m *MockTransactionRepository) CustomerCounts(ctx context.Context, merchantID *uuid.UUID, window ports.Window) ([]ports.CustomerCount, error) {
	args := m.Called(ctx, merchantID, window)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ports.CustomerCount), args.Error(1)
}

func (m *MockTransactionRepository) CustomerDailyCounts(ctx context.Context, merchantID *uuid.UUID, window ports.Window) ([]ports.CustomerDailyCount, error) {
	args := m.Called(ctx, merchantID, window)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ports.CustomerDailyCount), args.Error(1)
}

func (m *MockTransactionRepository) HourlyHeatmap(ctx context.Context, merchantID *uuid.UUID, window ports.Window) ([]ports.HeatmapCell, error) {
	args := m.Called(ctx, merchantID, window)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ports.HeatmapCell), args.Error(1)
}

func (m *MockTransactionRepository) TopSlowest(ctx context.Context, merchantID *uuid.UUID, window ports.Window, limit int) ([]domain.Transaction, error) {
	args := m.Called(ctx, merchantID, window, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) FirstActivityMonths(ctx context.Context) ([]ports.MerchantMonth, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ports.MerchantMonth), args.Error(1)
}

func (m *MockTransactionRepository) ActivityMonths(ctx context.Context) ([]ports.MerchantMonth, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ports.MerchantMonth), args.Error(1)
}

func (m *MockTransactionRepository) CountActiveMerchants(ctx context.Context, window ports.Window) (int64, error) {
	args := m.Called(ctx, window)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTransactionRepository) ActiveMerchantsByDay(ctx context.Context, window ports.Window) ([]ports.DatedCount, error) {
	args := m.Called(ctx, window)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ports.DatedCount), args.Error(1)
}

// MockMerchantRepository is a mock implementation of ports.MerchantRepository.
type MockMerchantRepository struct {
	mock.Mock
}

func (m *MockMerchantRepository) Create(ctx context.Context, merchant *domain.Merchant) error {
	args := m.Called(ctx, merchant)
	return args.Error(0)
}

func (m *MockMerchantRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Merchant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Merchant), args.Error(1)
}

func (m *MockMerchantRepository) GetByAddress(ctx context.Context, address string) (*domain.Merchant, error) {
	args := m.Called(ctx, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Merchant), args.Error(1)
}

func (m *MockMerchantRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Merchant, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Merchant), args.Error(1)
}

func (m *MockMerchantRepository) Update(ctx context.Context, merchant *domain.Merchant) error {
	args := m.Called(ctx, merchant)
	return args.Error(0)
}

func (m *MockMerchantRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockMerchantRepository) CountCreatedBetween(ctx context.Context, window ports.Window) (int64, error) {
	args := m.Called(ctx, window)
	return args.Get(0).(int64), args.Error(1)
}

// MockAddressRepository is a mock implementation of ports.AddressRepository.
type MockAddressRepository struct {
	mock.Mock
}

func (m *MockAddressRepository) Create(ctx context.Context, address *domain.Address) error {
	args := m.Called(ctx, address)
	return args.Error(0)
}

func (m *MockAddressRepository) GetByAddress(ctx context.Context, address string) (*domain.Address, error) {
	args := m.Called(ctx, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Address), args.Error(1)
}

func (m *MockAddressRepository) ListByMerchant(ctx context.Context, merchantID uuid.UUID) ([]domain.Address, error) {
	args := m.Called(ctx, merchantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Address), args.Error(1)
}

// MockTonClient is a mock implementation of ports.TonClient.
type MockTonClient struct {
	mock.Mock
}

func (m *MockTonClient) CreateWallet(ctx context.Context) (*ports.Wallet, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.Wallet), args.Error(1)
}

func (m *MockTonClient) GetBalance(ctx context.Context, publicKey string) (decimal.Decimal, error) {
	args := m.Called(ctx, publicKey)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockTonClient) Transfer(ctx context.Context, params ports.TransferParams) error {
	args := m.Called(ctx, params)
	return args.Error(0)
}

func (m *MockTonClient) GetTransactionDetail(ctx context.Context, hash string) (*ports.TransactionDetail, error) {
	args := m.Called(ctx, hash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.TransactionDetail), args.Error(1)
}

func (m *MockTonClient) NormalizeAddress(raw string) (string, error) {
	args := m.Called(raw)
	return args.String(0), args.Error(1)
}

// MockDedupCache is a mock implementation of ports.DedupCache.
type MockDedupCache struct {
	mock.Mock
}

func (m *MockDedupCache) Seen(ctx context.Context, hash string) (bool, error) {
	args := m.Called(ctx, hash)
	return args.Bool(0), args.Error(1)
}

func (m *MockDedupCache) MarkSeen(ctx context.Context, hash string, ttl time.Duration) error {
	args := m.Called(ctx, hash, ttl)
	return args.Error(0)
}

// MockDispatchService is a mock implementation of ports.DispatchService.
type MockDispatchService struct {
	mock.Mock
}

func (m *MockDispatchService) Dispatch(merchant *domain.Merchant, entry *domain.Transaction) {
	m.Called(merchant, entry)
}

// MockWebhookRegistry is a mock implementation of ports.WebhookRegistry.
type MockWebhookRegistry struct {
	mock.Mock
}

func (m *MockWebhookRegistry) Subscribe(ctx context.Context, walletID string) error {
	args := m.Called(ctx, walletID)
	return args.Error(0)
}

// MockForecastClient is a mock implementation of ports.ForecastClient.
type MockForecastClient struct {
	mock.Mock
}

func (m *MockForecastClient) Forecast(ctx context.Context, req ports.ForecastRequest) ([]ports.SeriesPoint, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ports.SeriesPoint), args.Error(1)
}

// MockBalanceService is a mock implementation of ports.BalanceService.
type MockBalanceService struct {
	mock.Mock
}

func (m *MockBalanceService) LedgerBalance(ctx context.Context, merchantID uuid.UUID) (decimal.Decimal, error) {
	args := m.Called(ctx, merchantID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockBalanceService) WithdrawableBalance(ctx context.Context, publicKey string) (decimal.Decimal, error) {
	args := m.Called(ctx, publicKey)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

// MockHTTPClient is a mock implementation of HTTPClient.
type MockHTTPClient struct {
	mock.Mock
}

func (m *MockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	args := m.Called(req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*http.Response), args.Error(1)
}
