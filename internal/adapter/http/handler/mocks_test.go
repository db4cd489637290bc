package handler

import (
	"context"

	"ton-payment-gateway/internal/core/domain"
	"ton-payment-gateway/internal/core/ports"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockReconciliationService struct {
	mock.Mock
}

func (m *MockReconciliationService) Reconcile(ctx context.Context, n ports.DepositNotification) ports.ReconcileResult {
	args := m.Called(ctx, n)
	return args.Get(0).(ports.ReconcileResult)
}

type MockMerchantService struct {
	mock.Mock
}

func (m *MockMerchantService) Create(ctx context.Context, req ports.CreateMerchantRequest) (*domain.Merchant, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Merchant), args.Error(1)
}

func (m *MockMerchantService) Get(ctx context.Context, id uuid.UUID) (*domain.Merchant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Merchant), args.Error(1)
}

func (m *MockMerchantService) GetBalances(ctx context.Context, id uuid.UUID) (*ports.MerchantBalances, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.MerchantBalances), args.Error(1)
}

func (m *MockMerchantService) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Merchant, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Merchant), args.Error(1)
}

func (m *MockMerchantService) Update(ctx context.Context, id uuid.UUID, req ports.UpdateMerchantRequest) (*domain.Merchant, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Merchant), args.Error(1)
}

func (m *MockMerchantService) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockWithdrawalService struct {
	mock.Mock
}

func (m *MockWithdrawalService) Withdraw(ctx context.Context, req ports.WithdrawRequest) (*domain.Transaction, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockWithdrawalService) Sweep(ctx context.Context, merchantID uuid.UUID) (*ports.SweepReport, error) {
	args := m.Called(ctx, merchantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.SweepReport), args.Error(1)
}

type MockAddressService struct {
	mock.Mock
}

func (m *MockAddressService) Create(ctx context.Context, merchantID uuid.UUID, metadata string) (*domain.Address, error) {
	args := m.Called(ctx, merchantID, metadata)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Address), args.Error(1)
}

func (m *MockAddressService) ListByMerchant(ctx context.Context, merchantID uuid.UUID) ([]domain.Address, error) {
	args := m.Called(ctx, merchantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Address), args.Error(1)
}

type MockTransactionQueryService struct {
	mock.Mock
}

func (m *MockTransactionQueryService) Get(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockTransactionQueryService) List(ctx context.Context, params ports.TransactionListParams) ([]domain.Transaction, int64, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]domain.Transaction), args.Get(1).(int64), args.Error(2)
}

type MockAnalyticsService struct {
	mock.Mock
}

func (m *MockAnalyticsService) Overview(ctx context.Context, q ports.AnalyticsQuery) (*ports.Overview, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.Overview), args.Error(1)
}

func (m *MockAnalyticsService) DailySeries(ctx context.Context, metric string, q ports.AnalyticsQuery) ([]ports.SeriesPoint, error) {
	args := m.Called(ctx, metric, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ports.SeriesPoint), args.Error(1)
}

func (m *MockAnalyticsService) RetentionCohorts(ctx context.Context) ([]ports.RetentionCohort, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ports.RetentionCohort), args.Error(1)
}

func (m *MockAnalyticsService) NewMerchantCohorts(ctx context.Context) ([]ports.CohortCell, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ports.CohortCell), args.Error(1)
}

func (m *MockAnalyticsService) Hotspots(ctx context.Context, q ports.AnalyticsQuery) ([]ports.Hotspot, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ports.Hotspot), args.Error(1)
}

func (m *MockAnalyticsService) Clusters(ctx context.Context, q ports.AnalyticsQuery) ([]ports.MerchantCluster, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ports.MerchantCluster), args.Error(1)
}

func (m *MockAnalyticsService) Alerts(ctx context.Context) ([]ports.Alert, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ports.Alert), args.Error(1)
}

func (m *MockAnalyticsService) Heatmap(ctx context.Context, q ports.AnalyticsQuery) ([]ports.HeatmapCell, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ports.HeatmapCell), args.Error(1)
}

func (m *MockAnalyticsService) TopSlowest(ctx context.Context, q ports.AnalyticsQuery, limit int) ([]domain.Transaction, error) {
	args := m.Called(ctx, q, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Transaction), args.Error(1)
}

func (m *MockAnalyticsService) Forecast(ctx context.Context, metric string, q ports.AnalyticsQuery, model string, horizon int) (*ports.ForecastResult, error) {
	args := m.Called(ctx, metric, q, model, horizon)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.ForecastResult), args.Error(1)
}

type MockTokenService struct {
	mock.Mock
}

func (m *MockTokenService) Validate(tokenString string) (*ports.TokenClaims, error) {
	args := m.Called(tokenString)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.TokenClaims), args.Error(1)
}

type MockHealthChecker struct {
	mock.Mock
	name string
}

func (m *MockHealthChecker) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockHealthChecker) Name() string {
	return m.name
}
