package service

import (
	"context"
	"errors"
	"testing"

	"ton-payment-gateway/internal/core/domain"
	"ton-payment-gateway/internal/core/ports"
	"ton-payment-gateway/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type merchantFixture struct {
	merchantRepo *MockMerchantRepository
	ton          *MockTonClient
	registry     *MockWebhookRegistry
	balance      *MockBalanceService
	svc          *MerchantServiceImpl
}

func newMerchantFixture() *merchantFixture {
	f := &merchantFixture{
		merchantRepo: new(MockMerchantRepository),
		ton:          new(MockTonClient),
		registry:     new(MockWebhookRegistry),
		balance:      new(MockBalanceService),
	}
	f.svc = NewMerchantService(f.merchantRepo, f.ton, f.registry, f.balance, zerolog.Nop())
	return f
}

func testWallet() *ports.Wallet {
	return &ports.Wallet{
		PublicKey: "pub",
		SecretKey: "sec",
		Address:   "UQnew",
		WalletID:  "w-1",
		Mnemonic:  []string{"abandon", "ability"},
	}
}

func TestCreateMerchant(t *testing.T) {
	f := newMerchantFixture()
	userID := uuid.New()
	url := "https://shop.example.com/hook"

	f.ton.On("CreateWallet", mock.Anything).Return(testWallet(), nil)
	f.merchantRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Merchant")).Return(nil)
	f.registry.On("Subscribe", mock.Anything, "w-1").Return(nil)

	merchant, err := f.svc.Create(context.Background(), ports.CreateMerchantRequest{
		UserID: userID, Name: "shop", WebhookURL: &url,
	})

	assert.NoError(t, err)
	assert.Equal(t, "shop", merchant.Name)
	assert.Equal(t, "UQnew", merchant.Address)
	assert.Equal(t, userID, merchant.UserID)
	assert.Equal(t, "pub", merchant.Keys.PublicKey)
	assert.NotEmpty(t, merchant.SecretKey)
	f.registry.AssertCalled(t, "Subscribe", mock.Anything, "w-1")
}

func TestCreateMerchant_SubscriptionFailureIsNotFatal(t *testing.T) {
	f := newMerchantFixture()

	f.ton.On("CreateWallet", mock.Anything).Return(testWallet(), nil)
	f.merchantRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.registry.On("Subscribe", mock.Anything, "w-1").Return(errors.New("registry down"))

	merchant, err := f.svc.Create(context.Background(), ports.CreateMerchantRequest{
		UserID: uuid.New(), Name: "shop",
	})

	assert.NoError(t, err)
	assert.NotNil(t, merchant)
}

func TestCreateMerchant_WalletCreationFails(t *testing.T) {
	f := newMerchantFixture()
	f.ton.On("CreateWallet", mock.Anything).Return(nil, errors.New("chain down"))

	_, err := f.svc.Create(context.Background(), ports.CreateMerchantRequest{
		UserID: uuid.New(), Name: "shop",
	})

	var appErr *apperror.AppError
	assert.ErrorAs(t, err, &appErr)
	assert.Equal(t, "CHAIN_001", appErr.Code)
	f.merchantRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestGetMerchant_NotFound(t *testing.T) {
	f := newMerchantFixture()
	id := uuid.New()
	f.merchantRepo.On("GetByID", mock.Anything, id).Return(nil, nil)

	_, err := f.svc.Get(context.Background(), id)

	var appErr *apperror.AppError
	assert.ErrorAs(t, err, &appErr)
	assert.Equal(t, "WDR_003", appErr.Code)
}

func TestGetBalances_ReturnsBothViews(t *testing.T) {
	f := newMerchantFixture()
	merchant := &domain.Merchant{ID: uuid.New(), Keys: domain.WalletKeys{PublicKey: "pub"}}

	f.merchantRepo.On("GetByID", mock.Anything, merchant.ID).Return(merchant, nil)
	f.balance.On("LedgerBalance", mock.Anything, merchant.ID).Return(decimal.RequireFromString("12"), nil)
	f.balance.On("WithdrawableBalance", mock.Anything, "pub").Return(decimal.RequireFromString("9.95"), nil)

	balances, err := f.svc.GetBalances(context.Background(), merchant.ID)

	assert.NoError(t, err)
	assert.True(t, decimal.RequireFromString("12").Equal(balances.LedgerBalance))
	assert.True(t, decimal.RequireFromString("9.95").Equal(balances.WithdrawableBalance))
}

func TestUpdateMerchant(t *testing.T) {
	f := newMerchantFixture()
	merchant := &domain.Merchant{ID: uuid.New(), Name: "old"}
	newName := "new"

	f.merchantRepo.On("GetByID", mock.Anything, merchant.ID).Return(merchant, nil)
	f.merchantRepo.On("Update", mock.Anything, merchant).Return(nil)

	updated, err := f.svc.Update(context.Background(), merchant.ID, ports.UpdateMerchantRequest{Name: &newName})

	assert.NoError(t, err)
	assert.Equal(t, "new", updated.Name)
}

func TestDeleteMerchant_SoftDeletes(t *testing.T) {
	f := newMerchantFixture()
	merchant := &domain.Merchant{ID: uuid.New()}

	f.merchantRepo.On("GetByID", mock.Anything, merchant.ID).Return(merchant, nil)
	f.merchantRepo.On("SoftDelete", mock.Anything, merchant.ID).Return(nil)

	err := f.svc.Delete(context.Background(), merchant.ID)

	assert.NoError(t, err)
	f.merchantRepo.AssertCalled(t, "SoftDelete", mock.Anything, merchant.ID)
}
