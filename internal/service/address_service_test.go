package service

import (
	"context"
	"errors"
	"testing"

	"ton-payment-gateway/internal/core/domain"
	"ton-payment-gateway/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type addressFixture struct {
	addressRepo  *MockAddressRepository
	merchantRepo *MockMerchantRepository
	ton          *MockTonClient
	registry     *MockWebhookRegistry
	svc          *AddressServiceImpl
}

func newAddressFixture() *addressFixture {
	f := &addressFixture{
		addressRepo:  new(MockAddressRepository),
		merchantRepo: new(MockMerchantRepository),
		ton:          new(MockTonClient),
		registry:     new(MockWebhookRegistry),
	}
	f.svc = NewAddressService(f.addressRepo, f.merchantRepo, f.ton, f.registry, zerolog.Nop())
	return f
}

func TestCreateAddress(t *testing.T) {
	f := newAddressFixture()
	merchant := &domain.Merchant{ID: uuid.New()}

	f.merchantRepo.On("GetByID", mock.Anything, merchant.ID).Return(merchant, nil)
	f.ton.On("CreateWallet", mock.Anything).Return(testWallet(), nil)
	f.addressRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Address")).Return(nil)
	f.registry.On("Subscribe", mock.Anything, "w-1").Return(nil)

	address, err := f.svc.Create(context.Background(), merchant.ID, "order-42")

	assert.NoError(t, err)
	assert.Equal(t, "UQnew", address.Address)
	assert.Equal(t, merchant.ID, address.MerchantID)
	assert.Equal(t, "order-42", address.Metadata)
	f.registry.AssertCalled(t, "Subscribe", mock.Anything, "w-1")
}

func TestCreateAddress_MerchantNotFound(t *testing.T) {
	f := newAddressFixture()
	id := uuid.New()
	f.merchantRepo.On("GetByID", mock.Anything, id).Return(nil, nil)

	_, err := f.svc.Create(context.Background(), id, "")

	var appErr *apperror.AppError
	assert.ErrorAs(t, err, &appErr)
	assert.Equal(t, "WDR_003", appErr.Code)
	f.ton.AssertNotCalled(t, "CreateWallet", mock.Anything)
}

func TestCreateAddress_SubscriptionFailureIsNotFatal(t *testing.T) {
	f := newAddressFixture()
	merchant := &domain.Merchant{ID: uuid.New()}

	f.merchantRepo.On("GetByID", mock.Anything, merchant.ID).Return(merchant, nil)
	f.ton.On("CreateWallet", mock.Anything).Return(testWallet(), nil)
	f.addressRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.registry.On("Subscribe", mock.Anything, "w-1").Return(errors.New("registry down"))

	address, err := f.svc.Create(context.Background(), merchant.ID, "order-42")

	assert.NoError(t, err)
	assert.NotNil(t, address)
}
