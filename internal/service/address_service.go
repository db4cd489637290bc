package service

import (
	"context"
	"fmt"

	"ton-payment-gateway/internal/core/domain"
	"ton-payment-gateway/internal/core/ports"
	"ton-payment-gateway/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// AddressServiceImpl implements ports.AddressService.
type AddressServiceImpl struct {
	addressRepo  ports.AddressRepository
	merchantRepo ports.MerchantRepository
	ton          ports.TonClient
	registry     ports.WebhookRegistry
	log          zerolog.Logger
}

// NewAddressService creates a new AddressServiceImpl.
func NewAddressService(
	addressRepo ports.AddressRepository,
	merchantRepo ports.MerchantRepository,
	ton ports.TonClient,
	registry ports.WebhookRegistry,
	log zerolog.Logger,
) *AddressServiceImpl {
	return &AddressServiceImpl{
		addressRepo:  addressRepo,
		merchantRepo: merchantRepo,
		ton:          ton,
		registry:     registry,
		log:          log,
	}
}

// Create generates a sub-wallet bound to the merchant. The metadata string
// is the merchant's correlation key (customer/order id) and is copied onto
// every ledger entry booked through this address.
func (s *AddressServiceImpl) Create(ctx context.Context, merchantID uuid.UUID, metadata string) (*domain.Address, error) {
	merchant, err := s.merchantRepo.GetByID(ctx, merchantID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("load merchant: %w", err))
	}
	if merchant == nil {
		return nil, apperror.ErrNotFound("Merchant")
	}

	wallet, err := s.ton.CreateWallet(ctx)
	if err != nil {
		return nil, apperror.ErrChainUnavailable(fmt.Errorf("create wallet: %w", err))
	}

	address := &domain.Address{
		ID:      uuid.New(),
		Address: wallet.Address,
		Keys: domain.WalletKeys{
			PublicKey: wallet.PublicKey,
			SecretKey: wallet.SecretKey,
			Mnemonic:  wallet.Mnemonic,
			WalletID:  wallet.WalletID,
		},
		MerchantID: merchant.ID,
		Metadata:   metadata,
	}
	if err := s.addressRepo.Create(ctx, address); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create address: %w", err))
	}

	if err := s.registry.Subscribe(ctx, wallet.WalletID); err != nil {
		s.log.Warn().Err(err).Str("address", address.Address).Msg("wallet subscription failed")
	}

	s.log.Info().
		Str("merchant_id", merchant.ID.String()).
		Str("address", address.Address).
		Msg("deposit address created")
	return address, nil
}

func (s *AddressServiceImpl) ListByMerchant(ctx context.Context, merchantID uuid.UUID) ([]domain.Address, error) {
	addresses, err := s.addressRepo.ListByMerchant(ctx, merchantID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list addresses: %w", err))
	}
	return addresses, nil
}
