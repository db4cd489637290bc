package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"ton-payment-gateway/internal/core/domain"
	"ton-payment-gateway/internal/core/ports"
	"ton-payment-gateway/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// MerchantServiceImpl implements ports.MerchantService.
type MerchantServiceImpl struct {
	merchantRepo ports.MerchantRepository
	ton          ports.TonClient
	registry     ports.WebhookRegistry
	balance      ports.BalanceService
	log          zerolog.Logger
}

// NewMerchantService creates a new MerchantServiceImpl.
func NewMerchantService(
	merchantRepo ports.MerchantRepository,
	ton ports.TonClient,
	registry ports.WebhookRegistry,
	balance ports.BalanceService,
	log zerolog.Logger,
) *MerchantServiceImpl {
	return &MerchantServiceImpl{
		merchantRepo: merchantRepo,
		ton:          ton,
		registry:     registry,
		balance:      balance,
		log:          log,
	}
}

// Create generates a custodial primary wallet, stores the merchant and
// subscribes the wallet for deposit notifications.
func (s *MerchantServiceImpl) Create(ctx context.Context, req ports.CreateMerchantRequest) (*domain.Merchant, error) {
	if req.Name == "" {
		return nil, apperror.Validation("merchant name is required")
	}

	wallet, err := s.ton.CreateWallet(ctx)
	if err != nil {
		return nil, apperror.ErrChainUnavailable(fmt.Errorf("create wallet: %w", err))
	}

	secretKey, err := generateSecretKey(32)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("generate secret key: %w", err))
	}

	merchant := &domain.Merchant{
		ID:         uuid.New(),
		Name:       req.Name,
		WebhookURL: req.WebhookURL,
		Address:    wallet.Address,
		SecretKey:  secretKey,
		Keys: domain.WalletKeys{
			PublicKey: wallet.PublicKey,
			SecretKey: wallet.SecretKey,
			Mnemonic:  wallet.Mnemonic,
			WalletID:  wallet.WalletID,
		},
		UserID: req.UserID,
	}
	if err := s.merchantRepo.Create(ctx, merchant); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create merchant: %w", err))
	}

	// A failed subscription only delays deposit notifications; the merchant
	// record itself is fine, so don't fail the creation.
	if err := s.registry.Subscribe(ctx, wallet.WalletID); err != nil {
		s.log.Warn().Err(err).Str("merchant_id", merchant.ID.String()).Msg("wallet subscription failed")
	}

	s.log.Info().Str("merchant_id", merchant.ID.String()).Str("address", merchant.Address).Msg("merchant created")
	return merchant, nil
}

// generateSecretKey generates a random base64 string of n bytes, used to
// sign outbound webhook deliveries.
func generateSecretKey(n int) (string, error) {
	bytes := make([]byte, n)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(bytes), nil
}

func (s *MerchantServiceImpl) Get(ctx context.Context, id uuid.UUID) (*domain.Merchant, error) {
	merchant, err := s.merchantRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("load merchant: %w", err))
	}
	if merchant == nil {
		return nil, apperror.ErrNotFound("Merchant")
	}
	return merchant, nil
}

// GetBalances returns both balance views: the accounting (ledger) view and
// the on-chain withdrawable view.
func (s *MerchantServiceImpl) GetBalances(ctx context.Context, id uuid.UUID) (*ports.MerchantBalances, error) {
	merchant, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	ledger, err := s.balance.LedgerBalance(ctx, merchant.ID)
	if err != nil {
		return nil, err
	}
	withdrawable, err := s.balance.WithdrawableBalance(ctx, merchant.Keys.PublicKey)
	if err != nil {
		return nil, err
	}

	return &ports.MerchantBalances{
		LedgerBalance:       ledger,
		WithdrawableBalance: withdrawable,
	}, nil
}

func (s *MerchantServiceImpl) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Merchant, error) {
	merchants, err := s.merchantRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list merchants: %w", err))
	}
	return merchants, nil
}

func (s *MerchantServiceImpl) Update(ctx context.Context, id uuid.UUID, req ports.UpdateMerchantRequest) (*domain.Merchant, error) {
	merchant, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		if *req.Name == "" {
			return nil, apperror.Validation("merchant name cannot be empty")
		}
		merchant.Name = *req.Name
	}
	if req.WebhookURL != nil {
		merchant.WebhookURL = req.WebhookURL
	}

	if err := s.merchantRepo.Update(ctx, merchant); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("update merchant: %w", err))
	}
	return merchant, nil
}

// Delete tombstones the merchant. Ledger entries stay attributable.
func (s *MerchantServiceImpl) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.merchantRepo.SoftDelete(ctx, id); err != nil {
		return apperror.InternalError(fmt.Errorf("delete merchant: %w", err))
	}
	s.log.Info().Str("merchant_id", id.String()).Msg("merchant soft-deleted")
	return nil
}
