package service

import (
	"context"
	"fmt"
	"time"

	"ton-payment-gateway/internal/core/domain"
	"ton-payment-gateway/internal/core/ports"
	"ton-payment-gateway/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// WithdrawalServiceImpl implements ports.WithdrawalService.
//
// Authorization and the debit write are serialized per merchant with an
// in-process mutex, so two concurrent requests cannot both pass the balance
// check before either has booked its debit. The lock is released before the
// on-chain transfer: the debit is already visible to any later balance read.
type WithdrawalServiceImpl struct {
	merchantRepo   ports.MerchantRepository
	addressRepo    ports.AddressRepository
	txRepo         ports.TransactionRepository
	balance        ports.BalanceService
	ton            ports.TonClient
	networkReserve decimal.Decimal
	locks          *keyedMutex
	log            zerolog.Logger
}

// NewWithdrawalService creates a new WithdrawalServiceImpl.
func NewWithdrawalService(
	merchantRepo ports.MerchantRepository,
	addressRepo ports.AddressRepository,
	txRepo ports.TransactionRepository,
	balance ports.BalanceService,
	ton ports.TonClient,
	networkReserve decimal.Decimal,
	log zerolog.Logger,
) *WithdrawalServiceImpl {
	return &WithdrawalServiceImpl{
		merchantRepo:   merchantRepo,
		addressRepo:    addressRepo,
		txRepo:         txRepo,
		balance:        balance,
		ton:            ton,
		networkReserve: networkReserve,
		locks:          newKeyedMutex(),
		log:            log,
	}
}

// Withdraw validates the request against both balance views, books the
// debit, then requests the on-chain transfer. The debit is written first so
// a concurrent second request sees the reduced balance. If the transfer
// fails the debit stays booked; reconciling that is a manual operation.
func (s *WithdrawalServiceImpl) Withdraw(ctx context.Context, req ports.WithdrawRequest) (*domain.Transaction, error) {
	if !req.Amount.IsPositive() {
		return nil, apperror.ErrInvalidAmount()
	}
	if req.ToAddress == "" {
		return nil, apperror.Validation("destination address is required")
	}

	entry, merchant, err := s.authorizeAndDebit(ctx, req)
	if err != nil {
		return nil, err
	}

	if err := s.ton.Transfer(ctx, ports.TransferParams{
		PublicKey: merchant.Keys.PublicKey,
		SecretKey: merchant.Keys.SecretKey,
		ToAddress: req.ToAddress,
		Amount:    req.Amount,
	}); err != nil {
		// The debit stays booked: the ledger shows funds committed to leave
		// the chain, and the mismatch is resolved manually.
		s.log.Error().Err(err).
			Str("merchant_id", merchant.ID.String()).
			Str("debit_hash", entry.Hash).
			Str("amount", req.Amount.String()).
			Msg("on-chain transfer failed after debit was booked")
		return nil, apperror.ErrTransferFailed(err)
	}

	s.log.Info().
		Str("merchant_id", merchant.ID.String()).
		Str("hash", entry.Hash).
		Str("amount", req.Amount.String()).
		Msg("withdrawal executed")

	return entry, nil
}

// authorizeAndDebit performs the check-then-debit sequence under the
// merchant's lock.
func (s *WithdrawalServiceImpl) authorizeAndDebit(ctx context.Context, req ports.WithdrawRequest) (*domain.Transaction, *domain.Merchant, error) {
	unlock := s.locks.Lock(req.MerchantID.String())
	defer unlock()

	merchant, err := s.merchantRepo.GetByID(ctx, req.MerchantID)
	if err != nil {
		return nil, nil, apperror.InternalError(fmt.Errorf("load merchant: %w", err))
	}
	if merchant == nil {
		return nil, nil, apperror.ErrNotFound("Merchant")
	}

	ledger, err := s.balance.LedgerBalance(ctx, merchant.ID)
	if err != nil {
		return nil, nil, err
	}
	if req.Amount.GreaterThan(ledger) {
		return nil, nil, apperror.ErrInsufficientBalance(ledger.String())
	}

	withdrawable, err := s.balance.WithdrawableBalance(ctx, merchant.Keys.PublicKey)
	if err != nil {
		return nil, nil, err
	}
	if req.Amount.GreaterThan(withdrawable) {
		return nil, nil, apperror.ErrInsufficientBalance(withdrawable.String())
	}

	now := time.Now()
	entry := &domain.Transaction{
		ID:         uuid.New(),
		Amount:     req.Amount.Neg(),
		ServiceFee: decimal.Zero,
		Hash:       withdrawalHash(now),
		Metadata:   fmt.Sprintf("withdraw to %s", req.ToAddress),
		Status:     domain.TransactionStatusCompleted,
		MerchantID: merchant.ID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.txRepo.Create(ctx, entry); err != nil {
		return nil, nil, apperror.InternalError(fmt.Errorf("book debit: %w", err))
	}

	return entry, merchant, nil
}

// withdrawalHash synthesizes a unique reference: withdrawals have no
// on-chain hash at booking time.
func withdrawalHash(now time.Time) string {
	return fmt.Sprintf("withdraw-%d-%s", now.UnixMilli(), uuid.NewString()[:8])
}

// Sweep moves each sub-address's funds to the merchant's primary address.
// Transfers are attempted independently; one failure never aborts the rest.
func (s *WithdrawalServiceImpl) Sweep(ctx context.Context, merchantID uuid.UUID) (*ports.SweepReport, error) {
	merchant, err := s.merchantRepo.GetByID(ctx, merchantID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("load merchant: %w", err))
	}
	if merchant == nil {
		return nil, apperror.ErrNotFound("Merchant")
	}

	addresses, err := s.addressRepo.ListByMerchant(ctx, merchantID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list addresses: %w", err))
	}

	report := &ports.SweepReport{}
	for _, addr := range addresses {
		onChain, err := s.ton.GetBalance(ctx, addr.Keys.PublicKey)
		if err != nil {
			s.log.Warn().Err(err).Str("address", addr.Address).Msg("sweep: balance query failed")
			report.Attempted++
			report.Failed = append(report.Failed, addr.Address)
			continue
		}

		amount := onChain.Sub(s.networkReserve)
		if !amount.IsPositive() {
			continue // nothing worth moving
		}

		report.Attempted++
		if err := s.ton.Transfer(ctx, ports.TransferParams{
			PublicKey: addr.Keys.PublicKey,
			SecretKey: addr.Keys.SecretKey,
			ToAddress: merchant.Address,
			Amount:    amount,
		}); err != nil {
			s.log.Warn().Err(err).Str("address", addr.Address).Str("amount", amount.String()).Msg("sweep: transfer failed")
			report.Failed = append(report.Failed, addr.Address)
			continue
		}
		report.Swept++
	}

	s.log.Info().
		Str("merchant_id", merchantID.String()).
		Int("attempted", report.Attempted).
		Int("swept", report.Swept).
		Int("failed", len(report.Failed)).
		Msg("address sweep finished")

	return report, nil
}
