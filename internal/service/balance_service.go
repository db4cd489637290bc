package service

import (
	"context"
	"fmt"

	"ton-payment-gateway/internal/core/ports"
	"ton-payment-gateway/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// BalanceServiceImpl implements ports.BalanceService. Balances are derived
// on every read; nothing is cached or persisted.
type BalanceServiceImpl struct {
	txRepo         ports.TransactionRepository
	ton            ports.TonClient
	networkReserve decimal.Decimal
	log            zerolog.Logger
}

// NewBalanceService creates a new BalanceServiceImpl.
func NewBalanceService(
	txRepo ports.TransactionRepository,
	ton ports.TonClient,
	networkReserve decimal.Decimal,
	log zerolog.Logger,
) *BalanceServiceImpl {
	return &BalanceServiceImpl{
		txRepo:         txRepo,
		ton:            ton,
		networkReserve: networkReserve,
		log:            log,
	}
}

// LedgerBalance sums amount - service_fee over all entries of the merchant.
// No status filter: failed withdrawals are never booked in the first place.
func (s *BalanceServiceImpl) LedgerBalance(ctx context.Context, merchantID uuid.UUID) (decimal.Decimal, error) {
	sum, err := s.txRepo.SumNetAmount(ctx, merchantID)
	if err != nil {
		return decimal.Zero, apperror.InternalError(fmt.Errorf("sum ledger: %w", err))
	}
	return sum, nil
}

// WithdrawableBalance is the live on-chain balance minus the network fee
// reserve, floored at zero. Intentionally distinct from the ledger balance:
// this is what the chain will actually let move.
func (s *BalanceServiceImpl) WithdrawableBalance(ctx context.Context, publicKey string) (decimal.Decimal, error) {
	onChain, err := s.ton.GetBalance(ctx, publicKey)
	if err != nil {
		return decimal.Zero, apperror.ErrChainUnavailable(fmt.Errorf("get balance: %w", err))
	}
	withdrawable := onChain.Sub(s.networkReserve)
	if withdrawable.IsNegative() {
		return decimal.Zero, nil
	}
	return withdrawable, nil
}
