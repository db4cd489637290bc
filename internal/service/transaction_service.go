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

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// TransactionQueryServiceImpl implements ports.TransactionQueryService.
type TransactionQueryServiceImpl struct {
	txRepo ports.TransactionRepository
	log    zerolog.Logger
}

// NewTransactionQueryService creates a new TransactionQueryServiceImpl.
func NewTransactionQueryService(txRepo ports.TransactionRepository, log zerolog.Logger) *TransactionQueryServiceImpl {
	return &TransactionQueryServiceImpl{txRepo: txRepo, log: log}
}

func (s *TransactionQueryServiceImpl) Get(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	tx, err := s.txRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("load transaction: %w", err))
	}
	if tx == nil {
		return nil, apperror.ErrNotFound("Transaction")
	}
	return tx, nil
}

func (s *TransactionQueryServiceImpl) List(ctx context.Context, params ports.TransactionListParams) ([]domain.Transaction, int64, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.PageSize < 1 {
		params.PageSize = defaultPageSize
	}
	if params.PageSize > maxPageSize {
		params.PageSize = maxPageSize
	}

	items, total, err := s.txRepo.List(ctx, params)
	if err != nil {
		return nil, 0, apperror.InternalError(fmt.Errorf("list transactions: %w", err))
	}
	return items, total, nil
}
