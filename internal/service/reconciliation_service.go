package service

import (
	"context"
	"errors"
	"time"

	"ton-payment-gateway/internal/core/domain"
	"ton-payment-gateway/internal/core/ports"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const (
	// accountTxEvent is the only notification type the ledger cares about.
	accountTxEvent = "account_tx"

	// dedupTTL bounds the fast-path duplicate cache. The ledger's unique
	// hash constraint remains authoritative after expiry.
	dedupTTL = 24 * time.Hour

	// nanotonScale converts on-chain nanoton values to TON.
	nanotonScale = -9
)

// ReconciliationServiceImpl implements ports.ReconciliationService: the
// RECEIVED -> VALIDATED -> RESOLVED -> PERSISTED -> DISPATCHED pipeline that
// turns at-least-once deposit notifications into exactly-once ledger entries.
type ReconciliationServiceImpl struct {
	txRepo       ports.TransactionRepository
	merchantRepo ports.MerchantRepository
	addressRepo  ports.AddressRepository
	ton          ports.TonClient
	dedup        ports.DedupCache
	dispatch     ports.DispatchService
	depositFee   decimal.Decimal
	log          zerolog.Logger
}

// NewReconciliationService creates a new ReconciliationServiceImpl.
func NewReconciliationService(
	txRepo ports.TransactionRepository,
	merchantRepo ports.MerchantRepository,
	addressRepo ports.AddressRepository,
	ton ports.TonClient,
	dedup ports.DedupCache,
	dispatch ports.DispatchService,
	depositFee decimal.Decimal,
	log zerolog.Logger,
) *ReconciliationServiceImpl {
	return &ReconciliationServiceImpl{
		txRepo:       txRepo,
		merchantRepo: merchantRepo,
		addressRepo:  addressRepo,
		ton:          ton,
		dedup:        dedup,
		dispatch:     dispatch,
		depositFee:   depositFee,
		log:          log,
	}
}

// Reconcile never returns an error: every path yields a structured outcome
// so the upstream notifier always gets a fast, well-formed response.
func (s *ReconciliationServiceImpl) Reconcile(ctx context.Context, n ports.DepositNotification) ports.ReconcileResult {
	received := time.Now()

	// Step 1: type filter.
	if n.EventType != accountTxEvent {
		return reject(ports.ReasonIgnoredEventType)
	}

	// Step 2: idempotency check. Redis is the fast path; the ledger lookup
	// is authoritative and the unique constraint at persist time is the
	// final backstop against concurrent redelivery.
	seen, err := s.dedup.Seen(ctx, n.TxHash)
	if err != nil {
		s.log.Warn().Err(err).Str("hash", n.TxHash).Msg("dedup cache check failed, falling through to ledger")
	} else if seen {
		return reject(ports.ReasonDuplicate)
	}

	existing, err := s.txRepo.GetByHash(ctx, n.TxHash)
	if err != nil {
		s.log.Error().Err(err).Str("hash", n.TxHash).Msg("ledger hash lookup failed")
		return reject(ports.ReasonInternal)
	}
	if existing != nil {
		return reject(ports.ReasonDuplicate)
	}

	// Step 3: fetch full on-chain detail. No synchronous retry: the
	// notifier redelivers.
	detail, err := s.ton.GetTransactionDetail(ctx, n.TxHash)
	if err != nil {
		s.log.Warn().Err(err).Str("hash", n.TxHash).Msg("transaction detail fetch failed")
		return reject(ports.ReasonNotFound)
	}
	if detail == nil {
		return reject(ports.ReasonNotFound)
	}

	// Step 4: outcome filter.
	if !detail.Success || detail.Bounced {
		return reject(ports.ReasonTransactionFailed)
	}

	// Step 5: resolve the receiving merchant or sub-address.
	destination, err := s.ton.NormalizeAddress(detail.DestinationAddress)
	if err != nil {
		s.log.Warn().Err(err).Str("raw", detail.DestinationAddress).Msg("unparseable destination address")
		return reject(ports.ReasonUnresolvedDestination)
	}

	merchant, err := s.merchantRepo.GetByAddress(ctx, destination)
	if err != nil {
		s.log.Error().Err(err).Str("address", destination).Msg("merchant lookup failed")
		return reject(ports.ReasonInternal)
	}
	var address *domain.Address
	if merchant == nil {
		address, err = s.addressRepo.GetByAddress(ctx, destination)
		if err != nil {
			s.log.Error().Err(err).Str("address", destination).Msg("address lookup failed")
			return reject(ports.ReasonInternal)
		}
		if address == nil || address.Merchant == nil {
			return reject(ports.ReasonUnresolvedDestination)
		}
	}

	// Step 6: amount validation.
	amount := decimal.New(detail.Value, nanotonScale)
	if amount.IsNegative() {
		return reject(ports.ReasonNegativeAmount)
	}

	// Step 7: entry construction.
	now := time.Now()
	entry := &domain.Transaction{
		ID:               uuid.New(),
		Amount:           amount,
		ServiceFee:       s.depositFee,
		Hash:             n.TxHash,
		Status:           domain.TransactionStatusCompleted,
		ConfirmationTime: now.Sub(received).Milliseconds(),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if merchant != nil {
		entry.MerchantID = merchant.ID
	} else {
		merchant = address.Merchant
		entry.MerchantID = merchant.ID
		entry.Metadata = address.Metadata
		entry.IsDirectDeposit = true
	}

	// Step 8: persist. A hash collision here means a concurrent duplicate
	// raced past step 2; treat it exactly like an ordinary duplicate.
	if err := s.txRepo.Create(ctx, entry); err != nil {
		if errors.Is(err, ports.ErrDuplicateHash) {
			return reject(ports.ReasonDuplicate)
		}
		s.log.Error().Err(err).Str("hash", n.TxHash).Msg("ledger insert failed")
		return reject(ports.ReasonPersistFailed)
	}

	if err := s.dedup.MarkSeen(ctx, n.TxHash, dedupTTL); err != nil {
		s.log.Warn().Err(err).Str("hash", n.TxHash).Msg("dedup cache mark failed")
	}

	s.log.Info().
		Str("hash", entry.Hash).
		Str("merchant_id", entry.MerchantID.String()).
		Str("amount", entry.Amount.String()).
		Bool("direct", entry.IsDirectDeposit).
		Msg("deposit booked")

	// Step 9: best-effort merchant notification. Never affects the outcome;
	// the deposit is economically final on-chain regardless.
	if merchant.HasWebhook() {
		s.dispatch.Dispatch(merchant, entry)
	}

	return ports.ReconcileResult{Status: "success", Entry: entry}
}

func reject(reason string) ports.ReconcileResult {
	return ports.ReconcileResult{Status: "error", Reason: reason}
}
