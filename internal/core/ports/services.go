package ports

import (
	"context"
	"time"

	"ton-payment-gateway/internal/core/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// --- Reconciliation ---

// DepositNotification is the inbound payload from the blockchain data
// provider. Only EventType and TxHash drive reconciliation; full detail is
// fetched separately.
type DepositNotification struct {
	EventType string `json:"event_type"`
	AccountID string `json:"account_id"`
	TxHash    string `json:"tx_hash"`
	LT        int64  `json:"lt"`
}

// Rejection reasons returned by ReconciliationService.
const (
	ReasonIgnoredEventType      = "IGNORED_EVENT_TYPE"
	ReasonDuplicate             = "DUPLICATE"
	ReasonNotFound              = "NOT_FOUND"
	ReasonTransactionFailed     = "TRANSACTION_FAILED"
	ReasonUnresolvedDestination = "UNRESOLVED_DESTINATION"
	ReasonNegativeAmount        = "NEGATIVE_AMOUNT"
	ReasonPersistFailed         = "PERSIST_FAILED"
	ReasonInternal              = "INTERNAL_ERROR"
)

// ReconcileResult is the structured outcome of one reconciliation attempt.
// Reconciliation never fails across its boundary: the caller is an
// at-least-once external notifier that must always get a well-formed answer.
type ReconcileResult struct {
	Status string              `json:"status"` // "success" or "error"
	Reason string              `json:"reason,omitempty"`
	Entry  *domain.Transaction `json:"entry,omitempty"`
}

// Rejected reports whether the notification produced no ledger entry.
func (r ReconcileResult) Rejected() bool {
	return r.Status != "success"
}

// ReconciliationService turns untrusted deposit notifications into
// exactly-once ledger entries.
type ReconciliationService interface {
	Reconcile(ctx context.Context, n DepositNotification) ReconcileResult
}

// DedupCache is the fast-path duplicate check in front of the ledger lookup.
// A cache miss or cache error is never authoritative; the ledger hash lookup
// and the persistence-layer unique constraint remain the source of truth.
type DedupCache interface {
	Seen(ctx context.Context, hash string) (bool, error)
	MarkSeen(ctx context.Context, hash string, ttl time.Duration) error
}

// DispatchService delivers a persisted ledger entry to the merchant's
// webhook URL. Best-effort: failures are logged, never propagated, and the
// delivery runs outside the reconciliation call's lifetime.
type DispatchService interface {
	Dispatch(merchant *domain.Merchant, entry *domain.Transaction)
}

// --- Balance & withdrawal ---

// BalanceService derives merchant balances on demand; no running total is
// persisted.
type BalanceService interface {
	// LedgerBalance sums amount - service_fee over every entry of the
	// merchant. Zero for a merchant with no entries.
	LedgerBalance(ctx context.Context, merchantID uuid.UUID) (decimal.Decimal, error)
	// WithdrawableBalance is the live on-chain balance minus the network
	// fee reserve, floored at zero.
	WithdrawableBalance(ctx context.Context, publicKey string) (decimal.Decimal, error)
}

// WithdrawRequest holds validated input for a withdrawal.
type WithdrawRequest struct {
	MerchantID uuid.UUID
	ToAddress  string
	Amount     decimal.Decimal
}

// SweepReport summarizes a sweep of a merchant's sub-addresses.
type SweepReport struct {
	Attempted int      `json:"attempted"`
	Swept     int      `json:"swept"`
	Failed    []string `json:"failed,omitempty"` // addresses whose transfer failed
}

// WithdrawalService authorizes and executes withdrawals. Authorization and
// the debit write are serialized per merchant so concurrent requests cannot
// both pass the balance check before either books its debit.
type WithdrawalService interface {
	Withdraw(ctx context.Context, req WithdrawRequest) (*domain.Transaction, error)
	// Sweep transfers each sub-address's funds to the merchant's primary
	// address. Per-item failures do not abort the remaining addresses.
	Sweep(ctx context.Context, merchantID uuid.UUID) (*SweepReport, error)
}

// --- Merchant & address lifecycle ---

// CreateMerchantRequest holds validated input for merchant registration.
type CreateMerchantRequest struct {
	UserID     uuid.UUID
	Name       string
	WebhookURL *string
}

// UpdateMerchantRequest holds the mutable merchant fields.
type UpdateMerchantRequest struct {
	Name       *string
	WebhookURL *string
}

// MerchantBalances pairs the two balance views exposed to merchants.
type MerchantBalances struct {
	LedgerBalance       decimal.Decimal `json:"ledger_balance"`
	WithdrawableBalance decimal.Decimal `json:"withdrawable_balance"`
}

// MerchantService manages the merchant lifecycle.
type MerchantService interface {
	Create(ctx context.Context, req CreateMerchantRequest) (*domain.Merchant, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Merchant, error)
	GetBalances(ctx context.Context, id uuid.UUID) (*MerchantBalances, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Merchant, error)
	Update(ctx context.Context, id uuid.UUID, req UpdateMerchantRequest) (*domain.Merchant, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// AddressService creates deposit sub-addresses on a merchant's behalf.
type AddressService interface {
	Create(ctx context.Context, merchantID uuid.UUID, metadata string) (*domain.Address, error)
	ListByMerchant(ctx context.Context, merchantID uuid.UUID) ([]domain.Address, error)
}

// TransactionQueryService is the read-only ledger listing surface.
type TransactionQueryService interface {
	Get(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)
	List(ctx context.Context, params TransactionListParams) ([]domain.Transaction, int64, error)
}

// --- Auth ---

// TokenClaims holds the parsed JWT claims for dashboard/admin access.
// Tokens are issued by the external auth service; this system only
// validates them.
type TokenClaims struct {
	UserID  uuid.UUID
	IsAdmin bool
}

// TokenService validates JWT tokens.
type TokenService interface {
	Validate(tokenString string) (*TokenClaims, error)
}
