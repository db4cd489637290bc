package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionStatus represents the final state of a ledger entry.
type TransactionStatus string

const (
	TransactionStatusCompleted TransactionStatus = "COMPLETED"
	TransactionStatusFailed    TransactionStatus = "FAILED"
)

// Transaction is an immutable ledger entry: a signed monetary movement
// against a merchant's account. Deposits are positive, withdrawals negative.
// Entries are append-only — never updated or deleted once written.
type Transaction struct {
	ID               uuid.UUID         `json:"id"`
	Amount           decimal.Decimal   `json:"amount"`      // TON, arbitrary precision
	ServiceFee       decimal.Decimal   `json:"service_fee"` // non-negative
	Hash             string            `json:"hash"`        // globally unique external reference
	Metadata         string            `json:"metadata"`
	IsDirectDeposit  bool              `json:"is_direct_deposit"`
	Status           TransactionStatus `json:"status"`
	ConfirmationTime int64             `json:"confirmation_time"` // milliseconds, notification receipt to ledger write
	MerchantID       uuid.UUID         `json:"merchant_id"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

// NetAmount returns the entry's contribution to the merchant's ledger
// balance: amount minus service fee.
func (t *Transaction) NetAmount() decimal.Decimal {
	return t.Amount.Sub(t.ServiceFee)
}

// IsWithdrawal reports whether this entry debits the merchant.
func (t *Transaction) IsWithdrawal() bool {
	return t.Amount.IsNegative()
}
