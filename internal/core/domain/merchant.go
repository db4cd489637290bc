package domain

import (
	"time"

	"github.com/google/uuid"
)

// WalletKeys holds custodial key material for a generated TON wallet.
// Stored opaque; the gateway never derives keys itself.
type WalletKeys struct {
	PublicKey string   `json:"public_key"`
	SecretKey string   `json:"secret_key"`
	Mnemonic  []string `json:"mnemonic"`
	WalletID  string   `json:"wallet_id"`
}

// Merchant represents a registered merchant with a primary deposit wallet.
// Merchants are soft-deleted so historical ledger entries stay attributable.
type Merchant struct {
	ID         uuid.UUID  `json:"id"`
	Name       string     `json:"name"`
	WebhookURL *string    `json:"webhook_url,omitempty"`
	Address    string     `json:"address"`    // primary deposit address, human-readable form
	SecretKey  string     `json:"-"`          // outbound webhook signing secret, never exposed
	Keys       WalletKeys `json:"-"`          // custodial key material, never exposed
	UserID     uuid.UUID  `json:"user_id"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	DeletedAt  *time.Time `json:"deleted_at,omitempty"`
}

// IsDeleted reports whether the merchant has been tombstoned.
func (m *Merchant) IsDeleted() bool {
	return m.DeletedAt != nil
}

// HasWebhook reports whether the merchant has an outbound webhook configured.
func (m *Merchant) HasWebhook() bool {
	return m.WebhookURL != nil && *m.WebhookURL != ""
}
