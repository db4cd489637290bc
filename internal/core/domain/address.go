package domain

import (
	"time"

	"github.com/google/uuid"
)

// Address is a generated sub-wallet bound to exactly one merchant.
// The on-chain address string is globally unique across the system.
// Addresses are never deleted; funds received into them are periodically
// swept to the merchant's primary address.
type Address struct {
	ID         uuid.UUID  `json:"id"`
	Address    string     `json:"address"`
	Keys       WalletKeys `json:"-"` // custodial key material, never exposed
	MerchantID uuid.UUID  `json:"merchant_id"`
	Metadata   string     `json:"metadata"` // merchant-supplied correlation key (customer/order)
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`

	// Merchant is populated when the address is loaded with its owner.
	Merchant *Merchant `json:"-"`
}
