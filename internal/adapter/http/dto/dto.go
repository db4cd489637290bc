package dto

// CreateMerchantRequest is the request body for merchant registration.
type CreateMerchantRequest struct {
	Name       string  `json:"name" binding:"required,min=1,max=100"`
	WebhookURL *string `json:"webhook_url,omitempty"`
}

// UpdateMerchantRequest is the request body for merchant updates. Absent
// fields are left unchanged.
type UpdateMerchantRequest struct {
	Name       *string `json:"name,omitempty"`
	WebhookURL *string `json:"webhook_url,omitempty"`
}

// WithdrawRequest is the request body for a withdrawal. Amount is a decimal
// string in TON.
type WithdrawRequest struct {
	ToAddress string `json:"to_address" binding:"required"`
	Amount    string `json:"amount" binding:"required"`
}

// CreateAddressRequest is the request body for sub-address creation.
type CreateAddressRequest struct {
	MerchantID string `json:"merchant_id" binding:"required,uuid"`
	Metadata   string `json:"metadata" binding:"max=256"`
}

// MerchantResponse is the public merchant view.
type MerchantResponse struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Address    string  `json:"address"`
	WebhookURL *string `json:"webhook_url,omitempty"`
	CreatedAt  string  `json:"created_at"`
}

// AddressResponse is the public sub-address view.
type AddressResponse struct {
	ID         string `json:"id"`
	Address    string `json:"address"`
	MerchantID string `json:"merchant_id"`
	Metadata   string `json:"metadata,omitempty"`
	CreatedAt  string `json:"created_at"`
}

// TransactionResponse is the public ledger entry view. Amounts are decimal
// strings in TON.
type TransactionResponse struct {
	ID               string `json:"id"`
	Amount           string `json:"amount"`
	ServiceFee       string `json:"service_fee"`
	Hash             string `json:"hash"`
	Metadata         string `json:"metadata,omitempty"`
	IsDirectDeposit  bool   `json:"is_direct_deposit"`
	Status           string `json:"status"`
	ConfirmationTime int64  `json:"confirmation_time"`
	MerchantID       string `json:"merchant_id"`
	CreatedAt        string `json:"created_at"`
}

// TransactionListResponse wraps a paginated ledger listing.
type TransactionListResponse struct {
	Items      []TransactionResponse `json:"items"`
	Total      int64                 `json:"total"`
	Page       int                   `json:"page"`
	PageSize   int                   `json:"page_size"`
	TotalPages int                   `json:"total_pages"`
}
