package ports

import (
	"context"

	"github.com/shopspring/decimal"
)

// Wallet is the key material returned by the blockchain client for a newly
// created custodial wallet.
type Wallet struct {
	PublicKey string
	SecretKey string
	Address   string // human-readable, non-bounceable form
	WalletID  string
	Mnemonic  []string
}

// TransferParams identify the source key material, destination and amount
// of an on-chain transfer.
type TransferParams struct {
	PublicKey string
	SecretKey string
	ToAddress string
	Amount    decimal.Decimal // TON
}

// TransactionDetail is the on-chain view of a transaction.
type TransactionDetail struct {
	Success            bool
	Bounced            bool
	Value              int64 // nanotons
	SourceAddress      string
	DestinationAddress string // raw form
}

// TonClient is the blockchain collaborator. GetTransactionDetail returns
// (nil, nil) when the chain does not know the hash.
type TonClient interface {
	CreateWallet(ctx context.Context) (*Wallet, error)
	GetBalance(ctx context.Context, publicKey string) (decimal.Decimal, error)
	Transfer(ctx context.Context, params TransferParams) error
	GetTransactionDetail(ctx context.Context, hash string) (*TransactionDetail, error)
	// NormalizeAddress converts a raw workchain:hex address into the
	// human-readable non-bounceable form used as the lookup key.
	NormalizeAddress(raw string) (string, error)
}

// WebhookRegistry registers interest with the blockchain data provider so
// future deposits to a wallet generate inbound notifications. Called once
// per merchant or address creation.
type WebhookRegistry interface {
	Subscribe(ctx context.Context, walletID string) error
}

// ForecastRequest is the payload sent to the external forecasting service.
type ForecastRequest struct {
	Points  []SeriesPoint `json:"points"`
	Model   string        `json:"model"`
	Horizon int           `json:"horizon"`
}

// ForecastClient delegates time-series forecasting to an external service.
type ForecastClient interface {
	Forecast(ctx context.Context, req ForecastRequest) ([]SeriesPoint, error)
}
