package ton

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"ton-payment-gateway/config"
	"ton-payment-gateway/internal/core/ports"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// nanotonExp converts on-chain integer amounts (nanotons) to TON.
const nanotonExp = -9

// Client implements ports.TonClient over the blockchain data provider's
// HTTP API. Key material returned by CreateWallet is custodial: the
// provider's managed-wallet endpoint generates it and this gateway stores
// it.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	log        zerolog.Logger
}

// NewClient creates a blockchain API client.
func NewClient(cfg config.TonConfig, log zerolog.Logger) *Client {
	return &Client{
		baseURL:    cfg.APIURL,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		log:        log.With().Str("component", "ton_client").Logger(),
	}
}

type walletResponse struct {
	PublicKey string   `json:"public_key"`
	SecretKey string   `json:"secret_key"`
	Address   string   `json:"address"`
	WalletID  string   `json:"wallet_id"`
	Mnemonic  []string `json:"mnemonic"`
}

type accountResponse struct {
	Balance int64 `json:"balance"` // nanotons
}

type transactionResponse struct {
	Success bool `json:"success"`
	InMsg   struct {
		Value       int64  `json:"value"` // nanotons
		Bounced     bool   `json:"bounced"`
		Source      string `json:"source"`      // raw form
		Destination string `json:"destination"` // raw form
	} `json:"in_msg"`
}

// CreateWallet asks the provider to generate a new custodial wallet.
func (c *Client) CreateWallet(ctx context.Context) (*ports.Wallet, error) {
	var resp walletResponse
	if err := c.do(ctx, http.MethodPost, "/v2/wallet", nil, &resp); err != nil {
		return nil, fmt.Errorf("create wallet: %w", err)
	}
	return &ports.Wallet{
		PublicKey: resp.PublicKey,
		SecretKey: resp.SecretKey,
		Address:   resp.Address,
		WalletID:  resp.WalletID,
		Mnemonic:  resp.Mnemonic,
	}, nil
}

// GetBalance fetches the on-chain balance of a wallet in TON.
func (c *Client) GetBalance(ctx context.Context, publicKey string) (decimal.Decimal, error) {
	var resp accountResponse
	if err := c.do(ctx, http.MethodGet, "/v2/accounts/"+publicKey, nil, &resp); err != nil {
		return decimal.Zero, fmt.Errorf("get balance: %w", err)
	}
	return decimal.New(resp.Balance, nanotonExp), nil
}

// Transfer submits an on-chain transfer signed with the wallet's keys.
func (c *Client) Transfer(ctx context.Context, params ports.TransferParams) error {
	body := map[string]any{
		"public_key": params.PublicKey,
		"secret_key": params.SecretKey,
		"to_address": params.ToAddress,
		"amount":     params.Amount.Shift(-nanotonExp).IntPart(), // nanotons
	}
	if err := c.do(ctx, http.MethodPost, "/v2/wallet/transfer", body, nil); err != nil {
		return fmt.Errorf("transfer: %w", err)
	}
	return nil
}

// GetTransactionDetail fetches the on-chain view of a transaction.
// Returns (nil, nil) when the chain does not know the hash.
func (c *Client) GetTransactionDetail(ctx context.Context, hash string) (*ports.TransactionDetail, error) {
	var resp transactionResponse
	err := c.do(ctx, http.MethodGet, "/v2/blockchain/transactions/"+hash, nil, &resp)
	if err != nil {
		var apiErr *apiError
		if errors.As(err, &apiErr) && apiErr.status == http.StatusNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("get transaction detail: %w", err)
	}
	return &ports.TransactionDetail{
		Success:            resp.Success,
		Bounced:            resp.InMsg.Bounced,
		Value:              resp.InMsg.Value,
		SourceAddress:      resp.InMsg.Source,
		DestinationAddress: resp.InMsg.Destination,
	}, nil
}

// NormalizeAddress converts a raw address into the stored human-readable
// form.
func (c *Client) NormalizeAddress(raw string) (string, error) {
	return NormalizeAddress(raw)
}

type apiError struct {
	status int
	body   string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("blockchain api status %d: %s", e.status, e.body)
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &apiError{status: resp.StatusCode, body: string(raw)}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
