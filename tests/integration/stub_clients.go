package integration

import (
	"context"
	"fmt"
	"sync"

	tonadapter "ton-payment-gateway/internal/adapter/ton"
	"ton-payment-gateway/internal/core/ports"

	"github.com/shopspring/decimal"
)

// stubTonClient simulates the blockchain. Wallet creation is deterministic,
// balances and transaction details are seeded by tests, and address
// normalization is the real encoding so webhook destinations resolve exactly
// like production ones.
type stubTonClient struct {
	mu          sync.Mutex
	walletSeq   int
	balances    map[string]decimal.Decimal         // by public key
	details     map[string]*ports.TransactionDetail // by tx hash
	rawByAddr   map[string]string                  // normalized address -> raw form
	transfers   []ports.TransferParams
	transferErr error
}

func newStubTonClient() *stubTonClient {
	return &stubTonClient{
		balances:  make(map[string]decimal.Decimal),
		details:   make(map[string]*ports.TransactionDetail),
		rawByAddr: make(map[string]string),
	}
}

func (c *stubTonClient) CreateWallet(ctx context.Context) (*ports.Wallet, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.walletSeq++
	raw := fmt.Sprintf("0:%064x", c.walletSeq)
	address, err := tonadapter.NormalizeAddress(raw)
	if err != nil {
		return nil, err
	}
	c.rawByAddr[address] = raw
	return &ports.Wallet{
		PublicKey: fmt.Sprintf("pub-%d", c.walletSeq),
		SecretKey: fmt.Sprintf("sec-%d", c.walletSeq),
		Address:   address,
		WalletID:  fmt.Sprintf("wallet-%d", c.walletSeq),
		Mnemonic:  []string{"abandon", "ability", "able"},
	}, nil
}

func (c *stubTonClient) GetBalance(ctx context.Context, publicKey string) (decimal.Decimal, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.balances[publicKey], nil
}

func (c *stubTonClient) Transfer(ctx context.Context, params ports.TransferParams) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.transferErr != nil {
		return c.transferErr
	}
	c.transfers = append(c.transfers, params)
	return nil
}

func (c *stubTonClient) GetTransactionDetail(ctx context.Context, hash string) (*ports.TransactionDetail, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.details[hash], nil
}

func (c *stubTonClient) NormalizeAddress(raw string) (string, error) {
	return tonadapter.NormalizeAddress(raw)
}

func (c *stubTonClient) setBalance(publicKey string, balance decimal.Decimal) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.balances[publicKey] = balance
}

// seedDeposit registers on-chain detail for a successful transfer of
// nanotons into the given normalized address.
func (c *stubTonClient) seedDeposit(hash, address string, nanotons int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.details[hash] = &ports.TransactionDetail{
		Success:            true,
		Value:              nanotons,
		SourceAddress:      "0:1111111111111111111111111111111111111111111111111111111111111111",
		DestinationAddress: c.rawByAddr[address],
	}
}

func (c *stubTonClient) transferCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.transfers)
}

// stubWebhookRegistry records subscriptions instead of calling the provider.
type stubWebhookRegistry struct {
	mu         sync.Mutex
	subscribed []string
}

func (r *stubWebhookRegistry) Subscribe(ctx context.Context, walletID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subscribed = append(r.subscribed, walletID)
	return nil
}

func (r *stubWebhookRegistry) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.subscribed)
}

// stubForecastClient returns canned forecast points.
type stubForecastClient struct {
	points []ports.SeriesPoint
	err    error
}

func (c *stubForecastClient) Forecast(ctx context.Context, req ports.ForecastRequest) ([]ports.SeriesPoint, error) {
	if c.err != nil {
		return nil, c.err
	}
	return c.points, nil
}

// stubHealthChecker stands in for the PostgreSQL pool check.
type stubHealthChecker struct {
	name string
	err  error
}

func (h *stubHealthChecker) Ping(ctx context.Context) error { return h.err }
func (h *stubHealthChecker) Name() string                   { return h.name }
