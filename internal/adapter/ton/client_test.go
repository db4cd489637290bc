package ton

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ton-payment-gateway/config"
	"ton-payment-gateway/internal/core/ports"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client := NewClient(config.TonConfig{
		APIURL:         server.URL,
		APIKey:         "test-key",
		RequestTimeout: 3 * time.Second,
	}, zerolog.Nop())
	return client, server
}

func TestClient_CreateWallet(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v2/wallet", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(map[string]any{
			"public_key": "pub",
			"secret_key": "sec",
			"address":    "UQAbc",
			"wallet_id":  "w-1",
			"mnemonic":   []string{"alpha", "beta"},
		})
	}))

	wallet, err := client.CreateWallet(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "pub", wallet.PublicKey)
	assert.Equal(t, "UQAbc", wallet.Address)
	assert.Equal(t, []string{"alpha", "beta"}, wallet.Mnemonic)
}

func TestClient_GetBalance(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/accounts/pub-1", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{"balance": int64(2_500_000_000)})
	}))

	balance, err := client.GetBalance(context.Background(), "pub-1")
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("2.5").Equal(balance))
}

func TestClient_Transfer_SendsNanotons(t *testing.T) {
	var body map[string]any
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/wallet/transfer", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.WriteHeader(http.StatusOK)
	}))

	err := client.Transfer(context.Background(), ports.TransferParams{
		PublicKey: "pub",
		SecretKey: "sec",
		ToAddress: "UQDest",
		Amount:    decimal.RequireFromString("1.25"),
	})
	require.NoError(t, err)
	assert.Equal(t, float64(1_250_000_000), body["amount"])
	assert.Equal(t, "UQDest", body["to_address"])
}

func TestClient_Transfer_ChainError(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "insufficient funds", http.StatusBadRequest)
	}))

	err := client.Transfer(context.Background(), ports.TransferParams{
		Amount: decimal.RequireFromString("1"),
	})
	assert.Error(t, err)
}

func TestClient_GetTransactionDetail(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/blockchain/transactions/abc123", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"in_msg": map[string]any{
				"value":       int64(500_000_000),
				"bounced":     false,
				"source":      "0:aaaa",
				"destination": "0:bbbb",
			},
		})
	}))

	detail, err := client.GetTransactionDetail(context.Background(), "abc123")
	require.NoError(t, err)
	require.NotNil(t, detail)
	assert.True(t, detail.Success)
	assert.False(t, detail.Bounced)
	assert.Equal(t, int64(500_000_000), detail.Value)
	assert.Equal(t, "0:bbbb", detail.DestinationAddress)
}

func TestClient_GetTransactionDetail_UnknownHash(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))

	detail, err := client.GetTransactionDetail(context.Background(), "missing")
	assert.NoError(t, err)
	assert.Nil(t, detail)
}

func TestWebhookRegistry_Subscribe(t *testing.T) {
	var body map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/subscriptions", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	registry := NewWebhookRegistry(config.TonConfig{
		WebhookAPIURL:  server.URL,
		RequestTimeout: 3 * time.Second,
	}, zerolog.Nop())

	err := registry.Subscribe(context.Background(), "w-9")
	require.NoError(t, err)
	assert.Equal(t, "w-9", body["wallet_id"])
}

func TestWebhookRegistry_Subscribe_Failure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	registry := NewWebhookRegistry(config.TonConfig{
		WebhookAPIURL:  server.URL,
		RequestTimeout: 3 * time.Second,
	}, zerolog.Nop())

	err := registry.Subscribe(context.Background(), "w-9")
	assert.Error(t, err)
}
