package ton

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"ton-payment-gateway/config"

	"github.com/rs/zerolog"
)

// WebhookRegistry implements ports.WebhookRegistry against the provider's
// real-time notification API. Subscribing a wallet makes future deposits to
// it arrive as inbound webhook notifications.
type WebhookRegistry struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	log        zerolog.Logger
}

// NewWebhookRegistry creates a notification subscription client.
func NewWebhookRegistry(cfg config.TonConfig, log zerolog.Logger) *WebhookRegistry {
	return &WebhookRegistry{
		baseURL:    cfg.WebhookAPIURL,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		log:        log.With().Str("component", "webhook_registry").Logger(),
	}
}

// Subscribe registers a wallet for deposit notifications.
func (r *WebhookRegistry) Subscribe(ctx context.Context, walletID string) error {
	payload, err := json.Marshal(map[string]string{"wallet_id": walletID})
	if err != nil {
		return fmt.Errorf("marshal subscription: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/v1/subscriptions", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build subscription request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if r.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+r.apiKey)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute subscription request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("subscription api status %d: %s", resp.StatusCode, string(raw))
	}

	r.log.Debug().Str("wallet_id", walletID).Msg("wallet subscribed for deposit notifications")
	return nil
}
