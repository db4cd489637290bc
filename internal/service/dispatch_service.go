package service

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"ton-payment-gateway/internal/core/domain"

	"github.com/rs/zerolog"
)

// HTTPClient interface for testability.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// DispatchServiceImpl implements ports.DispatchService: a single best-effort
// POST of the persisted ledger entry to the merchant's webhook URL, signed
// with the merchant's secret as a bearer token. No retries; the upstream
// chain notification is the source of truth, this is a courtesy signal.
type DispatchServiceImpl struct {
	httpClient HTTPClient
	timeout    time.Duration
	log        zerolog.Logger
}

// NewDispatchService creates a new DispatchServiceImpl.
func NewDispatchService(httpClient HTTPClient, timeout time.Duration, log zerolog.Logger) *DispatchServiceImpl {
	return &DispatchServiceImpl{
		httpClient: httpClient,
		timeout:    timeout,
		log:        log,
	}
}

// Dispatch delivers the entry asynchronously. Failures are logged and
// swallowed: a dead merchant endpoint must never affect the ledger write or
// the response to the chain notifier.
func (s *DispatchServiceImpl) Dispatch(merchant *domain.Merchant, entry *domain.Transaction) {
	if !merchant.HasWebhook() {
		return
	}
	go s.deliver(*merchant.WebhookURL, merchant.SecretKey, entry)
}

func (s *DispatchServiceImpl) deliver(url, secret string, entry *domain.Transaction) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	body, err := json.Marshal(entry)
	if err != nil {
		s.log.Error().Err(err).Str("hash", entry.Hash).Msg("webhook: marshal failed")
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		s.log.Error().Err(err).Str("url", url).Msg("webhook: build request failed")
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+secret)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.log.Warn().Err(err).Str("url", url).Str("hash", entry.Hash).Msg("webhook: delivery failed")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		s.log.Warn().Int("status", resp.StatusCode).Str("url", url).Str("hash", entry.Hash).Msg("webhook: non-2xx response")
		return
	}

	s.log.Info().Str("url", url).Str("hash", entry.Hash).Msg("webhook delivered")
}
