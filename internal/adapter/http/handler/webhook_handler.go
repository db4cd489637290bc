package handler

import (
	"net/http"

	"ton-payment-gateway/internal/core/ports"

	"github.com/gin-gonic/gin"
)

// WebhookHandler receives deposit notifications from the blockchain data
// provider.
type WebhookHandler struct {
	reconcileSvc ports.ReconciliationService
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(reconcileSvc ports.ReconciliationService) *WebhookHandler {
	return &WebhookHandler{reconcileSvc: reconcileSvc}
}

// HandleDeposit handles POST /api/v1/webhook/ton. It always answers 200
// with a structured result: the upstream notifier retries on non-2xx, and a
// rejected notification must not be retried.
func (h *WebhookHandler) HandleDeposit(c *gin.Context) {
	var n ports.DepositNotification
	// A malformed payload binds to a zero notification, which reconciles to
	// an ordinary rejection.
	_ = c.ShouldBindJSON(&n)

	result := h.reconcileSvc.Reconcile(c.Request.Context(), n)
	c.JSON(http.StatusOK, result)
}
