package handler

import (
	"time"

	"ton-payment-gateway/internal/adapter/http/dto"
	"ton-payment-gateway/internal/adapter/http/middleware"
	"ton-payment-gateway/internal/core/domain"
	"ton-payment-gateway/internal/core/ports"
	"ton-payment-gateway/pkg/apperror"
	"ton-payment-gateway/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MerchantHandler handles merchant lifecycle, balance and withdrawal
// endpoints.
type MerchantHandler struct {
	merchantSvc   ports.MerchantService
	withdrawalSvc ports.WithdrawalService
}

// NewMerchantHandler creates a new MerchantHandler.
func NewMerchantHandler(merchantSvc ports.MerchantService, withdrawalSvc ports.WithdrawalService) *MerchantHandler {
	return &MerchantHandler{merchantSvc: merchantSvc, withdrawalSvc: withdrawalSvc}
}

// userID extracts the authenticated user from the request context.
func userID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(middleware.CtxUserID)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

// authorizeMerchant loads the merchant and verifies ownership. Admins may
// act on any merchant. A foreign merchant reads as not-found so ownership
// probing reveals nothing.
func (h *MerchantHandler) authorizeMerchant(c *gin.Context) (*domain.Merchant, bool) {
	uid, ok := userID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return nil, false
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.ErrNotFound("Merchant"))
		return nil, false
	}

	merchant, err := h.merchantSvc.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return nil, false
	}
	if merchant.UserID != uid && !c.GetBool(middleware.CtxIsAdmin) {
		response.Error(c, apperror.ErrNotFound("Merchant"))
		return nil, false
	}
	return merchant, true
}

// Create handles POST /api/v1/merchants.
func (h *MerchantHandler) Create(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.CreateMerchantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	merchant, err := h.merchantSvc.Create(c.Request.Context(), ports.CreateMerchantRequest{
		UserID:     uid,
		Name:       req.Name,
		WebhookURL: req.WebhookURL,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	// The webhook signing secret is only revealed at creation time.
	response.Created(c, gin.H{
		"merchant":   toMerchantResponse(merchant),
		"secret_key": merchant.SecretKey,
	})
}

// List handles GET /api/v1/merchants.
func (h *MerchantHandler) List(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	merchants, err := h.merchantSvc.ListByUser(c.Request.Context(), uid)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.MerchantResponse, 0, len(merchants))
	for i := range merchants {
		items = append(items, toMerchantResponse(&merchants[i]))
	}
	response.OK(c, items)
}

// Get handles GET /api/v1/merchants/:id.
func (h *MerchantHandler) Get(c *gin.Context) {
	merchant, ok := h.authorizeMerchant(c)
	if !ok {
		return
	}
	response.OK(c, toMerchantResponse(merchant))
}

// GetBalances handles GET /api/v1/merchants/:id/balances.
func (h *MerchantHandler) GetBalances(c *gin.Context) {
	merchant, ok := h.authorizeMerchant(c)
	if !ok {
		return
	}

	balances, err := h.merchantSvc.GetBalances(c.Request.Context(), merchant.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, balances)
}

// Update handles PUT /api/v1/merchants/:id.
func (h *MerchantHandler) Update(c *gin.Context) {
	merchant, ok := h.authorizeMerchant(c)
	if !ok {
		return
	}

	var req dto.UpdateMerchantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	updated, err := h.merchantSvc.Update(c.Request.Context(), merchant.ID, ports.UpdateMerchantRequest{
		Name:       req.Name,
		WebhookURL: req.WebhookURL,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, toMerchantResponse(updated))
}

// Delete handles DELETE /api/v1/merchants/:id.
func (h *MerchantHandler) Delete(c *gin.Context) {
	merchant, ok := h.authorizeMerchant(c)
	if !ok {
		return
	}

	if err := h.merchantSvc.Delete(c.Request.Context(), merchant.ID); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"message": "merchant deleted"})
}

// Withdraw handles POST /api/v1/merchants/:id/withdraw.
func (h *MerchantHandler) Withdraw(c *gin.Context) {
	merchant, ok := h.authorizeMerchant(c)
	if !ok {
		return
	}

	var req dto.WithdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		response.Error(c, apperror.ErrInvalidAmount())
		return
	}

	entry, err := h.withdrawalSvc.Withdraw(c.Request.Context(), ports.WithdrawRequest{
		MerchantID: merchant.ID,
		ToAddress:  req.ToAddress,
		Amount:     amount,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, toTransactionResponse(entry))
}

// Sweep handles POST /api/v1/merchants/:id/collect-addresses.
func (h *MerchantHandler) Sweep(c *gin.Context) {
	merchant, ok := h.authorizeMerchant(c)
	if !ok {
		return
	}

	report, err := h.withdrawalSvc.Sweep(c.Request.Context(), merchant.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, report)
}

func toMerchantResponse(m *domain.Merchant) dto.MerchantResponse {
	return dto.MerchantResponse{
		ID:         m.ID.String(),
		Name:       m.Name,
		Address:    m.Address,
		WebhookURL: m.WebhookURL,
		CreatedAt:  m.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func toTransactionResponse(t *domain.Transaction) dto.TransactionResponse {
	return dto.TransactionResponse{
		ID:               t.ID.String(),
		Amount:           t.Amount.String(),
		ServiceFee:       t.ServiceFee.String(),
		Hash:             t.Hash,
		Metadata:         t.Metadata,
		IsDirectDeposit:  t.IsDirectDeposit,
		Status:           string(t.Status),
		ConfirmationTime: t.ConfirmationTime,
		MerchantID:       t.MerchantID.String(),
		CreatedAt:        t.CreatedAt.UTC().Format(time.RFC3339),
	}
}
