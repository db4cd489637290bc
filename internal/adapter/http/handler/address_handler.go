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
)

// AddressHandler handles deposit sub-address endpoints.
type AddressHandler struct {
	addressSvc  ports.AddressService
	merchantSvc ports.MerchantService
}

// NewAddressHandler creates a new AddressHandler.
func NewAddressHandler(addressSvc ports.AddressService, merchantSvc ports.MerchantService) *AddressHandler {
	return &AddressHandler{addressSvc: addressSvc, merchantSvc: merchantSvc}
}

// ownsMerchant verifies the authenticated user owns the merchant. A foreign
// merchant reads as not-found.
func (h *AddressHandler) ownsMerchant(c *gin.Context, merchantID uuid.UUID) bool {
	uid, ok := userID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return false
	}

	merchant, err := h.merchantSvc.Get(c.Request.Context(), merchantID)
	if err != nil {
		response.Error(c, err)
		return false
	}
	if merchant.UserID != uid && !c.GetBool(middleware.CtxIsAdmin) {
		response.Error(c, apperror.ErrNotFound("Merchant"))
		return false
	}
	return true
}

// Create handles POST /api/v1/addresses.
func (h *AddressHandler) Create(c *gin.Context) {
	var req dto.CreateAddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	merchantID, err := uuid.Parse(req.MerchantID)
	if err != nil {
		response.Error(c, apperror.Validation("invalid merchant_id"))
		return
	}
	if !h.ownsMerchant(c, merchantID) {
		return
	}

	address, err := h.addressSvc.Create(c.Request.Context(), merchantID, req.Metadata)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, toAddressResponse(address))
}

// ListByMerchant handles GET /api/v1/addresses?merchant_id=...
func (h *AddressHandler) ListByMerchant(c *gin.Context) {
	merchantID, err := uuid.Parse(c.Query("merchant_id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid merchant_id"))
		return
	}
	if !h.ownsMerchant(c, merchantID) {
		return
	}

	addresses, err := h.addressSvc.ListByMerchant(c.Request.Context(), merchantID)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.AddressResponse, 0, len(addresses))
	for i := range addresses {
		items = append(items, toAddressResponse(&addresses[i]))
	}
	response.OK(c, items)
}

func toAddressResponse(a *domain.Address) dto.AddressResponse {
	return dto.AddressResponse{
		ID:         a.ID.String(),
		Address:    a.Address,
		MerchantID: a.MerchantID.String(),
		Metadata:   a.Metadata,
		CreatedAt:  a.CreatedAt.UTC().Format(time.RFC3339),
	}
}
