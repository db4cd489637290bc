package handler

import (
	"math"
	"strconv"
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

// TransactionHandler handles read-only ledger endpoints.
type TransactionHandler struct {
	txQuerySvc  ports.TransactionQueryService
	merchantSvc ports.MerchantService
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(txQuerySvc ports.TransactionQueryService, merchantSvc ports.MerchantService) *TransactionHandler {
	return &TransactionHandler{txQuerySvc: txQuerySvc, merchantSvc: merchantSvc}
}

// ownsMerchant verifies the authenticated user owns the merchant the ledger
// entries belong to.
func (h *TransactionHandler) ownsMerchant(c *gin.Context, merchantID uuid.UUID) bool {
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

// Get handles GET /api/v1/transactions/:id.
func (h *TransactionHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.ErrNotFound("Transaction"))
		return
	}

	txn, err := h.txQuerySvc.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	if !h.ownsMerchant(c, txn.MerchantID) {
		return
	}
	response.OK(c, toTransactionResponse(txn))
}

// List handles GET /api/v1/transactions?merchant_id=...
func (h *TransactionHandler) List(c *gin.Context) {
	merchantID, err := uuid.Parse(c.Query("merchant_id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid merchant_id"))
		return
	}
	if !h.ownsMerchant(c, merchantID) {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	params := ports.TransactionListParams{
		MerchantID: merchantID,
		Window:     parseWindow(c),
		Page:       page,
		PageSize:   pageSize,
	}
	if s := c.Query("status"); s != "" {
		status := domain.TransactionStatus(s)
		params.Status = &status
	}
	if d := c.Query("is_direct_deposit"); d != "" {
		direct := d == "true"
		params.IsDirectDeposit = &direct
	}

	txns, total, err := h.txQuerySvc.List(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.TransactionResponse, 0, len(txns))
	for i := range txns {
		items = append(items, toTransactionResponse(&txns[i]))
	}

	totalPages := int(math.Ceil(float64(total) / float64(pageSize)))

	response.OK(c, dto.TransactionListResponse{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	})
}

// parseWindow reads optional start_date / end_date query params in
// 2006-01-02 form. The end date is inclusive: it extends to the end of the
// named day.
func parseWindow(c *gin.Context) ports.Window {
	var w ports.Window
	if s := c.Query("start_date"); s != "" {
		if v, err := time.Parse("2006-01-02", s); err == nil {
			w.StartDate = v
		}
	}
	if e := c.Query("end_date"); e != "" {
		if v, err := time.Parse("2006-01-02", e); err == nil {
			w.EndDate = v.Add(24*time.Hour - time.Nanosecond)
		}
	}
	return w
}
