// Package response writes the JSON envelopes every handler replies with.
// Success bodies carry the payload under "data"; failures carry a stable
// error code the caller can branch on. Both are stamped with the request
// ID and an RFC3339 timestamp.
package response

import (
	"errors"
	"net/http"
	"time"

	"ton-payment-gateway/pkg/apperror"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const fallbackCode = "SYS_000"

// SuccessResponse wraps a payload.
type SuccessResponse struct {
	Data      interface{} `json:"data"`
	RequestID string      `json:"request_id"`
	Timestamp string      `json:"timestamp"`
}

// ErrorResponse carries a machine-readable code plus a human message.
type ErrorResponse struct {
	ErrorCode string `json:"error_code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
	Timestamp string `json:"timestamp"`
}

// OK writes data with status 200.
func OK(c *gin.Context, data interface{}) {
	success(c, http.StatusOK, data)
}

// Created writes data with status 201.
func Created(c *gin.Context, data interface{}) {
	success(c, http.StatusCreated, data)
}

func success(c *gin.Context, status int, data interface{}) {
	c.JSON(status, SuccessResponse{
		Data:      data,
		RequestID: requestID(c),
		Timestamp: stamp(),
	})
}

// Error maps an *apperror.AppError onto its HTTP status and code. Anything
// else is opaque to the client and comes back as a 500 with the fallback
// code; the real cause stays in the logs.
func Error(c *gin.Context, err error) {
	status, code, message := http.StatusInternalServerError, fallbackCode, "Internal server error"

	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status, code, message = appErr.HTTPStatus, appErr.Code, appErr.Message
	}

	c.JSON(status, ErrorResponse{
		ErrorCode: code,
		Message:   message,
		RequestID: requestID(c),
		Timestamp: stamp(),
	})
}

func stamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// requestID reads the ID from the gin context when a caller put one there,
// and mints a fresh UUID otherwise so every response is correlatable.
func requestID(c *gin.Context) string {
	if id, exists := c.Get("request_id"); exists {
		if s, ok := id.(string); ok {
			return s
		}
	}
	return uuid.New().String()
}
