package apperror

import (
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// ---- Ledger & Withdrawal (WDR) ----

// ErrInsufficientBalance carries the violated limit so the caller can retry
// with a corrected amount.
func ErrInsufficientBalance(limit string) *AppError {
	return New("WDR_001", fmt.Sprintf("Insufficient balance. Max withdrawable amount is %s", limit), http.StatusPaymentRequired)
}

func ErrInvalidAmount() *AppError {
	return New("WDR_002", "Invalid amount", http.StatusBadRequest)
}

// ErrNotFound is deliberately generic: it must not reveal whether the id
// exists under a different owner.
func ErrNotFound(entity string) *AppError {
	return New("WDR_003", fmt.Sprintf("%s not found", entity), http.StatusNotFound)
}

// ---- Collaborators (CHAIN) ----

func ErrChainUnavailable(err error) *AppError {
	return Wrap("CHAIN_001", "Blockchain service unavailable", http.StatusServiceUnavailable, err)
}

func ErrTransferFailed(err error) *AppError {
	return Wrap("CHAIN_002", "On-chain transfer failed", http.StatusBadGateway, err)
}

func ErrForecastUnavailable(err error) *AppError {
	return Wrap("CHAIN_003", "Forecast service unavailable", http.StatusBadGateway, err)
}

// ---- Authentication (AUTH) ----

func ErrInvalidToken() *AppError {
	return New("AUTH_001", "Invalid or expired token", http.StatusUnauthorized)
}

// ---- System & Infrastructure (SYS) ----

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}

// Validation returns a request validation error.
func Validation(message string) *AppError {
	return New("WDR_002", message, http.StatusBadRequest)
}
