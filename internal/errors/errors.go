package errors

import (
	"fmt"
	"net/http"
)

// APIError represents a standardized API error response
type APIError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Field   string    `json:"field,omitempty"`
	Details string    `json:"details,omitempty"`
	Status  int       `json:"-"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s (field: %s)", e.Code, e.Message, e.Field)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// New creates an APIError with a specific code and message
func New(code ErrorCode, message string) *APIError {
	return &APIError{Code: code, Message: message, Status: code.StatusCode()}
}

// NotFound creates a NOT_FOUND error
func NotFound(resource string) *APIError {
	return &APIError{
		Code:    ErrNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Status:  http.StatusNotFound,
	}
}

// Unauthorized creates an UNAUTHORIZED error
func Unauthorized(message string) *APIError {
	return &APIError{Code: ErrUnauthorized, Message: message, Status: http.StatusUnauthorized}
}

// Forbidden creates a FORBIDDEN error
func Forbidden(message string) *APIError {
	return &APIError{Code: ErrForbidden, Message: message, Status: http.StatusForbidden}
}

// Conflict creates a CONFLICT error
func Conflict(resource string) *APIError {
	return &APIError{
		Code:    ErrConflict,
		Message: fmt.Sprintf("%s already exists or is in an invalid state", resource),
		Status:  http.StatusConflict,
	}
}

// ValidationError creates a VALIDATION_ERROR scoped to one field
func ValidationError(field, message string) *APIError {
	return &APIError{
		Code:    ErrValidation,
		Message: message,
		Field:   field,
		Status:  http.StatusUnprocessableEntity,
	}
}

// BadRequest creates a BAD_REQUEST error
func BadRequest(message string) *APIError {
	return &APIError{Code: ErrBadRequest, Message: message, Status: http.StatusBadRequest}
}

// Internal creates an INTERNAL_ERROR with operator-facing details
func Internal(message string, err error) *APIError {
	details := ""
	if err != nil {
		details = err.Error()
	}
	return &APIError{
		Code:    ErrInternalError,
		Message: message,
		Details: details,
		Status:  http.StatusInternalServerError,
	}
}

// AccountBanned signals the acting account is banned from the platform
func AccountBanned(reason string) *APIError {
	return &APIError{
		Code:    ErrAccountBanned,
		Message: "account is banned",
		Details: reason,
		Status:  http.StatusForbidden,
	}
}

// ChatBlocked signals the target chat was blocked by a moderator
func ChatBlocked() *APIError {
	return &APIError{
		Code:    ErrChatBlocked,
		Message: "this chat has been blocked",
		Status:  http.StatusForbidden,
	}
}

// ContentFlagged signals the classifier rejected the submitted content
func ContentFlagged(categories []string) *APIError {
	return &APIError{
		Code:    ErrContentFlagged,
		Message: "content violates community guidelines",
		Details: fmt.Sprintf("flagged categories: %v", categories),
		Status:  http.StatusUnprocessableEntity,
	}
}
