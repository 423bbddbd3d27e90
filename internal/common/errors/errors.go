// Package errors provides standardized error handling for the policy
// lifecycle service.
package errors

import (
	"fmt"
	"net/http"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeValidationFailed     ErrorCode = "VALIDATION_FAILED"
	ErrCodeAuthenticationFailed ErrorCode = "AUTHENTICATION_FAILED"
	ErrCodeForbidden            ErrorCode = "FORBIDDEN"
	ErrCodeResourceNotFound     ErrorCode = "RESOURCE_NOT_FOUND"

	ErrCodeTransitionNotAllowed ErrorCode = "TRANSITION_NOT_ALLOWED"
	ErrCodeVersionConflict      ErrorCode = "VERSION_CONFLICT"
	ErrCodeDuplicateClaim       ErrorCode = "DUPLICATE_CLAIM"
	ErrCodePaymentNotDue        ErrorCode = "PAYMENT_NOT_DUE"
	ErrCodeDuplicateTransaction ErrorCode = "DUPLICATE_TRANSACTION"

	ErrCodeChargeVerificationFailed ErrorCode = "CHARGE_VERIFICATION_FAILED"
	ErrCodePaymentIntentFailed      ErrorCode = "PAYMENT_INTENT_FAILED"
	ErrCodeUploadFailed             ErrorCode = "UPLOAD_FAILED"
	ErrCodeSearchUnavailable        ErrorCode = "SEARCH_UNAVAILABLE"
	ErrCodeNotificationSendFailed   ErrorCode = "NOTIFICATION_SEND_FAILED"

	ErrCodeDatabaseError            ErrorCode = "DATABASE_ERROR"
	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeInternalError            ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// ==========================
// 2. Error Constructors
// ==========================

// NewValidationFailedError creates a non-retryable field-validation error.
// Field-level details are carried in Metadata under "fields".
func NewValidationFailedError(details string, fields map[string]interface{}) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidationFailed,
		Message:   "Request validation failed",
		Details:   details,
		Retryable: false,
		Metadata:  fields,
		Timestamp: time.Now().UTC(),
	}
}

// NewAuthenticationError creates a non-retryable, session-fatal auth error.
func NewAuthenticationError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeAuthenticationFailed,
		Message:   "Authentication failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewForbiddenError creates a non-retryable authorization error.
func NewForbiddenError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeForbidden,
		Message:   "Operation not permitted for this role",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewResourceNotFoundError creates a non-retryable not-found error.
func NewResourceNotFoundError(resource, id string) *StandardError {
	return &StandardError{
		Code:      ErrCodeResourceNotFound,
		Message:   fmt.Sprintf("%s not found", resource),
		Details:   fmt.Sprintf("id: %s", id),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewTransitionNotAllowedError creates a non-retryable lifecycle guard error.
func NewTransitionNotAllowedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeTransitionNotAllowed,
		Message:   "Lifecycle transition not permitted from current state",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewVersionConflictError creates a non-retryable stale-write error. The
// caller must re-fetch and retry with the current version.
func NewVersionConflictError(applicationID string, expected int64) *StandardError {
	return &StandardError{
		Code:      ErrCodeVersionConflict,
		Message:   "Stale write rejected",
		Details:   fmt.Sprintf("applicationId: %s, submitted version: %d", applicationID, expected),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewDuplicateClaimError creates a non-retryable duplicate-claim error.
func NewDuplicateClaimError(applicationID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeDuplicateClaim,
		Message:   "A claim already exists for this application",
		Details:   fmt.Sprintf("applicationId: %s", applicationID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewPaymentNotDueError creates a non-retryable payment guard error.
func NewPaymentNotDueError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodePaymentNotDue,
		Message:   "Payment is not collectible for this application",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewDuplicateTransactionError reports a charge id already recorded against a
// different application. Same-application replays are absorbed, not errored.
func NewDuplicateTransactionError(chargeID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeDuplicateTransaction,
		Message:   "Charge is already recorded for another application",
		Details:   fmt.Sprintf("chargeId: %s", chargeID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewChargeVerificationFailedError creates a retryable gateway error.
func NewChargeVerificationFailedError(chargeID string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeChargeVerificationFailed,
		Message:   "Could not verify charge with payment gateway",
		Details:   fmt.Sprintf("chargeId: %s, error: %s", chargeID, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewPaymentIntentFailedError creates a retryable gateway error.
func NewPaymentIntentFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodePaymentIntentFailed,
		Message:   "Payment gateway refused to create intent",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewUploadFailedError creates a retryable image-host error.
func NewUploadFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeUploadFailed,
		Message:   "Document upload failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSearchUnavailableError creates a retryable search error. Callers may
// degrade to the database listing.
func NewSearchUnavailableError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSearchUnavailable,
		Message:   "Policy search is unavailable",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotificationSendFailedError creates a retryable notification error.
// Notification failures never fail the lifecycle transition that caused them.
func NewNotificationSendFailedError(channel string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationSendFailed,
		Message:   "Notification delivery failed",
		Details:   fmt.Sprintf("channel: %s, error: %s", channel, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewDatabaseError creates a retryable database error.
func NewDatabaseError(operation string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseError,
		Message:   "Database operation failed",
		Details:   fmt.Sprintf("operation: %s, error: %s", operation, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewDatabaseConnectionFailedError creates a retryable connection error.
func NewDatabaseConnectionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseConnectionFailed,
		Message:   "Database connection error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. HTTP Mapping
// ==========================

// HTTPStatus maps an error code to the HTTP status the API surfaces it with.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeValidationFailed:
		return http.StatusUnprocessableEntity
	case ErrCodeAuthenticationFailed:
		return http.StatusUnauthorized
	case ErrCodeForbidden:
		return http.StatusForbidden
	case ErrCodeResourceNotFound:
		return http.StatusNotFound
	case ErrCodeTransitionNotAllowed,
		ErrCodeVersionConflict,
		ErrCodeDuplicateClaim,
		ErrCodePaymentNotDue,
		ErrCodeDuplicateTransaction:
		return http.StatusConflict
	case ErrCodeChargeVerificationFailed,
		ErrCodePaymentIntentFailed,
		ErrCodeUploadFailed,
		ErrCodeSearchUnavailable,
		ErrCodeNotificationSendFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// ==========================
// 4. Utility Functions
// ==========================

// IsRetryable reports whether err carries a retryable StandardError.
func IsRetryable(err error) bool {
	if stdErr, ok := err.(*StandardError); ok {
		return stdErr.Retryable
	}
	return false
}

// CodeOf extracts the error code from err, or INTERNAL_ERROR for foreign errors.
func CodeOf(err error) ErrorCode {
	if stdErr, ok := err.(*StandardError); ok {
		return stdErr.Code
	}
	return ErrCodeInternalError
}
