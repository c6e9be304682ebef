package dto

import "net/http"

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	// ErrCodeUnknown is used when the error type is unknown
	ErrCodeUnknown = "ERR_UNKNOWN"
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
)

// Validation error codes
const (
	// ErrCodeValidation is the base code for validation errors
	ErrCodeValidation = "ERR_VALIDATION"
	// ErrCodeValidationRequired is used when a required field is missing
	ErrCodeValidationRequired = "ERR_VALIDATION_REQUIRED"
	// ErrCodeValidationFormat is used when a field has invalid format
	ErrCodeValidationFormat = "ERR_VALIDATION_FORMAT"
)

// Authentication error codes
const (
	// ErrCodeUnauthorized is used when authentication is required but missing/invalid
	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	// ErrCodeForbidden is used when the user lacks permission
	ErrCodeForbidden = "ERR_FORBIDDEN"
	// ErrCodeTokenExpired is used when the auth token has expired
	ErrCodeTokenExpired = "ERR_TOKEN_EXPIRED"
	// ErrCodeTokenInvalid is used when the auth token is invalid
	ErrCodeTokenInvalid = "ERR_TOKEN_INVALID"
)

// Resource error codes
const (
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "ERR_NOT_FOUND"
	// ErrCodeConflict is used for general resource conflicts
	ErrCodeConflict = "ERR_CONFLICT"
)

// Payment business rule error codes
const (
	// ErrCodeInvalidState is used when an operation is invalid for the payment's current status
	ErrCodeInvalidState = "ERR_INVALID_STATE"
	// ErrCodeInvalidAmount is used when a tendered or refund amount is not positive
	ErrCodeInvalidAmount = "ERR_INVALID_AMOUNT"
	// ErrCodeInvalidMethod is used when the payment method is missing or unknown
	ErrCodeInvalidMethod = "ERR_INVALID_METHOD"
	// ErrCodeInvalidReason is used when a cancel/refund reason is too short
	ErrCodeInvalidReason = "ERR_INVALID_REASON"
	// ErrCodeExceedsRefundable is used when a refund exceeds the remaining unrefunded amount
	ErrCodeExceedsRefundable = "ERR_EXCEEDS_REFUNDABLE"
	// ErrCodePartialCommit reports a tender that committed some but not all entries
	ErrCodePartialCommit = "ERR_PARTIAL_COMMIT"
)

// Upstream ledger error codes
const (
	// ErrCodeLedger is used when the ledger backend rejected a request without a typed code
	ErrCodeLedger = "ERR_LEDGER"
	// ErrCodeLedgerUnavailable is used when the ledger backend cannot be reached
	ErrCodeLedgerUnavailable = "ERR_LEDGER_UNAVAILABLE"
)

// Input error codes
const (
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeInvalidInput is used for invalid input data
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
	// ErrCodeInvalidJSON is used when JSON parsing fails
	ErrCodeInvalidJSON = "ERR_INVALID_JSON"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	// General errors
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	// Validation errors -> 400 Bad Request
	ErrCodeValidation:         http.StatusBadRequest,
	ErrCodeValidationRequired: http.StatusBadRequest,
	ErrCodeValidationFormat:   http.StatusBadRequest,

	// Auth errors
	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,
	ErrCodeTokenExpired: http.StatusUnauthorized,
	ErrCodeTokenInvalid: http.StatusUnauthorized,

	// Resource errors
	ErrCodeNotFound: http.StatusNotFound,
	ErrCodeConflict: http.StatusConflict,

	// Business rule errors -> 422 Unprocessable Entity
	ErrCodeInvalidState:      http.StatusUnprocessableEntity,
	ErrCodeExceedsRefundable: http.StatusUnprocessableEntity,

	// Partial tender commits -> 207 Multi-Status: the request neither fully
	// succeeded nor fully failed and the body carries both halves
	ErrCodePartialCommit: http.StatusMultiStatus,

	// Upstream ledger failures
	ErrCodeLedger:            http.StatusBadGateway,
	ErrCodeLedgerUnavailable: http.StatusServiceUnavailable,

	// Input errors -> 400 Bad Request
	ErrCodeBadRequest:    http.StatusBadRequest,
	ErrCodeInvalidInput:  http.StatusBadRequest,
	ErrCodeInvalidAmount: http.StatusBadRequest,
	ErrCodeInvalidMethod: http.StatusBadRequest,
	ErrCodeInvalidReason: http.StatusBadRequest,
	ErrCodeInvalidJSON:   http.StatusBadRequest,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// LegacyErrorCodeMapping maps bare domain error codes to the standardized
// ERR_ format. Domain errors carry short codes ("NOT_FOUND"); the HTTP
// surface normalizes them before picking a status.
var LegacyErrorCodeMapping = map[string]string{
	"NOT_FOUND":          ErrCodeNotFound,
	"INVALID_INPUT":      ErrCodeInvalidInput,
	"INVALID_STATE":      ErrCodeInvalidState,
	"INVALID_AMOUNT":     ErrCodeInvalidAmount,
	"INVALID_METHOD":     ErrCodeInvalidMethod,
	"INVALID_REASON":     ErrCodeInvalidReason,
	"EXCEEDS_REFUNDABLE": ErrCodeExceedsRefundable,
	"LEDGER_ERROR":       ErrCodeLedger,
	"UNAUTHORIZED":       ErrCodeUnauthorized,
	"FORBIDDEN":          ErrCodeForbidden,
	"CONFLICT":           ErrCodeConflict,
	"BAD_REQUEST":        ErrCodeBadRequest,
	"INTERNAL_ERROR":     ErrCodeInternal,
}

// NormalizeErrorCode converts a bare domain error code to the standardized format
// If the code is already in the new format or unknown, returns it as-is
func NormalizeErrorCode(code string) string {
	if newCode, ok := LegacyErrorCodeMapping[code]; ok {
		return newCode
	}
	return code
}
