package errors

import (
	"net/http"
	"strings"
)

// ErrorCode is a string representation of a specific error condition.
// Codes follow the "<MODULE>_<NNN>" convention.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common Error Codes
const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeNotFound           ErrorCode = "COMMON_005"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_008"
	ErrCodeValidation         ErrorCode = "COMMON_010"
	ErrCodeSerialization      ErrorCode = "COMMON_011"
	ErrCodeCacheError         ErrorCode = "COMMON_013"
)

// Special codes
const (
	CodeOK      = ErrorCode("OK")
	CodeUnknown = ErrorCode("UNKNOWN")
)

// Commission Module Error Codes
const (
	ErrCodeNegativeDealValue ErrorCode = "COM_001"
)

// Currency Module Error Codes
const (
	ErrCodeRateNotFound        ErrorCode = "FX_001"
	ErrCodeDivisionByZero      ErrorCode = "FX_002"
	ErrCodeUnsupportedCurrency ErrorCode = "FX_003"
)

// Fee Structure Module Error Codes
const (
	ErrCodeNoFeeStructure   ErrorCode = "FEE_001"
	ErrCodeInvalidFeeTiers  ErrorCode = "FEE_002"
	ErrCodeAmbiguousDefault ErrorCode = "FEE_003"
)

// Intensity Module Error Codes
const (
	ErrCodeInvalidIntensityConfig ErrorCode = "INT_001"
)

// MsgConfigurationIncomplete is the user-facing text for missing reference data.
const MsgConfigurationIncomplete = "pipeline configuration incomplete"

// ErrorCodeHTTPStatus maps ErrorCodes to HTTP status codes.
var ErrorCodeHTTPStatus = map[ErrorCode]int{
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
	ErrCodeValidation:         http.StatusUnprocessableEntity,
	ErrCodeSerialization:      http.StatusInternalServerError,
	ErrCodeCacheError:         http.StatusInternalServerError,

	ErrCodeNegativeDealValue: http.StatusBadRequest,

	ErrCodeRateNotFound:        http.StatusUnprocessableEntity,
	ErrCodeDivisionByZero:      http.StatusUnprocessableEntity,
	ErrCodeUnsupportedCurrency: http.StatusBadRequest,

	ErrCodeNoFeeStructure:   http.StatusUnprocessableEntity,
	ErrCodeInvalidFeeTiers:  http.StatusUnprocessableEntity,
	ErrCodeAmbiguousDefault: http.StatusUnprocessableEntity,

	ErrCodeInvalidIntensityConfig: http.StatusUnprocessableEntity,
}

// ErrorCodeMessage maps ErrorCodes to default messages.
var ErrorCodeMessage = map[ErrorCode]string{
	ErrCodeInternal:           "internal server error",
	ErrCodeBadRequest:         "bad request",
	ErrCodeNotFound:           "resource not found",
	ErrCodeServiceUnavailable: "service unavailable",
	ErrCodeValidation:         "validation failed",
	ErrCodeSerialization:      "serialization failed",
	ErrCodeCacheError:         "cache error",

	ErrCodeNegativeDealValue: "deal value cannot be negative",

	ErrCodeRateNotFound:        "exchange rate not found",
	ErrCodeDivisionByZero:      "exchange rate is zero",
	ErrCodeUnsupportedCurrency: "unsupported currency",

	ErrCodeNoFeeStructure:   "no fee structure found",
	ErrCodeInvalidFeeTiers:  "fee tiers are inconsistent",
	ErrCodeAmbiguousDefault: "exactly one global default fee structure is required",

	ErrCodeInvalidIntensityConfig: "invalid intensity configuration",
}

// HTTPStatusForCode returns the HTTP status code for an ErrorCode.
func HTTPStatusForCode(code ErrorCode) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DefaultMessageForCode returns the default message for an ErrorCode.
func DefaultMessageForCode(code ErrorCode) string {
	if msg, ok := ErrorCodeMessage[code]; ok {
		return msg
	}
	return "unknown error"
}

// IsClientError returns true if the ErrorCode corresponds to a 4xx HTTP status.
func IsClientError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 400 && status < 500
}

// ModuleForCode returns the module prefix of an ErrorCode.
func ModuleForCode(code ErrorCode) string {
	parts := strings.Split(string(code), "_")
	if len(parts) > 1 && parts[0] != "" {
		return parts[0]
	}
	return "UNKNOWN"
}

//Personal.AI order the ending
