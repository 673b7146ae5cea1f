package entity

import "errors"

// Stable error codes exposed in the response envelope.
type ErrorCode string

const (
	CodeFetchError        ErrorCode = "FETCH_ERROR"
	CodeDecodeError       ErrorCode = "DECODE_ERROR"
	CodeEmptyFile         ErrorCode = "EMPTY_FILE"
	CodeProxyUnreachable  ErrorCode = "PROXY_UNREACHABLE"
	CodeProxyResponse     ErrorCode = "PROXY_RESPONSE"
	CodeUnsupportedFormat ErrorCode = "UNSUPPORTED_FORMAT"
	CodePayloadTooLarge   ErrorCode = "PAYLOAD_TOO_LARGE"
	CodeBackendTimeout    ErrorCode = "BACKEND_TIMEOUT"
	CodeBackendRequest    ErrorCode = "BACKEND_REQUEST"
	CodeInternal          ErrorCode = "INTERNAL"
)

// Error carries a stable code alongside a user-readable message.
// The wrapped cause stays server-side, it is never serialized.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

func WrapError(code ErrorCode, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// CodeOf extracts the stable code from any error,
// falling back to CodeInternal for unclassified failures.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// MessageOf returns the user-visible message for an error. Unclassified
// errors get a generic message so backend details never leak to clients.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal server error"
}
