package assets

// errors.go defines the error codes used by the asset gateway

import "fmt"

// GatewayError represents a structured error from the assets package.
type GatewayError struct {
	// code classifies the failure
	code ErrorCode

	// message is a human-readable error message
	message string

	// wrapped is the optional underlying error
	wrapped error
}

func (e *GatewayError) Error() string {
	if e.wrapped != nil {
		return fmt.Sprintf("%s: %v", e.message, e.wrapped)
	}
	return e.message
}

func (e *GatewayError) Code() ErrorCode { return e.code }
func (e *GatewayError) Unwrap() error   { return e.wrapped }

// ErrorCode classifies gateway failures.
//
// The ledger is treated as an opaque collaborator: connection failures,
// endorsement failures and contract-level rejections (including "not found")
// all map to ErrCodeLedgerOperationFailed and are reported to callers as a
// generic server error. Handlers log the underlying error; clients only see
// a sanitized message.
type ErrorCode int

const (
	// ErrCodeEnrollmentFailed is used when registration or enrollment
	// against the certificate authority fails.
	ErrCodeEnrollmentFailed ErrorCode = iota + 1

	// ErrCodeLedgerOperationFailed is used when a gateway connection,
	// evaluate or submit call fails for any reason.
	ErrCodeLedgerOperationFailed

	// ErrCodeCodec is used when a ledger-returned record cannot be decoded
	// (malformed base64 or JSON) or a payload cannot be encoded.
	ErrCodeCodec

	// ErrCodeMalformedRequest is used when a request body fails to parse or
	// is missing required fields.
	ErrCodeMalformedRequest

	// ErrCodeInternal is used for unexpected failures that should not
	// normally occur.
	ErrCodeInternal

	// ErrCodeRateLimitExceeded is used when the rate limit is exceeded
	// - this is only used in the middleware
	ErrCodeRateLimitExceeded

	// ErrCodeRequestTooLarge is used when the request body is too large
	// - this is only used in the middleware
	ErrCodeRequestTooLarge
)

// NewEnrollmentError creates an enrollment failure.
func NewEnrollmentError(msg string) error {
	return &GatewayError{code: ErrCodeEnrollmentFailed, message: msg}
}

// WrapEnrollmentError wraps an existing error as an enrollment failure.
// Use this for CA registration or enrollment errors, including duplicate
// registration races.
func WrapEnrollmentError(err error, msg string) error {
	return &GatewayError{code: ErrCodeEnrollmentFailed, message: msg, wrapped: err}
}

// NewLedgerError creates a ledger operation failure.
func NewLedgerError(msg string) error {
	return &GatewayError{code: ErrCodeLedgerOperationFailed, message: msg}
}

// WrapLedgerError wraps an existing error as a ledger operation failure.
// Use this for gateway connection, evaluate and submit errors.
func WrapLedgerError(err error, msg string) error {
	return &GatewayError{code: ErrCodeLedgerOperationFailed, message: msg, wrapped: err}
}

// NewCodecError creates a codec failure.
func NewCodecError(msg string) error {
	return &GatewayError{code: ErrCodeCodec, message: msg}
}

// WrapCodecError wraps an existing error as a codec failure.
// Use this when a ledger record cannot be decoded or a payload cannot be
// encoded.
func WrapCodecError(err error, msg string) error {
	return &GatewayError{code: ErrCodeCodec, message: msg, wrapped: err}
}

// NewMalformedRequestError creates an error for malformed requests.
func NewMalformedRequestError(msg string) error {
	return &GatewayError{code: ErrCodeMalformedRequest, message: msg}
}

// WrapMalformedRequestError wraps an existing error as a malformed request error.
func WrapMalformedRequestError(err error, msg string) error {
	return &GatewayError{code: ErrCodeMalformedRequest, message: msg, wrapped: err}
}

// NewInternalError creates an internal error for unexpected failures.
func NewInternalError(msg string) error {
	return &GatewayError{code: ErrCodeInternal, message: msg}
}

// WrapInternalError wraps an existing error as an internal error.
func WrapInternalError(err error, msg string) error {
	return &GatewayError{code: ErrCodeInternal, message: msg, wrapped: err}
}

// NewRateLimitError creates a rate limit exceeded error.
func NewRateLimitError(msg string) error {
	return &GatewayError{code: ErrCodeRateLimitExceeded, message: msg}
}

// NewRequestTooLargeError creates a request too large error.
func NewRequestTooLargeError(msg string) error {
	return &GatewayError{code: ErrCodeRequestTooLarge, message: msg}
}
