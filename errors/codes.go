package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Construction errors (fatal at startup)
const (
	// ErrCodeElementUnavailable indicates an element kind is unknown or cannot be created.
	ErrCodeElementUnavailable ErrorCode = "ELEMENT_UNAVAILABLE"
	// ErrCodeInvalidProperty indicates an unknown property or a value of the wrong type.
	ErrCodeInvalidProperty ErrorCode = "INVALID_PROPERTY"
	// ErrCodeLinkFailed indicates two pads or elements could not be linked.
	ErrCodeLinkFailed ErrorCode = "LINK_FAILED"
	// ErrCodeInvalidDescription indicates a pipeline description could not be parsed.
	ErrCodeInvalidDescription ErrorCode = "INVALID_DESCRIPTION"
)

// Runtime errors
const (
	// ErrCodeStateChangeFailed indicates a state change was rejected.
	ErrCodeStateChangeFailed ErrorCode = "STATE_CHANGE_FAILED"
	// ErrCodeElementError indicates an element reported an error on the bus.
	ErrCodeElementError ErrorCode = "ELEMENT_ERROR"
	// ErrCodeQueryFailed indicates a position, duration or seeking query failed.
	ErrCodeQueryFailed ErrorCode = "QUERY_FAILED"
	// ErrCodeUnexpectedMessage indicates a message type the receiver did not ask for.
	ErrCodeUnexpectedMessage ErrorCode = "UNEXPECTED_MESSAGE"
	// ErrCodeProbeFailed indicates stream inspection of a URI failed.
	ErrCodeProbeFailed ErrorCode = "PROBE_FAILED"
)

// Generic errors
const (
	// ErrCodeInvalidInput indicates the input is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeNotFound indicates the requested resource was not found.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeServiceUnavailable indicates the service is temporarily unavailable.
	ErrCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	// ErrCodeTimeout indicates the operation timed out.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
	// ErrCodeInternal indicates an internal error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
	// ErrCodeExternalService indicates an error from an external program or service.
	ErrCodeExternalService ErrorCode = "EXTERNAL_SERVICE_ERROR"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeQueryFailed:        true,
	ErrCodeServiceUnavailable: true,
	ErrCodeTimeout:            true,
	ErrCodeExternalService:    true,
}

// Codes that abort a program during startup.
var fatalCodes = map[ErrorCode]bool{
	ErrCodeElementUnavailable: true,
	ErrCodeInvalidProperty:    true,
	ErrCodeLinkFailed:         true,
	ErrCodeInvalidDescription: true,
	ErrCodeStateChangeFailed:  true,
	ErrCodeInvalidInput:       true,
	ErrCodeInternal:           true,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}

// IsFatalCode returns true if the error code should stop the program.
func IsFatalCode(code ErrorCode) bool {
	return fatalCodes[code]
}
