package errors

import (
	"fmt"
	"net/http"
)

// AppError carries a machine-readable code next to the message so callers
// can classify failures without string matching.
type AppError struct {
	Code       ErrorCode      `json:"code"`
	Message    string         `json:"message"`
	Retryable  bool           `json:"retryable"`
	HTTPStatus int            `json:"-"`
	Details    map[string]any `json:"details,omitempty"`
	Cause      error          `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause == nil {
		return string(e.Code) + ": " + e.Message
	}
	return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
}

func (e *AppError) Unwrap() error { return e.Cause }

// Is matches any AppError with the same code, so a bare sentinel such as
// &AppError{Code: ErrCodeLinkFailed} works with errors.Is.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && t.Code == e.Code
}

// WithCause records the underlying error.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetail adds one key to Details.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = map[string]any{}
	}
	e.Details[key] = value
	return e
}

// WithDetails merges details into the error's own.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	for k, v := range details {
		e.WithDetail(k, v)
	}
	return e
}

// New creates an error whose retryability follows from its code.
func New(code ErrorCode, message string, httpStatus int) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: httpStatus, Retryable: IsRetryableCode(code)}
}

// build is New plus details given as alternating key/value pairs.
func build(code ErrorCode, status int, message string, kv ...any) *AppError {
	e := New(code, message, status)
	for i := 0; i+1 < len(kv); i += 2 {
		e.WithDetail(kv[i].(string), kv[i+1])
	}
	return e
}

// ElementUnavailable reports an element kind the factory cannot create.
func ElementUnavailable(kind string) *AppError {
	return build(ErrCodeElementUnavailable, http.StatusNotFound,
		fmt.Sprintf("element kind %q is not available", kind), "kind", kind)
}

// InvalidProperty reports a property the element kind does not accept or
// a value of the wrong type.
func InvalidProperty(kind, property, reason string) *AppError {
	return build(ErrCodeInvalidProperty, http.StatusBadRequest,
		fmt.Sprintf("invalid property %q on %s: %s", property, kind, reason),
		"kind", kind, "property", property)
}

func LinkFailed(src, sink, reason string) *AppError {
	return build(ErrCodeLinkFailed, http.StatusUnprocessableEntity,
		fmt.Sprintf("cannot link %s to %s: %s", src, sink, reason),
		"src", src, "sink", sink)
}

func InvalidDescription(reason string) *AppError {
	return build(ErrCodeInvalidDescription, http.StatusBadRequest,
		"invalid pipeline description: "+reason)
}

func StateChangeFailed(element, from, to string) *AppError {
	return build(ErrCodeStateChangeFailed, http.StatusConflict,
		fmt.Sprintf("%s failed to change state from %s to %s", element, from, to),
		"element", element, "from", from, "to", to)
}

// ElementError wraps an error an element posted on the bus. An empty debug
// string is recorded as "none".
func ElementError(element, description, debug string) *AppError {
	if debug == "" {
		debug = "none"
	}
	return build(ErrCodeElementError, http.StatusInternalServerError,
		fmt.Sprintf("error received from element %s: %s", element, description),
		"element", element, "debug", debug)
}

func QueryFailed(query string) *AppError {
	return build(ErrCodeQueryFailed, http.StatusServiceUnavailable,
		"could not query "+query, "query", query)
}

func UnexpectedMessage(messageType string) *AppError {
	return build(ErrCodeUnexpectedMessage, http.StatusInternalServerError,
		"unexpected message received: "+messageType, "type", messageType)
}

// ProbeFailed reports a URI whose streams could not be inspected.
func ProbeFailed(uri string, cause error) *AppError {
	return build(ErrCodeProbeFailed, http.StatusBadGateway,
		"could not inspect "+uri, "uri", uri).WithCause(cause)
}

// NotFound reports a missing resource. id is omitted from the details when
// empty.
func NotFound(resource, id string) *AppError {
	e := build(ErrCodeNotFound, http.StatusNotFound, resource+" not found", "resource", resource)
	if id != "" {
		e.WithDetail("id", id)
	}
	return e
}

func ServiceUnavailable(service string) *AppError {
	return build(ErrCodeServiceUnavailable, http.StatusServiceUnavailable,
		service+" is unavailable", "service", service)
}

func Timeout(operation string) *AppError {
	return build(ErrCodeTimeout, http.StatusGatewayTimeout,
		operation+" timed out", "operation", operation)
}

// InvalidInput reports a bad value for field. field may be empty.
func InvalidInput(field, reason string) *AppError {
	e := build(ErrCodeInvalidInput, http.StatusBadRequest, "invalid input: "+reason)
	if field != "" {
		e.WithDetail("field", field)
	}
	return e
}

// Validation is InvalidInput with a preformatted message.
func Validation(message string) *AppError {
	return build(ErrCodeInvalidInput, http.StatusBadRequest, message)
}

func Internal(cause error) *AppError {
	return build(ErrCodeInternal, http.StatusInternalServerError, "internal error").WithCause(cause)
}

// ExternalServiceError reports a failure of a helper program such as
// ffprobe.
func ExternalServiceError(service string, cause error) *AppError {
	return build(ErrCodeExternalService, http.StatusBadGateway,
		service+" failed", "service", service).WithCause(cause)
}
