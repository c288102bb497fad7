package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestNew_RetryableFollowsCode(t *testing.T) {
	for code, want := range map[ErrorCode]bool{
		ErrCodeQueryFailed:        true,
		ErrCodeTimeout:            true,
		ErrCodeNotFound:           false,
		ErrCodeElementError:       false,
		ErrCodeInvalidDescription: false,
	} {
		if got := New(code, "x", http.StatusTeapot).Retryable; got != want {
			t.Errorf("%s: retryable = %v, want %v", code, got, want)
		}
	}
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name      string
		err       *AppError
		code      ErrorCode
		status    int
		retryable bool
		details   map[string]any
	}{
		{"ElementUnavailable", ElementUnavailable("vertigotv"), ErrCodeElementUnavailable, http.StatusNotFound, false,
			map[string]any{"kind": "vertigotv"}},
		{"InvalidProperty", InvalidProperty("videotestsrc", "pattern", "want int"), ErrCodeInvalidProperty, http.StatusBadRequest, false,
			map[string]any{"kind": "videotestsrc", "property": "pattern"}},
		{"LinkFailed", LinkFailed("source", "sink", "caps"), ErrCodeLinkFailed, http.StatusUnprocessableEntity, false,
			map[string]any{"src": "source", "sink": "sink"}},
		{"InvalidDescription", InvalidDescription("empty"), ErrCodeInvalidDescription, http.StatusBadRequest, false, nil},
		{"StateChangeFailed", StateChangeFailed("pipeline0", "NULL", "READY"), ErrCodeStateChangeFailed, http.StatusConflict, false,
			map[string]any{"element": "pipeline0", "from": "NULL", "to": "READY"}},
		{"QueryFailed", QueryFailed("position"), ErrCodeQueryFailed, http.StatusServiceUnavailable, true,
			map[string]any{"query": "position"}},
		{"UnexpectedMessage", UnexpectedMessage("tag"), ErrCodeUnexpectedMessage, http.StatusInternalServerError, false,
			map[string]any{"type": "tag"}},
		{"NotFoundWithoutID", NotFound("session", ""), ErrCodeNotFound, http.StatusNotFound, false,
			map[string]any{"resource": "session"}},
		{"ServiceUnavailable", ServiceUnavailable("player"), ErrCodeServiceUnavailable, http.StatusServiceUnavailable, true,
			map[string]any{"service": "player"}},
		{"Timeout", Timeout("probe"), ErrCodeTimeout, http.StatusGatewayTimeout, true,
			map[string]any{"operation": "probe"}},
		{"ExternalServiceError", ExternalServiceError("ffprobe", nil), ErrCodeExternalService, http.StatusBadGateway, true,
			map[string]any{"service": "ffprobe"}},
		{"InvalidInputNoField", InvalidInput("", "bad"), ErrCodeInvalidInput, http.StatusBadRequest, false, nil},
		{"Validation", Validation("bad input"), ErrCodeInvalidInput, http.StatusBadRequest, false, nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.err.Code != tc.code || tc.err.HTTPStatus != tc.status || tc.err.Retryable != tc.retryable {
				t.Errorf("got %s/%d/%v, want %s/%d/%v",
					tc.err.Code, tc.err.HTTPStatus, tc.err.Retryable, tc.code, tc.status, tc.retryable)
			}
			if len(tc.err.Details) != len(tc.details) {
				t.Errorf("details = %v, want %v", tc.err.Details, tc.details)
			}
			for k, v := range tc.details {
				if tc.err.Details[k] != v {
					t.Errorf("details[%s] = %v, want %v", k, tc.err.Details[k], v)
				}
			}
		})
	}
}

func TestElementError_Debug(t *testing.T) {
	err := ElementError("source", "Resource not found.", "")
	if err.Details["debug"] != "none" {
		t.Errorf("expected debug=none, got %v", err.Details["debug"])
	}
	if !strings.Contains(err.Message, "source") {
		t.Errorf("element name missing from %q", err.Message)
	}

	err = ElementError("source", "Resource not found.", "gstfilesrc.c(534)")
	if err.Details["debug"] != "gstfilesrc.c(534)" {
		t.Errorf("debug detail lost: %v", err.Details["debug"])
	}
}

func TestCauseChain(t *testing.T) {
	cause := fmt.Errorf("exit status 1")
	err := ProbeFailed("file:///x.webm", cause)
	if err.Unwrap() != cause || !stderrors.Is(err, cause) {
		t.Error("cause must be reachable through the chain")
	}
	if !strings.Contains(err.Error(), "exit status 1") {
		t.Errorf("Error() = %q", err.Error())
	}
	if got := InvalidDescription("empty").Error(); got != "INVALID_DESCRIPTION: invalid pipeline description: empty" {
		t.Errorf("Error() without cause = %q", got)
	}
}

func TestWithDetails(t *testing.T) {
	err := NotFound("session", "42").WithDetails(map[string]any{"uri": "file:///a.webm"})
	if err.Details["uri"] != "file:///a.webm" || err.Details["id"] != "42" {
		t.Errorf("details = %v", err.Details)
	}

	bare := (&AppError{}).WithDetail("key", "value")
	if bare.Details["key"] != "value" {
		t.Errorf("details = %v", bare.Details)
	}
}

func TestIsCode(t *testing.T) {
	err := fmt.Errorf("outer: %w", LinkFailed("a", "b", "no format"))
	if !IsCode(err, ErrCodeLinkFailed) {
		t.Error("LINK_FAILED must be found through wrapping")
	}
	if !stderrors.Is(err, &AppError{Code: ErrCodeLinkFailed}) {
		t.Error("errors.Is must match on code")
	}
	if IsCode(err, ErrCodeNotFound) || IsCode(fmt.Errorf("plain"), ErrCodeInternal) || IsCode(nil, ErrCodeInternal) {
		t.Error("unexpected match")
	}
}

func TestIsFatal(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"construction", ElementUnavailable("x"), true},
		{"wrapped transition", fmt.Errorf("wrap: %w", StateChangeFailed("p", "NULL", "READY")), true},
		{"query", QueryFailed("duration"), false},
		{"element error", ElementError("src", "boom", ""), false},
		{"unclassified", fmt.Errorf("plain"), true},
	}
	for _, tc := range tests {
		if got := IsFatal(tc.err); got != tc.want {
			t.Errorf("%s: IsFatal = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestToResponse(t *testing.T) {
	resp := QueryFailed("duration").ToResponse()
	if resp.Error.Code != ErrCodeQueryFailed || !resp.Error.Retryable || resp.Error.Details["query"] != "duration" {
		t.Errorf("response = %+v", resp)
	}
}

func TestWrap(t *testing.T) {
	if Wrap(nil) != nil {
		t.Error("Wrap(nil) must be nil")
	}
	orig := NotFound("session", "1")
	if Wrap(fmt.Errorf("outer: %w", orig)) != orig {
		t.Error("Wrap must return the AppError in the chain")
	}
	plain := fmt.Errorf("something broke")
	if got := Wrap(plain); got.Code != ErrCodeInternal || got.Cause != plain {
		t.Errorf("got %v", got)
	}
	if _, ok := AsAppError(plain); ok {
		t.Error("plain errors are not AppErrors")
	}
}
