package restmap

import (
	"errors"
	"fmt"
)

// Error codes (exported consts for IDE completion and type safety by convention)
const (
	// CodeMethodNotSupported is signalled when an operation is invoked while
	// its allow_* capability flag is false. Checked before any network call.
	CodeMethodNotSupported = "method_not_supported"
	// CodeInvalidRequest covers a missing identity value and unresolved base
	// path placeholders; fatal for that call.
	CodeInvalidRequest = "invalid_request"
	// CodeUnknownAttribute is the key-error analog: dict-style access of a
	// name matching no schema entry that the unknown-attribute policy cannot
	// absorb.
	CodeUnknownAttribute = "unknown_attribute"
	// CodeInvalidArgument marks caller-programmer errors such as ToDict with
	// every namespace excluded.
	CodeInvalidArgument = "invalid_argument"
	// CodeConversion wraps a failed type coercion during a descriptor read or
	// write.
	CodeConversion = "conversion"
)

// Error is the structured error value produced by the mapping layer.
type Error struct {
	Code    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("restmap: %s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("restmap: %s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// AsError extracts a *Error from err using errors.As internally.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// HasCode reports whether err carries the given restmap error code.
func HasCode(err error, code string) bool {
	e, ok := AsError(err)
	return ok && e.Code == code
}

func errMethodNotSupported(schema, method string) error {
	return &Error{
		Code:    CodeMethodNotSupported,
		Message: fmt.Sprintf("%s does not support %s", schema, method),
	}
}

func errInvalidRequest(format string, args ...any) error {
	return &Error{Code: CodeInvalidRequest, Message: fmt.Sprintf(format, args...)}
}

func errUnknownAttribute(name string) error {
	return &Error{Code: CodeUnknownAttribute, Message: fmt.Sprintf("no attribute %q", name)}
}

func errInvalidArgument(format string, args ...any) error {
	return &Error{Code: CodeInvalidArgument, Message: fmt.Sprintf(format, args...)}
}

func errConversion(name string, cause error) error {
	return &Error{Code: CodeConversion, Message: fmt.Sprintf("converting %q", name), Cause: cause}
}

// ResponseError is a non-success transport reply. The mapping layer does not
// classify it further; status, headers and raw body travel upward unmodified.
type ResponseError struct {
	StatusCode int
	Headers    map[string]string
	Body       []byte
}

func (e *ResponseError) Error() string {
	if len(e.Body) > 0 {
		return fmt.Sprintf("restmap: http status %d: %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("restmap: http status %d", e.StatusCode)
}

// AsResponseError extracts a *ResponseError from err.
func AsResponseError(err error) (*ResponseError, bool) {
	var e *ResponseError
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
