package op

import "fmt"

// Code classifies an operation failure.
type Code string

const (
	CodeDuplicateID      Code = "duplicate_id"
	CodeMissingField     Code = "missing_field"
	CodeNotFound         Code = "not_found"
	CodeEndpointNotFound Code = "endpoint_not_found"
	CodeUnknownKind      Code = "unknown_kind"
	CodeWriteFailed      Code = "write_failed"
)

// Error is a structured, per-operation failure. It is returned in results,
// never panicked, so a batch can continue past a failing operation.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	return string(e.Code) + ": " + e.Message
}

func errf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}
