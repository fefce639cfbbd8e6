package errors

import "fmt"

// ErrorCode represents an Inkwell error code.
type ErrorCode string

const (
	ErrInvalidRequest ErrorCode = "INVALID_REQUEST" // 400
	ErrSaveForbidden  ErrorCode = "SAVE_FORBIDDEN"  // 403
	ErrNotFound       ErrorCode = "NOT_FOUND"       // 404
	ErrNotReady       ErrorCode = "NOT_READY"       // 503
	ErrInternal       ErrorCode = "INTERNAL"        // 500
)

// InkError represents a structured error with code, status, and details.
type InkError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *InkError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *InkError {
	return &InkError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewSaveForbidden creates a 403 error for stores that refuse writes after a
// quarantined load. The file name identifies which store is blocked.
func NewSaveForbidden(file string) *InkError {
	return &InkError{
		Code:    ErrSaveForbidden,
		Status:  403,
		Message: fmt.Sprintf("saving %s is disabled for this session: the previous file was quarantined after a decode failure", file),
		Details: map[string]any{"file": file},
	}
}

// NewNotFound creates a 404 error for when a record cannot be found.
func NewNotFound(identifier string) *InkError {
	return &InkError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("record not found: %s", identifier),
		Details: map[string]any{"identifier": identifier},
	}
}

// NewNotReady creates a 503 error for operations invoked before the manager
// finished loading, or after it was closed.
func NewNotReady(msg string) *InkError {
	return &InkError{
		Code:    ErrNotReady,
		Status:  503,
		Message: msg,
	}
}

// NewInternal creates a 500 error for unexpected internal errors. The message
// stays generic; the wrapped error is kept in Details for logging only.
func NewInternal(err error) *InkError {
	details := map[string]any{}
	if err != nil {
		details["internal_error"] = err.Error()
	}
	return &InkError{
		Code:    ErrInternal,
		Status:  500,
		Message: "an internal error occurred",
		Details: details,
	}
}

// Is checks if an error is an InkError with the given code.
func Is(err error, code ErrorCode) bool {
	if iErr, ok := err.(*InkError); ok {
		return iErr.Code == code
	}
	return false
}
