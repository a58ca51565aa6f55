package resources

import "fmt"

type OperationErrorCode string

const (
	OperationErrorValidation       OperationErrorCode = "validation_failed"
	OperationErrorUnsupportedQuery OperationErrorCode = "unsupported_query"
)

// OperationError describes a query that cannot be translated to SQL.
type OperationError struct {
	Code      OperationErrorCode
	Operation string
	Message   string
	Cause     error
}

func (e *OperationError) Error() string {
	if e == nil {
		return "resource query failed"
	}
	if e.Cause != nil {
		return fmt.Sprintf("resource query failed (op=%s code=%s): %s: %v", e.Operation, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("resource query failed (op=%s code=%s): %s", e.Operation, e.Code, e.Message)
}

func (e *OperationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func opErr(op string, code OperationErrorCode, msg string, cause error) error {
	return &OperationError{
		Code:      code,
		Operation: op,
		Message:   msg,
		Cause:     cause,
	}
}
