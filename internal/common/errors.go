package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Pipeline error taxonomy. None of these abort the run; each is scoped
// to the page or attempt it occurred on and leaves an audit entry.
var (
	// ErrDocumentRead marks a page whose source could not be rendered.
	ErrDocumentRead = errors.New("document read error")
	// ErrRegionNotFound marks a page raster with no marker pixels.
	ErrRegionNotFound = errors.New("table region not found")
	// ErrExtractionCall marks a failed or undecodable extraction call.
	ErrExtractionCall = errors.New("extraction call error")
	// ErrRetryBudgetExhausted ends an attempt after its final retry.
	ErrRetryBudgetExhausted = errors.New("retry budget exhausted")

	ErrInvalidInput = errors.New("invalid input")
)

// NewAppError builds an AppError with the given code and cause.
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
