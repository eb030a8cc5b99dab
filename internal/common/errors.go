package common

import (
	"errors"
	"fmt"

	"github.com/joseph-ayodele/schedorder/constants"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
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

// Common application errors
var (
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrInternal     = errors.New("internal error")
	ErrDatabase     = errors.New("database error")
	ErrValidation   = errors.New("validation failed")
	ErrDuplicate    = errors.New("duplicate document")
)

// Error constructors
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

// ExtractionError is a failure raised inside the extraction pipeline. Message is
// the text surfaced to callers in the outcome's error field.
type ExtractionError struct {
	Kind    constants.FailureKind
	Stage   constants.Stage
	Message string
	Cause   error
}

func (e *ExtractionError) Error() string {
	if e.Cause != nil && e.Cause.Error() != e.Message {
		return fmt.Sprintf("%s at %s: %s: %v", e.Kind, e.Stage, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s at %s: %s", e.Kind, e.Stage, e.Message)
}

func (e *ExtractionError) Unwrap() error {
	return e.Cause
}

func NewExtractionError(kind constants.FailureKind, stage constants.Stage, message string, cause error) *ExtractionError {
	return &ExtractionError{Kind: kind, Stage: stage, Message: message, Cause: cause}
}

// AsExtractionError converts any error into an ExtractionError. Errors that are not
// already ExtractionErrors are treated as unexpected failures at stage, except
// validation errors which keep their own kind.
func AsExtractionError(err error, stage constants.Stage) *ExtractionError {
	var xe *ExtractionError
	if errors.As(err, &xe) {
		return xe
	}
	kind := constants.FailureUnexpected
	if errors.Is(err, ErrValidation) {
		kind = constants.FailureValidation
	}
	return &ExtractionError{Kind: kind, Stage: stage, Message: err.Error(), Cause: err}
}

// gRPC error helpers
func InvalidArgumentError(message string) error {
	return status.Error(codes.InvalidArgument, message)
}

func NotFoundError(message string) error {
	return status.Error(codes.NotFound, message)
}

func InternalError(message string) error {
	return status.Error(codes.Internal, message)
}

func InvalidArgumentErrorf(format string, args ...interface{}) error {
	return InvalidArgumentError(fmt.Sprintf(format, args...))
}

func InternalErrorf(format string, args ...interface{}) error {
	return InternalError(fmt.Sprintf(format, args...))
}
