package common

import (
	"errors"
	"fmt"
	"net/http"

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

// Error kinds surfaced to callers.
var (
	ErrNotFound        = errors.New("resource not found")
	ErrInvalidInput    = errors.New("invalid input")
	ErrGateway         = errors.New("gateway error")
	ErrParse           = errors.New("malformed gateway payload")
	ErrQuality         = errors.New("extraction quality check failed")
	ErrPersistence     = errors.New("persistence error")
	ErrUnknownDocument = errors.New("invalid document type")
)

const (
	CodeConfig      = "CONFIG_ERROR"
	CodeInput       = "INPUT_ERROR"
	CodeParse       = "PARSE_ERROR"
	CodeQuality     = "QUALITY_ERROR"
	CodePersistence = "PERSISTENCE_ERROR"
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func NewInputError(message string) *AppError {
	return NewAppError(CodeInput, message, ErrInvalidInput)
}

func NewQualityError(message string) *AppError {
	return NewAppError(CodeQuality, message, ErrQuality)
}

// NewParseError keeps the decoder error next to the ErrParse sentinel.
func NewParseError(message string, cause error) *AppError {
	return NewAppError(CodeParse, message, errors.Join(ErrParse, cause))
}

func NewPersistenceError(message string, cause error) *AppError {
	return NewAppError(CodePersistence, message, errors.Join(ErrPersistence, cause))
}

// GatewayError is a transport failure or a non-200 answer from the model service.
// Status is 0 when no response was received.
type GatewayError struct {
	Status int
	Body   string
	Cause  error
}

func (e *GatewayError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("gateway request failed: %v", e.Cause)
	}
	return fmt.Sprintf("API request failed with status code %d", e.Status)
}

func (e *GatewayError) Unwrap() error {
	return e.Cause
}

func (e *GatewayError) Is(target error) bool {
	return target == ErrGateway
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// GRPCCode classifies err into a gRPC code.
func GRPCCode(err error) codes.Code {
	switch {
	case err == nil:
		return codes.OK
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrUnknownDocument):
		return codes.InvalidArgument
	case errors.Is(err, ErrQuality):
		return codes.FailedPrecondition
	case errors.Is(err, ErrGateway):
		return codes.Unavailable
	case errors.Is(err, ErrParse):
		return codes.DataLoss
	case errors.Is(err, ErrNotFound):
		return codes.NotFound
	default:
		return codes.Internal
	}
}

// GRPCStatus converts err to a gRPC status error.
func GRPCStatus(err error) error {
	if err == nil {
		return nil
	}
	return status.Error(GRPCCode(err), err.Error())
}

// HTTPStatus maps the error taxonomy onto an HTTP status code.
// Quality problems are the caller's input, not a server fault.
func HTTPStatus(err error) int {
	switch GRPCCode(err) {
	case codes.OK:
		return http.StatusOK
	case codes.InvalidArgument, codes.FailedPrecondition:
		return http.StatusBadRequest
	case codes.NotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
