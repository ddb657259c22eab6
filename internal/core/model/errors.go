package model

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures surfaced by the catalog gateway.
type ErrorKind string

const (
	KindTransport  ErrorKind = "transport"
	KindDecode     ErrorKind = "decode"
	KindValidation ErrorKind = "validation"
	KindNotFound   ErrorKind = "not_found"
)

// GatewayError is the typed error every gateway operation returns.
//
//	if errors.Is(err, model.ErrValidation) { ... }
//
//	var gwErr *model.GatewayError
//	if errors.As(err, &gwErr) { log(gwErr.Status, gwErr.Details) }
type GatewayError struct {
	Kind    ErrorKind
	Status  int // HTTP status, 0 when no response was received
	Message string
	Details map[string]string
	cause   error
}

func (e *GatewayError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *GatewayError) Unwrap() error {
	return e.cause
}

// Is matches any *GatewayError of the same kind.
func (e *GatewayError) Is(target error) bool {
	var t *GatewayError
	if errors.As(target, &t) {
		return e.Kind == t.Kind
	}
	return false
}

var (
	ErrTransport  = &GatewayError{Kind: KindTransport, Message: "transport error"}
	ErrDecode     = &GatewayError{Kind: KindDecode, Message: "decode error"}
	ErrValidation = &GatewayError{Kind: KindValidation, Message: "validation error"}
	ErrNotFound   = &GatewayError{Kind: KindNotFound, Message: "not found"}
)

func TransportError(status int, msg string, cause error) *GatewayError {
	return &GatewayError{Kind: KindTransport, Status: status, Message: msg, cause: cause}
}

func DecodeError(msg string, cause error) *GatewayError {
	return &GatewayError{Kind: KindDecode, Message: msg, cause: cause}
}

func ValidationError(status int, msg string, details map[string]string) *GatewayError {
	return &GatewayError{Kind: KindValidation, Status: status, Message: msg, Details: details}
}

func NotFoundError(msg string) *GatewayError {
	return &GatewayError{Kind: KindNotFound, Status: 404, Message: msg}
}
