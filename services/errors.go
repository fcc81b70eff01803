package services

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorKind string

const (
	KindNotFound         ErrorKind = "not_found"
	KindInvalidOperation ErrorKind = "invalid_operation"
	KindQuotaExceeded    ErrorKind = "quota_exceeded"
	KindPayloadTooLarge  ErrorKind = "payload_too_large"
	KindStorageIO        ErrorKind = "storage_io"
	KindExpired          ErrorKind = "expired"
	KindUnauthorized     ErrorKind = "unauthorized"
	KindConflict         ErrorKind = "conflict"
	KindInternal         ErrorKind = "internal"
)

var kindStatus = map[ErrorKind]int{
	KindNotFound:         http.StatusNotFound,
	KindInvalidOperation: http.StatusBadRequest,
	KindQuotaExceeded:    http.StatusRequestEntityTooLarge,
	KindPayloadTooLarge:  http.StatusRequestEntityTooLarge,
	KindStorageIO:        http.StatusInternalServerError,
	KindExpired:          http.StatusGone,
	KindUnauthorized:     http.StatusUnauthorized,
	KindConflict:         http.StatusConflict,
	KindInternal:         http.StatusInternalServerError,
}

type AppError struct {
	Kind     ErrorKind
	HTTPCode int
	Message  string
	Data     interface{}
	Err      error
}

func (e *AppError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func newAppError(kind ErrorKind, message string, err error) *AppError {
	return &AppError{Kind: kind, HTTPCode: statusOf(kind), Message: message, Err: err}
}

func newAppErrorWithData(kind ErrorKind, message string, data interface{}, err error) *AppError {
	return &AppError{Kind: kind, HTTPCode: statusOf(kind), Message: message, Data: data, Err: err}
}

func statusOf(kind ErrorKind) int {
	if code, ok := kindStatus[kind]; ok {
		return code
	}
	return http.StatusInternalServerError
}

// KindOf returns the kind of the first AppError in err's chain, or
// KindInternal for any other non-nil error.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var appErr *AppError
	if errors.As(err, &appErr) && appErr != nil {
		return appErr.Kind
	}
	return KindInternal
}

func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}

func notFound(message string) *AppError {
	return newAppError(KindNotFound, message, nil)
}

func invalidOperation(message string) *AppError {
	return newAppError(KindInvalidOperation, message, nil)
}

func internalError(message string, err error) *AppError {
	return newAppError(KindInternal, message, err)
}
