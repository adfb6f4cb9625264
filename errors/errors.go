package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Kind categorises a failure for logging and propagation decisions.
type Kind string

const (
	KindInternal     Kind = "internal"
	KindInvalidInput Kind = "invalid_input"
	KindNotFound     Kind = "not_found"
	KindQuota        Kind = "quota"
	KindCollaborator Kind = "collaborator"
	KindPersistence  Kind = "persistence"
	KindConfig       Kind = "config"
)

type AppError struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"error"`
	Op      string `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// HTTPStatus maps the kind onto a response code for the ops server.
func (e *AppError) HTTPStatus() int {
	switch e.Kind {
	case KindInvalidInput:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindQuota:
		return http.StatusTooManyRequests
	case KindCollaborator:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func E(kind Kind, op string, err error, message string) *AppError {
	return &AppError{Kind: kind, Message: message, Op: op, Err: err}
}

func InvalidInput(op string, err error, message string) *AppError {
	return E(KindInvalidInput, op, err, message)
}

func NotFound(op string, err error, message string) *AppError {
	return E(KindNotFound, op, err, message)
}

func Internal(op string, err error, message string) *AppError {
	return E(KindInternal, op, err, message)
}

func QuotaExhausted(op string, message string) *AppError {
	return E(KindQuota, op, nil, message)
}

func Collaborator(op string, err error, message string) *AppError {
	return E(KindCollaborator, op, err, message)
}

func Persistence(op string, err error, message string) *AppError {
	return E(KindPersistence, op, err, message)
}

func Config(op string, err error, message string) *AppError {
	return E(KindConfig, op, err, message)
}

// KindOf returns the kind of the outermost AppError in err's chain.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

func IsNotFound(err error) bool {
	return IsKind(err, KindNotFound)
}

func Is(err, target error) bool { return stderrors.Is(err, target) }

func As(err error, target any) bool { return stderrors.As(err, target) }
