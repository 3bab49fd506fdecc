// Package apperr is the error taxonomy for the API. Every handler-level
// failure is an *Error; Write is the single point that turns one into a
// {status, message} JSON body.
package apperr

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
)

type Kind int

const (
	KindValidation Kind = iota + 1
	KindBadCredentials
	KindNoToken
	KindBadToken
	KindPasswordChanged
	KindAccountGone
	KindForbidden
	KindNotFound
	KindDuplicateKey
	KindDeliveryFailure
	KindMethodNotSupported
	KindInternal
)

type Error struct {
	Kind    Kind
	Message string
	Err     error // wrapped cause, never sent to the client
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func Validation(message string) *Error {
	return New(KindValidation, message)
}

// BadCredentials is deliberately identical for unknown-email and
// wrong-password so responses cannot be used to enumerate accounts.
func BadCredentials() *Error {
	return New(KindBadCredentials, "Incorrect email or password!")
}

func Internal(err error) *Error {
	return Wrap(KindInternal, "Something went wrong!", err)
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

func (k Kind) status() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindBadCredentials, KindNoToken, KindBadToken, KindPasswordChanged, KindAccountGone:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindDuplicateKey:
		return http.StatusConflict
	case KindDeliveryFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Write maps err onto the uniform error body. Unknown errors and wrapped
// causes of Internal errors are logged server-side; in production the
// client only ever sees the taxonomy message.
func Write(w http.ResponseWriter, err error, production bool) {
	var e *Error
	if !errors.As(err, &e) {
		e = Internal(err)
	}

	if e.Err != nil || e.Kind == KindInternal {
		log.Printf("error: %v", err)
	}

	message := e.Message
	if production && e.Kind == KindInternal {
		message = "Something went wrong!"
	}

	status := e.Kind.status()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":  statusWord(status),
		"message": message,
	})
}

func statusWord(status int) string {
	if status >= 500 {
		return "error"
	}
	return "fail"
}
