package ledger

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Kind classifies ledger failures; the HTTP layer maps each kind to a status.
type Kind string

const (
	KindInvalidArgument      Kind = "invalid_argument"
	KindNotFound             Kind = "not_found"
	KindForbidden            Kind = "forbidden"
	KindInvalidState         Kind = "invalid_state"
	KindInsufficientFunds    Kind = "insufficient_funds"
	KindAlreadyCompleted     Kind = "already_completed"
	KindDuplicateTransaction Kind = "duplicate_transaction"
	KindInternal             Kind = "internal"
)

// Error is returned by every Service operation.
type Error struct {
	Kind    Kind
	Message string
	Details map[string]any
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so errors.Is(err, ErrNotFound) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Message == "" && t.Kind == e.Kind
}

var (
	ErrInvalidArgument      = &Error{Kind: KindInvalidArgument}
	ErrNotFound             = &Error{Kind: KindNotFound}
	ErrForbidden            = &Error{Kind: KindForbidden}
	ErrInvalidState         = &Error{Kind: KindInvalidState}
	ErrInsufficientFunds    = &Error{Kind: KindInsufficientFunds}
	ErrAlreadyCompleted     = &Error{Kind: KindAlreadyCompleted}
	ErrDuplicateTransaction = &Error{Kind: KindDuplicateTransaction}
	ErrInternal             = &Error{Kind: KindInternal}
)

// KindOf returns the kind of err; anything that is not an *Error is internal.
func KindOf(err error) Kind {
	var le *Error
	if errors.As(err, &le) {
		return le.Kind
	}
	return KindInternal
}

func invalidArgument(msg string) error {
	return &Error{Kind: KindInvalidArgument, Message: msg}
}

func notFound(msg string) error {
	return &Error{Kind: KindNotFound, Message: msg}
}

func forbidden(msg string) error {
	return &Error{Kind: KindForbidden, Message: msg}
}

func invalidState(msg string, details map[string]any) error {
	return &Error{Kind: KindInvalidState, Message: msg, Details: details}
}

func insufficientFunds(msg string, available, required decimal.Decimal) error {
	return &Error{
		Kind:    KindInsufficientFunds,
		Message: msg,
		Details: map[string]any{"available": available, "required": required},
	}
}

func alreadyCompleted(msg string) error {
	return &Error{Kind: KindAlreadyCompleted, Message: msg}
}

func duplicateTransaction(msg string) error {
	return &Error{Kind: KindDuplicateTransaction, Message: msg}
}

func internal(msg string, err error) error {
	return &Error{Kind: KindInternal, Message: msg, Err: err}
}
