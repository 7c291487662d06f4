package domain

import "errors"

// Kind classifies an Error for transport mapping.
type Kind string

const (
	KindInvalid      Kind = "invalid"
	KindPrecondition Kind = "precondition"
	KindNotFound     Kind = "not_found"
	KindConflict     Kind = "conflict"
	KindUnauthorized Kind = "unauthorized"
	KindInternal     Kind = "internal"
)

// Error is a domain error carrying a user-facing message.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches another *Error with the same kind and message, so sentinels
// survive wrapping.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Message == t.Message
}

func NewError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Invalid(message string) *Error {
	return &Error{Kind: KindInvalid, Message: message}
}

func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// KindOf returns the kind of the first *Error in err's chain, or
// KindInternal.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

var (
	ErrNotFound          = NewError(KindNotFound, "record not found")
	ErrNoCharacter       = NewError(KindPrecondition, "no active character")
	ErrCharacterExists   = NewError(KindConflict, "a character is already active")
	ErrActivityNotFound  = NewError(KindNotFound, "activity not found")
	ErrActivityLocked    = NewError(KindPrecondition, "activity is not unlocked yet")
	ErrNotEnoughTime     = NewError(KindPrecondition, "not enough hours left today")
	ErrInvalidHours      = NewError(KindInvalid, "hours must be between 1 and 12")
	ErrItemNotFound      = NewError(KindNotFound, "item not found")
	ErrItemLocked        = NewError(KindPrecondition, "item is not available yet")
	ErrItemOwned         = NewError(KindPrecondition, "item already owned")
	ErrInsufficientFunds = NewError(KindPrecondition, "not enough money")
	ErrUnauthorized      = NewError(KindUnauthorized, "unauthorized")
	ErrInvalidCredential = NewError(KindUnauthorized, "invalid credentials")
)
