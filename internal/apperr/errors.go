package apperr

import (
	"errors"
	"net/http"
)

// Kind error category surfaced to callers
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindSlugConflict
	KindParentNotFound
	KindHasDependents
	KindStorageWrite
	KindStorageDelete
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindSlugConflict:
		return "slug_conflict"
	case KindParentNotFound:
		return "parent_not_found"
	case KindHasDependents:
		return "has_dependents"
	case KindStorageWrite:
		return "storage_write"
	case KindStorageDelete:
		return "storage_delete"
	default:
		return "internal"
	}
}

// Error carries the failing operation and a message safe to show to users
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so the sentinels below work with errors.Is
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind && t.Op == "" && t.Message == ""
}

var (
	ErrValidation     = &Error{Kind: KindValidation}
	ErrNotFound       = &Error{Kind: KindNotFound}
	ErrSlugConflict   = &Error{Kind: KindSlugConflict}
	ErrParentNotFound = &Error{Kind: KindParentNotFound}
	ErrHasDependents  = &Error{Kind: KindHasDependents}
	ErrStorageWrite   = &Error{Kind: KindStorageWrite}
	ErrStorageDelete  = &Error{Kind: KindStorageDelete}
)

func Validation(op, msg string) error {
	return &Error{Kind: KindValidation, Op: op, Message: msg}
}

func NotFound(op, msg string) error {
	return &Error{Kind: KindNotFound, Op: op, Message: msg}
}

func SlugConflict(op, msg string, err error) error {
	return &Error{Kind: KindSlugConflict, Op: op, Message: msg, Err: err}
}

func ParentNotFound(op, msg string, err error) error {
	return &Error{Kind: KindParentNotFound, Op: op, Message: msg, Err: err}
}

func HasDependents(op, msg string, err error) error {
	return &Error{Kind: KindHasDependents, Op: op, Message: msg, Err: err}
}

func StorageWrite(op, msg string, err error) error {
	return &Error{Kind: KindStorageWrite, Op: op, Message: msg, Err: err}
}

func StorageDelete(op, msg string, err error) error {
	return &Error{Kind: KindStorageDelete, Op: op, Message: msg, Err: err}
}

// KindOf returns the kind of the first *Error in the chain, KindInternal otherwise
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Message returns the user facing message, falling back to a generic one for internal errors
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return "Internal server error"
}

// HTTPStatus maps an error to the status code the API layer responds with
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation, KindParentNotFound:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindSlugConflict, KindHasDependents:
		return http.StatusConflict
	case KindStorageWrite, KindStorageDelete:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
