package dashboard

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures surfaced by the layout engine.
type ErrorKind string

const (
	KindValidation        ErrorKind = "validation"
	KindInvalidQueryState ErrorKind = "invalid_query_state"
	KindPlacementConflict ErrorKind = "placement_conflict"
	KindPersistence       ErrorKind = "persistence"
	KindNotFound          ErrorKind = "not_found"
)

// Error carries the kind of failure plus the operation that produced it.
type Error struct {
	Kind    ErrorKind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return "dashboard: " + msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error with the same kind, so the exported sentinels work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Op == "" && t.Message == ""
}

var (
	ErrValidation        = &Error{Kind: KindValidation}
	ErrInvalidQueryState = &Error{Kind: KindInvalidQueryState}
	ErrPlacementConflict = &Error{Kind: KindPlacementConflict}
	ErrPersistence       = &Error{Kind: KindPersistence}
	ErrNotFound          = &Error{Kind: KindNotFound}
)

// ErrSlugTaken is returned by gateways when a dashboard slug already exists.
var ErrSlugTaken = errors.New("dashboard: slug already taken")

var errMissingGateway = errors.New("dashboard: persistence gateway not configured")

const errArchived = "dashboard is archived"

func validationError(op, format string, args ...any) error {
	return &Error{Kind: KindValidation, Op: op, Message: fmt.Sprintf(format, args...)}
}

func notFoundError(op, format string, args ...any) error {
	return &Error{Kind: KindNotFound, Op: op, Message: fmt.Sprintf(format, args...)}
}

// persistenceError wraps gateway failures unless they already carry a kind.
func persistenceError(op string, err error) error {
	if err == nil {
		return nil
	}
	var kinded *Error
	if errors.As(err, &kinded) {
		return err
	}
	return &Error{Kind: KindPersistence, Op: op, Message: "gateway call failed", Err: err}
}

// KindOf reports the kind of err, or "" when err is not a dashboard error.
func KindOf(err error) ErrorKind {
	var kinded *Error
	if errors.As(err, &kinded) {
		return kinded.Kind
	}
	return ""
}
